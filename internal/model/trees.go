package model

import (
	"fmt"
)

const (
	aggregateSum  = "sum"
	aggregateMean = "mean"
)

type node struct {
	leaf        bool
	value       float64
	feature     int
	threshold   float64
	left, right int
}

// TreeEnsemble evaluates boosted (sum) or bagged (mean) regression trees.
// A sample goes left when x[feature] <= threshold.
type TreeEnsemble struct {
	header
	base  float64
	mean  bool
	trees [][]node
}

func newTreeEnsemble(h header, base float64, aggregation string, docs []treeDoc) (*TreeEnsemble, error) {
	var mean bool
	switch aggregation {
	case "", aggregateSum:
	case aggregateMean:
		mean = true
	default:
		return nil, fmt.Errorf("model: unsupported aggregation %q", aggregation)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("model: tree ensemble has no trees")
	}

	trees := make([][]node, len(docs))
	for t, doc := range docs {
		if len(doc.Nodes) == 0 {
			return nil, fmt.Errorf("model: tree %d has no nodes", t)
		}
		nodes := make([]node, len(doc.Nodes))
		for i, n := range doc.Nodes {
			if n.Leaf {
				nodes[i] = node{leaf: true, value: n.Value}
				continue
			}
			if n.Feature < 0 || n.Feature >= len(h.features) {
				return nil, fmt.Errorf("model: tree %d node %d: feature index %d out of range", t, i, n.Feature)
			}
			// Children must follow their parent, which rules out cycles.
			for _, c := range []int{n.Left, n.Right} {
				if c <= i || c >= len(doc.Nodes) {
					return nil, fmt.Errorf("model: tree %d node %d: child index %d invalid", t, i, c)
				}
			}
			nodes[i] = node{
				feature:   n.Feature,
				threshold: n.Threshold,
				left:      n.Left,
				right:     n.Right,
			}
		}
		trees[t] = nodes
	}

	return &TreeEnsemble{header: h, base: base, mean: mean, trees: trees}, nil
}

func (m *TreeEnsemble) Kind() string { return KindTreeEnsemble }

func (m *TreeEnsemble) Predict(row []float64) (float64, error) {
	if err := m.checkRow(row); err != nil {
		return 0, err
	}
	var sum float64
	for _, nodes := range m.trees {
		sum += walk(nodes, row)
	}
	if m.mean {
		sum /= float64(len(m.trees))
	}
	return m.finish(m.base + sum)
}

func walk(nodes []node, row []float64) float64 {
	i := 0
	for !nodes[i].leaf {
		n := nodes[i]
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return nodes[i].value
}
