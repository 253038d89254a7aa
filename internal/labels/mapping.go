// Package labels resolves integer position codes to position strings using
// the label mapping file produced alongside the models.
package labels

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// Section is the top-level key holding the position table.
const Section = "player_positions"

// Format selects the mapping file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from the file extension.
func FormatFor(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Entry is one position string and its code.
type Entry struct {
	Position string
	Code     int
}

// Mapping is the forward table position -> code in file order. Duplicates
// are kept so that Reverse can report them.
type Mapping struct {
	entries []Entry
}

// NewMapping builds a Mapping from entries in the given order.
func NewMapping(entries ...Entry) Mapping {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return Mapping{entries: out}
}

// Entries returns a copy of the entries in file order.
func (m Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m Mapping) Len() int { return len(m.entries) }

// Code returns the code for position.
func (m Mapping) Code(position string) (int, bool) {
	for _, e := range m.entries {
		if e.Position == position {
			return e.Code, true
		}
	}
	return 0, false
}

// Codes returns every code in file order.
func (m Mapping) Codes() []int {
	out := make([]int, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Code
	}
	return out
}

// Reverse builds the code -> position table. A mapping that is not injective
// cannot be resolved deterministically and is rejected.
func (m Mapping) Reverse() (map[int]string, error) {
	rev := make(map[int]string, len(m.entries))
	seen := make(map[string]bool, len(m.entries))
	for _, e := range m.entries {
		if e.Code < 0 {
			return nil, domain.IntegrityError(fmt.Sprintf("position %q has negative code %d", e.Position, e.Code))
		}
		if seen[e.Position] {
			return nil, domain.IntegrityError(fmt.Sprintf("position %q is listed more than once", e.Position))
		}
		seen[e.Position] = true
		if prev, dup := rev[e.Code]; dup {
			return nil, domain.IntegrityError(fmt.Sprintf("code %d is assigned to both %q and %q", e.Code, prev, e.Position))
		}
		rev[e.Code] = e.Position
	}
	return rev, nil
}

// Parse decodes a mapping document of the form
// {"player_positions": {"<position>": <code>, ...}}.
func Parse(data []byte, format Format) (Mapping, error) {
	var (
		m   Mapping
		err error
	)
	if format == FormatYAML {
		m, err = parseYAML(data)
	} else {
		m, err = parseJSON(data)
	}
	if err != nil {
		return Mapping{}, domain.ConfigError("label mapping is malformed", err)
	}
	return m, nil
}

func parseJSON(data []byte) (Mapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return Mapping{}, err
	}
	var (
		m     Mapping
		found bool
	)
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return Mapping{}, err
		}
		if key != Section {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Mapping{}, fmt.Errorf("skip %q: %w", key, err)
			}
			continue
		}
		if found {
			return Mapping{}, fmt.Errorf("%q appears more than once", Section)
		}
		found = true
		if m, err = parsePositionsJSON(dec); err != nil {
			return Mapping{}, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Mapping{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Mapping{}, errors.New("trailing data after mapping document")
	}
	if !found {
		return Mapping{}, fmt.Errorf("missing %q section", Section)
	}
	return m, nil
}

func parsePositionsJSON(dec *json.Decoder) (Mapping, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Mapping{}, fmt.Errorf("%s: %w", Section, err)
	}
	var m Mapping
	for dec.More() {
		pos, err := stringToken(dec)
		if err != nil {
			return Mapping{}, err
		}
		tok, err := dec.Token()
		if err != nil {
			return Mapping{}, fmt.Errorf("position %q: %w", pos, err)
		}
		num, ok := tok.(json.Number)
		if !ok {
			return Mapping{}, fmt.Errorf("position %q: code must be an integer, got %v", pos, tok)
		}
		code, err := toCode(num.String())
		if err != nil {
			return Mapping{}, fmt.Errorf("position %q: %w", pos, err)
		}
		m.entries = append(m.entries, Entry{Position: pos, Code: code})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

func toCode(text string) (int, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid code %s", text)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("code must be an integer, got %s", text)
	}
	return int(f), nil
}

func parseYAML(data []byte) (Mapping, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Mapping{}, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Mapping{}, errors.New("empty mapping document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Mapping{}, errors.New("mapping document must be a map")
	}

	var section *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == Section {
			if section != nil {
				return Mapping{}, fmt.Errorf("%q appears more than once", Section)
			}
			section = root.Content[i+1]
		}
	}
	if section == nil {
		return Mapping{}, fmt.Errorf("missing %q section", Section)
	}
	if section.Kind != yaml.MappingNode {
		return Mapping{}, fmt.Errorf("%s must be a map", Section)
	}

	var m Mapping
	for i := 0; i+1 < len(section.Content); i += 2 {
		k, v := section.Content[i], section.Content[i+1]
		if v.Kind != yaml.ScalarNode || (v.Tag != "!!int" && v.Tag != "!!float") {
			return Mapping{}, fmt.Errorf("position %q: code must be an integer, got %q", k.Value, v.Value)
		}
		code, err := toCode(v.Value)
		if err != nil {
			return Mapping{}, fmt.Errorf("position %q: %w", k.Value, err)
		}
		m.entries = append(m.entries, Entry{Position: k.Value, Code: code})
	}
	return m, nil
}
