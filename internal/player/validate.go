package player

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

const (
	reasonMissing   = "missing"
	reasonWrongType = "wrong type"
	reasonUnknown   = "unexpected field"
)

// Validate decodes body as a JSON object and checks it against Schema. Every
// offending field is reported in a single schema validation error. In strict
// mode fields outside the schema are rejected; otherwise they are ignored.
func Validate(body []byte, strict bool) (Record, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return Record{}, domain.SchemaError(fmt.Sprintf("request body is not a JSON object: %v", err))
	}
	if raw == nil {
		return Record{}, domain.SchemaError("request body is not a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Record{}, domain.SchemaError("request body has trailing data after the JSON object")
	}

	values := make([]float64, len(Schema))
	var problems []domain.FieldError

	for i, f := range Schema {
		msg, ok := raw[f.Name]
		if !ok {
			problems = append(problems, domain.FieldError{Field: f.Name, Reason: reasonMissing})
			continue
		}
		v, err := parseValue(msg, f.Kind)
		if err != nil {
			problems = append(problems, domain.FieldError{
				Field:  f.Name,
				Reason: fmt.Sprintf("%s: expected %s, %v", reasonWrongType, f.Kind, err),
			})
			continue
		}
		values[i] = v
	}

	if strict {
		var extras []string
		for name := range raw {
			if Index(name) < 0 {
				extras = append(extras, name)
			}
		}
		sort.Strings(extras)
		for _, name := range extras {
			problems = append(problems, domain.FieldError{Field: name, Reason: reasonUnknown})
		}
	}

	if len(problems) > 0 {
		return Record{}, domain.SchemaError(describe(problems), problems...)
	}
	return Record{values: values}, nil
}

func parseValue(msg json.RawMessage, kind Kind) (float64, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return 0, fmt.Errorf("got empty value")
	}
	switch c := msg[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
	case c == '"':
		return 0, fmt.Errorf("got string")
	case c == 't' || c == 'f':
		return 0, fmt.Errorf("got boolean")
	case c == 'n':
		return 0, fmt.Errorf("got null")
	case c == '{':
		return 0, fmt.Errorf("got object")
	case c == '[':
		return 0, fmt.Errorf("got array")
	default:
		return 0, fmt.Errorf("got invalid token")
	}

	text := string(msg)
	if kind == KindInt {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return float64(n), nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, fmt.Errorf("got out of range number %s", text)
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("got fractional number %s", text)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("got out of range number %s", text)
		}
		return f, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fmt.Errorf("got out of range number %s", text)
	}
	return f, nil
}

func describe(problems []domain.FieldError) string {
	parts := make([]string, len(problems))
	for i, p := range problems {
		parts[i] = p.Field + " (" + p.Reason + ")"
	}
	return "invalid player record: " + strings.Join(parts, ", ")
}
