package player

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

func validBody(t *testing.T, overrides map[string]any, drop ...string) []byte {
	t.Helper()
	m := make(map[string]any, len(Schema))
	for i, f := range Schema {
		if f.Kind == KindFloat {
			m[f.Name] = 60.5 + float64(i)
		} else {
			m[f.Name] = 50 + i
		}
	}
	m[PositionField] = 14
	for k, v := range overrides {
		m[k] = v
	}
	for _, k := range drop {
		delete(m, k)
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return data
}

func fieldNames(fe []domain.FieldError) []string {
	out := make([]string, len(fe))
	for i, f := range fe {
		out[i] = f.Field
	}
	return out
}

func TestSchemaHasFiftyUniqueFields(t *testing.T) {
	require.Len(t, Schema, 50)
	seen := map[string]bool{}
	for _, f := range Schema {
		assert.False(t, seen[f.Name], "duplicate field %s", f.Name)
		seen[f.Name] = true
	}
	assert.Equal(t, 0, Index(PositionField))
	assert.Equal(t, -1, Index("nope"))
}

func TestValidate_Valid(t *testing.T) {
	rec, err := Validate(validBody(t, nil), false)
	require.NoError(t, err)

	assert.Equal(t, 14, rec.PositionCode())
	row := rec.Row()
	require.Len(t, row, len(Schema))
	assert.Equal(t, 14.0, row[0])
	assert.Equal(t, 51.0, row[1])

	pace, ok := rec.Float("pace")
	require.True(t, ok)
	assert.InDelta(t, 69.5, pace, 1e-9)

	// Row returns a copy.
	row[0] = 999
	assert.Equal(t, 14, rec.PositionCode())
}

func TestValidate_IntAcceptsIntegralFloat(t *testing.T) {
	rec, err := Validate(validBody(t, map[string]any{"age": 24.0}), false)
	require.NoError(t, err)
	age, _ := rec.Int("age")
	assert.Equal(t, int64(24), age)
}

func TestValidate_FloatAcceptsInteger(t *testing.T) {
	rec, err := Validate(validBody(t, map[string]any{"pace": 88}), false)
	require.NoError(t, err)
	pace, _ := rec.Float("pace")
	assert.Equal(t, 88.0, pace)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		wantFields []string
	}{
		{
			name:       "missing field",
			body:       validBody(t, nil, "age"),
			wantFields: []string{"age"},
		},
		{
			name:       "fractional int",
			body:       validBody(t, map[string]any{"weak_foot": 3.5}),
			wantFields: []string{"weak_foot"},
		},
		{
			name:       "string value",
			body:       validBody(t, map[string]any{"pace": "fast"}),
			wantFields: []string{"pace"},
		},
		{
			name:       "null and bool",
			body:       validBody(t, map[string]any{"age": nil, "physic": true}),
			wantFields: []string{"age", "physic"},
		},
		{
			name:       "several missing in schema order",
			body:       validBody(t, nil, "goalkeeping_speed", "player_positions", "mentality_composure"),
			wantFields: []string{"player_positions", "mentality_composure", "goalkeeping_speed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.body, false)
			require.Error(t, err)
			de, ok := domain.AsError(err)
			require.True(t, ok)
			assert.Equal(t, domain.KindSchemaValidation, de.Kind)
			assert.Equal(t, tt.wantFields, fieldNames(de.Fields))
			for _, f := range tt.wantFields {
				assert.Contains(t, de.Error(), f)
			}
		})
	}
}

func TestValidate_NotAnObject(t *testing.T) {
	for _, body := range []string{"", "null", "[1,2]", "42", "{", `{"age": 1} {}`} {
		_, err := Validate([]byte(body), false)
		assert.True(t, domain.IsKind(err, domain.KindSchemaValidation), "body %q", body)
	}
}

func TestValidate_TrailingData(t *testing.T) {
	body := validBody(t, nil)
	for _, tail := range []string{"}", "]", "}]", " {}", ` "x"`} {
		_, err := Validate(append(append([]byte{}, body...), tail...), false)
		assert.True(t, domain.IsKind(err, domain.KindSchemaValidation), "tail %q", tail)
	}

	_, err := Validate(append(append([]byte{}, body...), " \n\t"...), false)
	assert.NoError(t, err)
}

func TestValidate_ExtraFields(t *testing.T) {
	body := validBody(t, map[string]any{"zz_extra": 1, "aa_extra": 2})

	_, err := Validate(body, false)
	require.NoError(t, err)

	_, err = Validate(body, true)
	require.Error(t, err)
	de, _ := domain.AsError(err)
	assert.Equal(t, []string{"aa_extra", "zz_extra"}, fieldNames(de.Fields))
}

func TestRecordMap(t *testing.T) {
	rec, err := Validate(validBody(t, nil), false)
	require.NoError(t, err)
	m := rec.Map()
	assert.Len(t, m, len(Schema))
	assert.IsType(t, int64(0), m["age"])
	assert.IsType(t, float64(0), m["pace"])
}
