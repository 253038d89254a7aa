package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

const fullMapping = `{
  "player_positions": {
    "CAM": 0, "CB": 1, "CDM": 2, "CF": 3, "CM": 4, "GK": 5, "LB": 6, "LM": 7,
    "LW": 8, "LWB": 9, "RB": 10, "RM": 11, "RW": 12, "RWB": 13, "ST": 14
  },
  "work_rate": {"High/High": 0}
}`

func TestParse_PreservesFileOrder(t *testing.T) {
	m, err := Parse([]byte(`{"player_positions": {"ST": 14, "CB": 1}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []int{14, 1}, m.Codes())
	assert.Equal(t, []Entry{{"ST", 14}, {"CB", 1}}, m.Entries())
}

func TestParse_IgnoresOtherSections(t *testing.T) {
	m, err := Parse([]byte(fullMapping), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 15, m.Len())
	code, ok := m.Code("GK")
	require.True(t, ok)
	assert.Equal(t, 5, code)
}

func TestReverse_RoundTrip(t *testing.T) {
	m, err := Parse([]byte(fullMapping), FormatJSON)
	require.NoError(t, err)
	rev, err := m.Reverse()
	require.NoError(t, err)

	for _, e := range m.Entries() {
		code, ok := m.Code(e.Position)
		require.True(t, ok)
		assert.Equal(t, e.Position, rev[code])
	}
}

func TestReverse_IntegrityFailures(t *testing.T) {
	tests := map[string]Mapping{
		"duplicate code":     NewMapping(Entry{"ST", 14}, Entry{"CF", 14}),
		"duplicate position": NewMapping(Entry{"ST", 14}, Entry{"ST", 3}),
		"negative code":      NewMapping(Entry{"ST", -1}),
	}
	for name, m := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Reverse()
			assert.True(t, domain.IsKind(err, domain.KindMappingIntegrity), "got %v", err)
		})
	}
}

func TestParse_DuplicateKeysSurviveForIntegrityCheck(t *testing.T) {
	m, err := Parse([]byte(`{"player_positions": {"ST": 14, "ST": 13}}`), FormatJSON)
	require.NoError(t, err)
	_, err = m.Reverse()
	assert.True(t, domain.IsKind(err, domain.KindMappingIntegrity))
}

func TestParse_Malformed(t *testing.T) {
	docs := map[string]string{
		"not json":        `{nope`,
		"missing section": `{"positions": {"ST": 14}}`,
		"string code":     `{"player_positions": {"ST": "14"}}`,
		"fractional code": `{"player_positions": {"ST": 14.5}}`,
		"array section":   `{"player_positions": [14]}`,
		"trailing data":   `{"player_positions": {}} {}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), FormatJSON)
			assert.True(t, domain.IsKind(err, domain.KindConfiguration), "got %v", err)
		})
	}
}

func TestParse_YAML(t *testing.T) {
	doc := "player_positions:\n  ST: 14\n  CB: 1\n  GK: 5\n"
	m, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []int{14, 1, 5}, m.Codes())

	_, err = Parse([]byte("player_positions:\n  ST: striker\n"), FormatYAML)
	assert.True(t, domain.IsKind(err, domain.KindConfiguration))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("labels.json"))
	assert.Equal(t, FormatYAML, FormatFor("labels.YML"))
	assert.Equal(t, FormatYAML, FormatFor("conf/labels.yaml"))
}
