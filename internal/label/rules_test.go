package label_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsk-labs/label-sorter/internal/label"
)

func TestParseRules_Valid(t *testing.T) {
	rules, err := label.ParseRules([]byte(`[
		{"pattern": "amazon\\s*transport", "courier": "ATS"},
		{"pattern": "wowexpress", "courier": "WowExpress"}
	]`))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.True(t, rules[0].Pattern.MatchString("AMAZON TRANSPORT Services"))
	assert.Equal(t, "ATS", rules[0].Courier)
	assert.Equal(t, "WowExpress", rules[1].Courier)
}

func TestParseRules_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not an array", `{"pattern": "x", "courier": "Y"}`},
		{"empty array", `[]`},
		{"missing courier", `[{"pattern": "x"}]`},
		{"empty pattern", `[{"pattern": "", "courier": "Y"}]`},
		{"extra field", `[{"pattern": "x", "courier": "Y", "priority": 1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := label.ParseRules([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestParseRules_BadRegexp(t *testing.T) {
	_, err := label.ParseRules([]byte(`[{"pattern": "(", "courier": "Y"}]`))
	assert.ErrorContains(t, err, "compile rule pattern")
}

func TestParseRules_InvalidJSON(t *testing.T) {
	_, err := label.ParseRules([]byte(`not json`))
	assert.Error(t, err)
}
