package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdictPlainJSON(t *testing.T) {
	v, err := ParseVerdict(`{"verdict":"Safe","explanation":"Nothing suspicious."}`)
	require.NoError(t, err)
	assert.Equal(t, VerdictSafe, v.Verdict)
	assert.Equal(t, "Nothing suspicious.", v.Explanation)
}

func TestParseVerdictStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"verdict\":\"High Risk\",\"explanation\":\"Urgency plus a credential request.\"}\n```"
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, VerdictHighRisk, v.Verdict)
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	_, err := ParseVerdict("the site is probably fine")
	assert.Error(t, err)
}

func TestParseVerdictRejectsMissingVerdict(t *testing.T) {
	_, err := ParseVerdict(`{"explanation":"no verdict key"}`)
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient()
	assert.Error(t, err)

	t.Setenv("GEMINI_API_KEY", "test-key")
	c, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, "test-key", c.APIKey)
}
