package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTidyPrompt(t *testing.T) {
	out, err := BuildTidyPrompt("Dear MP, the bins.")
	require.NoError(t, err)
	assert.Contains(t, out, "Original Letter:\nDear MP, the bins.\n")
	assert.True(t, len(out) > 0 && out[len(out)-1] == ':')
}

func TestBuildSuggestionPrompt(t *testing.T) {
	out, err := BuildSuggestionPrompt("Local Roads", "Holborn")
	require.NoError(t, err)
	assert.Contains(t, out, "in the Holborn constituency related to Local Roads.")

	out, err = BuildSuggestionPrompt("MP Conduct - (Expenses)", "Holborn")
	require.NoError(t, err)
	assert.Contains(t, out, "you, as their MP")
	assert.NotContains(t, out, "Expenses")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewPromptBuilder().Render("missing.tmpl", nil)
	assert.Error(t, err)
}
