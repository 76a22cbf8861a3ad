package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap/internal/platform/markdown"
)

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()
	doc := markdown.Document{Meta: map[string]any{"completed": 2}, Body: "# Report\n"}
	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, "completed: 2")

	parsed, err := markdown.Parse(rendered)
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.Meta["completed"])
	assert.Equal(t, "\n# Report\n", parsed.Body)
}

func TestParseWithoutFrontmatter(t *testing.T) {
	t.Parallel()
	parsed, err := markdown.Parse("plain body")
	require.NoError(t, err)
	assert.Empty(t, parsed.Meta)
	assert.Equal(t, "plain body", parsed.Body)

	_, err = markdown.Parse("---\nkey: v\nno closing")
	require.Error(t, err)
}

func TestBlockReplaceKeepsSurroundingText(t *testing.T) {
	t.Parallel()
	block := markdown.Block{Start: "<!-- s -->", End: "<!-- e -->"}
	first := block.Replace("", "one")
	assert.Equal(t, "<!-- s -->\none\n<!-- e -->\n", first)

	edited := "my notes\n" + first + "trailer\n"
	second := block.Replace(edited, "two")
	assert.Equal(t, "my notes\n<!-- s -->\ntwo\n<!-- e -->\ntrailer\n", second)

	content, ok := block.Content(second)
	require.True(t, ok)
	assert.Equal(t, "two", content)
}
