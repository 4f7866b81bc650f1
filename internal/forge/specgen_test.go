package forge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

func TestSpecGeneratorWritesThreeDocuments(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	client := &mockClient{CompleteFunc: func(_ context.Context, _, user string) (string, error) {
		switch {
		case strings.Contains(user, "overview document"):
			return "# Calculator\n\nDoes arithmetic.", nil
		case strings.Contains(user, "function catalog"):
			return "## add\nAdds numbers.\nParameters: a, b", nil
		default:
			return "A calculator exposing add.", nil
		}
	}}

	err := NewSpecGenerator(client, store).Generate(context.Background(), "calculator", "basic arithmetic")
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)

	for _, doc := range []string{tool.DocDocumentation, tool.DocFunctions, tool.DocSummary} {
		assert.True(t, store.HasDoc("calculator", doc), "missing %s", doc)
	}

	summary, err := store.ReadDoc("calculator", tool.DocSummary)
	require.NoError(t, err)
	assert.Equal(t, "A calculator exposing add.", summary)
}

func TestSpecGeneratorSubstitutesPlaceholder(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("gateway down")
	}}

	// Generation never fails on gateway trouble, it degrades.
	err := NewSpecGenerator(client, store).Generate(context.Background(), "calculator", "")
	require.NoError(t, err)

	docs, err := store.ReadDoc("calculator", tool.DocDocumentation)
	require.NoError(t, err)
	assert.Equal(t, placeholderDoc, docs)
}

func TestSpecGeneratorEmptyPayloadPlaceholder(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "   \n", nil
	}}

	require.NoError(t, NewSpecGenerator(client, store).Generate(context.Background(), "calculator", ""))

	catalog, err := store.ReadDoc("calculator", tool.DocFunctions)
	require.NoError(t, err)
	assert.Equal(t, placeholderDoc, catalog)
}
