package forge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

func TestCreateToolEndToEnd(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	client := &mockClient{CompleteFunc: func(_ context.Context, system, user string) (string, error) {
		if strings.Contains(system, "code generator") {
			return "```go\n" + workingAddSource + "```", nil
		}
		if strings.Contains(user, "function catalog for") {
			return "## add\nAdds two numbers.\nParameters: a, b", nil
		}
		return "An arithmetic tool.", nil
	}}

	outcome := NewPipeline(client, store, 5, time.Second).CreateTool(context.Background(), "Calc Tool", "adds numbers")

	assert.Contains(t, outcome, `"calc_tool"`)
	assert.Contains(t, outcome, "passing")
	assert.True(t, store.HasDoc("calc_tool", tool.SourceFile))

	md, err := store.ReadMetadata("calc_tool")
	require.NoError(t, err)
	assert.Equal(t, "calc_tool", md.Name)
}

func TestCreateToolReportsSynthesisFailure(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	calls := 0
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		calls++
		if calls <= 3 {
			return "spec text", nil
		}
		return "", errors.New("gateway down")
	}}

	outcome := NewPipeline(client, store, 5, time.Second).CreateTool(context.Background(), "calc", "")
	assert.Contains(t, outcome, "synthesizing code")
	assert.False(t, store.HasDoc("calc", tool.SourceFile))
}

func TestCreateToolRequiresName(t *testing.T) {
	outcome := NewPipeline(&mockClient{}, tool.NewStore(t.TempDir()), 5, time.Second).CreateTool(context.Background(), "   ", "")
	assert.Contains(t, outcome, "needs a name")
}

func TestDebugToolStandalone(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	writeTool(t, store, "calc", workingAddSource)

	ok := NewPipeline(&mockClient{}, store, 5, time.Second).DebugTool(context.Background(), "Calc", 3)
	assert.True(t, ok)
}
