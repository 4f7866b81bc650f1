package forge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

func failingResults() map[string]FunctionResult {
	return map[string]FunctionResult{
		"Divide": {
			Name:   "Divide",
			Passed: false,
			Cases: []CaseResult{
				{
					Case:       TestCase{Label: "known: 1/0 probe", Args: map[string]any{"a": 1, "b": 0}},
					ErrKind:    "panic",
					ErrMessage: "runtime error: integer divide by zero",
				},
				{
					Case:     TestCase{Label: "known: 5/2", Args: map[string]any{"a": 5, "b": 2}, Expected: 2.5, HasExpected: true},
					Mismatch: true,
					Actual:   "2",
				},
			},
		},
		"Add": {Name: "Add", Passed: true},
	}
}

func TestBuildFailureDigest(t *testing.T) {
	digest := buildFailureDigest(failingResults())

	assert.Contains(t, digest, "Function Divide:")
	assert.Contains(t, digest, "Divide(a=1, b=0)")
	assert.Contains(t, digest, "raised panic: runtime error: integer divide by zero")
	assert.Contains(t, digest, "expected 2.5, got 2")
	assert.NotContains(t, digest, "Function Add:", "passing functions are not in the digest")
}

func TestFixerReturnsCleanedSource(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	var seenPrompt string
	client := &mockClient{CompleteFunc: func(_ context.Context, _, user string) (string, error) {
		seenPrompt = user
		return "```go\npackage main\n\nfunc Divide(a, b float64) float64 {\n\tif b == 0 {\n\t\treturn 0\n\t}\n\treturn a / b\n}\n```", nil
	}}

	fixed, err := NewFixer(client, store).Fix(context.Background(), "calc", "package main\n", failingResults())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fixed, "package main"))
	assert.Contains(t, seenPrompt, "Divide(a=1, b=0)")
	assert.Contains(t, seenPrompt, "Preserve every function signature")
}

func TestFixerRejectsProposalWithoutFunctions(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "I am unable to fix this code, sorry.", nil
	}}

	_, err := NewFixer(client, store).Fix(context.Background(), "calc", "package main\n", failingResults())
	assert.ErrorIs(t, err, ErrFixRejected)
}

func TestFixerNothingFailing(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	results := map[string]FunctionResult{"Add": {Name: "Add", Passed: true}}

	_, err := NewFixer(&mockClient{}, store).Fix(context.Background(), "calc", "package main\n", results)
	assert.Error(t, err)
}
