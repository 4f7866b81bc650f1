package forge

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

const brokenDivideSource = `package main

func Divide(a, b int) int {
	return a / b
}
`

const fixedDivideSource = `package main

func Divide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
`

const workingAddSource = `package main

func Add(a, b int) int {
	return a + b
}
`

func writeTool(t *testing.T, store *tool.Store, name, source string) {
	t.Helper()
	require.NoError(t, store.WriteDoc(name, tool.SourceFile, source))
	require.NoError(t, store.WriteDoc(name, tool.DocDocumentation, "Arithmetic tool."))
	require.NoError(t, store.WriteDoc(name, tool.DocFunctions, "## divide\nDivides a by b.\nParameters: a, b\n"))
}

func TestDebugConvergesWithoutFix(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	writeTool(t, store, "calc", workingAddSource)
	client := &mockClient{}

	session := NewController(client, store, 5, time.Second).Run(context.Background(), "calc")

	assert.True(t, session.Passed)
	assert.Equal(t, 0, session.Iterations)
	assert.Zero(t, client.calls, "no fix call for a passing module")
}

func TestDebugConvergesAfterOneFix(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	writeTool(t, store, "calc", brokenDivideSource)
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "```go\n" + fixedDivideSource + "```", nil
	}}

	session := NewController(client, store, 5, time.Second).Run(context.Background(), "calc")

	assert.True(t, session.Passed, "outcome: %s", session.Outcome)
	assert.Equal(t, 1, session.Iterations)
	assert.Equal(t, 1, client.calls)

	onDisk, err := os.ReadFile(store.SourcePath("calc"))
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "if b == 0")
}

func TestDebugExhaustsBudget(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	writeTool(t, store, "calc", brokenDivideSource)

	// Every proposed fix is the same still-broken module.
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "```go\n" + brokenDivideSource + "```", nil
	}}

	maxAttempts := 2
	session := NewController(client, store, maxAttempts, time.Second).Run(context.Background(), "calc")

	assert.False(t, session.Passed)
	assert.Equal(t, maxAttempts, session.Iterations)
	assert.Equal(t, maxAttempts, client.calls)
	assert.Contains(t, session.Outcome, "exhausted")

	// The module stays in its last-attempted state.
	onDisk, err := os.ReadFile(store.SourcePath("calc"))
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "return a / b")
}

func TestDebugRejectedFixLeavesModuleUntouched(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	writeTool(t, store, "calc", brokenDivideSource)
	client := &mockClient{CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
		return "Sorry, I cannot help with that.", nil
	}}

	before, err := os.ReadFile(store.SourcePath("calc"))
	require.NoError(t, err)

	session := NewController(client, store, 5, time.Second).Run(context.Background(), "calc")
	assert.False(t, session.Passed)
	assert.Equal(t, 0, session.Iterations)

	after, err := os.ReadFile(store.SourcePath("calc"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected fix must never be written")
}

func TestDebugAbortsOnUnloadableModule(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	writeTool(t, store, "calc", "not go source at all")
	client := &mockClient{}

	session := NewController(client, store, 5, time.Second).Run(context.Background(), "calc")

	assert.False(t, session.Passed)
	assert.Equal(t, 0, session.Iterations)
	assert.Contains(t, session.Outcome, "aborted")
	assert.Zero(t, client.calls)
}

func TestDebugMissingModuleAborts(t *testing.T) {
	store := tool.NewStore(t.TempDir())
	session := NewController(&mockClient{}, store, 5, time.Second).Run(context.Background(), "ghost")

	assert.False(t, session.Passed)
	assert.Contains(t, session.Outcome, "aborted")
}
