package intent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsaristov/boop-final-prototype/internal/forge"
	"github.com/tsaristov/boop-final-prototype/internal/memory"
	"github.com/tsaristov/boop-final-prototype/internal/persona"
	"github.com/tsaristov/boop-final-prototype/internal/runner"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

const calcSource = `package main

func Add(a, b int) int {
	return a + b
}
`

// scriptedClient answers intent detection, selection, extraction, and
// persona calls from one function.
func newDispatcher(t *testing.T, llm *mockClient) (*Dispatcher, *memory.Store, *tool.Store) {
	t.Helper()

	store := tool.NewStore(t.TempDir())
	require.NoError(t, store.WriteDoc("calculator", tool.DocSummary, "Basic arithmetic."))
	require.NoError(t, store.WriteDoc("calculator", tool.DocFunctions, "## add\nAdds.\nParameters: a, b\n"))
	require.NoError(t, store.WriteDoc("calculator", tool.SourceFile, calcSource))

	mem, err := memory.Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	d := NewDispatcher(
		llm,
		forge.NewPipeline(llm, store, 2, time.Second),
		runner.New(llm, store, time.Second),
		nil,
		NewListCache(store, time.Minute),
		mem,
		nil,
		persona.New(llm, ""),
	)
	return d, mem, store
}

func TestHandleMessageChatPath(t *testing.T) {
	llm := &mockClient{CompleteFunc: func(_ context.Context, system, _ string) (string, error) {
		if strings.Contains(system, "classify") {
			return `{"intent": "NO_TOOL_INTENT"}`, nil
		}
		return "Hello! How can I help?", nil
	}}
	d, mem, _ := newDispatcher(t, llm)

	reply := d.HandleMessage(context.Background(), "alice", "hi there")
	assert.Equal(t, "Hello! How can I help?", reply)

	messages, err := mem.RecentMessages("alice", 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestHandleMessageUsesTool(t *testing.T) {
	llm := &mockClient{CompleteFunc: func(_ context.Context, system, _ string) (string, error) {
		switch {
		case strings.Contains(system, "classify a chat message"):
			return `{"intent": "USE_INSTALLED_TOOL", "tool_name": "calculator"}`, nil
		case strings.Contains(system, "function classifier"):
			return `{"function_name": "add", "reason": "arithmetic"}`, nil
		default:
			return `{"value": null}`, nil
		}
	}}
	d, _, _ := newDispatcher(t, llm)

	reply := d.HandleMessage(context.Background(), "alice", "add a=2 b=3 please")
	assert.Equal(t, "Result from add: 5", reply)
}

func TestHandleMessageUnresolvedArguments(t *testing.T) {
	llm := &mockClient{CompleteFunc: func(_ context.Context, system, _ string) (string, error) {
		switch {
		case strings.Contains(system, "classify a chat message"):
			return `{"intent": "USE_INSTALLED_TOOL", "tool_name": "calculator"}`, nil
		case strings.Contains(system, "function classifier"):
			return `{"function_name": "add", "reason": "arithmetic"}`, nil
		default:
			return `{"value": null}`, nil
		}
	}}
	d, _, _ := newDispatcher(t, llm)

	reply := d.HandleMessage(context.Background(), "alice", "add something")
	assert.Contains(t, reply, "couldn't work out these arguments")
	assert.Contains(t, reply, "a")
	assert.Contains(t, reply, "b")
}

func TestHandleMessageUnknownTool(t *testing.T) {
	llm := &mockClient{CompleteFunc: func(_ context.Context, system, _ string) (string, error) {
		if strings.Contains(system, "classify a chat message") {
			return `{"intent": "USE_INSTALLED_TOOL", "tool_name": "weather"}`, nil
		}
		return "", nil
	}}
	d, _, _ := newDispatcher(t, llm)

	reply := d.HandleMessage(context.Background(), "alice", "what's the weather")
	assert.Contains(t, reply, `"weather"`)
}

func TestHandleMessageCreateToolPath(t *testing.T) {
	llm := &mockClient{CompleteFunc: func(_ context.Context, system, user string) (string, error) {
		switch {
		case strings.Contains(system, "classify a chat message"):
			return `{"intent": "REQUEST_TOOL_CREATION", "tool_name": "doubler", "details": "doubles a number"}`, nil
		case strings.Contains(system, "code generator"):
			return "```go\npackage main\n\nfunc Double(n int) int {\n\treturn n * 2\n}\n```", nil
		case strings.Contains(user, "function catalog for"):
			return "## double\nDoubles a number.\nParameters: n\n", nil
		default:
			return "A doubling tool.", nil
		}
	}}
	d, _, store := newDispatcher(t, llm)

	reply := d.HandleMessage(context.Background(), "alice", "make me a tool that doubles numbers")
	assert.Contains(t, reply, `"doubler"`)
	assert.True(t, store.HasDoc("doubler", tool.SourceFile))
}

func TestHandleMessageInstallWithoutLibrary(t *testing.T) {
	llm := &mockClient{CompleteFunc: func(_ context.Context, system, _ string) (string, error) {
		if strings.Contains(system, "classify a chat message") {
			return `{"intent": "INSTALL_TOOL", "tool_name": "weather"}`, nil
		}
		return "", nil
	}}
	d, _, _ := newDispatcher(t, llm)

	reply := d.HandleMessage(context.Background(), "alice", "install the weather tool")
	assert.Contains(t, reply, "library")
}
