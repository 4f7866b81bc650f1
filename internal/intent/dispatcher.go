package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsaristov/boop-final-prototype/internal/forge"
	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/library"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/memory"
	"github.com/tsaristov/boop-final-prototype/internal/persona"
	"github.com/tsaristov/boop-final-prototype/internal/runner"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// memoryWindow is how much live history feeds the persona prompt.
const memoryWindow = 20

// Dispatcher routes each incoming message by intent: tool use, tool
// creation, library install, or plain persona chat. Every path returns a
// reply string; failures become apologetic text, never a propagated error.
type Dispatcher struct {
	fast      gateway.Client
	pipeline  *forge.Pipeline
	runner    *runner.Runner
	installer *library.Installer
	cache     *ListCache
	store     *memory.Store
	condenser *memory.Condenser
	persona   *persona.Responder
}

func NewDispatcher(
	fast gateway.Client,
	pipeline *forge.Pipeline,
	run *runner.Runner,
	installer *library.Installer,
	cache *ListCache,
	store *memory.Store,
	condenser *memory.Condenser,
	responder *persona.Responder,
) *Dispatcher {
	return &Dispatcher{
		fast:      fast,
		pipeline:  pipeline,
		runner:    run,
		installer: installer,
		cache:     cache,
		store:     store,
		condenser: condenser,
		persona:   responder,
	}
}

// HandleMessage processes one user message end to end and returns the
// reply.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID, message string) string {
	d.remember(userID, "user", message)

	installed, err := d.cache.Get(ctx)
	if err != nil {
		logging.Intent("tool list unavailable: %v", err)
	}

	intent := Detect(ctx, d.fast, message, installed)

	var reply string
	switch intent.Kind {
	case UseInstalledTool:
		reply = d.useTool(ctx, intent, message, installed)
	case RequestToolCreation:
		reply = d.createTool(ctx, intent, message)
	case InstallTool, RequestUninstalledTool:
		reply = d.installTool(ctx, intent, message)
	default:
		reply = d.chat(ctx, userID, message)
	}

	d.remember(userID, "assistant", reply)
	return reply
}

func (d *Dispatcher) useTool(ctx context.Context, intent Intent, message string, installed []ToolSummary) string {
	name := tool.NormalizeName(intent.ToolName)
	if name == "" && len(installed) == 1 {
		name = installed[0].Name
	}
	if name == "" {
		return "I couldn't tell which tool you meant. Installed tools: " + toolNames(installed)
	}

	result, err := d.runner.Run(ctx, name, message)
	if err == nil {
		return result
	}

	var unresolved *runner.UnresolvedArgsError
	switch {
	case errors.As(err, &unresolved):
		return fmt.Sprintf("I found the right function but couldn't work out these arguments: %v. Could you spell them out?", unresolved.Params)
	case errors.Is(err, runner.ErrToolNotFound):
		return fmt.Sprintf("I don't have a tool called %q installed.", name)
	default:
		logging.Intent("tool run failed: %v", err)
		return fmt.Sprintf("Running %s didn't work: %v", name, err)
	}
}

// createTool checks the library first so an existing tool is installed
// rather than rebuilt, then falls back to full synthesis.
func (d *Dispatcher) createTool(ctx context.Context, intent Intent, message string) string {
	defer d.cache.Invalidate()

	details := intent.Details
	if details == "" {
		details = message
	}

	if d.installer != nil {
		if name, err := d.installer.FindAndInstall(ctx, details); err == nil {
			return fmt.Sprintf("The library already had a tool for that, so I installed %q instead of building a new one.", name)
		}
	}

	name := intent.ToolName
	if name == "" {
		name = suggestName(ctx, d.fast, details)
	}
	return d.pipeline.CreateTool(ctx, name, details)
}

func (d *Dispatcher) installTool(ctx context.Context, intent Intent, message string) string {
	if d.installer == nil {
		return "I don't have a tool library configured, so I can't install anything."
	}
	defer d.cache.Invalidate()

	if intent.ToolName != "" {
		if err := d.installer.InstallByName(ctx, intent.ToolName); err == nil {
			return fmt.Sprintf("Installed %q from the library.", tool.NormalizeName(intent.ToolName))
		}
	}

	query := intent.Details
	if query == "" {
		query = message
	}
	name, err := d.installer.FindAndInstall(ctx, query)
	if err != nil {
		return fmt.Sprintf("I couldn't find a library tool for that: %v. I can build one if you ask me to create it.", err)
	}
	return fmt.Sprintf("Installed %q from the library.", name)
}

func (d *Dispatcher) chat(ctx context.Context, userID, message string) string {
	memoryContext := ""
	if d.condenser != nil {
		if mc, err := d.condenser.Context(userID, memoryWindow); err == nil {
			memoryContext = mc
		}
	}
	return d.persona.Respond(ctx, memoryContext, message)
}

func (d *Dispatcher) remember(userID, role, content string) {
	if d.store == nil || userID == "" {
		return
	}
	if err := d.store.AddMessage(userID, role, content); err != nil {
		logging.Memory("failed to store %s message: %v", role, err)
	}
}

// suggestName asks the fast model for a short tool name, falling back to a
// generic one.
func suggestName(ctx context.Context, llm gateway.Client, details string) string {
	raw, err := llm.CompleteWithSystem(ctx,
		"Respond with a short lowercase_underscore name for the described tool. One or two words, nothing else.",
		details)
	if err != nil {
		return "custom_tool"
	}
	name := tool.NormalizeName(raw)
	if name == "" || len(name) > 40 {
		return "custom_tool"
	}
	return name
}

func toolNames(installed []ToolSummary) string {
	if len(installed) == 0 {
		return "(none)"
	}
	names := make([]string, len(installed))
	for i, t := range installed {
		names[i] = t.Name
	}
	return fmt.Sprintf("%v", names)
}
