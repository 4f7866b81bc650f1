package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

// Kind is the classified purpose of an incoming message.
type Kind string

const (
	UseInstalledTool       Kind = "USE_INSTALLED_TOOL"
	RequestToolCreation    Kind = "REQUEST_TOOL_CREATION"
	InstallTool            Kind = "INSTALL_TOOL"
	RequestUninstalledTool Kind = "REQUEST_UNINSTALLED_TOOL"
	NoToolIntent           Kind = "NO_TOOL_INTENT"
)

// Intent is one classified message.
type Intent struct {
	Kind     Kind   `json:"intent"`
	ToolName string `json:"tool_name"`
	Details  string `json:"details"`
}

const detectorSystemPrompt = `You classify a chat message against a list of
installed tools. Respond with JSON only:
{"intent": "<USE_INSTALLED_TOOL|REQUEST_TOOL_CREATION|INSTALL_TOOL|REQUEST_UNINSTALLED_TOOL|NO_TOOL_INTENT>",
 "tool_name": "<tool name or empty>",
 "details": "<what the tool should do, or empty>"}

USE_INSTALLED_TOOL: the message asks to do something an installed tool does.
REQUEST_TOOL_CREATION: the message explicitly asks to create or build a tool.
INSTALL_TOOL: the message asks to install or get a named tool.
REQUEST_UNINSTALLED_TOOL: the message needs a tool ability nothing installed has.
NO_TOOL_INTENT: ordinary conversation.`

// Detect classifies one message. Any gateway or parse failure degrades to
// NO_TOOL_INTENT so chat keeps working.
func Detect(ctx context.Context, llm gateway.Client, message string, installed []ToolSummary) Intent {
	var listing strings.Builder
	for _, t := range installed {
		fmt.Fprintf(&listing, "- %s: %s\n", t.Name, firstLine(t.Summary))
	}
	if listing.Len() == 0 {
		listing.WriteString("(none)\n")
	}

	prompt := fmt.Sprintf("Installed tools:\n%s\nMessage: %s", listing.String(), message)
	raw, err := llm.CompleteWithSystem(ctx, detectorSystemPrompt, prompt)
	if err != nil {
		logging.Intent("detection failed, treating as chat: %v", err)
		return Intent{Kind: NoToolIntent}
	}

	var intent Intent
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &intent); err != nil {
		logging.IntentDebug("detection payload unparseable: %v", err)
		return Intent{Kind: NoToolIntent}
	}

	switch intent.Kind {
	case UseInstalledTool, RequestToolCreation, InstallTool, RequestUninstalledTool, NoToolIntent:
	default:
		logging.IntentDebug("unknown intent %q, treating as chat", intent.Kind)
		return Intent{Kind: NoToolIntent}
	}

	logging.IntentDebug("detected %s (tool %q)", intent.Kind, intent.ToolName)
	return intent
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
