// Package runner maps a free-text instruction onto one of a tool's
// functions and its call arguments, then invokes the loaded module.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

const selectorSystemPrompt = `You are a strict function classifier. You receive
an instruction and a list of functions. Respond with JSON only:
{"function_name": "<name or null>", "reason": "<one sentence>"}
Pick null when no function clearly matches. Never invent a function name.`

type selectorChoice struct {
	FunctionName *string `json:"function_name"`
	Reason       string  `json:"reason"`
}

// SelectFunction chooses the catalog function best matching an
// instruction. Primary path is one gateway classification call; a parse
// failure, transport failure, or null choice falls back to
// case-insensitive substring matching in catalog order.
func SelectFunction(ctx context.Context, llm gateway.Client, instruction string, catalog []tool.CatalogFunction) (string, bool) {
	if len(catalog) == 0 {
		return "", false
	}

	if name, ok := classify(ctx, llm, instruction, catalog); ok {
		return name, true
	}
	return substringFallback(instruction, catalog)
}

func classify(ctx context.Context, llm gateway.Client, instruction string, catalog []tool.CatalogFunction) (string, bool) {
	var listing strings.Builder
	for _, f := range catalog {
		fmt.Fprintf(&listing, "- %s(%s): %s\n", f.Name, strings.Join(f.Parameters, ", "), f.Description)
	}

	prompt := fmt.Sprintf("Instruction: %s\n\nFunctions:\n%s", instruction, listing.String())
	raw, err := llm.CompleteWithSystem(ctx, selectorSystemPrompt, prompt)
	if err != nil {
		logging.Runner("classifier call failed, falling back to substring match: %v", err)
		return "", false
	}

	var choice selectorChoice
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &choice); err != nil {
		logging.RunnerDebug("classifier payload unparseable: %v", err)
		return "", false
	}
	if choice.FunctionName == nil || *choice.FunctionName == "" {
		return "", false
	}

	// Guard against invented names.
	if _, ok := tool.FindFunction(catalog, *choice.FunctionName); !ok {
		logging.RunnerDebug("classifier chose unknown function %q", *choice.FunctionName)
		return "", false
	}

	logging.RunnerDebug("classifier chose %s: %s", *choice.FunctionName, choice.Reason)
	return *choice.FunctionName, true
}

// substringFallback returns the first catalog function whose name appears
// in the instruction, case-insensitively.
func substringFallback(instruction string, catalog []tool.CatalogFunction) (string, bool) {
	lower := strings.ToLower(instruction)
	for _, f := range catalog {
		if strings.Contains(lower, strings.ToLower(f.Name)) {
			return f.Name, true
		}
	}
	return "", false
}

// stripJSONFences trims a markdown code fence around a JSON payload.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
