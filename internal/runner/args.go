package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

const extractorSystemPrompt = `You extract one parameter value from an
instruction. Respond with JSON only: {"value": <string or null>}.
Use null when the instruction does not contain a value for the parameter.`

// argPatterns are the ordered regex shapes tried per parameter against the
// lowercased instruction; %s is the quoted parameter name. First match
// wins, so the more precise shapes come first. Unquoted captures drop a
// trailing sentence period so decimal values like 2.5 survive.
var argPatterns = []struct {
	shape      string
	trimPeriod bool
}{
	{`%s\s*[:=]\s*"([^"]+)"`, false},
	{`%s\s*[:=]\s*'([^']+)'`, false},
	{`%s\s*[:=]\s*([^\s,]+)`, true},
	{`%s\s+(?:is|as|of|for|to)\s+([^,.]+)`, false},
	{`(?:use|with|set)\s+%s\s+(?:as|to|of)\s+([^,.]+)`, false},
	{`(\S+)\s+(?:for|as)\s+(?:the\s+)?%s`, true},
}

// ExtractArgs resolves a value per parameter: regex shapes first, one
// gateway call per still-missing parameter second. The returned missing
// list names every parameter that neither stage could fill; callers must
// refuse invocation when it is non-empty.
func ExtractArgs(ctx context.Context, llm gateway.Client, instruction string, params []string) (map[string]string, []string) {
	values := make(map[string]string, len(params))
	var missing []string

	for _, param := range params {
		if v, ok := matchParam(instruction, param); ok {
			logging.RunnerDebug("parameter %s matched by pattern: %q", param, v)
			values[param] = v
			continue
		}
		if v, ok := askForParam(ctx, llm, instruction, param); ok {
			logging.RunnerDebug("parameter %s extracted by gateway: %q", param, v)
			values[param] = v
			continue
		}
		missing = append(missing, param)
	}

	return values, missing
}

// matchParam is the deterministic stage: the first pattern capturing a
// value for the parameter wins.
func matchParam(instruction, param string) (string, bool) {
	lower := strings.ToLower(instruction)
	quoted := regexp.QuoteMeta(strings.ToLower(param))

	for _, p := range argPatterns {
		re, err := regexp.Compile(fmt.Sprintf(p.shape, quoted))
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(lower); m != nil {
			v := strings.TrimSpace(m[1])
			if p.trimPeriod {
				v = strings.TrimRight(v, ".")
			}
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// askForParam is the fallback stage: one gateway call for this parameter
// alone, expecting a single-key JSON payload. Any failure or explicit null
// yields a missing value.
func askForParam(ctx context.Context, llm gateway.Client, instruction, param string) (string, bool) {
	prompt := fmt.Sprintf("Instruction: %s\n\nParameter: %s", instruction, param)
	raw, err := llm.CompleteWithSystem(ctx, extractorSystemPrompt, prompt)
	if err != nil {
		logging.Runner("extraction call for %s failed: %v", param, err)
		return "", false
	}

	// Value may come back as a string or a bare number.
	var payload struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &payload); err != nil {
		logging.RunnerDebug("extraction payload for %s unparseable: %v", param, err)
		return "", false
	}
	if payload.Value == nil {
		return "", false
	}
	v := strings.TrimSpace(fmt.Sprint(payload.Value))
	if v == "" {
		return "", false
	}
	return v, true
}
