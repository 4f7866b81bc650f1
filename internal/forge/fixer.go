package forge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

const fixSystemPrompt = `You are a Go code repair system. You receive a source
file and a test failure report. You output the complete corrected source
file and nothing else: no prose, no explanations, no markdown outside one
code fence.`

// Fixer asks the gateway for a corrected module given a failure report.
type Fixer struct {
	llm   gateway.Client
	store *tool.Store
}

func NewFixer(llm gateway.Client, store *tool.Store) *Fixer {
	return &Fixer{llm: llm, store: store}
}

// Fix requests a corrected module for the failing functions. The proposed
// source is validated to contain at least one function definition;
// otherwise ErrFixRejected is returned and the caller leaves the on-disk
// module untouched.
func (f *Fixer) Fix(ctx context.Context, name, source string, results map[string]FunctionResult) (string, error) {
	timer := logging.StartTimer(logging.CategoryForge, "fix synthesis")
	defer timer.Stop()

	digest := buildFailureDigest(results)
	if digest == "" {
		return "", fmt.Errorf("fix requested with no failing functions for %s", name)
	}

	docs, _ := f.store.ReadDoc(name, tool.DocDocumentation)
	catalog, _ := f.store.ReadDoc(name, tool.DocFunctions)

	prompt := fmt.Sprintf(`Fix the tool %q.

Documentation:
%s

Function catalog:
%s

Current source:
%s

Test failures:
%s

Rules:
- Fix only what is broken.
- Preserve every function signature and parameter name exactly.
- Preserve documented behavior.
- Add error handling where a failure shows it is missing.
- Return the complete corrected file in one Go code fence.`,
		name, docs, catalog, source, digest)

	raw, err := f.llm.CompleteWithSystem(ctx, fixSystemPrompt, prompt)
	if err != nil {
		return "", gateway.NewCallError("", "fix synthesis", err)
	}

	fixed := StripCodeFences(raw)
	if countFunctionDecls(fixed) == 0 {
		logging.Forge("rejected fix for %s: no function definitions in proposal", name)
		return "", ErrFixRejected
	}

	return fixed, nil
}

// buildFailureDigest renders every failing case of every failing function:
// the call shape paired with its raised error or its actual-vs-expected
// mismatch.
func buildFailureDigest(results map[string]FunctionResult) string {
	names := make([]string, 0, len(results))
	for name, fr := range results {
		if !fr.Passed {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fr := results[name]
		fmt.Fprintf(&b, "Function %s:\n", name)
		for _, cr := range fr.Cases {
			if cr.Passed {
				continue
			}
			fmt.Fprintf(&b, "  %s\n", renderCall(name, cr.Case))
			switch {
			case cr.Mismatch:
				fmt.Fprintf(&b, "    expected %v, got %s\n", cr.Case.Expected, cr.Actual)
			default:
				fmt.Fprintf(&b, "    raised %s: %s\n", cr.ErrKind, cr.ErrMessage)
				if cr.Trace != "" {
					fmt.Fprintf(&b, "    trace: %s\n", firstLines(cr.Trace, 6))
				}
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// renderCall renders a test case as a keyword-argument call shape.
func renderCall(name string, tc TestCase) string {
	keys := make([]string, 0, len(tc.Args))
	for k := range tc.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%#v", k, tc.Args[k])
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " | ")
}
