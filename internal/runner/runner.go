package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/forge"
	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// ErrToolNotFound reports an unknown tool name.
var ErrToolNotFound = errors.New("tool not found")

// UnresolvedArgsError reports parameters neither extraction stage could
// fill. The function is never invoked with partial arguments.
type UnresolvedArgsError struct {
	Function string
	Params   []string
}

func (e *UnresolvedArgsError) Error() string {
	return fmt.Sprintf("cannot call %s: no value found for %s",
		e.Function, strings.Join(e.Params, ", "))
}

// ExecutionRecorder receives a record of every completed or failed tool
// invocation. Optional.
type ExecutionRecorder interface {
	RecordExecution(toolName, function, instruction, result string, ok bool)
}

// Runner resolves an instruction to a function of an installed tool and
// invokes it.
type Runner struct {
	llm         gateway.Client
	store       *tool.Store
	intros      *forge.Introspector
	execTimeout time.Duration
	recorder    ExecutionRecorder
}

func New(llm gateway.Client, store *tool.Store, execTimeout time.Duration) *Runner {
	if execTimeout <= 0 {
		execTimeout = 10 * time.Second
	}
	return &Runner{
		llm:         llm,
		store:       store,
		intros:      forge.NewIntrospector(store),
		execTimeout: execTimeout,
	}
}

// WithRecorder attaches an execution recorder.
func (r *Runner) WithRecorder(rec ExecutionRecorder) *Runner {
	r.recorder = rec
	return r
}

// Run selects a function of the named tool from the instruction, extracts
// its arguments, and invokes it. When no function matches, the returned
// text lists the tool's functions and the error is nil; unresolved
// arguments and unknown tools are errors.
func (r *Runner) Run(ctx context.Context, name, instruction string) (string, error) {
	name = tool.NormalizeName(name)
	if !r.store.Exists(name) {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	catalogDoc, err := r.store.ReadDoc(name, tool.DocFunctions)
	if err != nil {
		return "", fmt.Errorf("tool %s has no function catalog: %w", name, err)
	}
	catalog := tool.ParseCatalog(catalogDoc)

	module, sigs, err := r.intros.Inspect(name)
	if err != nil {
		return "", fmt.Errorf("tool %s cannot be loaded: %w", name, err)
	}

	fnName, ok := SelectFunction(ctx, r.llm, instruction, catalog)
	if !ok {
		logging.Runner("no function of %s matched %q", name, instruction)
		return catalogListing(name, catalog), nil
	}

	sig, ok := findModuleFunction(sigs, fnName)
	if !ok {
		return "", fmt.Errorf("function %q of tool %s is in the catalog but not implemented", fnName, name)
	}

	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.Name
	}

	values, missing := ExtractArgs(ctx, r.llm, instruction, params)
	if len(missing) > 0 {
		r.record(name, sig.Name, instruction, "unresolved arguments", false)
		return "", &UnresolvedArgsError{Function: fnName, Params: missing}
	}

	args := make([]any, len(sig.Params))
	for i, p := range sig.Params {
		args[i] = values[p.Name]
	}

	callCtx, cancel := context.WithTimeout(ctx, r.execTimeout)
	defer cancel()

	result, err := module.Call(callCtx, sig.Name, args)
	if err != nil {
		r.record(name, sig.Name, instruction, err.Error(), false)
		return "", fmt.Errorf("%s failed: %w", fnName, err)
	}

	text := fmt.Sprintf("Result from %s: %v", fnName, result)
	r.record(name, sig.Name, instruction, text, true)
	logging.Runner("ran %s.%s", name, sig.Name)
	return text, nil
}

func (r *Runner) record(toolName, function, instruction, result string, ok bool) {
	if r.recorder != nil {
		r.recorder.RecordExecution(toolName, function, instruction, result, ok)
	}
}

// findModuleFunction matches a catalog function name against the module's
// exported signatures. Catalog names are lower_snake; module functions are
// exported Go identifiers, so comparison ignores case and underscores.
func findModuleFunction(sigs []forge.FunctionSignature, catalogName string) (forge.FunctionSignature, bool) {
	want := foldIdent(catalogName)
	for _, sig := range sigs {
		if foldIdent(sig.Name) == want {
			return sig, true
		}
	}
	return forge.FunctionSignature{}, false
}

func foldIdent(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}

// catalogListing is the "no action taken" surface: every function and its
// parameters, for user guidance.
func catalogListing(name string, catalog []tool.CatalogFunction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No function of %s matched that instruction. Available functions:\n", name)
	for _, f := range catalog {
		fmt.Fprintf(&b, "  %s(%s)", f.Name, strings.Join(f.Parameters, ", "))
		if f.Description != "" {
			fmt.Fprintf(&b, " - %s", f.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
