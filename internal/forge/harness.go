package forge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

// Harness invokes a loaded module's functions against synthesized test
// cases under a per-call timeout and failure boundary.
type Harness struct {
	execTimeout time.Duration
}

func NewHarness(execTimeout time.Duration) *Harness {
	if execTimeout <= 0 {
		execTimeout = 10 * time.Second
	}
	return &Harness{execTimeout: execTimeout}
}

// RunAll generates cases for every signature and runs them, keyed by
// function name.
func (h *Harness) RunAll(ctx context.Context, module *Module, sigs []FunctionSignature) map[string]FunctionResult {
	results := make(map[string]FunctionResult, len(sigs))
	for _, sig := range sigs {
		results[sig.Name] = h.RunFunction(ctx, module, sig, GenerateCases(sig))
	}
	return results
}

// RunFunction runs every case against one function. No case result is
// dropped; all are retained for the fix digest.
func (h *Harness) RunFunction(ctx context.Context, module *Module, sig FunctionSignature, cases []TestCase) FunctionResult {
	result := FunctionResult{Name: sig.Name, Passed: true}

	for _, tc := range cases {
		cr := h.runCase(ctx, module, sig, tc)
		if !cr.Passed {
			result.Passed = false
			if result.FirstFailure == "" {
				result.FirstFailure = fmt.Sprintf("%s [%s]: %s", sig.Name, tc.Label, failureSummary(cr))
			}
		}
		result.Cases = append(result.Cases, cr)
	}

	logging.ForgeDebug("harness: %s ran %d cases, passed=%v", sig.Name, len(cases), result.Passed)
	return result
}

func (h *Harness) runCase(ctx context.Context, module *Module, sig FunctionSignature, tc TestCase) CaseResult {
	cr := CaseResult{Case: tc}

	args := make([]any, 0, len(sig.Params))
	for _, p := range sig.Params {
		v, ok := tc.Args[p.Name]
		if !ok {
			if p.HasDefault {
				v = p.Default
			} else {
				cr.ErrKind = "missing argument"
				cr.ErrMessage = fmt.Sprintf("no value for parameter %q", p.Name)
				return cr
			}
		}
		args = append(args, v)
	}

	callCtx, cancel := context.WithTimeout(ctx, h.execTimeout)
	defer cancel()

	start := time.Now()
	value, err := module.Call(callCtx, sig.Name, args)
	cr.Elapsed = time.Since(start)

	if err != nil {
		var failure *CallFailure
		if errors.As(err, &failure) {
			cr.ErrKind = failure.Kind
			cr.ErrMessage = failure.Message
			cr.Trace = failure.Trace
		} else {
			cr.ErrKind = "error"
			cr.ErrMessage = err.Error()
		}
		return cr
	}

	cr.Result = fmt.Sprint(value)

	if tc.HasExpected && !looseEqual(value, tc.Expected) {
		cr.Mismatch = true
		cr.Actual = cr.Result
		return cr
	}

	cr.Passed = true
	return cr
}

// looseEqual compares a call result against an expected value. Numeric
// values compare as floats so an integer expectation matches a float
// result; everything else compares by string rendering. A comparison that
// cannot be made is a mismatch, never a raised condition.
func looseEqual(actual, expected any) bool {
	af, aok := asFloat(actual)
	ef, eok := asFloat(expected)
	if aok && eok {
		return math.Abs(af-ef) < 1e-9
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func failureSummary(cr CaseResult) string {
	if cr.Mismatch {
		return fmt.Sprintf("expected %v, got %s", cr.Case.Expected, cr.Actual)
	}
	return fmt.Sprintf("%s: %s", cr.ErrKind, cr.ErrMessage)
}
