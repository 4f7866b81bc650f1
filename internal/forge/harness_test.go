package forge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarnessAddPasses(t *testing.T) {
	in, _ := newTestIntrospector(t)
	module, sigs, err := in.InspectSource("calc", calculatorSource)
	require.NoError(t, err)

	added, ok := findSignature(sigs, "Add")
	require.True(t, ok)

	result := NewHarness(time.Second).RunFunction(context.Background(), module, added, GenerateCases(added))
	assert.True(t, result.Passed, "first failure: %s", result.FirstFailure)
	assert.NotEmpty(t, result.Cases)
}

func TestHarnessRecordsReturnedError(t *testing.T) {
	in, _ := newTestIntrospector(t)
	module, sigs, err := in.InspectSource("calc", calculatorSource)
	require.NoError(t, err)

	divide, ok := findSignature(sigs, "Divide")
	require.True(t, ok)

	// Zero divisor makes the guarded implementation return an error; the
	// harness records it as a failed case, never a propagated condition.
	cases := []TestCase{{Label: "zero divisor", Args: map[string]any{"a": 1, "b": 0}}}
	result := NewHarness(time.Second).RunFunction(context.Background(), module, divide, cases)

	assert.False(t, result.Passed)
	require.Len(t, result.Cases, 1)
	assert.Contains(t, result.Cases[0].ErrMessage, "division by zero")
}

func TestHarnessRecordsPanic(t *testing.T) {
	source := `package main

func Crash(a, b int) int {
	return a / b
}
`
	in, _ := newTestIntrospector(t)
	module, sigs, err := in.InspectSource("crash", source)
	require.NoError(t, err)

	cases := []TestCase{{Label: "divide by zero", Args: map[string]any{"a": 1, "b": 0}}}
	result := NewHarness(time.Second).RunFunction(context.Background(), module, sigs[0], cases)

	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Cases[0].ErrMessage)
	assert.True(t, result.Cases[0].Elapsed >= 0)
}

func TestHarnessExpectationMismatch(t *testing.T) {
	in, _ := newTestIntrospector(t)
	module, sigs, err := in.InspectSource("calc", calculatorSource)
	require.NoError(t, err)

	added, _ := findSignature(sigs, "Add")
	cases := []TestCase{{
		Label:       "wrong expectation",
		Args:        map[string]any{"a": 2, "b": 2},
		Expected:    5,
		HasExpected: true,
	}}
	result := NewHarness(time.Second).RunFunction(context.Background(), module, added, cases)

	assert.False(t, result.Passed)
	require.Len(t, result.Cases, 1)
	assert.True(t, result.Cases[0].Mismatch)
	assert.Equal(t, "4", result.Cases[0].Actual)
}

func TestHarnessMissingArgument(t *testing.T) {
	in, _ := newTestIntrospector(t)
	module, sigs, err := in.InspectSource("calc", calculatorSource)
	require.NoError(t, err)

	added, _ := findSignature(sigs, "Add")
	cases := []TestCase{{Label: "malformed", Args: map[string]any{"x": 5, "y": 3}}}
	result := NewHarness(time.Second).RunFunction(context.Background(), module, added, cases)

	assert.False(t, result.Passed)
	assert.Equal(t, "missing argument", result.Cases[0].ErrKind)
}

func TestHarnessNumericComparisonIsLoose(t *testing.T) {
	in, _ := newTestIntrospector(t)
	module, sigs, err := in.InspectSource("calc", calculatorSource)
	require.NoError(t, err)

	divide, _ := findSignature(sigs, "Divide")
	cases := []TestCase{{
		Label:       "integer expectation against float result",
		Args:        map[string]any{"a": 6, "b": 3},
		Expected:    2,
		HasExpected: true,
	}}
	result := NewHarness(time.Second).RunFunction(context.Background(), module, divide, cases)
	assert.True(t, result.Passed, "first failure: %s", result.FirstFailure)
}

func findSignature(sigs []FunctionSignature, name string) (FunctionSignature, bool) {
	for _, sig := range sigs {
		if sig.Name == name {
			return sig, true
		}
	}
	return FunctionSignature{}, false
}
