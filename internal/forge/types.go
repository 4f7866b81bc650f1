// Package forge implements the tool synthesis, validation, and repair
// pipeline: specification generation, code synthesis, signature
// introspection, test-case synthesis, an execution harness, and the
// bounded analyze/test/fix debug loop that drives generated source to
// a passing state.
package forge

import (
	"errors"
	"time"
)

// TypeTag is the closed set of parameter and return type labels used by
// signature introspection and test-case synthesis.
type TypeTag string

const (
	TagString  TypeTag = "string"
	TagInteger TypeTag = "integer"
	TagFloat   TypeTag = "float"
	TagBoolean TypeTag = "boolean"
	TagList    TypeTag = "list"
	TagMapping TypeTag = "mapping"
	TagUnknown TypeTag = "unknown"
)

// Param is one declared parameter of an introspected function.
type Param struct {
	Name       string
	Type       TypeTag
	Default    any
	HasDefault bool
}

// FunctionSignature is the ephemeral, per-iteration view of one exported
// function of a tool module. Signatures are re-derived from the current
// source every debug iteration and never persisted.
type FunctionSignature struct {
	Name   string
	Params []Param
	Return TypeTag
}

// TestCase is one synthesized input combination for a function. Expected
// is only meaningful when HasExpected is set; unasserted cases record
// whatever happens as data.
type TestCase struct {
	Label       string
	Args        map[string]any
	Expected    any
	HasExpected bool
}

// CaseResult records the outcome of running one test case.
type CaseResult struct {
	Case    TestCase
	Passed  bool
	Result  string
	Elapsed time.Duration

	// Failure detail, set when the call raised or a comparison mismatched.
	ErrKind    string
	ErrMessage string
	Trace      string
	Mismatch   bool
	Actual     string
}

// FunctionResult aggregates all case results for one function. Passed is
// false if any case raised or any expected-value comparison mismatched.
type FunctionResult struct {
	Name         string
	Passed       bool
	Cases        []CaseResult
	FirstFailure string
}

// ManifestParam is one parameter entry of a tool's signature manifest
// (functions.json), emitted alongside synthesized source. Defaults come
// only from the manifest since the source language has none.
type ManifestParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// ManifestFunction is one function entry of the signature manifest.
type ManifestFunction struct {
	Name   string          `json:"name"`
	Params []ManifestParam `json:"params"`
	Return string          `json:"return,omitempty"`
}

var (
	// ErrSpecificationIncomplete reports a required document missing
	// before a downstream stage runs.
	ErrSpecificationIncomplete = errors.New("tool specification incomplete")

	// ErrModuleLoad reports that the generated source failed to load.
	ErrModuleLoad = errors.New("module load failed")

	// ErrFixRejected reports a proposed fix with no function definitions.
	ErrFixRejected = errors.New("fix rejected: no function definitions")
)
