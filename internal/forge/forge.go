package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// Pipeline runs the full tool-creation flow: specification generation,
// code synthesis, then the debug loop. It always returns a descriptive
// outcome string rather than propagating failures past its boundary.
type Pipeline struct {
	llm         gateway.Client
	store       *tool.Store
	spec        *SpecGenerator
	synth       *Synthesizer
	maxAttempts int
	execTimeout time.Duration
}

func NewPipeline(llm gateway.Client, store *tool.Store, maxAttempts int, execTimeout time.Duration) *Pipeline {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Pipeline{
		llm:         llm,
		store:       store,
		spec:        NewSpecGenerator(llm, store),
		synth:       NewSynthesizer(llm, store),
		maxAttempts: maxAttempts,
		execTimeout: execTimeout,
	}
}

// Store exposes the underlying document store for collaborators.
func (p *Pipeline) Store() *tool.Store { return p.store }

// CreateTool generates documents and source for a new tool and debugs the
// source until it passes or the attempt budget runs out.
func (p *Pipeline) CreateTool(ctx context.Context, name, details string) string {
	name = tool.NormalizeName(name)
	if name == "" {
		return "Tool creation failed: a tool needs a name."
	}

	logging.Forge("creating tool %s", name)

	if err := p.spec.Generate(ctx, name, details); err != nil {
		return fmt.Sprintf("Tool creation failed for %q while writing its specification: %v", name, err)
	}

	if err := p.synth.Generate(ctx, name); err != nil {
		return fmt.Sprintf("Tool creation failed for %q while synthesizing code: %v", name, err)
	}

	session := NewController(p.llm, p.store, p.maxAttempts, p.execTimeout).Run(ctx, name)

	p.writeMetadata(name)

	if session.Passed {
		return fmt.Sprintf("Created tool %q: %s.", name, session.Outcome)
	}
	return fmt.Sprintf("Created tool %q but it is not fully working: %s. The source is kept in its last state for inspection.", name, session.Outcome)
}

// DebugTool re-runs the debug loop against an existing tool's module,
// reporting whether all functions pass.
func (p *Pipeline) DebugTool(ctx context.Context, name string, maxAttempts int) bool {
	if maxAttempts <= 0 {
		maxAttempts = p.maxAttempts
	}
	session := NewController(p.llm, p.store, maxAttempts, p.execTimeout).Run(ctx, tool.NormalizeName(name))
	return session.Passed
}

// writeMetadata refreshes the tool's structured metadata from its current
// documents. Best effort.
func (p *Pipeline) writeMetadata(name string) {
	md := tool.GenerateMetadata(p.store.Path(name))
	if err := p.store.WriteMetadata(name, md); err != nil {
		logging.Forge("failed to write metadata for %s: %v", name, err)
	}
}
