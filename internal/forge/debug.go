package forge

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// DefaultMaxAttempts bounds the analyze/test/fix loop when no budget is
// configured.
const DefaultMaxAttempts = 5

type debugState int

const (
	stateAnalyze debugState = iota
	stateTest
	stateFix
	statePass
	stateExhausted
)

// Session is the outcome of one debug run: how many fixes were applied,
// whether the module reached a fully passing state, and a human-readable
// summary.
type Session struct {
	Tool       string
	Iterations int
	Passed     bool
	Outcome    string
}

// Controller drives the bounded analyze/test/fix state machine against a
// tool's source module. The module file is exclusively owned by the
// controller for the session's duration: reads and writes never overlap,
// and a fix is only written after its proposal passes validation.
type Controller struct {
	store       *tool.Store
	intros      *Introspector
	harness     *Harness
	fixer       *Fixer
	maxAttempts int
}

func NewController(llm gateway.Client, store *tool.Store, maxAttempts int, execTimeout time.Duration) *Controller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Controller{
		store:       store,
		intros:      NewIntrospector(store),
		harness:     NewHarness(execTimeout),
		fixer:       NewFixer(llm, store),
		maxAttempts: maxAttempts,
	}
}

// Run executes a debug session for the named tool. Signatures and test
// cases are regenerated fresh every iteration since an accepted fix may
// change them. Convergence is not guaranteed; the session ends at PASS or
// when the attempt budget is exhausted.
func (c *Controller) Run(ctx context.Context, name string) Session {
	timer := logging.StartTimer(logging.CategoryForge, "debug session")
	defer timer.Stop()

	session := Session{Tool: name}
	state := stateAnalyze

	var (
		module  *Module
		sigs    []FunctionSignature
		results map[string]FunctionResult
	)

	for {
		switch state {
		case stateAnalyze:
			var err error
			module, sigs, err = c.intros.Inspect(name)
			if err != nil {
				// Introspection failure aborts the session outright; it
				// does not consume attempt budget.
				session.Outcome = fmt.Sprintf("debug aborted: %v", err)
				logging.Forge("%s: %s", name, session.Outcome)
				return session
			}
			state = stateTest

		case stateTest:
			results = c.harness.RunAll(ctx, module, sigs)
			switch {
			case allPassed(results):
				state = statePass
			case session.Iterations >= c.maxAttempts:
				state = stateExhausted
			default:
				state = stateFix
			}

		case stateFix:
			source, err := os.ReadFile(c.store.SourcePath(name))
			if err != nil {
				session.Outcome = fmt.Sprintf("debug aborted: source unreadable: %v", err)
				return session
			}
			fixed, err := c.fixer.Fix(ctx, name, string(source), results)
			if err != nil {
				session.Outcome = fmt.Sprintf("debug failed after %d iterations: %v", session.Iterations, err)
				logging.Forge("%s: %s", name, session.Outcome)
				return session
			}
			if err := c.store.WriteDoc(name, tool.SourceFile, fixed); err != nil {
				session.Outcome = fmt.Sprintf("debug aborted: cannot write fixed source: %v", err)
				return session
			}
			session.Iterations++
			logging.Forge("%s: applied fix %d/%d", name, session.Iterations, c.maxAttempts)
			state = stateAnalyze

		case statePass:
			session.Passed = true
			session.Outcome = fmt.Sprintf("all %d functions passing after %d fix iterations", len(sigs), session.Iterations)
			logging.Forge("%s: %s", name, session.Outcome)
			return session

		case stateExhausted:
			session.Outcome = fmt.Sprintf("attempt budget exhausted after %d iterations: %s",
				session.Iterations, firstFailure(results))
			logging.Forge("%s: %s", name, session.Outcome)
			return session
		}
	}
}

func allPassed(results map[string]FunctionResult) bool {
	for _, fr := range results {
		if !fr.Passed {
			return false
		}
	}
	return true
}

func firstFailure(results map[string]FunctionResult) string {
	for _, fr := range results {
		if !fr.Passed {
			return fr.FirstFailure
		}
	}
	return ""
}
