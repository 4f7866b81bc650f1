package forge

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// placeholderDoc is written when the gateway returns nothing usable for a
// document. Specification generation never fails outright.
const placeholderDoc = "No content generated."

const specSystemPrompt = `You are a technical writer for a tool-generation system.
Tools are small Go modules exposing exported functions. Write precise,
minimal documents with no conversational filler.`

// SpecGenerator produces a tool's three specification documents from a
// name and free-text description.
type SpecGenerator struct {
	llm   gateway.Client
	store *tool.Store
}

func NewSpecGenerator(llm gateway.Client, store *tool.Store) *SpecGenerator {
	return &SpecGenerator{llm: llm, store: store}
}

// Generate writes documentation.md, functions.md, and summary.md under the
// tool's namespace via three gateway calls. A failed or empty call yields a
// placeholder document rather than an error.
func (g *SpecGenerator) Generate(ctx context.Context, name, details string) error {
	timer := logging.StartTimer(logging.CategoryForge, "spec generation")
	defer timer.Stop()

	if details == "" {
		details = "Infer the tool's purpose from its name."
	}

	docs := g.document(ctx, name, fmt.Sprintf(
		`Write an overview document for a tool named %q.
Tool description: %s

Cover what the tool does, when to use it, and any notable behavior.
Output Markdown only.`, name, details))

	catalog := g.document(ctx, name, fmt.Sprintf(
		`Write a function catalog for a tool named %q.
Tool description: %s

For each function the tool should expose, emit a section:

## function_name
One or two sentences describing purpose and return behavior.
Parameters: comma-separated parameter names, or "none"

Function names must be valid lowercase identifiers with underscores.
Output Markdown only, nothing outside the sections.`, name, details))

	summary := g.document(ctx, name, fmt.Sprintf(
		`Condense the following tool documents into a summary of at most
three sentences, covering what the tool does and which functions it exposes.

Overview:
%s

Function catalog:
%s`, docs, catalog))

	if err := g.store.WriteDoc(name, tool.DocDocumentation, docs); err != nil {
		return fmt.Errorf("failed to persist documentation: %w", err)
	}
	if err := g.store.WriteDoc(name, tool.DocFunctions, catalog); err != nil {
		return fmt.Errorf("failed to persist function catalog: %w", err)
	}
	if err := g.store.WriteDoc(name, tool.DocSummary, summary); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}

	logging.Forge("generated specification documents for %s", name)
	return nil
}

// document issues one gateway call and substitutes the placeholder on any
// failure or empty payload.
func (g *SpecGenerator) document(ctx context.Context, name, prompt string) string {
	text, err := g.llm.CompleteWithSystem(ctx, specSystemPrompt, prompt)
	if err != nil {
		logging.Forge("document generation for %s failed, using placeholder: %v", name, err)
		return placeholderDoc
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logging.Forge("document generation for %s returned empty payload, using placeholder", name)
		return placeholderDoc
	}
	return text
}
