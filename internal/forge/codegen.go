package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

const synthSystemPrompt = `You are a Go code generator for a tool-execution system.
You output a single complete Go source file and nothing else. No prose,
no explanations, no markdown outside one code fence.`

// stdlibPrefixes covers import paths excluded from the dependency
// manifest. Anything without a dot in its first path element is standard
// library; these are common roots listed for the import scanner.
var stdlibExcluded = map[string]bool{
	"fmt": true, "strings": true, "strconv": true, "math": true,
	"errors": true, "time": true, "sort": true, "regexp": true,
	"bytes": true, "unicode": true, "os": true, "io": true,
}

// Synthesizer turns a tool's specification documents into an initial
// source module, a signature manifest, and a best-effort dependency
// manifest.
type Synthesizer struct {
	llm   gateway.Client
	store *tool.Store
}

func NewSynthesizer(llm gateway.Client, store *tool.Store) *Synthesizer {
	return &Synthesizer{llm: llm, store: store}
}

// Generate synthesizes the tool's source module from its documents. The
// documents must already exist; a missing document is reported as
// ErrSpecificationIncomplete.
func (s *Synthesizer) Generate(ctx context.Context, name string) error {
	timer := logging.StartTimer(logging.CategoryForge, "code synthesis")
	defer timer.Stop()

	catalog, err := s.store.ReadDoc(name, tool.DocFunctions)
	if err != nil {
		return fmt.Errorf("%w: %s missing for %s", ErrSpecificationIncomplete, tool.DocFunctions, name)
	}
	docs, err := s.store.ReadDoc(name, tool.DocDocumentation)
	if err != nil {
		return fmt.Errorf("%w: %s missing for %s", ErrSpecificationIncomplete, tool.DocDocumentation, name)
	}

	prompt := fmt.Sprintf(`Implement a Go source file for the tool %q.

Overview:
%s

Function catalog:
%s

Requirements:
- Package main. Implement EVERY function in the catalog as an exported
  function (first letter capitalized) taking its parameters explicitly.
- Functions must be directly callable: never read from stdin or prompt
  interactively.
- Report progress with fmt.Println where a step is long-running.
- Handle error cases explicitly; return an error as the last result for
  any function that can fail.
- Include an exported SelfTest() error function exercising at least one
  success and one failure case per catalog function.
- Standard library imports only.

Return the complete file in one Go code fence.`, name, docs, catalog)

	raw, err := s.llm.CompleteWithSystem(ctx, synthSystemPrompt, prompt)
	if err != nil {
		return gateway.NewCallError("", "code synthesis", err)
	}

	source := StripCodeFences(raw)
	if source == "" {
		return fmt.Errorf("code synthesis for %s produced no source", name)
	}

	if err := s.store.WriteDoc(name, tool.SourceFile, source); err != nil {
		return fmt.Errorf("failed to persist source: %w", err)
	}

	s.writeManifest(name, source)
	s.writeDeps(name, source)

	logging.Forge("synthesized source module for %s (%d bytes)", name, len(source))
	return nil
}

// writeManifest derives the signature manifest from the generated source
// and persists it. Best effort: an unparseable module just skips the
// manifest, introspection will surface the real failure.
func (s *Synthesizer) writeManifest(name, source string) {
	sigs, err := parseSignatures(source)
	if err != nil || len(sigs) == 0 {
		logging.ForgeDebug("manifest skipped for %s: %v", name, err)
		return
	}

	manifest := make([]ManifestFunction, 0, len(sigs))
	for _, sig := range sigs {
		mf := ManifestFunction{Name: sig.Name, Return: string(sig.Return)}
		for _, p := range sig.Params {
			mp := ManifestParam{Name: p.Name, Type: string(p.Type)}
			if p.HasDefault {
				mp.Default = p.Default
			}
			mf.Params = append(mf.Params, mp)
		}
		manifest = append(manifest, mf)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return
	}
	if err := s.store.WriteDoc(name, tool.ManifestFile, string(data)); err != nil {
		logging.Forge("failed to persist manifest for %s: %v", name, err)
	}
}

// writeDeps scans imports, filters standard-library paths, and writes a
// best-effort dependency manifest with versions from build info when
// available. Never aborts the pipeline.
func (s *Synthesizer) writeDeps(name, source string) {
	imports := scanImports(source)

	versions := map[string]string{}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			versions[dep.Path] = dep.Version
		}
	}

	var lines []string
	for _, imp := range imports {
		root := imp
		if idx := strings.Index(imp, "/"); idx > 0 {
			root = imp[:idx]
		}
		if stdlibExcluded[imp] || !strings.Contains(root, ".") {
			continue
		}
		if v, ok := versions[imp]; ok && v != "" {
			lines = append(lines, imp+" "+v)
		} else {
			lines = append(lines, imp)
		}
	}

	if len(lines) == 0 {
		return
	}
	sort.Strings(lines)
	if err := s.store.WriteDoc(name, tool.DepsFile, strings.Join(lines, "\n")+"\n"); err != nil {
		logging.Forge("failed to persist dependency manifest for %s: %v", name, err)
	}
}

// scanImports returns the import paths of a source file, parsing imports
// only so a body syntax error does not lose the list.
func scanImports(source string) []string {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "tool.go", source, parser.ImportsOnly)
	if err != nil {
		return nil
	}

	var paths []string
	for _, imp := range file.Imports {
		paths = append(paths, strings.Trim(imp.Path.Value, `"`))
	}
	return paths
}

// countFunctionDecls reports how many top-level function declarations a
// source text contains, zero when it cannot be parsed.
func countFunctionDecls(source string) int {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "tool.go", source, 0)
	if err != nil {
		return 0
	}

	n := 0
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil {
			n++
		}
	}
	return n
}
