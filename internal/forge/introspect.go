package forge

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"

	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// Introspector derives the exported function signatures of a tool's
// current source module and loads the module for invocation. Signatures
// are re-derived on every call since the source changes between debug
// iterations.
type Introspector struct {
	store *tool.Store
}

func NewIntrospector(store *tool.Store) *Introspector {
	return &Introspector{store: store}
}

// Inspect parses the tool's on-disk source, resolves every exported
// function in an isolated interpreter, and merges defaults from the
// signature manifest when present. A missing, unparseable, or unloadable
// module is reported as ErrModuleLoad with no partial result.
func (in *Introspector) Inspect(name string) (*Module, []FunctionSignature, error) {
	data, err := os.ReadFile(in.store.SourcePath(name))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: no source module for %s", ErrModuleLoad, name)
	}
	return in.InspectSource(name, string(data))
}

// InspectSource is Inspect against explicit source text.
func (in *Introspector) InspectSource(name, source string) (*Module, []FunctionSignature, error) {
	sigs, err := parseSignatures(source)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrModuleLoad, err)
	}
	if len(sigs) == 0 {
		return nil, nil, fmt.Errorf("%w: %s exports no functions", ErrModuleLoad, name)
	}

	in.mergeManifest(name, sigs)

	names := make([]string, len(sigs))
	for i, sig := range sigs {
		names[i] = sig.Name
	}

	module, err := LoadModule(source, names)
	if err != nil {
		return nil, nil, err
	}

	logging.ForgeDebug("introspected %s: %d exported functions", name, len(sigs))
	return module, sigs, nil
}

// mergeManifest applies default values from functions.json onto the parsed
// signatures. The AST remains the truth for names, order, and types;
// defaults exist only in the manifest.
func (in *Introspector) mergeManifest(name string, sigs []FunctionSignature) {
	raw, err := in.store.ReadDoc(name, tool.ManifestFile)
	if err != nil {
		return
	}
	var manifest []ManifestFunction
	if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
		logging.ForgeDebug("ignoring malformed manifest for %s: %v", name, err)
		return
	}

	byName := make(map[string]ManifestFunction, len(manifest))
	for _, mf := range manifest {
		byName[mf.Name] = mf
	}

	for si := range sigs {
		mf, ok := byName[sigs[si].Name]
		if !ok {
			continue
		}
		for pi := range sigs[si].Params {
			for _, mp := range mf.Params {
				if mp.Name == sigs[si].Params[pi].Name && mp.Default != nil {
					sigs[si].Params[pi].Default = mp.Default
					sigs[si].Params[pi].HasDefault = true
				}
			}
		}
	}
}

// parseSignatures extracts every exported top-level function from source
// text, in declaration order.
func parseSignatures(source string) ([]FunctionSignature, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "tool.go", source, 0)
	if err != nil {
		return nil, err
	}

	var sigs []FunctionSignature
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !ast.IsExported(fn.Name.Name) {
			continue
		}

		sig := FunctionSignature{Name: fn.Name.Name, Return: returnTag(fn.Type.Results)}
		if fn.Type.Params != nil {
			for _, field := range fn.Type.Params.List {
				tag := typeTag(field.Type)
				if len(field.Names) == 0 {
					sig.Params = append(sig.Params, Param{Name: "_", Type: tag})
					continue
				}
				for _, ident := range field.Names {
					sig.Params = append(sig.Params, Param{Name: ident.Name, Type: tag})
				}
			}
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// typeTag maps a declared parameter type onto the closed tag set.
func typeTag(expr ast.Expr) TypeTag {
	switch t := expr.(type) {
	case *ast.Ident:
		switch t.Name {
		case "string":
			return TagString
		case "int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64":
			return TagInteger
		case "float32", "float64":
			return TagFloat
		case "bool":
			return TagBoolean
		}
		return TagUnknown
	case *ast.ArrayType:
		return TagList
	case *ast.MapType:
		return TagMapping
	case *ast.Ellipsis:
		return TagList
	case *ast.StarExpr:
		return typeTag(t.X)
	}
	return TagUnknown
}

// returnTag is the tag of the first non-error result, TagUnknown when the
// function returns nothing or only an error.
func returnTag(results *ast.FieldList) TypeTag {
	if results == nil {
		return TagUnknown
	}
	for _, field := range results.List {
		if ident, ok := field.Type.(*ast.Ident); ok && ident.Name == "error" {
			continue
		}
		return typeTag(field.Type)
	}
	return TagUnknown
}
