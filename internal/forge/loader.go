package forge

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"runtime/debug"
	"strconv"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Tool modules are interpreted with yaegi rather than compiled. This keeps
// the debug loop fast, avoids toolchain invocations on every iteration,
// and confines generated code to stdlib symbols.

var packageLineRe = regexp.MustCompile(`(?m)^package\s+\w+`)

// CallFailure describes a raised condition during a dynamic function call:
// a panic, a returned error, a timeout, or a malformed invocation.
type CallFailure struct {
	Kind    string
	Message string
	Trace   string
}

func (f *CallFailure) Error() string {
	return f.Kind + ": " + f.Message
}

// Module is a loaded tool source module with its exported functions
// resolved to callable values.
type Module struct {
	funcs map[string]reflect.Value
}

// LoadModule evaluates source in a fresh isolated interpreter and resolves
// each named exported function. Any evaluation or resolution failure is
// reported as ErrModuleLoad.
func LoadModule(source string, names []string) (*Module, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("%w: stdlib symbols: %v", ErrModuleLoad, err)
	}

	code := source
	if packageLineRe.MatchString(code) {
		code = packageLineRe.ReplaceAllString(code, "package main")
	} else {
		code = "package main\n\n" + code
	}

	if _, err := i.Eval(code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModuleLoad, err)
	}

	funcs := make(map[string]reflect.Value, len(names))
	for _, name := range names {
		v, err := i.Eval("main." + name)
		if err != nil {
			return nil, fmt.Errorf("%w: function %s not resolvable: %v", ErrModuleLoad, name, err)
		}
		if v.Kind() != reflect.Func {
			return nil, fmt.Errorf("%w: %s is not a function", ErrModuleLoad, name)
		}
		funcs[name] = v
	}

	return &Module{funcs: funcs}, nil
}

// Has reports whether the module exposes the named function.
func (m *Module) Has(name string) bool {
	_, ok := m.funcs[name]
	return ok
}

// Call invokes the named function with args in declaration order. The call
// runs in its own goroutine under the context deadline; a panic, timeout,
// returned non-nil error, or argument mismatch yields a *CallFailure. On
// success the first non-error result is returned (nil when the function
// only returns an error or nothing).
func (m *Module) Call(ctx context.Context, name string, args []any) (any, error) {
	fn, ok := m.funcs[name]
	if !ok {
		return nil, &CallFailure{Kind: "invocation", Message: fmt.Sprintf("function %s not loaded", name)}
	}

	t := fn.Type()
	if t.IsVariadic() && len(args) < t.NumIn()-1 ||
		!t.IsVariadic() && len(args) != t.NumIn() {
		return nil, &CallFailure{
			Kind:    "invocation",
			Message: fmt.Sprintf("%s takes %d arguments, got %d", name, t.NumIn(), len(args)),
		}
	}

	in := make([]reflect.Value, len(args))
	for idx, arg := range args {
		pt := t.In(idx)
		if t.IsVariadic() && idx >= t.NumIn()-1 {
			pt = t.In(t.NumIn() - 1).Elem()
		}
		v, err := coerceValue(arg, pt)
		if err != nil {
			return nil, &CallFailure{
				Kind:    "invocation",
				Message: fmt.Sprintf("argument %d of %s: %v", idx, name, err),
			}
		}
		in[idx] = v
	}

	type callOutcome struct {
		out     []reflect.Value
		failure *CallFailure
	}
	done := make(chan callOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callOutcome{failure: &CallFailure{
					Kind:    "panic",
					Message: fmt.Sprint(r),
					Trace:   string(debug.Stack()),
				}}
			}
		}()
		done <- callOutcome{out: fn.Call(in)}
	}()

	select {
	case <-ctx.Done():
		return nil, &CallFailure{Kind: "timeout", Message: ctx.Err().Error()}
	case o := <-done:
		if o.failure != nil {
			return nil, o.failure
		}
		return resultValue(o.out)
	}
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// resultValue extracts the first non-error return. A non-nil trailing
// error return is a failed call.
func resultValue(out []reflect.Value) (any, error) {
	var result any
	haveResult := false

	for _, v := range out {
		if v.Type().Implements(errType) {
			if !v.IsNil() {
				err := v.Interface().(error)
				return nil, &CallFailure{
					Kind:    fmt.Sprintf("%T", err),
					Message: err.Error(),
				}
			}
			continue
		}
		if !haveResult {
			result = v.Interface()
			haveResult = true
		}
	}
	return result, nil
}

// coerceValue converts a synthesized or extracted argument to the declared
// parameter type. String inputs parse into numeric and boolean targets
// since runtime argument extraction captures text.
func coerceValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return reflect.ValueOf(v), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s, ok := v.(string); ok {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("cannot parse %q as %s", s, t)
			}
			return reflect.ValueOf(n).Convert(t), nil
		}
		if isNumericKind(rv.Kind()) {
			return rv.Convert(t), nil
		}
	case reflect.Float32, reflect.Float64:
		if s, ok := v.(string); ok {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("cannot parse %q as %s", s, t)
			}
			return reflect.ValueOf(f).Convert(t), nil
		}
		if isNumericKind(rv.Kind()) {
			return rv.Convert(t), nil
		}
	case reflect.Bool:
		if s, ok := v.(string); ok {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("cannot parse %q as bool", s)
			}
			return reflect.ValueOf(b), nil
		}
	case reflect.String:
		return reflect.ValueOf(fmt.Sprint(v)), nil
	case reflect.Slice:
		if items, ok := v.([]any); ok {
			out := reflect.MakeSlice(t, len(items), len(items))
			for i, item := range items {
				ev, err := coerceValue(item, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if pairs, ok := v.(map[string]any); ok && t.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(t, len(pairs))
			for k, item := range pairs {
				ev, err := coerceValue(item, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.SetMapIndex(reflect.ValueOf(k), ev)
			}
			return out, nil
		}
	}

	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
