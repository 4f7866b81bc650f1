package forge

import (
	"strings"
)

// knownAnswerRule ties a function-name prefix to fixed known-answer cases.
// The cases assume parameters named a and b; a function matching a prefix
// with different parameter names gets a malformed case that fails as a
// missing-argument error, which still feeds the fix loop useful signal.
type knownAnswerRule struct {
	prefixes []string
	cases    []TestCase
}

var knownAnswerRules = []knownAnswerRule{
	{
		prefixes: []string{"add", "sum", "calculate"},
		cases: []TestCase{
			{Label: "known: 5+3", Args: map[string]any{"a": 5, "b": 3}, Expected: 8, HasExpected: true},
			{Label: "known: -1+1", Args: map[string]any{"a": -1, "b": 1}, Expected: 0, HasExpected: true},
		},
	},
	{
		prefixes: []string{"subtract", "minus"},
		cases: []TestCase{
			{Label: "known: 5-3", Args: map[string]any{"a": 5, "b": 3}, Expected: 2, HasExpected: true},
			{Label: "known: 3-5", Args: map[string]any{"a": 3, "b": 5}, Expected: -2, HasExpected: true},
		},
	},
	{
		prefixes: []string{"multiply", "times"},
		cases: []TestCase{
			{Label: "known: 5*3", Args: map[string]any{"a": 5, "b": 3}, Expected: 15, HasExpected: true},
			{Label: "known: -2*3", Args: map[string]any{"a": -2, "b": 3}, Expected: -6, HasExpected: true},
		},
	},
	{
		prefixes: []string{"divide", "div"},
		cases: []TestCase{
			{Label: "known: 6/3", Args: map[string]any{"a": 6, "b": 3}, Expected: 2, HasExpected: true},
			{Label: "known: 5/2", Args: map[string]any{"a": 5, "b": 2}, Expected: 2.5, HasExpected: true},
			// Division-by-zero probe. No expected value: whatever happens,
			// handled or raised, is recorded as data.
			{Label: "known: 1/0 probe", Args: map[string]any{"a": 1, "b": 0}},
		},
	},
}

// GenerateCases synthesizes the test battery for one function signature:
// a basic case from defaults and type-representative values, per-parameter
// edge cases, then any name-pattern known-answer cases.
func GenerateCases(sig FunctionSignature) []TestCase {
	basic := map[string]any{}
	for _, p := range sig.Params {
		if p.HasDefault {
			basic[p.Name] = p.Default
			continue
		}
		basic[p.Name] = representativeValue(p)
	}

	cases := []TestCase{{Label: "basic", Args: basic}}

	for _, p := range sig.Params {
		switch p.Type {
		case TagString:
			cases = append(cases,
				variant(basic, p.Name, "", p.Name+" empty string"),
				variant(basic, p.Name, strings.Repeat("a", 100), p.Name+" long string"),
			)
		case TagInteger, TagFloat:
			cases = append(cases,
				variant(basic, p.Name, 0, p.Name+" zero"),
				variant(basic, p.Name, -1, p.Name+" negative"),
				variant(basic, p.Name, 1000000, p.Name+" large"),
			)
		case TagList:
			cases = append(cases,
				variant(basic, p.Name, []any{}, p.Name+" empty list"),
				variant(basic, p.Name, []any{1, 2, 3}, p.Name+" small list"),
			)
		case TagMapping:
			cases = append(cases,
				variant(basic, p.Name, map[string]any{}, p.Name+" empty mapping"),
				variant(basic, p.Name, map[string]any{"key_one": 1, "key_two": 2}, p.Name+" small mapping"),
			)
		}
	}

	lower := strings.ToLower(sig.Name)
	for _, rule := range knownAnswerRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(lower, prefix) {
				cases = append(cases, rule.cases...)
				break
			}
		}
	}

	return cases
}

// representativeValue synthesizes a value for a parameter with no default.
func representativeValue(p Param) any {
	switch p.Type {
	case TagString:
		return "test_" + p.Name
	case TagInteger:
		return 1
	case TagFloat:
		return 1.0
	case TagBoolean:
		return true
	case TagList:
		return []any{}
	case TagMapping:
		return map[string]any{}
	}
	return nil
}

// variant copies the basic case with one parameter replaced.
func variant(basic map[string]any, param string, value any, label string) TestCase {
	args := make(map[string]any, len(basic))
	for k, v := range basic {
		args[k] = v
	}
	args[param] = value
	return TestCase{Label: label, Args: args}
}
