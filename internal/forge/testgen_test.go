package forge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCasesBasicDefaults(t *testing.T) {
	sig := FunctionSignature{
		Name: "Format",
		Params: []Param{
			{Name: "text", Type: TagString},
			{Name: "width", Type: TagInteger},
			{Name: "wrap", Type: TagBoolean},
		},
	}

	cases := GenerateCases(sig)
	require.NotEmpty(t, cases)

	basic := cases[0]
	assert.Equal(t, "test_text", basic.Args["text"])
	assert.Equal(t, 1, basic.Args["width"])
	assert.Equal(t, true, basic.Args["wrap"])
	assert.False(t, basic.HasExpected)
}

func TestGenerateCasesDeclaredDefaultWins(t *testing.T) {
	sig := FunctionSignature{
		Name: "Greet",
		Params: []Param{
			{Name: "name", Type: TagString, Default: "world", HasDefault: true},
		},
	}

	cases := GenerateCases(sig)
	assert.Equal(t, "world", cases[0].Args["name"])
}

func TestGenerateCasesCoverageFloor(t *testing.T) {
	// A function with at least one typed parameter always gets more than
	// the basic case.
	tags := []TypeTag{TagString, TagInteger, TagFloat, TagList, TagMapping}
	for _, tag := range tags {
		sig := FunctionSignature{Name: "Work", Params: []Param{{Name: "p", Type: tag}}}
		assert.Greater(t, len(GenerateCases(sig)), 1, "tag %s", tag)
	}
}

func TestGenerateCasesStringEdges(t *testing.T) {
	sig := FunctionSignature{Name: "Echo", Params: []Param{{Name: "text", Type: TagString}}}

	cases := GenerateCases(sig)
	require.Len(t, cases, 3)
	assert.Equal(t, "", cases[1].Args["text"])
	assert.Len(t, cases[2].Args["text"], 100)
}

func TestGenerateCasesNumericEdges(t *testing.T) {
	sig := FunctionSignature{Name: "Scale", Params: []Param{{Name: "n", Type: TagInteger}}}

	cases := GenerateCases(sig)
	require.Len(t, cases, 4)
	assert.Equal(t, 0, cases[1].Args["n"])
	assert.Equal(t, -1, cases[2].Args["n"])
	assert.Equal(t, 1000000, cases[3].Args["n"])
}

func TestGenerateCasesKnownAnswerAdd(t *testing.T) {
	sig := FunctionSignature{
		Name: "Add",
		Params: []Param{
			{Name: "a", Type: TagInteger},
			{Name: "b", Type: TagInteger},
		},
	}

	cases := GenerateCases(sig)

	var found bool
	for _, tc := range cases {
		if tc.HasExpected && tc.Args["a"] == 5 && tc.Args["b"] == 3 {
			assert.Equal(t, 8, tc.Expected)
			found = true
		}
	}
	assert.True(t, found, "known-answer case {a:5, b:3}=8 missing")
}

func TestGenerateCasesDivideProbeUnasserted(t *testing.T) {
	sig := FunctionSignature{
		Name: "Divide",
		Params: []Param{
			{Name: "a", Type: TagFloat},
			{Name: "b", Type: TagFloat},
		},
	}

	var probe *TestCase
	cases := GenerateCases(sig)
	for i := range cases {
		if cases[i].Args["a"] == 1 && cases[i].Args["b"] == 0 {
			probe = &cases[i]
		}
	}

	require.NotNil(t, probe, "division-by-zero probe missing")
	assert.False(t, probe.HasExpected)
}

func TestGenerateCasesNoParams(t *testing.T) {
	cases := GenerateCases(FunctionSignature{Name: "Version"})
	require.Len(t, cases, 1)
	assert.Empty(t, cases[0].Args)
}
