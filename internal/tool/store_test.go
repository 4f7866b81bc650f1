package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDocRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	require.NoError(t, s.WriteDoc("calculator", DocSummary, "A basic calculator."))

	assert.True(t, s.Exists("calculator"))
	assert.True(t, s.HasDoc("calculator", DocSummary))
	assert.False(t, s.HasDoc("calculator", DocFunctions))

	content, err := s.ReadDoc("calculator", DocSummary)
	require.NoError(t, err)
	assert.Equal(t, "A basic calculator.", content)
}

func TestStorePathResolvesCaseVariants(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Unit Converter"), 0755))

	s := NewStore(root)
	assert.Equal(t, filepath.Join(root, "Unit Converter"), s.Path("unit_converter"))
	assert.True(t, s.Exists("Unit Converter"))
}

func TestStoreListNamespaces(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"alpha", "beta", ".hidden"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0644))

	s := NewStore(root)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, s.ListNamespaces())
}

func TestStoreMetadataRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	md := GenerateMetadata(filepath.Join(s.Root(), "calculator"))
	md.Tags = []string{"math"}
	require.NoError(t, s.WriteMetadata("calculator", md))

	got, err := s.ReadMetadata("calculator")
	require.NoError(t, err)
	assert.Equal(t, "calculator", got.Name)
	assert.Equal(t, []string{"math"}, got.Tags)
}

func TestGenerateMetadataFromDocs(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.WriteDoc("calc", DocSummary, "# Calc\n\nDoes arithmetic.\nQuickly.\n\nMore detail here."))
	require.NoError(t, s.WriteDoc("calc", DocFunctions, "## add\nAdds.\nParameters: a, b\n"))

	md := GenerateMetadata(s.Path("calc"))
	assert.Equal(t, "calc", md.Name)
	assert.Equal(t, "Does arithmetic. Quickly.", md.Description)
	require.Len(t, md.Functions, 1)
	assert.Equal(t, "add", md.Functions[0].Name)
}
