package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "boop", cfg.Name)
	assert.Equal(t, "openrouter", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Forge.MaxFixAttempts)
	assert.Equal(t, 20, cfg.Memory.ShortThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
}

func TestLoadMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
llm:
  provider: gemini
  model: gemini-2.0-flash
forge:
  max_fix_attempts: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Forge.MaxFixAttempts)
	// Untouched sections keep defaults
	assert.Equal(t, 20, cfg.Memory.ShortThreshold)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOP_API_KEY", "test-key")
	t.Setenv("BOOP_TOOLS_DIR", "/tmp/tools")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "/tmp/tools", cfg.Forge.ToolsDir)
}

func TestTimeoutParsing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "bogus"
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())

	cfg.Forge.ExecTimeout = "2s"
	assert.Equal(t, 2*time.Second, cfg.GetExecTimeout())
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}
