package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HR_AGENT_URL", "http://hr-agent:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://hr-agent:9000", cfg.AgentURL)
	assert.False(t, cfg.LLMEnabled)
	assert.False(t, cfg.MaskNER)
	assert.Equal(t, []string{"employee code", "first name", "last name", "primary email"}, cfg.Rules.PIIFields)
	assert.Equal(t, []string{"Human Resources"}, cfg.Rules.ElevatedDepartments)
	assert.Equal(t, []string{"APAC", "EMEA", "LATAM", "NA", "ANZ"}, cfg.Rules.KnownRegions)
}

func TestLoadRequiresAgentURL(t *testing.T) {
	t.Setenv("HR_AGENT_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFlags(t *testing.T) {
	t.Setenv("HR_AGENT_URL", "http://hr-agent:9000")
	t.Setenv("PORT", "9999")
	t.Setenv("LLM", "true")
	t.Setenv("LLM_MODEL", "qwen3:4b")
	t.Setenv("MASK_NER", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.True(t, cfg.LLMEnabled)
	assert.Equal(t, "qwen3:4b", cfg.LLMModel)
	assert.True(t, cfg.MaskNER)
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pii_fields:
  - national id
elevated_departments:
  - People Ops
`), 0o600))

	t.Setenv("HR_AGENT_URL", "http://hr-agent:9000")
	t.Setenv("RULES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"national id"}, cfg.Rules.PIIFields)
	assert.Equal(t, []string{"People Ops"}, cfg.Rules.ElevatedDepartments)
	// Unset sections keep their defaults.
	assert.Equal(t, []string{"APAC", "EMEA", "LATAM", "NA", "ANZ"}, cfg.Rules.KnownRegions)
}

func TestLoadRulesFileMissing(t *testing.T) {
	t.Setenv("HR_AGENT_URL", "http://hr-agent:9000")
	t.Setenv("RULES_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
