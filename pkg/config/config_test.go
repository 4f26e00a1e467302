package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "https://www.ebi.ac.uk/ols4/api", cfg.Ontology.BaseURL)
	assert.Equal(t, "snomed", cfg.Ontology.Ontology)
	assert.Equal(t, "Patient/1", cfg.Extraction.SubjectReference)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.IsDev())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("ONTOLOGY_ROWS", "3")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("EXTRACTION_SUBJECT_REFERENCE", "Patient/42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 3, cfg.Ontology.Rows)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "Patient/42", cfg.Extraction.SubjectReference)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notefhir.yaml")
	content := `
llm:
  provider: anthropic
anthropic:
  model: claude-test
extraction:
  system_prompt: "Extract FHIR resources."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-test", cfg.Anthropic.Model)
	assert.Equal(t, "Extract FHIR resources.", cfg.Extraction.SystemPrompt)
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("LLM_PROVIDER", "bard")

	_, err := Load()
	assert.ErrorContains(t, err, "LLM_PROVIDER")
}

func TestValidate_FHIRRequiresBase(t *testing.T) {
	cfg := &Config{
		LLM:      LLMConfig{Provider: "openai"},
		Ontology: OntologyConfig{BaseURL: "http://ols"},
		FHIR:     FHIRConfig{Enabled: true},
	}
	assert.ErrorContains(t, cfg.Validate(), "FHIR_API_BASE")
}

func TestAddresses(t *testing.T) {
	redis := RedisConfig{Host: "cache", Port: 6380}
	server := ServerConfig{Host: "127.0.0.1", Port: 9000}

	assert.Equal(t, "cache:6380", redis.RedisAddr())
	assert.Equal(t, "127.0.0.1:9000", server.Address())
}
