package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{
		"PARLEY_LLM_PROVIDER", "PARLEY_GEMINI_API_KEY", "PARLEY_BACKEND_URL",
		"PARLEY_BACKEND_TOKEN", "PARLEY_LOG_LEVEL", "PARLEY_LOG_FILE", "PARLEY_DB",
		"PARLEY_LANGUAGE", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "GROQ_API_KEY",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, cfg.Backend.Mode)
	assert.Equal(t, LangEnglish, cfg.Practice.Language)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 500, cfg.Speech.ChunkLimit)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "parley", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  openai:
    model: gpt-4o
speech:
  speed: 0.8
  tts: [google]
practice:
  language: pt
  scenario: hotel
backend:
  timeout: 5s
`), 0o644))

	t.Setenv("PARLEY_OPENAI_API_KEY", "sk-test")
	t.Setenv("PARLEY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 0.8, cfg.Speech.Speed)
	assert.Equal(t, []string{"google"}, cfg.Speech.TTS)
	assert.Equal(t, "hotel", cfg.Practice.Scenario)
	assert.Equal(t, LangPortuguese, cfg.Practice.Language)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched defaults survive
	assert.Equal(t, "whisper-large-v3", cfg.Speech.Groq.Model)
}

func TestLoadExplicitMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARLEY_BACKEND_URL=http://localhost:5000\nPARLEY_BACKEND_TOKEN=tok\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("PARLEY_BACKEND_URL")
		os.Unsetenv("PARLEY_BACKEND_TOKEN")
	})
	os.Unsetenv("PARLEY_BACKEND_URL")
	os.Unsetenv("PARLEY_BACKEND_TOKEN")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Backend.Mode)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.URL)
	assert.Equal(t, "tok", cfg.Backend.Token)
}

func TestDiscoverGenericKey(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "ak")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "ak", cfg.LLM.Anthropic.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"remote without url", func(c *Config) { c.Backend.Mode = BackendRemote }, false},
		{"remote with url", func(c *Config) { c.Backend.Mode = BackendRemote; c.Backend.URL = "http://x" }, true},
		{"bad mode", func(c *Config) { c.Backend.Mode = "cloud" }, false},
		{"bad language", func(c *Config) { c.Practice.Language = "fr" }, false},
		{"bilingual", func(c *Config) { c.Practice.Language = LangBilingual }, true},
		{"chunk too big", func(c *Config) { c.Speech.ChunkLimit = 900 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
