package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mistyd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Transports.HTTP.Port)
	assert.Equal(t, int64(25<<20), cfg.Transports.HTTP.MaxUploadBytes)
	assert.Equal(t, "whisper", cfg.STT.Backend)
	assert.Equal(t, "ollama", cfg.LLM.Backend)
	assert.Equal(t, "llama3", cfg.LLM.Ollama.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.STT.Whisper.Timeout)
	assert.False(t, cfg.Speaker.Enabled)
	assert.Equal(t, llm.DefaultPersona, cfg.LLM.Persona)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
llm:
  backend: openai
  timeout: 15s
  openai:
    api_key: ${TEST_MISTY_OPENAI_KEY}
    model: gpt-4o
stt:
  backend: whispercpp
  whispercpp:
    model_path: /models/ggml-base.bin
logging:
  level: debug
`)
	t.Setenv("TEST_MISTY_OPENAI_KEY", "sk-secret")
	t.Setenv("MISTY_TRANSPORTS_HTTP_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Backend)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sk-secret", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "whispercpp", cfg.STT.Backend)
	assert.Equal(t, "/models/ggml-base.bin", cfg.STT.WhisperCPP.ModelPath)
	assert.Equal(t, 9999, cfg.Transports.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "llm:\n  backend: markov\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markov")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"stt backend", func(c *Config) { c.STT.Backend = "vosk" }},
		{"whisper flavor", func(c *Config) { c.STT.Whisper.Flavor = "grpc" }},
		{"llm timeout", func(c *Config) { c.LLM.Timeout = 0 }},
		{"upload limit", func(c *Config) { c.Transports.HTTP.MaxUploadBytes = 0 }},
		{"no transports", func(c *Config) {
			c.Transports.HTTP.Enabled = false
			c.Transports.GRPC.Enabled = false
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}

func TestYAMLMasksSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.LLM.Gemini.APIKey = "AIza-real-key"

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "AIza-real-key")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, masked, back.LLM.Gemini.APIKey)
	assert.Equal(t, "", back.LLM.OpenAI.APIKey)
	assert.Equal(t, cfg.LLM.Ollama, back.LLM.Ollama)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}
