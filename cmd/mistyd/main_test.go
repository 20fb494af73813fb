package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/speaker"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mistyd dev\n", out)
}

func TestConfigCommandMasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistyd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  backend: gemini
  gemini:
    api_key: AIza-very-secret
`), 0o600))

	out, err := execute(t, "config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "backend: gemini")
	assert.NotContains(t, out, "AIza-very-secret")
}

func TestConfigCommandRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mistyd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stt:\n  backend: vosk\n"), 0o600))

	_, err := execute(t, "config", "--config", path)
	assert.ErrorContains(t, err, "vosk")
}

func TestAskRequiresQuestion(t *testing.T) {
	_, err := execute(t, "ask")
	assert.Error(t, err)
}

func TestNewTranscriber(t *testing.T) {
	tr, err := newTranscriber(config.STTConfig{Backend: "whisper"})
	require.NoError(t, err)
	assert.Equal(t, "whisper", tr.Name())

	tr, err = newTranscriber(config.STTConfig{Backend: "whispercpp"})
	require.NoError(t, err)
	assert.Equal(t, "whispercpp", tr.Name())

	_, err = newTranscriber(config.STTConfig{Backend: "vosk"})
	assert.Error(t, err)
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := newGenerator(ctx, config.LLMConfig{Backend: "ollama", Ollama: config.OllamaConfig{Host: "http://localhost:11434"}})
	require.NoError(t, err)
	assert.Equal(t, "ollama", gen.Name())

	gen, err = newGenerator(ctx, config.LLMConfig{Backend: "openai", OpenAI: config.OpenAIConfig{BaseURL: "http://localhost:1234/v1"}})
	require.NoError(t, err)
	assert.Equal(t, "openai", gen.Name())

	_, err = newGenerator(ctx, config.LLMConfig{Backend: "gemini"})
	assert.ErrorContains(t, err, "API key")

	_, err = newGenerator(ctx, config.LLMConfig{Backend: "markov"})
	assert.Error(t, err)
}

func TestNewSpeakerDisabled(t *testing.T) {
	assert.Equal(t, speaker.Nop{}, newSpeaker(config.SpeakerConfig{}))
	assert.NotEqual(t, speaker.Nop{}, newSpeaker(config.SpeakerConfig{Enabled: true, MistyHost: "10.0.0.2"}))
}
