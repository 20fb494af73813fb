package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const masked = "********"

// YAML renders the effective configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	redacted := *c
	redacted.STT.Whisper.APIKey = mask(c.STT.Whisper.APIKey)
	redacted.LLM.OpenAI.APIKey = mask(c.LLM.OpenAI.APIKey)
	redacted.LLM.Gemini.APIKey = mask(c.LLM.Gemini.APIKey)

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return out, nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return masked
}
