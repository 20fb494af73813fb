// Package gemini implements llm.Generator using Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
)

// Generator calls Models.GenerateContent on a genai client.
type Generator struct {
	client  *genai.Client
	model   string
	persona string
}

// New creates a Gemini generator. An API key is required.
func New(ctx context.Context, cfg config.GeminiConfig, persona string) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Generator{client: client, model: model, persona: persona}, nil
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "gemini" }

// Generate sends the question with the system instruction and returns the text parts.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Question), buildConfig(g.persona, req))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp.UsageMetadata != nil {
		slog.Debug("gemini generation complete",
			"model", g.model,
			"candidates_tokens", resp.UsageMetadata.CandidatesTokenCount,
		)
	}
	return resp.Text(), nil
}

// Close is a no-op; the genai client holds no connections of its own.
func (g *Generator) Close() error { return nil }

func buildConfig(persona string, req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt(persona, req.Instruction), genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	return cfg
}
