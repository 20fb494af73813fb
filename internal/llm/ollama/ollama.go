// Package ollama implements llm.Generator against a self-hosted Ollama server.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
)

// Generator calls Ollama's /api/generate endpoint without streaming.
type Generator struct {
	client  *api.Client
	model   string
	persona string
}

// New creates an Ollama generator. The persona is prepended to every system prompt.
func New(cfg config.OllamaConfig, persona string) (*Generator, error) {
	base, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama host %q: %w", cfg.Host, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama host %q must be an absolute URL", cfg.Host)
	}
	return &Generator{
		client:  api.NewClient(base, http.DefaultClient),
		model:   cfg.Model,
		persona: persona,
	}, nil
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "ollama" }

// Generate sends one prompt and returns the complete response text.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	stream := false
	gr := &api.GenerateRequest{
		Model:  g.model,
		System: llm.SystemPrompt(g.persona, req.Instruction),
		Prompt: req.Question,
		Stream: &stream,
		Options: map[string]any{
			"num_predict": req.MaxOutputTokens,
			"temperature": req.Temperature,
		},
	}

	var out strings.Builder
	err := g.client.Generate(ctx, gr, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		if resp.Done {
			slog.Debug("ollama generation complete",
				"model", g.model,
				"eval_count", resp.EvalCount,
				"done_reason", resp.DoneReason,
			)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}

// Close is a no-op.
func (g *Generator) Close() error { return nil }
