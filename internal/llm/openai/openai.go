// Package openai implements llm.Generator using an OpenAI-compatible
// Chat Completions API (OpenAI, Groq, LM Studio, vLLM, ...).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
)

// Generator posts chat completion requests.
type Generator struct {
	endpoint string
	apiKey   string
	model    string
	persona  string
	client   *http.Client
}

// New creates a chat completions generator from config.
func New(cfg config.OpenAIConfig, persona string) *Generator {
	return &Generator{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		persona:  persona,
		client:   &http.Client{},
	}
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "openai" }

// Generate sends the system prompt and question and returns the first choice.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt(g.persona, req.Instruction)},
			{Role: "user", Content: req.Question},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat completion failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	slog.Debug("chat completion done",
		"model", g.model,
		"finish_reason", chatResp.Choices[0].FinishReason,
		"completion_tokens", chatResp.Usage.CompletionTokens,
	)
	return chatResp.Choices[0].Message.Content, nil
}

// Close is a no-op.
func (g *Generator) Close() error { return nil }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
