// Package llm defines the boundary to the large-language-model backend.
//
// A Generator takes a fully composed generation request and returns raw
// model text. mistyd ships with three backends: Ollama (self-hosted),
// OpenAI-compatible chat completions, and Google Gemini.
package llm

import "context"

// DefaultPersona is the llm.persona configuration default.
const DefaultPersona = "You are Misty, a friendly and helpful robot assistant."

// Request is a single generation call. It is built once per question and not retained.
type Request struct {
	// Instruction is the answer-style instruction (system prompt).
	Instruction string

	// Question is the user's question with directive phrases removed.
	Question string

	// MaxOutputTokens caps the length of the generated answer.
	MaxOutputTokens int

	// Temperature is the sampling temperature.
	Temperature float64
}

// Generator is the interface every LLM backend implements.
type Generator interface {
	// Name returns the backend identifier (e.g., "ollama", "openai", "gemini").
	Name() string

	// Generate returns the raw model output for the request.
	Generate(ctx context.Context, req Request) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// SystemPrompt joins the persona and the instruction the way every backend sends it.
func SystemPrompt(persona, instruction string) string {
	if persona == "" {
		return instruction
	}
	return persona + "\n" + instruction
}
