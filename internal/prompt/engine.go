package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
)

const (
	// Temperature is used for every generation request.
	Temperature = 0.2

	// FallbackAnswer replaces the answer when the LLM backend fails.
	FallbackAnswer = "unable to obtain a response"

	// DefaultTimeout bounds a single LLM call.
	DefaultTimeout = 60 * time.Second
)

// Result is the outcome of answering one question.
type Result struct {
	// Question is the question as sent to the model, directives removed.
	Question string `json:"question"`

	// Flags are the directives recognized in the original question.
	Flags Flags `json:"flags"`

	// Text is the sanitized answer, or FallbackAnswer if generation failed.
	Text string `json:"text"`

	// Err is the generation failure that caused the fallback, if any.
	Err error `json:"-"`
}

// Fallback reports whether Text is the fallback answer.
func (r Result) Fallback() bool { return r.Err != nil }

// Engine answers questions through an LLM backend.
type Engine struct {
	generator llm.Generator
	timeout   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the per-call LLM timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an Engine that calls the given generator.
func NewEngine(gen llm.Generator, opts ...Option) *Engine {
	e := &Engine{generator: gen, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request builds the generation request for a question without calling the model.
func Request(question string) (llm.Request, Flags) {
	cleaned, flags := ParseDirectives(question)
	instruction, maxTokens := ComposeInstruction(flags)
	return llm.Request{
		Instruction:     instruction,
		Question:        cleaned,
		MaxOutputTokens: maxTokens,
		Temperature:     Temperature,
	}, flags
}

// Answer parses directives out of the question, asks the model and sanitizes
// its output. A failed LLM call never surfaces as an error: the result carries
// FallbackAnswer and the cause in Err.
func (e *Engine) Answer(ctx context.Context, question string) Result {
	req, flags := Request(question)
	res := Result{Question: req.Question, Flags: flags}

	slog.Debug("generating answer",
		"backend", e.generator.Name(),
		"directives", flags.Names(),
		"max_tokens", req.MaxOutputTokens)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.generator.Generate(callCtx, req)
	if err != nil {
		res.Err = fmt.Errorf("%s generate: %w", e.generator.Name(), err)
		res.Text = FallbackAnswer
		slog.Warn("llm call failed, using fallback answer", "backend", e.generator.Name(), "error", err)
		return res
	}

	res.Text = Sanitize(raw, flags)
	return res
}
