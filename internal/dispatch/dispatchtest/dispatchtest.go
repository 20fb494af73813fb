// Package dispatchtest builds a dispatch.Service wired to in-process fakes,
// for transport tests.
package dispatchtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/prompt"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt"
)

// FailAudio makes the fake transcriber fail when sent as the audio payload.
const FailAudio = "unreadable"

// Transcriber returns the audio bytes as the transcript.
type Transcriber struct{}

func (Transcriber) Name() string { return "fake-stt" }
func (Transcriber) Close() error { return nil }

func (Transcriber) Transcribe(_ context.Context, audio []byte, _ string) (*stt.Result, error) {
	if string(audio) == FailAudio {
		return nil, errors.New("cannot decode audio")
	}
	return &stt.Result{Text: string(audio), Language: "en"}, nil
}

// Generator echoes the cleaned question back as a single sentence.
// A question containing "offline" fails.
type Generator struct{}

func (Generator) Name() string { return "fake-llm" }
func (Generator) Close() error { return nil }

func (Generator) Generate(_ context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.Question, "offline") {
		return "", errors.New("connection refused")
	}
	return "Answer to " + req.Question + ". trailing fragment", nil
}

// Speaker records everything it is asked to say.
type Speaker struct {
	mu   sync.Mutex
	said []string
}

func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
	return nil
}

// Said returns a copy of the spoken texts.
func (s *Speaker) Said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

// NewService returns a Service backed by the fakes above.
func NewService() (*dispatch.Service, *Speaker) {
	spk := &Speaker{}
	engine := prompt.NewEngine(Generator{})
	pipeline := job.NewPipeline(job.NewStore(), Transcriber{}, engine)
	return dispatch.New(pipeline, engine, spk, dispatch.Backends{STT: "fake-stt", LLM: "fake-llm"}), spk
}
