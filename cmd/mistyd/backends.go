package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm/gemini"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm/ollama"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/llm/openai"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/prompt"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/speaker"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/speaker/misty"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt/whisper"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt/whispercpp"
)

func newTranscriber(cfg config.STTConfig) (stt.Transcriber, error) {
	switch cfg.Backend {
	case "whisper":
		slog.Info("using whisper stt", "endpoint", cfg.Whisper.Endpoint, "flavor", cfg.Whisper.Flavor)
		return whisper.New(cfg.Whisper), nil
	case "whispercpp":
		slog.Info("using whisper.cpp stt", "binary", cfg.WhisperCPP.Binary, "model_path", cfg.WhisperCPP.ModelPath)
		return whispercpp.New(cfg.WhisperCPP), nil
	default:
		return nil, fmt.Errorf("unknown stt backend %q", cfg.Backend)
	}
}

func newGenerator(ctx context.Context, cfg config.LLMConfig) (llm.Generator, error) {
	switch cfg.Backend {
	case "ollama":
		slog.Info("using ollama llm", "host", cfg.Ollama.Host, "model", cfg.Ollama.Model)
		return ollama.New(cfg.Ollama, cfg.Persona)
	case "openai":
		slog.Info("using openai-compatible llm", "base_url", cfg.OpenAI.BaseURL, "model", cfg.OpenAI.Model)
		return openai.New(cfg.OpenAI, cfg.Persona), nil
	case "gemini":
		slog.Info("using gemini llm", "model", cfg.Gemini.Model)
		return gemini.New(ctx, cfg.Gemini, cfg.Persona)
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

func newSpeaker(cfg config.SpeakerConfig) speaker.Speaker {
	if !cfg.Enabled {
		return speaker.Nop{}
	}
	slog.Info("robot speech enabled", "misty_host", cfg.MistyHost, "speak_responses", cfg.SpeakResponses)
	return misty.New(cfg)
}

// app holds the wired service graph shared by serve and mcp.
type app struct {
	transcriber stt.Transcriber
	generator   llm.Generator
	service     *dispatch.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	transcriber, err := newTranscriber(cfg.STT)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(ctx, cfg.LLM)
	if err != nil {
		_ = transcriber.Close()
		return nil, err
	}

	engine := prompt.NewEngine(generator, prompt.WithTimeout(cfg.LLM.Timeout))
	spk := newSpeaker(cfg.Speaker)

	opts := []job.PipelineOption{job.WithEvents(job.NewEventBus(cfg.Jobs.EventBuffer))}
	if cfg.Speaker.Enabled && cfg.Speaker.SpeakResponses {
		opts = append(opts, job.WithSpeaker(spk))
	}
	pipeline := job.NewPipeline(job.NewStore(), transcriber, engine, opts...)

	svc := dispatch.New(pipeline, engine, spk, dispatch.Backends{
		STT: transcriber.Name(),
		LLM: generator.Name(),
	})
	return &app{transcriber: transcriber, generator: generator, service: svc}, nil
}

func (a *app) Close() {
	if err := a.transcriber.Close(); err != nil {
		slog.Warn("closing transcriber", "error", err)
	}
	if err := a.generator.Close(); err != nil {
		slog.Warn("closing generator", "error", err)
	}
}
