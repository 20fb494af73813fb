// Package whispercpp implements stt.Transcriber by shelling out to a local
// whisper.cpp build. Uploaded audio is converted to 16 kHz mono PCM with
// ffmpeg first, because whisper.cpp only reads WAV input.
package whispercpp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt"
)

// CommandError reports a failed external command together with its output.
type CommandError struct {
	Stage    string
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with %d", e.Stage, e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for tests.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, err
	}
	return res, nil
}

// Transcriber runs ffmpeg and whisper-cli for every request.
type Transcriber struct {
	binary    string
	ffmpeg    string
	modelPath string
	language  string
	threads   int
	runner    commandRunner
}

// New creates a whisper.cpp transcriber from config.
func New(cfg config.WhisperCPPConfig) *Transcriber {
	return &Transcriber{
		binary:    cfg.Binary,
		ffmpeg:    cfg.FFmpeg,
		modelPath: cfg.ModelPath,
		language:  normalizeLanguage(cfg.Language),
		threads:   cfg.Threads,
		runner:    execRunner{},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "whispercpp" }

// Close is a no-op.
func (t *Transcriber) Close() error { return nil }

// Transcribe writes the audio to a scratch directory, converts it and runs whisper.cpp on it.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (*stt.Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	model, err := resolveModelPath(t.modelPath)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "mistyd-stt-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input"+stt.ExtFromContentType(contentType))
	if err := os.WriteFile(input, audio, 0o600); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	wav := filepath.Join(dir, "audio-16k.wav")
	if err := t.run(ctx, "preprocessing", t.ffmpeg, ffmpegArgs(input, wav)...); err != nil {
		return nil, err
	}

	base := filepath.Join(dir, "transcript")
	if err := t.run(ctx, "transcribing", t.binary, whisperArgs(model, wav, base, t.language, t.threads)...); err != nil {
		return nil, err
	}

	text, err := os.ReadFile(base + ".txt")
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	slog.Debug("whisper.cpp transcription complete", "model", filepath.Base(model), "bytes", len(audio))
	return &stt.Result{
		Text:     strings.Join(strings.Fields(string(text)), " "),
		Language: t.language,
	}, nil
}

func (t *Transcriber) run(ctx context.Context, stage, name string, args ...string) error {
	res, err := t.runner.Run(ctx, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", stage, ctxErr)
		}
		return &CommandError{Stage: stage, Command: name, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return nil
}

// resolveModelPath accepts a model file or a directory and returns the first
// .bin or .gguf model in lexical order.
func resolveModelPath(raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", fmt.Errorf("whisper.cpp model path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access model path %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("cannot read model directory %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".bin", ".gguf":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no .bin or .gguf model files found in %s", path)
	}
	sort.Strings(names)
	return filepath.Join(path, names[0]), nil
}

// normalizeLanguage maps "auto" and empty to no language override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return strings.ToLower(lang)
}

func ffmpegArgs(input, output string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		output,
	}
}

func whisperArgs(model, audio, outBase, language string, threads int) []string {
	args := []string{
		"-m", model,
		"-f", audio,
		"-of", outBase,
		"-otxt",
		"-nt",
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	if threads > 0 {
		args = append(args, "-t", strconv.Itoa(threads))
	}
	return args
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
