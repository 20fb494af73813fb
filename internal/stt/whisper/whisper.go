// Package whisper implements stt.Transcriber against a Whisper HTTP service.
//
// Two request flavors are supported:
//   - "openai": OpenAI-compatible /v1/audio/transcriptions (OpenAI, faster-whisper-server, whisper.cpp server)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt"
)

// Transcriber calls a Whisper-compatible HTTP endpoint.
type Transcriber struct {
	endpoint  string
	flavor    string // "openai" or "asr"
	model     string
	apiKey    string
	language  string
	vadFilter bool
	client    *http.Client
}

// New creates a Whisper transcriber from config.
func New(cfg config.WhisperConfig) *Transcriber {
	flavor := cfg.Flavor
	if flavor == "" {
		flavor = "openai"
	}
	return &Transcriber{
		endpoint:  cfg.Endpoint,
		flavor:    flavor,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		language:  cfg.Language,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "whisper" }

// Transcribe uploads the audio and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (*stt.Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	switch t.flavor {
	case "asr":
		return t.transcribeASR(ctx, audio, contentType)
	default:
		return t.transcribeOpenAI(ctx, audio, contentType)
	}
}

// Close is a no-op.
func (t *Transcriber) Close() error { return nil }

// transcribeASR handles the whisper-asr-webservice format.
// API: POST /asr?task=transcribe&language=en&output=json&vad_filter=true
// Body: multipart/form-data with field "audio_file"
func (t *Transcriber) transcribeASR(ctx context.Context, audio []byte, contentType string) (*stt.Result, error) {
	body, formType, err := multipartAudio("audio_file", audio, contentType, nil)
	if err != nil {
		return nil, err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if t.language != "" {
		q.Set("language", t.language)
	}
	if t.vadFilter {
		q.Set("vad_filter", "true")
	}

	reqURL := t.endpoint + "?" + q.Encode()
	slog.Debug("whisper-asr request", "url", reqURL)
	return t.post(ctx, reqURL, body, formType)
}

// transcribeOpenAI handles OpenAI-compatible transcription endpoints.
func (t *Transcriber) transcribeOpenAI(ctx context.Context, audio []byte, contentType string) (*stt.Result, error) {
	fields := map[string]string{"response_format": "verbose_json"}
	if t.model != "" {
		fields["model"] = t.model
	}
	if t.language != "" {
		fields["language"] = t.language
	}

	body, formType, err := multipartAudio("file", audio, contentType, fields)
	if err != nil {
		return nil, err
	}
	return t.post(ctx, t.endpoint, body, formType)
}

func (t *Transcriber) post(ctx context.Context, reqURL string, body *bytes.Buffer, formType string) (*stt.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", formType)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	lang := normalizeLanguage(result.Language)
	slog.Debug("transcription complete", "flavor", t.flavor, "text_length", len(result.Text), "language", lang)
	return &stt.Result{
		Text:     strings.TrimSpace(result.Text),
		Language: lang,
	}, nil
}

func multipartAudio(field string, audio []byte, contentType string, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(field, "audio"+stt.ExtFromContentType(contentType))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// normalizeLanguage converts full language names (as some servers return them) to ISO-639-1 codes.
func normalizeLanguage(lang string) string {
	if len(lang) == 2 {
		return strings.ToLower(lang)
	}
	known := map[string]string{
		"english":    "en",
		"french":     "fr",
		"spanish":    "es",
		"german":     "de",
		"italian":    "it",
		"portuguese": "pt",
		"dutch":      "nl",
		"hindi":      "hi",
		"japanese":   "ja",
		"chinese":    "zh",
	}
	if code, ok := known[strings.ToLower(lang)]; ok {
		return code
	}
	return strings.ToLower(lang)
}
