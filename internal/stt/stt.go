// Package stt defines the interface for speech-to-text backends.
//
// mistyd treats transcription as a black box: audio bytes in, text out.
// Two backends are provided: a Whisper-compatible HTTP service and a local
// whisper.cpp binary.
package stt

import (
	"context"
	"strings"
)

// Result holds the output of a transcription.
type Result struct {
	// Text is the transcript.
	Text string

	// Language is the ISO-639-1 code reported by the backend, if any.
	Language string
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "whisper", "whispercpp").
	Name() string

	// Transcribe converts audio bytes to text.
	Transcribe(ctx context.Context, audio []byte, contentType string) (*Result, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ExtFromContentType maps an audio MIME type to a file extension.
// Unknown types default to ".wav".
func ExtFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".wav"
	}
}
