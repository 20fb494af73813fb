package whisper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
)

func TestTranscribeOpenAIFlavor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFFdata", string(data))
		assert.Equal(t, "audio.wav", hdr.Filename)

		_, _ = io.WriteString(w, `{"text":"  what is go  ","language":"english"}`)
	}))
	defer srv.Close()

	tr := New(config.WhisperConfig{Endpoint: srv.URL, Model: "whisper-1", APIKey: "sk-test", Timeout: 5 * time.Second})
	res, err := tr.Transcribe(context.Background(), []byte("RIFFdata"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "what is go", res.Text)
	assert.Equal(t, "en", res.Language)
}

func TestTranscribeASRFlavor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "transcribe", r.URL.Query().Get("task"))
		assert.Equal(t, "hi", r.URL.Query().Get("language"))
		assert.Equal(t, "true", r.URL.Query().Get("vad_filter"))
		_, hdr, err := r.FormFile("audio_file")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "audio.ogg", hdr.Filename)
		_, _ = io.WriteString(w, `{"text":"namaste","language":"hi"}`)
	}))
	defer srv.Close()

	tr := New(config.WhisperConfig{Endpoint: srv.URL, Flavor: "asr", Language: "hi", VADFilter: true})
	res, err := tr.Transcribe(context.Background(), []byte("OggS"), "audio/ogg")
	require.NoError(t, err)
	assert.Equal(t, "namaste", res.Text)
	assert.Equal(t, "hi", res.Language)
}

func TestTranscribeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cannot decode audio", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	tr := New(config.WhisperConfig{Endpoint: srv.URL})
	_, err := tr.Transcribe(context.Background(), []byte("junk"), "audio/wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "cannot decode audio")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	tr := New(config.WhisperConfig{Endpoint: "http://127.0.0.1:1"})
	_, err := tr.Transcribe(context.Background(), nil, "audio/wav")
	assert.Error(t, err)
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en", normalizeLanguage("EN"))
	assert.Equal(t, "fr", normalizeLanguage("French"))
	assert.Equal(t, "klingon", normalizeLanguage("Klingon"))
	assert.Equal(t, "", normalizeLanguage(""))
}
