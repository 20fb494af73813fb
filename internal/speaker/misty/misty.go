// Package misty implements speaker.Speaker using the Misty robot's REST API.
package misty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
)

// Speaker posts text to /api/tts/speak on the robot.
type Speaker struct {
	endpoint string
	client   *http.Client
}

// New creates a Misty speaker. MistyHost may be a bare IP/host or a full URL.
func New(cfg config.SpeakerConfig) *Speaker {
	base := strings.TrimRight(cfg.MistyHost, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Speaker{
		endpoint: base + "/api/tts/speak",
		client:   &http.Client{Timeout: timeout},
	}
}

// Speak asks the robot to say text. Empty text is ignored.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	body, err := json.Marshal(struct {
		Text string `json:"Text"`
	}{Text: text})
	if err != nil {
		return fmt.Errorf("marshalling speak request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating speak request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("speak request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("misty speak failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	return nil
}
