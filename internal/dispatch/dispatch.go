// Package dispatch is the application service shared by every transport.
//
// Transports never touch the job store or the prompt engine directly. They
// call the Service, which submits audio to the job pipeline, answers text
// questions synchronously and forwards manual actions to the robot.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/speaker"
)

var (
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoAction is returned by Action when no action name is given.
	ErrNoAction = errors.New("no action provided")
)

// Answer is the outcome of a synchronous text question.
type Answer struct {
	Question   string   `json:"question"`
	Directives []string `json:"directives"`
	Response   string   `json:"response"`
	Fallback   bool     `json:"fallback"`
	Warning    string   `json:"warning,omitempty"`
}

// JobList is a snapshot of every job with aggregate counts.
type JobList struct {
	Summary job.Summary  `json:"summary"`
	Jobs    []job.Record `json:"jobs"`
}

// Backends names the configured collaborators, for health reporting.
type Backends struct {
	STT string `json:"stt"`
	LLM string `json:"llm"`
}

// Service ties the job pipeline, the prompt engine and the speaker together.
type Service struct {
	pipeline *job.Pipeline
	answerer job.Answerer
	speaker  speaker.Speaker
	backends Backends
}

// New creates a Service. A nil speaker disables robot speech for actions.
func New(pipeline *job.Pipeline, answerer job.Answerer, spk speaker.Speaker, backends Backends) *Service {
	if spk == nil {
		spk = speaker.Nop{}
	}
	return &Service{
		pipeline: pipeline,
		answerer: answerer,
		speaker:  spk,
		backends: backends,
	}
}

// Submit starts a background job for the upload and returns its ID.
func (s *Service) Submit(up job.Upload) string {
	return s.pipeline.Submit(up)
}

// Status returns the job record, or job.ErrNotFound.
func (s *Service) Status(id string) (job.Record, error) {
	rec, ok := s.pipeline.Store().Get(id)
	if !ok {
		return job.Record{}, fmt.Errorf("job %s: %w", id, job.ErrNotFound)
	}
	return rec, nil
}

// Jobs lists every job in submission order.
func (s *Service) Jobs() JobList {
	store := s.pipeline.Store()
	return JobList{Summary: store.Summary(), Jobs: store.List()}
}

// Events returns job events with a sequence number greater than since.
func (s *Service) Events(since int64) []job.Event {
	return s.pipeline.Events().Since(since)
}

// Ask answers a text question synchronously, bypassing speech-to-text.
func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrEmptyQuestion
	}
	start := time.Now()
	res := s.answerer.Answer(ctx, question)

	ans := Answer{
		Question:   res.Question,
		Directives: res.Flags.Names(),
		Response:   res.Text,
		Fallback:   res.Fallback(),
	}
	if ans.Directives == nil {
		ans.Directives = []string{}
	}
	if res.Err != nil {
		ans.Warning = res.Err.Error()
	}
	slog.Info("question answered", "directives", ans.Directives, "fallback", ans.Fallback, "duration", time.Since(start))
	return ans, nil
}

// Action has the robot announce a manual action. Speech failures are logged
// and otherwise ignored.
func (s *Service) Action(ctx context.Context, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrNoAction
	}
	if err := s.speaker.Speak(ctx, "Performing "+action); err != nil {
		slog.Warn("speaking action failed", "action", action, "error", err)
	}
	slog.Info("action performed", "action", action)
	return nil
}

// Echo returns the connectivity-check reply for message.
func (s *Service) Echo(message string) string {
	return "Server received: " + message
}

// Backends reports the configured backend names.
func (s *Service) Backends() Backends { return s.backends }

// Wait blocks until every in-flight job has finished.
func (s *Service) Wait() { s.pipeline.Wait() }
