package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/prompt"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/speaker"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/stt"
)

// Upload is one submitted audio payload.
type Upload struct {
	Audio       []byte
	ContentType string
}

// Answerer turns a transcript into a final answer.
type Answerer interface {
	Answer(ctx context.Context, question string) prompt.Result
}

// StageError ties a failure to the stage the job was in.
type StageError struct {
	Stage Status
	Err   error
}

// Error formats the failure as stored in Record.Error.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs submitted jobs to completion, one goroutine per job.
type Pipeline struct {
	store       *Store
	transcriber stt.Transcriber
	answerer    Answerer
	events      *EventBus
	speaker     speaker.Speaker
	wg          sync.WaitGroup
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithEvents publishes job events to bus.
func WithEvents(bus *EventBus) PipelineOption {
	return func(p *Pipeline) { p.events = bus }
}

// WithSpeaker has the robot speak every completed answer.
func WithSpeaker(s speaker.Speaker) PipelineOption {
	return func(p *Pipeline) { p.speaker = s }
}

// NewPipeline creates a pipeline writing into store.
func NewPipeline(store *Store, transcriber stt.Transcriber, answerer Answerer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:       store,
		transcriber: transcriber,
		answerer:    answerer,
		events:      NewEventBus(0),
		speaker:     speaker.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the store the pipeline writes to.
func (p *Pipeline) Store() *Store { return p.store }

// Events returns the pipeline's event bus.
func (p *Pipeline) Events() *EventBus { return p.events }

// Submit registers a job for the upload and processes it in the background.
// It returns the job ID without waiting. Jobs are not cancellable: each one
// runs until it reaches done or error.
func (p *Pipeline) Submit(up Upload) string {
	id := p.store.Create()
	p.events.Publish(Event{JobID: id, Type: EventTypeStatus, Status: StatusReceived})
	slog.Info("job received", "job_id", id, "bytes", len(up.Audio), "content_type", up.ContentType)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Run(context.Background(), id, up)
	}()
	return id
}

// Wait blocks until every submitted job has finished.
func (p *Pipeline) Wait() { p.wg.Wait() }

// Run drives one job through transcription and answering. Any failure,
// including a panic, is recorded on the job as StatusError and returned.
func (p *Pipeline) Run(ctx context.Context, id string, up Upload) (err error) {
	logger := slog.With("job_id", id)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: p.currentStatus(id), Err: fmt.Errorf("internal failure: %v", r)}
		}
		if err != nil {
			p.fail(id, err)
			logger.Error("job failed", "error", err, "duration", time.Since(start))
		}
	}()

	if _, advErr := p.advance(id, StatusTranscribing, nil); advErr != nil {
		return advErr
	}

	logger.Debug("transcribing audio", "backend", p.transcriber.Name(), "bytes", len(up.Audio))
	res, sttErr := p.transcriber.Transcribe(ctx, up.Audio, up.ContentType)
	if sttErr != nil {
		return &StageError{Stage: StatusTranscribing, Err: sttErr}
	}
	transcript := strings.TrimSpace(res.Text)
	logger.Info("transcription complete", "text_length", len(transcript), "language", res.Language)

	if _, advErr := p.advance(id, StatusThinking, func(r *Record) {
		r.Transcript = transcript
		r.Language = res.Language
	}); advErr != nil {
		return advErr
	}

	answer := p.answerer.Answer(ctx, transcript)

	if _, advErr := p.advance(id, StatusDone, func(r *Record) {
		r.Response = answer.Text
		if answer.Err != nil {
			r.Warning = answer.Err.Error()
		}
	}); advErr != nil {
		return advErr
	}
	p.events.Publish(Event{JobID: id, Type: EventTypeResult, Status: StatusDone, Message: answer.Text})
	logger.Info("job complete",
		"directives", answer.Flags.Names(),
		"fallback", answer.Fallback(),
		"duration", time.Since(start))

	p.speak(ctx, logger, answer.Text)
	return nil
}

// speak says the answer on a finished job. Failures, panics included, are
// only logged.
func (p *Pipeline) speak(ctx context.Context, logger *slog.Logger, text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("speaking answer failed", "error", fmt.Errorf("internal failure: %v", r))
		}
	}()
	if err := p.speaker.Speak(ctx, text); err != nil {
		logger.Warn("speaking answer failed", "error", err)
	}
}

// advance moves the job to status after applying fn, and publishes the change.
func (p *Pipeline) advance(id string, status Status, fn func(*Record)) (Record, error) {
	rec, err := p.store.Update(id, func(r *Record) {
		if fn != nil {
			fn(r)
		}
		r.Status = status
	})
	if err != nil {
		return rec, &StageError{Stage: status, Err: err}
	}
	p.events.Publish(Event{JobID: id, Type: EventTypeStatus, Status: status})
	return rec, nil
}

// fail records err on the job. A job that already finished is left alone.
func (p *Pipeline) fail(id string, err error) {
	if _, updErr := p.store.Update(id, func(r *Record) {
		r.Status = StatusError
		r.Error = err.Error()
	}); updErr != nil {
		slog.Warn("could not record job failure", "job_id", id, "error", updErr)
		return
	}
	p.events.Publish(Event{JobID: id, Type: EventTypeError, Status: StatusError, Message: err.Error()})
}

func (p *Pipeline) currentStatus(id string) Status {
	rec, ok := p.store.Get(id)
	if !ok {
		return StatusReceived
	}
	return rec.Status
}
