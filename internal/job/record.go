// Package job tracks voice questions from upload to answer.
//
// A Record is created when audio arrives and is moved through
// received -> transcribing -> thinking -> done by the Pipeline goroutine
// that owns it. Any failure moves it to error instead. Both done and error
// are terminal: the Store refuses further updates. Records live in memory
// for the life of the process.
package job

import "time"

// Status is a job lifecycle stage.
type Status string

const (
	StatusReceived     Status = "received"
	StatusTranscribing Status = "transcribing"
	StatusThinking     Status = "thinking"
	StatusDone         Status = "done"
	StatusError        Status = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// validTransition enforces the job state machine edges.
func validTransition(from, to Status) bool {
	switch from {
	case StatusReceived:
		return to == StatusTranscribing || to == StatusError
	case StatusTranscribing:
		return to == StatusThinking || to == StatusError
	case StatusThinking:
		return to == StatusDone || to == StatusError
	default:
		return false
	}
}

// Record is the externally visible state of one job.
type Record struct {
	ID     string `json:"job_id"`
	Status Status `json:"status"`

	// Transcript is the STT output, empty until transcription completes.
	Transcript string `json:"text"`

	// Language is the language reported by the STT backend, if any.
	Language string `json:"language,omitempty"`

	// Response is the sanitized answer, empty until generation completes.
	Response string `json:"response"`

	// Error is set only in StatusError.
	Error string `json:"error,omitempty"`

	// Warning holds the LLM failure cause when Response is the fallback answer.
	Warning string `json:"warning,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
