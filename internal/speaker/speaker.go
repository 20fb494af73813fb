// Package speaker sends text to the robot so it can say it out loud.
//
// Speech is best-effort: callers log failures and carry on.
package speaker

import "context"

// Speaker makes the robot say a piece of text.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Nop discards everything. It is used when speech output is disabled.
type Nop struct{}

// Speak does nothing.
func (Nop) Speak(context.Context, string) error { return nil }
