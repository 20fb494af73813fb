// Package transport defines the interface for pluggable API surfaces.
//
// Each transport (HTTP, gRPC, MCP) exposes the same Service to clients. The
// service does not care how requests arrive; it only works with the
// Transport contract.
package transport

import (
	"context"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
)

// Service is what transports call into. *dispatch.Service implements it.
type Service interface {
	// Submit starts a background job and returns its ID.
	Submit(up job.Upload) string

	// Status returns a job record or an error wrapping job.ErrNotFound.
	Status(id string) (job.Record, error)

	// Jobs lists every job with aggregate counts.
	Jobs() dispatch.JobList

	// Events returns job events newer than since.
	Events(since int64) []job.Event

	// Ask answers a text question synchronously.
	Ask(ctx context.Context, question string) (dispatch.Answer, error)

	// Action has the robot announce a manual action.
	Action(ctx context.Context, action string) error

	// Echo answers a connectivity check.
	Echo(message string) string
}

var _ Service = (*dispatch.Service)(nil)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and serves them from svc.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight requests.
	Close() error
}
