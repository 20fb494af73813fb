// Package grpc implements the gRPC transport for mistyd.
//
// The misty.v1.Assistant service is described by hand rather than generated
// from a .proto file. Messages travel as JSON using the "json" content
// subtype (application/grpc+json), so any gRPC client that sets the subtype
// can call it. The standard grpc.health.v1 service is served alongside and
// mirrors daemon readiness.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "misty.v1.Assistant"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals messages as JSON.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

// SubmitRequest carries one audio recording.
type SubmitRequest struct {
	Audio       []byte `json:"audio"`
	ContentType string `json:"content_type"`
}

// SubmitResponse acknowledges an accepted recording.
type SubmitResponse struct {
	JobID  string     `json:"job_id"`
	Status job.Status `json:"status"`
}

// StatusRequest names a job.
type StatusRequest struct {
	JobID string `json:"job_id"`
}

// JobsRequest is empty.
type JobsRequest struct{}

// EventsRequest asks for events newer than Since.
type EventsRequest struct {
	Since int64 `json:"since"`
}

// EventsResponse lists job events.
type EventsResponse struct {
	Events []job.Event `json:"events"`
}

// AskRequest carries a text question.
type AskRequest struct {
	Question string `json:"question"`
}

// ActionRequest names a manual robot action.
type ActionRequest struct {
	Action string `json:"action"`
}

// ActionResponse acknowledges a performed action.
type ActionResponse struct {
	Status string `json:"status"`
}

// AssistantServer is the server API for misty.v1.Assistant.
type AssistantServer interface {
	Submit(context.Context, *SubmitRequest) (*SubmitResponse, error)
	Status(context.Context, *StatusRequest) (*job.Record, error)
	Jobs(context.Context, *JobsRequest) (*dispatch.JobList, error)
	Events(context.Context, *EventsRequest) (*EventsResponse, error)
	Ask(context.Context, *AskRequest) (*dispatch.Answer, error)
	Action(context.Context, *ActionRequest) (*ActionResponse, error)
}

func unary[Req, Resp any](name string, call func(AssistantServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AssistantServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AssistantServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var assistantServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Submit", AssistantServer.Submit),
		unary("Status", AssistantServer.Status),
		unary("Jobs", AssistantServer.Jobs),
		unary("Events", AssistantServer.Events),
		unary("Ask", AssistantServer.Ask),
		unary("Action", AssistantServer.Action),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "misty/v1/assistant",
}

// server adapts a transport.Service to AssistantServer.
type server struct {
	svc transport.Service
}

func (s *server) Submit(_ context.Context, in *SubmitRequest) (*SubmitResponse, error) {
	if len(in.Audio) == 0 {
		return nil, status.Error(codes.InvalidArgument, "no audio provided")
	}
	id := s.svc.Submit(job.Upload{Audio: in.Audio, ContentType: in.ContentType})
	return &SubmitResponse{JobID: id, Status: job.StatusReceived}, nil
}

func (s *server) Status(_ context.Context, in *StatusRequest) (*job.Record, error) {
	rec, err := s.svc.Status(in.JobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "Job not found")
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &rec, nil
}

func (s *server) Jobs(context.Context, *JobsRequest) (*dispatch.JobList, error) {
	list := s.svc.Jobs()
	return &list, nil
}

func (s *server) Events(_ context.Context, in *EventsRequest) (*EventsResponse, error) {
	return &EventsResponse{Events: s.svc.Events(in.Since)}, nil
}

func (s *server) Ask(ctx context.Context, in *AskRequest) (*dispatch.Answer, error) {
	ans, err := s.svc.Ask(ctx, in.Question)
	if err != nil {
		if errors.Is(err, dispatch.ErrEmptyQuestion) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &ans, nil
}

func (s *server) Action(ctx context.Context, in *ActionRequest) (*ActionResponse, error) {
	if err := s.svc.Action(ctx, in.Action); err != nil {
		if errors.Is(err, dispatch.ErrNoAction) {
			return nil, status.Error(codes.InvalidArgument, "No action provided")
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &ActionResponse{Status: "ok"}, nil
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	health *health.Server

	mu     sync.Mutex
	server *grpc.Server
}

// New creates a new gRPC transport from config.
func New(cfg config.GRPCConfig) *Transport {
	return &Transport{port: cfg.Port, health: health.NewServer()}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// SetServing flips the health status reported for the service and the server.
func (t *Transport) SetServing(ready bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		st = healthpb.HealthCheckResponse_SERVING
	}
	t.health.SetServingStatus("", st)
	t.health.SetServingStatus(ServiceName, st)
}

// Listen starts the gRPC server and serves requests from svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, svc)
}

// Serve serves svc on an existing listener until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, svc transport.Service) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	srv.RegisterService(&assistantServiceDesc, &server{svc: svc})
	healthpb.RegisterHealthServer(srv, t.health)

	t.mu.Lock()
	t.server = srv
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.mu.Lock()
	srv := t.server
	t.mu.Unlock()
	if srv != nil {
		srv.GracefulStop()
	}
	return nil
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

// Client calls misty.v1.Assistant over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.CallContentSubtype("json"))
}

// Submit uploads audio and returns the job acknowledgement.
func (c *Client) Submit(ctx context.Context, in *SubmitRequest) (*SubmitResponse, error) {
	out := new(SubmitResponse)
	return out, c.invoke(ctx, "Submit", in, out)
}

// Status fetches a job record.
func (c *Client) Status(ctx context.Context, in *StatusRequest) (*job.Record, error) {
	out := new(job.Record)
	return out, c.invoke(ctx, "Status", in, out)
}

// Jobs lists every job.
func (c *Client) Jobs(ctx context.Context) (*dispatch.JobList, error) {
	out := new(dispatch.JobList)
	return out, c.invoke(ctx, "Jobs", &JobsRequest{}, out)
}

// Events fetches events newer than since.
func (c *Client) Events(ctx context.Context, since int64) (*EventsResponse, error) {
	out := new(EventsResponse)
	return out, c.invoke(ctx, "Events", &EventsRequest{Since: since}, out)
}

// Ask answers a text question.
func (c *Client) Ask(ctx context.Context, in *AskRequest) (*dispatch.Answer, error) {
	out := new(dispatch.Answer)
	return out, c.invoke(ctx, "Ask", in, out)
}

// Action performs a manual robot action.
func (c *Client) Action(ctx context.Context, in *ActionRequest) (*ActionResponse, error) {
	out := new(ActionResponse)
	return out, c.invoke(ctx, "Action", in, out)
}
