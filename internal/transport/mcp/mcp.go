// Package mcp exposes the assistant as Model Context Protocol tools, so LLM
// agents can ask questions, inspect jobs and trigger robot actions.
//
// The same server is reachable over stdio (mistyd mcp) and over streamable
// HTTP, mounted at /mcp by the HTTP transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport"
)

// Server wraps an MCP server whose tools call into a transport.Service.
type Server struct {
	server *mcp.Server
	svc    transport.Service
}

// AskInput is the argument of the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question; phrases like 'with example' or 'table format' shape the answer"`
}

// AskOutput is the result of the ask tool.
type AskOutput struct {
	Response   string   `json:"response"`
	Directives []string `json:"directives"`
	Fallback   bool     `json:"fallback"`
}

// JobStatusInput is the argument of the job_status tool.
type JobStatusInput struct {
	JobID string `json:"job_id" jsonschema:"job ID returned by POST /stt"`
}

// JobView is a job record as reported to MCP clients.
type JobView struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Text      string `json:"text"`
	Response  string `json:"response"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// ListJobsInput is the (empty) argument of the list_jobs tool.
type ListJobsInput struct{}

// ListJobsOutput is the result of the list_jobs tool.
type ListJobsOutput struct {
	Total int       `json:"total"`
	Done  int       `json:"done"`
	Error int       `json:"error"`
	Jobs  []JobView `json:"jobs"`
}

// ActionInput is the argument of the perform_action tool.
type ActionInput struct {
	Action string `json:"action" jsonschema:"name of the action the robot should announce"`
}

// ActionOutput is the result of the perform_action tool.
type ActionOutput struct {
	Status string `json:"status"`
}

// New builds the MCP server and registers its tools.
func New(svc transport.Service, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "mistyd", Version: version}, nil),
		svc:    svc,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask Misty a question and get a cleaned, length-capped answer.",
	}, s.ask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Get the status, transcript and answer of a voice job.",
	}, s.jobStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_jobs",
		Description: "List every voice job in submission order with status counts.",
	}, s.listJobs)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "perform_action",
		Description: "Have the robot announce that it is performing an action.",
	}, s.performAction)
	return s
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server { return s.server }

// Handler serves the MCP streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// RunStdio serves a single client over stdin/stdout until ctx is cancelled
// or the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	slog.Info("mcp server running on stdio")
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

func (s *Server) ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	ans, err := s.svc.Ask(ctx, in.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	out := AskOutput{Response: ans.Response, Directives: ans.Directives, Fallback: ans.Fallback}
	return nil, out, nil
}

func (s *Server) jobStatus(_ context.Context, _ *mcp.CallToolRequest, in JobStatusInput) (*mcp.CallToolResult, JobView, error) {
	rec, err := s.svc.Status(in.JobID)
	if err != nil {
		return nil, JobView{}, err
	}
	return nil, viewOf(rec), nil
}

func (s *Server) listJobs(context.Context, *mcp.CallToolRequest, ListJobsInput) (*mcp.CallToolResult, ListJobsOutput, error) {
	list := s.svc.Jobs()
	out := ListJobsOutput{
		Total: list.Summary.Total,
		Done:  list.Summary.Done,
		Error: list.Summary.Error,
		Jobs:  make([]JobView, 0, len(list.Jobs)),
	}
	for _, rec := range list.Jobs {
		out.Jobs = append(out.Jobs, viewOf(rec))
	}
	return nil, out, nil
}

func (s *Server) performAction(ctx context.Context, _ *mcp.CallToolRequest, in ActionInput) (*mcp.CallToolResult, ActionOutput, error) {
	if err := s.svc.Action(ctx, in.Action); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{Status: "ok"}, nil
}

func viewOf(rec job.Record) JobView {
	return JobView{
		JobID:     rec.ID,
		Status:    string(rec.Status),
		Text:      rec.Transcript,
		Response:  rec.Response,
		Error:     rec.Error,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}
