// Package http implements the HTTP transport for mistyd.
//
// This transport exposes the REST API used by the browser frontend and the
// robot: audio submission, job polling, synchronous text questions and manual
// robot actions. The MCP streamable-HTTP endpoint can be mounted alongside it.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/Aditya-Sinha-7981/Misty-Webapp/docs" // registers the OpenAPI document
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/dispatch"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/job"
	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/transport"
)

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port      int
	maxUpload int64
	mcp       http.Handler

	mu     sync.Mutex
	server *http.Server
}

// Option configures a Transport.
type Option func(*Transport)

// WithMCP mounts h at /mcp.
func WithMCP(h http.Handler) Option {
	return func(t *Transport) { t.mcp = h }
}

// New creates a new HTTP transport from config.
func New(cfg config.HTTPConfig, opts ...Option) *Transport {
	t := &Transport{port: cfg.Port, maxUpload: cfg.MaxUploadBytes}
	if t.maxUpload <= 0 {
		t.maxUpload = 25 << 20
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the routed, CORS-enabled handler serving svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	h := &handlers{svc: svc, maxUpload: t.maxUpload}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /stt", h.submit)
	mux.HandleFunc("GET /status/{id}", h.status)
	mux.HandleFunc("GET /jobs", h.jobs)
	mux.HandleFunc("GET /events", h.events)
	mux.HandleFunc("POST /ask", h.ask)
	mux.HandleFunc("POST /test", h.echo)
	mux.HandleFunc("POST /action", h.action)

	// Swagger UI: serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if t.mcp != nil {
		mux.Handle("/mcp", t.mcp)
	}
	return withCORS(mux)
}

// Listen starts the HTTP server and serves requests from svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	t.server = srv
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port, "mcp", t.mcp != nil)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	t.mu.Lock()
	srv := t.server
	t.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// SubmitResponse acknowledges an accepted upload.
type SubmitResponse struct {
	JobID  string     `json:"job_id" example:"6f1c2a4e-8a1b-4f5e-9d2c-3b7a1e0c9f42"`
	Status job.Status `json:"status" example:"received"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   bool   `json:"error" example:"true"`
	Message string `json:"message" example:"Job not found"`
}

// AskRequest carries a text question.
type AskRequest struct {
	Question string `json:"question" example:"explain recursion with example"`
}

// EchoRequest is the connectivity-check payload.
type EchoRequest struct {
	Message string `json:"message" example:"hello"`
}

// EchoResponse is the connectivity-check reply.
type EchoResponse struct {
	Reply string `json:"reply" example:"Server received: hello"`
}

// ActionRequest names a manual robot action.
type ActionRequest struct {
	Action string `json:"action" example:"wave"`
}

// ActionResponse acknowledges a performed action.
type ActionResponse struct {
	Status string `json:"status" example:"ok"`
}

var (
	errNoAudio    = errors.New("no audio file provided")
	errEmptyAudio = errors.New("audio file is empty")
)

type handlers struct {
	svc       transport.Service
	maxUpload int64
}

// submit handles POST /stt.
//
// @Summary     Submit audio for transcription and answering
// @Description Accepts a multipart form with the recording in field "file", or the raw audio bytes
// @Description as the request body. Processing runs in the background; poll /status/{id} for the result.
// @Tags        jobs
// @Accept      multipart/form-data
// @Accept      audio/wav
// @Accept      audio/ogg
// @Produce     json
// @Param       file  formData  file  false  "Audio recording"
// @Success     200  {object}  SubmitResponse
// @Failure     400  {object}  ErrorResponse  "Missing or empty audio"
// @Failure     413  {object}  ErrorResponse  "Upload too large"
// @Router      /stt [post]
func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	up, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := h.svc.Submit(up)
	writeJSON(w, http.StatusOK, SubmitResponse{JobID: id, Status: job.StatusReceived})
}

func readUpload(r *http.Request) (job.Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return job.Upload{}, err
			}
			return job.Upload{}, errNoAudio
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return job.Upload{}, err
		}
		if len(data) == 0 {
			return job.Upload{}, errEmptyAudio
		}
		return job.Upload{Audio: data, ContentType: hdr.Header.Get("Content-Type")}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return job.Upload{}, err
	}
	if len(data) == 0 {
		return job.Upload{}, errNoAudio
	}
	return job.Upload{Audio: data, ContentType: mediaType}, nil
}

// status handles GET /status/{id}.
//
// @Summary     Get a job
// @Description Returns the job record. Poll until status is "done" or "error".
// @Tags        jobs
// @Produce     json
// @Param       id   path      string  true  "Job ID"
// @Success     200  {object}  job.Record
// @Failure     404  {object}  ErrorResponse  "Job not found"
// @Router      /status/{id} [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Status(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// jobs handles GET /jobs.
//
// @Summary     List jobs
// @Tags        jobs
// @Produce     json
// @Success     200  {object}  dispatch.JobList
// @Router      /jobs [get]
func (h *handlers) jobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Jobs())
}

// events handles GET /events.
//
// @Summary     Poll job events
// @Description Returns buffered job events with a sequence number greater than "since".
// @Tags        jobs
// @Produce     json
// @Param       since  query     int  false  "Last sequence number seen"
// @Success     200    {array}   job.Event
// @Failure     400    {object}  ErrorResponse
// @Router      /events [get]
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, h.svc.Events(since))
}

// ask handles POST /ask.
//
// @Summary     Ask a text question
// @Description Runs the question through the prompt engine synchronously, skipping speech-to-text.
// @Tags        assistant
// @Accept      json
// @Produce     json
// @Param       request  body      AskRequest  true  "Question"
// @Success     200      {object}  dispatch.Answer
// @Failure     400      {object}  ErrorResponse
// @Router      /ask [post]
func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	ans, err := h.svc.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, dispatch.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "no question provided")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// echo handles POST /test.
//
// @Summary     Connectivity check
// @Tags        assistant
// @Accept      json
// @Produce     json
// @Param       request  body      EchoRequest  true  "Message"
// @Success     200      {object}  EchoResponse
// @Router      /test [post]
func (h *handlers) echo(w http.ResponseWriter, r *http.Request) {
	var req EchoRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	writeJSON(w, http.StatusOK, EchoResponse{Reply: h.svc.Echo(req.Message)})
}

// action handles POST /action.
//
// @Summary     Perform a manual robot action
// @Description The robot announces "Performing <action>".
// @Tags        robot
// @Accept      json
// @Produce     json
// @Param       request  body      ActionRequest  true  "Action"
// @Success     200      {object}  ActionResponse
// @Failure     400      {object}  ErrorResponse  "No action provided"
// @Router      /action [post]
func (h *handlers) action(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := h.svc.Action(r.Context(), req.Action); err != nil {
		if errors.Is(err, dispatch.ErrNoAction) {
			writeError(w, http.StatusBadRequest, "No action provided")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{Status: "ok"})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: true, Message: strings.TrimSpace(msg)})
}
