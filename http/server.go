// Package http exposes the scraping pipeline over a small JSON API with
// a server-sent-events progress stream per run.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ChallX/gamedex"
	"github.com/ChallX/gamedex/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Runner starts pipeline runs. *pipeline.Pipeline satisfies it; tests
// substitute a stub.
type Runner interface {
	Run(ctx context.Context, url, correlationID string) (*gamedex.GameRecord, error)
}

// Server is the HTTP front end.
type Server struct {
	Runner  Runner
	Broker  *pipeline.Broker
	Records gamedex.RecordService
	Session gamedex.SessionManager
	Logger  *slog.Logger

	// Site restricts scrape requests to one forum domain when set.
	Site string

	Addr string

	server *http.Server
}

// scrapeRequest is the POST /api/scrape payload.
type scrapeRequest struct {
	URL           string `json:"url"`
	CorrelationID string `json:"correlationId"`
}

// scrapeResponse acknowledges an accepted run.
type scrapeResponse struct {
	CorrelationID string `json:"correlationId"`
}

// statusResponse is the GET /api/status payload.
type statusResponse struct {
	Session gamedex.SessionStatus `json:"session"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/scrape", s.handleScrape)
	r.Get("/api/progress/{id}", s.handleProgress)
	r.Get("/api/records", s.handleRecords)
	r.Get("/api/status", s.handleStatus)

	return r
}

// Open starts listening. It returns once the listener is bound; requests
// are then served in the background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr, err)
	}

	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger().Error("http server", "err", err)
		}
	}()
	s.logger().Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Close shuts the server down gracefully.
func (s *Server) Close(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleScrape accepts a run and starts it in the background. The
// response carries the correlation ID for the progress stream.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, gamedex.Errorf(gamedex.EINVALID, "malformed request body"))
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, gamedex.Errorf(gamedex.EINVALID, "url is required"))
		return
	}
	// Reject bad URLs synchronously; the caller gets a 400 instead of an
	// accepted run that can only fail.
	if s.Site != "" {
		if err := gamedex.ValidateTargetURL(req.URL, s.Site); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	// The run outlives the request; progress flows through the broker.
	go func() {
		ctx := context.Background()
		if _, err := s.Runner.Run(ctx, req.URL, req.CorrelationID); err != nil {
			s.logger().Warn("scrape run failed",
				"url", req.URL,
				"correlation_id", req.CorrelationID,
				"code", gamedex.ErrorCode(err))
		}
	}()

	s.writeJSON(w, http.StatusAccepted, scrapeResponse{CorrelationID: req.CorrelationID})
}

// handleProgress streams a run's progress events as server-sent events
// until the stream closes or the client disconnects.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, gamedex.Errorf(gamedex.EINVALID, "correlation id is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, gamedex.Errorf(gamedex.EINTERNAL, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, cancel := s.Broker.Subscribe(id)
	defer cancel()

	writeSSE(w, gamedex.ProgressEvent{Status: gamedex.ProgressConnected, Message: "Connected"})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			writeSSE(w, event)
			flusher.Flush()
			if event.Status == gamedex.ProgressCompleted || event.Status == gamedex.ProgressError {
				return
			}
		}
	}
}

// handleRecords lists persisted records, optionally filtered by source URL.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	filter := gamedex.RecordFilter{}
	if v := r.URL.Query().Get("sourceUrl"); v != "" {
		filter.SourceURL = &v
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &filter.Limit)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		fmt.Sscanf(v, "%d", &filter.Offset)
	}

	records, err := s.Records.FindRecords(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*gamedex.GameRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleStatus reports the session state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := gamedex.SessionNotConfigured
	if s.Session != nil {
		status = s.Session.Status(r.Context())
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Session: status})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger().Warn("encoding response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{
		Error: gamedex.ErrorMessage(err),
		Hint:  gamedex.ErrorHint(err),
	})
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// writeSSE writes one event in SSE framing with a JSON data payload.
func writeSSE(w http.ResponseWriter, event gamedex.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
