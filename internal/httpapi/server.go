// Package httpapi serves dashboards and milestone edits over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/alexanderramin/pathways/internal/llm"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/service"
)

// maxRequestBodySize limits POST bodies.
const maxRequestBodySize = 1 << 20

const defaultSearchLimit = 10

// Deps are the use cases behind the routes. Assistant and Metrics are
// optional.
type Deps struct {
	Dashboard  service.DashboardService
	Milestones service.MilestoneService
	Pathways   service.PathwayService
	Assistant  intelligence.AssistantService
	Metrics    http.Handler
	Logger     *slog.Logger
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		s.mux.Handle("GET /metrics", s.deps.Metrics)
	}

	s.mux.HandleFunc("GET /v1/pathways", s.handleListPathways)
	s.mux.HandleFunc("GET /v1/pathways/search", s.handleSearchPathways)

	s.mux.HandleFunc("GET /v1/users/{user}/dashboard", s.handleDashboard)
	s.mux.HandleFunc("POST /v1/users/{user}/milestones/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /v1/users/{user}/milestones/hide", s.handleVisibility(s.deps.Milestones.Hide))
	s.mux.HandleFunc("POST /v1/users/{user}/milestones/unhide", s.handleVisibility(s.deps.Milestones.Unhide))
	s.mux.HandleFunc("POST /v1/users/{user}/milestones/unhide-all", s.handleVisibility(s.deps.Milestones.UnhideAll))
	s.mux.HandleFunc("POST /v1/users/{user}/milestones/rename", s.handleRename)
	s.mux.HandleFunc("POST /v1/users/{user}/milestones/reorder", s.handleReorder)
	s.mux.HandleFunc("POST /v1/users/{user}/custom-milestones", s.handleAddCustom)
	s.mux.HandleFunc("DELETE /v1/users/{user}/custom-milestones/{id}", s.handleDeleteCustom)

	if s.deps.Assistant != nil {
		s.mux.HandleFunc("POST /v1/users/{user}/assistant", s.handleAssistant)
	}
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.deps.Logger.Info("http_listen", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPathways(w http.ResponseWriter, r *http.Request) {
	pathways, err := s.deps.Pathways.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pathways": pathways})
}

func (s *Server) handleSearchPathways(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", service.ErrValidation))
			return
		}
		limit = n
	}
	resp, err := s.deps.Pathways.Search(r.Context(), q, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	req := contract.NewDashboardRequest(r.PathValue("user"))
	req.PathwayID = r.URL.Query().Get("pathway_id")
	resp, err := s.deps.Dashboard.Load(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req contract.ToggleRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.UserID = r.PathValue("user")
	res, err := s.deps.Milestones.Toggle(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVisibility(fn func(context.Context, contract.VisibilityRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contract.VisibilityRequest
		if !s.decode(w, r, &req) {
			return
		}
		req.UserID = r.PathValue("user")
		if err := fn(r.Context(), req); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req contract.RenameRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.UserID = r.PathValue("user")
	if err := s.deps.Milestones.Rename(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req contract.ReorderRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.UserID = r.PathValue("user")
	if err := s.deps.Milestones.Reorder(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCustom(w http.ResponseWriter, r *http.Request) {
	var req contract.AddCustomRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.UserID = r.PathValue("user")
	cm, err := s.deps.Milestones.AddCustom(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cm)
}

func (s *Server) handleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Milestones.DeleteCustom(r.Context(), contract.DeleteCustomRequest{
		UserID:   r.PathValue("user"),
		CustomID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decoding body: %v", service.ErrValidation, err))
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP statuses and error codes.
func statusFor(err error) (int, contract.ErrorCode) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, contract.ErrCodeValidation
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, contract.ErrCodeNotFound
	case errors.Is(err, service.ErrBusy):
		return http.StatusConflict, contract.ErrCodeBusy
	case errors.Is(err, progress.ErrCrossCategory):
		return http.StatusConflict, contract.ErrCodeCrossCategory
	case errors.Is(err, service.ErrRemoteWrite):
		return http.StatusBadGateway, contract.ErrCodeRemoteWrite
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, contract.ErrCodeRemoteWrite
	default:
		return http.StatusInternalServerError, contract.ErrCodeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.deps.Logger.ErrorContext(r.Context(), "http_error", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, &contract.Error{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// AssistantRequest is the body of POST /v1/users/{user}/assistant.
type AssistantRequest struct {
	PathwayID string        `json:"pathway_id"`
	Question  string        `json:"question"`
	History   []llm.Message `json:"history,omitempty"`
}

// handleAssistant relays the model's answer as server-sent events: one
// "delta" event per fragment, then "done" with the full text, or "error"
// with a user-facing message.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req AssistantRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.PathwayID == "" || strings.TrimSpace(req.Question) == "" {
		s.writeError(w, r, fmt.Errorf("%w: pathway_id and question are required", service.ErrValidation))
		return
	}

	dash := contract.NewDashboardRequest(r.PathValue("user"))
	dash.PathwayID = req.PathwayID
	resp, err := s.deps.Dashboard.Load(r.Context(), dash)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	card := resp.Card(req.PathwayID)
	if card == nil {
		s.writeError(w, r, fmt.Errorf("%w: pathway %s", service.ErrNotFound, req.PathwayID))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, &contract.Error{Code: contract.ErrCodeInternal, Message: "streaming not supported"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	answer, err := s.deps.Assistant.Chat(r.Context(), intelligence.ChatRequest{
		Card:     *card,
		History:  req.History,
		Question: req.Question,
	}, func(delta string) {
		sendSSEEvent(w, flusher, "delta", map[string]string{"text": delta})
	})
	if err != nil {
		s.deps.Logger.WarnContext(r.Context(), "assistant_failed", "user_id", dash.UserID, "error_code", llm.ErrorCode(err), "error", err)
		sendSSEEvent(w, flusher, "error", map[string]string{"code": llm.ErrorCode(err), "message": intelligence.UserMessage(err)})
		return
	}
	sendSSEEvent(w, flusher, "done", answer)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
