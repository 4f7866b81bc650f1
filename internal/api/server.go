// Package api exposes the assistant over a small JSON HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tsaristov/boop-final-prototype/internal/forge"
	"github.com/tsaristov/boop-final-prototype/internal/intent"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/runner"
)

// Server hosts the HTTP surface. All handlers answer JSON and map
// internal failures onto status+message payloads.
type Server struct {
	dispatcher *intent.Dispatcher
	pipeline   *forge.Pipeline
	runner     *runner.Runner
	cache      *intent.ListCache
	httpServer *http.Server
}

func NewServer(addr string, dispatcher *intent.Dispatcher, pipeline *forge.Pipeline, run *runner.Runner, cache *intent.ListCache) *Server {
	s := &Server{
		dispatcher: dispatcher,
		pipeline:   pipeline,
		runner:     run,
		cache:      cache,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /message", s.handleMessage)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /tools/create", s.handleCreateTool)
	mux.HandleFunc("POST /tools/run", s.handleRunTool)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	logging.API("listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		// Anonymous callers still get a distinct memory thread.
		req.UserID = "web:" + uuid.NewString()
	}

	reply := s.dispatcher.HandleMessage(r.Context(), req.UserID, req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.cache.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type toolPayload struct {
		Name      string   `json:"name"`
		Summary   string   `json:"summary"`
		Functions []string `json:"functions"`
	}
	payload := make([]toolPayload, len(tools))
	for i, t := range tools {
		p := toolPayload{Name: t.Name, Summary: t.Summary}
		for _, f := range t.Functions {
			p.Functions = append(p.Functions, f.Name)
		}
		payload[i] = p
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": payload})
}

func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Details string `json:"details"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	outcome := s.pipeline.CreateTool(r.Context(), req.Name, req.Details)
	s.cache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"outcome": outcome})
}

func (s *Server) handleRunTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Instruction string `json:"instruction"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := s.runner.Run(r.Context(), req.Name, req.Instruction)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]string{"result": result})
		return
	}

	var unresolved *runner.UnresolvedArgsError
	switch {
	case errors.Is(err, runner.ErrToolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unresolved):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "arguments unresolved",
			"missing": unresolved.Params,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.API("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
