// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the ghost over a JSON HTTP API. Domain errors
// map 1:1 to client-facing status codes; everything else surfaces as an
// opaque server error with the underlying message.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/revenant/checkpoint"
	"github.com/poiesic/revenant/core"
	"github.com/poiesic/revenant/engine"
	"github.com/poiesic/revenant/storage"
)

// Server handles the HTTP surface of the ghost.
type Server struct {
	engine   *engine.Engine
	manager  *checkpoint.Manager
	messages storage.MessageRepository
	logger   *slog.Logger
}

// NewServer creates a Server over the given engine, checkpoint manager,
// and message log.
func NewServer(ghost *engine.Engine, manager *checkpoint.Manager, messages storage.MessageRepository) *Server {
	return &Server{
		engine:   ghost,
		manager:  manager,
		messages: messages,
		logger:   slog.Default().With("component", "server"),
	}
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/regenerate", s.handleRegenerate)
	mux.HandleFunc("GET /history/{version}", s.handleHistory)
	mux.HandleFunc("POST /checkpoints", s.handleCreateCheckpoint)
	mux.HandleFunc("GET /checkpoints", s.handleListCheckpoints)
	mux.HandleFunc("GET /checkpoints/{version}", s.handleGetCheckpoint)
	mux.HandleFunc("POST /checkpoints/{version}/activate", s.handleActivateCheckpoint)
	mux.HandleFunc("DELETE /checkpoints/{version}", s.handleDeleteCheckpoint)
	mux.HandleFunc("GET /stats/{version}", s.handleStats)

	return mux
}

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", "addr", addr)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        "Revenant",
		"description": "Digital Ghost API",
		"version":     "1.0.0",
	})
}

type chatRequest struct {
	Message           string `json:"message"`
	CheckpointVersion string `json:"checkpoint_version"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var request chatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if request.Message == "" {
		writeError(w, http.StatusBadRequest, core.ErrEmptyContent)
		return
	}

	result, err := s.engine.Generate(r.Context(), request.CheckpointVersion, request.Message)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type regenerateRequest struct {
	CheckpointVersion string   `json:"checkpoint_version"`
	Temperature       *float64 `json:"temperature"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var request regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := s.engine.Regenerate(r.Context(), request.CheckpointVersion, request.Temperature)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type historyEntry struct {
	Role      core.Role `json:"role"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	messages, err := s.messages.RecentMessages(r.Context(), version, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	entries := make([]historyEntry, 0, len(messages))
	for _, message := range messages {
		entries = append(entries, historyEntry{
			Role:      message.Role,
			Content:   message.Content,
			Timestamp: message.Timestamp.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type checkpointCreateRequest struct {
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *Server) handleCreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var request checkpointCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	created, err := s.manager.Create(r.Context(), request.Version, request.Description, request.Config, request.Metadata)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := s.manager.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if checkpoints == nil {
		checkpoints = []*core.Checkpoint{}
	}
	writeJSON(w, http.StatusOK, checkpoints)
}

func (s *Server) handleGetCheckpoint(w http.ResponseWriter, r *http.Request) {
	retrieved, err := s.manager.Get(r.Context(), r.PathValue("version"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, retrieved)
}

func (s *Server) handleActivateCheckpoint(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")
	if err := s.manager.Activate(r.Context(), version); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Checkpoint %s is now active", version),
	})
}

func (s *Server) handleDeleteCheckpoint(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")
	if err := s.manager.Delete(r.Context(), version); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Checkpoint %s deleted", version),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Stats(r.Context(), r.PathValue("version"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeDomainError maps domain errors to status codes. Anything outside
// the taxonomy is a server error.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, core.ErrDuplicateVersion),
		errors.Is(err, core.ErrNoActiveCheckpoint),
		errors.Is(err, core.ErrNoPriorConversation),
		errors.Is(err, core.ErrEmptyVersion),
		errors.Is(err, core.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, core.ErrUpstream):
		s.logger.Error("upstream failure", "err", err)
		writeError(w, http.StatusBadGateway, err)
	default:
		s.logger.Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("error encoding response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
