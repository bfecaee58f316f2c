// Copyright 2025 Kadir Pekel
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

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/chatguard/pkg/stats"
	"github.com/kadirpekel/chatguard/pkg/upstream"
	"github.com/kadirpekel/chatguard/pkg/validation"
)

// Personas understood by the upstream.
const (
	PersonaDev       = "dev"
	PersonaRecruiter = "recruiter"
)

// chatRequest keeps fields untyped so that the validator sees exactly what
// the client sent.
type chatRequest struct {
	Message             any `json:"message"`
	ConversationHistory any `json:"conversationHistory"`
	Persona             any `json:"persona"`
}

type chipsRequest struct {
	Prompt any `json:"prompt"`
}

// normalizePersona maps anything other than "dev" to the recruiter persona.
func normalizePersona(p any) string {
	if s, ok := p.(string); ok && s == PersonaDev {
		return PersonaDev
	}
	return PersonaRecruiter
}

// recentHistory keeps the last n entries.
func recentHistory(h []validation.HistoryEntry, n int) []validation.HistoryEntry {
	if n <= 0 || len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// decode reads a JSON body bounded by max_body_bytes.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Load().Server.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		slog.Debug("Rejected request body", "path", r.URL.Path, "error", err)
		s.reject(w, r, &validation.Error{Code: validation.CodeInvalidType, Message: msgInvalidJSON})
		return false
	}
	return true
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, err *validation.Error) {
	s.record(r, stats.InvalidOutcome(string(err.Code)))
	slog.Debug("Request failed validation",
		"path", r.URL.Path,
		"field", err.Field,
		"code", err.Code,
		"pattern", err.Pattern,
		"request_id", RequestIDFromContext(r.Context()))
	writeValidationError(w, err)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	v := s.validator.Load()
	msg := v.ValidateMessage(req.Message)
	if !msg.Valid {
		s.reject(w, r, msg.Err)
		return
	}
	history := v.ValidateConversationHistory(req.ConversationHistory)
	if !history.Valid {
		s.reject(w, r, history.Err)
		return
	}

	cfg := s.cfg.Load()
	fallback := cfg.Upstream.FallbackMessages
	client := s.upstream.Load()
	if !client.HasChat() {
		s.record(r, stats.OutcomeUpstreamError)
		writeJSON(w, http.StatusInternalServerError, ChatResponse{
			Error:    msgUpstreamNotConfigured,
			Fallback: true,
			Messages: fallback,
		})
		return
	}

	text, err := client.Chat(r.Context(), upstream.ChatRequest{
		Message: msg.Sanitized,
		History: recentHistory(history.Sanitized, cfg.Upstream.HistoryWindow),
		Persona: normalizePersona(req.Persona),
	})
	if err != nil {
		s.upstreamFailed(r, err)
		writeJSON(w, http.StatusBadGateway, ChatResponse{
			Error:    err.Error(),
			Fallback: true,
			Messages: fallback,
		})
		return
	}

	s.record(r, stats.OutcomeForwarded)
	writeJSON(w, http.StatusOK, ChatResponse{
		Messages: upstream.SplitMessages(text),
		Success:  true,
	})
}

func (s *Server) handleChips(w http.ResponseWriter, r *http.Request) {
	var req chipsRequest
	if !s.decode(w, r, &req) {
		return
	}

	prompt := s.validator.Load().ValidatePrompt(req.Prompt)
	if !prompt.Valid {
		s.reject(w, r, prompt.Err)
		return
	}

	client := s.upstream.Load()
	if !client.HasChips() {
		s.record(r, stats.OutcomeUpstreamError)
		writeJSON(w, http.StatusInternalServerError, ChipsResponse{
			Chips: []string{},
			Error: msgUpstreamNotConfigured,
		})
		return
	}

	text, err := client.Chips(r.Context(), prompt.Sanitized)
	if err != nil {
		s.upstreamFailed(r, err)
		writeJSON(w, http.StatusBadGateway, ChipsResponse{
			Chips: []string{},
			Error: err.Error(),
		})
		return
	}

	s.record(r, stats.OutcomeForwarded)
	chips, ok := upstream.ParseChips(text)
	if !ok {
		slog.Warn("Upstream returned invalid chip format", "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusOK, ChipsResponse{Chips: []string{}, Error: msgInvalidChipFormat})
		return
	}
	writeJSON(w, http.StatusOK, ChipsResponse{Chips: chips, Success: true})
}

func (s *Server) upstreamFailed(r *http.Request, err error) {
	s.record(r, stats.OutcomeUpstreamError)
	slog.Error("Upstream call failed",
		"path", r.URL.Path,
		"status", upstream.StatusCode(err),
		"error", err,
		"request_id", RequestIDFromContext(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	client := s.upstream.Load()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		RateLimiting:   s.limitOn.Load(),
		TrackedClients: s.limiter.Size(),
		ChatUpstream:   client.HasChat(),
		ChipsUpstream:  client.HasChips(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Snapshot(r.Context())
	if err != nil {
		slog.Error("Failed to read stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	identifier, err := url.PathUnescape(chi.URLParam(r, "identifier"))
	if err != nil || identifier == "" {
		writeError(w, http.StatusBadRequest, "Invalid identifier")
		return
	}

	reset := s.limiter.Reset(identifier)
	slog.Info("Rate limit reset", "identifier", identifier, "found", reset)
	writeJSON(w, http.StatusOK, ResetResponse{Identifier: identifier, Reset: reset})
}
