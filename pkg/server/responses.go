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

	"github.com/kadirpekel/chatguard/pkg/validation"
)

// Response messages.
const (
	msgMethodNotAllowed      = "Method not allowed"
	msgInvalidJSON           = "Invalid JSON body"
	msgUpstreamNotConfigured = "Upstream not configured"
	msgInvalidChipFormat     = "Invalid format"
)

// ErrorResponse is the body of 4xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ChatResponse is the body of /api/chat responses.
type ChatResponse struct {
	Messages []string `json:"messages"`
	Success  bool     `json:"success,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ChipsResponse is the body of /api/generate-chips responses.
type ChipsResponse struct {
	Chips   []string `json:"chips"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}

// ResetResponse is the body of DELETE /api/ratelimit/{identifier}.
type ResetResponse struct {
	Identifier string `json:"identifier"`
	Reset      bool   `json:"reset"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	RateLimiting   bool   `json:"rate_limiting"`
	TrackedClients int    `json:"tracked_clients"`
	ChatUpstream   bool   `json:"chat_upstream"`
	ChipsUpstream  bool   `json:"chips_upstream"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, err *validation.Error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Message, Code: string(err.Code)})
}
