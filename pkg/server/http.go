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
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kadirpekel/chatguard/pkg/auth"
	"github.com/kadirpekel/chatguard/pkg/ratelimit"
	"github.com/kadirpekel/chatguard/pkg/stats"
)

// Route paths.
const (
	PathChat      = "/api/chat"
	PathChips     = "/api/generate-chips"
	PathStats     = "/api/stats"
	PathReset     = "/api/ratelimit/{identifier}"
	PathHealth    = "/health"
	RequestHeader = "X-Request-ID"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID assigned by the server.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) routes() http.Handler {
	cfg := s.cfg.Load()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.obs.Middleware())
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)

	methodNotAllowed := func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
	r.MethodNotAllowed(methodNotAllowed)

	r.Get(PathHealth, s.handleHealth)

	if s.obs.MetricsEnabled() {
		r.Method(http.MethodGet, s.obs.MetricsPath(), s.obs.MetricsHandler())
		slog.Info("Metrics endpoint enabled", "path", s.obs.MetricsPath())
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.tokens, cfg.Auth.IsRequired()))

		guard := s.rateLimitMiddleware()
		r.With(guard).Post(PathChat, s.handleChat)
		r.Options(PathChat, handlePreflight)
		r.With(guard).Post(PathChips, s.handleChips)
		r.Options(PathChips, handlePreflight)

		r.Group(func(r chi.Router) {
			if s.tokens != nil {
				r.Use(auth.RequireAuth)
			}
			if cfg.Stats.Expose {
				r.Get(PathStats, s.handleStats)
			}
			// Operator reset, only served behind a token validator.
			if s.tokens != nil {
				r.Delete(PathReset, s.handleReset)
			}
		})
	})

	return r
}

// requestID propagates or assigns X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.Load().Server.AllowedOrigin
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// identify returns the rate-limit identifier: the token subject when
// authenticated, else the configured header or the client address.
func (s *Server) identify(r *http.Request) string {
	fallback := ratelimit.IdentifierFrom(s.cfg.Load().RateLimiting)
	return auth.Identifier(fallback)(r)
}

// rateLimitMiddleware enforces the fixed-window limit while rate limiting
// is enabled. Toggling the setting or the excluded paths on reload takes
// effect immediately.
func (s *Server) rateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := ratelimit.Middleware(ratelimit.MiddlewareConfig{
			Limiter:        s.limiter,
			IdentifierFunc: s.identify,
			Clock:          s.clock,
			OnDecision: func(r *http.Request, identifier string, d ratelimit.Decision) {
				outcome := stats.OutcomeAllowed
				if !d.Allowed {
					outcome = stats.OutcomeRateLimited
					slog.Info("Rate limit exceeded",
						"identifier", identifier,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()))
				}
				s.recordFor(r, identifier, outcome)
			},
		})(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(s.cfg.Load().RateLimiting.ExcludedPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if !s.limitOn.Load() {
				s.record(r, stats.OutcomeAllowed)
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// record counts a guard outcome. Failures are logged, never returned.
func (s *Server) record(r *http.Request, outcome stats.Outcome) {
	s.recordFor(r, s.identify(r), outcome)
}

func (s *Server) recordFor(r *http.Request, identifier string, outcome stats.Outcome) {
	ev := stats.Event{
		Identifier: identifier,
		Route:      r.URL.Path,
		Outcome:    outcome,
		At:         s.clock.Now(),
	}

	ctx := context.WithoutCancel(r.Context())
	if err := s.stats.Record(ctx, ev); err != nil {
		slog.Warn("Failed to record guard outcome", "outcome", outcome, "error", err)
	}
	s.obs.Recorder().RecordDecision(ctx, ev.Route, string(outcome))
}
