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

package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// LimitedMessage is the error text returned to throttled clients.
const LimitedMessage = "Too many requests. Please try again later."

// MiddlewareConfig configures the rate limiting middleware.
type MiddlewareConfig struct {
	// Limiter is the rate limiter to use.
	Limiter Limiter

	// IdentifierFunc extracts the identifier from requests.
	// If nil, ClientIP is used.
	IdentifierFunc IdentifierFunc

	// ExcludedPaths are paths that bypass rate limiting.
	ExcludedPaths []string

	// OnLimited is called when a request is rate limited.
	// If nil, a default JSON error response is sent.
	OnLimited func(w http.ResponseWriter, r *http.Request, decision Decision)

	// OnDecision observes every decision (allowed or not).
	OnDecision func(r *http.Request, identifier string, decision Decision)

	// Clock is used for Retry-After computation. Defaults to SystemClock.
	Clock Clock
}

// Middleware creates an HTTP middleware that enforces rate limits.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		// No limiter configured, pass through
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	if cfg.IdentifierFunc == nil {
		cfg.IdentifierFunc = ClientIP
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.OnLimited == nil {
		clock := cfg.Clock
		cfg.OnLimited = func(w http.ResponseWriter, r *http.Request, decision Decision) {
			WriteLimited(w, decision, clock.Now())
		}
	}

	excludedPaths := make(map[string]bool, len(cfg.ExcludedPaths))
	for _, path := range cfg.ExcludedPaths {
		excludedPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excludedPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			identifier := cfg.IdentifierFunc(r)
			if identifier == "" {
				identifier = UnknownIdentifier
			}

			decision := cfg.Limiter.CheckRateLimit(identifier)
			if cfg.OnDecision != nil {
				cfg.OnDecision(r, identifier, decision)
			}

			addRateLimitHeaders(w, cfg.Limiter.Limit(), decision)

			ctx := context.WithValue(r.Context(), decisionKey{}, decision)
			r = r.WithContext(ctx)

			if !decision.Allowed {
				slog.Debug("Request rate limited",
					"error", &RateLimitError{Identifier: identifier, Decision: decision},
					"path", r.URL.Path,
					"reset", decision.ResetTime.Format(time.RFC3339))
				cfg.OnLimited(w, r, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// decisionKey is the context key for the decision of the current request.
type decisionKey struct{}

// DecisionFromContext extracts the rate limit decision from the request context.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	decision, ok := ctx.Value(decisionKey{}).(Decision)
	return decision, ok
}

// LimitedResponse is the JSON body of a 429 response.
type LimitedResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int64  `json:"retryAfter"`
	ResetTime  int64  `json:"resetTime"`
}

// WriteLimited writes a 429 response for decision.
func WriteLimited(w http.ResponseWriter, decision Decision, now time.Time) {
	retryAfter := int64(decision.RetryAfter(now) / time.Second)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(LimitedResponse{
		Error:      LimitedMessage,
		Code:       "rate_limited",
		RetryAfter: retryAfter,
		ResetTime:  decision.ResetTimeMillis(),
	})
}

// addRateLimitHeaders adds standard rate limit headers to the response.
func addRateLimitHeaders(w http.ResponseWriter, limit int, decision Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetTime.Unix(), 10))
}
