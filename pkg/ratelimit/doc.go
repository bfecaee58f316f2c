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

// Package ratelimit provides the per-client admission guard for chatguard.
//
// Features:
//   - Fixed-window counting per client identifier
//   - Single-process, in-memory state (nothing is persisted)
//   - Injectable clock for deterministic tests
//   - Background janitor removing abandoned clients
//   - HTTP middleware emitting X-RateLimit-* and Retry-After headers
//
// # Basic Usage
//
//	limiter, err := ratelimit.NewFixedWindowLimiter(ratelimit.Config{
//	    Window:      time.Minute,
//	    MaxRequests: 20,
//	})
//
//	decision := limiter.CheckRateLimit("1.2.3.4")
//	if !decision.Allowed {
//	    // respond 429, retry after decision.RetryAfter(time.Now())
//	}
//
// # Configuration
//
//	rate_limiting:
//	  enabled: true
//	  window: 60s
//	  max_requests: 20
//	  cleanup_interval: 5m
//	  identifier_header: X-Client-ID
//
// # Window Semantics
//
// A window starts with the first request of a client and lasts Window.
// Requests are counted until MaxRequests is reached; later requests in the
// same window are denied without being counted. The first request after the
// window has elapsed starts a fresh window.
//
// Windows are not aligned to each other, so a client may send up to
// 2*MaxRequests requests across a window boundary: MaxRequests at the end of
// one window and MaxRequests right after it expires.
//
// # Identifiers
//
// Clients that cannot be identified share the UnknownIdentifier bucket and
// therefore contend for the same budget.
package ratelimit
