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
	"log/slog"
	"sync"
	"time"
)

// Limiter admits or denies requests per client identifier.
//
// Implementations must be safe for concurrent use.
type Limiter interface {
	// CheckRateLimit decides on one request and records it when admitted.
	CheckRateLimit(identifier string) Decision

	// Limit returns the number of requests admitted per window.
	Limit() int
}

// Ensure interface compliance at compile time.
var _ Limiter = (*FixedWindowLimiter)(nil)

// Option configures a FixedWindowLimiter.
type Option func(*FixedWindowLimiter)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(l *FixedWindowLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// FixedWindowLimiter counts requests per identifier inside fixed windows.
//
// One mutex guards the whole map, so check-then-increment for an identifier
// is linearizable and the cleanup sweep never races an admission check.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	entries map[string]*windowState
}

// NewFixedWindowLimiter creates a limiter. Zero config fields take defaults.
func NewFixedWindowLimiter(cfg Config, opts ...Option) (*FixedWindowLimiter, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &FixedWindowLimiter{
		cfg:     cfg,
		clock:   SystemClock{},
		entries: make(map[string]*windowState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CheckRateLimit decides whether a request from identifier is admitted.
//
// A missing or expired window is replaced by a fresh one holding this
// request. Within a live window the count is incremented until MaxRequests;
// once the cap is reached requests are denied and not counted.
func (l *FixedWindowLimiter) CheckRateLimit(identifier string) Decision {
	if identifier == "" {
		identifier = UnknownIdentifier
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	entry, ok := l.entries[identifier]
	if !ok || now.Sub(entry.windowStart) > l.cfg.Window {
		l.entries[identifier] = &windowState{count: 1, windowStart: now}
		return Decision{
			Allowed:   true,
			Remaining: l.cfg.MaxRequests - 1,
			ResetTime: now.Add(l.cfg.Window),
		}
	}

	resetTime := entry.windowStart.Add(l.cfg.Window)
	if entry.count < l.cfg.MaxRequests {
		entry.count++
		return Decision{
			Allowed:   true,
			Remaining: l.cfg.MaxRequests - entry.count,
			ResetTime: resetTime,
		}
	}

	return Decision{
		Allowed:   false,
		Remaining: 0,
		ResetTime: resetTime,
	}
}

// Limit returns MaxRequests.
func (l *FixedWindowLimiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.MaxRequests
}

// Config returns a copy of the active configuration.
func (l *FixedWindowLimiter) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Cleanup removes entries idle for more than twice the window and returns
// how many were removed.
func (l *FixedWindowLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	staleAfter := 2 * l.cfg.Window
	removed := 0
	for id, entry := range l.entries {
		if now.Sub(entry.windowStart) > staleAfter {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls Cleanup every CleanupInterval until ctx is done.
func (l *FixedWindowLimiter) RunJanitor(ctx context.Context) error {
	interval := l.Config().CleanupInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := l.Cleanup(); removed > 0 {
				slog.Debug("Rate limit cleanup", "removed", removed, "remaining", l.Size())
			}
		}
	}
}

// StartJanitor runs RunJanitor in a goroutine.
func (l *FixedWindowLimiter) StartJanitor(ctx context.Context) {
	go func() {
		_ = l.RunJanitor(ctx)
	}()
}

// UpdateConfig swaps window and cap at runtime. Existing entries keep their
// window start and are judged against the new values on their next check.
// A running janitor keeps its original interval.
func (l *FixedWindowLimiter) UpdateConfig(cfg Config) error {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
	return nil
}

// Reset forgets identifier. Returns false if it was not tracked.
func (l *FixedWindowLimiter) Reset(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[identifier]; !ok {
		return false
	}
	delete(l.entries, identifier)
	return true
}

// Size returns the number of tracked identifiers.
func (l *FixedWindowLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
