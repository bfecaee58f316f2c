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
	"time"
)

// Defaults.
const (
	DefaultWindow          = 60 * time.Second
	DefaultMaxRequests     = 20
	DefaultCleanupInterval = 5 * time.Minute

	// UnknownIdentifier is used for clients whose identity cannot be derived.
	UnknownIdentifier = "unknown"
)

// Config holds the limiter configuration.
type Config struct {
	// Window is the duration of a fixed window.
	Window time.Duration

	// MaxRequests is the number of requests admitted per window.
	MaxRequests int

	// CleanupInterval is how often the janitor sweeps stale entries.
	CleanupInterval time.Duration
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Window <= 0 {
		return &ConfigError{Field: "window", Reason: "must be positive"}
	}
	if c.MaxRequests <= 0 {
		return &ConfigError{Field: "max_requests", Reason: "must be positive"}
	}
	if c.CleanupInterval <= 0 {
		return &ConfigError{Field: "cleanup_interval", Reason: "must be positive"}
	}
	return nil
}

// Decision is the outcome of a single admission check.
type Decision struct {
	// Allowed reports whether the request is admitted.
	Allowed bool `json:"allowed"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetTime is when the current window ends.
	ResetTime time.Time `json:"-"`
}

// ResetTimeMillis returns ResetTime as epoch milliseconds.
func (d Decision) ResetTimeMillis() int64 {
	return d.ResetTime.UnixMilli()
}

// RetryAfter returns the wait until the window resets, rounded up to whole
// seconds. Denied decisions never return less than one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetTime.Sub(now)
	if wait <= 0 {
		if d.Allowed {
			return 0
		}
		return time.Second
	}
	secs := (wait + time.Second - 1) / time.Second
	return secs * time.Second
}

type windowState struct {
	count       int
	windowStart time.Time
}
