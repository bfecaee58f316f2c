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

// Package stats counts guard decisions.
//
// Every request passing through the guard produces one or more events
// (allowed or rate limited, then invalid or forwarded, then possibly an
// upstream error). Stores aggregate them into counters per route. Only
// counters are stored; rate-limit windows themselves stay in process memory.
//
// Backends:
//   - memory: process-local, lost on restart
//   - redis: hashes shared by all instances, time buckets expire
//   - sql: one row per (minute bucket, route, outcome) in postgres, mysql or sqlite
package stats

import (
	"context"
	"strings"
	"time"
)

// Outcome is the result of one guard step.
type Outcome string

const (
	OutcomeAllowed       Outcome = "allowed"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeForwarded     Outcome = "forwarded"
	OutcomeUpstreamError Outcome = "upstream_error"

	invalidPrefix = "invalid:"
)

// InvalidOutcome returns the outcome for a validation failure with code.
func InvalidOutcome(code string) Outcome {
	return Outcome(invalidPrefix + code)
}

// Counter field names shared by the backends.
const (
	fieldAllowed        = "allowed"
	fieldDenied         = "denied"
	fieldInvalid        = "invalid"
	fieldForwarded      = "forwarded"
	fieldUpstreamErrors = "upstream_errors"
)

// field maps an outcome to the counter it increments.
func (o Outcome) field() string {
	switch {
	case o == OutcomeAllowed:
		return fieldAllowed
	case o == OutcomeRateLimited:
		return fieldDenied
	case strings.HasPrefix(string(o), invalidPrefix):
		return fieldInvalid
	case o == OutcomeForwarded:
		return fieldForwarded
	case o == OutcomeUpstreamError:
		return fieldUpstreamErrors
	default:
		return ""
	}
}

// Event is one recorded guard outcome.
type Event struct {
	Identifier string
	Route      string
	Outcome    Outcome
	At         time.Time
}

// Counters aggregates outcomes.
type Counters struct {
	Allowed        int64 `json:"allowed"`
	Denied         int64 `json:"denied"`
	Invalid        int64 `json:"invalid"`
	Forwarded      int64 `json:"forwarded"`
	UpstreamErrors int64 `json:"upstream_errors"`
}

// Add adds n to the counter for outcome. Unknown outcomes are ignored.
func (c *Counters) Add(o Outcome, n int64) {
	c.addField(o.field(), n)
}

func (c *Counters) addField(field string, n int64) {
	switch field {
	case fieldAllowed:
		c.Allowed += n
	case fieldDenied:
		c.Denied += n
	case fieldInvalid:
		c.Invalid += n
	case fieldForwarded:
		c.Forwarded += n
	case fieldUpstreamErrors:
		c.UpstreamErrors += n
	}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Total   Counters            `json:"total"`
	ByRoute map[string]Counters `json:"by_route"`
}

func newSnapshot() Snapshot {
	return Snapshot{ByRoute: make(map[string]Counters)}
}

// Store records events and reports aggregated counters.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Record adds one event.
	Record(ctx context.Context, ev Event) error

	// Snapshot returns the aggregated counters.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Close releases resources held by the store.
	Close() error
}

// NopStore discards events.
type NopStore struct{}

func (NopStore) Record(context.Context, Event) error { return nil }

func (NopStore) Snapshot(context.Context) (Snapshot, error) { return newSnapshot(), nil }

func (NopStore) Close() error { return nil }

func eventTime(ev Event) time.Time {
	if ev.At.IsZero() {
		return time.Now().UTC()
	}
	return ev.At.UTC()
}

// minuteBucket formats t as a UTC minute bucket.
func minuteBucket(t time.Time) string {
	return t.UTC().Format("200601021504")
}
