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

package stats

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	mu         sync.Mutex
	total      Counters
	routes     map[string]*Counters
	identities map[string]*Counters
	trackIDs   bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryTrackIdentifiers also counts per identifier.
func WithMemoryTrackIdentifiers(track bool) MemoryOption {
	return func(s *MemoryStore) {
		s.trackIDs = track
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		routes:     make(map[string]*Counters),
		identities: make(map[string]*Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record adds one event.
func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.Add(ev.Outcome, 1)

	if ev.Route != "" {
		c, ok := s.routes[ev.Route]
		if !ok {
			c = &Counters{}
			s.routes[ev.Route] = c
		}
		c.Add(ev.Outcome, 1)
	}

	if s.trackIDs && ev.Identifier != "" {
		c, ok := s.identities[ev.Identifier]
		if !ok {
			c = &Counters{}
			s.identities[ev.Identifier] = c
		}
		c.Add(ev.Outcome, 1)
	}
	return nil
}

// Snapshot returns a copy of the counters.
func (s *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := newSnapshot()
	snap.Total = s.total
	for route, c := range s.routes {
		snap.ByRoute[route] = *c
	}
	return snap, nil
}

// Identifier returns the counters for one identifier when tracking is on.
func (s *MemoryStore) Identifier(id string) (Counters, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.identities[id]
	if !ok {
		return Counters{}, false
	}
	return *c, true
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
