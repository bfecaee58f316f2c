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

package config

import (
	"fmt"
	"strings"
	"time"
)

// Stats backends.
const (
	StatsBackendMemory = "memory"
	StatsBackendRedis  = "redis"
	StatsBackendSQL    = "sql"
)

// StatsConfig configures guard decision counters.
//
// Counters never hold rate-limit state; they only aggregate outcomes.
//
// Example:
//
//	databases:
//	  stats:
//	    driver: sqlite
//	    database: ./.chatguard/stats.db
//
//	stats:
//	  enabled: true
//	  backend: sql
//	  sql_database: stats
type StatsConfig struct {
	// Enabled controls whether outcomes are recorded.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"title=Enabled,default=true"`

	// Backend is "memory", "redis" or "sql".
	// Default: memory
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty" jsonschema:"title=Backend,enum=memory,enum=redis,enum=sql,default=memory"`

	// SQLDatabase references an entry of the databases section.
	SQLDatabase string `yaml:"sql_database,omitempty" json:"sql_database,omitempty" jsonschema:"title=SQL Database"`

	// TrackIdentifiers also counts per client identifier.
	// Default: false
	TrackIdentifiers bool `yaml:"track_identifiers,omitempty" json:"track_identifiers,omitempty" jsonschema:"title=Track Identifiers"`

	// TTL expires time-bucketed and per-identifier counters (redis only).
	// Default: 24h
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty" jsonschema:"title=TTL,type=string,default=24h"`

	// Expose serves GET /api/stats.
	// Default: false
	Expose bool `yaml:"expose,omitempty" json:"expose,omitempty" jsonschema:"title=Expose"`
}

// IsEnabled returns true if stats are recorded.
func (c *StatsConfig) IsEnabled() bool {
	return c != nil && BoolValue(c.Enabled, true)
}

// SetDefaults applies default values to StatsConfig.
func (c *StatsConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(true)
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = StatsBackendMemory
	}
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
}

// Validate checks the stats configuration.
func (c *StatsConfig) Validate() error {
	if !c.IsEnabled() {
		return nil
	}
	switch c.Backend {
	case StatsBackendMemory, StatsBackendRedis:
	case StatsBackendSQL:
		if c.SQLDatabase == "" {
			return fmt.Errorf("backend 'sql' requires 'sql_database' reference")
		}
	default:
		return fmt.Errorf("invalid backend %q (valid: memory, redis, sql)", c.Backend)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl must be non-negative")
	}
	return nil
}
