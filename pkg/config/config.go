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

// Package config defines the chatguard configuration tree and its loaders.
//
// Configuration is read from a provider (file, consul, etcd, zookeeper),
// environment variables are expanded, defaults are applied and the result is
// validated before use:
//
//	version: "1"
//	server:
//	  port: 8080
//	rate_limiting:
//	  window: 60s
//	  max_requests: 20
//	upstream:
//	  chat_url: ${CHAT_UPSTREAM_URL}
//	  api_key: ${UPSTREAM_API_KEY:-}
package config

import (
	"fmt"
	"sort"

	"github.com/kadirpekel/chatguard/pkg/observability"
)

// Config is the root configuration.
type Config struct {
	// Version is the config schema version.
	Version string `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Configuration schema version,default=1"`

	// Name identifies this deployment in logs and traces.
	Name string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Name,description=Deployment name"`

	// Server configures the HTTP listener.
	Server *ServerConfig `yaml:"server,omitempty" json:"server,omitempty" jsonschema:"title=Server"`

	// RateLimiting configures the per-client fixed-window limiter.
	RateLimiting *RateLimitConfig `yaml:"rate_limiting,omitempty" json:"rate_limiting,omitempty" jsonschema:"title=Rate Limiting"`

	// Validation configures input size bounds.
	Validation *ValidationConfig `yaml:"validation,omitempty" json:"validation,omitempty" jsonschema:"title=Validation"`

	// Upstream configures where sanitized payloads are forwarded.
	Upstream *UpstreamConfig `yaml:"upstream,omitempty" json:"upstream,omitempty" jsonschema:"title=Upstream"`

	// Stats configures guard decision counters.
	Stats *StatsConfig `yaml:"stats,omitempty" json:"stats,omitempty" jsonschema:"title=Stats"`

	// Auth configures optional JWT identity.
	Auth *AuthConfig `yaml:"auth,omitempty" json:"auth,omitempty" jsonschema:"title=Auth"`

	// Observability configures tracing and metrics.
	Observability *observability.Config `yaml:"observability,omitempty" json:"observability,omitempty" jsonschema:"title=Observability"`

	// Logger configures logging.
	Logger *LoggerConfig `yaml:"logger,omitempty" json:"logger,omitempty" jsonschema:"title=Logger"`

	// Databases are named SQL connections referenced by other sections.
	Databases map[string]*DatabaseConfig `yaml:"databases,omitempty" json:"databases,omitempty" jsonschema:"title=Databases"`

	// Redis configures the shared Redis connection.
	Redis *RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty" jsonschema:"title=Redis"`
}

// Default returns a fully defaulted in-memory configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Name == "" {
		c.Name = "chatguard"
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	c.Server.SetDefaults()

	if c.RateLimiting == nil {
		c.RateLimiting = &RateLimitConfig{}
	}
	c.RateLimiting.SetDefaults()

	if c.Validation == nil {
		c.Validation = &ValidationConfig{}
	}
	c.Validation.SetDefaults()

	if c.Upstream == nil {
		c.Upstream = &UpstreamConfig{}
	}
	c.Upstream.SetDefaults()

	if c.Stats == nil {
		c.Stats = &StatsConfig{}
	}
	c.Stats.SetDefaults()

	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	c.Auth.SetDefaults()

	if c.Observability == nil {
		c.Observability = &observability.Config{}
	}
	c.Observability.SetDefaults()

	if c.Logger == nil {
		c.Logger = &LoggerConfig{}
	}
	c.Logger.SetDefaults()

	if c.Databases == nil {
		c.Databases = make(map[string]*DatabaseConfig)
	}
	for _, db := range c.Databases {
		if db != nil {
			db.SetDefaults()
		}
	}

	if c.Redis != nil {
		c.Redis.SetDefaults()
	}
}

// Validate checks the configuration. SetDefaults must run first.
func (c *Config) Validate() error {
	if c.Server == nil || c.RateLimiting == nil || c.Validation == nil || c.Upstream == nil ||
		c.Stats == nil || c.Auth == nil || c.Observability == nil || c.Logger == nil {
		return fmt.Errorf("config is not initialized: call SetDefaults before Validate")
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.RateLimiting.Validate(); err != nil {
		return fmt.Errorf("rate_limiting: %w", err)
	}
	if err := c.Validation.Validate(); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	for _, name := range c.ListDatabases() {
		db := c.Databases[name]
		if db == nil {
			return fmt.Errorf("databases.%s: is empty", name)
		}
		if err := db.Validate(); err != nil {
			return fmt.Errorf("databases.%s: %w", name, err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	return c.validateReferences()
}

// validateReferences checks cross-section references.
func (c *Config) validateReferences() error {
	if !c.Stats.IsEnabled() {
		return nil
	}
	switch c.Stats.Backend {
	case StatsBackendSQL:
		if _, ok := c.GetDatabase(c.Stats.SQLDatabase); !ok {
			return fmt.Errorf("stats.sql_database %q not found in databases (available: %v)",
				c.Stats.SQLDatabase, c.ListDatabases())
		}
	case StatsBackendRedis:
		if c.Redis == nil {
			return fmt.Errorf("stats.backend 'redis' requires a redis section")
		}
	}
	return nil
}

// GetDatabase returns the named database config.
func (c *Config) GetDatabase(name string) (*DatabaseConfig, bool) {
	db, ok := c.Databases[name]
	if !ok || db == nil {
		return nil, false
	}
	return db, true
}

// ListDatabases returns database names in sorted order.
func (c *Config) ListDatabases() []string {
	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
