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
	"time"
)

// RateLimitConfig defines rate limiting configuration.
//
// Example:
//
//	rate_limiting:
//	  enabled: true
//	  window: 60s
//	  max_requests: 20
//	  cleanup_interval: 5m
//	  identifier_header: X-Client-ID
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"title=Enabled,default=true"`

	// Window is the fixed window duration.
	// Default: 60s
	Window time.Duration `yaml:"window,omitempty" json:"window,omitempty" jsonschema:"title=Window,type=string,default=60s"`

	// MaxRequests is the number of requests admitted per window.
	// Default: 20
	MaxRequests int `yaml:"max_requests,omitempty" json:"max_requests,omitempty" jsonschema:"title=Max Requests,minimum=1,default=20"`

	// CleanupInterval is how often stale clients are swept.
	// Default: 5m
	CleanupInterval time.Duration `yaml:"cleanup_interval,omitempty" json:"cleanup_interval,omitempty" jsonschema:"title=Cleanup Interval,type=string,default=5m"`

	// IdentifierHeader, when set, is preferred over the client address.
	IdentifierHeader string `yaml:"identifier_header,omitempty" json:"identifier_header,omitempty" jsonschema:"title=Identifier Header"`

	// ExcludedPaths bypass rate limiting.
	ExcludedPaths []string `yaml:"excluded_paths,omitempty" json:"excluded_paths,omitempty" jsonschema:"title=Excluded Paths"`
}

// IsEnabled returns true if rate limiting is enabled.
func (c *RateLimitConfig) IsEnabled() bool {
	return c != nil && BoolValue(c.Enabled, true)
}

// SetDefaults sets default values for RateLimitConfig.
func (c *RateLimitConfig) SetDefaults() {
	if c.Enabled == nil {
		c.Enabled = BoolPtr(true)
	}
	if c.Window == 0 {
		c.Window = 60 * time.Second
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = 20
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	if len(c.ExcludedPaths) == 0 {
		c.ExcludedPaths = []string{"/health", "/metrics"}
	}
}

// Validate validates the RateLimitConfig.
func (c *RateLimitConfig) Validate() error {
	if !c.IsEnabled() {
		return nil
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("max_requests must be positive, got %d", c.MaxRequests)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive, got %s", c.CleanupInterval)
	}
	return nil
}
