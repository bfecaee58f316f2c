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
	"github.com/kadirpekel/chatguard/pkg/config"
)

// NewFromConfig creates a FixedWindowLimiter from the rate_limiting section.
// If rate limiting is disabled, returns nil.
//
// Example config:
//
//	rate_limiting:
//	  enabled: true
//	  window: 60s
//	  max_requests: 20
//	  cleanup_interval: 5m
func NewFromConfig(cfg *config.RateLimitConfig, opts ...Option) (*FixedWindowLimiter, error) {
	if cfg == nil || !cfg.IsEnabled() {
		return nil, nil
	}
	return NewFixedWindowLimiter(ConfigFrom(cfg), opts...)
}

// ConfigFrom converts the rate_limiting section into a limiter Config.
func ConfigFrom(cfg *config.RateLimitConfig) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Window:          cfg.Window,
		MaxRequests:     cfg.MaxRequests,
		CleanupInterval: cfg.CleanupInterval,
	}
}

// IdentifierFrom builds the identifier extractor for the rate_limiting section.
func IdentifierFrom(cfg *config.RateLimitConfig) IdentifierFunc {
	if cfg == nil {
		return ClientIP
	}
	return HeaderIdentifier(cfg.IdentifierHeader, ClientIP)
}
