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
	"net/url"
	"time"
)

// UpstreamConfig configures the backend that receives sanitized payloads.
//
// Example:
//
//	upstream:
//	  chat_url: https://backend.internal/chat
//	  chips_url: https://backend.internal/chips
//	  api_key: ${UPSTREAM_API_KEY}
//	  requests_per_second: 5
//	  burst: 10
type UpstreamConfig struct {
	// ChatURL receives chat payloads. Empty disables forwarding.
	ChatURL string `yaml:"chat_url,omitempty" json:"chat_url,omitempty" jsonschema:"title=Chat URL,format=uri"`

	// ChipsURL receives chip generation prompts. Empty disables forwarding.
	ChipsURL string `yaml:"chips_url,omitempty" json:"chips_url,omitempty" jsonschema:"title=Chips URL,format=uri"`

	// APIKey is sent as a bearer token.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key"`

	// Timeout bounds a single upstream attempt.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,type=string,default=30s"`

	// MaxRetries is the retry budget for retryable statuses.
	// Default: 2
	MaxRetries *int `yaml:"max_retries,omitempty" json:"max_retries,omitempty" jsonschema:"title=Max Retries,minimum=0,default=2"`

	// RetryBaseDelay is the exponential backoff base.
	// Default: 500ms
	RetryBaseDelay time.Duration `yaml:"retry_base_delay,omitempty" json:"retry_base_delay,omitempty" jsonschema:"title=Retry Base Delay,type=string,default=500ms"`

	// RequestsPerSecond caps outbound throughput. Zero disables the cap.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second,omitempty" jsonschema:"title=Requests Per Second,minimum=0"`

	// Burst is the outbound burst size when RequestsPerSecond is set.
	// Default: 1
	Burst int `yaml:"burst,omitempty" json:"burst,omitempty" jsonschema:"title=Burst,minimum=1"`

	// HistoryWindow is how many recent history entries are forwarded.
	// Default: 10
	HistoryWindow int `yaml:"history_window,omitempty" json:"history_window,omitempty" jsonschema:"title=History Window,minimum=0,default=10"`

	// CACertificate is a PEM file trusted in addition to the system roots.
	CACertificate string `yaml:"ca_certificate,omitempty" json:"ca_certificate,omitempty" jsonschema:"title=CA Certificate"`

	// InsecureSkipVerify disables certificate verification (dev only).
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty" json:"insecure_skip_verify,omitempty" jsonschema:"title=Insecure Skip Verify"`

	// FallbackMessages are returned to chat clients when the upstream fails.
	FallbackMessages []string `yaml:"fallback_messages,omitempty" json:"fallback_messages,omitempty" jsonschema:"title=Fallback Messages"`
}

// SetDefaults applies default values to UpstreamConfig.
func (c *UpstreamConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == nil {
		c.MaxRetries = IntPtr(2)
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RequestsPerSecond > 0 && c.Burst == 0 {
		c.Burst = 1
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = 10
	}
	if len(c.FallbackMessages) == 0 {
		c.FallbackMessages = []string{
			"Sorry, I could not reach the assistant right now.",
			"Please try again in a moment.",
		}
	}
}

// Validate checks the upstream configuration.
func (c *UpstreamConfig) Validate() error {
	for name, raw := range map[string]string{"chat_url": c.ChatURL, "chips_url": c.ChipsURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q is not an absolute URL", name, raw)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst must be non-negative")
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("history_window must be non-negative")
	}
	return nil
}

// HasChat reports whether chat forwarding is configured.
func (c *UpstreamConfig) HasChat() bool {
	return c != nil && c.ChatURL != ""
}

// HasChips reports whether chip forwarding is configured.
func (c *UpstreamConfig) HasChips() bool {
	return c != nil && c.ChipsURL != ""
}
