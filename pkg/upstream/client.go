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

// Package upstream forwards sanitized payloads to the generation backend.
//
// The backend speaks a small JSON protocol:
//
//	POST <chat_url>   {"message": "...", "history": [{"role": "user", "content": "..."}], "persona": "recruiter"}
//	POST <chips_url>  {"prompt": "..."}
//	200               {"text": "..."}
//
// Requests carry "Authorization: Bearer <api_key>" when a key is configured
// and the W3C trace context of the caller.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/kadirpekel/chatguard/pkg/config"
	"github.com/kadirpekel/chatguard/pkg/httpclient"
	"github.com/kadirpekel/chatguard/pkg/validation"
)

// Operation names.
const (
	OpChat  = "chat"
	OpChips = "chips"
)

// maxResponseBytes bounds upstream response bodies.
const maxResponseBytes = 1 << 20

// ChatRequest is the chat payload sent upstream.
type ChatRequest struct {
	Message string                    `json:"message"`
	History []validation.HistoryEntry `json:"history"`
	Persona string                    `json:"persona"`
}

type chipsRequest struct {
	Prompt string `json:"prompt"`
}

type textResponse struct {
	Text string `json:"text"`
}

// Observer is notified after every upstream call.
type Observer func(op string, duration time.Duration, err error)

// Client posts to the configured backend.
type Client struct {
	chatURL  string
	chipsURL string
	apiKey   string

	http     *httpclient.Client
	limiter  *rate.Limiter
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithObserver sets the call observer.
func WithObserver(fn Observer) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// WithHTTPClient replaces the retrying HTTP client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a Client from the upstream section.
func New(cfg *config.UpstreamConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("upstream config is required")
	}

	transport, err := httpclient.ConfigureTLS(&httpclient.TLSConfig{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		CACertificate:      cfg.CACertificate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure upstream TLS: %w", err)
	}

	c := &Client{
		chatURL:  cfg.ChatURL,
		chipsURL: cfg.ChipsURL,
		apiKey:   cfg.APIKey,
		http: httpclient.New(
			httpclient.WithTransport(transport),
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxRetries(config.IntValue(cfg.MaxRetries, 2)),
			httpclient.WithBaseDelay(cfg.RetryBaseDelay),
		),
		tracer: otel.Tracer("github.com/kadirpekel/chatguard/pkg/upstream"),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HasChat reports whether chat forwarding is configured.
func (c *Client) HasChat() bool {
	return c != nil && c.chatURL != ""
}

// HasChips reports whether chip forwarding is configured.
func (c *Client) HasChips() bool {
	return c != nil && c.chipsURL != ""
}

// Chat forwards a chat turn and returns the generated text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if !c.HasChat() {
		return "", ErrNotConfigured
	}
	if req.History == nil {
		req.History = []validation.HistoryEntry{}
	}
	return c.call(ctx, OpChat, c.chatURL, req)
}

// Chips forwards a chip generation prompt and returns the generated text.
func (c *Client) Chips(ctx context.Context, prompt string) (string, error) {
	if !c.HasChips() {
		return "", ErrNotConfigured
	}
	return c.call(ctx, OpChips, c.chipsURL, chipsRequest{Prompt: prompt})
}

func (c *Client) call(ctx context.Context, op, url string, payload any) (text string, err error) {
	ctx, span := c.tracer.Start(ctx, "upstream."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("upstream.operation", op)))
	start := time.Now()

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer(op, time.Since(start), err)
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("upstream throttle wait: %w", err)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil && resp == nil {
		return "", fmt.Errorf("%s request failed: %w", op, err)
	}

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return "", fmt.Errorf("failed to read %s response: %w", op, readErr)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), 512),
			Err:        err,
		}
	}

	var out textResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	slog.Debug("Upstream call succeeded", "op", op, "status", resp.StatusCode, "duration", time.Since(start))
	return out.Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
