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

package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps replaces the real sleep so retries run instantly.
func recordSleeps(c *Client) *[]time.Duration {
	var delays []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return &delays
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := New()
		assert.Equal(t, 5, c.maxRetries)
		assert.Equal(t, 2*time.Second, c.baseDelay)
		assert.Equal(t, 60*time.Second, c.client.Timeout)
		assert.NotNil(t, c.strategyFunc)
		assert.NotNil(t, c.headerParser)
	})

	t.Run("options", func(t *testing.T) {
		c := New(
			WithMaxRetries(2),
			WithBaseDelay(time.Second),
			WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
			WithTimeout(5*time.Second),
			WithRetryStrategy(func(int) RetryStrategy { return SmartRetry }),
		)
		assert.Equal(t, 2, c.maxRetries)
		assert.Equal(t, time.Second, c.baseDelay)
		assert.Equal(t, 5*time.Second, c.client.Timeout)
		assert.Equal(t, SmartRetry, c.strategyFunc(400))
	})
}

func TestDefaultRetryStrategy(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   RetryStrategy
	}{
		{http.StatusTooManyRequests, SmartRetry},
		{http.StatusServiceUnavailable, SmartRetry},
		{http.StatusRequestTimeout, ConservativeRetry},
		{http.StatusInternalServerError, ConservativeRetry},
		{http.StatusBadGateway, ConservativeRetry},
		{http.StatusGatewayTimeout, ConservativeRetry},
		{http.StatusOK, NoRetry},
		{http.StatusBadRequest, NoRetry},
		{http.StatusUnauthorized, NoRetry},
		{http.StatusNotFound, NoRetry},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultRetryStrategy(tt.statusCode))
		})
	}
}

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	c := New()
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"text":"ok"}`, string(body))
}

func TestClient_Do_NetworkError(t *testing.T) {
	c := New(WithMaxRetries(3))
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestClient_Do_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := New()
	req, _ := http.NewRequest(http.MethodPost, server.URL, nil)
	resp, err := c.Do(req)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, IsRetryable(err))
}

func TestClient_Do_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"prompt":"x"}`, string(body))

		if atomic.AddInt32(&calls, 1) < 3 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(WithMaxRetries(3))
	delays := recordSleeps(c)

	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{"prompt":"x"}`))
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{7 * time.Second, 7 * time.Second}, *delays)
}

func TestClient_Do_MaxRetriesExceeded(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(WithMaxRetries(2), WithBaseDelay(100*time.Millisecond))
	delays := recordSleeps(c)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := c.Do(req)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()

	var retryErr *RetryableError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, http.StatusServiceUnavailable, retryErr.StatusCode)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{110 * time.Millisecond, 220 * time.Millisecond}, *delays)
}

func TestClient_Do_ConservativeRetryLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(WithMaxRetries(5), WithBaseDelay(time.Second))
	delays := recordSleeps(c)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := c.Do(req)
	require.Error(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
	assert.False(t, IsRetryable(err))
}

func TestClient_Do_ContextCancelledDuringWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := New(WithMaxRetries(3))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	start := time.Now()
	resp, err := c.Do(req)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_calculateDelay(t *testing.T) {
	c := New(WithBaseDelay(time.Second))

	assert.Equal(t, 3*time.Second, c.calculateDelay(SmartRetry, 0, RateLimitInfo{RetryAfter: 3 * time.Second}))
	assert.Equal(t, 1100*time.Millisecond, c.calculateDelay(SmartRetry, 0, RateLimitInfo{}))
	assert.Equal(t, 4400*time.Millisecond, c.calculateDelay(SmartRetry, 2, RateLimitInfo{}))

	reset := time.Now().Add(30 * time.Second).Unix()
	d := c.calculateDelay(SmartRetry, 0, RateLimitInfo{ResetTime: reset})
	assert.Greater(t, d, 25*time.Second)
	assert.LessOrEqual(t, d, 30*time.Second)

	assert.Equal(t, time.Second, c.calculateDelay(ConservativeRetry, 0, RateLimitInfo{}))
	assert.Equal(t, 2*time.Second, c.calculateDelay(ConservativeRetry, 1, RateLimitInfo{}))
	assert.Equal(t, time.Duration(0), c.calculateDelay(ConservativeRetry, 2, RateLimitInfo{}))
	assert.Equal(t, time.Duration(0), c.calculateDelay(NoRetry, 0, RateLimitInfo{}))
}

func TestRetryableError(t *testing.T) {
	inner := errors.New("HTTP 429")
	err := &RetryableError{StatusCode: 429, Message: "throttled", RetryAfter: 2 * time.Second, Err: inner}

	assert.Equal(t, "HTTP 429: throttled (retry after 2s)", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.True(t, err.IsRetryable())

	plain := &RetryableError{StatusCode: 500, Message: "boom"}
	assert.Equal(t, "HTTP 500: boom", plain.Error())
}

func TestParseRateLimitHeaders(t *testing.T) {
	now := time.Now()

	t.Run("seconds", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "12")
		h.Set("X-RateLimit-Reset", "1735732800")
		h.Set("X-RateLimit-Remaining", "0")

		info := ParseRateLimitHeaders(h)
		assert.Equal(t, 12*time.Second, info.RetryAfter)
		assert.Equal(t, int64(1735732800), info.ResetTime)
		assert.Equal(t, 0, info.RequestsRemaining)
	})

	t.Run("http date", func(t *testing.T) {
		at := now.Add(90 * time.Second).UTC().Format(http.TimeFormat)
		d := parseRetryAfter(at, now)
		assert.Greater(t, d, 80*time.Second)
		assert.LessOrEqual(t, d, 90*time.Second)
	})

	t.Run("garbage and past values", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
		assert.Equal(t, time.Duration(0), parseRetryAfter("-5", now))
		assert.Equal(t, time.Duration(0), parseRetryAfter(now.Add(-time.Hour).UTC().Format(http.TimeFormat), now))

		h := http.Header{}
		h.Set("X-RateLimit-Reset", "tomorrow")
		assert.Equal(t, RateLimitInfo{}, ParseRateLimitHeaders(h))
	})
}

func TestConfigureTLS(t *testing.T) {
	transport, err := ConfigureTLS(&TLSConfig{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)

	_, err = ConfigureTLS(&TLSConfig{CACertificate: "/nonexistent/ca.pem"})
	assert.Error(t, err)

	transport, err = ConfigureTLS(nil)
	require.NoError(t, err)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)

	c := New(WithTransport(transport))
	assert.Same(t, transport, c.client.Transport)
}
