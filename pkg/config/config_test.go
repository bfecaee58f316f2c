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
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, "*", cfg.Server.AllowedOrigin)

	assert.True(t, cfg.RateLimiting.IsEnabled())
	assert.Equal(t, 60*time.Second, cfg.RateLimiting.Window)
	assert.Equal(t, 20, cfg.RateLimiting.MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.RateLimiting.CleanupInterval)
	assert.Equal(t, []string{"/health", "/metrics"}, cfg.RateLimiting.ExcludedPaths)

	assert.Equal(t, 2000, cfg.Validation.MessageMaxLength)
	assert.Equal(t, 3000, cfg.Validation.PromptMaxLength)
	assert.Equal(t, 50, cfg.Validation.HistoryMaxItems)
	assert.Equal(t, 5000, cfg.Validation.HistoryContentMaxLength)

	assert.Equal(t, 10, cfg.Upstream.HistoryWindow)
	assert.False(t, cfg.Upstream.HasChat())
	assert.Len(t, cfg.Upstream.FallbackMessages, 2)

	assert.Equal(t, StatsBackendMemory, cfg.Stats.Backend)
	assert.False(t, cfg.Auth.IsRequired())
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestParse(t *testing.T) {
	t.Setenv("CHATGUARD_TEST_KEY", "secret")
	t.Setenv("CHATGUARD_TEST_PORT", "9090")

	cfg, err := Parse([]byte(`
server:
  port: ${CHATGUARD_TEST_PORT}
rate_limiting:
  window: 30s
  max_requests: 5
  excluded_paths: /health,/ready
upstream:
  chat_url: https://backend.example.com/chat
  api_key: ${CHATGUARD_TEST_KEY}
  timeout: ${CHATGUARD_TEST_TIMEOUT:-10s}
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.RateLimiting.Window)
	assert.Equal(t, 5, cfg.RateLimiting.MaxRequests)
	assert.Equal(t, []string{"/health", "/ready"}, cfg.RateLimiting.ExcludedPaths)
	assert.Equal(t, "secret", cfg.Upstream.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Upstream.HasChat())
	assert.False(t, cfg.Upstream.HasChips())
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"rate_limiting": {"enabled": false}}`))
	require.NoError(t, err)
	assert.False(t, cfg.RateLimiting.IsEnabled())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "rate_limits:\n  window: 1s\n", "failed to decode"},
		{"negative window", "rate_limiting:\n  window: -1s\n", "rate_limiting: window must be positive"},
		{"relative upstream", "upstream:\n  chat_url: /chat\n", "not an absolute URL"},
		{"auth without jwks", "auth:\n  enabled: true\n", "jwks_url is required"},
		{"bad log format", "logger:\n  format: xml\n", "invalid log format"},
		{"sql stats without database", "stats:\n  backend: sql\n", "requires 'sql_database'"},
		{"sql stats unknown database", "stats:\n  backend: sql\n  sql_database: main\n", "not found in databases"},
		{"redis stats without redis", "stats:\n  backend: redis\n", "requires a redis section"},
		{"mysql without host", "databases:\n  main:\n    driver: mysql\n    database: guard\n", "host is required"},
		{"metrics path", "observability:\n  metrics:\n    enabled: true\n    endpoint: metrics\n", "observability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDatabaseConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    DatabaseConfig
		dsn    string
		driver string
	}{
		{
			name:   "postgres",
			cfg:    DatabaseConfig{Driver: "PostgreSQL", Host: "db", Database: "guard", Username: "app", Password: "pw"},
			dsn:    "host=db port=5432 dbname=guard user=app password=pw sslmode=disable",
			driver: "postgres",
		},
		{
			name:   "mysql",
			cfg:    DatabaseConfig{Driver: "mysql", Host: "db", Database: "guard", Username: "app"},
			dsn:    "app@tcp(db:3306)/guard?parseTime=true",
			driver: "mysql",
		},
		{
			name:   "sqlite",
			cfg:    DatabaseConfig{Driver: "sqlite3", Database: "/tmp/guard.db"},
			dsn:    "/tmp/guard.db",
			driver: "sqlite3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.SetDefaults()
			require.NoError(t, tt.cfg.Validate())
			assert.Equal(t, tt.dsn, tt.cfg.DSN())
			assert.Equal(t, tt.driver, tt.cfg.DriverName())
		})
	}
}

func TestDBPool(t *testing.T) {
	pool := NewDBPool()
	t.Cleanup(func() { _ = pool.Close() })

	cfg := &DatabaseConfig{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "stats.db")}
	cfg.SetDefaults()

	db1, err := pool.Get(context.Background(), cfg)
	require.NoError(t, err)
	db2, err := pool.Get(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, db1, db2)
	require.NoError(t, db1.Ping())
}

func TestLoadConfigFile_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limiting:\n  max_requests: 5\n"), 0o644))

	var mu sync.Mutex
	var reloaded *Config
	cfg, loader, err := LoadConfigFile(context.Background(), path, WithOnChange(func(c *Config) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = c
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })
	assert.Equal(t, 5, cfg.RateLimiting.MaxRequests)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.Watch(ctx) }()

	// An invalid edit is skipped; the following valid one is applied.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("rate_limiting:\n  max_requests: -1\n"), 0o644)
		time.Sleep(150 * time.Millisecond)
		_ = os.WriteFile(path, []byte("rate_limiting:\n  max_requests: 9\n"), 0o644)

		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.RateLimiting.MaxRequests == 9
	}, 5*time.Second, 300*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, _, err := LoadConfigFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CHATGUARD_DOTENV_A=from-file\nCHATGUARD_DOTENV_B=from-file\n"), 0o644))

	t.Setenv("CHATGUARD_DOTENV_A", "")
	require.NoError(t, os.Unsetenv("CHATGUARD_DOTENV_A"))
	t.Setenv("CHATGUARD_DOTENV_B", "preset")

	LoadDotEnvForConfig(filepath.Join(dir, "chatguard.yaml"))
	t.Cleanup(func() { _ = os.Unsetenv("CHATGUARD_DOTENV_A") })

	assert.Equal(t, "from-file", os.Getenv("CHATGUARD_DOTENV_A"))
	assert.Equal(t, "preset", os.Getenv("CHATGUARD_DOTENV_B"))
}
