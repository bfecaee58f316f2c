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

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/chatguard/pkg/config"
	"github.com/kadirpekel/chatguard/pkg/validation"
)

func TestResolveLogSettings(t *testing.T) {
	cfg := &config.LoggerConfig{Level: "warn", Format: "json", File: "from-config.log"}

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(LogLevelEnvVar, "")
		t.Setenv(LogFileEnvVar, "")
		t.Setenv(LogFormatEnvVar, "")

		s := resolveLogSettings("", "", "", nil)
		assert.Equal(t, logSettings{Level: "info", Format: "simple"}, s)
	})

	t.Run("config beats defaults", func(t *testing.T) {
		t.Setenv(LogLevelEnvVar, "")
		t.Setenv(LogFileEnvVar, "")
		t.Setenv(LogFormatEnvVar, "")

		s := resolveLogSettings("", "", "", cfg)
		assert.Equal(t, "warn", s.Level)
		assert.Equal(t, "json", s.Format)
		assert.Equal(t, "from-config.log", s.File)
		assert.False(t, s.Overridden)
	})

	t.Run("env beats config", func(t *testing.T) {
		t.Setenv(LogLevelEnvVar, "debug")
		t.Setenv(LogFileEnvVar, "")
		t.Setenv(LogFormatEnvVar, "")

		s := resolveLogSettings("", "", "", cfg)
		assert.Equal(t, "debug", s.Level)
		assert.Equal(t, "json", s.Format)
	})

	t.Run("flags beat env", func(t *testing.T) {
		t.Setenv(LogLevelEnvVar, "debug")
		t.Setenv(LogFileEnvVar, "env.log")
		t.Setenv(LogFormatEnvVar, "verbose")

		s := resolveLogSettings("error", "", "simple", cfg)
		assert.Equal(t, "error", s.Level)
		assert.Equal(t, "env.log", s.File)
		assert.Equal(t, "simple", s.Format)
		assert.True(t, s.Overridden)
	})
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	cleanup, err := initLogger(logSettings{Level: "loud", Format: "simple"})
	require.Error(t, err)
	require.NotNil(t, cleanup)
}

func TestRunCheck(t *testing.T) {
	v := validation.Default()

	tests := []struct {
		name  string
		kind  string
		value string
		valid bool
		code  validation.Code
	}{
		{"clean message", "message", "  hello  ", true, ""},
		{"blank message", "message", "   ", false, validation.CodeEmpty},
		{"script message", "message", "<script>x</script>", false, validation.CodeDangerousContent},
		{"long prompt", "prompt", strings.Repeat("p", 3001), false, validation.CodeTooLong},
		{"history", "history", `[{"role":"user","content":"hi"},{"role":"system","content":"x"}]`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCheck(v, tt.kind, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, out.Valid)
			if tt.valid {
				assert.Nil(t, out.Error)
				return
			}
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.code, out.Error.Code)
		})
	}

	t.Run("sanitized output", func(t *testing.T) {
		out, err := runCheck(v, "history", `[{"role":"user","content":" hi "},{"role":"system","content":"x"}]`)
		require.NoError(t, err)
		assert.Equal(t, []validation.HistoryEntry{{Role: "user", Content: "hi"}}, out.Sanitized)
	})

	t.Run("malformed history", func(t *testing.T) {
		_, err := runCheck(v, "history", `{`)
		assert.Error(t, err)
	})
}

func TestValidateOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := printLoadError(&stdout, &stderr, "json", "bad.yaml", errors.New("boom"))
	require.Error(t, err)

	var out validateOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, "bad.yaml", out.File)
	assert.Equal(t, []ValidationError{{Type: "load", Message: "boom"}}, out.Errors)

	stdout.Reset()
	printSuccess(&stdout, "compact", "good.yaml")
	assert.Equal(t, "good.yaml: valid\n", stdout.String())
}

func TestPrintExpandedConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printExpandedConfig(&buf, "compact", "chatguard.yaml", config.Default()))
	assert.Contains(t, buf.String(), "# Expanded Configuration from: chatguard.yaml")
	assert.Contains(t, buf.String(), "rate_limiting:")
	assert.Contains(t, buf.String(), "max_requests: 20")
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSchema(&buf, true))

	var schema map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
	assert.Equal(t, "chatguard Configuration Schema", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "rate_limiting")
	assert.Contains(t, props, "upstream")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, loader, err := loadConfig(t.Context(), &CLI{ConfigType: "file"})
		require.NoError(t, err)
		assert.Nil(t, loader)
		assert.Equal(t, 20, cfg.RateLimiting.MaxRequests)
	})

	t.Run("remote provider requires a path", func(t *testing.T) {
		_, _, err := loadConfig(t.Context(), &CLI{ConfigType: "etcd"})
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "guard.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rate_limiting:\n  max_requests: 7\n"), 0o644))

		cfg, loader, err := loadConfig(t.Context(), &CLI{Config: path, ConfigType: "file"})
		require.NoError(t, err)
		require.NotNil(t, loader)
		defer loader.Close()
		assert.Equal(t, 7, cfg.RateLimiting.MaxRequests)
	})
}
