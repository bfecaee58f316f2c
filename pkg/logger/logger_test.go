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

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_SimpleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelInfo, &buf, FormatSimple, false)

	l.Info("Request admitted", "identifier", "1.2.3.4", "remaining", 19)
	l.Debug("hidden")
	l.With("route", "/api/chat").Warn("Rate limit exceeded")

	assert.Equal(t,
		"INFO Request admitted identifier=1.2.3.4 remaining=19\n"+
			"WARN Rate limit exceeded route=/api/chat\n",
		buf.String())
}

func TestNew_VerboseFormatHasTimestampAndGroup(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelDebug, &buf, FormatVerbose, false)

	l.WithGroup("upstream").Debug("Calling", "op", "chat")
	line := buf.String()
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} DEBUG Calling upstream\.op=chat\n$`, line)
}

func TestNew_ColorOutput(t *testing.T) {
	var buf bytes.Buffer
	New(slog.LevelInfo, &buf, FormatSimple, true).Error("boom")
	assert.Equal(t, "\033[31mERROR\033[0m boom\n", buf.String())
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(slog.LevelInfo, &buf, FormatJSON, false).Info("Server started", "port", 8080)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "Server started", entry["msg"])
	assert.Equal(t, float64(8080), entry["port"])
}

func TestFilteringHandler_ThirdPartyRecords(t *testing.T) {
	foreign := slog.NewRecord(time.Now(), slog.LevelWarn, "from a client library", 0)

	t.Run("dropped above debug", func(t *testing.T) {
		var buf bytes.Buffer
		h := New(slog.LevelInfo, &buf, FormatSimple, false).Handler()
		require.NoError(t, h.Handle(context.Background(), foreign))
		assert.Empty(t, buf.String())
	})

	t.Run("kept at debug", func(t *testing.T) {
		var buf bytes.Buffer
		h := New(slog.LevelDebug, &buf, FormatSimple, false).Handler()
		require.NoError(t, h.Handle(context.Background(), foreign))
		assert.Equal(t, "WARN from a client library\n", buf.String())
	})
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatguard.log")

	f, cleanup, err := OpenLogFile(path)
	require.NoError(t, err)
	Init(slog.LevelInfo, f, FormatSimple)
	slog.Info("written to file")
	GetLogger().Info("and again")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "INFO written to file\nINFO and again\n", string(data))

	_, _, err = OpenLogFile(filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
