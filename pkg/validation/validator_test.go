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

package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/chatguard/pkg/config"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		wantCode  Code
		wantMsg   string
		sanitized string
	}{
		{name: "trims whitespace", input: "  hi  ", wantValid: true, sanitized: "hi"},
		{name: "nil", input: nil, wantCode: CodeInvalidType, wantMsg: "Message must be a non-empty string"},
		{name: "number", input: 42.0, wantCode: CodeInvalidType, wantMsg: "Message must be a non-empty string"},
		{name: "object", input: map[string]any{"text": "hi"}, wantCode: CodeInvalidType},
		{name: "empty string", input: "", wantCode: CodeEmpty, wantMsg: "Message cannot be empty"},
		{name: "whitespace only", input: " \n\t ", wantCode: CodeEmpty, wantMsg: "Message cannot be empty"},
		{name: "exactly max", input: strings.Repeat("A", 2000), wantValid: true, sanitized: strings.Repeat("A", 2000)},
		{name: "over max", input: strings.Repeat("A", 2001), wantCode: CodeTooLong, wantMsg: "Message exceeds maximum length of 2000 characters"},
		{name: "length after trim", input: "  " + strings.Repeat("A", 2000) + "  ", wantValid: true, sanitized: strings.Repeat("A", 2000)},
		{name: "counts characters not bytes", input: strings.Repeat("é", 2000), wantValid: true, sanitized: strings.Repeat("é", 2000)},
		{name: "script tag", input: "<script>alert(1)</script>hello", wantCode: CodeDangerousContent, wantMsg: "Message contains potentially dangerous content"},
		{name: "plain text mentioning script", input: "I write JavaScript and scripts", wantValid: true, sanitized: "I write JavaScript and scripts"},
		{name: "comparison with equals", input: "is 2 = 2?", wantValid: true, sanitized: "is 2 = 2?"},
		{name: "trims byte order mark", input: "\uFEFFhi\uFEFF", wantValid: true, sanitized: "hi"},
		{name: "trims unicode spaces", input: "\u00A0\u2028hi\u3000", wantValid: true, sanitized: "hi"},
		{name: "keeps next line", input: "\u0085hi", wantValid: true, sanitized: "\u0085hi"},
		{name: "byte order mark only", input: "\uFEFF \uFEFF", wantCode: CodeEmpty, wantMsg: "Message cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateMessage(tt.input)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantValid {
				assert.Nil(t, res.Err)
				assert.Equal(t, "", res.Error())
				assert.Equal(t, tt.sanitized, res.Sanitized)
				return
			}
			require.NotNil(t, res.Err)
			assert.Equal(t, tt.wantCode, res.Err.Code)
			assert.Equal(t, FieldMessage, res.Err.Field)
			assert.Empty(t, res.Sanitized)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, res.Error())
			}
		})
	}
}

func TestValidateMessage_DangerousPatterns(t *testing.T) {
	tests := []struct {
		input   string
		pattern string
	}{
		{"<script>alert(1)</script>hello", "script_tag"},
		{"<SCRIPT type='text/javascript'>x</ScRiPt>", "script_tag"},
		{"<script>\nalert(1)\n</script>", "script_tag"},
		{"click javascript:alert(1)", "javascript_uri"},
		{"JAVASCRIPT:void(0)", "javascript_uri"},
		{`<img src=x onerror=alert(1)>`, "event_handler"},
		{"text ONCLICK = doIt()", "event_handler"},
		{"<iframe src='//evil'>", "iframe_tag"},
		{"<IFRAME", "iframe_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			res := ValidateMessage(tt.input)
			require.False(t, res.Valid)
			assert.Equal(t, CodeDangerousContent, res.Err.Code)
			assert.Equal(t, tt.pattern, res.Err.Pattern)
		})
	}
}

func TestDangerousPatterns(t *testing.T) {
	patterns := DangerousPatterns()
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"script_tag", "javascript_uri", "event_handler", "iframe_tag"}, names)

	// Callers cannot mutate the shared set.
	patterns[0].Name = "changed"
	assert.Equal(t, "script_tag", DangerousPatterns()[0].Name)
}

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		wantCode  Code
		wantMsg   string
	}{
		{name: "valid", input: " suggest two questions ", wantValid: true},
		{name: "exactly max", input: strings.Repeat("p", 3000), wantValid: true},
		{name: "over max", input: strings.Repeat("p", 3001), wantCode: CodeTooLong, wantMsg: "Prompt exceeds maximum length"},
		{name: "nil", input: nil, wantCode: CodeInvalidType, wantMsg: "Prompt must be a non-empty string"},
		{name: "bool", input: true, wantCode: CodeInvalidType},
		{name: "blank", input: "   ", wantCode: CodeEmpty, wantMsg: "Prompt cannot be empty"},
		{name: "markup is not scanned", input: "<script>x</script>", wantValid: true},
		{name: "byte order mark only", input: "\uFEFF", wantCode: CodeEmpty, wantMsg: "Prompt cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePrompt(tt.input)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantValid {
				assert.Equal(t, strings.TrimSpace(tt.input.(string)), res.Sanitized)
				return
			}
			require.NotNil(t, res.Err)
			assert.Equal(t, tt.wantCode, res.Err.Code)
			assert.Equal(t, FieldPrompt, res.Err.Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, res.Error())
			}
		})
	}
}

func TestValidateConversationHistory(t *testing.T) {
	t.Run("non-list is treated as empty history", func(t *testing.T) {
		for _, input := range []any{nil, "history", 3.0, map[string]any{"role": "user"}} {
			res := ValidateConversationHistory(input)
			assert.True(t, res.Valid)
			assert.NotNil(t, res.Sanitized)
			assert.Empty(t, res.Sanitized)
		}
	})

	t.Run("too many items", func(t *testing.T) {
		items := make([]any, 51)
		for i := range items {
			items[i] = map[string]any{"role": "user", "content": "x"}
		}
		res := ValidateConversationHistory(items)
		assert.False(t, res.Valid)
		require.NotNil(t, res.Err)
		assert.Equal(t, CodeTooLong, res.Err.Code)
		assert.Equal(t, "Conversation history exceeds maximum length", res.Error())
		assert.Empty(t, res.Sanitized)
	})

	t.Run("exactly max items", func(t *testing.T) {
		items := make([]any, 50)
		for i := range items {
			items[i] = map[string]any{"role": "user", "content": "x"}
		}
		res := ValidateConversationHistory(items)
		assert.True(t, res.Valid)
		assert.Len(t, res.Sanitized, 50)
	})

	t.Run("drops malformed entries", func(t *testing.T) {
		res := ValidateConversationHistory([]any{
			map[string]any{"content": "missing role"},
			map[string]any{"role": "user", "content": "  hello  "},
			map[string]any{"role": "model", "content": "\uFEFFhey\u00A0"},
		})
		assert.True(t, res.Valid)
		assert.Equal(t, []HistoryEntry{
			{Role: "user", Content: "hello"},
			{Role: "model", Content: "hey"},
		}, res.Sanitized)
	})

	t.Run("lenient filter keeps order", func(t *testing.T) {
		res := ValidateConversationHistory([]any{
			"not an object",
			nil,
			map[string]any{"role": "system", "content": "bad role"},
			map[string]any{"role": "assistant", "content": 12},
			map[string]any{"role": "model", "content": ""},
			map[string]any{"role": "user", "content": strings.Repeat("x", 5001)},
			map[string]any{"role": "assistant", "content": "first"},
			map[string]any{"role": "model", "content": strings.Repeat("y", 5000)},
			map[string]any{"role": "user", "content": "   "},
		})
		assert.True(t, res.Valid)
		require.Len(t, res.Sanitized, 3)
		assert.Equal(t, HistoryEntry{Role: "assistant", Content: "first"}, res.Sanitized[0])
		assert.Equal(t, "model", res.Sanitized[1].Role)
		assert.Equal(t, HistoryEntry{Role: "user", Content: ""}, res.Sanitized[2])
	})

	t.Run("decoded JSON body", func(t *testing.T) {
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"conversationHistory":[
			{"role":"user","content":"hi"},
			{"role":"assistant","content":"hello","extra":true},
			{"role":"user"}
		]}`), &body))

		res := ValidateConversationHistory(body["conversationHistory"])
		assert.True(t, res.Valid)
		assert.Equal(t, []HistoryEntry{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		}, res.Sanitized)
	})

	t.Run("typed entries", func(t *testing.T) {
		res := ValidateConversationHistory([]HistoryEntry{
			{Role: "user", Content: " a "},
			{Role: "robot", Content: "b"},
		})
		assert.True(t, res.Valid)
		assert.Equal(t, []HistoryEntry{{Role: "user", Content: "a"}}, res.Sanitized)
	})
}

func TestValidator_CustomLimits(t *testing.T) {
	v, err := New(Limits{MessageMaxLength: 5, PromptMaxLength: 3, HistoryMaxItems: 1, HistoryContentMaxLength: 2})
	require.NoError(t, err)

	res := v.ValidateMessage("123456")
	require.False(t, res.Valid)
	assert.Equal(t, "Message exceeds maximum length of 5 characters", res.Error())

	assert.False(t, v.ValidatePrompt("abcd").Valid)
	assert.True(t, v.ValidatePrompt("abc").Valid)

	assert.False(t, v.ValidateConversationHistory([]any{nil, nil}).Valid)

	h := v.ValidateConversationHistory([]any{map[string]any{"role": "user", "content": "abc"}})
	assert.True(t, h.Valid)
	assert.Empty(t, h.Sanitized)
}

func TestNew_InvalidLimits(t *testing.T) {
	_, err := New(Limits{MessageMaxLength: -1})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	v, err := NewFromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMessageMaxLength, v.Limits().MessageMaxLength)

	section := &config.ValidationConfig{MessageMaxLength: 100}
	section.SetDefaults()
	v, err = NewFromConfig(section)
	require.NoError(t, err)
	assert.Equal(t, 100, v.Limits().MessageMaxLength)
	assert.Equal(t, DefaultPromptMaxLength, v.Limits().PromptMaxLength)
}

func TestError(t *testing.T) {
	res := ValidateMessage("")
	err := res.AsError()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, IsCode(err, CodeEmpty))
	assert.False(t, IsCode(err, CodeTooLong))
	assert.False(t, IsCode(errors.New("other"), CodeEmpty))

	assert.NoError(t, ValidateMessage("ok").AsError())
}
