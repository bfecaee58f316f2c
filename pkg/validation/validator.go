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
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default limits.
const (
	DefaultMessageMaxLength        = 2000
	DefaultPromptMaxLength         = 3000
	DefaultHistoryMaxItems         = 50
	DefaultHistoryContentMaxLength = 5000
)

// AllowedRoles are the conversation roles kept by ValidateConversationHistory.
var AllowedRoles = []string{"user", "assistant", "model"}

// Limits bounds field sizes. Lengths count characters (runes), not bytes.
type Limits struct {
	MessageMaxLength        int
	PromptMaxLength         int
	HistoryMaxItems         int
	HistoryContentMaxLength int
}

// SetDefaults fills zero values with defaults.
func (l *Limits) SetDefaults() {
	if l.MessageMaxLength == 0 {
		l.MessageMaxLength = DefaultMessageMaxLength
	}
	if l.PromptMaxLength == 0 {
		l.PromptMaxLength = DefaultPromptMaxLength
	}
	if l.HistoryMaxItems == 0 {
		l.HistoryMaxItems = DefaultHistoryMaxItems
	}
	if l.HistoryContentMaxLength == 0 {
		l.HistoryContentMaxLength = DefaultHistoryContentMaxLength
	}
}

// Validate checks the limits.
func (l *Limits) Validate() error {
	switch {
	case l.MessageMaxLength <= 0:
		return fmt.Errorf("message max length must be positive")
	case l.PromptMaxLength <= 0:
		return fmt.Errorf("prompt max length must be positive")
	case l.HistoryMaxItems <= 0:
		return fmt.Errorf("history max items must be positive")
	case l.HistoryContentMaxLength <= 0:
		return fmt.Errorf("history content max length must be positive")
	}
	return nil
}

// Validator checks untrusted fields against fixed limits.
// It holds no mutable state.
type Validator struct {
	limits Limits
}

// New creates a Validator. Zero limits take defaults.
func New(limits Limits) (*Validator, error) {
	limits.SetDefaults()
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Validator{limits: limits}, nil
}

// Limits returns the active limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// ValidateMessage checks a chat message.
//
// The message must be a string that is non-blank after trimming, no longer
// than MessageMaxLength, and free of dangerous markup. Sanitized is the
// trimmed text.
func (v *Validator) ValidateMessage(message any) Result[string] {
	s, isString := message.(string)
	if !isString {
		return fail[string](newError(FieldMessage, CodeInvalidType, "Message must be a non-empty string"))
	}

	sanitized := trim(s)
	if sanitized == "" {
		return fail[string](newError(FieldMessage, CodeEmpty, "Message cannot be empty"))
	}

	if utf8.RuneCountInString(sanitized) > v.limits.MessageMaxLength {
		return fail[string](newError(FieldMessage, CodeTooLong,
			"Message exceeds maximum length of %d characters", v.limits.MessageMaxLength))
	}

	if p, found := matchDangerous(sanitized); found {
		err := newError(FieldMessage, CodeDangerousContent, "Message contains potentially dangerous content")
		err.Pattern = p.Name
		return fail[string](err)
	}

	return ok(sanitized)
}

// ValidatePrompt checks a generation prompt. It applies the same type, blank
// and length rules as ValidateMessage with PromptMaxLength, without the markup
// scan.
func (v *Validator) ValidatePrompt(prompt any) Result[string] {
	s, isString := prompt.(string)
	if !isString {
		return fail[string](newError(FieldPrompt, CodeInvalidType, "Prompt must be a non-empty string"))
	}

	sanitized := trim(s)
	if sanitized == "" {
		return fail[string](newError(FieldPrompt, CodeEmpty, "Prompt cannot be empty"))
	}

	if utf8.RuneCountInString(sanitized) > v.limits.PromptMaxLength {
		return fail[string](newError(FieldPrompt, CodeTooLong, "Prompt exceeds maximum length"))
	}

	return ok(sanitized)
}

// ValidateConversationHistory checks prior conversation turns.
//
// Anything that is not a list is treated as absent history and yields a valid
// empty result. A list longer than HistoryMaxItems is rejected. Otherwise
// malformed entries are dropped: an entry is kept only when it is an object
// with an allowed role and non-empty string content of at most
// HistoryContentMaxLength characters. Kept content is trimmed and order is
// preserved.
func (v *Validator) ValidateConversationHistory(history any) Result[[]HistoryEntry] {
	var items []any
	switch h := history.(type) {
	case []any:
		items = h
	case []map[string]any:
		items = make([]any, len(h))
		for i, m := range h {
			items[i] = m
		}
	case []HistoryEntry:
		items = make([]any, len(h))
		for i, e := range h {
			items[i] = e
		}
	default:
		return ok([]HistoryEntry{})
	}

	if len(items) > v.limits.HistoryMaxItems {
		return fail[[]HistoryEntry](newError(FieldHistory, CodeTooLong, "Conversation history exceeds maximum length"))
	}

	sanitized := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		role, content, isEntry := entryFields(item)
		if !isEntry || !isAllowedRole(role) {
			continue
		}
		if content == "" || utf8.RuneCountInString(content) > v.limits.HistoryContentMaxLength {
			continue
		}
		sanitized = append(sanitized, HistoryEntry{
			Role:    role,
			Content: trim(content),
		})
	}

	return ok(sanitized)
}

// entryFields extracts role and content from a decoded history item.
func entryFields(item any) (role, content string, isEntry bool) {
	switch e := item.(type) {
	case map[string]any:
		r, rok := e["role"].(string)
		c, cok := e["content"].(string)
		return r, c, rok && cok
	case HistoryEntry:
		return e.Role, e.Content, true
	case *HistoryEntry:
		if e == nil {
			return "", "", false
		}
		return e.Role, e.Content, true
	default:
		return "", "", false
	}
}

func isAllowedRole(role string) bool {
	for _, allowed := range AllowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

var defaultValidator = &Validator{limits: Limits{
	MessageMaxLength:        DefaultMessageMaxLength,
	PromptMaxLength:         DefaultPromptMaxLength,
	HistoryMaxItems:         DefaultHistoryMaxItems,
	HistoryContentMaxLength: DefaultHistoryContentMaxLength,
}}

// Default returns a Validator with default limits.
func Default() *Validator {
	return defaultValidator
}

// ValidateMessage validates with default limits.
func ValidateMessage(message any) Result[string] {
	return defaultValidator.ValidateMessage(message)
}

// ValidatePrompt validates with default limits.
func ValidatePrompt(prompt any) Result[string] {
	return defaultValidator.ValidatePrompt(prompt)
}

// ValidateConversationHistory validates with default limits.
func ValidateConversationHistory(history any) Result[[]HistoryEntry] {
	return defaultValidator.ValidateConversationHistory(history)
}

// trim strips leading and trailing whitespace the way browsers and Node do:
// the byte order mark counts as space, NEL does not.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		if r == '\uFEFF' {
			return true
		}
		return r != '\u0085' && unicode.IsSpace(r)
	})
}
