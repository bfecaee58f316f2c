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
	"errors"
	"fmt"
)

// Code classifies a validation failure.
type Code string

const (
	// CodeInvalidType means the field is missing or has the wrong shape.
	CodeInvalidType Code = "InvalidType"

	// CodeEmpty means the field is blank after trimming.
	CodeEmpty Code = "Empty"

	// CodeTooLong means the field exceeds its size bound.
	CodeTooLong Code = "TooLong"

	// CodeDangerousContent means the field matched a dangerous pattern.
	CodeDangerousContent Code = "DangerousContent"

	// CodeRateLimited is reserved for throttled requests. The validator
	// never produces it.
	CodeRateLimited Code = "RateLimited"
)

// Field names used in errors.
const (
	FieldMessage = "message"
	FieldHistory = "conversationHistory"
	FieldPrompt  = "prompt"
)

// ErrValidation is the sentinel all validation errors unwrap to.
var ErrValidation = errors.New("validation failed")

// Error describes why a field was rejected.
type Error struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"error"`

	// Pattern names the dangerous pattern that matched, if any.
	Pattern string `json:"-"`
}

// Error returns the human readable message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns ErrValidation.
func (e *Error) Unwrap() error {
	return ErrValidation
}

func newError(field string, code Code, format string, args ...any) *Error {
	return &Error{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsCode reports whether err is a validation error with the given code.
func IsCode(err error, code Code) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// Result is the outcome of validating one field.
// Sanitized holds the zero value unless Valid is true.
type Result[T any] struct {
	Valid     bool
	Sanitized T
	Err       *Error
}

// Error returns the failure message, or "" when valid.
func (r Result[T]) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

// AsError returns the failure as an error, or nil when valid.
func (r Result[T]) AsError() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

func ok[T any](v T) Result[T] {
	return Result[T]{Valid: true, Sanitized: v}
}

func fail[T any](err *Error) Result[T] {
	return Result[T]{Err: err}
}

// HistoryEntry is one prior conversation turn.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
