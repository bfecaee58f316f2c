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

package upstream

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the operation has no URL.
var ErrNotConfigured = errors.New("upstream not configured")

// Error is a non-2xx upstream response.
type Error struct {
	Op         string
	StatusCode int
	Body       string

	// Err is the retry error when the retry budget was exhausted.
	Err error
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream %s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
