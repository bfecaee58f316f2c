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

// Package validation gates untrusted text before it is embedded in an
// upstream prompt.
//
// Three entry points cover the fields a chat proxy receives:
//
//   - ValidateMessage: trimmed, bounded, and scanned for dangerous markup
//   - ValidateConversationHistory: bounded in length and filtered leniently
//   - ValidatePrompt: trimmed and bounded, no markup scan
//
// Inputs are decoded JSON values, so a missing field (nil) or a value of the
// wrong JSON type is reported as InvalidType rather than causing a panic:
//
//	var body map[string]any
//	_ = json.NewDecoder(r.Body).Decode(&body)
//
//	res := validation.ValidateMessage(body["message"])
//	if !res.Valid {
//	    // res.Err.Code, res.Err.Message
//	}
//
// Failures are returned as values. Nothing in this package performs I/O and a
// Validator is safe for concurrent use.
//
// The markup scan is a heuristic deny list, not an HTML sanitizer.
package validation
