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
	"encoding/json"
	"regexp"
	"strings"
)

var (
	paragraphBreak = regexp.MustCompile(`\n\n+`)
	jsonArray      = regexp.MustCompile(`(?s)\[.*\]`)
)

// SplitMessages splits generated text into chat bubbles at blank lines.
// Parts are trimmed and empty parts dropped. If nothing is left the whole
// text is returned as a single message.
func SplitMessages(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	messages := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			messages = append(messages, p)
		}
	}
	if len(messages) == 0 {
		return []string{text}
	}
	return messages
}

// ChipCount is the number of suggestion chips a valid response carries.
const ChipCount = 2

// ParseChips extracts the suggestion chips from generated text: the outermost
// JSON array must hold exactly ChipCount strings.
func ParseChips(text string) ([]string, bool) {
	match := jsonArray.FindString(text)
	if match == "" {
		return nil, false
	}

	var chips []string
	if err := json.Unmarshal([]byte(match), &chips); err != nil {
		return nil, false
	}
	if len(chips) != ChipCount {
		return nil, false
	}
	return chips, true
}
