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

import "regexp"

// Pattern is a named dangerous-content matcher.
type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// MatchString reports whether s contains the pattern.
func (p Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// String returns the regular expression source.
func (p Pattern) String() string {
	return p.re.String()
}

var dangerousPatterns = []Pattern{
	{Name: "script_tag", re: regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)},
	{Name: "javascript_uri", re: regexp.MustCompile(`(?i)javascript:`)},
	{Name: "event_handler", re: regexp.MustCompile(`(?i)on\w+\s*=`)},
	{Name: "iframe_tag", re: regexp.MustCompile(`(?i)<iframe`)},
}

// DangerousPatterns returns a copy of the patterns scanned by ValidateMessage.
func DangerousPatterns() []Pattern {
	out := make([]Pattern, len(dangerousPatterns))
	copy(out, dangerousPatterns)
	return out
}

// matchDangerous returns the first pattern found in s.
func matchDangerous(s string) (Pattern, bool) {
	for _, p := range dangerousPatterns {
		if p.MatchString(s) {
			return p, true
		}
	}
	return Pattern{}, false
}
