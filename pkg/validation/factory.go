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
	"github.com/kadirpekel/chatguard/pkg/config"
)

// NewFromConfig creates a Validator from the validation section.
// A nil section yields default limits.
func NewFromConfig(cfg *config.ValidationConfig) (*Validator, error) {
	if cfg == nil {
		return Default(), nil
	}
	return New(Limits{
		MessageMaxLength:        cfg.MessageMaxLength,
		PromptMaxLength:         cfg.PromptMaxLength,
		HistoryMaxItems:         cfg.HistoryMaxItems,
		HistoryContentMaxLength: cfg.HistoryContentMaxLength,
	})
}
