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

package config

import "fmt"

// ValidationConfig bounds untrusted input sizes. Lengths count characters.
type ValidationConfig struct {
	// MessageMaxLength bounds chat messages.
	// Default: 2000
	MessageMaxLength int `yaml:"message_max_length,omitempty" json:"message_max_length,omitempty" jsonschema:"title=Message Max Length,minimum=1,default=2000"`

	// PromptMaxLength bounds generation prompts.
	// Default: 3000
	PromptMaxLength int `yaml:"prompt_max_length,omitempty" json:"prompt_max_length,omitempty" jsonschema:"title=Prompt Max Length,minimum=1,default=3000"`

	// HistoryMaxItems bounds the conversation history length.
	// Default: 50
	HistoryMaxItems int `yaml:"history_max_items,omitempty" json:"history_max_items,omitempty" jsonschema:"title=History Max Items,minimum=1,default=50"`

	// HistoryContentMaxLength bounds each history entry.
	// Default: 5000
	HistoryContentMaxLength int `yaml:"history_content_max_length,omitempty" json:"history_content_max_length,omitempty" jsonschema:"title=History Content Max Length,minimum=1,default=5000"`
}

// SetDefaults applies default values to ValidationConfig.
func (c *ValidationConfig) SetDefaults() {
	if c.MessageMaxLength == 0 {
		c.MessageMaxLength = 2000
	}
	if c.PromptMaxLength == 0 {
		c.PromptMaxLength = 3000
	}
	if c.HistoryMaxItems == 0 {
		c.HistoryMaxItems = 50
	}
	if c.HistoryContentMaxLength == 0 {
		c.HistoryContentMaxLength = 5000
	}
}

// Validate checks the validation limits.
func (c *ValidationConfig) Validate() error {
	if c.MessageMaxLength <= 0 {
		return fmt.Errorf("message_max_length must be positive")
	}
	if c.PromptMaxLength <= 0 {
		return fmt.Errorf("prompt_max_length must be positive")
	}
	if c.HistoryMaxItems <= 0 {
		return fmt.Errorf("history_max_items must be positive")
	}
	if c.HistoryContentMaxLength <= 0 {
		return fmt.Errorf("history_content_max_length must be positive")
	}
	return nil
}
