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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kadirpekel/chatguard/pkg/validation"
)

// errInvalidInput makes the process exit non-zero without repeating the report.
var errInvalidInput = errors.New("input rejected")

// CheckCmd runs the validator configured by --config on one value.
type CheckCmd struct {
	Kind  string `arg:"" help:"What to validate: message, prompt or history." enum:"message,prompt,history"`
	Value string `arg:"" optional:"" help:"Value to validate. History is a JSON array. Reads stdin when omitted or '-'."`
}

// checkOutput is the JSON report.
type checkOutput struct {
	Valid     bool              `json:"valid"`
	Kind      string            `json:"kind"`
	Sanitized any               `json:"sanitized,omitempty"`
	Error     *validation.Error `json:"error,omitempty"`
}

func (c *CheckCmd) Run(cli *CLI) error {
	v := validation.Default()
	if cli.Config != "" {
		cfg, loader, err := loadConfig(context.Background(), cli)
		if err != nil {
			return err
		}
		if loader != nil {
			defer loader.Close()
		}
		if v, err = validation.NewFromConfig(cfg.Validation); err != nil {
			return err
		}
	}

	value := c.Value
	if value == "" || value == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		value = string(data)
	}

	out, err := runCheck(v, c.Kind, value)
	if err != nil {
		return err
	}
	writeIndentedJSON(os.Stdout, out)
	if !out.Valid {
		return errInvalidInput
	}
	return nil
}

func runCheck(v *validation.Validator, kind, value string) (checkOutput, error) {
	out := checkOutput{Kind: kind}

	switch kind {
	case "message":
		r := v.ValidateMessage(value)
		out.Valid, out.Error = r.Valid, r.Err
		if r.Valid {
			out.Sanitized = r.Sanitized
		}
	case "prompt":
		r := v.ValidatePrompt(value)
		out.Valid, out.Error = r.Valid, r.Err
		if r.Valid {
			out.Sanitized = r.Sanitized
		}
	case "history":
		var history any
		if err := json.Unmarshal([]byte(value), &history); err != nil {
			return out, fmt.Errorf("history must be a JSON array: %w", err)
		}
		r := v.ValidateConversationHistory(history)
		out.Valid, out.Error = r.Valid, r.Err
		if r.Valid {
			out.Sanitized = r.Sanitized
		}
	default:
		return out, fmt.Errorf("unknown kind %q", kind)
	}
	return out, nil
}
