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
	"fmt"
	"os"

	"github.com/kadirpekel/chatguard/pkg/config"
	"github.com/kadirpekel/chatguard/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"

	DefaultLogLevel  = "info"
	DefaultLogFormat = logger.FormatSimple
)

// logSettings is the resolved logger configuration.
type logSettings struct {
	Level  string
	File   string
	Format string

	// Overridden reports whether flags or env fixed every setting, in
	// which case the config file's logger section is ignored.
	Overridden bool
}

// resolveLogSettings applies the priority CLI flag > env var > config file > default.
func resolveLogSettings(cliLevel, cliFile, cliFormat string, cfg *config.LoggerConfig) logSettings {
	pick := func(flag, env, fromConfig, def string) (string, bool) {
		if flag != "" {
			return flag, true
		}
		if v := os.Getenv(env); v != "" {
			return v, true
		}
		if fromConfig != "" {
			return fromConfig, false
		}
		return def, false
	}

	var cfgLevel, cfgFile, cfgFormat string
	if cfg != nil {
		cfgLevel, cfgFile, cfgFormat = cfg.Level, cfg.File, cfg.Format
	}

	level, levelSet := pick(cliLevel, LogLevelEnvVar, cfgLevel, DefaultLogLevel)
	file, fileSet := pick(cliFile, LogFileEnvVar, cfgFile, "")
	format, formatSet := pick(cliFormat, LogFormatEnvVar, cfgFormat, DefaultLogFormat)

	return logSettings{
		Level:      level,
		File:       file,
		Format:     format,
		Overridden: levelSet && fileSet && formatSet,
	}
}

// initLogger installs the default logger. The returned cleanup is never nil.
func initLogger(s logSettings) (func(), error) {
	level, err := logger.ParseLevel(s.Level)
	if err != nil {
		return func() {}, fmt.Errorf("invalid log level: %w", err)
	}

	output := os.Stderr
	cleanup := func() {}
	if s.File != "" {
		file, closeFn, err := logger.OpenLogFile(s.File)
		if err != nil {
			return func() {}, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = closeFn
	}

	logger.Init(level, output, s.Format)
	return cleanup, nil
}

// applyConfigLogger re-initializes the logger from the config file's logger
// section for settings not fixed by flags or env.
func applyConfigLogger(cli *CLI, cfg *config.Config) (func(), error) {
	s := resolveLogSettings(cli.LogLevel, cli.LogFile, cli.LogFormat, cfg.Logger)
	if s.Overridden {
		return func() {}, nil
	}
	return initLogger(s)
}
