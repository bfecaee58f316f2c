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
	"fmt"
	"log/slog"
	"os"

	"github.com/kadirpekel/chatguard/pkg/config"
	"github.com/kadirpekel/chatguard/pkg/config/provider"
)

// defaultConfigFile is used when --config is not given and the file exists.
const defaultConfigFile = "chatguard.yaml"

// loadConfig resolves the configuration from the global flags.
// Without a config path the defaults are used and the loader is nil.
func loadConfig(ctx context.Context, cli *CLI, opts ...config.LoaderOption) (*config.Config, *config.Loader, error) {
	typ, err := provider.ParseType(cli.ConfigType)
	if err != nil {
		return nil, nil, err
	}

	path := cli.Config
	if path == "" && typ == provider.TypeFile && fileExists(defaultConfigFile) {
		path = defaultConfigFile
	}

	if path == "" {
		if typ != provider.TypeFile {
			return nil, nil, fmt.Errorf("--config is required for the %s provider", typ)
		}
		slog.Info("No config file, using defaults")
		return config.Default(), nil, nil
	}

	if typ == provider.TypeFile {
		config.LoadDotEnvForConfig(path)
	}

	cfg, loader, err := config.LoadConfig(ctx, provider.ProviderConfig{
		Type:      typ,
		Path:      path,
		Endpoints: cli.ConfigEndpoints,
	}, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded configuration", "provider", typ, "path", path)
	return cfg, loader, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
