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
	"os/signal"
	"syscall"

	"github.com/kadirpekel/chatguard/pkg/server"
)

// ServeCmd starts the guard server.
type ServeCmd struct {
	Host  string `help:"Host to bind (overrides config)."`
	Port  int    `help:"Port to listen on (overrides config)."`
	Watch bool   `help:"Watch the config source and apply changes without restart."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, loader, err := loadConfig(ctx, cli)
	if err != nil {
		return err
	}

	cleanup, err := applyConfigLogger(cli, cfg)
	if err != nil {
		if loader != nil {
			_ = loader.Close()
		}
		return err
	}
	defer cleanup()

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Watch && loader == nil {
		slog.Warn("--watch ignored: no config source")
	}

	srv, err := server.New(ctx, server.Options{
		Config: cfg,
		Loader: loader,
		Watch:  c.Watch,
	})
	if err != nil {
		if loader != nil {
			_ = loader.Close()
		}
		return fmt.Errorf("failed to create server: %w", err)
	}

	printStartup(cfg.Server.Address(), srv)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}

func printStartup(addr string, srv *server.Server) {
	cfg := srv.Config()

	fmt.Printf("\nchatguard %s ready\n", version())
	fmt.Printf("   Chat:        http://%s%s\n", addr, server.PathChat)
	fmt.Printf("   Chips:       http://%s%s\n", addr, server.PathChips)
	fmt.Printf("   Health:      http://%s%s\n", addr, server.PathHealth)
	if cfg.Stats.Expose {
		fmt.Printf("   Stats:       http://%s%s\n", addr, server.PathStats)
	}
	if cfg.RateLimiting.IsEnabled() {
		fmt.Printf("   Rate limit:  %d requests / %s\n", cfg.RateLimiting.MaxRequests, cfg.RateLimiting.Window)
	} else {
		fmt.Printf("   Rate limit:  disabled\n")
	}
	if cfg.Stats.IsEnabled() {
		fmt.Printf("   Stats:       %s backend\n", cfg.Stats.Backend)
	}
	if cfg.Observability.Tracing.Enabled {
		fmt.Printf("   Tracing:     %s (%s)\n", cfg.Observability.Tracing.Exporter, cfg.Observability.Tracing.Endpoint)
	}
	if cfg.Observability.Metrics.Enabled {
		fmt.Printf("   Metrics:     http://%s%s\n", addr, cfg.Observability.Metrics.Endpoint)
	}
	if !cfg.Upstream.HasChat() {
		fmt.Printf("   Warning:     no chat upstream configured\n")
	}
	fmt.Println("\nPress Ctrl+C to stop")
}
