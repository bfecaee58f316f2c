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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/chatguard/pkg/auth"
	"github.com/kadirpekel/chatguard/pkg/config"
	"github.com/kadirpekel/chatguard/pkg/observability"
	"github.com/kadirpekel/chatguard/pkg/ratelimit"
	"github.com/kadirpekel/chatguard/pkg/stats"
	"github.com/kadirpekel/chatguard/pkg/upstream"
	"github.com/kadirpekel/chatguard/pkg/validation"
)

// Options configures a Server. Only Config is required; the remaining
// fields replace components that would otherwise be built from it.
type Options struct {
	Config *config.Config

	// Loader enables hot reload when Watch is set.
	Loader *config.Loader
	Watch  bool

	Clock          ratelimit.Clock
	Stats          stats.Store
	Observability  *observability.Manager
	TokenValidator auth.TokenValidator
	UpstreamOpts   []upstream.Option
}

// Server wires the guard chain to an HTTP listener.
type Server struct {
	cfg    atomic.Pointer[config.Config]
	loader *config.Loader
	watch  bool
	clock  ratelimit.Clock

	limiter   *ratelimit.FixedWindowLimiter
	limitOn   atomic.Bool
	validator atomic.Pointer[validation.Validator]
	upstream  atomic.Pointer[upstream.Client]

	stats        stats.Store
	obs          *observability.Manager
	tokens       auth.TokenValidator
	pool         *config.DBPool
	upstreamOpts []upstream.Option

	closers []func(context.Context) error

	handler    http.Handler
	httpServer *http.Server
}

// New builds every component from opts.Config.
func New(ctx context.Context, opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.SetDefaults()

	s := &Server{
		loader:       opts.Loader,
		watch:        opts.Watch,
		clock:        opts.Clock,
		pool:         config.NewDBPool(),
		upstreamOpts: opts.UpstreamOpts,
	}
	if s.clock == nil {
		s.clock = ratelimit.SystemClock{}
	}
	s.cfg.Store(cfg)
	s.closers = append(s.closers, func(context.Context) error { return s.pool.Close() })

	if err := s.init(ctx, opts); err != nil {
		_ = s.close(context.Background())
		return nil, err
	}

	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           s.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	if s.loader != nil && s.watch {
		s.loader.SetOnChange(func(newCfg *config.Config) {
			if err := s.ApplyConfig(newCfg); err != nil {
				slog.Error("Failed to apply reloaded config", "error", err)
			}
		})
	}

	return s, nil
}

func (s *Server) init(ctx context.Context, opts Options) error {
	cfg := s.cfg.Load()

	s.obs = opts.Observability
	if s.obs == nil {
		obs, err := observability.NewManager(ctx, cfg.Observability)
		if err != nil {
			return fmt.Errorf("observability: %w", err)
		}
		s.obs = obs
		s.closers = append(s.closers, obs.Shutdown)
	}

	limiter, err := ratelimit.NewFixedWindowLimiter(ratelimit.ConfigFrom(cfg.RateLimiting), ratelimit.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	s.limiter = limiter
	s.limitOn.Store(cfg.RateLimiting.IsEnabled())

	validator, err := validation.NewFromConfig(cfg.Validation)
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	s.validator.Store(validator)

	client, err := s.newUpstream(cfg)
	if err != nil {
		return err
	}
	s.upstream.Store(client)

	s.stats = opts.Stats
	if s.stats == nil {
		store, err := stats.NewStoreFromConfig(ctx, cfg, s.pool)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		s.stats = store
	}
	s.closers = append(s.closers, func(context.Context) error { return s.stats.Close() })

	s.tokens = opts.TokenValidator
	if s.tokens == nil {
		v, err := auth.NewValidatorFromConfig(ctx, cfg.Auth)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		if v != nil {
			s.tokens = v
			s.closers = append(s.closers, func(context.Context) error { v.Close(); return nil })
		}
	}

	return nil
}

func (s *Server) newUpstream(cfg *config.Config) (*upstream.Client, error) {
	opts := append([]upstream.Option{
		upstream.WithObserver(func(op string, d time.Duration, err error) {
			s.obs.Recorder().RecordUpstream(context.Background(), op, d, err)
		}),
	}, s.upstreamOpts...)

	client, err := upstream.New(cfg.Upstream, opts...)
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}
	return client, nil
}

// Handler returns the HTTP handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	return s.cfg.Load()
}

// Limiter returns the rate limiter.
func (s *Server) Limiter() *ratelimit.FixedWindowLimiter {
	return s.limiter
}

// ApplyConfig swaps the hot-reloadable parts of the guard: limiter
// settings, validation limits and the upstream client. Other sections take
// effect on restart.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	validator, err := validation.NewFromConfig(cfg.Validation)
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	client, err := s.newUpstream(cfg)
	if err != nil {
		return err
	}
	if err := s.limiter.UpdateConfig(ratelimit.ConfigFrom(cfg.RateLimiting)); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	old := s.cfg.Swap(cfg)
	s.limitOn.Store(cfg.RateLimiting.IsEnabled())
	s.validator.Store(validator)
	s.upstream.Store(client)

	if old != nil && old.Server.Address() != cfg.Server.Address() {
		slog.Warn("Server address changed, restart required", "old", old.Server.Address(), "new", cfg.Server.Address())
	}

	slog.Info("Guard configuration applied",
		"rate_limiting", cfg.RateLimiting.IsEnabled(),
		"window", cfg.RateLimiting.Window,
		"max_requests", cfg.RateLimiting.MaxRequests)
	return nil
}

// Run listens on the configured address and blocks until ctx is cancelled
// or a component fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		_ = s.close(context.Background())
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln together with the limiter janitor, the
// stats pruner and the config watcher. On return every component is shut
// down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server starting", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Load().Server.ShutdownTimeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		slog.Info("HTTP server shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return s.limiter.RunJanitor(gctx)
	})

	if pruner, ok := s.stats.(stats.Pruner); ok {
		g.Go(func() error {
			return s.runPruner(gctx, pruner)
		})
	}

	if s.loader != nil && s.watch {
		g.Go(func() error {
			return s.loader.Watch(gctx)
		})
	}

	err := g.Wait()
	if cerr := s.close(context.Background()); cerr != nil {
		slog.Warn("Errors during shutdown", "error", cerr)
	}
	return err
}

func (s *Server) runPruner(ctx context.Context, pruner stats.Pruner) error {
	interval := time.Hour
	if ttl := s.cfg.Load().Stats.TTL; ttl > 0 && ttl < interval {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			before := s.clock.Now().Add(-s.cfg.Load().Stats.TTL)
			n, err := pruner.Prune(ctx, before)
			if err != nil {
				slog.Warn("Failed to prune stats", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("Pruned stats buckets", "rows", n)
			}
		}
	}
}

// close releases components in reverse creation order.
func (s *Server) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if s.loader != nil {
		if err := s.loader.Close(); err != nil {
			errs = append(errs, err)
		}
		s.loader = nil
	}
	return errors.Join(errs...)
}

// Close releases all components without serving.
func (s *Server) Close() error {
	return s.close(context.Background())
}
