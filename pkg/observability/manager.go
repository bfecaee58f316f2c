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

package observability

import (
	"context"
	"errors"
	"net/http"
)

// Manager owns the tracer and metrics built from a Config.
type Manager struct {
	tracer  *Tracer
	metrics *Metrics
	path    string
}

// NewManager initializes tracing and metrics. Disabled parts stay nil and
// their methods become no-ops.
func NewManager(ctx context.Context, cfg *Config, opts ...TracerOption) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()

	tracer, err := NewTracer(ctx, &cfg.Tracing, opts...)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(&cfg.Metrics)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, err
	}

	return &Manager{tracer: tracer, metrics: metrics, path: cfg.Metrics.Endpoint}, nil
}

// NoopManager returns a Manager with tracing and metrics disabled.
func NoopManager() *Manager {
	return &Manager{path: DefaultMetricsPath}
}

// Tracer returns the tracer, nil when tracing is disabled.
func (m *Manager) Tracer() *Tracer {
	return m.tracer
}

// Recorder returns the metrics recorder or a no-op.
func (m *Manager) Recorder() Recorder {
	if m.metrics == nil {
		return NoopRecorder{}
	}
	return m.metrics
}

// MetricsEnabled reports whether a metrics endpoint should be served.
func (m *Manager) MetricsEnabled() bool {
	return m.metrics != nil
}

// MetricsPath is the path the metrics handler is mounted on.
func (m *Manager) MetricsPath() string {
	return m.path
}

// MetricsHandler serves Prometheus metrics.
func (m *Manager) MetricsHandler() http.Handler {
	return m.metrics.Handler()
}

// Middleware returns HTTPMiddleware bound to this manager.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return HTTPMiddleware(m.tracer, m.Recorder())
}

// Shutdown flushes tracing and metrics.
func (m *Manager) Shutdown(ctx context.Context) error {
	return errors.Join(m.tracer.Shutdown(ctx), m.metrics.Shutdown(ctx))
}
