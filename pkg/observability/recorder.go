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
	"time"
)

// Recorder receives guard and request measurements.
type Recorder interface {
	// RecordHTTPRequest records one served request.
	RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration)

	// RecordDecision records a guard outcome for a route.
	RecordDecision(ctx context.Context, route, outcome string)

	// RecordUpstream records one upstream call.
	RecordUpstream(ctx context.Context, op string, duration time.Duration, err error)
}

// NoopRecorder discards all measurements.
type NoopRecorder struct{}

func (NoopRecorder) RecordHTTPRequest(context.Context, string, string, int, time.Duration) {}

func (NoopRecorder) RecordDecision(context.Context, string, string) {}

func (NoopRecorder) RecordUpstream(context.Context, string, time.Duration, error) {}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*Metrics)(nil)
)
