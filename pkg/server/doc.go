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

// Package server is the chatguard HTTP front end.
//
// Every API request passes the same guard chain before anything is
// forwarded upstream:
//
//	CORS -> optional JWT identity -> fixed-window rate limit -> input validation -> upstream
//
// Rejections are answered locally: 429 for throttled clients and 400 for
// invalid input. Each outcome is counted in the stats store and the
// metrics recorder.
package server
