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

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			_, _ = w.Write([]byte(claims.Subject))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"missing", "", "", true},
		{"bearer", "Bearer abc", "abc", false},
		{"case insensitive scheme", "bearer abc", "abc", false},
		{"basic scheme", "Basic abc", "", true},
		{"no token", "Bearer ", "", true},
		{"no separator", "Bearerabc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMiddleware_Optional(t *testing.T) {
	a := newTestAuthority(t)
	handler := Middleware(a.validator, false)(claimsEcho())

	t.Run("anonymous passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("valid token sets claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.Header.Set("Authorization", "Bearer "+a.token(t, "alice", nil))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "Unauthorized")
	})
}

func TestMiddleware_Required(t *testing.T) {
	a := newTestAuthority(t)
	handler := Middleware(a.validator, true)(claimsEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_NilValidator(t *testing.T) {
	handler := Middleware(nil, true)(claimsEcho())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthAndRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		claims  *Claims
		handler http.Handler
		want    int
	}{
		{"auth without claims", nil, RequireAuth(ok), http.StatusUnauthorized},
		{"auth with claims", &Claims{Subject: "u"}, RequireAuth(ok), http.StatusNoContent},
		{"role without claims", nil, RequireRole("operator")(ok), http.StatusUnauthorized},
		{"role mismatch", &Claims{Subject: "u", Role: "user"}, RequireRole("operator")(ok), http.StatusForbidden},
		{"role match", &Claims{Subject: "u", Role: "admin"}, RequireRole("operator", "admin")(ok), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/ratelimit/x", nil)
			if tt.claims != nil {
				req = req.WithContext(ContextWithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIdentifier(t *testing.T) {
	fn := Identifier(func(*http.Request) string { return "10.0.0.1" })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "10.0.0.1", fn(req))

	ctx := ContextWithClaims(context.Background(), &Claims{Subject: "bob"})
	assert.Equal(t, "sub:bob", fn(req.WithContext(ctx)))

	ctx = ContextWithClaims(context.Background(), &Claims{})
	assert.Equal(t, "10.0.0.1", fn(req.WithContext(ctx)))
}
