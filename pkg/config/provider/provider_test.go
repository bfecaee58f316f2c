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

package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"", TypeFile, false},
		{"FILE", TypeFile, false},
		{"consul", TypeConsul, false},
		{" etcd ", TypeEtcd, false},
		{"zk", TypeZookeeper, false},
		{"zookeeper", TypeZookeeper, false},
		{"s3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"missing path", ProviderConfig{Type: TypeFile}},
		{"unknown type", ProviderConfig{Type: "s3", Path: "x"}},
		{"etcd without endpoints", ProviderConfig{Type: TypeEtcd, Path: "/chatguard"}},
		{"zookeeper without endpoints", ProviderConfig{Type: TypeZookeeper, Path: "/chatguard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	p, err := New(ProviderConfig{Type: TypeFile, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.Equal(t, TypeFile, p.Type())

	data, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := p.Watch(ctx)
	require.NoError(t, err)

	t.Run("signals on write", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
		select {
		case <-changes:
		case <-time.After(3 * time.Second):
			t.Fatal("no change signalled")
		}
	})

	t.Run("ignores sibling files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
		select {
		case <-changes:
			t.Fatal("unexpected change signal")
		case <-time.After(300 * time.Millisecond):
		}
	})

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-changes
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileProvider_LoadMissing(t *testing.T) {
	p, err := NewFileProvider(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	_, err = p.Load(context.Background())
	assert.Error(t, err)
}
