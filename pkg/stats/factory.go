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

package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/kadirpekel/chatguard/pkg/config"
)

// Pruner is implemented by stores that keep expired buckets until told
// otherwise.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// NewStoreFromConfig creates the Store selected by the stats section.
// If stats are disabled, returns a NopStore.
//
// Example config:
//
//	databases:
//	  default:
//	    driver: sqlite
//	    database: ./.chatguard/stats.db
//
//	stats:
//	  backend: sql
//	  sql_database: default
func NewStoreFromConfig(ctx context.Context, cfg *config.Config, pool *config.DBPool) (Store, error) {
	statsCfg := cfg.Stats
	if statsCfg == nil || !statsCfg.IsEnabled() {
		return NopStore{}, nil
	}

	switch statsCfg.Backend {
	case config.StatsBackendMemory, "":
		return NewMemoryStore(WithMemoryTrackIdentifiers(statsCfg.TrackIdentifiers)), nil

	case config.StatsBackendRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis section is required for redis stats backend")
		}
		rdb := NewRedisClient(cfg.Redis)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return NewRedisStore(rdb,
			WithRedisPrefix(cfg.Redis.Prefix),
			WithRedisTTL(statsCfg.TTL),
			WithRedisTrackIdentifiers(statsCfg.TrackIdentifiers),
			withOwnedClient(),
		), nil

	case config.StatsBackendSQL:
		if pool == nil {
			return nil, fmt.Errorf("DBPool is required for SQL stats backend")
		}

		dbCfg, ok := cfg.GetDatabase(statsCfg.SQLDatabase)
		if !ok {
			return nil, fmt.Errorf("database %q not found", statsCfg.SQLDatabase)
		}

		db, err := pool.Get(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		return NewSQLStore(ctx, db, dbCfg.Dialect())

	default:
		return nil, fmt.Errorf("unknown stats backend: %s", statsCfg.Backend)
	}
}
