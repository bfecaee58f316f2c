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
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kadirpekel/chatguard/pkg/config"
)

// RedisStore keeps counters in Redis hashes:
//
//	<prefix>:total                 cumulative, never expires
//	<prefix>:minute:<YYYYMMDDhhmm> per minute, expires after ttl
//	<prefix>:route:<route>         cumulative per route
//	<prefix>:id:<identifier>       per identifier, expires after ttl (optional)
//
// Each hash holds one field per counter (allowed, denied, ...).
type RedisStore struct {
	rdb *redis.Client

	prefix   string
	ttl      time.Duration
	trackIDs bool
	owned    bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithRedisTTL sets the expiry of bucketed and per-identifier keys.
// Zero disables expiry.
func WithRedisTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = d }
}

// WithRedisTrackIdentifiers also counts per identifier.
func WithRedisTrackIdentifiers(track bool) RedisOption {
	return func(s *RedisStore) { s.trackIDs = track }
}

// withOwnedClient makes Close close the client.
func withOwnedClient() RedisOption {
	return func(s *RedisStore) { s.owned = true }
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "chatguard:stats",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisClient creates a client from the redis section.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
}

func (s *RedisStore) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStore) bucketKey(at time.Time) string {
	return s.prefix + ":minute:" + minuteBucket(at)
}

func (s *RedisStore) routeKey(route string) string {
	return s.prefix + ":route:" + route
}

func (s *RedisStore) identifierKey(id string) string {
	return s.prefix + ":id:" + id
}

// Record increments every hash the event belongs to in one pipeline.
func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := ev.Outcome.field()
	if field == "" {
		return fmt.Errorf("unknown outcome %q", ev.Outcome)
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	bucketKey := s.bucketKey(eventTime(ev))
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if route := strings.TrimSpace(ev.Route); route != "" {
		pipe.HIncrBy(ctx, s.routeKey(route), field, 1)
	}

	if s.trackIDs {
		if id := strings.TrimSpace(ev.Identifier); id != "" {
			idKey := s.identifierKey(id)
			pipe.HIncrBy(ctx, idKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, idKey, s.ttl)
			}
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record stats: %w", err)
	}
	return nil
}

// Snapshot reads the total hash and scans the route hashes.
func (s *RedisStore) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := newSnapshot()

	total, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return snap, fmt.Errorf("failed to read stats total: %w", err)
	}
	snap.Total = countersFromHash(total)

	routePrefix := s.routeKey("")
	iter := s.rdb.Scan(ctx, 0, routePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return snap, fmt.Errorf("failed to read %s: %w", key, err)
		}
		snap.ByRoute[strings.TrimPrefix(key, routePrefix)] = countersFromHash(fields)
	}
	if err := iter.Err(); err != nil {
		return snap, fmt.Errorf("failed to scan route stats: %w", err)
	}
	return snap, nil
}

// Close closes the client if the store created it.
func (s *RedisStore) Close() error {
	if s.owned && s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

// countersFromHash converts hash fields into Counters, skipping junk values.
func countersFromHash(fields map[string]string) Counters {
	var c Counters
	for field, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		c.addField(field, n)
	}
	return c
}

var _ Store = (*RedisStore)(nil)
