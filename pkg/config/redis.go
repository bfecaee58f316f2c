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

package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	// Addr is host:port.
	// Default: localhost:6379
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty" jsonschema:"title=Address,default=localhost:6379"`

	// Username for Redis ACL authentication.
	Username string `yaml:"username,omitempty" json:"username,omitempty" jsonschema:"title=Username"`

	// Password for Redis authentication.
	Password string `yaml:"password,omitempty" json:"password,omitempty" jsonschema:"title=Password"`

	// DB is the logical database index.
	DB int `yaml:"db,omitempty" json:"db,omitempty" jsonschema:"title=DB,minimum=0"`

	// Prefix namespaces every key.
	// Default: chatguard:stats
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty" jsonschema:"title=Key Prefix,default=chatguard:stats"`

	// DialTimeout bounds connection setup.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty" jsonschema:"title=Dial Timeout,type=string,default=5s"`
}

// SetDefaults applies default values to RedisConfig.
func (c *RedisConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	c.Prefix = strings.Trim(c.Prefix, ":")
	if c.Prefix == "" {
		c.Prefix = "chatguard:stats"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Validate checks the Redis configuration.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DB < 0 {
		return fmt.Errorf("db must be non-negative")
	}
	return nil
}
