// Copyright 2026 fanjia1024
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

package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript 仅当值仍是本次 token 时才删除，避免误删过期后被他人重新占用的 key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions redis 占用器配置
type RedisOptions struct {
	Addr     string
	DB       int
	Password string
	Prefix   string
	TTL      time.Duration
}

// RedisClaimer 基于 SET NX PX 的跨实例占用
type RedisClaimer struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClaimer 连接 redis 并校验可用
func NewRedisClaimer(ctx context.Context, opts RedisOptions) (*RedisClaimer, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB, Password: opts.Password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisClaimerWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisClaimerWithClient 使用已有 client
func NewRedisClaimerWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisClaimer{client: client, prefix: prefix, ttl: ttl}
}

// Claim 占用 key
func (r *RedisClaimer) Claim(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	full := r.prefix + key
	ok, err := r.client.SetNX(ctx, full, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, key)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, r.client, []string{full}, token).Err()
		})
	}, nil
}

// Close 关闭 redis 连接
func (r *RedisClaimer) Close() error {
	return r.client.Close()
}
