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

package einoext

import (
	"context"
	"fmt"

	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"

	"docqa/internal/pipeline/ingest"
	"docqa/internal/pipeline/query"
	"docqa/internal/storage/vector"
	"docqa/pkg/config"
)

// Backends 上传与问答两侧使用的索引后端
type Backends struct {
	Ingest ingest.IndexBackend
	Query  query.IndexBackend
	// Store file / memory 后端的向量存储；redis 时为 nil
	Store vector.Store
	close func() error
}

// Close 释放后端持有的连接
func (b *Backends) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// NewBackends 根据 VectorConfig 创建索引后端：file / memory 用 vector.Store；redis 用 eino-ext。
// embedder 仅在 redis 后端构造 eino-ext 组件时使用
func NewBackends(ctx context.Context, cfg config.VectorConfig, embedder einoembed.Embedder) (*Backends, error) {
	switch cfg.Type {
	case "", "file", "memory":
		store, err := vector.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		return &Backends{
			Ingest: ingest.NewStoreBackend(store),
			Query:  query.NewStoreBackend(store),
			Store:  store,
			close:  store.Close,
		}, nil
	case "redis":
		opts, err := RedisOptionsFromVectorConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("redis options: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b := NewRedisBackend(client, keyPrefix(cfg), embedder)
		return &Backends{Ingest: b, Query: b, close: client.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported vector type: %s", cfg.Type)
	}
}
