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

// Package lease 提供按文件名的互斥占用，阻止同名文件并发上传
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa/pkg/config"
)

// ErrHeld 同名 key 正被其他请求占用
var ErrHeld = errors.New("lease already held")

// Claimer 占用器；release 幂等，必须在请求结束时调用
type Claimer interface {
	Claim(ctx context.Context, key string) (release func(), err error)
}

// NewClaimer 根据配置创建占用器：memory（默认）| redis
func NewClaimer(ctx context.Context, cfg config.LeaseConfig) (Claimer, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryClaimer(), nil
	case "redis":
		return NewRedisClaimer(ctx, RedisOptions{
			Addr:     cfg.Addr,
			DB:       cfg.DB,
			Password: cfg.Password,
			Prefix:   "docqa:upload:",
			TTL:      cfg.TTLDuration(),
		})
	default:
		return nil, fmt.Errorf("不支持的 lease 类型: %s", cfg.Type)
	}
}

// defaultTTL redis 占用的兜底过期时间，进程崩溃后自动释放
const defaultTTL = 10 * time.Minute
