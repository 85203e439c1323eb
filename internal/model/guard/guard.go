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

// Package guard 包装远程模型调用：RPM 限流 + 并发上限 + 熔断
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"docqa/pkg/config"
	"docqa/pkg/log"
	"docqa/pkg/metrics"
)

// ErrUnavailable 熔断打开或半开请求过多
var ErrUnavailable = errors.New("remote provider temporarily unavailable")

// Guard 单个 provider 的调用守卫；nil Guard 直接调用
type Guard struct {
	kind     string // embedding | llm
	provider string

	limiter   *rate.Limiter
	semaphore chan struct{}
	breaker   *gobreaker.CircuitBreaker
}

// New 按配置创建 Guard；所有限制都未开启时返回 nil
func New(kind, provider string, cfg config.RemoteLimitConfig, logger *log.Logger) *Guard {
	if cfg.RequestsPerMinute <= 0 && cfg.MaxConcurrent <= 0 && !cfg.Breaker {
		return nil
	}
	g := &Guard{kind: kind, provider: provider}

	// RPM 转换为每秒，burst 取 2 秒配额
	if cfg.RequestsPerMinute > 0 {
		rps := cfg.RequestsPerMinute / 60.0
		burst := int(rps * 2)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if cfg.MaxConcurrent > 0 {
		g.semaphore = make(chan struct{}, cfg.MaxConcurrent)
	}
	if cfg.Breaker {
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        kind + ":" + provider,
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if logger != nil {
					logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
				}
			},
		})
	}
	return g
}

// Do 在限流与熔断保护下执行 fn
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if g == nil {
		return fn(ctx)
	}

	start := time.Now()
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}
	if g.semaphore != nil {
		select {
		case g.semaphore <- struct{}{}:
			defer func() { <-g.semaphore }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		metrics.RateLimitWaitSeconds.WithLabelValues(g.kind, g.provider).Observe(waited.Seconds())
	}

	if g.breaker == nil {
		return fn(ctx)
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s/%s: %v", ErrUnavailable, g.kind, g.provider, err)
	}
	return err
}

// State 熔断器状态；未启用熔断时返回 closed
func (g *Guard) State() gobreaker.State {
	if g == nil || g.breaker == nil {
		return gobreaker.StateClosed
	}
	return g.breaker.State()
}
