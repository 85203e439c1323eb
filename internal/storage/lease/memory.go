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
)

// MemoryClaimer 进程内占用，单实例部署足够
type MemoryClaimer struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryClaimer 创建进程内占用器
func NewMemoryClaimer() *MemoryClaimer {
	return &MemoryClaimer{held: make(map[string]struct{})}
}

// Claim 占用 key；已被占用时立即返回 ErrHeld，不等待
func (m *MemoryClaimer) Claim(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, key)
	}
	m.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}
