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

package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore 内存登记表，测试与 storage.metadata.type=memory 使用
type MemoryStore struct {
	mu     sync.RWMutex
	docs   []*Document
	byName map[string]*Document
	nextID int64
}

// NewMemoryStore 创建内存登记表
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byName: make(map[string]*Document), nextID: 1}
}

// GetByFilename 按文件名查询
func (s *MemoryStore) GetByFilename(ctx context.Context, filename string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.byName[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	cp := *doc
	return &cp, nil
}

// List 按插入顺序列出
func (s *MemoryStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

// Begin 开启内存事务：Insert 只暂存，Commit 时再次检查唯一性
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	return &memoryTx{store: s}, nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	store  *MemoryStore
	staged []*Document
	done   bool
}

func (tx *memoryTx) Insert(ctx context.Context, doc *Document) error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.store.mu.RLock()
	_, exists := tx.store.byName[doc.Filename]
	tx.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, doc.Filename)
	}
	for _, d := range tx.staged {
		if d.Filename == doc.Filename {
			return fmt.Errorf("%w: %s", ErrDuplicate, doc.Filename)
		}
	}
	tx.staged = append(tx.staged, doc)
	return nil
}

func (tx *memoryTx) Commit(ctx context.Context) error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range tx.staged {
		if _, exists := s.byName[d.Filename]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicate, d.Filename)
		}
	}
	now := time.Now().UTC()
	for _, d := range tx.staged {
		d.ID = s.nextID
		s.nextID++
		if d.UploadDate.IsZero() {
			d.UploadDate = now
		}
		cp := *d
		s.docs = append(s.docs, &cp)
		s.byName[d.Filename] = &cp
	}
	return nil
}

func (tx *memoryTx) Rollback(ctx context.Context) error {
	tx.done = true
	tx.staged = nil
	return nil
}
