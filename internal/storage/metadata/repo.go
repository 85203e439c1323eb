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
	"errors"
	"fmt"
)

// Repository 登记表仓储：封装事务的借还，供 app 层与 pipeline 使用
type Repository struct {
	store Store
}

// NewRepository 创建登记表仓储
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Store 返回底层存储
func (r *Repository) Store() Store {
	return r.store
}

// ListDocuments 列出全部文档
func (r *Repository) ListDocuments(ctx context.Context) ([]*Document, error) {
	return r.store.List(ctx)
}

// FindByFilename 按文件名查询
func (r *Repository) FindByFilename(ctx context.Context, filename string) (*Document, error) {
	return r.store.GetByFilename(ctx, filename)
}

// Exists 文件名是否已登记
func (r *Repository) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := r.store.GetByFilename(ctx, filename)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Register 在单个事务中插入并提交；任何失败都回滚，事务不会泄漏
func (r *Repository) Register(ctx context.Context, doc *Document) (err error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()
	if err = tx.Insert(ctx, doc); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
