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

package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileStore 本地目录对象存储，key 直接作为文件名
type FileStore struct {
	root string
}

// NewFileStore 创建本地目录存储，目录不存在时自动创建
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Path 返回 key 对应的文件路径
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.root, key)
}

// Put 先写临时文件再 rename，读者不会看到写了一半的文件
func (s *FileStore) Put(ctx context.Context, key string, data io.Reader) (*ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// 临时名不含 key，长文件名也不会超出文件系统的名字长度上限
	tmp := filepath.Join(s.root, ".upload-"+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	n, err := io.Copy(f, data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	path := s.Path(key)
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("保存文件失败: %w", err)
	}
	return &ObjectInfo{Key: key, Path: path, Size: n, CreatedAt: time.Now().Unix()}, nil
}

// Get 打开文件
func (s *FileStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

// Delete 删除文件
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

// Exists 检查文件是否存在
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Close 关闭存储连接
func (s *FileStore) Close() error {
	return nil
}
