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

package vector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// indexFileName 每个索引目录下的数据文件
const indexFileName = "index.json"

// 构建中的临时目录：.build-<uuid>.tmp
const (
	tmpPrefix = ".build-"
	tmpSuffix = ".tmp"
)

func isTempName(name string) bool {
	return strings.HasPrefix(name, tmpPrefix) && strings.HasSuffix(name, tmpSuffix)
}

// indexFile 索引落盘格式：描述 + 全部向量（含切片文本）
type indexFile struct {
	Index   *Index    `json:"index"`
	Vectors []*Vector `json:"vectors"`
}

// FileStore 本地目录向量存储：<root>/<indexName>/index.json。
// 构建写入临时目录后整体 rename，读者只会看到不存在或完整的索引
type FileStore struct {
	root string
}

// NewFileStore 创建目录存储，目录不存在时自动创建
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "faiss_index"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建索引目录失败: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Dir 索引目录
func (s *FileStore) Dir(indexName string) string {
	return filepath.Join(s.root, indexName)
}

// Build 写临时目录后 rename 到最终位置
func (s *FileStore) Build(ctx context.Context, idx *Index, vectors []*Vector) error {
	if err := validateBuild(idx, vectors); err != nil {
		return err
	}
	final := s.Dir(idx.Name)
	if _, err := os.Stat(final); err == nil {
		return fmt.Errorf("%w: %s", ErrIndexExists, idx.Name)
	}

	data, err := sonic.Marshal(&indexFile{Index: idx, Vectors: vectors})
	if err != nil {
		return fmt.Errorf("序列化索引失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// 临时名不含索引名，长文件名也不会超出文件系统的名字长度上限
	tmp := filepath.Join(s.root, tmpPrefix+uuid.NewString()+tmpSuffix)
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("创建临时索引目录失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, indexFileName), data, 0o644); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("写入索引失败: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.RemoveAll(tmp)
		if _, statErr := os.Stat(final); statErr == nil {
			return fmt.Errorf("%w: %s", ErrIndexExists, idx.Name)
		}
		return fmt.Errorf("保存索引失败: %w", err)
	}
	return nil
}

// load 读取并解析索引文件
func (s *FileStore) load(indexName string) (*indexFile, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(indexName), indexFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	if err != nil {
		return nil, fmt.Errorf("读取索引失败: %w", err)
	}
	var f indexFile
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("索引文件损坏 %s: %w", indexName, err)
	}
	if f.Index == nil {
		return nil, fmt.Errorf("索引文件损坏 %s: 缺少索引描述", indexName)
	}
	return &f, nil
}

// Search 加载索引并搜索
func (s *FileStore) Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	f, err := s.load(indexName)
	if err != nil {
		return nil, err
	}
	return rank(f.Index, f.Vectors, query, options)
}

// Exists 索引目录是否存在
func (s *FileStore) Exists(ctx context.Context, indexName string) (bool, error) {
	info, err := os.Stat(s.Dir(indexName))
	if err == nil {
		return info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// DeleteIndex 删除索引目录
func (s *FileStore) DeleteIndex(ctx context.Context, indexName string) error {
	dir := s.Dir(indexName)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	return os.RemoveAll(dir)
}

// ListIndexes 列出索引目录，忽略构建中的临时目录
func (s *FileStore) ListIndexes(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !isTempName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close 关闭存储连接
func (s *FileStore) Close() error {
	return nil
}
