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

package ingest

import (
	"context"
	"fmt"
	"strings"

	einoindexer "github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"

	"docqa/internal/storage/vector"
)

// IndexBackend 按文档名管理向量索引（file/memory/redis）
type IndexBackend interface {
	// NewIndexer 返回写入 indexName 的 eino Indexer；Store 一次写入整个文档
	NewIndexer(ctx context.Context, indexName string) (einoindexer.Indexer, error)
	Exists(ctx context.Context, indexName string) (bool, error)
	Delete(ctx context.Context, indexName string) error
}

// StoreIndexer 基于 vector.Store 的 eino indexer.Indexer：一次 Store 构建一个完整索引
type StoreIndexer struct {
	store     vector.Store
	indexName string
	distance  string
}

// NewStoreIndexer 创建写入 indexName 的 Indexer，相似度使用 cosine
func NewStoreIndexer(store vector.Store, indexName string) *StoreIndexer {
	return &StoreIndexer{store: store, indexName: indexName, distance: "cosine"}
}

// Store 实现 github.com/cloudwego/eino/components/indexer.Indexer。
// 若传入 Embedding，先为缺少向量的 doc 补齐向量
func (s *StoreIndexer) Store(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("index %s: no documents", s.indexName)
	}
	options := einoindexer.GetCommonOptions(nil, opts...)
	if options != nil && options.Embedding != nil {
		if err := embedMissing(ctx, options, docs); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(docs))
	vecs := make([]*vector.Vector, 0, len(docs))
	for i, doc := range docs {
		values := doc.DenseVector()
		if len(values) == 0 {
			return nil, fmt.Errorf("doc %s has no vector and no Embedding option", doc.ID)
		}
		meta := metaToMapStringString(doc.MetaData)
		meta[vector.MetaContent] = doc.Content
		if _, ok := meta[vector.MetaChunkIndex]; !ok {
			meta[vector.MetaChunkIndex] = fmt.Sprint(i)
		}
		vecs = append(vecs, &vector.Vector{ID: doc.ID, Values: values, Metadata: meta})
		ids = append(ids, doc.ID)
	}

	idx := &vector.Index{
		Name:      s.indexName,
		Dimension: len(vecs[0].Values),
		Distance:  s.distance,
		Metadata:  map[string]string{vector.MetaDocument: s.indexName},
	}
	if err := s.store.Build(ctx, idx, vecs); err != nil {
		return nil, fmt.Errorf("vector store build: %w", err)
	}
	return ids, nil
}

func embedMissing(ctx context.Context, options *einoindexer.Options, docs []*schema.Document) error {
	var (
		texts   []string
		missing []*schema.Document
	)
	for _, doc := range docs {
		if len(doc.DenseVector()) == 0 {
			texts = append(texts, doc.Content)
			missing = append(missing, doc)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	vecs, err := options.Embedding.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("indexer embedding: %w", err)
	}
	if len(vecs) != len(missing) {
		return fmt.Errorf("indexer embedding: want %d vectors, got %d", len(missing), len(vecs))
	}
	for i, doc := range missing {
		doc.WithDenseVector(vecs[i])
	}
	return nil
}

// metaToMapStringString 将 map[string]any 转为 map[string]string；"_" 开头的是 eino 内部字段（向量、得分），跳过
func metaToMapStringString(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		if strings.HasPrefix(k, "_") {
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

var _ einoindexer.Indexer = (*StoreIndexer)(nil)

// StoreBackend 基于 vector.Store 的 IndexBackend（file / memory）
type StoreBackend struct {
	store vector.Store
}

// NewStoreBackend 创建 vector.Store 后端
func NewStoreBackend(store vector.Store) *StoreBackend {
	return &StoreBackend{store: store}
}

// NewIndexer 返回写入 indexName 的 StoreIndexer
func (b *StoreBackend) NewIndexer(_ context.Context, indexName string) (einoindexer.Indexer, error) {
	return NewStoreIndexer(b.store, indexName), nil
}

// Exists 索引是否存在
func (b *StoreBackend) Exists(ctx context.Context, indexName string) (bool, error) {
	return b.store.Exists(ctx, indexName)
}

// Delete 删除索引
func (b *StoreBackend) Delete(ctx context.Context, indexName string) error {
	return b.store.DeleteIndex(ctx, indexName)
}

var _ IndexBackend = (*StoreBackend)(nil)
