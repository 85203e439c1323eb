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

package query

import (
	"context"
	"fmt"
	"math"
	"strconv"

	einoembed "github.com/cloudwego/eino/components/embedding"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"docqa/internal/storage/vector"
)

// DefaultTopK 每次问答取回的切片数
const DefaultTopK = 4

// IndexBackend 按文档名打开索引的检索端
type IndexBackend interface {
	// NewRetriever 返回只检索 indexName 的 Retriever；embedder 用于向量化问题
	NewRetriever(ctx context.Context, indexName string, topK int, embedder einoembed.Embedder) (einoretriever.Retriever, error)
	Exists(ctx context.Context, indexName string) (bool, error)
}

// StoreRetriever 基于 vector.Store 的 eino retriever.Retriever
type StoreRetriever struct {
	store     vector.Store
	indexName string
	topK      int
	embedder  einoembed.Embedder
}

// NewStoreRetriever 创建检索 indexName 的 Retriever；topK<=0 取 DefaultTopK
func NewStoreRetriever(store vector.Store, indexName string, topK int, embedder einoembed.Embedder) (*StoreRetriever, error) {
	if store == nil {
		return nil, fmt.Errorf("StoreRetriever requires vector store")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &StoreRetriever{store: store, indexName: indexName, topK: topK, embedder: embedder}, nil
}

// Retrieve 实现 github.com/cloudwego/eino/components/retriever.Retriever。
// 默认不按得分过滤，始终返回最相近的 topK 条
func (r *StoreRetriever) Retrieve(ctx context.Context, query string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	options := einoretriever.GetCommonOptions(&einoretriever.Options{Embedding: r.embedder}, opts...)
	indexName := r.indexName
	if options.Index != nil && *options.Index != "" {
		indexName = *options.Index
	}
	topK := r.topK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}
	threshold := math.Inf(-1)
	if options.ScoreThreshold != nil {
		threshold = *options.ScoreThreshold
	}
	if options.Embedding == nil {
		return nil, fmt.Errorf("retriever requires an embedder to vectorize the query")
	}

	vecs, err := options.Embedding.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retriever embedding: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("retriever embedding: empty query vector")
	}

	results, err := r.store.Search(ctx, indexName, vecs[0], &vector.SearchOptions{
		TopK:      topK,
		Threshold: threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("vector store search: %w", err)
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, sr := range results {
		meta := make(map[string]any, len(sr.Metadata))
		for k, v := range sr.Metadata {
			if k == vector.MetaContent {
				continue
			}
			meta[k] = v
		}
		if n, err := strconv.Atoi(sr.Metadata[vector.MetaChunkIndex]); err == nil {
			meta[vector.MetaChunkIndex] = n
		}
		d := &schema.Document{ID: sr.ID, Content: sr.Metadata[vector.MetaContent], MetaData: meta}
		docs = append(docs, d.WithScore(sr.Score))
	}
	return docs, nil
}

var _ einoretriever.Retriever = (*StoreRetriever)(nil)

// StoreBackend memory / file 后端的 IndexBackend
type StoreBackend struct {
	store vector.Store
}

// NewStoreBackend 创建基于 vector.Store 的检索端
func NewStoreBackend(store vector.Store) *StoreBackend {
	return &StoreBackend{store: store}
}

func (b *StoreBackend) NewRetriever(_ context.Context, indexName string, topK int, embedder einoembed.Embedder) (einoretriever.Retriever, error) {
	return NewStoreRetriever(b.store, indexName, topK, embedder)
}

func (b *StoreBackend) Exists(ctx context.Context, indexName string) (bool, error) {
	return b.store.Exists(ctx, indexName)
}

var _ IndexBackend = (*StoreBackend)(nil)
