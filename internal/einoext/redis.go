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
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	redisindexer "github.com/cloudwego/eino-ext/components/indexer/redis"
	redisretriever "github.com/cloudwego/eino-ext/components/retriever/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"docqa/internal/pipeline/ingest"
	"docqa/internal/pipeline/query"
	"docqa/internal/storage/vector"
)

// Redis hash 字段
const (
	fieldContent    = "content"
	fieldChunkIndex = "chunk_index"
	fieldVector     = "vector_content"
	fieldDistance   = "distance"
)

const redisBatchSize = 100

// RedisBackend 每个文档对应一个 RediSearch 索引与一组 hash key。
// 向量在写入前已经算好，indexer 直接落盘，不再调用 embedding
type RedisBackend struct {
	client   *redis.Client
	prefix   string
	embedder einoembed.Embedder
}

// NewRedisBackend 创建 redis 索引后端；prefix 为所有 key 与索引名的公共前缀
func NewRedisBackend(client *redis.Client, prefix string, embedder einoembed.Embedder) *RedisBackend {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisBackend{client: client, prefix: prefix, embedder: embedder}
}

// docID 文件名映射为定长标识，避免一个文档的 key 前缀覆盖另一个文档
func docID(indexName string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(indexName)).String()
}

func (b *RedisBackend) ftIndex(indexName string) string {
	return b.prefix + ":idx:" + docID(indexName)
}

func (b *RedisBackend) keyPrefix(indexName string) string {
	return b.prefix + ":doc:" + docID(indexName) + ":"
}

// NewIndexer 实现 ingest.IndexBackend
func (b *RedisBackend) NewIndexer(ctx context.Context, indexName string) (einoindexer.Indexer, error) {
	inner, err := redisindexer.NewIndexer(ctx, &redisindexer.IndexerConfig{
		Client:           b.client,
		KeyPrefix:        b.keyPrefix(indexName),
		DocumentToHashes: documentToHashes,
		BatchSize:        redisBatchSize,
		Embedding:        b.embedder,
	})
	if err != nil {
		return nil, fmt.Errorf("redis indexer: %w", err)
	}
	return &redisIndexer{backend: b, indexName: indexName, inner: inner}, nil
}

// Exists 实现 ingest.IndexBackend 与 query.IndexBackend
func (b *RedisBackend) Exists(ctx context.Context, indexName string) (bool, error) {
	err := b.client.Do(ctx, "FT.INFO", b.ftIndex(indexName)).Err()
	if err == nil {
		return true, nil
	}
	if isUnknownIndex(err) {
		return false, nil
	}
	return false, fmt.Errorf("redis FT.INFO: %w", err)
}

// Delete 删除索引及其全部 hash
func (b *RedisBackend) Delete(ctx context.Context, indexName string) error {
	err := b.client.Do(ctx, "FT.DROPINDEX", b.ftIndex(indexName), "DD").Err()
	if err == nil {
		return nil
	}
	if isUnknownIndex(err) {
		return fmt.Errorf("%w: %s", vector.ErrIndexNotFound, indexName)
	}
	return fmt.Errorf("redis FT.DROPINDEX: %w", err)
}

// NewRetriever 实现 query.IndexBackend
func (b *RedisBackend) NewRetriever(ctx context.Context, indexName string, topK int, embedder einoembed.Embedder) (einoretriever.Retriever, error) {
	if topK <= 0 {
		topK = query.DefaultTopK
	}
	if embedder == nil {
		embedder = b.embedder
	}
	inner, err := redisretriever.NewRetriever(ctx, &redisretriever.RetrieverConfig{
		Client:            b.client,
		Index:             b.ftIndex(indexName),
		VectorField:       fieldVector,
		ReturnFields:      []string{fieldContent, fieldChunkIndex, fieldDistance},
		DocumentConverter: redisDocumentToDocument,
		TopK:              topK,
		Embedding:         embedder,
	})
	if err != nil {
		return nil, fmt.Errorf("redis retriever: %w", err)
	}
	return &sortedRetriever{inner: inner}, nil
}

func (b *RedisBackend) createIndex(ctx context.Context, indexName string, dim int) error {
	args := []any{
		"FT.CREATE", b.ftIndex(indexName),
		"ON", "HASH",
		"PREFIX", 1, b.keyPrefix(indexName),
		"SCHEMA",
		fieldContent, "TEXT",
		fieldChunkIndex, "NUMERIC",
		fieldVector, "VECTOR", "FLAT", 6,
		"TYPE", "FLOAT32",
		"DIM", dim,
		"DISTANCE_METRIC", "COSINE",
	}
	if err := b.client.Do(ctx, args...).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "index already exists") {
			return fmt.Errorf("%w: %s", vector.ErrIndexExists, indexName)
		}
		return fmt.Errorf("redis FT.CREATE: %w", err)
	}
	return nil
}

// redisIndexer 先按向量维度建 FT 索引，再交给 eino-ext indexer 写 hash
type redisIndexer struct {
	backend   *RedisBackend
	indexName string
	inner     *redisindexer.Indexer
}

func (r *redisIndexer) Store(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("index %s: no documents", r.indexName)
	}
	dim := len(docs[0].DenseVector())
	if dim == 0 {
		return nil, fmt.Errorf("index %s: documents must carry vectors", r.indexName)
	}
	if err := r.backend.createIndex(ctx, r.indexName, dim); err != nil {
		return nil, err
	}
	return r.inner.Store(ctx, docs, opts...)
}

// documentToHashes 写入 content / chunk_index / 预先计算的向量
func documentToHashes(_ context.Context, doc *schema.Document) (*redisindexer.Hashes, error) {
	vec := doc.DenseVector()
	if len(vec) == 0 {
		return nil, fmt.Errorf("doc %s has no vector", doc.ID)
	}
	idx := 0
	if v, ok := doc.MetaData[vector.MetaChunkIndex].(int); ok {
		idx = v
	}
	return &redisindexer.Hashes{
		Key: doc.ID,
		Field2Value: map[string]redisindexer.FieldValue{
			fieldContent:    {Value: doc.Content},
			fieldChunkIndex: {Value: idx},
			fieldVector:     {Value: vectorToBytes(vec)},
		},
	}, nil
}

// vectorToBytes float32 小端序，与 FT.CREATE 的 TYPE FLOAT32 一致
func vectorToBytes(vec []float64) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	return buf
}

// redisDocumentToDocument cosine distance 转为相似度得分
func redisDocumentToDocument(_ context.Context, doc redis.Document) (*schema.Document, error) {
	out := &schema.Document{
		ID:       doc.ID,
		Content:  doc.Fields[fieldContent],
		MetaData: map[string]any{},
	}
	if s, ok := doc.Fields[fieldChunkIndex]; ok {
		if n, err := strconv.Atoi(s); err == nil {
			out.MetaData[vector.MetaChunkIndex] = n
		}
	}
	if s, ok := doc.Fields[fieldDistance]; ok {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse distance %q: %w", s, err)
		}
		out.WithScore(1 - d)
	}
	return out, nil
}

// sortedRetriever 按得分从高到低返回
type sortedRetriever struct {
	inner einoretriever.Retriever
}

func (s *sortedRetriever) Retrieve(ctx context.Context, q string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	docs, err := s.inner.Retrieve(ctx, q, opts...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score() > docs[j].Score() })
	return docs, nil
}

func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index name") || strings.Contains(msg, "no such index")
}

var (
	_ ingest.IndexBackend = (*RedisBackend)(nil)
	_ query.IndexBackend  = (*RedisBackend)(nil)
)
