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

	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"

	"docqa/internal/model/embedding"
	"docqa/internal/pipeline/common"
)

const defaultEmbedBatchSize = 100

// DocumentEmbedder 为 chunk 文档批量生成向量（RETRIEVAL_DOCUMENT）
type DocumentEmbedder struct {
	embedder  einoembed.Embedder
	batchSize int
}

// NewDocumentEmbedder 创建文档向量化器
func NewDocumentEmbedder(embedder einoembed.Embedder, batchSize int) *DocumentEmbedder {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &DocumentEmbedder{embedder: embedder, batchSize: batchSize}
}

// Embed 按批向量化并写回 doc 的 dense vector；返回向量维度
func (e *DocumentEmbedder) Embed(ctx context.Context, docs []*schema.Document) (int, error) {
	if e.embedder == nil {
		return 0, fmt.Errorf("embedder not initialized")
	}
	dim := 0
	for start := 0; start < len(docs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]
		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}
		vecs, err := e.embedder.EmbedStrings(ctx, texts, embedding.WithTaskType(embedding.TaskRetrievalDocument))
		if err != nil {
			return 0, err
		}
		if len(vecs) != len(batch) {
			return 0, fmt.Errorf("%w: want %d, got %d", common.ErrEmbeddingCount, len(batch), len(vecs))
		}
		for i, v := range vecs {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) == 0 || len(v) != dim {
				return 0, fmt.Errorf("%w: chunk %d has dimension %d, want %d", common.ErrEmbeddingCount, start+i, len(v), dim)
			}
			batch[i].WithDenseVector(v)
		}
	}
	return dim, nil
}
