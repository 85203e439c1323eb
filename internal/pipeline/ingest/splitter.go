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

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"docqa/internal/splitter"
	"docqa/internal/storage/vector"
	"docqa/pkg/config"
)

// DocumentSplitter 文档切片器，委托 splitter.Engine，实现 eino document.Transformer
type DocumentSplitter struct {
	engine       *splitter.Engine
	splitterName string
	chunkSize    int
	chunkOverlap int
}

// NewDocumentSplitter 按 chunking 配置创建切片器；未设置的参数取默认 1000/100 recursive
func NewDocumentSplitter(cfg config.ChunkingConfig) (*DocumentSplitter, error) {
	s := &DocumentSplitter{
		engine:       splitter.NewEngine(),
		splitterName: cfg.Splitter,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
	}
	if s.splitterName == "" {
		s.splitterName = splitter.NameRecursive
	}
	if s.chunkSize <= 0 {
		s.chunkSize = splitter.DefaultChunkSize
	}
	if s.chunkOverlap < 0 {
		s.chunkOverlap = splitter.DefaultChunkOverlap
	}
	if s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("chunk_overlap(%d) 必须小于 chunk_size(%d)", s.chunkOverlap, s.chunkSize)
	}
	if _, err := s.engine.GetSplitter(s.splitterName); err != nil {
		return nil, err
	}
	return s, nil
}

// Transform 将每个源文档切成若干 chunk 文档；chunk 元数据带源文档名与序号，空白 chunk 丢弃
func (s *DocumentSplitter) Transform(ctx context.Context, src []*schema.Document, _ ...document.TransformerOption) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, doc := range src {
		if doc == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := s.engine.Split(doc.Content, s.splitterName, map[string]interface{}{
			"chunk_size":    s.chunkSize,
			"chunk_overlap": s.chunkOverlap,
		})
		if err != nil {
			return nil, fmt.Errorf("切片 %s 失败: %w", doc.ID, err)
		}
		for _, c := range chunks {
			if strings.TrimSpace(c.Content) == "" {
				continue
			}
			meta := make(map[string]any, len(doc.MetaData)+2)
			for k, v := range doc.MetaData {
				meta[k] = v
			}
			meta[vector.MetaDocument] = doc.ID
			meta[vector.MetaChunkIndex] = len(out)
			out = append(out, &schema.Document{
				ID:       c.ID,
				Content:  c.Content,
				MetaData: meta,
			})
		}
	}
	return out, nil
}

var _ document.Transformer = (*DocumentSplitter)(nil)
