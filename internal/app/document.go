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

package app

import (
	"context"
	"io"

	"docqa/internal/pipeline/common"
	"docqa/internal/pipeline/ingest"
	"docqa/internal/pipeline/query"
	"docqa/internal/storage/metadata"
	pkgerrors "docqa/pkg/errors"
)

// MsgListFailed 列表查询失败时的对外提示
const MsgListFailed = "Error listing documents."

// DocumentInfo 文档列表项，供 API 层使用，不依赖 storage 具体类型
type DocumentInfo struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
}

// DocumentService 文档门面：API 层仅依赖此接口，不直接调用 pipeline 与 storage
type DocumentService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*common.UploadResult, error)
	Ask(ctx context.Context, filename, question string) (string, error)
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
}

type documentService struct {
	upload   *ingest.UploadPipeline
	ask      *query.AskPipeline
	registry *metadata.Repository
}

// NewDocumentService 创建文档门面（由 bootstrap 装配时调用）
func NewDocumentService(upload *ingest.UploadPipeline, ask *query.AskPipeline, registry *metadata.Repository) DocumentService {
	return &documentService{upload: upload, ask: ask, registry: registry}
}

func (s *documentService) Upload(ctx context.Context, filename string, r io.Reader) (*common.UploadResult, error) {
	return s.upload.Upload(ctx, filename, r)
}

func (s *documentService) Ask(ctx context.Context, filename, question string) (string, error) {
	return s.ask.Ask(ctx, filename, question)
}

// ListDocuments 按存储返回顺序列出全部文档；没有文档时返回空切片
func (s *documentService) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := s.registry.ListDocuments(ctx)
	if err != nil {
		return nil, pkgerrors.E(pkgerrors.KindInternal, "list", MsgListFailed, err)
	}
	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentInfo{ID: d.ID, Filename: d.Filename})
	}
	return out, nil
}
