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
	"errors"
	"fmt"
	"strings"
	"time"

	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"

	"docqa/internal/model/embedding"
	"docqa/internal/pipeline/common"
	"docqa/internal/storage/metadata"
	pkgerrors "docqa/pkg/errors"
	"docqa/pkg/log"
	"docqa/pkg/metrics"
	"docqa/pkg/tracing"
)

const opAsk = "ask"

// AskConfig AskPipeline 依赖
type AskConfig struct {
	Registry  *metadata.Repository
	Indexes   IndexBackend
	Embedder  einoembed.Embedder
	Generator *Generator
	TopK      int
	Logger    *log.Logger
}

// AskPipeline 问答流水线：校验 → 查登记 → 查索引 → 检索 topK → 生成
type AskPipeline struct {
	registry  *metadata.Repository
	indexes   IndexBackend
	embedder  einoembed.Embedder
	generator *Generator
	topK      int
	logger    *log.Logger
}

// NewAskPipeline 创建问答流水线；Embedder 会被包装为查询任务类型
func NewAskPipeline(cfg AskConfig) (*AskPipeline, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("ask pipeline: registry is required")
	case cfg.Indexes == nil:
		return nil, fmt.Errorf("ask pipeline: index backend is required")
	case cfg.Embedder == nil:
		return nil, fmt.Errorf("ask pipeline: embedder is required")
	case cfg.Generator == nil:
		return nil, fmt.Errorf("ask pipeline: generator is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &AskPipeline{
		registry:  cfg.Registry,
		indexes:   cfg.Indexes,
		embedder:  embedding.ForQuery(cfg.Embedder),
		generator: cfg.Generator,
		topK:      cfg.TopK,
		logger:    cfg.Logger,
	}, nil
}

// Ask 回答针对已上传文档的问题；返回的错误均为 *errors.Error
func (p *AskPipeline) Ask(ctx context.Context, filename, question string) (answer string, err error) {
	start := time.Now()
	defer func() {
		label := "ok"
		if err != nil {
			label = pkgerrors.KindOf(err).String()
		}
		metrics.AskTotal.WithLabelValues(label).Inc()
	}()

	if filename == "" {
		return "", pkgerrors.New(pkgerrors.KindInvalidInput, opAsk, common.MsgMissingFile)
	}
	if strings.TrimSpace(question) == "" {
		return "", pkgerrors.New(pkgerrors.KindInvalidInput, opAsk, common.MsgMissingQuestion)
	}
	// 非法文件名不可能被登记过
	handle, err := common.NewHandle(filename)
	if err != nil {
		return "", pkgerrors.E(pkgerrors.KindNotFound, opAsk, common.MsgDocNotFound, err)
	}

	if err = p.stage(ctx, common.StageLookup, handle, func(ctx context.Context) error {
		_, e := p.registry.FindByFilename(ctx, handle.Filename)
		return e
	}); err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return "", pkgerrors.E(pkgerrors.KindNotFound, opAsk, common.MsgDocNotFound, err)
		}
		return "", p.internal(common.StageLookup, "registry lookup", err)
	}

	exists, err := p.indexes.Exists(ctx, handle.IndexName)
	if err != nil {
		return "", p.internal(common.StageLookup, "index lookup", err)
	}
	if !exists {
		p.logger.Warn("registry record without index", "filename", handle.Filename, "index", handle.IndexName)
		return "", pkgerrors.New(pkgerrors.KindNotFound, opAsk, common.MsgIndexNotFound)
	}

	var docs []*schema.Document
	if err = p.stage(ctx, common.StageRetrieve, handle, func(ctx context.Context) error {
		r, e := p.indexes.NewRetriever(ctx, handle.IndexName, p.topK, p.embedder)
		if e != nil {
			return e
		}
		docs, e = r.Retrieve(ctx, question)
		return e
	}); err != nil {
		return "", p.internal(common.StageRetrieve, "retrieve chunks", err)
	}

	if err = p.stage(ctx, common.StageGenerate, handle, func(ctx context.Context) error {
		var e error
		answer, e = p.generator.Generate(ctx, docs, question)
		return e
	}); err != nil {
		return "", p.internal(common.StageGenerate, "generate answer", err)
	}

	p.logger.Info("question answered", "filename", handle.Filename, "chunks", len(docs), "elapsed", time.Since(start))
	return answer, nil
}

func (p *AskPipeline) stage(ctx context.Context, stage string, handle common.DocumentHandle, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartStageSpan(ctx, opAsk, stage, handle.Filename)
	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStage(stage, start)
	tracing.End(span, err)
	if err != nil && !errors.Is(err, metadata.ErrNotFound) {
		p.logger.Error("ask stage failed", "filename", handle.Filename, "stage", stage, "error", err)
	}
	return err
}

func (p *AskPipeline) internal(stage, msg string, err error) error {
	return pkgerrors.E(pkgerrors.KindInternal, opAsk, common.MsgAskFailed, common.NewPipelineError(stage, msg, err))
}
