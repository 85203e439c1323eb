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
	"errors"
	"fmt"
	"io"

	"docqa/internal/einoext"
	"docqa/internal/pipeline/ingest"
	"docqa/internal/pipeline/query"
	"docqa/internal/storage/lease"
	"docqa/internal/storage/metadata"
	"docqa/internal/storage/object"
	"docqa/pkg/config"
	"docqa/pkg/log"
	"docqa/pkg/secrets"
)

// Bootstrap 统一初始化：配置 → 日志 → 模型 → 存储 → 流水线，cmd 内不写业务装配
type Bootstrap struct {
	Config    *config.Config
	Logger    *log.Logger
	Models    *Models
	Registry  *metadata.Repository
	Objects   object.Store
	Indexes   *einoext.Backends
	Claimer   lease.Claimer
	Documents DocumentService

	closers []func() error
}

// NewBootstrap 根据配置创建 Bootstrap；失败时已创建的资源会被关闭
func NewBootstrap(ctx context.Context, cfg *config.Config) (b *Bootstrap, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	logger, err := log.NewLogger(&log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}
	b = &Bootstrap{Config: cfg, Logger: logger}
	b.closers = append(b.closers, logger.Close)
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	secretStore, err := secrets.NewStore(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("初始化 secret store 失败: %w", err)
	}
	b.Models, err = NewModels(ctx, cfg, secretStore, logger)
	if err != nil {
		return nil, err
	}

	metaStore, err := metadata.NewStore(ctx, cfg.Storage.Metadata)
	if err != nil {
		return nil, fmt.Errorf("初始化元数据存储failed: %w", err)
	}
	b.closers = append(b.closers, metaStore.Close)
	b.Registry = metadata.NewRepository(metaStore)

	b.Objects, err = object.NewFileStore(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("初始化上传目录failed: %w", err)
	}
	b.closers = append(b.closers, b.Objects.Close)

	b.Indexes, err = einoext.NewBackends(ctx, cfg.Storage.Vector, b.Models.Embedder)
	if err != nil {
		return nil, fmt.Errorf("初始化向量存储failed: %w", err)
	}
	b.closers = append(b.closers, b.Indexes.Close)

	b.Claimer, err = lease.NewClaimer(ctx, cfg.Storage.Lease)
	if err != nil {
		return nil, fmt.Errorf("初始化 lease failed: %w", err)
	}
	if c, ok := b.Claimer.(io.Closer); ok {
		b.closers = append(b.closers, c.Close)
	}

	b.Documents, err = b.buildPipelines()
	if err != nil {
		return nil, err
	}
	logger.Info("bootstrap complete",
		"metadata", cfg.Storage.Metadata.Type, "vector", cfg.Storage.Vector.Type, "lease", cfg.Storage.Lease.Type)
	return b, nil
}

func (b *Bootstrap) buildPipelines() (DocumentService, error) {
	cfg := b.Config

	extractor, err := ingest.NewExtractor(cfg.PDF)
	if err != nil {
		return nil, err
	}
	splitter, err := ingest.NewDocumentSplitter(cfg.Chunking)
	if err != nil {
		return nil, err
	}
	upload, err := ingest.NewUploadPipeline(ingest.UploadConfig{
		Claimer:   b.Claimer,
		Registry:  b.Registry,
		Objects:   b.Objects,
		Extractor: extractor,
		Splitter:  splitter,
		Embedder:  ingest.NewDocumentEmbedder(b.Models.Embedder, 0),
		Indexes:   b.Indexes.Ingest,
		Logger:    b.Logger.With("pipeline", "upload"),
	})
	if err != nil {
		return nil, err
	}
	ask, err := query.NewAskPipeline(query.AskConfig{
		Registry:  b.Registry,
		Indexes:   b.Indexes.Query,
		Embedder:  b.Models.Embedder,
		Generator: query.NewGenerator(b.Models.LLM),
		TopK:      cfg.Retrieval.TopK,
		Logger:    b.Logger.With("pipeline", "ask"),
	})
	if err != nil {
		return nil, err
	}
	return NewDocumentService(upload, ask, b.Registry), nil
}

// Close 逆序关闭全部资源
func (b *Bootstrap) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
