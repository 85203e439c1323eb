package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"docqa/internal/pipeline/common"
	"docqa/internal/storage/lease"
	"docqa/internal/storage/metadata"
	"docqa/internal/storage/object"
	"docqa/internal/storage/vector"
	pkgerrors "docqa/pkg/errors"
	"docqa/pkg/log"
	"docqa/pkg/metrics"
	"docqa/pkg/tracing"
)

const opUpload = "upload"

// cleanupTimeout 补偿清理不受请求取消影响，但不能无限等待
const cleanupTimeout = 30 * time.Second

// UploadConfig UploadPipeline 依赖
type UploadConfig struct {
	Claimer   lease.Claimer
	Registry  *metadata.Repository
	Objects   object.Store
	Extractor Extractor
	Splitter  *DocumentSplitter
	Embedder  *DocumentEmbedder
	Indexes   IndexBackend
	Logger    *log.Logger
}

// UploadPipeline 上传流水线：校验 → 落盘 → 提取 → 切片 → 向量化建索引（阶段一）→ 登记（阶段二）。
// 任一阶段失败都会删除本次写入的原始文件与索引
type UploadPipeline struct {
	claimer   lease.Claimer
	registry  *metadata.Repository
	objects   object.Store
	extractor Extractor
	splitter  *DocumentSplitter
	embedder  *DocumentEmbedder
	indexes   IndexBackend
	logger    *log.Logger
	now       func() time.Time
}

// NewUploadPipeline 创建上传流水线
func NewUploadPipeline(cfg UploadConfig) (*UploadPipeline, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("upload pipeline: registry is required")
	case cfg.Objects == nil:
		return nil, fmt.Errorf("upload pipeline: object store is required")
	case cfg.Extractor == nil:
		return nil, fmt.Errorf("upload pipeline: extractor is required")
	case cfg.Splitter == nil:
		return nil, fmt.Errorf("upload pipeline: splitter is required")
	case cfg.Embedder == nil:
		return nil, fmt.Errorf("upload pipeline: embedder is required")
	case cfg.Indexes == nil:
		return nil, fmt.Errorf("upload pipeline: index backend is required")
	}
	if cfg.Claimer == nil {
		cfg.Claimer = lease.NewMemoryClaimer()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &UploadPipeline{
		claimer:   cfg.Claimer,
		registry:  cfg.Registry,
		objects:   cfg.Objects,
		extractor: cfg.Extractor,
		splitter:  cfg.Splitter,
		embedder:  cfg.Embedder,
		indexes:   cfg.Indexes,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// uploadState 记录本次上传已经产生的副作用，供补偿清理
type uploadState struct {
	handle     common.DocumentHandle
	rawWritten bool
	indexBuilt bool
}

// Upload 处理一次上传；返回的错误均为 *errors.Error，Detail 可直接返回给调用方
func (p *UploadPipeline) Upload(ctx context.Context, filename string, r io.Reader) (result *common.UploadResult, err error) {
	start := time.Now()
	defer func() {
		label := "ok"
		if err != nil {
			label = pkgerrors.KindOf(err).String()
		}
		metrics.UploadTotal.WithLabelValues(label).Inc()
	}()

	if filename == "" {
		return nil, pkgerrors.New(pkgerrors.KindInvalidInput, opUpload, common.MsgMissingFile)
	}
	handle, err := common.NewHandle(filename)
	if err != nil {
		return nil, pkgerrors.E(pkgerrors.KindInvalidInput, opUpload, common.MsgInvalidFilename, err)
	}
	logger := p.logger.With("filename", handle.Filename)

	// 同名上传并发时只放行一个
	release, err := p.claimer.Claim(ctx, handle.Filename)
	if err != nil {
		if errors.Is(err, lease.ErrHeld) {
			return nil, pkgerrors.E(pkgerrors.KindConflict, opUpload, common.MsgDuplicate, err)
		}
		return nil, p.internal(common.StageClaim, "claim filename", err)
	}
	defer release()

	exists, err := p.registry.Exists(ctx, handle.Filename)
	if err != nil {
		return nil, p.internal(common.StageLookup, "registry lookup", err)
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.KindConflict, opUpload, common.MsgDuplicate)
	}
	if !handle.IsPDF() {
		return nil, pkgerrors.New(pkgerrors.KindUnsupportedType, opUpload, common.MsgOnlyPDF)
	}

	st := &uploadState{handle: handle}
	defer func() {
		if err != nil {
			p.compensate(ctx, logger, st)
		}
	}()

	var info *object.ObjectInfo
	if err = p.stage(ctx, common.StageStore, handle, func(ctx context.Context) error {
		// 写入失败也可能留下半个文件
		st.rawWritten = true
		var e error
		info, e = p.objects.Put(ctx, handle.RawKey, r)
		return e
	}); err != nil {
		return nil, p.internal(common.StageStore, "store raw file", err)
	}

	var text string
	if err = p.stage(ctx, common.StageExtract, handle, func(ctx context.Context) error {
		var e error
		text, e = p.extract(ctx, handle)
		return e
	}); err != nil {
		return nil, p.internal(common.StageExtract, "extract text", err)
	}
	if strings.TrimSpace(text) == "" {
		err = pkgerrors.E(pkgerrors.KindEmptyContent, opUpload, common.MsgNoText, common.ErrEmptyText)
		return nil, err
	}

	var docs []*schema.Document
	if err = p.stage(ctx, common.StageSplit, handle, func(ctx context.Context) error {
		var e error
		docs, e = p.splitter.Transform(ctx, []*schema.Document{{
			ID:       handle.Filename,
			Content:  text,
			MetaData: map[string]any{"source": info.Path},
		}})
		return e
	}); err != nil {
		return nil, p.internal(common.StageSplit, "split text", err)
	}
	if len(docs) == 0 {
		err = pkgerrors.E(pkgerrors.KindEmptyContent, opUpload, common.MsgNoChunks, common.ErrNoChunks)
		return nil, err
	}
	metrics.ChunksPerDocument.Observe(float64(len(docs)))
	logger.Info("document split", "chunks", len(docs), "chars", len(text))

	// 阶段一：向量化并构建索引
	if err = p.stage(ctx, common.StageEmbed, handle, func(ctx context.Context) error {
		_, e := p.embedder.Embed(ctx, docs)
		return e
	}); err != nil {
		return nil, p.internal(common.StageEmbed, "embed chunks", err)
	}
	if err = p.stage(ctx, common.StageIndex, handle, func(ctx context.Context) error {
		return p.buildIndex(ctx, logger, st, docs)
	}); err != nil {
		return nil, p.internal(common.StageIndex, "build index", err)
	}

	// 阶段二：登记并提交
	doc := &metadata.Document{
		Filename:   handle.Filename,
		FilePath:   info.Path,
		UploadDate: p.now().UTC(),
	}
	if err = p.stage(ctx, common.StageCommit, handle, func(ctx context.Context) error {
		return p.registry.Register(ctx, doc)
	}); err != nil {
		if errors.Is(err, metadata.ErrDuplicate) {
			err = pkgerrors.E(pkgerrors.KindConflict, opUpload, common.MsgDuplicate, err)
			return nil, err
		}
		return nil, p.internal(common.StageCommit, "register document", err)
	}

	logger.Info("document uploaded", "id", doc.ID, "chunks", len(docs), "elapsed", time.Since(start))
	return &common.UploadResult{
		DocumentID:  doc.ID,
		Filename:    handle.Filename,
		Chunks:      len(docs),
		ProcessTime: time.Since(start),
	}, nil
}

func (p *UploadPipeline) extract(ctx context.Context, handle common.DocumentHandle) (string, error) {
	rc, err := p.objects.Get(ctx, handle.RawKey)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return p.extractor.Extract(ctx, data)
}

// buildIndex 登记表中没有记录时残留的同名索引属于孤儿，先删除再构建
func (p *UploadPipeline) buildIndex(ctx context.Context, logger *log.Logger, st *uploadState, docs []*schema.Document) error {
	name := st.handle.IndexName
	stale, err := p.indexes.Exists(ctx, name)
	if err != nil {
		return err
	}
	if stale {
		logger.Warn("removing orphaned index without registry record", "index", name)
		if err := p.indexes.Delete(ctx, name); err != nil {
			return err
		}
	}

	indexer, err := p.indexes.NewIndexer(ctx, name)
	if err != nil {
		return err
	}
	_, err = indexer.Store(ctx, docs)
	if err == nil || !errors.Is(err, vector.ErrIndexExists) {
		// 失败时可能已写入部分数据，一并清理
		st.indexBuilt = true
	}
	return err
}

// compensate 删除本次上传写入的索引与原始文件，尽力而为
func (p *UploadPipeline) compensate(ctx context.Context, logger *log.Logger, st *uploadState) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if st.indexBuilt {
		if err := p.indexes.Delete(ctx, st.handle.IndexName); err != nil && !errors.Is(err, vector.ErrIndexNotFound) {
			logger.Error("cleanup index failed", "index", st.handle.IndexName, "error", err)
		}
	}
	if st.rawWritten {
		if err := p.objects.Delete(ctx, st.handle.RawKey); err != nil && !errors.Is(err, object.ErrNotFound) {
			logger.Error("cleanup raw file failed", "error", err)
		}
	}
	logger.Info("upload rolled back", "index_removed", st.indexBuilt, "raw_removed", st.rawWritten)
}

// stage 记录阶段耗时与 span
func (p *UploadPipeline) stage(ctx context.Context, stage string, handle common.DocumentHandle, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartStageSpan(ctx, opUpload, stage, handle.Filename)
	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStage(stage, start)
	tracing.End(span, err)
	if err != nil {
		p.logger.Error("upload stage failed", "filename", handle.Filename, "stage", stage, "error", err)
	}
	return err
}

// internal 基础设施错误：对外只给通用提示，内部保留阶段与原因
func (p *UploadPipeline) internal(stage, msg string, err error) error {
	return pkgerrors.E(pkgerrors.KindInternal, opUpload, common.MsgUploadFailed, common.NewPipelineError(stage, msg, err))
}
