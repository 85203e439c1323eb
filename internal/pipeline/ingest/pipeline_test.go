package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/pipeline/common"
	"docqa/internal/storage/lease"
	"docqa/internal/storage/metadata"
	"docqa/internal/storage/object"
	"docqa/internal/storage/vector"
	pkgerrors "docqa/pkg/errors"
	"docqa/pkg/config"
)

var reportText = strings.Repeat("The quarterly revenue grew by ten percent. ", 60)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(_ context.Context, data []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

// fakeEmbedder 按文本长度生成确定性向量
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...einoembed.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), float64(strings.Count(t, "e")), 1}
	}
	return out, nil
}

type failingCommitStore struct {
	*metadata.MemoryStore
}

func (s failingCommitStore) Begin(ctx context.Context) (metadata.Tx, error) {
	tx, err := s.MemoryStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{Tx: tx}, nil
}

type failingTx struct {
	metadata.Tx
}

func (failingTx) Commit(context.Context) error { return errors.New("connection reset by peer") }

// partialBackend 写入索引后报错，模拟构建到一半失败
type partialBackend struct {
	*StoreBackend
}

func (b partialBackend) NewIndexer(ctx context.Context, name string) (einoindexer.Indexer, error) {
	inner, _ := b.StoreBackend.NewIndexer(ctx, name)
	return indexerFunc(func(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
		if _, err := inner.Store(ctx, docs, opts...); err != nil {
			return nil, err
		}
		return nil, errors.New("redis: i/o timeout")
	}), nil
}

type indexerFunc func(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error)

func (f indexerFunc) Store(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
	return f(ctx, docs, opts...)
}

type fixture struct {
	pipeline  *UploadPipeline
	registry  *metadata.Repository
	objects   *object.MemoryStore
	vectors   *vector.MemoryStore
	extractor *fakeExtractor
	embedder  *fakeEmbedder
	claimer   *lease.MemoryClaimer
}

type fixtureOption func(*UploadConfig, *fixture)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		registry:  metadata.NewRepository(metadata.NewMemoryStore()),
		objects:   object.NewMemoryStore(),
		vectors:   vector.NewMemoryStore(),
		extractor: &fakeExtractor{text: reportText},
		embedder:  &fakeEmbedder{},
		claimer:   lease.NewMemoryClaimer(),
	}
	sp, err := NewDocumentSplitter(config.ChunkingConfig{})
	require.NoError(t, err)
	cfg := UploadConfig{
		Claimer:   f.claimer,
		Registry:  f.registry,
		Objects:   f.objects,
		Extractor: f.extractor,
		Splitter:  sp,
		Embedder:  NewDocumentEmbedder(f.embedder, 0),
		Indexes:   NewStoreBackend(f.vectors),
	}
	for _, o := range opts {
		o(&cfg, f)
	}
	f.pipeline, err = NewUploadPipeline(cfg)
	require.NoError(t, err)
	return f
}

func (f *fixture) upload(name string) (*common.UploadResult, error) {
	return f.pipeline.Upload(context.Background(), name, strings.NewReader("%PDF-1.4 test"))
}

func assertKind(t *testing.T, err error, kind pkgerrors.Kind, detail string) {
	t.Helper()
	require.Error(t, err)
	k, msg := pkgerrors.Public(err, "fallback")
	assert.Equal(t, kind, k, "kind of %v", err)
	assert.Equal(t, detail, msg)
}

func TestUpload_Success(t *testing.T) {
	f := newFixture(t)
	res, err := f.upload("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", res.Filename)
	assert.Greater(t, res.Chunks, 1)
	assert.NotZero(t, res.DocumentID)

	doc, err := f.registry.FindByFilename(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://report.pdf", doc.FilePath)
	assert.False(t, doc.UploadDate.IsZero())

	ok, err := f.vectors.Exists(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.True(t, ok, "index should exist under the filename")
	assert.Equal(t, 1, f.objects.Len())
}

func TestUpload_DuplicateLeavesFirstUntouched(t *testing.T) {
	f := newFixture(t)
	_, err := f.upload("report.pdf")
	require.NoError(t, err)
	extractCalls := f.extractor.calls

	_, err = f.upload("report.pdf")
	assertKind(t, err, pkgerrors.KindConflict, common.MsgDuplicate)
	assert.Equal(t, extractCalls, f.extractor.calls, "duplicate must be rejected before processing")

	docs, err := f.registry.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	ok, _ := f.vectors.Exists(context.Background(), "report.pdf")
	assert.True(t, ok)
	ok, _ = f.objects.Exists(context.Background(), "report.pdf")
	assert.True(t, ok)
}

func TestUpload_NonPDFRejectedBeforeWrite(t *testing.T) {
	f := newFixture(t)
	_, err := f.upload("notes.txt")
	assertKind(t, err, pkgerrors.KindUnsupportedType, common.MsgOnlyPDF)
	assert.Equal(t, 0, f.objects.Len())
	assert.Equal(t, 0, f.extractor.calls)
}

func TestUpload_UppercaseExtensionAccepted(t *testing.T) {
	f := newFixture(t)
	_, err := f.upload("SCAN.PDF")
	require.NoError(t, err)
}

func TestUpload_InvalidFilename(t *testing.T) {
	f := newFixture(t)
	_, err := f.upload("")
	assertKind(t, err, pkgerrors.KindInvalidInput, common.MsgMissingFile)

	_, err = f.upload("../etc/passwd.pdf")
	assertKind(t, err, pkgerrors.KindInvalidInput, common.MsgInvalidFilename)
	assert.Equal(t, 0, f.objects.Len())
}

func TestUpload_NoTextLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.extractor.text = " \n\n \n"
	_, err := f.upload("scan.pdf")
	assertKind(t, err, pkgerrors.KindEmptyContent, common.MsgNoText)

	exists, err := f.registry.Exists(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, f.objects.Len(), "raw file should be removed")
	assert.Equal(t, 0, f.embedder.calls)
}

func TestUpload_ExtractErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = errors.New("xref table broken at offset 1234")
	_, err := f.upload("broken.pdf")
	assertKind(t, err, pkgerrors.KindInternal, "fallback")
	assert.Equal(t, common.StageExtract, common.StageOf(err))
	assert.Equal(t, 0, f.objects.Len())
}

func TestUpload_EmbedFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = errors.New("quota exceeded")
	_, err := f.upload("report.pdf")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.KindInternal, pkgerrors.KindOf(err))
	assert.Equal(t, 0, f.objects.Len())
	ok, _ := f.vectors.Exists(context.Background(), "report.pdf")
	assert.False(t, ok)
}

func TestUpload_IndexFailureRemovesPartialIndexAndRaw(t *testing.T) {
	f := newFixture(t, func(c *UploadConfig, f *fixture) {
		c.Indexes = partialBackend{StoreBackend: NewStoreBackend(f.vectors)}
	})
	_, err := f.upload("report.pdf")
	require.Error(t, err)
	assert.Equal(t, common.StageIndex, common.StageOf(err))

	ok, _ := f.vectors.Exists(context.Background(), "report.pdf")
	assert.False(t, ok, "partial index should be removed")
	assert.Equal(t, 0, f.objects.Len())
	exists, _ := f.registry.Exists(context.Background(), "report.pdf")
	assert.False(t, exists)
}

func TestUpload_CommitFailureRemovesIndexAndRaw(t *testing.T) {
	f := newFixture(t, func(c *UploadConfig, f *fixture) {
		f.registry = metadata.NewRepository(failingCommitStore{MemoryStore: metadata.NewMemoryStore()})
		c.Registry = f.registry
	})
	_, err := f.upload("report.pdf")
	require.Error(t, err)
	assert.Equal(t, common.StageCommit, common.StageOf(err))
	_, detail := pkgerrors.Public(err, common.MsgUploadFailed)
	assert.NotContains(t, detail, "connection reset")

	ok, _ := f.vectors.Exists(context.Background(), "report.pdf")
	assert.False(t, ok, "index must not outlive a failed commit")
	assert.Equal(t, 0, f.objects.Len())
}

func TestUpload_OrphanIndexReplaced(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vectors.Build(context.Background(),
		&vector.Index{Name: "report.pdf", Dimension: 1},
		[]*vector.Vector{{ID: "old", Values: []float64{1}}}))

	_, err := f.upload("report.pdf")
	require.NoError(t, err)
	res, err := f.vectors.Search(context.Background(), "report.pdf", []float64{1, 1, 1}, &vector.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.NotEqual(t, "old", res[0].ID)
}

func TestUpload_ConcurrentSameNameRejected(t *testing.T) {
	f := newFixture(t)
	release, err := f.claimer.Claim(context.Background(), "report.pdf")
	require.NoError(t, err)
	defer release()

	_, err = f.upload("report.pdf")
	assertKind(t, err, pkgerrors.KindConflict, common.MsgDuplicate)
	assert.Equal(t, 0, f.objects.Len())
}

func TestUpload_LongFilenameOnDisk(t *testing.T) {
	root := t.TempDir()
	objects, err := object.NewFileStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	vectors, err := vector.NewFileStore(filepath.Join(root, "faiss_index"))
	require.NoError(t, err)
	f := newFixture(t, func(cfg *UploadConfig, _ *fixture) {
		cfg.Objects = objects
		cfg.Indexes = NewStoreBackend(vectors)
	})

	name := strings.Repeat("a", 230) + ".pdf"
	_, err = f.upload(name)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "uploads", name))
	assert.NoError(t, err, "raw file stored under its own name")
	ok, err := vectors.Exists(context.Background(), name)
	require.NoError(t, err)
	assert.True(t, ok)
	doc, err := f.registry.FindByFilename(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", name), doc.FilePath)
}

func TestNewUploadPipeline_RequiresDependencies(t *testing.T) {
	_, err := NewUploadPipeline(UploadConfig{})
	assert.Error(t, err)
}
