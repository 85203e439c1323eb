package ingest

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/storage/vector"
	"docqa/pkg/config"
)

func TestDocumentSplitter_Transform(t *testing.T) {
	s, err := NewDocumentSplitter(config.ChunkingConfig{ChunkSize: 1000, ChunkOverlap: 100})
	require.NoError(t, err)

	docs, err := s.Transform(context.Background(), []*schema.Document{{ID: "report.pdf", Content: reportText}})
	require.NoError(t, err)
	require.Greater(t, len(docs), 1)
	for i, d := range docs {
		assert.LessOrEqual(t, len([]rune(d.Content)), 1000)
		assert.Equal(t, "report.pdf", d.MetaData[vector.MetaDocument])
		assert.Equal(t, i, d.MetaData[vector.MetaChunkIndex])
		assert.NotEmpty(t, d.ID)
	}
}

func TestDocumentSplitter_BlankText(t *testing.T) {
	s, err := NewDocumentSplitter(config.ChunkingConfig{})
	require.NoError(t, err)
	docs, err := s.Transform(context.Background(), []*schema.Document{{ID: "a.pdf", Content: "  \n\n  "}})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNewDocumentSplitter_Invalid(t *testing.T) {
	_, err := NewDocumentSplitter(config.ChunkingConfig{ChunkSize: 100, ChunkOverlap: 100})
	assert.Error(t, err)
	_, err = NewDocumentSplitter(config.ChunkingConfig{Splitter: "semantic"})
	assert.Error(t, err)
}
