package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePrometheus(t *testing.T) {
	UploadTotal.WithLabelValues("ok").Inc()
	ObserveStage("extract", time.Now().Add(-10*time.Millisecond))
	ChunksPerDocument.Observe(3)

	var buf bytes.Buffer
	require.NoError(t, WritePrometheus(&buf))
	out := buf.String()
	assert.Contains(t, out, `docqa_upload_total{result="ok"}`)
	assert.Contains(t, out, `docqa_stage_duration_seconds_count{stage="extract"}`)
	assert.Contains(t, out, "docqa_chunks_per_document_count")
}
