package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"docqa/internal/model/guard"
	"docqa/pkg/config"
	"docqa/pkg/log"
)

type fakeModels struct {
	calls     [][]*genai.Content
	taskTypes []string
	err       error
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, contents)
	f.taskTypes = append(f.taskTypes, cfg.TaskType)
	resp := &genai.EmbedContentResponse{}
	for i := range contents {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(i), 0.5}})
	}
	return resp, nil
}

func TestGeminiEmbedder_BatchesAndTaskType(t *testing.T) {
	fm := &fakeModels{}
	e := newGeminiEmbedder(fm, "")
	assert.Equal(t, DefaultGeminiModel, e.model)

	texts := make([]string, 150)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}
	vecs, err := e.EmbedStrings(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 150)
	require.Len(t, fm.calls, 2)
	assert.Len(t, fm.calls[0], 100)
	assert.Len(t, fm.calls[1], 50)
	assert.Equal(t, []string{TaskRetrievalDocument, TaskRetrievalDocument}, fm.taskTypes)
	assert.Equal(t, []float64{0, 0.5}, vecs[0])

	_, err = e.EmbedStrings(context.Background(), []string{"question?"}, WithTaskType(TaskRetrievalQuery))
	require.NoError(t, err)
	assert.Equal(t, TaskRetrievalQuery, fm.taskTypes[2])
}

func TestGeminiEmbedder_Error(t *testing.T) {
	e := newGeminiEmbedder(&fakeModels{err: errors.New("quota")}, "m")
	_, err := e.EmbedStrings(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "quota")
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body.Model)
		w.Header().Set("Content-Type", "application/json")
		// 故意乱序返回
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("sk-test", "", srv.URL+"/v1/", time.Second)
	vecs, err := e.EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, vecs)
}

func TestOpenAIEmbedder_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("bad", "m", srv.URL, time.Second)
	_, err := e.EmbedStrings(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "401")
}

func TestGuarded_PassesThrough(t *testing.T) {
	fm := &fakeModels{}
	g := guard.New("embedding", "gemini", config.RemoteLimitConfig{MaxConcurrent: 1}, log.Nop())
	e := NewGuarded(newGeminiEmbedder(fm, "m"), g, "gemini", "m", time.Second)
	vecs, err := e.EmbedStrings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.ModelConfig{Embedding: config.ProviderConfig{Provider: "bogus"}}, "k", nil)
	assert.Error(t, err)
}

func TestForQuery_ForcesQueryTask(t *testing.T) {
	fm := &fakeModels{}
	e := ForQuery(newGeminiEmbedder(fm, "m"))
	_, err := e.EmbedStrings(context.Background(), []string{"what is revenue?"}, WithTaskType(TaskRetrievalDocument))
	require.NoError(t, err)
	assert.Equal(t, []string{TaskRetrievalQuery}, fm.taskTypes)
}
