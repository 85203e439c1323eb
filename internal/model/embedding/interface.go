package embedding

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"docqa/internal/model/guard"
	"docqa/pkg/metrics"
	"docqa/pkg/tracing"
)

// Gemini embedding 任务类型
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// DefaultGeminiModel 默认 embedding 模型
const DefaultGeminiModel = "models/text-embedding-004"

type taskOptions struct {
	TaskType string
}

// WithTaskType 指定本次调用的任务类型（文档 / 查询）
func WithTaskType(taskType string) embedding.Option {
	return embedding.WrapImplSpecificOptFn(func(o *taskOptions) {
		o.TaskType = taskType
	})
}

func taskTypeOf(def string, opts ...embedding.Option) string {
	o := embedding.GetImplSpecificOptions(&taskOptions{TaskType: def}, opts...)
	return o.TaskType
}

// Guarded 在 Embedder 外加限流、熔断、耗时指标与 span
type Guarded struct {
	inner    embedding.Embedder
	guard    *guard.Guard
	provider string
	model    string
	timeout  time.Duration
}

// NewGuarded 包装 Embedder；g 可为 nil，timeout<=0 不额外设置超时
func NewGuarded(inner embedding.Embedder, g *guard.Guard, provider, model string, timeout time.Duration) *Guarded {
	return &Guarded{inner: inner, guard: g, provider: provider, model: model, timeout: timeout}
}

// EmbedStrings 实现 embedding.Embedder
func (e *Guarded) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ctx, span := tracing.StartRemoteSpan(ctx, e.provider, "embed", e.model)
	start := time.Now()
	var out [][]float64
	err := e.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = e.inner.EmbedStrings(ctx, texts, opts...)
		return err
	})
	metrics.RemoteCallDuration.WithLabelValues(e.provider, "embed").Observe(time.Since(start).Seconds())
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForQuery 包装 Embedder，每次调用都以 RETRIEVAL_QUERY 任务类型向量化
func ForQuery(inner embedding.Embedder) embedding.Embedder {
	return queryEmbedder{inner: inner}
}

type queryEmbedder struct {
	inner embedding.Embedder
}

func (q queryEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	return q.inner.EmbedStrings(ctx, texts, append(opts, WithTaskType(TaskRetrievalQuery))...)
}

var (
	_ embedding.Embedder = (*Guarded)(nil)
	_ embedding.Embedder = queryEmbedder{}
	_ embedding.Embedder = (*GeminiEmbedder)(nil)
	_ embedding.Embedder = (*OpenAIEmbedder)(nil)
)
