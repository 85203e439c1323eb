package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		UploadTotal, AskTotal,
		StageDuration, ChunksPerDocument,
		RemoteCallDuration, RateLimitWaitSeconds,
	)
}

// UploadTotal 上传请求数（按结果：ok 或错误 Kind）
var UploadTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docqa_upload_total",
		Help: "上传请求总数（按结果）",
	},
	[]string{"result"},
)

// AskTotal 提问请求数（按结果）
var AskTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docqa_ask_total",
		Help: "提问请求总数（按结果）",
	},
	[]string{"result"},
)

// StageDuration 流水线各阶段耗时（秒）
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "docqa_stage_duration_seconds",
		Help:    "流水线阶段耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"}, // extract | split | embed | index | commit | retrieve | generate
)

// ChunksPerDocument 每个文档切出的 chunk 数
var ChunksPerDocument = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "docqa_chunks_per_document",
		Help:    "每个文档的 chunk 数",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	},
)

// RemoteCallDuration 远程模型调用耗时
var RemoteCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "docqa_remote_call_duration_seconds",
		Help:    "远程 embedding / LLM 调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "op"},
)

// RateLimitWaitSeconds 限流等待时长
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "docqa_rate_limit_wait_seconds",
		Help:    "远程调用限流等待时长（秒）",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	},
	[]string{"kind", "provider"},
)

// ObserveStage 记录阶段耗时
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
