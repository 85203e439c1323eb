package http

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"docqa/internal/api/http/middleware"
)

const defaultMaxUploadMB = 64

// Router HTTP 路由器
type Router struct {
	handler        *Handler
	middleware     *middleware.Middleware
	metricsEnabled bool
	maxUploadMB    int
	extra          []app.HandlerFunc
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{
		handler:        handler,
		middleware:     mw,
		metricsEnabled: true,
		maxUploadMB:    defaultMaxUploadMB,
	}
}

// SetMetricsEnabled 是否注册 GET /metrics
func (r *Router) SetMetricsEnabled(enabled bool) {
	r.metricsEnabled = enabled
}

// SetMaxUploadMB 请求体上限；<=0 使用默认值
func (r *Router) SetMaxUploadMB(mb int) {
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	r.maxUploadMB = mb
}

// Use 追加全局中间件，须在 Build 之前调用
func (r *Router) Use(mw ...app.HandlerFunc) {
	r.extra = append(r.extra, mw...)
}

// Build 创建 Hertz 实例并注册路由；opts 追加在默认选项之后（如 tracer）
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	all := append([]config.Option{
		server.WithHostPorts(addr),
		server.WithMaxRequestBodySize(r.maxUploadMB << 20),
	}, opts...)
	h := server.Default(all...)
	h.Use(r.extra...)
	h.Use(r.middleware.AccessLog(), r.middleware.CORS())

	h.GET("/health", r.handler.HealthCheck)
	h.POST("/upload", r.handler.UploadDocument)
	h.POST("/ask", r.handler.AskQuestion)
	h.GET("/documents", r.handler.ListDocuments)
	if r.metricsEnabled {
		h.GET("/metrics", r.handler.Metrics)
	}
	return h
}
