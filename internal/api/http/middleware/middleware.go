package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/cors"

	"docqa/pkg/log"
)

// Options 中间件配置
type Options struct {
	EnableCORS   bool
	AllowOrigins []string
	Logger       *log.Logger
}

// Middleware 中间件管理器
type Middleware struct {
	opts Options
}

// NewMiddleware 创建新的中间件管理器
func NewMiddleware(opts Options) *Middleware {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Middleware{opts: opts}
}

// CORS 允许配置的来源携带凭证访问，方法与请求头不做限制；未启用时直接放行
func (m *Middleware) CORS() app.HandlerFunc {
	if !m.opts.EnableCORS || len(m.opts.AllowOrigins) == 0 {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	handler := cors.New(cors.Config{
		AllowOrigins:     m.opts.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
	return func(ctx context.Context, c *app.RequestContext) {
		handler(ctx, c)
		// 携带凭证时浏览器不认 "*"，预检通过后回显客户端申请的请求头
		if !c.IsAborted() || string(c.Method()) != consts.MethodOptions {
			return
		}
		if len(c.Response.Header.Peek("Access-Control-Allow-Origin")) == 0 {
			return
		}
		if requested := c.Request.Header.Peek("Access-Control-Request-Headers"); len(requested) > 0 {
			c.Response.Header.Set("Access-Control-Allow-Headers", string(requested))
		}
	}
}

// AccessLog 请求日志
func (m *Middleware) AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		m.opts.Logger.InfoContext(ctx, "http request",
			"method", string(c.Method()),
			"path", string(c.Path()),
			"status", c.Response.StatusCode(),
			"client_ip", c.ClientIP(),
			"latency", time.Since(start),
		)
	}
}
