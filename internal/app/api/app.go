package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"docqa/internal/api/http"
	"docqa/internal/api/http/middleware"
	"docqa/internal/app"
	"docqa/pkg/config"
	"docqa/pkg/log"
	"docqa/pkg/tracing"
)

// App API 应用（装配 HTTP Router、Handler、Middleware；仅依赖 DocumentService）
type App struct {
	bootstrap *app.Bootstrap
	router    *http.Router

	mu     sync.Mutex
	hertz  *server.Hertz
	tracer *sdktrace.TracerProvider
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil || bootstrap.Documents == nil {
		return nil, fmt.Errorf("api: bootstrap without document service")
	}
	cfg := bootstrap.Config
	handler := http.NewHandler(bootstrap.Documents, bootstrap.Logger)
	mw := middleware.NewMiddleware(middleware.Options{
		AllowOrigins: cfg.API.CORS.AllowOrigins,
		EnableCORS:   cfg.API.CORS.Enable,
		Logger:       bootstrap.Logger,
	})
	router := http.NewRouter(handler, mw)
	router.SetMetricsEnabled(cfg.Monitoring.Prometheus.Enable)
	router.SetMaxUploadMB(cfg.API.MaxUploadMB)
	return &App{bootstrap: bootstrap, router: router}, nil
}

// Run 启动 HTTP 服务并阻塞，addr 如 ":8080"
func (a *App) Run(addr string) error {
	cfg := a.bootstrap.Config
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	if err := setHertzLogger(cfg.Log); err != nil {
		return err
	}

	// 可选：启用链路追踪（OpenTelemetry）
	tc := cfg.Monitoring.Tracing
	endpoint := tc.ExportEndpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if tc.Enable && endpoint != "" {
		tp, err := tracing.InitTracer(context.Background(), tracing.OTelConfig{
			ServiceName:    tc.ServiceName,
			ExportEndpoint: endpoint,
			Insecure:       tc.Insecure,
		})
		if err != nil {
			return fmt.Errorf("初始化链路追踪失败: %w", err)
		}
		tracerOpt, tcfg := hertztracing.NewServerTracer()
		a.router.Use(hertztracing.ServerMiddleware(tcfg))
		a.setServer(a.router.Build(addr, tracerOpt), tp)
		a.bootstrap.Logger.Info("链路追踪已启用", "service_name", tc.ServiceName, "endpoint", endpoint)
	} else {
		a.setServer(a.router.Build(addr), nil)
	}
	a.mu.Lock()
	h := a.hertz
	a.mu.Unlock()
	return h.Run()
}

func (a *App) setServer(h *server.Hertz, tp *sdktrace.TracerProvider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hertz, a.tracer = h, tp
}

func setHertzLogger(lc config.LogConfig) error {
	out, _, err := (&log.Config{File: lc.File}).Output()
	if err != nil {
		return err
	}
	levelVar := &slog.LevelVar{}
	levelVar.Set(log.ParseLevel(lc.Level))
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(out),
		hertzslog.WithLevel(levelVar),
	))
	return nil
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	h, tp := a.hertz, a.tracer
	a.mu.Unlock()

	var firstErr error
	if h != nil {
		if err := h.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.bootstrap.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
