package app

import (
	"context"
	"errors"
	"fmt"

	einoembed "github.com/cloudwego/eino/components/embedding"

	"docqa/internal/model/embedding"
	"docqa/internal/model/guard"
	"docqa/internal/model/llm"
	"docqa/pkg/config"
	"docqa/pkg/log"
	"docqa/pkg/secrets"
)

// Models 远程模型：文档/问题向量化与回答生成
type Models struct {
	Embedder einoembed.Embedder
	LLM      llm.Client
}

// NewModels 解析 API Key 并按 model 配置创建 embedder 与 LLM，各自套上限流熔断
func NewModels(ctx context.Context, cfg *config.Config, store secrets.Store, logger *log.Logger) (*Models, error) {
	apiKey, err := secrets.ResolveAPIKey(ctx, store, cfg.Model.APIKey, cfg.Secrets.APIKeyName)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			return nil, fmt.Errorf("解析模型 API Key 失败: %w", err)
		}
		// 非 gemini provider 可以只使用各自的 api_key
		logger.Warn("model api key not found in secret store", "key", cfg.Secrets.APIKeyName)
	}

	embGuard := guard.New("embedding", providerName(cfg.Model.Embedding.Provider), cfg.RateLimits.Embedding, logger)
	emb, err := embedding.New(ctx, cfg.Model, apiKey, embGuard)
	if err != nil {
		return nil, fmt.Errorf("初始化 embedding 失败: %w", err)
	}

	llmGuard := guard.New("llm", providerName(cfg.Model.LLM.Provider), cfg.RateLimits.LLM, logger)
	client, err := llm.NewClient(ctx, cfg.Model, apiKey, llmGuard)
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 失败: %w", err)
	}
	logger.Info("models ready",
		"embedding_provider", providerName(cfg.Model.Embedding.Provider), "embedding_model", cfg.Model.Embedding.Model,
		"llm_provider", client.Provider(), "llm_model", client.Model())
	return &Models{Embedder: emb, LLM: client}, nil
}

func providerName(p string) string {
	if p == "" {
		return "gemini"
	}
	return p
}
