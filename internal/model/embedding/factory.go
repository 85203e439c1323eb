package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"docqa/internal/model/guard"
	"docqa/pkg/config"
)

// New 按 provider 创建 embedder 并套上 guard：gemini（默认）| openai | qwen
func New(ctx context.Context, cfg config.ModelConfig, apiKey string, g *guard.Guard) (embedding.Embedder, error) {
	p := cfg.Embedding
	var inner embedding.Embedder
	switch p.Provider {
	case "", "gemini":
		e, err := NewGeminiEmbedder(ctx, apiKey, p.Model)
		if err != nil {
			return nil, err
		}
		inner = e
		p.Provider = "gemini"
	case "openai", "qwen":
		key := p.APIKey
		if key == "" {
			key = apiKey
		}
		inner = NewOpenAIEmbedder(key, p.Model, p.BaseURL, cfg.TimeoutDuration())
	default:
		return nil, fmt.Errorf("不支持的 embedding provider: %s", p.Provider)
	}
	return NewGuarded(inner, g, p.Provider, p.Model, cfg.TimeoutDuration()), nil
}
