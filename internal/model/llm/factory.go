package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"docqa/internal/model/guard"
	"docqa/pkg/config"
)

// NewClient 按 provider 创建 LLM 客户端：gemini（默认）| openai | qwen | claude。
// apiKey 为 Gemini 共享 key，provider 自带 api_key 时优先使用
func NewClient(ctx context.Context, cfg config.ModelConfig, apiKey string, g *guard.Guard) (Client, error) {
	p := cfg.LLM
	key := p.APIKey
	if key == "" {
		key = apiKey
	}

	var (
		chat model.BaseChatModel
		err  error
	)
	switch p.Provider {
	case "", "gemini":
		p.Provider = "gemini"
		if p.Model == "" {
			p.Model = DefaultGeminiModel
		}
		chat, err = NewGeminiChatModel(ctx, key, p.Model, p.Temperature)
	case "openai", "qwen":
		chat, err = NewOpenAIChatModel(ctx, key, p.Model, p.BaseURL, p.Temperature)
	case "claude":
		chat, err = NewClaudeChatModel(ctx, key, p.Model, p.BaseURL, p.Temperature)
	default:
		return nil, fmt.Errorf("不支持的 LLM provider: %s", p.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("创建 %s chat model 失败: %w", p.Provider, err)
	}
	return NewChatClient(chat, g, p.Provider, p.Model, cfg.TimeoutDuration()), nil
}
