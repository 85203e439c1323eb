package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"docqa/internal/model/guard"
	"docqa/pkg/metrics"
	"docqa/pkg/tracing"
)

// ErrEmptyAnswer 模型返回空消息
var ErrEmptyAnswer = errors.New("llm returned empty message")

// Client 问答使用的 LLM 客户端
type Client interface {
	// Generate 以单条 user 消息调用模型，返回回答文本
	Generate(ctx context.Context, prompt string) (string, error)
	// Model 返回模型名称
	Model() string
	// Provider 返回提供商名称
	Provider() string
}

// ChatClient 基于 eino BaseChatModel 的 Client 实现
type ChatClient struct {
	chat     model.BaseChatModel
	guard    *guard.Guard
	provider string
	model    string
	timeout  time.Duration
}

// NewChatClient 包装任意 eino chat model；g 可为 nil
func NewChatClient(chat model.BaseChatModel, g *guard.Guard, provider, modelName string, timeout time.Duration) *ChatClient {
	return &ChatClient{chat: chat, guard: g, provider: provider, model: modelName, timeout: timeout}
}

// Generate 实现 Client.Generate
func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx, span := tracing.StartRemoteSpan(ctx, c.provider, "generate", c.model)
	start := time.Now()

	var answer string
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		msg, err := c.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
		if err != nil {
			return fmt.Errorf("%s generate: %w", c.provider, err)
		}
		if msg == nil {
			return ErrEmptyAnswer
		}
		answer = msg.Content
		return nil
	})
	metrics.RemoteCallDuration.WithLabelValues(c.provider, "generate").Observe(time.Since(start).Seconds())
	tracing.End(span, err)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Model 返回模型名称
func (c *ChatClient) Model() string { return c.model }

// Provider 返回提供商名称
func (c *ChatClient) Provider() string { return c.provider }

var _ Client = (*ChatClient)(nil)
