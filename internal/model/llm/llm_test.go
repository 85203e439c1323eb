package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/pkg/config"
)

type fakeChatModel struct {
	input    []*schema.Message
	reply    *schema.Message
	err      error
	deadline bool
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	_, f.deadline = ctx.Deadline()
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestChatClient_Generate(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("42", nil)}
	c := NewChatClient(fake, nil, "gemini", "gemini-1.5-pro", time.Minute)

	got, err := c.Generate(context.Background(), "what is the answer?")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
	require.Len(t, fake.input, 1)
	assert.Equal(t, schema.User, fake.input[0].Role)
	assert.Equal(t, "what is the answer?", fake.input[0].Content)
	assert.True(t, fake.deadline, "timeout should be applied")
	assert.Equal(t, "gemini", c.Provider())
	assert.Equal(t, "gemini-1.5-pro", c.Model())
}

func TestChatClient_Errors(t *testing.T) {
	c := NewChatClient(&fakeChatModel{err: errors.New("503")}, nil, "gemini", "m", 0)
	_, err := c.Generate(context.Background(), "q")
	assert.ErrorContains(t, err, "503")

	c = NewChatClient(&fakeChatModel{}, nil, "gemini", "m", 0)
	_, err = c.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.ModelConfig{LLM: config.ProviderConfig{Provider: "bogus"}}, "k", nil)
	assert.ErrorContains(t, err, "bogus")
}
