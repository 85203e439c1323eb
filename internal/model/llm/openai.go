// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// NewOpenAIChatModel OpenAI 兼容 chat model；baseURL 用于 Qwen/DashScope 等兼容端点
func NewOpenAIChatModel(ctx context.Context, apiKey, modelName, baseURL string, temperature float32) (model.BaseChatModel, error) {
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	cfg := &openai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: baseURL,
	}
	if temperature > 0 {
		cfg.Temperature = &temperature
	}
	return openai.NewChatModel(ctx, cfg)
}
