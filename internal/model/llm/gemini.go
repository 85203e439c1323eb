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
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// DefaultGeminiModel 默认问答模型
const DefaultGeminiModel = "gemini-1.5-pro"

// NewGeminiChatModel 通过 genai client 创建 eino Gemini chat model
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string, temperature float32) (model.BaseChatModel, error) {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient of gemini failed: %w", err)
	}
	cfg := &gemini.Config{
		Client: client,
		Model:  modelName,
	}
	if temperature > 0 {
		cfg.Temperature = &temperature
	}
	return gemini.NewChatModel(ctx, cfg)
}
