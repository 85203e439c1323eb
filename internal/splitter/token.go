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

package splitter

import (
	"strings"

	"github.com/google/uuid"

	"docqa/internal/pipeline/common"
)

// TokenSplitter 按空白分词的 Token 切片器，chunk_size / chunk_overlap 以词为单位
type TokenSplitter struct {
	name string
}

// NewTokenSplitter 创建新的 Token 切片器
func NewTokenSplitter() *TokenSplitter {
	return &TokenSplitter{
		name: "token_splitter",
	}
}

// Name 返回切片器名称
func (s *TokenSplitter) Name() string {
	return s.name
}

// Split 执行 Token 切片
func (s *TokenSplitter) Split(content string, options map[string]interface{}) ([]common.Chunk, error) {
	maxTokens := intOption(options, "chunk_size", 200)
	if maxTokens == 0 {
		maxTokens = 200
	}
	chunkOverlap := intOption(options, "chunk_overlap", 20)
	if chunkOverlap >= maxTokens {
		chunkOverlap = maxTokens - 1
	}
	return s.splitByTokens(content, maxTokens, chunkOverlap), nil
}

// splitByTokens 按 Token 分割
func (s *TokenSplitter) splitByTokens(content string, maxTokens, chunkOverlap int) []common.Chunk {
	tokens := strings.Fields(content)
	var chunks []common.Chunk
	var currentTokens []string

	for _, token := range tokens {
		if len(currentTokens)+1 > maxTokens {
			chunks = append(chunks, s.createChunk(strings.Join(currentTokens, " "), len(chunks)))

			// 新 chunk 以上一块末尾 overlap 个词开头
			if chunkOverlap > 0 && len(currentTokens) > chunkOverlap {
				currentTokens = append([]string(nil), currentTokens[len(currentTokens)-chunkOverlap:]...)
			} else {
				currentTokens = nil
			}
		}
		currentTokens = append(currentTokens, token)
	}

	if len(currentTokens) > 0 {
		chunks = append(chunks, s.createChunk(strings.Join(currentTokens, " "), len(chunks)))
	}

	return chunks
}

// createChunk 创建切片
func (s *TokenSplitter) createChunk(content string, index int) common.Chunk {
	return common.Chunk{
		ID:      uuid.New().String(),
		Content: content,
		Metadata: map[string]interface{}{
			"splitter": NameToken,
		},
		Index: index,
	}
}
