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

package common

import (
	"time"
)

// Chunk 文档切片，embedding 与检索的基本单位
type Chunk struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float64              `json:"embedding,omitempty"`
	Index     int                    `json:"index"`
}

// Query 一次提问
type Query struct {
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievalResult 检索结果，Chunks 与 Scores 一一对应，按相似度降序
type RetrievalResult struct {
	Chunks      []Chunk       `json:"chunks"`
	Scores      []float64     `json:"scores"`
	ProcessTime time.Duration `json:"process_time"`
}

// GenerationResult 生成结果
type GenerationResult struct {
	Answer      string        `json:"answer"`
	ProcessTime time.Duration `json:"process_time"`
}

// UploadResult 上传完成后的登记信息
type UploadResult struct {
	DocumentID  int64         `json:"document_id"`
	Filename    string        `json:"filename"`
	Chunks      int           `json:"chunks"`
	ProcessTime time.Duration `json:"process_time"`
}
