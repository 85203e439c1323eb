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
	"errors"
	"fmt"
)

// Pipeline 阶段名，用于错误归属、日志与 metrics label
const (
	StageClaim    = "claim"
	StageLookup   = "lookup"
	StageValidate = "validate"
	StageStore    = "store"
	StageExtract  = "extract"
	StageSplit    = "split"
	StageEmbed    = "embed"
	StageIndex    = "index"
	StageCommit   = "commit"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
)

// 定义 Pipeline 相关错误
var (
	ErrEmptyText      = errors.New("no text extracted")
	ErrNoChunks       = errors.New("no chunks produced")
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)

// PipelineError Pipeline 错误结构体
type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[Pipeline] %s 阶段错误: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[Pipeline] %s 阶段错误: %s", e.Stage, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError 创建新的 Pipeline 错误
func NewPipelineError(stage string, message string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// StageOf 返回错误所属阶段，非 PipelineError 返回空
func StageOf(err error) string {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Stage
	}
	return ""
}
