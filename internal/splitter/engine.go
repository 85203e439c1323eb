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
	"fmt"
	"sort"

	"docqa/internal/pipeline/common"
)

// 切片器名称与默认参数
const (
	NameRecursive = "recursive"
	NameToken     = "token"

	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Engine 切片引擎
type Engine struct {
	name      string
	splitters map[string]Splitter
}

// Splitter 切片器接口
type Splitter interface {
	Split(content string, options map[string]interface{}) ([]common.Chunk, error)
	Name() string
}

// NewEngine 创建新的切片引擎，注册 recursive 与 token 切片器
func NewEngine() *Engine {
	engine := &Engine{
		name:      "splitter_engine",
		splitters: make(map[string]Splitter),
	}
	engine.splitters[NameRecursive] = NewRecursiveSplitter()
	engine.splitters[NameToken] = NewTokenSplitter()
	return engine
}

// Name 返回引擎名称
func (e *Engine) Name() string {
	return e.name
}

// AddSplitter 添加自定义切片器
func (e *Engine) AddSplitter(name string, splitter Splitter) {
	e.splitters[name] = splitter
}

// GetSplitter 获取切片器
func (e *Engine) GetSplitter(name string) (Splitter, error) {
	splitter, exists := e.splitters[name]
	if !exists {
		return nil, fmt.Errorf("splitter not found: %s", name)
	}
	return splitter, nil
}

// Split 执行切片
func (e *Engine) Split(content string, splitterName string, options map[string]interface{}) ([]common.Chunk, error) {
	splitter, err := e.GetSplitter(splitterName)
	if err != nil {
		return nil, err
	}

	chunks, err := splitter.Split(content, options)
	if err != nil {
		return nil, fmt.Errorf("split failed: %w", err)
	}

	return chunks, nil
}

// GetSplitters 获取所有切片器名称（有序）
func (e *Engine) GetSplitters() []string {
	splitterNames := make([]string, 0, len(e.splitters))
	for name := range e.splitters {
		splitterNames = append(splitterNames, name)
	}
	sort.Strings(splitterNames)
	return splitterNames
}

// intOption 读取正整数选项，缺省或非法时返回 def
func intOption(options map[string]interface{}, key string, def int) int {
	if v, ok := options[key].(int); ok && v >= 0 {
		return v
	}
	return def
}
