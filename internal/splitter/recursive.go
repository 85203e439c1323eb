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
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"docqa/internal/pipeline/common"
)

// DefaultSeparators 由粗到细的分隔符，"" 表示逐字符切分
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter 递归字符切片器：优先按段落切，超长片段退化到行、词、字符。
// 长度按字符（rune）计；分隔符保留在后一片段的开头；相邻片段合并到 chunk_size 以内，并保留 chunk_overlap 的重叠
type RecursiveSplitter struct {
	name       string
	separators []string
}

// NewRecursiveSplitter 创建使用默认分隔符的递归切片器
func NewRecursiveSplitter() *RecursiveSplitter {
	return &RecursiveSplitter{name: "recursive_splitter", separators: DefaultSeparators}
}

// Name 返回切片器名称
func (s *RecursiveSplitter) Name() string {
	return s.name
}

// Split 执行切片；options: chunk_size, chunk_overlap
func (s *RecursiveSplitter) Split(content string, options map[string]interface{}) ([]common.Chunk, error) {
	size := intOption(options, "chunk_size", DefaultChunkSize)
	overlap := intOption(options, "chunk_overlap", DefaultChunkOverlap)
	if size <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", size)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk_overlap %d must be smaller than chunk_size %d", overlap, size)
	}

	texts := SplitText(content, size, overlap, s.separators)
	chunks := make([]common.Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, common.Chunk{
			ID:      uuid.New().String(),
			Content: t,
			Metadata: map[string]interface{}{
				"splitter": NameRecursive,
			},
			Index: i,
		})
	}
	return chunks, nil
}

// SplitText 纯文本版本的递归切分
func SplitText(text string, size, overlap int, separators []string) []string {
	m := merger{size: size, overlap: overlap}
	return m.split(text, separators)
}

type merger struct {
	size    int
	overlap int
}

func (m merger) split(text string, separators []string) []string {
	var final []string

	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < m.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, m.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, m.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, m.merge(good)...)
	}
	return final
}

// merge 贪心合并片段；片段已自带分隔符，拼接时不再插入
func (m merger) merge(pieces []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, p := range pieces {
		l := runeLen(p)
		if total+l > m.size && len(current) > 0 {
			if doc := joinTrim(current); doc != "" {
				docs = append(docs, doc)
			}
			for total > m.overlap || (total+l > m.size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l
	}
	if doc := joinTrim(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepSeparator 按分隔符切分，分隔符并入后一片段开头，去掉空片段
func splitKeepSeparator(text, separator string) []string {
	var out []string
	if separator == "" {
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, separator)
	for i, p := range parts {
		if i > 0 {
			p = separator + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinTrim(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
