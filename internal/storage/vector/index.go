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

package vector

import (
	"fmt"
	"math"
	"sort"
)

// validateBuild 校验索引描述与向量维度
func validateBuild(index *Index, vectors []*Vector) error {
	if index == nil || index.Name == "" {
		return fmt.Errorf("index name is required")
	}
	if index.Dimension <= 0 {
		return fmt.Errorf("index %s: dimension must be positive", index.Name)
	}
	for _, v := range vectors {
		if len(v.Values) != index.Dimension {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(v.Values), index.Dimension)
		}
	}
	return nil
}

// rank 对向量打分、过滤并截取前 TopK
func rank(index *Index, vectors []*Vector, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	if len(query) != index.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), index.Dimension)
	}
	if options == nil {
		options = &SearchOptions{TopK: 4}
	}

	results := make([]*SearchResult, 0, len(vectors))
	for _, v := range vectors {
		score := calculateSimilarity(query, v.Values, index.Distance)
		if score < options.Threshold {
			continue
		}
		result := &SearchResult{ID: v.ID, Score: score, Metadata: v.Metadata}
		if options.IncludeVectors {
			result.Values = v.Values
		}
		results = append(results, result)
	}

	// 同分时保持构建顺序
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if options.TopK > 0 && len(results) > options.TopK {
		results = results[:options.TopK]
	}
	return results, nil
}

func calculateSimilarity(query, vector []float64, distance string) float64 {
	switch distance {
	case "euclidean":
		return 1.0 / (1.0 + euclideanDistance(query, vector))
	case "dot":
		return dotProduct(query, vector)
	default:
		return cosineSimilarity(query, vector)
	}
}

func dotProduct(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dot := 0.0
	normA := 0.0
	normB := 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
