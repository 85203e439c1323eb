package vector

import (
	"context"
	"errors"
)

var (
	// ErrIndexNotFound 索引不存在
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexExists 索引已存在
	ErrIndexExists = errors.New("index already exists")
)

// 向量元数据中保存切片文本与位置的键
const (
	MetaContent    = "content"
	MetaChunkIndex = "chunk_index"
	MetaDocument   = "document"
)

// Store 向量索引存储接口：每个文档一个索引，整体构建、整体删除
type Store interface {
	// Build 一次性创建索引并写入全部向量；索引已存在返回 ErrIndexExists
	Build(ctx context.Context, index *Index, vectors []*Vector) error
	// Search 搜索向量；索引不存在返回 ErrIndexNotFound
	Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error)
	// Exists 索引是否存在
	Exists(ctx context.Context, indexName string) (bool, error)
	// DeleteIndex 删除索引
	DeleteIndex(ctx context.Context, indexName string) error
	// ListIndexes 列出所有索引
	ListIndexes(ctx context.Context) ([]string, error)
	// Close 关闭存储连接
	Close() error
}

// Index 索引描述
type Index struct {
	Name      string            `json:"name"`      // 索引名称
	Dimension int               `json:"dimension"` // 向量维度
	Distance  string            `json:"distance"`  // 距离度量方式
	Metadata  map[string]string `json:"metadata"`  // 索引元数据
}

// Vector 向量及其元数据
type Vector struct {
	ID       string            `json:"id"`       // 向量唯一标识
	Values   []float64         `json:"values"`   // 向量值
	Metadata map[string]string `json:"metadata"` // 向量元数据
}

// SearchOptions 搜索选项
type SearchOptions struct {
	TopK           int     `json:"top_k"`           // 返回前 K 个结果
	Threshold      float64 `json:"threshold"`       // 相似度阈值
	IncludeVectors bool    `json:"include_vectors"` // 是否包含向量值
}

// SearchResult 搜索结果
type SearchResult struct {
	ID       string            `json:"id"`               // 向量唯一标识
	Score    float64           `json:"score"`            // 相似度得分
	Metadata map[string]string `json:"metadata"`         // 向量元数据
	Values   []float64         `json:"values,omitempty"` // 向量值（可选）
}
