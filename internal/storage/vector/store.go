package vector

import (
	"fmt"

	"docqa/pkg/config"
)

// NewStore 根据配置创建本地向量存储：file（默认）| memory；redis 由 einoext 处理
func NewStore(cfg config.VectorConfig) (Store, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("不支持的向量存储类型: %s", cfg.Type)
	}
}
