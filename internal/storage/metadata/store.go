package metadata

import (
	"context"
	"fmt"

	"docqa/pkg/config"
)

// NewStore 根据配置创建登记表：postgres（默认）| sqlite | memory
func NewStore(ctx context.Context, cfg config.MetadataConfig) (Store, error) {
	switch cfg.Type {
	case "", "postgres":
		return NewPostgresStore(ctx, cfg.DSN, cfg.PoolSize)
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.DSN)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("不支持的元数据存储类型: %s", cfg.Type)
	}
}
