// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
	"errors"
	"fmt"

	"docqa/pkg/config"
)

// ErrNotFound secret 不存在
var ErrNotFound = errors.New("secret not found")

// Store Secret 存储接口
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)

	// Set 设置 secret 值
	Set(ctx context.Context, key string, value string) error

	// Delete 删除 secret
	Delete(ctx context.Context, key string) error
}

// NewStore 根据 secrets 配置创建 Store：env（默认）| memory | vault
func NewStore(cfg config.SecretsConfig) (Store, error) {
	switch cfg.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	case "vault":
		return NewVaultStore(VaultConfig{
			Address:    cfg.Vault.Address,
			Token:      cfg.Vault.Token,
			PathPrefix: cfg.Vault.PathPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", cfg.Provider)
	}
}

// ResolveAPIKey 解析模型 API Key：显式配置优先，否则从 store 读取 key
func ResolveAPIKey(ctx context.Context, store Store, explicit, key string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if store == nil || key == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return store.Get(ctx, key)
}
