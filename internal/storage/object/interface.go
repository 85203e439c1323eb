package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// Store 原始文件存储接口；key 即文档文件名
type Store interface {
	// Put 写入对象，已存在时覆盖
	Put(ctx context.Context, key string, data io.Reader) (*ObjectInfo, error)
	// Get 读取对象
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象，不存在返回 ErrNotFound
	Delete(ctx context.Context, key string) error
	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)
	// Path 对象在存储中的位置（登记到 file_path）
	Path(key string) string
	// Close 关闭存储连接
	Close() error
}

// ObjectInfo 对象信息
type ObjectInfo struct {
	Key       string `json:"key"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
}
