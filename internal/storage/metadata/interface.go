package metadata

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound 文档登记不存在
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate 文件名唯一约束冲突
	ErrDuplicate = errors.New("document filename already exists")
)

// Store 文档登记表接口：每个上传成功的文档一条记录，filename 唯一
type Store interface {
	// GetByFilename 按文件名查询，不存在返回 ErrNotFound
	GetByFilename(ctx context.Context, filename string) (*Document, error)
	// List 按存储顺序列出全部文档
	List(ctx context.Context) ([]*Document, error)
	// Begin 开启写事务；调用方必须 Commit 或 Rollback
	Begin(ctx context.Context) (Tx, error)
	// Close 关闭存储连接
	Close() error
}

// Tx 登记表写事务
type Tx interface {
	// Insert 插入记录并回填 ID / UploadDate；唯一冲突返回 ErrDuplicate（可能延迟到 Commit）
	Insert(ctx context.Context, doc *Document) error
	// Commit 提交
	Commit(ctx context.Context) error
	// Rollback 回滚；Commit 之后调用为空操作
	Rollback(ctx context.Context) error
}

// Document 文档登记记录
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path"`
	UploadDate time.Time `json:"upload_date"`
}
