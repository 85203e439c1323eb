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

package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore PostgreSQL 实现，连接池按调用/事务借还
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建 PostgreSQL 登记表并建表；poolSize ≤0 使用 pgx 默认值
func NewPostgresStore(ctx context.Context, dsn string, poolSize int) (Store, error) {
	config, err := pgxpool.ParseConfig(NormalizePostgresDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("解析 DB_URL 失败: %w", err)
	}
	if poolSize > 0 {
		config.MaxConns = int32(poolSize)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("创建 documents 表失败: %w", err)
	}
	return &pgStore{pool: pool}, nil
}

// NormalizePostgresDSN 去掉 SQLAlchemy 风格的驱动后缀，如 postgresql+psycopg2://
func NormalizePostgresDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if i := strings.Index(scheme, "+"); i >= 0 {
		scheme = scheme[:i]
	}
	return scheme + "://" + rest
}

func (s *pgStore) GetByFilename(ctx context.Context, filename string) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, file_path, upload_date FROM documents WHERE filename = $1`,
		filename).Scan(&d.ID, &d.Filename, &d.FilePath, &d.UploadDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *pgStore) List(ctx context.Context) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, filename, file_path, upload_date FROM documents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.FilePath, &d.UploadDate); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *pgStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Insert(ctx context.Context, doc *Document) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO documents (filename, file_path) VALUES ($1, $2) RETURNING id, upload_date`,
		doc.Filename, doc.FilePath).Scan(&doc.ID, &doc.UploadDate)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, doc.Filename)
	}
	return err
}

func (t *pgTx) Commit(ctx context.Context) error {
	err := t.tx.Commit(ctx)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
