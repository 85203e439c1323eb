// Package errors 提供统一错误分类：封闭的 Kind 枚举 + 对外可见的 Detail，不依赖 internal
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// 常用哨兵错误
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
	ErrConflict   = errors.New("conflict")
)

// Kind 错误类别，取值封闭；handler 只按 Kind 决定响应码
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindConflict
	KindUnsupportedType
	KindEmptyContent
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindInvalidInput:    "invalid_input",
	KindConflict:        "conflict",
	KindUnsupportedType: "unsupported_type",
	KindEmptyContent:    "empty_content",
	KindNotFound:        "not_found",
}

// String 返回 Kind 名称（用于日志与 metrics label）
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "internal"
}

// HTTPStatus Kind → HTTP 状态码；重名冲突沿用 400
func HTTPStatus(k Kind) int {
	switch k {
	case KindInvalidInput, KindConflict, KindUnsupportedType, KindEmptyContent:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error 带类别的错误。Detail 可直接返回给调用方，Err 只进日志
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建带类别的错误
func New(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// E 创建带类别并包装底层错误的 Error
func E(kind Kind, op, detail string, err error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

// KindOf 取错误链上第一个 *Error 的 Kind；非分类错误视为 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Public 返回可对外暴露的 Kind 与 Detail；未分类错误统一使用 fallback
func Public(err error, fallback string) (Kind, string) {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Detail != "" {
		return e.Kind, e.Detail
	}
	return KindInternal, fallback
}

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
