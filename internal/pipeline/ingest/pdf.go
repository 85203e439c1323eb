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

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	ledongpdf "github.com/ledongthuc/pdf"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"docqa/pkg/config"
)

// 提取器名称
const (
	ExtractorAuto       = "auto"
	ExtractorUnipdf     = "unipdf"
	ExtractorLedongthuc = "ledongthuc"
)

// Extractor PDF 文本提取器：按页序拼接全部文本
type Extractor interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

// NewExtractor 按配置创建提取器。auto：配置了 unidoc license 时先用 unipdf，失败或无文本再退回 ledongthuc
func NewExtractor(cfg config.PDFConfig) (Extractor, error) {
	switch cfg.Extractor {
	case "", ExtractorAuto:
		if cfg.UnidocLicenseKey == "" {
			return &LedongthucExtractor{}, nil
		}
		u, err := NewUnipdfExtractor(cfg.UnidocLicenseKey)
		if err != nil {
			return nil, err
		}
		return NewChainExtractor(u, &LedongthucExtractor{}), nil
	case ExtractorUnipdf:
		return NewUnipdfExtractor(cfg.UnidocLicenseKey)
	case ExtractorLedongthuc:
		return &LedongthucExtractor{}, nil
	default:
		return nil, fmt.Errorf("不支持的 PDF 提取器: %s", cfg.Extractor)
	}
}

var (
	licenseOnce sync.Once
	licenseErr  error
)

// UnipdfExtractor 基于 unidoc/unipdf 的提取器
type UnipdfExtractor struct{}

// NewUnipdfExtractor 创建 unipdf 提取器；licenseKey 非空时设置 metered license（进程内仅一次）
func NewUnipdfExtractor(licenseKey string) (*UnipdfExtractor, error) {
	if licenseKey != "" {
		licenseOnce.Do(func() {
			licenseErr = license.SetMeteredKey(licenseKey)
		})
		if licenseErr != nil {
			return nil, fmt.Errorf("设置 unidoc license 失败: %w", licenseErr)
		}
	}
	return &UnipdfExtractor{}, nil
}

// Name 返回提取器名称
func (u *UnipdfExtractor) Name() string { return ExtractorUnipdf }

// Extract 每页文本后追加换行
func (u *UnipdfExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("打开 PDF failed: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取页数failed: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("获取第 %d 页failed: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("创建第 %d 页提取器failed: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("提取第 %d 页文本failed: %w", i, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// LedongthucExtractor 基于 ledongthuc/pdf 的纯 Go 提取器，无需 license
type LedongthucExtractor struct{}

// Name 返回提取器名称
func (l *LedongthucExtractor) Name() string { return ExtractorLedongthuc }

// Extract 每页文本后追加换行；空页按空文本处理
func (l *LedongthucExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", nil
	}
	// 该库遇到损坏的 xref 会 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("解析 PDF panic: %v", r)
		}
	}()

	reader, err := ledongpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("打开 PDF failed: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if !page.V.IsNull() {
			pageText, err := page.GetPlainText(make(map[string]*ledongpdf.Font))
			if err != nil {
				return "", fmt.Errorf("提取第 %d 页文本failed: %w", i, err)
			}
			buf.WriteString(pageText)
		}
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// ChainExtractor 依次尝试多个提取器，返回第一个非空结果
type ChainExtractor struct {
	extractors []Extractor
}

// NewChainExtractor 创建链式提取器
func NewChainExtractor(extractors ...Extractor) *ChainExtractor {
	return &ChainExtractor{extractors: extractors}
}

// Name 返回提取器名称
func (c *ChainExtractor) Name() string {
	names := make([]string, 0, len(c.extractors))
	for _, e := range c.extractors {
		names = append(names, e.Name())
	}
	return strings.Join(names, "+")
}

// Extract 任一提取器成功即不返回错误；全部失败时返回最后一个错误
func (c *ChainExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	var (
		lastErr   error
		succeeded bool
		fallback  string
	)
	for _, e := range c.extractors {
		text, err := e.Extract(ctx, data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", e.Name(), err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
		succeeded = true
		fallback = text
	}
	if succeeded {
		return fallback, nil
	}
	if lastErr == nil {
		return "", nil
	}
	return "", lastErr
}
