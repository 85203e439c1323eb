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

package common

import (
	"errors"
	"strings"
)

// ErrInvalidFilename 文件名不能作为存储键
var ErrInvalidFilename = errors.New("invalid filename")

// DocumentHandle 文档句柄：文件名同时是登记表自然键、原始文件 key 与索引名，统一在此派生。
// 存储根目录由各 Store 自己持有，句柄只给出 key
type DocumentHandle struct {
	Filename  string
	RawKey    string
	IndexName string
}

// NewHandle 校验文件名并派生各存储 key
func NewHandle(filename string) (DocumentHandle, error) {
	if err := ValidateFilename(filename); err != nil {
		return DocumentHandle{}, err
	}
	return DocumentHandle{
		Filename:  filename,
		RawKey:    filename,
		IndexName: filename,
	}, nil
}

// ValidateFilename 拒绝空名、路径分隔符与 . / ..
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidFilename
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidFilename
	}
	return nil
}

// IsPDF 扩展名判断，不区分大小写
func (h DocumentHandle) IsPDF() bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".pdf")
}
