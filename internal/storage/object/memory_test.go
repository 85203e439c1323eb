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

package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStoreRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	info, err := s.Put(ctx, "report.pdf", bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 5 || info.Path != s.Path("report.pdf") {
		t.Errorf("Put info: %+v", info)
	}
	rc, err := s.Get(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "hello" {
		t.Errorf("Get: got %q", string(b))
	}
	ok, err := s.Exists(ctx, "report.pdf")
	if err != nil || !ok {
		t.Errorf("Exists: ok=%v err=%v", ok, err)
	}
	if err := s.Delete(ctx, "report.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "report.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: want ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "report.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice: want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestFileStore_RoundTrip(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStoreRoundTrip(t, s)
}

func TestFileStore_PutOverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := s.Put(ctx, "a.pdf", bytes.NewReader([]byte("one"))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Put(ctx, "a.pdf", bytes.NewReader([]byte("two"))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	if err != nil || string(data) != "two" {
		t.Errorf("file content: %q err=%v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only a.pdf in dir, got %d entries", len(entries))
	}
}

func TestFileStore_PutLongName(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	// 250 字节，接近常见文件系统 255 字节的名字上限
	key := strings.Repeat("a", 246) + ".pdf"
	if _, err := s.Put(context.Background(), key, bytes.NewReader([]byte("%PDF"))); err != nil {
		t.Fatalf("Put(%d-byte name): %v", len(key), err)
	}
	if _, err := os.Stat(filepath.Join(dir, key)); err != nil {
		t.Errorf("stored file: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the stored file, got %d entries", len(entries))
	}
}
