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

package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil, "msg") != nil {
		t.Error("Wrap(nil, msg) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrap(err, "context")
	if wrapped == nil {
		t.Fatal("Wrap(err, msg) should not return nil")
	}
	if !errors.Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "format %s", "x") != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrapf(err, "id=%s", "a")
	if wrapped == nil {
		t.Fatal("Wrapf(err, ...) should not return nil")
	}
	if !errors.Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestSentinels(t *testing.T) {
	if !errors.Is(Wrap(ErrConflict, "insert"), ErrConflict) {
		t.Error("wrapped ErrConflict should match")
	}
	if !errors.Is(ErrNotFound, ErrNotFound) {
		t.Error("ErrNotFound should be Is ErrNotFound")
	}
	if !errors.Is(ErrInvalidArg, ErrInvalidArg) {
		t.Error("ErrInvalidArg should be Is ErrInvalidArg")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:    400,
		KindConflict:        400,
		KindUnsupportedType: 400,
		KindEmptyContent:    400,
		KindNotFound:        404,
		KindInternal:        500,
		Kind(99):            500,
	}
	for k, want := range cases {
		if got := HTTPStatus(k); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", k, got, want)
		}
	}
}

func TestKindOf(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(E(KindNotFound, "ask", "Document not found.", base), "outer")
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf: got %s", KindOf(err))
	}
	if !errors.Is(err, base) {
		t.Error("classified error should unwrap to base")
	}
	if KindOf(base) != KindInternal {
		t.Errorf("unclassified error should be internal, got %s", KindOf(base))
	}
}

func TestPublic_HidesInternalText(t *testing.T) {
	kind, detail := Public(errors.New("pq: connection refused at 10.0.0.1"), "Error processing file.")
	if kind != KindInternal || detail != "Error processing file." {
		t.Errorf("Public: got %s %q", kind, detail)
	}

	kind, detail = Public(E(KindInternal, "upload", "index write: permission denied", nil), "Error processing file.")
	if kind != KindInternal || detail != "Error processing file." {
		t.Errorf("internal detail should not leak: got %q", detail)
	}

	kind, detail = Public(New(KindUnsupportedType, "upload", "Only PDF files are allowed."), "x")
	if kind != KindUnsupportedType || detail != "Only PDF files are allowed." {
		t.Errorf("Public: got %s %q", kind, detail)
	}
}
