package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"healthy","message":"API is running correctly"}`)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		f, fh, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"detail":"please upload file"}`)
			return
		}
		defer f.Close()
		if !strings.HasSuffix(fh.Filename, ".pdf") {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"detail":"Only PDF files are allowed."}`)
			return
		}
		io.WriteString(w, `{"message":"File uploaded and processed successfully."}`)
	})
	mux.HandleFunc("/ask", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body, _ := io.ReadAll(r.Body)
		if !bytes.Contains(body, []byte(`"filename":"a.pdf"`)) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"Document not found."}`)
			return
		}
		io.WriteString(w, `{"answer":"forty-two"}`)
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":1,"filename":"a.pdf"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("DOCQA_API_URL", srv.URL)
	return srv
}

func runCLI(args []string, stdin string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Health(t *testing.T) {
	newFakeAPI(t)
	code, out, _ := runCLI([]string{"health"}, "")
	assert.Equal(t, 0, code)
	assert.Equal(t, "healthy\n", out)
}

func TestRun_Upload(t *testing.T) {
	newFakeAPI(t)
	dir := t.TempDir()
	pdf := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0644))

	code, out, _ := runCLI([]string{"upload", pdf}, "")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "File uploaded and processed successfully.")

	txt := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0644))
	code, _, errOut := runCLI([]string{"upload", txt}, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "400: Only PDF files are allowed.")
}

func TestRun_Ask(t *testing.T) {
	newFakeAPI(t)
	code, out, _ := runCLI([]string{"ask", "a.pdf", "what", "is", "it?"}, "")
	assert.Equal(t, 0, code)
	assert.Equal(t, "forty-two\n", out)

	code, _, errOut := runCLI([]string{"ask", "b.pdf", "q"}, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "404: Document not found.")
}

func TestRun_Documents(t *testing.T) {
	newFakeAPI(t)
	code, out, _ := runCLI([]string{"documents"}, "")
	assert.Equal(t, 0, code)
	assert.Equal(t, "1\ta.pdf\n", out)
}

func TestRun_Chat(t *testing.T) {
	newFakeAPI(t)
	code, out, _ := runCLI([]string{"chat", "a.pdf"}, "first?\nsecond?\nexit\n")
	assert.Equal(t, 0, code)
	assert.Equal(t, 2, strings.Count(out, "forty-two"))
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := runCLI([]string{"bogus"}, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage: docqa")

	code, _, errOut = runCLI([]string{"ask", "a.pdf"}, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage: docqa ask")
}
