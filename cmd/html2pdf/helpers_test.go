package main

// Notes:
// - fakeConverter stands in for *html2pdf.Converter; its PDF echoes the
//   document so tests can check which file produced which output.
// - testEnv wires buffers, a map-backed environment and the fake into an
//   Environment; no browser is ever started.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-html2pdf"
)

// Compile-time interface check
var _ Converter = (*fakeConverter)(nil)

type fakeConverter struct {
	mu      sync.Mutex
	opts    int // options passed to NewConverter
	htmls   []string
	failOn  string
	err     error // returned by every Convert
	closed  bool
	created int
}

func (f *fakeConverter) Convert(ctx context.Context, html string, opts *html2pdf.Options) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.htmls = append(f.htmls, html)
	if f.err != nil {
		return nil, f.err
	}
	if f.failOn != "" && strings.Contains(html, f.failOn) {
		return nil, html2pdf.ErrBrowser
	}
	f.created++
	return []byte("%PDF-" + html), nil
}

func (f *fakeConverter) ConvertBatch(ctx context.Context, reqs []html2pdf.Request) ([][]byte, error) {
	out := make([][]byte, len(reqs))
	for i, r := range reqs {
		pdf, err := f.Convert(ctx, r.HTML, r.Options)
		if err != nil {
			return nil, err
		}
		out[i] = pdf
	}
	return out, nil
}

func (f *fakeConverter) ConvertBatchResults(ctx context.Context, reqs []html2pdf.Request) []html2pdf.Result {
	out := make([]html2pdf.Result, len(reqs))
	for i, r := range reqs {
		out[i].PDF, out[i].Err = f.Convert(ctx, r.HTML, r.Options)
	}
	return out
}

func (f *fakeConverter) Stats() html2pdf.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return html2pdf.Stats{Created: f.created}
}

func (f *fakeConverter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
	conv   *fakeConverter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{},
		conv:   &fakeConverter{},
	}
	te.Environment = &Environment{
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			var out []string
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewConverter: func(opts ...html2pdf.Option) (Converter, error) {
			te.conv.opts = len(opts)
			return te.conv, nil
		},
		LookPath: func() (string, bool) { return "", false },
	}
	return te
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return tempDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
