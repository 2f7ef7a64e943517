package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-html2pdf"
)

func convertArgs(t *testing.T, args ...string) *convertFlags {
	t.Helper()
	flags, _, err := parseConvertFlags(args, &strings.Builder{})
	if err != nil {
		t.Fatalf("parseConvertFlags(%v) unexpected error: %v", args, err)
	}
	return flags
}

func TestRunConvert_SingleHTMLFile(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	dir := setupTestDir(t, map[string]string{"page.html": "<p>hello</p>"})

	err := runConvert(context.Background(), []string{filepath.Join(dir, "page.html")}, convertArgs(t), te.Environment)
	if err != nil {
		t.Fatalf("runConvert() unexpected error: %v (stderr %s)", err, te.stderr)
	}

	if got := readFile(t, filepath.Join(dir, "page.pdf")); got != "%PDF-<p>hello</p>" {
		t.Errorf("pdf = %q", got)
	}
	if !strings.Contains(te.stdout.String(), "Created "+filepath.Join(dir, "page.pdf")) {
		t.Errorf("stdout = %q", te.stdout)
	}
	if !te.conv.closed {
		t.Error("converter was not closed")
	}
}

func TestRunConvert_MarkdownRenderedBeforeConversion(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	dir := setupTestDir(t, map[string]string{"notes.md": "# Title\n\nBody"})

	if err := runConvert(context.Background(), []string{dir}, convertArgs(t), te.Environment); err != nil {
		t.Fatalf("runConvert() unexpected error: %v", err)
	}

	pdf := readFile(t, filepath.Join(dir, "notes.pdf"))
	for _, want := range []string{"<!DOCTYPE html>", "<title>notes</title>", `<h1 id="title">Title</h1>`} {
		if !strings.Contains(pdf, want) {
			t.Errorf("converted document missing %q", want)
		}
	}
}

func TestRunConvert_DirectoryToOutputDir(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	dir := setupTestDir(t, map[string]string{
		"a.html":     "<p>a</p>",
		"sub/b.html": "<p>b</p>",
	})
	out := filepath.Join(t.TempDir(), "pdfs")

	if err := runConvert(context.Background(), []string{dir}, convertArgs(t, "-o", out), te.Environment); err != nil {
		t.Fatalf("runConvert() unexpected error: %v", err)
	}

	if got := readFile(t, filepath.Join(out, "sub", "b.pdf")); got != "%PDF-<p>b</p>" {
		t.Errorf("sub/b.pdf = %q", got)
	}
	if !strings.Contains(te.stdout.String(), "2 succeeded, 0 failed") {
		t.Errorf("stdout = %q, want summary", te.stdout)
	}
}

func TestRunConvert_PartialFailure(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	te.conv.failOn = "broken"
	dir := setupTestDir(t, map[string]string{
		"good.html": "<p>good</p>",
		"bad.html":  "<p>broken</p>",
	})

	err := runConvert(context.Background(), []string{dir}, convertArgs(t), te.Environment)
	if !errors.Is(err, ErrConversionsFailed) || !errors.Is(err, html2pdf.ErrBrowser) {
		t.Fatalf("runConvert() error = %v, want ErrConversionsFailed wrapping ErrBrowser", err)
	}
	if exitCodeFor(err) != ExitBrowser {
		t.Errorf("exit code = %d, want %d", exitCodeFor(err), ExitBrowser)
	}

	if got := readFile(t, filepath.Join(dir, "good.pdf")); got != "%PDF-<p>good</p>" {
		t.Errorf("good.pdf = %q", got)
	}
	if !strings.Contains(te.stderr.String(), "FAILED "+filepath.Join(dir, "bad.html")) {
		t.Errorf("stderr = %q", te.stderr)
	}
	if !strings.Contains(te.stdout.String(), "1 succeeded, 1 failed") {
		t.Errorf("stdout = %q", te.stdout)
	}
}

func TestRunConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"a.html":    "<p>a</p>",
		"b.html":    "<p>b</p>",
		"notes.txt": "x",
	})
	empty := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		flags   []string
		wantErr error
	}{
		{"no input", nil, nil, ErrNoInput},
		{"empty directory", []string{empty}, nil, ErrNoInput},
		{"missing file", []string{filepath.Join(dir, "nope.html")}, nil, ErrReadInput},
		{"unsupported file", []string{filepath.Join(dir, "notes.txt")}, nil, ErrUnsupportedInput},
		{"pdf output for many", []string{dir}, []string{"-o", "out.pdf"}, ErrOutputConflict},
		{"bad margin", []string{dir}, []string{"--margin", "wide"}, html2pdf.ErrInvalidOption},
		{"bad backend", []string{dir}, []string{"--backend", "firefox"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(t)
			err := runConvert(context.Background(), tt.args, convertArgs(t, tt.flags...), te.Environment)
			if err == nil {
				t.Fatal("runConvert() = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("runConvert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConvert_EmptyDocumentReported(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	te.conv.err = html2pdf.ErrEmptyHTML
	dir := setupTestDir(t, map[string]string{"blank.html": "   "})

	err := runConvert(context.Background(), []string{filepath.Join(dir, "blank.html")}, convertArgs(t), te.Environment)
	if exitCodeFor(err) != ExitUsage {
		t.Errorf("exit code = %d for %v, want %d", exitCodeFor(err), err, ExitUsage)
	}
}

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{html2pdf.ErrBrowserConnect, "doctor"},
		{html2pdf.ErrWaitReady, "--timeout"},
		{html2pdf.ErrInvalidOption, "margins"},
		{errors.New("other"), ""},
	}
	for _, tt := range tests {
		got := hintFor(tt.err)
		if tt.want == "" && got != "" {
			t.Errorf("hintFor(%v) = %q, want none", tt.err, got)
		}
		if tt.want != "" && !strings.Contains(got, tt.want) {
			t.Errorf("hintFor(%v) = %q, want mention of %q", tt.err, got, tt.want)
		}
	}
}
