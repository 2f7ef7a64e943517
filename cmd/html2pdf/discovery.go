package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-html2pdf/internal/markup"
)

// ErrUnsupportedInput rejects a file argument with an unknown extension.
var ErrUnsupportedInput = errors.New("file must have .html, .htm, .md or .markdown extension")

// inputExtensions lists convertible file extensions (lowercase).
var inputExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
	Markdown   bool
}

// isSupportedInput reports whether path has a convertible extension.
func isSupportedInput(path string) bool {
	return inputExtensions[strings.ToLower(filepath.Ext(path))]
}

// discoverFiles finds all convertible files under inputPath.
// A file argument must have a supported extension; directories are walked
// and unsupported files skipped.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !isSupportedInput(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrUnsupportedInput, filepath.Ext(inputPath))
		}
		return []FileToConvert{newFileToConvert(inputPath, outputDir, "")}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isSupportedInput(path) {
			return nil
		}
		files = append(files, newFileToConvert(path, outputDir, inputPath))
		return nil
	})
	return files, err
}

func newFileToConvert(path, outputDir, baseInputDir string) FileToConvert {
	return FileToConvert{
		InputPath:  path,
		OutputPath: resolveOutputPath(path, outputDir, baseInputDir),
		Markdown:   markup.IsMarkdownPath(path),
	}
}

// resolveOutputPath determines the PDF output path for an input file.
// Without an output dir the PDF lands next to its source. An output ending
// in .pdf is used as-is (single file). Directory inputs keep their
// relative layout under outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+".pdf")
	}

	if strings.HasSuffix(strings.ToLower(outputDir), ".pdf") {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base+".pdf")
		}
	}

	return filepath.Join(outputDir, base+".pdf")
}
