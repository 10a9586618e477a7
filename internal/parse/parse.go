// Package parse extracts plain text from uploaded document files.
package parse

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Parser extracts plain text from one file format.
type Parser interface {
	Parse(data []byte) (string, error)
}

// parsers maps lowercase file extensions to their parser.
var parsers = map[string]Parser{
	".txt":  plainParser{},
	".md":   plainParser{},
	".csv":  plainParser{},
	".html": htmlParser{},
	".htm":  htmlParser{},
	".pdf":  pdfParser{},
	".docx": docxParser{},
}

// Supported reports whether the file name has a parseable extension.
func Supported(name string) bool {
	_, ok := parsers[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the supported extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(parsers))
	for ext := range parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// File extracts plain text from data based on the file name's extension.
func File(name string, data []byte) (string, error) {
	p, ok := parsers[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %s", name)
	}
	text, err := p.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	return strings.TrimSpace(text), nil
}
