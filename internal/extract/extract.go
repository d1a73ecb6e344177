// Package extract converts uploaded document bytes into plain text
// for chunking and indexing.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/askdocs/askdocs/internal/domain"
)

// TypeOf returns the lowercased file extension without the dot.
func TypeOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

// Supported reports whether files with the given name can be extracted.
func Supported(fileName string) bool {
	switch TypeOf(fileName) {
	case "txt", "md", "docx", "xlsx", "pdf":
		return true
	}
	return false
}

// Text extracts plain text from a document based on its file extension.
func Text(fileName string, data []byte) (string, error) {
	switch TypeOf(fileName) {
	case "txt", "md":
		return plainText(fileName, data)
	case "docx":
		return docxText(data)
	case "xlsx":
		return xlsxText(data)
	case "pdf":
		return pdfText(data)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileName)
	}
}

func plainText(fileName string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrExtraction, fileName)
	}
	return string(data), nil
}
