// Package content implements the Content Processor (§4.3): detecting a
// document's format from its path and bytes, and normalizing it before
// chunking.
package content

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/doylet/docsearch/internal/core"
)

// languageByExtension maps a source file extension to the language name
// internal/chunk's code chunker and tree-sitter registry expect.
var languageByExtension = map[string]string{
	".go":  "go",
	".ts":  "typescript",
	".tsx": "tsx",
	".js":  "javascript",
	".mjs": "javascript",
	".jsx": "jsx",
	".py":  "python",
}

// DetectContentType classifies a document by its path extension, falling
// back to sniffing the bytes for binary content.
func DetectContentType(path string, data []byte) core.ContentType {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown", ".mdx":
		return core.ContentMarkdown
	case ".html", ".htm":
		return core.ContentHTML
	case ".json", ".yaml", ".yml", ".toml":
		return core.ContentStructured
	}
	if _, ok := languageByExtension[ext]; ok {
		return core.ContentCode
	}
	if !utf8.Valid(data) {
		return core.ContentUnknown
	}
	return core.ContentPlainText
}

// DetectLanguage returns the tree-sitter language name for path's
// extension, and false if it is not a recognized source language.
func DetectLanguage(path string) (string, bool) {
	lang, ok := languageByExtension[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Normalize strips a UTF-8 BOM and normalizes line endings to "\n", which
// keeps line numbers recorded by chunkers stable regardless of the
// originating platform.
func Normalize(data []byte) string {
	text := string(data)
	text = strings.TrimPrefix(text, "﻿")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
