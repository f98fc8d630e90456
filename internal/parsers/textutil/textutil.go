// Package textutil holds helpers shared by the parsers.
package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// sniffLen is how many leading bytes are inspected to decide if content is text.
const sniffLen = 8000

// LooksLikeText reports whether the leading bytes are valid UTF-8 without NUL bytes.
func LooksLikeText(content []byte) bool {
	if len(content) > sniffLen {
		content = content[:sniffLen]
		// Do not fail on a rune cut in half.
		for i := 0; i < utf8.UTFMax && len(content) > 0 && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	for _, b := range content {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(content)
}

// Result builds a parse result with the text clamped to the request limit.
func Result(req driven.ParseRequest, text, contentType string, meta map[string]string) *driven.ParseResult {
	if meta == nil {
		meta = map[string]string{}
	}
	text, truncated := domain.ClampText(text, req.CharLimit)
	return &driven.ParseResult{
		Text:        text,
		Metadata:    meta,
		Truncated:   truncated,
		ContentType: contentType,
	}
}

// SetMeta stores value under key when it is not blank.
func SetMeta(meta map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		meta[key] = value
	}
}
