// Package plaintext parses plain text and source files.
package plaintext

import (
	"bytes"
	"context"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// contentTypes maps extensions to their reported MIME type.
// Extensions missing here are reported as text/plain.
var contentTypes = map[string]string{
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
	"json": "application/json",
	"xml":  "application/xml",
	"yaml": "text/yaml",
	"yml":  "text/yaml",
	"toml": "text/toml",
	"js":   "text/javascript",
	"ts":   "text/typescript",
	"css":  "text/css",
	"go":   "text/x-go",
	"py":   "text/x-python",
	"java": "text/x-java",
	"rs":   "text/x-rust",
	"rb":   "text/x-ruby",
	"c":    "text/x-c",
	"h":    "text/x-c",
	"cpp":  "text/x-c++",
	"sh":   "text/x-shellscript",
	"sql":  "text/x-sql",
	"svg":  "image/svg+xml",
}

// Parser handles plain text documents.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "plaintext"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	exts := []string{"txt", "text", "log", "ini", "cfg", "conf", "properties"}
	for ext := range contentTypes {
		exts = append(exts, ext)
	}
	return exts
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser
}

// Parse returns the content as text. Invalid UTF-8 sequences are replaced.
func (p *Parser) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	content := bytes.TrimPrefix(req.Content, utf8BOM)
	text := strings.ToValidUTF8(string(content), "�")

	contentType, ok := contentTypes[req.Extension]
	if !ok {
		contentType = "text/plain; charset=utf-8"
	}
	return textutil.Result(req, text, contentType, nil), nil
}
