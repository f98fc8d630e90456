// Package markdown parses Markdown documents into plain text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

// Parser handles Markdown documents.
type Parser struct{}

// New creates a new Markdown parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "markdown"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{"md", "markdown", "mdown", "mkd"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50 // Generic format parser, higher than plaintext
}

// Parse simplifies markdown formatting and takes the first H1 as title.
func (p *Parser) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	raw := string(req.Content)
	meta := make(map[string]string)
	textutil.SetMeta(meta, domain.MetaTitle, extractTitle(raw))
	return textutil.Result(req, stripMarkdown(raw), "text/markdown; charset=utf-8", meta), nil
}

// extractTitle returns the first H1 heading, or "".
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

var (
	codeFence     = regexp.MustCompile("(?m)^```[^\n]*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	hr            = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common markdown formatting for plain text content.
// Code is kept as text since it is searchable content.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
