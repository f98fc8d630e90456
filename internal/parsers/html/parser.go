// Package html parses HTML documents into readable text.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

// Parser handles HTML documents.
type Parser struct{}

// New creates a new HTML parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "html"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{"html", "htm", "xhtml"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50 // Generic format parser, higher than plaintext
}

// Parse strips tags and extracts the title and meta tags.
func (p *Parser) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	raw := string(req.Content)
	meta := make(map[string]string)
	textutil.SetMeta(meta, domain.MetaTitle, extractTitle(raw))
	for name, key := range metaNames {
		textutil.SetMeta(meta, key, extractMeta(raw, name))
	}
	if m := langAttr.FindStringSubmatch(raw); len(m) > 1 {
		textutil.SetMeta(meta, domain.MetaLanguage, m[1])
	}

	return textutil.Result(req, stripHTML(raw), "text/html; charset=utf-8", meta), nil
}

// metaNames maps <meta name="..."> values to metadata keys.
var metaNames = map[string]string{
	"author":      domain.MetaAuthor,
	"keywords":    domain.MetaKeywords,
	"description": "description",
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaTag           = regexp.MustCompile(`(?is)<meta\s+[^>]*>`)
	metaNameAttr      = regexp.MustCompile(`(?is)\bname\s*=\s*["']([^"']*)["']`)
	metaContentAttr   = regexp.MustCompile(`(?is)\bcontent\s*=\s*["']([^"']*)["']`)
	langAttr          = regexp.MustCompile(`(?is)<html[^>]*\blang\s*=\s*["']([^"']+)["']`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// extractTitle returns the decoded <title>, or "".
func extractTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return ""
	}
	return html.UnescapeString(strings.TrimSpace(matches[1]))
}

// extractMeta returns the content attribute of the named meta tag, or "".
func extractMeta(content, name string) string {
	for _, tag := range metaTag.FindAllString(content, -1) {
		n := metaNameAttr.FindStringSubmatch(tag)
		if len(n) < 2 || !strings.EqualFold(n[1], name) {
			continue
		}
		if c := metaContentAttr.FindStringSubmatch(tag); len(c) > 1 {
			return html.UnescapeString(c[1])
		}
	}
	return ""
}

// stripHTML removes HTML tags and extracts readable text content.
func stripHTML(content string) string {
	// Remove script, style, noscript, head, and svg tags entirely
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	// Block elements become line breaks
	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim each line and remove empty lines
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
