package parsers

import (
	"github.com/Bowriverstudio/fscrawler/internal/logger"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/docx"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/eml"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/html"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/image"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/markdown"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/pdf"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/plaintext"
)

// NewDefaultRegistry returns a registry with every built-in parser.
// Plain text doubles as the fallback for unknown text-like files.
// PDF parsing is left out when the poppler tools are missing, so PDF
// files still reach the OCR fallback.
func NewDefaultRegistry() *Registry {
	text := plaintext.New()
	r := NewRegistry(text)
	r.Register(text)
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(docx.New())
	r.Register(eml.New())
	if err := pdf.CheckAvailable(); err != nil {
		logger.Warn("%v: PDF text extraction disabled\n%s", err, pdf.InstallInstructions())
	} else {
		r.Register(pdf.New())
	}
	r.Register(image.New())
	return r
}
