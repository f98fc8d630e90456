// Package pdf parses PDF documents with the poppler command line tools.
package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

// ContentType is the MIME type of PDF files.
const ContentType = "application/pdf"

const (
	textTool = "pdftotext"
	infoTool = "pdfinfo"
)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// infoKeys maps pdfinfo fields to metadata keys.
var infoKeys = map[string]string{
	"Title":        domain.MetaTitle,
	"Author":       domain.MetaAuthor,
	"Keywords":     domain.MetaKeywords,
	"Subject":      "subject",
	"Creator":      "creator",
	"Producer":     "producer",
	"CreationDate": domain.MetaCreated,
	"ModDate":      domain.MetaDate,
	"Pages":        domain.MetaPages,
	"PDF version":  "pdf_version",
}

// Parser handles PDF documents.
type Parser struct {
	runner    CommandRunner
	available func() error
}

// New creates a PDF parser that runs the installed poppler tools.
func New() *Parser {
	return &Parser{runner: execRunner{}, available: CheckAvailable}
}

// NewWithRunner creates a PDF parser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Parser {
	return &Parser{runner: runner, available: func() error { return nil }}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(textTool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install the PDF tools.
func InstallInstructions() string {
	return `PDF extraction needs pdftotext and pdfinfo from poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "pdf"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{"pdf"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse extracts text with pdftotext and document info with pdfinfo.
// An image-only PDF yields empty text, leaving room for OCR.
func (p *Parser) Parse(ctx context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	if err := p.available(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "fscrawler-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("pdf: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(req.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("pdf: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("pdf: write temp file: %w", err)
	}

	out, err := p.runner.Run(ctx, textTool, "-enc", "UTF-8", "-q", tmp.Name(), "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	meta := map[string]string{domain.MetaFormat: ContentType}
	info, err := p.runner.Run(ctx, infoTool, "-isodates", "-enc", "UTF-8", tmp.Name())
	if err != nil {
		logger.Debug("pdfinfo failed for %s: %v", req.Filename, err)
	} else {
		parseInfo(info, meta)
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "\n"))
	return textutil.Result(req, text, ContentType, meta), nil
}

// parseInfo reads "Key:   value" lines of pdfinfo output.
func parseInfo(out []byte, meta map[string]string) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		if metaKey, known := infoKeys[strings.TrimSpace(key)]; known {
			textutil.SetMeta(meta, metaKey, value)
		}
	}
}
