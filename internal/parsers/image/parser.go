// Package image handles image files. Images carry no extractable text,
// so the result is empty and the OCR fallback applies when enabled.
package image

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // GIF decoder for DecodeConfig
	_ "image/jpeg" // JPEG decoder for DecodeConfig
	_ "image/png"  // PNG decoder for DecodeConfig
	"net/http"
	"strconv"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

// contentTypes maps extensions to MIME types for formats the sniffer misses.
var contentTypes = map[string]string{
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// Parser handles image files.
type Parser struct{}

// New creates a new image parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "image"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse returns no text and the image dimensions when the format is decodable.
func (p *Parser) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	contentType := http.DetectContentType(req.Content)
	if ct, ok := contentTypes[req.Extension]; ok {
		contentType = ct
	}

	meta := map[string]string{domain.MetaFormat: contentType}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(req.Content)); err == nil {
		meta["width"] = strconv.Itoa(cfg.Width)
		meta["height"] = strconv.Itoa(cfg.Height)
		meta["image_format"] = format
	}
	return textutil.Result(req, "", contentType, meta), nil
}
