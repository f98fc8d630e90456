// Package eml parses RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

// ContentType is the MIME type of email messages.
const ContentType = "message/rfc822"

// Parser handles EML (email) documents.
type Parser struct{}

// New creates a new EML parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "eml"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{"eml"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse extracts headers and the preferred text body.
func (p *Parser) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(req.Content))
	if err != nil {
		return nil, fmt.Errorf("eml: read message: %w", err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	from := decodeHeader(msg.Header.Get("From"))
	to := decodeHeader(msg.Header.Get("To"))

	body, err := extractBody(msg)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{domain.MetaFormat: ContentType}
	textutil.SetMeta(meta, domain.MetaTitle, subject)
	textutil.SetMeta(meta, domain.MetaAuthor, from)
	textutil.SetMeta(meta, "to", to)
	textutil.SetMeta(meta, "cc", decodeHeader(msg.Header.Get("Cc")))
	textutil.SetMeta(meta, "message_id", msg.Header.Get("Message-Id"))
	if date, err := msg.Header.Date(); err == nil {
		meta[domain.MetaDate] = date.UTC().Format(time.RFC3339)
	}

	return textutil.Result(req, strings.TrimSpace(body), ContentType, meta), nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header // Return original if decoding fails
	}
	return decoded
}

// extractBody extracts the text content from an email message.
func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// If we can't parse content type, try to read as plain text
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return "", fmt.Errorf("eml: read body: %w", readErr)
		}
		return string(body), nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", fmt.Errorf("eml: read body: %w", err)
	}
	if mediaType == "text/html" {
		return stripHTMLTags(string(body)), nil
	}
	return string(body), nil
}

// extractMultipartBody extracts text from multipart messages.
// Plain text parts are preferred over HTML parts.
func extractMultipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts []string
	var htmlParts []string

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "application/octet-stream"
		}

		content, readErr := io.ReadAll(part)
		part.Close()
		if readErr != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, stripHTMLTags(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, nestedErr := extractMultipartBody(bytes.NewReader(content), params["boundary"])
			if nestedErr == nil && nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	if len(htmlParts) > 0 {
		return strings.Join(htmlParts, "\n"), nil
	}
	return "", nil
}

// stripHTMLTags removes HTML tags for basic text extraction.
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	lines := strings.Split(result.String(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
