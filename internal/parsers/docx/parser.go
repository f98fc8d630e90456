// Package docx parses Office Open XML word processing documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Parser implements the interface.
var _ driven.ParsingBackend = (*Parser)(nil)

// ContentType is the MIME type of DOCX files.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxPartSize bounds how much of one archive entry is read.
const maxPartSize = 64 << 20

// errNoDocument is returned for archives without word/document.xml.
var errNoDocument = errors.New("docx: missing word/document.xml")

// Parser handles DOCX documents.
type Parser struct{}

// New creates a new DOCX parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "docx"
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{"docx", "docm", "dotx"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse extracts body text from word/document.xml and metadata from docProps.
func (p *Parser) Parse(_ context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(req.Content), int64(len(req.Content)))
	if err != nil {
		return nil, fmt.Errorf("docx: open archive: %w", err)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errNoDocument
	}
	text, err := documentText(body)
	if err != nil {
		return nil, fmt.Errorf("docx: parse document: %w", err)
	}

	meta := make(map[string]string)
	meta[domain.MetaFormat] = ContentType
	if core, _ := readPart(reader, "docProps/core.xml"); core != nil {
		coreMetadata(core, meta)
	}
	if app, _ := readPart(reader, "docProps/app.xml"); app != nil {
		appMetadata(app, meta)
	}

	return textutil.Result(req, text, ContentType, meta), nil
}

// readPart returns the content of a named archive entry, or nil when absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("docx: open %s: %w", name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("docx: read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}

// documentText walks the document XML, keeping text runs and turning
// paragraphs, breaks and tabs into whitespace.
func documentText(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var out strings.Builder
	inText, inRun := false, false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				if inRun {
					out.WriteString("\t")
				}
			case "br", "cr":
				if inRun {
					out.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				out.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// coreXML represents the fields of docProps/core.xml that are kept.
type coreXML struct {
	Title       string `xml:"title"`
	Subject     string `xml:"subject"`
	Creator     string `xml:"creator"`
	Keywords    string `xml:"keywords"`
	Description string `xml:"description"`
	Language    string `xml:"language"`
	Created     string `xml:"created"`
	Modified    string `xml:"modified"`
}

func coreMetadata(content []byte, meta map[string]string) {
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return
	}
	textutil.SetMeta(meta, domain.MetaTitle, core.Title)
	textutil.SetMeta(meta, domain.MetaAuthor, core.Creator)
	textutil.SetMeta(meta, domain.MetaKeywords, core.Keywords)
	textutil.SetMeta(meta, domain.MetaLanguage, core.Language)
	textutil.SetMeta(meta, domain.MetaCreated, core.Created)
	textutil.SetMeta(meta, domain.MetaDate, core.Modified)
	textutil.SetMeta(meta, "subject", core.Subject)
	textutil.SetMeta(meta, "description", core.Description)
}

// appXML represents the fields of docProps/app.xml that are kept.
type appXML struct {
	Pages       string `xml:"Pages"`
	Application string `xml:"Application"`
}

func appMetadata(content []byte, meta map[string]string) {
	var app appXML
	if err := xml.Unmarshal(content, &app); err != nil {
		return
	}
	textutil.SetMeta(meta, domain.MetaPages, app.Pages)
	textutil.SetMeta(meta, "application", app.Application)
}
