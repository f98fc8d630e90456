package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// DocumentAssembler builds store documents from extraction results.
type DocumentAssembler struct {
	fs  domain.FsSettings
	now func() time.Time
}

// NewDocumentAssembler creates an assembler for the job's filesystem settings.
func NewDocumentAssembler(fs domain.FsSettings) *DocumentAssembler {
	return &DocumentAssembler{fs: fs, now: time.Now}
}

// Assemble builds the document of a file. A nil extraction yields a
// metadata-only document.
func (a *DocumentAssembler) Assemble(ext *domain.ExtractionResult, c domain.Candidate) domain.Document {
	if ext == nil {
		ext = &domain.ExtractionResult{}
	}
	doc := domain.Document{
		File: domain.File{
			Extension:    Extension(c.Name),
			ContentType:  ext.ContentType,
			Created:      timePtr(c.Created),
			LastModified: timePtr(c.LastModified),
			LastAccessed: timePtr(c.LastAccessed),
			IndexingDate: timePtr(a.now()),
			Filename:     c.Name,
			URL:          "file://" + c.RealPath,
			Checksum:     ext.Checksum,
		},
		Path: a.path(c),
	}
	if a.fs.AddFilesize {
		size := c.Size
		doc.File.Filesize = &size
	}
	if a.fs.IndexContent {
		doc.Content = ext.Text
		if ext.Truncated {
			n := int64(utf8.RuneCountInString(ext.Text))
			doc.File.IndexedChars = &n
		}
	}
	if a.fs.AttributesSupport {
		doc.Attributes = &domain.Attributes{
			Owner:       c.Owner,
			Group:       c.Group,
			Permissions: c.Permissions,
		}
	}
	if a.fs.StoreSource && len(ext.Content) > 0 {
		doc.Attachment = base64.StdEncoding.EncodeToString(ext.Content)
	}
	doc.Meta = a.meta(ext.Metadata)
	return doc
}

// Body encodes the store document of a file. A parsed JSON or XML body
// replaces the document, or goes under its "object" field when it is
// added as an inner object.
func (a *DocumentAssembler) Body(ext *domain.ExtractionResult, c domain.Candidate) ([]byte, error) {
	doc := a.Assemble(ext, c)
	if ext == nil || ext.Object == nil {
		return json.Marshal(doc)
	}
	if a.fs.AddAsInnerObject {
		doc.Object = ext.Object
		return json.Marshal(doc)
	}
	if ext.Object.Kind() != domain.KindMapping {
		return nil, fmt.Errorf("%w: %s: body is a %s, not an object",
			domain.ErrExtraction, c.Name, ext.Object.Kind())
	}
	return json.Marshal(ext.Object)
}

// AssembleFolder builds the document of a directory.
func (a *DocumentAssembler) AssembleFolder(c domain.Candidate) domain.Document {
	return domain.Document{
		File: domain.File{
			Filename:     c.Name,
			Created:      timePtr(c.Created),
			LastModified: timePtr(c.LastModified),
			IndexingDate: timePtr(a.now()),
		},
		Path: a.path(c),
	}
}

// MergeOverlay merges a JSON overlay onto a document. Mappings merge key
// by key and every other value in the overlay replaces the document's.
// The merged result must still decode into a document.
func MergeOverlay(doc domain.Document, overlay []byte) (domain.Document, error) {
	if len(bytes.TrimSpace(overlay)) == 0 {
		return doc, nil
	}
	ov, err := domain.ParseValue(overlay)
	if err != nil {
		return doc, fmt.Errorf("%w: %w", domain.ErrMalformedOverlay, err)
	}
	if ov.Kind() != domain.KindMapping {
		return doc, fmt.Errorf("%w: overlay must be an object, got %s", domain.ErrMalformedOverlay, ov.Kind())
	}
	base, err := domain.ValueOf(doc)
	if err != nil {
		return doc, fmt.Errorf("encode document: %w", err)
	}
	data, err := json.Marshal(domain.Merge(base, ov))
	if err != nil {
		return doc, fmt.Errorf("encode merged document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var merged domain.Document
	if err := dec.Decode(&merged); err != nil {
		return doc, fmt.Errorf("%w: %w", domain.ErrMalformedOverlay, err)
	}
	merged.ID = doc.ID
	return merged, nil
}

func (a *DocumentAssembler) path(c domain.Candidate) domain.Path {
	p := domain.Path{Virtual: c.VirtualPath, Real: c.RealPath}
	if c.ParentPath != "" {
		p.Root = Signature(c.ParentPath)
	}
	return p
}

func (a *DocumentAssembler) meta(md map[string]string) *domain.Meta {
	if len(md) == 0 {
		return nil
	}
	m := &domain.Meta{
		Author:   md[domain.MetaAuthor],
		Title:    md[domain.MetaTitle],
		Language: md[domain.MetaLanguage],
		Format:   md[domain.MetaFormat],
		Date:     parseTime(md[domain.MetaDate]),
		Created:  parseTime(md[domain.MetaCreated]),
	}
	if kw := md[domain.MetaKeywords]; kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				m.Keywords = append(m.Keywords, k)
			}
		}
	}
	if pages, err := strconv.Atoi(md[domain.MetaPages]); err == nil {
		m.Pages = pages
	}
	if a.fs.RawMetadata {
		m.Raw = make(map[string]string, len(md))
		for k, v := range md {
			m.Raw[k] = v
		}
	}
	if m.Raw == nil && emptyMeta(m) {
		return nil
	}
	return m
}

func emptyMeta(m *domain.Meta) bool {
	return m.Author == "" && m.Title == "" && m.Language == "" && m.Format == "" &&
		m.Date == nil && m.Created == nil && len(m.Keywords) == 0 && m.Pages == 0
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
