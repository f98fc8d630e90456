package domain

import "time"

// Document is the record published to the document store.
// Its JSON form is the document body sent with every upsert.
type Document struct {
	// ID is the store identifier. It is not part of the body.
	ID string `json:"-"`

	// Content is the extracted text. Omitted when content indexing is disabled.
	Content string `json:"content,omitempty"`

	// Meta holds metadata reported by the parsing backend.
	Meta *Meta `json:"meta,omitempty"`

	// File describes the file the document was built from.
	File File `json:"file"`

	// Path locates the file on the crawled source.
	Path Path `json:"path"`

	// Attributes holds filesystem ownership data when attribute support is on.
	Attributes *Attributes `json:"attributes,omitempty"`

	// External carries caller supplied data merged from an overlay.
	External map[string]any `json:"external,omitempty"`

	// Object is the parsed body of a JSON or XML file added as an inner object.
	Object *Value `json:"object,omitempty"`

	// Attachment is the base64 encoded file content when source storage is on.
	Attachment string `json:"attachment,omitempty"`
}

// Meta holds structured metadata extracted from content.
type Meta struct {
	Author   string     `json:"author,omitempty"`
	Title    string     `json:"title,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Keywords []string   `json:"keywords,omitempty"`
	Language string     `json:"language,omitempty"`
	Format   string     `json:"format,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Pages    int        `json:"pages,omitempty"`

	// Raw is the unfiltered metadata bag from the backend.
	// Only populated when raw metadata is enabled.
	Raw map[string]string `json:"raw,omitempty"`
}

// File describes the source file of a document.
type File struct {
	Extension    string     `json:"extension,omitempty"`
	ContentType  string     `json:"content_type,omitempty"`
	Created      *time.Time `json:"created,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	IndexingDate *time.Time `json:"indexing_date,omitempty"`
	Filesize     *int64     `json:"filesize,omitempty"`
	Filename     string     `json:"filename,omitempty"`
	URL          string     `json:"url,omitempty"`
	IndexedChars *int64     `json:"indexed_chars,omitempty"`
	Checksum     string     `json:"checksum,omitempty"`
}

// Path locates a file relative to the crawl root.
type Path struct {
	// Root is the signature of the parent directory.
	Root string `json:"root,omitempty"`

	// Virtual is the path relative to the crawl root, starting with "/".
	Virtual string `json:"virtual,omitempty"`

	// Real is the absolute path on the source.
	Real string `json:"real,omitempty"`
}

// Attributes holds filesystem ownership information.
type Attributes struct {
	Owner       string `json:"owner,omitempty"`
	Group       string `json:"group,omitempty"`
	Permissions int    `json:"permissions,omitempty"`
}
