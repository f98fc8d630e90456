package domain

import (
	"strings"
	"unicode/utf8"
)

// ExtractionResult is the output of one content extraction.
// It is not retained beyond document assembly.
type ExtractionResult struct {
	// Text is the extracted text, possibly empty.
	Text string

	// Metadata is the raw metadata bag reported by the backend.
	Metadata map[string]string

	// Truncated reports that extraction stopped at the character limit.
	Truncated bool

	// Checksum is the content digest computed while reading. Empty when disabled.
	Checksum string

	// ContentType is the detected or hinted MIME type.
	ContentType string

	// OCR reports that the text came from the OCR provider.
	OCR bool

	// Content is the raw file content. Empty when extraction was skipped
	// because the file is above the size cap.
	Content []byte

	// Object is the parsed body of a JSON or XML file when structured
	// support is on for its type.
	Object *Value
}

// Well-known metadata keys reported by parsing backends.
const (
	MetaAuthor   = "author"
	MetaTitle    = "title"
	MetaDate     = "date"
	MetaKeywords = "keywords"
	MetaLanguage = "language"
	MetaFormat   = "format"
	MetaCreated  = "created"
	MetaPages    = "pages"
)

// OCRResponse is the page/line structure returned by an OCR provider.
type OCRResponse struct {
	Pages []OCRPage
}

// OCRPage is one recognised page.
type OCRPage struct {
	Lines []OCRLine
}

// OCRLine is one recognised line of text.
type OCRLine struct {
	Text string
}

// Text flattens the response: lines of a page are joined by a newline
// and pages are separated by a blank line.
func (r *OCRResponse) Text() string {
	if r == nil {
		return ""
	}
	pages := make([]string, 0, len(r.Pages))
	for _, page := range r.Pages {
		lines := make([]string, 0, len(page.Lines))
		for _, line := range page.Lines {
			lines = append(lines, line.Text)
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.Join(pages, "\n\n")
}

// ClampText caps text at limit runes and reports whether it was cut.
// A negative limit keeps everything.
func ClampText(text string, limit int) (string, bool) {
	if limit < 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i], true
		}
		n++
	}
	return text, false
}
