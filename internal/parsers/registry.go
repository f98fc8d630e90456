package parsers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/parsers/textutil"
)

// Ensure Registry implements the interface.
var _ driven.ParsingBackend = (*Registry)(nil)

// Parser is a parsing backend for specific file extensions.
type Parser interface {
	driven.ParsingBackend

	// Extensions returns the lower-cased extensions, without dot, this parser handles.
	Extensions() []string

	// Priority orders parsers claiming the same extension. Higher wins.
	Priority() int
}

// Registry dispatches parse requests to the best parser for the file extension.
type Registry struct {
	mu       sync.RWMutex
	byExt    map[string][]Parser
	fallback driven.ParsingBackend
}

// NewRegistry creates a registry. The fallback handles extensions no parser
// claims when the content looks like text; it may be nil.
func NewRegistry(fallback driven.ParsingBackend) *Registry {
	return &Registry{
		byExt:    make(map[string][]Parser),
		fallback: fallback,
	}
}

// Register adds a parser for all of its extensions.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		list := append(r.byExt[ext], p)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Name returns the registry name.
func (r *Registry) Name() string {
	return "registry"
}

// Parse selects a parser by extension and parses the content.
// Unknown binary content yields an empty result so the OCR fallback can apply.
func (r *Registry) Parse(ctx context.Context, req driven.ParseRequest) (*driven.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p := r.lookup(req.Extension); p != nil {
		return p.Parse(ctx, req)
	}
	if r.fallback != nil && textutil.LooksLikeText(req.Content) {
		return r.fallback.Parse(ctx, req)
	}
	return &driven.ParseResult{
		Metadata:    map[string]string{},
		ContentType: http.DetectContentType(req.Content),
	}, nil
}

func (r *Registry) lookup(ext string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}
