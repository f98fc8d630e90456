// Package domain defines the core business entities for fscrawler.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The record published to the document store
//   - Candidate: A filesystem or upload entry considered in a crawl cycle
//   - CrawlItemState: Per-item change detection state
//   - ExtractionResult: Text and metadata produced by a parsing backend
//   - Value: A structured value used to merge user overlays into documents
//   - Settings: The validated, immutable job configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
