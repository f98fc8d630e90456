// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Source: Enumerates crawl candidates and opens their content
//   - ParsingBackend: Extracts text and metadata from raw bytes
//   - DocumentStore: Receives idempotent upserts and deletes
//   - CrawlStateStore: Persists per-item change detection state
//   - SettingsStore: Loads job settings
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - OCRProvider: Recognises text in scanned content. Without it, items with
//     no extractable text are indexed metadata-only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or parser package
package driven
