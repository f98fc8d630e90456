// Package bleve provides a document store backed by local bleve indexes.
//
// Each index name maps to one bleve index directory under the store's
// data directory. An empty data directory keeps every index in memory,
// which is what tests and simulation runs use.
//
// The raw JSON body of every document is kept next to the indexed fields
// so that the stored document can be read back unchanged.
package bleve
