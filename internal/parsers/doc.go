// Package parsers provides the parsing backends that turn raw file content
// into text and metadata. Each parser handles a set of file extensions;
// the Registry picks one per file by extension and priority, and falls
// back to plain text for unknown content that looks like text.
package parsers
