package filesystem

import (
	"path/filepath"
	"strings"
)

// ResolvePath converts a crawl root setting to a clean local path.
// Handles file:// URIs and bare paths.
func ResolvePath(uri string) string {
	// Strip file:// prefix for local paths
	uri = strings.TrimPrefix(uri, "file://")
	if uri == "" {
		return ""
	}
	return filepath.Clean(uri)
}
