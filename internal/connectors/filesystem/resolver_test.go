package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file:// URI is converted to local path",
			uri:  "file:///Users/test/documents",
			want: "/Users/test/documents",
		},
		{
			name: "file:// URI with spaces",
			uri:  "file:///Users/test/my documents",
			want: "/Users/test/my documents",
		},
		{
			name: "bare path passes through unchanged",
			uri:  "/tmp/es",
			want: "/tmp/es",
		},
		{
			name: "trailing slash is removed",
			uri:  "/tmp/es/",
			want: "/tmp/es",
		},
		{
			name: "relative path is cleaned",
			uri:  "relative/./path/../docs",
			want: "relative/docs",
		},
		{
			name: "empty stays empty",
			uri:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.uri))
		})
	}
}
