package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOCRResponse_Text(t *testing.T) {
	t.Run("pages and lines", func(t *testing.T) {
		resp := &OCRResponse{Pages: []OCRPage{
			{Lines: []OCRLine{{Text: "A"}, {Text: "B"}}},
			{Lines: []OCRLine{{Text: "C"}}},
		}}
		assert.Equal(t, "A\nB\n\nC", resp.Text())
	})

	t.Run("single page", func(t *testing.T) {
		resp := &OCRResponse{Pages: []OCRPage{{Lines: []OCRLine{{Text: "only"}}}}}
		assert.Equal(t, "only", resp.Text())
	})

	t.Run("nil and empty", func(t *testing.T) {
		var resp *OCRResponse
		assert.Empty(t, resp.Text())
		assert.Empty(t, (&OCRResponse{}).Text())
	})
}

func TestClampText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		limit     int
		want      string
		truncated bool
	}{
		{"unlimited", "abc", -1, "abc", false},
		{"under limit", "abc", 5, "abc", false},
		{"at limit", "abc", 3, "abc", false},
		{"over limit", "abcdef", 3, "abc", true},
		{"zero", "abc", 0, "", true},
		{"runes", "héllo", 2, "hé", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := ClampText(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}
