package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("job")

	assert.Equal(t, "job", s.Name)
	assert.Equal(t, "job", s.Store.Index)
	assert.Equal(t, "job_folder", s.FolderIndex())
	assert.Equal(t, 15*time.Minute, s.Fs.UpdateRate.Duration)
	assert.Equal(t, []string{"*/~*"}, s.Fs.Excludes)
	assert.True(t, s.Fs.RemoveDeleted)
	assert.True(t, s.Fs.IndexContent)
	assert.True(t, s.Fs.IndexFolders)
	assert.True(t, s.Fs.AddFilesize)
	assert.False(t, s.Fs.ContinueOnError)
	assert.Empty(t, s.Fs.Checksum)
	assert.NoError(t, s.Validate())
}

func TestDefaultSettings_ExcludesNotShared(t *testing.T) {
	s := DefaultSettings("job")
	s.Fs.Excludes[0] = "changed"

	assert.Equal(t, "*/~*", DefaultExcludes[0])
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		errMsg string
	}{
		{"empty name", func(s *Settings) { s.Name = "" }, "name"},
		{"zero update rate", func(s *Settings) { s.Fs.UpdateRate = Duration{} }, "fs.update_rate"},
		{"no index", func(s *Settings) { s.Store.Index = "" }, "store.index"},
		{"no retries", func(s *Settings) { s.Store.PublishRetries = 0 }, "store.publish_retries"},
		{"no workers", func(s *Settings) { s.Workers = 0 }, "workers"},
		{"negative ignore above", func(s *Settings) { s.Fs.IgnoreAbove = -1 }, "fs.ignore_above"},
		{"unknown checksum", func(s *Settings) { s.Fs.Checksum = "CRC32" }, "fs.checksum"},
		{"ocr without provider", func(s *Settings) {
			s.Fs.CustomOCR = OCRSettings{Enabled: true, SubscriptionKey: "k", URL: "http://x"}
		}, "fs.custom_ocr.provider"},
		{"ocr without key", func(s *Settings) {
			s.Fs.CustomOCR = OCRSettings{Enabled: true, Provider: "microsoft", URL: "http://x"}
		}, "missing credentials"},
		{"ocr without url", func(s *Settings) {
			s.Fs.CustomOCR = OCRSettings{Enabled: true, Provider: "microsoft", SubscriptionKey: "k"}
		}, "missing endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings("job")
			tt.mutate(&s)

			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestChecksumAlgorithm(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", ""},
		{"MD5", "MD5"},
		{"sha-256", "SHA256"},
		{"SHA3-512", "SHA3512"},
		{"blake2b_256", "BLAKE2B256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChecksumAlgorithm(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ChecksumAlgorithm("CRC32")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestOCRSettings_DisabledNeedsNothing(t *testing.T) {
	assert.NoError(t, OCRSettings{}.Validate())
}

func TestParseIndexedChars(t *testing.T) {
	tests := []struct {
		input string
		want  IndexedChars
	}{
		{"", IndexedChars{Value: DefaultIndexedChars}},
		{"5000", IndexedChars{Value: 5000}},
		{"10%", IndexedChars{Value: 10, Percentage: true}},
		{"12.5%", IndexedChars{Value: 12.5, Percentage: true}},
		{"-1", IndexedChars{Value: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIndexedChars(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseIndexedChars("lots")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseIndexedChars("150%")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIndexedChars_Limit(t *testing.T) {
	assert.Equal(t, 5000, IndexedChars{Value: 5000}.Limit(1))
	assert.Equal(t, 100, IndexedChars{Value: 10, Percentage: true}.Limit(1000))
	assert.Equal(t, -1, IndexedChars{Value: -1}.Limit(1000))
}

func TestIndexedChars_TextRoundTrip(t *testing.T) {
	var c IndexedChars
	require.NoError(t, c.UnmarshalText([]byte("25%")))

	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "25%", string(text))
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
