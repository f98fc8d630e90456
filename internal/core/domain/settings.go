package domain

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Default setting values.
const (
	DefaultUpdateRate     = 15 * time.Minute
	DefaultIndexedChars   = 100000
	DefaultPublishRetries = 3
	DefaultPublishBackoff = 500 * time.Millisecond
	DefaultRestURL        = "127.0.0.1:8080"
	DefaultStoreType      = "bleve"
	FolderIndexSuffix     = "_folder"
)

// DefaultExcludes skips editor and office lock files.
var DefaultExcludes = []string{"*/~*"}

// checksumAlgorithms are the canonical names of the supported digests.
var checksumAlgorithms = []string{
	"MD5", "SHA1", "SHA256", "SHA384", "SHA512",
	"SHA3256", "SHA3512", "BLAKE2B256", "BLAKE2B512",
}

// Settings is the validated configuration of one crawl job.
// Values are built once with DefaultSettings, adjusted by the loader,
// checked by Validate, and then passed by value.
type Settings struct {
	// Name identifies the job. Crawl state is keyed by it.
	Name string `toml:"name"`

	Fs    FsSettings    `toml:"fs"`
	Store StoreSettings `toml:"store"`
	Rest  RestSettings  `toml:"rest"`

	// Workers bounds concurrent extractions within one cycle.
	Workers int `toml:"workers"`
}

// FsSettings controls what is crawled and how documents are built.
type FsSettings struct {
	// URL is the root directory to crawl.
	URL string `toml:"url"`

	// UpdateRate is the interval between crawl cycles.
	UpdateRate Duration `toml:"update_rate"`

	Includes          []string `toml:"includes"`
	Excludes          []string `toml:"excludes"`
	CustomOCRIncludes []string `toml:"custom_ocr_includes"`

	FilenameAsID      bool `toml:"filename_as_id"`
	AddFilesize       bool `toml:"add_filesize"`
	RemoveDeleted     bool `toml:"remove_deleted"`
	IndexContent      bool `toml:"index_content"`
	AttributesSupport bool `toml:"attributes_support"`
	RawMetadata       bool `toml:"raw_metadata"`
	IndexFolders      bool `toml:"index_folders"`
	ContinueOnError   bool `toml:"continue_on_error"`

	// IndexedChars caps extracted characters, absolute or as a percentage of file size.
	IndexedChars IndexedChars `toml:"indexed_chars"`

	// Checksum names the digest algorithm. Empty disables checksums.
	Checksum string `toml:"checksum"`

	// IgnoreAbove skips content extraction for files larger than this many bytes.
	// Zero means no limit.
	IgnoreAbove int64 `toml:"ignore_above"`

	// Watch triggers an early cycle on filesystem change events.
	Watch bool `toml:"watch"`

	// Filters are regular expressions over the extracted text. When set,
	// only files whose text matches at least one of them are indexed.
	Filters []string `toml:"filters"`

	// JSONSupport and XMLSupport index the parsed body of .json and .xml
	// files as the document itself.
	JSONSupport bool `toml:"json_support"`
	XMLSupport  bool `toml:"xml_support"`

	// AddAsInnerObject keeps the regular document and puts the parsed
	// JSON or XML body under its "object" field instead.
	AddAsInnerObject bool `toml:"add_as_inner_object"`

	// StoreSource adds the raw file content, base64 encoded, as "attachment".
	StoreSource bool `toml:"store_source"`

	CustomOCR OCRSettings `toml:"custom_ocr"`
}

// OCRSettings configures the custom OCR provider fallback.
type OCRSettings struct {
	Enabled         bool   `toml:"enabled"`
	Provider        string `toml:"provider"`
	SubscriptionKey string `toml:"subscription_key"`
	URL             string `toml:"url"`

	// RequestsPerSecond throttles calls to the provider. Zero means unthrottled.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// StoreSettings configures the document store.
type StoreSettings struct {
	// Type selects the store adapter ("bleve" or "memory").
	Type string `toml:"type"`

	// Path is the data directory for local stores.
	Path string `toml:"path"`

	// Index receives file documents. Folders go to Index + "_folder".
	Index    string `toml:"index"`
	Pipeline string `toml:"pipeline"`

	// PublishRetries bounds attempts for each upsert or delete.
	PublishRetries int      `toml:"publish_retries"`
	PublishBackoff Duration `toml:"publish_backoff"`
}

// RestSettings configures the upload endpoint.
type RestSettings struct {
	URL string `toml:"url"`
}

// DefaultSettings returns the settings of a new job.
func DefaultSettings(name string) Settings {
	return Settings{
		Name: name,
		Fs: FsSettings{
			URL:           "/tmp/es",
			UpdateRate:    Duration{DefaultUpdateRate},
			Excludes:      append([]string(nil), DefaultExcludes...),
			AddFilesize:   true,
			RemoveDeleted: true,
			IndexContent:  true,
			IndexFolders:  true,
			IndexedChars:  IndexedChars{Value: DefaultIndexedChars},
		},
		Store: StoreSettings{
			Type:           DefaultStoreType,
			Index:          name,
			PublishRetries: DefaultPublishRetries,
			PublishBackoff: Duration{DefaultPublishBackoff},
		},
		Rest:    RestSettings{URL: DefaultRestURL},
		Workers: runtime.NumCPU(),
	}
}

// FolderIndex returns the index receiving folder documents.
func (s Settings) FolderIndex() string {
	return s.Store.Index + FolderIndexSuffix
}

// Validate checks settings that must be correct before any crawl starts.
func (s Settings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, ConfigError("name", errors.New("must not be empty")))
	}
	if s.Fs.UpdateRate.Duration <= 0 {
		errs = append(errs, ConfigError("fs.update_rate", errors.New("must be positive")))
	}
	if s.Store.Index == "" {
		errs = append(errs, ConfigError("store.index", errors.New("must not be empty")))
	}
	if s.Store.PublishRetries < 1 {
		errs = append(errs, ConfigError("store.publish_retries", errors.New("must be at least 1")))
	}
	if s.Workers < 1 {
		errs = append(errs, ConfigError("workers", errors.New("must be at least 1")))
	}
	if _, err := ChecksumAlgorithm(s.Fs.Checksum); err != nil {
		errs = append(errs, err)
	}
	if s.Fs.IgnoreAbove < 0 {
		errs = append(errs, ConfigError("fs.ignore_above", errors.New("must not be negative")))
	}
	if err := s.Fs.CustomOCR.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ChecksumAlgorithm normalises a digest name such as "SHA-256" or
// "sha3-512" to its canonical form. An empty name disables checksums
// and yields "".
func ChecksumAlgorithm(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToUpper(name))
	if !slices.Contains(checksumAlgorithms, key) {
		return "", ConfigError("fs.checksum", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, name))
	}
	return key, nil
}

// ChecksumAlgorithms returns the canonical names of the supported digests.
func ChecksumAlgorithms() []string {
	return slices.Clone(checksumAlgorithms)
}

// Validate checks that an enabled OCR provider has a name, endpoint and credentials.
func (o OCRSettings) Validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Provider == "" {
		return ConfigError("fs.custom_ocr.provider", errors.New("must be set when custom OCR is enabled"))
	}
	if o.SubscriptionKey == "" {
		return ConfigError("fs.custom_ocr.subscription_key", errors.New("missing credentials"))
	}
	if o.URL == "" {
		return ConfigError("fs.custom_ocr.url", errors.New("missing endpoint"))
	}
	if o.RequestsPerSecond < 0 {
		return ConfigError("fs.custom_ocr.requests_per_second", errors.New("must not be negative"))
	}
	return nil
}

// Duration is a time.Duration read from strings such as "15m".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IndexedChars caps the number of extracted characters.
// A negative Value means unlimited. When Percentage is set the cap is
// Value percent of the file size.
type IndexedChars struct {
	Value      float64
	Percentage bool
}

// ParseIndexedChars parses "100000", "10%" or "-1".
func ParseIndexedChars(s string) (IndexedChars, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IndexedChars{Value: DefaultIndexedChars}, nil
	}
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return IndexedChars{}, fmt.Errorf("%w: indexed chars %q", ErrInvalidInput, s)
	}
	if pct && (v < 0 || v > 100) {
		return IndexedChars{}, fmt.Errorf("%w: indexed chars percentage %q out of range", ErrInvalidInput, s)
	}
	return IndexedChars{Value: v, Percentage: pct}, nil
}

// Limit returns the character cap for a file of the given size.
// It returns -1 when extraction is unlimited.
func (c IndexedChars) Limit(size int64) int {
	if c.Value < 0 {
		return -1
	}
	if c.Percentage {
		return int(math.Floor(float64(size) * c.Value / 100))
	}
	return int(c.Value)
}

// UnmarshalText parses the TOML form of the cap.
func (c *IndexedChars) UnmarshalText(text []byte) error {
	v, err := ParseIndexedChars(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText formats the cap.
func (c IndexedChars) MarshalText() ([]byte, error) {
	s := strconv.FormatFloat(c.Value, 'f', -1, 64)
	if c.Percentage {
		s += "%"
	}
	return []byte(s), nil
}
