package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

func newTestStore(t *testing.T) *SettingsStore {
	t.Helper()
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)
	store.lookupEnv = func(string) (string, bool) { return "", false }
	return store
}

func writeSettings(t *testing.T, store *SettingsStore, job, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(store.Dir(job), 0700))
	require.NoError(t, os.WriteFile(store.Path(job), []byte(content), 0600))
}

func TestNewSettingsStore_Paths(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewSettingsStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "docs"), store.Dir("docs"))
	assert.Equal(t, filepath.Join(tmpDir, "docs", "_settings.toml"), store.Path("docs"))
}

func TestSettingsStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettingsStore_LoadAppliesDefaults(t *testing.T) {
	store := newTestStore(t)
	writeSettings(t, store, "docs", `
[fs]
url = "/data/docs"
`)

	settings, err := store.Load("docs")
	require.NoError(t, err)

	assert.Equal(t, "docs", settings.Name)
	assert.Equal(t, "/data/docs", settings.Fs.URL)
	assert.Equal(t, domain.DefaultUpdateRate, settings.Fs.UpdateRate.Duration)
	assert.Equal(t, domain.DefaultExcludes, settings.Fs.Excludes)
	assert.True(t, settings.Fs.IndexContent)
	assert.Equal(t, "docs", settings.Store.Index)
	assert.Equal(t, store.Dir("docs"), settings.Store.Path)
	assert.Equal(t, 100000, settings.Fs.IndexedChars.Limit(10))
}

func TestSettingsStore_LoadFullFile(t *testing.T) {
	store := newTestStore(t)
	writeSettings(t, store, "docs", `
name = "docs"
workers = 2

[fs]
url = "/data"
update_rate = "1m"
includes = ["*.pdf", "*.doc"]
excludes = ["*/tmp/*"]
indexed_chars = "10%"
checksum = "SHA-256"
filename_as_id = true
index_folders = false
continue_on_error = true
filters = ["(?i)invoice"]
json_support = true
add_as_inner_object = true
store_source = true

[fs.custom_ocr]
enabled = true
provider = "microsoft"
url = "https://ocr.example.com/recognize"
subscription_key = "secret"

[store]
index = "library"
publish_retries = 5
publish_backoff = "1s"
`)

	settings, err := store.Load("docs")
	require.NoError(t, err)

	assert.Equal(t, 2, settings.Workers)
	assert.Equal(t, time.Minute, settings.Fs.UpdateRate.Duration)
	assert.Equal(t, []string{"*.pdf", "*.doc"}, settings.Fs.Includes)
	assert.Equal(t, []string{"*/tmp/*"}, settings.Fs.Excludes)
	assert.Equal(t, 50, settings.Fs.IndexedChars.Limit(500))
	assert.Equal(t, "SHA-256", settings.Fs.Checksum)
	assert.True(t, settings.Fs.FilenameAsID)
	assert.False(t, settings.Fs.IndexFolders)
	assert.True(t, settings.Fs.ContinueOnError)
	assert.Equal(t, []string{"(?i)invoice"}, settings.Fs.Filters)
	assert.True(t, settings.Fs.JSONSupport)
	assert.False(t, settings.Fs.XMLSupport)
	assert.True(t, settings.Fs.AddAsInnerObject)
	assert.True(t, settings.Fs.StoreSource)
	assert.True(t, settings.Fs.CustomOCR.Enabled)
	assert.Equal(t, "secret", settings.Fs.CustomOCR.SubscriptionKey)
	assert.Equal(t, "library", settings.Store.Index)
	assert.Equal(t, "library_folder", settings.FolderIndex())
	assert.Equal(t, 5, settings.Store.PublishRetries)
	assert.Equal(t, time.Second, settings.Store.PublishBackoff.Duration)
}

func TestSettingsStore_LoadRejectsUnknownFields(t *testing.T) {
	store := newTestStore(t)
	writeSettings(t, store, "docs", `
[fs]
urll = "/typo"
`)

	_, err := store.Load("docs")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSettingsStore_LoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad duration", "[fs]\nupdate_rate = \"soon\"\n"},
		{"bad indexed chars", "[fs]\nindexed_chars = \"lots\"\n"},
		{"zero workers", "workers = 0\n"},
		{"unknown checksum", "[fs]\nchecksum = \"CRC32\"\n"},
		{"ocr without key", "[fs.custom_ocr]\nenabled = true\nprovider = \"microsoft\"\nurl = \"http://x\"\n"},
		{"not toml", "this is = = not toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			writeSettings(t, store, "docs", tt.content)

			_, err := store.Load("docs")
			assert.Error(t, err)
		})
	}
}

func TestSettingsStore_EnvOverrides(t *testing.T) {
	store := newTestStore(t)
	env := map[string]string{
		"FSCRAWLER_OCR_SUBSCRIPTION_KEY": "from-env",
		"FSCRAWLER_WORKERS":              "3",
	}
	store.lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	writeSettings(t, store, "docs", `
[fs.custom_ocr]
enabled = true
provider = "google"
url = "https://vision.example.com/"
`)

	settings, err := store.Load("docs")
	require.NoError(t, err)
	assert.Equal(t, "from-env", settings.Fs.CustomOCR.SubscriptionKey)
	assert.Equal(t, 3, settings.Workers)
}

func TestSettingsStore_EnvOverrideInvalid(t *testing.T) {
	store := newTestStore(t)
	store.lookupEnv = func(k string) (string, bool) {
		if k == "FSCRAWLER_WORKERS" {
			return "many", true
		}
		return "", false
	}
	writeSettings(t, store, "docs", "")

	_, err := store.Load("docs")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	settings := domain.DefaultSettings("docs")
	settings.Fs.URL = "/srv/files"
	settings.Fs.Includes = []string{"*.txt"}
	settings.Fs.IndexedChars = domain.IndexedChars{Value: 25, Percentage: true}
	settings.Workers = 4
	require.NoError(t, store.Save(settings))

	info, err := os.Stat(store.Path("docs"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load("docs")
	require.NoError(t, err)
	assert.Equal(t, "/srv/files", loaded.Fs.URL)
	assert.Equal(t, []string{"*.txt"}, loaded.Fs.Includes)
	assert.Equal(t, settings.Fs.IndexedChars, loaded.Fs.IndexedChars)
	assert.Equal(t, 4, loaded.Workers)
	assert.Equal(t, settings.Fs.UpdateRate, loaded.Fs.UpdateRate)
}

func TestSettingsStore_RejectsBadJobNames(t *testing.T) {
	store := newTestStore(t)

	for _, job := range []string{"", "..", "a/b", `a\b`} {
		_, err := store.Load(job)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, job)

		settings := domain.DefaultSettings(job)
		assert.ErrorIs(t, store.Save(settings), domain.ErrInvalidInput, job)
	}
}
