package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsFile is the name of the settings file inside a job directory.
const SettingsFile = "_settings.toml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "FSCRAWLER_"

// envOverrides maps environment variable suffixes to the setting they replace.
// Secrets are kept out of the settings file this way.
var envOverrides = map[string]func(s *domain.Settings, v string) error{
	"FS_URL":               func(s *domain.Settings, v string) error { s.Fs.URL = v; return nil },
	"STORE_PATH":           func(s *domain.Settings, v string) error { s.Store.Path = v; return nil },
	"STORE_INDEX":          func(s *domain.Settings, v string) error { s.Store.Index = v; return nil },
	"REST_URL":             func(s *domain.Settings, v string) error { s.Rest.URL = v; return nil },
	"OCR_PROVIDER":         func(s *domain.Settings, v string) error { s.Fs.CustomOCR.Provider = v; return nil },
	"OCR_URL":              func(s *domain.Settings, v string) error { s.Fs.CustomOCR.URL = v; return nil },
	"OCR_SUBSCRIPTION_KEY": func(s *domain.Settings, v string) error { s.Fs.CustomOCR.SubscriptionKey = v; return nil },
	"WORKERS":              setWorkers,
}

// SettingsStore is a file-based implementation of driven.SettingsStore using TOML.
// Each job lives in its own directory under the config directory.
type SettingsStore struct {
	configDir string
	lookupEnv func(string) (string, bool)
}

// NewSettingsStore creates a new TOML-based settings store.
// If configDir is empty, defaults to ~/.fscrawler.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".fscrawler")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		configDir: configDir,
		lookupEnv: os.LookupEnv,
	}, nil
}

// Dir returns the directory holding a job's files.
func (s *SettingsStore) Dir(job string) string {
	return filepath.Join(s.configDir, job)
}

// Path returns the settings file path of a job.
func (s *SettingsStore) Path(job string) string {
	return filepath.Join(s.Dir(job), SettingsFile)
}

// Load reads the settings of a job on top of the defaults, applies
// environment overrides and validates the result.
// Returns domain.ErrNotFound if the job has no settings file.
func (s *SettingsStore) Load(job string) (domain.Settings, error) {
	if err := checkJobName(job); err != nil {
		return domain.Settings{}, err
	}

	data, err := os.ReadFile(s.Path(job))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Settings{}, fmt.Errorf("job %q: %w", job, domain.ErrNotFound)
		}
		return domain.Settings{}, fmt.Errorf("reading settings: %w", err)
	}

	settings := domain.DefaultSettings(job)
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return domain.Settings{}, domain.ConfigError(SettingsFile, errors.New(strict.String()))
		}
		return domain.Settings{}, domain.ConfigError(SettingsFile, err)
	}

	if err := s.applyEnv(&settings); err != nil {
		return domain.Settings{}, err
	}

	if settings.Name == "" {
		settings.Name = job
	}
	if settings.Store.Index == "" {
		settings.Store.Index = settings.Name
	}
	if settings.Store.Path == "" {
		settings.Store.Path = s.Dir(job)
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// Save writes the settings of a job.
func (s *SettingsStore) Save(settings domain.Settings) error {
	if err := checkJobName(settings.Name); err != nil {
		return err
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(s.Dir(settings.Name), 0700); err != nil {
		return fmt.Errorf("creating job directory: %w", err)
	}

	// Write with restricted permissions
	return os.WriteFile(s.Path(settings.Name), data, 0600)
}

// applyEnv replaces settings with FSCRAWLER_* environment values.
func (s *SettingsStore) applyEnv(settings *domain.Settings) error {
	for suffix, apply := range envOverrides {
		v, ok := s.lookupEnv(EnvPrefix + suffix)
		if !ok {
			continue
		}
		if err := apply(settings, v); err != nil {
			return domain.ConfigError(EnvPrefix+suffix, err)
		}
	}
	return nil
}

func setWorkers(s *domain.Settings, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	s.Workers = n
	return nil
}

// checkJobName rejects names that would escape the config directory.
func checkJobName(job string) error {
	if job == "" || job == "." || job == ".." || strings.ContainsAny(job, `/\`) {
		return fmt.Errorf("%w: job name %q", domain.ErrInvalidInput, job)
	}
	return nil
}
