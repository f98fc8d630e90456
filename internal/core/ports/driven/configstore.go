package driven

import "github.com/Bowriverstudio/fscrawler/internal/core/domain"

// SettingsStore loads and saves job settings.
type SettingsStore interface {
	// Load reads the settings of a job, applying defaults for missing values.
	Load(job string) (domain.Settings, error)

	// Save writes the settings of a job.
	Save(settings domain.Settings) error

	// Dir returns the directory holding a job's files.
	Dir(job string) string
}
