// Package cli implements the fscrawler command line.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose bool
	silent  bool
)

// Crawler is a crawler whose recorded state can be reset.
type Crawler interface {
	driving.Crawler
	Reset(ctx context.Context) error
}

// Job bundles the services of one crawl job.
type Job struct {
	Crawler  Crawler
	Uploader driving.Uploader
	Status   driven.JobStatusStore
	Watcher  driven.Watcher

	// Metrics serves collected metrics; may be nil.
	Metrics http.Handler

	// ObserveUpload records upload outcomes; may be nil.
	ObserveUpload func(err error)

	// Close releases the job resources.
	Close func() error
}

// JobBuilder creates the services of a job from its settings.
type JobBuilder func(ctx context.Context, settings domain.Settings) (*Job, error)

// StatusOpener opens the job status store of a job.
type StatusOpener func(settings domain.Settings) (driven.JobStatusStore, func() error, error)

// Config holds the dependencies of the commands.
type Config struct {
	Settings   driven.SettingsStore
	BuildJob   JobBuilder
	OpenStatus StatusOpener
}

// cliConfig holds the current configuration.
var cliConfig *Config

// SetConfig sets the dependencies of the commands.
func SetConfig(cfg *Config) {
	cliConfig = cfg
}

// SetVersion sets the version reported by the commands.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "fscrawler",
	Short: "Index a local directory tree into a searchable document store",
	Long: `fscrawler walks a directory tree, extracts text and metadata from the
files it finds, and keeps a searchable index in sync with the tree.

Each job is configured in ~/.fscrawler/<job>/_settings.toml.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetSilent(silent)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&silent, "silent", false, "Only print errors")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func configured() error {
	if cliConfig == nil || cliConfig.Settings == nil {
		return errors.New("fscrawler is not configured")
	}
	return nil
}

// loadSettings loads the settings of a job. A missing job is created with
// default settings and reported through created.
func loadSettings(cmd *cobra.Command, job string) (settings domain.Settings, created bool, err error) {
	if err := configured(); err != nil {
		return domain.Settings{}, false, err
	}
	settings, err = cliConfig.Settings.Load(job)
	if err == nil {
		return settings, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Settings{}, false, err
	}

	settings = domain.DefaultSettings(job)
	if err := cliConfig.Settings.Save(settings); err != nil {
		return domain.Settings{}, false, err
	}
	cmd.Printf("Job %s does not exist. Default settings were written to %s.\n", job, cliConfig.Settings.Dir(job))
	cmd.Println("Edit them, then run the command again.")
	return settings, true, nil
}

func buildJob(ctx context.Context, settings domain.Settings) (*Job, error) {
	if cliConfig.BuildJob == nil {
		return nil, errors.New("job builder not configured")
	}
	return cliConfig.BuildJob(ctx, settings)
}

func closeJob(cmd *cobra.Command, job *Job) {
	if job.Close == nil {
		return
	}
	if err := job.Close(); err != nil {
		cmd.PrintErrf("close: %v\n", err)
	}
}
