package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driving/rest"
	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
	"github.com/Bowriverstudio/fscrawler/internal/core/services"
)

var (
	crawlLoop    int
	crawlRestart bool
	crawlWatch   bool
	crawlRest    bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <job>",
	Short: "Crawl the directory of a job into its index",
	Long: `Runs crawl cycles for a job. Each cycle scans the job directory, indexes new
and changed files, and removes documents of deleted files.

By default cycles repeat every fs.update_rate until interrupted.
Use --loop 1 to run a single cycle.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&crawlLoop, "loop", -1, "Number of cycles to run, -1 runs forever")
	crawlCmd.Flags().BoolVar(&crawlRestart, "restart", false, "Forget the crawl state and re-index everything")
	crawlCmd.Flags().BoolVar(&crawlWatch, "watch", false, "Start a cycle early when files change")
	crawlCmd.Flags().BoolVar(&crawlRest, "rest", false, "Also serve the REST upload endpoint")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	settings, created, err := loadSettings(cmd, args[0])
	if err != nil || created {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	job, err := buildJob(ctx, settings)
	if err != nil {
		return err
	}
	defer closeJob(cmd, job)

	if crawlRestart {
		if err := job.Crawler.Reset(ctx); err != nil {
			return err
		}
		cmd.Printf("Crawl state of %s reset.\n", settings.Name)
	}

	var watcher driven.Watcher
	if crawlWatch || settings.Fs.Watch {
		watcher = job.Watcher
	}
	crawler := reportingCrawler{Crawler: job.Crawler, cmd: cmd, job: settings.Name}
	scheduler := services.NewScheduler(settings.Name, settings.Fs.UpdateRate.Duration, crawlLoop, crawler, job.Status, watcher)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := scheduler.Run(gctx)
		if err == nil && crawlRest {
			// Keep serving uploads after the last cycle.
			<-gctx.Done()
		}
		return err
	})
	if crawlRest {
		server, addr, err := newRESTServer(settings, job)
		if err != nil {
			return err
		}
		g.Go(func() error { return server.Run(gctx, addr) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	status := job.Crawler.Status()
	cmd.Printf("Crawl of %s finished: %d documents processed, %d errors.\n",
		settings.Name, status.DocumentsProcessed, status.ErrorCount)
	if status.LastError != "" && ctx.Err() == nil {
		return fmt.Errorf("last cycle failed: %s", status.LastError)
	}
	return nil
}

// reportingCrawler prints the items that failed in each cycle.
type reportingCrawler struct {
	driving.Crawler
	cmd *cobra.Command
	job string
}

func (c reportingCrawler) RunCycle(ctx context.Context) (*domain.CycleStats, error) {
	stats, err := c.Crawler.RunCycle(ctx)
	if failed := services.FailureError(stats); failed != nil {
		c.cmd.PrintErrf("Cycle of %s: %d failed items:\n%v\n", c.job, len(stats.Failures), failed)
	}
	return stats, err
}

func newRESTServer(settings domain.Settings, job *Job) (*rest.Server, string, error) {
	addr, prefix, err := rest.ListenAddress(settings.Rest.URL)
	if err != nil {
		return nil, "", err
	}
	cfg := rest.Config{
		Job:      settings.Name,
		Version:  version,
		Prefix:   prefix,
		Uploader: job.Uploader,
		Crawler:  job.Crawler,
		Metrics:  job.Metrics,
	}
	if job.ObserveUpload != nil {
		cfg.Observer = uploadObserver(job.ObserveUpload)
	}
	server, err := rest.NewServer(cfg)
	if err != nil {
		return nil, "", err
	}
	return server, addr, nil
}

// uploadObserver adapts a function to rest.UploadObserver.
type uploadObserver func(err error)

func (f uploadObserver) ObserveUpload(err error) {
	f(err)
}
