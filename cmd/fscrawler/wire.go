package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/index/bleve"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/ocr"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/storage/memory"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/storage/sqlite"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driving/cli"
	"github.com/Bowriverstudio/fscrawler/internal/connectors/filesystem"
	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/services"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
	"github.com/Bowriverstudio/fscrawler/internal/metrics"
	"github.com/Bowriverstudio/fscrawler/internal/parsers"
)

// buildJob wires the adapters of one crawl job.
func buildJob(ctx context.Context, settings domain.Settings) (*cli.Job, error) {
	var closers closeStack
	fail := func(err error) (*cli.Job, error) {
		return nil, errors.Join(err, closers.Close())
	}

	docs, err := openDocumentStore(settings.Store)
	if err != nil {
		return fail(err)
	}
	closers.push(docs.Close)

	db, err := sqlite.NewStore(settings.Store.Path)
	if err != nil {
		return fail(err)
	}
	closers.push(db.Close)

	ocrProvider, err := ocr.CreateProvider(ctx, settings.Fs.CustomOCR)
	if err != nil {
		return fail(err)
	}

	source := filesystem.New(filesystem.ResolvePath(settings.Fs.URL))
	closers.push(source.Close)

	backend := parsers.NewDefaultRegistry()
	m := metrics.New()

	crawler, err := services.NewSyncOrchestrator(settings, source, backend, ocrProvider, docs, crawlStateStore(settings.Store, db), m)
	if err != nil {
		return fail(err)
	}
	uploader, err := services.NewUploadService(settings, backend, ocrProvider, docs)
	if err != nil {
		return fail(err)
	}

	return &cli.Job{
		Crawler:       crawler,
		Uploader:      uploader,
		Status:        db.JobStatusStore(),
		Watcher:       source,
		Metrics:       m.Handler(),
		ObserveUpload: m.ObserveUpload,
		Close:         closers.Close,
	}, nil
}

// openStatus opens the job status store without the rest of the job.
func openStatus(settings domain.Settings) (driven.JobStatusStore, func() error, error) {
	db, err := sqlite.NewStore(settings.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return db.JobStatusStore(), db.Close, nil
}

func openDocumentStore(store domain.StoreSettings) (driven.DocumentStore, error) {
	switch strings.ToLower(store.Type) {
	case "", "bleve":
		s, err := bleve.NewStore(store.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return memory.NewDocumentStore(), nil
	default:
		return nil, domain.ConfigError("store.type", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, store.Type))
	}
}

// crawlStateStore returns where crawl state is recorded. Documents of a
// memory store do not outlive the process, so neither does their state.
func crawlStateStore(store domain.StoreSettings, db *sqlite.Store) driven.CrawlStateStore {
	if strings.EqualFold(store.Type, "memory") {
		logger.Warn("Store type is memory: crawl state is not persisted and every run re-indexes all files")
		return memory.NewCrawlStateStore()
	}
	return db.CrawlStateStore()
}

// closeStack closes resources in reverse order of acquisition.
type closeStack []func() error

func (c *closeStack) push(fn func() error) {
	*c = append(*c, fn)
}

func (c *closeStack) Close() error {
	var errs []error
	for i := len(*c) - 1; i >= 0; i-- {
		if err := (*c)[i](); err != nil {
			errs = append(errs, err)
		}
	}
	*c = nil
	return errors.Join(errs...)
}
