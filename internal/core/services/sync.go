package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.Crawler = (*SyncOrchestrator)(nil)

// batchFactor sizes extraction batches as a multiple of the worker count.
const batchFactor = 4

// SyncOrchestrator runs crawl cycles: it scans the source, filters and
// diffs candidates against the recorded crawl state, extracts changed
// items on a bounded worker pool, and publishes upserts and deletes.
// Only the goroutine running the cycle writes crawl state.
type SyncOrchestrator struct {
	settings  domain.Settings
	source    driven.Source
	store     driven.DocumentStore
	states    driven.CrawlStateStore
	observer  driven.CycleObserver
	filter    *PathFilter
	content   *ContentFilter
	extractor *ContentExtractor
	assembler *DocumentAssembler
	ids       *IDGenerator
	retry     RetryConfig
	now       func() time.Time

	lock CycleLock

	// Status tracking
	mu     sync.RWMutex
	status driving.CrawlStatus
}

// NewSyncOrchestrator creates a sync orchestrator for one job.
// The OCR provider and observer are optional - if nil, the OCR fallback
// and cycle metrics are disabled.
func NewSyncOrchestrator(
	settings domain.Settings,
	source driven.Source,
	backend driven.ParsingBackend,
	ocr driven.OCRProvider,
	store driven.DocumentStore,
	states driven.CrawlStateStore,
	observer driven.CycleObserver,
) (*SyncOrchestrator, error) {
	fingerprint, err := NewFingerprint(settings.Fs.Checksum)
	if err != nil {
		return nil, err
	}
	filter := NewPathFilterFromSettings(settings.Fs)
	workers := settings.Workers
	if workers < 1 {
		workers = 1
	}
	settings.Workers = workers

	return &SyncOrchestrator{
		settings:  settings,
		source:    source,
		store:     store,
		states:    states,
		observer:  observer,
		filter:    filter,
		content:   NewContentFilter(settings.Fs.Filters),
		extractor: NewContentExtractor(backend, ocr, filter, fingerprint, settings.Fs),
		assembler: NewDocumentAssembler(settings.Fs),
		ids:       NewIDGenerator(),
		retry:     publishRetryConfig(settings.Store.PublishRetries, settings.Store.PublishBackoff.Duration),
		now:       time.Now,
		status:    driving.CrawlStatus{Job: settings.Name, Phase: domain.PhaseIdle},
	}, nil
}

// Reset forgets all crawl state of the job so the next cycle re-indexes everything.
func (o *SyncOrchestrator) Reset(ctx context.Context) error {
	if err := o.lock.TryAcquire("crawl state reset"); err != nil {
		return err
	}
	defer o.lock.Release()

	if err := o.states.Reset(ctx, o.settings.Name); err != nil {
		return fmt.Errorf("reset crawl state: %w", err)
	}
	return nil
}

// RunCycle runs one crawl cycle.
func (o *SyncOrchestrator) RunCycle(ctx context.Context) (*domain.CycleStats, error) {
	if err := o.lock.TryAcquire("crawl cycle"); err != nil {
		return nil, err
	}
	defer o.lock.Release()

	ctx = logger.WithJob(ctx, o.settings.Name)
	stats := &domain.CycleStats{StartedAt: o.now()}
	o.begin()

	logger.Section("Crawl " + o.settings.Name)
	err := o.runCycle(ctx, stats)
	stats.EndedAt = o.now()

	o.finish(stats, err)
	if o.observer != nil {
		o.observer.ObserveCycle(o.settings.Name, stats, err)
	}
	if err != nil {
		logger.Warn("Crawl cycle of %s stopped: %v", o.settings.Name, err)
		return stats, err
	}
	logger.L().InfoContext(ctx, "crawl cycle complete",
		"indexed", stats.Indexed,
		"folders", stats.Folders,
		"unchanged", stats.Unchanged,
		"deleted", stats.Deleted,
		"failures", len(stats.Failures),
		"duration", stats.Duration().Round(time.Millisecond))
	return stats, nil
}

// Status returns the current state of the orchestrator.
func (o *SyncOrchestrator) Status() driving.CrawlStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) runCycle(ctx context.Context, stats *domain.CycleStats) error {
	job := o.settings.Name

	// 1. Scan, pruning excluded directories
	o.setPhase(domain.PhaseScanning)
	if err := o.source.Validate(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCycleAborted, err)
	}
	pruned := 0
	candidates, err := o.source.Scan(ctx, func(c domain.Candidate) bool {
		if c.IsDir && !o.filter.IsIndexable(c.VirtualPath, c.Name, true) {
			pruned++
			return true
		}
		return false
	})
	if err != nil {
		return fmt.Errorf("%w: scan: %w", domain.ErrCycleAborted, err)
	}
	stats.Scanned = len(candidates)
	logger.Debug("Scanned %d candidates, pruned %d directories", len(candidates), pruned)

	// 2. Filter
	o.setPhase(domain.PhaseFiltering)
	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !o.filter.IsIndexable(c.VirtualPath, c.Name, c.IsDir) {
			stats.Filtered++
			continue
		}
		kept = append(kept, c)
	}
	stats.Filtered += pruned

	// 3. Diff against recorded state
	o.setPhase(domain.PhaseDiffing)
	known, err := o.states.List(ctx, job)
	if err != nil {
		return fmt.Errorf("%w: list crawl state: %w", domain.ErrCycleAborted, err)
	}
	seen := make(map[string]struct{}, len(kept))
	var work []domain.Candidate
	for _, c := range kept {
		if c.IsDir && !o.settings.Fs.IndexFolders {
			continue
		}
		seen[c.RealPath] = struct{}{}
		if prior, ok := known[c.RealPath]; ok && prior.IsDir == c.IsDir && prior.Unchanged(c) {
			stats.Unchanged++
			continue
		}
		work = append(work, c)
	}
	logger.Debug("%d candidates changed, %d unchanged", len(work), stats.Unchanged)

	// 4. Extract, assemble and publish in batches
	batchSize := o.settings.Workers * batchFactor
	for start := 0; start < len(work); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+batchSize, len(work))
		if err := o.processBatch(ctx, work[start:end], known, stats); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		o.setPhase(domain.PhaseAborted)
		return err
	}

	// 5. Propagate deletes
	if !o.settings.Fs.RemoveDeleted {
		return nil
	}
	o.setPhase(domain.PhasePublishing)
	for path, state := range known {
		if _, ok := seen[path]; ok {
			continue
		}
		if err := o.deleteDocument(ctx, state); err != nil {
			o.fail(stats, path, err)
			continue
		}
		if err := o.states.Delete(ctx, job, path); err != nil {
			o.fail(stats, path, fmt.Errorf("delete crawl state: %w", err))
			continue
		}
		logger.Debug("Deleted %s (%s)", path, state.ID)
		stats.Deleted++
	}
	return nil
}

// itemResult is the outcome of extracting one candidate.
type itemResult struct {
	candidate domain.Candidate
	payload   Payload
	sameSum   bool
	ext       *domain.ExtractionResult
	err       error
}

func (o *SyncOrchestrator) processBatch(
	ctx context.Context,
	batch []domain.Candidate,
	known map[string]domain.CrawlItemState,
	stats *domain.CycleStats,
) error {
	// In-flight items finish even when ctx is cancelled.
	workCtx := context.WithoutCancel(ctx)

	o.setPhase(domain.PhaseExtracting)
	results := make([]*itemResult, len(batch))
	var g errgroup.Group
	g.SetLimit(o.settings.Workers)
	for i, c := range batch {
		if ctx.Err() != nil {
			break
		}
		prior, hasPrior := known[c.RealPath]
		g.Go(func() error {
			var p *domain.CrawlItemState
			if hasPrior {
				p = &prior
			}
			results[i] = o.extract(workCtx, c, p)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r == nil || r.err == nil {
			continue
		}
		o.fail(stats, r.candidate.RealPath, r.err)
		if !o.settings.Fs.ContinueOnError {
			o.setPhase(domain.PhaseAborted)
			return fmt.Errorf("%w: %s: %w", domain.ErrCycleAborted, r.candidate.RealPath, r.err)
		}
	}

	o.setPhase(domain.PhaseAssembling)
	type publication struct {
		result *itemResult
		id     string
		index  string
		body   []byte

		// replaces is the state of a document of the other kind at the
		// same path, removed before the new one is published.
		replaces *domain.CrawlItemState
	}
	var pubs []publication
	for _, r := range results {
		if r == nil || r.err != nil {
			continue
		}
		c := r.candidate
		prior, hasPrior := known[c.RealPath]
		if r.sameSum {
			o.touch(workCtx, r, prior, stats)
			continue
		}
		if !c.IsDir && !o.content.Accepts(r.ext.Text) {
			o.dropFiltered(workCtx, c, prior, hasPrior, stats)
			continue
		}

		pub := publication{result: r, index: o.settings.Store.Index}
		if hasPrior && prior.IsDir != c.IsDir {
			pub.replaces = &prior
		}
		var err error
		if c.IsDir {
			pub.index = o.settings.FolderIndex()
			pub.id = Signature(c.RealPath)
			pub.body, err = json.Marshal(o.assembler.AssembleFolder(c))
		} else {
			pub.id = o.fileID(c)
			pub.body, err = o.assembler.Body(r.ext, c)
		}
		if err != nil {
			o.fail(stats, c.RealPath, fmt.Errorf("encode document: %w", err))
			continue
		}
		pubs = append(pubs, pub)
	}

	o.setPhase(domain.PhasePublishing)
	for _, pub := range pubs {
		c := pub.result.candidate
		if pub.replaces != nil {
			if err := o.deleteDocument(workCtx, *pub.replaces); err != nil {
				o.fail(stats, c.RealPath, err)
				continue
			}
			logger.Debug("%s changed kind, removed %s", c.RealPath, pub.replaces.ID)
		}
		if err := o.publish(workCtx, func(ctx context.Context) error {
			return o.store.Upsert(ctx, pub.index, pub.id, pub.body, o.settings.Store.Pipeline)
		}); err != nil {
			o.fail(stats, c.RealPath, err)
			continue
		}
		state := domain.CrawlItemState{
			Path:         c.RealPath,
			ID:           pub.id,
			IsDir:        c.IsDir,
			Size:         c.Size,
			Checksum:     pub.result.payload.Checksum,
			LastModified: c.LastModified,
			LastIndexed:  o.now(),
		}
		if err := o.states.Save(workCtx, o.settings.Name, state); err != nil {
			o.fail(stats, c.RealPath, fmt.Errorf("save crawl state: %w", err))
			continue
		}
		if c.IsDir {
			stats.Folders++
		} else {
			stats.Indexed++
		}
		o.progress(stats)
	}
	return nil
}

// extract reads and parses one candidate. It runs on worker goroutines
// and must not touch crawl state or stats.
func (o *SyncOrchestrator) extract(ctx context.Context, c domain.Candidate, prior *domain.CrawlItemState) *itemResult {
	r := &itemResult{candidate: c}
	if c.IsDir {
		return r
	}

	rc, err := o.source.Open(ctx, c.RealPath)
	if err != nil {
		r.err = fmt.Errorf("%w: open: %w", domain.ErrSourceIO, err)
		return r
	}
	r.payload, err = o.extractor.Read(rc)
	rc.Close()
	if err != nil {
		r.err = err
		return r
	}

	if prior != nil && !prior.IsDir && r.payload.Checksum != "" && r.payload.Checksum == prior.Checksum {
		r.sameSum = true
		return r
	}

	r.ext, r.err = o.extractor.ExtractPayload(ctx, r.payload, c.Name, c.Size)
	return r
}

// touch refreshes the recorded size and timestamp of an item whose
// content did not change.
func (o *SyncOrchestrator) touch(ctx context.Context, r *itemResult, prior domain.CrawlItemState, stats *domain.CycleStats) {
	prior.Size = r.candidate.Size
	prior.LastModified = r.candidate.LastModified
	if err := o.states.Save(ctx, o.settings.Name, prior); err != nil {
		o.fail(stats, r.candidate.RealPath, fmt.Errorf("save crawl state: %w", err))
		return
	}
	stats.Unchanged++
}

// dropFiltered handles a file whose text matches none of the content
// filters. A document published by an earlier cycle is removed.
func (o *SyncOrchestrator) dropFiltered(
	ctx context.Context,
	c domain.Candidate,
	prior domain.CrawlItemState,
	hasPrior bool,
	stats *domain.CycleStats,
) {
	stats.Filtered++
	logger.Debug("Skipping %s: text matches no content filter", c.RealPath)
	if !hasPrior {
		return
	}
	if err := o.deleteDocument(ctx, prior); err != nil {
		o.fail(stats, c.RealPath, err)
		return
	}
	if err := o.states.Delete(ctx, o.settings.Name, c.RealPath); err != nil {
		o.fail(stats, c.RealPath, fmt.Errorf("delete crawl state: %w", err))
	}
}

// deleteDocument removes the document recorded by state from its index.
func (o *SyncOrchestrator) deleteDocument(ctx context.Context, state domain.CrawlItemState) error {
	index := o.settings.Store.Index
	if state.IsDir {
		index = o.settings.FolderIndex()
	}
	return o.publish(ctx, func(ctx context.Context) error {
		return o.store.Delete(ctx, index, state.ID)
	})
}

func (o *SyncOrchestrator) fileID(c domain.Candidate) string {
	if o.settings.Fs.FilenameAsID {
		return c.Name
	}
	return o.ids.Deterministic(c.RealPath)
}

// publish runs a store operation with retry.
func (o *SyncOrchestrator) publish(ctx context.Context, op func(context.Context) error) error {
	if err := retry(ctx, o.retry, op); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}
	return nil
}

func (o *SyncOrchestrator) fail(stats *domain.CycleStats, path string, err error) {
	logger.Warn("Failed %s: %v", path, err)
	stats.Failures = append(stats.Failures, domain.ItemError{Path: path, Err: err})
	o.progress(stats)
}

func (o *SyncOrchestrator) begin() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = true
	o.status.Phase = domain.PhaseScanning
	o.status.DocumentsProcessed = 0
	o.status.ErrorCount = 0
	o.status.LastError = ""
}

func (o *SyncOrchestrator) setPhase(phase domain.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Phase = phase
}

func (o *SyncOrchestrator) progress(stats *domain.CycleStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.DocumentsProcessed = stats.Indexed + stats.Folders
	o.status.ErrorCount = len(stats.Failures)
}

func (o *SyncOrchestrator) finish(stats *domain.CycleStats, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = false
	o.status.LastCycle = stats.EndedAt
	o.status.DocumentsProcessed = stats.Indexed + stats.Folders
	o.status.ErrorCount = len(stats.Failures)
	if err != nil {
		o.status.Phase = domain.PhaseAborted
		o.status.LastError = err.Error()
		return
	}
	o.status.Phase = domain.PhaseIdle
}

// FailureError joins the per-item failures of a cycle, or returns nil.
func FailureError(stats *domain.CycleStats) error {
	if stats == nil || len(stats.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(stats.Failures))
	for i := range stats.Failures {
		errs = append(errs, &stats.Failures[i])
	}
	return errors.Join(errs...)
}
