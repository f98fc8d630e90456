package domain

import "time"

// Candidate is an entry considered for indexing in a crawl cycle.
// It doubles as the file descriptor handed to the document assembler.
type Candidate struct {
	// RealPath is the absolute path on the source.
	RealPath string

	// VirtualPath is the path relative to the crawl root, starting with "/".
	VirtualPath string

	// ParentPath is the real path of the containing directory.
	ParentPath string

	// Name is the base name of the entry.
	Name string

	// IsDir reports whether the entry is a folder.
	IsDir bool

	// Size is the byte size of the entry. Zero for folders.
	Size int64

	// LastModified is the modification time reported by the source.
	LastModified time.Time

	// Created is the creation time when the source knows it.
	Created time.Time

	// LastAccessed is the last access time when the source knows it.
	LastAccessed time.Time

	// Owner, Group and Permissions are filled by sources that expose them.
	Owner       string
	Group       string
	Permissions int
}

// CrawlItemState is the per-candidate record used for change detection.
// It is created on first successful indexing, updated on every
// re-index, and removed when the item is confirmed deleted.
type CrawlItemState struct {
	// Path is the real path of the item. It is the state key.
	Path string

	// ID is the identifier the item was published under.
	ID string

	// IsDir reports whether the item was published as a folder.
	IsDir bool

	// Size is the last seen byte size.
	Size int64

	// Checksum is the last seen content digest. Empty when checksums are off.
	Checksum string

	// LastModified is the last seen modification time.
	LastModified time.Time

	// LastIndexed is when the item was last published.
	LastIndexed time.Time
}

// Unchanged reports whether a candidate has the same size and
// modification time as the recorded state.
func (s *CrawlItemState) Unchanged(c Candidate) bool {
	return s.Size == c.Size && s.LastModified.Equal(c.LastModified)
}

// Phase is a step of the crawl cycle state machine.
type Phase string

// Crawl cycle phases.
const (
	PhaseIdle       Phase = "idle"
	PhaseScanning   Phase = "scanning"
	PhaseFiltering  Phase = "filtering"
	PhaseDiffing    Phase = "diffing"
	PhaseExtracting Phase = "extracting"
	PhaseAssembling Phase = "assembling"
	PhasePublishing Phase = "publishing"
	PhaseAborted    Phase = "aborted"
)

// CycleStats summarises one crawl cycle.
type CycleStats struct {
	StartedAt time.Time
	EndedAt   time.Time

	// Scanned counts candidates returned by the source.
	Scanned int

	// Filtered counts candidates dropped by include/exclude rules.
	Filtered int

	// Unchanged counts candidates skipped by change detection.
	Unchanged int

	// Indexed counts documents upserted.
	Indexed int

	// Folders counts folder documents upserted.
	Folders int

	// Deleted counts delete operations published.
	Deleted int

	// Failures lists per-item failures recorded during the cycle.
	Failures []ItemError
}

// Duration returns how long the cycle took.
func (s *CycleStats) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}
