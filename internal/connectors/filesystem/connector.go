// Package filesystem provides a crawl source for local directory trees.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.Source  = (*Connector)(nil)
	_ driven.Watcher = (*Connector)(nil)
)

// errClosed is returned by operations on a closed connector.
var errClosed = errors.New("filesystem: connector is closed")

// Connector crawls a local directory tree.
type Connector struct {
	rootPath string
	owners   *ownerCache

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{
		rootPath: ResolvePath(rootPath),
		owners:   newOwnerCache(),
	}
}

// Root returns the resolved crawl root.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	if c.rootPath == "" {
		return domain.ConfigError("fs.url", errors.New("must not be empty"))
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: root %s does not exist", domain.ErrSourceIO, c.rootPath)
		}
		return fmt.Errorf("%w: root %s: %w", domain.ErrSourceIO, c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root %s is not a directory", domain.ErrSourceIO, c.rootPath)
	}
	return nil
}

// Scan walks the tree and returns every file and directory, root included.
// Entries rejected by skip are left out; rejected directories are not descended.
// Unreadable entries below the root are logged and skipped.
func (c *Connector) Scan(ctx context.Context, skip driven.SkipFunc) ([]domain.Candidate, error) {
	if c.isClosed() {
		return nil, errClosed
	}

	var candidates []domain.Candidate
	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == c.rootPath {
				return fmt.Errorf("%w: %w", domain.ErrSourceIO, walkErr)
			}
			logger.Warn("Skipping %s: %v", path, walkErr)
			return skipEntry(d)
		}

		info, err := entryInfo(path, d)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		// Symlinked directories are not followed.
		if info.IsDir() && !d.IsDir() {
			return nil
		}

		candidate := c.candidate(path, info)
		if skip != nil && path != c.rootPath && skip(candidate) {
			return skipEntry(d)
		}
		candidates = append(candidates, candidate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// Open returns the content of a file below the root.
func (c *Connector) Open(_ context.Context, path string) (io.ReadCloser, error) {
	if c.isClosed() {
		return nil, errClosed
	}
	if !c.contains(path) {
		return nil, fmt.Errorf("%w: %s is outside %s", domain.ErrInvalidInput, path, c.rootPath)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceIO, err)
	}
	return f, nil
}

// Close stops all watchers. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connector) contains(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// candidate builds the crawl candidate of one entry.
func (c *Connector) candidate(path string, info fs.FileInfo) domain.Candidate {
	candidate := domain.Candidate{
		RealPath:     path,
		VirtualPath:  c.virtualPath(path),
		ParentPath:   filepath.Dir(path),
		Name:         info.Name(),
		IsDir:        info.IsDir(),
		LastModified: info.ModTime(),
		Permissions:  permissions(info.Mode()),
	}
	if !info.IsDir() {
		candidate.Size = info.Size()
	}

	st := statOf(info)
	candidate.Created = st.created
	candidate.LastAccessed = st.accessed
	if st.ok {
		candidate.Owner = c.owners.user(st.uid)
		candidate.Group = c.owners.group(st.gid)
	}
	return candidate
}

// virtualPath returns the slash separated path relative to the root, starting with "/".
func (c *Connector) virtualPath(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

// entryInfo returns the entry's info, following file symlinks.
func entryInfo(path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return d.Info()
}

func skipEntry(d fs.DirEntry) error {
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// permissions renders the permission bits as their octal digits, 0644 => 644.
func permissions(mode fs.FileMode) int {
	n, err := strconv.Atoi(strconv.FormatUint(uint64(mode.Perm()), 8))
	if err != nil {
		return 0
	}
	return n
}
