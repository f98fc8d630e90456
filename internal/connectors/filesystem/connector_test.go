package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deep"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tmp"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.md"), []byte("# b"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deep", "c.txt"), []byte("c"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tmp", "junk.txt"), []byte("junk"), 0644))
	// Pin modes regardless of umask
	require.NoError(t, os.Chmod(filepath.Join(root, "a.txt"), 0644))
	require.NoError(t, os.Chmod(filepath.Join(root, "sub", "b.md"), 0600))
	return root
}

func virtualPaths(candidates []domain.Candidate) []string {
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.VirtualPath)
	}
	sort.Strings(paths)
	return paths
}

func byVirtual(candidates []domain.Candidate, virtual string) domain.Candidate {
	for _, c := range candidates {
		if c.VirtualPath == virtual {
			return c
		}
	}
	return domain.Candidate{}
}

func TestNew(t *testing.T) {
	t.Run("resolves file URIs", func(t *testing.T) {
		connector := New("file:///tmp/es/")
		assert.Equal(t, "/tmp/es", connector.Root())
	})
}

func TestConnector_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing directory", func(t *testing.T) {
		assert.NoError(t, New(t.TempDir()).Validate(ctx))
	})

	t.Run("missing directory", func(t *testing.T) {
		err := New("/non/existent/path").Validate(ctx)
		assert.ErrorIs(t, err, domain.ErrSourceIO)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		err := New(file).Validate(ctx)
		assert.ErrorIs(t, err, domain.ErrSourceIO)
	})

	t.Run("empty root", func(t *testing.T) {
		assert.ErrorIs(t, New("").Validate(ctx), domain.ErrConfiguration)
	})
}

func TestConnector_Scan(t *testing.T) {
	root := setupTree(t)
	connector := New(root)

	candidates, err := connector.Scan(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/", "/a.txt", "/sub", "/sub/b.md", "/sub/deep", "/sub/deep/c.txt", "/tmp", "/tmp/junk.txt",
	}, virtualPaths(candidates))

	file := byVirtual(candidates, "/a.txt")
	assert.Equal(t, filepath.Join(root, "a.txt"), file.RealPath)
	assert.Equal(t, root, file.ParentPath)
	assert.Equal(t, "a.txt", file.Name)
	assert.False(t, file.IsDir)
	assert.Equal(t, int64(5), file.Size)
	assert.False(t, file.LastModified.IsZero())
	assert.Equal(t, 644, file.Permissions)

	assert.Equal(t, 600, byVirtual(candidates, "/sub/b.md").Permissions)

	dir := byVirtual(candidates, "/sub")
	assert.True(t, dir.IsDir)
	assert.Zero(t, dir.Size)
	assert.Equal(t, filepath.Join(root, "sub"), dir.RealPath)
}

func TestConnector_ScanSkipsPrunedDirectories(t *testing.T) {
	root := setupTree(t)
	connector := New(root)

	var asked []string
	candidates, err := connector.Scan(context.Background(), func(c domain.Candidate) bool {
		asked = append(asked, c.VirtualPath)
		return c.IsDir && c.Name == "tmp"
	})
	require.NoError(t, err)

	paths := virtualPaths(candidates)
	assert.NotContains(t, paths, "/tmp")
	assert.NotContains(t, paths, "/tmp/junk.txt")
	assert.NotContains(t, asked, "/tmp/junk.txt", "pruned directories are not descended")
	assert.NotContains(t, asked, "/", "root is never offered to skip")
	assert.Contains(t, paths, "/sub/deep/c.txt")
}

func TestConnector_ScanCancelled(t *testing.T) {
	connector := New(setupTree(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := connector.Scan(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnector_ScanMissingRoot(t *testing.T) {
	_, err := New("/non/existent/path").Scan(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrSourceIO)
}

func TestConnector_ScanFollowsFileSymlinksOnly(t *testing.T) {
	root := setupTree(t)
	require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "sub"), filepath.Join(root, "linkdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	candidates, err := New(root).Scan(context.Background(), nil)
	require.NoError(t, err)

	paths := virtualPaths(candidates)
	assert.Contains(t, paths, "/link.txt")
	assert.NotContains(t, paths, "/linkdir")
	assert.NotContains(t, paths, "/dangling")
	assert.Equal(t, int64(5), byVirtual(candidates, "/link.txt").Size)
}

func TestConnector_Open(t *testing.T) {
	root := setupTree(t)
	connector := New(root)
	ctx := context.Background()

	t.Run("reads file content", func(t *testing.T) {
		rc, err := connector.Open(ctx, filepath.Join(root, "sub", "b.md"))
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "# b", string(data))
	})

	t.Run("missing file is a source error", func(t *testing.T) {
		_, err := connector.Open(ctx, filepath.Join(root, "gone.txt"))
		assert.ErrorIs(t, err, domain.ErrSourceIO)
	})

	t.Run("paths outside the root are rejected", func(t *testing.T) {
		_, err := connector.Open(ctx, filepath.Join(root, "..", "elsewhere.txt"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConnector_Close(t *testing.T) {
	connector := New(t.TempDir())

	assert.NoError(t, connector.Close())
	assert.NoError(t, connector.Close(), "close is idempotent")

	_, err := connector.Scan(context.Background(), nil)
	assert.Error(t, err)
	_, err = connector.Open(context.Background(), "/x")
	assert.Error(t, err)
}

func TestConnector_Watch(t *testing.T) {
	t.Run("signals on new file in nested directory", func(t *testing.T) {
		root := setupTree(t)
		connector := New(root)
		defer connector.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deep", "new.txt"), []byte("x"), 0644))

		select {
		case _, ok := <-changes:
			assert.True(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("expected a change signal")
		}
	})

	t.Run("closes channel on context cancellation", func(t *testing.T) {
		connector := New(t.TempDir())
		defer connector.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := connector.Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error when connector is closed", func(t *testing.T) {
		connector := New(t.TempDir())
		connector.Close()

		changes, err := connector.Watch(context.Background())
		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})

	t.Run("returns error for missing root", func(t *testing.T) {
		connector := New("/non/existent/path")
		defer connector.Close()

		_, err := connector.Watch(context.Background())
		assert.Error(t, err)
	})
}

func TestPermissions(t *testing.T) {
	assert.Equal(t, 644, permissions(0644))
	assert.Equal(t, 755, permissions(0755|os.ModeDir))
	assert.Equal(t, 0, permissions(0))
}
