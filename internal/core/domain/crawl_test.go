package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCrawlItemState_Unchanged(t *testing.T) {
	mod := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	state := CrawlItemState{Path: "/data/a.txt", Size: 10, LastModified: mod}

	assert.True(t, state.Unchanged(Candidate{Size: 10, LastModified: mod}))
	assert.True(t, state.Unchanged(Candidate{Size: 10, LastModified: mod.In(time.Local)}))
	assert.False(t, state.Unchanged(Candidate{Size: 11, LastModified: mod}))
	assert.False(t, state.Unchanged(Candidate{Size: 10, LastModified: mod.Add(time.Second)}))
}

func TestCycleStats_Duration(t *testing.T) {
	start := time.Now()
	stats := CycleStats{StartedAt: start, EndedAt: start.Add(3 * time.Second)}

	assert.Equal(t, 3*time.Second, stats.Duration())
}

func TestItemError(t *testing.T) {
	err := &ItemError{Path: "/data/a.pdf", Err: ErrExtraction}

	assert.Equal(t, "/data/a.pdf: extraction failed", err.Error())
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestConfigError(t *testing.T) {
	err := ConfigError("fs.checksum", ErrUnsupportedAlgorithm)

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	assert.Contains(t, err.Error(), "fs.checksum")
}
