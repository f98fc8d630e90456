package services

import (
	"crypto/md5" //nolint:gosec // identifier, not a security boundary
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// orderedAlphabet is a URL-safe base64 alphabet sorted in ASCII order so
// that encoded ids compare like the bytes they encode.
const orderedAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var orderedEncoding = base64.NewEncoding(orderedAlphabet).WithPadding(base64.NoPadding)

const maxSequence = 1<<24 - 1

// IDGenerator produces document identifiers.
type IDGenerator struct {
	clock func() time.Time
	node  [6]byte

	mu         sync.Mutex
	lastMillis int64
	sequence   uint32
}

// IDOption configures an IDGenerator.
type IDOption func(*IDGenerator)

// WithClock replaces the wall clock.
func WithClock(clock func() time.Time) IDOption {
	return func(g *IDGenerator) { g.clock = clock }
}

// WithNode fixes the node component of time-ordered ids.
func WithNode(node [6]byte) IDOption {
	return func(g *IDGenerator) { g.node = node }
}

// NewIDGenerator creates a generator with a random node.
func NewIDGenerator(opts ...IDOption) *IDGenerator {
	g := &IDGenerator{clock: time.Now}
	u := uuid.New()
	copy(g.node[:], u[10:16])
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Deterministic derives a stable id from a name or path.
func (g *IDGenerator) Deterministic(name string) string {
	return Signature(name)
}

// Signature returns the lower-case hex MD5 of s.
func Signature(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // identifier only
	return hex.EncodeToString(sum[:])
}

// TimeOrdered returns a 20 character id. Ids from one generator sort
// strictly increasing, also when the clock stalls or moves back.
func (g *IDGenerator) TimeOrdered() string {
	g.mu.Lock()
	now := g.clock().UnixMilli()
	if now > g.lastMillis {
		g.lastMillis = now
		g.sequence = 0
	} else {
		g.sequence++
		if g.sequence > maxSequence {
			g.lastMillis++
			g.sequence = 0
		}
	}
	millis, seq := g.lastMillis, g.sequence
	g.mu.Unlock()

	var raw [15]byte
	for i := 0; i < 6; i++ {
		raw[i] = byte(millis >> (8 * (5 - i)))
	}
	raw[6] = byte(seq >> 16)
	raw[7] = byte(seq >> 8)
	raw[8] = byte(seq)
	copy(raw[9:], g.node[:])
	return orderedEncoding.EncodeToString(raw[:])
}
