package services

import (
	"bytes"
	"crypto/md5"  //nolint:gosec // checksum, not a security boundary
	"crypto/sha1" //nolint:gosec // checksum, not a security boundary
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// hashBuilders maps canonical algorithm names to hash constructors.
var hashBuilders = map[string]func() hash.Hash{
	"MD5":       md5.New,
	"SHA1":      sha1.New,
	"SHA256":    sha256.New,
	"SHA384":    sha512.New384,
	"SHA512":    sha512.New,
	"SHA3256":   sha3.New256,
	"SHA3512":   sha3.New512,
	"BLAKE2B256": func() hash.Hash {
		h, _ := blake2b.New256(nil) // only fails for oversized keys
		return h
	},
	"BLAKE2B512": func() hash.Hash {
		h, _ := blake2b.New512(nil)
		return h
	},
}

// Payload is file content read once together with its digest.
type Payload struct {
	Content  []byte
	Checksum string
}

// Fingerprint computes content digests with a configured algorithm.
// A zero value or one built from an empty name computes nothing.
type Fingerprint struct {
	newHash func() hash.Hash
}

// NewFingerprint resolves an algorithm name such as "MD5", "SHA-256" or
// "sha3-512". An empty name disables checksums.
func NewFingerprint(algorithm string) (*Fingerprint, error) {
	key, err := domain.ChecksumAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return &Fingerprint{}, nil
	}
	build, ok := hashBuilders[key]
	if !ok {
		return nil, domain.ConfigError("fs.checksum", fmt.Errorf("%w: %s", domain.ErrUnsupportedAlgorithm, algorithm))
	}
	return &Fingerprint{newHash: build}, nil
}

// Enabled reports whether a digest is computed.
func (f *Fingerprint) Enabled() bool {
	return f != nil && f.newHash != nil
}

// Checksum returns the lower-case hex digest of everything read from r.
// It returns "" when checksums are disabled.
func (f *Fingerprint) Checksum(r io.Reader) (string, error) {
	if !f.Enabled() {
		return "", nil
	}
	h := f.newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSourceIO, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Read reads r fully, computing the digest in the same pass.
func (f *Fingerprint) Read(r io.Reader) (Payload, error) {
	var buf bytes.Buffer
	if !f.Enabled() {
		if _, err := io.Copy(&buf, r); err != nil {
			return Payload{}, fmt.Errorf("%w: %w", domain.ErrSourceIO, err)
		}
		return Payload{Content: buf.Bytes()}, nil
	}
	h := f.newHash()
	if _, err := io.Copy(io.MultiWriter(&buf, h), r); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", domain.ErrSourceIO, err)
	}
	return Payload{Content: buf.Bytes(), Checksum: hex.EncodeToString(h.Sum(nil))}, nil
}
