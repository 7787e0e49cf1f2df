// Package digest computes and verifies evidence content digests.
//
// The digest is the integrity anchor for the chain of custody: it is computed
// once at intake and recomputed on demand to prove the stored bytes have not
// been silently mutated. Everything here is a pure function over the input
// bytes; I/O failures surface as ErrRead so callers can tell a broken stream
// apart from a failed match.
package digest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Algorithm tags the digest scheme recorded alongside evidence items.
const Algorithm = "sha256"

// ErrRead wraps failures reading the content stream. The hash itself cannot
// fail; only the caller's I/O can.
var ErrRead = errors.New("digest: content read failed")

// Digest is a SHA-256 content digest.
type Digest [sha256.Size]byte

// Compute reads r to EOF and returns its digest.
func Compute(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// ComputeBytes returns the digest of b.
func ComputeBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// Parse decodes a hex digest string.
func Parse(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("digest: invalid hex: %w", err)
	}
	if len(raw) != sha256.Size {
		return Digest{}, fmt.Errorf("digest: want %d bytes, got %d", sha256.Size, len(raw))
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}

// String renders the digest as lowercase hex, the form stored and shown in
// audit views.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Equal compares digests in constant time.
func (d Digest) Equal(other Digest) bool {
	return subtle.ConstantTimeCompare(d[:], other[:]) == 1
}

// Verification is the outcome of recomputing a stored digest. Both values are
// always populated so mismatches can be displayed side by side.
type Verification struct {
	Match    bool
	Stored   Digest
	Computed Digest
}

// Verify recomputes the digest of r and compares it against stored.
func Verify(stored Digest, r io.Reader) (Verification, error) {
	computed, err := Compute(r)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Match:    stored.Equal(computed),
		Stored:   stored,
		Computed: computed,
	}, nil
}

// VerifyBytes is Verify over an in-memory buffer.
func VerifyBytes(stored Digest, b []byte) Verification {
	computed := ComputeBytes(b)
	return Verification{
		Match:    stored.Equal(computed),
		Stored:   stored,
		Computed: computed,
	}
}
