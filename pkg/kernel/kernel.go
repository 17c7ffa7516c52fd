// Package kernel defines the geometry values shared by every stage of the
// surface pipeline: triangle meshes, polylines and sampled scalar fields.
// Values are immutable once a stage returns them; a stage that needs a
// modified mesh builds a new one.
package kernel

import (
	"encoding/hex"
	"errors"
	"hash"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidMesh is wrapped by every structural mesh violation
// (triangle index out of range, scalar array length mismatch).
var ErrInvalidMesh = errors.New("invalid mesh")

// ErrInvalidField is wrapped by structural scalar field violations.
var ErrInvalidField = errors.New("invalid scalar field")

// ContentHash is a blake2b-256 digest of a value's geometric content.
type ContentHash [blake2b.Size256]byte

// String returns the full hex encoding.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters, for logs and names.
func (h ContentHash) Short() string {
	return h.String()[:12]
}

// IsZero reports whether the hash is unset.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// hasher accumulates little-endian words into a blake2b digest.
type hasher struct {
	buf [8]byte
	sum hash.Hash
}

func newHasher(domain string) *hasher {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only possible with an oversized key.
		panic(err)
	}
	hs := &hasher{sum: h}
	hs.str(domain)
	return hs
}

func (h *hasher) u64(v uint64) {
	for i := 0; i < 8; i++ {
		h.buf[i] = byte(v >> (8 * i))
	}
	h.sum.Write(h.buf[:])
}

func (h *hasher) f64(v float64) { h.u64(math.Float64bits(v)) }

func (h *hasher) vec(v v3.Vec) {
	h.f64(v.X)
	h.f64(v.Y)
	h.f64(v.Z)
}

func (h *hasher) str(s string) {
	h.u64(uint64(len(s)))
	h.sum.Write([]byte(s))
}

func (h *hasher) done() ContentHash {
	var out ContentHash
	copy(out[:], h.sum.Sum(nil))
	return out
}

// Digest hashes an arbitrary sequence of labelled numbers. It is used to
// derive provenance keys from operator parameters.
type Digest struct {
	h *hasher
}

// NewDigest starts a digest in the given domain (e.g. "distance/v1").
func NewDigest(domain string) *Digest {
	return &Digest{h: newHasher(domain)}
}

// Hash mixes in another content hash.
func (d *Digest) Hash(c ContentHash) *Digest {
	d.h.sum.Write(c[:])
	return d
}

// Float mixes in a float64 by its bit pattern.
func (d *Digest) Float(v float64) *Digest {
	d.h.f64(v)
	return d
}

// Int mixes in an integer.
func (d *Digest) Int(v int) *Digest {
	d.h.u64(uint64(v))
	return d
}

// Vec mixes in a vector.
func (d *Digest) Vec(v v3.Vec) *Digest {
	d.h.vec(v)
	return d
}

// Bool mixes in a flag.
func (d *Digest) Bool(b bool) *Digest {
	if b {
		d.h.u64(1)
	} else {
		d.h.u64(0)
	}
	return d
}

// Text mixes in a string.
func (d *Digest) Text(s string) *Digest {
	d.h.str(s)
	return d
}

// Sum returns the digest.
func (d *Digest) Sum() ContentHash {
	return d.h.done()
}
