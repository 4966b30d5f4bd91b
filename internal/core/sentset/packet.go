// Package sentset implements loop-prevention for the bridge: every frame the
// data plane injects is remembered for a short time, so that if the bridge
// later observes its own echo coming back in on another interface it can be
// dropped instead of re-flooded forever.
package sentset

import (
	"bytes"
	"time"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

// DefaultTimeout is how long a sent frame stays in the set before it is
// eligible for eviction.
const DefaultTimeout = 30 * time.Second

// Hash computes the content hash of a frame. It must remain byte-for-byte
// exactly this definition so that hashes stay stable across runs: start with
// the byte length, then for each byte XOR in (byte + 73 + (h>>1) + (h<<3)),
// all arithmetic wrapping in unsigned 32 bits.
func Hash(data []byte) uint32 {
	h := uint32(len(data))
	for _, b := range data {
		h ^= uint32(b) + 73 + (h >> 1) + (h << 3)
	}
	return h
}

// Packet is one entry of the sent-packet set: the content hash (a lookup
// accelerator only), the exact bytes (the real identity), and an expiry.
type Packet struct {
	Hash    uint32
	Data    []byte
	Timeout domain.Timeout
}

// New wraps a frame with a fresh default-duration timeout.
func New(data []byte) Packet {
	return Packet{
		Hash:    Hash(data),
		Data:    data,
		Timeout: domain.NewTimeout(DefaultTimeout),
	}
}

// Equal reports byte-exact equality of the wrapped frame; the hash is never
// trusted on its own for a positive match.
func (p Packet) Equal(data []byte) bool {
	return bytes.Equal(p.Data, data)
}

// Set is a bounded collection of sent packets, bucketed by hash to keep
// membership tests cheap while equality stays byte-exact.
type Set struct {
	buckets map[uint32][]Packet
}

// NewSet creates an empty sent-packet set.
func NewSet() *Set {
	return &Set{buckets: make(map[uint32][]Packet)}
}

// Insert records a frame as sent, replacing any existing byte-identical entry
// so that re-sending the same frame refreshes its timeout.
func (s *Set) Insert(data []byte) {
	h := Hash(data)
	bucket := s.buckets[h]
	for i, p := range bucket {
		if p.Equal(data) {
			bucket[i] = New(data)
			return
		}
	}
	s.buckets[h] = append(bucket, New(data))
}

// Contains reports whether the exact byte sequence is currently a member.
func (s *Set) Contains(data []byte) bool {
	h := Hash(data)
	for _, p := range s.buckets[h] {
		if p.Equal(data) {
			return true
		}
	}
	return false
}

// Purge removes every entry whose timeout has expired.
func (s *Set) Purge() {
	for h, bucket := range s.buckets {
		survivors := bucket[:0]
		for _, p := range bucket {
			if !p.Timeout.Expired() {
				survivors = append(survivors, p)
			}
		}
		if len(survivors) == 0 {
			delete(s.buckets, h)
		} else {
			s.buckets[h] = survivors
		}
	}
}

// Clear empties the set.
func (s *Set) Clear() {
	s.buckets = make(map[uint32][]Packet)
}

// Len returns the total number of entries across all buckets, for telemetry.
func (s *Set) Len() int {
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}
