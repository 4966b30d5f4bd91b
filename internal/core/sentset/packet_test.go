package sentset

import (
	"testing"
	"time"

	"github.com/sasetz/psip-switch/internal/core/domain"
)

func TestHashStableAndPure(t *testing.T) {
	data := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01, 0xff, 0xff}
	h1 := Hash(data)
	h2 := Hash(append([]byte(nil), data...))
	if h1 != h2 {
		t.Fatalf("hash not pure in data: %d != %d", h1, h2)
	}
}

func TestHashCollisionRarity(t *testing.T) {
	seen := make(map[uint32]bool)
	collisions := 0
	for i := 0; i < 2000; i++ {
		data := []byte{byte(i), byte(i >> 8), 0xaa, 0xbb, byte(i % 251)}
		h := Hash(data)
		if seen[h] {
			collisions++
		}
		seen[h] = true
	}
	if collisions > 50 {
		t.Fatalf("unexpectedly high collision rate: %d/2000", collisions)
	}
}

func TestSetInsertAndContainsIsByteExact(t *testing.T) {
	s := NewSet()
	frame := []byte{1, 2, 3, 4}
	if s.Contains(frame) {
		t.Fatal("empty set should not contain anything")
	}
	s.Insert(frame)
	if !s.Contains(frame) {
		t.Fatal("expected frame to be present after insert")
	}
	if !s.Contains([]byte{1, 2, 3, 4}) {
		t.Fatal("equality must be byte-exact, not pointer identity")
	}
	if s.Contains([]byte{1, 2, 3, 5}) {
		t.Fatal("different bytes must not match")
	}
}

func TestSetPurgeRemovesExpiredOnly(t *testing.T) {
	s := NewSet()
	s.Insert([]byte{9, 9})
	// Manually age the entry by replacing it with an already-expired one.
	h := Hash([]byte{9, 9})
	for i := range s.buckets[h] {
		s.buckets[h][i].Timeout = domain.NewTimeout(-time.Second)
	}
	s.Insert([]byte{1, 1}) // fresh

	s.Purge()

	if s.Contains([]byte{9, 9}) {
		t.Fatal("expired entry should have been purged")
	}
	if !s.Contains([]byte{1, 1}) {
		t.Fatal("fresh entry should survive purge")
	}
}

func TestSetClear(t *testing.T) {
	s := NewSet()
	s.Insert([]byte{1})
	s.Insert([]byte{2})
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty set after Clear, got %d", s.Len())
	}
}
