// Package idgen produces unique identifiers for created entities.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator returns a fresh id for an entity kind.
type Generator interface {
	New(prefix string) string
}

// UUID generates prefixed random (v4) UUIDs, e.g. "txn_6f1c...".
type UUID struct{}

func (UUID) New(prefix string) string {
	if prefix == "" {
		return uuid.New().String()
	}
	return prefix + "_" + uuid.New().String()
}

// Sequence generates predictable ids ("txn_1", "txn_2", ...). Useful in tests.
type Sequence struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewSequence creates a Sequence generator.
func NewSequence() *Sequence {
	return &Sequence{counts: make(map[string]int)}
}

func (s *Sequence) New(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[prefix]++
	return fmt.Sprintf("%s_%d", prefix, s.counts[prefix])
}
