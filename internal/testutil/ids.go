package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns a predictable sequence of run IDs.
//
// The first call returns the base ID itself; later calls append a counter
// ("run-1", "run-1-2", "run-1-3"). This keeps single-run golden output
// stable while still producing distinct IDs when a test stores several runs.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use.
type FixedIDGenerator struct {
	mu   sync.Mutex
	base string
	n    int
}

// NewFixedIDGenerator creates a generator rooted at base.
//
// If base is empty, IDs start at "test-run-default".
func NewFixedIDGenerator(base string) *FixedIDGenerator {
	if base == "" {
		base = "test-run-default"
	}
	return &FixedIDGenerator{base: base}
}

// Generate returns the next ID in the sequence.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n == 1 {
		return g.base
	}
	return fmt.Sprintf("%s-%d", g.base, g.n)
}
