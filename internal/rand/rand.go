package rand

import (
	"sync"
	"time"

	"github.com/MichaelTJones/pcg"
)

const pcgSequence = 0xda3e39cb94b95bdb

// Rand is a PCG32 source safe for concurrent use. The engine draws from it
// on the tick goroutine while HTTP handlers may draw for synthetic orders.
type Rand struct {
	mu sync.Mutex
	r  *pcg.PCG32
}

// New returns a source seeded from the clock.
func New() *Rand {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic source.
func NewSeeded(seed int64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.r.Seed(uint64(seed), pcgSequence)
	return r
}

func (r *Rand) Seed(s int64) {
	r.mu.Lock()
	r.r.Seed(uint64(s), pcgSequence)
	r.mu.Unlock()
}

// Intn returns a value in [0,n). n must be positive.
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.r.Bounded(uint32(n)))
}

// Float64 returns a value in [0,1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(r.r.Random()) / (1 << 32)
}

// Sample returns a uniformly chosen element of s, or the zero value if s is
// empty.
func Sample[T any](r *Rand, s []T) T {
	if len(s) == 0 {
		var zero T
		return zero
	}
	return s[r.Intn(len(s))]
}
