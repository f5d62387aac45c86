package engine

import (
	"math/rand"
	"sync"
)

// LockedRand is a mutex-guarded rand source. The engine serves concurrent
// requests and *math/rand.Rand alone is not safe for concurrent draws.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand creates a concurrency-safe source. seed 0 is replaced by a
// time-based seed by the caller if determinism is not wanted.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
