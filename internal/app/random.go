package app

import (
	"math/rand"
	"sync"
	"time"
)

// lockedRand makes a *rand.Rand safe for concurrent request handlers.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func newTimeSeededRand() *lockedRand {
	return newLockedRand(time.Now().UnixNano())
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd.Shuffle(n, swap)
}

// shuffled returns a Fisher-Yates shuffled copy of items.
func shuffled[T any](r *lockedRand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// pick returns n items chosen uniformly without replacement.
func pick[T any](r *lockedRand, items []T, n int) []T {
	out := shuffled(r, items)
	if n < len(out) {
		out = out[:n]
	}
	return out
}
