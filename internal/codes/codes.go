package codes

import (
	"errors"
	"math/rand"
	"sync"
)

// Room codes are short human-shareable numbers, distinct from game guids.
const (
	MinCode = 1000
	MaxCode = 9999
)

var ErrPoolExhausted = errors.New("room code pool exhausted")

// Allocator owns the pool of room codes. Claimed codes can be bound to a
// game guid for code-based joins.
type Allocator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	available []int
	pos       map[int]int    // code -> index into available
	claimed   map[int]string // code -> bound game guid, "" until assigned
}

// NewAllocator fills the pool with every code in [MinCode, MaxCode]. The rng
// is injected so tests can claim deterministically.
func NewAllocator(rng *rand.Rand) *Allocator {
	n := MaxCode - MinCode + 1
	a := &Allocator{
		rng:       rng,
		available: make([]int, n),
		pos:       make(map[int]int, n),
		claimed:   make(map[int]string),
	}
	for i := range a.available {
		code := MinCode + i
		a.available[i] = code
		a.pos[code] = i
	}
	return a
}

// Claim removes a pseudo-random code from the pool and returns it.
func (a *Allocator) Claim() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.available) == 0 {
		return 0, ErrPoolExhausted
	}
	i := a.rng.Intn(len(a.available))
	code := a.available[i]
	a.removeAvailable(i)
	a.claimed[code] = ""
	return code, nil
}

// Release returns a claimed code to the pool and clears its guid binding.
// Releasing an unclaimed code is a no-op.
func (a *Allocator) Release(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.claimed[code]; !ok {
		return
	}
	delete(a.claimed, code)
	a.pos[code] = len(a.available)
	a.available = append(a.available, code)
}

// Assign binds a claimed code to a game guid. Returns false if the code is
// not currently claimed.
func (a *Allocator) Assign(code int, guid string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.claimed[code]; !ok {
		return false
	}
	a.claimed[code] = guid
	return true
}

// Lookup resolves a room code to its bound game guid.
func (a *Allocator) Lookup(code int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	guid, ok := a.claimed[code]
	if !ok || guid == "" {
		return "", false
	}
	return guid, true
}

// removeAvailable swap-removes index i. Caller holds the lock.
func (a *Allocator) removeAvailable(i int) {
	code := a.available[i]
	last := len(a.available) - 1
	if i != last {
		moved := a.available[last]
		a.available[i] = moved
		a.pos[moved] = i
	}
	a.available = a.available[:last]
	delete(a.pos, code)
}
