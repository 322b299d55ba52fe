package mocks

import (
	"sync"

	"github.com/mcoot/crcon-linkbot/internal/dependencies/random"
)

var _ random.Random = (*MockRandom)(nil)

// MockRandom replays queued draws. Contest codes come from QueueString and
// winner picks from QueueIntn; an exhausted queue yields 0 or a run of the
// alphabet's first letter so a test that forgets to queue still gets a
// well-formed code.
type MockRandom struct {
	mu      sync.Mutex
	ints    []int
	strings []string
	bounds  []int
}

// NewMockRandom creates an empty MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn pops the next queued value. Values outside [0, n) are clamped into
// range so a stale queue can never index past a shrinking entry list.
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bounds = append(r.bounds, n)
	if len(r.ints) == 0 || n <= 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	switch {
	case v < 0:
		return 0
	case v >= n:
		return n - 1
	}
	return v
}

// String pops the next queued string
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.strings) == 0 {
		if length <= 0 || alphabet == "" {
			return ""
		}
		b := make([]byte, length)
		for i := range b {
			b[i] = alphabet[0]
		}
		return string(b)
	}
	v := r.strings[0]
	r.strings = r.strings[1:]
	return v
}

// QueueIntn appends Intn results
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, values...)
}

// QueueString appends String results
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings = append(r.strings, values...)
}

// IntnBounds returns the n passed to each Intn call, in order. A winner draw
// over e entries for w winners shows up as e, e-1, ..., e-w+1.
func (r *MockRandom) IntnBounds() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.bounds...)
}
