package random

import "math/rand/v2"

// Random is the source of contest join codes and winner draws
type Random interface {
	// Intn returns a value in [0, n), or 0 when n <= 0
	Intn(n int) int

	// String returns length characters drawn from alphabet
	String(length int, alphabet string) string
}

// Source draws from the runtime's ChaCha8 generator, which is seeded from
// the operating system at startup.
type Source struct{}

// New returns the process-wide Source
func New() Source {
	return Source{}
}

func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

func (s Source) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[s.Intn(len(alphabet))]
	}
	return string(b)
}

// Sample picks k distinct indices from [0, n) using a partial Fisher-Yates
// shuffle. The result is in draw order. If k exceeds n, all n indices are
// returned.
func Sample(r Random, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return []int{}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + r.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
