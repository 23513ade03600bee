package quizgen

import (
	"math/rand/v2"
	"slices"
)

// Rand is the randomness the synthesizers draw on. *rand.Rand from
// math/rand/v2 satisfies it, which lets tests pass a seeded source.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
	Perm(n int) []int
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level functions of math/rand/v2.
type globalRand struct{}

func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
func (globalRand) Perm(n int) []int                   { return rand.Perm(n) }
func (globalRand) IntN(n int) int                     { return rand.IntN(n) }

// shuffle permutes s in place.
func shuffle[T any](r Rand, s []T) {
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// shuffled returns a permuted copy of s.
func shuffled[T any](r Rand, s []T) []T {
	out := slices.Clone(s)
	shuffle(r, out)
	return out
}

// sample draws k distinct elements of s without replacement.
func sample[T any](r Rand, s []T, k int) []T {
	k = max(0, min(k, len(s)))
	out := make([]T, 0, k)
	for _, i := range r.Perm(len(s))[:k] {
		out = append(out, s[i])
	}
	return out
}
