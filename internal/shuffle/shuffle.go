// Package shuffle holds the randomised selection and ordering used by
// attempts. Every function takes its random source explicitly.
package shuffle

import (
	"math/rand/v2"
	"slices"

	"github.com/vytor/quizforge/internal/models"
)

// Permute returns a Fisher-Yates shuffled copy of items.
func Permute[T any](r *rand.Rand, items []T) []T {
	out := slices.Clone(items)
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// SelectSubset picks n ids uniformly at random. When n is not smaller than
// len(ids) (or not positive) the full set is returned in natural order.
func SelectSubset(r *rand.Rand, ids []int64, n int) []int64 {
	if n <= 0 || n >= len(ids) {
		return slices.Clone(ids)
	}
	return Permute(r, ids)[:n]
}

func Questions(r *rand.Rand, qs []models.Question) []models.Question {
	return Permute(r, qs)
}

// Options shuffles opts and relabels them by position.
func Options(r *rand.Rand, opts []models.Option) []models.Option {
	return Relabel(Permute(r, opts))
}

// Relabel assigns A, B, C, ... in slice order. opts is modified in place.
func Relabel(opts []models.Option) []models.Option {
	for i := range opts {
		opts[i].Label = Label(i)
	}
	return opts
}

// Label returns the positional label for index i.
func Label(i int) string {
	return string(rune('A' + i))
}
