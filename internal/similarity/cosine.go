// Package similarity implements the embedding comparison used for voice
// matching.
package similarity

import (
	"errors"
	"math"
)

// ErrDimensionMismatch is returned when the two vectors cannot be compared.
var ErrDimensionMismatch = errors.New("similarity: vectors not comparable")

// Cosine returns the cosine similarity of a and b in [-1, 1]. It fails when
// the vectors differ in length or either is empty; a zero-magnitude vector
// scores 0 against anything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Guard against floating-point drift outside [-1, 1].
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	return score, nil
}
