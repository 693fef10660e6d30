// Package vector holds the descriptor arithmetic shared by the matcher,
// the services and the detector adapters. Aggregation itself runs in
// Postgres (AVG over the vector column).
//
// Similarity is cosine similarity clamped to [0,1]: 1 means identical
// direction, 0 means orthogonal or opposite. Every threshold in the service
// is expressed on this scale.
package vector

import (
	"fmt"
	"math"

	"github.com/familyalbum/faces/internal/domain"
)

// Similarity returns the clamped cosine similarity of a and b. Vectors of
// different length or zero norm score 0.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// Validate checks that v has the configured dimension and only finite
// components.
func Validate(v []float32, dim int) error {
	if len(v) != dim {
		return domain.ErrInvalidDimension.WithMessage(
			fmt.Sprintf("embedding has %d elements, expected %d", len(v), dim))
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return domain.ErrValidationFailed.WithMessage(
				fmt.Sprintf("embedding element %d is not a finite number", i))
		}
	}
	return nil
}

func FromFloat64(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
