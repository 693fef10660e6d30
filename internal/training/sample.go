package training

import (
	"math"
	"sort"

	"github.com/familyalbum/faces/internal/domain"
)

const (
	// MaxTaggedPeople excludes group photos from automatic selection.
	MaxTaggedPeople = 3
	// MaxSampleSize caps automatic selection per person.
	MaxSampleSize = 60
)

// SampleSize returns how many of n tagged photos to train on: all of them
// up to 10, then 10 up to 20, then logarithmic growth capped at
// MaxSampleSize.
func SampleSize(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 10:
		return n
	case n <= 20:
		return 10
	}
	size := int(math.Floor(5 + 15*math.Log10(float64(n)/10)))
	return min(size, MaxSampleSize)
}

// Spread picks size photos from a date-ordered list. Photos with fewer
// tagged people are preferred, and picks are spaced evenly so the sample
// covers the whole timeline. The result is date-ordered.
func Spread(photos []domain.TrainingPhoto, size int) []domain.TrainingPhoto {
	if size <= 0 || len(photos) == 0 {
		return []domain.TrainingPhoto{}
	}

	ranked := make([]domain.TrainingPhoto, len(photos))
	copy(ranked, photos)
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Tags) < len(ranked[j].Tags)
	})

	step := 1
	if len(ranked) >= size {
		step = len(ranked) / size
	}

	picked := make([]domain.TrainingPhoto, 0, size)
	for i := 0; i < len(ranked) && len(picked) < size; i += step {
		picked = append(picked, ranked[i])
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if !picked[i].TakenAt.Equal(picked[j].TakenAt) {
			return picked[i].TakenAt.Before(picked[j].TakenAt)
		}
		return picked[i].PhotoID < picked[j].PhotoID
	})
	return picked
}
