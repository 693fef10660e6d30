// Package matcher ranks known identities against a query descriptor.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/vector"
)

const (
	DefaultThreshold = 0.7
	DefaultTopN      = 5
	MaxTopN          = 50
)

// CandidateSource returns one reference vector per person with at least one
// confirmed encoding.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]domain.Candidate, error)
}

type Matcher struct {
	source    CandidateSource
	dimension int
	threshold float64
	topN      int
}

func New(source CandidateSource, dimension int) *Matcher {
	return &Matcher{
		source:    source,
		dimension: dimension,
		threshold: DefaultThreshold,
		topN:      DefaultTopN,
	}
}

// WithDefaults overrides the threshold and topN used when a query omits them.
func (m *Matcher) WithDefaults(threshold float64, topN int) *Matcher {
	m.threshold = threshold
	m.topN = topN
	return m
}

func (m *Matcher) DefaultThreshold() float64 {
	return m.threshold
}

// Identify returns at most topN persons whose similarity to the query is at
// least threshold, best first.
func (m *Matcher) Identify(ctx context.Context, q domain.IdentifyQuery) ([]domain.Match, error) {
	threshold := m.threshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	topN := m.topN
	if q.TopN != nil {
		topN = *q.TopN
	}

	if err := vector.Validate(q.Descriptor, m.dimension); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, domain.ErrInvalidThreshold
	}
	if topN < 1 || topN > MaxTopN {
		return nil, domain.ErrInvalidTopN
	}

	candidates, err := m.source.Candidates(ctx)
	if err != nil {
		return nil, domain.Unavailable(fmt.Errorf("load candidates: %w", err))
	}

	return Rank(q.Descriptor, candidates, threshold, topN), nil
}

// Best returns the single best match at or above threshold, or nil.
func (m *Matcher) Best(ctx context.Context, descriptor []float32, threshold float64) (*domain.Match, error) {
	one := 1
	matches, err := m.Identify(ctx, domain.IdentifyQuery{
		Descriptor: descriptor,
		Threshold:  &threshold,
		TopN:       &one,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// BestEach answers Best for several descriptors against a single load of
// the candidates. The result is index-aligned with descriptors.
func (m *Matcher) BestEach(ctx context.Context, descriptors [][]float32, threshold float64) ([]*domain.Match, error) {
	if threshold < 0 || threshold > 1 {
		return nil, domain.ErrInvalidThreshold
	}
	for _, d := range descriptors {
		if err := vector.Validate(d, m.dimension); err != nil {
			return nil, err
		}
	}
	if len(descriptors) == 0 {
		return []*domain.Match{}, nil
	}

	candidates, err := m.source.Candidates(ctx)
	if err != nil {
		return nil, domain.Unavailable(fmt.Errorf("load candidates: %w", err))
	}

	out := make([]*domain.Match, len(descriptors))
	for i, d := range descriptors {
		if ranked := Rank(d, candidates, threshold, 1); len(ranked) == 1 {
			out[i] = &ranked[0]
		}
	}
	return out, nil
}

// Rank scores every candidate, keeps those at or above threshold and sorts
// by similarity descending with personId ascending as the tie-break.
func Rank(query []float32, candidates []domain.Candidate, threshold float64, topN int) []domain.Match {
	matches := make([]domain.Match, 0, len(candidates))
	for _, c := range candidates {
		s := vector.Similarity(query, c.Vector)
		if s < threshold {
			continue
		}
		matches = append(matches, domain.Match{
			PersonID:   c.PersonID,
			PersonName: c.PersonName,
			Similarity: s,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].PersonID < matches[j].PersonID
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}
