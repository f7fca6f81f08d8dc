// Package recommend ranks candidate locations and rentals for a preference
// profile and slices the ranking into pages.
package recommend

import (
	"errors"
	"sort"

	"github.com/Clark-Hu/thrive/internal/scoring"
)

// ErrOutOfRange is returned for a negative page index or a non-positive page size.
var ErrOutOfRange = errors.New("recommend: page out of range")

// Candidate is anything that can be scored against a profile.
type Candidate interface {
	Metrics() scoring.Metrics
}

// Ranked pairs a candidate with its match score.
type Ranked[T Candidate] struct {
	Item      T
	Score     float64
	Breakdown scoring.Breakdown
}

// Rank scores every candidate and orders them by descending score. Candidates
// with equal scores keep their input order.
func Rank[T Candidate](profile scoring.Profile, candidates []T) ([]Ranked[T], error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		b, err := scoring.Explain(profile, c.Metrics())
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, Ranked[T]{Item: c, Score: b.Total(), Breakdown: b})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// Paginate returns the pageIndex-th page of pageSize elements. Pages past the
// end of the list are empty.
func Paginate[T any](list []T, pageSize, pageIndex int) ([]T, error) {
	if pageIndex < 0 || pageSize <= 0 {
		return nil, ErrOutOfRange
	}
	start := pageIndex * pageSize
	if start/pageSize != pageIndex || start >= len(list) {
		return []T{}, nil
	}
	end := start + pageSize
	if end > len(list) || end < start {
		end = len(list)
	}
	return list[start:end], nil
}

// PageCount reports how many pages of pageSize the list spans.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
