// Package rating keeps the per-location review statistics up to date
// without rescanning the review history.
package rating

import "errors"

// ErrInvalidState is returned when an observation is edited or removed from
// an aggregate that holds no observations.
var ErrInvalidState = errors.New("rating: aggregate has no observations")

// Aggregate is the running count and mean of each rated dimension for one location.
type Aggregate struct {
	Count          int64
	Overall        float64
	Affordability  float64
	Safety         float64
	Transportation float64
	Amenities      float64
}

// Observation is the set of ratings submitted with a single review.
type Observation struct {
	Overall        float64
	Affordability  float64
	Safety         float64
	Transportation float64
	Amenities      float64
}

// Add folds a new observation into the aggregate.
func Add(agg Aggregate, obs Observation) Aggregate {
	n := float64(agg.Count)
	next := agg.apply(obs, func(mean, v float64) float64 {
		return (mean*n + v) / (n + 1)
	})
	next.Count = agg.Count + 1
	return next
}

// Edit replaces a previously added observation with a new one. The count is unchanged.
func Edit(agg Aggregate, old, updated Observation) (Aggregate, error) {
	if agg.Count <= 0 {
		return agg, ErrInvalidState
	}
	n := float64(agg.Count)
	next := Aggregate{
		Count:          agg.Count,
		Overall:        (agg.Overall*n - old.Overall + updated.Overall) / n,
		Affordability:  (agg.Affordability*n - old.Affordability + updated.Affordability) / n,
		Safety:         (agg.Safety*n - old.Safety + updated.Safety) / n,
		Transportation: (agg.Transportation*n - old.Transportation + updated.Transportation) / n,
		Amenities:      (agg.Amenities*n - old.Amenities + updated.Amenities) / n,
	}
	return next, nil
}

// Remove takes a previously added observation out of the aggregate. Removing
// the last observation yields the zero aggregate.
func Remove(agg Aggregate, obs Observation) (Aggregate, error) {
	switch {
	case agg.Count <= 0:
		return agg, ErrInvalidState
	case agg.Count == 1:
		return Aggregate{}, nil
	}
	n := float64(agg.Count)
	next := agg.apply(obs, func(mean, v float64) float64 {
		return (mean*n - v) / (n - 1)
	})
	next.Count = agg.Count - 1
	return next, nil
}

// Means returns the aggregate means as an observation.
func (a Aggregate) Means() Observation {
	return Observation{
		Overall:        a.Overall,
		Affordability:  a.Affordability,
		Safety:         a.Safety,
		Transportation: a.Transportation,
		Amenities:      a.Amenities,
	}
}

func (a Aggregate) apply(obs Observation, fn func(mean, v float64) float64) Aggregate {
	return Aggregate{
		Count:          a.Count,
		Overall:        fn(a.Overall, obs.Overall),
		Affordability:  fn(a.Affordability, obs.Affordability),
		Safety:         fn(a.Safety, obs.Safety),
		Transportation: fn(a.Transportation, obs.Transportation),
		Amenities:      fn(a.Amenities, obs.Amenities),
	}
}
