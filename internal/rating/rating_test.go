package rating

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func assertAggregate(t *testing.T, got, want Aggregate) {
	t.Helper()
	if got.Count != want.Count {
		t.Fatalf("Count = %d, want %d", got.Count, want.Count)
	}
	fields := []struct {
		name      string
		got, want float64
	}{
		{"Overall", got.Overall, want.Overall},
		{"Affordability", got.Affordability, want.Affordability},
		{"Safety", got.Safety, want.Safety},
		{"Transportation", got.Transportation, want.Transportation},
		{"Amenities", got.Amenities, want.Amenities},
	}
	for _, f := range fields {
		if !approxEqual(f.got, f.want) {
			t.Fatalf("%s = %v, want %v", f.name, f.got, f.want)
		}
	}
}

func uniform(v float64) Observation {
	return Observation{Overall: v, Affordability: v, Safety: v, Transportation: v, Amenities: v}
}

func TestAddToEmpty(t *testing.T) {
	obs := Observation{Overall: 4, Affordability: 3, Safety: 5, Transportation: 2, Amenities: 1}
	got := Add(Aggregate{}, obs)
	assertAggregate(t, got, Aggregate{
		Count:          1,
		Overall:        4,
		Affordability:  3,
		Safety:         5,
		Transportation: 2,
		Amenities:      1,
	})
}

func TestAddEditRemoveScenario(t *testing.T) {
	start := Aggregate{Count: 2, Overall: 4.0}

	added := Add(start, Observation{Overall: 5.0})
	if added.Count != 3 || !approxEqual(added.Overall, 13.0/3.0) {
		t.Fatalf("after add = %+v, want count 3 overall 4.333", added)
	}

	edited, err := Edit(added, Observation{Overall: 5.0}, Observation{Overall: 3.0})
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if edited.Count != 3 || !approxEqual(edited.Overall, 11.0/3.0) {
		t.Fatalf("after edit = %+v, want count 3 overall 3.666", edited)
	}

	removed, err := Remove(edited, Observation{Overall: 3.0})
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	assertAggregate(t, removed, start)
}

func TestRemoveLastObservationResets(t *testing.T) {
	agg := Aggregate{Count: 1, Overall: 3.7, Affordability: 2.2, Safety: 4.1, Transportation: 1.9, Amenities: 5}
	got, err := Remove(agg, uniform(2))
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if got != (Aggregate{}) {
		t.Fatalf("Remove() = %+v, want zero aggregate", got)
	}
}

func TestEmptyAggregateRejectsEditAndRemove(t *testing.T) {
	tests := []struct {
		name string
		agg  Aggregate
	}{
		{"zero count", Aggregate{}},
		{"negative count", Aggregate{Count: -1, Overall: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Edit(tt.agg, uniform(1), uniform(2))
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Edit() error = %v, want ErrInvalidState", err)
			}
			if got != tt.agg {
				t.Fatalf("Edit() mutated aggregate: %+v", got)
			}

			got, err = Remove(tt.agg, uniform(1))
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Remove() error = %v, want ErrInvalidState", err)
			}
			if got != tt.agg {
				t.Fatalf("Remove() mutated aggregate: %+v", got)
			}
		})
	}
}

func TestEditKeepsCount(t *testing.T) {
	agg := Add(Add(Aggregate{}, uniform(2)), uniform(4))
	got, err := Edit(agg, uniform(4), uniform(5))
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	assertAggregate(t, got, Aggregate{
		Count:          2,
		Overall:        3.5,
		Affordability:  3.5,
		Safety:         3.5,
		Transportation: 3.5,
		Amenities:      3.5,
	})
}

func TestAddRemoveRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	randomObs := func() Observation {
		return Observation{
			Overall:        1 + 4*rnd.Float64(),
			Affordability:  1 + 4*rnd.Float64(),
			Safety:         1 + 4*rnd.Float64(),
			Transportation: 1 + 4*rnd.Float64(),
			Amenities:      1 + 4*rnd.Float64(),
		}
	}

	for i := 0; i < 200; i++ {
		agg := Aggregate{}
		for n := rnd.Intn(20); n > 0; n-- {
			agg = Add(agg, randomObs())
		}
		obs := randomObs()
		got, err := Remove(Add(agg, obs), obs)
		if err != nil {
			t.Fatalf("iteration %d: Remove() error: %v", i, err)
		}
		if agg.Count == 0 {
			if got != (Aggregate{}) {
				t.Fatalf("iteration %d: got %+v, want zero aggregate", i, got)
			}
			continue
		}
		if got.Count != agg.Count {
			t.Fatalf("iteration %d: Count = %d, want %d", i, got.Count, agg.Count)
		}
		for _, pair := range [][2]float64{
			{got.Overall, agg.Overall},
			{got.Affordability, agg.Affordability},
			{got.Safety, agg.Safety},
			{got.Transportation, agg.Transportation},
			{got.Amenities, agg.Amenities},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-6 {
				t.Fatalf("iteration %d: mean %v, want %v", i, pair[0], pair[1])
			}
		}
	}
}

func TestMeansMatchArithmeticMean(t *testing.T) {
	values := []float64{1, 5, 3, 4, 2, 5, 5}
	agg := Aggregate{}
	sum := 0.0
	for _, v := range values {
		agg = Add(agg, uniform(v))
		sum += v
	}
	want := sum / float64(len(values))
	means := agg.Means()
	if !approxEqual(means.Overall, want) || !approxEqual(means.Amenities, want) {
		t.Fatalf("means = %+v, want %v", means, want)
	}
}

func BenchmarkAdd(b *testing.B) {
	agg := Aggregate{}
	obs := uniform(4)
	for i := 0; i < b.N; i++ {
		agg = Add(agg, obs)
	}
}
