package validation

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

type sample struct {
	Email     string   `json:"email" validate:"required,email"`
	Income    float64  `json:"income" validate:"gt=0"`
	Budget    string   `json:"housingBudget" validate:"required,budget_pref"`
	Transport string   `json:"transportation" validate:"required,transport_pref"`
	Safety    string   `json:"safety" validate:"required,safety_pref"`
	Rating    float64  `json:"rating" validate:"gte=1,lte=5"`
	Lat       *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
}

func valid() sample {
	return sample{
		Email:     "a@example.com",
		Income:    50000,
		Budget:    "30-40",
		Transport: "car",
		Safety:    "very-important",
		Rating:    3,
	}
}

func TestStructValid(t *testing.T) {
	if err := Struct(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	lat := 120.0
	tests := []struct {
		name   string
		mutate func(*sample)
		field  string
		tag    string
	}{
		{"missing email", func(s *sample) { s.Email = "" }, "email", "required"},
		{"bad email", func(s *sample) { s.Email = "nope" }, "email", "email"},
		{"zero income", func(s *sample) { s.Income = 0 }, "income", "gt"},
		{"unknown budget", func(s *sample) { s.Budget = "50-60" }, "housingBudget", "budget_pref"},
		{"unknown transport", func(s *sample) { s.Transport = "boat" }, "transportation", "transport_pref"},
		{"unknown safety", func(s *sample) { s.Safety = "maybe" }, "safety", "safety_pref"},
		{"rating too high", func(s *sample) { s.Rating = 6 }, "rating", "lte"},
		{"latitude", func(s *sample) { s.Lat = &lat }, "lat", "latitude"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.mutate(&s)
			err := Struct(s)
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("expected one field error, got %+v", verr.Fields)
			}
			got := verr.Fields[0]
			if got.Field != tc.field || got.Tag != tc.tag {
				t.Fatalf("got %s/%s, want %s/%s", got.Field, got.Tag, tc.field, tc.tag)
			}
			if !strings.Contains(got.Message, tc.field) {
				t.Fatalf("message %q does not mention field", got.Message)
			}
		})
	}
}

func TestStructCollectsAllErrors(t *testing.T) {
	err := Struct(sample{})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(verr.Fields) < 5 {
		t.Fatalf("expected several field errors, got %d", len(verr.Fields))
	}
	if !strings.Contains(verr.Error(), "; ") {
		t.Fatalf("combined message should join fields: %q", verr.Error())
	}
}

func TestGetIsSingleton(t *testing.T) {
	var wg sync.WaitGroup
	results := make(chan interface{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- Get()
		}()
	}
	wg.Wait()
	close(results)
	first := Get()
	for v := range results {
		if v != first {
			t.Fatalf("Get returned different instances")
		}
	}
}
