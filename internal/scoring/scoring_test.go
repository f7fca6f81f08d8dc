package scoring

import (
	"errors"
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestBudgetFraction(t *testing.T) {
	tests := []struct {
		pref BudgetPreference
		want float64
	}{
		{BudgetLessThan30, 0.25},
		{Budget30To40, 0.35},
		{BudgetMoreThan40, 0.45},
		{"", 0.45},
		{"whatever", 0.45},
	}
	for _, tt := range tests {
		if got := tt.pref.Fraction(); got != tt.want {
			t.Fatalf("Fraction(%q) = %v, want %v", tt.pref, got, tt.want)
		}
	}
}

func TestNewProfile(t *testing.T) {
	p := NewProfile(48000, BudgetLessThan30, true, TransportCar, SafetyVeryImportant)
	if p.MonthlyIncome != 4000 {
		t.Fatalf("MonthlyIncome = %v, want 4000", p.MonthlyIncome)
	}
	if p.MonthlyHousingBudget != 1000 {
		t.Fatalf("MonthlyHousingBudget = %v, want 1000", p.MonthlyHousingBudget)
	}
}

func TestScoreFullMatch(t *testing.T) {
	p := Profile{
		MonthlyHousingBudget: 1000,
		HealthcareRequired:   true,
		Transportation:       TransportCar,
		Safety:               SafetyVeryImportant,
	}
	m := Metrics{
		HousingCost:     f(950),
		HealthcareScore: f(80),
		TrafficScore:    f(75),
		SafetyScore:     f(85),
	}
	got, err := Score(p, m)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if got != 80 {
		t.Fatalf("Score() = %v, want 80", got)
	}
}

func TestExplainRules(t *testing.T) {
	base := Profile{MonthlyHousingBudget: 1000}
	tests := []struct {
		name    string
		profile func(Profile) Profile
		metrics Metrics
		want    Breakdown
	}{
		{"budget within", nil, Metrics{HousingCost: f(1000)}, Breakdown{Budget: 30}},
		{"budget 20 percent over", nil, Metrics{HousingCost: f(1200)}, Breakdown{Budget: 20}},
		{"budget 50 percent over", nil, Metrics{HousingCost: f(1500)}, Breakdown{Budget: 10}},
		{"budget far over", nil, Metrics{HousingCost: f(1501)}, Breakdown{}},
		{"budget missing", nil, Metrics{}, Breakdown{}},
		{
			"healthcare not required",
			nil,
			Metrics{HealthcareScore: f(99)},
			Breakdown{},
		},
		{
			"healthcare high",
			func(p Profile) Profile { p.HealthcareRequired = true; return p },
			Metrics{HealthcareScore: f(75)},
			Breakdown{Healthcare: 15},
		},
		{
			"healthcare medium",
			func(p Profile) Profile { p.HealthcareRequired = true; return p },
			Metrics{HealthcareScore: f(60)},
			Breakdown{Healthcare: 10},
		},
		{
			"healthcare low still counts",
			func(p Profile) Profile { p.HealthcareRequired = true; return p },
			Metrics{HealthcareScore: f(10)},
			Breakdown{Healthcare: 5},
		},
		{
			"healthcare missing counts as low",
			func(p Profile) Profile { p.HealthcareRequired = true; return p },
			Metrics{},
			Breakdown{Healthcare: 5},
		},
		{
			"public transit",
			func(p Profile) Profile { p.Transportation = TransportPublicTransit; return p },
			Metrics{PublicTransitScore: f(70), TrafficScore: f(10)},
			Breakdown{Transportation: 15},
		},
		{
			"bike walking reads walkability",
			func(p Profile) Profile { p.Transportation = TransportBikeWalking; return p },
			Metrics{PublicTransitScore: f(90), WalkabilityScore: f(69)},
			Breakdown{},
		},
		{
			"car reads traffic",
			func(p Profile) Profile { p.Transportation = TransportCar; return p },
			Metrics{TrafficScore: f(70)},
			Breakdown{Transportation: 15},
		},
		{
			"unknown transport",
			func(p Profile) Profile { p.Transportation = "boat"; return p },
			Metrics{TrafficScore: f(100), PublicTransitScore: f(100), WalkabilityScore: f(100)},
			Breakdown{},
		},
		{
			"safety very important",
			func(p Profile) Profile { p.Safety = SafetyVeryImportant; return p },
			Metrics{SafetyScore: f(80)},
			Breakdown{Safety: 20},
		},
		{
			"safety very important below threshold",
			func(p Profile) Profile { p.Safety = SafetyVeryImportant; return p },
			Metrics{SafetyScore: f(79)},
			Breakdown{},
		},
		{
			"safety somewhat important",
			func(p Profile) Profile { p.Safety = SafetySomewhatImportant; return p },
			Metrics{SafetyScore: f(95)},
			Breakdown{Safety: 10},
		},
		{
			"safety not important",
			func(p Profile) Profile { p.Safety = SafetyNotImportant; return p },
			Metrics{SafetyScore: f(95)},
			Breakdown{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			if tt.profile != nil {
				p = tt.profile(p)
			}
			got, err := Explain(p, tt.metrics)
			if err != nil {
				t.Fatalf("Explain() error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Explain() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreRejectsNonPositiveBudget(t *testing.T) {
	for _, budget := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		_, err := Score(Profile{MonthlyHousingBudget: budget}, Metrics{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Score(budget=%v) error = %v, want ErrInvalidInput", budget, err)
		}
	}
}

func TestScoreBounded(t *testing.T) {
	prefs := []TransportationPreference{TransportCar, TransportPublicTransit, TransportBikeWalking}
	safeties := []SafetyImportance{SafetyVeryImportant, SafetySomewhatImportant, SafetyNotImportant}
	values := []*float64{nil, f(0), f(59), f(60), f(70), f(75), f(80), f(100)}
	costs := []*float64{nil, f(0), f(900), f(1100), f(1400), f(5000)}

	for _, tp := range prefs {
		for _, sp := range safeties {
			for _, hc := range []bool{true, false} {
				p := Profile{MonthlyHousingBudget: 1000, HealthcareRequired: hc, Transportation: tp, Safety: sp}
				for _, cost := range costs {
					for _, v := range values {
						m := Metrics{
							HousingCost:        cost,
							HealthcareScore:    v,
							PublicTransitScore: v,
							WalkabilityScore:   v,
							TrafficScore:       v,
							SafetyScore:        v,
						}
						got, err := Score(p, m)
						if err != nil {
							t.Fatalf("Score() error: %v", err)
						}
						if got < 0 || got > MaxScore {
							t.Fatalf("Score() = %v out of range for %+v", got, p)
						}
					}
				}
			}
		}
	}
}

func TestScoreMonotonicInSafety(t *testing.T) {
	for _, sp := range []SafetyImportance{SafetyVeryImportant, SafetySomewhatImportant, SafetyNotImportant} {
		p := Profile{MonthlyHousingBudget: 1000, Safety: sp, Transportation: TransportCar}
		prev := -1.0
		for s := 0.0; s <= 100; s += 0.5 {
			got, err := Score(p, Metrics{HousingCost: f(1100), TrafficScore: f(50), SafetyScore: f(s)})
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			if got < prev {
				t.Fatalf("score decreased from %v to %v at safety %v (%s)", prev, got, s, sp)
			}
			prev = got
		}
	}
}

func FuzzScore(f *testing.F) {
	f.Add(1000.0, 950.0, 80.0, 75.0, 85.0, true, uint8(0), uint8(0))
	f.Add(1.0, -5.0, -1.0, 200.0, 0.0, false, uint8(2), uint8(1))

	f.Fuzz(func(t *testing.T, budget, cost, health, transit, safety float64, hc bool, tp, sp uint8) {
		transports := []TransportationPreference{TransportCar, TransportPublicTransit, TransportBikeWalking}
		safeties := []SafetyImportance{SafetyVeryImportant, SafetySomewhatImportant, SafetyNotImportant}
		p := Profile{
			MonthlyHousingBudget: budget,
			HealthcareRequired:   hc,
			Transportation:       transports[int(tp)%len(transports)],
			Safety:               safeties[int(sp)%len(safeties)],
		}
		m := Metrics{
			HousingCost:        &cost,
			HealthcareScore:    &health,
			PublicTransitScore: &transit,
			WalkabilityScore:   &transit,
			TrafficScore:       &transit,
			SafetyScore:        &safety,
		}
		got, err := Score(p, m)
		if err != nil {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("unexpected error type: %v", err)
			}
			return
		}
		if got < 0 || got > MaxScore {
			t.Fatalf("Score() = %v out of range", got)
		}
	})
}
