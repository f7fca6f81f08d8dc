package recommend

import (
	"errors"
	"math"
	"testing"

	"github.com/Clark-Hu/thrive/internal/scoring"
)

type city struct {
	name    string
	housing float64
	safety  float64
}

func (c city) Metrics() scoring.Metrics {
	housing, safety := c.housing, c.safety
	return scoring.Metrics{HousingCost: &housing, SafetyScore: &safety}
}

func testProfile() scoring.Profile {
	return scoring.Profile{
		MonthlyHousingBudget: 1000,
		Transportation:       scoring.TransportCar,
		Safety:               scoring.SafetyVeryImportant,
	}
}

func TestRankOrdersByScoreStable(t *testing.T) {
	candidates := []city{
		{"expensive", 5000, 90},   // 0 + 20
		{"tie-a", 1100, 50},       // 20
		{"best", 900, 85},         // 30 + 20
		{"tie-b", 1150, 10},       // 20
		{"cheap-unsafe", 800, 10}, // 30
	}

	ranked, err := Rank(testProfile(), candidates)
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}

	wantOrder := []string{"best", "cheap-unsafe", "expensive", "tie-a", "tie-b"}
	if len(ranked) != len(wantOrder) {
		t.Fatalf("len(ranked) = %d, want %d", len(ranked), len(wantOrder))
	}
	for i, name := range wantOrder {
		if ranked[i].Item.name != name {
			t.Fatalf("ranked[%d] = %s, want %s", i, ranked[i].Item.name, name)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("ranking not descending at %d", i)
		}
	}
	if ranked[0].Score != 50 || ranked[0].Breakdown.Budget != 30 || ranked[0].Breakdown.Safety != 20 {
		t.Fatalf("unexpected top entry: %+v", ranked[0])
	}
}

func TestRankIsPermutation(t *testing.T) {
	candidates := make([]city, 0, 50)
	for i := 0; i < 50; i++ {
		candidates = append(candidates, city{name: string(rune('A' + i%26)), housing: float64(500 + i*37%1500), safety: float64(i * 7 % 100)})
	}
	ranked, err := Rank(testProfile(), candidates)
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	seen := make(map[city]int)
	for _, c := range candidates {
		seen[c]++
	}
	for _, r := range ranked {
		seen[r.Item]--
	}
	for c, n := range seen {
		if n != 0 {
			t.Fatalf("candidate %+v count mismatch %d", c, n)
		}
	}
}

func TestRankInvalidProfile(t *testing.T) {
	_, err := Rank(scoring.Profile{}, []city{{"a", 1, 1}})
	if !errors.Is(err, scoring.ErrInvalidInput) {
		t.Fatalf("Rank() error = %v, want ErrInvalidInput", err)
	}
}

func TestRankEmpty(t *testing.T) {
	ranked, err := Rank(testProfile(), []city(nil))
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("len(ranked) = %d, want 0", len(ranked))
	}
}

func TestPaginate(t *testing.T) {
	list := make([]int, 25)
	for i := range list {
		list[i] = i
	}

	tests := []struct {
		name      string
		size      int
		index     int
		wantFirst int
		wantLen   int
	}{
		{"first page", 10, 0, 0, 10},
		{"second page", 10, 1, 10, 10},
		{"partial last page", 10, 2, 20, 5},
		{"past the end", 10, 3, 0, 0},
		{"far past the end", 10, 1000, 0, 0},
		{"single element pages", 1, 24, 24, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(list, tt.size, tt.index)
			if err != nil {
				t.Fatalf("Paginate() error: %v", err)
			}
			if page == nil {
				t.Fatalf("Paginate() returned nil page")
			}
			if len(page) != tt.wantLen {
				t.Fatalf("len(page) = %d, want %d", len(page), tt.wantLen)
			}
			if tt.wantLen > 0 && page[0] != tt.wantFirst {
				t.Fatalf("page[0] = %d, want %d", page[0], tt.wantFirst)
			}
		})
	}
}

func TestPaginateOutOfRange(t *testing.T) {
	for _, tc := range []struct{ size, index int }{{10, -1}, {0, 0}, {-5, 1}} {
		if _, err := Paginate([]int{1, 2, 3}, tc.size, tc.index); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Paginate(size=%d, index=%d) error = %v, want ErrOutOfRange", tc.size, tc.index, err)
		}
	}
}

func TestPaginateHugeIndex(t *testing.T) {
	page, err := Paginate([]int{1, 2, 3}, math.MaxInt/2, 3)
	if err != nil {
		t.Fatalf("Paginate() error: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("len(page) = %d, want 0", len(page))
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct{ total, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.size); got != tt.want {
			t.Fatalf("PageCount(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func BenchmarkRank(b *testing.B) {
	candidates := make([]city, 1000)
	for i := range candidates {
		candidates[i] = city{housing: float64(i % 2000), safety: float64(i % 100)}
	}
	p := testProfile()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Rank(p, candidates); err != nil {
			b.Fatal(err)
		}
	}
}
