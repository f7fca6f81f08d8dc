package httpserver

import (
	"fmt"
	"net/http"
	"testing"
)

func BenchmarkRecommendLocations(b *testing.B) {
	ts := buildTestServer(b)
	token, _ := ts.register(b, "Bench", "bench@example.com")
	for i := 0; i < 50; i++ {
		ts.createLocation(b, fmt.Sprintf("City %02d", i), float64(1000+i*50), float64(50+i%50))
	}
	rec := ts.do(b, http.MethodPut, "/profile", token, map[string]interface{}{
		"income":           90000,
		"housingBudget":    "30-40",
		"transportation":   "car",
		"safetyImportance": "somewhat-important",
	})
	if rec.Code != http.StatusCreated {
		b.Fatalf("profile status %d", rec.Code)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := ts.do(b, http.MethodGet, "/recommendations/locations?pageSize=20", token, nil)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkCreateReview(b *testing.B) {
	ts := buildTestServer(b)
	token, _ := ts.register(b, "Bench", "bench@example.com")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		loc := ts.createLocation(b, fmt.Sprintf("Bench City %d", i), 1200, 70)
		b.StartTimer()

		rec := ts.do(b, http.MethodPost, "/reviews", token, map[string]interface{}{
			"locationId": loc, "content": "bench", "ratings": ratingsBody(4),
		})
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
