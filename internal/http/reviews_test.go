package httpserver

import (
	"context"
	"net/http"
	"testing"
)

func ratingsBody(v float64) map[string]float64 {
	return map[string]float64{
		"overall": v, "affordability": v, "safety": v, "transportation": v, "amenities": v,
	}
}

func TestReviewLifecycle(t *testing.T) {
	ts := buildTestServer(t)
	john, _ := ts.register(t, "John", "john@example.com")
	jane, _ := ts.register(t, "Jane", "jane@example.com")
	austin := ts.createLocation(t, "Austin", 1500, 80)

	rec := ts.do(t, http.MethodPost, "/reviews", john, map[string]interface{}{
		"locationId": austin, "content": "Great tacos", "ratings": ratingsBody(4),
	})
	expectStatus(t, rec, http.StatusCreated)
	created := decodeBody[reviewMutationResponse](t, rec)
	if created.Review == nil || created.Review.UserName != "John" {
		t.Fatalf("review = %+v", created.Review)
	}
	if created.Ratings.Count != 1 || created.Ratings.Overall != 4 {
		t.Fatalf("ratings after create = %+v", created.Ratings)
	}
	reviewID := created.Review.ID

	t.Run("duplicate review", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/reviews", john, map[string]interface{}{
			"locationId": austin, "content": "Again", "ratings": ratingsBody(2),
		})
		expectStatus(t, rec, http.StatusConflict)
	})

	t.Run("rating out of range", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/reviews", jane, map[string]interface{}{
			"locationId": austin, "content": "Too good", "ratings": ratingsBody(6),
		})
		expectStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("unknown location", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/reviews", jane, map[string]interface{}{
			"locationId": "00000000-0000-0000-0000-000000000000", "content": "?", "ratings": ratingsBody(3),
		})
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("edit by another user", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/reviews/"+reviewID, jane, map[string]interface{}{
			"content": "Hijacked", "ratings": ratingsBody(1),
		})
		expectStatus(t, rec, http.StatusForbidden)
		expectStatus(t, ts.do(t, http.MethodDelete, "/reviews/"+reviewID, jane, nil), http.StatusForbidden)
	})

	t.Run("edit", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/reviews/"+reviewID, john, map[string]interface{}{
			"content": "Even better", "ratings": ratingsBody(5),
		})
		expectStatus(t, rec, http.StatusOK)
		if got := decodeBody[reviewMutationResponse](t, rec).Ratings; got.Count != 1 || got.Overall != 5 {
			t.Fatalf("ratings after edit = %+v", got)
		}
	})

	t.Run("second reviewer", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/reviews", jane, map[string]interface{}{
			"locationId": austin, "content": "Hot summers", "ratings": ratingsBody(3),
		})
		expectStatus(t, rec, http.StatusCreated)
		if got := decodeBody[reviewMutationResponse](t, rec).Ratings; got.Count != 2 || got.Overall != 4 {
			t.Fatalf("ratings after second review = %+v", got)
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/locations/"+austin+"/reviews?limit=1", "", nil)
		expectStatus(t, rec, http.StatusOK)
		list := decodeBody[reviewListResponse](t, rec)
		if list.Total != 2 || len(list.Items) != 1 || list.Items[0].Content != "Hot summers" {
			t.Fatalf("list = %+v", list)
		}
		if list.Ratings.Count != 2 || list.Ratings.Safety != 4 {
			t.Fatalf("list ratings = %+v", list.Ratings)
		}
		expectStatus(t, ts.do(t, http.MethodGet, "/locations/"+austin+"/reviews?offset=-1", "", nil), http.StatusBadRequest)
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/reviews/"+reviewID, john, nil)
		expectStatus(t, rec, http.StatusOK)
		if got := decodeBody[reviewMutationResponse](t, rec).Ratings; got.Count != 1 || got.Overall != 3 {
			t.Fatalf("ratings after delete = %+v", got)
		}
		expectStatus(t, ts.do(t, http.MethodDelete, "/reviews/"+reviewID, john, nil), http.StatusNotFound)
	})

	t.Run("location reflects aggregate", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/locations/"+austin, "", nil)
		expectStatus(t, rec, http.StatusOK)
		if got := decodeBody[locationResponse](t, rec).Ratings; got.Count != 1 || got.Amenities != 3 {
			t.Fatalf("location ratings = %+v", got)
		}
	})
}

func TestReviewInconsistentAggregate(t *testing.T) {
	ts := buildTestServer(t)
	john, _ := ts.register(t, "John", "john@example.com")
	austin := ts.createLocation(t, "Austin", 1500, 80)

	rec := ts.do(t, http.MethodPost, "/reviews", john, map[string]interface{}{
		"locationId": austin, "content": "Fine", "ratings": ratingsBody(3),
	})
	expectStatus(t, rec, http.StatusCreated)
	reviewID := decodeBody[reviewMutationResponse](t, rec).Review.ID

	if _, err := ts.pool.Exec(context.Background(), `UPDATE locations SET review_count = 0 WHERE id = $1`, austin); err != nil {
		t.Fatalf("corrupt aggregate: %v", err)
	}

	rec = ts.do(t, http.MethodDelete, "/reviews/"+reviewID, john, nil)
	expectStatus(t, rec, http.StatusConflict)
	if body := decodeBody[errorResponse](t, rec); body.Code != "INVALID_STATE" {
		t.Fatalf("code = %q", body.Code)
	}

	list, err := ts.repo.Reviews.ListByLocation(context.Background(), austin, 10, 0)
	if err != nil {
		t.Fatalf("ListByLocation: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("review should survive a failed delete, total = %d", list.Total)
	}
}

func TestReviewRoutesRequireAuth(t *testing.T) {
	ts := buildTestServer(t)
	expectStatus(t, ts.do(t, http.MethodPost, "/reviews", "", map[string]string{}), http.StatusUnauthorized)
	expectStatus(t, ts.do(t, http.MethodPut, "/reviews/00000000-0000-0000-0000-000000000000", "", map[string]string{}), http.StatusUnauthorized)
	expectStatus(t, ts.do(t, http.MethodDelete, "/reviews/00000000-0000-0000-0000-000000000000", "", nil), http.StatusUnauthorized)
}
