package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placesFixture = `{
  "status": "OK",
  "result": {
    "reviews": [
      {"author_name": "Alice", "text": "Parfait", "rating": 5, "time": 1700000000, "language": "fr"},
      {"author_name": "Bob", "text": "Bien", "rating": 4, "time": 1700000001, "language": "fr"},
      {"author_name": "Chloe", "text": "Superbe", "rating": 5, "time": 1700000002, "language": "fr"},
      {"author_name": "Dan", "text": "Moyen", "rating": 3, "time": 1700000003, "language": "en"}
    ]
  }
}`

func TestFiveStarReviews_Filters(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"place_id": r.URL.Query().Get("place_id"),
			"key":      r.URL.Query().Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(placesFixture))
	}))
	defer srv.Close()

	svc := NewReviewsService(srv.Client(), srv.URL, "api-key", "place-1", time.Second)

	summary, err := svc.FiveStarReviews(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"place_id": "place-1", "key": "api-key"}, gotQuery)
	assert.Equal(t, 4, summary.TotalReviews)
	assert.Equal(t, 2, summary.FiveStarCount)
	assert.Equal(t, []models.Review{
		{Author: "Alice", Text: "Parfait", Rating: 5, Time: 1700000000, Language: "fr"},
		{Author: "Chloe", Text: "Superbe", Rating: 5, Time: 1700000002, Language: "fr"},
	}, summary.Reviews)
}

func TestFiveStarReviews_StatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key","result":{"reviews":[{"rating":5}]}}`))
	}))
	defer srv.Close()

	svc := NewReviewsService(srv.Client(), srv.URL, "k", "p", time.Second)

	summary, err := svc.FiveStarReviews(context.Background())
	assert.Nil(t, summary)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}

func TestFiveStarReviews_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewReviewsService(srv.Client(), srv.URL, "k", "p", time.Second)

	_, err := svc.FiveStarReviews(context.Background())
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}

func TestFiveStarReviews_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	svc := NewReviewsService(srv.Client(), srv.URL, "k", "p", 50*time.Millisecond)

	_, err := svc.FiveStarReviews(context.Background())
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}

func TestFiveStarReviews_MissingCredential(t *testing.T) {
	svc := NewReviewsService(nil, "http://unused", "", "place", time.Second)

	_, err := svc.FiveStarReviews(context.Background())
	assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
	assert.Equal(t, "service is not configured", apperrors.PublicMessage(err))
}
