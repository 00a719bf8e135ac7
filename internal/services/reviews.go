package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/models"
)

// placeDetailsResponse is the part of the place details payload we read
type placeDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Reviews []struct {
			AuthorName string `json:"author_name"`
			Text       string `json:"text"`
			Rating     int    `json:"rating"`
			Time       int64  `json:"time"`
			Language   string `json:"language"`
		} `json:"reviews"`
	} `json:"result"`
}

// ReviewsService republishes the five-star reviews of the business place
type ReviewsService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	placeID string
	timeout time.Duration
}

// NewReviewsService creates a reviews proxy. A missing apiKey or placeID is only
// reported when reviews are requested.
func NewReviewsService(client *http.Client, baseURL, apiKey, placeID string, timeout time.Duration) *ReviewsService {
	if client == nil {
		client = &http.Client{}
	}
	return &ReviewsService{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		placeID: placeID,
		timeout: timeout,
	}
}

// FiveStarReviews performs one upstream call and keeps the rating-5 reviews
func (s *ReviewsService) FiveStarReviews(ctx context.Context) (*models.ReviewSummary, error) {
	if s.apiKey == "" || s.placeID == "" {
		return nil, apperrors.Configuration("places API key or place id is not configured")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("place_id", s.placeID)
	q.Set("fields", "reviews")
	q.Set("language", "fr")
	q.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("failed to reach places API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Upstream(fmt.Sprintf("places API responded %d", resp.StatusCode), nil)
	}

	var payload placeDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.Upstream("failed to decode places response", err)
	}
	if payload.Status != "OK" {
		return nil, apperrors.Upstream(fmt.Sprintf("places API status %s", payload.Status), nil)
	}

	summary := &models.ReviewSummary{
		Reviews:      []models.Review{},
		TotalReviews: len(payload.Result.Reviews),
	}
	for _, r := range payload.Result.Reviews {
		if r.Rating != 5 {
			continue
		}
		summary.Reviews = append(summary.Reviews, models.Review{
			Author:   r.AuthorName,
			Text:     r.Text,
			Rating:   r.Rating,
			Time:     r.Time,
			Language: r.Language,
		})
	}
	summary.FiveStarCount = len(summary.Reviews)

	return summary, nil
}
