package handlers

import (
	"net/http"

	"portfolio-backend/internal/services"
)

// ReviewsHandler serves the five-star reviews
type ReviewsHandler struct {
	reviewsService *services.ReviewsService
}

// NewReviewsHandler creates a new reviews handler
func NewReviewsHandler(reviewsService *services.ReviewsService) *ReviewsHandler {
	return &ReviewsHandler{
		reviewsService: reviewsService,
	}
}

// GetReviews handles GET /api/reviews
func (h *ReviewsHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reviewsService.FiveStarReviews(r.Context())
	if err != nil {
		respondAppError(w, r, err, "Failed to fetch reviews")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	respondJSON(w, http.StatusOK, summary)
}
