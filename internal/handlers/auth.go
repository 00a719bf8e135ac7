package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"portfolio-backend/internal/services"

	"github.com/rs/zerolog/hlog"
)

// AuthHandler handles admin login
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest is the body of POST /api/admin/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondAppError(w, r, err, "Admin login failed")
		return
	}

	hlog.FromRequest(r).Info().Msg("Admin logged in")

	respondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Verify handles GET /api/admin/verify; the auth middleware did the work
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
