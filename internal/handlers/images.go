package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"portfolio-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

const multipartMemory = 32 << 20

// ImageHandler handles portfolio image HTTP requests
type ImageHandler struct {
	imageService   *services.ImageService
	pairService    *services.PairService
	maxUploadBytes int64
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService *services.ImageService, pairService *services.PairService, maxUploadBytes int64) *ImageHandler {
	return &ImageHandler{
		imageService:   imageService,
		pairService:    pairService,
		maxUploadBytes: maxUploadBytes,
	}
}

// ListImages handles GET /api/admin/images/{category} and
// GET /api/public/images/{category}
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	images, err := h.imageService.ListImages(r.Context(), category)
	if err != nil {
		respondAppError(w, r, err, "Failed to list images")
		return
	}

	respondJSON(w, http.StatusOK, images)
}

// ListPublicImages is ListImages with a short shared cache lifetime
func (h *ImageHandler) ListPublicImages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	h.ListImages(w, r)
}

// ListPairs handles GET /api/public/pairs
func (h *ImageHandler) ListPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.pairService.ListPairs(r.Context())
	if err != nil {
		respondAppError(w, r, err, "Failed to list pairs")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	respondJSON(w, http.StatusOK, pairs)
}

// Categories handles GET /api/public/categories
func (h *ImageHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.imageService.Categories())
}

// Upload handles POST /api/admin/upload. Multipart fields: category, one or more
// image parts, and optional filename values matched to images by position.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
				Code:  "PAYLOAD_TOO_LARGE",
			})
			return
		}
		respondError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	category := r.FormValue("category")
	headers := r.MultipartForm.File["image"]
	names := r.MultipartForm.Value["filename"]

	if len(headers) == 0 {
		respondError(w, "image is required", http.StatusBadRequest)
		return
	}

	files := make([]services.UploadFile, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			respondError(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}
		uf := services.UploadFile{OriginalName: fh.Filename, Body: f}
		if i < len(names) {
			uf.Filename = names[i]
		}
		files = append(files, uf)
	}
	defer closeAll(files)

	result, err := h.imageService.Upload(r.Context(), category, files)
	if err != nil {
		respondAppError(w, r, err, "Upload rejected")
		return
	}

	hlog.FromRequest(r).Info().
		Str("category", category).
		Int("files", len(files)).
		Msg("Upload handled")

	respondJSON(w, http.StatusOK, result)
}

func closeAll(files []services.UploadFile) {
	for _, f := range files {
		if c, ok := f.Body.(multipart.File); ok {
			c.Close()
		}
	}
}

// Delete handles DELETE /api/admin/delete/{publicId}. The id contains the
// category folder, so it is read from the wildcard, encoded or not.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	publicID, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || publicID == "" {
		respondError(w, "publicId is required", http.StatusBadRequest)
		return
	}

	if err := h.imageService.DeleteImage(r.Context(), publicID); err != nil {
		respondAppError(w, r, err, "Failed to delete image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveRequest is the body of POST /api/admin/move
type MoveRequest struct {
	PublicID string `json:"publicId"`
	Category string `json:"category"`
}

// Move handles POST /api/admin/move
func (h *ImageHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PublicID == "" || req.Category == "" {
		respondError(w, "publicId and category are required", http.StatusBadRequest)
		return
	}

	img, err := h.imageService.MoveImage(r.Context(), req.PublicID, req.Category)
	if err != nil {
		respondAppError(w, r, err, "Failed to move image")
		return
	}

	respondJSON(w, http.StatusOK, img)
}
