package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/naming"
	"portfolio-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ImageStore is the object store surface the image service relies on
type ImageStore interface {
	List(ctx context.Context, category models.Category) ([]models.Image, error)
	Count(ctx context.Context, category models.Category) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (models.Image, error)
	Delete(ctx context.Context, key string) error
	Copy(ctx context.Context, src, dst string) (models.Image, error)
}

// ChangeNotifier is told whenever the content of a category changed
type ChangeNotifier interface {
	NotifyImagesChanged(category models.Category)
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload statuses reported per file
const (
	StatusUploaded = "uploaded"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// UploadFile is one file of an upload batch
type UploadFile struct {
	// Filename is the caller-chosen object name, may be empty for generic categories
	Filename     string
	OriginalName string
	Body         io.ReadSeeker
}

// FileResult reports the outcome of one file of a batch
type FileResult struct {
	Filename string        `json:"filename"`
	Status   string        `json:"status"`
	Image    *models.Image `json:"image,omitempty"`
	Error    string        `json:"error,omitempty"`
	Code     string        `json:"code,omitempty"`
}

// UploadResult reports a whole batch
type UploadResult struct {
	Category models.Category `json:"category"`
	Results  []FileResult    `json:"results"`
	Uploaded int             `json:"uploaded"`
	Skipped  int             `json:"skipped"`
	Failed   int             `json:"failed"`
}

// ImageService handles portfolio image business logic
type ImageService struct {
	store         ImageStore
	notifier      ChangeNotifier
	maxConcurrent int
}

// NewImageService creates a new image service. notifier may be nil.
func NewImageService(store ImageStore, notifier ChangeNotifier, maxConcurrent int) *ImageService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ImageService{
		store:         store,
		notifier:      notifier,
		maxConcurrent: maxConcurrent,
	}
}

// Categories lists the fixed categories with their capacity
func (s *ImageService) Categories() []models.CategoryInfo {
	var out []models.CategoryInfo
	for _, c := range models.Categories() {
		out = append(out, models.CategoryInfo{Name: c, Max: c.MaxImages()})
	}
	return out
}

// ListImages returns the images of a category in store order
func (s *ImageService) ListImages(ctx context.Context, rawCategory string) ([]models.Image, error) {
	category, ok := models.ParseCategory(rawCategory)
	if !ok {
		return nil, apperrors.InvalidCategory(rawCategory)
	}
	return s.store.List(ctx, category)
}

// Upload writes a batch of files into a category. The whole batch is rejected
// when it would exceed the category capacity; past that check every file
// succeeds or fails on its own.
func (s *ImageService) Upload(ctx context.Context, rawCategory string, files []UploadFile) (*UploadResult, error) {
	category, ok := models.ParseCategory(rawCategory)
	if !ok {
		return nil, apperrors.InvalidCategory(rawCategory)
	}
	if len(files) == 0 {
		return nil, apperrors.BadRequest("no files provided")
	}

	current, err := s.store.Count(ctx, category)
	if err != nil {
		return nil, err
	}
	if current+len(files) > category.MaxImages() {
		return nil, apperrors.CapacityExceeded(string(category), current, len(files), category.MaxImages())
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, f := range files {
		g.Go(func() error {
			results[i] = s.uploadOne(gctx, category, f)
			return nil
		})
	}
	_ = g.Wait()

	res := &UploadResult{Category: category, Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusUploaded:
			res.Uploaded++
		case StatusSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}

	log.Info().
		Str("category", string(category)).
		Int("uploaded", res.Uploaded).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Upload batch processed")

	if res.Uploaded > 0 {
		s.notify(category)
	}
	return res, nil
}

func (s *ImageService) uploadOne(ctx context.Context, category models.Category, f UploadFile) FileResult {
	contentType, err := sniffContentType(f.Body)
	if err != nil {
		return failed(f.displayName(), err)
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return failed(f.displayName(), apperrors.BadRequest(fmt.Sprintf("unsupported content type %s", contentType)))
	}

	name, err := objectName(category, f, ext)
	if err != nil {
		return failed(f.displayName(), err)
	}

	img, err := s.store.Put(ctx, repository.Key(category, name), f.Body, contentType)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAlreadyExists {
			log.Warn().
				Str("category", string(category)).
				Str("filename", name).
				Msg("Image already exists, skipping")
			return FileResult{
				Filename: name,
				Status:   StatusSkipped,
				Error:    err.Error(),
				Code:     string(apperrors.KindAlreadyExists),
			}
		}
		log.Error().Err(err).Str("category", string(category)).Str("filename", name).Msg("Failed to upload image")
		return failed(name, err)
	}

	log.Info().Str("category", string(category)).Str("public_id", img.PublicID).Msg("Image uploaded")
	return FileResult{Filename: name, Status: StatusUploaded, Image: &img}
}

func (f UploadFile) displayName() string {
	if f.Filename != "" {
		return f.Filename
	}
	return f.OriginalName
}

// objectName picks the stored filename. A caller-supplied name is sanitised and
// gets the sniffed extension when it has none; generic categories fall back to a
// generated {category}-{id}{ext}. The paired category never guesses a name.
func objectName(category models.Category, f UploadFile, ext string) (string, error) {
	name := naming.Sanitize(f.Filename)
	if name == "" {
		if category.Paired() {
			return "", apperrors.BadRequest("filename is required for " + string(category))
		}
		return naming.Generic(category, naming.NewID(), ext), nil
	}
	if path.Ext(name) == "" {
		name += ext
	}
	return name, nil
}

func sniffContentType(body io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(body, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	ct := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, nil
}

func failed(name string, err error) FileResult {
	return FileResult{
		Filename: name,
		Status:   StatusFailed,
		Error:    apperrors.PublicMessage(err),
		Code:     string(apperrors.KindOf(err)),
	}
}

// DeleteImage removes an image by publicId
func (s *ImageService) DeleteImage(ctx context.Context, publicID string) error {
	category, ok := repository.CategoryOfKey(publicID)
	if !ok {
		return apperrors.NotFound(fmt.Sprintf("image %s not found", publicID))
	}
	if err := s.store.Delete(ctx, publicID); err != nil {
		return err
	}

	log.Info().Str("public_id", publicID).Msg("Image deleted")
	s.notify(category)
	return nil
}

// MoveImage copies an image into another category then deletes the original.
// The publicId changes with the category.
func (s *ImageService) MoveImage(ctx context.Context, publicID, rawTarget string) (models.Image, error) {
	target, ok := models.ParseCategory(rawTarget)
	if !ok {
		return models.Image{}, apperrors.InvalidCategory(rawTarget)
	}
	source, ok := repository.CategoryOfKey(publicID)
	if !ok {
		return models.Image{}, apperrors.NotFound(fmt.Sprintf("image %s not found", publicID))
	}
	if source == target {
		return models.Image{}, apperrors.BadRequest("image is already in " + string(target))
	}

	exists, err := s.store.Exists(ctx, publicID)
	if err != nil {
		return models.Image{}, err
	}
	if !exists {
		return models.Image{}, apperrors.NotFound(fmt.Sprintf("image %s not found", publicID))
	}

	current, err := s.store.Count(ctx, target)
	if err != nil {
		return models.Image{}, err
	}
	if current+1 > target.MaxImages() {
		return models.Image{}, apperrors.CapacityExceeded(string(target), current, 1, target.MaxImages())
	}

	dst := repository.Key(target, path.Base(publicID))
	taken, err := s.store.Exists(ctx, dst)
	if err != nil {
		return models.Image{}, err
	}
	if taken {
		return models.Image{}, apperrors.AlreadyExists(path.Base(publicID))
	}

	img, err := s.store.Copy(ctx, publicID, dst)
	if err != nil {
		return models.Image{}, err
	}
	if err := s.store.Delete(ctx, publicID); err != nil {
		return models.Image{}, err
	}

	log.Info().
		Str("from", publicID).
		Str("to", img.PublicID).
		Msg("Image moved")
	s.notify(source)
	s.notify(target)
	return img, nil
}

func (s *ImageService) notify(category models.Category) {
	if s.notifier != nil {
		s.notifier.NotifyImagesChanged(category)
	}
}
