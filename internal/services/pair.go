package services

import (
	"context"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/naming"
)

// ImageLister lists the images of a category
type ImageLister interface {
	List(ctx context.Context, category models.Category) ([]models.Image, error)
}

// PairService derives before/after pairs for the public gallery
type PairService struct {
	images ImageLister
}

// NewPairService creates a new pair service
func NewPairService(images ImageLister) *PairService {
	return &PairService{images: images}
}

// ListPairs returns the pairs of the before/after category. After images without
// a matching before image are not surfaced, nor are lone before images.
func (s *PairService) ListPairs(ctx context.Context) ([]models.Pair, error) {
	images, err := s.images.List(ctx, models.CategoryAvantApres)
	if err != nil {
		return nil, err
	}
	return naming.Pairs(images), nil
}
