package client

import (
	"context"
	"fmt"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/ordering"
	"portfolio-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// Gallery is the admin view of the categories: the live listing from the
// backend displayed in the locally persisted order
type Gallery struct {
	api  *Client
	book *ordering.Book
}

// NewGallery creates a gallery over api and a loaded book
func NewGallery(api *Client, book *ordering.Book) *Gallery {
	return &Gallery{api: api, book: book}
}

// Refresh fetches the category listing, reconciles the stored order with it and
// returns the images in display order
func (g *Gallery) Refresh(ctx context.Context, category models.Category) ([]models.Image, error) {
	images, err := g.api.ListImages(ctx, category)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(images))
	byID := make(map[string]models.Image, len(images))
	for i, img := range images {
		ids[i] = img.PublicID
		byID[img.PublicID] = img
	}

	order, err := g.book.Reconcile(category, ids)
	if err != nil {
		return nil, err
	}

	ordered := make([]models.Image, 0, len(order))
	for _, id := range order {
		ordered = append(ordered, byID[id])
	}

	log.Debug().
		Str("category", string(category)).
		Int("images", len(ordered)).
		Msg("Category reconciled")

	return ordered, nil
}

// MoveUp swaps the image at idx with the previous one
func (g *Gallery) MoveUp(ctx context.Context, category models.Category, idx int) ([]models.Image, error) {
	return g.reorder(ctx, category, func() error {
		_, err := g.book.MoveUp(category, idx)
		return err
	})
}

// MoveDown swaps the image at idx with the next one
func (g *Gallery) MoveDown(ctx context.Context, category models.Category, idx int) ([]models.Image, error) {
	return g.reorder(ctx, category, func() error {
		_, err := g.book.MoveDown(category, idx)
		return err
	})
}

// MoveTo moves the image at from to position to
func (g *Gallery) MoveTo(ctx context.Context, category models.Category, from, to int) ([]models.Image, error) {
	return g.reorder(ctx, category, func() error {
		_, err := g.book.DragReorder(category, from, to)
		return err
	})
}

// reorder reconciles first so positions refer to what the operator sees
func (g *Gallery) reorder(ctx context.Context, category models.Category, mutate func() error) ([]models.Image, error) {
	images, err := g.Refresh(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := mutate(); err != nil {
		return nil, err
	}
	return g.ordered(category, images), nil
}

func (g *Gallery) ordered(category models.Category, images []models.Image) []models.Image {
	byID := make(map[string]models.Image, len(images))
	for _, img := range images {
		byID[img.PublicID] = img
	}
	order := g.book.Order(category)
	out := make([]models.Image, 0, len(order))
	for _, id := range order {
		if img, ok := byID[id]; ok {
			out = append(out, img)
		}
	}
	return out
}

// Upload sends files to a category; new images land at the end of the order
func (g *Gallery) Upload(ctx context.Context, category models.Category, files []UploadFile) (*services.UploadResult, error) {
	if _, err := g.Refresh(ctx, category); err != nil {
		return nil, err
	}

	result, err := g.api.Upload(ctx, category, files)
	if err != nil {
		return nil, err
	}
	for _, r := range result.Results {
		if r.Image == nil {
			continue
		}
		if _, err := g.book.Append(category, r.Image.PublicID); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Delete removes an image and forgets its position. A retry after an ambiguous
// failure succeeds.
func (g *Gallery) Delete(ctx context.Context, publicID string) error {
	if err := g.api.DeleteIdempotent(ctx, publicID); err != nil {
		return err
	}
	return g.book.Forget(publicID)
}

// Move moves an image to another category, appending it to the target order
func (g *Gallery) Move(ctx context.Context, publicID string, target models.Category) (models.Image, error) {
	if _, err := g.Refresh(ctx, target); err != nil {
		return models.Image{}, err
	}

	img, err := g.api.Move(ctx, publicID, target)
	if err != nil {
		return models.Image{}, err
	}
	if err := g.book.Forget(publicID); err != nil {
		return img, err
	}
	if _, err := g.book.Append(target, img.PublicID); err != nil {
		return img, fmt.Errorf("failed to record moved image: %w", err)
	}
	return img, nil
}
