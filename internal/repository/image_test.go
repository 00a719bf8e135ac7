package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/s3test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(client S3API) *ImageRepository {
	return NewImageRepositoryWithClient(client, "portfolio", "https://images.example.com/", time.Second)
}

func TestImageRepository_PutAndList(t *testing.T) {
	fake := s3test.NewBucket()
	repo := newTestRepo(fake)
	ctx := context.Background()

	img, err := repo.Put(ctx, Key(models.CategoryEnduit, "enduit-1.jpg"), bytes.NewReader([]byte("jpg")), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, models.Image{
		URL:      "https://images.example.com/enduit/enduit-1.jpg",
		Filename: "enduit-1.jpg",
		PublicID: "enduit/enduit-1.jpg",
	}, img)

	_, err = repo.Put(ctx, Key(models.CategoryAvantApres, "avant-1.jpg"), bytes.NewReader(nil), "image/jpeg")
	require.NoError(t, err)

	images, err := repo.List(ctx, models.CategoryEnduit)
	require.NoError(t, err)
	assert.Equal(t, []models.Image{img}, images)
}

func TestImageRepository_ListSkipsFolderMarkersAndPages(t *testing.T) {
	fake := s3test.NewBucket()
	fake.PageSize = 2
	fake.Objects["enduit/"] = nil
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"} {
		fake.Objects["enduit/"+name] = []byte("x")
	}
	repo := newTestRepo(fake)

	images, err := repo.List(context.Background(), models.CategoryEnduit)
	require.NoError(t, err)

	var names []string
	for _, img := range images {
		names = append(names, img.Filename)
	}
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}, names)

	count, err := repo.Count(context.Background(), models.CategoryEnduit)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestImageRepository_PutNeverOverwrites(t *testing.T) {
	fake := s3test.NewBucket()
	repo := newTestRepo(fake)
	key := Key(models.CategoryEnduit, "enduit-1.jpg")

	_, err := repo.Put(context.Background(), key, bytes.NewReader([]byte("first")), "image/jpeg")
	require.NoError(t, err)

	_, err = repo.Put(context.Background(), key, bytes.NewReader([]byte("second")), "image/jpeg")
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.Equal(t, []byte("first"), fake.Objects[key])
	assert.Equal(t, 1, fake.PutCalls)
}

func TestImageRepository_Delete(t *testing.T) {
	fake := s3test.NewBucket()
	fake.Objects["enduit/a.jpg"] = []byte("x")
	repo := newTestRepo(fake)

	require.NoError(t, repo.Delete(context.Background(), "enduit/a.jpg"))
	assert.NotContains(t, fake.Objects, "enduit/a.jpg")

	err := repo.Delete(context.Background(), "enduit/a.jpg")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestImageRepository_Copy(t *testing.T) {
	fake := s3test.NewBucket()
	fake.Objects["enduit/a.jpg"] = []byte("x")
	repo := newTestRepo(fake)

	img, err := repo.Copy(context.Background(), "enduit/a.jpg", "escalier-details/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "escalier-details/a.jpg", img.PublicID)
	assert.Equal(t, []byte("x"), fake.Objects["escalier-details/a.jpg"])

	_, err = repo.Copy(context.Background(), "enduit/missing.jpg", "enduit/b.jpg")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestImageRepository_StoreErrors(t *testing.T) {
	fake := s3test.NewBucket()
	fake.ListErr = errors.New("connection reset")
	repo := newTestRepo(fake)

	_, err := repo.List(context.Background(), models.CategoryEnduit)
	assert.Equal(t, apperrors.KindStore, apperrors.KindOf(err))
}

func TestCategoryOfKey(t *testing.T) {
	c, ok := CategoryOfKey("avant-apres/avant-1.jpg")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryAvantApres, c)

	_, ok = CategoryOfKey("unknown/a.jpg")
	assert.False(t, ok)

	_, ok = CategoryOfKey("a.jpg")
	assert.False(t, ok)
}
