package client

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-backend/internal/apperrors"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/ordering"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/repository/s3test"
	"portfolio-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("JFIF fake jpeg body")...)

func newBackend(t *testing.T) (*Client, *s3test.Bucket) {
	t.Helper()

	bucket := s3test.NewBucket()
	repo := repository.NewImageRepositoryWithClient(bucket, "portfolio", "https://images.example.com", time.Second)
	hub := services.NewWSHub()
	auth := services.NewAuthService(services.NewStaticCredentials("admin@example.fr", "s3cret"), "test-secret", time.Hour)

	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Auth:           auth,
		Images:         services.NewImageService(repo, hub, 2),
		Pairs:          services.NewPairService(repo),
		Reviews:        services.NewReviewsService(nil, "http://127.0.0.1:0", "", "", time.Second),
		Hub:            hub,
		MaxUploadBytes: 10 << 20,
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL, srv.Client()), bucket
}

func login(t *testing.T, c *Client) {
	t.Helper()
	_, err := c.Login(context.Background(), "admin@example.fr", "s3cret")
	require.NoError(t, err)
}

func jpegFile(name string) UploadFile {
	return UploadFile{Filename: name, Body: bytes.NewReader(jpegBytes)}
}

func TestClient_Login(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()

	assert.True(t, errors.Is(c.Verify(ctx), apperrors.ErrUnauthorized))

	_, err := c.Login(ctx, "admin@example.fr", "wrong")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
	assert.Empty(t, c.Token())

	session, err := c.Login(ctx, "admin@example.fr", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, session.Token, c.Token())
	assert.NoError(t, c.Verify(ctx))

	c.SetToken("garbage")
	assert.True(t, errors.Is(c.Verify(ctx), apperrors.ErrUnauthorized))
}

func TestClient_UploadListDelete(t *testing.T) {
	c, bucket := newBackend(t)
	login(t, c)
	ctx := context.Background()

	result, err := c.Upload(ctx, models.CategoryEnduit, []UploadFile{jpegFile("a.jpg"), jpegFile("")})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Uploaded)
	assert.Len(t, bucket.Keys(), 2)

	images, err := c.ListImages(ctx, models.CategoryEnduit)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	public, err := c.ListPublicImages(ctx, models.CategoryEnduit)
	require.NoError(t, err)
	assert.Equal(t, images, public)

	require.NoError(t, c.Delete(ctx, "enduit/a.jpg"))
	err = c.Delete(ctx, "enduit/a.jpg")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, c.DeleteIdempotent(ctx, "enduit/a.jpg"))

	_, err = c.ListImages(ctx, "cuisine")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCategory))
}

func TestClient_DeleteIdempotentNeedsBackendNotFound(t *testing.T) {
	bucket := s3test.NewBucket()
	repo := repository.NewImageRepositoryWithClient(bucket, "portfolio", "https://images.example.com", time.Second)
	auth := services.NewAuthService(services.NewStaticCredentials("admin@example.fr", "s3cret"), "test-secret", time.Hour)
	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Auth:    auth,
		Images:  services.NewImageService(repo, services.NewWSHub(), 2),
		Pairs:   services.NewPairService(repo),
		Reviews: services.NewReviewsService(nil, "http://127.0.0.1:0", "", "", time.Second),
		Hub:     services.NewWSHub(),
	}))
	t.Cleanup(srv.Close)
	token, _, err := auth.Login("admin@example.fr", "s3cret")
	require.NoError(t, err)

	wrongBase := New(srv.URL+"/backend", srv.Client())
	wrongBase.SetToken(token)

	err = wrongBase.DeleteIdempotent(context.Background(), "enduit/a.jpg")
	require.Error(t, err)
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, 404, respErr.StatusCode)
	assert.Empty(t, respErr.Code)

	right := New(srv.URL, srv.Client())
	right.SetToken(token)
	assert.NoError(t, right.DeleteIdempotent(context.Background(), "enduit/a.jpg"))
}

func TestClient_MoveAndPairs(t *testing.T) {
	c, bucket := newBackend(t)
	login(t, c)
	ctx := context.Background()
	bucket.Objects["enduit/avant-salon.jpg"] = jpegBytes
	bucket.Objects["avant-apres/apres-salon.jpg"] = jpegBytes

	img, err := c.Move(ctx, "enduit/avant-salon.jpg", models.CategoryAvantApres)
	require.NoError(t, err)
	assert.Equal(t, "avant-apres/avant-salon.jpg", img.PublicID)

	pairs, err := c.Pairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "salon", pairs[0].Key)

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)
}

func TestClient_ReviewsNotConfigured(t *testing.T) {
	c, _ := newBackend(t)

	_, err := c.Reviews(context.Background())

	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func newGallery(t *testing.T) (*Gallery, *s3test.Bucket, *ordering.MemoryStorage) {
	t.Helper()
	c, bucket := newBackend(t)
	login(t, c)

	storage := ordering.NewMemoryStorage()
	book := ordering.NewBook(storage)
	require.NoError(t, book.Load())
	return NewGallery(c, book), bucket, storage
}

func ids(images []models.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.PublicID
	}
	return out
}

func TestGallery_RefreshReconcilesWithListing(t *testing.T) {
	g, bucket, storage := newGallery(t)
	ctx := context.Background()
	require.NoError(t, storage.Set(ordering.StorageKey,
		[]byte(`{"enduit":["enduit/c.jpg","enduit/gone.jpg","enduit/a.jpg"]}`)))
	require.NoError(t, g.book.Load())
	for _, k := range []string{"enduit/a.jpg", "enduit/b.jpg", "enduit/c.jpg"} {
		bucket.Objects[k] = jpegBytes
	}

	images, err := g.Refresh(ctx, models.CategoryEnduit)
	require.NoError(t, err)
	assert.Equal(t, []string{"enduit/c.jpg", "enduit/a.jpg", "enduit/b.jpg"}, ids(images))

	again, err := g.Refresh(ctx, models.CategoryEnduit)
	require.NoError(t, err)
	assert.Equal(t, ids(images), ids(again))
}

func TestGallery_ReorderAndMutations(t *testing.T) {
	g, bucket, _ := newGallery(t)
	ctx := context.Background()
	for _, k := range []string{"enduit/a.jpg", "enduit/b.jpg", "enduit/c.jpg"} {
		bucket.Objects[k] = jpegBytes
	}

	images, err := g.MoveDown(ctx, models.CategoryEnduit, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"enduit/b.jpg", "enduit/a.jpg", "enduit/c.jpg"}, ids(images))

	images, err = g.MoveUp(ctx, models.CategoryEnduit, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"enduit/b.jpg", "enduit/a.jpg", "enduit/c.jpg"}, ids(images))

	images, err = g.MoveTo(ctx, models.CategoryEnduit, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"enduit/c.jpg", "enduit/b.jpg", "enduit/a.jpg"}, ids(images))

	_, err = g.Upload(ctx, models.CategoryEnduit, []UploadFile{jpegFile("d.jpg")})
	require.NoError(t, err)
	assert.Equal(t, []string{"enduit/c.jpg", "enduit/b.jpg", "enduit/a.jpg", "enduit/d.jpg"}, g.book.Order(models.CategoryEnduit))

	require.NoError(t, g.Delete(ctx, "enduit/b.jpg"))
	require.NoError(t, g.Delete(ctx, "enduit/b.jpg"))
	assert.Equal(t, []string{"enduit/c.jpg", "enduit/a.jpg", "enduit/d.jpg"}, g.book.Order(models.CategoryEnduit))

	img, err := g.Move(ctx, "enduit/c.jpg", models.CategoryEscalierDetails)
	require.NoError(t, err)
	assert.Equal(t, []string{"enduit/a.jpg", "enduit/d.jpg"}, g.book.Order(models.CategoryEnduit))
	assert.Equal(t, []string{img.PublicID}, g.book.Order(models.CategoryEscalierDetails))
}
