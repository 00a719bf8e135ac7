package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"portfolio-backend/internal/apperrors"
	appconfig "portfolio-backend/internal/config"
	"portfolio-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by ImageRepository
type S3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// ImageRepository stores portfolio images in an S3-compatible bucket under
// category-prefixed keys. The object key is the image publicId.
type ImageRepository struct {
	client       S3API
	bucket       string
	publicDomain string
	timeout      time.Duration
}

// NewImageRepository creates a repository talking to the configured R2 endpoint
func NewImageRepository(ctx context.Context, cfg appconfig.StorageConfig) (*ImageRepository, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		config.WithRetryMaxAttempts(cfg.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return NewImageRepositoryWithClient(client, cfg.Bucket, cfg.PublicDomain, cfg.Timeout), nil
}

// NewImageRepositoryWithClient creates a repository over an existing client
func NewImageRepositoryWithClient(client S3API, bucket, publicDomain string, timeout time.Duration) *ImageRepository {
	return &ImageRepository{
		client:       client,
		bucket:       bucket,
		publicDomain: strings.TrimRight(publicDomain, "/"),
		timeout:      timeout,
	}
}

// Key builds the object key of filename inside category
func Key(category models.Category, filename string) string {
	return category.Prefix() + filename
}

// CategoryOfKey returns the category a key lives in
func CategoryOfKey(key string) (models.Category, bool) {
	prefix, _, found := strings.Cut(key, "/")
	if !found {
		return "", false
	}
	return models.ParseCategory(prefix)
}

// Image maps an object key to its public record
func (r *ImageRepository) Image(key string) models.Image {
	return models.Image{
		URL:      r.publicDomain + "/" + key,
		Filename: path.Base(key),
		PublicID: key,
	}
}

// List returns every image under the category prefix in store order
func (r *ImageRepository) List(ctx context.Context, category models.Category) ([]models.Image, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	prefix := category.Prefix()
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})

	images := []models.Image{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.Store("failed to list images", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix || strings.HasSuffix(key, "/") {
				continue
			}
			images = append(images, r.Image(key))
		}
	}
	return images, nil
}

// Count returns the number of images in the category
func (r *ImageRepository) Count(ctx context.Context, category models.Category) (int, error) {
	images, err := r.List(ctx, category)
	if err != nil {
		return 0, err
	}
	return len(images), nil
}

// Exists reports whether an object with key is present
func (r *ImageRepository) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, apperrors.Store("failed to check image", err)
}

// Put writes body under key. It never overwrites: an existing object yields
// AlreadyExists.
func (r *ImageRepository) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (models.Image, error) {
	exists, err := r.Exists(ctx, key)
	if err != nil {
		return models.Image{}, err
	}
	if exists {
		return models.Image{}, apperrors.AlreadyExists(path.Base(key))
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return models.Image{}, apperrors.AlreadyExists(path.Base(key))
		}
		return models.Image{}, apperrors.Store("failed to upload image", err)
	}
	return r.Image(key), nil
}

// Delete removes the object with key, NotFound when it does not exist
func (r *ImageRepository) Delete(ctx context.Context, key string) error {
	exists, err := r.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound(fmt.Sprintf("image %s not found", key))
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.Store("failed to delete image", err)
	}
	return nil
}

// Copy duplicates src to dst inside the bucket
func (r *ImageRepository) Copy(ctx context.Context, src, dst string) (models.Image, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(r.bucket),
		CopySource: aws.String(r.bucket + "/" + src),
		Key:        aws.String(dst),
	})
	if err != nil {
		if isNotFound(err) {
			return models.Image{}, apperrors.NotFound(fmt.Sprintf("image %s not found", src))
		}
		return models.Image{}, apperrors.Store("failed to copy image", err)
	}
	return r.Image(dst), nil
}

func (r *ImageRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}
