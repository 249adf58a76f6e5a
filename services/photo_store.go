package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/utils"
)

// PhotoStore persists menu item photos by key.
type PhotoStore interface {
	Save(ctx context.Context, key string, fileHeader *multipart.FileHeader) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

const presignedURLTTL = time.Hour

// S3PhotoStore keeps photos in a private bucket and hands out presigned URLs.
type S3PhotoStore struct {
	client *s3.Client
	bucket string
}

var photoStoreInstance PhotoStore

// InitPhotoStore selects the photo backend: S3 when a bucket is configured,
// the local upload directory otherwise.
func InitPhotoStore(ctx context.Context) (PhotoStore, error) {
	cfg := appConfig.GetConfig()
	if cfg == nil || cfg.AWSS3Bucket == "" {
		photoStoreInstance = &DiskPhotoStore{Dir: utils.UploadDir}
		slog.Info("Menu photos stored on local disk", "dir", utils.UploadDir)
		return photoStoreInstance, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	photoStoreInstance = &S3PhotoStore{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}
	slog.Info("Menu photos stored in S3", "bucket", cfg.AWSS3Bucket, "region", cfg.AWSRegion)
	return photoStoreInstance, nil
}

// GetPhotoStore returns the initialized photo store
func GetPhotoStore() PhotoStore {
	return photoStoreInstance
}

// SetPhotoStore sets the photo store (primarily for testing)
func SetPhotoStore(store PhotoStore) {
	photoStoreInstance = store
}

// Save uploads the file under key with its image content type.
func (s *S3PhotoStore) Save(ctx context.Context, key string, fileHeader *multipart.FileHeader) error {
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("Failed to close uploaded file", "error", closeErr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	contentType, _ := utils.ImageContentType(fileHeader.Filename)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// URL returns a presigned GET URL valid for one hour.
func (s *S3PhotoStore) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	request, err := s3.NewPresignClient(s.client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignedURLTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return request.URL, nil
}

// Delete removes the object stored under key.
func (s *S3PhotoStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// DiskPhotoStore writes photos into a flat local directory served by the
// uploads route. Only the base name of a key is used on disk.
type DiskPhotoStore struct {
	Dir string
}

// Save writes the upload to Dir.
func (d *DiskPhotoStore) Save(_ context.Context, key string, fileHeader *multipart.FileHeader) error {
	return utils.SaveUploadedFile(fileHeader, d.Dir, filepath.Base(key))
}

// URL returns the relative uploads path for key.
func (d *DiskPhotoStore) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return utils.GetImageURL(filepath.Base(key)), nil
}

// Delete removes the stored file; a missing file is not an error.
func (d *DiskPhotoStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(d.Dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
