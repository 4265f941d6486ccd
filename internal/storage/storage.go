// Package storage keeps uploaded catalog images in S3-compatible object
// storage and checks externally hosted image URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnknownFolder = errors.New("storage: unknown upload folder")

// Folders images may be uploaded into.
var Folders = map[string]bool{
	"recipes":  true,
	"products": true,
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Store struct {
	uploader      objectUploader
	bucket        string
	publicBaseURL string
	log           *zap.Logger
	now           func() time.Time
	newID         func() string
}

// NewS3Store loads AWS credentials from the default chain (env, shared
// config, instance role). publicBaseURL, when set, replaces the S3 location
// in returned URLs, e.g. for a CDN in front of the bucket.
func NewS3Store(ctx context.Context, bucket, publicBaseURL string, log *zap.Logger) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return newS3Store(manager.NewUploader(client), bucket, publicBaseURL, log), nil
}

func newS3Store(uploader objectUploader, bucket, publicBaseURL string, log *zap.Logger) *S3Store {
	return &S3Store{
		uploader:      uploader,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// ObjectKey builds "<folder>/<unix-ms>-<id>.<ext>" from the client's file name.
func ObjectKey(folder, filename string, at time.Time, id string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d-%s.%s", folder, at.UnixMilli(), id, ext)
}

// Upload stores body under a fresh key in folder and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	if !Folders[folder] {
		return "", ErrUnknownFolder
	}

	key := ObjectKey(folder, filename, s.now(), s.newID())
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.log.Info("image uploaded", zap.String("bucket", s.bucket), zap.String("key", key))

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return result.Location, nil
}
