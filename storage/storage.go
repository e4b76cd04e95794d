package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrBadExtension is returned for uploads whose extension is not on the
// image/video allow-list.
var ErrBadExtension = errors.New("only image files are allowed")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".mp4":  true,
}

// ValidateExtension checks the upload filename against the allow-list.
func ValidateExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return ErrBadExtension
	}
	return nil
}

// Uploader stores an uploaded file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
}

type S3Uploader struct {
	client    *s3.Client
	bucket    string
	region    string
	publicURL string
}

// NewS3Uploader builds the image store client from S3_* environment
// variables. S3_ENDPOINT switches to a path-style S3-compatible server
// (MinIO in development).
func NewS3Uploader(ctx context.Context) (*S3Uploader, error) {
	region := os.Getenv("S3_REGION")

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("S3_ACCESS_KEY"),
			os.Getenv("S3_SECRET_KEY"),
			"",
		)))
	if err != nil {
		return nil, err
	}

	endpoint := os.Getenv("S3_ENDPOINT")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		client:    client,
		bucket:    os.Getenv("S3_BUCKET"),
		region:    region,
		publicURL: os.Getenv("S3_PUBLIC_URL"),
	}, nil
}

// objectKey spreads uploads over date prefixes and keeps the original
// extension so the URL stays recognizable to browsers.
func objectKey(filename string) string {
	d := time.Now()
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("uploads/%d/%02d/%02d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (u *S3Uploader) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := ValidateExtension(file.Filename); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := objectKey(file.Filename)
	contentType := file.Header.Get("Content-Type")

	input := &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   src,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	return u.urlFor(key), nil
}

func (u *S3Uploader) urlFor(key string) string {
	if u.publicURL != "" {
		return strings.TrimRight(u.publicURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
