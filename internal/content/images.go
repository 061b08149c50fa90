// internal/content/images.go
//
// Poem image uploads.
// Two backends behind ImageStore:
//   - LocalImageStore writes under a directory served by the HTTP layer.
//   - S3ImageStore puts objects in a bucket and can hand back a presigned
//     GET URL that expires after ttlSeconds.

package content

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/robalobadob/motmystere/internal/ids"
)

// ImageStore uploads an image and returns the URL the client should use.
// ttlSeconds <= 0 asks for a permanent URL when the backend supports it.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, ttlSeconds int) (string, error)
}

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniffImage returns the content type and file extension of data.
func sniffImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", ErrNotImage
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExt[ct]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotImage, ct)
	}
	return ct, ext, nil
}

// LocalImageStore keeps images on disk.
type LocalImageStore struct {
	Dir     string
	BaseURL string
	IDs     ids.Generator
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), IDs: ids.UUID{}}
}

// Upload ignores ttlSeconds: local files do not expire.
func (s *LocalImageStore) Upload(ctx context.Context, data []byte, ttlSeconds int) (string, error) {
	_, ext, err := sniffImage(data)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &UploadError{Err: err}
	}
	name := s.IDs.NewID() + ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", &UploadError{Err: err}
	}
	return s.BaseURL + "/" + name, nil
}

// s3API is the subset of the S3 client used here.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore keeps images in an S3 bucket.
type S3ImageStore struct {
	client  s3API
	presign func(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	bucket  string
	region  string
	ids     ids.Generator
}

// NewS3ImageStore loads AWS credentials from the default chain.
func NewS3ImageStore(ctx context.Context, bucket, region string) (*S3ImageStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 image store: bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	presigner := s3.NewPresignClient(client)
	return &S3ImageStore{
		client: client,
		presign: func(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
			req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			}, s3.WithPresignExpires(ttl))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		bucket: bucket,
		region: region,
		ids:    ids.UUID{},
	}, nil
}

func (s *S3ImageStore) Upload(ctx context.Context, data []byte, ttlSeconds int) (string, error) {
	ct, ext, err := sniffImage(data)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	key := path.Join("poems", s.ids.NewID()+ext)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ct),
	}); err != nil {
		return "", &UploadError{Err: err}
	}
	if ttlSeconds > 0 {
		url, err := s.presign(ctx, s.bucket, key, time.Duration(ttlSeconds)*time.Second)
		if err != nil {
			return "", &UploadError{Err: err}
		}
		return url, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
