package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/dafibh/domo/domo-client/internal/config"
)

// Photo paths embed a fresh uuid per upload, so an object never changes once
// written
const immutableCacheControl = "public, max-age=31536000, immutable"

// S3ImageRepository implements ImageRepository on a private S3 bucket.
// Objects are served through presigned GET URLs, which are reused until half
// their lifetime has passed so views get stable image addresses.
type S3ImageRepository struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	expiry    time.Duration
	now       func() time.Time

	mu   sync.Mutex
	urls map[string]presigned
}

type presigned struct {
	url     string
	renewAt time.Time
}

var _ ImageRepository = (*S3ImageRepository)(nil)

// NewS3ImageRepository creates the repository and makes sure the bucket exists
func NewS3ImageRepository(ctx context.Context, s3cfg cfg.S3Config) (*S3ImageRepository, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // MinIO and LocalStack
		}
	})

	expiry := s3cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	repo := &S3ImageRepository{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
		prefix:    s3cfg.Prefix,
		expiry:    expiry,
		now:       time.Now,
		urls:      make(map[string]presigned),
	}
	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *S3ImageRepository) key(objectPath string) *string {
	return aws.String(path.Join(r.prefix, objectPath))
}

func (r *S3ImageRepository) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("bucket %s not accessible: %w", r.bucket, err)
	}
	if _, err := r.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(r.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
	}
	return nil
}

// Upload stores data under objectPath and returns the path. A negative size
// buffers the body to learn its length.
func (r *S3ImageRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if size < 0 {
		buf, err := io.ReadAll(data)
		if err != nil {
			return "", fmt.Errorf("failed to read image data: %w", err)
		}
		data, size = bytes.NewReader(buf), int64(len(buf))
	}

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           r.key(objectPath),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String(immutableCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	return objectPath, nil
}

// Delete removes an object and forgets its presigned URL
func (r *S3ImageRepository) Delete(ctx context.Context, objectPath string) error {
	r.mu.Lock()
	delete(r.urls, objectPath)
	r.mu.Unlock()

	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    r.key(objectPath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	return nil
}

// URL presigns a GET of the object
func (r *S3ImageRepository) URL(ctx context.Context, objectPath string) (string, error) {
	now := r.now()

	r.mu.Lock()
	if p, ok := r.urls[objectPath]; ok && now.Before(p.renewAt) {
		r.mu.Unlock()
		return p.url, nil
	}
	r.mu.Unlock()

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    r.key(objectPath),
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectPath, err)
	}

	r.mu.Lock()
	r.urls[objectPath] = presigned{url: req.URL, renewAt: now.Add(r.expiry / 2)}
	r.mu.Unlock()
	return req.URL, nil
}
