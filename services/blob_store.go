package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// BlobStore stores uploaded bytes and hands back a retrievable URL.
type BlobStore interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}

// S3API is the subset of the S3 client the blob store calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3BlobStore keeps uploads under <prefix>/YYYY/MM/<uuid><ext> and serves them from publicBaseURL.
type S3BlobStore struct {
	client        S3API
	bucket        string
	publicBaseURL string
	prefix        string
	now           func() time.Time
}

func NewS3BlobStore(client S3API, bucket, publicBaseURL string) *S3BlobStore {
	return &S3BlobStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		prefix:        "projects",
		now:           time.Now,
	}
}

func (s *S3BlobStore) Upload(ctx context.Context, body io.Reader, filename, contentType string, size int64) (string, error) {
	key := s.objectKey(filename)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// Delete removes the object behind url. URLs this store did not issue are ignored.
func (s *S3BlobStore) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3BlobStore) objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%s/%s%s", s.prefix, s.now().UTC().Format("2006/01"), uuid.NewString(), ext)
}

func (s *S3BlobStore) keyFromURL(url string) (string, bool) {
	base := s.publicBaseURL + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	if !strings.HasPrefix(key, s.prefix+"/") {
		return "", false
	}
	return key, true
}
