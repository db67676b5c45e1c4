package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	puts    []*s3.PutObjectInput
	bodies  []string
	deletes []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestBlobStore(client S3API) *S3BlobStore {
	store := NewS3BlobStore(client, "portfolio-media", "https://cdn.example.com/")
	store.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return store
}

func TestS3BlobStore_Upload(t *testing.T) {
	client := &fakeS3{}
	store := newTestBlobStore(client)

	url, err := store.Upload(context.Background(), strings.NewReader("png-bytes"), "Screen Shot.PNG", "image/png", 9)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/projects/2026/03/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "portfolio-media", aws.ToString(put.Bucket))
	assert.Equal(t, "image/png", aws.ToString(put.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(put.ContentLength))
	assert.Equal(t, "https://cdn.example.com/"+aws.ToString(put.Key), url)
	assert.Equal(t, "png-bytes", client.bodies[0])
}

func TestS3BlobStore_UploadError(t *testing.T) {
	store := newTestBlobStore(&fakeS3{err: errors.New("access denied")})

	_, err := store.Upload(context.Background(), strings.NewReader("x"), "a.png", "image/png", 1)

	assert.ErrorContains(t, err, "access denied")
}

func TestS3BlobStore_Delete(t *testing.T) {
	client := &fakeS3{}
	store := newTestBlobStore(client)

	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/projects/2026/03/abc.png"))
	require.NoError(t, store.Delete(context.Background(), "https://elsewhere.example.com/projects/x.png"))
	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/avatars/x.png"))

	assert.Equal(t, []string{"projects/2026/03/abc.png"}, client.deletes)
}

func TestS3BlobStore_ObjectKeyDropsPathsAndOddExtensions(t *testing.T) {
	store := newTestBlobStore(&fakeS3{})

	key := store.objectKey(`..\..\evil\clip.MP4`)
	assert.True(t, strings.HasPrefix(key, "projects/2026/03/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))
	assert.NotContains(t, key, "evil")

	key = store.objectKey("archive.thisisnotanextension")
	assert.NotContains(t, key, "thisisnot")
}
