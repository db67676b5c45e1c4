package services

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

// BlobCleaner deletes blobs in the background on a bounded worker pool.
// Failures are logged and never reach the caller. When every worker is busy
// the deletion is dropped and logged instead of blocking the caller.
type BlobCleaner struct {
	store   BlobStore
	pool    *ants.Pool
	timeout time.Duration
}

func NewBlobCleaner(store BlobStore, workers int, timeout time.Duration) (*BlobCleaner, error) {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &BlobCleaner{store: store, pool: pool, timeout: timeout}, nil
}

func (c *BlobCleaner) Remove(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		url := url
		err := c.pool.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			if err := c.store.Delete(ctx, url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("failed to delete blob")
			}
		})
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to schedule blob deletion")
		}
	}
}

// Close waits up to wait for queued deletions, then stops the pool.
func (c *BlobCleaner) Close(wait time.Duration) error {
	return c.pool.ReleaseTimeout(wait)
}
