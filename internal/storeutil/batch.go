package storeutil

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"commuteforecast/backend/internal/logging"
)

const (
	// BatchGetLimit is the native per-call read batch size.
	BatchGetLimit = 100
	// BatchWriteLimit is the native per-call write batch size.
	BatchWriteLimit = 25

	maxRetryAttempts = 4
	baseBackoff      = 100 * time.Millisecond
)

// backoffDelay returns 100ms·2^(attempt-1), attempt starting at 1, the
// same exponential backoff shape a DynamoDB-style batcher uses for
// retrying unprocessed-item residue.
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// GetChunkFunc fetches a chunk of keys, returning found records and any
// keys the underlying store could not service this call ("unprocessed"
// residue — a transient condition, not an error).
type GetChunkFunc[K comparable, V any] func(ctx context.Context, keys []K) (found map[K]V, unprocessed []K, err error)

// BatchGet chunks keys to limit, runs chunks concurrently, and retries
// unprocessed residue with exponential backoff up to 4 attempts. Residue
// remaining after the last attempt is logged and simply absent from the
// result — callers get a best-effort partial map, never an error from
// residue alone.
func BatchGet[K comparable, V any](ctx context.Context, keys []K, fn GetChunkFunc[K, V]) (map[K]V, error) {
	result := make(map[K]V, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	chunks := Chunk(keys, BatchGetLimit)

	g, gctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			pending := chunk
			for attempt := 1; attempt <= maxRetryAttempts && len(pending) > 0; attempt++ {
				found, unprocessed, err := fn(gctx, pending)
				if err != nil {
					return err
				}
				mu.Lock()
				for k, v := range found {
					result[k] = v
				}
				mu.Unlock()

				pending = unprocessed
				if len(pending) == 0 {
					break
				}
				if attempt < maxRetryAttempts {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(backoffDelay(attempt)):
					}
				}
			}
			if len(pending) > 0 {
				logging.Warn("batch get: residue after max attempts", "count", len(pending))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// WriteChunkFunc writes a chunk of items, returning the items the
// underlying store could not process this call.
type WriteChunkFunc[W any] func(ctx context.Context, items []W) (unprocessed []W, err error)

// WriteResult reports how many of the requested writes ultimately
// succeeded, and how many were abandoned as residue after the retry
// budget was exhausted.
type WriteResult struct {
	Succeeded int
	Shortfall int
}

// BatchWrite chunks writes to limit, runs chunks concurrently, and retries
// unprocessed residue with the same backoff policy as BatchGet. The caller
// never receives an error purely from residue — only a shortfall count to
// log or alert on.
func BatchWrite[W any](ctx context.Context, items []W, fn WriteChunkFunc[W]) (WriteResult, error) {
	if len(items) == 0 {
		return WriteResult{}, nil
	}

	var mu sync.Mutex
	result := WriteResult{}
	chunks := Chunk(items, BatchWriteLimit)

	g, gctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			pending := chunk
			attempted := len(chunk)
			for attempt := 1; attempt <= maxRetryAttempts && len(pending) > 0; attempt++ {
				unprocessed, err := fn(gctx, pending)
				if err != nil {
					return err
				}
				pending = unprocessed
				if len(pending) == 0 {
					break
				}
				if attempt < maxRetryAttempts {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(backoffDelay(attempt)):
					}
				}
			}
			mu.Lock()
			result.Succeeded += attempted - len(pending)
			result.Shortfall += len(pending)
			mu.Unlock()
			if len(pending) > 0 {
				logging.Warn("batch write: shortfall after max attempts", "count", len(pending))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}
