package storeutil

import (
	"context"
	"sync"
	"testing"
)

func TestBatchGet_RetriesResidueThenSucceeds(t *testing.T) {
	keys := []int{1, 2, 3}
	var mu sync.Mutex
	attemptsForTwo := 0

	fn := func(ctx context.Context, chunk []int) (map[int]string, []int, error) {
		found := make(map[int]string)
		var unprocessed []int
		for _, k := range chunk {
			if k == 2 {
				mu.Lock()
				attemptsForTwo++
				attempt := attemptsForTwo
				mu.Unlock()
				if attempt < 2 {
					unprocessed = append(unprocessed, k)
					continue
				}
			}
			found[k] = "value"
		}
		return found, unprocessed, nil
	}

	result, err := BatchGet(context.Background(), keys, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected all 3 keys resolved after retry, got %d", len(result))
	}
}

func TestBatchGet_ResidueExhaustedIsNotAnError(t *testing.T) {
	keys := []int{1}
	fn := func(ctx context.Context, chunk []int) (map[int]string, []int, error) {
		return nil, chunk, nil
	}

	result, err := BatchGet(context.Background(), keys, fn)
	if err != nil {
		t.Fatalf("residue exhaustion must not surface as an error, got %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected no resolved keys, got %d", len(result))
	}
}

func TestBatchGet_PropagatesHardError(t *testing.T) {
	keys := []int{1}
	boom := context.DeadlineExceeded
	fn := func(ctx context.Context, chunk []int) (map[int]string, []int, error) {
		return nil, nil, boom
	}

	_, err := BatchGet(context.Background(), keys, fn)
	if err == nil {
		t.Fatal("expected hard error to propagate")
	}
}

func TestBatchWrite_ShortfallAfterExhaustion(t *testing.T) {
	items := []string{"a", "b"}
	fn := func(ctx context.Context, chunk []string) ([]string, error) {
		return chunk, nil
	}

	result, err := BatchWrite(context.Background(), items, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Shortfall != 2 || result.Succeeded != 0 {
		t.Errorf("expected full shortfall, got %+v", result)
	}
}

func TestBatchWrite_SucceedsOnFirstAttempt(t *testing.T) {
	items := []string{"a", "b", "c"}
	fn := func(ctx context.Context, chunk []string) ([]string, error) {
		return nil, nil
	}

	result, err := BatchWrite(context.Background(), items, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 3 || result.Shortfall != 0 {
		t.Errorf("expected all 3 to succeed, got %+v", result)
	}
}

func TestBatchWrite_EmptyInput(t *testing.T) {
	result, err := BatchWrite(context.Background(), []string{}, func(ctx context.Context, chunk []string) ([]string, error) {
		t.Fatal("fn should not be called for empty input")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 0 || result.Shortfall != 0 {
		t.Errorf("expected zero-value result, got %+v", result)
	}
}
