package btcrpc

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// fakeFetch simulates variable per-height latency so completion order
// diverges from height order, exercising the re-ordering guarantee.
func fakeFetch(delays map[uint64]time.Duration) blockFetchFunc {
	return func(height uint64) (*wire.MsgBlock, error) {
		time.Sleep(delays[height])
		block := wire.NewMsgBlock(&wire.BlockHeader{})
		block.Header.Timestamp = time.Unix(int64(height), 0)
		return block, nil
	}
}

func TestFetchOrderedAscendingDespiteJitter(t *testing.T) {
	const start, end = uint64(1), uint64(200)
	rng := rand.New(rand.NewSource(1))
	delays := make(map[uint64]time.Duration)
	for h := start; h <= end; h++ {
		delays[h] = time.Duration(rng.Intn(2000)) * time.Microsecond
	}

	out := fetchOrdered(context.Background(), start, end, 16, fakeFetch(delays))

	expected := start
	count := 0
	for res := range out {
		if res.Height != expected {
			t.Fatalf("out of order: got height %d, want %d", res.Height, expected)
		}
		if res.Err != nil {
			t.Fatalf("unexpected error at height %d: %v", res.Height, res.Err)
		}
		expected++
		count++
	}
	if count != int(end-start+1) {
		t.Fatalf("emitted %d results, want %d", count, end-start+1)
	}
}

func TestFetchOrderedSingleHeight(t *testing.T) {
	out := fetchOrdered(context.Background(), 5, 5, 4, fakeFetch(nil))
	var results []FetchResult
	for res := range out {
		results = append(results, res)
	}
	if len(results) != 1 || results[0].Height != 5 {
		t.Fatalf("results = %+v, want single height 5", results)
	}
}

func TestFetchOrderedEmptyRange(t *testing.T) {
	out := fetchOrdered(context.Background(), 10, 5, 4, fakeFetch(nil))
	var results []FetchResult
	for res := range out {
		results = append(results, res)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want none for an empty range", results)
	}
}

func TestFetchOrderedPropagatesPerItemError(t *testing.T) {
	boom := errors.New("boom")
	var calls int64
	fetch := func(height uint64) (*wire.MsgBlock, error) {
		atomic.AddInt64(&calls, 1)
		if height == 3 {
			return nil, boom
		}
		return wire.NewMsgBlock(&wire.BlockHeader{}), nil
	}

	out := fetchOrdered(context.Background(), 1, 5, 4, fetch)
	var sawErrorAt uint64
	for res := range out {
		if res.Err != nil {
			sawErrorAt = res.Height
		}
	}
	if sawErrorAt != 3 {
		t.Fatalf("expected error surfaced at height 3, got %d", sawErrorAt)
	}
}

func TestFetchOrderedCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	delays := make(map[uint64]time.Duration)
	for h := uint64(1); h <= 1000; h++ {
		delays[h] = time.Millisecond
	}

	out := fetchOrdered(ctx, 1, 1000, 8, fakeFetch(delays))

	count := 0
	for range out {
		count++
		if count == 5 {
			cancel()
		}
	}
	if count >= 1000 {
		t.Fatalf("expected cancellation to stop emission early, got %d results", count)
	}
}
