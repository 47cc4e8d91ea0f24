package btcrpc

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/wire"
)

// blockFetchFunc fetches a single height's raw block. Extracted as its
// own type so fetchOrdered can be exercised in tests against a synthetic
// fetcher, without a live full node.
type blockFetchFunc func(height uint64) (*wire.MsgBlock, error)

// fetchOrdered downloads [start, end] with up to parallelism concurrent
// calls to fetchOne, but emits results on the returned channel in
// strictly ascending height order regardless of completion order. It
// implements the BlockFetcher contract's re-ordering requirement with a
// sliding window: at most parallelism heights are in flight at once, and
// a height is only sent once every lower height has already been sent.
func fetchOrdered(ctx context.Context, start, end uint64, parallelism int, fetchOne blockFetchFunc) <-chan FetchResult {
	out := make(chan FetchResult)
	if parallelism < 1 {
		parallelism = 1
	}

	go func() {
		defer close(out)

		if end < start {
			return
		}

		sem := make(chan struct{}, parallelism)
		done := make(chan FetchResult, parallelism)
		var wg sync.WaitGroup

		// Producer: launches one goroutine per height, gated by sem so
		// at most parallelism fetches are in flight concurrently.
		go func() {
			for h := start; h <= end; h++ {
				select {
				case <-ctx.Done():
					wg.Wait()
					close(done)
					return
				case sem <- struct{}{}:
				}

				wg.Add(1)
				go func(height uint64) {
					defer wg.Done()
					defer func() { <-sem }()

					block, err := fetchOne(height)
					select {
					case done <- FetchResult{Height: height, Block: block, Err: err}:
					case <-ctx.Done():
					}
				}(h)
			}
			wg.Wait()
			close(done)
		}()

		// Consumer: buffers completed heights until the next expected
		// height is available, then emits in order.
		pending := make(map[uint64]FetchResult)
		next := start
		for res := range done {
			pending[res.Height] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
				next++
			}
		}
	}()

	return out
}
