// Package pipeline assembles the four-stage ingestion pipeline:
// fetch -> decode -> write -> report, with bounded buffers between
// stages so a slow writer applies backpressure all the way to the
// fetcher.
package pipeline

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/sync/errgroup"

	"github.com/pragmaxim/indexBTC/internal/btcrpc"
	"github.com/pragmaxim/indexBTC/internal/decode"
	"github.com/pragmaxim/indexBTC/internal/model"
	"github.com/pragmaxim/indexBTC/internal/storage"
)

// bufferSize bounds both inter-stage channels, matching the backpressure
// contract: if the writer falls behind, the decoder's outputs queue and
// the fetcher stops pulling new blocks.
const bufferSize = 128

// Fetcher produces blocks in strictly ascending height order.
type Fetcher interface {
	Fetch(ctx context.Context, start, end uint64, parallelism int) <-chan btcrpc.FetchResult
}

// Progress is a commit receipt consumed by a Reporter.
type Progress struct {
	Height  uint64
	TxCount int
}

// Pipeline wires a Fetcher, the TxDecoder, and a storage.Engine into the
// end-to-end ingestion flow.
type Pipeline struct {
	fetcher     Fetcher
	engine      storage.Engine
	params      *chaincfg.Params
	parallelism int
	progress    chan Progress
}

// New constructs a Pipeline. parallelism bounds both the fetcher's
// concurrent RPC calls and the decoder's concurrent chunk workers.
func New(fetcher Fetcher, engine storage.Engine, params *chaincfg.Params, parallelism int) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		engine:      engine,
		params:      params,
		parallelism: parallelism,
		progress:    make(chan Progress, bufferSize),
	}
}

// Progress returns the channel ProgressReporter consumes commit receipts
// from. It is closed once Run returns.
func (p *Pipeline) Progress() <-chan Progress {
	return p.progress
}

type decodedBlock struct {
	height uint64
	txs    []model.SumTx
}

// Run drives blocks [from, to] through fetch, decode and write, in that
// order, returning the first fatal error encountered. A fetch, decode,
// or storage error aborts the whole pipeline: per the index's
// invariants, silently skipping a block would corrupt it.
func (p *Pipeline) Run(ctx context.Context, from, to uint64) error {
	defer close(p.progress)

	if to < from {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	decoded := make(chan decodedBlock, bufferSize)

	fetched := p.fetcher.Fetch(ctx, from, to, p.parallelism)

	g.Go(func() error {
		defer close(decoded)
		for res := range fetched {
			if res.Err != nil {
				return fmt.Errorf("pipeline: fetch height %d: %w", res.Height, res.Err)
			}
			txs, err := decode.Block(ctx, p.parallelism, res.Block.Transactions, p.params)
			if err != nil {
				return fmt.Errorf("pipeline: decode height %d: %w", res.Height, err)
			}
			select {
			case decoded <- decodedBlock{height: res.Height, txs: txs}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for block := range decoded {
			if err := p.engine.Commit(block.height, block.txs); err != nil {
				return fmt.Errorf("pipeline: commit height %d: %w", block.height, err)
			}
			select {
			case p.progress <- Progress{Height: block.height, TxCount: len(block.txs)}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return g.Wait()
}
