// Package decode turns a block's raw wire transactions into the per-tx
// summaries (model.SumTx) the storage engine consumes. Decoding (address
// derivation in particular) is pure and embarrassingly parallel across
// transactions within a block, so it fans out over a bounded worker pool.
package decode

import (
	"context"
	"math"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/sync/errgroup"

	"github.com/pragmaxim/indexBTC/internal/model"
)

// chunkSize amortises goroutine-scheduling overhead: transactions are
// decoded in batches of 100 rather than one goroutine per tx, mirroring
// the original pipeline's chunking.
const chunkSize = 100

// Block decodes every transaction in txs into a model.SumTx, preserving
// the block's transaction order. Up to parallelism chunks of chunkSize
// transactions run concurrently; a single transaction's derivation can
// never fail (deriveAddress is total), so the only error this can return
// is ctx cancellation.
func Block(ctx context.Context, parallelism int, txs []*wire.MsgTx, params *chaincfg.Params) ([]model.SumTx, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	if parallelism < 1 {
		parallelism = 1
	}

	numChunks := (len(txs) + chunkSize - 1) / chunkSize
	chunkResults := make([][]model.SumTx, numChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := 0; i < numChunks; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(txs))
		chunk := txs[start:end]
		idx := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			out := make([]model.SumTx, len(chunk))
			for j, tx := range chunk {
				out[j] = summarize(tx, params)
			}
			chunkResults[idx] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]model.SumTx, 0, len(txs))
	for _, chunk := range chunkResults {
		summaries = append(summaries, chunk...)
	}
	return summaries, nil
}

func summarize(tx *wire.MsgTx, params *chaincfg.Params) model.SumTx {
	ins := make([]model.OutPoint, len(tx.TxIn))
	for i, in := range tx.TxIn {
		ins[i] = model.OutPoint{
			TxID:  in.PreviousOutPoint.Hash.String(),
			Index: in.PreviousOutPoint.Index,
		}
	}

	outs := make([]model.Utxo, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outs[i] = model.Utxo{
			Index:   uint32(i),
			Address: deriveAddress(out.PkScript, params),
			Value:   uint64(out.Value),
		}
	}

	return model.SumTx{
		TxID:       tx.TxHash().String(),
		IsCoinbase: isCoinbase(tx),
		Ins:        ins,
		Outs:       outs,
	}
}

// isCoinbase reports whether tx is a block's coinbase transaction: exactly
// one input referencing the null outpoint.
func isCoinbase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prev := tx.TxIn[0].PreviousOutPoint
	return prev.Index == math.MaxUint32 && prev.Hash == (chainhash.Hash{})
}
