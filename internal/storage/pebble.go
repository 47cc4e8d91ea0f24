package storage

import (
	"strconv"
	"time"

	"github.com/cockroachdb/pebble/v2"

	"github.com/pragmaxim/indexBTC/internal/metrics"
	"github.com/pragmaxim/indexBTC/internal/model"
)

// pebbleEngine is the Engine backed by cockroachdb/pebble. It is owned
// exclusively by the pipeline's single writer goroutine: commits never
// race each other, so no mutex guards db. A single-writer pipeline makes
// an outer lock around batches redundant.
type pebbleEngine struct {
	db *pebble.DB
}

func openPebbleEngine(path string) (Engine, error) {
	db, err := pebble.Open(path, pebbleOpts())
	if err != nil {
		return nil, err
	}
	return &pebbleEngine{db: db}, nil
}

func (e *pebbleEngine) GetLastHeight() (uint64, error) {
	val, closer, err := e.db.Get([]byte(lastHeightKey))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	height, err := strconv.ParseUint(string(val), 10, 64)
	if err != nil {
		return 0, err
	}
	return height, nil
}

// Commit implements the IndexWriter algorithm: an indexed batch gives
// same-transaction read-your-writes, so a later tx in the block can
// resolve a UTXO an earlier tx in the same block just created.
func (e *pebbleEngine) Commit(height uint64, txs []model.SumTx) error {
	start := time.Now()
	defer func() { metrics.CommitDurationSeconds.Observe(time.Since(start).Seconds()) }()

	batch := e.db.NewIndexedBatch()
	defer batch.Close()

	type addressWrite struct {
		key   []byte
		value []byte
	}
	var addressBatch []addressWrite

	for _, tx := range txs {
		// Outputs phase: materialise CACHE entries immediately (visible
		// to subsequent reads in this same batch) and buffer the
		// corresponding ADDRESS credits.
		for _, utxo := range tx.Outs {
			op := model.OutPoint{TxID: tx.TxID, Index: utxo.Index}
			if err := batch.Set(cacheKey(op), []byte(utxo.String()), nil); err != nil {
				return err
			}
			flow := model.AddressFlow{
				Address:   utxo.Address,
				Flow:      model.FlowOutput,
				TxID:      tx.TxID,
				UtxoIndex: utxo.Index,
			}
			addressBatch = append(addressBatch, addressWrite{
				key:   addressKey(flow),
				value: encodeValue(utxo.Value),
			})
		}

		if tx.IsCoinbase {
			continue
		}

		// Inputs phase: resolve each spent UTXO from CACHE inside the
		// same batch and buffer the corresponding ADDRESS debit.
		for _, in := range tx.Ins {
			val, closer, err := batch.Get(cacheKey(in))
			if err == pebble.ErrNotFound {
				return &InconsistencyError{OutPoint: in}
			}
			if err != nil {
				return err
			}
			utxo, parseErr := model.ParseUtxo(string(val))
			closer.Close()
			if parseErr != nil {
				return parseErr
			}
			flow := model.AddressFlow{
				Address:   utxo.Address,
				Flow:      model.FlowInput,
				TxID:      in.TxID,
				UtxoIndex: in.Index,
			}
			addressBatch = append(addressBatch, addressWrite{
				key:   addressKey(flow),
				value: encodeValue(utxo.Value),
			})
		}
	}

	for _, w := range addressBatch {
		if err := batch.Set(w.key, w.value, nil); err != nil {
			return err
		}
	}
	if err := batch.Set([]byte(lastHeightKey), []byte(strconv.FormatUint(height, 10)), nil); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

func (e *pebbleEngine) Close() error {
	return e.db.Close()
}
