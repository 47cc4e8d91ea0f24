// Package storage implements the transactional address index: the
// IndexWriter of the ingestion pipeline. Engine is a capability
// abstraction (GetLastHeight, Commit, Close) so the pipeline stays
// backend-agnostic even though this module ships a single pebble-backed
// implementation.
package storage

import (
	"fmt"

	"github.com/pragmaxim/indexBTC/internal/model"
)

// Engine is the storage capability the pipeline depends on. A conforming
// implementation commits a block's effects and the advance of its resume
// cursor atomically: either both are durable, or neither is.
type Engine interface {
	// GetLastHeight returns the highest height committed so far, or 0 if
	// nothing has been committed yet.
	GetLastHeight() (uint64, error)

	// Commit durably applies every SumTx of the block at height and
	// advances the resume cursor to height. txs must be presented in the
	// block's original transaction order; Commit does not reorder.
	Commit(height uint64, txs []model.SumTx) error

	Close() error
}

// Factory opens an Engine rooted at path.
type Factory func(path string) (Engine, error)

var registry = map[string]Factory{
	"pebble": openPebbleEngine,
}

// Open resolves name against the engine registry and opens it at path.
// An unrecognised name is a configuration error.
func Open(name, path string) (Engine, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("storage: unknown engine %q", name)
	}
	return factory(path)
}

// InconsistencyError is returned when a non-coinbase input's referenced
// UTXO is absent from CACHE at commit time: a fatal violation of the
// index's spend-resolution invariant.
type InconsistencyError struct {
	OutPoint model.OutPoint
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("storage: inconsistent index: utxo %s referenced but not found in cache", e.OutPoint)
}
