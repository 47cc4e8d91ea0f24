package storage

import (
	"log"

	"github.com/cockroachdb/pebble/v2"
)

// quietLogger silences info logs but keeps errors and fatals on the
// standard logger, prefixed for easy filtering.
type quietLogger struct{}

func (quietLogger) Infof(format string, args ...interface{}) {}
func (quietLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[pebble] "+format, args...)
}
func (quietLogger) Fatalf(format string, args ...interface{}) {
	log.Fatalf("[pebble] "+format, args...)
}

// QuietLogger returns a pebble.Logger that drops info-level noise.
func QuietLogger() pebble.Logger {
	return quietLogger{}
}

// pebbleOpts returns the pebble.Options used to open the address index.
// The index is a single-writer, append-mostly keyspace; the defaults
// below favour write throughput over read amplification.
func pebbleOpts() *pebble.Options {
	opts := &pebble.Options{
		Logger: QuietLogger(),
	}
	opts.L0CompactionThreshold = 8
	opts.L0StopWritesThreshold = 24
	opts.LBaseMaxBytes = 512 << 20
	opts.MemTableSize = 64 << 20
	return opts
}
