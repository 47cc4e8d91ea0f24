package pipeline

import (
	"log"
	"time"

	"github.com/pragmaxim/indexBTC/internal/metrics"
)

// Reporter consumes commit receipts and periodically logs throughput.
type Reporter struct {
	logEvery time.Duration
}

// NewReporter returns a Reporter that logs a throughput line roughly
// every logEvery.
func NewReporter(logEvery time.Duration) *Reporter {
	if logEvery <= 0 {
		logEvery = 10 * time.Second
	}
	return &Reporter{logEvery: logEvery}
}

// Run drains progress until the channel is closed, updating Prometheus
// metrics on every receipt and emitting a log line at most once per
// logEvery.
func (r *Reporter) Run(progress <-chan Progress) {
	start := time.Now()
	lastLog := start
	var blocks, txs uint64

	for p := range progress {
		blocks++
		txs += uint64(p.TxCount)

		metrics.BlocksIndexed.Inc()
		metrics.TxsIndexed.Add(float64(p.TxCount))
		metrics.LastIndexedHeight.Set(float64(p.Height))

		if time.Since(lastLog) >= r.logEvery {
			elapsed := time.Since(start).Seconds()
			log.Printf("[pipeline] indexed %d blocks (%d txs) up to height %d, %.1f blocks/s",
				blocks, txs, p.Height, float64(blocks)/elapsed)
			lastLog = time.Now()
		}
	}

	log.Printf("[pipeline] sync complete: %d blocks, %d txs in %.1fs", blocks, txs, time.Since(start).Seconds())
}
