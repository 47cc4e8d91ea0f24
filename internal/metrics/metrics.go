// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline: throughput counters plus fetch/commit latency histograms.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BlocksIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indexbtc_blocks_indexed_total",
		Help: "Total number of blocks committed to the address index",
	})

	TxsIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indexbtc_txs_indexed_total",
		Help: "Total number of transactions committed to the address index",
	})

	LastIndexedHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "indexbtc_last_indexed_height",
		Help: "Height of the most recently committed block",
	})

	FetchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "indexbtc_fetch_duration_seconds",
		Help:    "Time to fetch a single block from the full node",
		Buckets: prometheus.DefBuckets,
	})

	CommitDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "indexbtc_commit_duration_seconds",
		Help:    "Time to commit a single block's address index effects",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BlocksIndexed)
	prometheus.MustRegister(TxsIndexed)
	prometheus.MustRegister(LastIndexedHeight)
	prometheus.MustRegister(FetchDurationSeconds)
	prometheus.MustRegister(CommitDurationSeconds)
}

// Serve starts the metrics HTTP server on addr in the background.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Printf("[metrics] listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}
