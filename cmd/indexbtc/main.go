// Command indexbtc ingests a Bitcoin full node's block stream into a
// durable, per-block-atomic, address-oriented UTXO index.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/joho/godotenv"

	"github.com/pragmaxim/indexBTC/internal/btcrpc"
	"github.com/pragmaxim/indexBTC/internal/metrics"
	"github.com/pragmaxim/indexBTC/internal/pipeline"
	"github.com/pragmaxim/indexBTC/internal/storage"
)

// defaultEndHeight is the compile-time end height from the original
// implementation; --end-height overrides it and --follow-tip supersedes
// both by resolving the node's current chain tip once at startup.
const defaultEndHeight = 844566

func main() {
	godotenv.Load()

	dbPath := flag.String("db-path", "/tmp/index_btc", "directory for the embedded store")
	btcURL := flag.String("btc-url", "http://127.0.0.1:8332", "full-node RPC endpoint")
	dbEngine := flag.String("db-engine", "pebble", "storage backend identifier")
	metricsAddr := flag.String("metrics-addr", ":9100", "address to serve Prometheus metrics on")
	endHeight := flag.Uint64("end-height", defaultEndHeight, "last height to index (ignored with --follow-tip)")
	followTip := flag.Bool("follow-tip", false, "resolve the node's current chain tip once at startup instead of using --end-height")
	flag.Parse()

	username, password := loadCredentials()

	engine, err := storage.Open(*dbEngine, *dbPath)
	if err != nil {
		log.Fatalf("[indexbtc] storage: %v", err)
	}
	defer engine.Close()

	rpcClient, err := btcrpc.New(btcrpc.Config{URL: *btcURL, Username: username, Password: password})
	if err != nil {
		log.Fatalf("[indexbtc] rpc: %v", err)
	}
	defer rpcClient.Close()

	metrics.Serve(*metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lastHeight, err := engine.GetLastHeight()
	if err != nil {
		log.Fatalf("[indexbtc] get_last_height: %v", err)
	}
	from := lastHeight + 1

	to := *endHeight
	if *followTip {
		to, err = rpcClient.BestHeight(ctx)
		if err != nil {
			log.Fatalf("[indexbtc] resolving chain tip: %v", err)
		}
	}

	if to < from {
		log.Printf("[indexbtc] nothing to do: last_height=%d, target=%d", lastHeight, to)
		return
	}

	parallelism := runtime.NumCPU() / 2
	if parallelism < 1 {
		parallelism = 1
	}

	p := pipeline.New(rpcClient, engine, &chaincfg.MainNetParams, parallelism)
	reporter := pipeline.NewReporter(0)
	go reporter.Run(p.Progress())

	log.Printf("[indexbtc] syncing from %d to %d", from, to)
	if err := p.Run(ctx, from, to); err != nil {
		log.Fatalf("[indexbtc] fatal: %v", err)
	}
	log.Printf("[indexbtc] sync complete")
}

func loadCredentials() (username, password string) {
	username = os.Getenv("BITCOIN_RPC_USERNAME")
	password = os.Getenv("BITCOIN_RPC_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("[indexbtc] BITCOIN_RPC_USERNAME and BITCOIN_RPC_PASSWORD must both be set")
	}
	return username, password
}
