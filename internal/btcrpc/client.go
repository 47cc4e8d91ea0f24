// Package btcrpc implements the BlockFetcher external contract against a
// real Bitcoin Core JSON-RPC endpoint via btcsuite/btcd's rpcclient.
package btcrpc

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/pragmaxim/indexBTC/internal/metrics"
)

// Client fetches raw blocks from a trusted full node.
type Client struct {
	rpc *rpcclient.Client
}

// Config holds the full-node RPC connection details.
type Config struct {
	URL      string
	Username string
	Password string
}

// New dials a Bitcoin Core JSON-RPC endpoint. DisableTLS is derived from
// the URL scheme: a plain "http" endpoint talks in the clear, matching a
// locally trusted full node.
func New(cfg Config) (*Client, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("btcrpc: invalid url %q: %w", cfg.URL, err)
	}

	connCfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         cfg.Username,
		Pass:         cfg.Password,
		HTTPPostMode: true,
		DisableTLS:   parsed.Scheme != "https",
	}

	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("btcrpc: connect: %w", err)
	}
	return &Client{rpc: rpc}, nil
}

// BestHeight returns the full node's current chain tip height.
func (c *Client) BestHeight(ctx context.Context) (uint64, error) {
	count, err := c.rpc.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("btcrpc: getblockcount: %w", err)
	}
	return uint64(count), nil
}

// fetchOne retrieves the raw block at height.
func (c *Client) fetchOne(height uint64) (*wire.MsgBlock, error) {
	start := time.Now()
	defer func() { metrics.FetchDurationSeconds.Observe(time.Since(start).Seconds()) }()

	hash, err := c.rpc.GetBlockHash(int64(height))
	if err != nil {
		return nil, fmt.Errorf("btcrpc: getblockhash(%d): %w", height, err)
	}
	block, err := c.rpc.GetBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("btcrpc: getblock(%d, %s): %w", height, hash, err)
	}
	return block, nil
}

// FetchResult is one item of the BlockFetcher's output sequence.
type FetchResult struct {
	Height uint64
	Block  *wire.MsgBlock
	Err    error
}

// Fetch produces, in strictly ascending height order, the blocks in
// [start, end] inclusive. The underlying RPC calls are issued with
// bounded concurrency, but results are re-ordered to ascending height
// before being sent on the returned channel, so downstream stages never
// observe a height out of order. The channel is closed once every
// height has been emitted or ctx is cancelled.
func (c *Client) Fetch(ctx context.Context, start, end uint64, parallelism int) <-chan FetchResult {
	return fetchOrdered(ctx, start, end, parallelism, c.fetchOne)
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Shutdown()
}
