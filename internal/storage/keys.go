package storage

import (
	"encoding/binary"

	"github.com/pragmaxim/indexBTC/internal/model"
)

// Namespace prefixes. Pebble exposes a single flat keyspace, so logical
// namespaces are simulated with short prefixes rather than column
// families.
const (
	addressPrefix = "a:"
	cachePrefix   = "c:"
	lastHeightKey = "m:last_height"
)

// addressKey builds the ADDRESS namespace key for a flow entry: the
// logical, bit-exact form is "address|flow|txid|index" (the "a:" prefix
// only partitions the keyspace and is never part of the persisted record
// text itself).
func addressKey(flow model.AddressFlow) []byte {
	return append([]byte(addressPrefix), []byte(flow.String())...)
}

// cacheKey builds the CACHE namespace key for a UTXO at (txid, index).
func cacheKey(op model.OutPoint) []byte {
	return append([]byte(cachePrefix), []byte(op.String())...)
}

// encodeValue is the 8-byte big-endian satoshi encoding used for ADDRESS
// values, per the spec's standardisation on big-endian for lexicographic
// agreement with the key's textual ordering.
func encodeValue(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeValue(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
