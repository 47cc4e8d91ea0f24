package decode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var params = &chaincfg.MainNetParams

func TestDeriveAddressStandard(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %v", err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		t.Fatalf("PayToAddrScript: %v", err)
	}

	got := deriveAddress(script, params)
	if want := addr.EncodeAddress(); got != want {
		t.Fatalf("deriveAddress = %q, want %q", got, want)
	}
}

func TestDeriveAddressWitnessPubKeyHash(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	if err != nil {
		t.Fatalf("NewAddressWitnessPubKeyHash: %v", err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		t.Fatalf("PayToAddrScript: %v", err)
	}

	got := deriveAddress(script, params)
	if want := addr.EncodeAddress(); got != want {
		t.Fatalf("deriveAddress = %q, want %q", got, want)
	}
}

func TestDeriveAddressBarePubKey(t *testing.T) {
	// A fixed 32-byte scalar makes this deterministic across runs.
	var keyBytes [32]byte
	for i := range keyBytes {
		keyBytes[i] = byte(i + 1)
	}
	_, pub := btcec.PrivKeyFromBytes(keyBytes[:])

	script, err := txscript.NewScriptBuilder().
		AddData(pub.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		t.Fatalf("building bare pubkey script: %v", err)
	}

	want := btcutil.Hash160(pub.SerializeCompressed())
	wantAddr, err := btcutil.NewAddressPubKeyHash(want, params)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %v", err)
	}

	got := deriveAddress(script, params)
	if got != wantAddr.EncodeAddress() {
		t.Fatalf("deriveAddress = %q, want %q (folded P2PKH)", got, wantAddr.EncodeAddress())
	}
}

func TestDeriveAddressOpReturn(t *testing.T) {
	script, err := txscript.NullDataScript([]byte("hello world"))
	if err != nil {
		t.Fatalf("NullDataScript: %v", err)
	}

	got := deriveAddress(script, params)
	if got != opReturnAddress {
		t.Fatalf("deriveAddress = %q, want %q", got, opReturnAddress)
	}
}

func TestDeriveAddressNonStandardFallback(t *testing.T) {
	// OP_RETURN with more than the standard single push isn't recognised
	// as NullDataTy by the script interpreter, and carries no address,
	// so it must fall through to the hash fallback rather than erroring.
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData([]byte("one")).
		AddData([]byte("two")).
		Script()
	if err != nil {
		t.Fatalf("building non-standard script: %v", err)
	}

	got := deriveAddress(script, params)

	asm, err := txscript.DisasmString(script)
	if err != nil {
		t.Fatalf("DisasmString: %v", err)
	}
	sum := sha256.Sum256([]byte(asm))
	want := hex.EncodeToString(sum[:])

	if got != want {
		t.Fatalf("deriveAddress = %q, want %q", got, want)
	}
	if len(got) != 64 {
		t.Fatalf("fallback address length = %d, want 64", len(got))
	}
}

// buildTx returns a synthetic transaction distinguishable from its peers
// by lockTime, with one P2PKH output so deriveAddress has something to do.
func buildTx(lockTime uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.LockTime = lockTime

	var hash chainhash.Hash
	hash[0] = byte(lockTime)
	hash[1] = byte(lockTime >> 8)
	hash[2] = byte(lockTime >> 16)
	hash[3] = byte(lockTime >> 24)
	prevOut := wire.NewOutPoint(&hash, 0)
	tx.AddTxIn(wire.NewTxIn(prevOut, nil, nil))

	pubKeyHash := btcutil.Hash160([]byte{byte(lockTime), byte(lockTime >> 8)})
	addr, _ := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	script, _ := txscript.PayToAddrScript(addr)
	tx.AddTxOut(wire.NewTxOut(int64(lockTime), script))

	return tx
}

func TestBlockOrderingDeterminism(t *testing.T) {
	const n = 1000
	txs := make([]*wire.MsgTx, n)
	for i := 0; i < n; i++ {
		txs[i] = buildTx(uint32(i))
	}

	serial, err := Block(context.Background(), 1, txs, params)
	if err != nil {
		t.Fatalf("Block(parallelism=1): %v", err)
	}
	parallel, err := Block(context.Background(), 8, txs, params)
	if err != nil {
		t.Fatalf("Block(parallelism=8): %v", err)
	}

	if len(serial) != len(parallel) {
		t.Fatalf("length mismatch: serial=%d parallel=%d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].TxID != parallel[i].TxID {
			t.Fatalf("order mismatch at %d: serial=%s parallel=%s", i, serial[i].TxID, parallel[i].TxID)
		}
	}
}

func TestBlockEmpty(t *testing.T) {
	got, err := Block(context.Background(), 4, nil, params)
	if err != nil {
		t.Fatalf("Block(nil): %v", err)
	}
	if got != nil {
		t.Fatalf("Block(nil) = %v, want nil", got)
	}
}

func TestBlockCoinbase(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	var zero chainhash.Hash
	prevOut := wire.NewOutPoint(&zero, math.MaxUint32)
	tx.AddTxIn(wire.NewTxIn(prevOut, nil, nil))

	script, _ := txscript.NullDataScript([]byte("coinbase"))
	tx.AddTxOut(wire.NewTxOut(0, script))

	out, err := Block(context.Background(), 2, []*wire.MsgTx{tx}, params)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if !out[0].IsCoinbase {
		t.Fatalf("IsCoinbase = false, want true")
	}
	if len(out[0].Ins) != 1 {
		t.Fatalf("len(Ins) = %d, want 1 (populated unconditionally)", len(out[0].Ins))
	}
}
