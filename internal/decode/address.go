package decode

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// opReturnAddress is the synthetic address string used for provably
// unspendable OP_RETURN outputs.
const opReturnAddress = "OP_RETURN"

// deriveAddress turns an output's locking script into a stable address
// string under the four-rule cascade: standard address, bare P2PK (folded
// to its P2PKH equivalent), OP_RETURN, or a synthetic hash fallback. The
// fallback makes the function total: every script, however exotic, yields
// a non-empty string.
func deriveAddress(pkScript []byte, params *chaincfg.Params) string {
	class, addrs, _, _ := txscript.ExtractPkScriptAddrs(pkScript, params)

	if isSingleAddressClass(class) && len(addrs) == 1 {
		return addrs[0].EncodeAddress()
	}

	if class == txscript.PubKeyTy && len(addrs) == 1 {
		if pk, ok := addrs[0].(*btcutil.AddressPubKey); ok {
			return pk.AddressPubKeyHash().EncodeAddress()
		}
	}

	if class == txscript.NullDataTy {
		return opReturnAddress
	}

	asm, _ := txscript.DisasmString(pkScript)
	sum := sha256.Sum256([]byte(asm))
	return hex.EncodeToString(sum[:])
}

// isSingleAddressClass reports whether class resolves to exactly one
// canonical address under the script interpreter (the standard set of
// recognised output types).
func isSingleAddressClass(class txscript.ScriptClass) bool {
	switch class {
	case txscript.PubKeyHashTy,
		txscript.ScriptHashTy,
		txscript.WitnessV0PubKeyHashTy,
		txscript.WitnessV0ScriptHashTy,
		txscript.WitnessV1TaprootTy:
		return true
	default:
		return false
	}
}
