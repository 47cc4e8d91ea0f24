// Package model holds the core entities of the address index: the
// per-transaction summary the decoder produces, and the two on-disk
// record shapes (Utxo, AddressFlow) the storage engine reads and writes.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Flow tags the direction of an ADDRESS entry: O for an output (credit),
// I for an input (debit).
type Flow byte

const (
	FlowInput  Flow = 'I'
	FlowOutput Flow = 'O'
)

func (f Flow) String() string {
	return string(rune(f))
}

// ParseFlow parses the single-character flow tag used in ADDRESS keys.
func ParseFlow(s string) (Flow, error) {
	switch s {
	case "I":
		return FlowInput, nil
	case "O":
		return FlowOutput, nil
	default:
		return 0, &ParseError{Kind: "flow", Input: s}
	}
}

// ParseError is returned when a persisted key or value doesn't round-trip
// through its textual encoding. It replaces the original Rust
// implementation's UtxoParseError enum with a single tagged struct.
type ParseError struct {
	Kind  string // "flow", "out_point", "utxo", "address_flow"
	Input string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model: invalid %s %q: %v", e.Kind, e.Input, e.Cause)
	}
	return fmt.Sprintf("model: invalid %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// OutPoint references a specific output of a past transaction.
type OutPoint struct {
	TxID  string
	Index uint32
}

// String encodes the OutPoint the way CACHE keys are formatted: "txid|index".
func (o OutPoint) String() string {
	return o.TxID + "|" + strconv.FormatUint(uint64(o.Index), 10)
}

// ParseOutPoint parses the "txid|index" form produced by String.
func ParseOutPoint(s string) (OutPoint, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return OutPoint{}, &ParseError{Kind: "out_point", Input: s}
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return OutPoint{}, &ParseError{Kind: "out_point", Input: s, Cause: err}
	}
	return OutPoint{TxID: parts[0], Index: uint32(index)}, nil
}

// Utxo is a spendable output materialised in the CACHE namespace.
type Utxo struct {
	Index   uint32
	Address string
	Value   uint64
}

// String encodes the Utxo the way CACHE values are formatted:
// "index|address|value".
func (u Utxo) String() string {
	return fmt.Sprintf("%d|%s|%d", u.Index, u.Address, u.Value)
}

// ParseUtxo parses the "index|address|value" form produced by String.
func ParseUtxo(s string) (Utxo, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) != 3 {
		return Utxo{}, &ParseError{Kind: "utxo", Input: s}
	}
	index, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Utxo{}, &ParseError{Kind: "utxo", Input: s, Cause: err}
	}
	value, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Utxo{}, &ParseError{Kind: "utxo", Input: s, Cause: err}
	}
	return Utxo{Index: uint32(index), Address: parts[1], Value: value}, nil
}

// AddressFlow is the composite key of an ADDRESS entry.
type AddressFlow struct {
	Address   string
	Flow      Flow
	TxID      string
	UtxoIndex uint32
}

// String encodes the AddressFlow the way ADDRESS keys are formatted:
// "address|I|txid|index" or "address|O|txid|index".
func (a AddressFlow) String() string {
	return fmt.Sprintf("%s|%s|%s|%d", a.Address, a.Flow, a.TxID, a.UtxoIndex)
}

// ParseAddressFlow parses the "address|flow|txid|index" form produced by String.
func ParseAddressFlow(s string) (AddressFlow, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return AddressFlow{}, &ParseError{Kind: "address_flow", Input: s}
	}
	flow, err := ParseFlow(parts[1])
	if err != nil {
		return AddressFlow{}, &ParseError{Kind: "address_flow", Input: s, Cause: err}
	}
	index, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return AddressFlow{}, &ParseError{Kind: "address_flow", Input: s, Cause: err}
	}
	return AddressFlow{
		Address:   parts[0],
		Flow:      flow,
		TxID:      parts[2],
		UtxoIndex: uint32(index),
	}, nil
}

// SumTx is the per-transaction summary the decoder emits: everything the
// storage engine needs to resolve inputs and materialise outputs for one
// transaction, without holding onto the raw wire transaction.
type SumTx struct {
	TxID       string
	IsCoinbase bool
	Ins        []OutPoint
	Outs       []Utxo
}
