package wire

import (
	"bytes"
	"sort"
)

// Sort returns a copy of the transaction with its inputs and outputs in the
// BIP-69 canonical order: inputs ascending by reversed outpoint hash then
// index, outputs ascending by value then locking script bytes. Sorting before
// signing yields deterministic transactions regardless of construction order.
func Sort(tx *MsgTx) *MsgTx {
	txCopy := tx.Copy()
	sort.Sort(sortableInputs(txCopy.TxIn))
	sort.Sort(sortableOutputs(txCopy.TxOut))
	return txCopy
}

// IsSorted reports whether the transaction already satisfies the BIP-69
// canonical ordering.
func IsSorted(tx *MsgTx) bool {
	return sort.IsSorted(sortableInputs(tx.TxIn)) &&
		sort.IsSorted(sortableOutputs(tx.TxOut))
}

type sortableInputs []*TxIn

func (s sortableInputs) Len() int      { return len(s) }
func (s sortableInputs) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortableInputs) Less(i, j int) bool {
	// BIP-69 compares txids, which are the byte-reversed internal hashes.
	ihash := s[i].PreviousOutPoint.Hash
	jhash := s[j].PreviousOutPoint.Hash
	for k, l := 0, len(ihash)-1; k < l; k, l = k+1, l-1 {
		ihash[k], ihash[l] = ihash[l], ihash[k]
		jhash[k], jhash[l] = jhash[l], jhash[k]
	}
	switch c := bytes.Compare(ihash[:], jhash[:]); {
	case c < 0:
		return true
	case c > 0:
		return false
	}
	return s[i].PreviousOutPoint.Index < s[j].PreviousOutPoint.Index
}

type sortableOutputs []*TxOut

func (s sortableOutputs) Len() int      { return len(s) }
func (s sortableOutputs) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortableOutputs) Less(i, j int) bool {
	if s[i].Value != s[j].Value {
		return s[i].Value < s[j].Value
	}
	return bytes.Compare(s[i].PkScript, s[j].PkScript) < 0
}
