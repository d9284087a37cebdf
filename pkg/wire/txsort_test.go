package wire

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func hashFromByte(b byte) chainhash.Hash {
	var h chainhash.Hash
	// Internal order is reversed, so the txid comparison looks at the tail.
	h[len(h)-1] = b
	return h
}

func TestSortInputs(t *testing.T) {
	t.Parallel()

	tx := NewMsgTx(TxVersion)
	tx.AddTxIn(NewTxIn(&OutPoint{Hash: hashFromByte(0x02), Index: 0}, nil))
	tx.AddTxIn(NewTxIn(&OutPoint{Hash: hashFromByte(0x01), Index: 5}, nil))
	tx.AddTxIn(NewTxIn(&OutPoint{Hash: hashFromByte(0x01), Index: 2}, nil))

	if IsSorted(tx) {
		t.Fatal("unsorted transaction reported sorted")
	}

	sorted := Sort(tx)
	wantOrder := []OutPoint{
		{Hash: hashFromByte(0x01), Index: 2},
		{Hash: hashFromByte(0x01), Index: 5},
		{Hash: hashFromByte(0x02), Index: 0},
	}
	for i, want := range wantOrder {
		if sorted.TxIn[i].PreviousOutPoint != want {
			t.Errorf("input %d = %v, want %v", i, sorted.TxIn[i].PreviousOutPoint, want)
		}
	}
	if !IsSorted(sorted) {
		t.Error("sorted transaction reported unsorted")
	}

	// Sort works on a copy.
	if tx.TxIn[0].PreviousOutPoint != (OutPoint{Hash: hashFromByte(0x02), Index: 0}) {
		t.Error("original transaction mutated")
	}
}

func TestSortOutputs(t *testing.T) {
	t.Parallel()

	tx := NewMsgTx(TxVersion)
	tx.AddTxOut(NewTxOut(7000, []byte{0x52}))
	tx.AddTxOut(NewTxOut(5000, []byte{0x53}))
	tx.AddTxOut(NewTxOut(5000, []byte{0x51}))

	sorted := Sort(tx)
	wantValues := []int64{5000, 5000, 7000}
	wantScripts := [][]byte{{0x51}, {0x53}, {0x52}}
	for i := range wantValues {
		if sorted.TxOut[i].Value != wantValues[i] {
			t.Errorf("output %d value = %d, want %d", i, sorted.TxOut[i].Value, wantValues[i])
		}
		if !bytes.Equal(sorted.TxOut[i].PkScript, wantScripts[i]) {
			t.Errorf("output %d script = %x, want %x", i, sorted.TxOut[i].PkScript, wantScripts[i])
		}
	}
}

func TestSortAlreadySorted(t *testing.T) {
	t.Parallel()

	tx := NewMsgTx(TxVersion)
	tx.AddTxIn(NewTxIn(&OutPoint{Hash: hashFromByte(0x01), Index: 0}, nil))
	tx.AddTxOut(NewTxOut(1000, []byte{0x51}))

	if !IsSorted(tx) {
		t.Fatal("trivially sorted transaction reported unsorted")
	}
	if !bytes.Equal(Sort(tx).Bytes(), tx.Bytes()) {
		t.Error("sorting changed an already sorted transaction")
	}
}
