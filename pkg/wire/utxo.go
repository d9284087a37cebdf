package wire

// UTXO pairs an outpoint with the output it references. The referenced output
// is not part of the spending transaction's serialized bytes, so it has to be
// supplied alongside the transaction wherever a signature hash is computed or
// a script is evaluated.
type UTXO struct {
	OutPoint OutPoint
	Output   *TxOut
}

// NewUTXO returns a UTXO for the given outpoint, satoshi amount and locking
// script.
func NewUTXO(outPoint OutPoint, value int64, pkScript []byte) *UTXO {
	return &UTXO{
		OutPoint: outPoint,
		Output:   NewTxOut(value, pkScript),
	}
}

// Value returns the satoshi amount of the referenced output.
func (u *UTXO) Value() int64 {
	return u.Output.Value
}

// PkScript returns the locking script of the referenced output.
func (u *UTXO) PkScript() []byte {
	return u.Output.PkScript
}
