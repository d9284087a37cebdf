// Package sighash computes the canonical byte sequence ("preimage") that is
// double-SHA256 hashed and signed to authorize spending a transaction input.
//
// The replay-protected FORKID variant is the default everywhere this library
// signs; the original pre-fork algorithm is kept for verifying historical
// scripts. The FORKID preimage is built field by field and kept addressable
// as a struct, because the contract layer re-derives individual fields
// inside scripts for transaction introspection.
package sighash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/wire"
)

// Flag is the sighash flag byte appended to signatures. The low bits select
// the output scope, the high bits modify input/replay coverage.
type Flag byte

const (
	// All commits to every output.
	All Flag = 0x01

	// None commits to no outputs.
	None Flag = 0x02

	// Single commits to the single output paired with the signed input.
	Single Flag = 0x03

	// ForkID selects the replay-protected preimage algorithm.
	ForkID Flag = 0x40

	// AnyOneCanPay restricts input coverage to the signed input alone.
	AnyOneCanPay Flag = 0x80
)

// Default is the flag combination used by this library when the caller does
// not request otherwise.
const Default = All | ForkID

// Base strips the modifier bits, leaving the output scope.
func (f Flag) Base() Flag { return f & 0x1f }

// HasForkID reports whether the replay-protection bit is set.
func (f Flag) HasForkID() bool { return f&ForkID == ForkID }

// HasAnyOneCanPay reports whether input coverage is restricted to the signed
// input.
func (f Flag) HasAnyOneCanPay() bool { return f&AnyOneCanPay == AnyOneCanPay }

// ErrInputIndex is returned when the input index does not name an input of
// the transaction.
var ErrInputIndex = errors.New("sighash: input index out of range")

// Preimage is the FORKID signature preimage with every field independently
// addressable. Bytes assembles the exact sequence that gets double-SHA256
// hashed and signed.
type Preimage struct {
	Version      int32
	PrevoutsHash chainhash.Hash
	SequenceHash chainhash.Hash
	Outpoint     wire.OutPoint
	ScriptCode   []byte
	Satoshis     int64
	Sequence     uint32
	OutputsHash  chainhash.Hash
	LockTime     uint32
	Flag         Flag
}

// NewPreimage builds the FORKID preimage for spending utxo with input idx of
// tx. The utxo supplies the previous locking script and amount, which are not
// part of the spending transaction's own bytes.
func NewPreimage(tx *wire.MsgTx, idx int, utxo *wire.UTXO, flag Flag) (*Preimage, error) {
	if idx < 0 || idx >= len(tx.TxIn) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInputIndex, idx, len(tx.TxIn))
	}

	p := &Preimage{
		Version:    tx.Version,
		Outpoint:   tx.TxIn[idx].PreviousOutPoint,
		ScriptCode: utxo.PkScript(),
		Satoshis:   utxo.Value(),
		Sequence:   tx.TxIn[idx].Sequence,
		LockTime:   tx.LockTime,
		Flag:       flag,
	}

	if !flag.HasAnyOneCanPay() {
		p.PrevoutsHash = hashPrevouts(tx)
	}
	if !flag.HasAnyOneCanPay() && flag.Base() != Single && flag.Base() != None {
		p.SequenceHash = hashSequence(tx)
	}
	switch {
	case flag.Base() == Single && idx < len(tx.TxOut):
		p.OutputsHash = hashOutput(tx.TxOut[idx])
	case flag.Base() != Single && flag.Base() != None:
		p.OutputsHash = hashOutputs(tx.TxOut)
	}

	return p, nil
}

// Bytes assembles the preimage: version, prevouts hash, sequence hash, this
// input's outpoint, the previous locking script as a length-prefixed blob,
// the previous amount, this input's sequence, the outputs hash, locktime and
// the flag widened to a little-endian uint32.
func (p *Preimage) Bytes() []byte {
	var buf bytes.Buffer
	var scratch [8]byte

	binary.LittleEndian.PutUint32(scratch[:4], uint32(p.Version))
	buf.Write(scratch[:4])
	buf.Write(p.PrevoutsHash[:])
	buf.Write(p.SequenceHash[:])
	buf.Write(p.Outpoint.Hash[:])
	binary.LittleEndian.PutUint32(scratch[:4], p.Outpoint.Index)
	buf.Write(scratch[:4])
	_ = wire.WriteVarBytes(&buf, p.ScriptCode)
	binary.LittleEndian.PutUint64(scratch[:8], uint64(p.Satoshis))
	buf.Write(scratch[:8])
	binary.LittleEndian.PutUint32(scratch[:4], p.Sequence)
	buf.Write(scratch[:4])
	buf.Write(p.OutputsHash[:])
	binary.LittleEndian.PutUint32(scratch[:4], p.LockTime)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint32(scratch[:4], uint32(p.Flag))
	buf.Write(scratch[:4])

	return buf.Bytes()
}

// Digest computes the 32-byte double-SHA256 digest that is signed and
// verified for input idx under flag, selecting the FORKID or legacy
// algorithm from the flag.
func Digest(tx *wire.MsgTx, idx int, utxo *wire.UTXO, flag Flag) ([]byte, error) {
	if flag.HasForkID() {
		p, err := NewPreimage(tx, idx, utxo, flag)
		if err != nil {
			return nil, err
		}
		return chainhash.DoubleHashB(p.Bytes()), nil
	}
	return legacyDigest(tx, idx, utxo, flag)
}

// legacyDigest implements the original signature hash: blank every input
// script, splice the previous locking script into the signed input, apply
// the scope rules, then hash the serialized result with the widened flag
// appended.
func legacyDigest(tx *wire.MsgTx, idx int, utxo *wire.UTXO, flag Flag) ([]byte, error) {
	if idx < 0 || idx >= len(tx.TxIn) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInputIndex, idx, len(tx.TxIn))
	}

	// The historical quirk: SIGHASH_SINGLE with no matching output signs
	// the digest 1 rather than failing.
	if flag.Base() == Single && idx >= len(tx.TxOut) {
		var one chainhash.Hash
		one[0] = 0x01
		return one[:], nil
	}

	txCopy := tx.Copy()
	subScript := stripCodeSeparators(utxo.PkScript())
	for i, ti := range txCopy.TxIn {
		if i == idx {
			ti.SignatureScript = subScript
		} else {
			ti.SignatureScript = nil
		}
	}

	switch flag.Base() {
	case None:
		txCopy.TxOut = nil
		for i, ti := range txCopy.TxIn {
			if i != idx {
				ti.Sequence = 0
			}
		}

	case Single:
		txCopy.TxOut = txCopy.TxOut[:idx+1]
		for i := 0; i < idx; i++ {
			txCopy.TxOut[i].Value = -1
			txCopy.TxOut[i].PkScript = nil
		}
		for i, ti := range txCopy.TxIn {
			if i != idx {
				ti.Sequence = 0
			}
		}
	}

	if flag.HasAnyOneCanPay() {
		txCopy.TxIn = txCopy.TxIn[idx : idx+1]
	}

	var buf bytes.Buffer
	_ = txCopy.Serialize(&buf)
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(flag))
	buf.Write(scratch[:])

	return chainhash.DoubleHashB(buf.Bytes()), nil
}

// stripCodeSeparators removes OP_CODESEPARATOR chunks from a locking script
// before it is spliced into the legacy digest. A script that fails to parse
// is used as-is; the digest still commits to its exact bytes.
func stripCodeSeparators(pkScript []byte) []byte {
	parsed, err := script.Parse(pkScript)
	if err != nil {
		return pkScript
	}
	out := make(script.Script, 0, len(parsed))
	for _, c := range parsed {
		if !c.IsPush() && c.Op == script.OP_CODESEPARATOR {
			continue
		}
		out = append(out, c)
	}
	return out.Bytes()
}

func hashPrevouts(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	var scratch [4]byte
	for _, ti := range tx.TxIn {
		buf.Write(ti.PreviousOutPoint.Hash[:])
		binary.LittleEndian.PutUint32(scratch[:], ti.PreviousOutPoint.Index)
		buf.Write(scratch[:])
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

func hashSequence(tx *wire.MsgTx) chainhash.Hash {
	var buf bytes.Buffer
	var scratch [4]byte
	for _, ti := range tx.TxIn {
		binary.LittleEndian.PutUint32(scratch[:], ti.Sequence)
		buf.Write(scratch[:])
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

func hashOutput(to *wire.TxOut) chainhash.Hash {
	var buf bytes.Buffer
	writeOutput(&buf, to)
	return chainhash.DoubleHashH(buf.Bytes())
}

func hashOutputs(outs []*wire.TxOut) chainhash.Hash {
	var buf bytes.Buffer
	for _, to := range outs {
		writeOutput(&buf, to)
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

func writeOutput(buf *bytes.Buffer, to *wire.TxOut) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(to.Value))
	buf.Write(scratch[:])
	_ = wire.WriteVarBytes(buf, to.PkScript)
}
