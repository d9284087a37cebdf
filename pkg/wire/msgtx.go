package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// TxVersion is the current default transaction version.
	TxVersion = 1

	// MaxTxInSequenceNum is the maximum sequence number a transaction
	// input can carry.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// SequenceLockTimeDisabled is a flag that if set on a transaction
	// input's sequence number, the sequence number will not be interpreted
	// as a relative locktime.
	SequenceLockTimeDisabled uint32 = 1 << 31

	// SequenceLockTimeIsSeconds is a flag that if set on a transaction
	// input's sequence number, the relative locktime has units of 512
	// seconds.
	SequenceLockTimeIsSeconds uint32 = 1 << 22

	// SequenceLockTimeMask is a mask that extracts the relative locktime
	// when masked against the transaction input sequence number.
	SequenceLockTimeMask uint32 = 0x0000ffff

	// minTxInPayload is the smallest serialized size of a transaction
	// input: outpoint hash, outpoint index, one byte for the script
	// length, and the sequence number.
	minTxInPayload = chainhash.HashSize + 4 + 1 + 4

	// minTxOutPayload is the smallest serialized size of a transaction
	// output: the satoshi value plus one byte for the script length.
	minTxOutPayload = 8 + 1
)

// OutPoint defines a previous transaction output by hash and index. The hash
// is kept in internal byte order.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new outpoint with the provided hash and index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// String renders the outpoint as "txid:index" with the hash in the
// human-readable reversed hex order.
func (o OutPoint) String() string {
	return fmt.Sprintf("%v:%d", o.Hash, o.Index)
}

// TxIn defines a transaction input.
//
// PrevOutput optionally carries the output this input spends. It is never
// serialized; it exists so the signature hash engine and the VM can reach the
// previous locking script and amount, which are not part of the spending
// transaction's bytes.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32

	PrevOutput *TxOut
}

// NewTxIn returns a new transaction input with the provided outpoint and
// unlocking script, defaulting to the maximum sequence number.
func NewTxIn(prevOut *OutPoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// SerializeSize returns the number of bytes the input serializes to.
func (t *TxIn) SerializeSize() int {
	return chainhash.HashSize + 4 + 4 +
		VarIntSerializeSize(uint64(len(t.SignatureScript))) +
		len(t.SignatureScript)
}

// TxOut defines a transaction output. The value is kept signed to match the
// wire format; a negative value is invalid but still representable.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// NewTxOut returns a new transaction output with the provided value and
// locking script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

// SerializeSize returns the number of bytes the output serializes to.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

// MsgTx implements a bitcoin transaction: version, inputs, outputs and
// locktime.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns an empty transaction with the provided version.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{Version: version}
}

// AddTxIn appends a transaction input.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut appends a transaction output.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// TxHash computes the double-SHA256 hash of the serialized transaction, in
// internal byte order.
func (msg *MsgTx) TxHash() chainhash.Hash {
	return chainhash.DoubleHashH(msg.Bytes())
}

// TxID returns the hex encoded transaction id: the byte-reversed TxHash.
func (msg *MsgTx) TxID() string {
	hash := msg.TxHash()
	return hash.String()
}

// IsCoinbase reports whether the transaction has the coinbase shape: a single
// input whose previous outpoint is the all-zero hash with the maximum index.
func (msg *MsgTx) IsCoinbase() bool {
	if len(msg.TxIn) != 1 {
		return false
	}
	prevOut := &msg.TxIn[0].PreviousOutPoint
	return prevOut.Index == math.MaxUint32 && prevOut.Hash == chainhash.Hash{}
}

// Copy returns a deep copy of the transaction. Signing helpers operate on
// copies so callers can treat built transactions as immutable values.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := MsgTx{
		Version:  msg.Version,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for _, oldTxIn := range msg.TxIn {
		newTxIn := TxIn{
			PreviousOutPoint: oldTxIn.PreviousOutPoint,
			SignatureScript:  append([]byte(nil), oldTxIn.SignatureScript...),
			Sequence:         oldTxIn.Sequence,
		}
		if oldTxIn.PrevOutput != nil {
			prev := TxOut{
				Value:    oldTxIn.PrevOutput.Value,
				PkScript: append([]byte(nil), oldTxIn.PrevOutput.PkScript...),
			}
			newTxIn.PrevOutput = &prev
		}
		newTx.TxIn = append(newTx.TxIn, &newTxIn)
	}

	for _, oldTxOut := range msg.TxOut {
		newTxOut := TxOut{
			Value:    oldTxOut.Value,
			PkScript: append([]byte(nil), oldTxOut.PkScript...),
		}
		newTx.TxOut = append(newTx.TxOut, &newTxOut)
	}

	return &newTx
}

// Deserialize decodes a transaction from r. On success the reader is left
// positioned at the first byte past the transaction, so trailing data can be
// consumed by the caller.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return truncated(err)
	}
	msg.Version = int32(binary.LittleEndian.Uint32(buf[:4]))

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxInPerMessage() {
		return fmt.Errorf("wire: %d inputs exceeds sanity limit", count)
	}
	msg.TxIn = make([]*TxIn, 0, count)
	for i := uint64(0); i < count; i++ {
		ti := TxIn{}
		if _, err := io.ReadFull(r, ti.PreviousOutPoint.Hash[:]); err != nil {
			return truncated(err)
		}
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return truncated(err)
		}
		ti.PreviousOutPoint.Index = binary.LittleEndian.Uint32(buf[:4])
		if ti.SignatureScript, err = ReadVarBytes(r); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return truncated(err)
		}
		ti.Sequence = binary.LittleEndian.Uint32(buf[:4])
		msg.TxIn = append(msg.TxIn, &ti)
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxOutPerMessage() {
		return fmt.Errorf("wire: %d outputs exceeds sanity limit", count)
	}
	msg.TxOut = make([]*TxOut, 0, count)
	for i := uint64(0); i < count; i++ {
		to := TxOut{}
		if _, err := io.ReadFull(r, buf[:8]); err != nil {
			return truncated(err)
		}
		to.Value = int64(binary.LittleEndian.Uint64(buf[:8]))
		if to.PkScript, err = ReadVarBytes(r); err != nil {
			return err
		}
		msg.TxOut = append(msg.TxOut, &to)
	}

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return truncated(err)
	}
	msg.LockTime = binary.LittleEndian.Uint32(buf[:4])

	return nil
}

// Serialize encodes the transaction to w in the wire format.
func (msg *MsgTx) Serialize(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(msg.Version))
	if _, err := w.Write(buf[:4]); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if _, err := w.Write(ti.PreviousOutPoint.Hash[:]); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[:4], ti.PreviousOutPoint.Index)
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[:4], ti.Sequence)
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		binary.LittleEndian.PutUint64(buf[:8], uint64(to.Value))
		if _, err := w.Write(buf[:8]); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint32(buf[:4], msg.LockTime)
	_, err := w.Write(buf[:4])
	return err
}

// SerializeSize returns the number of bytes Serialize emits.
func (msg *MsgTx) SerializeSize() int {
	// Version 4 bytes + LockTime 4 bytes + both varint counts.
	n := 8 + VarIntSerializeSize(uint64(len(msg.TxIn))) +
		VarIntSerializeSize(uint64(len(msg.TxOut)))

	for _, ti := range msg.TxIn {
		n += ti.SerializeSize()
	}
	for _, to := range msg.TxOut {
		n += to.SerializeSize()
	}
	return n
}

// Bytes returns the serialized transaction.
func (msg *MsgTx) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	// Writing to a bytes.Buffer cannot fail.
	_ = msg.Serialize(buf)
	return buf.Bytes()
}

// NewTxFromBytes decodes a transaction from b and returns it along with any
// unconsumed trailing bytes.
func NewTxFromBytes(b []byte) (*MsgTx, []byte, error) {
	r := bytes.NewReader(b)
	var msg MsgTx
	if err := msg.Deserialize(r); err != nil {
		return nil, nil, err
	}
	return &msg, b[len(b)-r.Len():], nil
}

// The per-element minimums bound how many inputs/outputs a prefix can
// plausibly declare for a message that fits in MaxVarIntPayload.
func maxTxInPerMessage() uint64  { return MaxVarIntPayload / minTxInPayload }
func maxTxOutPerMessage() uint64 { return MaxVarIntPayload / minTxOutPayload }
