package contract

import (
	"encoding/hex"

	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/sighash"
)

// The in-script preimage proofs rely on a fixed key pair chosen so that one
// particular signature shape verifies for every message: with the private
// key set to the modular inverse of the generator's x coordinate, the
// signature (r, s) = (Gx, z+1 mod n) passes ECDSA verification for any
// digest z. A locking script that assembles that signature from a candidate
// preimage and feeds it to OP_CHECKSIG therefore succeeds exactly when the
// candidate hashes to the true signature digest of the spending transaction.
var (
	// checkTxPubKey is the compressed public key for the inverse-Gx
	// private key.
	checkTxPubKey = mustHex(
		"038ff83d8cf12121491609c4939dc11c4aa35503508fe432dc5a5c1905608b9218")

	// checkTxR is the x coordinate of the generator, used as the fixed r
	// component. Its top bit is clear, so the DER integer needs no
	// padding.
	checkTxR = mustHex(
		"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// derHead returns the fixed DER prefix for a signature whose s component is
// sLen bytes: sequence header, the r integer, and the s integer tag and
// length.
func derHead(sLen byte) []byte {
	head := make([]byte, 0, 39)
	head = append(head, 0x30, 2+32+2+sLen, 0x02, 0x20)
	head = append(head, checkTxR...)
	head = append(head, 0x02, sLen)
	return head
}

// Preimage field geometry. The leading fields through the outpoint have
// fixed offsets from the front; the trailing fields from the satoshi amount
// on have fixed offsets from the back. Only the script code in between is
// variable length.
const (
	preimageFrontFixed = 4 + 32 + 32 + 36
	preimageBackFixed  = 8 + 4 + 32 + 4 + 4
)

// PushPreimage builds the unlocking-side push of the full signature preimage
// as a single data blob for the given spending context.
func PushPreimage(ctx *Context) (script.Script, error) {
	p, err := sighash.NewPreimage(ctx.Tx, ctx.InputIdx, ctx.Utxo, ctx.Flag())
	if err != nil {
		return nil, err
	}
	return script.NewBuilder().AddData(p.Bytes()).Script()
}

// frontField builds a fragment replacing the preimage on top of the stack
// with the size-byte field at the given offset from the front.
func frontField(offset, size int64) script.Script {
	b := script.NewBuilder()
	if offset > 0 {
		b.AddInt64(offset).AddOp(script.OP_SPLIT).AddOp(script.OP_NIP)
	}
	s, _ := b.AddInt64(size).AddOp(script.OP_SPLIT).AddOp(script.OP_DROP).Script()
	return s
}

// backField builds a fragment replacing the preimage on top of the stack
// with the size-byte field ending the given distance before the end.
func backField(fromEnd, size int64) script.Script {
	b := script.NewBuilder().
		AddOp(script.OP_SIZE).
		AddInt64(fromEnd).
		AddOp(script.OP_SUB).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_NIP)
	if fromEnd > size {
		b.AddInt64(size).AddOp(script.OP_SPLIT).AddOp(script.OP_DROP)
	}
	s, _ := b.Script()
	return s
}

// GetVersion replaces the preimage on the stack with the 4-byte version.
func GetVersion() script.Script { return frontField(0, 4) }

// GetPrevoutsHash replaces the preimage on the stack with the 32-byte hash
// of the input outpoints.
func GetPrevoutsHash() script.Script { return frontField(4, 32) }

// GetSequenceHash replaces the preimage on the stack with the 32-byte hash
// of the input sequence numbers.
func GetSequenceHash() script.Script { return frontField(36, 32) }

// GetOutpoint replaces the preimage on the stack with the 36-byte outpoint
// of the input being signed.
func GetOutpoint() script.Script { return frontField(68, 36) }

// GetScriptCode replaces the preimage on the stack with the length-prefixed
// locking script of the output being spent.
func GetScriptCode() script.Script {
	s, _ := script.NewBuilder().
		AddInt64(preimageFrontFixed).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_NIP).
		AddOp(script.OP_SIZE).
		AddInt64(preimageBackFixed).
		AddOp(script.OP_SUB).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_DROP).
		Script()
	return s
}

// GetSatoshis replaces the preimage on the stack with the 8-byte
// little-endian amount of the output being spent.
func GetSatoshis() script.Script { return backField(preimageBackFixed, 8) }

// GetSequence replaces the preimage on the stack with the 4-byte sequence
// number of the input being signed.
func GetSequence() script.Script { return backField(4+32+4+4, 4) }

// GetOutputsHash replaces the preimage on the stack with the 32-byte hash of
// the covered outputs.
func GetOutputsHash() script.Script { return backField(32+4+4, 32) }

// GetLockTime replaces the preimage on the stack with the 4-byte locktime.
func GetLockTime() script.Script { return backField(4+4, 4) }

// GetSighashType replaces the preimage on the stack with the 4-byte widened
// sighash flag.
func GetSighashType() script.Script { return backField(4, 4) }

// appendIncrement emits opcodes that replace a width-byte big-endian value
// on top of the stack with that value plus one, same width. The carry chain
// is unrolled: each level splits off the low byte, adds one, and either
// stores the byte back or zeroes it and recurses into the remaining prefix.
// An all-0xff input wraps to zero.
func appendIncrement(b *script.Builder, width int64) {
	if width == 0 {
		return
	}
	b.AddInt64(width - 1).
		AddOp(script.OP_SPLIT).
		AddData([]byte{0x00}).
		AddOp(script.OP_CAT).
		AddOp(script.OP_BIN2NUM).
		AddOp(script.OP_1ADD).
		AddOp(script.OP_DUP).
		AddInt64(256).
		AddOp(script.OP_NUMEQUAL).
		AddOp(script.OP_IF).
		AddOp(script.OP_DROP)
	appendIncrement(b, width-1)
	b.AddData([]byte{0x00}).
		AddOp(script.OP_CAT).
		AddOp(script.OP_ELSE).
		AddOp(script.OP_2).
		AddOp(script.OP_NUM2BIN).
		AddOp(script.OP_1).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_DROP).
		AddOp(script.OP_CAT).
		AddOp(script.OP_ENDIF)
}

// appendCheckTx emits the safe preimage proof: hash the candidate preimage,
// increment the full 32-byte digest with carries, pad the DER s integer when
// its top bit is set, assemble the signature and check it against the fixed
// key. The stack must hold the candidate preimage on top; it is replaced by
// the check result.
//
// One residual failure mode remains: when the incremented digest's leading
// byte is 0x00, the assembled 32-byte s integer carries non-minimal DER
// padding and the signature check rejects it. Roughly 1 in 256 digests hit
// this; such spends re-grind the transaction the same way the trimmed proof
// does, just far more rarely.
func appendCheckTx(b *script.Builder, checkSigOp byte) {
	b.AddOp(script.OP_HASH256)
	appendIncrement(b, 32)

	// Pad with a leading zero byte when the top bit is set, so the DER
	// integer stays positive.
	b.AddOp(script.OP_DUP).
		AddOp(script.OP_1).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_DROP).
		AddData([]byte{0x00}).
		AddOp(script.OP_CAT).
		AddOp(script.OP_BIN2NUM).
		AddInt64(128).
		AddOp(script.OP_GREATERTHANOREQUAL).
		AddOp(script.OP_IF).
		AddData([]byte{0x00}).
		AddOp(script.OP_SWAP).
		AddOp(script.OP_CAT).
		AddOp(script.OP_ENDIF)

	// Select the DER head matching the s length and assemble.
	b.AddOp(script.OP_SIZE).
		AddInt64(33).
		AddOp(script.OP_NUMEQUAL).
		AddOp(script.OP_IF).
		AddData(derHead(33)).
		AddOp(script.OP_ELSE).
		AddData(derHead(32)).
		AddOp(script.OP_ENDIF).
		AddOp(script.OP_SWAP).
		AddOp(script.OP_CAT).
		AddData([]byte{byte(sighash.Default)}).
		AddOp(script.OP_CAT).
		AddData(checkTxPubKey).
		AddOp(checkSigOp)
}

// appendCheckTxOpt emits the trimmed preimage proof. It increments only the
// low digest byte and assembles a fixed-width DER signature assuming the
// digest's top bit is clear, which holds for roughly half of all digests; a
// low byte of 0xff likewise defeats the missing carry. Spends are expected
// to re-grind the transaction (tweak the locktime) until the digest
// cooperates. A padded or trailing-garbage preimage changes the digest and
// is rejected outright.
func appendCheckTxOpt(b *script.Builder, checkSigOp byte) {
	b.AddOp(script.OP_HASH256).
		AddInt64(31).
		AddOp(script.OP_SPLIT).
		AddData([]byte{0x00}).
		AddOp(script.OP_CAT).
		AddOp(script.OP_BIN2NUM).
		AddOp(script.OP_1ADD).
		AddOp(script.OP_2).
		AddOp(script.OP_NUM2BIN).
		AddOp(script.OP_1).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_DROP).
		AddOp(script.OP_CAT).
		AddData(derHead(32)).
		AddOp(script.OP_SWAP).
		AddOp(script.OP_CAT).
		AddData([]byte{byte(sighash.Default)}).
		AddOp(script.OP_CAT).
		AddData(checkTxPubKey).
		AddOp(checkSigOp)
}

// CheckTx builds the safe preimage proof fragment. It consumes the candidate
// preimage on top of the stack and pushes whether it is the genuine preimage
// of the spending transaction. See appendCheckTx for the rare digest shape
// that requires re-grinding the transaction.
func CheckTx() script.Script {
	b := script.NewBuilder()
	appendCheckTx(b, script.OP_CHECKSIG)
	s, _ := b.Script()
	return s
}

// CheckTxVerify is CheckTx with OP_CHECKSIGVERIFY, failing evaluation
// outright on a bogus preimage instead of pushing false.
func CheckTxVerify() script.Script {
	b := script.NewBuilder()
	appendCheckTx(b, script.OP_CHECKSIGVERIFY)
	s, _ := b.Script()
	return s
}

// CheckTxOpt builds the trimmed preimage proof fragment. See
// appendCheckTxOpt for the probabilistic trade-off it carries.
func CheckTxOpt() script.Script {
	b := script.NewBuilder()
	appendCheckTxOpt(b, script.OP_CHECKSIG)
	s, _ := b.Script()
	return s
}

// CheckTxOptVerify is CheckTxOpt with OP_CHECKSIGVERIFY.
func CheckTxOptVerify() script.Script {
	b := script.NewBuilder()
	appendCheckTxOpt(b, script.OP_CHECKSIGVERIFY)
	s, _ := b.Script()
	return s
}

// PushTxProof is a template whose locking script is one of the preimage
// proofs and whose unlocking script pushes the preimage of the spending
// transaction. It exists mainly to exercise the proofs end to end.
type PushTxProof struct {
	// Optimized selects the trimmed proof with its probabilistic failure
	// modes.
	Optimized bool

	// Padding is appended to the pushed preimage blob. Any padding breaks
	// the proof; the field exists so tests can demonstrate that.
	Padding []byte
}

// Lock builds the proof locking script.
func (t *PushTxProof) Lock() (script.Script, error) {
	if t.Optimized {
		return CheckTxOpt(), nil
	}
	return CheckTx(), nil
}

// Unlock builds the unlocking script: the preimage blob, plus any padding.
func (t *PushTxProof) Unlock(ctx *Context) (script.Script, error) {
	p, err := sighash.NewPreimage(ctx.Tx, ctx.InputIdx, ctx.Utxo, ctx.Flag())
	if err != nil {
		return nil, err
	}
	blob := p.Bytes()
	if len(t.Padding) > 0 {
		blob = append(blob, t.Padding...)
	}
	return script.NewBuilder().AddData(blob).Script()
}
