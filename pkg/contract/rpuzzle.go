package contract

import (
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
)

// RPuzzle locks an output to knowledge of an ECDSA nonce k rather than a
// private key. The locking script carves the r component out of the DER
// signature and requires it to equal the committed R, so only a signer who
// knows k (whatever key they sign with) can produce a valid spend.
type RPuzzle struct {
	// R is the DER integer encoding of x(k*G) mod n, as produced by
	// keys.NoncePoint.
	R []byte

	// K is the secret nonce. Only required to unlock.
	K *secp.ModNScalar
}

// NewRPuzzle returns a template locked to the given nonce's public R value.
func NewRPuzzle(k *secp.ModNScalar) (*RPuzzle, error) {
	r, err := keys.NoncePoint(k)
	if err != nil {
		return nil, paramErrorf("rpuzzle", "K", "%v", err)
	}
	return &RPuzzle{R: r, K: k}, nil
}

// Lock builds the locking script. The signature sits below the public key on
// the stack; OP_OVER copies it, the splice opcodes strip the DER framing
// (sequence header, integer tag and length) to expose r, and the copy is
// compared against the committed value before the ordinary signature check
// runs:
//
//	OP_OVER OP_3 OP_SPLIT OP_NIP OP_1 OP_SPLIT OP_SWAP OP_SPLIT OP_DROP
//	<r> OP_EQUALVERIFY OP_CHECKSIG
func (t *RPuzzle) Lock() (script.Script, error) {
	if len(t.R) < 32 || len(t.R) > 33 {
		return nil, paramErrorf("rpuzzle", "R",
			"want 32 or 33 bytes, got %d", len(t.R))
	}
	return script.NewBuilder().
		AddOp(script.OP_OVER).
		AddOp(script.OP_3).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_NIP).
		AddOp(script.OP_1).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_SWAP).
		AddOp(script.OP_SPLIT).
		AddOp(script.OP_DROP).
		AddData(t.R).
		AddOp(script.OP_EQUALVERIFY).
		AddOp(script.OP_CHECKSIG).
		Script()
}

// Unlock builds the unlocking script: <signature> <pubKey>. The signature is
// made with the committed nonce under a throwaway key, since authorization
// comes from k alone.
func (t *RPuzzle) Unlock(ctx *Context) (script.Script, error) {
	if t.K == nil {
		return nil, paramErrorf("rpuzzle", "K", "required to unlock")
	}
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	digest, err := ctx.Digest()
	if err != nil {
		return nil, err
	}
	sig, err := keys.SignDigestWithNonce(priv, t.K, digest, ctx.Flag())
	if err != nil {
		return nil, err
	}
	return script.NewBuilder().
		AddData(sig).
		AddData(priv.PubKey().SerializeCompressed()).
		Script()
}
