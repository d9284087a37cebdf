package contract

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
)

// P2PKH is the pay-to-public-key-hash template. The locking side commits to
// the Hash160 of a public key; the unlocking side reveals the key and a
// signature made with it.
type P2PKH struct {
	// PubKeyHash is the 20-byte Hash160 the output is locked to.
	PubKeyHash []byte

	// PrivKey signs the spend. Only required to unlock.
	PrivKey *btcec.PrivateKey
}

// NewP2PKH returns a template locked to the given public key's Hash160.
func NewP2PKH(pubKey *btcec.PublicKey) *P2PKH {
	return &P2PKH{PubKeyHash: keys.Hash160(pubKey.SerializeCompressed())}
}

// Lock builds the standard locking script:
// OP_DUP OP_HASH160 <pubKeyHash> OP_EQUALVERIFY OP_CHECKSIG.
func (t *P2PKH) Lock() (script.Script, error) {
	if len(t.PubKeyHash) != 20 {
		return nil, paramErrorf("p2pkh", "PubKeyHash",
			"want 20 bytes, got %d", len(t.PubKeyHash))
	}
	return script.NewBuilder().
		AddOp(script.OP_DUP).
		AddOp(script.OP_HASH160).
		AddData(t.PubKeyHash).
		AddOp(script.OP_EQUALVERIFY).
		AddOp(script.OP_CHECKSIG).
		Script()
}

// Unlock builds the unlocking script: <signature> <pubKey>.
func (t *P2PKH) Unlock(ctx *Context) (script.Script, error) {
	if t.PrivKey == nil {
		return nil, paramErrorf("p2pkh", "PrivKey", "required to unlock")
	}
	digest, err := ctx.Digest()
	if err != nil {
		return nil, err
	}
	sig := keys.SignDigest(t.PrivKey, digest, ctx.Flag())
	return script.NewBuilder().
		AddData(sig).
		AddData(t.PrivKey.PubKey().SerializeCompressed()).
		Script()
}
