package contract

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
)

// P2PK is the pay-to-public-key template. The locking side embeds the public
// key directly; the unlocking side is a bare signature.
type P2PK struct {
	// PubKey is the serialized public key the output pays to.
	PubKey []byte

	// PrivKey signs the spend. Only required to unlock.
	PrivKey *btcec.PrivateKey
}

// NewP2PK returns a template paying to the given public key.
func NewP2PK(pubKey *btcec.PublicKey) *P2PK {
	return &P2PK{PubKey: pubKey.SerializeCompressed()}
}

// Lock builds the locking script: <pubKey> OP_CHECKSIG.
func (t *P2PK) Lock() (script.Script, error) {
	if _, err := btcec.ParsePubKey(t.PubKey); err != nil {
		return nil, paramErrorf("p2pk", "PubKey", "%v", err)
	}
	return script.NewBuilder().
		AddData(t.PubKey).
		AddOp(script.OP_CHECKSIG).
		Script()
}

// Unlock builds the unlocking script: <signature>.
func (t *P2PK) Unlock(ctx *Context) (script.Script, error) {
	if t.PrivKey == nil {
		return nil, paramErrorf("p2pk", "PrivKey", "required to unlock")
	}
	digest, err := ctx.Digest()
	if err != nil {
		return nil, err
	}
	return script.NewBuilder().
		AddData(keys.SignDigest(t.PrivKey, digest, ctx.Flag())).
		Script()
}
