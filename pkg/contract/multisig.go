package contract

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
)

// Multisig is the n-of-m threshold template: the output is spendable by any
// Required signatures matching distinct keys of PubKeys, supplied in the same
// relative order as the keys.
type Multisig struct {
	// Required is the signature threshold n.
	Required int

	// PubKeys are the serialized candidate public keys, at most 16 so the
	// counts encode as single opcodes.
	PubKeys [][]byte

	// PrivKeys sign the spend, exactly Required of them, ordered to match
	// their public keys. Only required to unlock.
	PrivKeys []*btcec.PrivateKey
}

// NewMultisig returns an n-of-m template over the given keys.
func NewMultisig(required int, pubKeys ...*btcec.PublicKey) *Multisig {
	t := &Multisig{Required: required}
	for _, pk := range pubKeys {
		t.PubKeys = append(t.PubKeys, pk.SerializeCompressed())
	}
	return t
}

func (t *Multisig) validate() error {
	if len(t.PubKeys) == 0 || len(t.PubKeys) > 16 {
		return paramErrorf("multisig", "PubKeys",
			"want 1 to 16 keys, got %d", len(t.PubKeys))
	}
	if t.Required < 1 || t.Required > len(t.PubKeys) {
		return paramErrorf("multisig", "Required",
			"threshold %d out of range for %d keys",
			t.Required, len(t.PubKeys))
	}
	for i, pk := range t.PubKeys {
		if _, err := btcec.ParsePubKey(pk); err != nil {
			return paramErrorf("multisig", "PubKeys",
				"key %d: %v", i, err)
		}
	}
	return nil
}

// Lock builds the locking script:
// OP_<n> <pubKey>... OP_<m> OP_CHECKMULTISIG.
func (t *Multisig) Lock() (script.Script, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	b := script.NewBuilder().AddInt64(int64(t.Required))
	for _, pk := range t.PubKeys {
		b.AddData(pk)
	}
	return b.
		AddInt64(int64(len(t.PubKeys))).
		AddOp(script.OP_CHECKMULTISIG).
		Script()
}

// Unlock builds the unlocking script: OP_0 <signature>... The leading OP_0
// feeds the extra pop OP_CHECKMULTISIG performs beyond its declared
// operands.
func (t *Multisig) Unlock(ctx *Context) (script.Script, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if len(t.PrivKeys) != t.Required {
		return nil, paramErrorf("multisig", "PrivKeys",
			"want %d signing keys, got %d", t.Required, len(t.PrivKeys))
	}
	digest, err := ctx.Digest()
	if err != nil {
		return nil, err
	}

	b := script.NewBuilder().AddOp(script.OP_0)
	for _, priv := range t.PrivKeys {
		b.AddData(keys.SignDigest(priv, digest, ctx.Flag()))
	}
	return b.Script()
}
