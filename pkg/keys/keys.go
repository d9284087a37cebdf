// Package keys is the boundary to the external cryptographic collaborators:
// secp256k1 ECDSA via btcec, and the hash primitives used by script
// templates. Everything else in the library treats these operations as
// opaque primitives.
package keys

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bitfold/bsv/pkg/sighash"
)

// ErrBadNonce is returned when an R-puzzle nonce is zero or produces a
// degenerate signature component.
var ErrBadNonce = errors.New("keys: unusable signing nonce")

// NewPrivateKey generates a private key from the environment's CSPRNG.
func NewPrivateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// PrivKeyFromBytes deserializes a 32-byte private key. Useful for
// deterministic fixtures.
func PrivKeyFromBytes(b []byte) (*btcec.PrivateKey, *btcec.PublicKey) {
	return btcec.PrivKeyFromBytes(b)
}

// Hash160 computes RIPEMD160(SHA256(b)), the digest locked to by
// pay-to-public-key-hash outputs.
func Hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}

// SignDigest signs a 32-byte digest and returns the DER signature with the
// sighash flag appended, the form scripts carry.
func SignDigest(priv *btcec.PrivateKey, digest []byte, flag sighash.Flag) []byte {
	sig := ecdsa.Sign(priv, digest)
	return append(sig.Serialize(), byte(flag))
}

// VerifyDigest checks a DER signature (without the trailing sighash flag)
// over a 32-byte digest. A malformed encoding verifies as false rather than
// erroring; the caller cannot distinguish the two and does not need to.
func VerifyDigest(pub *btcec.PublicKey, digest, derSig []byte) bool {
	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	return sig.Verify(digest, pub)
}

// SplitSig separates a script signature into its DER body and trailing
// sighash flag byte.
func SplitSig(sigBytes []byte) (der []byte, flag sighash.Flag, err error) {
	if len(sigBytes) < 1 {
		return nil, 0, errors.New("keys: empty signature")
	}
	return sigBytes[:len(sigBytes)-1], sighash.Flag(sigBytes[len(sigBytes)-1]), nil
}

// NewNonce draws a random scalar suitable as an ECDSA signing nonce from the
// environment's CSPRNG. This is the library's only source of randomness
// outside key generation.
func NewNonce() (*secp.ModNScalar, error) {
	var buf [32]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("keys: reading nonce entropy: %w", err)
		}
		var k secp.ModNScalar
		if overflow := k.SetBytes(&buf); overflow == 0 && !k.IsZero() {
			return &k, nil
		}
	}
}

// NoncePoint returns the DER integer encoding of the r value determined by a
// nonce: the x coordinate of k*G reduced mod the curve order, with a leading
// zero byte when its top bit is set. This is the exact byte form an R-puzzle
// locking script commits to.
func NoncePoint(k *secp.ModNScalar) ([]byte, error) {
	r, err := nonceR(k)
	if err != nil {
		return nil, err
	}
	rBytes := r.Bytes()
	out := rBytes[:]
	if out[0]&0x80 != 0 {
		out = append([]byte{0x00}, out...)
	}
	return out, nil
}

// SignDigestWithNonce produces a DER signature over digest using the caller's
// nonce k instead of a derived one, appending the sighash flag. Any private
// key works; an R-puzzle spend is authorized by knowledge of k, not of a
// particular key.
func SignDigestWithNonce(priv *btcec.PrivateKey, k *secp.ModNScalar,
	digest []byte, flag sighash.Flag) ([]byte, error) {

	r, err := nonceR(k)
	if err != nil {
		return nil, err
	}

	// s = k^-1 (z + r*d) mod n, with the usual low-s normalization.
	var z secp.ModNScalar
	z.SetByteSlice(digest)

	s := new(secp.ModNScalar).Mul2(r, &priv.Key).Add(&z)
	kInv := new(secp.ModNScalar).InverseValNonConst(k)
	s.Mul(kInv)
	if s.IsZero() {
		return nil, ErrBadNonce
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}

	sig := ecdsa.NewSignature(r, s)
	return append(sig.Serialize(), byte(flag)), nil
}

// nonceR computes r = x(k*G) mod n.
func nonceR(k *secp.ModNScalar) (*secp.ModNScalar, error) {
	if k.IsZero() {
		return nil, ErrBadNonce
	}

	var point secp.JacobianPoint
	secp.ScalarBaseMultNonConst(k, &point)
	point.ToAffine()

	var r secp.ModNScalar
	xBytes := point.X.Bytes()
	r.SetBytes(xBytes)
	if r.IsZero() {
		return nil, ErrBadNonce
	}
	return &r, nil
}
