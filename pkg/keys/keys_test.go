package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bitfold/bsv/pkg/sighash"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	b, err := hex.DecodeString(
		"1111111111111111111111111111111111111111111111111111111111111111")
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	priv, pub := PrivKeyFromBytes(testKey(t))
	digest := sha256.Sum256([]byte("payload"))

	sigBytes := SignDigest(priv, digest[:], sighash.Default)
	der, flag, err := SplitSig(sigBytes)
	if err != nil {
		t.Fatal(err)
	}
	if flag != sighash.Default {
		t.Errorf("flag = %#02x", flag)
	}
	if !VerifyDigest(pub, digest[:], der) {
		t.Fatal("valid signature rejected")
	}

	// A different digest must not verify.
	other := sha256.Sum256([]byte("other"))
	if VerifyDigest(pub, other[:], der) {
		t.Error("signature verified against the wrong digest")
	}

	// A tampered signature must not verify, malformed or not.
	bad := append([]byte(nil), der...)
	bad[len(bad)-1] ^= 0x01
	if VerifyDigest(pub, digest[:], bad) {
		t.Error("tampered signature verified")
	}
}

func TestVerifyDigestMalformed(t *testing.T) {
	t.Parallel()

	_, pub := PrivKeyFromBytes(testKey(t))
	digest := sha256.Sum256([]byte("payload"))

	for _, der := range [][]byte{nil, {0x30}, {0x02, 0x01, 0x01}} {
		if VerifyDigest(pub, digest[:], der) {
			t.Errorf("malformed signature %x verified", der)
		}
	}
}

func TestSplitSig(t *testing.T) {
	t.Parallel()

	der, flag, err := SplitSig([]byte{0x30, 0x06, 0x41})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(der, []byte{0x30, 0x06}) || flag != sighash.Default {
		t.Errorf("der = %x, flag = %#02x", der, flag)
	}

	if _, _, err := SplitSig(nil); err == nil {
		t.Error("empty signature accepted")
	}
}

func TestNewNonce(t *testing.T) {
	t.Parallel()

	k, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}
	if k.IsZero() {
		t.Fatal("zero nonce")
	}
	k2, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}
	if k.Equals(k2) {
		t.Error("nonces repeat")
	}
}

// TestNoncePoint pins the r encoding for the nonce k=1: the generator's x
// coordinate, whose top bit is clear, so no leading zero pad appears.
func TestNoncePoint(t *testing.T) {
	t.Parallel()

	var one secp.ModNScalar
	one.SetInt(1)
	r, err := NoncePoint(&one)
	if err != nil {
		t.Fatal(err)
	}
	wantHex := "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	if got := hex.EncodeToString(r); got != wantHex {
		t.Errorf("r = %s, want %s", got, wantHex)
	}

	var zero secp.ModNScalar
	if _, err := NoncePoint(&zero); err == nil {
		t.Error("zero nonce accepted")
	}
}

func TestSignDigestWithNonce(t *testing.T) {
	t.Parallel()

	priv, pub := PrivKeyFromBytes(testKey(t))
	digest := sha256.Sum256([]byte("payload"))

	k, err := NewNonce()
	if err != nil {
		t.Fatal(err)
	}
	sigBytes, err := SignDigestWithNonce(priv, k, digest[:], sighash.Default)
	if err != nil {
		t.Fatal(err)
	}
	der, flag, err := SplitSig(sigBytes)
	if err != nil {
		t.Fatal(err)
	}
	if flag != sighash.Default {
		t.Errorf("flag = %#02x", flag)
	}
	if !VerifyDigest(pub, digest[:], der) {
		t.Fatal("nonce signature rejected")
	}

	// The signature's r must be exactly the value NoncePoint commits to.
	parsed, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		t.Fatal(err)
	}
	rCommit, err := NoncePoint(k)
	if err != nil {
		t.Fatal(err)
	}
	sigR := parsed.R()
	rBytes := sigR.Bytes()
	encoded := rBytes[:]
	if encoded[0]&0x80 != 0 {
		encoded = append([]byte{0x00}, encoded...)
	}
	if !bytes.Equal(encoded, rCommit) {
		t.Errorf("signature r = %x, committed r = %x", encoded, rCommit)
	}

	var zero secp.ModNScalar
	if _, err := SignDigestWithNonce(priv, &zero, digest[:], sighash.Default); err == nil {
		t.Error("zero nonce accepted")
	}
}

func TestHash160(t *testing.T) {
	t.Parallel()

	// RIPEMD160(SHA256("")) is a fixed vector.
	want, _ := hex.DecodeString("b472a266d0bd89c13706a4132ccfb16f7c3b9fcb")
	if got := Hash160(nil); !bytes.Equal(got, want) {
		t.Errorf("Hash160(nil) = %x, want %x", got, want)
	}
	if len(Hash160([]byte("x"))) != 20 {
		t.Error("digest length is not 20 bytes")
	}
}

func TestNewPrivateKey(t *testing.T) {
	t.Parallel()

	a, err := NewPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	if a.Key.Equals(&b.Key) {
		t.Error("generated keys repeat")
	}
}
