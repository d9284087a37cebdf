package contract

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/sighash"
	"github.com/bitfold/bsv/pkg/vm"
)

// fixedKey derives a deterministic key pair from a single seed byte.
func fixedKey(t *testing.T, seed byte) (*btcec.PrivateKey, *btcec.PublicKey) {
	t.Helper()
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	priv, pub := keys.PrivKeyFromBytes(b)
	return priv, pub
}

// wantParamError fails unless err is a *ParamError naming the given parameter.
func wantParamError(t *testing.T, name string, err error, param string) {
	t.Helper()
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Errorf("%s: error = %v, want *ParamError", name, err)
		return
	}
	if pe.Param != param {
		t.Errorf("%s: param = %q, want %q", name, pe.Param, param)
	}
}

func TestP2PKHSimulate(t *testing.T) {
	t.Parallel()

	priv, pub := fixedKey(t, 0x01)
	tpl := NewP2PKH(pub)
	tpl.PrivKey = priv

	res, err := Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("valid spend rejected: %v", res.Err)
	}
	if len(res.Stack) != 0 {
		t.Errorf("terminal stack = %v", res.Stack)
	}

	// Signing with a key that does not hash to the committed value fails at
	// the hash comparison.
	wrongPriv, _ := fixedKey(t, 0x02)
	tpl.PrivKey = wrongPriv
	res, err = Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("wrong key accepted")
	}
	if !vm.IsErrorCode(res.Err, vm.ErrEqualVerify) {
		t.Errorf("error = %v, want equalverify failure", res.Err)
	}
}

func TestP2PKHParams(t *testing.T) {
	t.Parallel()

	tpl := &P2PKH{PubKeyHash: []byte{0x01, 0x02}}
	_, err := tpl.Lock()
	wantParamError(t, "short hash", err, "PubKeyHash")

	_, pub := fixedKey(t, 0x01)
	_, err = Simulate(NewP2PKH(pub))
	wantParamError(t, "missing private key", err, "PrivKey")
}

func TestP2PKSimulate(t *testing.T) {
	t.Parallel()

	priv, pub := fixedKey(t, 0x03)
	tpl := NewP2PK(pub)
	tpl.PrivKey = priv

	res, err := Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("valid spend rejected: %v", res.Err)
	}

	// A signature from another key leaves false on the stack.
	wrongPriv, _ := fixedKey(t, 0x04)
	tpl.PrivKey = wrongPriv
	res, err = Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("wrong key accepted")
	}
	if !vm.IsErrorCode(res.Err, vm.ErrEvalFalse) {
		t.Errorf("error = %v, want eval false", res.Err)
	}

	tpl.PubKey = []byte{0x02, 0x01}
	_, err = tpl.Lock()
	wantParamError(t, "malformed public key", err, "PubKey")
}

func TestMultisigSimulate(t *testing.T) {
	t.Parallel()

	priv0, pub0 := fixedKey(t, 0x05)
	_, pub1 := fixedKey(t, 0x06)
	priv2, pub2 := fixedKey(t, 0x07)

	tpl := NewMultisig(2, pub0, pub1, pub2)
	tpl.PrivKeys = []*btcec.PrivateKey{priv0, priv2}

	res, err := Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("2-of-3 spend rejected: %v", res.Err)
	}

	// Signatures must appear in the same relative order as their keys.
	tpl.PrivKeys = []*btcec.PrivateKey{priv2, priv0}
	res, err = Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("out-of-order signatures accepted")
	}

	// A signature from a key outside the set fails.
	outsider, _ := fixedKey(t, 0x08)
	tpl.PrivKeys = []*btcec.PrivateKey{priv0, outsider}
	res, err = Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("outsider signature accepted")
	}
}

func TestMultisigParams(t *testing.T) {
	t.Parallel()

	_, pub := fixedKey(t, 0x05)

	_, err := NewMultisig(0, pub).Lock()
	wantParamError(t, "zero threshold", err, "Required")

	_, err = NewMultisig(2, pub).Lock()
	wantParamError(t, "threshold above key count", err, "Required")

	_, err = (&Multisig{Required: 1}).Lock()
	wantParamError(t, "no keys", err, "PubKeys")

	_, err = (&Multisig{Required: 1, PubKeys: [][]byte{{0x99}}}).Lock()
	wantParamError(t, "malformed key", err, "PubKeys")

	tpl := NewMultisig(2, pub, pub)
	tpl.PrivKeys = nil
	_, err = Simulate(tpl)
	wantParamError(t, "missing signing keys", err, "PrivKeys")
}

func TestRPuzzleSimulate(t *testing.T) {
	t.Parallel()

	var k secp.ModNScalar
	k.SetInt(0x1337)
	tpl, err := NewRPuzzle(&k)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("nonce holder rejected: %v", res.Err)
	}

	// Signing with a different nonce exposes the wrong r value.
	var other secp.ModNScalar
	other.SetInt(0x1338)
	tpl.K = &other
	res, err = Simulate(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("wrong nonce accepted")
	}
	if !vm.IsErrorCode(res.Err, vm.ErrEqualVerify) {
		t.Errorf("error = %v, want equalverify failure", res.Err)
	}
}

func TestRPuzzleParams(t *testing.T) {
	t.Parallel()

	var zero secp.ModNScalar
	if _, err := NewRPuzzle(&zero); err == nil {
		t.Error("zero nonce accepted")
	}

	tpl := &RPuzzle{R: []byte{0x01}}
	_, err := tpl.Lock()
	wantParamError(t, "short r", err, "R")

	var k secp.ModNScalar
	k.SetInt(7)
	valid, err := NewRPuzzle(&k)
	if err != nil {
		t.Fatal(err)
	}
	valid.K = nil
	_, err = Simulate(valid)
	wantParamError(t, "missing nonce", err, "K")
}

func TestOpReturn(t *testing.T) {
	t.Parallel()

	tpl := NewOpReturn([]byte("hello"), []byte("world"))
	lock, err := tpl.Lock()
	if err != nil {
		t.Fatal(err)
	}
	if !lock.IsDataOutput() {
		t.Error("data carrier not classified as data output")
	}

	_, err = Simulate(tpl)
	wantParamError(t, "unspendable", err, "template")

	huge := NewOpReturn(make([]byte, script.MaxScriptElementSize+1))
	_, err = huge.Lock()
	wantParamError(t, "oversized push", err, "Data")
}

func TestRawSimulate(t *testing.T) {
	t.Parallel()

	lock, err := script.NewBuilder().AddInt64(2).AddOp(script.OP_EQUAL).Script()
	if err != nil {
		t.Fatal(err)
	}
	unlock, err := script.NewBuilder().AddInt64(2).Script()
	if err != nil {
		t.Fatal(err)
	}

	res, err := Simulate(NewRaw(lock, unlock))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("raw spend rejected: %v", res.Err)
	}

	_, err = Simulate(NewRaw(nil, unlock))
	wantParamError(t, "missing lock", err, "LockScript")

	_, err = Simulate(NewRaw(lock, nil))
	wantParamError(t, "missing unlock", err, "UnlockScript")
}

// TestSimulateHashTypes exercises the signing templates under non-default
// sighash flags.
func TestSimulateHashTypes(t *testing.T) {
	t.Parallel()

	priv, pub := fixedKey(t, 0x09)
	tpl := NewP2PKH(pub)
	tpl.PrivKey = priv

	flags := []sighash.Flag{
		sighash.All | sighash.ForkID,
		sighash.None | sighash.ForkID,
		sighash.Single | sighash.ForkID,
		sighash.All | sighash.ForkID | sighash.AnyOneCanPay,
		sighash.All, // legacy, no replay protection
	}
	for _, flag := range flags {
		res, err := Simulate(tpl, WithHashType(flag))
		if err != nil {
			t.Fatalf("flag %#02x: %v", flag, err)
		}
		if !res.Valid {
			t.Errorf("flag %#02x rejected: %v", flag, res.Err)
		}
	}
}

func TestSimulateLockTime(t *testing.T) {
	t.Parallel()

	lock, err := script.NewBuilder().
		AddInt64(100).
		AddOp(script.OP_CHECKLOCKTIMEVERIFY).
		AddOp(script.OP_DROP).
		Script()
	if err != nil {
		t.Fatal(err)
	}
	unlock, err := script.NewBuilder().AddInt64(1).Script()
	if err != nil {
		t.Fatal(err)
	}
	tpl := NewRaw(lock, unlock)

	res, err := Simulate(tpl, WithLockTime(200))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("satisfied locktime rejected: %v", res.Err)
	}

	res, err = Simulate(tpl, WithLockTime(50))
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("unsatisfied locktime accepted")
	}
	if !vm.IsErrorCode(res.Err, vm.ErrUnsatisfiedLockTime) {
		t.Errorf("error = %v, want unsatisfied locktime", res.Err)
	}
}

func TestContextFlagDefault(t *testing.T) {
	t.Parallel()

	ctx := &Context{}
	if ctx.Flag() != sighash.Default {
		t.Errorf("default flag = %#02x", ctx.Flag())
	}
	ctx.HashType = sighash.None
	if ctx.Flag() != sighash.None {
		t.Errorf("explicit flag = %#02x", ctx.Flag())
	}
}
