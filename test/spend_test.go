package test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/bitfold/bsv/pkg/contract"
	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/vm"
	"github.com/bitfold/bsv/pkg/wire"
)

const fundingValue = 100000

// fundOutput builds a funding transaction carrying the locking script and
// returns the transaction together with the UTXO view of its first output.
func fundOutput(t *testing.T, lock script.Script) (*wire.MsgTx, *wire.UTXO) {
	t.Helper()

	var prevHash chainhash.Hash
	prevHash[0] = 0x42

	funding := wire.NewMsgTx(wire.TxVersion)
	funding.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: prevHash}, nil))
	funding.AddTxOut(wire.NewTxOut(fundingValue, lock.Bytes()))

	utxo := wire.NewUTXO(wire.OutPoint{Hash: funding.TxHash()},
		fundingValue, lock.Bytes())
	return funding, utxo
}

// spendOutput builds an unsigned transaction spending the UTXO back to the
// same locking script, minus a fee.
func spendOutput(utxo *wire.UTXO) *wire.MsgTx {
	spend := wire.NewMsgTx(wire.TxVersion)
	txIn := wire.NewTxIn(&utxo.OutPoint, nil)
	txIn.PrevOutput = utxo.Output
	spend.AddTxIn(txIn)
	spend.AddTxOut(wire.NewTxOut(fundingValue-1000, utxo.PkScript()))
	return spend
}

// TestP2PKHEndToEnd walks the full lifecycle: lock an output, serialize and
// reparse the funding transaction, sign a spend against the reparsed view,
// serialize and reparse the signed spend, and validate it in the machine.
func TestP2PKHEndToEnd(t *testing.T) {
	t.Parallel()

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	tpl := contract.NewP2PKH(priv.PubKey())
	tpl.PrivKey = priv

	lock, err := tpl.Lock()
	require.NoError(t, err)

	funding, _ := fundOutput(t, lock)

	// Round trip the funding transaction through its wire encoding.
	reparsed, rest, err := wire.NewTxFromBytes(funding.Bytes())
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, funding.TxID(), reparsed.TxID())

	utxo := wire.NewUTXO(wire.OutPoint{Hash: reparsed.TxHash()},
		reparsed.TxOut[0].Value, reparsed.TxOut[0].PkScript)
	spend := spendOutput(utxo)

	unlock, err := tpl.Unlock(&contract.Context{
		Tx: spend, InputIdx: 0, Utxo: utxo,
	})
	require.NoError(t, err)
	spend.TxIn[0].SignatureScript = unlock.Bytes()

	// The signed spend survives its own round trip and still validates.
	signed, _, err := wire.NewTxFromBytes(spend.Bytes())
	require.NoError(t, err)

	engine, err := vm.NewEngine(signed, 0, utxo)
	require.NoError(t, err)
	require.NoError(t, engine.Execute())

	// Mutating a committed output after signing invalidates the spend.
	signed.TxOut[0].Value++
	engine, err = vm.NewEngine(signed, 0, utxo)
	require.NoError(t, err)
	err = engine.Execute()
	require.Error(t, err)
	require.True(t, vm.IsErrorCode(err, vm.ErrEvalFalse))
}

// TestTwoInputSpend signs two inputs of one transaction against different
// templates and validates each independently.
func TestTwoInputSpend(t *testing.T) {
	t.Parallel()

	privA, err := keys.NewPrivateKey()
	require.NoError(t, err)
	privB, err := keys.NewPrivateKey()
	require.NoError(t, err)

	tplA := contract.NewP2PKH(privA.PubKey())
	tplA.PrivKey = privA
	tplB := contract.NewP2PK(privB.PubKey())
	tplB.PrivKey = privB

	lockA, err := tplA.Lock()
	require.NoError(t, err)
	lockB, err := tplB.Lock()
	require.NoError(t, err)

	funding := wire.NewMsgTx(wire.TxVersion)
	funding.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil))
	funding.AddTxOut(wire.NewTxOut(fundingValue, lockA.Bytes()))
	funding.AddTxOut(wire.NewTxOut(fundingValue, lockB.Bytes()))

	utxoA := wire.NewUTXO(wire.OutPoint{Hash: funding.TxHash(), Index: 0},
		fundingValue, lockA.Bytes())
	utxoB := wire.NewUTXO(wire.OutPoint{Hash: funding.TxHash(), Index: 1},
		fundingValue, lockB.Bytes())

	spend := wire.NewMsgTx(wire.TxVersion)
	spend.AddTxIn(wire.NewTxIn(&utxoA.OutPoint, nil))
	spend.AddTxIn(wire.NewTxIn(&utxoB.OutPoint, nil))
	spend.AddTxOut(wire.NewTxOut(2*fundingValue-1000, lockA.Bytes()))

	unlockA, err := tplA.Unlock(&contract.Context{Tx: spend, InputIdx: 0, Utxo: utxoA})
	require.NoError(t, err)
	unlockB, err := tplB.Unlock(&contract.Context{Tx: spend, InputIdx: 1, Utxo: utxoB})
	require.NoError(t, err)
	spend.TxIn[0].SignatureScript = unlockA.Bytes()
	spend.TxIn[1].SignatureScript = unlockB.Bytes()

	for i, utxo := range []*wire.UTXO{utxoA, utxoB} {
		engine, err := vm.NewEngine(spend, i, utxo)
		require.NoError(t, err)
		require.NoError(t, engine.Execute(), "input %d", i)
	}

	// Swapping the unlocking scripts between the inputs fails both.
	spend.TxIn[0].SignatureScript, spend.TxIn[1].SignatureScript =
		spend.TxIn[1].SignatureScript, spend.TxIn[0].SignatureScript
	for i, utxo := range []*wire.UTXO{utxoA, utxoB} {
		engine, err := vm.NewEngine(spend, i, utxo)
		require.NoError(t, err)
		require.Error(t, engine.Execute(), "input %d", i)
	}
}

// TestRPuzzleEndToEnd spends a nonce-locked output with a throwaway key and
// verifies a different nonce cannot.
func TestRPuzzleEndToEnd(t *testing.T) {
	t.Parallel()

	var k secp.ModNScalar
	k.SetInt(0xbeef)
	tpl, err := contract.NewRPuzzle(&k)
	require.NoError(t, err)

	lock, err := tpl.Lock()
	require.NoError(t, err)

	_, utxo := fundOutput(t, lock)
	spend := spendOutput(utxo)

	unlock, err := tpl.Unlock(&contract.Context{Tx: spend, InputIdx: 0, Utxo: utxo})
	require.NoError(t, err)
	spend.TxIn[0].SignatureScript = unlock.Bytes()

	engine, err := vm.NewEngine(spend, 0, utxo)
	require.NoError(t, err)
	require.NoError(t, engine.Execute())

	var wrong secp.ModNScalar
	wrong.SetInt(0xdead)
	tpl.K = &wrong
	unlock, err = tpl.Unlock(&contract.Context{Tx: spend, InputIdx: 0, Utxo: utxo})
	require.NoError(t, err)
	spend.TxIn[0].SignatureScript = unlock.Bytes()

	engine, err = vm.NewEngine(spend, 0, utxo)
	require.NoError(t, err)
	err = engine.Execute()
	require.True(t, vm.IsErrorCode(err, vm.ErrEqualVerify))
}

// TestMultisigEndToEnd spends a 2-of-3 output with the right keys in the
// right order.
func TestMultisigEndToEnd(t *testing.T) {
	t.Parallel()

	priv1, err := keys.NewPrivateKey()
	require.NoError(t, err)
	priv2, err := keys.NewPrivateKey()
	require.NoError(t, err)
	priv3, err := keys.NewPrivateKey()
	require.NoError(t, err)

	tpl := contract.NewMultisig(2, priv1.PubKey(), priv2.PubKey(), priv3.PubKey())
	tpl.PrivKeys = append(tpl.PrivKeys, priv2, priv3)

	lock, err := tpl.Lock()
	require.NoError(t, err)

	_, utxo := fundOutput(t, lock)
	spend := spendOutput(utxo)

	unlock, err := tpl.Unlock(&contract.Context{Tx: spend, InputIdx: 0, Utxo: utxo})
	require.NoError(t, err)
	spend.TxIn[0].SignatureScript = unlock.Bytes()

	engine, err := vm.NewEngine(spend, 0, utxo)
	require.NoError(t, err)
	require.NoError(t, engine.Execute())
}

// TestDataCarrierOutput verifies a data output classifies as unspendable and
// actually fails in the machine.
func TestDataCarrierOutput(t *testing.T) {
	t.Parallel()

	tpl := contract.NewOpReturn([]byte("on-chain payload"))
	lock, err := tpl.Lock()
	require.NoError(t, err)

	funding := wire.NewMsgTx(wire.TxVersion)
	funding.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil))
	funding.AddTxOut(wire.NewTxOut(0, lock.Bytes()))

	parsed, err := script.Parse(funding.TxOut[0].PkScript)
	require.NoError(t, err)
	require.True(t, parsed.IsDataOutput())

	// Force a spend attempt with a dummy push.
	utxo := wire.NewUTXO(wire.OutPoint{Hash: funding.TxHash()}, 0, lock.Bytes())
	spend := wire.NewMsgTx(wire.TxVersion)
	spend.AddTxIn(wire.NewTxIn(&utxo.OutPoint, nil))
	spend.AddTxOut(wire.NewTxOut(0, []byte{0x51}))
	unlock, err := script.NewBuilder().AddInt64(1).Script()
	require.NoError(t, err)
	spend.TxIn[0].SignatureScript = unlock.Bytes()

	engine, err := vm.NewEngine(spend, 0, utxo)
	require.NoError(t, err)
	err = engine.Execute()
	require.True(t, vm.IsErrorCode(err, vm.ErrEarlyReturn))
}

// TestCanonicalOrdering sorts a shuffled transaction and round trips it.
func TestCanonicalOrdering(t *testing.T) {
	t.Parallel()

	var h1, h2 chainhash.Hash
	h1[31] = 0x02
	h2[31] = 0x01

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: h1, Index: 1}, nil))
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: h2, Index: 9}, nil))
	tx.AddTxOut(wire.NewTxOut(9000, []byte{0x52}))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))

	require.False(t, wire.IsSorted(tx))
	sorted := wire.Sort(tx)
	require.True(t, wire.IsSorted(sorted))
	require.False(t, wire.IsSorted(tx), "sorting must not mutate the original")

	decoded, _, err := wire.NewTxFromBytes(sorted.Bytes())
	require.NoError(t, err)
	require.Equal(t, sorted.Bytes(), decoded.Bytes())
	require.EqualValues(t, 1000, decoded.TxOut[0].Value)
}
