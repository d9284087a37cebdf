package contract

import (
	"github.com/bitfold/bsv/pkg/sighash"
	"github.com/bitfold/bsv/pkg/vm"
	"github.com/bitfold/bsv/pkg/wire"
)

// simValue is the satoshi amount carried by the synthetic funding output.
const simValue = 50000

// Result is the outcome of simulating a template spend. A failed evaluation
// still carries the terminal machine state so callers can inspect which
// opcode and stack contents caused it.
type Result struct {
	// Valid reports whether evaluation succeeded.
	Valid bool

	// Err is the evaluation failure, nil when Valid.
	Err error

	// Stack and AltStack are the terminal machine state, bottom first.
	Stack    [][]byte
	AltStack [][]byte

	// Tx and Utxo are the synthetic spend the simulation evaluated.
	Tx   *wire.MsgTx
	Utxo *wire.UTXO
}

// SimOption adjusts the synthetic spending transaction.
type SimOption func(*simConfig)

type simConfig struct {
	hashType sighash.Flag
	lockTime uint32
	sequence uint32
}

// WithHashType sets the sighash flag used when building unlocking scripts.
func WithHashType(flag sighash.Flag) SimOption {
	return func(c *simConfig) { c.hashType = flag }
}

// WithLockTime sets the spending transaction's locktime. The sequence number
// is lowered so the locktime binds.
func WithLockTime(lockTime uint32) SimOption {
	return func(c *simConfig) {
		c.lockTime = lockTime
		if c.sequence == wire.MaxTxInSequenceNum {
			c.sequence = wire.MaxTxInSequenceNum - 1
		}
	}
}

// WithSequence sets the spending input's sequence number.
func WithSequence(sequence uint32) SimOption {
	return func(c *simConfig) { c.sequence = sequence }
}

// Simulate assembles a synthetic funding and spending transaction pair for
// the template and evaluates unlocking ++ locking through the virtual
// machine.
//
// Build-time failures (template parameter errors) return a nil Result and an
// error. Evaluation failures return a Result with Valid false, the failure,
// and the terminal machine state.
func Simulate(t Template, opts ...SimOption) (*Result, error) {
	cfg := simConfig{sequence: wire.MaxTxInSequenceNum}
	for _, opt := range opts {
		opt(&cfg)
	}

	lock, err := t.Lock()
	if err != nil {
		return nil, err
	}

	// A throwaway output carrying the locking script, in a funding
	// transaction so the spend has a real outpoint to reference.
	funding := wire.NewMsgTx(wire.TxVersion)
	funding.AddTxOut(wire.NewTxOut(simValue, lock.Bytes()))
	utxo := wire.NewUTXO(wire.OutPoint{Hash: funding.TxHash()},
		simValue, lock.Bytes())

	spend := wire.NewMsgTx(2)
	spend.LockTime = cfg.lockTime
	txIn := wire.NewTxIn(&utxo.OutPoint, nil)
	txIn.Sequence = cfg.sequence
	txIn.PrevOutput = utxo.Output
	spend.AddTxIn(txIn)
	spend.AddTxOut(wire.NewTxOut(simValue-500, lock.Bytes()))

	ctx := &Context{
		Tx:       spend,
		InputIdx: 0,
		Utxo:     utxo,
		HashType: cfg.hashType,
	}
	unlock, err := t.Unlock(ctx)
	if err != nil {
		return nil, err
	}
	spend.TxIn[0].SignatureScript = unlock.Bytes()

	res := &Result{Tx: spend, Utxo: utxo}
	engine, err := vm.NewEngine(spend, 0, utxo)
	if err != nil {
		res.Err = err
		return res, nil
	}

	err = engine.Execute()
	res.Valid = err == nil
	res.Err = err
	res.Stack = engine.GetStack()
	res.AltStack = engine.GetAltStack()
	return res, nil
}
