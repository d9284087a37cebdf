package vm

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/sighash"
	"github.com/bitfold/bsv/pkg/wire"
)

// scriptCodeUTXO returns the output whose locking script feeds the signature
// digest. When an OP_CODESEPARATOR has executed, the script code is the
// remainder of the current script rather than the full locking script.
func (vm *Engine) scriptCodeUTXO() *wire.UTXO {
	if vm.lastCodeSep == 0 {
		return vm.utxo
	}
	return &wire.UTXO{
		OutPoint: vm.utxo.OutPoint,
		Output: &wire.TxOut{
			Value:    vm.utxo.Value(),
			PkScript: vm.subScript(),
		},
	}
}

// checkSig verifies a signature-with-flag against a serialized public key
// over the digest of the spending transaction. A malformed signature or
// public key yields false rather than an error; the opcodes push the result
// as a boolean, and their VERIFY variants turn false into failure.
func (vm *Engine) checkSig(fullSigBytes, pkBytes []byte) (bool, error) {
	if !vm.hasTx() {
		return false, scriptError(ErrNoTransaction,
			"signature check with no spending transaction")
	}

	// An empty signature never verifies, and carries no flag to hash with.
	if len(fullSigBytes) == 0 {
		return false, nil
	}

	derSig, flag, err := keys.SplitSig(fullSigBytes)
	if err != nil {
		return false, nil
	}

	pubKey, err := btcec.ParsePubKey(pkBytes)
	if err != nil {
		return false, nil
	}

	digest, err := sighash.Digest(vm.tx, vm.txIdx, vm.scriptCodeUTXO(), flag)
	if err != nil {
		return false, err
	}

	return keys.VerifyDigest(pubKey, digest, derSig), nil
}
