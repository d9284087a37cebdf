package vm

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"

	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/wire"
)

// MaxPubKeysPerMultiSig is the maximum number of public keys a single
// OP_CHECKMULTISIG accepts.
const MaxPubKeysPerMultiSig = 20

// lockTimeThreshold is the value below which a locktime is interpreted as a
// block height rather than a unix timestamp.
const lockTimeThreshold = 500000000

// An opcode defines the information related to an opcode. opfunc, if present,
// is the function to call to perform the opcode on the script. The current
// script is passed in as a slice with the first member being the opcode
// itself.
type opcode struct {
	value  byte
	opfunc func(*opcode, []byte, *Engine) error
}

// name returns the human-readable name for the opcode.
func (op *opcode) name() string {
	return script.OpcodeName(op.value)
}

// opcodeArray associates every opcode value with its handler. Values without
// assigned semantics get opcodeInvalid via init below.
var opcodeArray = [256]opcode{
	// Data push opcodes. Chunks that carry data bypass the table entirely,
	// so only the bare constant pushes land here.
	script.OP_0:       {script.OP_0, opcodeFalse},
	script.OP_1NEGATE: {script.OP_1NEGATE, opcodeN},
	script.OP_1:       {script.OP_1, opcodeN},
	script.OP_2:       {script.OP_2, opcodeN},
	script.OP_3:       {script.OP_3, opcodeN},
	script.OP_4:       {script.OP_4, opcodeN},
	script.OP_5:       {script.OP_5, opcodeN},
	script.OP_6:       {script.OP_6, opcodeN},
	script.OP_7:       {script.OP_7, opcodeN},
	script.OP_8:       {script.OP_8, opcodeN},
	script.OP_9:       {script.OP_9, opcodeN},
	script.OP_10:      {script.OP_10, opcodeN},
	script.OP_11:      {script.OP_11, opcodeN},
	script.OP_12:      {script.OP_12, opcodeN},
	script.OP_13:      {script.OP_13, opcodeN},
	script.OP_14:      {script.OP_14, opcodeN},
	script.OP_15:      {script.OP_15, opcodeN},
	script.OP_16:      {script.OP_16, opcodeN},

	// Control opcodes.
	script.OP_NOP:      {script.OP_NOP, opcodeNop},
	script.OP_VER:      {script.OP_VER, opcodeReserved},
	script.OP_IF:       {script.OP_IF, opcodeIf},
	script.OP_NOTIF:    {script.OP_NOTIF, opcodeNotIf},
	script.OP_VERIF:    {script.OP_VERIF, opcodeReserved},
	script.OP_VERNOTIF: {script.OP_VERNOTIF, opcodeReserved},
	script.OP_ELSE:     {script.OP_ELSE, opcodeElse},
	script.OP_ENDIF:    {script.OP_ENDIF, opcodeEndif},
	script.OP_VERIFY:   {script.OP_VERIFY, opcodeVerify},
	script.OP_RETURN:   {script.OP_RETURN, opcodeReturn},

	script.OP_CHECKLOCKTIMEVERIFY: {script.OP_CHECKLOCKTIMEVERIFY, opcodeCheckLockTimeVerify},
	script.OP_CHECKSEQUENCEVERIFY: {script.OP_CHECKSEQUENCEVERIFY, opcodeCheckSequenceVerify},

	// Stack opcodes.
	script.OP_TOALTSTACK:   {script.OP_TOALTSTACK, opcodeToAltStack},
	script.OP_FROMALTSTACK: {script.OP_FROMALTSTACK, opcodeFromAltStack},
	script.OP_2DROP:        {script.OP_2DROP, opcode2Drop},
	script.OP_2DUP:         {script.OP_2DUP, opcode2Dup},
	script.OP_3DUP:         {script.OP_3DUP, opcode3Dup},
	script.OP_2OVER:        {script.OP_2OVER, opcode2Over},
	script.OP_2ROT:         {script.OP_2ROT, opcode2Rot},
	script.OP_2SWAP:        {script.OP_2SWAP, opcode2Swap},
	script.OP_IFDUP:        {script.OP_IFDUP, opcodeIfDup},
	script.OP_DEPTH:        {script.OP_DEPTH, opcodeDepth},
	script.OP_DROP:         {script.OP_DROP, opcodeDrop},
	script.OP_DUP:          {script.OP_DUP, opcodeDup},
	script.OP_NIP:          {script.OP_NIP, opcodeNip},
	script.OP_OVER:         {script.OP_OVER, opcodeOver},
	script.OP_PICK:         {script.OP_PICK, opcodePick},
	script.OP_ROLL:         {script.OP_ROLL, opcodeRoll},
	script.OP_ROT:          {script.OP_ROT, opcodeRot},
	script.OP_SWAP:         {script.OP_SWAP, opcodeSwap},
	script.OP_TUCK:         {script.OP_TUCK, opcodeTuck},

	// Splice opcodes.
	script.OP_CAT:     {script.OP_CAT, opcodeCat},
	script.OP_SPLIT:   {script.OP_SPLIT, opcodeSplit},
	script.OP_NUM2BIN: {script.OP_NUM2BIN, opcodeNum2Bin},
	script.OP_BIN2NUM: {script.OP_BIN2NUM, opcodeBin2Num},
	script.OP_SIZE:    {script.OP_SIZE, opcodeSize},

	// Bitwise logic opcodes.
	script.OP_INVERT:      {script.OP_INVERT, opcodeInvert},
	script.OP_AND:         {script.OP_AND, opcodeAnd},
	script.OP_OR:          {script.OP_OR, opcodeOr},
	script.OP_XOR:         {script.OP_XOR, opcodeXor},
	script.OP_EQUAL:       {script.OP_EQUAL, opcodeEqual},
	script.OP_EQUALVERIFY: {script.OP_EQUALVERIFY, opcodeEqualVerify},
	script.OP_RESERVED1:   {script.OP_RESERVED1, opcodeReserved},
	script.OP_RESERVED2:   {script.OP_RESERVED2, opcodeReserved},

	// Numeric related opcodes.
	script.OP_1ADD:               {script.OP_1ADD, opcode1Add},
	script.OP_1SUB:               {script.OP_1SUB, opcode1Sub},
	script.OP_2MUL:               {script.OP_2MUL, opcodeDisabled},
	script.OP_2DIV:               {script.OP_2DIV, opcodeDisabled},
	script.OP_NEGATE:             {script.OP_NEGATE, opcodeNegate},
	script.OP_ABS:                {script.OP_ABS, opcodeAbs},
	script.OP_NOT:                {script.OP_NOT, opcodeNot},
	script.OP_0NOTEQUAL:          {script.OP_0NOTEQUAL, opcode0NotEqual},
	script.OP_ADD:                {script.OP_ADD, opcodeAdd},
	script.OP_SUB:                {script.OP_SUB, opcodeSub},
	script.OP_MUL:                {script.OP_MUL, opcodeMul},
	script.OP_DIV:                {script.OP_DIV, opcodeDiv},
	script.OP_MOD:                {script.OP_MOD, opcodeMod},
	script.OP_LSHIFT:             {script.OP_LSHIFT, opcodeLShift},
	script.OP_RSHIFT:             {script.OP_RSHIFT, opcodeRShift},
	script.OP_BOOLAND:            {script.OP_BOOLAND, opcodeBoolAnd},
	script.OP_BOOLOR:             {script.OP_BOOLOR, opcodeBoolOr},
	script.OP_NUMEQUAL:           {script.OP_NUMEQUAL, opcodeNumEqual},
	script.OP_NUMEQUALVERIFY:     {script.OP_NUMEQUALVERIFY, opcodeNumEqualVerify},
	script.OP_NUMNOTEQUAL:        {script.OP_NUMNOTEQUAL, opcodeNumNotEqual},
	script.OP_LESSTHAN:           {script.OP_LESSTHAN, opcodeLessThan},
	script.OP_GREATERTHAN:        {script.OP_GREATERTHAN, opcodeGreaterThan},
	script.OP_LESSTHANOREQUAL:    {script.OP_LESSTHANOREQUAL, opcodeLessThanOrEqual},
	script.OP_GREATERTHANOREQUAL: {script.OP_GREATERTHANOREQUAL, opcodeGreaterThanOrEqual},
	script.OP_MIN:                {script.OP_MIN, opcodeMin},
	script.OP_MAX:                {script.OP_MAX, opcodeMax},
	script.OP_WITHIN:             {script.OP_WITHIN, opcodeWithin},

	// Crypto opcodes.
	script.OP_RIPEMD160:           {script.OP_RIPEMD160, opcodeRipemd160},
	script.OP_SHA1:                {script.OP_SHA1, opcodeSha1},
	script.OP_SHA256:              {script.OP_SHA256, opcodeSha256},
	script.OP_HASH160:             {script.OP_HASH160, opcodeHash160},
	script.OP_HASH256:             {script.OP_HASH256, opcodeHash256},
	script.OP_CODESEPARATOR:       {script.OP_CODESEPARATOR, opcodeCodeSeparator},
	script.OP_CHECKSIG:            {script.OP_CHECKSIG, opcodeCheckSig},
	script.OP_CHECKSIGVERIFY:      {script.OP_CHECKSIGVERIFY, opcodeCheckSigVerify},
	script.OP_CHECKMULTISIG:       {script.OP_CHECKMULTISIG, opcodeCheckMultiSig},
	script.OP_CHECKMULTISIGVERIFY: {script.OP_CHECKMULTISIGVERIFY, opcodeCheckMultiSigVerify},

	// Reserved opcodes.
	script.OP_RESERVED: {script.OP_RESERVED, opcodeReserved},
	script.OP_NOP1:     {script.OP_NOP1, opcodeNop},
	script.OP_NOP4:     {script.OP_NOP4, opcodeNop},
	script.OP_NOP5:     {script.OP_NOP5, opcodeNop},
	script.OP_NOP6:     {script.OP_NOP6, opcodeNop},
	script.OP_NOP7:     {script.OP_NOP7, opcodeNop},
	script.OP_NOP8:     {script.OP_NOP8, opcodeNop},
	script.OP_NOP9:     {script.OP_NOP9, opcodeNop},
	script.OP_NOP10:    {script.OP_NOP10, opcodeNop},
}

func init() {
	for i := range opcodeArray {
		opcodeArray[i].value = byte(i)
		if opcodeArray[i].opfunc == nil {
			opcodeArray[i].opfunc = opcodeInvalid
		}
	}
}

// *******************************************
// Opcode implementation functions start here.
// *******************************************

// opcodeInvalid is a common handler for opcode values with no assigned
// semantics. Executing one fails the script.
func opcodeInvalid(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute invalid opcode %s", op.name())
	return scriptError(ErrReservedOpcode, str)
}

// opcodeReserved is a common handler for all reserved opcodes. It returns an
// appropriate error indicating the opcode is reserved.
func opcodeReserved(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute reserved opcode %s", op.name())
	return scriptError(ErrReservedOpcode, str)
}

// opcodeDisabled is a common handler for disabled opcodes. The program
// counter check catches these before execution, so reaching the handler
// means one slipped through; fail the same way.
func opcodeDisabled(op *opcode, data []byte, vm *Engine) error {
	str := fmt.Sprintf("attempt to execute disabled opcode %s", op.name())
	return scriptError(ErrDisabledOpcode, str)
}

// opcodeFalse pushes an empty array to the data stack to represent false.
// Note that 0, when encoded as a number according to the numeric encoding
// consensus rules, is an empty array.
func opcodeFalse(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushByteArray(nil)
	return nil
}

// opcodeN is a common handler for the small integer data push opcodes. It
// pushes the numeric value the opcode represents (which will be from 1 to 16
// or -1) onto the data stack.
func opcodeN(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushInt(script.Num(script.SmallIntValue(op.value)))
	return nil
}

// opcodeNop is a common handler for the NOP family of opcodes. As the name
// implies it generally does nothing.
func opcodeNop(op *opcode, data []byte, vm *Engine) error {
	return nil
}

// opcodeIf treats the top item on the data stack as a boolean and removes it.
//
// An appropriate entry is added to the conditional stack depending on whether
// the boolean is true and whether this if is on an executing branch in order
// to allow proper execution of further opcodes depending on the conditional
// logic. When the boolean is true, the first branch will be executed (unless
// this opcode is nested in a non-executed branch).
//
// <expression> if [statements] [else [statements]] endif
//
// Data stack transformation: [... bool] -> [...]
// Conditional stack transformation: [...] -> [... OpCondValue]
func opcodeIf(op *opcode, data []byte, vm *Engine) error {
	condVal := OpCondFalse
	if vm.isBranchExecuting() {
		ok, err := vm.dstack.PopBool()
		if err != nil {
			return err
		}
		if ok {
			condVal = OpCondTrue
		}
	} else {
		condVal = OpCondSkip
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

// opcodeNotIf treats the top item on the data stack as a boolean and removes
// it, negating the usual branch selection.
//
// Data stack transformation: [... bool] -> [...]
// Conditional stack transformation: [...] -> [... OpCondValue]
func opcodeNotIf(op *opcode, data []byte, vm *Engine) error {
	condVal := OpCondFalse
	if vm.isBranchExecuting() {
		ok, err := vm.dstack.PopBool()
		if err != nil {
			return err
		}
		if !ok {
			condVal = OpCondTrue
		}
	} else {
		condVal = OpCondSkip
	}
	vm.condStack = append(vm.condStack, condVal)
	return nil
}

// opcodeElse inverts conditional execution for other half of if/else/endif.
//
// An error is returned if there has not already been a matching OP_IF.
//
// Conditional stack transformation: [... OpCondValue] -> [... !OpCondValue]
func opcodeElse(op *opcode, data []byte, vm *Engine) error {
	if len(vm.condStack) == 0 {
		str := fmt.Sprintf("encountered opcode %s with no matching "+
			"opcode to begin conditional execution", op.name())
		return scriptError(ErrUnbalancedConditional, str)
	}

	conditionalIdx := len(vm.condStack) - 1
	switch vm.condStack[conditionalIdx] {
	case OpCondTrue:
		vm.condStack[conditionalIdx] = OpCondFalse
	case OpCondFalse:
		vm.condStack[conditionalIdx] = OpCondTrue
	case OpCondSkip:
		// Value doesn't change in skip since it indicates this opcode
		// is nested in a non-executed branch.
	}
	return nil
}

// opcodeEndif terminates a conditional block, removing the value from the
// conditional execution stack.
//
// An error is returned if there has not already been a matching OP_IF.
//
// Conditional stack transformation: [... OpCondValue] -> [...]
func opcodeEndif(op *opcode, data []byte, vm *Engine) error {
	if len(vm.condStack) == 0 {
		str := fmt.Sprintf("encountered opcode %s with no matching "+
			"opcode to begin conditional execution", op.name())
		return scriptError(ErrUnbalancedConditional, str)
	}
	vm.condStack = vm.condStack[:len(vm.condStack)-1]
	return nil
}

// abstractVerify examines the top item on the data stack as a boolean value
// and verifies it evaluates to true. An error is returned either when there
// is no item on the stack or when that item evaluates to false.
func abstractVerify(op *opcode, vm *Engine, c ErrorCode) error {
	verified, err := vm.dstack.PopBool()
	if err != nil {
		return err
	}
	if !verified {
		str := fmt.Sprintf("%s failed", op.name())
		return scriptError(c, str)
	}
	return nil
}

// opcodeVerify examines the top item on the data stack as a boolean value and
// verifies it evaluates to true. An error is returned if it does not.
func opcodeVerify(op *opcode, data []byte, vm *Engine) error {
	return abstractVerify(op, vm, ErrVerify)
}

// opcodeReturn fails the script unconditionally. Outputs that start with it
// are provably unspendable data carriers.
func opcodeReturn(op *opcode, data []byte, vm *Engine) error {
	return scriptError(ErrEarlyReturn, "script returned early")
}

// verifyLockTime is a helper function used to validate locktimes.
func verifyLockTime(txLockTime, threshold, lockTime int64) error {
	// The lockTimes in both the script and transaction must be of the same
	// type.
	if !((txLockTime < threshold && lockTime < threshold) ||
		(txLockTime >= threshold && lockTime >= threshold)) {
		str := fmt.Sprintf("mismatched locktime types -- tx locktime %d, "+
			"stack locktime %d", txLockTime, lockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	if lockTime > txLockTime {
		str := fmt.Sprintf("locktime requirement not satisfied -- "+
			"locktime is greater than the transaction locktime: %d > %d",
			lockTime, txLockTime)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	return nil
}

// opcodeCheckLockTimeVerify compares the top item on the data stack to the
// LockTime field of the transaction containing the script being executed,
// verifying the transaction outputs are spendable yet. The stack item is left
// in place.
func opcodeCheckLockTimeVerify(op *opcode, data []byte, vm *Engine) error {
	if !vm.hasTx() {
		return scriptError(ErrNoTransaction,
			"locktime check with no spending transaction")
	}

	// The locktime on the stack may be up to 5 bytes, since a transaction
	// locktime is an unsigned 32-bit integer a 4-byte number cannot reach.
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	lockTime, err := script.MakeNum(so, 5)
	if err != nil {
		return scriptError(ErrNumberTooBig, err.Error())
	}

	// In the rare event that the argument needs to be < 0 due to some
	// arithmetic being done first, you can always use
	// 0 OP_MAX OP_CHECKLOCKTIMEVERIFY.
	if lockTime < 0 {
		str := fmt.Sprintf("negative lock time: %d", lockTime)
		return scriptError(ErrNegativeLockTime, str)
	}

	err = verifyLockTime(int64(vm.tx.LockTime), lockTimeThreshold,
		int64(lockTime))
	if err != nil {
		return err
	}

	// A sequence of max value would have its locktime checks disabled at
	// the transaction level, so the script requirement could never
	// actually bind.
	if vm.tx.TxIn[vm.txIdx].Sequence == wire.MaxTxInSequenceNum {
		return scriptError(ErrUnsatisfiedLockTime,
			"transaction input is finalized")
	}

	return nil
}

// opcodeCheckSequenceVerify compares the top item on the data stack to the
// Sequence field of the input containing the script being executed, verifying
// the relative locktime is satisfied. The stack item is left in place.
func opcodeCheckSequenceVerify(op *opcode, data []byte, vm *Engine) error {
	if !vm.hasTx() {
		return scriptError(ErrNoTransaction,
			"sequence check with no spending transaction")
	}

	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	stackSequence, err := script.MakeNum(so, 5)
	if err != nil {
		return scriptError(ErrNumberTooBig, err.Error())
	}

	if stackSequence < 0 {
		str := fmt.Sprintf("negative sequence: %d", stackSequence)
		return scriptError(ErrNegativeLockTime, str)
	}

	sequence := int64(stackSequence)

	// To provide for future soft-fork extensibility, if the operand has
	// the disabled locktime flag set, CHECKSEQUENCEVERIFY behaves as a
	// NOP.
	if sequence&int64(wire.SequenceLockTimeDisabled) != 0 {
		return nil
	}

	// Transaction version numbers not high enough to trigger relative
	// locktime rules fail.
	if vm.tx.Version < 2 {
		str := fmt.Sprintf("invalid transaction version: %d", vm.tx.Version)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	// Sequence numbers with their most significant bit set are not
	// consensus constrained.
	txSequence := int64(vm.tx.TxIn[vm.txIdx].Sequence)
	if txSequence&int64(wire.SequenceLockTimeDisabled) != 0 {
		str := fmt.Sprintf("transaction sequence has sequence "+
			"locktime disabled bit set: 0x%x", txSequence)
		return scriptError(ErrUnsatisfiedLockTime, str)
	}

	// Mask off non-consensus bits before doing comparisons.
	lockTimeMask := int64(wire.SequenceLockTimeIsSeconds |
		wire.SequenceLockTimeMask)
	return verifyLockTime(txSequence&lockTimeMask,
		int64(wire.SequenceLockTimeIsSeconds), sequence&lockTimeMask)
}

// opcodeToAltStack removes the top item from the main data stack and pushes
// it onto the alternate data stack.
//
// Main data stack transformation: [... x1 x2 x3] -> [... x1 x2]
// Alt data stack transformation:  [... y1 y2 y3] -> [... y1 y2 y3 x3]
func opcodeToAltStack(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.astack.PushByteArray(so)
	return nil
}

// opcodeFromAltStack removes the top item from the alternate data stack and
// pushes it onto the main data stack.
//
// Main data stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 y3]
// Alt data stack transformation:  [... y1 y2 y3] -> [... y1 y2]
func opcodeFromAltStack(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.astack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushByteArray(so)
	return nil
}

// opcode2Drop removes the top 2 items from the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1]
func opcode2Drop(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DropN(2)
}

// opcode2Dup duplicates the top 2 items on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x2 x3]
func opcode2Dup(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DupN(2)
}

// opcode3Dup duplicates the top 3 items on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x1 x2 x3]
func opcode3Dup(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DupN(3)
}

// opcode2Over duplicates the 2 items before the top 2 items on the data
// stack.
//
// Stack transformation: [... x1 x2 x3 x4] -> [... x1 x2 x3 x4 x1 x2]
func opcode2Over(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.OverN(2)
}

// opcode2Rot rotates the top 6 items on the data stack to the left twice.
//
// Stack transformation: [... x1 x2 x3 x4 x5 x6] -> [... x3 x4 x5 x6 x1 x2]
func opcode2Rot(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.RotN(2)
}

// opcode2Swap swaps the top 2 items on the data stack with the 2 that come
// before them.
//
// Stack transformation: [... x1 x2 x3 x4] -> [... x3 x4 x1 x2]
func opcode2Swap(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.SwapN(2)
}

// opcodeIfDup duplicates the item on the top of the data stack if it is not
// zero.
//
// Stack transformation (x1==0): [... x1] -> [... x1]
// Stack transformation (x1!=0): [... x1] -> [... x1 x1]
func opcodeIfDup(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	if asBool(so) {
		vm.dstack.PushByteArray(so)
	}
	return nil
}

// opcodeDepth pushes the depth of the data stack prior to executing this
// opcode, encoded as a number, onto the data stack.
//
// Stack transformation: [...] -> [... <num of items on the stack>]
// Example with 2 items: [x1 x2] -> [x1 x2 2]
func opcodeDepth(op *opcode, data []byte, vm *Engine) error {
	vm.dstack.PushInt(script.Num(vm.dstack.Depth()))
	return nil
}

// opcodeDrop removes the top item from the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2]
func opcodeDrop(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DropN(1)
}

// opcodeDup duplicates the top item on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x3]
func opcodeDup(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.DupN(1)
}

// opcodeNip removes the item before the top item on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x3]
func opcodeNip(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.NipN(1)
}

// opcodeOver duplicates the item before the top item on the data stack.
//
// Stack transformation: [... x1 x2 x3] -> [... x1 x2 x3 x2]
func opcodeOver(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.OverN(1)
}

// opcodePick treats the top item on the data stack as an integer and
// duplicates the item on the stack that number of items back to the top.
//
// Stack transformation: [xn ... x1 x2 x3 n] -> [xn ... x1 x2 x3 xn]
// Example with n=1: [x1 x2 x3 1] -> [x1 x2 x3 x2]
// Example with n=2: [x1 x2 x3 2] -> [x1 x2 x3 x1]
func opcodePick(op *opcode, data []byte, vm *Engine) error {
	val, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	return vm.dstack.PickN(val.Int32())
}

// opcodeRoll treats the top item on the data stack as an integer and moves
// the item on the stack that number of items back to the top.
//
// Stack transformation: [xn ... x1 x2 x3 n] -> [... x1 x2 x3 xn]
// Example with n=1: [x1 x2 x3 1] -> [x1 x3 x2]
// Example with n=2: [x1 x2 x3 2] -> [x2 x3 x1]
func opcodeRoll(op *opcode, data []byte, vm *Engine) error {
	val, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	return vm.dstack.RollN(val.Int32())
}

// opcodeRot rotates the top 3 items on the data stack to the left.
//
// Stack transformation: [... x1 x2 x3] -> [... x2 x3 x1]
func opcodeRot(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.RotN(1)
}

// opcodeSwap swaps the top two items on the stack.
//
// Stack transformation: [... x1 x2] -> [... x2 x1]
func opcodeSwap(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.SwapN(1)
}

// opcodeTuck inserts a duplicate of the top item of the data stack before the
// second-to-top item.
//
// Stack transformation: [... x1 x2] -> [... x2 x1 x2]
func opcodeTuck(op *opcode, data []byte, vm *Engine) error {
	return vm.dstack.Tuck()
}

// opcodeCat concatenates the top two stack elements.
//
// Stack transformation: [... x1 x2] -> [... x1||x2]
func opcodeCat(op *opcode, data []byte, vm *Engine) error {
	b, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	if len(a)+len(b) > script.MaxScriptElementSize {
		str := fmt.Sprintf("concatenated size %d exceeds max allowed size %d",
			len(a)+len(b), script.MaxScriptElementSize)
		return scriptError(ErrElementTooBig, str)
	}

	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	vm.dstack.PushByteArray(out)
	return nil
}

// opcodeSplit splits the second-to-top stack element at the position given by
// the top element, pushing both halves. Position zero yields an empty first
// half; a position equal to the element length yields an empty second half.
//
// Stack transformation: [... x n] -> [... x[:n] x[n:]]
func opcodeSplit(op *opcode, data []byte, vm *Engine) error {
	n, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	pos := int(n.Int32())
	if pos < 0 || pos > len(x) {
		str := fmt.Sprintf("split position %d outside element of %d bytes",
			pos, len(x))
		return scriptError(ErrInvalidSplitRange, str)
	}

	left := make([]byte, pos)
	copy(left, x[:pos])
	right := make([]byte, len(x)-pos)
	copy(right, x[pos:])
	vm.dstack.PushByteArray(left)
	vm.dstack.PushByteArray(right)
	return nil
}

// opcodeNum2Bin re-encodes the numeric value in the second-to-top stack
// element into a byte string of exactly the length given by the top element,
// preserving the sign in the high bit of the final byte.
//
// Stack transformation: [... x n] -> [... x']
func opcodeNum2Bin(op *opcode, data []byte, vm *Engine) error {
	n, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	size := int(n.Int32())
	if size < 0 || size > script.MaxScriptElementSize {
		str := fmt.Sprintf("requested encoding size %d is invalid", size)
		return scriptError(ErrInvalidNumberRange, str)
	}

	// Canonicalize first so padded inputs measure by their magnitude.
	min := script.MinimallyEncode(x)
	if len(min) > size {
		str := fmt.Sprintf("value of %d bytes cannot fit in %d",
			len(min), size)
		return scriptError(ErrInvalidNumberRange, str)
	}

	out := make([]byte, size)
	copy(out, min)
	if len(min) > 0 {
		// Move the sign bit onto the final byte, padding with zeros in
		// between.
		sign := min[len(min)-1] & 0x80
		out[len(min)-1] &= 0x7f
		if size > 0 {
			out[size-1] |= sign
		}
	}
	vm.dstack.PushByteArray(out)
	return nil
}

// opcodeBin2Num canonicalizes the top stack element as a number encoding,
// stripping redundant padding while preserving the sign.
//
// Stack transformation: [... x] -> [... x']
func opcodeBin2Num(op *opcode, data []byte, vm *Engine) error {
	x, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushByteArray(script.MinimallyEncode(x))
	return nil
}

// opcodeSize pushes the size of the top item of the data stack onto the data
// stack.
//
// Stack transformation: [... x1] -> [... x1 len(x1)]
func opcodeSize(op *opcode, data []byte, vm *Engine) error {
	so, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(script.Num(len(so)))
	return nil
}

// opcodeInvert flips every bit of the top stack element.
//
// Stack transformation: [... x] -> [... ^x]
func opcodeInvert(op *opcode, data []byte, vm *Engine) error {
	x, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	out := make([]byte, len(x))
	for i := range x {
		out[i] = ^x[i]
	}
	vm.dstack.PushByteArray(out)
	return nil
}

// binaryBitOp is a common handler for the binary bitwise opcodes, which
// require operands of equal length.
func binaryBitOp(vm *Engine, f func(a, b byte) byte) error {
	b, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	a, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	if len(a) != len(b) {
		str := fmt.Sprintf("operand lengths %d and %d differ",
			len(a), len(b))
		return scriptError(ErrInvalidOperandSize, str)
	}

	out := make([]byte, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	vm.dstack.PushByteArray(out)
	return nil
}

// opcodeAnd computes the bitwise and of two equal-length stack elements.
//
// Stack transformation: [... x1 x2] -> [... x1&x2]
func opcodeAnd(op *opcode, data []byte, vm *Engine) error {
	return binaryBitOp(vm, func(a, b byte) byte { return a & b })
}

// opcodeOr computes the bitwise or of two equal-length stack elements.
//
// Stack transformation: [... x1 x2] -> [... x1|x2]
func opcodeOr(op *opcode, data []byte, vm *Engine) error {
	return binaryBitOp(vm, func(a, b byte) byte { return a | b })
}

// opcodeXor computes the bitwise xor of two equal-length stack elements.
//
// Stack transformation: [... x1 x2] -> [... x1^x2]
func opcodeXor(op *opcode, data []byte, vm *Engine) error {
	return binaryBitOp(vm, func(a, b byte) byte { return a ^ b })
}

// opcodeEqual removes the top 2 items of the data stack, compares them as raw
// bytes, and pushes the result, encoded as a boolean, back to the stack.
//
// Stack transformation: [... x1 x2] -> [... bool]
func opcodeEqual(op *opcode, data []byte, vm *Engine) error {
	a, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	b, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushBool(bytes.Equal(a, b))
	return nil
}

// opcodeEqualVerify is a combination of opcodeEqual and opcodeVerify.
// Specifically, it removes the top 2 items of the data stack, compares them,
// and pushes the result, encoded as a boolean, back to the stack. Then, it
// examines the top item on the data stack as a boolean value and verifies it
// evaluates to true. An error is returned if it does not.
//
// Stack transformation: [... x1 x2] -> [... bool] -> [...]
func opcodeEqualVerify(op *opcode, data []byte, vm *Engine) error {
	err := opcodeEqual(op, data, vm)
	if err == nil {
		err = abstractVerify(op, vm, ErrEqualVerify)
	}
	return err
}

// opcode1Add treats the top item on the data stack as an integer and replaces
// it with its incremented value (plus 1).
//
// Stack transformation: [... x1 x2] -> [... x1 x2+1]
func opcode1Add(op *opcode, data []byte, vm *Engine) error {
	m, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(m + 1)
	return nil
}

// opcode1Sub treats the top item on the data stack as an integer and replaces
// it with its decremented value (minus 1).
//
// Stack transformation: [... x1 x2] -> [... x1 x2-1]
func opcode1Sub(op *opcode, data []byte, vm *Engine) error {
	m, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(m - 1)
	return nil
}

// opcodeNegate treats the top item on the data stack as an integer and
// replaces it with its negation.
//
// Stack transformation: [... x1 x2] -> [... x1 -x2]
func opcodeNegate(op *opcode, data []byte, vm *Engine) error {
	m, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(-m)
	return nil
}

// opcodeAbs treats the top item on the data stack as an integer and replaces
// it with its absolute value.
//
// Stack transformation: [... x1 x2] -> [... x1 abs(x2)]
func opcodeAbs(op *opcode, data []byte, vm *Engine) error {
	m, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if m < 0 {
		m = -m
	}
	vm.dstack.PushInt(m)
	return nil
}

// opcodeNot treats the top item on the data stack as an integer and replaces
// it with its "inverted" value (0 becomes 1, non-zero becomes 0).
//
// Stack transformation (x2==0): [... x1 0] -> [... x1 1]
// Stack transformation (x2!=0): [... x1 1] -> [... x1 0]
func opcodeNot(op *opcode, data []byte, vm *Engine) error {
	m, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if m == 0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcode0NotEqual treats the top item on the data stack as an integer and
// replaces it with either a 0 if it is zero, or a 1 if it is not 0.
//
// Stack transformation (x2==0): [... x1 0] -> [... x1 0]
// Stack transformation (x2!=0): [... x1 1] -> [... x1 1]
func opcode0NotEqual(op *opcode, data []byte, vm *Engine) error {
	m, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if m != 0 {
		m = 1
	}
	vm.dstack.PushInt(m)
	return nil
}

// opcodeAdd treats the top two items on the data stack as integers and
// replaces them with their sum.
//
// Stack transformation: [... x1 x2] -> [... x1+x2]
func opcodeAdd(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(v0 + v1)
	return nil
}

// opcodeSub treats the top two items on the data stack as integers and
// replaces them with the result of subtracting the top entry from the
// second-to-top entry.
//
// Stack transformation: [... x1 x2] -> [... x1-x2]
func opcodeSub(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(v1 - v0)
	return nil
}

// opcodeMul treats the top two items on the data stack as integers and
// replaces them with their product.
//
// Stack transformation: [... x1 x2] -> [... x1*x2]
func opcodeMul(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	vm.dstack.PushInt(v0 * v1)
	return nil
}

// opcodeDiv treats the top two items on the data stack as integers and
// replaces them with the quotient of the second-to-top entry divided by the
// top entry, truncated towards zero.
//
// Stack transformation: [... x1 x2] -> [... x1/x2]
func opcodeDiv(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v0 == 0 {
		return scriptError(ErrDivideByZero, "division by zero")
	}
	vm.dstack.PushInt(v1 / v0)
	return nil
}

// opcodeMod treats the top two items on the data stack as integers and
// replaces them with the remainder of the second-to-top entry divided by the
// top entry. The result carries the sign of the dividend.
//
// Stack transformation: [... x1 x2] -> [... x1%x2]
func opcodeMod(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v0 == 0 {
		return scriptError(ErrDivideByZero, "modulo by zero")
	}
	vm.dstack.PushInt(v1 % v0)
	return nil
}

// shiftAmount pops the shift count for the bit shift opcodes.
func shiftAmount(vm *Engine) (int, error) {
	n, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		str := fmt.Sprintf("negative shift amount %d", n)
		return 0, scriptError(ErrInvalidNumberRange, str)
	}
	return int(n.Int32()), nil
}

// opcodeLShift shifts the bit pattern of the second-to-top stack element
// towards its most significant end by the number of bits given by the top
// element. The element keeps its length; bits shifted out are discarded.
//
// Stack transformation: [... x n] -> [... x<<n]
func opcodeLShift(op *opcode, data []byte, vm *Engine) error {
	n, err := shiftAmount(vm)
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	out := make([]byte, len(x))
	byteShift, bitShift := n/8, uint(n%8)
	for i := range out {
		src := i + byteShift
		if src < len(x) {
			out[i] = x[src] << bitShift
		}
		if bitShift > 0 && src+1 < len(x) {
			out[i] |= x[src+1] >> (8 - bitShift)
		}
	}
	vm.dstack.PushByteArray(out)
	return nil
}

// opcodeRShift shifts the bit pattern of the second-to-top stack element
// towards its least significant end by the number of bits given by the top
// element. The element keeps its length; bits shifted out are discarded.
//
// Stack transformation: [... x n] -> [... x>>n]
func opcodeRShift(op *opcode, data []byte, vm *Engine) error {
	n, err := shiftAmount(vm)
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	out := make([]byte, len(x))
	byteShift, bitShift := n/8, uint(n%8)
	for i := len(out) - 1; i >= 0; i-- {
		src := i - byteShift
		if src >= 0 {
			out[i] = x[src] >> bitShift
		}
		if bitShift > 0 && src-1 >= 0 {
			out[i] |= x[src-1] << (8 - bitShift)
		}
	}
	vm.dstack.PushByteArray(out)
	return nil
}

// opcodeBoolAnd treats the top two items on the data stack as integers. When
// both of them are not zero, they are replaced with a 1, otherwise a 0.
//
// Stack transformation (x1==0, x2==0): [... 0 0] -> [... 0]
// Stack transformation (x1!=0, x2==0): [... 5 0] -> [... 0]
// Stack transformation (x1==0, x2!=0): [... 0 7] -> [... 0]
// Stack transformation (x1!=0, x2!=0): [... 4 8] -> [... 1]
func opcodeBoolAnd(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v0 != 0 && v1 != 0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeBoolOr treats the top two items on the data stack as integers. When
// either of them are not zero, they are replaced with a 1, otherwise a 0.
//
// Stack transformation (x1==0, x2==0): [... 0 0] -> [... 0]
// Stack transformation (x1!=0, x2==0): [... 5 0] -> [... 1]
// Stack transformation (x1==0, x2!=0): [... 0 7] -> [... 1]
// Stack transformation (x1!=0, x2!=0): [... 4 8] -> [... 1]
func opcodeBoolOr(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v0 != 0 || v1 != 0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeNumEqual treats the top two items on the data stack as integers. When
// they are equal, they are replaced with a 1, otherwise a 0.
//
// Stack transformation (x1==x2): [... 5 5] -> [... 1]
// Stack transformation (x1!=x2): [... 5 7] -> [... 0]
func opcodeNumEqual(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v0 == v1 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeNumEqualVerify is a combination of opcodeNumEqual and opcodeVerify.
//
// Stack transformation: [... x1 x2] -> [... bool] -> [...]
func opcodeNumEqualVerify(op *opcode, data []byte, vm *Engine) error {
	err := opcodeNumEqual(op, data, vm)
	if err == nil {
		err = abstractVerify(op, vm, ErrNumEqualVerify)
	}
	return err
}

// opcodeNumNotEqual treats the top two items on the data stack as integers.
// When they are NOT equal, they are replaced with a 1, otherwise a 0.
//
// Stack transformation (x1==x2): [... 5 5] -> [... 0]
// Stack transformation (x1!=x2): [... 5 7] -> [... 1]
func opcodeNumNotEqual(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v0 != v1 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeLessThan treats the top two items on the data stack as integers. When
// the second-to-top item is less than the top item, they are replaced with a
// 1, otherwise a 0.
//
// Stack transformation: [... x1 x2] -> [... bool]
func opcodeLessThan(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v1 < v0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeGreaterThan treats the top two items on the data stack as integers.
// When the second-to-top item is greater than the top item, they are replaced
// with a 1, otherwise a 0.
//
// Stack transformation: [... x1 x2] -> [... bool]
func opcodeGreaterThan(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v1 > v0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeLessThanOrEqual treats the top two items on the data stack as
// integers. When the second-to-top item is less than or equal to the top
// item, they are replaced with a 1, otherwise a 0.
//
// Stack transformation: [... x1 x2] -> [... bool]
func opcodeLessThanOrEqual(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v1 <= v0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeGreaterThanOrEqual treats the top two items on the data stack as
// integers. When the second-to-top item is greater than or equal to the top
// item, they are replaced with a 1, otherwise a 0.
//
// Stack transformation: [... x1 x2] -> [... bool]
func opcodeGreaterThanOrEqual(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v1 >= v0 {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeMin treats the top two items on the data stack as integers and
// replaces them with the minimum of the two.
//
// Stack transformation: [... x1 x2] -> [... min(x1, x2)]
func opcodeMin(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v1 < v0 {
		vm.dstack.PushInt(v1)
	} else {
		vm.dstack.PushInt(v0)
	}
	return nil
}

// opcodeMax treats the top two items on the data stack as integers and
// replaces them with the maximum of the two.
//
// Stack transformation: [... x1 x2] -> [... max(x1, x2)]
func opcodeMax(op *opcode, data []byte, vm *Engine) error {
	v0, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	v1, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if v1 > v0 {
		vm.dstack.PushInt(v1)
	} else {
		vm.dstack.PushInt(v0)
	}
	return nil
}

// opcodeWithin treats the top 3 items on the data stack as integers. When the
// value to test is within the specified range (left inclusive), they are
// replaced with a 1, otherwise a 0.
//
// The top item is the max value, the second-top-item is the minimum value,
// and the third-to-top item is the value to test.
//
// Stack transformation: [... x1 min max] -> [... bool]
func opcodeWithin(op *opcode, data []byte, vm *Engine) error {
	maxVal, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	minVal, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	x, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	if x >= minVal && x < maxVal {
		vm.dstack.PushInt(1)
	} else {
		vm.dstack.PushInt(0)
	}
	return nil
}

// opcodeRipemd160 treats the top item of the data stack as raw bytes and
// replaces it with ripemd160(data).
//
// Stack transformation: [... x1] -> [... ripemd160(x1)]
func opcodeRipemd160(op *opcode, data []byte, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	h := ripemd160.New()
	h.Write(buf)
	vm.dstack.PushByteArray(h.Sum(nil))
	return nil
}

// opcodeSha1 treats the top item of the data stack as raw bytes and replaces
// it with sha1(data).
//
// Stack transformation: [... x1] -> [... sha1(x1)]
func opcodeSha1(op *opcode, data []byte, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	hash := sha1.Sum(buf)
	vm.dstack.PushByteArray(hash[:])
	return nil
}

// opcodeSha256 treats the top item of the data stack as raw bytes and
// replaces it with sha256(data).
//
// Stack transformation: [... x1] -> [... sha256(x1)]
func opcodeSha256(op *opcode, data []byte, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	hash := sha256.Sum256(buf)
	vm.dstack.PushByteArray(hash[:])
	return nil
}

// opcodeHash160 treats the top item of the data stack as raw bytes and
// replaces it with ripemd160(sha256(data)).
//
// Stack transformation: [... x1] -> [... ripemd160(sha256(x1))]
func opcodeHash160(op *opcode, data []byte, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	hash := sha256.Sum256(buf)
	h := ripemd160.New()
	h.Write(hash[:])
	vm.dstack.PushByteArray(h.Sum(nil))
	return nil
}

// opcodeHash256 treats the top item of the data stack as raw bytes and
// replaces it with sha256(sha256(data)).
//
// Stack transformation: [... x1] -> [... sha256(sha256(x1))]
func opcodeHash256(op *opcode, data []byte, vm *Engine) error {
	buf, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	vm.dstack.PushByteArray(chainhash.DoubleHashB(buf))
	return nil
}

// opcodeCodeSeparator stores the current script offset as the most recently
// seen OP_CODESEPARATOR which is used during signature checking.
//
// This opcode does not change the contents of the data stack.
func opcodeCodeSeparator(op *opcode, data []byte, vm *Engine) error {
	vm.lastCodeSep = vm.chunkIdx + 1
	return nil
}

// opcodeCheckSig treats the top 2 items on the stack as a public key and a
// signature and replaces them with a bool which indicates if the signature
// was successfully verified against the digest of the spending transaction.
//
// Stack transformation: [... signature pubkey] -> [... bool]
func opcodeCheckSig(op *opcode, data []byte, vm *Engine) error {
	pkBytes, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}
	fullSigBytes, err := vm.dstack.PopByteArray()
	if err != nil {
		return err
	}

	valid, err := vm.checkSig(fullSigBytes, pkBytes)
	if err != nil {
		return err
	}
	vm.dstack.PushBool(valid)
	return nil
}

// opcodeCheckSigVerify is a combination of opcodeCheckSig and opcodeVerify.
//
// Stack transformation: [... signature pubkey] -> [... bool] -> [...]
func opcodeCheckSigVerify(op *opcode, data []byte, vm *Engine) error {
	err := opcodeCheckSig(op, data, vm)
	if err == nil {
		err = abstractVerify(op, vm, ErrCheckSigVerify)
	}
	return err
}

// opcodeCheckMultiSig treats the top item on the stack as an integer number
// of public keys, followed by that many entries as raw data representing the
// public keys, followed by the integer number of signatures, followed by that
// many entries as raw data representing the signatures.
//
// Due to a bug in the original Satoshi client, the opcode also consumes one
// extra item from the stack beyond its declared operands.
//
// All of the public key and signature data is verified in order: a signature
// that fails against one key is retried against the remaining keys, but keys
// once passed over are never revisited, so signatures must appear in the same
// relative order as the keys they match.
//
// Stack transformation:
// [... dummy [sig ...] numsigs [pubkey ...] numpubkeys] -> [... bool]
func opcodeCheckMultiSig(op *opcode, data []byte, vm *Engine) error {
	numKeys, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}

	numPubKeys := int(numKeys.Int32())
	if numPubKeys < 0 || numPubKeys > MaxPubKeysPerMultiSig {
		str := fmt.Sprintf("number of pubkeys %d is invalid", numPubKeys)
		return scriptError(ErrInvalidMultiSigParams, str)
	}

	pubKeys := make([][]byte, 0, numPubKeys)
	for i := 0; i < numPubKeys; i++ {
		pubKey, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		pubKeys = append(pubKeys, pubKey)
	}

	numSigs, err := vm.dstack.PopInt(script.MaxNumLen)
	if err != nil {
		return err
	}
	numSignatures := int(numSigs.Int32())
	if numSignatures < 0 || numSignatures > numPubKeys {
		str := fmt.Sprintf("number of signatures %d is invalid for %d "+
			"pubkeys", numSignatures, numPubKeys)
		return scriptError(ErrInvalidMultiSigParams, str)
	}

	signatures := make([][]byte, 0, numSignatures)
	for i := 0; i < numSignatures; i++ {
		signature, err := vm.dstack.PopByteArray()
		if err != nil {
			return err
		}
		signatures = append(signatures, signature)
	}

	// The extra pop.
	if _, err := vm.dstack.PopByteArray(); err != nil {
		return err
	}

	success := true
	numPubKeys++
	pubKeyIdx := -1
	signatureIdx := 0
	for numSignatures > 0 {
		// When there are more signatures than public keys remaining,
		// there is no way to succeed since too many signatures are
		// invalid, so exit early.
		pubKeyIdx++
		numPubKeys--
		if numSignatures > numPubKeys {
			success = false
			break
		}

		signature := signatures[signatureIdx]
		pubKey := pubKeys[pubKeyIdx]

		valid, err := vm.checkSig(signature, pubKey)
		if err != nil {
			return err
		}
		if valid {
			signatureIdx++
			numSignatures--
		}
	}

	vm.dstack.PushBool(success)
	return nil
}

// opcodeCheckMultiSigVerify is a combination of opcodeCheckMultiSig and
// opcodeVerify.
//
// Stack transformation:
// [... dummy [sig ...] numsigs [pubkey ...] numpubkeys] -> [... bool] -> [...]
func opcodeCheckMultiSigVerify(op *opcode, data []byte, vm *Engine) error {
	err := opcodeCheckMultiSig(op, data, vm)
	if err == nil {
		err = abstractVerify(op, vm, ErrCheckMultiSigVerify)
	}
	return err
}
