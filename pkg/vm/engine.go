// Package vm implements a virtual machine that executes the stack-based
// bytecode carried in transaction scripts.
//
// The machine runs an unlocking script followed by the locking script of the
// output it spends, over a shared data stack. Evaluation succeeds when every
// script finishes and leaves a true element on top of the stack. Signature
// opcodes re-derive the signature digest from the spending transaction, so
// an engine validating a spend must be given the transaction, the input
// index and the unspent output it consumes.
package vm

import (
	"fmt"

	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/wire"
)

// Conditional execution constants for the conditional stack.
const (
	OpCondFalse = 0
	OpCondTrue  = 1
	OpCondSkip  = 2
)

// Engine is the virtual machine that executes scripts.
type Engine struct {
	// The following fields are set when the engine is created and must not
	// be changed afterwards.
	//
	// tx identifies the transaction that contains the input which in turn
	// contains the unlocking script being executed. It is nil when the
	// engine runs bare scripts with no spending context, in which case the
	// opcodes that inspect the transaction fail with ErrNoTransaction.
	//
	// txIdx identifies the input index within the transaction that
	// contains the unlocking script being executed.
	//
	// utxo is the output being spent. Its locking script and amount feed
	// the signature digest.
	tx    *wire.MsgTx
	txIdx int
	utxo  *wire.UTXO

	// The following fields handle keeping track of the current execution
	// state of the engine.
	//
	// scripts houses the parsed scripts that are executed by the engine.
	// This includes the unlocking script as well as the locking script.
	//
	// scriptIdx tracks the index into the scripts array for the current
	// program counter, and chunkIdx the chunk within that script.
	//
	// lastCodeSep specifies the chunk position within the current script
	// of the last OP_CODESEPARATOR.
	//
	// dstack is the primary data stack the various opcodes push and pop
	// data to and from during execution.
	//
	// astack is the alternate data stack the various opcodes push and pop
	// data to and from during execution.
	//
	// condStack tracks the conditional execution state with support for
	// multiple nested conditional execution opcodes.
	scripts     []script.Script
	scriptIdx   int
	chunkIdx    int
	lastCodeSep int
	dstack      stack
	astack      stack
	condStack   []int

	// stepCallback is an optional function that will be called every time
	// a step has been performed during script execution.
	//
	// NOTE: This is only meant to be used in debugging, and SHOULD NOT BE
	// USED during regular operation.
	stepCallback func(*StepInfo) error
}

// StepInfo houses the current VM state information that is passed back to the
// stepCallback during script execution.
type StepInfo struct {
	// ScriptIndex is the index of the script currently being executed by
	// the Engine.
	ScriptIndex int

	// ChunkIndex is the index of the next chunk that will be executed. In
	// case the execution has completed, the chunk index will be
	// incremented beyond the number of the current script's chunks. This
	// indicates no new script is being executed, and execution is done.
	ChunkIndex int

	// Stack is the Engine's current content on the stack.
	Stack [][]byte

	// AltStack is the Engine's current content on the alt stack.
	AltStack [][]byte
}

// hasTx reports whether the engine was created with a spending transaction.
func (vm *Engine) hasTx() bool {
	return vm.tx != nil && vm.utxo != nil
}

// isBranchExecuting returns whether or not the current conditional branch is
// actively executing. For example, when the data stack has an OP_FALSE on it
// and an OP_IF is encountered, the branch is inactive until an OP_ELSE or
// OP_ENDIF is encountered. It properly handles nested conditionals.
func (vm *Engine) isBranchExecuting() bool {
	if len(vm.condStack) == 0 {
		return true
	}
	return vm.condStack[len(vm.condStack)-1] == OpCondTrue
}

// isOpcodeAlwaysIllegal returns whether or not the opcode is always illegal
// when passed over by the program counter even if in a non-executed branch (it
// isn't a coincidence that they are conditionals).
func isOpcodeAlwaysIllegal(op byte) bool {
	switch op {
	case script.OP_VERIF:
		return true
	case script.OP_VERNOTIF:
		return true
	default:
		return false
	}
}

// isOpcodeDisabled returns whether or not the opcode is disabled and thus is
// always illegal when passed over by the program counter even if in a
// non-executed branch.
func isOpcodeDisabled(op byte) bool {
	switch op {
	case script.OP_2MUL:
		return true
	case script.OP_2DIV:
		return true
	default:
		return false
	}
}

// isOpcodeConditional returns whether or not the opcode is a conditional
// opcode which changes the conditional execution stack when executed.
func isOpcodeConditional(op byte) bool {
	switch op {
	case script.OP_IF:
		return true
	case script.OP_NOTIF:
		return true
	case script.OP_ELSE:
		return true
	case script.OP_ENDIF:
		return true
	default:
		return false
	}
}

// executeChunk performs execution on the passed chunk. It takes into account
// whether or not it is hidden by conditionals, but some rules still must be
// tested in this case.
func (vm *Engine) executeChunk(c script.Chunk) error {
	if isOpcodeDisabled(c.Op) && !c.IsPush() {
		str := fmt.Sprintf("attempt to execute disabled opcode %s",
			script.OpcodeName(c.Op))
		return scriptError(ErrDisabledOpcode, str)
	}
	if isOpcodeAlwaysIllegal(c.Op) && !c.IsPush() {
		str := fmt.Sprintf("attempt to execute reserved opcode %s",
			script.OpcodeName(c.Op))
		return scriptError(ErrReservedOpcode, str)
	}

	if len(c.Data) > script.MaxScriptElementSize {
		str := fmt.Sprintf("element size %d exceeds max allowed size %d",
			len(c.Data), script.MaxScriptElementSize)
		return scriptError(ErrElementTooBig, str)
	}

	// Nothing left to do when this is not a conditional opcode and it is
	// not in an executing branch.
	if !vm.isBranchExecuting() && !(!c.IsPush() && isOpcodeConditional(c.Op)) {
		return nil
	}

	if c.IsPush() {
		vm.dstack.PushByteArray(c.Data)
		return nil
	}

	op := &opcodeArray[c.Op]
	return op.opfunc(op, c.Data, vm)
}

// checkValidPC returns an error if the current script position is not valid
// for execution.
func (vm *Engine) checkValidPC() error {
	if vm.scriptIdx >= len(vm.scripts) {
		str := fmt.Sprintf("script index %d beyond total scripts %d",
			vm.scriptIdx, len(vm.scripts))
		return scriptError(ErrInvalidProgramCounter, str)
	}
	return nil
}

// DisasmPC returns the string for the disassembly of the chunk that will be
// next to execute when Step is called.
func (vm *Engine) DisasmPC() (string, error) {
	if err := vm.checkValidPC(); err != nil {
		return "", err
	}
	s := vm.scripts[vm.scriptIdx]
	if vm.chunkIdx >= len(s) {
		str := fmt.Sprintf("program counter beyond script index %d", vm.scriptIdx)
		return "", scriptError(ErrInvalidProgramCounter, str)
	}
	return fmt.Sprintf("%02x:%04x: %s", vm.scriptIdx, vm.chunkIdx,
		s[vm.chunkIdx].String()), nil
}

// CheckErrorCondition returns nil if the running script has ended and was
// successful, leaving a true boolean on the stack. An error otherwise,
// including if the script has not finished.
func (vm *Engine) CheckErrorCondition(finalScript bool) error {
	// Check execution is actually done by ensuring the script index is
	// after the final script in the array script.
	if vm.scriptIdx < len(vm.scripts) {
		return scriptError(ErrScriptUnfinished,
			"error check when script unfinished")
	}

	if vm.dstack.Depth() < 1 {
		return scriptError(ErrEmptyStack,
			"stack empty at end of script execution")
	}

	v, err := vm.dstack.PopBool()
	if err != nil {
		return err
	}
	if !v {
		return scriptError(ErrEvalFalse,
			"false stack entry at end of script execution")
	}
	return nil
}

// Step executes the next instruction and moves the program counter to the
// next chunk in the script, or the next script if the current has ended. Step
// will return true in the case that the last chunk was successfully executed.
//
// The result of calling Step or any other method is undefined if an error is
// returned.
func (vm *Engine) Step() (done bool, err error) {
	// Verify the engine is pointing to a valid program counter.
	if err := vm.checkValidPC(); err != nil {
		return true, err
	}

	s := vm.scripts[vm.scriptIdx]
	if vm.chunkIdx >= len(s) {
		str := fmt.Sprintf("attempt to step beyond script index %d",
			vm.scriptIdx)
		return true, scriptError(ErrInvalidProgramCounter, str)
	}

	// Execute the chunk while taking into account disabled opcodes,
	// illegal opcodes, maximum script element sizes, and conditionals.
	err = vm.executeChunk(s[vm.chunkIdx])
	if err != nil {
		return true, err
	}

	// Prepare for next instruction.
	vm.chunkIdx++
	if vm.chunkIdx >= len(s) {
		// Illegal to have a conditional that straddles two scripts.
		if len(vm.condStack) != 0 {
			return false, scriptError(ErrUnbalancedConditional,
				"end of script reached in conditional execution")
		}

		// Alt stack doesn't persist between scripts.
		if vm.astack.Depth() > 0 {
			_ = vm.astack.DropN(vm.astack.Depth())
		}

		// Reset the chunk index and advance to the next script,
		// skipping empty ones.
		vm.chunkIdx = 0
		vm.lastCodeSep = 0
		vm.scriptIdx++
		for vm.scriptIdx < len(vm.scripts) && len(vm.scripts[vm.scriptIdx]) == 0 {
			vm.scriptIdx++
		}
		if vm.scriptIdx >= len(vm.scripts) {
			return true, nil
		}
	}

	return false, nil
}

// copyStack makes a deep copy of the provided slice.
func copyStack(stk [][]byte) [][]byte {
	c := make([][]byte, len(stk))
	for i := range stk {
		c[i] = make([]byte, len(stk[i]))
		copy(c[i][:], stk[i][:])
	}
	return c
}

// Execute will execute all scripts in the script engine and return either nil
// for successful validation or an error if one occurred.
func (vm *Engine) Execute() (err error) {
	// If the stepCallback is set, we start by making a call back with the
	// initial engine state.
	var stepInfo *StepInfo
	if vm.stepCallback != nil {
		stepInfo = &StepInfo{
			ScriptIndex: vm.scriptIdx,
			ChunkIndex:  vm.chunkIdx,
			Stack:       copyStack(vm.dstack.stk),
			AltStack:    copyStack(vm.astack.stk),
		}
		if err := vm.stepCallback(stepInfo); err != nil {
			return err
		}
	}

	done := false
	for !done {
		done, err = vm.Step()
		if err != nil {
			return err
		}

		if vm.stepCallback != nil {
			scriptIdx := vm.scriptIdx
			chunkIdx := vm.chunkIdx

			// In case the execution has completed, we keep the
			// current script index while increasing the chunk
			// index. This is to indicate that no new script is
			// being executed.
			if done {
				scriptIdx = stepInfo.ScriptIndex
				chunkIdx = stepInfo.ChunkIndex + 1
			}

			stepInfo = &StepInfo{
				ScriptIndex: scriptIdx,
				ChunkIndex:  chunkIdx,
				Stack:       copyStack(vm.dstack.stk),
				AltStack:    copyStack(vm.astack.stk),
			}
			if err := vm.stepCallback(stepInfo); err != nil {
				return err
			}
		}
	}

	return vm.CheckErrorCondition(true)
}

// subScript returns the script since the last OP_CODESEPARATOR as raw bytes.
// It feeds the signature digest as the script code.
func (vm *Engine) subScript() []byte {
	return vm.scripts[vm.scriptIdx][vm.lastCodeSep:].Bytes()
}

// getStack returns the contents of stack as a byte array bottom up.
func getStack(stack *stack) [][]byte {
	array := make([][]byte, stack.Depth())
	for i := range array {
		// PeekByteArray can't fail due to overflow, already checked.
		array[len(array)-i-1], _ = stack.PeekByteArray(int32(i))
	}
	return array
}

// setStack sets the stack to the contents of the array where the last item in
// the array is the top item in the stack.
func setStack(stack *stack, data [][]byte) {
	// This can not error. Only errors are for invalid arguments.
	if stack.Depth() > 0 {
		_ = stack.DropN(stack.Depth())
	}
	for i := range data {
		stack.PushByteArray(data[i])
	}
}

// GetStack returns the contents of the primary stack as an array. where the
// last item in the array is the top of the stack.
func (vm *Engine) GetStack() [][]byte {
	return getStack(&vm.dstack)
}

// SetStack sets the contents of the primary stack to the contents of the
// provided array where the last item in the array will be the top of the
// stack.
func (vm *Engine) SetStack(data [][]byte) {
	setStack(&vm.dstack, data)
}

// GetAltStack returns the contents of the alternate stack as an array where
// the last item in the array is the top of the stack.
func (vm *Engine) GetAltStack() [][]byte {
	return getStack(&vm.astack)
}

// SetAltStack sets the contents of the alternate stack to the contents of the
// provided array where the last item in the array will be the top of the
// stack.
func (vm *Engine) SetAltStack(data [][]byte) {
	setStack(&vm.astack, data)
}

// NewEngine returns a new script engine that validates spending input txIdx
// of tx against the output it consumes. The unlocking script is taken from
// the transaction input and must contain only data pushes.
func NewEngine(tx *wire.MsgTx, txIdx int, utxo *wire.UTXO) (*Engine, error) {
	// The provided transaction input index must refer to a valid input.
	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}
	scriptSig := tx.TxIn[txIdx].SignatureScript
	scriptPubKey := utxo.PkScript()

	// When both the unlocking script and locking script are empty the
	// result is necessarily an error since the stack would end up being
	// empty which is equivalent to a false top element. Thus, just return
	// the relevant error now as an optimization.
	if len(scriptSig) == 0 && len(scriptPubKey) == 0 {
		return nil, scriptError(ErrEvalFalse,
			"false stack entry at end of script execution")
	}

	unlock, err := script.Parse(scriptSig)
	if err != nil {
		return nil, err
	}
	if !unlock.IsPushOnly() {
		return nil, scriptError(ErrNotPushOnly,
			"unlocking script is not push only")
	}
	lock, err := script.Parse(scriptPubKey)
	if err != nil {
		return nil, err
	}

	vm := Engine{
		tx:    tx,
		txIdx: txIdx,
		utxo:  utxo,
	}
	vm.setScripts(unlock, lock)
	return &vm, nil
}

// NewScriptEngine returns an engine that runs the provided scripts in
// sequence over a shared stack with no spending transaction attached. The
// opcodes that inspect the transaction fail under such an engine; everything
// else behaves normally. This is the entry point for exercising bare scripts.
func NewScriptEngine(scripts ...script.Script) (*Engine, error) {
	if len(scripts) == 0 {
		return nil, scriptError(ErrInvalidIndex, "no scripts to execute")
	}
	vm := Engine{}
	vm.setScripts(scripts...)
	return &vm, nil
}

// NewDebugEngine returns a new script engine with a script execution callback
// set. This is useful for debugging script execution.
func NewDebugEngine(tx *wire.MsgTx, txIdx int, utxo *wire.UTXO,
	stepCallback func(*StepInfo) error) (*Engine, error) {

	vm, err := NewEngine(tx, txIdx, utxo)
	if err != nil {
		return nil, err
	}
	vm.stepCallback = stepCallback
	return vm, nil
}

// setScripts installs the script sequence and positions the program counter
// on the first non-empty script.
func (vm *Engine) setScripts(scripts ...script.Script) {
	vm.scripts = scripts
	for vm.scriptIdx < len(vm.scripts) && len(vm.scripts[vm.scriptIdx]) == 0 {
		vm.scriptIdx++
	}
}
