package vm

import "fmt"

// ErrorCode identifies a kind of script failure.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrInvalidIndex is returned when an out-of-bounds index is passed to
	// a function, including a transaction input index that does not name
	// an input of the transaction being executed.
	ErrInvalidIndex ErrorCode = iota

	// ErrInvalidProgramCounter is returned when the program counter is
	// stepped or inspected past the end of the script array.
	ErrInvalidProgramCounter

	// ErrNotPushOnly is returned when an unlocking script contains opcodes
	// other than data pushes.
	ErrNotPushOnly

	// ErrEarlyReturn is returned when OP_RETURN executes in an active
	// branch.
	ErrEarlyReturn

	// ErrEmptyStack is returned when the stack is empty after the final
	// script finishes.
	ErrEmptyStack

	// ErrEvalFalse is returned when the final script finishes with a false
	// top stack element.
	ErrEvalFalse

	// ErrScriptUnfinished is returned when CheckErrorCondition is called
	// on a script that has not finished executing.
	ErrScriptUnfinished

	// ErrInvalidStackOperation is returned when a stack operation accesses
	// more elements than the stack holds or uses an invalid index.
	ErrInvalidStackOperation

	// ErrUnbalancedConditional is returned when OP_ELSE or OP_ENDIF
	// execute without a matching OP_IF or OP_NOTIF, or when a conditional
	// remains open at the end of a script.
	ErrUnbalancedConditional

	// ErrDisabledOpcode is returned when a permanently disabled opcode
	// appears in a script, whether or not it would execute.
	ErrDisabledOpcode

	// ErrReservedOpcode is returned when an executed opcode is reserved
	// with no assigned semantics.
	ErrReservedOpcode

	// ErrElementTooBig is returned when an operation would produce a stack
	// element larger than the maximum element size.
	ErrElementTooBig

	// ErrNumberTooBig is returned when an arithmetic operand exceeds the
	// numeric operand size limit.
	ErrNumberTooBig

	// ErrVerify is returned when OP_VERIFY pops a false element.
	ErrVerify

	// ErrEqualVerify is returned when OP_EQUALVERIFY pops unequal
	// elements.
	ErrEqualVerify

	// ErrNumEqualVerify is returned when OP_NUMEQUALVERIFY pops unequal
	// numbers.
	ErrNumEqualVerify

	// ErrCheckSigVerify is returned when OP_CHECKSIGVERIFY fails.
	ErrCheckSigVerify

	// ErrCheckMultiSigVerify is returned when OP_CHECKMULTISIGVERIFY
	// fails.
	ErrCheckMultiSigVerify

	// ErrInvalidSplitRange is returned when OP_SPLIT is given a position
	// outside the element being split.
	ErrInvalidSplitRange

	// ErrInvalidNumberRange is returned when OP_NUM2BIN is asked to encode
	// a number into fewer bytes than its magnitude requires, or into an
	// invalid size.
	ErrInvalidNumberRange

	// ErrInvalidOperandSize is returned when a bitwise operation is given
	// operands of unequal length.
	ErrInvalidOperandSize

	// ErrDivideByZero is returned when OP_DIV or OP_MOD is given a zero
	// divisor.
	ErrDivideByZero

	// ErrInvalidMultiSigParams is returned when the key or signature
	// counts given to OP_CHECKMULTISIG are out of range.
	ErrInvalidMultiSigParams

	// ErrNegativeLockTime is returned when a locktime given to
	// OP_CHECKLOCKTIMEVERIFY or OP_CHECKSEQUENCEVERIFY is negative.
	ErrNegativeLockTime

	// ErrUnsatisfiedLockTime is returned when the transaction's locktime
	// or the input's sequence does not satisfy the script's requirement.
	ErrUnsatisfiedLockTime

	// ErrNoTransaction is returned when an opcode that inspects the
	// spending transaction executes in an engine created without one.
	ErrNoTransaction

	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidIndex:          "ErrInvalidIndex",
	ErrInvalidProgramCounter: "ErrInvalidProgramCounter",
	ErrNotPushOnly:           "ErrNotPushOnly",
	ErrEarlyReturn:           "ErrEarlyReturn",
	ErrEmptyStack:            "ErrEmptyStack",
	ErrEvalFalse:             "ErrEvalFalse",
	ErrScriptUnfinished:      "ErrScriptUnfinished",
	ErrInvalidStackOperation: "ErrInvalidStackOperation",
	ErrUnbalancedConditional: "ErrUnbalancedConditional",
	ErrDisabledOpcode:        "ErrDisabledOpcode",
	ErrReservedOpcode:        "ErrReservedOpcode",
	ErrElementTooBig:         "ErrElementTooBig",
	ErrNumberTooBig:          "ErrNumberTooBig",
	ErrVerify:                "ErrVerify",
	ErrEqualVerify:           "ErrEqualVerify",
	ErrNumEqualVerify:        "ErrNumEqualVerify",
	ErrCheckSigVerify:        "ErrCheckSigVerify",
	ErrCheckMultiSigVerify:   "ErrCheckMultiSigVerify",
	ErrInvalidSplitRange:     "ErrInvalidSplitRange",
	ErrInvalidNumberRange:    "ErrInvalidNumberRange",
	ErrInvalidOperandSize:    "ErrInvalidOperandSize",
	ErrDivideByZero:          "ErrDivideByZero",
	ErrInvalidMultiSigParams: "ErrInvalidMultiSigParams",
	ErrNegativeLockTime:      "ErrNegativeLockTime",
	ErrUnsatisfiedLockTime:   "ErrUnsatisfiedLockTime",
	ErrNoTransaction:         "ErrNoTransaction",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a script failure. It has a distinct code so callers can
// programmatically detect the specific failure mode via IsErrorCode.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// scriptError creates an Error given a set of arguments.
func scriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a script error
// with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	serr, ok := err.(Error)
	return ok && serr.ErrorCode == c
}
