// Package contract implements script templates for the common output types
// and a simulation driver that proves a template's unlocking script actually
// spends its locking script.
//
// A template validates its parameters eagerly: malformed arguments surface as
// a *ParamError when the script is built, before any virtual machine
// involvement, so the caller can distinguish programmer errors from
// data-dependent evaluation failures.
package contract

import (
	"fmt"

	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/sighash"
	"github.com/bitfold/bsv/pkg/wire"
)

// ParamError reports an invalid template argument. It is raised at script
// build time and never by the virtual machine.
type ParamError struct {
	Template string
	Param    string
	Reason   string
}

// Error satisfies the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("contract: %s: invalid %s: %s",
		e.Template, e.Param, e.Reason)
}

// paramErrorf creates a ParamError for the given template and parameter.
func paramErrorf(template, param, format string, args ...interface{}) *ParamError {
	return &ParamError{
		Template: template,
		Param:    param,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// Context carries the spending context an unlocking script is built against:
// the transaction being signed, the input being unlocked, the output it
// spends, and the sighash flag to sign with.
type Context struct {
	Tx       *wire.MsgTx
	InputIdx int
	Utxo     *wire.UTXO
	HashType sighash.Flag
}

// Flag returns the context's sighash flag, defaulting when unset.
func (c *Context) Flag() sighash.Flag {
	if c.HashType == 0 {
		return sighash.Default
	}
	return c.HashType
}

// Digest computes the signature digest for the context.
func (c *Context) Digest() ([]byte, error) {
	return sighash.Digest(c.Tx, c.InputIdx, c.Utxo, c.Flag())
}

// Template is the capability set shared by all contract variants: building
// the locking script placed in an output, and building the unlocking script
// that spends it given a spending context.
type Template interface {
	// Lock builds the locking script.
	Lock() (script.Script, error)

	// Unlock builds the unlocking script spending the locking script in
	// the given context.
	Unlock(ctx *Context) (script.Script, error)
}
