package contract

import "github.com/bitfold/bsv/pkg/script"

// OpReturn is the unspendable data-carrier template: a zero-value output
// whose script is OP_FALSE OP_RETURN followed by arbitrary data pushes.
type OpReturn struct {
	Data [][]byte
}

// NewOpReturn returns a data-carrier template over the given payloads.
func NewOpReturn(data ...[]byte) *OpReturn {
	return &OpReturn{Data: data}
}

// Lock builds the locking script: OP_FALSE OP_RETURN <data>...
func (t *OpReturn) Lock() (script.Script, error) {
	b := script.NewBuilder().
		AddOp(script.OP_FALSE).
		AddOp(script.OP_RETURN)
	for i, d := range t.Data {
		if len(d) > script.MaxScriptElementSize {
			return nil, paramErrorf("opreturn", "Data",
				"push %d of %d bytes exceeds element limit", i, len(d))
		}
		b.AddData(d)
	}
	return b.Script()
}

// Unlock always fails: a data carrier is provably unspendable.
func (t *OpReturn) Unlock(ctx *Context) (script.Script, error) {
	return nil, paramErrorf("opreturn", "template", "output is unspendable")
}
