package script

import "fmt"

// Builder provides a fluent interface for constructing scripts chunk by
// chunk. Errors stick: once an add fails, further calls are no-ops and the
// first error is reported by Script.
//
//	lock, err := script.NewBuilder().
//		AddOp(script.OP_DUP).
//		AddOp(script.OP_HASH160).
//		AddData(pubKeyHash).
//		AddOp(script.OP_EQUALVERIFY).
//		AddOp(script.OP_CHECKSIG).
//		Script()
type Builder struct {
	script Script
	err    error
}

// NewBuilder returns an empty script builder.
func NewBuilder() *Builder {
	return &Builder{script: make(Script, 0, 16)}
}

// AddOp appends a bare opcode chunk.
func (b *Builder) AddOp(op byte) *Builder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, Chunk{Op: op})
	return b
}

// AddOps appends several bare opcode chunks.
func (b *Builder) AddOps(ops ...byte) *Builder {
	for _, op := range ops {
		b.AddOp(op)
	}
	return b
}

// AddOpName appends an opcode chunk by its canonical name.
func (b *Builder) AddOpName(name string) *Builder {
	if b.err != nil {
		return b
	}
	op, ok := OpcodeValue(name)
	if !ok {
		b.err = fmt.Errorf("script: unknown opcode name %q", name)
		return b
	}
	return b.AddOp(op)
}

// AddData appends a data push chunk. Empty data is appended as OP_0 so the
// built script always round-trips through Parse. Pushes beyond the element
// size limit are rejected.
func (b *Builder) AddData(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(data) == 0 {
		return b.AddOp(OP_0)
	}
	if len(data) > MaxScriptElementSize {
		b.err = fmt.Errorf("script: push of %d bytes exceeds element limit %d",
			len(data), MaxScriptElementSize)
		return b
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.script = append(b.script, Chunk{Op: pushOpFor(len(cp)), Data: cp})
	return b
}

// AddInt64 appends the canonical push for an integer: OP_1NEGATE and
// OP_0..OP_16 for the small values, a minimal number push otherwise.
func (b *Builder) AddInt64(val int64) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case val == 0:
		return b.AddOp(OP_0)
	case val == -1:
		return b.AddOp(OP_1NEGATE)
	case val >= 1 && val <= 16:
		return b.AddOp(OP_1 + byte(val-1))
	}
	return b.AddData(Num(val).Bytes())
}

// AddChunks appends already-built chunks, e.g. from a parsed script.
func (b *Builder) AddChunks(chunks Script) *Builder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, chunks...)
	return b
}

// Script returns the accumulated script, or the first error encountered
// while building it.
func (b *Builder) Script() (Script, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.script, nil
}

// pushOpFor returns the canonical push opcode for a data length.
func pushOpFor(n int) byte {
	switch {
	case n <= 75:
		return byte(n)
	case n <= 0xff:
		return OP_PUSHDATA1
	case n <= 0xffff:
		return OP_PUSHDATA2
	default:
		return OP_PUSHDATA4
	}
}
