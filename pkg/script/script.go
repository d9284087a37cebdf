// Package script implements parsing, serialization and construction of the
// stack-based bytecode carried in transaction inputs and outputs.
package script

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MaxScriptElementSize is the maximum number of bytes a single pushed
// element may occupy. The historical 520-byte consensus cap no longer applies
// to this rule set, so the limit here only bounds allocations.
const MaxScriptElementSize = 1 << 20

// ErrMalformedPush is returned when a push opcode declares more bytes than
// remain in the script.
var ErrMalformedPush = errors.New("script: push past end of script")

// Chunk is one parsed script element: either a bare opcode or a data push.
// Data is non-nil exactly when the chunk is a push (a zero-length push keeps
// a non-nil empty slice so it stays distinguishable from OP_0).
type Chunk struct {
	Op   byte
	Data []byte
}

// IsPush reports whether the chunk carries pushed data.
func (c Chunk) IsPush() bool {
	return c.Data != nil
}

// String renders the chunk for disassembly: the opcode name, or the pushed
// bytes as hex.
func (c Chunk) String() string {
	if !c.IsPush() {
		return OpcodeName(c.Op)
	}
	if len(c.Data) == 0 {
		return "OP_0"
	}
	return "0x" + hex.EncodeToString(c.Data)
}

// Script is an ordered sequence of chunks.
type Script []Chunk

// Parse decodes raw script bytes into chunks. All four push forms are
// accepted (direct length 1-75, OP_PUSHDATA1/2/4) without requiring the
// canonical one; unassigned opcode values parse into generic chunks rather
// than failing, since scripts may legally contain opcodes this engine does
// not execute.
func Parse(b []byte) (Script, error) {
	script := make(Script, 0, len(b))
	for i := 0; i < len(b); {
		op := b[i]
		i++

		var dataLen int
		switch {
		case op >= 1 && op <= 75:
			dataLen = int(op)

		case op == OP_PUSHDATA1:
			if len(b)-i < 1 {
				return nil, fmt.Errorf("%w: OP_PUSHDATA1 missing length byte",
					ErrMalformedPush)
			}
			dataLen = int(b[i])
			i++

		case op == OP_PUSHDATA2:
			if len(b)-i < 2 {
				return nil, fmt.Errorf("%w: OP_PUSHDATA2 missing length bytes",
					ErrMalformedPush)
			}
			dataLen = int(binary.LittleEndian.Uint16(b[i : i+2]))
			i += 2

		case op == OP_PUSHDATA4:
			if len(b)-i < 4 {
				return nil, fmt.Errorf("%w: OP_PUSHDATA4 missing length bytes",
					ErrMalformedPush)
			}
			dataLen = int(binary.LittleEndian.Uint32(b[i : i+4]))
			i += 4

		default:
			script = append(script, Chunk{Op: op})
			continue
		}

		if dataLen < 0 || len(b)-i < dataLen {
			return nil, fmt.Errorf("%w: opcode %s declares %d bytes, %d remain",
				ErrMalformedPush, OpcodeName(op), dataLen, len(b)-i)
		}
		data := make([]byte, dataLen)
		copy(data, b[i:i+dataLen])
		script = append(script, Chunk{Op: op, Data: data})
		i += dataLen
	}
	return script, nil
}

// Bytes serializes the script. Push chunks are re-emitted using the shortest
// applicable push form regardless of the form they were parsed from, so the
// output of this encoder always round-trips through Parse unchanged.
func (s Script) Bytes() []byte {
	buf := make([]byte, 0, s.serializeSize())
	for _, c := range s {
		if !c.IsPush() {
			buf = append(buf, c.Op)
			continue
		}
		buf = appendPush(buf, c.Data)
	}
	return buf
}

// appendPush emits data using the canonical (shortest) push form.
func appendPush(buf, data []byte) []byte {
	switch n := len(data); {
	case n == 0:
		return append(buf, OP_0)
	case n <= 75:
		buf = append(buf, byte(n))
	case n <= 0xff:
		buf = append(buf, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		buf = append(buf, OP_PUSHDATA2, byte(n), byte(n>>8))
	default:
		buf = append(buf, OP_PUSHDATA4,
			byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
	return append(buf, data...)
}

func (s Script) serializeSize() int {
	n := 0
	for _, c := range s {
		switch l := len(c.Data); {
		case !c.IsPush() || l == 0:
			n++
		case l <= 75:
			n += 1 + l
		case l <= 0xff:
			n += 2 + l
		case l <= 0xffff:
			n += 3 + l
		default:
			n += 5 + l
		}
	}
	return n
}

// String disassembles the script, one chunk per space-separated token.
func (s Script) String() string {
	tokens := make([]string, len(s))
	for i, c := range s {
		tokens[i] = c.String()
	}
	return strings.Join(tokens, " ")
}

// Equal reports whether two scripts have identical chunk sequences.
func (s Script) Equal(other Script) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].IsPush() != other[i].IsPush() {
			return false
		}
		if s[i].IsPush() {
			if string(s[i].Data) != string(other[i].Data) {
				return false
			}
			continue
		}
		if s[i].Op != other[i].Op {
			return false
		}
	}
	return true
}

// IsPushOnly reports whether every chunk in the script is a data push or a
// small-integer opcode. Unlocking scripts must be push only.
func (s Script) IsPushOnly() bool {
	for _, c := range s {
		if !c.IsPush() && !IsSmallInt(c.Op) {
			return false
		}
	}
	return true
}

// IsDataOutput reports whether the script is a provably unspendable data
// carrier: OP_RETURN first, or the zero-value OP_FALSE OP_RETURN form.
func (s Script) IsDataOutput() bool {
	if len(s) == 0 {
		return false
	}
	if !s[0].IsPush() && s[0].Op == OP_RETURN {
		return true
	}
	return len(s) >= 2 &&
		!s[0].IsPush() && s[0].Op == OP_0 &&
		!s[1].IsPush() && s[1].Op == OP_RETURN
}
