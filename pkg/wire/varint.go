package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncatedInput is returned when the input ends before the number of
// bytes a length prefix or fixed-width field declares.
var ErrTruncatedInput = errors.New("wire: truncated input")

// MaxVarIntPayload is the maximum payload size a varint length prefix is
// allowed to declare. It keeps a corrupt or hostile prefix from driving a
// giant allocation before any payload bytes have been seen.
const MaxVarIntPayload = 1 << 25 // 32 MiB

// ReadVarInt reads a variable length integer from r.
//
// The encoding uses 1 byte for values below 0xfd, and otherwise a discriminant
// byte (0xfd/0xfe/0xff) followed by a little-endian uint16/uint32/uint64.
func ReadVarInt(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, truncated(err)
	}

	switch buf[0] {
	case 0xfd:
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return 0, truncated(err)
		}
		return uint64(binary.LittleEndian.Uint16(buf[:2])), nil

	case 0xfe:
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return 0, truncated(err)
		}
		return uint64(binary.LittleEndian.Uint32(buf[:4])), nil

	case 0xff:
		if _, err := io.ReadFull(r, buf[:8]); err != nil {
			return 0, truncated(err)
		}
		return binary.LittleEndian.Uint64(buf[:8]), nil

	default:
		return uint64(buf[0]), nil
	}
}

// WriteVarInt serializes val to w using the variable length integer format.
func WriteVarInt(w io.Writer, val uint64) error {
	var buf [9]byte
	switch {
	case val < 0xfd:
		buf[0] = byte(val)
		_, err := w.Write(buf[:1])
		return err

	case val <= 0xffff:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:3], uint16(val))
		_, err := w.Write(buf[:3])
		return err

	case val <= 0xffffffff:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:5], uint32(val))
		_, err := w.Write(buf[:5])
		return err

	default:
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:9], val)
		_, err := w.Write(buf[:9])
		return err
	}
}

// VarIntSerializeSize returns the number of bytes WriteVarInt emits for val.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a varint length prefix followed by that many raw bytes.
func ReadVarBytes(r io.Reader) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > MaxVarIntPayload {
		return nil, fmt.Errorf("wire: declared payload of %d bytes exceeds max %d",
			count, MaxVarIntPayload)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, truncated(err)
	}
	return b, nil
}

// WriteVarBytes serializes b to w as a varint length prefix plus raw bytes.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// truncated maps short-read errors onto ErrTruncatedInput so callers can test
// for one condition regardless of where the reader ran dry.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedInput
	}
	return err
}
