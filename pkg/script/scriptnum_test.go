package script

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestNumBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Num
		want []byte
	}{
		{"zero", 0, nil},
		{"one", 1, []byte{0x01}},
		{"minus one", -1, []byte{0x81}},
		{"sixteen", 16, []byte{0x10}},
		{"twenty four", 24, []byte{0x18}},
		{"max single byte", 127, []byte{0x7f}},
		{"sign byte needed", 128, []byte{0x80, 0x00}},
		{"negative sign byte needed", -128, []byte{0x80, 0x80}},
		{"two fifty five", 255, []byte{0xff, 0x00}},
		{"two fifty six", 256, []byte{0x00, 0x01}},
		{"minus 12345", -12345, []byte{0x39, 0xb0}},
		{"max int32", 0x7fffffff, []byte{0xff, 0xff, 0xff, 0x7f}},
		{"min int32 plus one", -0x7fffffff, []byte{0xff, 0xff, 0xff, 0xff}},
		{"four billion", 4000000000, []byte{0x00, 0x28, 0x6b, 0xee, 0x00}},
		{"max int64", math.MaxInt64,
			[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}},
		{"min int64", math.MinInt64,
			[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x80}},
		{"min int64 plus one", math.MinInt64 + 1,
			[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, test := range tests {
		got := test.in.Bytes()
		if !bytes.Equal(got, test.want) {
			t.Errorf("%s: Bytes(%d) = %x, want %x",
				test.name, int64(test.in), got, test.want)
		}
	}
}

func TestMakeNum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     []byte
		maxLen int
		want   Num
		err    error
	}{
		{"empty is zero", nil, MaxNumLen, 0, nil},
		{"one", []byte{0x01}, MaxNumLen, 1, nil},
		{"minus one", []byte{0x81}, MaxNumLen, -1, nil},
		{"padded positive accepted", []byte{0x01, 0x00}, MaxNumLen, 1, nil},
		{"padded negative accepted", []byte{0x01, 0x80}, MaxNumLen, -1, nil},
		{"negative zero is zero", []byte{0x80}, MaxNumLen, 0, nil},
		{"minus 12345", []byte{0x39, 0xb0}, MaxNumLen, -12345, nil},
		{"four bytes ok", []byte{0xff, 0xff, 0xff, 0x7f}, MaxNumLen, 0x7fffffff, nil},
		{"five bytes rejected", []byte{0x01, 0x00, 0x00, 0x00, 0x00}, MaxNumLen, 0, ErrNumTooBig},
		{"five bytes with wider cap", []byte{0x01, 0x00, 0x00, 0x00, 0x00}, 5, 1, nil},
	}

	for _, test := range tests {
		got, err := MakeNum(test.in, test.maxLen)
		if !errors.Is(err, test.err) {
			t.Errorf("%s: error = %v, want %v", test.name, err, test.err)
			continue
		}
		if err == nil && got != test.want {
			t.Errorf("%s: MakeNum(%x) = %d, want %d",
				test.name, test.in, got, test.want)
		}
	}
}

func TestNumRoundTrip(t *testing.T) {
	t.Parallel()

	values := []int64{
		0, 1, -1, 2, -2, 24, 127, -127, 128, -128, 255, 256, 1000,
		-12345, 32767, -32768, 8388607, -8388608, 2147483647, -2147483647,
	}
	for _, v := range values {
		enc := Num(v).Bytes()
		dec, err := MakeNum(enc, MaxNumLen)
		if err != nil {
			t.Fatalf("MakeNum(%x): %v", enc, err)
		}
		if int64(dec) != v {
			t.Errorf("round trip %d -> %x -> %d", v, enc, dec)
		}
	}
}

func TestUnsignedNum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want Num
	}{
		{"single byte", []byte{24}, 24},
		{"padded 32 bit", []byte{24, 0, 0, 0}, 24},
		{"four billion", []byte{0x00, 0x28, 0x6b, 0xee}, 4000000000},
	}
	for _, test := range tests {
		got, err := UnsignedNum(test.in)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if got != test.want {
			t.Errorf("%s: UnsignedNum(%x) = %d, want %d",
				test.name, test.in, got, test.want)
		}
	}

	if _, err := UnsignedNum(make([]byte, 9)); !errors.Is(err, ErrNumTooBig) {
		t.Errorf("nine bytes: error = %v, want %v", err, ErrNumTooBig)
	}
}

// TestUnsignedNumStackVector mirrors re-encoding fixed-width transaction
// fields as stack numbers: 24 stays one byte regardless of input width, and
// a value with its top bit set grows a trailing sign byte.
func TestUnsignedNumStackVector(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		{24},
		{24, 0, 0, 0},
		{0x00, 0x28, 0x6b, 0xee},
	}
	want := [][]byte{
		{24},
		{24},
		{0x00, 0x28, 0x6b, 0xee, 0x00},
	}

	var stack [][]byte
	for _, in := range inputs {
		n, err := UnsignedNum(in)
		if err != nil {
			t.Fatal(err)
		}
		stack = append(stack, n.Bytes())
	}
	for i := range want {
		if !bytes.Equal(stack[i], want[i]) {
			t.Errorf("stack[%d] = %x, want %x", i, stack[i], want[i])
		}
	}
}

func TestMinimallyEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"empty", nil, nil},
		{"zero byte", []byte{0x00}, nil},
		{"negative zero", []byte{0x80}, nil},
		{"multi byte zero", []byte{0x00, 0x00, 0x00}, nil},
		{"multi byte negative zero", []byte{0x00, 0x00, 0x80}, nil},
		{"already minimal", []byte{0x01}, []byte{0x01}},
		{"already minimal negative", []byte{0x81}, []byte{0x81}},
		{"minimal with sign byte", []byte{0x80, 0x00}, []byte{0x80, 0x00}},
		{"minimal negative with sign byte", []byte{0x80, 0x80}, []byte{0x80, 0x80}},
		{"strip padding", []byte{0x01, 0x00}, []byte{0x01}},
		{"strip padding negative", []byte{0x01, 0x80}, []byte{0x81}},
		{"strip deep padding", []byte{0x02, 0x00, 0x00, 0x00}, []byte{0x02}},
		{"keep load bearing sign byte", []byte{0xff, 0x00, 0x00}, []byte{0xff, 0x00}},
		{"keep load bearing negative", []byte{0xff, 0x00, 0x80}, []byte{0xff, 0x80}},
		{"wider than eight bytes", append(make([]byte, 9), 0x01), append(make([]byte, 9), 0x01)},
	}

	for _, test := range tests {
		got := MinimallyEncode(test.in)
		if !bytes.Equal(got, test.want) {
			t.Errorf("%s: MinimallyEncode(%x) = %x, want %x",
				test.name, test.in, got, test.want)
		}
	}
}

func TestInt32Clamp(t *testing.T) {
	t.Parallel()

	if got := Num(1 << 40).Int32(); got != 0x7fffffff {
		t.Errorf("positive clamp = %d", got)
	}
	if got := Num(-(1 << 40)).Int32(); got != -0x80000000 {
		t.Errorf("negative clamp = %d", got)
	}
	if got := Num(42).Int32(); got != 42 {
		t.Errorf("identity = %d", got)
	}
}
