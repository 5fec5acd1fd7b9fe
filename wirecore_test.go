package wirecore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func appendLEB128(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}

	return append(b, byte(v))
}

func appendLenPrefixed(b []byte, s string) []byte {
	b = appendLEB128(b, uint64(len(s)))

	return append(b, s...)
}

func appendUInt32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func TestDecodeRowBinary(t *testing.T) {
	var b []byte
	b = appendLEB128(b, 1)
	b = appendLenPrefixed(b, "id")
	b = appendLenPrefixed(b, "UInt32")
	b = appendUInt32(b, 7)

	tree, err := DecodeRowBinary(b)
	require.NoError(t, err)
	require.Len(t, tree.Rows, 1)
	require.Equal(t, uint64(7), tree.Rows[0].Children[0].Value)
}

func TestDecodeColumnNative(t *testing.T) {
	var b []byte
	b = appendLEB128(b, 1) // column count
	b = appendLEB128(b, 2) // row count
	b = appendLenPrefixed(b, "id")
	b = appendLenPrefixed(b, "UInt32")
	b = appendUInt32(b, 7)
	b = appendUInt32(b, 8)

	tree, err := DecodeColumnNative(b)
	require.NoError(t, err)
	require.Len(t, tree.Blocks, 1)
	require.Equal(t, 2, tree.Blocks[0].RowCount)
}

func TestParseType_RoundTrip(t *testing.T) {
	desc, err := ParseType("Array(Nullable(UInt32))")
	require.NoError(t, err)
	require.Equal(t, "Array(Nullable(UInt32))", TypeToString(desc))
}

func TestParseType_Invalid(t *testing.T) {
	_, err := ParseType("NotAType")
	require.Error(t, err)
}
