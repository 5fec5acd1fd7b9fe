package decoder

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

func buildTwoRowInput() []byte {
	var b []byte
	b = appendLEB128(b, 2)
	b = appendLenPrefixed(b, "id")
	b = appendLenPrefixed(b, "name")
	b = appendLenPrefixed(b, "UInt32")
	b = appendLenPrefixed(b, "String")

	b = appendUInt32(b, 1)
	b = appendLenPrefixed(b, "alice")

	b = appendUInt32(b, 2)
	b = appendLenPrefixed(b, "bob")

	return b
}

func TestRowDecoder_Decode(t *testing.T) {
	data := buildTwoRowInput()

	d, err := NewRowDecoder(data)
	require.NoError(t, err)

	tree, err := d.Decode()
	require.NoError(t, err)
	require.Len(t, tree.Header.Columns, 2)
	require.Equal(t, "id", tree.Header.Columns[0].Name)
	require.Equal(t, "UInt32", tree.Header.Columns[0].TypeString)
	require.Equal(t, "name", tree.Header.Columns[1].Name)

	require.Len(t, tree.Rows, 2)
	require.Len(t, tree.Rows[0].Children, 2)
	require.Equal(t, uint64(1), tree.Rows[0].Children[0].Value)
	require.Equal(t, "alice", tree.Rows[0].Children[1].Value)
	require.Equal(t, uint64(2), tree.Rows[1].Children[0].Value)
	require.Equal(t, "bob", tree.Rows[1].Children[1].Value)
}

func TestRowDecoder_ByteRangesCoverWholeInput(t *testing.T) {
	data := buildTwoRowInput()

	d, err := NewRowDecoder(data)
	require.NoError(t, err)
	tree, err := d.Decode()
	require.NoError(t, err)

	require.Equal(t, 0, tree.Header.Node.ByteRange.Start)
	require.Equal(t, tree.Header.Node.ByteRange.End, tree.Rows[0].ByteRange.Start)
	require.Equal(t, tree.Rows[0].ByteRange.End, tree.Rows[1].ByteRange.Start)
	require.Equal(t, len(data), tree.Rows[1].ByteRange.End)
}

func TestRowDecoder_IDCounterStart(t *testing.T) {
	data := buildTwoRowInput()

	d, err := NewRowDecoder(data, WithIDCounterStart(100))
	require.NoError(t, err)
	tree, err := d.Decode()
	require.NoError(t, err)

	// The header's column-count leaf is the first node created.
	require.Equal(t, 100, tree.Header.Node.Children[0].ID)
}

func TestRowDecoder_TruncatedInput(t *testing.T) {
	data := buildTwoRowInput()
	truncated := data[:len(data)-3]

	d, err := NewRowDecoder(truncated)
	require.NoError(t, err)

	_, err = d.Decode()
	require.Error(t, err)
}

func TestRowDecoder_UnknownColumnType(t *testing.T) {
	var b []byte
	b = appendLEB128(b, 1)
	b = appendLenPrefixed(b, "x")
	b = appendLenPrefixed(b, "NotARealType")

	d, err := NewRowDecoder(b)
	require.NoError(t, err)

	_, err = d.Decode()
	require.Error(t, err)
}
