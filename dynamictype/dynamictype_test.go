package dynamictype

import (
	"testing"

	"github.com/clickhouse-explorer/wirecore/errs"
	"github.com/clickhouse-explorer/wirecore/reader"
	"github.com/clickhouse-explorer/wirecore/typelang"
	"github.com/stretchr/testify/require"
)

func TestDecode_Nothing(t *testing.T) {
	r := reader.NewLittleEndian([]byte{0x00})

	desc, idx, rng, err := Decode(r, true)
	require.NoError(t, err)
	require.Nil(t, desc)
	require.Equal(t, uint8(IndexNothing), idx)
	require.Equal(t, 1, rng.Len())
}

func TestDecode_NothingDisallowed(t *testing.T) {
	r := reader.NewLittleEndian([]byte{0x00})

	_, _, _, err := Decode(r, false)
	require.ErrorIs(t, err, errs.ErrNothingAsSubType)
}

func TestDecode_SimpleScalar(t *testing.T) {
	r := reader.NewLittleEndian([]byte{0x03}) // UInt32
	desc, idx, _, err := Decode(r, true)
	require.NoError(t, err)
	require.Equal(t, typelang.KindUInt32, desc.Kind)
	require.Equal(t, uint8(0x03), idx)
}

func TestDecode_ArrayOfUInt8(t *testing.T) {
	r := reader.NewLittleEndian([]byte{0x1E, 0x01}) // Array(UInt8)
	desc, _, _, err := Decode(r, true)
	require.NoError(t, err)
	require.Equal(t, typelang.KindArray, desc.Kind)
	require.Equal(t, typelang.KindUInt8, desc.Element.Kind)
}

func TestDecode_DateTimeWithTimezone(t *testing.T) {
	data := []byte{0x12, 0x03, 'U', 'T', 'C'}
	r := reader.NewLittleEndian(data)

	desc, _, rng, err := Decode(r, true)
	require.NoError(t, err)
	require.Equal(t, typelang.KindDateTime, desc.Kind)
	require.NotNil(t, desc.Timezone)
	require.Equal(t, "UTC", *desc.Timezone)
	require.Equal(t, len(data), rng.Len())
}

func TestDecode_FixedString(t *testing.T) {
	r := reader.NewLittleEndian([]byte{0x16, 0x08})
	desc, _, _, err := Decode(r, true)
	require.NoError(t, err)
	require.Equal(t, typelang.KindFixedString, desc.Kind)
	require.Equal(t, 8, desc.Length)
}

func TestDecode_TruncatedInput(t *testing.T) {
	r := reader.NewLittleEndian([]byte{0x16}) // FixedString missing length byte
	_, _, _, err := Decode(r, true)
	require.Error(t, err)
}
