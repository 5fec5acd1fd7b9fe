package valuefmt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		name  string
		raw   int64
		scale int
		want  string
	}{
		{name: "zero scale", raw: 1234, scale: 0, want: "1234"},
		{name: "positive with scale", raw: 123456, scale: 2, want: "1234.56"},
		{name: "negative with scale", raw: -123456, scale: 2, want: "-1234.56"},
		{name: "leading zero fraction", raw: 100001, scale: 4, want: "10.0001"},
		{name: "zero value", raw: 0, scale: 2, want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decimal(big.NewInt(tt.raw), tt.scale)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestUUID(t *testing.T) {
	b := []byte{
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x10, 0x0F, 0x0E, 0x0D, 0x0C, 0x0B, 0x0A, 0x09,
	}
	got := UUID(b)
	require.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", got)
}

func TestIPv4(t *testing.T) {
	got := IPv4([]byte{1, 0, 0, 127})
	require.Equal(t, "127.0.0.1", got)
}

func TestIPv6(t *testing.T) {
	b := make([]byte, 16)
	b[15] = 1
	got := IPv6(b)
	require.Equal(t, "0000:0000:0000:0000:0000:0000:0000:0001", got)
}

func TestDate(t *testing.T) {
	require.Equal(t, "1970-01-01", Date(0))
	require.Equal(t, "1970-01-02", Date(1))
}

func TestDateTime(t *testing.T) {
	require.Equal(t, "1970-01-01T00:00:00Z", DateTime(0))
}

func TestDateTime64(t *testing.T) {
	require.Equal(t, "1970-01-01T00:00:00.123Z", DateTime64(123, 3))
	require.Equal(t, "1970-01-01T00:00:00Z", DateTime64(0, 0))
}

func TestTime(t *testing.T) {
	require.Equal(t, "000:00:01", Time(1))
	require.Equal(t, "-000:00:01", Time(-1))
	require.Equal(t, "001:01:01", Time(3661))
}

func TestTime64(t *testing.T) {
	require.Equal(t, "000:00:01.500", Time64(1500, 3))
	require.Equal(t, "-000:00:01.500", Time64(-1500, 3))
}
