package typelang

import (
	"errors"
	"testing"

	"github.com/clickhouse-explorer/wirecore/errs"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "simple integer", src: "UInt32"},
		{name: "nullable string", src: "Nullable(String)"},
		{name: "nested array", src: "Array(Array(Int64))"},
		{name: "map", src: "Map(String, Array(Float64))"},
		{name: "tuple named", src: "Tuple(id UInt32, name String)"},
		{name: "variant", src: "Variant(Array(UInt16), String, UInt8)"},
		{name: "low cardinality", src: "LowCardinality(String)"},
		{name: "fixed string", src: "FixedString(16)"},
		{name: "datetime64 with timezone", src: "DateTime64(3, 'UTC')"},
		{name: "decimal", src: "Decimal32(9, 4)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Parse(tt.src)
			require.NoError(t, err)
			require.Equal(t, tt.src, desc.String())
		})
	}
}

func TestParse_DecimalPrecisionScaleDerivesWidth(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
	}{
		{name: "fits Decimal32", src: "Decimal(9, 2)", kind: KindDecimal32},
		{name: "fits Decimal64", src: "Decimal(18, 4)", kind: KindDecimal64},
		{name: "fits Decimal128", src: "Decimal(38, 10)", kind: KindDecimal128},
		{name: "fits Decimal256", src: "Decimal(76, 20)", kind: KindDecimal256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Parse(tt.src)
			require.NoError(t, err)
			require.Equal(t, tt.kind, desc.Kind)
		})
	}
}

func TestParse_InvalidInput(t *testing.T) {
	tests := []string{
		"",
		"NotAType",
		"Array(",
		"Tuple(UInt32",
		"Map(String)",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
		})
	}
}

func TestParse_UnknownType(t *testing.T) {
	tests := []string{
		"NotAType",
		"NotAType(1, 2)",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			require.Truef(t, errors.Is(err, errs.ErrUnknownType), "expected ErrUnknownType, got %v", err)
		})
	}
}

func TestParse_EnumValues(t *testing.T) {
	desc, err := Parse("Enum8('a' = 1, 'b' = 2)")
	require.NoError(t, err)
	require.Equal(t, KindEnum8, desc.Kind)
	require.Len(t, desc.EnumValues, 2)
	require.Equal(t, "a", desc.EnumValues[0].Label)
	require.Equal(t, 1, desc.EnumValues[0].Code)
}

func TestParse_NestedTuple(t *testing.T) {
	desc, err := Parse("Array(Tuple(a UInt8, b String))")
	require.NoError(t, err)
	require.Equal(t, KindArray, desc.Kind)
	require.Equal(t, KindTuple, desc.Element.Kind)
	require.True(t, desc.Element.Named)
	require.Equal(t, []string{"a", "b"}, desc.Element.Names)
}
