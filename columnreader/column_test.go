package columnreader

import (
	"testing"

	"github.com/clickhouse-explorer/wirecore/ast"
	"github.com/clickhouse-explorer/wirecore/reader"
	"github.com/clickhouse-explorer/wirecore/typelang"
	"github.com/stretchr/testify/require"
)

func newCtx() *Ctx {
	return &Ctx{IDs: &ast.IDCounter{}}
}

func parseType(t *testing.T, s string) *typelang.TypeDescriptor {
	t.Helper()
	desc, err := typelang.Parse(s)
	require.NoError(t, err)

	return desc
}

func appendLEB128(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}

	return append(b, byte(v))
}

// requireValidRanges walks node recursively, asserting that no two
// siblings under the same parent overlap and that every child's range
// falls within its parent's range (spec.md §3: "Sibling ranges may be
// adjacent but must not overlap").
func requireValidRanges(t *testing.T, node *ast.Node) {
	t.Helper()

	for i, child := range node.Children {
		if child.ByteRange.Start != child.ByteRange.End {
			require.GreaterOrEqualf(t, child.ByteRange.Start, node.ByteRange.Start,
				"child %d (%s) starts before parent (%s)", i, child.Type, node.Type)
			require.LessOrEqualf(t, child.ByteRange.End, node.ByteRange.End,
				"child %d (%s) ends after parent (%s)", i, child.Type, node.Type)
		}

		for j := i + 1; j < len(node.Children); j++ {
			other := node.Children[j]
			overlaps := child.ByteRange.Start < other.ByteRange.End && other.ByteRange.Start < child.ByteRange.End
			require.Falsef(t, overlaps, "sibling %d (%s, %+v) overlaps sibling %d (%s, %+v) under parent %s",
				i, child.Type, child.ByteRange, j, other.Type, other.ByteRange, node.Type)
		}

		requireValidRanges(t, child)
	}
}

func TestReadColumn_FixedWidth(t *testing.T) {
	desc := parseType(t, "UInt32")
	data := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 3, newCtx())
	require.NoError(t, err)
	require.Len(t, node.Children, 3)
	require.Equal(t, uint64(1), node.Children[0].Value)
	require.Equal(t, uint64(2), node.Children[1].Value)
	require.Equal(t, uint64(3), node.Children[2].Value)
	require.True(t, r.AtEnd())
	requireValidRanges(t, node)
}

func TestReadColumn_String(t *testing.T) {
	desc := parseType(t, "String")
	var data []byte
	data = appendLEB128(data, 2)
	data = append(data, "hi"...)
	data = appendLEB128(data, 3)
	data = append(data, "bye"...)
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.Equal(t, "hi", node.Children[0].Value)
	require.Equal(t, "bye", node.Children[1].Value)
	requireValidRanges(t, node)
}

func TestReadColumn_Array(t *testing.T) {
	desc := parseType(t, "Array(UInt8)")
	var data []byte
	// offsets: row0 has 2 elements (cumulative=2), row1 has 1 (cumulative=3)
	data = append(data, 2, 0, 0, 0, 0, 0, 0, 0)
	data = append(data, 3, 0, 0, 0, 0, 0, 0, 0)
	// flattened elements: 10, 20, 30
	data = append(data, 10, 20, 30)
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	// children[0] is offsets stream, children[1:] are per-row arrays
	require.Equal(t, "offsets", node.Children[0].Label)
	row0 := node.Children[1]
	row1 := node.Children[2]
	require.Len(t, row0.Children, 2)
	require.Equal(t, uint64(10), row0.Children[0].Value)
	require.Equal(t, uint64(20), row0.Children[1].Value)
	require.Len(t, row1.Children, 1)
	require.Equal(t, uint64(30), row1.Children[0].Value)
	requireValidRanges(t, node)
}

func TestReadColumn_Nullable(t *testing.T) {
	desc := parseType(t, "Nullable(UInt8)")
	data := []byte{
		0, 1, // null-map: row0 not null, row1 null
		42, 99, // values for both rows (row1's value is still consumed)
	}
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	row0 := node.Children[1]
	row1 := node.Children[2]
	require.Equal(t, uint64(42), row0.Value)
	require.Nil(t, row1.Value)
	require.Equal(t, "null", row1.DisplayValue)
	requireValidRanges(t, node)
}

func TestReadColumn_LowCardinality(t *testing.T) {
	desc := parseType(t, "LowCardinality(String)")
	var data []byte
	data = append(data, 0, 0, 0, 0, 0, 0, 0, 0) // flags: key width 1 byte (UInt8)
	data = appendLEB128(data, 2)                // dict size
	data = appendLEB128(data, 2)
	data = append(data, "aa"...)
	data = appendLEB128(data, 2)
	data = append(data, "bb"...)
	data = appendLEB128(data, 3) // keys count
	data = append(data, 0, 1, 0) // keys: "aa", "bb", "aa"
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 3, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	// children = [dictionary, keys]; each row is nested under "keys"
	// since a key's bytes ARE its row's entire value - nesting, rather
	// than a flat sibling list, is what keeps the keys stream node from
	// overlapping its own rows.
	require.Equal(t, "dictionary", node.Children[0].Label)
	keys := node.Children[1]
	require.Equal(t, "keys", keys.Label)
	rows := keys.Children
	require.Len(t, rows, 3)
	require.Equal(t, "aa", rows[0].Value)
	require.Equal(t, "bb", rows[1].Value)
	require.Equal(t, "aa", rows[2].Value)

	// Each row's range is exactly its own key byte, not the whole stream.
	require.Equal(t, 1, rows[0].ByteRange.End-rows[0].ByteRange.Start)
	require.NotEqual(t, rows[0].ByteRange, rows[1].ByteRange)
	require.NotEqual(t, rows[0].ByteRange, rows[2].ByteRange)

	requireValidRanges(t, node)
}

func TestReadColumn_Tuple(t *testing.T) {
	desc := parseType(t, "Tuple(a UInt8, b UInt8)")
	data := []byte{1, 2, 10, 20}
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	row0 := node.Children[0]
	row1 := node.Children[1]
	require.Equal(t, "a", row0.Children[0].Label)
	require.Equal(t, uint64(1), row0.Children[0].Value)
	require.Equal(t, uint64(10), row0.Children[1].Value)
	require.Equal(t, uint64(2), row1.Children[0].Value)
	require.Equal(t, uint64(20), row1.Children[1].Value)
}

func TestReadColumn_Variant(t *testing.T) {
	desc := parseType(t, "Variant(UInt8, String)")
	var data []byte
	// Alternatives are held in sorted order [String, UInt8], so
	// discriminant 0 selects String and 1 selects UInt8.
	data = append(data, 1, 0xFF, 0) // discriminants: row0->UInt8, row1->null, row2->String
	data = appendLEB128(data, 3)    // String sub-column: 1 value (row2)
	data = append(data, "bye"...)
	data = append(data, 7) // UInt8 sub-column: 1 value (row0)
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 3, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	require.Equal(t, "discriminants", node.Children[0].Label)
	require.Len(t, node.Children[0].Children, 3)
	require.Equal(t, uint8(0xFF), node.Children[0].Children[1].Value)

	// children = [discriminants, String sub-column, UInt8 sub-column];
	// non-null rows are tagged in place on their sub-column's own child
	// rather than duplicated as a separate top-level node, so each
	// row's bytes are registered in the tree exactly once.
	stringCol := node.Children[1]
	uint8Col := node.Children[2]
	require.Equal(t, uint64(7), uint8Col.Children[0].Value)
	require.Equal(t, 0, uint8Col.Children[0].Metadata["rowIndex"])
	require.Equal(t, "bye", stringCol.Children[0].Value)
	require.Equal(t, 2, stringCol.Children[0].Metadata["rowIndex"])

	requireValidRanges(t, node)
}

func TestReadColumn_Dynamic(t *testing.T) {
	desc := parseType(t, "Dynamic")
	var data []byte
	data = appendLEB128(data, 1) // header: 1 observed type
	data = append(data, 0x01)    // UInt8 type index
	data = append(data, 0x01, 5) // row0: UInt8, value 5
	data = append(data, 0x00)    // row1: Nothing (null)
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	require.Equal(t, "Dynamic.Header", node.Children[0].Type)
	row0 := node.Children[1]
	row1 := node.Children[2]
	require.Equal(t, uint64(5), row0.Value)
	require.Nil(t, row1.Value)
	require.Equal(t, "null", row1.DisplayValue)

	requireValidRanges(t, node)
}

func TestReadColumn_JSON(t *testing.T) {
	desc := parseType(t, "JSON(a UInt8)")
	var data []byte
	data = append(data, 1)       // version
	data = appendLEB128(data, 0) // 0 dynamic paths
	data = append(data, 7, 8)    // typed path "a": 2 rows

	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	require.Equal(t, "JSON.Header", node.Children[0].Type)
	typedPath := node.Children[1]
	require.Equal(t, "a", typedPath.Label)
	require.Equal(t, uint64(7), typedPath.Children[0].Value)
	require.Equal(t, uint64(8), typedPath.Children[1].Value)

	requireValidRanges(t, node)
}

func TestReadColumn_Map(t *testing.T) {
	desc := parseType(t, "Map(UInt8, UInt8)")
	var data []byte
	// offsets: row0 has 1 pair (cumulative=1), row1 has 2 (cumulative=3)
	data = append(data, 1, 0, 0, 0, 0, 0, 0, 0)
	data = append(data, 3, 0, 0, 0, 0, 0, 0, 0)
	// flattened (key,value) pairs: (1,10), (2,20), (3,30)
	data = append(data, 1, 10, 2, 20, 3, 30)
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())

	row0 := node.Children[1]
	row1 := node.Children[2]
	require.Len(t, row0.Children, 1)
	require.Len(t, row1.Children, 2)

	requireValidRanges(t, node)
}

func TestReadColumn_Decimal(t *testing.T) {
	desc := parseType(t, "Decimal32(9, 2)")
	data := []byte{100, 0, 0, 0, 200, 0, 0, 0}
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())
	require.Len(t, node.Children, 2)
	require.Equal(t, "1.00", node.Children[0].DisplayValue)
	require.Equal(t, "2.00", node.Children[1].DisplayValue)

	requireValidRanges(t, node)
}

func TestReadColumn_FixedString(t *testing.T) {
	desc := parseType(t, "FixedString(3)")
	data := []byte("abc" + "de\x00")
	r := reader.NewLittleEndian([]byte(data))

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())
	require.Equal(t, "abc", node.Children[0].DisplayValue)
	require.Equal(t, "de", node.Children[1].DisplayValue)

	requireValidRanges(t, node)
}

func TestReadColumn_Geometry(t *testing.T) {
	desc := parseType(t, "Geometry")
	data := []byte{3} // discriminant 3 = Point
	data = append(data,
		0, 0, 0, 0, 0, 0, 240, 63, // 1.0 as float64
		0, 0, 0, 0, 0, 0, 0, 64, // 2.0 as float64
	)
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 1, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())
	require.Len(t, node.Children, 1)
	require.Equal(t, "Point", node.Children[0].Metadata["geoType"])

	requireValidRanges(t, node)
}

func TestReadColumn_QBit(t *testing.T) {
	desc := parseType(t, "QBit(Float32, 2)")
	var data []byte
	data = appendLEB128(data, 2) // size (must equal dimension)
	data = append(data, 0, 0, 128, 63) // 1.0f
	data = append(data, 0, 0, 0, 64)   // 2.0f
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 1, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())
	require.Len(t, node.Children, 1)

	requireValidRanges(t, node)
}

func TestReadColumn_Nested(t *testing.T) {
	desc := parseType(t, "Nested(a UInt8)")
	var data []byte
	// one row: field "a" is Array(UInt8) with 2 elements
	data = append(data, 2, 0, 0, 0, 0, 0, 0, 0) // offsets: cumulative=2
	data = append(data, 5, 6)                   // flattened elements
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 1, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())
	require.Len(t, node.Children, 1)

	requireValidRanges(t, node)
}

func TestReadColumn_AggregateFunction(t *testing.T) {
	desc := parseType(t, "AggregateFunction(count)")
	var data []byte
	data = appendLEB128(data, 3) // row0: count=3
	data = appendLEB128(data, 5) // row1: count=5
	r := reader.NewLittleEndian(data)

	node, err := ReadColumn(r, desc, 2, newCtx())
	require.NoError(t, err)
	require.True(t, r.AtEnd())
	require.Equal(t, uint64(3), node.Children[0].Value)
	require.Equal(t, uint64(5), node.Children[1].Value)

	requireValidRanges(t, node)
}

func TestLowCardinalityKeyWidth(t *testing.T) {
	tests := []struct {
		flags uint64
		want  int
	}{
		{flags: 0, want: 1},
		{flags: 1, want: 2},
		{flags: 2, want: 4},
		{flags: 3, want: 8},
	}
	for _, tt := range tests {
		got, err := lowCardinalityKeyWidth(tt.flags)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := lowCardinalityKeyWidth(4)
	require.Error(t, err)
}
