// Package columnreader implements the contiguous, per-column payload
// reads of the column-oriented (block) wire format (spec.md §4.5): one
// contiguous run of rowCount values per column, as opposed to the
// row-oriented format's per-value framing. It mirrors the row decoder's
// node-construction idiom (ast.Node per value, byte-range tracked) but
// reads offsets/null-map/dictionary streams up front and threads them
// through the per-row value reads.
package columnreader

import (
	"fmt"
	"math/big"

	"github.com/clickhouse-explorer/wirecore/ast"
	"github.com/clickhouse-explorer/wirecore/dynamictype"
	"github.com/clickhouse-explorer/wirecore/errs"
	"github.com/clickhouse-explorer/wirecore/internal/pool"
	"github.com/clickhouse-explorer/wirecore/internal/valuefmt"
	"github.com/clickhouse-explorer/wirecore/reader"
	"github.com/clickhouse-explorer/wirecore/typelang"
)

// Ctx carries the per-decode state a column read needs, mirroring the
// row decoder's rowCtx: the shared id counter and the zero-copy setting.
type Ctx struct {
	IDs      *ast.IDCounter
	ZeroCopy bool
}

func (c *Ctx) leaf(typeStr string, rng reader.ByteRange, value any, display string) *ast.Node {
	return &ast.Node{
		ID:           c.IDs.Next(),
		Type:         typeStr,
		ByteRange:    rng,
		Value:        value,
		DisplayValue: display,
	}
}

func (c *Ctx) node(typeStr string, rng reader.ByteRange, value any, display string, children []*ast.Node) *ast.Node {
	n := c.leaf(typeStr, rng, value, display)
	n.Children = children

	return n
}

func (c *Ctx) bytesOf(b []byte) []byte {
	if c.ZeroCopy {
		return b
	}
	cp := make([]byte, len(b))
	copy(cp, b)

	return cp
}

// ReadColumn reads one column's full rowCount-length payload from r and
// returns a single Node covering it: a container node whose children are
// one per-row value node. Array and Nullable put their shared stream
// (offsets, null map) first, followed by the per-row values;
// LowCardinality nests its per-row values under its keys stream node;
// Variant's children are its discriminants node followed by one
// sub-column per alternative, and Dynamic and JSON lay out their header
// and sub-columns as their own read functions describe.
func ReadColumn(r *reader.ByteReader, t *typelang.TypeDescriptor, rowCount int, c *Ctx) (*ast.Node, error) {
	start := r.Pos()
	typeStr := t.String()

	switch t.Kind {
	case typelang.KindString:
		return readStringColumn(r, c, rowCount, typeStr)
	case typelang.KindFixedString:
		return readFixedStringColumn(r, c, t, rowCount)
	case typelang.KindArray:
		return readArrayColumn(r, c, t.Element, rowCount, typeStr)
	case typelang.KindNullable:
		return readNullableColumn(r, c, t, rowCount)
	case typelang.KindLowCardinality:
		return readLowCardinalityColumn(r, c, t, rowCount)
	case typelang.KindTuple:
		return readTupleColumn(r, c, t, rowCount)
	case typelang.KindMap:
		return readMapColumn(r, c, t, rowCount)
	case typelang.KindVariant:
		return readVariantColumn(r, c, t, rowCount)
	case typelang.KindDynamic:
		return readDynamicColumn(r, c, rowCount)
	case typelang.KindJSON:
		return readJSONColumn(r, c, t, rowCount)
	case typelang.KindGeometry, typelang.KindRing, typelang.KindPolygon, typelang.KindMultiPolygon,
		typelang.KindLineString, typelang.KindMultiLineString, typelang.KindQBit, typelang.KindNested,
		typelang.KindAggregateFunction:
		return readContainerColumn(r, c, t, rowCount, typeStr, start)
	default:
		return readFixedWidthColumn(r, c, t, rowCount, typeStr, start)
	}
}

// readContainerColumn handles column types whose per-row body is not a
// single fixed-width read but a self-contained recursive structure
// (Geometry variants, QBit, Nested, AggregateFunction): spec.md §4.5
// only calls out layout differences for String/FixedString/Array/
// Nullable/LowCardinality/Tuple/Map/Variant/Dynamic/JSON, so every other
// kind's row-oriented body (§4.4) repeats unchanged, rowCount times.
func readContainerColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int, typeStr string, start int) (*ast.Node, error) {
	children := make([]*ast.Node, rowCount)
	for i := range rowCount {
		child, err := readScalarValueOrContainer(r, t, c)
		if err != nil {
			return nil, err
		}
		child.Label = fmt.Sprintf("[%d]", i)
		children[i] = child
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(typeStr, rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// readFixedWidthColumn handles every type whose row-oriented body
// encoding is already a fixed-size, self-contained read (integers,
// floats, Decimal, Date/DateTime/Time family, UUID, IP, Enum,
// intervals, Bool, BFloat16, Point): rowCount such reads back-to-back,
// with no shared stream to read up front.
func readFixedWidthColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int, typeStr string, start int) (*ast.Node, error) {
	children := make([]*ast.Node, rowCount)
	for i := range rowCount {
		child, err := readScalarValue(r, t, c)
		if err != nil {
			return nil, err
		}
		child.Label = fmt.Sprintf("[%d]", i)
		children[i] = child
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(typeStr, rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// readScalarValue reads exactly one value of t using the same body
// encoding the row-oriented format uses, for types whose layout does not
// change between formats.
func readScalarValue(r *reader.ByteReader, t *typelang.TypeDescriptor, c *Ctx) (*ast.Node, error) {
	typeStr := t.String()

	switch t.Kind {
	case typelang.KindUInt8:
		v, rng, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, uint64(v), fmt.Sprintf("%d", v)), nil
	case typelang.KindUInt16:
		v, rng, err := r.ReadU16()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, uint64(v), fmt.Sprintf("%d", v)), nil
	case typelang.KindUInt32:
		v, rng, err := r.ReadU32()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, uint64(v), fmt.Sprintf("%d", v)), nil
	case typelang.KindUInt64:
		v, rng, err := r.ReadU64()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%d", v)), nil
	case typelang.KindUInt128:
		v, rng, err := r.ReadU128()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, v.String()), nil
	case typelang.KindUInt256:
		v, rng, err := r.ReadU256()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, v.String()), nil
	case typelang.KindInt8:
		v, rng, err := r.ReadI8()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, int64(v), fmt.Sprintf("%d", v)), nil
	case typelang.KindInt16:
		v, rng, err := r.ReadI16()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, int64(v), fmt.Sprintf("%d", v)), nil
	case typelang.KindInt32:
		v, rng, err := r.ReadI32()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, int64(v), fmt.Sprintf("%d", v)), nil
	case typelang.KindInt64:
		v, rng, err := r.ReadI64()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%d", v)), nil
	case typelang.KindInt128:
		v, rng, err := r.ReadI128()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, v.String()), nil
	case typelang.KindInt256:
		v, rng, err := r.ReadI256()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, v.String()), nil
	case typelang.KindFloat32:
		v, rng, err := r.ReadFloat32()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%g", v)), nil
	case typelang.KindFloat64:
		v, rng, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%g", v)), nil
	case typelang.KindBFloat16:
		v, rng, err := r.ReadBFloat16()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%g", v)), nil
	case typelang.KindBool:
		v, rng, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v != 0, fmt.Sprintf("%t", v != 0)), nil
	case typelang.KindDate:
		v, rng, err := r.ReadU16()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, int32(v), valuefmt.Date(int32(v))), nil
	case typelang.KindDate32:
		v, rng, err := r.ReadI32()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, valuefmt.Date(v)), nil
	case typelang.KindDateTime:
		v, rng, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		n := c.leaf(typeStr, rng, v, valuefmt.DateTime(v))
		n.SetMetadata("secondsSinceEpoch", v)
		if t.Timezone != nil {
			n.SetMetadata("timezone", *t.Timezone)
		}

		return n, nil
	case typelang.KindDateTime64:
		v, rng, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		n := c.leaf(typeStr, rng, v, valuefmt.DateTime64(v, t.Precision))
		n.SetMetadata("ticksSinceEpoch", v)
		n.SetMetadata("precision", t.Precision)
		if t.Timezone != nil {
			n.SetMetadata("timezone", *t.Timezone)
		}

		return n, nil
	case typelang.KindTime:
		v, rng, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		n := c.leaf(typeStr, rng, v, valuefmt.Time(v))
		n.SetMetadata("secondsSinceEpoch", v)

		return n, nil
	case typelang.KindTime64:
		v, rng, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		n := c.leaf(typeStr, rng, v, valuefmt.Time64(v, t.Precision))
		n.SetMetadata("ticksSinceEpoch", v)
		n.SetMetadata("precision", t.Precision)

		return n, nil
	case typelang.KindUUID:
		b, rng, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, c.bytesOf(b), valuefmt.UUID(b)), nil
	case typelang.KindIPv4:
		b, rng, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, c.bytesOf(b), valuefmt.IPv4(b)), nil
	case typelang.KindIPv6:
		b, rng, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, c.bytesOf(b), valuefmt.IPv6(b)), nil
	case typelang.KindDecimal32, typelang.KindDecimal64, typelang.KindDecimal128, typelang.KindDecimal256:
		return readDecimal(r, c, t)
	case typelang.KindEnum8:
		v, rng, err := r.ReadI8()
		if err != nil {
			return nil, err
		}

		return enumNode(c, t, rng, int(v))
	case typelang.KindEnum16:
		v, rng, err := r.ReadI16()
		if err != nil {
			return nil, err
		}

		return enumNode(c, t, rng, int(v))
	case typelang.KindIntervalSecond, typelang.KindIntervalMinute, typelang.KindIntervalHour,
		typelang.KindIntervalDay, typelang.KindIntervalWeek, typelang.KindIntervalMonth,
		typelang.KindIntervalQuarter, typelang.KindIntervalYear, typelang.KindIntervalMillisecond,
		typelang.KindIntervalMicrosecond:
		v, rng, err := r.ReadI64()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%d", v)), nil
	case typelang.KindPoint:
		start := r.Pos()
		x, _, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		y, _, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		rng := reader.ByteRange{Start: start, End: r.Pos()}

		return c.leaf("Point", rng, [2]float64{x, y}, fmt.Sprintf("(%g, %g)", x, y)), nil
	default:
		return nil, fmt.Errorf("columnreader: no column-oriented encoding for type %s", typeStr)
	}
}

func readDecimal(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	var raw *big.Int
	var rng reader.ByteRange
	var err error

	switch t.Kind {
	case typelang.KindDecimal32:
		var v int32
		v, rng, err = r.ReadI32()
		raw = big.NewInt(int64(v))
	case typelang.KindDecimal64:
		var v int64
		v, rng, err = r.ReadI64()
		raw = big.NewInt(v)
	case typelang.KindDecimal128:
		raw, rng, err = r.ReadI128()
	default:
		raw, rng, err = r.ReadI256()
	}
	if err != nil {
		return nil, err
	}

	n := c.leaf(t.String(), rng, raw, valuefmt.Decimal(raw, t.Scale))
	n.SetMetadata("scale", t.Scale)
	n.SetMetadata("rawValue", raw.String())

	return n, nil
}

func enumNode(c *Ctx, t *typelang.TypeDescriptor, rng reader.ByteRange, code int) (*ast.Node, error) {
	label := fmt.Sprintf("<unknown:%d>", code)
	for _, ev := range t.EnumValues {
		if ev.Code == code {
			label = ev.Label

			break
		}
	}

	n := c.leaf(t.String(), rng, code, label)
	n.SetMetadata("enumValue", code)
	n.SetMetadata("enumName", label)

	return n, nil
}

func readStringColumn(r *reader.ByteReader, c *Ctx, rowCount int, typeStr string) (*ast.Node, error) {
	start := r.Pos()
	children := make([]*ast.Node, rowCount)
	for i := range rowCount {
		valStart := r.Pos()
		n, _, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		b, _, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		rng := reader.ByteRange{Start: valStart, End: r.Pos()}
		s := string(b)
		node := c.leaf("String", rng, s, s)
		node.Label = fmt.Sprintf("[%d]", i)
		children[i] = node
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(typeStr, rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

func readFixedStringColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	start := r.Pos()
	children := make([]*ast.Node, rowCount)
	for i := range rowCount {
		b, rng, err := r.ReadBytes(t.Length)
		if err != nil {
			return nil, err
		}
		trimmed := b
		for j, v := range b {
			if v == 0 {
				trimmed = b[:j]

				break
			}
		}
		node := c.leaf(t.String(), rng, c.bytesOf(b), string(trimmed))
		node.SetMetadata("fixedLength", t.Length)
		node.SetMetadata("actualLength", len(b))
		node.Label = fmt.Sprintf("[%d]", i)
		children[i] = node
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// readArrayColumn reads the offsets stream (rowCount cumulative UInt64
// end-offsets) then the flattened element stream, slicing it back into
// one per-row Array node using the offsets (spec.md §4.5's "per-row
// length is derived from the offsets stream").
func readArrayColumn(r *reader.ByteReader, c *Ctx, elem *typelang.TypeDescriptor, rowCount int, typeStr string) (*ast.Node, error) {
	start := r.Pos()

	offsets, cleanup := pool.GetInt64Slice(rowCount)
	defer cleanup()

	offsetsStart := r.Pos()
	for i := range rowCount {
		v, _, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		offsets[i] = int64(v)
	}
	offsetsRng := reader.ByteRange{Start: offsetsStart, End: r.Pos()}
	offsetsLeaf := c.leaf("Array.offsets", offsetsRng, append([]int64(nil), offsets...), fmt.Sprintf("%d offsets", rowCount))
	offsetsLeaf.Label = "offsets"

	totalElems := 0
	if rowCount > 0 {
		totalElems = int(offsets[rowCount-1])
	}

	elemNodes := make([]*ast.Node, totalElems)
	for i := range totalElems {
		child, err := readScalarValueOrContainer(r, elem, c)
		if err != nil {
			return nil, err
		}
		elemNodes[i] = child
	}

	children := make([]*ast.Node, 0, rowCount+1)
	children = append(children, offsetsLeaf)

	prev := int64(0)
	for i := range rowCount {
		end := offsets[i]
		rowElems := elemNodes[prev:end]
		var rowStart, rowEnd int
		if len(rowElems) > 0 {
			rowStart = rowElems[0].ByteRange.Start
			rowEnd = rowElems[len(rowElems)-1].ByteRange.End
		} else if i > 0 {
			rowStart = children[len(children)-1].ByteRange.End
			rowEnd = rowStart
		} else {
			rowStart = offsetsRng.End
			rowEnd = rowStart
		}
		rowRng := reader.ByteRange{Start: rowStart, End: rowEnd}
		rowNode := c.node("Array("+elem.String()+")", rowRng, nil, fmt.Sprintf("[%d items]", len(rowElems)), append([]*ast.Node(nil), rowElems...))
		rowNode.Label = fmt.Sprintf("[%d]", i)
		children = append(children, rowNode)
		prev = end
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(typeStr, rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// readScalarValueOrContainer reads one element for container column
// types (Array, Nullable, Tuple, Map, ...) recursing back into
// ReadColumn's per-element counterparts where the element type is
// itself a container, since the flattened element stream of an
// Array(Array(T)) still nests row-oriented-shaped single values rather
// than another rowCount-wide contiguous run.
func readScalarValueOrContainer(r *reader.ByteReader, t *typelang.TypeDescriptor, c *Ctx) (*ast.Node, error) {
	switch t.Kind {
	case typelang.KindString:
		return readOneString(r, c)
	case typelang.KindFixedString:
		return readOneFixedString(r, c, t)
	case typelang.KindArray:
		return ReadColumn(r, t, 1, c)
	case typelang.KindNullable:
		return readOneNullable(r, c, t)
	case typelang.KindLowCardinality:
		return readScalarValueOrContainer(r, t.Element, c)
	case typelang.KindTuple:
		return readOneTuple(r, c, t)
	case typelang.KindGeometry:
		return readOneGeometry(r, c)
	case typelang.KindRing, typelang.KindPolygon, typelang.KindMultiPolygon,
		typelang.KindLineString, typelang.KindMultiLineString:
		return readOneArrayLikeGeometry(r, c, t)
	case typelang.KindQBit:
		return readOneQBit(r, c, t)
	case typelang.KindNested:
		return readOneNested(r, c, t)
	case typelang.KindAggregateFunction:
		return readOneAggregateFunction(r, c, t)
	default:
		return readScalarValue(r, t, c)
	}
}

var (
	pointType      = &typelang.TypeDescriptor{Kind: typelang.KindPoint}
	ringType       = &typelang.TypeDescriptor{Kind: typelang.KindRing}
	polygonType    = &typelang.TypeDescriptor{Kind: typelang.KindPolygon}
	lineStringType = &typelang.TypeDescriptor{Kind: typelang.KindLineString}
)

// readOneGeometry mirrors decodeGeometry's 1-byte discriminant + payload
// shape (spec.md §4.4), reused unchanged by the column format since
// Geometry is not in §4.5's list of differing layouts.
func readOneGeometry(r *reader.ByteReader, c *Ctx) (*ast.Node, error) {
	start := r.Pos()
	disc, _, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	var inner *typelang.TypeDescriptor
	var geoType string
	switch disc {
	case 0:
		inner, geoType = lineStringType, "LineString"
	case 1:
		inner = &typelang.TypeDescriptor{Kind: typelang.KindMultiLineString}
		geoType = "MultiLineString"
	case 2:
		inner = &typelang.TypeDescriptor{Kind: typelang.KindMultiPolygon}
		geoType = "MultiPolygon"
	case 3:
		inner, geoType = pointType, "Point"
	case 4:
		inner, geoType = polygonType, "Polygon"
	case 5:
		inner, geoType = ringType, "Ring"
	default:
		return nil, errs.NewInvalidDiscriminantError("Geometry", int(disc), 6)
	}

	value, err := readScalarValueOrContainer(r, inner, c)
	if err != nil {
		return nil, err
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}
	n := c.node("Geometry", rng, value.Value, value.DisplayValue, []*ast.Node{value})
	n.SetMetadata("discriminant", int(disc))
	n.SetMetadata("geoType", geoType)

	return n, nil
}

// Ring/Polygon/MultiPolygon/LineString/MultiLineString are themselves
// Array(Point)-shaped container kinds (spec.md §4.4); route them back
// through the array reader using each kind's implicit element type.
func readOneArrayLikeGeometry(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	var elem *typelang.TypeDescriptor
	switch t.Kind {
	case typelang.KindRing, typelang.KindLineString:
		elem = pointType
	case typelang.KindPolygon:
		elem = ringType
	case typelang.KindMultiPolygon:
		elem = polygonType
	case typelang.KindMultiLineString:
		elem = lineStringType
	default:
		return nil, fmt.Errorf("columnreader: %s is not an array-like geometry kind", t.String())
	}

	start := r.Pos()
	n, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	lengthLeaf := c.leaf("UInt64", reader.ByteRange{Start: start, End: r.Pos()}, n, fmt.Sprintf("%d", n))
	lengthLeaf.Label = "length"

	children := make([]*ast.Node, 0, n+1)
	children = append(children, lengthLeaf)
	for i := range n {
		child, err := readScalarValueOrContainer(r, elem, c)
		if err != nil {
			return nil, err
		}
		child.Label = fmt.Sprintf("[%d]", i)
		children = append(children, child)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d items", n), children), nil
}

func readOneQBit(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	size, lenRng, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	if int(size) != t.Dimension {
		return nil, fmt.Errorf("columnreader: QBit size %d != dimension %d", size, t.Dimension)
	}

	lengthLeaf := c.leaf("UInt64", lenRng, size, fmt.Sprintf("%d", size))
	lengthLeaf.Label = "length"

	children := make([]*ast.Node, 0, size+1)
	children = append(children, lengthLeaf)
	for i := range size {
		child, err := readScalarValueOrContainer(r, t.Element, c)
		if err != nil {
			return nil, err
		}
		child.Label = fmt.Sprintf("[%d]", i)
		children = append(children, child)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}
	n := c.node(t.String(), rng, nil, fmt.Sprintf("%d elements", size), children)
	n.SetMetadata("dimension", t.Dimension)
	n.SetMetadata("elementType", t.Element.String())
	n.SetMetadata("size", int(size))

	return n, nil
}

func readOneNested(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	children := make([]*ast.Node, 0, len(t.Fields))
	for _, f := range t.Fields {
		arrType := &typelang.TypeDescriptor{Kind: typelang.KindArray, Element: f.Type}
		child, err := ReadColumn(r, arrType, 1, c)
		if err != nil {
			return nil, err
		}
		child.Label = f.Name
		children = append(children, child)
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, "", children), nil
}

func readOneAggregateFunction(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()

	switch t.FunctionName {
	case "avg":
		if len(t.ArgTypes) != 1 {
			return nil, errs.NewUnsupportedAggregateError(t.FunctionName)
		}
		sum, err := readScalarValueOrContainer(r, t.ArgTypes[0], c)
		if err != nil {
			return nil, err
		}
		sum.Label = "numerator (sum)"

		count, countRng, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		countLeaf := c.leaf("UInt64", countRng, count, fmt.Sprintf("%d", count))
		countLeaf.Label = "denominator (count)"

		avg := 0.0
		if count != 0 {
			avg = toFloat(sum.Value) / float64(count)
		}

		rng := reader.ByteRange{Start: start, End: r.Pos()}
		n := c.node(t.String(), rng, avg, fmt.Sprintf("avg=%.2f", avg), []*ast.Node{sum, countLeaf})
		n.SetMetadata("functionName", t.FunctionName)
		n.SetMetadata("argTypes", typeStrings(t.ArgTypes))

		return n, nil
	case "sum":
		if len(t.ArgTypes) != 1 {
			return nil, errs.NewUnsupportedAggregateError(t.FunctionName)
		}
		sum, err := readScalarValueOrContainer(r, t.ArgTypes[0], c)
		if err != nil {
			return nil, err
		}
		sum.Label = "sum"

		rng := reader.ByteRange{Start: start, End: r.Pos()}
		n := c.node(t.String(), rng, sum.Value, sum.DisplayValue, []*ast.Node{sum})
		n.SetMetadata("functionName", t.FunctionName)
		n.SetMetadata("argTypes", typeStrings(t.ArgTypes))

		return n, nil
	case "count":
		count, rng, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		n := c.leaf(t.String(), rng, count, fmt.Sprintf("%d", count))
		n.SetMetadata("functionName", t.FunctionName)
		n.SetMetadata("argTypes", typeStrings(t.ArgTypes))

		return n, nil
	default:
		return nil, errs.NewUnsupportedAggregateError(t.FunctionName)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case uint64:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case *big.Int:
		f := new(big.Float).SetInt(x)
		out, _ := f.Float64()

		return out
	default:
		return 0
	}
}

func readOneString(r *reader.ByteReader, c *Ctx) (*ast.Node, error) {
	start := r.Pos()
	n, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	b, _, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}
	s := string(b)

	return c.leaf("String", rng, s, s), nil
}

func readOneFixedString(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	b, rng, err := r.ReadBytes(t.Length)
	if err != nil {
		return nil, err
	}
	trimmed := b
	for i, v := range b {
		if v == 0 {
			trimmed = b[:i]

			break
		}
	}
	n := c.leaf(t.String(), rng, c.bytesOf(b), string(trimmed))
	n.SetMetadata("fixedLength", t.Length)
	n.SetMetadata("actualLength", len(b))

	return n, nil
}

func readOneNullable(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	flag, _, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if flag != 0 {
		rng := reader.ByteRange{Start: start, End: r.Pos()}

		return c.leaf(t.String(), rng, nil, "null"), nil
	}
	inner, err := readScalarValueOrContainer(r, t.Element, c)
	if err != nil {
		return nil, err
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, inner.Value, inner.DisplayValue, []*ast.Node{inner}), nil
}

func readOneTuple(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	children := make([]*ast.Node, len(t.Elements))
	for i, elem := range t.Elements {
		child, err := readScalarValueOrContainer(r, elem, c)
		if err != nil {
			return nil, err
		}
		if t.Named && t.Names[i] != "" {
			child.Label = t.Names[i]
		}
		children[i] = child
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, "", children), nil
}

// readNullableColumn reads the null-map stream (rowCount bytes) then the
// full T payload for every row, including null positions whose values
// must still be consumed (spec.md §4.5).
func readNullableColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	start := r.Pos()

	nullMapStart := r.Pos()
	nullMap := make([]bool, rowCount)
	for i := range rowCount {
		b, _, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		nullMap[i] = b != 0
	}
	nullMapRng := reader.ByteRange{Start: nullMapStart, End: r.Pos()}
	nullMapLeaf := c.leaf("Nullable.nullMap", nullMapRng, append([]bool(nil), nullMap...), fmt.Sprintf("%d rows", rowCount))
	nullMapLeaf.Label = "nullMap"

	children := make([]*ast.Node, 0, rowCount+1)
	children = append(children, nullMapLeaf)

	for i := range rowCount {
		value, err := readScalarValueOrContainer(r, t.Element, c)
		if err != nil {
			return nil, err
		}

		var row *ast.Node
		if nullMap[i] {
			row = c.node(t.String(), value.ByteRange, nil, "null", []*ast.Node{value})
		} else {
			row = c.node(t.String(), value.ByteRange, value.Value, value.DisplayValue, []*ast.Node{value})
		}
		row.Label = fmt.Sprintf("[%d]", i)
		children = append(children, row)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// lowCardinalityKeyWidth maps the low byte of the flags word to the
// key integer width, following ClickHouse's own index-type encoding
// (0=UInt8, 1=UInt16, 2=UInt32, 3=UInt64), since spec.md §4.5 leaves the
// flags→width mapping to "read the flags byte" without spelling out the
// bit layout (SPEC_FULL.md Open Question decision).
func lowCardinalityKeyWidth(flags uint64) (int, error) {
	switch flags & 0xFF {
	case 0:
		return 1, nil
	case 1:
		return 2, nil
	case 2:
		return 4, nil
	case 3:
		return 8, nil
	default:
		return 0, fmt.Errorf("columnreader: unrecognized LowCardinality key width flag 0x%02X", flags&0xFF)
	}
}

func readLowCardinalityColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	start := r.Pos()

	flags, _, err := r.ReadU64()
	if err != nil {
		return nil, err
	}

	keyWidth, err := lowCardinalityKeyWidth(flags)
	if err != nil {
		return nil, err
	}

	dictSize, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	dictChildren := make([]*ast.Node, dictSize)
	for i := range dictSize {
		v, err := readScalarValueOrContainer(r, t.Element, c)
		if err != nil {
			return nil, err
		}
		v.Label = fmt.Sprintf("[%d]", i)
		dictChildren[i] = v
	}
	dictNode := c.node("LowCardinality.dictionary", spanOf(dictChildren), nil, fmt.Sprintf("%d entries", dictSize), dictChildren)
	dictNode.Label = "dictionary"

	keysCount, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	keys := make([]uint64, keysCount)
	keyRows := make([]*ast.Node, keysCount)
	keysStart := r.Pos()
	for i := range keysCount {
		var v uint64
		var err error
		rowStart := r.Pos()
		switch keyWidth {
		case 1:
			var b uint8
			b, _, err = r.ReadU8()
			v = uint64(b)
		case 2:
			var b uint16
			b, _, err = r.ReadU16()
			v = uint64(b)
		case 4:
			var b uint32
			b, _, err = r.ReadU32()
			v = uint64(b)
		default:
			v, _, err = r.ReadU64()
		}
		if err != nil {
			return nil, err
		}
		keys[i] = v
		rowRng := reader.ByteRange{Start: rowStart, End: r.Pos()}

		var ref *ast.Node
		if int(v) < len(dictChildren) {
			ref = dictChildren[v]
		}

		var row *ast.Node
		if ref != nil {
			row = c.node(t.String(), rowRng, ref.Value, ref.DisplayValue, nil)
		} else {
			row = c.node(t.String(), rowRng, nil, fmt.Sprintf("<invalid dictionary key %d>", v), nil)
		}
		row.Label = fmt.Sprintf("[%d]", i)
		row.SetMetadata("dictionaryKey", int(v))
		keyRows[i] = row
	}
	keysRng := reader.ByteRange{Start: keysStart, End: r.Pos()}
	keysLeaf := c.node("LowCardinality.keys", keysRng, append([]uint64(nil), keys...), fmt.Sprintf("%d keys", keysCount), keyRows)
	keysLeaf.Label = "keys"

	children := []*ast.Node{dictNode, keysLeaf}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

func spanOf(nodes []*ast.Node) reader.ByteRange {
	if len(nodes) == 0 {
		return reader.ByteRange{}
	}

	return reader.ByteRange{Start: nodes[0].ByteRange.Start, End: nodes[len(nodes)-1].ByteRange.End}
}

// readTupleColumn reads each element's full rowCount-wide column in turn
// (spec.md §4.5 "element columns concatenated") and zips them back into
// rowCount per-row Tuple nodes.
func readTupleColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	start := r.Pos()

	elemColumns := make([]*ast.Node, len(t.Elements))
	for i, elem := range t.Elements {
		col, err := ReadColumn(r, elem, rowCount, c)
		if err != nil {
			return nil, err
		}
		if t.Named && t.Names[i] != "" {
			col.Label = t.Names[i]
		}
		elemColumns[i] = col
	}

	children := make([]*ast.Node, rowCount)
	for i := range rowCount {
		rowChildren := make([]*ast.Node, len(elemColumns))
		for j, col := range elemColumns {
			child := col.Children[i]
			if t.Named && t.Names[j] != "" {
				child.Label = t.Names[j]
			}
			rowChildren[j] = child
		}
		rng := spanOf(rowChildren)
		row := c.node(t.String(), rng, nil, "", rowChildren)
		row.Label = fmt.Sprintf("[%d]", i)
		children[i] = row
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// readMapColumn decodes Map(K, V) as Array(Tuple(K, V)) per spec.md
// §4.5's "Map is encoded as Array(Tuple(K,V))".
func readMapColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	pairType := &typelang.TypeDescriptor{
		Kind: typelang.KindTuple, Elements: []*typelang.TypeDescriptor{t.Key, t.Value},
		Named: true, Names: []string{"key", "value"},
	}

	node, err := readArrayColumn(r, c, pairType, rowCount, t.String())
	if err != nil {
		return nil, err
	}
	node.Type = t.String()

	return node, nil
}

// readVariantColumn reads the discriminants stream followed by
// per-variant sub-columns, each sized to the number of rows selecting
// that alternative (spec.md §4.5).
func readVariantColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	start := r.Pos()

	discStart := r.Pos()
	discs := make([]uint8, rowCount)
	discNodes := make([]*ast.Node, rowCount)
	for i := range rowCount {
		byteStart := r.Pos()
		v, _, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		discs[i] = v

		discNode := c.leaf("UInt8", reader.ByteRange{Start: byteStart, End: r.Pos()}, v, fmt.Sprintf("%d", v))
		discNode.Label = fmt.Sprintf("[%d]", i)
		discNodes[i] = discNode
	}
	discRng := reader.ByteRange{Start: discStart, End: r.Pos()}
	discLeaf := c.node("Variant.discriminants", discRng, append([]uint8(nil), discs...), fmt.Sprintf("%d rows", rowCount), discNodes)
	discLeaf.Label = "discriminants"

	counts := make([]int, len(t.Variants))
	for _, d := range discs {
		if d != 0xFF {
			if int(d) >= len(t.Variants) {
				return nil, errs.NewInvalidDiscriminantError("Variant", int(d), len(t.Variants))
			}
			counts[d]++
		}
	}

	subColumns := make([]*ast.Node, len(t.Variants))
	cursor := make([]int, len(t.Variants))
	for i, variant := range t.Variants {
		col, err := ReadColumn(r, variant, counts[i], c)
		if err != nil {
			return nil, err
		}
		col.Label = variant.String()
		subColumns[i] = col
	}

	// A row's value already lives at its proper position in the tree:
	// the discriminant byte as a child of discLeaf, and (for non-null
	// rows) the decoded value as a child of its variant's sub-column.
	// Tagging those existing nodes with the original row index and
	// selected type, rather than synthesizing a third top-level wrapper
	// node over the same bytes, keeps every row's bytes registered in
	// the tree exactly once.
	for i, d := range discs {
		discNodes[i].SetMetadata("discriminant", int(d))
		if d == 0xFF {
			continue
		}
		sub := subColumns[d]
		rowChild := sub.Children[cursor[d]]
		cursor[d]++
		rowChild.SetMetadata("rowIndex", i)
		rowChild.SetMetadata("selectedType", t.Variants[d].String())
	}

	children := make([]*ast.Node, 0, len(subColumns)+1)
	children = append(children, discLeaf)
	children = append(children, subColumns...)

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

// readDynamicColumn reads the per-column Dynamic.Header (the set of
// observed types) followed by rowCount (typeIndex, value) reads, since
// unlike Variant, Dynamic's discriminant is the full binary type index
// rather than a position into a fixed alternative list (spec.md §4.5:
// "Dynamic carries a per-column header declaring the set of observed
// types... implementations MUST emit a node tagged Dynamic.Header").
func readDynamicColumn(r *reader.ByteReader, c *Ctx, rowCount int) (*ast.Node, error) {
	start := r.Pos()

	headerStart := r.Pos()
	typeCount, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	observedTypes := make([]*typelang.TypeDescriptor, typeCount)
	for i := range typeCount {
		desc, _, _, err := dynamictype.Decode(r, false)
		if err != nil {
			return nil, err
		}
		observedTypes[i] = desc
	}
	headerRng := reader.ByteRange{Start: headerStart, End: r.Pos()}
	headerNode := c.leaf("Dynamic.Header", headerRng, typeStrings(observedTypes), fmt.Sprintf("%d observed types", typeCount))

	children := make([]*ast.Node, 0, rowCount+1)
	children = append(children, headerNode)

	for i := range rowCount {
		row, err := readOneDynamicValue(r, c)
		if err != nil {
			return nil, err
		}
		row.Label = fmt.Sprintf("[%d]", i)
		children = append(children, row)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node("Dynamic", rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}

func readOneDynamicValue(r *reader.ByteReader, c *Ctx) (*ast.Node, error) {
	start := r.Pos()
	decoded, typeIndex, typeRng, err := dynamictype.Decode(r, true)
	if err != nil {
		return nil, err
	}

	var typeDisplay string
	if decoded == nil {
		typeDisplay = "Nothing"
	} else {
		typeDisplay = decoded.String()
	}

	typeLeaf := c.leaf("TypeIndex", typeRng, typeDisplay, typeDisplay)
	typeLeaf.Label = "type"

	if decoded == nil {
		rng := reader.ByteRange{Start: start, End: r.Pos()}
		n := c.node("Dynamic", rng, nil, "null", []*ast.Node{typeLeaf})
		n.SetMetadata("typeIndex", int(typeIndex))
		n.SetMetadata("decodedType", typeDisplay)

		return n, nil
	}

	value, err := readScalarValueOrContainer(r, decoded, c)
	if err != nil {
		return nil, err
	}
	value.Label = "value"

	rng := reader.ByteRange{Start: start, End: r.Pos()}
	n := c.node("Dynamic", rng, value.Value, value.DisplayValue, []*ast.Node{typeLeaf, value})
	n.SetMetadata("typeIndex", int(typeIndex))
	n.SetMetadata("decodedType", typeDisplay)

	return n, nil
}

func typeStrings(types []*typelang.TypeDescriptor) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}

	return out
}

// readJSONColumn reads the column header (version + dynamic paths
// metadata) followed by one sub-column per typed path and a dynamic-paths
// column, emitting JSON.typed_path nodes labelled with their path names
// (spec.md §4.5).
func readJSONColumn(r *reader.ByteReader, c *Ctx, t *typelang.TypeDescriptor, rowCount int) (*ast.Node, error) {
	start := r.Pos()

	headerStart := r.Pos()
	version, _, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	dynamicPathCount, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	dynamicPaths := make([]string, dynamicPathCount)
	for i := range dynamicPathCount {
		n, _, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		b, _, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		dynamicPaths[i] = string(b)
	}
	headerRng := reader.ByteRange{Start: headerStart, End: r.Pos()}
	headerNode := c.leaf("JSON.Header", headerRng, dynamicPaths,
		fmt.Sprintf("version=%d, %d dynamic paths", version, dynamicPathCount))
	headerNode.SetMetadata("version", int(version))
	headerNode.SetMetadata("dynamicPaths", dynamicPaths)

	typedColumns := make([]*ast.Node, len(t.TypedPaths))
	for i, tp := range t.TypedPaths {
		col, err := ReadColumn(r, tp.Type, rowCount, c)
		if err != nil {
			return nil, err
		}
		col.Type = "JSON.typed_path"
		col.Label = tp.Path
		typedColumns[i] = col
	}

	dynamicColumns := make([]*ast.Node, len(dynamicPaths))
	for i, path := range dynamicPaths {
		col, err := readDynamicColumn(r, c, rowCount)
		if err != nil {
			return nil, err
		}
		col.Type = "JSON.dynamic_path"
		col.Label = path
		dynamicColumns[i] = col
	}

	children := make([]*ast.Node, 0, len(typedColumns)+len(dynamicColumns)+1)
	children = append(children, headerNode)
	children = append(children, typedColumns...)
	children = append(children, dynamicColumns...)

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d rows", rowCount), children), nil
}
