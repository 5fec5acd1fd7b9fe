package decoder

import (
	"fmt"
	"math/big"

	"github.com/clickhouse-explorer/wirecore/ast"
	"github.com/clickhouse-explorer/wirecore/dynamictype"
	"github.com/clickhouse-explorer/wirecore/errs"
	"github.com/clickhouse-explorer/wirecore/internal/valuefmt"
	"github.com/clickhouse-explorer/wirecore/reader"
	"github.com/clickhouse-explorer/wirecore/typelang"
)

// rowCtx carries the per-decode state a recursive row value decode needs:
// the id counter (§9, "pass it through the decoder state rather than
// making it process-global") and whether byte payloads should be
// borrowed from the input or copied.
type rowCtx struct {
	ids      *ast.IDCounter
	zeroCopy bool
}

func (c *rowCtx) leaf(typeStr string, rng reader.ByteRange, value any, display string) *ast.Node {
	return &ast.Node{
		ID:           c.ids.Next(),
		Type:         typeStr,
		ByteRange:    rng,
		Value:        value,
		DisplayValue: display,
	}
}

func (c *rowCtx) node(typeStr string, rng reader.ByteRange, value any, display string, children []*ast.Node) *ast.Node {
	n := c.leaf(typeStr, rng, value, display)
	n.Children = children

	return n
}

func bytesOf(c *rowCtx, b []byte) []byte {
	if c.zeroCopy {
		return b
	}
	cp := make([]byte, len(b))
	copy(cp, b)

	return cp
}

// decodeRowValue decodes one value of type t from r, following the
// per-type body encoding table of spec.md §4.4.
func decodeRowValue(r *reader.ByteReader, t *typelang.TypeDescriptor, c *rowCtx) (*ast.Node, error) {
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
	case typelang.KindString:
		return decodeString(r, c, typeStr)
	case typelang.KindFixedString:
		return decodeFixedString(r, c, t)
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
		return decodeDateTime(r, c, t)
	case typelang.KindDateTime64:
		return decodeDateTime64(r, c, t)
	case typelang.KindTime:
		v, rng, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		n := c.leaf(typeStr, rng, v, valuefmt.Time(v))
		n.SetMetadata("secondsSinceEpoch", v)

		return n, nil
	case typelang.KindTime64:
		return decodeTime64(r, c, t)
	case typelang.KindUUID:
		b, rng, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, bytesOf(c, b), valuefmt.UUID(b)), nil
	case typelang.KindIPv4:
		b, rng, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, bytesOf(c, b), valuefmt.IPv4(b)), nil
	case typelang.KindIPv6:
		b, rng, err := r.ReadBytes(16)
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, bytesOf(c, b), valuefmt.IPv6(b)), nil
	case typelang.KindDecimal32, typelang.KindDecimal64, typelang.KindDecimal128, typelang.KindDecimal256:
		return decodeDecimal(r, c, t)
	case typelang.KindEnum8:
		return decodeEnum8(r, c, t)
	case typelang.KindEnum16:
		return decodeEnum16(r, c, t)
	case typelang.KindArray:
		return decodeArray(r, c, t.Element, typeStr)
	case typelang.KindRing, typelang.KindLineString:
		return decodeArray(r, c, pointType, typeStr)
	case typelang.KindPolygon:
		return decodeArray(r, c, ringType, typeStr)
	case typelang.KindMultiPolygon:
		return decodeArray(r, c, polygonType, typeStr)
	case typelang.KindMultiLineString:
		return decodeArray(r, c, lineStringType, typeStr)
	case typelang.KindPoint:
		return decodePoint(r, c)
	case typelang.KindGeometry:
		return decodeGeometry(r, c)
	case typelang.KindTuple:
		return decodeTuple(r, c, t)
	case typelang.KindMap:
		return decodeMap(r, c, t)
	case typelang.KindNullable:
		return decodeNullable(r, c, t)
	case typelang.KindLowCardinality:
		return decodeRowValue(r, t.Element, c)
	case typelang.KindVariant:
		return decodeVariant(r, c, t)
	case typelang.KindDynamic:
		return decodeDynamic(r, c)
	case typelang.KindJSON:
		return decodeJSON(r, c, t)
	case typelang.KindNested:
		return decodeNested(r, c, t)
	case typelang.KindQBit:
		return decodeQBit(r, c, t)
	case typelang.KindAggregateFunction:
		return decodeAggregateFunction(r, c, t)
	case typelang.KindIntervalSecond, typelang.KindIntervalMinute, typelang.KindIntervalHour,
		typelang.KindIntervalDay, typelang.KindIntervalWeek, typelang.KindIntervalMonth,
		typelang.KindIntervalQuarter, typelang.KindIntervalYear, typelang.KindIntervalMillisecond,
		typelang.KindIntervalMicrosecond:
		v, rng, err := r.ReadI64()
		if err != nil {
			return nil, err
		}

		return c.leaf(typeStr, rng, v, fmt.Sprintf("%d", v)), nil
	default:
		return nil, fmt.Errorf("decoder: no row-oriented encoding for type %s", typeStr)
	}
}

var (
	pointType      = &typelang.TypeDescriptor{Kind: typelang.KindPoint}
	ringType       = &typelang.TypeDescriptor{Kind: typelang.KindRing}
	polygonType    = &typelang.TypeDescriptor{Kind: typelang.KindPolygon}
	lineStringType = &typelang.TypeDescriptor{Kind: typelang.KindLineString}
)

func decodeString(r *reader.ByteReader, c *rowCtx, typeStr string) (*ast.Node, error) {
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

	return c.leaf(typeStr, rng, s, s), nil
}

func decodeFixedString(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	b, rng, err := r.ReadBytes(t.Length)
	if err != nil {
		return nil, err
	}

	actual := len(b)
	trimmed := b
	for i, v := range b {
		if v == 0 {
			trimmed = b[:i]

			break
		}
	}

	n := c.leaf(t.String(), rng, bytesOf(c, b), string(trimmed))
	n.SetMetadata("fixedLength", t.Length)
	n.SetMetadata("actualLength", actual)

	return n, nil
}

func decodeDateTime(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	v, rng, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	n := c.leaf(t.String(), rng, v, valuefmt.DateTime(v))
	n.SetMetadata("secondsSinceEpoch", v)
	if t.Timezone != nil {
		n.SetMetadata("timezone", *t.Timezone)
	}

	return n, nil
}

func decodeDateTime64(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	v, rng, err := r.ReadI64()
	if err != nil {
		return nil, err
	}

	n := c.leaf(t.String(), rng, v, valuefmt.DateTime64(v, t.Precision))
	n.SetMetadata("ticksSinceEpoch", v)
	n.SetMetadata("precision", t.Precision)
	if t.Timezone != nil {
		n.SetMetadata("timezone", *t.Timezone)
	}

	return n, nil
}

func decodeTime64(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	v, rng, err := r.ReadI64()
	if err != nil {
		return nil, err
	}

	n := c.leaf(t.String(), rng, v, valuefmt.Time64(v, t.Precision))
	n.SetMetadata("ticksSinceEpoch", v)
	n.SetMetadata("precision", t.Precision)

	return n, nil
}

func decodeDecimal(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
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

func decodeEnum8(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	v, rng, err := r.ReadI8()
	if err != nil {
		return nil, err
	}

	return enumNode(c, t, rng, int(v))
}

func decodeEnum16(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	v, rng, err := r.ReadI16()
	if err != nil {
		return nil, err
	}

	return enumNode(c, t, rng, int(v))
}

func enumNode(c *rowCtx, t *typelang.TypeDescriptor, rng reader.ByteRange, code int) (*ast.Node, error) {
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

func decodeArray(r *reader.ByteReader, c *rowCtx, elem *typelang.TypeDescriptor, typeStr string) (*ast.Node, error) {
	start := r.Pos()
	count, lenRng, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	lengthLeaf := c.leaf("UInt64", lenRng, count, fmt.Sprintf("%d", count))
	lengthLeaf.Label = "length"

	children := make([]*ast.Node, 0, count+1)
	children = append(children, lengthLeaf)

	for i := range count {
		child, err := decodeRowValue(r, elem, c)
		if err != nil {
			return nil, err
		}
		child.Label = fmt.Sprintf("[%d]", i)
		children = append(children, child)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(typeStr, rng, nil, fmt.Sprintf("[%d items]", count), children), nil
}

func decodePoint(r *reader.ByteReader, c *rowCtx) (*ast.Node, error) {
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
}

// decodeGeometry decodes the 1-byte discriminant + payload encoding of
// spec.md §4.4's Geometry row, mirroring the payload's value up to this
// node the same way Dynamic mirrors its value child.
func decodeGeometry(r *reader.ByteReader, c *rowCtx) (*ast.Node, error) {
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

	value, err := decodeRowValue(r, inner, c)
	if err != nil {
		return nil, err
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}
	n := c.node("Geometry", rng, value.Value, value.DisplayValue, []*ast.Node{value})
	n.SetMetadata("discriminant", int(disc))
	n.SetMetadata("geoType", geoType)

	return n, nil
}

func decodeTuple(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	children := make([]*ast.Node, 0, len(t.Elements))
	for i, elem := range t.Elements {
		child, err := decodeRowValue(r, elem, c)
		if err != nil {
			return nil, err
		}
		if t.Named && t.Names[i] != "" {
			child.Label = t.Names[i]
		}
		children = append(children, child)
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, "", children), nil
}

func decodeMap(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	count, lenRng, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	lengthLeaf := c.leaf("UInt64", lenRng, count, fmt.Sprintf("%d", count))
	lengthLeaf.Label = "length"

	children := make([]*ast.Node, 0, count+1)
	children = append(children, lengthLeaf)

	for i := range count {
		pairStart := r.Pos()

		keyNode, err := decodeRowValue(r, t.Key, c)
		if err != nil {
			return nil, err
		}
		keyNode.Label = "key"

		valNode, err := decodeRowValue(r, t.Value, c)
		if err != nil {
			return nil, err
		}
		valNode.Label = "value"

		pairRng := reader.ByteRange{Start: pairStart, End: r.Pos()}
		pair := c.node(fmt.Sprintf("(%s, %s)", t.Key.String(), t.Value.String()), pairRng, nil, "", []*ast.Node{keyNode, valNode})
		pair.Label = fmt.Sprintf("[%d]", i)
		children = append(children, pair)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d pairs", count), children), nil
}

func decodeNullable(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	flag, _, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	if flag != 0 {
		rng := reader.ByteRange{Start: start, End: r.Pos()}

		return c.leaf(t.String(), rng, nil, "null"), nil
	}

	inner, err := decodeRowValue(r, t.Element, c)
	if err != nil {
		return nil, err
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, inner.Value, inner.DisplayValue, []*ast.Node{inner}), nil
}

func decodeVariant(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	disc, _, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	if disc == 0xFF {
		rng := reader.ByteRange{Start: start, End: r.Pos()}
		n := c.leaf(t.String(), rng, nil, "null")
		n.SetMetadata("discriminant", int(disc))

		return n, nil
	}

	if int(disc) >= len(t.Variants) {
		return nil, errs.NewInvalidDiscriminantError("Variant", int(disc), len(t.Variants))
	}

	selected := t.Variants[disc]
	value, err := decodeRowValue(r, selected, c)
	if err != nil {
		return nil, err
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}
	n := c.node(t.String(), rng, value.Value, value.DisplayValue, []*ast.Node{value})
	n.SetMetadata("discriminant", int(disc))
	n.SetMetadata("selectedType", selected.String())

	return n, nil
}

func decodeDynamic(r *reader.ByteReader, c *rowCtx) (*ast.Node, error) {
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

	value, err := decodeRowValue(r, decoded, c)
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

func decodeJSON(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	count, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	children := make([]*ast.Node, 0, count)
	for range count {
		pathStart := r.Pos()
		pathLen, _, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		pathBytes, _, err := r.ReadBytes(int(pathLen))
		if err != nil {
			return nil, err
		}
		path := string(pathBytes)

		var valueType *typelang.TypeDescriptor
		for _, tp := range t.TypedPaths {
			if tp.Path == path {
				valueType = tp.Type

				break
			}
		}

		var valueNode *ast.Node
		if valueType != nil {
			valueNode, err = decodeRowValue(r, valueType, c)
		} else {
			valueNode, err = decodeDynamic(r, c)
		}
		if err != nil {
			return nil, err
		}

		pairRng := reader.ByteRange{Start: pathStart, End: r.Pos()}
		pair := c.node("JSON.path", pairRng, valueNode.Value, valueNode.DisplayValue, []*ast.Node{valueNode})
		pair.Label = path
		children = append(children, pair)
	}

	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, fmt.Sprintf("%d paths", count), children), nil
}

func decodeNested(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	children := make([]*ast.Node, 0, len(t.Fields))
	for _, f := range t.Fields {
		arrType := &typelang.TypeDescriptor{Kind: typelang.KindArray, Element: f.Type}
		child, err := decodeArray(r, c, f.Type, arrType.String())
		if err != nil {
			return nil, err
		}
		child.Label = f.Name
		children = append(children, child)
	}
	rng := reader.ByteRange{Start: start, End: r.Pos()}

	return c.node(t.String(), rng, nil, "", children), nil
}

func decodeQBit(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()
	size, lenRng, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	if int(size) != t.Dimension {
		return nil, fmt.Errorf("%w: size %d != dimension %d", errs.ErrQBitSizeMismatch, size, t.Dimension)
	}

	lengthLeaf := c.leaf("UInt64", lenRng, size, fmt.Sprintf("%d", size))
	lengthLeaf.Label = "length"

	children := make([]*ast.Node, 0, size+1)
	children = append(children, lengthLeaf)
	for i := range size {
		child, err := decodeRowValue(r, t.Element, c)
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

func decodeAggregateFunction(r *reader.ByteReader, c *rowCtx, t *typelang.TypeDescriptor) (*ast.Node, error) {
	start := r.Pos()

	switch t.FunctionName {
	case "avg":
		if len(t.ArgTypes) != 1 {
			return nil, errs.NewUnsupportedAggregateError(t.FunctionName)
		}
		sum, err := decodeRowValue(r, t.ArgTypes[0], c)
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
		sum, err := decodeRowValue(r, t.ArgTypes[0], c)
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

func typeStrings(types []*typelang.TypeDescriptor) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}

	return out
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
