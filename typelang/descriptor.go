// Package typelang implements the type descriptor language: a tokenizer
// (Lexer) and recursive-descent parser (Parser) that turn type strings
// like "Array(Nullable(Tuple(id UInt32, name String)))" into a
// TypeDescriptor tree, plus TypeDescriptor.String for the reverse
// direction.
package typelang

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags which variant of the type descriptor union a TypeDescriptor
// holds. Only the fields relevant to a given Kind are populated; see the
// per-Kind comments on TypeDescriptor's fields.
type Kind int

const (
	KindUInt8 Kind = iota
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindUInt256
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindInt256
	KindFloat32
	KindFloat64
	KindBFloat16
	KindString
	KindBool
	KindDate
	KindDate32
	KindTime
	KindUUID
	KindIPv4
	KindIPv6
	KindPoint
	KindRing
	KindPolygon
	KindMultiPolygon
	KindLineString
	KindMultiLineString
	KindGeometry
	KindIntervalSecond
	KindIntervalMinute
	KindIntervalHour
	KindIntervalDay
	KindIntervalWeek
	KindIntervalMonth
	KindIntervalQuarter
	KindIntervalYear
	KindIntervalMillisecond
	KindIntervalMicrosecond
	KindFixedString
	KindDateTime
	KindDateTime64
	KindTime64
	KindDecimal32
	KindDecimal64
	KindDecimal128
	KindDecimal256
	KindEnum8
	KindEnum16
	KindArray
	KindTuple
	KindMap
	KindNullable
	KindLowCardinality
	KindVariant
	KindDynamic
	KindJSON
	KindNested
	KindQBit
	KindAggregateFunction
)

// EnumValue is one (code, label) pair of an Enum8/Enum16 type, in the
// order they were declared.
type EnumValue struct {
	Code  int
	Label string
}

// JSONTypedPath is one declared (path, type) entry of a JSON type's typed
// paths, in declaration order.
type JSONTypedPath struct {
	Path string
	Type *TypeDescriptor
}

// NestedField is one (name, type) entry of a Nested type, in declaration
// order.
type NestedField struct {
	Name string
	Type *TypeDescriptor
}

// TypeDescriptor is the tagged-union representation of a parsed type.
// It is immutable once constructed (§3 invariant) and compared
// structurally via Equal.
type TypeDescriptor struct {
	Kind Kind

	// FixedString length.
	Length int

	// DateTime, DateTime64.
	Timezone *string

	// Decimal{32,64,128,256}, DateTime64, Time64: Precision/Scale as
	// applicable; for Decimal both are populated, for DateTime64/Time64
	// only Precision is.
	Precision int
	Scale     int

	// Enum8, Enum16.
	EnumValues []EnumValue

	// Array, Nullable, LowCardinality, QBit element type.
	Element *TypeDescriptor

	// QBit dimension.
	Dimension int

	// Map.
	Key   *TypeDescriptor
	Value *TypeDescriptor

	// Tuple.
	Elements []*TypeDescriptor
	Names    []string
	Named    bool

	// Variant: alternatives, sorted lexicographically by canonical string.
	Variants []*TypeDescriptor

	// Dynamic.
	MaxTypes *int

	// JSON.
	TypedPaths      []JSONTypedPath
	MaxDynamicPaths *int

	// Nested.
	Fields []NestedField

	// AggregateFunction.
	FunctionName string
	ArgTypes     []*TypeDescriptor
}

// zeroParamNames maps every identifier that names a zero-parameter type to
// its Kind. Looked up by LookupZeroParamKind to validate bare identifiers,
// and inverted as kindNames for String and IsZeroParam.
var zeroParamNames = map[string]Kind{
	"UInt8": KindUInt8, "UInt16": KindUInt16, "UInt32": KindUInt32, "UInt64": KindUInt64,
	"UInt128": KindUInt128, "UInt256": KindUInt256,
	"Int8": KindInt8, "Int16": KindInt16, "Int32": KindInt32, "Int64": KindInt64,
	"Int128": KindInt128, "Int256": KindInt256,
	"Float32": KindFloat32, "Float64": KindFloat64, "BFloat16": KindBFloat16,
	"String": KindString, "Bool": KindBool,
	"Date": KindDate, "Date32": KindDate32, "Time": KindTime, "UUID": KindUUID,
	"IPv4": KindIPv4, "IPv6": KindIPv6,
	"Point": KindPoint, "Ring": KindRing, "Polygon": KindPolygon,
	"MultiPolygon": KindMultiPolygon, "LineString": KindLineString,
	"MultiLineString": KindMultiLineString, "Geometry": KindGeometry,
	"IntervalSecond": KindIntervalSecond, "IntervalMinute": KindIntervalMinute,
	"IntervalHour": KindIntervalHour, "IntervalDay": KindIntervalDay,
	"IntervalWeek": KindIntervalWeek, "IntervalMonth": KindIntervalMonth,
	"IntervalQuarter": KindIntervalQuarter, "IntervalYear": KindIntervalYear,
	"IntervalMillisecond": KindIntervalMillisecond, "IntervalMicrosecond": KindIntervalMicrosecond,
}

var kindNames = func() map[Kind]string {
	m := make(map[Kind]string, len(zeroParamNames))
	for name, k := range zeroParamNames {
		m[k] = name
	}

	return m
}()

// LookupZeroParamKind returns the Kind for a bare identifier, if it names
// a known zero-parameter type.
func LookupZeroParamKind(name string) (Kind, bool) {
	k, ok := zeroParamNames[name]

	return k, ok
}

// IsZeroParam reports whether k is a zero-parameter primitive kind.
func IsZeroParam(k Kind) bool {
	_, ok := kindNames[k]

	return ok
}

// decimalWidthForPrecision returns the narrowest Decimal kind covering the
// given precision, per ClickHouse's own precision ranges (SPEC_FULL.md
// Open Question decision).
func decimalWidthForPrecision(precision int) Kind {
	switch {
	case precision <= 9:
		return KindDecimal32
	case precision <= 18:
		return KindDecimal64
	case precision <= 38:
		return KindDecimal128
	default:
		return KindDecimal256
	}
}

// defaultPrecisionForDecimalWidth returns the maximum representable
// precision for a DecimalN kind when only a scale was given.
func defaultPrecisionForDecimalWidth(k Kind) int {
	switch k {
	case KindDecimal32:
		return 9
	case KindDecimal64:
		return 18
	case KindDecimal128:
		return 38
	default:
		return 76
	}
}

// String reproduces a parseable form of the type descriptor. Round-trip
// identity holds modulo Variant alternative ordering (already normalized
// at parse time) and whitespace (§8).
func (t *TypeDescriptor) String() string {
	if name, ok := kindNames[t.Kind]; ok {
		return name
	}

	switch t.Kind {
	case KindFixedString:
		return "FixedString(" + strconv.Itoa(t.Length) + ")"
	case KindDateTime:
		if t.Timezone != nil {
			return "DateTime('" + escapeString(*t.Timezone) + "')"
		}

		return "DateTime"
	case KindDateTime64:
		if t.Timezone != nil {
			return "DateTime64(" + strconv.Itoa(t.Precision) + ", '" + escapeString(*t.Timezone) + "')"
		}

		return "DateTime64(" + strconv.Itoa(t.Precision) + ")"
	case KindTime64:
		return "Time64(" + strconv.Itoa(t.Precision) + ")"
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return decimalKindName(t.Kind) + "(" + strconv.Itoa(t.Precision) + ", " + strconv.Itoa(t.Scale) + ")"
	case KindEnum8, KindEnum16:
		var sb strings.Builder
		sb.WriteString(enumKindName(t.Kind))
		sb.WriteByte('(')
		for i, ev := range t.EnumValues {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('\'')
			sb.WriteString(escapeString(ev.Label))
			sb.WriteString("' = ")
			sb.WriteString(strconv.Itoa(ev.Code))
		}
		sb.WriteByte(')')

		return sb.String()
	case KindArray:
		return "Array(" + t.Element.String() + ")"
	case KindNullable:
		return "Nullable(" + t.Element.String() + ")"
	case KindLowCardinality:
		return "LowCardinality(" + t.Element.String() + ")"
	case KindMap:
		return "Map(" + t.Key.String() + ", " + t.Value.String() + ")"
	case KindTuple:
		var sb strings.Builder
		sb.WriteString("Tuple(")
		for i, e := range t.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			if t.Named && t.Names[i] != "" {
				sb.WriteString(t.Names[i])
				sb.WriteByte(' ')
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(')')

		return sb.String()
	case KindVariant:
		var sb strings.Builder
		sb.WriteString("Variant(")
		for i, v := range t.Variants {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte(')')

		return sb.String()
	case KindDynamic:
		if t.MaxTypes != nil {
			return "Dynamic(max_types=" + strconv.Itoa(*t.MaxTypes) + ")"
		}

		return "Dynamic"
	case KindJSON:
		var sb strings.Builder
		sb.WriteString("JSON(")
		first := true
		if t.MaxDynamicPaths != nil {
			sb.WriteString("max_dynamic_paths=" + strconv.Itoa(*t.MaxDynamicPaths))
			first = false
		}
		for _, p := range t.TypedPaths {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(p.Path)
			sb.WriteByte(' ')
			sb.WriteString(p.Type.String())
		}
		sb.WriteByte(')')

		return sb.String()
	case KindNested:
		var sb strings.Builder
		sb.WriteString("Nested(")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteByte(' ')
			sb.WriteString(f.Type.String())
		}
		sb.WriteByte(')')

		return sb.String()
	case KindQBit:
		return "QBit(" + t.Element.String() + ", " + strconv.Itoa(t.Dimension) + ")"
	case KindAggregateFunction:
		var sb strings.Builder
		sb.WriteString("AggregateFunction(")
		sb.WriteString(t.FunctionName)
		for _, a := range t.ArgTypes {
			sb.WriteString(", ")
			sb.WriteString(a.String())
		}
		sb.WriteByte(')')

		return sb.String()
	default:
		return "<invalid>"
	}
}

func decimalKindName(k Kind) string {
	switch k {
	case KindDecimal32:
		return "Decimal32"
	case KindDecimal64:
		return "Decimal64"
	case KindDecimal128:
		return "Decimal128"
	default:
		return "Decimal256"
	}
}

func enumKindName(k Kind) string {
	if k == KindEnum8 {
		return "Enum8"
	}

	return "Enum16"
}

func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString("\\'")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\t':
			sb.WriteString("\\t")
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// sortVariants sorts variant alternatives lexicographically by their
// canonical string representation (§3, §8 "Variant ordering").
func sortVariants(variants []*TypeDescriptor) {
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].String() < variants[j].String()
	})
}

// Equal reports whether two TypeDescriptors are structurally identical.
func (t *TypeDescriptor) Equal(other *TypeDescriptor) bool {
	if t == nil || other == nil {
		return t == other
	}

	return t.String() == other.String()
}

// NewVariant builds a Variant TypeDescriptor, normalizing the alternative
// order by sorting lexicographically on canonical string representation
// (§3, §9 "Variant sorting at parse time"). Used by both the type parser
// and the binary type index decoder so wire discriminants agree
// regardless of declaration order.
func NewVariant(variants []*TypeDescriptor) *TypeDescriptor {
	sortVariants(variants)

	return &TypeDescriptor{Kind: KindVariant, Variants: variants}
}
