// Package dynamictype decodes the compact binary type index (§6 of the
// accompanying specification) that lets a Dynamic or JSON value carry its
// own type definition inline in the byte stream. It is shared by the row
// and column decoders' Dynamic and JSON handling.
package dynamictype

import (
	"github.com/clickhouse-explorer/wirecore/errs"
	"github.com/clickhouse-explorer/wirecore/reader"
	"github.com/clickhouse-explorer/wirecore/typelang"
)

// IndexNothing is the distinguished index signaling "no value"/NULL when
// it appears at the top of a Dynamic value.
const IndexNothing = 0x00

// Decode reads one binary-type-index encoded type definition, returning
// the resulting TypeDescriptor, the raw index byte (the "typeIndex"
// metadata entry a Dynamic node must carry per spec.md §4.6), the
// ByteRange the definition's bytes occupied, and an error.
//
// If allowNothing is true and the index is IndexNothing, Decode returns
// (nil, IndexNothing, range, nil): the caller must treat a nil descriptor
// as "no value follows". If allowNothing is false, encountering
// IndexNothing is ErrNothingAsSubType (§4.3: Nothing is only valid at the
// top of a Dynamic value, never as a container's sub-type).
func Decode(r *reader.ByteReader, allowNothing bool) (*typelang.TypeDescriptor, uint8, reader.ByteRange, error) {
	start := r.Pos()
	idx, _, err := r.ReadU8()
	if err != nil {
		return nil, 0, reader.ByteRange{}, err
	}

	if idx == IndexNothing {
		if !allowNothing {
			return nil, idx, reader.ByteRange{}, errs.ErrNothingAsSubType
		}

		return nil, idx, reader.ByteRange{Start: start, End: r.Pos()}, nil
	}

	desc, err := decodeBody(r, idx)
	if err != nil {
		return nil, idx, reader.ByteRange{}, err
	}

	return desc, idx, reader.ByteRange{Start: start, End: r.Pos()}, nil
}

// decodeSubType decodes a required, non-Nothing sub-type definition
// (container element/key/value types).
func decodeSubType(r *reader.ByteReader) (*typelang.TypeDescriptor, error) {
	desc, _, _, err := Decode(r, false)

	return desc, err
}

func decodeBody(r *reader.ByteReader, idx uint8) (*typelang.TypeDescriptor, error) {
	switch idx {
	case 0x01:
		return &typelang.TypeDescriptor{Kind: typelang.KindUInt8}, nil
	case 0x02:
		return &typelang.TypeDescriptor{Kind: typelang.KindUInt16}, nil
	case 0x03:
		return &typelang.TypeDescriptor{Kind: typelang.KindUInt32}, nil
	case 0x04:
		return &typelang.TypeDescriptor{Kind: typelang.KindUInt64}, nil
	case 0x05:
		return &typelang.TypeDescriptor{Kind: typelang.KindUInt128}, nil
	case 0x06:
		return &typelang.TypeDescriptor{Kind: typelang.KindUInt256}, nil
	case 0x07:
		return &typelang.TypeDescriptor{Kind: typelang.KindInt8}, nil
	case 0x08:
		return &typelang.TypeDescriptor{Kind: typelang.KindInt16}, nil
	case 0x09:
		return &typelang.TypeDescriptor{Kind: typelang.KindInt32}, nil
	case 0x0A:
		return &typelang.TypeDescriptor{Kind: typelang.KindInt64}, nil
	case 0x0B:
		return &typelang.TypeDescriptor{Kind: typelang.KindInt128}, nil
	case 0x0C:
		return &typelang.TypeDescriptor{Kind: typelang.KindInt256}, nil
	case 0x0D:
		return &typelang.TypeDescriptor{Kind: typelang.KindFloat32}, nil
	case 0x0E:
		return &typelang.TypeDescriptor{Kind: typelang.KindFloat64}, nil
	case 0x0F:
		return &typelang.TypeDescriptor{Kind: typelang.KindDate}, nil
	case 0x10:
		return &typelang.TypeDescriptor{Kind: typelang.KindDate32}, nil
	case 0x11:
		return &typelang.TypeDescriptor{Kind: typelang.KindDateTime}, nil
	case 0x12:
		tz, err := readLengthPrefixedString(r)
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindDateTime, Timezone: &tz}, nil
	case 0x13:
		precision, _, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindDateTime64, Precision: int(precision)}, nil
	case 0x14:
		precision, _, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		tz, err := readLengthPrefixedString(r)
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindDateTime64, Precision: int(precision), Timezone: &tz}, nil
	case 0x15:
		return &typelang.TypeDescriptor{Kind: typelang.KindString}, nil
	case 0x16:
		length, _, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindFixedString, Length: int(length)}, nil
	case 0x17:
		return decodeEnum(r, typelang.KindEnum8, 8)
	case 0x18:
		return decodeEnum(r, typelang.KindEnum16, 16)
	case 0x19:
		return decodeDecimal(r, typelang.KindDecimal32)
	case 0x1A:
		return decodeDecimal(r, typelang.KindDecimal64)
	case 0x1B:
		return decodeDecimal(r, typelang.KindDecimal128)
	case 0x1C:
		return decodeDecimal(r, typelang.KindDecimal256)
	case 0x1D:
		return &typelang.TypeDescriptor{Kind: typelang.KindUUID}, nil
	case 0x1E:
		elem, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindArray, Element: elem}, nil
	case 0x1F:
		return decodeTuple(r, false)
	case 0x20:
		return decodeTuple(r, true)
	case 0x23:
		elem, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindNullable, Element: elem}, nil
	case 0x26:
		elem, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindLowCardinality, Element: elem}, nil
	case 0x27:
		key, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}
		val, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindMap, Key: key, Value: val}, nil
	case 0x28:
		return &typelang.TypeDescriptor{Kind: typelang.KindIPv4}, nil
	case 0x29:
		return &typelang.TypeDescriptor{Kind: typelang.KindIPv6}, nil
	case 0x2A:
		return decodeVariant(r)
	case 0x2B:
		maxTypes, _, err := r.ReadLEB128()
		if err != nil {
			return nil, err
		}
		if maxTypes == 0 {
			return &typelang.TypeDescriptor{Kind: typelang.KindDynamic}, nil
		}
		n := int(maxTypes)

		return &typelang.TypeDescriptor{Kind: typelang.KindDynamic, MaxTypes: &n}, nil
	case 0x2D:
		return &typelang.TypeDescriptor{Kind: typelang.KindBool}, nil
	case 0x30:
		return decodeJSON(r)
	case 0x31:
		return &typelang.TypeDescriptor{Kind: typelang.KindBFloat16}, nil
	case 0x32:
		return &typelang.TypeDescriptor{Kind: typelang.KindTime}, nil
	case 0x34:
		precision, _, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		return &typelang.TypeDescriptor{Kind: typelang.KindTime64, Precision: int(precision)}, nil
	default:
		return nil, errs.NewUnknownBinaryTypeIndexError(idx)
	}
}

func readLengthPrefixedString(r *reader.ByteReader) (string, error) {
	n, _, err := r.ReadLEB128()
	if err != nil {
		return "", err
	}
	b, _, err := r.ReadBytesCopy(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func decodeEnum(r *reader.ByteReader, kind typelang.Kind, bits int) (*typelang.TypeDescriptor, error) {
	count, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	values := make([]typelang.EnumValue, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := readLengthPrefixedString(r)
		if err != nil {
			return nil, err
		}
		var code int
		if bits == 8 {
			v, _, err := r.ReadI8()
			if err != nil {
				return nil, err
			}
			code = int(v)
		} else {
			v, _, err := r.ReadI16()
			if err != nil {
				return nil, err
			}
			code = int(v)
		}
		values = append(values, typelang.EnumValue{Code: code, Label: name})
	}

	return &typelang.TypeDescriptor{Kind: kind, EnumValues: values}, nil
}

func decodeDecimal(r *reader.ByteReader, kind typelang.Kind) (*typelang.TypeDescriptor, error) {
	precision, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	scale, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	return &typelang.TypeDescriptor{Kind: kind, Precision: int(precision), Scale: int(scale)}, nil
}

func decodeTuple(r *reader.ByteReader, named bool) (*typelang.TypeDescriptor, error) {
	count, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	desc := &typelang.TypeDescriptor{Kind: typelang.KindTuple, Named: named}
	for i := uint64(0); i < count; i++ {
		name := ""
		if named {
			name, err = readLengthPrefixedString(r)
			if err != nil {
				return nil, err
			}
		}
		elem, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}
		desc.Names = append(desc.Names, name)
		desc.Elements = append(desc.Elements, elem)
	}

	return desc, nil
}

func decodeVariant(r *reader.ByteReader) (*typelang.TypeDescriptor, error) {
	count, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	variants := make([]*typelang.TypeDescriptor, 0, count)
	for i := uint64(0); i < count; i++ {
		v, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	return typelang.NewVariant(variants), nil
}

// decodeJSON consumes a JSON column's type definition per §4.3: version
// byte, max_dynamic_paths, max_dynamic_types, typed paths, then skip-path
// and skip-regexp entries that exist only to advance the cursor.
func decodeJSON(r *reader.ByteReader) (*typelang.TypeDescriptor, error) {
	if _, _, err := r.ReadU8(); err != nil { // serialization version
		return nil, err
	}

	maxDynamicPaths, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}

	if _, _, err := r.ReadU8(); err != nil { // max_dynamic_types
		return nil, err
	}

	desc := &typelang.TypeDescriptor{Kind: typelang.KindJSON}
	n := int(maxDynamicPaths)
	desc.MaxDynamicPaths = &n

	pathCount, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < pathCount; i++ {
		path, err := readLengthPrefixedString(r)
		if err != nil {
			return nil, err
		}
		typ, err := decodeSubType(r)
		if err != nil {
			return nil, err
		}
		desc.TypedPaths = append(desc.TypedPaths, typelang.JSONTypedPath{Path: path, Type: typ})
	}

	skipPathCount, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < skipPathCount; i++ {
		if _, err := readLengthPrefixedString(r); err != nil {
			return nil, err
		}
	}

	skipRegexpCount, _, err := r.ReadLEB128()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < skipRegexpCount; i++ {
		if _, err := readLengthPrefixedString(r); err != nil {
			return nil, err
		}
	}

	return desc, nil
}
