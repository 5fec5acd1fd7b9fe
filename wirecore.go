// Package wirecore decodes ClickHouse-style binary wire formats into a
// uniform, self-describing parse tree with byte-level provenance: every
// decoded value is a Node carrying the exact byte range it came from, so
// a caller can build hex-viewer-style tooling, audit a capture for
// malformed frames, or simply inspect what a driver put on the wire.
//
// # Core Features
//
//   - Row-oriented (RowBinary-style) decoding: a header of column
//     definitions followed by one row per record.
//   - Column-oriented (block-native) decoding: repeated blocks, each
//     column laid out as one contiguous run rather than framed per row.
//   - A shared type descriptor language (Array, Tuple, Map, Nullable,
//     LowCardinality, Variant, Dynamic, JSON, Decimal, geometry types,
//     and more) parsed once and reused by both decoders.
//   - Optional compression-envelope unwrapping (LZ4, Zstd) ahead of
//     decoding, so callers don't need a separate decompression pass.
//
// # Basic Usage
//
// Decoding a row-oriented capture:
//
//	tree, err := wirecore.DecodeRowBinary(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for row := range tree.Roots() {
//	    fmt.Println(row.DisplayValue)
//	}
//
// Decoding a column-oriented capture:
//
//	tree, err := wirecore.DecodeColumnNative(data, decoder.WithCompressedInput())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, block := range tree.Blocks {
//	    fmt.Printf("block: %d cols x %d rows\n", block.ColumnCount, block.RowCount)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the
// decoder and typelang packages, simplifying the most common use cases.
// For advanced usage — custom id-counter starts, zero-copy byte
// borrowing, or driving RowDecoder/ColumnDecoder directly — use those
// packages.
package wirecore

import (
	"github.com/clickhouse-explorer/wirecore/ast"
	"github.com/clickhouse-explorer/wirecore/decoder"
	"github.com/clickhouse-explorer/wirecore/typelang"
)

// DecodeRowBinary decodes a row-oriented input in a single call, passing
// opts through to decoder.NewRowDecoder (default options when none are
// given).
//
// Parameters:
//   - data: the raw row-oriented bytes (header + rows)
//   - opts: optional configuration (see decoder.RowDecoderOption)
//
// Returns the decoded ParsedData tree, or an error if the input is
// malformed.
//
// Example:
//
//	tree, err := wirecore.DecodeRowBinary(data)
func DecodeRowBinary(data []byte, opts ...decoder.RowDecoderOption) (*ast.ParsedData, error) {
	d, err := decoder.NewRowDecoder(data, opts...)
	if err != nil {
		return nil, err
	}

	return d.Decode()
}

// DecodeColumnNative decodes a column-oriented (block-native) input in a
// single call, passing opts through to decoder.NewColumnDecoder (default
// options when none are given).
//
// Parameters:
//   - data: the raw column-oriented bytes (repeated blocks)
//   - opts: optional configuration (see decoder.ColumnDecoderOption)
//
// Returns the decoded ParsedData tree, or an error if the input is
// malformed.
//
// Example:
//
//	tree, err := wirecore.DecodeColumnNative(data)
func DecodeColumnNative(data []byte, opts ...decoder.ColumnDecoderOption) (*ast.ParsedData, error) {
	d, err := decoder.NewColumnDecoder(data, opts...)
	if err != nil {
		return nil, err
	}

	return d.Decode()
}

// ParseType parses a type descriptor string (e.g.
// "Array(Nullable(UInt32))") into a typelang.TypeDescriptor, the same
// parser both decoders use internally to resolve column type strings.
//
// Example:
//
//	t, err := wirecore.ParseType("Map(String, Array(Int64))")
func ParseType(typeString string) (*typelang.TypeDescriptor, error) {
	return typelang.Parse(typeString)
}

// TypeToString renders a TypeDescriptor back into its canonical,
// re-parseable string form — the inverse of ParseType.
//
// Example:
//
//	s := wirecore.TypeToString(t) // "Map(String, Array(Int64))"
func TypeToString(t *typelang.TypeDescriptor) string {
	return t.String()
}
