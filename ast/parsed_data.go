package ast

import (
	"iter"

	"github.com/clickhouse-explorer/wirecore/typelang"
)

// Format tags which wire format a ParsedData was decoded from.
type Format string

const (
	FormatRowBinary    Format = "row-binary"
	FormatColumnNative Format = "column-native"
)

// ColumnDef is one column declaration shared by both formats' headers.
type ColumnDef struct {
	Name       string
	TypeString string
	Type       *typelang.TypeDescriptor
	NameRange  ByteRange
	TypeRange  ByteRange
}

// Header is the set of column definitions a decode exposes. For the
// column-oriented format it is built from the first block's columns
// (§4.5); for the row-oriented format it is the single header section
// (§4.4).
type Header struct {
	Columns []ColumnDef
	Node    *Node
}

// Block is one decoded block of the column-oriented format: its
// row/column counts plus the Node tree covering the block's bytes.
type Block struct {
	ColumnCount int
	RowCount    int
	Node        *Node
}

// ParsedData is the top-level decode result: the shared header, the
// total input length, and exactly one of Rows or Blocks depending on
// Format.
type ParsedData struct {
	Format     Format
	Header     *Header
	TotalBytes int

	// Rows holds one Node per decoded row (row-oriented format only).
	Rows []*Node

	// Blocks holds one Block per decoded block (column-oriented format
	// only).
	Blocks []*Block
}

// Roots returns an iterator over every top-level node a ParsedData holds
// (the header node plus one node per row or block), in byte order.
func (p *ParsedData) Roots() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if p.Header != nil && p.Header.Node != nil {
			if !yield(p.Header.Node) {
				return
			}
		}
		for _, r := range p.Rows {
			if !yield(r) {
				return
			}
		}
		for _, b := range p.Blocks {
			if !yield(b.Node) {
				return
			}
		}
	}
}
