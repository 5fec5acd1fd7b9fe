package decoder

import (
	"fmt"

	"github.com/clickhouse-explorer/wirecore/ast"
	"github.com/clickhouse-explorer/wirecore/columnreader"
	"github.com/clickhouse-explorer/wirecore/compress"
	"github.com/clickhouse-explorer/wirecore/internal/typecache"
	"github.com/clickhouse-explorer/wirecore/reader"
)

// ColumnDecoder decodes a column-oriented (block-native) input into a
// ParsedData tree: repeated blocks of `{ LEB128 nCols, LEB128 nRows,
// nCols × (name, type, payload) }` until EOF, each payload laid out as
// one contiguous run per column rather than framed per row (§4.5). The
// common Header exposed on the result is built from the first block's
// columns.
type ColumnDecoder struct {
	data   []byte
	config *decoderConfig
	cache  *typecache.Cache
}

// NewColumnDecoder builds a ColumnDecoder over data, mirroring
// NewRowDecoder's option handling.
func NewColumnDecoder(data []byte, opts ...ColumnDecoderOption) (*ColumnDecoder, error) {
	cfg, err := applyDecoderOptions(opts)
	if err != nil {
		return nil, err
	}

	return &ColumnDecoder{
		data:   data,
		config: cfg,
		cache:  typecache.New(),
	}, nil
}

// Decode parses every block in the input and returns the resulting
// ParsedData.
func (d *ColumnDecoder) Decode() (*ast.ParsedData, error) {
	payload := d.data

	r := reader.NewLittleEndian(payload)
	if d.config.compressedInput {
		frame, err := compress.ReadFrame(r)
		if err != nil {
			return nil, err
		}
		payload = frame.Payload
		r = reader.NewLittleEndian(payload)
	}

	ids := &ast.IDCounter{}
	for range d.config.idStart {
		ids.Next()
	}
	ctx := &columnreader.Ctx{IDs: ids, ZeroCopy: d.config.zeroCopy}

	var header *ast.Header
	var blocks []*ast.Block

	for !r.AtEnd() {
		block, columns, err := decodeBlock(r, ctx, d.cache)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)

		if header == nil {
			header = &ast.Header{Columns: columns}
		}
	}

	return &ast.ParsedData{
		Format:     ast.FormatColumnNative,
		Header:     header,
		TotalBytes: len(d.data),
		Blocks:     blocks,
	}, nil
}

// decodeBlock reads one block: its nCols/nRows prefix, then nCols
// interleaved (name, type, payload) columns, each payload read via
// columnreader.ReadColumn.
func decodeBlock(r *reader.ByteReader, ctx *columnreader.Ctx, cache *typecache.Cache) (*ast.Block, []ast.ColumnDef, error) {
	blockStart := r.Pos()

	nCols, nColsRng, err := r.ReadLEB128()
	if err != nil {
		return nil, nil, err
	}
	nColsLeaf := leaf(ctx, "UInt64", nColsRng, nCols, fmt.Sprintf("%d", nCols))
	nColsLeaf.Label = "columnCount"

	nRows, nRowsRng, err := r.ReadLEB128()
	if err != nil {
		return nil, nil, err
	}
	nRowsLeaf := leaf(ctx, "UInt64", nRowsRng, nRows, fmt.Sprintf("%d", nRows))
	nRowsLeaf.Label = "rowCount"

	columns := make([]ast.ColumnDef, nCols)
	children := make([]*ast.Node, 0, 2+nCols)
	children = append(children, nColsLeaf, nRowsLeaf)

	for i := range nCols {
		colStart := r.Pos()

		nameStart := r.Pos()
		n, _, err := r.ReadLEB128()
		if err != nil {
			return nil, nil, err
		}
		nameBytes, _, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, nil, err
		}
		nameRng := reader.ByteRange{Start: nameStart, End: r.Pos()}
		name := string(nameBytes)

		nameNode := leaf(ctx, "String", nameRng, name, name)
		nameNode.Label = "name"

		typeStart := r.Pos()
		tn, _, err := r.ReadLEB128()
		if err != nil {
			return nil, nil, err
		}
		typeBytes, _, err := r.ReadBytes(int(tn))
		if err != nil {
			return nil, nil, err
		}
		typeRng := reader.ByteRange{Start: typeStart, End: r.Pos()}
		typeStr := string(typeBytes)

		desc, err := cache.Parse(typeStr)
		if err != nil {
			return nil, nil, err
		}

		typeNode := leaf(ctx, "String", typeRng, typeStr, typeStr)
		typeNode.Label = "type"

		payload, err := columnreader.ReadColumn(r, desc, int(nRows), ctx)
		if err != nil {
			return nil, nil, err
		}
		payload.Label = "payload"

		colRng := reader.ByteRange{Start: colStart, End: r.Pos()}
		colNode := node(ctx, "Column", colRng, nil, name+" "+typeStr, []*ast.Node{nameNode, typeNode, payload})
		colNode.Label = name
		children = append(children, colNode)

		columns[i] = ast.ColumnDef{
			Name:       name,
			TypeString: typeStr,
			Type:       desc,
			NameRange:  nameRng,
			TypeRange:  typeRng,
		}
	}

	blockRange := reader.ByteRange{Start: blockStart, End: r.Pos()}
	blockNode := node(ctx, "Block", blockRange, nil, fmt.Sprintf("%d cols x %d rows", nCols, nRows), children)

	return &ast.Block{
		ColumnCount: int(nCols),
		RowCount:    int(nRows),
		Node:        blockNode,
	}, columns, nil
}

func leaf(ctx *columnreader.Ctx, typeStr string, rng reader.ByteRange, value any, display string) *ast.Node {
	return &ast.Node{
		ID:           ctx.IDs.Next(),
		Type:         typeStr,
		ByteRange:    rng,
		Value:        value,
		DisplayValue: display,
	}
}

func node(ctx *columnreader.Ctx, typeStr string, rng reader.ByteRange, value any, display string, children []*ast.Node) *ast.Node {
	n := leaf(ctx, typeStr, rng, value, display)
	n.Children = children

	return n
}
