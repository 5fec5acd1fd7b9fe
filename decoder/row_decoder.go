package decoder

import (
	"fmt"

	"github.com/clickhouse-explorer/wirecore/ast"
	"github.com/clickhouse-explorer/wirecore/compress"
	"github.com/clickhouse-explorer/wirecore/internal/typecache"
	"github.com/clickhouse-explorer/wirecore/reader"
)

// RowDecoder decodes a row-oriented (RowBinary-style) input into a single
// ParsedData tree: a header of column definitions followed by one row
// per Node, each row a Tuple-shaped sequence of per-column value nodes
// (§4.4 of the accompanying specification).
type RowDecoder struct {
	data   []byte
	config *decoderConfig
	cache  *typecache.Cache
}

// NewRowDecoder builds a RowDecoder over data. Options configure
// compression unwrapping, zero-copy byte handling, and the starting id
// counter value; see WithCompressedInput, WithZeroCopyStrings, and
// WithIDCounterStart.
func NewRowDecoder(data []byte, opts ...RowDecoderOption) (*RowDecoder, error) {
	cfg, err := applyDecoderOptions(opts)
	if err != nil {
		return nil, err
	}

	return &RowDecoder{
		data:   data,
		config: cfg,
		cache:  typecache.New(),
	}, nil
}

// Decode parses the full input and returns the resulting ParsedData.
func (d *RowDecoder) Decode() (*ast.ParsedData, error) {
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
	ctx := &rowCtx{ids: ids, zeroCopy: d.config.zeroCopy}

	header, columns, err := decodeHeader(r, ctx, d.cache)
	if err != nil {
		return nil, err
	}

	var rows []*ast.Node
	for !r.AtEnd() {
		rowStart := r.Pos()
		children := make([]*ast.Node, 0, len(columns))

		for _, col := range columns {
			value, err := decodeRowValue(r, col.Type, ctx)
			if err != nil {
				return nil, err
			}
			value.Label = col.Name
			children = append(children, value)
		}

		rowRange := reader.ByteRange{Start: rowStart, End: r.Pos()}
		row := ctx.node("Row", rowRange, nil, "", children)
		rows = append(rows, row)
	}

	return &ast.ParsedData{
		Format:     ast.FormatRowBinary,
		Header:     header,
		TotalBytes: len(d.data),
		Rows:       rows,
	}, nil
}

// decodeHeader reads the column-count-then-(names)-then-(types) header
// shared by every row-oriented input and returns both the Header node
// and the resolved ColumnDef slice decoding each row needs.
func decodeHeader(r *reader.ByteReader, ctx *rowCtx, cache *typecache.Cache) (*ast.Header, []ast.ColumnDef, error) {
	headerStart := r.Pos()

	count, countRng, err := r.ReadLEB128()
	if err != nil {
		return nil, nil, err
	}

	countLeaf := ctx.leaf("UInt64", countRng, count, fmt.Sprintf("%d", count))
	countLeaf.Label = "columnCount"

	columns := make([]ast.ColumnDef, count)
	nameNodes := make([]*ast.Node, count)
	for i := range count {
		start := r.Pos()
		n, _, err := r.ReadLEB128()
		if err != nil {
			return nil, nil, err
		}
		b, _, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, nil, err
		}
		rng := reader.ByteRange{Start: start, End: r.Pos()}

		columns[i].Name = string(b)
		columns[i].NameRange = rng

		node := ctx.leaf("String", rng, columns[i].Name, columns[i].Name)
		node.Label = "name"
		nameNodes[i] = node
	}

	typeNodes := make([]*ast.Node, count)
	for i := range count {
		start := r.Pos()
		n, _, err := r.ReadLEB128()
		if err != nil {
			return nil, nil, err
		}
		b, _, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, nil, err
		}
		rng := reader.ByteRange{Start: start, End: r.Pos()}
		typeStr := string(b)

		desc, err := cache.Parse(typeStr)
		if err != nil {
			return nil, nil, err
		}

		columns[i].TypeString = typeStr
		columns[i].Type = desc
		columns[i].TypeRange = rng

		node := ctx.leaf("String", rng, typeStr, typeStr)
		node.Label = "type"
		typeNodes[i] = node
	}

	children := make([]*ast.Node, 0, 1+2*count)
	children = append(children, countLeaf)
	for i := range count {
		colRng := reader.ByteRange{Start: nameNodes[i].ByteRange.Start, End: typeNodes[i].ByteRange.End}
		col := ctx.node("Column", colRng, nil, columns[i].Name+" "+columns[i].TypeString, []*ast.Node{nameNodes[i], typeNodes[i]})
		col.Label = columns[i].Name
		children = append(children, col)
	}

	headerRange := reader.ByteRange{Start: headerStart, End: r.Pos()}
	headerNode := ctx.node("Header", headerRange, nil, "", children)

	return &ast.Header{Columns: columns, Node: headerNode}, columns, nil
}
