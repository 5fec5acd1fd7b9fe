// Package ast defines the uniform parse-tree shape produced by the row
// and column decoders: Node carries a semantic type, a decoded value, a
// display rendering, and the exact byte range it consumed, and ParsedData
// is the top-level result tying a tree back to its source format.
//
// Every node belonging to one decode call is stamped with an id from an
// IDCounter scoped to that call; ids have no meaning across decodes (§4.6
// of the accompanying specification).
package ast

import (
	"iter"

	"github.com/clickhouse-explorer/wirecore/reader"
)

// ByteRange is the half-open [start, end) byte interval a node and its
// descendants occupy in the original input.
type ByteRange = reader.ByteRange

// Node is one element of the parse tree.
type Node struct {
	ID           int
	Type         string
	ByteRange    ByteRange
	Value        any
	DisplayValue string
	Children     []*Node
	Label        string
	Metadata     map[string]any
}

// IDCounter assigns monotonically increasing node ids within one decode
// invocation. It is not safe for concurrent use; each decode call owns
// its own counter (§5, §9 "no global state").
type IDCounter struct {
	next int
}

// Next returns the next id and advances the counter.
func (c *IDCounter) Next() int {
	id := c.next
	c.next++

	return id
}

// SetMetadata lazily allocates Metadata and assigns key.
func (n *Node) SetMetadata(key string, value any) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
}

// Walk performs a depth-first, left-to-right traversal of n and its
// descendants. Consumers may rely on yielded nodes' ByteRange.Start being
// non-decreasing (§5 ordering guarantee, §8 byte-order monotonicity).
func (n *Node) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n == nil {
			return
		}
		var visit func(*Node) bool
		visit = func(node *Node) bool {
			if !yield(node) {
				return false
			}
			for _, c := range node.Children {
				if !visit(c) {
					return false
				}
			}

			return true
		}
		visit(n)
	}
}

// LeafRanges returns an iterator over the byte ranges of every leaf node
// (a node with no children) under n, used by coverage analysis tooling
// outside this module.
func (n *Node) LeafRanges() iter.Seq[ByteRange] {
	return func(yield func(ByteRange) bool) {
		for node := range n.Walk() {
			if len(node.Children) == 0 {
				if !yield(node.ByteRange) {
					return
				}
			}
		}
	}
}
