package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDCounter_Monotonic(t *testing.T) {
	c := &IDCounter{}
	require.Equal(t, 0, c.Next())
	require.Equal(t, 1, c.Next())
	require.Equal(t, 2, c.Next())
}

func TestNode_SetMetadata(t *testing.T) {
	n := &Node{Type: "UInt32"}
	require.Nil(t, n.Metadata)

	n.SetMetadata("foo", 42)
	require.Equal(t, 42, n.Metadata["foo"])

	n.SetMetadata("bar", "baz")
	require.Len(t, n.Metadata, 2)
}

func TestNode_Walk_Order(t *testing.T) {
	leaf1 := &Node{ID: 1, ByteRange: ByteRange{Start: 0, End: 1}}
	leaf2 := &Node{ID: 2, ByteRange: ByteRange{Start: 1, End: 2}}
	root := &Node{ID: 0, ByteRange: ByteRange{Start: 0, End: 2}, Children: []*Node{leaf1, leaf2}}

	var seen []int
	for n := range root.Walk() {
		seen = append(seen, n.ID)
	}
	require.Equal(t, []int{0, 1, 2}, seen)
}

func TestNode_Walk_Nil(t *testing.T) {
	var n *Node
	count := 0
	for range n.Walk() {
		count++
	}
	require.Equal(t, 0, count)
}

func TestNode_Walk_StopsEarly(t *testing.T) {
	leaf1 := &Node{ID: 1}
	leaf2 := &Node{ID: 2}
	root := &Node{ID: 0, Children: []*Node{leaf1, leaf2}}

	var seen []int
	for n := range root.Walk() {
		seen = append(seen, n.ID)
		if n.ID == 0 {
			break
		}
	}
	require.Equal(t, []int{0}, seen)
}

func TestParsedData_Roots(t *testing.T) {
	header := &Node{ID: 0}
	row1 := &Node{ID: 1}
	row2 := &Node{ID: 2}

	p := &ParsedData{
		Format: FormatRowBinary,
		Header: &Header{Node: header},
		Rows:   []*Node{row1, row2},
	}

	var ids []int
	for n := range p.Roots() {
		ids = append(ids, n.ID)
	}
	require.Equal(t, []int{0, 1, 2}, ids)
}

func TestParsedData_Roots_Blocks(t *testing.T) {
	block1 := &Block{Node: &Node{ID: 10}}
	block2 := &Block{Node: &Node{ID: 11}}

	p := &ParsedData{
		Format: FormatColumnNative,
		Blocks: []*Block{block1, block2},
	}

	var ids []int
	for n := range p.Roots() {
		ids = append(ids, n.ID)
	}
	require.Equal(t, []int{10, 11}, ids)
}
