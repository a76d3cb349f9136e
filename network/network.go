// Package network assembles cells into connected graphs linked by portals
// and locates points within them.
package network

import (
	"github.com/aukilabs/cellnet/models"
)

// Network is one connected component of the cell graph.
type Network struct {
	index   int
	root    *models.Cell
	cells   []*models.Cell
	members map[*models.Cell]struct{}
}

// newNetwork collects the component of root by a breadth first walk.
func newNetwork(index int, root *models.Cell) *Network {
	n := &Network{
		index:   index,
		root:    root,
		members: make(map[*models.Cell]struct{}),
	}

	Walk(root, BreadthFirst, func(c *models.Cell) bool {
		n.cells = append(n.cells, c)
		n.members[c] = struct{}{}
		return true
	})
	return n
}

// Index returns the position of the network in its set.
func (n *Network) Index() int {
	return n.index
}

func (n *Network) Root() *models.Cell {
	return n.root
}

// Cells returns every cell of the network, root first.
func (n *Network) Cells() []*models.Cell {
	return n.cells
}

func (n *Network) Len() int {
	return len(n.cells)
}

func (n *Network) Contains(c *models.Cell) bool {
	_, ok := n.members[c]
	return ok
}

// Locate returns the cell that contains the point, searching from the root.
func (n *Network) Locate(x, y, z float32) (*models.Cell, bool) {
	return n.LocateFrom(x, y, z, nil)
}

// LocateFrom returns the cell that contains the point. The search is breadth
// first and starts from hint, which is usually the cell previously occupied
// by the entity being located: the common case is then answered by the first
// or second cell tested. A nil hint, or a hint from another network, starts
// the search from the root.
func (n *Network) LocateFrom(x, y, z float32, hint *models.Cell) (*models.Cell, bool) {
	c, _ := n.locate(x, y, z, hint)
	return c, c != nil
}

// locate returns the containing cell, or nil, and the number of tested cells.
func (n *Network) locate(x, y, z float32, hint *models.Cell) (*models.Cell, int) {
	if hint == nil || !n.Contains(hint) {
		hint = n.root
	}

	var found *models.Cell
	visited := Walk(hint, BreadthFirst, func(c *models.Cell) bool {
		if c.Contains(x, y, z) {
			found = c
			return false
		}
		return true
	})
	return found, visited
}
