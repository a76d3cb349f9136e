// Package controller mirrors a network set with handles that service code
// can hold on to between queries.
package controller

import (
	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/cellnet/network"
)

// CellController is the handle of a cell.
type CellController struct {
	cell    *models.Cell
	network *NetworkController
	portals []*PortalController
}

func (c *CellController) Cell() *models.Cell {
	return c.cell
}

func (c *CellController) ID() uint32 {
	return c.cell.ID
}

// Network returns the handle of the network the cell belongs to.
func (c *CellController) Network() *NetworkController {
	return c.network
}

// Portals returns the handles of the cell portals, in the cell portal order.
func (c *CellController) Portals() []*PortalController {
	return c.portals
}

// Neighbors returns the handles of the cells linked to this one.
func (c *CellController) Neighbors() []*CellController {
	neighbors := make([]*CellController, len(c.portals))
	for i, p := range c.portals {
		neighbors[i] = p.Other(c)
	}
	return neighbors
}

// PortalController is the handle of a portal.
type PortalController struct {
	portal *models.Portal
	cells  [2]*CellController
}

func (p *PortalController) Portal() *models.Portal {
	return p.portal
}

func (p *PortalController) Cells() [2]*CellController {
	return p.cells
}

// Other returns the handle of the cell on the other side of the portal.
func (p *PortalController) Other(c *CellController) *CellController {
	if p.cells[0] == c {
		return p.cells[1]
	}
	return p.cells[0]
}

// NetworkController is the handle of a network.
type NetworkController struct {
	network *network.Network
	root    *CellController
	cells   []*CellController
}

func (n *NetworkController) Network() *network.Network {
	return n.network
}

func (n *NetworkController) Index() int {
	return n.network.Index()
}

func (n *NetworkController) Root() *CellController {
	return n.root
}

func (n *NetworkController) Cells() []*CellController {
	return n.cells
}

// Set is the handle of a network set. It holds one handle per cell, portal
// and network of the set and resolves locate results to them.
type Set struct {
	set       *network.Set
	cells     map[*models.Cell]*CellController
	cellsByID map[uint32]*CellController
	networks  []*NetworkController
}

// NewSet creates the handles of every element of the given set.
func NewSet(s *network.Set) *Set {
	cs := &Set{
		set:       s,
		cells:     make(map[*models.Cell]*CellController, len(s.Cells())),
		cellsByID: make(map[uint32]*CellController, len(s.Cells())),
		networks:  make([]*NetworkController, s.Len()),
	}

	for i, n := range s.Networks() {
		nc := &NetworkController{
			network: n,
			cells:   make([]*CellController, 0, n.Len()),
		}

		for _, c := range n.Cells() {
			cc := &CellController{
				cell:    c,
				network: nc,
			}
			cs.cells[c] = cc
			cs.cellsByID[c.ID] = cc
			nc.cells = append(nc.cells, cc)
		}
		nc.root = cs.cells[n.Root()]
		cs.networks[i] = nc
	}

	portals := make(map[*models.Portal]*PortalController)
	for _, c := range s.Cells() {
		cc := cs.cells[c]
		cc.portals = make([]*PortalController, len(c.Portals()))

		for i, p := range c.Portals() {
			pc, ok := portals[p]
			if !ok {
				pc = &PortalController{
					portal: p,
					cells:  [2]*CellController{cs.cells[p.Cells[0]], cs.cells[p.Cells[1]]},
				}
				portals[p] = pc
			}
			cc.portals[i] = pc
		}
	}
	return cs
}

// Model returns the mirrored set.
func (s *Set) Model() *network.Set {
	return s.set
}

// Cell returns the handle of the cell with the given id.
func (s *Set) Cell(id uint32) (*CellController, bool) {
	c, ok := s.cellsByID[id]
	return c, ok
}

func (s *Set) Networks() []*NetworkController {
	return s.networks
}

// Locate returns the handle of the cell that contains the point. The
// previous positioning is forwarded to the model as is.
func (s *Set) Locate(x, y, z float32, prev *network.Positioning) (*CellController, bool) {
	pos, found := s.set.Locate(x, y, z, prev)
	if !found {
		return nil, false
	}
	return s.cells[pos.Cell], true
}

// LocateFrom returns the handle of the cell that contains the point, using
// the previously located cell as hint. A nil previous cell searches every
// network from its root.
func (s *Set) LocateFrom(x, y, z float32, prev *CellController) (*CellController, bool) {
	if prev == nil {
		return s.Locate(x, y, z, nil)
	}
	return s.Locate(x, y, z, &network.Positioning{
		Cell:    prev.cell,
		Network: prev.network.Index(),
	})
}
