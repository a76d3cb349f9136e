package models

import (
	"fmt"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeMalformedCell = "malformed_cell"
	ErrTypeInvalidPortal = "invalid_portal"
)

// Faces holds the quads of one side of a cell. Walls are solid, portals are
// candidate connections with a neighbour cell.
type Faces struct {
	Walls   []geometry.Quad
	Portals []geometry.Quad
}

func (f Faces) Len() int {
	return len(f.Walls) + len(f.Portals)
}

// Cell is a convex region of a level. Its face lists are fixed at creation;
// portals are appended once while the network graph is built.
type Cell struct {
	ID uint32

	sides     [SideCount]Faces
	rectangle geometry.Rectangle
	portals   []*Portal
}

// NewCell creates a cell and computes its enclosing rectangle. It fails when
// the geometry yields a rectangle that could never contain a point.
func NewCell(id uint32, sides [SideCount]Faces) (*Cell, error) {
	c, err := newCell(id, sides)
	instrumentNewCell(err)
	return c, err
}

func newCell(id uint32, sides [SideCount]Faces) (*Cell, error) {
	c := &Cell{
		ID:    id,
		sides: sides,
	}

	var quads [][]geometry.Quad
	for _, f := range c.sides {
		quads = append(quads, f.Walls, f.Portals)
	}
	c.rectangle = geometry.RectangleFromQuads(quads...)

	if c.rectangle.IsEmpty() {
		return nil, errors.New("cell has no face").
			WithType(ErrTypeMalformedCell).
			WithTag("cell_id", id)
	}
	if c.rectangle.IsDegenerate() {
		return nil, errors.New("cell enclosing rectangle is degenerate").
			WithType(ErrTypeMalformedCell).
			WithTag("cell_id", id).
			WithTag("width", c.rectangle.Width()).
			WithTag("depth", c.rectangle.Depth())
	}
	return c, nil
}

func (c *Cell) Faces(s Side) Faces {
	return c.sides[s]
}

func (c *Cell) Walls(s Side) []geometry.Quad {
	return c.sides[s].Walls
}

// PortalQuads returns the portal quads of the given side, whether they were
// resolved or not.
func (c *Cell) PortalQuads(s Side) []geometry.Quad {
	return c.sides[s].Portals
}

func (c *Cell) EnclosingRectangle() geometry.Rectangle {
	return c.rectangle
}

// Contains reports whether the point is inside the cell. The height is
// ignored.
func (c *Cell) Contains(x, y, z float32) bool {
	return c.rectangle.Contains(x, z)
}

func (c *Cell) Portals() []*Portal {
	return c.portals
}

func (c *Cell) Portal(i int) *Portal {
	return c.portals[i]
}

// PortalTo returns the portal that links the cell to the given neighbour, or
// nil when they are not linked.
func (c *Cell) PortalTo(neighbor *Cell) *Portal {
	for _, p := range c.portals {
		if p.Links(neighbor) {
			return p
		}
	}
	return nil
}

func (c *Cell) NeighborCount() int {
	return len(c.portals)
}

func (c *Cell) Neighbor(i int) *Cell {
	return c.portals[i].Other(c)
}

func (c *Cell) Neighbors() []*Cell {
	neighbors := make([]*Cell, len(c.portals))
	for i, p := range c.portals {
		neighbors[i] = p.Other(c)
	}
	return neighbors
}

// ResetPortals forgets every resolved portal.
func (c *Cell) ResetPortals() {
	c.portals = nil
}

func (c *Cell) addPortal(p *Portal) {
	c.portals = append(c.portals, p)
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell(%d)", c.ID)
}
