package models

import (
	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Portal links two distinct cells through a shared boundary quad.
type Portal struct {
	ID uint32

	// The linked cells. The first one is the cell whose side quad was
	// matched first.
	Cells [2]*Cell

	// The side of the first cell the portal is on.
	Side Side

	Quad geometry.Quad
}

// Link creates a portal between two cells and registers it on both of them.
func Link(id uint32, from *Cell, side Side, to *Cell, quad geometry.Quad) (*Portal, error) {
	if from == nil || to == nil {
		return nil, errors.New("portal requires two cells").
			WithType(ErrTypeInvalidPortal).
			WithTag("portal_id", id)
	}
	if from == to {
		return nil, errors.New("portal cannot link a cell to itself").
			WithType(ErrTypeInvalidPortal).
			WithTag("portal_id", id).
			WithTag("cell_id", from.ID)
	}

	p := &Portal{
		ID:    id,
		Cells: [2]*Cell{from, to},
		Side:  side,
		Quad:  quad,
	}
	from.addPortal(p)
	to.addPortal(p)
	return p, nil
}

func (p *Portal) Links(c *Cell) bool {
	return p.Cells[0] == c || p.Cells[1] == c
}

// Other returns the cell on the other side of the portal.
func (p *Portal) Other(c *Cell) *Cell {
	if p.Cells[0] == c {
		return p.Cells[1]
	}
	return p.Cells[0]
}
