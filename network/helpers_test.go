package network

import (
	"testing"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
	"github.com/stretchr/testify/require"
)

// quadAtX is a vertical quad in the plane x, spanning z0 to z1.
func quadAtX(x, z0, z1 float32) geometry.Quad {
	return geometry.Quad{
		geometry.NewVertex(0, 0, x, 0, z0),
		geometry.NewVertex(1, 0, x, 0, z1),
		geometry.NewVertex(1, 1, x, 1, z1),
		geometry.NewVertex(0, 1, x, 1, z0),
	}
}

// quadAtZ is a vertical quad in the plane z, spanning x0 to x1.
func quadAtZ(z, x0, x1 float32) geometry.Quad {
	return geometry.Quad{
		geometry.NewVertex(0, 0, x0, 0, z),
		geometry.NewVertex(1, 0, x1, 0, z),
		geometry.NewVertex(1, 1, x1, 1, z),
		geometry.NewVertex(0, 1, x0, 1, z),
	}
}

func reversed(q geometry.Quad) geometry.Quad {
	return geometry.Quad{q[3], q[2], q[1], q[0]}
}

// box describes a test cell: an axis aligned rectangle with a portal or a
// wall on each horizontal side.
type box struct {
	id                       uint32
	minX, minZ, maxX, maxZ   float32
	left, right, top, bottom bool
}

// newBoxCell creates a cell whose left side is at minX, right side at maxX,
// top side at minZ and bottom side at maxZ. Left and top quads are stored in
// reverse order so that matching never relies on vertex order.
func newBoxCell(t *testing.T, b box) *models.Cell {
	var sides [models.SideCount]models.Faces

	add := func(s models.Side, portal bool, q geometry.Quad) {
		if portal {
			sides[s].Portals = append(sides[s].Portals, q)
			return
		}
		sides[s].Walls = append(sides[s].Walls, q)
	}

	add(models.SideLeft, b.left, reversed(quadAtX(b.minX, b.minZ, b.maxZ)))
	add(models.SideRight, b.right, quadAtX(b.maxX, b.minZ, b.maxZ))
	add(models.SideTop, b.top, reversed(quadAtZ(b.minZ, b.minX, b.maxX)))
	add(models.SideBottom, b.bottom, quadAtZ(b.maxZ, b.minX, b.maxX))
	sides[models.SideFloor].Walls = []geometry.Quad{{
		geometry.NewVertex(0, 0, b.minX, 0, b.minZ),
		geometry.NewVertex(1, 0, b.maxX, 0, b.minZ),
		geometry.NewVertex(1, 1, b.maxX, 0, b.maxZ),
		geometry.NewVertex(0, 1, b.minX, 0, b.maxZ),
	}}

	c, err := models.NewCell(b.id, sides)
	require.NoError(t, err)
	return c
}

// newGrid creates a cols x rows grid of unit cells starting at the given
// origin. Inner boundaries are portals, outer ones are walls. Ids start at
// firstID and go row by row.
func newGrid(t *testing.T, firstID uint32, originX, originZ float32, cols, rows int) []*models.Cell {
	cells := make([]*models.Cell, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x := originX + float32(col)
			z := originZ + float32(row)
			cells = append(cells, newBoxCell(t, box{
				id:     firstID + uint32(row*cols+col),
				minX:   x,
				minZ:   z,
				maxX:   x + 1,
				maxZ:   z + 1,
				left:   col > 0,
				right:  col < cols-1,
				top:    row > 0,
				bottom: row < rows-1,
			}))
		}
	}
	return cells
}

func cellIDs(cells []*models.Cell) []uint32 {
	ids := make([]uint32, len(cells))
	for i, c := range cells {
		ids[i] = c.ID
	}
	return ids
}
