package models

import (
	"testing"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func floorQuad(minX, minZ, maxX, maxZ float32) geometry.Quad {
	return geometry.Quad{
		geometry.NewVertex(0, 0, minX, 0, minZ),
		geometry.NewVertex(1, 0, maxX, 0, minZ),
		geometry.NewVertex(1, 1, maxX, 0, maxZ),
		geometry.NewVertex(0, 1, minX, 0, maxZ),
	}
}

func newTestCell(t *testing.T, id uint32, minX, minZ, maxX, maxZ float32) *Cell {
	var sides [SideCount]Faces
	sides[SideFloor].Walls = []geometry.Quad{floorQuad(minX, minZ, maxX, maxZ)}

	c, err := NewCell(id, sides)
	require.NoError(t, err)
	return c
}

func TestNewCell(t *testing.T) {
	t.Run("computes the enclosing rectangle from every side", func(t *testing.T) {
		var sides [SideCount]Faces
		sides[SideFloor].Walls = []geometry.Quad{floorQuad(0, 0, 1, 1)}
		sides[SideLeft].Portals = []geometry.Quad{{
			geometry.NewVertex(0, 0, -1, 0, 0),
			geometry.NewVertex(0, 0, -1, 1, 0),
			geometry.NewVertex(0, 0, -1, 1, 2),
			geometry.NewVertex(0, 0, -1, 0, 2),
		}}

		c, err := NewCell(7, sides)
		require.NoError(t, err)
		require.Equal(t, uint32(7), c.ID)
		require.Equal(t, geometry.Rectangle{MinX: -1, MinZ: 0, MaxX: 1, MaxZ: 2}, c.EnclosingRectangle())
		require.Len(t, c.PortalQuads(SideLeft), 1)
		require.Len(t, c.Walls(SideFloor), 1)
		require.Equal(t, 1, c.Faces(SideLeft).Len())
	})

	t.Run("fails without faces", func(t *testing.T) {
		_, err := NewCell(1, [SideCount]Faces{})
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeMalformedCell))
	})

	t.Run("fails with a degenerate rectangle", func(t *testing.T) {
		var sides [SideCount]Faces
		sides[SideLeft].Walls = []geometry.Quad{{
			geometry.NewVertex(0, 0, 2, 0, 0),
			geometry.NewVertex(0, 0, 2, 1, 0),
			geometry.NewVertex(0, 0, 2, 1, 1),
			geometry.NewVertex(0, 0, 2, 0, 1),
		}}

		_, err := NewCell(1, sides)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeMalformedCell))
	})
}

func TestCellContains(t *testing.T) {
	c := newTestCell(t, 1, 0, 0, 2, 2)

	require.True(t, c.Contains(1, 0, 1))
	require.True(t, c.Contains(1, 1000, 1))
	require.True(t, c.Contains(0, -5, 2))
	require.False(t, c.Contains(3, 0, 1))
	require.False(t, c.Contains(1, 0, -1))
}

func TestCellNeighbors(t *testing.T) {
	a := newTestCell(t, 1, 0, 0, 1, 1)
	b := newTestCell(t, 2, 1, 0, 2, 1)
	c := newTestCell(t, 3, 2, 0, 3, 1)

	ab, err := Link(1, a, SideRight, b, floorQuad(1, 0, 1, 1))
	require.NoError(t, err)
	bc, err := Link(2, b, SideRight, c, floorQuad(2, 0, 2, 1))
	require.NoError(t, err)

	require.Equal(t, 1, a.NeighborCount())
	require.Equal(t, 2, b.NeighborCount())
	require.Equal(t, []*Cell{b}, a.Neighbors())
	require.Equal(t, []*Cell{a, c}, b.Neighbors())
	require.Equal(t, b, c.Neighbor(0))

	require.Equal(t, ab, a.PortalTo(b))
	require.Equal(t, ab, b.PortalTo(a))
	require.Equal(t, bc, c.PortalTo(b))
	require.Nil(t, a.PortalTo(c))
	require.Equal(t, bc, b.Portal(1))

	b.ResetPortals()
	require.Zero(t, b.NeighborCount())
	require.Empty(t, b.Portals())
}

func TestCellString(t *testing.T) {
	require.Equal(t, "cell(42)", newTestCell(t, 42, 0, 0, 1, 1).String())
}
