package models

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	a := newTestCell(t, 1, 0, 0, 1, 1)
	b := newTestCell(t, 2, 0, 1, 1, 2)

	t.Run("links two cells", func(t *testing.T) {
		quad := floorQuad(0, 1, 1, 1)
		p, err := Link(3, a, SideTop, b, quad)
		require.NoError(t, err)
		require.Equal(t, uint32(3), p.ID)
		require.Equal(t, [2]*Cell{a, b}, p.Cells)
		require.Equal(t, SideTop, p.Side)
		require.Equal(t, quad, p.Quad)
		require.True(t, p.Links(a))
		require.True(t, p.Links(b))
		require.Equal(t, b, p.Other(a))
		require.Equal(t, a, p.Other(b))
		require.Equal(t, []*Portal{p}, a.Portals())
		require.Equal(t, []*Portal{p}, b.Portals())
	})

	t.Run("rejects a self link", func(t *testing.T) {
		_, err := Link(4, a, SideTop, a, floorQuad(0, 1, 1, 1))
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidPortal))
	})

	t.Run("rejects a missing cell", func(t *testing.T) {
		_, err := Link(5, a, SideTop, nil, floorQuad(0, 1, 1, 1))
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidPortal))
	})
}
