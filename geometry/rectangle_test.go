package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRectangleFromQuads(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r := RectangleFromQuads()
		require.True(t, r.IsEmpty())
		require.True(t, r.IsDegenerate())
		require.False(t, r.Contains(0, 0))
	})

	t.Run("tight bound ignoring height", func(t *testing.T) {
		floor := Quad{
			NewVertex(0, 0, -1, 5, -2),
			NewVertex(0, 0, 3, 5, -2),
			NewVertex(0, 0, 3, 5, 4),
			NewVertex(0, 0, -1, 5, 4),
		}
		wall := Quad{
			NewVertex(0, 0, 3, -10, 4),
			NewVertex(0, 0, 3, 10, 4),
			NewVertex(0, 0, 3, 10, 6),
			NewVertex(0, 0, 3, -10, 6),
		}

		r := RectangleFromQuads([]Quad{floor}, []Quad{wall})
		require.Equal(t, Rectangle{MinX: -1, MinZ: -2, MaxX: 3, MaxZ: 6}, r)
		require.False(t, r.IsDegenerate())
		require.Equal(t, float32(4), r.Width())
		require.Equal(t, float32(8), r.Depth())
	})
}

func TestRectangleContains(t *testing.T) {
	r := Rectangle{MinX: 0, MinZ: 0, MaxX: 2, MaxZ: 1}

	require.True(t, r.Contains(1, 0.5))
	require.True(t, r.Contains(0, 0))
	require.True(t, r.Contains(2, 1))
	require.False(t, r.Contains(2.01, 0.5))
	require.False(t, r.Contains(1, -0.01))
}

func TestRectangleIsDegenerate(t *testing.T) {
	require.True(t, Rectangle{MinX: 0, MinZ: 0, MaxX: 0, MaxZ: 1}.IsDegenerate())
	require.True(t, Rectangle{MinX: 0, MinZ: 3, MaxX: 1, MaxZ: 3}.IsDegenerate())
	require.False(t, Rectangle{MinX: 0, MinZ: 0, MaxX: 1, MaxZ: 1}.IsDegenerate())
}
