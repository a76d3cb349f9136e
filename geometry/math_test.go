package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.2, 0))
	require.True(t, EqualWithEpsilon(0.5, 0.5, 0))
}

func TestVectorClass(t *testing.T) {
	zeroVector := Vector3f{0, 0, 0}
	oneVector := Vector3f{1, 1, 1}

	require.True(t, oneVector.Equal(Add(zeroVector, oneVector)))
	require.True(t, oneVector.Equal(Sub(oneVector, zeroVector)))
	require.True(t, zeroVector.Equal(Mul(oneVector, 0)))
}

func TestVertexArray(t *testing.T) {
	v := NewVertex(0.25, 0.75, 1, 2, 3)
	require.Equal(t, [5]float32{0.25, 0.75, 1, 2, 3}, v.Array())
	require.Equal(t, v, VertexFromArray(v.Array()))
	require.True(t, v.Position().Equal(Vector3f{1, 2, 3}))
}

func testQuad() Quad {
	return Quad{
		NewVertex(0, 0, 1, 0, 0),
		NewVertex(1, 0, 1, 0, 1),
		NewVertex(1, 1, 1, 1, 1),
		NewVertex(0, 1, 1, 1, 0),
	}
}

func TestQuadMatches(t *testing.T) {
	q := testQuad()

	t.Run("same quad", func(t *testing.T) {
		require.True(t, q.Matches(q, 0))
	})

	t.Run("vertex order is ignored", func(t *testing.T) {
		reversed := Quad{q[3], q[2], q[1], q[0]}
		require.True(t, q.Matches(reversed, 0))
		require.True(t, reversed.Matches(q, 0))
	})

	t.Run("texture coordinates are compared", func(t *testing.T) {
		other := q
		other[2].U = 0.5
		require.False(t, q.Matches(other, 0))
	})

	t.Run("exact match by default", func(t *testing.T) {
		drifted := q
		drifted[1].Z += 0.0001
		require.False(t, q.Matches(drifted, 0))
		require.True(t, q.Matches(drifted, 0.001))
	})

	t.Run("every vertex has to match", func(t *testing.T) {
		other := q
		other[3] = NewVertex(9, 9, 9, 9, 9)
		require.False(t, q.Matches(other, 0))
	})
}

func TestQuadCenter(t *testing.T) {
	require.True(t, testQuad().Center().Equal(Vector3f{1, 0.5, 0.5}))
}

func TestQuadTriangles(t *testing.T) {
	q := testQuad()
	tris := q.Triangles()
	require.Equal(t, [3]Vertex{q[0], q[1], q[2]}, tris[0])
	require.Equal(t, [3]Vertex{q[0], q[2], q[3]}, tris[1])
}
