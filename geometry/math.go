package geometry

import (
	"github.com/chewxy/math32"
)

func EqualWithEpsilon(a float32, b float32, epsilon float32) bool {
	return a == b || math32.Abs(a-b) <= epsilon
}

func InRangeWithEpsilon(value float32, min float32, max float32, epsilon float32) bool {
	return value+epsilon >= min && value-epsilon <= max
}

type Vector3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func NewVector3f(x, y, z float32) Vector3f {
	return Vector3f{x, y, z}
}

func (v1 Vector3f) Equal(v2 Vector3f) bool {
	return v1.X == v2.X && v1.Y == v2.Y && v1.Z == v2.Z
}

func Add(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3f, s float32) Vector3f {
	return Vector3f{a.X * s, a.Y * s, a.Z * s}
}

// Vertex is a textured vertex laid out as T2_V3: two texture coordinates
// followed by three spatial coordinates.
type Vertex struct {
	U float32
	V float32
	X float32
	Y float32
	Z float32
}

func NewVertex(u, v, x, y, z float32) Vertex {
	return Vertex{U: u, V: v, X: x, Y: y, Z: z}
}

// VertexFromArray builds a vertex from its T2_V3 array form.
func VertexFromArray(a [5]float32) Vertex {
	return Vertex{U: a[0], V: a[1], X: a[2], Y: a[3], Z: a[4]}
}

func (v Vertex) Array() [5]float32 {
	return [5]float32{v.U, v.V, v.X, v.Y, v.Z}
}

func (v Vertex) Position() Vector3f {
	return Vector3f{v.X, v.Y, v.Z}
}

// EqualWithEpsilon compares the texture and the spatial coordinates. An
// epsilon of zero is a strict equality.
func (v Vertex) EqualWithEpsilon(o Vertex, epsilon float32) bool {
	return EqualWithEpsilon(v.U, o.U, epsilon) &&
		EqualWithEpsilon(v.V, o.V, epsilon) &&
		EqualWithEpsilon(v.X, o.X, epsilon) &&
		EqualWithEpsilon(v.Y, o.Y, epsilon) &&
		EqualWithEpsilon(v.Z, o.Z, epsilon)
}

// Quad is a face made of 4 vertices.
type Quad [4]Vertex

// Matches reports whether every vertex of q equals one of the vertices of o,
// regardless of their order.
func (q Quad) Matches(o Quad, epsilon float32) bool {
	for _, v := range q {
		found := false
		for _, w := range o {
			if v.EqualWithEpsilon(w, epsilon) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (q Quad) Center() Vector3f {
	var c Vector3f
	for _, v := range q {
		c = Add(c, v.Position())
	}
	return Mul(c, 0.25)
}

// Triangles splits the quad along its 0-2 diagonal.
func (q Quad) Triangles() [2][3]Vertex {
	return [2][3]Vertex{
		{q[0], q[1], q[2]},
		{q[0], q[2], q[3]},
	}
}
