package geometry

import (
	"github.com/chewxy/math32"
)

// Rectangle is an axis-aligned rectangle on the horizontal (XZ) plane.
type Rectangle struct {
	MinX float32
	MinZ float32
	MaxX float32
	MaxZ float32
}

// EmptyRectangle returns an inverted rectangle that any point expands.
func EmptyRectangle() Rectangle {
	return Rectangle{
		MinX: math32.Inf(1),
		MinZ: math32.Inf(1),
		MaxX: math32.Inf(-1),
		MaxZ: math32.Inf(-1),
	}
}

// RectangleFromQuads returns the tight XZ bound of the given quads. Heights
// are ignored.
func RectangleFromQuads(quads ...[]Quad) Rectangle {
	r := EmptyRectangle()
	for _, list := range quads {
		for _, q := range list {
			for _, v := range q {
				r.ExpandToFitPoint(v.X, v.Z)
			}
		}
	}
	return r
}

func (r *Rectangle) ExpandToFitPoint(x, z float32) {
	r.MinX = math32.Min(r.MinX, x)
	r.MinZ = math32.Min(r.MinZ, z)
	r.MaxX = math32.Max(r.MaxX, x)
	r.MaxZ = math32.Max(r.MaxZ, z)
}

// Contains reports whether (x, z) is inside the rectangle, boundary included.
func (r Rectangle) Contains(x, z float32) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// IsEmpty reports whether the rectangle is inverted, which happens when no
// point was ever fitted into it.
func (r Rectangle) IsEmpty() bool {
	return r.MinX > r.MaxX || r.MinZ > r.MaxZ
}

// IsDegenerate reports whether the rectangle has no area.
func (r Rectangle) IsDegenerate() bool {
	return r.IsEmpty() || r.MinX == r.MaxX || r.MinZ == r.MaxZ
}

func (r Rectangle) Width() float32 {
	return r.MaxX - r.MinX
}

func (r Rectangle) Depth() float32 {
	return r.MaxZ - r.MinZ
}
