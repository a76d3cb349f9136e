package network

import (
	"sort"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
	"github.com/chewxy/math32"
)

// candidateFinder returns the cells, other than the given one, that hold a
// portal quad on the given side matching the given quad. Cells are returned in
// input order.
type candidateFinder interface {
	find(c *models.Cell, side models.Side, quad geometry.Quad) []*models.Cell
}

type scanFinder struct {
	cells     []*models.Cell
	tolerance float32
}

func (f scanFinder) find(c *models.Cell, side models.Side, quad geometry.Quad) []*models.Cell {
	var matches []*models.Cell
	for _, other := range f.cells {
		if other == c {
			continue
		}
		for _, q := range other.PortalQuads(side) {
			if quad.Matches(q, f.tolerance) {
				matches = append(matches, other)
				break
			}
		}
	}
	return matches
}

const defaultIndexResolution = float32(1)

type indexedQuad struct {
	order int
	cell  *models.Cell
	quad  geometry.Quad
}

type gridCoord struct {
	x int
	z int
}

// portalIndex is a regular grid on the horizontal plane where each portal quad
// is stored in the grid cell that holds its center. A lookup inspects the
// grid cell of the searched quad center and its 8 neighbours, which absorbs
// both the tolerance and the rounding of centers computed from vertices in a
// different order.
type portalIndex struct {
	Resolution float32
	Min        geometry.Vector3f
	tolerance  float32
	grid       [models.SideCount]map[gridCoord][]indexedQuad
}

func newPortalIndex(cells []*models.Cell, tolerance float32) *portalIndex {
	resolution := defaultIndexResolution
	if r := 4 * tolerance; r > resolution {
		resolution = r
	}

	index := &portalIndex{
		Resolution: resolution,
		Min:        geometry.Vector3f{X: math32.Inf(1), Z: math32.Inf(1)},
		tolerance:  tolerance,
	}

	for _, c := range cells {
		for _, side := range models.HorizontalSides {
			for _, q := range c.PortalQuads(side) {
				center := q.Center()
				index.Min.X = math32.Min(index.Min.X, center.X)
				index.Min.Z = math32.Min(index.Min.Z, center.Z)
			}
		}
	}
	if math32.IsInf(index.Min.X, 1) {
		index.Min = geometry.Vector3f{}
	}
	// Keeps every stored coordinate positive even after a lookup offset.
	index.Min = geometry.Sub(index.Min, geometry.Vector3f{X: resolution, Z: resolution})

	for order, c := range cells {
		for _, side := range models.HorizontalSides {
			for _, q := range c.PortalQuads(side) {
				index.insertQuad(side, indexedQuad{order: order, cell: c, quad: q})
			}
		}
	}
	return index
}

func (index *portalIndex) gridCoordOf(p geometry.Vector3f) gridCoord {
	return gridCoord{
		x: int(math32.Floor((p.X - index.Min.X) / index.Resolution)),
		z: int(math32.Floor((p.Z - index.Min.Z) / index.Resolution)),
	}
}

func (index *portalIndex) insertQuad(side models.Side, q indexedQuad) {
	if index.grid[side] == nil {
		index.grid[side] = make(map[gridCoord][]indexedQuad)
	}
	coord := index.gridCoordOf(q.quad.Center())
	index.grid[side][coord] = append(index.grid[side][coord], q)
}

func (index *portalIndex) find(c *models.Cell, side models.Side, quad geometry.Quad) []*models.Cell {
	grid := index.grid[side]
	if len(grid) == 0 {
		return nil
	}

	center := index.gridCoordOf(quad.Center())
	seen := make(map[*models.Cell]struct{})
	var hits []indexedQuad

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			for _, q := range grid[gridCoord{x: center.x + dx, z: center.z + dz}] {
				if q.cell == c {
					continue
				}
				if _, ok := seen[q.cell]; ok {
					continue
				}
				if quad.Matches(q.quad, index.tolerance) {
					seen[q.cell] = struct{}{}
					hits = append(hits, q)
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].order < hits[j].order
	})

	matches := make([]*models.Cell, len(hits))
	for i, h := range hits {
		matches[i] = h.cell
	}
	return matches
}
