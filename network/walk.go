package network

import "github.com/aukilabs/cellnet/models"

// Order is the order in which Walk visits cells.
type Order int

const (
	BreadthFirst Order = iota
	DepthFirst
)

// Walk visits the cells reachable from start through portals, start first.
// Each cell is visited at most once, so the walk ends on cyclic graphs. The
// walk stops as soon as visit returns false. It returns the number of visited
// cells.
func Walk(start *models.Cell, order Order, visit func(*models.Cell) bool) int {
	if start == nil {
		return 0
	}

	marked := map[*models.Cell]struct{}{start: {}}
	pending := []*models.Cell{start}
	visited := 0

	for len(pending) != 0 {
		var c *models.Cell
		if order == DepthFirst {
			c = pending[len(pending)-1]
			pending = pending[:len(pending)-1]
		} else {
			c = pending[0]
			pending = pending[1:]
		}

		visited++
		if !visit(c) {
			return visited
		}

		for _, p := range c.Portals() {
			son := p.Other(c)
			if _, ok := marked[son]; ok {
				continue
			}
			marked[son] = struct{}{}
			pending = append(pending, son)
		}
	}
	return visited
}
