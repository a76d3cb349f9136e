package network

import (
	"fmt"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
)

const (
	ErrTypeOrphanedPortal  = "orphaned_portal"
	ErrTypeAmbiguousPortal = "ambiguous_portal"
	ErrTypeInvalidCell     = "invalid_cell"
	ErrTypeDuplicateCell   = "duplicate_cell"
	ErrTypeInvalidNetwork  = "invalid_network"
)

// OrphanedPortal is a portal quad that no other cell shares. The level stays
// usable but the cell misses a connection at that boundary.
type OrphanedPortal struct {
	Cell  *models.Cell
	Side  models.Side
	Index int
	Quad  geometry.Quad
}

func (o OrphanedPortal) Error() string {
	return fmt.Sprintf("%s: %s portal %d has no matching %s portal in any other cell",
		o.Cell, o.Side, o.Index, o.Side.Opposite())
}

// AmbiguousPortal is a portal quad shared by more than one other cell. The
// first cell in input order is linked, the others are ignored.
type AmbiguousPortal struct {
	Cell       *models.Cell
	Side       models.Side
	Index      int
	Linked     *models.Cell
	Candidates []*models.Cell
}

func (a AmbiguousPortal) Error() string {
	return fmt.Sprintf("%s: %s portal %d matches %d cells, linked to %s",
		a.Cell, a.Side, a.Index, len(a.Candidates), a.Linked)
}
