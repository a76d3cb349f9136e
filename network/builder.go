package network

import (
	"time"

	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Report describes the outcome of connecting cells together.
type Report struct {
	Matcher   Matcher
	Portals   []*models.Portal
	Orphans   []OrphanedPortal
	Ambiguous []AmbiguousPortal
	Duration  time.Duration
}

// Connect links cells whose portal quads coincide. Each portal quad on the
// left, right, top and bottom sides of a cell is compared with the quads of
// the opposite side of every other cell. Ceiling and floor portals are not
// connected.
//
// A match creates a portal shared by both cells unless they are already
// linked, which happens when the reverse side of the same boundary is visited.
// Quads without a match are reported as orphaned portals and the
// construction goes on without them.
func Connect(cells []*models.Cell, opts ...Option) Report {
	conf := newConfig(opts)
	start := time.Now()

	var finder candidateFinder
	switch conf.matcher {
	case MatchIndexed:
		finder = newPortalIndex(cells, conf.tolerance)
	default:
		finder = scanFinder{cells: cells, tolerance: conf.tolerance}
	}

	var portalIDs models.SequentialIDGenerator
	for _, c := range cells {
		for _, p := range c.Portals() {
			portalIDs.SkipTo(p.ID)
		}
	}

	report := Report{Matcher: conf.matcher}

	for _, c := range cells {
		for _, side := range models.HorizontalSides {
			for i, quad := range c.PortalQuads(side) {
				matches := finder.find(c, side.Opposite(), quad)

				if len(matches) == 0 {
					orphan := OrphanedPortal{
						Cell:  c,
						Side:  side,
						Index: i,
						Quad:  quad,
					}
					report.Orphans = append(report.Orphans, orphan)
					reportOrphan(orphan)
					continue
				}

				neighbor := matches[0]
				if len(matches) > 1 {
					ambiguous := AmbiguousPortal{
						Cell:       c,
						Side:       side,
						Index:      i,
						Linked:     neighbor,
						Candidates: matches,
					}
					report.Ambiguous = append(report.Ambiguous, ambiguous)
					reportAmbiguous(ambiguous)
				}

				if c.PortalTo(neighbor) != nil {
					continue
				}

				// Link never fails here: both cells are set and distinct.
				p, _ := models.Link(portalIDs.New(), c, side, neighbor, quad)
				report.Portals = append(report.Portals, p)
			}
		}
	}

	report.Duration = time.Since(start)
	instrumentConnect(report)

	logs.WithTag("cell_count", len(cells)).
		WithTag("portal_count", len(report.Portals)).
		WithTag("orphan_count", len(report.Orphans)).
		WithTag("ambiguous_count", len(report.Ambiguous)).
		WithTag("matcher", report.Matcher.String()).
		WithTag("duration", report.Duration).
		Info("cells connected")
	return report
}

func reportOrphan(o OrphanedPortal) {
	logs.Warn(errors.New("orphaned portal").
		WithType(ErrTypeOrphanedPortal).
		WithTag("cell_id", o.Cell.ID).
		WithTag("side", o.Side.String()).
		WithTag("quad_index", o.Index).
		Wrap(o))
}

func reportAmbiguous(a AmbiguousPortal) {
	candidates := make([]uint32, len(a.Candidates))
	for i, c := range a.Candidates {
		candidates[i] = c.ID
	}

	logs.Warn(errors.New("ambiguous portal").
		WithType(ErrTypeAmbiguousPortal).
		WithTag("cell_id", a.Cell.ID).
		WithTag("side", a.Side.String()).
		WithTag("quad_index", a.Index).
		WithTag("linked_cell_id", a.Linked.ID).
		WithTag("candidate_cell_ids", candidates).
		Wrap(a))
}
