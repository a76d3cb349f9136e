package network

import (
	"testing"

	"github.com/aukilabs/cellnet/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func matchedPortals(t *testing.T, m Matcher, side models.Side) float64 {
	var d dto.Metric
	require.NoError(t, portalCount.With(prometheus.Labels{
		matcherLabel: m.String(),
		sideLabel:    side.String(),
	}).Write(&d))
	return d.Counter.GetValue()
}

func TestPortalCountMetric(t *testing.T) {
	before := matchedPortals(t, MatchIndexed, models.SideRight)

	cells := newGrid(t, 1, 0, 0, 3, 1)
	s, err := NewSet(cells, WithMatcher(MatchIndexed))
	require.NoError(t, err)
	require.Len(t, s.Report.Portals, 2)
	require.Equal(t, before+2, matchedPortals(t, MatchIndexed, models.SideRight))

	_, err = Assemble(uuid.New(), cells, []*models.Cell{cells[0]})
	require.NoError(t, err)
	require.Equal(t, before+2, matchedPortals(t, MatchIndexed, models.SideRight))
}
