package models

import (
	"testing"

	"github.com/aukilabs/cellnet/geometry"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func malformedCells(t *testing.T) float64 {
	var m dto.Metric
	require.NoError(t, malformedCellCount.Write(&m))
	return m.Counter.GetValue()
}

func TestMalformedCellCount(t *testing.T) {
	before := malformedCells(t)

	var faces [SideCount]Faces
	faces[SideFloor].Walls = []geometry.Quad{{
		geometry.NewVertex(0, 0, 0, 0, 0),
		geometry.NewVertex(1, 0, 1, 0, 0),
		geometry.NewVertex(1, 1, 1, 0, 1),
		geometry.NewVertex(0, 1, 0, 0, 1),
	}}
	_, err := NewCell(1, faces)
	require.NoError(t, err)
	require.Equal(t, before, malformedCells(t))

	_, err = NewCell(2, [SideCount]Faces{})
	require.Error(t, err)
	require.Equal(t, before+1, malformedCells(t))
}
