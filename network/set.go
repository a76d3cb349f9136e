package network

import (
	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
)

// Positioning is where a point was located: a cell and the index of the
// network it belongs to.
type Positioning struct {
	Cell    *models.Cell
	Network int
}

// Set is the partition of the cells of a level into networks. A level made of
// disconnected sub-maps has one network per sub-map.
type Set struct {
	ID uuid.UUID

	// Report of the portal matching, empty when the set was assembled from
	// already connected cells.
	Report Report

	cells     []*models.Cell
	networks  []*Network
	cellsByID map[uint32]*models.Cell
	networkOf map[*models.Cell]int
}

// NewSet connects the given cells and partitions them into networks.
func NewSet(cells []*models.Cell, opts ...Option) (*Set, error) {
	return newSet(uuid.New(), cells, opts...)
}

func newSet(id uuid.UUID, cells []*models.Cell, opts ...Option) (*Set, error) {
	s, err := newEmptySet(id, cells)
	if err != nil {
		return nil, err
	}

	s.Report = Connect(s.cells, opts...)

	for _, c := range s.cells {
		if _, ok := s.networkOf[c]; ok {
			continue
		}
		s.addNetwork(newNetwork(len(s.networks), c))
	}

	instrumentNetworks(len(s.networks))
	logs.WithTag("set_id", s.ID.String()).
		WithTag("cell_count", len(s.cells)).
		WithTag("network_count", len(s.networks)).
		Info("network set built")
	return s, nil
}

func newEmptySet(id uuid.UUID, cells []*models.Cell) (*Set, error) {
	s := &Set{
		ID:        id,
		cells:     make([]*models.Cell, 0, len(cells)),
		cellsByID: make(map[uint32]*models.Cell, len(cells)),
		networkOf: make(map[*models.Cell]int, len(cells)),
	}

	for i, c := range cells {
		if c == nil {
			return nil, errors.New("nil cell").
				WithType(ErrTypeInvalidCell).
				WithTag("position", i)
		}
		if _, ok := s.cellsByID[c.ID]; ok {
			return nil, errors.New("duplicate cell id").
				WithType(ErrTypeDuplicateCell).
				WithTag("cell_id", c.ID)
		}
		s.cellsByID[c.ID] = c
		s.cells = append(s.cells, c)
	}

	// Portals already resolved must stay within the set, otherwise networks
	// would collect cells that were not given.
	for _, c := range s.cells {
		for _, p := range c.Portals() {
			if other := p.Other(c); s.cellsByID[other.ID] != other {
				return nil, errors.New("cell is linked to a cell outside of the set").
					WithType(ErrTypeInvalidNetwork).
					WithTag("cell_id", c.ID).
					WithTag("portal_id", p.ID).
					WithTag("linked_cell_id", other.ID)
			}
		}
	}
	return s, nil
}

func (s *Set) addNetwork(n *Network) {
	for _, c := range n.cells {
		s.networkOf[c] = n.index
	}
	s.networks = append(s.networks, n)
}

// Assemble builds a set from cells whose portals are already resolved,
// without matching portal quads again. Each root is the first cell of a
// network; the networks are rebuilt by walking from the roots and must cover
// every cell exactly once.
func Assemble(id uuid.UUID, cells []*models.Cell, roots []*models.Cell) (*Set, error) {
	s, err := newEmptySet(id, cells)
	if err != nil {
		return nil, err
	}

	for _, root := range roots {
		if root == nil || s.cellsByID[root.ID] != root {
			return nil, errors.New("network root is not a cell of the set").
				WithType(ErrTypeInvalidNetwork).
				WithTag("network_index", len(s.networks))
		}
		if idx, ok := s.networkOf[root]; ok {
			return nil, errors.New("network root already belongs to a network").
				WithType(ErrTypeInvalidNetwork).
				WithTag("cell_id", root.ID).
				WithTag("network_index", idx)
		}

		n := newNetwork(len(s.networks), root)
		for _, c := range n.cells {
			if s.cellsByID[c.ID] != c {
				return nil, errors.New("network reaches a cell outside of the set").
					WithType(ErrTypeInvalidNetwork).
					WithTag("cell_id", c.ID).
					WithTag("network_index", n.index)
			}
			if _, ok := s.networkOf[c]; ok {
				return nil, errors.New("networks are connected to each other").
					WithType(ErrTypeInvalidNetwork).
					WithTag("cell_id", c.ID).
					WithTag("network_index", n.index)
			}
		}
		s.addNetwork(n)
	}

	if len(s.networkOf) != len(s.cells) {
		return nil, errors.New("networks do not cover every cell").
			WithType(ErrTypeInvalidNetwork).
			WithTag("cell_count", len(s.cells)).
			WithTag("covered_cell_count", len(s.networkOf))
	}
	return s, nil
}

// Rebuild forgets every portal of the set cells and matches them again. It is
// meant for one-time tooling, loading a persisted set never needs it.
func Rebuild(s *Set, opts ...Option) (*Set, error) {
	for _, c := range s.cells {
		c.ResetPortals()
	}
	return newSet(s.ID, s.cells, opts...)
}

// Cells returns every cell of the set, in input order.
func (s *Set) Cells() []*models.Cell {
	return s.cells
}

// Cell returns the cell with the given id.
func (s *Set) Cell(id uint32) (*models.Cell, bool) {
	c, ok := s.cellsByID[id]
	return c, ok
}

func (s *Set) Networks() []*Network {
	return s.networks
}

func (s *Set) Network(i int) *Network {
	return s.networks[i]
}

func (s *Set) Len() int {
	return len(s.networks)
}

// NetworkOf returns the index of the network that holds the given cell.
func (s *Set) NetworkOf(c *models.Cell) (int, bool) {
	i, ok := s.networkOf[c]
	return i, ok
}

// Locate returns the cell and the network that contain the point.
//
// The previous positioning, when known, is the result of the last locate call
// for the same entity. Its network is searched first, starting from its cell.
// The other networks are then searched from their root in round-robin
// order. Not finding the point means it is outside of the level.
func (s *Set) Locate(x, y, z float32, prev *Positioning) (Positioning, bool) {
	count := len(s.networks)
	if count == 0 {
		instrumentLocate(false, 0)
		return Positioning{}, false
	}

	first := 0
	var hint *models.Cell
	if prev != nil {
		if prev.Network >= 0 && prev.Network < count {
			first = prev.Network
		}
		hint = prev.Cell
	}

	tested := 0
	for j := 0; j < count; j++ {
		idx := (first + j) % count
		h := hint
		if j != 0 {
			h = nil
		}

		c, visited := s.networks[idx].locate(x, y, z, h)
		tested += visited
		if c != nil {
			instrumentLocate(true, tested)
			return Positioning{Cell: c, Network: idx}, true
		}
	}

	instrumentLocate(false, tested)
	logs.WithTag("set_id", s.ID.String()).
		WithTag("x", x).
		WithTag("y", y).
		WithTag("z", z).
		Debug("point is outside of every network")
	return Positioning{}, false
}
