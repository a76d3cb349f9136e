// Package persist reads level geometry and stores built network sets.
package persist

import (
	"io"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeInvalidLevel  = "invalid_level"
	ErrTypeCorruptedData = "corrupted_data"
	ErrTypeUnknownCell   = "unknown_cell"
)

// The level document produced by the geometry generator.
type levelDocument struct {
	Cells []cellDocument `json:"cells"`
}

type cellDocument struct {
	ID      uint32         `json:"id"`
	Top     *facesDocument `json:"top,omitempty"`
	Bottom  *facesDocument `json:"bottom,omitempty"`
	Left    *facesDocument `json:"left,omitempty"`
	Right   *facesDocument `json:"right,omitempty"`
	Ceiling *facesDocument `json:"ceiling,omitempty"`
	Floor   *facesDocument `json:"floor,omitempty"`
}

func (d *cellDocument) sides() [models.SideCount]**facesDocument {
	return [models.SideCount]**facesDocument{
		models.SideTop:     &d.Top,
		models.SideBottom:  &d.Bottom,
		models.SideLeft:    &d.Left,
		models.SideRight:   &d.Right,
		models.SideCeiling: &d.Ceiling,
		models.SideFloor:   &d.Floor,
	}
}

type facesDocument struct {
	Walls   [][][]float32 `json:"walls,omitempty"`
	Portals [][][]float32 `json:"portals,omitempty"`
}

// ReadLevel decodes a JSON level and creates its cells. Portals are not
// resolved.
func ReadLevel(r io.Reader) ([]*models.Cell, error) {
	var doc levelDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.New("decoding level failed").
			WithType(ErrTypeInvalidLevel).
			Wrap(err)
	}

	cells := make([]*models.Cell, 0, len(doc.Cells))
	for _, cd := range doc.Cells {
		var sides [models.SideCount]models.Faces

		for s, fd := range cd.sides() {
			if *fd == nil {
				continue
			}

			walls, err := quadsFromDocument((*fd).Walls)
			if err != nil {
				return nil, errors.New("invalid wall").
					WithType(ErrTypeInvalidLevel).
					WithTag("cell_id", cd.ID).
					WithTag("side", models.Side(s).String()).
					Wrap(err)
			}

			portals, err := quadsFromDocument((*fd).Portals)
			if err != nil {
				return nil, errors.New("invalid portal").
					WithType(ErrTypeInvalidLevel).
					WithTag("cell_id", cd.ID).
					WithTag("side", models.Side(s).String()).
					Wrap(err)
			}

			sides[s] = models.Faces{Walls: walls, Portals: portals}
		}

		c, err := models.NewCell(cd.ID, sides)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

func quadsFromDocument(doc [][][]float32) ([]geometry.Quad, error) {
	if len(doc) == 0 {
		return nil, nil
	}

	quads := make([]geometry.Quad, len(doc))
	for i, qd := range doc {
		if len(qd) != len(quads[i]) {
			return nil, errors.Newf("quad %d has %d vertices", i, len(qd))
		}

		for j, vd := range qd {
			var v [5]float32
			if len(vd) != len(v) {
				return nil, errors.Newf("vertex %d of quad %d has %d components", j, i, len(vd))
			}
			copy(v[:], vd)
			quads[i][j] = geometry.VertexFromArray(v)
		}
	}
	return quads, nil
}

// WriteLevel encodes cells as a JSON level.
func WriteLevel(w io.Writer, cells []*models.Cell) error {
	doc := levelDocument{
		Cells: make([]cellDocument, len(cells)),
	}

	for i, c := range cells {
		cd := cellDocument{ID: c.ID}

		for s, fd := range cd.sides() {
			faces := c.Faces(models.Side(s))
			if faces.Len() == 0 {
				continue
			}
			*fd = &facesDocument{
				Walls:   quadsToDocument(faces.Walls),
				Portals: quadsToDocument(faces.Portals),
			}
		}
		doc.Cells[i] = cd
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return errors.New("encoding level failed").Wrap(err)
	}
	return nil
}

func quadsToDocument(quads []geometry.Quad) [][][]float32 {
	if len(quads) == 0 {
		return nil
	}

	doc := make([][][]float32, len(quads))
	for i, q := range quads {
		doc[i] = make([][]float32, len(q))
		for j, v := range q {
			a := v.Array()
			doc[i][j] = a[:]
		}
	}
	return doc
}
