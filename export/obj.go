// Package export writes network sets in formats readable by modeling tools.
package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/cellnet/network"
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Options customizes the Wavefront OBJ output.
type Options struct {
	// The object name. Defaults to "cellnet".
	Name string

	// Writes texture coordinates.
	Texture bool

	// Keeps V texture coordinates as stored. Otherwise they are written as
	// 1 - V, the origin of OBJ texture space being the bottom left corner.
	KeepVerticalOrder bool

	// Splits each quad into two triangles.
	Triangles bool

	// Writes one group per cell, named after its network and its id.
	GroupPerCell bool

	// Writes resolved portals in a dedicated group after the cells.
	Portals bool

	// The material library referenced when texture coordinates are written.
	MaterialLib string
}

// The order in which the faces of a cell are written.
var sideOrder = []models.Side{
	models.SideBottom,
	models.SideCeiling,
	models.SideFloor,
	models.SideLeft,
	models.SideRight,
	models.SideTop,
}

type objGroup struct {
	name  string
	quads []geometry.Quad
}

// WriteOBJ writes the walls of every cell of the set as a single Wavefront
// OBJ object. Vertices are not deduplicated: each quad has its own 4
// vertices.
func WriteOBJ(w io.Writer, s *network.Set, opts Options) error {
	if opts.Name == "" {
		opts.Name = "cellnet"
	}

	groups := collectGroups(s, opts)
	bw := bufio.NewWriter(w)

	if opts.Texture && opts.MaterialLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", opts.MaterialLib)
	}
	fmt.Fprintf(bw, "o %s\n", opts.Name)

	for _, g := range groups {
		for _, q := range g.quads {
			for _, v := range q {
				fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
			}
		}
	}

	if opts.Texture {
		for _, g := range groups {
			for _, q := range g.quads {
				for _, v := range q {
					tv := v.V
					if !opts.KeepVerticalOrder {
						tv = 1 - tv
					}
					fmt.Fprintf(bw, "vt %s %s\n", formatFloat(v.U), formatFloat(tv))
				}
			}
		}
	}

	// OBJ indices start at 1.
	index := 1
	for _, g := range groups {
		if g.name != "" {
			fmt.Fprintf(bw, "g %s\n", g.name)
		}

		for range g.quads {
			if opts.Triangles {
				writeFace(bw, opts.Texture, index, index+1, index+2)
				writeFace(bw, opts.Texture, index, index+2, index+3)
			} else {
				writeFace(bw, opts.Texture, index, index+1, index+2, index+3)
			}
			index += 4
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.New("writing obj failed").
			WithTag("set_id", s.ID.String()).
			Wrap(err)
	}
	return nil
}

func collectGroups(s *network.Set, opts Options) []objGroup {
	var groups []objGroup
	var current objGroup

	for _, n := range s.Networks() {
		for _, c := range n.Cells() {
			if opts.GroupPerCell {
				current = objGroup{name: fmt.Sprintf("network%d_cell%d", n.Index(), c.ID)}
			}

			for _, side := range sideOrder {
				current.quads = append(current.quads, c.Walls(side)...)
			}

			if opts.GroupPerCell {
				groups = append(groups, current)
			}
		}
	}
	if !opts.GroupPerCell {
		groups = append(groups, current)
	}

	if opts.Portals {
		groups = append(groups, portalGroup(s))
	}
	return groups
}

func portalGroup(s *network.Set) objGroup {
	var portals []*models.Portal
	seen := make(map[*models.Portal]struct{})

	for _, c := range s.Cells() {
		for _, p := range c.Portals() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			portals = append(portals, p)
		}
	}
	sort.Slice(portals, func(i, j int) bool {
		return portals[i].ID < portals[j].ID
	})

	g := objGroup{name: "portals"}
	for _, p := range portals {
		g.quads = append(g.quads, p.Quad)
	}
	return g
}

func writeFace(w io.Writer, texture bool, indices ...int) {
	io.WriteString(w, "f")
	for _, i := range indices {
		if texture {
			fmt.Fprintf(w, " %d/%d", i, i)
		} else {
			fmt.Fprintf(w, " %d", i)
		}
	}
	io.WriteString(w, "\n")
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
