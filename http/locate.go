package http

import (
	"net/http"
	"strconv"

	"github.com/aukilabs/cellnet/controller"
	"github.com/aukilabs/cellnet/network"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeBadRequest  = "bad_request"
	ErrTypeUnknownCell = "unknown_cell"
)

// LocateResponse is the body of a locate response. Cell and network are only
// set when the point was found.
type LocateResponse struct {
	Found   bool    `json:"found"`
	CellID  *uint32 `json:"cell_id,omitempty"`
	Network *int    `json:"network,omitempty"`
}

// NewLocateResponse creates the response for a locate result.
func NewLocateResponse(c *controller.CellController, found bool) LocateResponse {
	if !found {
		return LocateResponse{}
	}

	id := c.ID()
	network := c.Network().Index()
	return LocateResponse{
		Found:   true,
		CellID:  &id,
		Network: &network,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// HandleLocate answers GET /locate?x=&y=&z=[&cell=&network=]. The optional
// cell and network are the previous positioning of the located entity, which
// the caller keeps between queries. When useHint is false they are ignored.
func HandleLocate(set *controller.Set, useHint bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		x, y, z, prev, err := parseLocateQuery(r, set)
		if err != nil {
			logs.WithTag("query", r.URL.RawQuery).Debug(err)
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: err.Error(),
				Type:  errors.Type(err),
			})
			return
		}
		if !useHint {
			prev = nil
		}

		c, found := set.Locate(x, y, z, prev)
		writeJSON(w, http.StatusOK, NewLocateResponse(c, found))
	}
}

func parseLocateQuery(r *http.Request, set *controller.Set) (x, y, z float32, prev *network.Positioning, err error) {
	q := r.URL.Query()

	var coords [3]float32
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(q.Get(name), 32)
		if err != nil {
			return 0, 0, 0, nil, errors.New("invalid coordinate").
				WithType(ErrTypeBadRequest).
				WithTag("name", name).
				Wrap(err)
		}
		coords[i] = float32(v)
	}

	if v := q.Get("cell"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, 0, nil, errors.New("invalid cell id").
				WithType(ErrTypeBadRequest).
				Wrap(err)
		}

		c, ok := set.Cell(uint32(id))
		if !ok {
			return 0, 0, 0, nil, errors.New("unknown cell").
				WithType(ErrTypeUnknownCell).
				WithTag("cell_id", id)
		}
		prev = &network.Positioning{
			Cell:    c.Cell(),
			Network: c.Network().Index(),
		}
	}

	if v := q.Get("network"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil || idx < 0 || idx >= len(set.Networks()) {
			return 0, 0, 0, nil, errors.New("invalid network index").
				WithType(ErrTypeBadRequest).
				WithTag("network", v)
		}
		if prev == nil {
			prev = &network.Positioning{}
		}
		prev.Network = idx
	}
	return coords[0], coords[1], coords[2], prev, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.Warn(errors.New("encoding response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
