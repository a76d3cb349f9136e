package persist

import (
	"io"
	"math"
	"sort"
	"time"

	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/cellnet/network"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	magic         = "cellnet"
	formatVersion = 1
)

// Field numbers of the set message.
const (
	setMagic protowire.Number = iota + 1
	setVersion
	setID
	setCreatedAt
	setCell
	setPortal
	setNetwork
)

// Field numbers of the cell message.
const (
	cellID protowire.Number = iota + 1
	cellFaces
	cellPortalIDs
)

// Field numbers of the faces message.
const (
	facesSide protowire.Number = iota + 1
	facesWall
	facesPortal
)

// Field numbers of the portal message.
const (
	portalID protowire.Number = iota + 1
	portalFrom
	portalTo
	portalSide
	portalQuad
)

// Field numbers of the network message.
const (
	networkRoot protowire.Number = iota + 1
	networkMembers
)

// Encode writes the set, its cells and its resolved portals using the
// protocol buffers wire format.
func Encode(w io.Writer, s *network.Set) error {
	b := protowire.AppendTag(nil, setMagic, protowire.BytesType)
	b = protowire.AppendString(b, magic)
	b = protowire.AppendTag(b, setVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, formatVersion)
	b = protowire.AppendTag(b, setID, protowire.BytesType)
	b = protowire.AppendBytes(b, s.ID[:])

	createdAt, err := proto.Marshal(timestamppb.New(time.Now()))
	if err != nil {
		return errors.New("encoding creation time failed").Wrap(err)
	}
	b = protowire.AppendTag(b, setCreatedAt, protowire.BytesType)
	b = protowire.AppendBytes(b, createdAt)

	var portals []*models.Portal
	seen := make(map[*models.Portal]struct{})

	for _, c := range s.Cells() {
		b = protowire.AppendTag(b, setCell, protowire.BytesType)
		b = protowire.AppendBytes(b, appendCell(nil, c))

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
	for _, p := range portals {
		b = protowire.AppendTag(b, setPortal, protowire.BytesType)
		b = protowire.AppendBytes(b, appendPortal(nil, p))
	}

	for _, n := range s.Networks() {
		b = protowire.AppendTag(b, setNetwork, protowire.BytesType)
		b = protowire.AppendBytes(b, appendNetwork(nil, n))
	}

	if _, err := w.Write(b); err != nil {
		return errors.New("writing set failed").
			WithTag("set_id", s.ID.String()).
			Wrap(err)
	}
	return nil
}

func appendCell(b []byte, c *models.Cell) []byte {
	b = protowire.AppendTag(b, cellID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.ID))

	for s := models.Side(0); s < models.SideCount; s++ {
		faces := c.Faces(s)
		if faces.Len() == 0 {
			continue
		}

		f := protowire.AppendTag(nil, facesSide, protowire.VarintType)
		f = protowire.AppendVarint(f, uint64(s))
		for _, q := range faces.Walls {
			f = protowire.AppendTag(f, facesWall, protowire.BytesType)
			f = protowire.AppendBytes(f, appendQuad(nil, q))
		}
		for _, q := range faces.Portals {
			f = protowire.AppendTag(f, facesPortal, protowire.BytesType)
			f = protowire.AppendBytes(f, appendQuad(nil, q))
		}

		b = protowire.AppendTag(b, cellFaces, protowire.BytesType)
		b = protowire.AppendBytes(b, f)
	}

	if portals := c.Portals(); len(portals) != 0 {
		var ids []byte
		for _, p := range portals {
			ids = protowire.AppendVarint(ids, uint64(p.ID))
		}
		b = protowire.AppendTag(b, cellPortalIDs, protowire.BytesType)
		b = protowire.AppendBytes(b, ids)
	}
	return b
}

// appendQuad appends the 20 components of a quad as packed fixed32 values.
func appendQuad(b []byte, q geometry.Quad) []byte {
	for _, v := range q {
		for _, f := range v.Array() {
			b = protowire.AppendFixed32(b, math.Float32bits(f))
		}
	}
	return b
}

func appendPortal(b []byte, p *models.Portal) []byte {
	b = protowire.AppendTag(b, portalID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.ID))
	b = protowire.AppendTag(b, portalFrom, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Cells[0].ID))
	b = protowire.AppendTag(b, portalTo, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Cells[1].ID))
	b = protowire.AppendTag(b, portalSide, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Side))
	b = protowire.AppendTag(b, portalQuad, protowire.BytesType)
	b = protowire.AppendBytes(b, appendQuad(nil, p.Quad))
	return b
}

func appendNetwork(b []byte, n *network.Network) []byte {
	b = protowire.AppendTag(b, networkRoot, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(n.Root().ID))

	var members []byte
	for _, c := range n.Cells() {
		members = protowire.AppendVarint(members, uint64(c.ID))
	}
	b = protowire.AppendTag(b, networkMembers, protowire.BytesType)
	b = protowire.AppendBytes(b, members)
	return b
}

// Decoded forms of the messages, before cross references are resolved.
type (
	setMessage struct {
		magic     string
		version   uint64
		id        uuid.UUID
		createdAt time.Time
		cells     []cellMessage
		portals   []portalMessage
		networks  []networkMessage
	}

	cellMessage struct {
		id        uint32
		sides     [models.SideCount]models.Faces
		portalIDs []uint32
	}

	portalMessage struct {
		id   uint32
		from uint32
		to   uint32
		side models.Side
		quad geometry.Quad
	}

	networkMessage struct {
		root    uint32
		members []uint32
	}
)

// Decode reads a set written by Encode. Portals are restored from their
// stored links: no portal quad is matched again.
func Decode(r io.Reader) (*network.Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("reading set failed").Wrap(err)
	}

	msg, err := parseSet(data)
	if err != nil {
		return nil, errors.New("parsing set failed").
			WithType(ErrTypeCorruptedData).
			Wrap(err)
	}
	if msg.magic != magic {
		return nil, errors.New("not a cell network set").
			WithType(ErrTypeCorruptedData).
			WithTag("magic", msg.magic)
	}
	if msg.version != formatVersion {
		return nil, errors.New("unsupported set version").
			WithType(ErrTypeCorruptedData).
			WithTag("version", msg.version)
	}

	cells := make([]*models.Cell, len(msg.cells))
	cellsByID := make(map[uint32]*models.Cell, len(msg.cells))
	for i, cm := range msg.cells {
		c, err := models.NewCell(cm.id, cm.sides)
		if err != nil {
			return nil, errors.New("invalid stored cell").
				WithType(ErrTypeCorruptedData).
				Wrap(err)
		}
		if _, ok := cellsByID[c.ID]; ok {
			return nil, errors.New("duplicate stored cell").
				WithType(ErrTypeCorruptedData).
				WithTag("cell_id", c.ID)
		}
		cells[i] = c
		cellsByID[c.ID] = c
	}

	lookup := func(id uint32) (*models.Cell, error) {
		c, ok := cellsByID[id]
		if !ok {
			return nil, errors.New("reference to an unknown cell").
				WithType(ErrTypeUnknownCell).
				WithTag("cell_id", id)
		}
		return c, nil
	}

	var lastPortalID uint32
	for i, pm := range msg.portals {
		if i != 0 && pm.id <= lastPortalID {
			return nil, errors.New("portals are not stored in id order").
				WithType(ErrTypeCorruptedData).
				WithTag("portal_id", pm.id)
		}
		lastPortalID = pm.id

		from, err := lookup(pm.from)
		if err != nil {
			return nil, errors.New("dangling portal").
				WithType(ErrTypeCorruptedData).
				WithTag("portal_id", pm.id).
				Wrap(err)
		}
		to, err := lookup(pm.to)
		if err != nil {
			return nil, errors.New("dangling portal").
				WithType(ErrTypeCorruptedData).
				WithTag("portal_id", pm.id).
				Wrap(err)
		}
		if _, err := models.Link(pm.id, from, pm.side, to, pm.quad); err != nil {
			return nil, errors.New("invalid stored portal").
				WithType(ErrTypeCorruptedData).
				Wrap(err)
		}
	}

	// Portals created in id order give each cell its original portal order.
	for i, cm := range msg.cells {
		if !samePortalIDs(cells[i].Portals(), cm.portalIDs) {
			return nil, errors.New("cell portals do not match the stored portals").
				WithType(ErrTypeCorruptedData).
				WithTag("cell_id", cm.id)
		}
	}

	roots := make([]*models.Cell, len(msg.networks))
	for i, nm := range msg.networks {
		root, err := lookup(nm.root)
		if err != nil {
			return nil, errors.New("dangling network root").
				WithType(ErrTypeCorruptedData).
				WithTag("network_index", i).
				Wrap(err)
		}
		roots[i] = root
	}

	s, err := network.Assemble(msg.id, cells, roots)
	if err != nil {
		return nil, errors.New("invalid stored networks").
			WithType(ErrTypeCorruptedData).
			Wrap(err)
	}

	for i, nm := range msg.networks {
		n := s.Network(i)
		if len(nm.members) != n.Len() {
			return nil, errors.New("network members do not match the stored portals").
				WithType(ErrTypeCorruptedData).
				WithTag("network_index", i).
				WithTag("stored_member_count", len(nm.members)).
				WithTag("member_count", n.Len())
		}
		for _, id := range nm.members {
			c, err := lookup(id)
			if err != nil || !n.Contains(c) {
				return nil, errors.New("network members do not match the stored portals").
					WithType(ErrTypeCorruptedData).
					WithTag("network_index", i).
					WithTag("cell_id", id)
			}
		}
	}

	logs.WithTag("set_id", s.ID.String()).
		WithTag("created_at", msg.createdAt).
		WithTag("cell_count", len(cells)).
		WithTag("portal_count", len(msg.portals)).
		WithTag("network_count", s.Len()).
		Info("network set decoded")
	return s, nil
}

func samePortalIDs(portals []*models.Portal, ids []uint32) bool {
	if len(portals) != len(ids) {
		return false
	}
	for i, p := range portals {
		if p.ID != ids[i] {
			return false
		}
	}
	return true
}

func parseSet(b []byte) (setMessage, error) {
	var msg setMessage

	err := parseMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == setMagic && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			msg.magic = v
			return n, nil

		case num == setVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			msg.version = v
			return n, nil

		case num == setID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return 0, err
			}
			msg.id = id
			return n, nil

		case num == setCreatedAt && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var ts timestamppb.Timestamp
			if err := proto.Unmarshal(v, &ts); err != nil {
				return 0, err
			}
			msg.createdAt = ts.AsTime()
			return n, nil

		case num == setCell && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			c, err := parseCell(v)
			if err != nil {
				return 0, err
			}
			msg.cells = append(msg.cells, c)
			return n, nil

		case num == setPortal && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			p, err := parsePortal(v)
			if err != nil {
				return 0, err
			}
			msg.portals = append(msg.portals, p)
			return n, nil

		case num == setNetwork && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			nm, err := parseNetwork(v)
			if err != nil {
				return 0, err
			}
			msg.networks = append(msg.networks, nm)
			return n, nil

		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return msg, err
}

func parseCell(b []byte) (cellMessage, error) {
	var msg cellMessage

	err := parseMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == cellID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			msg.id = uint32(v)
			return n, nil

		case num == cellFaces && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			side, faces, err := parseFaces(v)
			if err != nil {
				return 0, err
			}
			msg.sides[side] = faces
			return n, nil

		case num == cellPortalIDs && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			ids, err := parsePackedIDs(v)
			if err != nil {
				return 0, err
			}
			msg.portalIDs = append(msg.portalIDs, ids...)
			return n, nil

		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return msg, err
}

func parseFaces(b []byte) (models.Side, models.Faces, error) {
	var side models.Side
	var faces models.Faces

	err := parseMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == facesSide && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && v >= models.SideCount {
				return 0, errors.Newf("invalid side %d", v)
			}
			side = models.Side(v)
			return n, nil

		case (num == facesWall || num == facesPortal) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			q, err := parseQuad(v)
			if err != nil {
				return 0, err
			}
			if num == facesWall {
				faces.Walls = append(faces.Walls, q)
			} else {
				faces.Portals = append(faces.Portals, q)
			}
			return n, nil

		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return side, faces, err
}

func parsePortal(b []byte) (portalMessage, error) {
	var msg portalMessage

	err := parseMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case portalID:
				msg.id = uint32(v)
			case portalFrom:
				msg.from = uint32(v)
			case portalTo:
				msg.to = uint32(v)
			case portalSide:
				if n >= 0 && v >= models.SideCount {
					return 0, errors.Newf("invalid side %d", v)
				}
				msg.side = models.Side(v)
			}
			return n, nil
		}

		if num == portalQuad && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			q, err := parseQuad(v)
			if err != nil {
				return 0, err
			}
			msg.quad = q
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return msg, err
}

func parseNetwork(b []byte) (networkMessage, error) {
	var msg networkMessage

	err := parseMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == networkRoot && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			msg.root = uint32(v)
			return n, nil

		case num == networkMembers && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			ids, err := parsePackedIDs(v)
			if err != nil {
				return 0, err
			}
			msg.members = append(msg.members, ids...)
			return n, nil

		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return msg, err
}

func parseQuad(b []byte) (geometry.Quad, error) {
	var q geometry.Quad

	const size = len(q) * 5 * 4
	if len(b) != size {
		return q, errors.Newf("quad has %d bytes instead of %d", len(b), size)
	}

	for i := range q {
		var v [5]float32
		for j := range v {
			bits, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return q, protowire.ParseError(n)
			}
			v[j] = math.Float32frombits(bits)
			b = b[n:]
		}
		q[i] = geometry.VertexFromArray(v)
	}
	return q, nil
}

func parsePackedIDs(b []byte) ([]uint32, error) {
	var ids []uint32
	for len(b) != 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		ids = append(ids, uint32(v))
		b = b[n:]
	}
	return ids, nil
}

// parseMessage walks the fields of a message. The field function consumes
// the value of one field and returns its length, negative on malformed data.
func parseMessage(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) != 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
