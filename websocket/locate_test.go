package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/aukilabs/cellnet/controller"
	"github.com/aukilabs/cellnet/geometry"
	"github.com/aukilabs/cellnet/models"
	"github.com/aukilabs/cellnet/network"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func floorCell(t *testing.T, id uint32, minX float32, sides map[models.Side]geometry.Quad) *models.Cell {
	var faces [models.SideCount]models.Faces
	faces[models.SideFloor].Walls = []geometry.Quad{{
		geometry.NewVertex(0, 0, minX, 0, 0),
		geometry.NewVertex(1, 0, minX+1, 0, 0),
		geometry.NewVertex(1, 1, minX+1, 0, 1),
		geometry.NewVertex(0, 1, minX, 0, 1),
	}}
	for s, q := range sides {
		faces[s].Portals = []geometry.Quad{q}
	}

	c, err := models.NewCell(id, faces)
	require.NoError(t, err)
	return c
}

// newTestSet serves linked cells 1 and 2, and an isolated cell 3 at x = 10.
func newTestSet(t *testing.T) *controller.Set {
	door := geometry.Quad{
		geometry.NewVertex(0, 0, 1, 0, 0),
		geometry.NewVertex(1, 0, 1, 0, 1),
		geometry.NewVertex(1, 1, 1, 1, 1),
		geometry.NewVertex(0, 1, 1, 1, 0),
	}

	s, err := network.NewSet([]*models.Cell{
		floorCell(t, 1, 0, map[models.Side]geometry.Quad{models.SideRight: door}),
		floorCell(t, 2, 1, map[models.Side]geometry.Quad{models.SideLeft: door}),
		floorCell(t, 3, 10, nil),
	})
	require.NoError(t, err)
	return controller.NewSet(s)
}

func newTestHandler(set *controller.Set) func() Handler {
	return func() Handler {
		var h Handler = &LocateHandler{
			Set:               set,
			ClientIdleTimeout: time.Minute,
		}
		h = HandlerWithLogs(h, time.Millisecond*100)
		h = HandlerWithMetrics(h, "https://cellnet-test.com")
		return h
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, websocket.Message.Send(conn, string(b)))
}

func receive(t *testing.T, conn *websocket.Conn, v any) {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var data string
	require.NoError(t, websocket.Message.Receive(conn, &data))
	require.NoError(t, json.Unmarshal([]byte(data), v))
}

func TestLocateHandlerLocate(t *testing.T) {
	client, close := NewTestingEnv(t, newTestHandler(newTestSet(t)))
	defer close()

	send(t, client, LocateRequest{Type: MsgTypeLocate, RequestID: 1, X: 1.5, Z: 0.5})
	var res LocateResponse
	receive(t, client, &res)
	require.Equal(t, MsgTypeLocateResponse, res.Type)
	require.Equal(t, uint32(1), res.RequestID)
	require.True(t, res.Found)
	require.Equal(t, uint32(2), *res.CellID)
	require.Equal(t, 0, *res.Network)

	// A frame without type is a locate request.
	require.NoError(t, websocket.Message.Send(client, `{"x":10.5,"y":0,"z":0.5}`))
	res = LocateResponse{}
	receive(t, client, &res)
	require.True(t, res.Found)
	require.Equal(t, uint32(3), *res.CellID)
	require.Equal(t, 1, *res.Network)

	send(t, client, PingMessage{Type: MsgTypePing, RequestID: 2})
	var pong PingMessage
	receive(t, client, &pong)
	require.Equal(t, MsgTypePong, pong.Type)
	require.Equal(t, uint32(2), pong.RequestID)

	send(t, client, LocateRequest{RequestID: 3, X: 50, Z: 50})
	res = LocateResponse{}
	receive(t, client, &res)
	require.False(t, res.Found)
	require.Nil(t, res.CellID)
	require.Nil(t, res.Network)
}

func TestLocateHandlerReset(t *testing.T) {
	client, close := NewTestingEnv(t, newTestHandler(newTestSet(t)))
	defer close()

	send(t, client, LocateRequest{X: 0.5, Z: 0.5})
	var res LocateResponse
	receive(t, client, &res)
	require.True(t, res.Found)

	// A reset is not answered.
	send(t, client, PingMessage{Type: MsgTypeReset})
	send(t, client, PingMessage{Type: MsgTypePing, RequestID: 7})
	var pong PingMessage
	receive(t, client, &pong)
	require.Equal(t, MsgTypePong, pong.Type)
	require.Equal(t, uint32(7), pong.RequestID)
}

func TestLocateHandlerInvalidMessages(t *testing.T) {
	client, close := NewTestingEnv(t, newTestHandler(newTestSet(t)))
	defer close()

	require.NoError(t, websocket.Message.Send(client, `not json`))
	var errRes ErrorResponse
	receive(t, client, &errRes)
	require.Equal(t, MsgTypeError, errRes.Type)
	require.Equal(t, ErrTypeInvalidMsg, errRes.ErrorType)

	require.NoError(t, websocket.Message.Send(client, `{"type":"teleport"}`))
	errRes = ErrorResponse{}
	receive(t, client, &errRes)
	require.Equal(t, ErrTypeInvalidMsg, errRes.ErrorType)

	require.NoError(t, websocket.Message.Send(client, `{"type":"locate","x":"left"}`))
	errRes = ErrorResponse{}
	receive(t, client, &errRes)
	require.Equal(t, ErrTypeInvalidMsg, errRes.ErrorType)

	// The connection is still usable.
	send(t, client, LocateRequest{X: 0.5, Z: 0.5})
	var res LocateResponse
	receive(t, client, &res)
	require.True(t, res.Found)
	require.Equal(t, uint32(1), *res.CellID)
}

func TestLocateHandlerIdleTimeout(t *testing.T) {
	set := newTestSet(t)
	client, close := NewTestingEnv(t, func() Handler {
		return &LocateHandler{
			Set:               set,
			ClientIdleTimeout: 50 * time.Millisecond,
		}
	})
	defer close()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	var data string
	require.Error(t, websocket.Message.Receive(client, &data))
}

func TestLocateHandlerPositioning(t *testing.T) {
	set := newTestSet(t)

	var sent []Msg
	respond := responseSender{send: func(m Msg) { sent = append(sent, m) }}

	locate := func(lh *LocateHandler, x, z float32) LocateResponse {
		m, err := NewMsg(MsgTypeLocate, LocateRequest{X: x, Z: z})
		require.NoError(t, err)
		require.NoError(t, lh.HandleLocate(context.Background(), respond, m))

		var res LocateResponse
		require.NoError(t, sent[len(sent)-1].DataTo(&res))
		return res
	}

	t.Run("keeps the last located cell", func(t *testing.T) {
		lh := &LocateHandler{Set: set}
		require.Nil(t, lh.CurrentCell())

		require.Equal(t, uint32(3), *locate(lh, 10.5, 0.5).CellID)
		require.Equal(t, uint32(3), lh.CurrentCell().ID())

		require.False(t, locate(lh, 50, 50).Found)
		require.Equal(t, uint32(3), lh.CurrentCell().ID())

		require.Equal(t, uint32(1), *locate(lh, 0.5, 0.5).CellID)
		require.Equal(t, uint32(1), lh.CurrentCell().ID())

		require.NoError(t, lh.HandleReset(context.Background(), Msg{Type: MsgTypeReset}))
		require.Nil(t, lh.CurrentCell())
	})

	t.Run("without hint", func(t *testing.T) {
		lh := &LocateHandler{Set: set, DisableHint: true}
		require.Equal(t, uint32(3), *locate(lh, 10.5, 0.5).CellID)
		require.Equal(t, uint32(2), *locate(lh, 1.5, 0.5).CellID)
		require.Equal(t, uint32(2), lh.CurrentCell().ID())
	})
}

func TestParseMsg(t *testing.T) {
	require.Equal(t, MsgTypeLocate, ParseMsg([]byte(`{"x":1}`)).Type)
	require.Equal(t, MsgTypePing, ParseMsg([]byte(`{"type":"ping"}`)).Type)
	require.Equal(t, MsgTypeInvalid, ParseMsg([]byte(`[`)).Type)
}
