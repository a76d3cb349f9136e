package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/cellnet/controller"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// HeaderClientID is the request header that identifies a client. A random id
// is generated when it is missing.
const HeaderClientID = "X-Client-ID"

// LocateHandler answers locate requests of a single connection. It keeps the
// cell where the client was last located and uses it as the starting point of
// the next search.
type LocateHandler struct {
	// The served set.
	Set *controller.Set

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// Ignores the previously located cell when searching.
	DisableHint bool

	conn     *websocket.Conn
	clientID string
	current  *controller.CellController
}

func (h *LocateHandler) HandleConnect(conn *websocket.Conn) {
	h.conn = conn

	h.clientID = uuid.NewString()
	if req := conn.Request(); req != nil {
		if id := req.Header.Get(HeaderClientID); id != "" {
			h.clientID = id
		}
	}
}

func (h *LocateHandler) HandlePing(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req PingMessage
	if err := msg.DataTo(&req); err != nil {
		return h.respondError(respond, err)
	}

	res, err := NewMsg(MsgTypePong, PingMessage{
		Type:      MsgTypePong,
		RequestID: req.RequestID,
	})
	if err != nil {
		return err
	}
	respond.Send(res)
	return nil
}

func (h *LocateHandler) HandleLocate(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req LocateRequest
	if err := msg.DataTo(&req); err != nil {
		return h.respondError(respond, err)
	}

	hint := h.current
	if h.DisableHint {
		hint = nil
	}

	res := LocateResponse{
		Type:      MsgTypeLocateResponse,
		RequestID: req.RequestID,
	}
	if c, found := h.Set.LocateFrom(req.X, req.Y, req.Z, hint); found {
		id := c.ID()
		network := c.Network().Index()

		res.Found = true
		res.CellID = &id
		res.Network = &network
		h.current = c
	}

	m, err := NewMsg(MsgTypeLocateResponse, res)
	if err != nil {
		return err
	}
	respond.Send(m)
	return nil
}

func (h *LocateHandler) HandleReset(ctx context.Context, msg Msg) error {
	h.current = nil
	return nil
}

func (h *LocateHandler) HandleInvalid(ctx context.Context, respond ResponseSender, msg Msg) error {
	err := errors.New("unsupported message").
		WithType(ErrTypeInvalidMsg).
		WithTag("msg_type", msg.Type)
	return h.respondError(respond, err)
}

// respondError reports a request error to the client. The connection stays
// open.
func (h *LocateHandler) respondError(respond ResponseSender, err error) error {
	m, encodeErr := NewMsg(MsgTypeError, ErrorResponse{
		Type:      MsgTypeError,
		Error:     err.Error(),
		ErrorType: errors.Type(err),
	})
	if encodeErr != nil {
		return encodeErr
	}
	respond.Send(m)
	return nil
}

func (h *LocateHandler) HandleDisconnect(err error) {
	h.current = nil
}

func (h *LocateHandler) Receiver() Receiver {
	return func() (Msg, int, error) {
		var data []byte
		if err := websocket.Message.Receive(h.conn, &data); err != nil {
			return Msg{}, 0, err
		}
		return ParseMsg(data), len(data), nil
	}
}

func (h *LocateHandler) Sender() Sender {
	return func(msg Msg) (int, error) {
		if err := websocket.Message.Send(h.conn, string(msg.Data)); err != nil {
			return 0, err
		}
		return len(msg.Data), nil
	}
}

func (h *LocateHandler) Close() {
}

func (h *LocateHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *LocateHandler) CurrentCell() *controller.CellController {
	return h.current
}

func (h *LocateHandler) GetClientID() string {
	return h.clientID
}
