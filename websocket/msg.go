package websocket

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeInvalidMsg = "invalid_msg"
)

// Message types. A frame without type is a locate request.
const (
	MsgTypeLocate         = "locate"
	MsgTypeLocateResponse = "locate_response"
	MsgTypeReset          = "reset"
	MsgTypePing           = "ping"
	MsgTypePong           = "pong"
	MsgTypeError          = "error"
	MsgTypeInvalid        = "invalid"
)

// Msg is a JSON text frame.
type Msg struct {
	Type string
	Data []byte
}

// NewMsg encodes v as a frame of the given type.
func NewMsg(msgType string, v any) (Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Msg{}, errors.New("encoding message failed").
			WithType(ErrTypeInvalidMsg).
			WithTag("msg_type", msgType).
			Wrap(err)
	}
	return Msg{Type: msgType, Data: data}, nil
}

// ParseMsg reads the type of a received frame. Frames that are not JSON
// objects get the invalid type.
func ParseMsg(data []byte) Msg {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Msg{Type: MsgTypeInvalid, Data: data}
	}

	if header.Type == "" {
		header.Type = MsgTypeLocate
	}
	return Msg{Type: header.Type, Data: data}
}

func (m Msg) TypeString() string {
	return m.Type
}

// DataTo decodes the frame into v.
func (m Msg) DataTo(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message failed").
			WithType(ErrTypeInvalidMsg).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

type LocateRequest struct {
	Type      string  `json:"type,omitempty"`
	RequestID uint32  `json:"request_id,omitempty"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Z         float32 `json:"z"`
}

// LocateResponse answers a locate request. Cell and network are only set when
// the point was found.
type LocateResponse struct {
	Type      string  `json:"type"`
	RequestID uint32  `json:"request_id,omitempty"`
	Found     bool    `json:"found"`
	CellID    *uint32 `json:"cell_id,omitempty"`
	Network   *int    `json:"network,omitempty"`
}

// PingMessage is both the ping request and its pong response.
type PingMessage struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id,omitempty"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
}
