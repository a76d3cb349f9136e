package smoketest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	cellwebsocket "github.com/aukilabs/cellnet/websocket"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	defaultTimeout = 5 * time.Second

	streamPath = "/locate/stream"
)

// Point is a position to locate during a smoke test.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Request describes a smoke test against a cellnet endpoint. A ping is sent
// when no points are given. The timeout is in milliseconds and defaults to 5
// seconds.
type Request struct {
	Endpoint        string  `json:"endpoint"`
	TimeoutMilliSec int64   `json:"timeout_ms"`
	Points          []Point `json:"points"`
}

func (r Request) timeout() time.Duration {
	if r.TimeoutMilliSec <= 0 {
		return defaultTimeout
	}
	return time.Duration(r.TimeoutMilliSec) * time.Millisecond
}

type Results struct {
	FromEndpoint    string  `json:"from_endpoint"`
	ToEndpoint      string  `json:"to_endpoint"`
	Status          string  `json:"status"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Located         int     `json:"located"`
	Missed          int     `json:"missed"`
	Error           string  `json:"error,omitempty"`
}

type Options struct {
	Endpoint   string
	UserAgent  string
	SendResult func(context.Context, Results) error
}

type testCtxKey string

var testCtxKeyValue testCtxKey = "test-context"

type testContext struct {
	context.Context
	Cancel func()
}

// HandleSmokeTest starts a smoke test in the background and answers
// immediately. The results are given to opts.SendResult.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		b, err := io.ReadAll(r.Body)
		if err != nil {
			logs.Warn(errors.New("reading body failed").Wrap(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil || req.Endpoint == "" {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		go func() {
			defer func() {
				// cancel context on exit to signal function exited
				// this is used for testing
				if tctx := ctx.Value(testCtxKeyValue); tctx != nil {
					testCtx := tctx.(testContext)
					if testCtx.Cancel != nil {
						testCtx.Cancel()
					}
				}
			}()

			res, err := Run(ctx, opts, req)
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

// Run connects to the locate stream of the requested endpoint and sends the
// requested points. Results are returned even when the test fails.
func Run(ctx context.Context, opts Options, req Request) (Results, error) {
	res := Results{
		FromEndpoint: opts.Endpoint,
		ToEndpoint:   req.Endpoint,
		Status:       StatusFailed,
	}

	located, missed, latency, err := run(ctx, opts, req)
	if err != nil {
		err = errors.New("smoke test failed").
			WithTag("from_endpoint", opts.Endpoint).
			WithTag("to_endpoint", req.Endpoint).
			Wrap(err)
		res.Error = err.Error()
		return res, err
	}

	res.Status = StatusSuccess
	res.Located = located
	res.Missed = missed
	res.LatencyMilliSec = float64(latency) / float64(time.Millisecond)
	return res, nil
}

func run(ctx context.Context, opts Options, req Request) (located, missed int, latency time.Duration, err error) {
	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	streamURL, err := StreamURL(req.Endpoint)
	if err != nil {
		return 0, 0, 0, err
	}

	origin := opts.Endpoint
	if origin == "" {
		origin = "http://localhost"
	}
	config, err := websocket.NewConfig(streamURL, origin)
	if err != nil {
		return 0, 0, 0, errors.New("creating websocket config failed").Wrap(err)
	}
	if opts.UserAgent != "" {
		config.Header.Set("User-Agent", opts.UserAgent)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return 0, 0, 0, errors.New("dialing endpoint failed").Wrap(err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	conn.SetDeadline(deadline)

	start := time.Now()
	if len(req.Points) == 0 {
		if err := exchange(conn, cellwebsocket.PingMessage{
			Type:      cellwebsocket.MsgTypePing,
			RequestID: 1,
		}, cellwebsocket.MsgTypePong, nil); err != nil {
			return 0, 0, 0, err
		}
		return 0, 0, time.Since(start), nil
	}

	for i, p := range req.Points {
		var res cellwebsocket.LocateResponse
		err := exchange(conn, cellwebsocket.LocateRequest{
			Type:      cellwebsocket.MsgTypeLocate,
			RequestID: uint32(i + 1),
			X:         p.X,
			Y:         p.Y,
			Z:         p.Z,
		}, cellwebsocket.MsgTypeLocateResponse, &res)
		if err != nil {
			return 0, 0, 0, err
		}

		if res.RequestID != uint32(i+1) {
			return 0, 0, 0, errors.New("unexpected request id").
				WithTag("expected", i+1).
				WithTag("request_id", res.RequestID)
		}
		if res.Found {
			located++
		} else {
			missed++
		}
	}
	return located, missed, time.Since(start) / time.Duration(len(req.Points)), nil
}

func exchange(conn *websocket.Conn, req any, expectedType string, res any) error {
	b, err := json.Marshal(req)
	if err != nil {
		return errors.New("encoding request failed").Wrap(err)
	}
	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return errors.New("sending request failed").Wrap(err)
	}

	var data []byte
	if err := websocket.Message.Receive(conn, &data); err != nil {
		return errors.New("receiving response failed").Wrap(err)
	}

	msg := cellwebsocket.ParseMsg(data)
	switch msg.Type {
	case expectedType:
	case cellwebsocket.MsgTypeError:
		var errRes cellwebsocket.ErrorResponse
		if err := msg.DataTo(&errRes); err != nil {
			return err
		}
		return errors.New(errRes.Error).WithType(errRes.ErrorType)
	default:
		return errors.New("unexpected response").
			WithTag("expected", expectedType).
			WithTag("msg_type", msg.Type)
	}

	if res == nil {
		return nil
	}
	return msg.DataTo(res)
}

// StreamURL returns the locate stream websocket URL of a cellnet endpoint.
func StreamURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.New("parsing endpoint failed").
			WithTag("endpoint", endpoint).
			Wrap(err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.New("unsupported endpoint scheme").
			WithTag("endpoint", endpoint)
	}

	u.Path = path.Join("/", u.Path, streamPath)
	return u.String(), nil
}
