package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/cellnet/controller"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/websocket"
)

const (
	errTypeLabel        = "error_type"
	msgTypeLabel        = "msg_type"
	publicEndpointLabel = "public_endpoint"
	transitionLabel     = "transition"
)

// Positioning transitions after a locate request.
const (
	transitionEnter = "enter"
	transitionMove  = "move"
	transitionStay  = "stay"
	transitionLost  = "lost"
)

var (
	streamClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cellnet_stream_clients",
		Help: "The number of clients connected to the locate stream.",
	}, []string{publicEndpointLabel})

	streamSessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cellnet_stream_session_duration_seconds",
		Help:    "The time a client stays connected to the locate stream.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{publicEndpointLabel})

	streamReceivedMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_received_msgs_total",
		Help: "The number of messages received from locate streams.",
	}, []string{publicEndpointLabel, msgTypeLabel})

	streamReceivedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_received_bytes_total",
		Help: "The number of bytes received from locate streams.",
	}, []string{publicEndpointLabel, msgTypeLabel})

	streamReceiveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_receive_errors_total",
		Help: "The errors that occurred while receiving a locate stream message.",
	}, []string{publicEndpointLabel, errTypeLabel})

	streamSentMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_sent_msgs_total",
		Help: "The number of messages sent to locate streams.",
	}, []string{publicEndpointLabel, msgTypeLabel})

	streamSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_sent_bytes_total",
		Help: "The number of bytes sent to locate streams.",
	}, []string{publicEndpointLabel, msgTypeLabel})

	streamSendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_send_errors_total",
		Help: "The errors that occurred while sending a locate stream message.",
	}, []string{publicEndpointLabel, errTypeLabel, msgTypeLabel})

	streamMsgLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cellnet_stream_msg_latency_seconds",
		Help:    "The time to handle a locate stream message.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
	}, []string{publicEndpointLabel, msgTypeLabel})

	streamTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_stream_transitions_total",
		Help: "How the cell where a client is located changes after a locate request.",
	}, []string{publicEndpointLabel, transitionLabel})
)

// HandlerWithMetrics decorates a handler with Prometheus metrics labeled with
// the given public endpoint.
func HandlerWithMetrics(h Handler, publicEndpoint string) Handler {
	return &handlerWithMetrics{
		Handler:        h,
		publicEndpoint: publicEndpoint,
	}
}

type handlerWithMetrics struct {
	Handler

	publicEndpoint string
	connectedAt    time.Time
}

func (h *handlerWithMetrics) HandleConnect(conn *websocket.Conn) {
	h.connectedAt = time.Now()
	streamClients.
		With(prometheus.Labels{publicEndpointLabel: h.publicEndpoint}).
		Inc()

	h.Handler.HandleConnect(conn)
}

func (h *handlerWithMetrics) HandlePing(ctx context.Context, respond ResponseSender, msg Msg) error {
	return h.measureLatency(msg, func() error {
		return h.Handler.HandlePing(ctx, respond, msg)
	})
}

func (h *handlerWithMetrics) HandleLocate(ctx context.Context, respond ResponseSender, msg Msg) error {
	before := h.CurrentCell()
	result := &locateResultSender{ResponseSender: respond}

	err := h.measureLatency(msg, func() error {
		return h.Handler.HandleLocate(ctx, result, msg)
	})
	if err == nil && result.answered {
		h.instrumentTransition(before, h.CurrentCell(), result.found)
	}
	return err
}

func (h *handlerWithMetrics) HandleReset(ctx context.Context, msg Msg) error {
	return h.measureLatency(msg, func() error {
		return h.Handler.HandleReset(ctx, msg)
	})
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	labels := prometheus.Labels{publicEndpointLabel: h.publicEndpoint}
	streamClients.With(labels).Dec()
	if !h.connectedAt.IsZero() {
		streamSessionDuration.With(labels).Observe(time.Since(h.connectedAt).Seconds())
	}

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (Msg, int, error) {
		msg, n, err := receive()
		if err != nil {
			streamReceiveErrors.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					errTypeLabel:        errors.Type(err),
				}).
				Inc()
			return msg, n, err
		}

		labels := prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			msgTypeLabel:        msg.TypeString(),
		}
		streamReceivedMsgs.With(labels).Inc()
		streamReceivedBytes.With(labels).Add(float64(n))
		return msg, n, nil
	}
}

func (h *handlerWithMetrics) Sender() Sender {
	send := h.Handler.Sender()

	return func(msg Msg) (int, error) {
		n, err := send(msg)
		if err != nil {
			streamSendErrors.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msg.TypeString(),
					errTypeLabel:        errors.Type(err),
				}).
				Inc()
			return n, err
		}

		labels := prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			msgTypeLabel:        msg.TypeString(),
		}
		streamSentMsgs.With(labels).Inc()
		streamSentBytes.With(labels).Add(float64(n))
		return n, nil
	}
}

func (h *handlerWithMetrics) measureLatency(msg Msg, f func() error) error {
	start := time.Now()
	err := f()

	streamMsgLatency.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			msgTypeLabel:        msg.TypeString(),
		}).
		Observe(time.Since(start).Seconds())
	return err
}

func (h *handlerWithMetrics) instrumentTransition(before, after *controller.CellController, found bool) {
	streamTransitions.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			transitionLabel:     transition(before, after, found),
		}).
		Inc()
}

// transition names how a client positioning changed after a locate request.
// A miss is a lost client even when the handler keeps its previous cell.
func transition(before, after *controller.CellController, found bool) string {
	switch {
	case !found || after == nil:
		return transitionLost
	case before == nil:
		return transitionEnter
	case before != after:
		return transitionMove
	default:
		return transitionStay
	}
}

// locateResultSender forwards responses and records the outcome of the locate
// response that goes through it.
type locateResultSender struct {
	ResponseSender

	answered bool
	found    bool
}

func (s *locateResultSender) Send(msg Msg) {
	if msg.Type == MsgTypeLocateResponse {
		var res LocateResponse
		if err := msg.DataTo(&res); err == nil {
			s.answered = true
			s.found = res.Found
		}
	}
	s.ResponseSender.Send(msg)
}
