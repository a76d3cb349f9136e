package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewMetricsPathFormatter(t *testing.T) {
	format := NewMetricsPathFormatter("/locate", "/locate/stream", "/")

	utests := []struct {
		scenario   string
		statusCode int
		path       string
		expected   string
	}{
		{
			scenario:   "known route",
			statusCode: http.StatusOK,
			path:       "/locate",
			expected:   "/locate",
		},
		{
			scenario:   "query and trailing slash are dropped",
			statusCode: http.StatusBadRequest,
			path:       "/locate/?x=1",
			expected:   "/locate",
		},
		{
			scenario:   "root",
			statusCode: http.StatusOK,
			path:       "/",
			expected:   "/",
		},
		{
			scenario:   "websocket upgrade",
			statusCode: http.StatusSwitchingProtocols,
			path:       "/locate/stream",
			expected:   "/locate/stream",
		},
		{
			scenario:   "unknown route",
			statusCode: http.StatusOK,
			path:       "/wp-admin",
		},
		{
			scenario:   "not found",
			statusCode: http.StatusNotFound,
			path:       "/locate",
		},
		{
			scenario:   "method not allowed",
			statusCode: http.StatusMethodNotAllowed,
			path:       "/locate",
		},
	}

	for _, u := range utests {
		t.Run(u.scenario, func(t *testing.T) {
			require.Equal(t, u.expected, format(u.statusCode, u.path))
		})
	}
}

func TestListenAndServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		ListenAndServe(ctx,
			&http.Server{Addr: "127.0.0.1:0"},
			&http.Server{Addr: "127.0.0.1:0"},
		)
	}()

	time.Sleep(time.Millisecond * 50)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("servers are still running")
	}
}
