package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// ShutdownTimeout is the time in-flight requests get to complete once the
// serving context is done.
var ShutdownTimeout = 10 * time.Second

// ListenAndServe runs the given servers until ctx is done, then shuts them
// down gracefully. It returns when every server is stopped.
func ListenAndServe(ctx context.Context, servers ...*http.Server) {
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logs.Warn(errors.New("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			err := s.ListenAndServe()
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				logs.WithTag("addr", s.Addr).Info("stopping server")
				return
			}
			logs.Warn(errors.New("server stopped").
				WithTag("addr", s.Addr).
				Wrap(err))
		}(s)
	}
	wg.Wait()
}

// NewMetricsPathFormatter returns a path formatter for HTTP metrics that only
// labels the given routes. Requests to other paths, or answered with HTTP 301,
// 404 or 405, are not labeled so that scanned URLs do not create new series.
func NewMetricsPathFormatter(routes ...string) func(int, string) string {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return func(statusCode int, path string) string {
		if statusCode == http.StatusMovedPermanently ||
			statusCode == http.StatusNotFound ||
			statusCode == http.StatusMethodNotAllowed {
			return ""
		}

		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}

		if _, ok := known[path]; !ok {
			return ""
		}
		return path
	}
}
