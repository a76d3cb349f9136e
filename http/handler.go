package http

import (
	"net/http"

	"github.com/aukilabs/cellnet/controller"
)

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleReadyCheck(readinessCheck func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readinessCheck() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}

// SetInfo describes a served network set.
type SetInfo struct {
	ID        string        `json:"id"`
	CellCount int           `json:"cell_count"`
	Networks  []NetworkInfo `json:"networks"`
}

type NetworkInfo struct {
	Index     int    `json:"index"`
	RootID    uint32 `json:"root_id"`
	CellCount int    `json:"cell_count"`
}

// HandleSetInfo answers GET /set with a summary of the served set.
func HandleSetInfo(set *controller.Set) http.HandlerFunc {
	info := SetInfo{
		ID:        set.Model().ID.String(),
		CellCount: len(set.Model().Cells()),
		Networks:  make([]NetworkInfo, 0, len(set.Networks())),
	}
	for _, n := range set.Networks() {
		info.Networks = append(info.Networks, NetworkInfo{
			Index:     n.Index(),
			RootID:    n.Root().ID(),
			CellCount: len(n.Cells()),
		})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}

// HandleWithCORS allows the handler to be called from any origin.
func HandleWithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
