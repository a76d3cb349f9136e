package network

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	matcherLabel = "matcher"
	sideLabel    = "side"
	foundLabel   = "found"
)

var (
	connectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cellnet_connect_duration_seconds",
		Help:    "The time taken to match the portals of a level.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{matcherLabel})

	portalCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_portal_count_total",
		Help: "The total number of portals created by matching.",
	}, []string{matcherLabel, sideLabel})

	orphanedPortalCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellnet_orphaned_portal_count_total",
		Help: "The total number of portal quads without a matching quad.",
	})

	ambiguousPortalCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellnet_ambiguous_portal_count_total",
		Help: "The total number of portal quads matching more than one cell.",
	})

	networkCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cellnet_network_count",
		Help: "The number of networks of the last built set.",
	})

	locateCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellnet_locate_count_total",
		Help: "The total number of locate queries.",
	}, []string{foundLabel})

	locateTestedCells = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cellnet_locate_tested_cells",
		Help:    "The number of cells tested by a locate query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

func instrumentConnect(r Report) {
	matcher := prometheus.Labels{matcherLabel: r.Matcher.String()}

	connectDuration.With(matcher).Observe(r.Duration.Seconds())
	for _, p := range r.Portals {
		portalCount.
			With(prometheus.Labels{
				matcherLabel: r.Matcher.String(),
				sideLabel:    p.Side.String(),
			}).
			Inc()
	}
	orphanedPortalCount.Add(float64(len(r.Orphans)))
	ambiguousPortalCount.Add(float64(len(r.Ambiguous)))
}

func instrumentNetworks(count int) {
	networkCount.Set(float64(count))
}

func instrumentLocate(found bool, tested int) {
	locateCount.
		With(prometheus.Labels{foundLabel: strconv.FormatBool(found)}).
		Inc()
	locateTestedCells.Observe(float64(tested))
}
