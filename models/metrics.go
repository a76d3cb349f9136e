package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	malformedCellCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cellnet_malformed_cell_count_total",
		Help: "The total number of cells rejected because of their geometry.",
	})
)

func instrumentNewCell(err error) {
	if err != nil {
		malformedCellCount.Inc()
	}
}
