package decoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricPrefix = "pixie_decoder"

var (
	metricSpills = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: metricPrefix,
		Name:      "spills_total",
		Help:      "Spills scanned, by outcome.",
	}, []string{"result"})

	metricRecords = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: metricPrefix,
		Name:      "records_decoded_total",
		Help:      "Channel records decoded successfully.",
	})

	metricDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: metricPrefix,
		Name:      "record_decode_errors_total",
		Help:      "Channel records skipped because they could not be decoded.",
	})

	metricDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: metricPrefix,
		Name:      "records_dropped_total",
		Help:      "Decoded records that never reached a raw event, by reason.",
	}, []string{"reason"})

	metricRawEvents = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: metricPrefix,
		Name:      "raw_events_total",
		Help:      "Raw events delivered to the consumer.",
	})

	metricEventSize = promauto.NewSummary(prometheus.SummaryOpts{
		Subsystem:  metricPrefix,
		Name:       "raw_event_records",
		Help:       "Number of records per raw event.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})
)
