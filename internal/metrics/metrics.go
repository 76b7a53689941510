// Package metrics holds the Prometheus collectors shared across this
// module's I/O paths. It is a leaf package deliberately kept free of any
// dependency on package async or package recordio, since async already
// depends on recordio (through package index) and recordio needs to
// report mode D's contribution to RecordsDelivered — a package that both
// could import without creating a cycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsDelivered counts payloads delivered to a caller, by mode.
	// Modes A, B, and C increment it directly as they hand back a
	// payload; mode D delivers raw chunks rather than framed records, so
	// its contribution is incremented instead by recordio.Reader as it
	// consumes a mode D BufferedReader.
	RecordsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tfrecord_records_delivered_total",
			Help: "Total number of records delivered to a caller, by mode.",
		},
		[]string{"mode"},
	)

	// ReadsSubmitted counts vectored reads pushed onto an async.Queue.
	ReadsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tfrecord_async_reads_submitted_total",
			Help: "Total number of vectored reads submitted to a Queue, by mode.",
		},
		[]string{"mode"},
	)

	// QueueInflight reports the number of reads currently outstanding for
	// an async.Queue, sampled at submission and completion time.
	QueueInflight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tfrecord_async_queue_inflight",
			Help: "Number of reads currently outstanding, by mode.",
		},
		[]string{"mode"},
	)
)
