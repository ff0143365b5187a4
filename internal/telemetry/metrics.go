// Package telemetry provides the structured logger and Prometheus
// collectors shared across the sink pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus metrics a running sink exposes.
type Collector struct {
	recordsDroppedTotal   prometheus.Counter
	rowGroupsFlushedTotal prometheus.Counter
	rowsWrittenTotal      prometheus.Counter
	bytesWrittenTotal     prometheus.Counter
	flushDuration         prometheus.Histogram
}

// NewCollector registers and returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		recordsDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parquetflow_records_dropped_total",
			Help: "Total number of records rejected or dropped by try_record.",
		}),
		rowGroupsFlushedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parquetflow_row_groups_flushed_total",
			Help: "Total number of row groups written to the output file.",
		}),
		rowsWrittenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parquetflow_rows_written_total",
			Help: "Total number of rows written across all row groups.",
		}),
		bytesWrittenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parquetflow_bytes_written_total",
			Help: "Total number of compressed bytes written to the output file.",
		}),
		flushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parquetflow_flush_duration_seconds",
			Help:    "Duration of a single row-group flush (encode + compress + write).",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncDropped increments the dropped-records counter.
func (c *Collector) IncDropped() { c.recordsDroppedTotal.Inc() }

// ObserveFlush records one row-group flush: its row count, compressed
// byte size, and wall-clock duration.
func (c *Collector) ObserveFlush(rows int64, bytes int64, seconds float64) {
	c.rowGroupsFlushedTotal.Inc()
	c.rowsWrittenTotal.Add(float64(rows))
	c.bytesWrittenTotal.Add(float64(bytes))
	c.flushDuration.Observe(seconds)
}
