// Package metrics provides performance tracking and observability for
// Tessera using Prometheus metrics. Counters cover the decompression paths
// (full decompressions, cache hits, serialization fallbacks) and a histogram
// tracks kernel latency.
//
// Metrics are designed to have minimal overhead; recording is a single
// atomic operation on the hot paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decompressions counts full decompressions of a compressed matrix.
	// Every materialization by Decompress is counted under the "decompress"
	// label; one triggered through a fallback operation is counted again
	// under that operation's name.
	Decompressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tessera_decompressions_total",
			Help: "Total full decompressions of compressed matrices",
		},
		[]string{"operation"},
	)

	// DecompressCacheHits counts fetches served from the weak decompression
	// cache without re-materializing the dense block.
	DecompressCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tessera_decompress_cache_hits_total",
			Help: "Decompressed fetches served from the weak cache",
		},
	)

	// SerializeFallbacks counts size-adaptive writes that fell back to the
	// embedded uncompressed representation.
	SerializeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tessera_serialize_fallbacks_total",
			Help: "Writes that fell back to the uncompressed embedded form",
		},
	)

	// KernelLatency tracks kernel execution latency in seconds, labeled by
	// kernel name (decompress, left_mult, right_mult, tsmm, aggregate).
	KernelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tessera_kernel_latency_seconds",
			Help:    "Latency of compressed matrix kernels",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"kernel"},
	)
)

// Timer measures the duration of a single kernel invocation.
type Timer struct {
	kernel string
	start  time.Time
}

// NewTimer starts a timer for the named kernel.
func NewTimer(kernel string) *Timer {
	return &Timer{kernel: kernel, start: time.Now()}
}

// Stop records the elapsed time into the kernel latency histogram and
// returns the duration.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	KernelLatency.WithLabelValues(t.kernel).Observe(d.Seconds())
	return d
}
