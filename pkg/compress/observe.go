package compress

import (
	"github.com/ajitpratap0/tessera/pkg/metrics"
)

// countDecompression records a full decompression triggered by the named
// operation.
func countDecompression(operation string) {
	metrics.Decompressions.WithLabelValues(operation).Inc()
}

// cacheHit records a fetch served from the weak decompression cache.
func cacheHit() {
	metrics.DecompressCacheHits.Inc()
}
