package compress

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/logger"
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/metrics"
	"github.com/ajitpratap0/tessera/pkg/pool"
)

// Decompress materializes the dense form with parallelism k. A live cached
// form is returned directly; otherwise the result is published into the
// weak cache slot. Row stripes are fixed for a given k, so the dense
// result is reproducible.
func (m *CompressedMatrix) Decompress(k int) *matrix.Block {
	if m.IsEmpty() {
		return matrix.NewBlock(m.rows, m.cols, true)
	}
	if cached := m.GetCachedDecompressed(); cached != nil {
		return cached
	}

	timer := metrics.NewTimer("decompress")
	metrics.Decompressions.WithLabelValues("decompress").Inc()

	groups, ret := m.stealUncompressedTarget()
	if ret != nil && len(groups) == 0 {
		// The embedded block is the whole matrix.
		m.setCached(ret)
		return ret
	}
	if ret == nil {
		ret = matrix.NewBlock(m.rows, m.cols, false)
	}

	pool.RunStripes(m.rows, k, func(s pool.Stripe) {
		for _, g := range groups {
			g.DecompressToBlock(ret, s.Start, s.End, s.Start)
		}
	})

	if m.IsOverlapping() {
		ret.RecomputeNonZeros()
	} else {
		ret.SetNNZ(m.nnz)
		if m.nnz == NNZUnknown {
			ret.RecomputeNonZeros()
		}
	}

	if logger.DebugEnabled() {
		d := timer.Stop()
		logger.Debug("decompressed block", zap.Int("k", k), zap.Duration("took", d))
	} else {
		timer.Stop()
	}

	m.setCached(ret)
	return ret
}

// stealUncompressedTarget seeds the decompression target with a full-size
// dense uncompressed group, leaving the remaining groups to add their
// contributions. With other groups present the block is copied so the
// group list stays intact. Only worthwhile when overlapping or when the
// uncompressed group is alone.
func (m *CompressedMatrix) stealUncompressedTarget() ([]colgroup.ColGroup, *matrix.Block) {
	if !m.IsOverlapping() && len(m.groups) != 1 {
		return m.groups, nil
	}
	for i, g := range m.groups {
		uc, ok := g.(*colgroup.Uncompressed)
		if !ok {
			continue
		}
		data := uc.Data()
		if data.Rows() == m.rows && data.Cols() == m.cols && !data.IsEmpty() && !data.IsSparse() {
			rest := make([]colgroup.ColGroup, 0, len(m.groups)-1)
			rest = append(rest, m.groups[:i]...)
			rest = append(rest, m.groups[i+1:]...)
			if len(rest) == 0 {
				return rest, data
			}
			return rest, data.Copy()
		}
	}
	return m.groups, nil
}
