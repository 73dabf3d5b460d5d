package compress

import (
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/metrics"
	"github.com/ajitpratap0/tessera/pkg/pool"
)

// LeftMultByMatrix computes left·m into a dense block. Each group
// pre-aggregates left's rows by value index and multiplies by its
// dictionary once, so the FLOP count scales with distinct values rather
// than rows. Result rows are striped across k workers; every output cell
// is written by exactly one stripe.
func (m *CompressedMatrix) LeftMultByMatrix(left *matrix.Block, k int) (*matrix.Block, error) {
	if left.Cols() != m.rows {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"left multiply %dx%d by %dx%d", left.Rows(), left.Cols(), m.rows, m.cols)
	}
	timer := metrics.NewTimer("left_mult")
	defer timer.Stop()

	ret := matrix.NewBlock(left.Rows(), m.cols, false)
	if left.IsEmpty() || m.IsEmpty() {
		return ret, nil
	}
	pool.RunStripes(left.Rows(), k, func(s pool.Stripe) {
		for _, g := range m.groups {
			g.LeftMultByMatrix(left, ret, s.Start, s.End)
		}
	})
	ret.RecomputeNonZeros()
	return ret, nil
}

// LeftMultByMatrixTransposed computes leftᵀ·m into a dense block; used by
// the matrix-multiply chain where the small intermediate arrives
// untransposed.
func (m *CompressedMatrix) LeftMultByMatrixTransposed(left *matrix.Block, k int) (*matrix.Block, error) {
	return m.LeftMultByMatrix(left.Transpose(), k)
}
