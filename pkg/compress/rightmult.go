package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/metrics"
	"github.com/ajitpratap0/tessera/pkg/pool"
)

// RightMultByMatrix computes m·right. Each group contracts its dictionary
// with right independently, producing one result group per input group
// over the shared column set {0..right.Cols()-1}. With allowOverlap and a
// multi-column right the groups are returned as an overlapping compressed
// matrix without materialization; otherwise the contributions are
// sum-collapsed into a dense block.
func (m *CompressedMatrix) RightMultByMatrix(right *matrix.Block, k int, allowOverlap bool) (*CompressedMatrix, error) {
	if m.cols != right.Rows() {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"right multiply %dx%d by %dx%d", m.rows, m.cols, right.Rows(), right.Cols())
	}
	timer := metrics.NewTimer("right_mult")
	defer timer.Stop()

	rCols := right.Cols()
	results := make([]colgroup.ColGroup, len(m.groups))
	pool.RunStripes(len(m.groups), k, func(s pool.Stripe) {
		for i := s.Start; i < s.End; i++ {
			results[i] = m.groups[i].RightMultByMatrix(right)
		}
	})

	groups := make([]colgroup.ColGroup, 0, len(results))
	for _, g := range results {
		if g != nil {
			groups = append(groups, g)
		}
	}

	ret := New(m.rows, rCols)
	if len(groups) == 0 {
		ret.AllocateColGroup(colgroup.NewEmpty(seq(rCols)))
		ret.nnz = 0
		return ret, nil
	}

	if allowOverlap && rCols > 1 {
		ret.AllocateColGroupList(groups)
		ret.overlapping = true
		ret.nnz = NNZUnknown
		return ret, nil
	}

	// Sum-collapse the overlapping contributions into a dense block.
	tmp := New(m.rows, rCols)
	tmp.AllocateColGroupList(groups)
	tmp.overlapping = true
	tmp.nnz = NNZUnknown
	return wrapDense(tmp.Decompress(k)), nil
}
