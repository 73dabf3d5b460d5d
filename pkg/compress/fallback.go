package compress

import (
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// The operations below have no compressed execution path. They always
// decompress (once, through the weak cache) and delegate to the dense
// implementation; the fallback is logged, never raised.

// Transpose materializes the dense transpose.
func (m *CompressedMatrix) Transpose(k int) *matrix.Block {
	return m.GetUncompressed("transpose").Transpose()
}

// CM computes the order-k central moment of a single-column matrix.
func (m *CompressedMatrix) CM(order int, weights *matrix.Block) (float64, error) {
	return m.GetUncompressed("cmOperations").CM(order, weights)
}

// Cov computes the covariance against another column vector.
func (m *CompressedMatrix) Cov(other *matrix.Block) (float64, error) {
	return m.GetUncompressed("covOperations").Cov(other)
}

// SortColumn returns the sorted values of a single-column matrix.
func (m *CompressedMatrix) SortColumn() (*matrix.Block, error) {
	return m.GetUncompressed("sortOperations").SortColumn()
}

// PickValue returns the q-quantile of a single-column matrix.
func (m *CompressedMatrix) PickValue(q float64, average bool) (float64, error) {
	return m.GetUncompressed("pickValue").PickValue(q, average)
}

// Ctable builds the contingency table against another matrix.
func (m *CompressedMatrix) Ctable(other *matrix.Block) (*matrix.Block, error) {
	return m.GetUncompressed("ctableOperations").Ctable(other)
}

// GroupedAgg sums the values of a single-column matrix per group id given
// in groups (values 1..nGroups), producing an nGroups×1 block.
func (m *CompressedMatrix) GroupedAgg(groups *matrix.Block, nGroups int) (*matrix.Block, error) {
	if m.cols != 1 || groups.Cols() != 1 || groups.Rows() != m.rows {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"grouped aggregate of %dx%d with %dx%d groups", m.rows, m.cols, groups.Rows(), groups.Cols())
	}
	dense := m.GetUncompressed("groupedAggOperations")
	out := matrix.NewBlock(nGroups, 1, false)
	vals := out.DenseValues()
	for r := 0; r < m.rows; r++ {
		gid := int(groups.Get(r, 0))
		if gid >= 1 && gid <= nGroups {
			vals[gid-1] += dense.Get(r, 0)
		}
	}
	out.RecomputeNonZeros()
	return out, nil
}

// ZeroOut clears (or, complementary, retains only) the half-open index
// range, returning a dense block.
func (m *CompressedMatrix) ZeroOut(rl, ru, cl, cu int, complementary bool) (*matrix.Block, error) {
	if rl < 0 || ru > m.rows || rl >= ru || cl < 0 || cu > m.cols || cl >= cu {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"invalid zero-out range [%d:%d, %d:%d)", rl, ru, cl, cu)
	}
	dense := m.GetUncompressed("zeroOutOperations").Copy().ToDense()
	vals := dense.DenseValues()
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			inside := r >= rl && r < ru && c >= cl && c < cu
			if inside != complementary {
				vals[r*m.cols+c] = 0
			}
		}
	}
	dense.RecomputeNonZeros()
	return dense, nil
}

// LeftIndexing writes rhs into the half-open target range, returning a
// dense block.
func (m *CompressedMatrix) LeftIndexing(rhs *matrix.Block, rl, cl int) (*matrix.Block, error) {
	if rl < 0 || rl+rhs.Rows() > m.rows || cl < 0 || cl+rhs.Cols() > m.cols {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"left indexing %dx%d at (%d,%d) outside %dx%d", rhs.Rows(), rhs.Cols(), rl, cl, m.rows, m.cols)
	}
	dense := m.GetUncompressed("leftIndexingOperations").Copy().ToDense()
	vals := dense.DenseValues()
	for r := 0; r < rhs.Rows(); r++ {
		for c := 0; c < rhs.Cols(); c++ {
			vals[(rl+r)*m.cols+cl+c] = rhs.Get(r, c)
		}
	}
	dense.RecomputeNonZeros()
	return dense, nil
}

// RemoveEmpty drops all-zero rows (or columns), returning a dense block.
// With emptyReturn set, a fully empty input yields a 1×cols (or rows×1)
// zero block instead of an empty one.
func (m *CompressedMatrix) RemoveEmpty(rows, emptyReturn bool) (*matrix.Block, error) {
	dense := m.GetUncompressed("removeEmptyOperations")
	if rows {
		var keep []int
		for r := 0; r < m.rows; r++ {
			empty := true
			dense.RowNonZeros(r, func(int, float64) { empty = false })
			if !empty {
				keep = append(keep, r)
			}
		}
		if len(keep) == 0 {
			if emptyReturn {
				return matrix.NewBlock(1, m.cols, true), nil
			}
			return matrix.NewBlock(0, m.cols, true), nil
		}
		out := matrix.NewBlock(len(keep), m.cols, false)
		vals := out.DenseValues()
		for i, r := range keep {
			dense.RowNonZeros(r, func(c int, v float64) {
				vals[i*m.cols+c] = v
			})
		}
		out.RecomputeNonZeros()
		return out, nil
	}
	colSums := dense.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggSumSq, Dir: matrix.DirCol})
	var keep []int
	for c := 0; c < m.cols; c++ {
		if colSums.Get(0, c) != 0 {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		if emptyReturn {
			return matrix.NewBlock(m.rows, 1, true), nil
		}
		return matrix.NewBlock(m.rows, 0, true), nil
	}
	out := matrix.NewBlock(m.rows, len(keep), false)
	vals := out.DenseValues()
	for r := 0; r < m.rows; r++ {
		for i, c := range keep {
			vals[r*len(keep)+i] = dense.Get(r, c)
		}
	}
	out.RecomputeNonZeros()
	return out, nil
}
