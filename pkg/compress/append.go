package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// AppendCBind appends other to the right of m by merging the column group
// lists; other's column indexes shift by m's column count. No cell data
// moves.
func (m *CompressedMatrix) AppendCBind(other *CompressedMatrix) (*CompressedMatrix, error) {
	if m.rows != other.rows {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"cbind append of %d-row and %d-row matrices", m.rows, other.rows)
	}
	ret := New(m.rows, m.cols+other.cols)
	groups := make([]colgroup.ColGroup, 0, len(m.groups)+len(other.groups))
	for _, g := range m.groups {
		groups = append(groups, g.Copy())
	}
	for _, g := range other.groups {
		groups = append(groups, g.ShiftColIndexes(m.cols))
	}
	ret.AllocateColGroupList(groups)
	ret.overlapping = m.IsOverlapping() || other.IsOverlapping()
	if m.nnz != NNZUnknown && other.nnz != NNZUnknown {
		ret.nnz = m.nnz + other.nnz
	} else {
		ret.nnz = NNZUnknown
	}
	return ret, nil
}

// AppendCBindBlock appends an uncompressed block to the right of m by
// wrapping it in an uncompressed group.
func (m *CompressedMatrix) AppendCBindBlock(other *matrix.Block) (*CompressedMatrix, error) {
	return m.AppendCBind(wrapDense(other))
}

// AppendBlocks is the general append: a single cbind operand merges group
// lists; rbind and multi-operand appends decompress and delegate.
func (m *CompressedMatrix) AppendBlocks(others []*matrix.Block, cbind bool) (*CompressedMatrix, error) {
	if cbind && len(others) == 1 {
		return m.AppendCBindBlock(others[0])
	}
	left := m.GetUncompressed("append list or r-bind not supported compressed")
	rows, cols := left.Rows(), left.Cols()
	for _, o := range others {
		if cbind {
			if o.Rows() != rows {
				return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
					"cbind append of %d-row and %d-row matrices", rows, o.Rows())
			}
			cols += o.Cols()
		} else {
			if o.Cols() != cols {
				return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
					"rbind append of %d-col and %d-col matrices", cols, o.Cols())
			}
			rows += o.Rows()
		}
	}
	out := matrix.NewBlock(rows, cols, false)
	dense := out.DenseValues()
	copyInto := func(b *matrix.Block, rOff, cOff int) {
		for r := 0; r < b.Rows(); r++ {
			b.RowNonZeros(r, func(c int, v float64) {
				dense[(rOff+r)*cols+cOff+c] = v
			})
		}
	}
	copyInto(left, 0, 0)
	rOff, cOff := 0, 0
	if cbind {
		cOff = left.Cols()
	} else {
		rOff = left.Rows()
	}
	for _, o := range others {
		copyInto(o, rOff, cOff)
		if cbind {
			cOff += o.Cols()
		} else {
			rOff += o.Rows()
		}
	}
	out.RecomputeNonZeros()
	return wrapDense(out), nil
}
