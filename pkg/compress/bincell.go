package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// BinaryCellOp evaluates op cell-wise against rhs. With left set, rhs is
// the left operand (rhs op m). The kernel specializes on scalar broadcast
// and row-vector broadcast; a full matrix operand decompresses and
// delegates to the dense path.
func (m *CompressedMatrix) BinaryCellOp(op matrix.BinaryOp, rhs *matrix.Block, left bool, k int) (*CompressedMatrix, error) {
	switch {
	case rhs.Rows() == 1 && rhs.Cols() == 1:
		return m.binaryScalar(op, rhs.Get(0, 0), left, k)
	case rhs.Rows() == 1 && rhs.Cols() == m.cols && op.RowBroadcastable():
		return m.binaryRowVector(op, rhs, left, k)
	default:
		return m.binaryDenseFallback(op, rhs, left, k)
	}
}

func (m *CompressedMatrix) binaryScalar(op matrix.BinaryOp, c float64, left bool, k int) (*CompressedMatrix, error) {
	if m.IsOverlapping() {
		// Addition of a constant re-expresses as an extra constant group,
		// keeping the compressed form.
		if op == matrix.OpAdd || (op == matrix.OpSubtract && !left) {
			v := c
			if op == matrix.OpSubtract {
				v = -c
			}
			if v == 0 {
				return m.Copy(), nil
			}
			return m.appendConstGroup(constVector(v, m.cols)), nil
		}
	}
	return m.ScalarOp(matrix.NewScalarOp(op, c, left), k)
}

func (m *CompressedMatrix) binaryRowVector(op matrix.BinaryOp, rhs *matrix.Block, left bool, k int) (*CompressedMatrix, error) {
	v := make([]float64, m.cols)
	for c := 0; c < m.cols; c++ {
		v[c] = rhs.Get(0, c)
	}
	if m.IsOverlapping() {
		if op == matrix.OpAdd || (op == matrix.OpSubtract && !left) {
			if op == matrix.OpSubtract {
				for i := range v {
					v[i] = -v[i]
				}
			}
			if allZeros(v) {
				return m.Copy(), nil
			}
			return m.appendConstGroup(v), nil
		}
		return m.binaryDenseFallback(op, rhs, left, k)
	}
	ret := New(m.rows, m.cols)
	groups := make([]colgroup.ColGroup, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g.BinaryRowOp(op, v, left, m.rows))
	}
	ret.AllocateColGroupList(groups)
	ret.RecomputeNonZeros()
	return ret, nil
}

func (m *CompressedMatrix) binaryDenseFallback(op matrix.BinaryOp, rhs *matrix.Block, left bool, k int) (*CompressedMatrix, error) {
	dense := m.GetUncompressed("binaryCellOp " + op.String())
	var out *matrix.Block
	var err error
	if left {
		out, err = rhs.BinaryCell(op, dense)
	} else {
		out, err = dense.BinaryCell(op, rhs)
	}
	if err != nil {
		return nil, err
	}
	return wrapDense(out), nil
}

// appendConstGroup returns a copy of m with an extra constant group over
// all columns; the result is overlapping by construction.
func (m *CompressedMatrix) appendConstGroup(tuple []float64) *CompressedMatrix {
	ret := m.Copy()
	ret.groups = append(ret.groups, colgroup.NewConst(seq(m.cols), colgroup.NewDictionary(tuple)))
	ret.overlapping = true
	ret.nnz = NNZUnknown
	ret.RecomputeNonZeros()
	return ret
}

// wrapDense embeds a dense block in a single-group container.
func wrapDense(b *matrix.Block) *CompressedMatrix {
	ret := New(b.Rows(), b.Cols())
	ret.AllocateColGroup(colgroup.NewUncompressed(seq(b.Cols()), b))
	ret.nnz = b.NNZ()
	ret.setCached(b)
	return ret
}

func constVector(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func allZeros(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
