package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// ChainType selects the matrix multiply chain variant.
type ChainType uint8

const (
	// ChainXtXv computes t(X)·(X·v)
	ChainXtXv ChainType = iota
	// ChainXtwXv computes t(X)·(w ⊙ (X·v))
	ChainXtwXv
)

// ChainMatrixMult evaluates the t(X)·(X·v) chain without materializing X.
// The right multiplication may produce an overlapping intermediate when
// permitted; the weighted variant applies w cell-wise in between.
func (m *CompressedMatrix) ChainMatrixMult(v, w *matrix.Block, ctype ChainType, allowOverlap bool, k int) (*matrix.Block, error) {
	if v.Rows() != m.cols {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"chain multiply %dx%d with %dx%d vector", m.rows, m.cols, v.Rows(), v.Cols())
	}
	if ctype == ChainXtwXv {
		if w == nil {
			return nil, errors.New(errors.ErrorTypeValidation, "weighted chain requires weights")
		}
		if w.Rows() != m.rows || w.Cols() != 1 {
			return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
				"chain weights %dx%d for %d rows", w.Rows(), w.Cols(), m.rows)
		}
	}

	if m.IsEmpty() {
		return matrix.NewBlock(m.cols, v.Cols(), false), nil
	}

	// A single uncompressed group multiplies densely end to end.
	if len(m.groups) == 1 {
		if uc, ok := m.groups[0].(*colgroup.Uncompressed); ok && uc.Data().Cols() == m.cols {
			return denseChain(uc.Data(), v, w, ctype, k)
		}
	}

	tmp, err := m.RightMultByMatrix(v, k, allowOverlap && v.Cols() > 1)
	if err != nil {
		return nil, err
	}
	if ctype == ChainXtwXv {
		tmp, err = tmp.BinaryCellOp(matrix.OpMultiply, w, false, k)
		if err != nil {
			return nil, err
		}
	}

	left := tmp.Decompress(k).Transpose()
	res, err := m.LeftMultByMatrix(left, k)
	if err != nil {
		return nil, err
	}
	return res.Transpose(), nil
}

func denseChain(x, v, w *matrix.Block, ctype ChainType, k int) (*matrix.Block, error) {
	xv, err := matrix.MatMult(x, v, k)
	if err != nil {
		return nil, err
	}
	if ctype == ChainXtwXv {
		if err := xv.BinaryCellInPlace(matrix.OpMultiply, w); err != nil {
			return nil, err
		}
	}
	return matrix.MatMult(x.Transpose(), xv, k)
}
