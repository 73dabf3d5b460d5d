package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// SliceColumns extracts the half-open column range [cl, cu) as a new
// compressed matrix; groups project and re-base their indexes without
// touching cell data.
func (m *CompressedMatrix) SliceColumns(cl, cu int) (*CompressedMatrix, error) {
	if cl < 0 || cu > m.cols || cl >= cu {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"invalid column slice [%d:%d) of %d columns", cl, cu, m.cols)
	}
	ret := New(m.rows, cu-cl)
	var groups []colgroup.ColGroup
	for _, g := range m.groups {
		if s := g.SliceColumns(cl, cu); s != nil {
			groups = append(groups, s)
		}
	}
	if len(groups) == 0 {
		groups = append(groups, colgroup.NewEmpty(seq(cu-cl)))
	}
	ret.AllocateColGroupList(groups)
	ret.overlapping = m.IsOverlapping()
	ret.RecomputeNonZeros()
	return ret, nil
}

// SliceRows extracts the half-open row range [rl, ru) as a dense block;
// row slicing always materializes the group contributions.
func (m *CompressedMatrix) SliceRows(rl, ru int) (*matrix.Block, error) {
	if rl < 0 || ru > m.rows || rl >= ru {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"invalid row slice [%d:%d) of %d rows", rl, ru, m.rows)
	}
	out := matrix.NewBlock(ru-rl, m.cols, false)
	for _, g := range m.groups {
		g.DecompressToBlock(out, rl, ru, 0)
	}
	out.RecomputeNonZeros()
	return out, nil
}

// Slice extracts the half-open sub-range [rl, ru) × [cl, cu). A full-row
// column slice stays compressed; any row restriction produces a dense
// block wrapped in a single-group container.
func (m *CompressedMatrix) Slice(rl, ru, cl, cu int) (*CompressedMatrix, error) {
	if rl < 0 || ru > m.rows || rl >= ru || cl < 0 || cu > m.cols || cl >= cu {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"invalid slice [%d:%d, %d:%d) of %dx%d matrix", rl, ru, cl, cu, m.rows, m.cols)
	}
	if rl == 0 && ru == m.rows {
		if cl == 0 && cu == m.cols {
			return m.Copy(), nil
		}
		return m.SliceColumns(cl, cu)
	}
	if cl == 0 && cu == m.cols {
		rows, err := m.SliceRows(rl, ru)
		if err != nil {
			return nil, err
		}
		return wrapDense(rows), nil
	}
	// Slice the columns compressed first, then materialize the row range.
	tmp, err := m.SliceColumns(cl, cu)
	if err != nil {
		return nil, err
	}
	rows, err := tmp.SliceRows(rl, ru)
	if err != nil {
		return nil, err
	}
	return wrapDense(rows), nil
}
