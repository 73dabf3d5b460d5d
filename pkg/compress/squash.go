package compress

import (
	"sort"

	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// Squash re-compresses an overlapping matrix into a non-overlapping form
// by materializing the summed cell values and re-encoding each column.
// Non-overlapping matrices return a plain copy.
func (m *CompressedMatrix) Squash(k int) *CompressedMatrix {
	if !m.IsOverlapping() {
		return m.Copy()
	}
	dense := m.Decompress(k)
	return FromDense(dense, k)
}

// ReExpand performs the column-direction one-hot expansion of a single
// column matrix: output cell (r, v-1) is 1 where v is the input value at
// row r truncated to an integer. Values outside [1, max] are skipped with
// ignore set and reported as data errors otherwise.
func (m *CompressedMatrix) ReExpand(max int, ignore bool, k int) (*matrix.Block, error) {
	dense := m.GetUncompressed("reExpand")
	out := matrix.NewBlock(m.rows, max, true)
	for r := 0; r < m.rows; r++ {
		v := int(dense.Get(r, 0))
		if v >= 1 && v <= max {
			out.Set(r, v-1, 1)
		} else if !ignore {
			return nil, errors.Newf(errors.ErrorTypeData,
				"reExpand value %v at row %d outside [1, %d]", dense.Get(r, 0), r, max)
		}
	}
	out.RecomputeNonZeros()
	return out, nil
}

// CompactEmptyGroups merges adjacent empty groups into a single one,
// keeping the invariant that zero totals collapse to one EMPTY group.
func (m *CompressedMatrix) CompactEmptyGroups() {
	var emptyCols []int
	var kept []colgroup.ColGroup
	for _, g := range m.groups {
		if g.Type() == colgroup.TypeEmpty {
			emptyCols = append(emptyCols, g.ColIndexes()...)
			continue
		}
		kept = append(kept, g)
	}
	if len(emptyCols) == 0 {
		return
	}
	sort.Ints(emptyCols)
	kept = append(kept, colgroup.NewEmpty(emptyCols))
	m.groups = kept
}
