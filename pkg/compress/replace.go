package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
)

// Replace substitutes every cell equal to pattern with replacement. An
// overlapping matrix collapses first, since a per-group value no longer
// equals the cell value.
func (m *CompressedMatrix) Replace(pattern, replacement float64, k int) (*CompressedMatrix, error) {
	if m.IsOverlapping() {
		dense := m.GetUncompressed("replace on overlapping matrix")
		return wrapDense(dense.ReplaceAll(pattern, replacement)), nil
	}
	ret := New(m.rows, m.cols)
	groups := make([]colgroup.ColGroup, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g.Replace(pattern, replacement, m.rows))
	}
	ret.AllocateColGroupList(groups)
	ret.RecomputeNonZeros()
	return ret, nil
}
