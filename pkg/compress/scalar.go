package compress

import (
	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// ScalarOp applies op to every cell, transforming each group's dictionary
// and preserving the row assignments and the overlapping flag.
//
// Overlapping matrices only distribute over addition-preserving ops; a
// non-linear op on summed contributions would change the result, so those
// decompress and delegate.
func (m *CompressedMatrix) ScalarOp(op matrix.ScalarOp, k int) (*CompressedMatrix, error) {
	if m.IsOverlapping() && !scalarDistributesOverSum(op) {
		dense := m.GetUncompressed("scalarOp on overlapping matrix")
		out := dense.ScalarApply(op)
		ret := New(m.rows, m.cols)
		ret.AllocateColGroup(colgroup.NewUncompressed(seq(m.cols), out))
		ret.nnz = out.NNZ()
		return ret, nil
	}
	ret := New(m.rows, m.cols)
	ret.overlapping = m.overlapping
	groups := make([]colgroup.ColGroup, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g.ScalarOp(op, m.rows))
	}
	ret.AllocateColGroupList(groups)
	ret.RecomputeNonZeros()
	return ret, nil
}

// scalarDistributesOverSum probes whether op commutes with summed group
// contributions: f(a+b) == f(a)+f(b) for sampled points. Only such ops may
// run per-group on an overlapping matrix.
func scalarDistributesOverSum(op matrix.ScalarOp) bool {
	samples := [][2]float64{{1, 2}, {-3, 5}, {0.5, -0.25}, {100, 3}}
	for _, s := range samples {
		if op.Fn(s[0]+s[1]) != op.Fn(s[0])+op.Fn(s[1]) {
			return false
		}
	}
	return true
}
