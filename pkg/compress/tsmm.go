package compress

import (
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/metrics"
	"github.com/ajitpratap0/tessera/pkg/pool"
)

// TSMMType selects the transpose-self-multiply variant.
type TSMMType uint8

const (
	// TSMMLeft computes mᵀ·m
	TSMMLeft TSMMType = iota
	// TSMMRight computes m·mᵀ; not available on the compressed form
	TSMMRight
)

// TransposeSelfMultOp dispatches the typed transpose-self-multiply. Only
// the left variant has a compressed kernel; the right variant would blow
// the output up to rows×rows and is rejected.
func (m *CompressedMatrix) TransposeSelfMultOp(tstype TSMMType, k int) (*matrix.Block, error) {
	if tstype != TSMMLeft {
		return nil, errors.New(errors.ErrorTypeInvalidState,
			"transpose-self-multiply supports only the left type on a compressed matrix")
	}
	return m.TransposeSelfMult(k), nil
}

// TransposeSelfMult computes mᵀ·m (the left tsmm) into a dense cols×cols
// block. Each group accumulates its dictionary self-product into the upper
// triangle; with more than one group the cross-group products of every
// group pair are added as well. The lower triangle is mirrored from the
// upper once at the end.
//
// Groups are partitioned into fixed chunks with per-chunk accumulation
// buffers merged in chunk order, so the result is reproducible for a
// given k.
func (m *CompressedMatrix) TransposeSelfMult(k int) *matrix.Block {
	timer := metrics.NewTimer("tsmm")
	defer timer.Stop()

	out := matrix.NewBlock(m.cols, m.cols, false)
	if m.IsEmpty() {
		return out
	}
	result := out.DenseValues()

	stripes := pool.Stripes(len(m.groups), k)
	buffers := make([][]float64, len(stripes))
	pool.RunStripes(len(stripes), k, func(s pool.Stripe) {
		for si := s.Start; si < s.End; si++ {
			buf := make([]float64, m.cols*m.cols)
			for gi := stripes[si].Start; gi < stripes[si].End; gi++ {
				m.groups[gi].TSMM(buf, m.cols, m.rows)
			}
			buffers[si] = buf
		}
	})
	for _, buf := range buffers {
		for i, v := range buf {
			result[i] += v
		}
	}

	if len(m.groups) > 1 {
		m.addCrossGroupTSMM(result, k)
	}

	mirrorUpperToLower(result, m.cols)
	out.RecomputeNonZeros()
	return out
}

// addCrossGroupTSMM adds aᵀ·b + bᵀ·a for every group pair. Each group's contribution is materialized once into
// a row-major slab spanning the full column range.
func (m *CompressedMatrix) addCrossGroupTSMM(result []float64, k int) {
	slabs := make([]*matrix.Block, len(m.groups))
	pool.RunStripes(len(m.groups), k, func(s pool.Stripe) {
		for i := s.Start; i < s.End; i++ {
			slab := matrix.NewBlock(m.rows, m.cols, false)
			m.groups[i].DecompressToBlock(slab, 0, m.rows, 0)
			slabs[i] = slab
		}
	})
	n := m.cols
	for a := 0; a < len(slabs); a++ {
		for b := a + 1; b < len(slabs); b++ {
			av := slabs[a].DenseValues()
			bv := slabs[b].DenseValues()
			for r := 0; r < m.rows; r++ {
				off := r * n
				for i := 0; i < n; i++ {
					for j := i; j < n; j++ {
						result[i*n+j] += av[off+i]*bv[off+j] + av[off+j]*bv[off+i]
					}
				}
			}
		}
	}
}

// mirrorUpperToLower copies the strict upper triangle onto the lower.
func mirrorUpperToLower(result []float64, n int) {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			result[j*n+i] = result[i*n+j]
		}
	}
}
