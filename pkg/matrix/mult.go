package matrix

import (
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/pool"
)

// MatMult computes a·b into a new dense block. Parallelism k partitions the
// rows of a into fixed stripes, so results are reproducible for a given k.
func MatMult(a, b *Block, k int) (*Block, error) {
	if a.cols != b.rows {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"matrix multiply %dx%d by %dx%d", a.rows, a.cols, b.rows, b.cols)
	}
	out := NewBlock(a.rows, b.cols, false)
	if a.IsEmpty() || b.IsEmpty() {
		return out, nil
	}
	if err := pool.RunStripes(a.rows, k, func(s pool.Stripe) {
		multRange(a, b, out, s.Start, s.End)
	}); err != nil {
		return nil, err
	}
	out.RecomputeNonZeros()
	return out, nil
}

// multRange accumulates a[rl:ru, :]·b into out[rl:ru, :].
func multRange(a, b, out *Block, rl, ru int) {
	n := out.cols
	if !a.sparse && !b.sparse {
		for i := rl; i < ru; i++ {
			aOff := i * a.cols
			oOff := i * n
			for kk := 0; kk < a.cols; kk++ {
				av := a.dense[aOff+kk]
				if av == 0 {
					continue
				}
				bOff := kk * n
				for j := 0; j < n; j++ {
					out.dense[oOff+j] += av * b.dense[bOff+j]
				}
			}
		}
		return
	}
	for i := rl; i < ru; i++ {
		oOff := i * n
		a.RowNonZeros(i, func(kk int, av float64) {
			b.RowNonZeros(kk, func(j int, bv float64) {
				out.dense[oOff+j] += av * bv
			})
		})
	}
}

// Transpose returns the transposed block. The output layout matches the
// input layout.
func (b *Block) Transpose() *Block {
	out := NewBlock(b.cols, b.rows, b.sparse)
	if b.sparse {
		// Two-pass: column counts, then column-ordered fill keeps each
		// output row sorted.
		counts := make([]int, b.cols)
		for r := 0; r < b.rows; r++ {
			b.RowNonZeros(r, func(c int, _ float64) { counts[c]++ })
		}
		for c := 0; c < b.cols; c++ {
			out.rowData[c].idx = make([]int, 0, counts[c])
			out.rowData[c].vals = make([]float64, 0, counts[c])
		}
		for r := 0; r < b.rows; r++ {
			b.RowNonZeros(r, func(c int, v float64) {
				out.rowData[c].idx = append(out.rowData[c].idx, r)
				out.rowData[c].vals = append(out.rowData[c].vals, v)
			})
		}
	} else {
		for r := 0; r < b.rows; r++ {
			off := r * b.cols
			for c := 0; c < b.cols; c++ {
				out.dense[c*b.rows+r] = b.dense[off+c]
			}
		}
	}
	out.nnz = b.nnz
	return out
}

// TransposeInPlace replaces the receiver's contents with its transpose and
// returns the receiver.
func (b *Block) TransposeInPlace() *Block {
	t := b.Transpose()
	*b = *t
	return b
}
