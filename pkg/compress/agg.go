package compress

import (
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/metrics"
	"github.com/ajitpratap0/tessera/pkg/pool"
)

// AggregateUnary reduces the matrix according to op on the compressed
// form. Supported kinds are sum, sum-of-squares, mean, min and max with
// their row and column variants; any other op decompresses and delegates.
//
// Overlapping matrices support the additive kinds directly (contributions
// sum); the non-additive kinds collapse first.
func (m *CompressedMatrix) AggregateUnary(op matrix.AggregateOp, k int) (*matrix.Block, error) {
	switch op.Kind {
	case matrix.AggSum, matrix.AggMean:
	case matrix.AggSumSq, matrix.AggMin, matrix.AggMax:
		if m.IsOverlapping() {
			return m.GetUncompressed("aggregateUnary " + op.Kind.String() + " on overlapping matrix").
				AggregateUnary(op), nil
		}
	default:
		// Unknown aggregates always fall back rather than raise.
		return m.GetUncompressed("aggregateUnary " + op.Kind.String()).AggregateUnary(op), nil
	}

	timer := metrics.NewTimer("aggregate")
	defer timer.Stop()

	switch op.Dir {
	case matrix.DirRow:
		return m.aggregateRows(op, k), nil
	case matrix.DirCol:
		return m.aggregateCols(op, k), nil
	default:
		return m.aggregateAll(op, k), nil
	}
}

func (m *CompressedMatrix) aggregateAll(op matrix.AggregateOp, k int) *matrix.Block {
	acc := op.Kind.InitValue()
	switch op.Kind {
	case matrix.AggSum, matrix.AggSumSq, matrix.AggMean:
		square := op.Kind == matrix.AggSumSq
		// Fixed group order keeps the accumulation reproducible.
		for _, g := range m.groups {
			c := []float64{0}
			g.ComputeSum(c, m.rows, square)
			acc += c[0]
		}
		if op.Kind == matrix.AggMean && m.rows*m.cols > 0 {
			acc /= float64(m.rows * m.cols)
		}
	case matrix.AggMin, matrix.AggMax:
		bop := mxxOp(op.Kind)
		for _, g := range m.groups {
			acc = g.ComputeMxx(acc, bop, m.rows)
		}
	}
	out := matrix.NewBlock(1, 1, false)
	out.DenseValues()[0] = acc
	out.RecomputeNonZeros()
	return out
}

func (m *CompressedMatrix) aggregateRows(op matrix.AggregateOp, k int) *matrix.Block {
	c := make([]float64, m.rows)
	switch op.Kind {
	case matrix.AggSum, matrix.AggSumSq, matrix.AggMean:
		square := op.Kind == matrix.AggSumSq
		pool.RunStripes(m.rows, k, func(s pool.Stripe) {
			for _, g := range m.groups {
				g.ComputeRowSums(c, square, s.Start, s.End)
			}
		})
		if op.Kind == matrix.AggMean && m.cols > 0 {
			for r := range c {
				c[r] /= float64(m.cols)
			}
		}
	case matrix.AggMin, matrix.AggMax:
		bop := mxxOp(op.Kind)
		init := op.Kind.InitValue()
		for r := range c {
			c[r] = init
		}
		pool.RunStripes(m.rows, k, func(s pool.Stripe) {
			for _, g := range m.groups {
				g.ComputeRowMxx(c, bop, s.Start, s.End)
			}
		})
	}
	out := matrix.FromSlice(m.rows, 1, c)
	return out
}

func (m *CompressedMatrix) aggregateCols(op matrix.AggregateOp, k int) *matrix.Block {
	c := make([]float64, m.cols)
	switch op.Kind {
	case matrix.AggSum, matrix.AggSumSq, matrix.AggMean:
		square := op.Kind == matrix.AggSumSq
		if m.IsOverlapping() {
			// Overlapping groups share columns; keep a fixed sequential
			// order so their additions never collide.
			for _, g := range m.groups {
				g.ComputeColSums(c, m.rows, square)
			}
		} else {
			// Non-overlapping groups own disjoint columns, so group-parallel
			// writes never collide.
			pool.RunStripes(len(m.groups), k, func(s pool.Stripe) {
				for i := s.Start; i < s.End; i++ {
					m.groups[i].ComputeColSums(c, m.rows, square)
				}
			})
		}
		if op.Kind == matrix.AggMean && m.rows > 0 {
			for j := range c {
				c[j] /= float64(m.rows)
			}
		}
	case matrix.AggMin, matrix.AggMax:
		bop := mxxOp(op.Kind)
		init := op.Kind.InitValue()
		for j := range c {
			c[j] = init
		}
		pool.RunStripes(len(m.groups), k, func(s pool.Stripe) {
			for i := s.Start; i < s.End; i++ {
				m.groups[i].ComputeColMxx(c, bop, m.rows)
			}
		})
	}
	return matrix.FromSlice(1, m.cols, c)
}

func mxxOp(kind matrix.AggKind) matrix.BinaryOp {
	if kind == matrix.AggMin {
		return matrix.OpMin
	}
	return matrix.OpMax
}

// Sum returns the sum of all cells.
func (m *CompressedMatrix) Sum(k int) float64 {
	out, _ := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggSum, Dir: matrix.DirAll}, k)
	return out.Get(0, 0)
}

// SumSq returns the sum of squared cells.
func (m *CompressedMatrix) SumSq(k int) float64 {
	out, _ := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggSumSq, Dir: matrix.DirAll}, k)
	return out.Get(0, 0)
}

// Mean returns the arithmetic mean over all cells.
func (m *CompressedMatrix) Mean(k int) float64 {
	out, _ := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggMean, Dir: matrix.DirAll}, k)
	return out.Get(0, 0)
}

// Min returns the smallest cell.
func (m *CompressedMatrix) Min(k int) float64 {
	out, _ := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggMin, Dir: matrix.DirAll}, k)
	return out.Get(0, 0)
}

// Max returns the largest cell.
func (m *CompressedMatrix) Max(k int) float64 {
	out, _ := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggMax, Dir: matrix.DirAll}, k)
	return out.Get(0, 0)
}

// Prod returns the product of all cells; products delegate to the dense
// path.
func (m *CompressedMatrix) Prod(k int) float64 {
	out, _ := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggProduct, Dir: matrix.DirAll}, k)
	return out.Get(0, 0)
}
