package matrix

import (
	"math"
)

// AggKind identifies an aggregate function.
type AggKind uint8

const (
	// AggSum is the plain sum
	AggSum AggKind = iota
	// AggSumSq is the sum of squares
	AggSumSq
	// AggMean is the arithmetic mean
	AggMean
	// AggMin is the minimum
	AggMin
	// AggMax is the maximum
	AggMax
	// AggProduct is the product
	AggProduct
)

// AggDir identifies the reduction direction.
type AggDir uint8

const (
	// DirAll reduces the whole matrix to a 1×1 block
	DirAll AggDir = iota
	// DirRow reduces each row, producing a rows×1 block
	DirRow
	// DirCol reduces each column, producing a 1×cols block
	DirCol
)

// AggregateOp pairs an aggregate function with a direction.
type AggregateOp struct {
	Kind AggKind
	Dir  AggDir
}

var aggKindNames = map[AggKind]string{
	AggSum: "sum", AggSumSq: "sumsq", AggMean: "mean",
	AggMin: "min", AggMax: "max", AggProduct: "product",
}

// String returns the aggregate name.
func (k AggKind) String() string {
	if s, ok := aggKindNames[k]; ok {
		return s
	}
	return "?"
}

// InitValue returns the reduction's identity element.
func (k AggKind) InitValue() float64 {
	switch k {
	case AggMin:
		return math.Inf(1)
	case AggMax:
		return math.Inf(-1)
	case AggProduct:
		return 1
	default:
		return 0
	}
}

// Fold merges a cell into an accumulator.
func (k AggKind) Fold(acc, v float64) float64 {
	switch k {
	case AggSum, AggMean:
		return acc + v
	case AggSumSq:
		return acc + v*v
	case AggMin:
		return math.Min(acc, v)
	case AggMax:
		return math.Max(acc, v)
	case AggProduct:
		return acc * v
	default:
		return acc
	}
}

// AggregateUnary reduces the block according to op. The result is 1×1 for
// DirAll, rows×1 for DirRow and 1×cols for DirCol.
func (b *Block) AggregateUnary(op AggregateOp) *Block {
	kind := op.Kind
	switch op.Dir {
	case DirRow:
		out := NewBlock(b.rows, 1, false)
		for r := 0; r < b.rows; r++ {
			acc := kind.InitValue()
			for c := 0; c < b.cols; c++ {
				acc = kind.Fold(acc, b.Get(r, c))
			}
			if kind == AggMean && b.cols > 0 {
				acc /= float64(b.cols)
			}
			out.dense[r] = acc
		}
		out.RecomputeNonZeros()
		return out
	case DirCol:
		out := NewBlock(1, b.cols, false)
		for c := 0; c < b.cols; c++ {
			out.dense[c] = kind.InitValue()
		}
		for r := 0; r < b.rows; r++ {
			for c := 0; c < b.cols; c++ {
				out.dense[c] = kind.Fold(out.dense[c], b.Get(r, c))
			}
		}
		if kind == AggMean && b.rows > 0 {
			for c := 0; c < b.cols; c++ {
				out.dense[c] /= float64(b.rows)
			}
		}
		out.RecomputeNonZeros()
		return out
	default:
		acc := kind.InitValue()
		for r := 0; r < b.rows; r++ {
			for c := 0; c < b.cols; c++ {
				acc = kind.Fold(acc, b.Get(r, c))
			}
		}
		if kind == AggMean && b.rows*b.cols > 0 {
			acc /= float64(b.rows * b.cols)
		}
		out := NewBlock(1, 1, false)
		out.dense[0] = acc
		out.RecomputeNonZeros()
		return out
	}
}

// Sum returns the sum of all cells.
func (b *Block) Sum() float64 {
	return b.AggregateUnary(AggregateOp{Kind: AggSum, Dir: DirAll}).Get(0, 0)
}

// SumSq returns the sum of squared cells.
func (b *Block) SumSq() float64 {
	return b.AggregateUnary(AggregateOp{Kind: AggSumSq, Dir: DirAll}).Get(0, 0)
}

// Mean returns the arithmetic mean over all cells.
func (b *Block) Mean() float64 {
	return b.AggregateUnary(AggregateOp{Kind: AggMean, Dir: DirAll}).Get(0, 0)
}

// Min returns the smallest cell.
func (b *Block) Min() float64 {
	return b.AggregateUnary(AggregateOp{Kind: AggMin, Dir: DirAll}).Get(0, 0)
}

// Max returns the largest cell.
func (b *Block) Max() float64 {
	return b.AggregateUnary(AggregateOp{Kind: AggMax, Dir: DirAll}).Get(0, 0)
}

// Prod returns the product of all cells.
func (b *Block) Prod() float64 {
	return b.AggregateUnary(AggregateOp{Kind: AggProduct, Dir: DirAll}).Get(0, 0)
}
