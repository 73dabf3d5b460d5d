package colgroup

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// Empty is the all-zero column group.
type Empty struct {
	base
}

// NewEmpty creates an empty group over the given columns.
func NewEmpty(colIndexes []int) *Empty {
	return &Empty{base: base{colIndexes: colIndexes}}
}

// Type returns the encoding tag.
func (g *Empty) Type() CompressionType { return TypeEmpty }

// NumValues returns the number of distinct tuples.
func (g *Empty) NumValues() int { return 0 }

// Get reads the cell at (r, c).
func (g *Empty) Get(r, c int) float64 { return 0 }

// DecompressToBlock adds nothing.
func (g *Empty) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {}

// ComputeSum adds nothing.
func (g *Empty) ComputeSum(c []float64, nRows int, square bool) {}

// ComputeRowSums adds nothing.
func (g *Empty) ComputeRowSums(c []float64, square bool, rl, ru int) {}

// ComputeColSums adds nothing.
func (g *Empty) ComputeColSums(c []float64, nRows int, square bool) {}

// ComputeMxx folds the implicit zero cells.
func (g *Empty) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
	if nRows == 0 {
		return init
	}
	return op.Apply(init, 0)
}

// ComputeColMxx folds zero into every covered column.
func (g *Empty) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
	if nRows == 0 {
		return
	}
	for _, col := range g.colIndexes {
		c[col] = op.Apply(c[col], 0)
	}
}

// ComputeRowMxx folds zero into every row of the range.
func (g *Empty) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	for r := rl; r < ru; r++ {
		c[r] = op.Apply(c[r], 0)
	}
}

// ComputeProduct zeroes the accumulator.
func (g *Empty) ComputeProduct(c []float64, nRows int) {
	if nRows > 0 {
		c[0] = 0
	}
}

// ComputeRowProduct zeroes every row of the range.
func (g *Empty) ComputeRowProduct(c []float64, rl, ru int) {
	for r := rl; r < ru; r++ {
		c[r] = 0
	}
}

// ComputeColProduct zeroes every covered column.
func (g *Empty) ComputeColProduct(c []float64, nRows int) {
	if nRows == 0 {
		return
	}
	for _, col := range g.colIndexes {
		c[col] = 0
	}
}

// ScalarOp applies op to the implicit zero tuple, producing a constant
// group when the result is non-zero.
func (g *Empty) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	v := op.Fn(0)
	if v == 0 {
		return g.Copy()
	}
	tuple := make([]float64, len(g.colIndexes))
	for i := range tuple {
		tuple[i] = v
	}
	return NewConst(append([]int(nil), g.colIndexes...), NewDictionary(tuple))
}

// BinaryRowOp applies v through op to the implicit zero tuple.
func (g *Empty) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	tuple := make([]float64, len(g.colIndexes))
	for i, col := range g.colIndexes {
		if left {
			tuple[i] = op.Apply(v[col], 0)
		} else {
			tuple[i] = op.Apply(0, v[col])
		}
	}
	if allZero(tuple) {
		return g.Copy()
	}
	return NewConst(append([]int(nil), g.colIndexes...), NewDictionary(tuple))
}

// Replace substitutes zero cells when the pattern is zero.
func (g *Empty) Replace(pattern, replacement float64, nRows int) ColGroup {
	if pattern != 0 || replacement == 0 {
		return g.Copy()
	}
	tuple := make([]float64, len(g.colIndexes))
	for i := range tuple {
		tuple[i] = replacement
	}
	return NewConst(append([]int(nil), g.colIndexes...), NewDictionary(tuple))
}

// RightMultByMatrix of an all-zero group is empty.
func (g *Empty) RightMultByMatrix(right *matrix.Block) ColGroup { return nil }

// LeftMultByMatrix accumulates nothing.
func (g *Empty) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {}

// TSMM accumulates nothing.
func (g *Empty) TSMM(result []float64, nResCols, nRows int) {}

// SliceColumns projects onto [cl, cu).
func (g *Empty) SliceColumns(cl, cu int) ColGroup {
	_, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	return NewEmpty(outCols)
}

// ShiftColIndexes returns a shifted copy.
func (g *Empty) ShiftColIndexes(offset int) ColGroup {
	return NewEmpty(shifted(g.colIndexes, offset))
}

// ContainsValue matches only a zero pattern.
func (g *Empty) ContainsValue(pattern float64, nRows int) bool {
	return pattern == 0 && nRows > 0
}

// NumberNonZeros is zero.
func (g *Empty) NumberNonZeros(nRows int) int64 { return 0 }

// CountNonZerosPerRow adds nothing.
func (g *Empty) CountNonZerosPerRow(rnnz []int, rl, ru int) {}

// Copy returns a deep copy.
func (g *Empty) Copy() ColGroup {
	return NewEmpty(append([]int(nil), g.colIndexes...))
}

// Write serializes the (empty) body.
func (g *Empty) Write(w io.Writer) error { return nil }

// DiskSize returns the serialized byte length.
func (g *Empty) DiskSize() int64 { return groupHeaderDiskSize(g) }

// MemSize returns an upper bound on the in-memory footprint.
func (g *Empty) MemSize() int64 { return 24 + int64(len(g.colIndexes))*8 }

// String summarizes the group.
func (g *Empty) String() string {
	return fmt.Sprintf("EMPTY cols=%v", g.colIndexes)
}
