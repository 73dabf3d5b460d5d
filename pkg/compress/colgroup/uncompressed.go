package colgroup

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// Uncompressed embeds a plain matrix block for the group's columns; used
// for incompressible column sets and the serialization dense fallback.
type Uncompressed struct {
	base
	data *matrix.Block // rows × len(colIndexes)
}

// NewUncompressed wraps a block whose columns correspond position-wise to
// colIndexes.
func NewUncompressed(colIndexes []int, data *matrix.Block) *Uncompressed {
	return &Uncompressed{base: base{colIndexes: colIndexes}, data: data}
}

// Type returns the encoding tag.
func (g *Uncompressed) Type() CompressionType { return TypeUncompressed }

// NumValues returns the embedded row count.
func (g *Uncompressed) NumValues() int { return g.data.Rows() }

// Data returns the embedded block.
func (g *Uncompressed) Data() *matrix.Block { return g.data }

// Get reads the cell at (r, c).
func (g *Uncompressed) Get(r, c int) float64 {
	j := g.colOffset(c)
	if j < 0 {
		return 0
	}
	return g.data.Get(r, j)
}

// DecompressToBlock adds the embedded rows [rl, ru) into the target.
func (g *Uncompressed) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {
	dense := target.DenseValues()
	stride := target.Cols()
	for r := rl; r < ru; r++ {
		off := (offT + r - rl) * stride
		g.data.RowNonZeros(r, func(j int, v float64) {
			dense[off+g.colIndexes[j]] += v
		})
	}
}

// ComputeSum adds the block total into c[0].
func (g *Uncompressed) ComputeSum(c []float64, nRows int, square bool) {
	if square {
		c[0] += g.data.SumSq()
	} else {
		c[0] += g.data.Sum()
	}
}

// ComputeRowSums adds per-row totals for [rl, ru) into c.
func (g *Uncompressed) ComputeRowSums(c []float64, square bool, rl, ru int) {
	for r := rl; r < ru; r++ {
		g.data.RowNonZeros(r, func(_ int, v float64) {
			if square {
				v *= v
			}
			c[r] += v
		})
	}
}

// ComputeColSums adds per-column totals at the group's columns.
func (g *Uncompressed) ComputeColSums(c []float64, nRows int, square bool) {
	for r := 0; r < g.data.Rows(); r++ {
		g.data.RowNonZeros(r, func(j int, v float64) {
			if square {
				v *= v
			}
			c[g.colIndexes[j]] += v
		})
	}
}

// ComputeMxx folds every cell into init.
func (g *Uncompressed) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
	acc := init
	for r := 0; r < g.data.Rows(); r++ {
		for j := 0; j < g.data.Cols(); j++ {
			acc = op.Apply(acc, g.data.Get(r, j))
		}
	}
	return acc
}

// ComputeColMxx folds per-column extrema at the group's columns.
func (g *Uncompressed) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
	for r := 0; r < g.data.Rows(); r++ {
		for j, col := range g.colIndexes {
			c[col] = op.Apply(c[col], g.data.Get(r, j))
		}
	}
}

// ComputeRowMxx folds per-row extrema over the group's columns.
func (g *Uncompressed) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	for r := rl; r < ru; r++ {
		for j := 0; j < g.data.Cols(); j++ {
			c[r] = op.Apply(c[r], g.data.Get(r, j))
		}
	}
}

// ComputeProduct multiplies the block product into c[0].
func (g *Uncompressed) ComputeProduct(c []float64, nRows int) {
	c[0] *= g.data.Prod()
}

// ComputeRowProduct multiplies per-row products into c.
func (g *Uncompressed) ComputeRowProduct(c []float64, rl, ru int) {
	for r := rl; r < ru; r++ {
		p := 1.0
		for j := 0; j < g.data.Cols(); j++ {
			p *= g.data.Get(r, j)
		}
		c[r] *= p
	}
}

// ComputeColProduct multiplies per-column products into c.
func (g *Uncompressed) ComputeColProduct(c []float64, nRows int) {
	for j, col := range g.colIndexes {
		p := 1.0
		for r := 0; r < g.data.Rows(); r++ {
			p *= g.data.Get(r, j)
		}
		c[col] *= p
	}
}

// ScalarOp applies op to the embedded block.
func (g *Uncompressed) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	return NewUncompressed(append([]int(nil), g.colIndexes...), g.data.ScalarApply(op))
}

// BinaryRowOp applies v through op to the embedded block.
func (g *Uncompressed) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	out := g.data.Copy().ToDense()
	dense := out.DenseValues()
	for r := 0; r < out.Rows(); r++ {
		off := r * out.Cols()
		for j, col := range g.colIndexes {
			x := dense[off+j]
			if left {
				dense[off+j] = op.Apply(v[col], x)
			} else {
				dense[off+j] = op.Apply(x, v[col])
			}
		}
	}
	out.RecomputeNonZeros()
	return NewUncompressed(append([]int(nil), g.colIndexes...), out)
}

// Replace substitutes pattern-valued cells in the embedded block.
func (g *Uncompressed) Replace(pattern, replacement float64, nRows int) ColGroup {
	return NewUncompressed(append([]int(nil), g.colIndexes...),
		g.data.ReplaceAll(pattern, replacement))
}

// RightMultByMatrix multiplies the embedded block by right's selected rows.
func (g *Uncompressed) RightMultByMatrix(right *matrix.Block) ColGroup {
	if right.IsEmpty() || g.data.IsEmpty() {
		return nil
	}
	out := matrix.NewBlock(g.data.Rows(), right.Cols(), false)
	dense := out.DenseValues()
	stride := out.Cols()
	for r := 0; r < g.data.Rows(); r++ {
		off := r * stride
		g.data.RowNonZeros(r, func(j int, v float64) {
			right.RowNonZeros(g.colIndexes[j], func(rc int, rv float64) {
				dense[off+rc] += v * rv
			})
		})
	}
	out.RecomputeNonZeros()
	if out.IsEmpty() {
		return nil
	}
	return NewUncompressed(seqIndexes(right.Cols()), out)
}

// LeftMultByMatrix accumulates left[rl:ru, :]·group into result.
func (g *Uncompressed) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {
	dense := result.DenseValues()
	stride := result.Cols()
	for i := rl; i < ru; i++ {
		off := i * stride
		left.RowNonZeros(i, func(r int, lv float64) {
			g.data.RowNonZeros(r, func(j int, v float64) {
				dense[off+g.colIndexes[j]] += lv * v
			})
		})
	}
}

// TSMM accumulates the embedded block's self-product upper triangle.
func (g *Uncompressed) TSMM(result []float64, nResCols, nRows int) {
	for r := 0; r < g.data.Rows(); r++ {
		var cells []int
		var vals []float64
		g.data.RowNonZeros(r, func(j int, v float64) {
			cells = append(cells, j)
			vals = append(vals, v)
		})
		for i, ci := range cells {
			offRet := g.colIndexes[ci] * nResCols
			v := vals[i]
			for j := i; j < len(cells); j++ {
				result[offRet+g.colIndexes[cells[j]]] += v * vals[j]
			}
		}
	}
}

// SliceColumns projects onto [cl, cu).
func (g *Uncompressed) SliceColumns(cl, cu int) ColGroup {
	positions, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	sliced, err := g.data.Slice(0, g.data.Rows(), positions[0], positions[len(positions)-1]+1)
	if err != nil {
		return nil
	}
	return NewUncompressed(outCols, sliced)
}

// ShiftColIndexes returns a shifted copy.
func (g *Uncompressed) ShiftColIndexes(offset int) ColGroup {
	return NewUncompressed(shifted(g.colIndexes, offset), g.data.Copy())
}

// ContainsValue reports whether the embedded block holds pattern.
func (g *Uncompressed) ContainsValue(pattern float64, nRows int) bool {
	return g.data.ContainsValue(pattern)
}

// NumberNonZeros returns the embedded block's non-zero count.
func (g *Uncompressed) NumberNonZeros(nRows int) int64 {
	return g.data.RecomputeNonZeros()
}

// CountNonZerosPerRow adds per-row non-zero counts.
func (g *Uncompressed) CountNonZerosPerRow(rnnz []int, rl, ru int) {
	counts := g.data.CountNonZerosPerRow(rl, ru)
	for i, n := range counts {
		rnnz[i] += n
	}
}

// Copy returns a deep copy.
func (g *Uncompressed) Copy() ColGroup {
	return NewUncompressed(append([]int(nil), g.colIndexes...), g.data.Copy())
}

// Write serializes the embedded block.
func (g *Uncompressed) Write(w io.Writer) error {
	return g.data.Write(w)
}

// DiskSize returns the serialized byte length.
func (g *Uncompressed) DiskSize() int64 {
	return groupHeaderDiskSize(g) + g.data.DiskSize()
}

// MemSize returns an upper bound on the in-memory footprint.
func (g *Uncompressed) MemSize() int64 {
	return 24 + int64(len(g.colIndexes))*8 +
		int64(g.data.Rows())*int64(g.data.Cols())*8
}

// String summarizes the group.
func (g *Uncompressed) String() string {
	return fmt.Sprintf("UNCOMPRESSED cols=%v rows=%d sparse=%v",
		g.colIndexes, g.data.Rows(), g.data.IsSparse())
}
