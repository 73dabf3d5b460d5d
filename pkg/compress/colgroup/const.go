package colgroup

import (
	"fmt"
	"io"
	"math"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// Const holds a single tuple shared by every row of the group.
type Const struct {
	base
	dict ADictionary
}

// NewConst creates a constant group; dict must contain exactly one tuple.
func NewConst(colIndexes []int, dict ADictionary) *Const {
	return &Const{base: base{colIndexes: colIndexes}, dict: dict}
}

// Type returns the encoding tag.
func (g *Const) Type() CompressionType { return TypeConst }

// NumValues returns the number of distinct tuples.
func (g *Const) NumValues() int { return 1 }

// Dictionary returns the single-tuple dictionary.
func (g *Const) Dictionary() ADictionary { return g.dict }

// Get reads the cell at (r, c).
func (g *Const) Get(r, c int) float64 {
	j := g.colOffset(c)
	if j < 0 {
		return 0
	}
	return g.dict.GetValue(j)
}

// DecompressToBlock adds the tuple into every row of [rl, ru).
func (g *Const) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {
	dense := target.DenseValues()
	stride := target.Cols()
	for r := rl; r < ru; r++ {
		off := (offT + r - rl) * stride
		for j, col := range g.colIndexes {
			dense[off+col] += g.dict.GetValue(j)
		}
	}
}

// ComputeSum adds the group total into c[0].
func (g *Const) ComputeSum(c []float64, nRows int, square bool) {
	if square {
		c[0] += g.dict.SumSq([]int{nRows}, len(g.colIndexes))
	} else {
		c[0] += g.dict.Sum([]int{nRows}, len(g.colIndexes))
	}
}

// ComputeRowSums adds the tuple total into every row of [rl, ru).
func (g *Const) ComputeRowSums(c []float64, square bool, rl, ru int) {
	v := g.dict.SumAllRowsToDouble(square, len(g.colIndexes))[0]
	for r := rl; r < ru; r++ {
		c[r] += v
	}
}

// ComputeColSums adds per-column totals at the group's columns.
func (g *Const) ComputeColSums(c []float64, nRows int, square bool) {
	g.dict.ColSum(c, []int{nRows}, g.colIndexes, square)
}

// ComputeMxx folds every cell into init.
func (g *Const) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
	if nRows == 0 {
		return init
	}
	return g.dict.Aggregate(init, op)
}

// ComputeColMxx folds the tuple into the covered columns.
func (g *Const) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
	if nRows == 0 {
		return
	}
	g.dict.AggregateCols(c, op, g.colIndexes)
}

// ComputeRowMxx folds the tuple extremum into every row of [rl, ru).
func (g *Const) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	v := g.dict.AggregateTuples(op, len(g.colIndexes))[0]
	for r := rl; r < ru; r++ {
		c[r] = op.Apply(c[r], v)
	}
}

// ComputeProduct multiplies the group product into c[0].
func (g *Const) ComputeProduct(c []float64, nRows int) {
	for j := range g.colIndexes {
		v := g.dict.GetValue(j)
		if v == 0 {
			c[0] = 0
		} else {
			c[0] *= math.Pow(v, float64(nRows))
		}
	}
}

// ComputeRowProduct multiplies the tuple product into each row.
func (g *Const) ComputeRowProduct(c []float64, rl, ru int) {
	p := g.dict.ProductAllRows(len(g.colIndexes))[0]
	for r := rl; r < ru; r++ {
		c[r] *= p
	}
}

// ComputeColProduct multiplies per-column products into c.
func (g *Const) ComputeColProduct(c []float64, nRows int) {
	for j, col := range g.colIndexes {
		v := g.dict.GetValue(j)
		if v == 0 {
			c[col] = 0
		} else {
			c[col] *= math.Pow(v, float64(nRows))
		}
	}
}

// ScalarOp applies op to the tuple.
func (g *Const) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	return NewConst(append([]int(nil), g.colIndexes...), g.dict.Apply(op))
}

// BinaryRowOp applies v through op to the tuple.
func (g *Const) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	return NewConst(append([]int(nil), g.colIndexes...),
		g.dict.ApplyBinaryRowOp(op, v, g.colIndexes, left))
}

// Replace substitutes pattern-valued cells in the tuple.
func (g *Const) Replace(pattern, replacement float64, nRows int) ColGroup {
	return NewConst(append([]int(nil), g.colIndexes...),
		g.dict.Replace(pattern, replacement, len(g.colIndexes)))
}

// RightMultByMatrix contracts the tuple with right's selected rows.
func (g *Const) RightMultByMatrix(right *matrix.Block) ColGroup {
	if right.IsEmpty() {
		return nil
	}
	tuple := make([]float64, len(g.colIndexes))
	for j := range g.colIndexes {
		tuple[j] = g.dict.GetValue(j)
	}
	prod := rightMultTuple(tuple, g.colIndexes, right)
	if allZero(prod) {
		return nil
	}
	return NewConst(seqIndexes(right.Cols()), NewDictionary(prod))
}

// LeftMultByMatrix accumulates left[rl:ru, :]·group into result.
func (g *Const) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {
	dense := result.DenseValues()
	stride := result.Cols()
	for i := rl; i < ru; i++ {
		var weight float64
		left.RowNonZeros(i, func(_ int, v float64) { weight += v })
		if weight == 0 {
			continue
		}
		off := i * stride
		for j, col := range g.colIndexes {
			dense[off+col] += weight * g.dict.GetValue(j)
		}
	}
}

// TSMM accumulates the counts-weighted tuple self-product.
func (g *Const) TSMM(result []float64, nResCols, nRows int) {
	tsmmDict(result, nResCols, g.dict, []int{nRows}, g.colIndexes)
}

// SliceColumns projects onto [cl, cu).
func (g *Const) SliceColumns(cl, cu int) ColGroup {
	positions, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	d := g.dict.SliceOutColumnRange(positions[0], positions[len(positions)-1]+1, len(g.colIndexes))
	return NewConst(outCols, d)
}

// ShiftColIndexes returns a shifted copy.
func (g *Const) ShiftColIndexes(offset int) ColGroup {
	return NewConst(shifted(g.colIndexes, offset), g.dict.Clone())
}

// ContainsValue reports whether the tuple holds pattern.
func (g *Const) ContainsValue(pattern float64, nRows int) bool {
	return nRows > 0 && g.dict.ContainsValue(pattern)
}

// NumberNonZeros returns the non-zero cell count.
func (g *Const) NumberNonZeros(nRows int) int64 {
	return g.dict.NumberNonZeros([]int{nRows}, len(g.colIndexes))
}

// CountNonZerosPerRow adds the tuple's non-zero width to every row.
func (g *Const) CountNonZerosPerRow(rnnz []int, rl, ru int) {
	nnz := 0
	for j := range g.colIndexes {
		if g.dict.GetValue(j) != 0 {
			nnz++
		}
	}
	for i := 0; i < ru-rl; i++ {
		rnnz[i] += nnz
	}
}

// Copy returns a deep copy.
func (g *Const) Copy() ColGroup {
	return NewConst(append([]int(nil), g.colIndexes...), g.dict.Clone())
}

// Write serializes the dictionary body.
func (g *Const) Write(w io.Writer) error {
	return writeDictionary(w, g.dict)
}

// DiskSize returns the serialized byte length.
func (g *Const) DiskSize() int64 {
	return groupHeaderDiskSize(g) + dictionaryDiskSize(g.dict)
}

// MemSize returns an upper bound on the in-memory footprint.
func (g *Const) MemSize() int64 {
	return 24 + int64(len(g.colIndexes))*8 + g.dict.MemSize()
}

// String summarizes the group.
func (g *Const) String() string {
	return fmt.Sprintf("CONST cols=%v values=%v", g.colIndexes, g.dict.Values())
}
