package colgroup

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// DDC is the dense dictionary-coded group: every row carries a value index
// into the dictionary.
type DDC struct {
	base
	valueBase
	codes []uint32
}

// NewDDC creates a dense dictionary-coded group. Counts are derived from
// the per-row codes.
func NewDDC(colIndexes []int, dict ADictionary, codes []uint32) *DDC {
	counts := make([]int, dict.NumValues(len(colIndexes)))
	for _, k := range codes {
		counts[k]++
	}
	return &DDC{
		base:      base{colIndexes: colIndexes},
		valueBase: valueBase{dict: dict, counts: counts},
		codes:     codes,
	}
}

// Type returns the encoding tag.
func (g *DDC) Type() CompressionType { return TypeDDC }

// NumValues returns the number of distinct tuples.
func (g *DDC) NumValues() int { return g.dict.NumValues(len(g.colIndexes)) }

// Counts returns the per-value row counts.
func (g *DDC) Counts() []int { return g.counts }

// Dictionary returns the group's dictionary.
func (g *DDC) Dictionary() ADictionary { return g.dict }

// Get reads the cell at (r, c).
func (g *DDC) Get(r, c int) float64 {
	j := g.colOffset(c)
	if j < 0 {
		return 0
	}
	return g.dict.GetValue(int(g.codes[r])*len(g.colIndexes) + j)
}

// DecompressToBlock adds each row's tuple into the target.
func (g *DDC) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {
	dense := target.DenseValues()
	stride := target.Cols()
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	for r := rl; r < ru; r++ {
		off := (offT + r - rl) * stride
		vOff := int(g.codes[r]) * nCols
		for j, col := range g.colIndexes {
			dense[off+col] += values[vOff+j]
		}
	}
}

// ComputeSum adds the counts-weighted dictionary total into c[0].
func (g *DDC) ComputeSum(c []float64, nRows int, square bool) {
	if square {
		c[0] += g.dict.SumSq(g.counts, len(g.colIndexes))
	} else {
		c[0] += g.dict.Sum(g.counts, len(g.colIndexes))
	}
}

// ComputeRowSums adds each row's tuple total into c.
func (g *DDC) ComputeRowSums(c []float64, square bool, rl, ru int) {
	rowAgg := g.dict.SumAllRowsToDouble(square, len(g.colIndexes))
	for r := rl; r < ru; r++ {
		c[r] += rowAgg[g.codes[r]]
	}
}

// ComputeColSums adds counts-weighted per-column totals into c.
func (g *DDC) ComputeColSums(c []float64, nRows int, square bool) {
	g.dict.ColSum(c, g.counts, g.colIndexes, square)
}

// ComputeMxx folds every dictionary value into init.
func (g *DDC) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
	if nRows == 0 {
		return init
	}
	return g.dict.Aggregate(init, op)
}

// ComputeColMxx folds per-column extrema into c.
func (g *DDC) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
	if nRows == 0 {
		return
	}
	g.dict.AggregateCols(c, op, g.colIndexes)
}

// ComputeRowMxx folds each row's tuple extremum into c.
func (g *DDC) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	tupleAgg := g.dict.AggregateTuples(op, len(g.colIndexes))
	for r := rl; r < ru; r++ {
		c[r] = op.Apply(c[r], tupleAgg[g.codes[r]])
	}
}

// ComputeProduct multiplies the counts-weighted product into c[0].
func (g *DDC) ComputeProduct(c []float64, nRows int) {
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	for k, p := range tupleProd {
		c[0] = powProduct(c[0], p, g.counts[k])
	}
}

// ComputeRowProduct multiplies each row's tuple product into c.
func (g *DDC) ComputeRowProduct(c []float64, rl, ru int) {
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	for r := rl; r < ru; r++ {
		c[r] *= tupleProd[g.codes[r]]
	}
}

// ComputeColProduct multiplies counts-weighted per-column products into c.
func (g *DDC) ComputeColProduct(c []float64, nRows int) {
	nCols := len(g.colIndexes)
	for j, col := range g.colIndexes {
		for k := range g.counts {
			c[col] = powProduct(c[col], g.dict.GetValue(k*nCols+j), g.counts[k])
		}
	}
}

// ScalarOp applies op to the dictionary; the row assignment is unchanged.
func (g *DDC) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	return NewDDC(append([]int(nil), g.colIndexes...), g.dict.Apply(op),
		append([]uint32(nil), g.codes...))
}

// BinaryRowOp applies v through op to the dictionary.
func (g *DDC) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	return NewDDC(append([]int(nil), g.colIndexes...),
		g.dict.ApplyBinaryRowOp(op, v, g.colIndexes, left),
		append([]uint32(nil), g.codes...))
}

// Replace substitutes pattern-valued cells in the dictionary.
func (g *DDC) Replace(pattern, replacement float64, nRows int) ColGroup {
	return NewDDC(append([]int(nil), g.colIndexes...),
		g.dict.Replace(pattern, replacement, len(g.colIndexes)),
		append([]uint32(nil), g.codes...))
}

// RightMultByMatrix contracts the dictionary with right's selected rows.
func (g *DDC) RightMultByMatrix(right *matrix.Block) ColGroup {
	if right.IsEmpty() {
		return nil
	}
	d := rightMultDict(g.dict, g.colIndexes, right)
	if d == nil {
		return nil
	}
	return NewDDC(seqIndexes(right.Cols()), d, append([]uint32(nil), g.codes...))
}

// LeftMultByMatrix pre-aggregates left's rows by value index and then
// multiplies by the dictionary once.
func (g *DDC) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	dense := result.DenseValues()
	stride := result.Cols()
	preAgg := make([]float64, len(g.counts))
	for i := rl; i < ru; i++ {
		for k := range preAgg {
			preAgg[k] = 0
		}
		left.RowNonZeros(i, func(r int, lv float64) {
			preAgg[g.codes[r]] += lv
		})
		off := i * stride
		for k, w := range preAgg {
			if w == 0 {
				continue
			}
			vOff := k * nCols
			for j, col := range g.colIndexes {
				dense[off+col] += w * values[vOff+j]
			}
		}
	}
}

// TSMM accumulates the counts-weighted dictionary self-product.
func (g *DDC) TSMM(result []float64, nResCols, nRows int) {
	tsmmDict(result, nResCols, g.dict, g.counts, g.colIndexes)
}

// SliceColumns projects onto [cl, cu).
func (g *DDC) SliceColumns(cl, cu int) ColGroup {
	positions, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	d := g.dict.SliceOutColumnRange(positions[0], positions[len(positions)-1]+1, len(g.colIndexes))
	return NewDDC(outCols, d, append([]uint32(nil), g.codes...))
}

// ShiftColIndexes returns a shifted copy.
func (g *DDC) ShiftColIndexes(offset int) ColGroup {
	return NewDDC(shifted(g.colIndexes, offset), g.dict.Clone(),
		append([]uint32(nil), g.codes...))
}

// ContainsValue reports whether the dictionary holds pattern.
func (g *DDC) ContainsValue(pattern float64, nRows int) bool {
	return nRows > 0 && g.dict.ContainsValue(pattern)
}

// NumberNonZeros returns the counts-weighted non-zero count.
func (g *DDC) NumberNonZeros(nRows int) int64 {
	return g.dict.NumberNonZeros(g.counts, len(g.colIndexes))
}

// CountNonZerosPerRow adds each row's tuple non-zero width into rnnz.
func (g *DDC) CountNonZerosPerRow(rnnz []int, rl, ru int) {
	nCols := len(g.colIndexes)
	tupleNNZ := make([]int, len(g.counts))
	for k := range g.counts {
		for j := 0; j < nCols; j++ {
			if g.dict.GetValue(k*nCols+j) != 0 {
				tupleNNZ[k]++
			}
		}
	}
	for r := rl; r < ru; r++ {
		rnnz[r-rl] += tupleNNZ[g.codes[r]]
	}
}

// Copy returns a deep copy.
func (g *DDC) Copy() ColGroup {
	return NewDDC(append([]int(nil), g.colIndexes...), g.dict.Clone(),
		append([]uint32(nil), g.codes...))
}

// Write serializes the dictionary and the per-row codes.
func (g *DDC) Write(w io.Writer) error {
	if err := writeDictionary(w, g.dict); err != nil {
		return err
	}
	return writeUint32s(w, g.codes)
}

// DiskSize returns the serialized byte length.
func (g *DDC) DiskSize() int64 {
	return groupHeaderDiskSize(g) + dictionaryDiskSize(g.dict) + 4 + int64(len(g.codes))*4
}

// MemSize returns an upper bound on the in-memory footprint.
func (g *DDC) MemSize() int64 {
	return 24 + int64(len(g.colIndexes))*8 + g.dict.MemSize() +
		int64(len(g.codes))*4 + int64(len(g.counts))*8
}

// String summarizes the group.
func (g *DDC) String() string {
	return fmt.Sprintf("DDC cols=%v values=%d rows=%d", g.colIndexes, g.NumValues(), len(g.codes))
}
