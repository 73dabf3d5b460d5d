package colgroup

import (
	"io"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// MatrixBlockDictionary stores the tuples as an embedded matrix block,
// keeping sparse tuple sets sparse. Produced by reading a block-kind
// dictionary and by the transforms of an existing block dictionary.
type MatrixBlockDictionary struct {
	mb *matrix.Block
}

// NewMatrixBlockDictionary wraps a (tuples × nCols) block.
func NewMatrixBlockDictionary(mb *matrix.Block) *MatrixBlockDictionary {
	return &MatrixBlockDictionary{mb: mb}
}

// Block returns the embedded block.
func (d *MatrixBlockDictionary) Block() *matrix.Block { return d.mb }

// flat materializes the tuples as a plain dictionary.
func (d *MatrixBlockDictionary) flat() *Dictionary {
	nCols := d.mb.Cols()
	out := make([]float64, d.mb.Rows()*nCols)
	for r := 0; r < d.mb.Rows(); r++ {
		d.mb.RowNonZeros(r, func(c int, v float64) {
			out[r*nCols+c] = v
		})
	}
	return NewDictionary(out)
}

// NumValues returns the number of tuples.
func (d *MatrixBlockDictionary) NumValues(nCols int) int { return d.mb.Rows() }

// Values returns the contiguous tuple values, materializing sparse blocks.
func (d *MatrixBlockDictionary) Values() []float64 {
	if d.mb.IsSparse() {
		return d.flat().Values()
	}
	return d.mb.DenseValues()
}

// GetValue reads the flat value at index i.
func (d *MatrixBlockDictionary) GetValue(i int) float64 {
	nCols := d.mb.Cols()
	return d.mb.Get(i/nCols, i%nCols)
}

// Aggregate folds every value into init using op.
func (d *MatrixBlockDictionary) Aggregate(init float64, op matrix.BinaryOp) float64 {
	return d.flat().Aggregate(init, op)
}

// AggregateCols folds per-column extrema into c at colIndexes.
func (d *MatrixBlockDictionary) AggregateCols(c []float64, op matrix.BinaryOp, colIndexes []int) {
	d.flat().AggregateCols(c, op, colIndexes)
}

// AggregateTuples reduces each tuple to a single value using op.
func (d *MatrixBlockDictionary) AggregateTuples(op matrix.BinaryOp, nCols int) []float64 {
	return d.flat().AggregateTuples(op, nCols)
}

// Sum returns the counts-weighted total of all tuples.
func (d *MatrixBlockDictionary) Sum(counts []int, nCols int) float64 {
	var total float64
	for k := 0; k < d.mb.Rows(); k++ {
		var t float64
		d.mb.RowNonZeros(k, func(_ int, v float64) { t += v })
		total += t * float64(counts[k])
	}
	return total
}

// SumSq returns the counts-weighted total of squared values.
func (d *MatrixBlockDictionary) SumSq(counts []int, nCols int) float64 {
	var total float64
	for k := 0; k < d.mb.Rows(); k++ {
		var t float64
		d.mb.RowNonZeros(k, func(_ int, v float64) { t += v * v })
		total += t * float64(counts[k])
	}
	return total
}

// ColSum adds counts-weighted per-column totals into c at colIndexes.
func (d *MatrixBlockDictionary) ColSum(c []float64, counts []int, colIndexes []int, square bool) {
	for k := 0; k < d.mb.Rows(); k++ {
		cnt := float64(counts[k])
		d.mb.RowNonZeros(k, func(j int, v float64) {
			if square {
				v *= v
			}
			c[colIndexes[j]] += v * cnt
		})
	}
}

// SumAllRowsToDouble returns each tuple's value sum (or square sum).
func (d *MatrixBlockDictionary) SumAllRowsToDouble(square bool, nCols int) []float64 {
	out := make([]float64, d.mb.Rows())
	for k := 0; k < d.mb.Rows(); k++ {
		var t float64
		d.mb.RowNonZeros(k, func(_ int, v float64) {
			if square {
				v *= v
			}
			t += v
		})
		out[k] = t
	}
	return out
}

// ProductAllRows returns each tuple's value product. Implicit zeros of a
// sparse block zero the product.
func (d *MatrixBlockDictionary) ProductAllRows(nCols int) []float64 {
	return d.flat().ProductAllRows(nCols)
}

// Apply returns a new dictionary with op applied to every value.
func (d *MatrixBlockDictionary) Apply(op matrix.ScalarOp) ADictionary {
	return NewMatrixBlockDictionary(d.mb.ScalarApply(op))
}

// ApplyBinaryRowOp returns a new dictionary with v applied through op.
func (d *MatrixBlockDictionary) ApplyBinaryRowOp(op matrix.BinaryOp, v []float64, colIndexes []int, left bool) ADictionary {
	return d.flat().ApplyBinaryRowOp(op, v, colIndexes, left)
}

// Replace returns a new dictionary with pattern-valued cells replaced.
// ReplaceAll densifies when implicit zeros match the pattern.
func (d *MatrixBlockDictionary) Replace(pattern, replacement float64, nCols int) ADictionary {
	return NewMatrixBlockDictionary(d.mb.ReplaceAll(pattern, replacement))
}

// SliceOutColumnRange projects each tuple onto columns [lo, hi).
func (d *MatrixBlockDictionary) SliceOutColumnRange(lo, hi, nCols int) ADictionary {
	sliced, err := d.mb.Slice(0, d.mb.Rows(), lo, hi)
	if err != nil {
		return d.flat().SliceOutColumnRange(lo, hi, nCols)
	}
	return NewMatrixBlockDictionary(sliced)
}

// ContainsValue reports whether any value equals pattern.
func (d *MatrixBlockDictionary) ContainsValue(pattern float64) bool {
	return d.mb.ContainsValue(pattern)
}

// NumberNonZeros returns the counts-weighted non-zero cell count.
func (d *MatrixBlockDictionary) NumberNonZeros(counts []int, nCols int) int64 {
	var nnz int64
	for k := 0; k < d.mb.Rows(); k++ {
		var t int64
		d.mb.RowNonZeros(k, func(int, float64) { t++ })
		nnz += t * int64(counts[k])
	}
	return nnz
}

// AsBlock exposes the tuples as a matrix view.
func (d *MatrixBlockDictionary) AsBlock(nCols int) *matrix.Block { return d.mb }

// IsLossy reports whether the stored tuples approximate the source
// values; block dictionaries are always exact.
func (d *MatrixBlockDictionary) IsLossy() bool { return false }

// Clone returns a deep copy.
func (d *MatrixBlockDictionary) Clone() ADictionary {
	return NewMatrixBlockDictionary(d.mb.Copy())
}

// MemSize returns an upper bound on the in-memory footprint.
func (d *MatrixBlockDictionary) MemSize() int64 {
	return 16 + int64(d.mb.Rows())*int64(d.mb.Cols())*8
}

// Write serializes the dictionary.
func (d *MatrixBlockDictionary) Write(w io.Writer) error {
	return writeDictionary(w, d)
}

// DiskSize returns the exact serialized byte length.
func (d *MatrixBlockDictionary) DiskSize() int64 {
	return dictionaryDiskSize(d)
}
