package colgroup

import (
	"io"
	"math"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// ADictionary stores the distinct value tuples a column group references,
// laid out as contiguous tuples of the group width. Implementations are
// immutable; transforming operations return new dictionaries.
type ADictionary interface {
	// NumValues returns the number of tuples for the given group width.
	NumValues(nCols int) int
	// Values returns the contiguous tuple values (tuples × nCols).
	Values() []float64
	// GetValue reads the flat value at index i (tuple*nCols + col).
	GetValue(i int) float64

	// Aggregate folds every value into init using op.
	Aggregate(init float64, op matrix.BinaryOp) float64
	// AggregateCols folds per-column extrema into c at colIndexes.
	AggregateCols(c []float64, op matrix.BinaryOp, colIndexes []int)
	// AggregateTuples reduces each tuple to a single value using op.
	AggregateTuples(op matrix.BinaryOp, nCols int) []float64

	// Sum returns the counts-weighted total of all tuples.
	Sum(counts []int, nCols int) float64
	// SumSq returns the counts-weighted total of squared values.
	SumSq(counts []int, nCols int) float64
	// ColSum adds counts-weighted per-column totals into c at colIndexes.
	ColSum(c []float64, counts []int, colIndexes []int, square bool)
	// SumAllRowsToDouble returns each tuple's value sum (or square sum).
	SumAllRowsToDouble(square bool, nCols int) []float64
	// ProductAllRows returns each tuple's value product.
	ProductAllRows(nCols int) []float64

	// Apply returns a new dictionary with op applied to every value.
	Apply(op matrix.ScalarOp) ADictionary
	// ApplyBinaryRowOp returns a new dictionary with the full-width row
	// vector v applied through op at the group's columns. With left set,
	// v supplies the left operand.
	ApplyBinaryRowOp(op matrix.BinaryOp, v []float64, colIndexes []int, left bool) ADictionary
	// Replace returns a new dictionary with pattern-valued cells replaced;
	// NaN patterns match NaN.
	Replace(pattern, replacement float64, nCols int) ADictionary
	// SliceOutColumnRange projects each tuple onto columns [lo, hi).
	SliceOutColumnRange(lo, hi, nCols int) ADictionary

	// ContainsValue reports whether any value equals pattern.
	ContainsValue(pattern float64) bool
	// NumberNonZeros returns the counts-weighted non-zero cell count.
	NumberNonZeros(counts []int, nCols int) int64

	// AsBlock exposes the tuples as a (tuples × nCols) matrix view.
	AsBlock(nCols int) *matrix.Block
	// IsLossy reports whether the stored tuples approximate the source
	// values.
	IsLossy() bool

	// Clone returns a deep copy.
	Clone() ADictionary
	// Write serializes the dictionary.
	Write(w io.Writer) error
	// DiskSize returns the exact serialized byte length.
	DiskSize() int64
	// MemSize returns an upper bound on the in-memory footprint.
	MemSize() int64
}

var (
	_ ADictionary = (*Dictionary)(nil)
	_ ADictionary = (*MatrixBlockDictionary)(nil)
)

// Dictionary is the plain flat-array dictionary.
type Dictionary struct {
	values []float64
}

// NewDictionary wraps a flat tuple-major value slice.
func NewDictionary(values []float64) *Dictionary {
	return &Dictionary{values: values}
}

// NumValues returns the number of tuples for the given group width.
func (d *Dictionary) NumValues(nCols int) int {
	if nCols == 0 {
		return 0
	}
	return len(d.values) / nCols
}

// Values returns the backing value slice.
func (d *Dictionary) Values() []float64 { return d.values }

// GetValue reads the flat value at index i.
func (d *Dictionary) GetValue(i int) float64 { return d.values[i] }

// Aggregate folds every value into init using op.
func (d *Dictionary) Aggregate(init float64, op matrix.BinaryOp) float64 {
	acc := init
	for _, v := range d.values {
		acc = op.Apply(acc, v)
	}
	return acc
}

// AggregateCols folds per-column extrema into c at colIndexes.
func (d *Dictionary) AggregateCols(c []float64, op matrix.BinaryOp, colIndexes []int) {
	nCols := len(colIndexes)
	for k := 0; k < d.NumValues(nCols); k++ {
		for j, col := range colIndexes {
			c[col] = op.Apply(c[col], d.values[k*nCols+j])
		}
	}
}

// AggregateTuples reduces each tuple to a single value using op.
func (d *Dictionary) AggregateTuples(op matrix.BinaryOp, nCols int) []float64 {
	n := d.NumValues(nCols)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		acc := d.values[k*nCols]
		for j := 1; j < nCols; j++ {
			acc = op.Apply(acc, d.values[k*nCols+j])
		}
		out[k] = acc
	}
	return out
}

// Sum returns the counts-weighted total of all tuples.
func (d *Dictionary) Sum(counts []int, nCols int) float64 {
	var total float64
	for k := 0; k < d.NumValues(nCols); k++ {
		var t float64
		for j := 0; j < nCols; j++ {
			t += d.values[k*nCols+j]
		}
		total += t * float64(counts[k])
	}
	return total
}

// SumSq returns the counts-weighted total of squared values.
func (d *Dictionary) SumSq(counts []int, nCols int) float64 {
	var total float64
	for k := 0; k < d.NumValues(nCols); k++ {
		var t float64
		for j := 0; j < nCols; j++ {
			v := d.values[k*nCols+j]
			t += v * v
		}
		total += t * float64(counts[k])
	}
	return total
}

// ColSum adds counts-weighted per-column totals into c at colIndexes.
func (d *Dictionary) ColSum(c []float64, counts []int, colIndexes []int, square bool) {
	nCols := len(colIndexes)
	for k := 0; k < d.NumValues(nCols); k++ {
		cnt := float64(counts[k])
		for j, col := range colIndexes {
			v := d.values[k*nCols+j]
			if square {
				v *= v
			}
			c[col] += v * cnt
		}
	}
}

// SumAllRowsToDouble returns each tuple's value sum (or square sum).
func (d *Dictionary) SumAllRowsToDouble(square bool, nCols int) []float64 {
	n := d.NumValues(nCols)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var t float64
		for j := 0; j < nCols; j++ {
			v := d.values[k*nCols+j]
			if square {
				v *= v
			}
			t += v
		}
		out[k] = t
	}
	return out
}

// ProductAllRows returns each tuple's value product.
func (d *Dictionary) ProductAllRows(nCols int) []float64 {
	n := d.NumValues(nCols)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		t := 1.0
		for j := 0; j < nCols; j++ {
			t *= d.values[k*nCols+j]
		}
		out[k] = t
	}
	return out
}

// Apply returns a new dictionary with op applied to every value.
func (d *Dictionary) Apply(op matrix.ScalarOp) ADictionary {
	out := make([]float64, len(d.values))
	for i, v := range d.values {
		out[i] = op.Fn(v)
	}
	return NewDictionary(out)
}

// ApplyBinaryRowOp returns a new dictionary with v applied through op.
func (d *Dictionary) ApplyBinaryRowOp(op matrix.BinaryOp, v []float64, colIndexes []int, left bool) ADictionary {
	nCols := len(colIndexes)
	out := make([]float64, len(d.values))
	for k := 0; k < d.NumValues(nCols); k++ {
		for j, col := range colIndexes {
			x := d.values[k*nCols+j]
			if left {
				out[k*nCols+j] = op.Apply(v[col], x)
			} else {
				out[k*nCols+j] = op.Apply(x, v[col])
			}
		}
	}
	return NewDictionary(out)
}

// Replace returns a new dictionary with pattern-valued cells replaced.
func (d *Dictionary) Replace(pattern, replacement float64, nCols int) ADictionary {
	nan := math.IsNaN(pattern)
	out := make([]float64, len(d.values))
	for i, v := range d.values {
		if v == pattern || (nan && math.IsNaN(v)) {
			out[i] = replacement
		} else {
			out[i] = v
		}
	}
	return NewDictionary(out)
}

// SliceOutColumnRange projects each tuple onto columns [lo, hi).
func (d *Dictionary) SliceOutColumnRange(lo, hi, nCols int) ADictionary {
	width := hi - lo
	n := d.NumValues(nCols)
	out := make([]float64, n*width)
	for k := 0; k < n; k++ {
		copy(out[k*width:(k+1)*width], d.values[k*nCols+lo:k*nCols+hi])
	}
	return NewDictionary(out)
}

// ContainsValue reports whether any value equals pattern.
func (d *Dictionary) ContainsValue(pattern float64) bool {
	nan := math.IsNaN(pattern)
	for _, v := range d.values {
		if v == pattern || (nan && math.IsNaN(v)) {
			return true
		}
	}
	return false
}

// NumberNonZeros returns the counts-weighted non-zero cell count.
func (d *Dictionary) NumberNonZeros(counts []int, nCols int) int64 {
	var nnz int64
	for k := 0; k < d.NumValues(nCols); k++ {
		var t int64
		for j := 0; j < nCols; j++ {
			if d.values[k*nCols+j] != 0 {
				t++
			}
		}
		nnz += t * int64(counts[k])
	}
	return nnz
}

// AsBlock exposes the tuples as a (tuples × nCols) matrix view backed by
// the dictionary's value slice.
func (d *Dictionary) AsBlock(nCols int) *matrix.Block {
	return matrix.FromSlice(d.NumValues(nCols), nCols, d.values)
}

// IsLossy reports whether the stored tuples approximate the source
// values; plain dictionaries are always exact.
func (d *Dictionary) IsLossy() bool { return false }

// Clone returns a deep copy.
func (d *Dictionary) Clone() ADictionary {
	return NewDictionary(append([]float64(nil), d.values...))
}

// MemSize returns an upper bound on the in-memory footprint.
func (d *Dictionary) MemSize() int64 {
	return 24 + int64(len(d.values))*8
}
