// Package matrix provides the uncompressed matrix block used by the
// compression kernels: a dense or sparse two-dimensional array of float64
// values with the linear-algebra operations the compressed path delegates
// to. Dense blocks store elements in a flat row-major slice for cache
// friendliness; sparse blocks keep per-row sorted index/value pairs.
package matrix

import (
	"fmt"
	"math"
	"strings"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// NNZUnknown is the sentinel for an unknown non-zero count.
const NNZUnknown int64 = -1

// SparsityThreshold is the cell density below which a block is considered
// sparse when choosing a storage layout.
const SparsityThreshold = 0.4

// Block is a dense or sparse matrix of float64 values.
type Block struct {
	rows, cols int
	sparse     bool
	nnz        int64
	dense      []float64 // row-major, len rows*cols when !sparse
	rowData    []sparseRow
}

type sparseRow struct {
	idx  []int
	vals []float64
}

// NewBlock creates a rows×cols block with the given storage layout.
func NewBlock(rows, cols int, sparse bool) *Block {
	b := &Block{rows: rows, cols: cols, sparse: sparse, nnz: 0}
	if sparse {
		b.rowData = make([]sparseRow, rows)
	} else {
		b.dense = make([]float64, rows*cols)
	}
	return b
}

// FromSlice wraps a row-major value slice in a dense block. The slice is
// owned by the block afterwards.
func FromSlice(rows, cols int, data []float64) *Block {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("matrix: FromSlice length %d does not match %dx%d", len(data), rows, cols))
	}
	b := &Block{rows: rows, cols: cols, dense: data, nnz: NNZUnknown}
	b.RecomputeNonZeros()
	return b
}

// FromDense2D builds a dense block from a slice of rows.
func FromDense2D(data [][]float64) *Block {
	rows := len(data)
	cols := 0
	if rows > 0 {
		cols = len(data[0])
	}
	b := NewBlock(rows, cols, false)
	for r, row := range data {
		copy(b.dense[r*cols:(r+1)*cols], row)
	}
	b.RecomputeNonZeros()
	return b
}

// Rows returns the row count.
func (b *Block) Rows() int { return b.rows }

// Cols returns the column count.
func (b *Block) Cols() int { return b.cols }

// IsSparse reports whether the block uses sparse storage.
func (b *Block) IsSparse() bool { return b.sparse }

// NNZ returns the tracked non-zero count, or NNZUnknown.
func (b *Block) NNZ() int64 { return b.nnz }

// SetNNZ overrides the tracked non-zero count.
func (b *Block) SetNNZ(nnz int64) { b.nnz = nnz }

// IsEmpty reports whether the block holds no non-zero values.
func (b *Block) IsEmpty() bool {
	if b.rows == 0 || b.cols == 0 {
		return true
	}
	if b.nnz == NNZUnknown {
		b.RecomputeNonZeros()
	}
	return b.nnz == 0
}

// DenseValues returns the flat row-major value slice of a dense block.
func (b *Block) DenseValues() []float64 {
	if b.sparse {
		panic("matrix: DenseValues on sparse block")
	}
	return b.dense
}

// Get retrieves the value at (r, c). Indices must be in range.
func (b *Block) Get(r, c int) float64 {
	if b.sparse {
		sr := &b.rowData[r]
		for i, ci := range sr.idx {
			if ci == c {
				return sr.vals[i]
			}
			if ci > c {
				break
			}
		}
		return 0
	}
	return b.dense[r*b.cols+c]
}

// Set assigns the value at (r, c). Indices must be in range.
func (b *Block) Set(r, c int, v float64) {
	b.nnz = NNZUnknown
	if !b.sparse {
		b.dense[r*b.cols+c] = v
		return
	}
	sr := &b.rowData[r]
	pos := 0
	for pos < len(sr.idx) && sr.idx[pos] < c {
		pos++
	}
	if pos < len(sr.idx) && sr.idx[pos] == c {
		if v == 0 {
			sr.idx = append(sr.idx[:pos], sr.idx[pos+1:]...)
			sr.vals = append(sr.vals[:pos], sr.vals[pos+1:]...)
		} else {
			sr.vals[pos] = v
		}
		return
	}
	if v == 0 {
		return
	}
	sr.idx = append(sr.idx, 0)
	copy(sr.idx[pos+1:], sr.idx[pos:])
	sr.idx[pos] = c
	sr.vals = append(sr.vals, 0)
	copy(sr.vals[pos+1:], sr.vals[pos:])
	sr.vals[pos] = v
}

// AppendToRow appends (c, v) to row r. Columns must arrive in strictly
// increasing order per row; used by bulk sparse construction.
func (b *Block) AppendToRow(r, c int, v float64) {
	if !b.sparse {
		b.dense[r*b.cols+c] = v
		return
	}
	if v == 0 {
		return
	}
	sr := &b.rowData[r]
	sr.idx = append(sr.idx, c)
	sr.vals = append(sr.vals, v)
}

// RowNonZeros iterates the non-zero cells of row r in column order.
func (b *Block) RowNonZeros(r int, fn func(c int, v float64)) {
	if b.sparse {
		sr := &b.rowData[r]
		for i, c := range sr.idx {
			fn(c, sr.vals[i])
		}
		return
	}
	off := r * b.cols
	for c := 0; c < b.cols; c++ {
		if v := b.dense[off+c]; v != 0 {
			fn(c, v)
		}
	}
}

// RecomputeNonZeros recounts and returns the non-zero cells.
func (b *Block) RecomputeNonZeros() int64 {
	var nnz int64
	if b.sparse {
		for i := range b.rowData {
			nnz += int64(len(b.rowData[i].idx))
		}
	} else {
		for _, v := range b.dense {
			if v != 0 {
				nnz++
			}
		}
	}
	b.nnz = nnz
	return nnz
}

// Sparsity returns the fraction of non-zero cells.
func (b *Block) Sparsity() float64 {
	if b.rows == 0 || b.cols == 0 {
		return 0
	}
	if b.nnz == NNZUnknown {
		b.RecomputeNonZeros()
	}
	return float64(b.nnz) / float64(int64(b.rows)*int64(b.cols))
}

// ToDense converts the block to dense storage in place.
func (b *Block) ToDense() *Block {
	if !b.sparse {
		return b
	}
	dense := make([]float64, b.rows*b.cols)
	for r := range b.rowData {
		sr := &b.rowData[r]
		off := r * b.cols
		for i, c := range sr.idx {
			dense[off+c] = sr.vals[i]
		}
	}
	b.dense = dense
	b.rowData = nil
	b.sparse = false
	return b
}

// ToSparse converts the block to sparse storage in place.
func (b *Block) ToSparse() *Block {
	if b.sparse {
		return b
	}
	rowData := make([]sparseRow, b.rows)
	for r := 0; r < b.rows; r++ {
		off := r * b.cols
		for c := 0; c < b.cols; c++ {
			if v := b.dense[off+c]; v != 0 {
				rowData[r].idx = append(rowData[r].idx, c)
				rowData[r].vals = append(rowData[r].vals, v)
			}
		}
	}
	b.rowData = rowData
	b.dense = nil
	b.sparse = true
	return b
}

// ExamSparsity switches the storage layout if the cell density crosses the
// sparsity threshold.
func (b *Block) ExamSparsity() {
	if b.rows == 0 || b.cols == 0 {
		return
	}
	if b.Sparsity() < SparsityThreshold {
		b.ToSparse()
	} else {
		b.ToDense()
	}
}

// Copy returns a deep copy.
func (b *Block) Copy() *Block {
	out := &Block{rows: b.rows, cols: b.cols, sparse: b.sparse, nnz: b.nnz}
	if b.sparse {
		out.rowData = make([]sparseRow, len(b.rowData))
		for i := range b.rowData {
			out.rowData[i].idx = append([]int(nil), b.rowData[i].idx...)
			out.rowData[i].vals = append([]float64(nil), b.rowData[i].vals...)
		}
	} else {
		out.dense = append([]float64(nil), b.dense...)
	}
	return out
}

// EqualsEps reports elementwise equality within tol; NaN cells match NaN.
func (b *Block) EqualsEps(other *Block, tol float64) bool {
	if other == nil || b.rows != other.rows || b.cols != other.cols {
		return false
	}
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			x, y := b.Get(r, c), other.Get(r, c)
			if math.IsNaN(x) && math.IsNaN(y) {
				continue
			}
			if math.Abs(x-y) > tol {
				return false
			}
		}
	}
	return true
}

// Slice extracts the half-open sub-block [rl, ru) × [cl, cu).
func (b *Block) Slice(rl, ru, cl, cu int) (*Block, error) {
	if rl < 0 || ru > b.rows || cl < 0 || cu > b.cols || rl >= ru || cl >= cu {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"invalid slice [%d:%d, %d:%d) of %dx%d block", rl, ru, cl, cu, b.rows, b.cols)
	}
	out := NewBlock(ru-rl, cu-cl, false)
	for r := rl; r < ru; r++ {
		b.RowNonZeros(r, func(c int, v float64) {
			if c >= cl && c < cu {
				out.dense[(r-rl)*out.cols+(c-cl)] = v
			}
		})
	}
	out.RecomputeNonZeros()
	return out, nil
}

// ContainsValue reports whether any cell equals pattern; NaN matches NaN.
// Zero patterns match implicit zeros of sparse storage.
func (b *Block) ContainsValue(pattern float64) bool {
	if pattern == 0 {
		if b.nnz == NNZUnknown {
			b.RecomputeNonZeros()
		}
		if b.nnz < int64(b.rows)*int64(b.cols) {
			return true
		}
	}
	found := false
	for r := 0; r < b.rows && !found; r++ {
		b.RowNonZeros(r, func(c int, v float64) {
			if v == pattern || (math.IsNaN(pattern) && math.IsNaN(v)) {
				found = true
			}
		})
	}
	return found
}

// CountNonZerosPerRow returns the non-zero count of each row in [rl, ru).
func (b *Block) CountNonZerosPerRow(rl, ru int) []int {
	out := make([]int, ru-rl)
	for r := rl; r < ru; r++ {
		n := 0
		b.RowNonZeros(r, func(int, float64) { n++ })
		out[r-rl] = n
	}
	return out
}

// String implements fmt.Stringer for debugging.
func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Block %dx%d sparse=%v nnz=%d", b.rows, b.cols, b.sparse, b.nnz)
	if b.rows*b.cols <= 64 {
		for r := 0; r < b.rows; r++ {
			sb.WriteString("\n")
			for c := 0; c < b.cols; c++ {
				fmt.Fprintf(&sb, "%8.3f ", b.Get(r, c))
			}
		}
	}
	return sb.String()
}
