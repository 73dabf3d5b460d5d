// Package colgroup implements the column-group encodings of a compressed
// matrix and their kernels. A column group covers a subset of the matrix
// columns with one encoding scheme: a dictionary of distinct value tuples
// plus a per-row assignment structure. All kernels operate directly on the
// encoded form; decompression is additive so groups compose under both
// partitioned and overlapping column layouts.
package colgroup

import (
	"fmt"
	"io"
	"sort"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// CompressionType tags a column-group encoding.
type CompressionType uint8

const (
	// TypeEmpty is the all-zero group
	TypeEmpty CompressionType = iota
	// TypeUncompressed embeds a plain matrix block
	TypeUncompressed
	// TypeConst holds a single tuple shared by every row
	TypeConst
	// TypeDDC is dense dictionary coding: one value-index per row
	TypeDDC
	// TypeSDC is sparse dictionary coding: a default tuple plus exceptions
	TypeSDC
	// TypeOLE is offset-list encoding: per-value row offset sets
	TypeOLE
	// TypeRLE is run-length encoding: per-value row runs
	TypeRLE
)

var typeNames = map[CompressionType]string{
	TypeEmpty: "EMPTY", TypeUncompressed: "UNCOMPRESSED", TypeConst: "CONST",
	TypeDDC: "DDC", TypeSDC: "SDC", TypeOLE: "OLE", TypeRLE: "RLE",
}

// String returns the encoding name.
func (t CompressionType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// ColGroup is one encoding of a column subset. Implementations are
// immutable after construction; transforming operations return new groups.
type ColGroup interface {
	// Type returns the encoding tag.
	Type() CompressionType
	// ColIndexes returns the covered column indexes, strictly increasing.
	ColIndexes() []int
	// NumCols returns the number of covered columns.
	NumCols() int
	// NumValues returns the number of distinct tuples the group references.
	NumValues() int

	// Get reads the cell at absolute position (r, c). Columns outside the
	// group read as zero.
	Get(r, c int) float64
	// DecompressToBlock adds the group's contribution for rows [rl, ru)
	// into the dense target, starting at target row offT.
	DecompressToBlock(target *matrix.Block, rl, ru, offT int)

	// ComputeSum adds the group total (or total of squares) into c[0].
	ComputeSum(c []float64, nRows int, square bool)
	// ComputeRowSums adds per-row totals for rows [rl, ru) into c.
	ComputeRowSums(c []float64, square bool, rl, ru int)
	// ComputeColSums adds per-column totals into c at the group's columns.
	ComputeColSums(c []float64, nRows int, square bool)
	// ComputeMxx folds every cell into init using op (OpMin or OpMax).
	ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64
	// ComputeColMxx folds per-column extrema into c at the group's columns.
	ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int)
	// ComputeRowMxx folds per-row extrema over the group's columns into c
	// for rows [rl, ru).
	ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int)
	// ComputeProduct multiplies the product of all cells into c[0].
	ComputeProduct(c []float64, nRows int)
	// ComputeRowProduct multiplies per-row products into c for [rl, ru).
	ComputeRowProduct(c []float64, rl, ru int)
	// ComputeColProduct multiplies per-column products into c.
	ComputeColProduct(c []float64, nRows int)

	// ScalarOp returns a new group with op applied to every cell.
	ScalarOp(op matrix.ScalarOp, nRows int) ColGroup
	// BinaryRowOp returns a new group with the row vector v broadcast over
	// the group's columns. With left set, v is the left operand.
	BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup
	// Replace returns a new group with pattern-valued cells replaced.
	Replace(pattern, replacement float64, nRows int) ColGroup

	// RightMultByMatrix returns the group encoding of group·right, with
	// columns {0..right.Cols()-1} and the row assignment preserved.
	// An empty product returns nil.
	RightMultByMatrix(right *matrix.Block) ColGroup
	// LeftMultByMatrix accumulates left[rl:ru, :]·group into the dense
	// result at the group's columns.
	LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int)
	// TSMM accumulates groupᵀ·group into the upper triangle of the flat
	// result (row-major, nResCols columns) at the group's column pairs.
	TSMM(result []float64, nResCols, nRows int)

	// SliceColumns projects the group onto the half-open column range
	// [cl, cu), re-basing column indexes to the slice. Returns nil when
	// the intersection is empty.
	SliceColumns(cl, cu int) ColGroup
	// ShiftColIndexes returns a copy with all column indexes shifted.
	ShiftColIndexes(offset int) ColGroup

	// ContainsValue reports whether any cell equals pattern.
	ContainsValue(pattern float64, nRows int) bool
	// NumberNonZeros returns the group's non-zero cell count.
	NumberNonZeros(nRows int) int64
	// CountNonZerosPerRow adds per-row non-zero counts for rows [rl, ru)
	// into rnnz (indexed relative to rl).
	CountNonZerosPerRow(rnnz []int, rl, ru int)

	// Copy returns a deep copy.
	Copy() ColGroup
	// Write serializes the group body (the container writes the tag and
	// column indexes).
	Write(w io.Writer) error
	// DiskSize returns the exact serialized byte length including tag and
	// column indexes.
	DiskSize() int64
	// MemSize returns an upper bound on the in-memory footprint.
	MemSize() int64

	fmt.Stringer
}

var (
	_ ColGroup = (*Empty)(nil)
	_ ColGroup = (*Const)(nil)
	_ ColGroup = (*Uncompressed)(nil)
	_ ColGroup = (*DDC)(nil)
	_ ColGroup = (*SDC)(nil)
	_ ColGroup = (*OLE)(nil)
	_ ColGroup = (*RLE)(nil)
)

// base carries the column indexes shared by every encoding.
type base struct {
	colIndexes []int
}

func (b *base) ColIndexes() []int { return b.colIndexes }

func (b *base) NumCols() int { return len(b.colIndexes) }

// colOffset returns the position of absolute column c within the group, or
// -1 when not covered.
func (b *base) colOffset(c int) int {
	i := sort.SearchInts(b.colIndexes, c)
	if i < len(b.colIndexes) && b.colIndexes[i] == c {
		return i
	}
	return -1
}

// sliceIndexes intersects the group columns with [cl, cu), returning the
// dictionary column positions and the re-based output indexes.
func (b *base) sliceIndexes(cl, cu int) (positions, outCols []int) {
	for j, c := range b.colIndexes {
		if c >= cl && c < cu {
			positions = append(positions, j)
			outCols = append(outCols, c-cl)
		}
	}
	return positions, outCols
}

func shifted(colIndexes []int, offset int) []int {
	out := make([]int, len(colIndexes))
	for i, c := range colIndexes {
		out[i] = c + offset
	}
	return out
}

// tsmmDense accumulates the counts-weighted self-product of the dictionary
// tuples into the upper triangle of result.
func tsmmDense(result []float64, nResCols int, values []float64, counts []int, colIndexes []int) {
	if len(values) == 0 {
		return
	}
	nCol := len(colIndexes)
	nRow := len(values) / nCol
	for k := 0; k < nRow; k++ {
		offTmp := nCol * k
		scale := float64(counts[k])
		for i := 0; i < nCol; i++ {
			offRet := nResCols * colIndexes[i]
			v := values[offTmp+i] * scale
			if v != 0 {
				for j := i; j < nCol; j++ {
					result[offRet+colIndexes[j]] += v * values[offTmp+j]
				}
			}
		}
	}
}

// tsmmSparse is the sparse-dictionary variant of tsmmDense, skipping zero
// tuple cells.
func tsmmSparse(result []float64, nResCols int, db *matrix.Block, counts []int, colIndexes []int) {
	for row := 0; row < db.Rows(); row++ {
		scale := float64(counts[row])
		var cells []int
		var vals []float64
		db.RowNonZeros(row, func(c int, v float64) {
			cells = append(cells, c)
			vals = append(vals, v)
		})
		for i, ci := range cells {
			offRet := colIndexes[ci] * nResCols
			v := vals[i] * scale
			for j := i; j < len(cells); j++ {
				result[offRet+colIndexes[cells[j]]] += v * vals[j]
			}
		}
	}
}

// tsmmDict dispatches between the dense and sparse dictionary kernels.
func tsmmDict(result []float64, nResCols int, dict ADictionary, counts []int, colIndexes []int) {
	if mbd, ok := dict.(*MatrixBlockDictionary); ok && mbd.Block().IsSparse() {
		tsmmSparse(result, nResCols, mbd.Block(), counts, colIndexes)
		return
	}
	tsmmDense(result, nResCols, dict.Values(), counts, colIndexes)
}

// rightMultDict contracts the dictionary tuples with the rows of right
// selected by the group's columns: out[k][j] = Σ_i dict[k][i]·right[col_i][j].
// Returns nil when the product is all-zero.
func rightMultDict(dict ADictionary, colIndexes []int, right *matrix.Block) ADictionary {
	nCols := len(colIndexes)
	nVals := dict.NumValues(nCols)
	rCols := right.Cols()
	out := make([]float64, nVals*rCols)
	values := dict.Values()
	nonZero := false
	for k := 0; k < nVals; k++ {
		for i := 0; i < nCols; i++ {
			v := values[k*nCols+i]
			if v == 0 {
				continue
			}
			right.RowNonZeros(colIndexes[i], func(j int, rv float64) {
				out[k*rCols+j] += v * rv
			})
		}
	}
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		return nil
	}
	return NewDictionary(out)
}

// rightMultTuple contracts a single tuple with right's selected rows.
func rightMultTuple(tuple []float64, colIndexes []int, right *matrix.Block) []float64 {
	out := make([]float64, right.Cols())
	for i, v := range tuple {
		if v == 0 {
			continue
		}
		right.RowNonZeros(colIndexes[i], func(j int, rv float64) {
			out[j] += v * rv
		})
	}
	return out
}

func allZero(vals []float64) bool {
	for _, v := range vals {
		if v != 0 {
			return false
		}
	}
	return true
}

// seqIndexes returns {0..n-1}.
func seqIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
