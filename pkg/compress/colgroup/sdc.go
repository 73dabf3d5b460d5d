package colgroup

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// SDC is the sparse dictionary-coded group: most rows share a default
// tuple and a sorted exception list carries per-row value indexes into the
// dictionary.
type SDC struct {
	base
	valueBase
	defaultTuple []float64
	rows         []uint32 // sorted exception rows
	codes        []uint32 // value index per exception
}

// NewSDC creates a sparse dictionary-coded group. The exception rows must
// be sorted ascending; counts are derived from the codes.
func NewSDC(colIndexes []int, dict ADictionary, defaultTuple []float64, rows, codes []uint32) *SDC {
	counts := make([]int, dict.NumValues(len(colIndexes)))
	for _, k := range codes {
		counts[k]++
	}
	return &SDC{
		base:         base{colIndexes: colIndexes},
		valueBase:    valueBase{dict: dict, counts: counts},
		defaultTuple: defaultTuple,
		rows:         rows,
		codes:        codes,
	}
}

// Type returns the encoding tag.
func (g *SDC) Type() CompressionType { return TypeSDC }

// NumValues returns the number of distinct tuples including the default.
func (g *SDC) NumValues() int { return g.dict.NumValues(len(g.colIndexes)) + 1 }

// DefaultTuple returns the shared default tuple.
func (g *SDC) DefaultTuple() []float64 { return g.defaultTuple }

// defaultCount returns the number of rows carrying the default tuple.
func (g *SDC) defaultCount(nRows int) int { return nRows - len(g.rows) }

// exceptionRange returns the exception positions covering rows [rl, ru).
func (g *SDC) exceptionRange(rl, ru int) (lo, hi int) {
	lo = sort.Search(len(g.rows), func(i int) bool { return int(g.rows[i]) >= rl })
	hi = sort.Search(len(g.rows), func(i int) bool { return int(g.rows[i]) >= ru })
	return lo, hi
}

// Get reads the cell at (r, c).
func (g *SDC) Get(r, c int) float64 {
	j := g.colOffset(c)
	if j < 0 {
		return 0
	}
	i := sort.Search(len(g.rows), func(i int) bool { return int(g.rows[i]) >= r })
	if i < len(g.rows) && int(g.rows[i]) == r {
		return g.dict.GetValue(int(g.codes[i])*len(g.colIndexes) + j)
	}
	return g.defaultTuple[j]
}

// DecompressToBlock adds the default or exception tuple of each row.
func (g *SDC) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {
	dense := target.DenseValues()
	stride := target.Cols()
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	lo, hi := g.exceptionRange(rl, ru)
	p := lo
	for r := rl; r < ru; r++ {
		off := (offT + r - rl) * stride
		if p < hi && int(g.rows[p]) == r {
			vOff := int(g.codes[p]) * nCols
			for j, col := range g.colIndexes {
				dense[off+col] += values[vOff+j]
			}
			p++
			continue
		}
		for j, col := range g.colIndexes {
			dense[off+col] += g.defaultTuple[j]
		}
	}
}

// ComputeSum adds the group total into c[0].
func (g *SDC) ComputeSum(c []float64, nRows int, square bool) {
	if square {
		c[0] += g.dict.SumSq(g.counts, len(g.colIndexes))
	} else {
		c[0] += g.dict.Sum(g.counts, len(g.colIndexes))
	}
	var def float64
	for _, v := range g.defaultTuple {
		if square {
			def += v * v
		} else {
			def += v
		}
	}
	c[0] += def * float64(g.defaultCount(nRows))
}

// ComputeRowSums adds each row's tuple total into c.
func (g *SDC) ComputeRowSums(c []float64, square bool, rl, ru int) {
	rowAgg := g.dict.SumAllRowsToDouble(square, len(g.colIndexes))
	var defAgg float64
	for _, v := range g.defaultTuple {
		if square {
			defAgg += v * v
		} else {
			defAgg += v
		}
	}
	for r := rl; r < ru; r++ {
		c[r] += defAgg
	}
	lo, hi := g.exceptionRange(rl, ru)
	for p := lo; p < hi; p++ {
		c[int(g.rows[p])] += rowAgg[g.codes[p]] - defAgg
	}
}

// ComputeColSums adds per-column totals into c.
func (g *SDC) ComputeColSums(c []float64, nRows int, square bool) {
	g.dict.ColSum(c, g.counts, g.colIndexes, square)
	defCount := float64(g.defaultCount(nRows))
	for j, col := range g.colIndexes {
		v := g.defaultTuple[j]
		if square {
			v *= v
		}
		c[col] += v * defCount
	}
}

// ComputeMxx folds the dictionary and the default tuple into init.
func (g *SDC) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
	acc := init
	if len(g.rows) > 0 {
		acc = g.dict.Aggregate(acc, op)
	}
	if g.defaultCount(nRows) > 0 {
		for _, v := range g.defaultTuple {
			acc = op.Apply(acc, v)
		}
	}
	return acc
}

// ComputeColMxx folds per-column extrema into c.
func (g *SDC) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
	if len(g.rows) > 0 {
		g.dict.AggregateCols(c, op, g.colIndexes)
	}
	if g.defaultCount(nRows) > 0 {
		for j, col := range g.colIndexes {
			c[col] = op.Apply(c[col], g.defaultTuple[j])
		}
	}
}

// ComputeRowMxx folds each row's tuple extremum into c.
func (g *SDC) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	tupleAgg := g.dict.AggregateTuples(op, len(g.colIndexes))
	defAgg := g.defaultTuple[0]
	for _, v := range g.defaultTuple[1:] {
		defAgg = op.Apply(defAgg, v)
	}
	lo, hi := g.exceptionRange(rl, ru)
	p := lo
	for r := rl; r < ru; r++ {
		if p < hi && int(g.rows[p]) == r {
			c[r] = op.Apply(c[r], tupleAgg[g.codes[p]])
			p++
		} else {
			c[r] = op.Apply(c[r], defAgg)
		}
	}
}

// ComputeProduct multiplies the group product into c[0].
func (g *SDC) ComputeProduct(c []float64, nRows int) {
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	for k, p := range tupleProd {
		c[0] = powProduct(c[0], p, g.counts[k])
	}
	defProd := 1.0
	for _, v := range g.defaultTuple {
		defProd *= v
	}
	c[0] = powProduct(c[0], defProd, g.defaultCount(nRows))
}

// ComputeRowProduct multiplies each row's tuple product into c.
func (g *SDC) ComputeRowProduct(c []float64, rl, ru int) {
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	defProd := 1.0
	for _, v := range g.defaultTuple {
		defProd *= v
	}
	lo, hi := g.exceptionRange(rl, ru)
	p := lo
	for r := rl; r < ru; r++ {
		if p < hi && int(g.rows[p]) == r {
			c[r] *= tupleProd[g.codes[p]]
			p++
		} else {
			c[r] *= defProd
		}
	}
}

// ComputeColProduct multiplies per-column products into c.
func (g *SDC) ComputeColProduct(c []float64, nRows int) {
	nCols := len(g.colIndexes)
	for j, col := range g.colIndexes {
		for k := range g.counts {
			c[col] = powProduct(c[col], g.dict.GetValue(k*nCols+j), g.counts[k])
		}
		c[col] = powProduct(c[col], g.defaultTuple[j], g.defaultCount(nRows))
	}
}

// ScalarOp applies op to the dictionary and the default tuple.
func (g *SDC) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	def := make([]float64, len(g.defaultTuple))
	for i, v := range g.defaultTuple {
		def[i] = op.Fn(v)
	}
	return NewSDC(append([]int(nil), g.colIndexes...), g.dict.Apply(op), def,
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// BinaryRowOp applies v through op to the dictionary and default tuple.
func (g *SDC) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	def := make([]float64, len(g.defaultTuple))
	for j, col := range g.colIndexes {
		if left {
			def[j] = op.Apply(v[col], g.defaultTuple[j])
		} else {
			def[j] = op.Apply(g.defaultTuple[j], v[col])
		}
	}
	return NewSDC(append([]int(nil), g.colIndexes...),
		g.dict.ApplyBinaryRowOp(op, v, g.colIndexes, left), def,
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// Replace substitutes pattern-valued cells in the dictionary and default.
// NaN patterns match NaN cells.
func (g *SDC) Replace(pattern, replacement float64, nRows int) ColGroup {
	nan := math.IsNaN(pattern)
	def := make([]float64, len(g.defaultTuple))
	for i, v := range g.defaultTuple {
		if v == pattern || (nan && math.IsNaN(v)) {
			def[i] = replacement
		} else {
			def[i] = v
		}
	}
	return NewSDC(append([]int(nil), g.colIndexes...),
		g.dict.Replace(pattern, replacement, len(g.colIndexes)), def,
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// RightMultByMatrix contracts the dictionary and default tuple with
// right's selected rows.
func (g *SDC) RightMultByMatrix(right *matrix.Block) ColGroup {
	if right.IsEmpty() {
		return nil
	}
	nCols := len(g.colIndexes)
	rCols := right.Cols()
	nVals := g.dict.NumValues(nCols)
	values := g.dict.Values()
	out := make([]float64, nVals*rCols)
	for k := 0; k < nVals; k++ {
		for i := 0; i < nCols; i++ {
			v := values[k*nCols+i]
			if v == 0 {
				continue
			}
			right.RowNonZeros(g.colIndexes[i], func(j int, rv float64) {
				out[k*rCols+j] += v * rv
			})
		}
	}
	def := rightMultTuple(g.defaultTuple, g.colIndexes, right)
	if allZero(out) && allZero(def) {
		return nil
	}
	return NewSDC(seqIndexes(rCols), NewDictionary(out), def,
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// LeftMultByMatrix splits the product into the default contribution of the
// full row total and the exception corrections.
func (g *SDC) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	dense := result.DenseValues()
	stride := result.Cols()
	excAgg := make([]float64, len(g.counts))
	for i := rl; i < ru; i++ {
		for k := range excAgg {
			excAgg[k] = 0
		}
		var rowTotal float64
		left.RowNonZeros(i, func(r int, lv float64) {
			rowTotal += lv
			p := sort.Search(len(g.rows), func(t int) bool { return int(g.rows[t]) >= r })
			if p < len(g.rows) && int(g.rows[p]) == r {
				excAgg[g.codes[p]] += lv
			}
		})
		off := i * stride
		for j, col := range g.colIndexes {
			acc := rowTotal * g.defaultTuple[j]
			for k, w := range excAgg {
				if w != 0 {
					acc += w * (values[k*nCols+j] - g.defaultTuple[j])
				}
			}
			dense[off+col] += acc
		}
	}
}

// TSMM accumulates the exception tuples and the default tuple weighted by
// their row counts.
func (g *SDC) TSMM(result []float64, nResCols, nRows int) {
	tsmmDict(result, nResCols, g.dict, g.counts, g.colIndexes)
	defCount := g.defaultCount(nRows)
	if defCount > 0 {
		tsmmDense(result, nResCols, g.defaultTuple, []int{defCount}, g.colIndexes)
	}
}

// SliceColumns projects onto [cl, cu).
func (g *SDC) SliceColumns(cl, cu int) ColGroup {
	positions, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	pLo, pHi := positions[0], positions[len(positions)-1]+1
	d := g.dict.SliceOutColumnRange(pLo, pHi, len(g.colIndexes))
	def := append([]float64(nil), g.defaultTuple[pLo:pHi]...)
	return NewSDC(outCols, d, def,
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// ShiftColIndexes returns a shifted copy.
func (g *SDC) ShiftColIndexes(offset int) ColGroup {
	return NewSDC(shifted(g.colIndexes, offset), g.dict.Clone(),
		append([]float64(nil), g.defaultTuple...),
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// ContainsValue reports whether the dictionary or default holds pattern.
func (g *SDC) ContainsValue(pattern float64, nRows int) bool {
	if len(g.rows) > 0 && g.dict.ContainsValue(pattern) {
		return true
	}
	if g.defaultCount(nRows) > 0 {
		for _, v := range g.defaultTuple {
			if v == pattern {
				return true
			}
		}
	}
	return false
}

// NumberNonZeros returns the group's non-zero count.
func (g *SDC) NumberNonZeros(nRows int) int64 {
	nnz := g.dict.NumberNonZeros(g.counts, len(g.colIndexes))
	var defNNZ int64
	for _, v := range g.defaultTuple {
		if v != 0 {
			defNNZ++
		}
	}
	return nnz + defNNZ*int64(g.defaultCount(nRows))
}

// CountNonZerosPerRow adds each row's tuple non-zero width into rnnz.
func (g *SDC) CountNonZerosPerRow(rnnz []int, rl, ru int) {
	nCols := len(g.colIndexes)
	defNNZ := 0
	for _, v := range g.defaultTuple {
		if v != 0 {
			defNNZ++
		}
	}
	tupleNNZ := make([]int, len(g.counts))
	for k := range g.counts {
		for j := 0; j < nCols; j++ {
			if g.dict.GetValue(k*nCols+j) != 0 {
				tupleNNZ[k]++
			}
		}
	}
	for i := 0; i < ru-rl; i++ {
		rnnz[i] += defNNZ
	}
	lo, hi := g.exceptionRange(rl, ru)
	for p := lo; p < hi; p++ {
		rnnz[int(g.rows[p])-rl] += tupleNNZ[g.codes[p]] - defNNZ
	}
}

// Copy returns a deep copy.
func (g *SDC) Copy() ColGroup {
	return NewSDC(append([]int(nil), g.colIndexes...), g.dict.Clone(),
		append([]float64(nil), g.defaultTuple...),
		append([]uint32(nil), g.rows...), append([]uint32(nil), g.codes...))
}

// Write serializes the dictionary, default tuple, rows and codes.
func (g *SDC) Write(w io.Writer) error {
	if err := writeDictionary(w, g.dict); err != nil {
		return err
	}
	if err := writeFloat64s(w, g.defaultTuple); err != nil {
		return err
	}
	if err := writeUint32s(w, g.rows); err != nil {
		return err
	}
	return writeUint32s(w, g.codes)
}

// DiskSize returns the serialized byte length.
func (g *SDC) DiskSize() int64 {
	return groupHeaderDiskSize(g) + dictionaryDiskSize(g.dict) +
		4 + int64(len(g.defaultTuple))*8 +
		4 + int64(len(g.rows))*4 +
		4 + int64(len(g.codes))*4
}

// MemSize returns an upper bound on the in-memory footprint.
func (g *SDC) MemSize() int64 {
	return 24 + int64(len(g.colIndexes))*8 + g.dict.MemSize() +
		int64(len(g.defaultTuple))*8 + int64(len(g.rows))*8 +
		int64(len(g.counts))*8
}

// String summarizes the group.
func (g *SDC) String() string {
	return fmt.Sprintf("SDC cols=%v default=%v exceptions=%d values=%d",
		g.colIndexes, g.defaultTuple, len(g.rows), g.dict.NumValues(len(g.colIndexes)))
}
