package colgroup

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// Run is a contiguous row interval of a single value.
type Run struct {
	Start  uint32
	Length uint32
}

// RLE is the run-length encoded group: each dictionary tuple carries the
// sorted row runs holding it. Rows covered by no run are implicit zeros.
type RLE struct {
	base
	valueBase
	runs [][]Run
}

// NewRLE creates a run-length encoded group; runs[k] holds the sorted,
// non-overlapping row runs of tuple k.
func NewRLE(colIndexes []int, dict ADictionary, runs [][]Run) *RLE {
	counts := make([]int, len(runs))
	for k, rs := range runs {
		for _, r := range rs {
			counts[k] += int(r.Length)
		}
	}
	return &RLE{
		base:      base{colIndexes: colIndexes},
		valueBase: valueBase{dict: dict, counts: counts},
		runs:      runs,
	}
}

// Type returns the encoding tag.
func (g *RLE) Type() CompressionType { return TypeRLE }

// NumValues returns the number of distinct tuples.
func (g *RLE) NumValues() int { return len(g.runs) }

// coveredCount returns the number of rows assigned to any tuple.
func (g *RLE) coveredCount() int {
	total := 0
	for _, c := range g.counts {
		total += c
	}
	return total
}

// rowCode returns the tuple index of row r, or -1 for implicit zero.
func (g *RLE) rowCode(r int) int {
	for k, rs := range g.runs {
		i := sort.Search(len(rs), func(i int) bool { return int(rs[i].Start) > r })
		if i > 0 {
			run := rs[i-1]
			if r < int(run.Start)+int(run.Length) {
				return k
			}
		}
	}
	return -1
}

// forEachRunRange iterates the rows of rs intersecting [rl, ru).
func forEachRunRange(rs []Run, rl, ru int, fn func(r int)) {
	for _, run := range rs {
		start := int(run.Start)
		end := start + int(run.Length)
		if end <= rl {
			continue
		}
		if start >= ru {
			return
		}
		if start < rl {
			start = rl
		}
		if end > ru {
			end = ru
		}
		for r := start; r < end; r++ {
			fn(r)
		}
	}
}

// complementRuns returns the row intervals of [0, nRows) covered by none
// of the runs.
func complementRuns(runs [][]Run, nRows int) []Run {
	var all []Run
	for _, rs := range runs {
		all = append(all, rs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	var out []Run
	next := 0
	for _, run := range all {
		start := int(run.Start)
		end := start + int(run.Length)
		if start > next {
			out = append(out, Run{Start: uint32(next), Length: uint32(start - next)})
		}
		if end > next {
			next = end
		}
	}
	if next < nRows {
		out = append(out, Run{Start: uint32(next), Length: uint32(nRows - next)})
	}
	return out
}

// Get reads the cell at (r, c).
func (g *RLE) Get(r, c int) float64 {
	j := g.colOffset(c)
	if j < 0 {
		return 0
	}
	k := g.rowCode(r)
	if k < 0 {
		return 0
	}
	return g.dict.GetValue(k*len(g.colIndexes) + j)
}

// DecompressToBlock adds each covered row's tuple into the target.
func (g *RLE) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {
	dense := target.DenseValues()
	stride := target.Cols()
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	for k, rs := range g.runs {
		vOff := k * nCols
		forEachRunRange(rs, rl, ru, func(r int) {
			off := (offT + r - rl) * stride
			for j, col := range g.colIndexes {
				dense[off+col] += values[vOff+j]
			}
		})
	}
}

// ComputeSum adds the counts-weighted dictionary total into c[0].
func (g *RLE) ComputeSum(c []float64, nRows int, square bool) {
	if square {
		c[0] += g.dict.SumSq(g.counts, len(g.colIndexes))
	} else {
		c[0] += g.dict.Sum(g.counts, len(g.colIndexes))
	}
}

// ComputeRowSums adds each covered row's tuple total into c.
func (g *RLE) ComputeRowSums(c []float64, square bool, rl, ru int) {
	rowAgg := g.dict.SumAllRowsToDouble(square, len(g.colIndexes))
	for k, rs := range g.runs {
		agg := rowAgg[k]
		forEachRunRange(rs, rl, ru, func(r int) {
			c[r] += agg
		})
	}
}

// ComputeColSums adds counts-weighted per-column totals into c.
func (g *RLE) ComputeColSums(c []float64, nRows int, square bool) {
	g.dict.ColSum(c, g.counts, g.colIndexes, square)
}

// ComputeMxx folds the dictionary and, when implicit zeros exist, zero.
func (g *RLE) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
	acc := init
	if g.coveredCount() > 0 {
		acc = g.dict.Aggregate(acc, op)
	}
	if g.coveredCount() < nRows {
		acc = op.Apply(acc, 0)
	}
	return acc
}

// ComputeColMxx folds per-column extrema into c.
func (g *RLE) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
	if g.coveredCount() > 0 {
		g.dict.AggregateCols(c, op, g.colIndexes)
	}
	if g.coveredCount() < nRows {
		for _, col := range g.colIndexes {
			c[col] = op.Apply(c[col], 0)
		}
	}
}

// ComputeRowMxx folds each row's tuple extremum (or zero) into c.
func (g *RLE) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	tupleAgg := g.dict.AggregateTuples(op, len(g.colIndexes))
	covered := make([]bool, ru-rl)
	for k, rs := range g.runs {
		agg := tupleAgg[k]
		forEachRunRange(rs, rl, ru, func(r int) {
			c[r] = op.Apply(c[r], agg)
			covered[r-rl] = true
		})
	}
	for i, ok := range covered {
		if !ok {
			c[rl+i] = op.Apply(c[rl+i], 0)
		}
	}
}

// ComputeProduct multiplies the counts-weighted product into c[0].
func (g *RLE) ComputeProduct(c []float64, nRows int) {
	if g.coveredCount() < nRows {
		c[0] = 0
		return
	}
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	for k, p := range tupleProd {
		c[0] = powProduct(c[0], p, g.counts[k])
	}
}

// ComputeRowProduct multiplies each row's tuple product into c.
func (g *RLE) ComputeRowProduct(c []float64, rl, ru int) {
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	covered := make([]bool, ru-rl)
	for k, rs := range g.runs {
		p := tupleProd[k]
		forEachRunRange(rs, rl, ru, func(r int) {
			c[r] *= p
			covered[r-rl] = true
		})
	}
	for i, ok := range covered {
		if !ok {
			c[rl+i] = 0
		}
	}
}

// ComputeColProduct multiplies per-column products into c.
func (g *RLE) ComputeColProduct(c []float64, nRows int) {
	if g.coveredCount() < nRows {
		for _, col := range g.colIndexes {
			c[col] = 0
		}
		return
	}
	nCols := len(g.colIndexes)
	for j, col := range g.colIndexes {
		for k := range g.counts {
			c[col] = powProduct(c[col], g.dict.GetValue(k*nCols+j), g.counts[k])
		}
	}
}

// cloneRuns deep-copies the run lists.
func (g *RLE) cloneRuns() [][]Run {
	out := make([][]Run, len(g.runs))
	for k, rs := range g.runs {
		out[k] = append([]Run(nil), rs...)
	}
	return out
}

// materializeZero appends the transformed implicit-zero tuple for the
// uncovered row runs.
func (g *RLE) materializeZero(dict ADictionary, zeroTuple []float64, nRows int) ColGroup {
	comp := complementRuns(g.runs, nRows)
	runs := g.cloneRuns()
	if len(comp) > 0 && !allZero(zeroTuple) {
		dict = appendTuple(dict, zeroTuple, len(g.colIndexes))
		runs = append(runs, comp)
	}
	return NewRLE(append([]int(nil), g.colIndexes...), dict, runs)
}

// ScalarOp applies op to the dictionary, materializing the zero tuple when
// the op is not sparse-safe.
func (g *RLE) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	d := g.dict.Apply(op)
	if op.SparseSafe() {
		return NewRLE(append([]int(nil), g.colIndexes...), d, g.cloneRuns())
	}
	return g.materializeZero(d, constTuple(op.Fn(0), len(g.colIndexes)), nRows)
}

// BinaryRowOp applies v through op, materializing the transformed zero
// tuple when it is non-zero.
func (g *RLE) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	d := g.dict.ApplyBinaryRowOp(op, v, g.colIndexes, left)
	zero := zeroRowOpTuple(op, v, g.colIndexes, left)
	if allZero(zero) {
		return NewRLE(append([]int(nil), g.colIndexes...), d, g.cloneRuns())
	}
	return g.materializeZero(d, zero, nRows)
}

// Replace substitutes pattern-valued cells; a zero pattern materializes
// the implicit-zero runs.
func (g *RLE) Replace(pattern, replacement float64, nRows int) ColGroup {
	d := g.dict.Replace(pattern, replacement, len(g.colIndexes))
	if pattern != 0 || replacement == 0 {
		return NewRLE(append([]int(nil), g.colIndexes...), d, g.cloneRuns())
	}
	return g.materializeZero(d, constTuple(replacement, len(g.colIndexes)), nRows)
}

// RightMultByMatrix contracts the dictionary with right's selected rows.
func (g *RLE) RightMultByMatrix(right *matrix.Block) ColGroup {
	if right.IsEmpty() {
		return nil
	}
	d := rightMultDict(g.dict, g.colIndexes, right)
	if d == nil {
		return nil
	}
	return NewRLE(seqIndexes(right.Cols()), d, g.cloneRuns())
}

// LeftMultByMatrix pre-aggregates left's rows per run list.
func (g *RLE) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	dense := result.DenseValues()
	stride := result.Cols()
	for i := rl; i < ru; i++ {
		off := i * stride
		for k, rs := range g.runs {
			var w float64
			for _, run := range rs {
				end := int(run.Start) + int(run.Length)
				for r := int(run.Start); r < end; r++ {
					w += left.Get(i, r)
				}
			}
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
func (g *RLE) TSMM(result []float64, nResCols, nRows int) {
	tsmmDict(result, nResCols, g.dict, g.counts, g.colIndexes)
}

// SliceColumns projects onto [cl, cu).
func (g *RLE) SliceColumns(cl, cu int) ColGroup {
	positions, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	d := g.dict.SliceOutColumnRange(positions[0], positions[len(positions)-1]+1, len(g.colIndexes))
	return NewRLE(outCols, d, g.cloneRuns())
}

// ShiftColIndexes returns a shifted copy.
func (g *RLE) ShiftColIndexes(offset int) ColGroup {
	return NewRLE(shifted(g.colIndexes, offset), g.dict.Clone(), g.cloneRuns())
}

// ContainsValue reports whether the dictionary or an implicit zero matches
// pattern.
func (g *RLE) ContainsValue(pattern float64, nRows int) bool {
	if pattern == 0 && g.coveredCount() < nRows {
		return true
	}
	return g.coveredCount() > 0 && g.dict.ContainsValue(pattern)
}

// NumberNonZeros returns the counts-weighted non-zero count.
func (g *RLE) NumberNonZeros(nRows int) int64 {
	return g.dict.NumberNonZeros(g.counts, len(g.colIndexes))
}

// CountNonZerosPerRow adds each covered row's tuple non-zero width.
func (g *RLE) CountNonZerosPerRow(rnnz []int, rl, ru int) {
	nCols := len(g.colIndexes)
	for k, rs := range g.runs {
		nnz := 0
		for j := 0; j < nCols; j++ {
			if g.dict.GetValue(k*nCols+j) != 0 {
				nnz++
			}
		}
		if nnz == 0 {
			continue
		}
		forEachRunRange(rs, rl, ru, func(r int) {
			rnnz[r-rl] += nnz
		})
	}
}

// Copy returns a deep copy.
func (g *RLE) Copy() ColGroup {
	return NewRLE(append([]int(nil), g.colIndexes...), g.dict.Clone(), g.cloneRuns())
}

// Write serializes the dictionary and the per-value run lists.
func (g *RLE) Write(w io.Writer) error {
	if err := writeDictionary(w, g.dict); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(g.runs))); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write run list count")
	}
	for _, rs := range g.runs {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(rs))); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write run count")
		}
		for _, run := range rs {
			if err := binary.Write(w, binary.LittleEndian, run.Start); err != nil {
				return errors.Wrap(err, errors.ErrorTypeIO, "write run start")
			}
			if err := binary.Write(w, binary.LittleEndian, run.Length); err != nil {
				return errors.Wrap(err, errors.ErrorTypeIO, "write run length")
			}
		}
	}
	return nil
}

// readRLEBody deserializes the body written by Write.
func readRLEBody(r io.Reader, colIndexes []int) (*RLE, error) {
	dict, err := readDictionary(r)
	if err != nil {
		return nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read run list count")
	}
	runs := make([][]Run, n)
	for k := range runs {
		var cnt uint32
		if err := binary.Read(r, binary.LittleEndian, &cnt); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "read run count")
		}
		runs[k] = make([]Run, cnt)
		for i := range runs[k] {
			if err := binary.Read(r, binary.LittleEndian, &runs[k][i].Start); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeIO, "read run start")
			}
			if err := binary.Read(r, binary.LittleEndian, &runs[k][i].Length); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeIO, "read run length")
			}
		}
	}
	return NewRLE(colIndexes, dict, runs), nil
}

// DiskSize returns the serialized byte length.
func (g *RLE) DiskSize() int64 {
	size := groupHeaderDiskSize(g) + dictionaryDiskSize(g.dict) + 4
	for _, rs := range g.runs {
		size += 4 + int64(len(rs))*8
	}
	return size
}

// MemSize returns an upper bound on the in-memory footprint.
func (g *RLE) MemSize() int64 {
	size := int64(24) + int64(len(g.colIndexes))*8 + g.dict.MemSize() +
		int64(len(g.counts))*8
	for _, rs := range g.runs {
		size += int64(len(rs)) * 8
	}
	return size
}

// String summarizes the group.
func (g *RLE) String() string {
	return fmt.Sprintf("RLE cols=%v values=%d covered=%d", g.colIndexes, len(g.runs), g.coveredCount())
}
