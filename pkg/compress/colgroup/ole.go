package colgroup

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// OLE is the offset-list encoded group: each dictionary tuple carries the
// set of rows holding it, stored as a roaring bitmap. Rows covered by no
// tuple are implicit zeros.
type OLE struct {
	base
	valueBase
	offsets []*roaring.Bitmap
}

// NewOLE creates an offset-list encoded group; offsets[k] holds the rows
// assigned to tuple k.
func NewOLE(colIndexes []int, dict ADictionary, offsets []*roaring.Bitmap) *OLE {
	counts := make([]int, len(offsets))
	for k, bm := range offsets {
		counts[k] = int(bm.GetCardinality())
	}
	return &OLE{
		base:      base{colIndexes: colIndexes},
		valueBase: valueBase{dict: dict, counts: counts},
		offsets:   offsets,
	}
}

// Type returns the encoding tag.
func (g *OLE) Type() CompressionType { return TypeOLE }

// NumValues returns the number of distinct tuples.
func (g *OLE) NumValues() int { return len(g.offsets) }

// coveredCount returns the number of rows assigned to any tuple.
func (g *OLE) coveredCount() int {
	total := 0
	for _, c := range g.counts {
		total += c
	}
	return total
}

// uncovered returns the implicit-zero rows in [0, nRows).
func (g *OLE) uncovered(nRows int) *roaring.Bitmap {
	u := roaring.New()
	for _, bm := range g.offsets {
		u.Or(bm)
	}
	u.Flip(0, uint64(nRows))
	return u
}

// rowCode returns the tuple index of row r, or -1 for implicit zero.
func (g *OLE) rowCode(r int) int {
	for k, bm := range g.offsets {
		if bm.Contains(uint32(r)) {
			return k
		}
	}
	return -1
}

// forEachInRange iterates the rows of bitmap k intersecting [rl, ru).
func forEachInRange(bm *roaring.Bitmap, rl, ru int, fn func(r int)) {
	it := bm.Iterator()
	it.AdvanceIfNeeded(uint32(rl))
	for it.HasNext() {
		r := int(it.Next())
		if r >= ru {
			return
		}
		fn(r)
	}
}

// Get reads the cell at (r, c).
func (g *OLE) Get(r, c int) float64 {
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
func (g *OLE) DecompressToBlock(target *matrix.Block, rl, ru, offT int) {
	dense := target.DenseValues()
	stride := target.Cols()
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	for k, bm := range g.offsets {
		vOff := k * nCols
		forEachInRange(bm, rl, ru, func(r int) {
			off := (offT + r - rl) * stride
			for j, col := range g.colIndexes {
				dense[off+col] += values[vOff+j]
			}
		})
	}
}

// ComputeSum adds the counts-weighted dictionary total into c[0].
func (g *OLE) ComputeSum(c []float64, nRows int, square bool) {
	if square {
		c[0] += g.dict.SumSq(g.counts, len(g.colIndexes))
	} else {
		c[0] += g.dict.Sum(g.counts, len(g.colIndexes))
	}
}

// ComputeRowSums adds each covered row's tuple total into c.
func (g *OLE) ComputeRowSums(c []float64, square bool, rl, ru int) {
	rowAgg := g.dict.SumAllRowsToDouble(square, len(g.colIndexes))
	for k, bm := range g.offsets {
		agg := rowAgg[k]
		forEachInRange(bm, rl, ru, func(r int) {
			c[r] += agg
		})
	}
}

// ComputeColSums adds counts-weighted per-column totals into c.
func (g *OLE) ComputeColSums(c []float64, nRows int, square bool) {
	g.dict.ColSum(c, g.counts, g.colIndexes, square)
}

// ComputeMxx folds the dictionary and, when implicit zeros exist, zero.
func (g *OLE) ComputeMxx(init float64, op matrix.BinaryOp, nRows int) float64 {
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
func (g *OLE) ComputeColMxx(c []float64, op matrix.BinaryOp, nRows int) {
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
func (g *OLE) ComputeRowMxx(c []float64, op matrix.BinaryOp, rl, ru int) {
	tupleAgg := g.dict.AggregateTuples(op, len(g.colIndexes))
	covered := make([]bool, ru-rl)
	for k, bm := range g.offsets {
		agg := tupleAgg[k]
		forEachInRange(bm, rl, ru, func(r int) {
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
func (g *OLE) ComputeProduct(c []float64, nRows int) {
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
func (g *OLE) ComputeRowProduct(c []float64, rl, ru int) {
	tupleProd := g.dict.ProductAllRows(len(g.colIndexes))
	covered := make([]bool, ru-rl)
	for k, bm := range g.offsets {
		p := tupleProd[k]
		forEachInRange(bm, rl, ru, func(r int) {
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
func (g *OLE) ComputeColProduct(c []float64, nRows int) {
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

// cloneOffsets deep-copies the offset bitmaps.
func (g *OLE) cloneOffsets() []*roaring.Bitmap {
	out := make([]*roaring.Bitmap, len(g.offsets))
	for k, bm := range g.offsets {
		out[k] = bm.Clone()
	}
	return out
}

// materializeZero appends the transformed implicit-zero tuple for the
// uncovered rows, keeping the encoding closed under non-sparse-safe ops.
func (g *OLE) materializeZero(dict ADictionary, zeroTuple []float64, nRows int) ColGroup {
	comp := g.uncovered(nRows)
	offsets := g.cloneOffsets()
	if comp.GetCardinality() > 0 && !allZero(zeroTuple) {
		dict = appendTuple(dict, zeroTuple, len(g.colIndexes))
		offsets = append(offsets, comp)
	}
	return NewOLE(append([]int(nil), g.colIndexes...), dict, offsets)
}

// ScalarOp applies op to the dictionary, materializing the zero tuple when
// the op is not sparse-safe.
func (g *OLE) ScalarOp(op matrix.ScalarOp, nRows int) ColGroup {
	d := g.dict.Apply(op)
	if op.SparseSafe() {
		return NewOLE(append([]int(nil), g.colIndexes...), d, g.cloneOffsets())
	}
	return g.materializeZero(d, constTuple(op.Fn(0), len(g.colIndexes)), nRows)
}

// BinaryRowOp applies v through op, materializing the transformed zero
// tuple when it is non-zero.
func (g *OLE) BinaryRowOp(op matrix.BinaryOp, v []float64, left bool, nRows int) ColGroup {
	d := g.dict.ApplyBinaryRowOp(op, v, g.colIndexes, left)
	zero := zeroRowOpTuple(op, v, g.colIndexes, left)
	if allZero(zero) {
		return NewOLE(append([]int(nil), g.colIndexes...), d, g.cloneOffsets())
	}
	return g.materializeZero(d, zero, nRows)
}

// Replace substitutes pattern-valued cells; a zero pattern materializes
// the implicit-zero rows.
func (g *OLE) Replace(pattern, replacement float64, nRows int) ColGroup {
	d := g.dict.Replace(pattern, replacement, len(g.colIndexes))
	if pattern != 0 || replacement == 0 {
		return NewOLE(append([]int(nil), g.colIndexes...), d, g.cloneOffsets())
	}
	return g.materializeZero(d, constTuple(replacement, len(g.colIndexes)), nRows)
}

// RightMultByMatrix contracts the dictionary with right's selected rows;
// implicit-zero rows stay implicit.
func (g *OLE) RightMultByMatrix(right *matrix.Block) ColGroup {
	if right.IsEmpty() {
		return nil
	}
	d := rightMultDict(g.dict, g.colIndexes, right)
	if d == nil {
		return nil
	}
	return NewOLE(seqIndexes(right.Cols()), d, g.cloneOffsets())
}

// LeftMultByMatrix pre-aggregates left's rows per offset list.
func (g *OLE) LeftMultByMatrix(left *matrix.Block, result *matrix.Block, rl, ru int) {
	nCols := len(g.colIndexes)
	values := g.dict.Values()
	dense := result.DenseValues()
	stride := result.Cols()
	for i := rl; i < ru; i++ {
		off := i * stride
		for k, bm := range g.offsets {
			var w float64
			it := bm.Iterator()
			for it.HasNext() {
				w += left.Get(i, int(it.Next()))
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
func (g *OLE) TSMM(result []float64, nResCols, nRows int) {
	tsmmDict(result, nResCols, g.dict, g.counts, g.colIndexes)
}

// SliceColumns projects onto [cl, cu).
func (g *OLE) SliceColumns(cl, cu int) ColGroup {
	positions, outCols := g.sliceIndexes(cl, cu)
	if len(outCols) == 0 {
		return nil
	}
	d := g.dict.SliceOutColumnRange(positions[0], positions[len(positions)-1]+1, len(g.colIndexes))
	return NewOLE(outCols, d, g.cloneOffsets())
}

// ShiftColIndexes returns a shifted copy.
func (g *OLE) ShiftColIndexes(offset int) ColGroup {
	return NewOLE(shifted(g.colIndexes, offset), g.dict.Clone(), g.cloneOffsets())
}

// ContainsValue reports whether the dictionary or an implicit zero
// matches pattern.
func (g *OLE) ContainsValue(pattern float64, nRows int) bool {
	if pattern == 0 && g.coveredCount() < nRows {
		return true
	}
	return g.coveredCount() > 0 && g.dict.ContainsValue(pattern)
}

// NumberNonZeros returns the counts-weighted non-zero count.
func (g *OLE) NumberNonZeros(nRows int) int64 {
	return g.dict.NumberNonZeros(g.counts, len(g.colIndexes))
}

// CountNonZerosPerRow adds each covered row's tuple non-zero width.
func (g *OLE) CountNonZerosPerRow(rnnz []int, rl, ru int) {
	nCols := len(g.colIndexes)
	for k, bm := range g.offsets {
		nnz := 0
		for j := 0; j < nCols; j++ {
			if g.dict.GetValue(k*nCols+j) != 0 {
				nnz++
			}
		}
		if nnz == 0 {
			continue
		}
		forEachInRange(bm, rl, ru, func(r int) {
			rnnz[r-rl] += nnz
		})
	}
}

// Copy returns a deep copy.
func (g *OLE) Copy() ColGroup {
	return NewOLE(append([]int(nil), g.colIndexes...), g.dict.Clone(), g.cloneOffsets())
}

// Write serializes the dictionary and the per-value offset bitmaps.
func (g *OLE) Write(w io.Writer) error {
	if err := writeDictionary(w, g.dict); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(g.offsets))); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write offset list count")
	}
	for _, bm := range g.offsets {
		data, err := bm.ToBytes()
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "serialize offset bitmap")
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write offset bitmap length")
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write offset bitmap")
		}
	}
	return nil
}

// readOLEBody deserializes the body written by Write.
func readOLEBody(r io.Reader, colIndexes []int) (*OLE, error) {
	dict, err := readDictionary(r)
	if err != nil {
		return nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read offset list count")
	}
	offsets := make([]*roaring.Bitmap, n)
	for k := range offsets {
		var sz uint32
		if err := binary.Read(r, binary.LittleEndian, &sz); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "read offset bitmap length")
		}
		data := make([]byte, sz)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "read offset bitmap")
		}
		bm := roaring.New()
		if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "parse offset bitmap")
		}
		offsets[k] = bm
	}
	return NewOLE(colIndexes, dict, offsets), nil
}

// DiskSize returns the serialized byte length.
func (g *OLE) DiskSize() int64 {
	size := groupHeaderDiskSize(g) + dictionaryDiskSize(g.dict) + 4
	for _, bm := range g.offsets {
		size += 4 + int64(bm.GetSerializedSizeInBytes())
	}
	return size
}

// MemSize returns an upper bound on the in-memory footprint.
func (g *OLE) MemSize() int64 {
	size := int64(24) + int64(len(g.colIndexes))*8 + g.dict.MemSize() +
		int64(len(g.counts))*8
	for _, bm := range g.offsets {
		size += int64(bm.GetSizeInBytes())
	}
	return size
}

// String summarizes the group.
func (g *OLE) String() string {
	return fmt.Sprintf("OLE cols=%v values=%d covered=%d", g.colIndexes, len(g.offsets), g.coveredCount())
}
