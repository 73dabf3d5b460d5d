package compress

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/logger"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// maxDistinctFraction bounds the dictionary size relative to the row
// count before a column is stored uncompressed.
const maxDistinctFraction = 0.5

// FromDense builds a compressed matrix from a dense block with a greedy
// per-column classifier: constant columns merge into a single CONST
// group, all-zero columns into one EMPTY group, and the remaining columns
// pick DDC, SDC, OLE or RLE by value distribution, falling back to an
// uncompressed embedding when the dictionary would not pay off.
//
// This is deliberately not a cost-based planner; encoder selection
// against a size model belongs to the host system.
func FromDense(d *matrix.Block, k int) *CompressedMatrix {
	rows, cols := d.Rows(), d.Cols()
	m := New(rows, cols)
	if rows == 0 || cols == 0 {
		m.AllocateColGroupList(nil)
		m.nnz = 0
		return m
	}

	var emptyCols []int
	var constCols []int
	var constVals []float64
	var groups []colgroup.ColGroup

	for c := 0; c < cols; c++ {
		col := make([]float64, rows)
		for r := 0; r < rows; r++ {
			col[r] = d.Get(r, c)
		}
		stats := analyzeColumn(col)
		switch {
		case stats.distinct == 1 && col[0] == 0:
			emptyCols = append(emptyCols, c)
		case stats.distinct == 1:
			constCols = append(constCols, c)
			constVals = append(constVals, col[0])
		case float64(stats.distinct) > maxDistinctFraction*float64(rows):
			groups = append(groups, uncompressedColumn(c, col))
		default:
			groups = append(groups, encodeColumn(c, col, stats))
		}
	}

	if len(constCols) > 0 {
		groups = append(groups, colgroup.NewConst(constCols, colgroup.NewDictionary(constVals)))
	}
	if len(emptyCols) > 0 {
		groups = append(groups, colgroup.NewEmpty(emptyCols))
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].ColIndexes()[0] < groups[j].ColIndexes()[0]
	})
	m.AllocateColGroupList(groups)
	m.RecomputeNonZeros()
	m.setCached(d)
	logger.Debug("compressed dense block",
		zap.Int("rows", rows), zap.Int("cols", cols), zap.Int("groups", len(groups)))
	return m
}

type columnStats struct {
	distinct  int
	zeroFrac  float64
	domFrac   float64 // share of the most frequent value
	domValue  float64
	avgRunLen float64
}

func analyzeColumn(col []float64) columnStats {
	counts := make(map[float64]int)
	runs := 1
	for i, v := range col {
		counts[v]++
		if i > 0 && col[i] != col[i-1] {
			runs++
		}
	}
	var stats columnStats
	stats.distinct = len(counts)
	stats.zeroFrac = float64(counts[0]) / float64(len(col))
	domCount := 0
	for v, n := range counts {
		if n > domCount {
			domCount = n
			stats.domValue = v
		}
	}
	stats.domFrac = float64(domCount) / float64(len(col))
	stats.avgRunLen = float64(len(col)) / float64(runs)
	return stats
}

// distinctValues returns the distinct non-excluded values in first
// appearance order, with their value indexes.
func distinctValues(col []float64, excludeZero bool) ([]float64, map[float64]int) {
	var vals []float64
	idx := make(map[float64]int)
	for _, v := range col {
		if excludeZero && v == 0 {
			continue
		}
		if _, ok := idx[v]; !ok {
			idx[v] = len(vals)
			vals = append(vals, v)
		}
	}
	return vals, idx
}

func encodeColumn(c int, col []float64, stats columnStats) colgroup.ColGroup {
	colIndexes := []int{c}
	switch {
	case stats.zeroFrac > 0.25 && stats.avgRunLen >= 4:
		return rleColumn(colIndexes, col)
	case stats.zeroFrac > 0.25:
		return oleColumn(colIndexes, col)
	case stats.domFrac > 0.5:
		return sdcColumn(colIndexes, col, stats.domValue)
	default:
		return ddcColumn(colIndexes, col)
	}
}

func ddcColumn(colIndexes []int, col []float64) colgroup.ColGroup {
	vals, idx := distinctValues(col, false)
	codes := make([]uint32, len(col))
	for r, v := range col {
		codes[r] = uint32(idx[v])
	}
	return colgroup.NewDDC(colIndexes, colgroup.NewDictionary(vals), codes)
}

func sdcColumn(colIndexes []int, col []float64, defaultValue float64) colgroup.ColGroup {
	var vals []float64
	idx := make(map[float64]int)
	var rows, codes []uint32
	for r, v := range col {
		if v == defaultValue {
			continue
		}
		if _, ok := idx[v]; !ok {
			idx[v] = len(vals)
			vals = append(vals, v)
		}
		rows = append(rows, uint32(r))
		codes = append(codes, uint32(idx[v]))
	}
	return colgroup.NewSDC(colIndexes, colgroup.NewDictionary(vals),
		[]float64{defaultValue}, rows, codes)
}

func oleColumn(colIndexes []int, col []float64) colgroup.ColGroup {
	vals, idx := distinctValues(col, true)
	offsets := make([]*roaring.Bitmap, len(vals))
	for i := range offsets {
		offsets[i] = roaring.New()
	}
	for r, v := range col {
		if v != 0 {
			offsets[idx[v]].Add(uint32(r))
		}
	}
	return colgroup.NewOLE(colIndexes, colgroup.NewDictionary(vals), offsets)
}

func rleColumn(colIndexes []int, col []float64) colgroup.ColGroup {
	vals, idx := distinctValues(col, true)
	runs := make([][]colgroup.Run, len(vals))
	r := 0
	for r < len(col) {
		v := col[r]
		start := r
		for r < len(col) && col[r] == v {
			r++
		}
		if v != 0 {
			k := idx[v]
			runs[k] = append(runs[k], colgroup.Run{Start: uint32(start), Length: uint32(r - start)})
		}
	}
	return colgroup.NewRLE(colIndexes, colgroup.NewDictionary(vals), runs)
}

func uncompressedColumn(c int, col []float64) colgroup.ColGroup {
	return colgroup.NewUncompressed([]int{c}, matrix.FromSlice(len(col), 1, col))
}
