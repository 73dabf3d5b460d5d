package colgroup

import (
	"bytes"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// The variants below all encode the same 6×2 logical content over the
// absolute columns {1, 2} of a 4-column matrix:
//
//	r0 (1,2)  r1 (0,0)  r2 (3,4)  r3 (1,2)  r4 (0,0)  r5 (3,4)
const (
	testRows = 6
	testCols = 4
)

var expected = [][2]float64{{1, 2}, {0, 0}, {3, 4}, {1, 2}, {0, 0}, {3, 4}}

func testColIndexes() []int { return []int{1, 2} }

func buildDDC() ColGroup {
	dict := NewDictionary([]float64{1, 2, 0, 0, 3, 4})
	return NewDDC(testColIndexes(), dict, []uint32{0, 1, 2, 0, 1, 2})
}

func buildSDC() ColGroup {
	dict := NewDictionary([]float64{1, 2, 3, 4})
	return NewSDC(testColIndexes(), dict, []float64{0, 0},
		[]uint32{0, 2, 3, 5}, []uint32{0, 1, 0, 1})
}

func buildOLE() ColGroup {
	dict := NewDictionary([]float64{1, 2, 3, 4})
	b0 := roaring.New()
	b0.Add(0)
	b0.Add(3)
	b1 := roaring.New()
	b1.Add(2)
	b1.Add(5)
	return NewOLE(testColIndexes(), dict, []*roaring.Bitmap{b0, b1})
}

func buildRLE() ColGroup {
	dict := NewDictionary([]float64{1, 2, 3, 4})
	runs := [][]Run{
		{{Start: 0, Length: 1}, {Start: 3, Length: 1}},
		{{Start: 2, Length: 1}, {Start: 5, Length: 1}},
	}
	return NewRLE(testColIndexes(), dict, runs)
}

func buildUncompressed() ColGroup {
	data := matrix.NewBlock(testRows, 2, false)
	for r, row := range expected {
		data.Set(r, 0, row[0])
		data.Set(r, 1, row[1])
	}
	data.RecomputeNonZeros()
	return NewUncompressed(testColIndexes(), data)
}

var variants = []struct {
	name  string
	build func() ColGroup
}{
	{"DDC", buildDDC},
	{"SDC", buildSDC},
	{"OLE", buildOLE},
	{"RLE", buildRLE},
	{"UNCOMPRESSED", buildUncompressed},
}

// decompressed materializes the group into a dense block of the full
// matrix width.
func decompressed(g ColGroup, cols int) *matrix.Block {
	out := matrix.NewBlock(testRows, cols, false)
	g.DecompressToBlock(out, 0, testRows, 0)
	out.RecomputeNonZeros()
	return out
}

func TestVariantGet(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			g := v.build()
			for r, row := range expected {
				assert.Equal(t, row[0], g.Get(r, 1), "row %d col 1", r)
				assert.Equal(t, row[1], g.Get(r, 2), "row %d col 2", r)
				assert.Equal(t, 0.0, g.Get(r, 0), "uncovered column reads zero")
				assert.Equal(t, 0.0, g.Get(r, 3), "uncovered column reads zero")
			}
		})
	}
}

func TestVariantDecompress(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got := decompressed(v.build(), testCols)
			for r, row := range expected {
				assert.Equal(t, row[0], got.Get(r, 1))
				assert.Equal(t, row[1], got.Get(r, 2))
			}
			assert.Equal(t, int64(8), got.NNZ())
		})
	}
}

func TestVariantDecompressRowRange(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			out := matrix.NewBlock(2, testCols, false)
			v.build().DecompressToBlock(out, 2, 4, 0)
			assert.Equal(t, 3.0, out.Get(0, 1))
			assert.Equal(t, 4.0, out.Get(0, 2))
			assert.Equal(t, 1.0, out.Get(1, 1))
			assert.Equal(t, 2.0, out.Get(1, 2))
		})
	}
}

func TestVariantAggregates(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			g := v.build()

			sum := []float64{0}
			g.ComputeSum(sum, testRows, false)
			assert.Equal(t, 20.0, sum[0])

			sumsq := []float64{0}
			g.ComputeSum(sumsq, testRows, true)
			assert.Equal(t, 60.0, sumsq[0])

			rowSums := make([]float64, testRows)
			g.ComputeRowSums(rowSums, false, 0, testRows)
			assert.Equal(t, []float64{3, 0, 7, 3, 0, 7}, rowSums)

			colSums := make([]float64, testCols)
			g.ComputeColSums(colSums, testRows, false)
			assert.Equal(t, []float64{0, 8, 12, 0}, colSums)

			assert.Equal(t, 0.0, g.ComputeMxx(math.Inf(1), matrix.OpMin, testRows))
			assert.Equal(t, 4.0, g.ComputeMxx(math.Inf(-1), matrix.OpMax, testRows))

			colMax := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1), math.Inf(-1)}
			g.ComputeColMxx(colMax, matrix.OpMax, testRows)
			assert.Equal(t, 3.0, colMax[1])
			assert.Equal(t, 4.0, colMax[2])

			rowMax := make([]float64, testRows)
			for i := range rowMax {
				rowMax[i] = math.Inf(-1)
			}
			g.ComputeRowMxx(rowMax, matrix.OpMax, 0, testRows)
			assert.Equal(t, []float64{2, 0, 4, 2, 0, 4}, rowMax)

			prod := []float64{1}
			g.ComputeProduct(prod, testRows)
			assert.Equal(t, 0.0, prod[0], "implicit or explicit zeros zero the product")

			assert.Equal(t, int64(8), g.NumberNonZeros(testRows))

			rnnz := make([]int, testRows)
			g.CountNonZerosPerRow(rnnz, 0, testRows)
			assert.Equal(t, []int{2, 0, 2, 2, 0, 2}, rnnz)
		})
	}
}

func TestVariantTSMM(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			result := make([]float64, testCols*testCols)
			v.build().TSMM(result, testCols, testRows)
			assert.Equal(t, 20.0, result[1*testCols+1]) // 1*1*2 + 3*3*2
			assert.Equal(t, 28.0, result[1*testCols+2]) // 1*2*2 + 3*4*2
			assert.Equal(t, 40.0, result[2*testCols+2]) // 2*2*2 + 4*4*2
			assert.Equal(t, 0.0, result[2*testCols+1], "lower triangle untouched")
		})
	}
}

func TestVariantRightMult(t *testing.T) {
	right := matrix.FromDense2D([][]float64{
		{9, 9, 9},
		{1, 0, 1},
		{0, 1, 1},
		{9, 9, 9},
	})
	// (1,2) -> (1,2,3); (3,4) -> (3,4,7)
	want := [][]float64{{1, 2, 3}, {0, 0, 0}, {3, 4, 7}, {1, 2, 3}, {0, 0, 0}, {3, 4, 7}}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			g := v.build().RightMultByMatrix(right)
			require.NotNil(t, g)
			assert.Equal(t, []int{0, 1, 2}, g.ColIndexes())
			got := matrix.NewBlock(testRows, 3, false)
			g.DecompressToBlock(got, 0, testRows, 0)
			for r, row := range want {
				for c, x := range row {
					assert.InDelta(t, x, got.Get(r, c), 1e-12, "row %d col %d", r, c)
				}
			}
		})
	}
}

func TestVariantRightMultEmpty(t *testing.T) {
	empty := matrix.NewBlock(testCols, 3, true)
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			assert.Nil(t, v.build().RightMultByMatrix(empty))
		})
	}
}

func TestVariantLeftMult(t *testing.T) {
	left := matrix.FromDense2D([][]float64{
		{1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 0, 0},
	})
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			result := matrix.NewBlock(2, testCols, false)
			v.build().LeftMultByMatrix(left, result, 0, 2)
			assert.InDelta(t, 8.0, result.Get(0, 1), 1e-12)
			assert.InDelta(t, 12.0, result.Get(0, 2), 1e-12)
			assert.InDelta(t, 1.0, result.Get(1, 1), 1e-12)
			assert.InDelta(t, 2.0, result.Get(1, 2), 1e-12)
			assert.Equal(t, 0.0, result.Get(0, 0))
		})
	}
}

func TestVariantScalarOp(t *testing.T) {
	addOne := matrix.NewScalarOp(matrix.OpAdd, 1, false)
	double := matrix.NewScalarOp(matrix.OpMultiply, 2, false)
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			plus := decompressed(v.build().ScalarOp(addOne, testRows), testCols)
			for r, row := range expected {
				assert.Equal(t, row[0]+1, plus.Get(r, 1), "row %d", r)
				assert.Equal(t, row[1]+1, plus.Get(r, 2), "row %d", r)
			}

			times := decompressed(v.build().ScalarOp(double, testRows), testCols)
			for r, row := range expected {
				assert.Equal(t, row[0]*2, times.Get(r, 1))
				assert.Equal(t, row[1]*2, times.Get(r, 2))
			}
		})
	}
}

func TestVariantBinaryRowOp(t *testing.T) {
	v4 := []float64{9, 2, 3, 9}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got := decompressed(v.build().BinaryRowOp(matrix.OpMultiply, v4, false, testRows), testCols)
			for r, row := range expected {
				assert.Equal(t, row[0]*2, got.Get(r, 1))
				assert.Equal(t, row[1]*3, got.Get(r, 2))
			}

			added := decompressed(v.build().BinaryRowOp(matrix.OpAdd, v4, false, testRows), testCols)
			for r, row := range expected {
				assert.Equal(t, row[0]+2, added.Get(r, 1), "row %d", r)
				assert.Equal(t, row[1]+3, added.Get(r, 2), "row %d", r)
			}
		})
	}
}

func TestVariantReplaceZero(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got := decompressed(v.build().Replace(0, 5, testRows), testCols)
			for r, row := range expected {
				wantA, wantB := row[0], row[1]
				if wantA == 0 {
					wantA = 5
				}
				if wantB == 0 {
					wantB = 5
				}
				assert.Equal(t, wantA, got.Get(r, 1), "row %d", r)
				assert.Equal(t, wantB, got.Get(r, 2), "row %d", r)
			}
		})
	}
}

func TestVariantSliceColumns(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			s := v.build().SliceColumns(2, 4)
			require.NotNil(t, s)
			assert.Equal(t, []int{0}, s.ColIndexes())
			out := matrix.NewBlock(testRows, 1, false)
			s.DecompressToBlock(out, 0, testRows, 0)
			for r, row := range expected {
				assert.Equal(t, row[1], out.Get(r, 0), "row %d", r)
			}

			assert.Nil(t, v.build().SliceColumns(3, 4), "empty intersection")
		})
	}
}

func TestVariantShiftAndContains(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			g := v.build().ShiftColIndexes(3)
			assert.Equal(t, []int{4, 5}, g.ColIndexes())

			orig := v.build()
			assert.True(t, orig.ContainsValue(3, testRows))
			assert.True(t, orig.ContainsValue(0, testRows))
			assert.False(t, orig.ContainsValue(9, testRows))
		})
	}
}

func TestVariantSerializationRoundTrip(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			g := v.build()
			var buf bytes.Buffer
			require.NoError(t, WriteGroups(&buf, []ColGroup{g}))
			assert.Equal(t, 4+g.DiskSize(), int64(buf.Len()), "disk size must match the written bytes")

			groups, err := ReadGroups(&buf, testRows)
			require.NoError(t, err)
			require.Len(t, groups, 1)
			assert.Equal(t, g.Type(), groups[0].Type())

			want := decompressed(g, testCols)
			got := decompressed(groups[0], testCols)
			assert.True(t, want.EqualsEps(got, 0))
		})
	}
}

func TestVariantCopyIsDeep(t *testing.T) {
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			g := v.build()
			cp := g.Copy()
			want := decompressed(g, testCols)
			got := decompressed(cp, testCols)
			assert.True(t, want.EqualsEps(got, 0))
		})
	}
}

func TestConstGroup(t *testing.T) {
	g := NewConst([]int{0, 1, 2}, NewDictionary([]float64{1, 1, 2}))

	sum := []float64{0}
	g.ComputeSum(sum, 3, false)
	assert.Equal(t, 12.0, sum[0])

	colSums := make([]float64, 3)
	g.ComputeColSums(colSums, 3, false)
	assert.Equal(t, []float64{3, 3, 6}, colSums)

	assert.Equal(t, 1.0, g.ComputeMxx(math.Inf(1), matrix.OpMin, 3))
	assert.Equal(t, 2.0, g.ComputeMxx(math.Inf(-1), matrix.OpMax, 3))

	result := make([]float64, 9)
	g.TSMM(result, 3, 3)
	assert.Equal(t, 3.0, result[0])
	assert.Equal(t, 3.0, result[1])
	assert.Equal(t, 6.0, result[2])
	assert.Equal(t, 3.0, result[4])
	assert.Equal(t, 6.0, result[5])
	assert.Equal(t, 12.0, result[8])

	prod := []float64{1}
	g.ComputeProduct(prod, 3)
	assert.Equal(t, math.Pow(1, 3)*math.Pow(1, 3)*math.Pow(2, 3), prod[0])
}

func TestEmptyGroup(t *testing.T) {
	g := NewEmpty([]int{0, 2})
	assert.Equal(t, 0.0, g.Get(1, 0))
	assert.True(t, g.ContainsValue(0, 4))
	assert.False(t, g.ContainsValue(1, 4))
	assert.Equal(t, int64(0), g.NumberNonZeros(4))

	// A non sparse-safe scalar op turns the group constant.
	plus := g.ScalarOp(matrix.NewScalarOp(matrix.OpAdd, 2, false), 4)
	assert.Equal(t, TypeConst, plus.Type())
	assert.Equal(t, 2.0, plus.Get(0, 0))

	// Replacing zero materializes the replacement.
	rep := g.Replace(0, 7, 4)
	assert.Equal(t, TypeConst, rep.Type())
	assert.Equal(t, 7.0, rep.Get(0, 2))
}

func TestDictionaryOps(t *testing.T) {
	d := NewDictionary([]float64{1, 2, 0, 4})

	assert.Equal(t, 2, d.NumValues(2))
	assert.Equal(t, 4.0, d.GetValue(3))
	assert.Equal(t, 3.0+8.0, d.Sum([]int{1, 2}, 2))
	assert.Equal(t, 5.0+32.0, d.SumSq([]int{1, 2}, 2))
	assert.Equal(t, []float64{3, 4}, d.SumAllRowsToDouble(false, 2))
	assert.Equal(t, []float64{2, 0}, d.ProductAllRows(2))
	assert.True(t, d.ContainsValue(4))
	assert.False(t, d.ContainsValue(3))
	assert.Equal(t, int64(2*2+1*2), d.NumberNonZeros([]int{2, 2}, 2))

	sliced := d.SliceOutColumnRange(1, 2, 2)
	assert.Equal(t, []float64{2, 4}, sliced.Values())

	replaced := d.Replace(0, 9, 2)
	assert.Equal(t, 9.0, replaced.GetValue(2))

	mb := d.AsBlock(2)
	assert.Equal(t, 2, mb.Rows())
	assert.Equal(t, 2, mb.Cols())
	assert.Equal(t, 2.0, mb.Get(0, 1))
}

func TestMatrixBlockDictionary(t *testing.T) {
	mb := matrix.FromDense2D([][]float64{{1, 0}, {0, 4}}).ToSparse()
	d := NewMatrixBlockDictionary(mb)

	assert.Equal(t, 2, d.NumValues(2))
	assert.Equal(t, []float64{1, 0, 0, 4}, d.Values())
	assert.Equal(t, 1.0+8.0, d.Sum([]int{1, 2}, 2))

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))
	assert.Equal(t, d.DiskSize(), int64(buf.Len()))
	got, err := readDictionary(&buf)
	require.NoError(t, err)
	assert.Equal(t, d.Values(), got.Values())
}
