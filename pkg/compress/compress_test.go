package compress

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/compression"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/testutil"
)

// compressOf builds a compressed matrix and drops the construction-time
// cache so kernels run on the compressed form rather than the seed block.
func compressOf(d *matrix.Block) *CompressedMatrix {
	m := FromDense(d, 1)
	m.ClearSoftReferenceToDecompressed()
	return m
}

func testBlocks() map[string]*matrix.Block {
	return map[string]*matrix.Block{
		"const": matrix.FromDense2D([][]float64{
			{1, 1, 2}, {1, 1, 2}, {1, 1, 2},
		}),
		"identity": matrix.FromDense2D([][]float64{
			{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1},
		}),
		"mixed": matrix.FromDense2D([][]float64{
			{1, 5, 0, 2.5},
			{1, 6, 0, 2.5},
			{1, 5, 3, 0},
			{1, 5, 0, 2.5},
			{1, 6, 0, 0},
			{1, 5, 3, 2.5},
		}),
		"lowcard": testutil.LowCardinalityBlock(64, 5, []float64{0, 1, 2.5, -3}, 7),
		"random":  testutil.RandomBlock(20, 6, 10, 11),
	}
}

func TestDecompressMatchesDense(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			testutil.RequireBlocksEqual(t, d, m.Decompress(1), 0, "decompress")
		})
	}
}

func TestDecompressParallelBitwiseIdentical(t *testing.T) {
	d := testutil.LowCardinalityBlock(100, 7, []float64{0, 1, 2, 3.25}, 3)
	m := compressOf(d)
	d1 := m.Decompress(1).Copy()
	m.ClearSoftReferenceToDecompressed()
	d8 := m.Decompress(8)
	require.Equal(t, len(d1.DenseValues()), len(d8.DenseValues()))
	for i, v := range d1.DenseValues() {
		if v != d8.DenseValues()[i] {
			t.Fatalf("cell %d differs bitwise: %v vs %v", i, v, d8.DenseValues()[i])
		}
	}
}

func TestDecompressIdempotentViaCache(t *testing.T) {
	m := compressOf(testBlocks()["mixed"])
	d1 := m.Decompress(1)
	d2 := m.Decompress(1)
	assert.Same(t, d1, d2, "second decompress must hit the weak cache")

	m.ClearSoftReferenceToDecompressed()
	assert.Nil(t, m.GetCachedDecompressed())
	d3 := m.Decompress(1)
	assert.True(t, d1.EqualsEps(d3, 0))
}

func TestConstScenario(t *testing.T) {
	d := testBlocks()["const"]
	m := compressOf(d)

	require.Len(t, m.ColGroups(), 1)
	assert.Equal(t, colgroup.TypeConst, m.ColGroups()[0].Type())

	assert.Equal(t, 12.0, m.Sum(1))
	assert.Equal(t, 1.0, m.Min(1))
	assert.Equal(t, 2.0, m.Max(1))

	colSums, err := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggSum, Dir: matrix.DirCol}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, colSums.Get(0, 0))
	assert.Equal(t, 3.0, colSums.Get(0, 1))
	assert.Equal(t, 6.0, colSums.Get(0, 2))

	tsmm := m.TransposeSelfMult(1)
	want := matrix.FromDense2D([][]float64{
		{3, 3, 6}, {3, 3, 6}, {6, 6, 12},
	})
	testutil.RequireBlocksEqual(t, want, tsmm, 1e-12, "tsmm")
}

func TestIdentityDDCScenario(t *testing.T) {
	// I4 as an explicit four-column DDC: tuple 0 is all-zero and tuples
	// 1..4 are the unit rows.
	dict := colgroup.NewDictionary([]float64{
		0, 0, 0, 0,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	g := colgroup.NewDDC([]int{0, 1, 2, 3}, dict, []uint32{1, 2, 3, 4})
	m := New(4, 4)
	m.AllocateColGroup(g)
	m.RecomputeNonZeros()
	assert.Equal(t, int64(4), m.NNZ())

	eye := matrix.FromDense2D([][]float64{
		{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1},
	})
	testutil.RequireBlocksEqual(t, eye, m.Decompress(1), 0, "identity decompress")

	rowSums, err := m.AggregateUnary(matrix.AggregateOp{Kind: matrix.AggSum, Dir: matrix.DirRow}, 1)
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		assert.Equal(t, 1.0, rowSums.Get(r, 0))
	}

	testutil.RequireBlocksEqual(t, eye, m.TransposeSelfMult(1), 1e-12, "identity tsmm")
}

func TestAggregatesMatchDense(t *testing.T) {
	kinds := []matrix.AggKind{matrix.AggSum, matrix.AggSumSq, matrix.AggMean, matrix.AggMin, matrix.AggMax}
	dirs := []matrix.AggDir{matrix.DirAll, matrix.DirRow, matrix.DirCol}
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			for _, kind := range kinds {
				for _, dir := range dirs {
					op := matrix.AggregateOp{Kind: kind, Dir: dir}
					got, err := m.AggregateUnary(op, 2)
					require.NoError(t, err)
					want := d.AggregateUnary(op)
					testutil.RequireBlocksEqual(t, want, got, 1e-9, kind.String())
				}
			}
		})
	}
}

func TestProductFallsBack(t *testing.T) {
	d := matrix.FromDense2D([][]float64{{1, 2}, {3, 4}})
	m := compressOf(d)
	assert.InDelta(t, 24.0, m.Prod(1), 1e-12)
}

func TestScalarOpMatchesDense(t *testing.T) {
	ops := map[string]matrix.ScalarOp{
		"times3":  matrix.NewScalarOp(matrix.OpMultiply, 3, false),
		"plus2":   matrix.NewScalarOp(matrix.OpAdd, 2, false),
		"minus1r": matrix.NewScalarOp(matrix.OpSubtract, 1, true),
	}
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			for opName, op := range ops {
				got, err := m.ScalarOp(op, 1)
				require.NoError(t, err)
				want := d.ScalarApply(op)
				testutil.RequireBlocksEqual(t, want, got.Decompress(1), 1e-12, opName)
			}
		})
	}
}

func TestBinaryCellRowVector(t *testing.T) {
	d := testBlocks()["mixed"]
	m := compressOf(d)
	row := testutil.RandomBlock(1, d.Cols(), 4, 5)
	for _, op := range []matrix.BinaryOp{matrix.OpAdd, matrix.OpMultiply, matrix.OpLessEqual} {
		got, err := m.BinaryCellOp(op, row, false, 1)
		require.NoError(t, err)
		want, err := d.BinaryCell(op, row)
		require.NoError(t, err)
		testutil.RequireBlocksEqual(t, want, got.Decompress(1), 1e-12, op.String())
	}
}

func TestBinaryCellMatrixFallback(t *testing.T) {
	d := testBlocks()["mixed"]
	m := compressOf(d)
	rhs := testutil.RandomBlock(d.Rows(), d.Cols(), 2, 9)
	got, err := m.BinaryCellOp(matrix.OpSubtract, rhs, false, 1)
	require.NoError(t, err)
	want, err := d.BinaryCell(matrix.OpSubtract, rhs)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, want, got.Decompress(1), 1e-12, "matrix rhs")

	// Left side: rhs - m.
	gotL, err := m.BinaryCellOp(matrix.OpSubtract, rhs, true, 1)
	require.NoError(t, err)
	wantL, err := rhs.BinaryCell(matrix.OpSubtract, d)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, wantL, gotL.Decompress(1), 1e-12, "left matrix rhs")
}

func TestRightMultOverlap(t *testing.T) {
	// Two column groups guarantee an overlapping product.
	d := matrix.FromDense2D([][]float64{
		{1, 5}, {1, 6}, {1, 5},
	})
	m := compressOf(d)
	require.Greater(t, len(m.ColGroups()), 1)

	right := matrix.FromDense2D([][]float64{
		{1, 2, 3}, {4, 5, 6},
	})
	res, err := m.RightMultByMatrix(right, 1, true)
	require.NoError(t, err)
	assert.True(t, res.IsOverlapping())
	assert.Len(t, res.ColGroups(), 2)

	want, err := matrix.MatMult(d, right, 1)
	require.NoError(t, err)

	// Reading any cell requires summation over the groups.
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, want.Get(r, c), res.Get(r, c), 1e-12)
		}
	}
	testutil.RequireBlocksEqual(t, want, res.Decompress(1), 1e-12, "overlap decompress")

	// Without overlap permission the result collapses densely.
	collapsed, err := m.RightMultByMatrix(right, 1, false)
	require.NoError(t, err)
	assert.False(t, collapsed.IsOverlapping())
	testutil.RequireBlocksEqual(t, want, collapsed.Decompress(1), 1e-12, "collapsed")
}

func TestRightMultMatchesDense(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			right := testutil.RandomBlock(d.Cols(), 4, 3, 13)
			want, err := matrix.MatMult(d, right, 1)
			require.NoError(t, err)
			for _, allowOverlap := range []bool{false, true} {
				res, err := m.RightMultByMatrix(right, 2, allowOverlap)
				require.NoError(t, err)
				testutil.RequireBlocksEqual(t, want, res.Decompress(1), 1e-9, name)
			}
		})
	}
}

func TestLeftMultMatchesDense(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			left := testutil.RandomBlock(3, d.Rows(), 2, 17)
			want, err := matrix.MatMult(left, d, 1)
			require.NoError(t, err)
			for _, k := range []int{1, 4} {
				got, err := m.LeftMultByMatrix(left, k)
				require.NoError(t, err)
				testutil.RequireBlocksEqual(t, want, got, 1e-9, name)
			}
		})
	}
}

func TestTSMMMatchesDense(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			want, err := matrix.MatMult(d.Transpose(), d, 1)
			require.NoError(t, err)
			for _, k := range []int{1, 4} {
				testutil.RequireBlocksEqual(t, want, m.TransposeSelfMult(k), 1e-9, name)
			}
		})
	}
}

func TestTSMMRightRejected(t *testing.T) {
	m := compressOf(testBlocks()["const"])
	_, err := m.TransposeSelfMultOp(TSMMRight, 1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidState))

	got, err := m.TransposeSelfMultOp(TSMMLeft, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rows())
}

func TestTSMMOverlapping(t *testing.T) {
	d := matrix.FromDense2D([][]float64{
		{1, 5}, {1, 6}, {1, 5}, {2, 6},
	})
	m := compressOf(d)
	right := testutil.RandomBlock(2, 3, 2, 23)
	ov, err := m.RightMultByMatrix(right, 1, true)
	require.NoError(t, err)
	require.True(t, ov.IsOverlapping())

	dense := ov.Decompress(1)
	want, err := matrix.MatMult(dense.Transpose(), dense, 1)
	require.NoError(t, err)
	ov.ClearSoftReferenceToDecompressed()
	testutil.RequireBlocksEqual(t, want, ov.TransposeSelfMult(1), 1e-9, "overlapping tsmm")
}

func TestReplace(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			got, err := m.Replace(1, -9, 1)
			require.NoError(t, err)
			testutil.RequireBlocksEqual(t, d.ReplaceAll(1, -9), got.Decompress(1), 0, "replace ones")

			gotZero, err := m.Replace(0, 5, 1)
			require.NoError(t, err)
			testutil.RequireBlocksEqual(t, d.ReplaceAll(0, 5), gotZero.Decompress(1), 0, "replace zeros")
		})
	}
}

func TestSlice(t *testing.T) {
	d := testBlocks()["mixed"]
	m := compressOf(d)

	colSlice, err := m.Slice(0, d.Rows(), 1, 3)
	require.NoError(t, err)
	wantCols, err := d.Slice(0, d.Rows(), 1, 3)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, wantCols, colSlice.Decompress(1), 0, "column slice")

	rowSlice, err := m.Slice(1, 4, 0, d.Cols())
	require.NoError(t, err)
	wantRows, err := d.Slice(1, 4, 0, d.Cols())
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, wantRows, rowSlice.Decompress(1), 0, "row slice")

	sub, err := m.Slice(2, 5, 1, 4)
	require.NoError(t, err)
	wantSub, err := d.Slice(2, 5, 1, 4)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, wantSub, sub.Decompress(1), 0, "sub slice")

	_, err = m.Slice(0, d.Rows()+1, 0, 1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestAppendCBind(t *testing.T) {
	a := testBlocks()["const"]
	b := testBlocks()["mixed"]
	bSlice, err := b.Slice(0, 3, 0, 4)
	require.NoError(t, err)

	ma := compressOf(a)
	mb := compressOf(bSlice)
	got, err := ma.AppendCBind(mb)
	require.NoError(t, err)
	assert.Equal(t, a.Cols()+bSlice.Cols(), got.Cols())

	want := matrix.NewBlock(3, 7, false)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want.Set(r, c, a.Get(r, c))
		}
		for c := 0; c < 4; c++ {
			want.Set(r, 3+c, bSlice.Get(r, c))
		}
	}
	want.RecomputeNonZeros()
	testutil.RequireBlocksEqual(t, want, got.Decompress(1), 0, "cbind")

	// rbind falls back to the dense path.
	rbound, err := ma.AppendBlocks([]*matrix.Block{a}, false)
	require.NoError(t, err)
	assert.Equal(t, 6, rbound.Rows())
	assert.InDelta(t, 24.0, rbound.Decompress(1).Sum(), 1e-12)
}

func TestChainMatrixMult(t *testing.T) {
	x := matrix.FromDense2D([][]float64{
		{1, 2, 0},
		{1, 2, 3},
		{4, 2, 0},
		{1, 5, 3},
	})
	v := matrix.FromDense2D([][]float64{{1}, {2}, {3}})
	w := matrix.FromDense2D([][]float64{{1}, {0.5}, {2}, {1}})
	m := compressOf(x)

	// t(X)(Xv) densely.
	xv, err := matrix.MatMult(x, v, 1)
	require.NoError(t, err)
	want, err := matrix.MatMult(x.Transpose(), xv, 1)
	require.NoError(t, err)
	got, err := m.ChainMatrixMult(v, nil, ChainXtXv, true, 1)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, want, got, 1e-12, "XtXv")

	// Weighted variant.
	require.NoError(t, xv.BinaryCellInPlace(matrix.OpMultiply, w))
	wantW, err := matrix.MatMult(x.Transpose(), xv, 1)
	require.NoError(t, err)
	gotW, err := m.ChainMatrixMult(v, w, ChainXtwXv, true, 1)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, wantW, gotW, 1e-12, "XtwXv")
}

func TestSquash(t *testing.T) {
	d := matrix.FromDense2D([][]float64{
		{1, 5}, {1, 6}, {1, 5},
	})
	m := compressOf(d)
	right := matrix.FromDense2D([][]float64{{1, 2}, {3, 4}})
	ov, err := m.RightMultByMatrix(right, 1, true)
	require.NoError(t, err)
	require.True(t, ov.IsOverlapping())

	sq := ov.Squash(1)
	assert.False(t, sq.IsOverlapping())
	want, err := matrix.MatMult(d, right, 1)
	require.NoError(t, err)
	sq.ClearSoftReferenceToDecompressed()
	testutil.RequireBlocksEqual(t, want, sq.Decompress(1), 1e-12, "squash")
}

func TestContainsValue(t *testing.T) {
	d := testBlocks()["mixed"]
	m := compressOf(d)
	ok, err := m.ContainsValue(6)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.ContainsValue(99)
	require.NoError(t, err)
	assert.False(t, ok)

	ov, err := compressOf(matrix.FromDense2D([][]float64{{1, 5}, {1, 6}})).
		RightMultByMatrix(matrix.FromDense2D([][]float64{{1, 1}, {1, 1}}), 1, true)
	require.NoError(t, err)
	require.True(t, ov.IsOverlapping())
	_, err = ov.ContainsValue(2)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupported))
}

func TestMisuseRejected(t *testing.T) {
	m := compressOf(testBlocks()["const"])
	assert.True(t, errors.IsType(m.SetValue(0, 0, 1), errors.ErrorTypeMisuse))
	assert.True(t, errors.IsType(m.Reset(1, 1, false), errors.ErrorTypeMisuse))
	assert.True(t, errors.IsType(m.AppendValue(0, 0, 1), errors.ErrorTypeMisuse))
	assert.True(t, errors.IsType(m.AllocateDenseBlock(), errors.ErrorTypeMisuse))
	_, err := m.DenseValues()
	assert.True(t, errors.IsType(err, errors.ErrorTypeMisuse))
}

func TestRecomputeNonZerosCompactsEmpty(t *testing.T) {
	d := matrix.NewBlock(4, 3, false)
	m := compressOf(d)
	assert.Equal(t, int64(0), m.NNZ())
	require.Len(t, m.ColGroups(), 1)
	assert.Equal(t, colgroup.TypeEmpty, m.ColGroups()[0].Type())
}

func TestFallbackOperations(t *testing.T) {
	col := matrix.FromDense2D([][]float64{{3}, {1}, {2}, {2}})
	m := compressOf(col)

	sorted, err := m.SortColumn()
	require.NoError(t, err)
	assert.Equal(t, 1.0, sorted.Get(0, 0))
	assert.Equal(t, 3.0, sorted.Get(3, 0))

	q, err := m.PickValue(0.5, true)
	require.NoError(t, err)
	assert.Equal(t, 2.0, q)

	mean, err := m.CM(1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, mean, 1e-12)

	groups := matrix.FromDense2D([][]float64{{1}, {2}, {1}, {2}})
	agg, err := m.GroupedAgg(groups, 2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, agg.Get(0, 0))
	assert.Equal(t, 3.0, agg.Get(1, 0))

	tr := m.Transpose(1)
	assert.Equal(t, 1, tr.Rows())
	assert.Equal(t, 4, tr.Cols())
	assert.Equal(t, 3.0, tr.Get(0, 0))
}

func TestScalarOpOverlapping(t *testing.T) {
	d := matrix.FromDense2D([][]float64{{1, 5}, {1, 6}, {2, 5}})
	right := testutil.RandomBlock(2, 3, 2, 31)
	ov, err := compressOf(d).RightMultByMatrix(right, 1, true)
	require.NoError(t, err)
	require.True(t, ov.IsOverlapping())
	dense := ov.Decompress(1).Copy()
	ov.ClearSoftReferenceToDecompressed()

	// Multiplication distributes over summed contributions.
	times2, err := ov.ScalarOp(matrix.NewScalarOp(matrix.OpMultiply, 2, false), 1)
	require.NoError(t, err)
	assert.True(t, times2.IsOverlapping())
	testutil.RequireBlocksEqual(t, dense.ScalarApply(matrix.NewScalarOp(matrix.OpMultiply, 2, false)),
		times2.Decompress(1), 1e-12, "overlap times2")

	// Addition goes through the constant-group path.
	plus3, err := ov.BinaryCellOp(matrix.OpAdd, matrix.FromDense2D([][]float64{{3}}), false, 1)
	require.NoError(t, err)
	testutil.RequireBlocksEqual(t, dense.ScalarApply(matrix.NewScalarOp(matrix.OpAdd, 3, false)),
		plus3.Decompress(1), 1e-12, "overlap plus3")

	// Squaring must collapse first.
	sq, err := ov.ScalarOp(matrix.ScalarOp{Fn: func(v float64) float64 { return v * v }}, 1)
	require.NoError(t, err)
	wantSq := dense.ScalarApply(matrix.ScalarOp{Fn: func(v float64) float64 { return v * v }})
	testutil.RequireBlocksEqual(t, wantSq, sq.Decompress(1), 1e-12, "overlap square")
}

func TestSerializationRoundTrip(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			var buf bytes.Buffer
			require.NoError(t, m.Write(&buf))

			got, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, m.Rows(), got.Rows())
			assert.Equal(t, m.Cols(), got.Cols())
			testutil.RequireBlocksEqual(t, d, got.Decompress(1), 0, "round trip")
		})
	}
}

func TestSerializationDenseFallback(t *testing.T) {
	// 10 000 distinct values defeat every dictionary encoding, so the
	// write path must fall back to a single embedded uncompressed group.
	d := testutil.RandomBlock(100, 100, 1000, 42)
	m := compressOf(d)
	require.Greater(t, len(m.ColGroups()), 1)

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got.ColGroups(), 1)
	assert.Equal(t, colgroup.TypeUncompressed, got.ColGroups()[0].Type())
	testutil.RequireBlocksEqual(t, d, got.Decompress(1), 0, "fallback round trip")

	// The written size equals the dense estimate plus the container and
	// group headers.
	wantLen := int64(4+4+8+1) + 4 + (1 + 4 + 4*100) +
		matrix.EstimateDiskSize(100, 100, d.NNZ())
	assert.Equal(t, wantLen, int64(buf.Len()))
}

func TestWriteFileRoundTrip(t *testing.T) {
	d := testBlocks()["mixed"]
	m := compressOf(d)
	for _, codec := range []string{"none", "zstd", "lz4", "snappy", "s2"} {
		path := t.TempDir() + "/m." + codec + ".tsr"
		require.NoError(t, m.WriteFile(path, compression.Algorithm(codec)))
		got, err := ReadFile(path)
		require.NoError(t, err)
		testutil.RequireBlocksEqual(t, d, got.Decompress(1), 0, codec)
	}
}

func TestOverlappingSingleGroupReportsFalse(t *testing.T) {
	m := New(2, 2)
	m.AllocateColGroup(colgroup.NewConst([]int{0, 1}, colgroup.NewDictionary([]float64{1, 2})))
	m.SetOverlapping(true)
	assert.False(t, m.IsOverlapping(), "single-group matrices are never overlapping in effect")
}

func TestInMemorySizeAccountsGroups(t *testing.T) {
	m := compressOf(testBlocks()["mixed"])
	var groupTotal int64
	for _, g := range m.ColGroups() {
		groupTotal += g.MemSize()
	}
	assert.Greater(t, m.InMemorySize(), groupTotal)
}

func TestReExpand(t *testing.T) {
	col := matrix.FromDense2D([][]float64{{1}, {3}, {2}, {3}})
	m := compressOf(col)
	got, err := m.ReExpand(3, true, 1)
	require.NoError(t, err)
	want := matrix.FromDense2D([][]float64{
		{1, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 0, 1},
	})
	testutil.RequireBlocksEqual(t, want, got, 0, "one-hot expansion")
}

func TestGetMatchesDense(t *testing.T) {
	for name, d := range testBlocks() {
		t.Run(name, func(t *testing.T) {
			m := compressOf(d)
			for r := 0; r < d.Rows(); r++ {
				for c := 0; c < d.Cols(); c++ {
					if math.Abs(m.Get(r, c)-d.Get(r, c)) > 1e-12 {
						t.Fatalf("cell (%d,%d): got %v want %v", r, c, m.Get(r, c), d.Get(r, c))
					}
				}
			}
		})
	}
}
