package matrix

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockGetSet(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		b := NewBlock(3, 4, sparse)
		b.Set(0, 0, 1.5)
		b.Set(2, 3, -2)
		b.Set(1, 2, 7)
		b.Set(1, 2, 0) // delete again

		assert.Equal(t, 1.5, b.Get(0, 0))
		assert.Equal(t, -2.0, b.Get(2, 3))
		assert.Equal(t, 0.0, b.Get(1, 2))
		assert.Equal(t, 0.0, b.Get(1, 1))
		assert.Equal(t, int64(2), b.RecomputeNonZeros())
	}
}

func TestBlockSparseDenseConversion(t *testing.T) {
	b := FromDense2D([][]float64{
		{1, 0, 0, 0},
		{0, 0, 2, 0},
	})
	require.False(t, b.IsSparse())
	b.ToSparse()
	require.True(t, b.IsSparse())
	assert.Equal(t, 1.0, b.Get(0, 0))
	assert.Equal(t, 2.0, b.Get(1, 2))
	b.ToDense()
	assert.Equal(t, 2.0, b.Get(1, 2))
	assert.Equal(t, int64(2), b.RecomputeNonZeros())
}

func TestBlockSlice(t *testing.T) {
	b := FromDense2D([][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	s, err := b.Slice(1, 3, 0, 2)
	require.NoError(t, err)
	want := FromDense2D([][]float64{{4, 5}, {7, 8}})
	assert.True(t, want.EqualsEps(s, 0))

	_, err = b.Slice(0, 4, 0, 1)
	assert.Error(t, err)
}

func TestTranspose(t *testing.T) {
	b := FromDense2D([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	tr := b.Transpose()
	want := FromDense2D([][]float64{{1, 4}, {2, 5}, {3, 6}})
	assert.True(t, want.EqualsEps(tr, 0))

	sp := b.Copy().ToSparse()
	trSp := sp.Transpose()
	assert.True(t, want.EqualsEps(trSp, 0))
	assert.True(t, trSp.IsSparse())
}

func TestMatMult(t *testing.T) {
	a := FromDense2D([][]float64{
		{1, 2},
		{3, 4},
		{5, 6},
	})
	b := FromDense2D([][]float64{
		{7, 8, 9},
		{10, 11, 12},
	})
	want := FromDense2D([][]float64{
		{27, 30, 33},
		{61, 68, 75},
		{95, 106, 117},
	})
	for _, k := range []int{1, 4} {
		got, err := MatMult(a, b, k)
		require.NoError(t, err)
		assert.True(t, want.EqualsEps(got, 1e-12), "k=%d", k)
	}

	// Sparse operands go through the row-iteration path.
	got, err := MatMult(a.Copy().ToSparse(), b.Copy().ToSparse(), 1)
	require.NoError(t, err)
	assert.True(t, want.EqualsEps(got, 1e-12))

	_, err = MatMult(a, a, 1)
	assert.Error(t, err)
}

func TestScalarApply(t *testing.T) {
	b := FromDense2D([][]float64{{0, 2}, {-1, 0}}).ToSparse()

	double := b.ScalarApply(ScalarOp{Fn: func(v float64) float64 { return v * 2 }})
	assert.True(t, double.IsSparse(), "sparse-safe op keeps sparse layout")
	assert.Equal(t, 4.0, double.Get(0, 1))
	assert.Equal(t, 0.0, double.Get(0, 0))

	plusOne := b.ScalarApply(NewScalarOp(OpAdd, 1, false))
	assert.False(t, plusOne.IsSparse(), "non sparse-safe op densifies")
	assert.Equal(t, 1.0, plusOne.Get(0, 0))
	assert.Equal(t, 0.0, plusOne.Get(1, 0))
}

func TestBinaryCellBroadcast(t *testing.T) {
	b := FromDense2D([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})

	scalar, err := b.BinaryCell(OpMultiply, FromDense2D([][]float64{{2}}))
	require.NoError(t, err)
	assert.Equal(t, 12.0, scalar.Get(1, 2))

	row, err := b.BinaryCell(OpAdd, FromDense2D([][]float64{{10, 20, 30}}))
	require.NoError(t, err)
	assert.Equal(t, 11.0, row.Get(0, 0))
	assert.Equal(t, 36.0, row.Get(1, 2))

	col, err := b.BinaryCell(OpSubtract, FromDense2D([][]float64{{1}, {2}}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, col.Get(0, 0))
	assert.Equal(t, 4.0, col.Get(1, 2))

	_, err = b.BinaryCell(OpAdd, FromDense2D([][]float64{{1, 2}}))
	assert.Error(t, err)
}

func TestAggregateUnary(t *testing.T) {
	b := FromDense2D([][]float64{
		{1, -2, 3},
		{4, 5, -6},
	})
	assert.Equal(t, 5.0, b.Sum())
	assert.Equal(t, 91.0, b.SumSq())
	assert.InDelta(t, 5.0/6.0, b.Mean(), 1e-12)
	assert.Equal(t, -6.0, b.Min())
	assert.Equal(t, 5.0, b.Max())
	assert.Equal(t, 1.0*-2*3*4*5*-6, b.Prod())

	rows := b.AggregateUnary(AggregateOp{Kind: AggSum, Dir: DirRow})
	assert.Equal(t, 2.0, rows.Get(0, 0))
	assert.Equal(t, 3.0, rows.Get(1, 0))

	cols := b.AggregateUnary(AggregateOp{Kind: AggMax, Dir: DirCol})
	assert.Equal(t, 4.0, cols.Get(0, 0))
	assert.Equal(t, 5.0, cols.Get(0, 1))
	assert.Equal(t, 3.0, cols.Get(0, 2))
}

func TestReplaceAll(t *testing.T) {
	b := FromDense2D([][]float64{{1, math.NaN()}, {0, 1}})
	noNaN := b.ReplaceAll(math.NaN(), 0)
	assert.Equal(t, 0.0, noNaN.Get(0, 1))
	assert.Equal(t, 1.0, noNaN.Get(0, 0))

	zeroFilled := b.ReplaceAll(0, 9)
	assert.Equal(t, 9.0, zeroFilled.Get(1, 0))
}

func TestContainsValue(t *testing.T) {
	b := FromDense2D([][]float64{{1, 0}, {2, 3}})
	assert.True(t, b.ContainsValue(3))
	assert.True(t, b.ContainsValue(0))
	assert.False(t, b.ContainsValue(7))

	full := FromDense2D([][]float64{{1, 2}})
	assert.False(t, full.ContainsValue(0))
}

func TestBlockIORoundTrip(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		b := FromDense2D([][]float64{
			{1, 0, 3},
			{0, 0, 0},
			{4, 5, 0},
		})
		if sparse {
			b.ToSparse()
		}
		var buf bytes.Buffer
		require.NoError(t, b.Write(&buf))
		assert.Equal(t, b.DiskSize(), int64(buf.Len()))

		got, err := ReadBlock(&buf)
		require.NoError(t, err)
		assert.Equal(t, sparse, got.IsSparse())
		assert.True(t, b.EqualsEps(got, 0))
	}
}

func TestStats(t *testing.T) {
	v := FromDense2D([][]float64{{1}, {2}, {3}, {4}})

	mean, err := v.CM(1, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, mean, 1e-12)

	variance, err := v.CM(2, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, variance, 1e-12)

	q, err := v.PickValue(0.5, true)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, q, 1e-12)

	cov, err := v.Cov(v)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, cov, 1e-12)

	sorted, err := FromDense2D([][]float64{{3}, {1}, {2}}).SortColumn()
	require.NoError(t, err)
	assert.Equal(t, 1.0, sorted.Get(0, 0))
	assert.Equal(t, 3.0, sorted.Get(2, 0))
}
