package matrix

import (
	"math"
	"sort"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// CM computes the order-k central moment of a single-column block with
// optional per-row weights (nil weights mean uniform).
func (b *Block) CM(order int, weights *Block) (float64, error) {
	if b.cols != 1 {
		return 0, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"central moment requires a column vector, got %dx%d", b.rows, b.cols)
	}
	if weights != nil && (weights.rows != b.rows || weights.cols != 1) {
		return 0, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"weights shape %dx%d does not match %d rows", weights.rows, weights.cols, b.rows)
	}
	var wSum, mean float64
	for r := 0; r < b.rows; r++ {
		w := 1.0
		if weights != nil {
			w = weights.Get(r, 0)
		}
		wSum += w
		mean += w * b.Get(r, 0)
	}
	if wSum == 0 {
		return 0, nil
	}
	mean /= wSum
	var m float64
	for r := 0; r < b.rows; r++ {
		w := 1.0
		if weights != nil {
			w = weights.Get(r, 0)
		}
		m += w * math.Pow(b.Get(r, 0)-mean, float64(order))
	}
	return m / wSum, nil
}

// Cov computes the covariance of two column vectors.
func (b *Block) Cov(other *Block) (float64, error) {
	if b.cols != 1 || other.cols != 1 || b.rows != other.rows {
		return 0, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"covariance requires matching column vectors, got %dx%d and %dx%d",
			b.rows, b.cols, other.rows, other.cols)
	}
	if b.rows == 0 {
		return 0, nil
	}
	n := float64(b.rows)
	var mx, my float64
	for r := 0; r < b.rows; r++ {
		mx += b.Get(r, 0)
		my += other.Get(r, 0)
	}
	mx /= n
	my /= n
	var cov float64
	for r := 0; r < b.rows; r++ {
		cov += (b.Get(r, 0) - mx) * (other.Get(r, 0) - my)
	}
	return cov / n, nil
}

// SortColumn returns the values of a single-column block in ascending
// order.
func (b *Block) SortColumn() (*Block, error) {
	if b.cols != 1 {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"sort requires a column vector, got %dx%d", b.rows, b.cols)
	}
	vals := make([]float64, b.rows)
	for r := 0; r < b.rows; r++ {
		vals[r] = b.Get(r, 0)
	}
	sort.Float64s(vals)
	return FromSlice(b.rows, 1, vals), nil
}

// PickValue returns the q-quantile (0 <= q <= 1) of a single-column block.
// With average set, the two straddling order statistics are averaged.
func (b *Block) PickValue(q float64, average bool) (float64, error) {
	sorted, err := b.SortColumn()
	if err != nil {
		return 0, err
	}
	if b.rows == 0 {
		return 0, nil
	}
	pos := q * float64(b.rows-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if average && lo != hi {
		return (sorted.Get(lo, 0) + sorted.Get(hi, 0)) / 2, nil
	}
	return sorted.Get(int(math.Round(pos)), 0), nil
}

// Ctable builds the contingency table of two equally shaped blocks: cell
// (a[i,j]-1, b[i,j]-1) of the result is incremented by one for every
// position. Pairs with a NaN or a value below 1 are skipped.
func (b *Block) Ctable(other *Block) (*Block, error) {
	if b.rows != other.rows || b.cols != other.cols {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"ctable requires matching shapes, got %dx%d and %dx%d",
			b.rows, b.cols, other.rows, other.cols)
	}
	maxA, maxB := 0, 0
	type pair struct{ a, b int }
	counts := make(map[pair]float64)
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			av, bv := b.Get(r, c), other.Get(r, c)
			if math.IsNaN(av) || math.IsNaN(bv) || av < 1 || bv < 1 {
				continue
			}
			ai, bi := int(av), int(bv)
			counts[pair{ai, bi}]++
			if ai > maxA {
				maxA = ai
			}
			if bi > maxB {
				maxB = bi
			}
		}
	}
	out := NewBlock(maxA, maxB, true)
	for p, n := range counts {
		out.Set(p.a-1, p.b-1, n)
	}
	out.RecomputeNonZeros()
	return out, nil
}

// IncrementalAggregate folds other into b cell-wise by addition.
func (b *Block) IncrementalAggregate(other *Block) error {
	if b.rows != other.rows || b.cols != other.cols {
		return errors.Newf(errors.ErrorTypeDimensionMismatch,
			"incremental aggregate requires matching shapes, got %dx%d and %dx%d",
			b.rows, b.cols, other.rows, other.cols)
	}
	if b.sparse {
		b.ToDense()
	}
	for r := 0; r < b.rows; r++ {
		other.RowNonZeros(r, func(c int, v float64) {
			b.dense[r*b.cols+c] += v
		})
	}
	b.RecomputeNonZeros()
	return nil
}
