package pool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripesCoverRange(t *testing.T) {
	for _, tc := range []struct{ n, k, want int }{
		{10, 3, 3},
		{10, 1, 1},
		{3, 8, 3},
		{0, 4, 0},
	} {
		stripes := Stripes(tc.n, tc.k)
		assert.Len(t, stripes, tc.want, "n=%d k=%d", tc.n, tc.k)
		covered := 0
		prev := 0
		for _, s := range stripes {
			assert.Equal(t, prev, s.Start, "stripes must be contiguous")
			covered += s.End - s.Start
			prev = s.End
		}
		assert.Equal(t, tc.n, covered)
	}
}

func TestStripesDeterministic(t *testing.T) {
	a := Stripes(1000, 8)
	b := Stripes(1000, 8)
	assert.Equal(t, a, b)
}

func TestRunStripesExecutesAll(t *testing.T) {
	var total int64
	err := RunStripes(100, 4, func(s Stripe) {
		atomic.AddInt64(&total, int64(s.End-s.Start))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}

func TestRunStripesSequentialWithOneWorker(t *testing.T) {
	var stripes []Stripe
	err := RunStripes(4, 1, func(s Stripe) {
		stripes = append(stripes, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []Stripe{{Start: 0, End: 4}}, stripes)
}

func TestPoolForEach(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)
	defer p.Release()

	var total int64
	p.ForEach(32, func(i int) {
		atomic.AddInt64(&total, int64(i))
	})
	assert.Equal(t, int64(32*31/2), total)
}
