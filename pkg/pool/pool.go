// Package pool provides the worker pool used by the parallel matrix
// kernels. It wraps an ants goroutine pool behind small fan-out helpers
// with deterministic partitioning: for a fixed degree of parallelism the
// work split, and therefore the floating point accumulation order within
// each partition, is always the same.
package pool

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// Pool is a fixed-size worker pool for kernel tasks.
type Pool struct {
	inner *ants.Pool
	size  int
}

// New creates a pool with the given number of workers. Sizes below 1 are
// clamped to 1.
func New(size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p, err := ants.NewPool(size, ants.WithPanicHandler(func(v interface{}) {
		panic(v)
	}))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create worker pool")
	}
	return &Pool{inner: p, size: size}, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Release shuts the pool down.
func (p *Pool) Release() {
	p.inner.Release()
}

// ForEach runs fn(i) for i in [0, n) on the pool and waits for completion.
// With a single worker the tasks run inline on the calling goroutine so the
// result is identical to a plain loop.
func (p *Pool) ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.size <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		if err := p.inner.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			// Pool rejected the task (released); run inline.
			fn(i)
			wg.Done()
		}
	}
	wg.Wait()
}

// Stripe describes a half-open index range [Start, End).
type Stripe struct {
	Start int
	End   int
}

// Stripes splits [0, n) into at most k contiguous ranges of near-equal
// size. The split depends only on n and k.
func Stripes(n, k int) []Stripe {
	if n <= 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	out := make([]Stripe, 0, k)
	chunk := (n + k - 1) / k
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		out = append(out, Stripe{Start: start, End: end})
	}
	return out
}

// RunStripes partitions [0, n) into at most k stripes and runs fn on each.
// With k <= 1 the stripes execute sequentially on the caller.
func RunStripes(n, k int, fn func(s Stripe)) error {
	stripes := Stripes(n, k)
	if len(stripes) == 0 {
		return nil
	}
	if k <= 1 || len(stripes) == 1 {
		for _, s := range stripes {
			fn(s)
		}
		return nil
	}
	p, err := New(k)
	if err != nil {
		return err
	}
	defer p.Release()
	p.ForEach(len(stripes), func(i int) {
		fn(stripes[i])
	})
	return nil
}
