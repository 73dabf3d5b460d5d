// Package compress implements the compressed matrix container: an ordered
// list of column groups partitioning (or, when overlapping, covering) the
// column index space, together with the cross-group kernels that execute
// directly on the compressed form. Mutating or unsupported operations
// decompress once, cache the dense form in a weak slot, and delegate.
package compress

import (
	"fmt"
	"strings"
	"sync/atomic"
	"weak"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/logger"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// NNZUnknown is the sentinel for an unknown non-zero count.
const NNZUnknown int64 = -1

// CompressedMatrix is a column-group compressed matrix. It is read-only
// after construction except through the documented whole-replacement
// methods; concurrent reads are safe as long as no replacement runs.
type CompressedMatrix struct {
	rows, cols  int
	nnz         int64
	overlapping bool
	groups      []colgroup.ColGroup

	// cache is the single-slot weak reference to a previously materialized
	// dense form. Readers tolerate a stale nil; a single atomic store
	// publishes updates.
	cache atomic.Pointer[weak.Pointer[matrix.Block]]
}

// New creates an empty container with the given dimensions. Column groups
// are attached through AllocateColGroupList.
func New(rows, cols int) *CompressedMatrix {
	return &CompressedMatrix{rows: rows, cols: cols, nnz: NNZUnknown}
}

// NewFromDenseSeed creates a container that remembers the uncompressed
// block it was built from, so early decompressions are free until the
// host drops the weak referent.
func NewFromDenseSeed(src *matrix.Block) *CompressedMatrix {
	m := &CompressedMatrix{rows: src.Rows(), cols: src.Cols(), nnz: src.NNZ()}
	m.setCached(src)
	return m
}

// Rows returns the row count.
func (m *CompressedMatrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m *CompressedMatrix) Cols() int { return m.cols }

// NNZ returns the tracked non-zero count, or NNZUnknown.
func (m *CompressedMatrix) NNZ() int64 { return m.nnz }

// ColGroups returns the column group list.
func (m *CompressedMatrix) ColGroups() []colgroup.ColGroup { return m.groups }

// IsOverlapping reports whether cell values are sums over group
// contributions. A single-group matrix is never overlapping in effect.
func (m *CompressedMatrix) IsOverlapping() bool {
	return len(m.groups) != 1 && m.overlapping
}

// SetOverlapping marks the group list as overlapping.
func (m *CompressedMatrix) SetOverlapping(overlapping bool) {
	m.overlapping = overlapping
}

// IsEmpty reports whether the matrix holds no non-zero values.
func (m *CompressedMatrix) IsEmpty() bool {
	if len(m.groups) == 0 {
		return true
	}
	if m.nnz == NNZUnknown {
		m.RecomputeNonZeros()
	}
	return m.nnz == 0
}

// AllocateColGroup replaces the group list with a single group.
func (m *CompressedMatrix) AllocateColGroup(cg colgroup.ColGroup) {
	m.groups = []colgroup.ColGroup{cg}
}

// AllocateColGroupList replaces the group list wholesale.
func (m *CompressedMatrix) AllocateColGroupList(groups []colgroup.ColGroup) {
	m.groups = groups
}

// RecomputeNonZeros refreshes the non-zero count. Overlapping matrices
// report the conservative rows*cols; a zero total compacts the list to a
// single empty group.
func (m *CompressedMatrix) RecomputeNonZeros() int64 {
	if m.IsOverlapping() {
		m.nnz = int64(m.rows) * int64(m.cols)
	} else {
		var nnz int64
		for _, g := range m.groups {
			nnz += g.NumberNonZeros(m.rows)
		}
		m.nnz = nnz
	}
	if m.nnz == 0 && m.cols > 0 {
		m.AllocateColGroup(colgroup.NewEmpty(seq(m.cols)))
		m.overlapping = false
	}
	return m.nnz
}

// Get reads the logical cell at (r, c), summing group contributions when
// overlapping.
func (m *CompressedMatrix) Get(r, c int) float64 {
	if m.IsOverlapping() {
		var v float64
		for _, g := range m.groups {
			v += g.Get(r, c)
		}
		return v
	}
	for _, g := range m.groups {
		if v := g.Get(r, c); v != 0 {
			return v
		}
	}
	return 0
}

// ContainsValue reports whether any logical cell equals pattern. The
// overlapping semantics are unspecified upstream, so an overlapping
// matrix raises Unsupported rather than guessing.
func (m *CompressedMatrix) ContainsValue(pattern float64) (bool, error) {
	if m.IsOverlapping() {
		return false, errors.New(errors.ErrorTypeUnsupported,
			"containsValue on an overlapping matrix")
	}
	for _, g := range m.groups {
		if g.ContainsValue(pattern, m.rows) {
			return true, nil
		}
	}
	return false, nil
}

// Copy returns a deep copy of the container and its groups. The cache
// slot is not copied.
func (m *CompressedMatrix) Copy() *CompressedMatrix {
	out := New(m.rows, m.cols)
	out.nnz = m.nnz
	out.overlapping = m.overlapping
	out.groups = make([]colgroup.ColGroup, len(m.groups))
	for i, g := range m.groups {
		out.groups[i] = g.Copy()
	}
	return out
}

// setCached publishes a dense form into the weak cache slot.
func (m *CompressedMatrix) setCached(b *matrix.Block) {
	wp := weak.Make(b)
	m.cache.Store(&wp)
}

// GetCachedDecompressed returns the cached dense form if its weak referent
// is still live, without forcing a decompression.
func (m *CompressedMatrix) GetCachedDecompressed() *matrix.Block {
	if p := m.cache.Load(); p != nil {
		if b := p.Value(); b != nil {
			cacheHit()
			logger.Debug("decompressed block served from weak cache")
			return b
		}
	}
	return nil
}

// ClearSoftReferenceToDecompressed drops the cached dense form.
func (m *CompressedMatrix) ClearSoftReferenceToDecompressed() {
	m.cache.Store(nil)
}

// GetUncompressed returns the cached dense form or decompresses, logging
// the triggering operation at debug level. The fallback is not an error.
func (m *CompressedMatrix) GetUncompressed(operation string) *matrix.Block {
	if d := m.GetCachedDecompressed(); d != nil {
		return d
	}
	if m.IsEmpty() {
		return matrix.NewBlock(m.rows, m.cols, true)
	}
	logger.Debug("decompressing", zap.String("operation", operation))
	countDecompression(operation)
	return m.Decompress(1)
}

// InMemorySize returns an upper bound on the container's memory use.
func (m *CompressedMatrix) InMemorySize() int64 {
	// Header fields, group slice container and the cache slot.
	total := int64(16 + 8 + 8 + 1 + 7 + 40 + 16)
	for _, g := range m.groups {
		total += g.MemSize()
	}
	return total
}

// String summarizes the container and its groups for debugging.
func (m *CompressedMatrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CompressedMatrix %dx%d overlapping=%v nnz=%d",
		m.rows, m.cols, m.IsOverlapping(), m.nnz)
	for _, g := range m.groups {
		sb.WriteString("\n  ")
		sb.WriteString(g.String())
	}
	return sb.String()
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
