// Package testutil provides testing utilities for Tessera
package testutil

import (
	"math/rand"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// RandomBlock builds a deterministic pseudo-random dense block. Each cell
// is drawn uniformly from [0, scale); a fixed seed keeps runs repeatable.
func RandomBlock(rows, cols int, scale float64, seed int64) *matrix.Block {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64() * scale
	}
	return matrix.FromSlice(rows, cols, data)
}

// LowCardinalityBlock builds a deterministic block whose cells are drawn
// from a small value set, the shape column-group compression thrives on.
func LowCardinalityBlock(rows, cols int, values []float64, seed int64) *matrix.Block {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = values[rng.Intn(len(values))]
	}
	return matrix.FromSlice(rows, cols, data)
}

// RequireNoError fails the test immediately if err is not nil.
// The msg parameter provides additional context in the failure message.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireBlocksEqual fails the test when two blocks differ elementwise by
// more than tol.
func RequireBlocksEqual(t *testing.T, want, got *matrix.Block, tol float64, msg string) {
	t.Helper()
	if !want.EqualsEps(got, tol) {
		t.Fatalf("%s:\nwant %v\ngot  %v", msg, want, got)
	}
}
