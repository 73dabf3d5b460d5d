package compress

import (
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// The low-level mutating surface of an uncompressed block is rejected
// outright on a compressed matrix: silent decompression here would hide
// misuse at the call boundary.

// Reset is invalid on a compressed matrix.
func (m *CompressedMatrix) Reset(rows, cols int, sparse bool) error {
	return errors.New(errors.ErrorTypeMisuse, "reset on a compressed matrix")
}

// SetValue is invalid on a compressed matrix.
func (m *CompressedMatrix) SetValue(r, c int, v float64) error {
	return errors.New(errors.ErrorTypeMisuse, "cell mutation on a compressed matrix")
}

// AppendValue is invalid on a compressed matrix.
func (m *CompressedMatrix) AppendValue(r, c int, v float64) error {
	return errors.New(errors.ErrorTypeMisuse, "value append on a compressed matrix")
}

// AllocateDenseBlock is invalid on a compressed matrix.
func (m *CompressedMatrix) AllocateDenseBlock() error {
	return errors.New(errors.ErrorTypeMisuse, "dense block allocation on a compressed matrix")
}

// DenseValues is invalid on a compressed matrix.
func (m *CompressedMatrix) DenseValues() ([]float64, error) {
	return nil, errors.New(errors.ErrorTypeMisuse, "dense block access on a compressed matrix")
}

// Init is invalid on a compressed matrix.
func (m *CompressedMatrix) Init(values []float64, rows, cols int) error {
	return errors.New(errors.ErrorTypeMisuse, "init on a compressed matrix")
}

// CopyFrom is invalid on a compressed matrix; use Copy to duplicate.
func (m *CompressedMatrix) CopyFrom(src *matrix.Block) error {
	return errors.New(errors.ErrorTypeMisuse, "copy into a compressed matrix")
}
