package matrix

import (
	"math"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// BinaryOp identifies a cell-wise binary operator.
type BinaryOp uint8

const (
	// OpAdd is addition
	OpAdd BinaryOp = iota
	// OpSubtract is subtraction
	OpSubtract
	// OpMultiply is multiplication
	OpMultiply
	// OpDivide is division
	OpDivide
	// OpMin is the elementwise minimum
	OpMin
	// OpMax is the elementwise maximum
	OpMax
	// OpLess is the < comparison, producing 0/1
	OpLess
	// OpLessEqual is the <= comparison
	OpLessEqual
	// OpGreater is the > comparison
	OpGreater
	// OpGreaterEqual is the >= comparison
	OpGreaterEqual
	// OpEqual is the == comparison
	OpEqual
	// OpNotEqual is the != comparison
	OpNotEqual
)

var binaryOpNames = map[BinaryOp]string{
	OpAdd: "+", OpSubtract: "-", OpMultiply: "*", OpDivide: "/",
	OpMin: "min", OpMax: "max", OpLess: "<", OpLessEqual: "<=",
	OpGreater: ">", OpGreaterEqual: ">=", OpEqual: "==", OpNotEqual: "!=",
}

// String returns the operator symbol.
func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return "?"
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Apply evaluates the operator on a pair of cells.
func (op BinaryOp) Apply(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		return a / b
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	case OpLess:
		return b2f(a < b)
	case OpLessEqual:
		return b2f(a <= b)
	case OpGreater:
		return b2f(a > b)
	case OpGreaterEqual:
		return b2f(a >= b)
	case OpEqual:
		return b2f(a == b)
	case OpNotEqual:
		return b2f(a != b)
	default:
		return math.NaN()
	}
}

// RowBroadcastable reports whether the compressed path specializes the
// operator for row-vector broadcasting.
func (op BinaryOp) RowBroadcastable() bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide,
		OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpEqual, OpNotEqual:
		return true
	default:
		return false
	}
}

// ScalarOp is a unary cell transformation, typically a binary operator
// bound to a constant.
type ScalarOp struct {
	Fn func(float64) float64
}

// NewScalarOp binds op to a constant. With leftConst the constant is the
// left operand (c op x), otherwise the right (x op c).
func NewScalarOp(op BinaryOp, c float64, leftConst bool) ScalarOp {
	if leftConst {
		return ScalarOp{Fn: func(x float64) float64 { return op.Apply(c, x) }}
	}
	return ScalarOp{Fn: func(x float64) float64 { return op.Apply(x, c) }}
}

// SparseSafe reports whether the operator maps zero to zero, allowing
// sparse structures and implicit-zero defaults to be preserved.
func (s ScalarOp) SparseSafe() bool {
	v := s.Fn(0)
	return v == 0
}

// ScalarApply applies op to every cell, returning a new block. The output
// layout follows sparse-safety: a sparse-safe op keeps sparse inputs sparse.
func (b *Block) ScalarApply(op ScalarOp) *Block {
	if b.sparse && op.SparseSafe() {
		out := NewBlock(b.rows, b.cols, true)
		for r := 0; r < b.rows; r++ {
			b.RowNonZeros(r, func(c int, v float64) {
				out.AppendToRow(r, c, op.Fn(v))
			})
		}
		out.RecomputeNonZeros()
		return out
	}
	src := b
	if b.sparse {
		src = b.Copy().ToDense()
	}
	out := NewBlock(b.rows, b.cols, false)
	for i, v := range src.dense {
		out.dense[i] = op.Fn(v)
	}
	out.RecomputeNonZeros()
	return out
}

// ReplaceAll substitutes every cell equal to pattern with replacement.
// NaN patterns match NaN cells.
func (b *Block) ReplaceAll(pattern, replacement float64) *Block {
	nan := math.IsNaN(pattern)
	return b.ScalarApply(ScalarOp{Fn: func(v float64) float64 {
		if v == pattern || (nan && math.IsNaN(v)) {
			return replacement
		}
		return v
	}})
}

// BinaryCell evaluates op cell-wise against other, broadcasting scalar
// (1×1), row-vector (1×cols) and column-vector (rows×1) shapes.
func (b *Block) BinaryCell(op BinaryOp, other *Block) (*Block, error) {
	or, oc := other.rows, other.cols
	scalar := or == 1 && oc == 1
	rowVec := or == 1 && oc == b.cols && !scalar
	colVec := oc == 1 && or == b.rows && !scalar
	full := or == b.rows && oc == b.cols
	if !scalar && !rowVec && !colVec && !full {
		return nil, errors.Newf(errors.ErrorTypeDimensionMismatch,
			"binary cell op %s: %dx%d vs %dx%d", op, b.rows, b.cols, or, oc)
	}
	out := NewBlock(b.rows, b.cols, false)
	for r := 0; r < b.rows; r++ {
		off := r * b.cols
		for c := 0; c < b.cols; c++ {
			var rhs float64
			switch {
			case scalar:
				rhs = other.Get(0, 0)
			case rowVec:
				rhs = other.Get(0, c)
			case colVec:
				rhs = other.Get(r, 0)
			default:
				rhs = other.Get(r, c)
			}
			out.dense[off+c] = op.Apply(b.Get(r, c), rhs)
		}
	}
	out.RecomputeNonZeros()
	return out, nil
}

// BinaryCellInPlace evaluates op cell-wise against other, writing into b.
// b must be dense.
func (b *Block) BinaryCellInPlace(op BinaryOp, other *Block) error {
	res, err := b.BinaryCell(op, other)
	if err != nil {
		return err
	}
	copy(b.dense, res.dense)
	b.nnz = res.nnz
	return nil
}
