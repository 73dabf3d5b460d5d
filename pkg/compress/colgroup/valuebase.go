package colgroup

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// valueBase carries the dictionary and per-value row counts shared by the
// dictionary-coded encodings (DDC, SDC, OLE, RLE).
type valueBase struct {
	dict   ADictionary
	counts []int
}

// appendTuple returns a new plain dictionary with tuple appended.
func appendTuple(dict ADictionary, tuple []float64, nCols int) ADictionary {
	vals := append([]float64(nil), dict.Values()...)
	vals = append(vals, tuple...)
	return NewDictionary(vals)
}

// constTuple builds a width-n tuple of a single value.
func constTuple(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// zeroRowOpTuple evaluates op against the implicit zero row for each of the
// group's columns.
func zeroRowOpTuple(op binaryOpApplier, v []float64, colIndexes []int, left bool) []float64 {
	out := make([]float64, len(colIndexes))
	for i, col := range colIndexes {
		if left {
			out[i] = op.Apply(v[col], 0)
		} else {
			out[i] = op.Apply(0, v[col])
		}
	}
	return out
}

type binaryOpApplier interface {
	Apply(a, b float64) float64
}

// powProduct folds v^count into acc treating zero bases as hard zero.
func powProduct(acc, v float64, count int) float64 {
	if count == 0 {
		return acc
	}
	if v == 0 {
		return 0
	}
	return acc * math.Pow(v, float64(count))
}

// writeUint32s serializes a u32 length plus entries.
func writeUint32s(w io.Writer, vals []uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vals))); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write u32 slice length")
	}
	if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write u32 slice")
	}
	return nil
}

// readUint32s deserializes a slice written by writeUint32s.
func readUint32s(r io.Reader) ([]uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read u32 slice length")
	}
	out := make([]uint32, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read u32 slice")
	}
	return out, nil
}

// writeFloat64s serializes a u32 length plus f64 entries.
func writeFloat64s(w io.Writer, vals []float64) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vals))); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write f64 slice length")
	}
	if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write f64 slice")
	}
	return nil
}

// readFloat64s deserializes a slice written by writeFloat64s.
func readFloat64s(r io.Reader) ([]float64, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read f64 slice length")
	}
	out := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read f64 slice")
	}
	return out, nil
}
