package matrix

import (
	"encoding/binary"
	"io"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

const blockHeaderSize = 4 + 4 + 8 + 1

// Write serializes the block in its current layout: rows:u32, cols:u32,
// nnz:i64, sparse:u8, then the values (dense: rows*cols f64; sparse: per
// row a u32 count followed by u32/f64 pairs). Little-endian throughout.
func (b *Block) Write(w io.Writer) error {
	if b.nnz == NNZUnknown {
		b.RecomputeNonZeros()
	}
	hdr := []interface{}{
		uint32(b.rows), uint32(b.cols), b.nnz, boolByte(b.sparse),
	}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write block header")
		}
	}
	if b.sparse {
		for r := 0; r < b.rows; r++ {
			sr := &b.rowData[r]
			if err := binary.Write(w, binary.LittleEndian, uint32(len(sr.idx))); err != nil {
				return errors.Wrap(err, errors.ErrorTypeIO, "write sparse row header")
			}
			for i, c := range sr.idx {
				if err := binary.Write(w, binary.LittleEndian, uint32(c)); err != nil {
					return errors.Wrap(err, errors.ErrorTypeIO, "write sparse index")
				}
				if err := binary.Write(w, binary.LittleEndian, sr.vals[i]); err != nil {
					return errors.Wrap(err, errors.ErrorTypeIO, "write sparse value")
				}
			}
		}
		return nil
	}
	if err := binary.Write(w, binary.LittleEndian, b.dense); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write dense values")
	}
	return nil
}

// ReadBlock deserializes a block previously written with Write.
func ReadBlock(r io.Reader) (*Block, error) {
	var rows, cols uint32
	var nnz int64
	var sparse uint8
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read block header")
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read block header")
	}
	if err := binary.Read(r, binary.LittleEndian, &nnz); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read block header")
	}
	if err := binary.Read(r, binary.LittleEndian, &sparse); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read block header")
	}
	b := NewBlock(int(rows), int(cols), sparse == 1)
	b.nnz = nnz
	if b.sparse {
		for row := 0; row < b.rows; row++ {
			var n uint32
			if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeIO, "read sparse row header")
			}
			sr := &b.rowData[row]
			sr.idx = make([]int, n)
			sr.vals = make([]float64, n)
			for i := 0; i < int(n); i++ {
				var c uint32
				if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
					return nil, errors.Wrap(err, errors.ErrorTypeIO, "read sparse index")
				}
				sr.idx[i] = int(c)
				if err := binary.Read(r, binary.LittleEndian, &sr.vals[i]); err != nil {
					return nil, errors.Wrap(err, errors.ErrorTypeIO, "read sparse value")
				}
			}
		}
		return b, nil
	}
	if err := binary.Read(r, binary.LittleEndian, b.dense); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read dense values")
	}
	return b, nil
}

// DiskSize returns the exact byte length Write produces for the current
// layout.
func (b *Block) DiskSize() int64 {
	if b.sparse {
		if b.nnz == NNZUnknown {
			b.RecomputeNonZeros()
		}
		return blockHeaderSize + int64(b.rows)*4 + b.nnz*12
	}
	return blockHeaderSize + int64(b.rows)*int64(b.cols)*8
}

// EstimateDiskSize estimates the serialized size of a rows×cols block with
// the given non-zero count, choosing the layout Write would use after
// ExamSparsity. Unknown nnz assumes dense.
func EstimateDiskSize(rows, cols int, nnz int64) int64 {
	cells := int64(rows) * int64(cols)
	if nnz != NNZUnknown && cells > 0 && float64(nnz)/float64(cells) < SparsityThreshold {
		return blockHeaderSize + int64(rows)*4 + nnz*12
	}
	return blockHeaderSize + cells*8
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
