package colgroup

import (
	"encoding/binary"
	"io"

	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// Dictionary serialization kinds.
const (
	dictKindPlain  uint8 = 0
	dictKindMatrix uint8 = 1
)

// Write serializes the dictionary as kind:u8, nValues:u32, values:f64[].
func (d *Dictionary) Write(w io.Writer) error {
	return writeDictionary(w, d)
}

// DiskSize returns the exact serialized byte length.
func (d *Dictionary) DiskSize() int64 {
	return dictionaryDiskSize(d)
}

func writeDictionary(w io.Writer, d ADictionary) error {
	switch dict := d.(type) {
	case *Dictionary:
		if err := binary.Write(w, binary.LittleEndian, dictKindPlain); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write dictionary kind")
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(dict.values))); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write dictionary length")
		}
		if err := binary.Write(w, binary.LittleEndian, dict.values); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write dictionary values")
		}
		return nil
	case *MatrixBlockDictionary:
		if err := binary.Write(w, binary.LittleEndian, dictKindMatrix); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write dictionary kind")
		}
		return dict.mb.Write(w)
	default:
		return errors.Newf(errors.ErrorTypeInternal, "unknown dictionary implementation %T", d)
	}
}

func readDictionary(r io.Reader) (ADictionary, error) {
	var kind uint8
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read dictionary kind")
	}
	switch kind {
	case dictKindPlain:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "read dictionary length")
		}
		values := make([]float64, n)
		if err := binary.Read(r, binary.LittleEndian, values); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "read dictionary values")
		}
		return NewDictionary(values), nil
	case dictKindMatrix:
		mb, err := matrix.ReadBlock(r)
		if err != nil {
			return nil, err
		}
		return NewMatrixBlockDictionary(mb), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeIO, "unknown dictionary kind %d", kind)
	}
}

func dictionaryDiskSize(d ADictionary) int64 {
	switch dict := d.(type) {
	case *Dictionary:
		return 1 + 4 + int64(len(dict.values))*8
	case *MatrixBlockDictionary:
		return 1 + dict.mb.DiskSize()
	default:
		return 0
	}
}
