package colgroup

import (
	"encoding/binary"
	"io"

	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

// groupHeaderDiskSize returns the byte length of the shared group header:
// tag, column count and column indexes.
func groupHeaderDiskSize(g ColGroup) int64 {
	return 1 + 4 + int64(g.NumCols())*4
}

// WriteGroups serializes the group list: count, then per group the tag,
// column indexes and variant body.
func WriteGroups(w io.Writer, groups []ColGroup) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(groups))); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write group count")
	}
	for _, g := range groups {
		if err := binary.Write(w, binary.LittleEndian, uint8(g.Type())); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write group tag")
		}
		cols := g.ColIndexes()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(cols))); err != nil {
			return errors.Wrap(err, errors.ErrorTypeIO, "write group column count")
		}
		for _, c := range cols {
			if err := binary.Write(w, binary.LittleEndian, uint32(c)); err != nil {
				return errors.Wrap(err, errors.ErrorTypeIO, "write group column index")
			}
		}
		if err := g.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadGroups deserializes a group list written by WriteGroups. The row
// count restores assignment structures that do not carry their own length.
func ReadGroups(r io.Reader, nRows int) ([]ColGroup, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read group count")
	}
	groups := make([]ColGroup, 0, n)
	for i := 0; i < int(n); i++ {
		g, err := readGroup(r, nRows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func readGroup(r io.Reader, nRows int) (ColGroup, error) {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read group tag")
	}
	var nCols uint32
	if err := binary.Read(r, binary.LittleEndian, &nCols); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read group column count")
	}
	colIndexes := make([]int, nCols)
	for j := range colIndexes {
		var c uint32
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeIO, "read group column index")
		}
		colIndexes[j] = int(c)
	}

	switch CompressionType(tag) {
	case TypeEmpty:
		return NewEmpty(colIndexes), nil
	case TypeConst:
		dict, err := readDictionary(r)
		if err != nil {
			return nil, err
		}
		return NewConst(colIndexes, dict), nil
	case TypeUncompressed:
		mb, err := matrix.ReadBlock(r)
		if err != nil {
			return nil, err
		}
		return NewUncompressed(colIndexes, mb), nil
	case TypeDDC:
		dict, err := readDictionary(r)
		if err != nil {
			return nil, err
		}
		codes, err := readUint32s(r)
		if err != nil {
			return nil, err
		}
		return NewDDC(colIndexes, dict, codes), nil
	case TypeSDC:
		dict, err := readDictionary(r)
		if err != nil {
			return nil, err
		}
		def, err := readFloat64s(r)
		if err != nil {
			return nil, err
		}
		rows, err := readUint32s(r)
		if err != nil {
			return nil, err
		}
		codes, err := readUint32s(r)
		if err != nil {
			return nil, err
		}
		return NewSDC(colIndexes, dict, def, rows, codes), nil
	case TypeOLE:
		return readOLEBody(r, colIndexes)
	case TypeRLE:
		return readRLEBody(r, colIndexes)
	default:
		return nil, errors.Newf(errors.ErrorTypeIO, "unknown column group tag %d", tag)
	}
}

// GroupsDiskSize returns the exact serialized byte length of the group
// list including its count header.
func GroupsDiskSize(groups []ColGroup) int64 {
	size := int64(4)
	for _, g := range groups {
		size += g.DiskSize()
	}
	return size
}
