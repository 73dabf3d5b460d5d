package compress

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/ajitpratap0/tessera/pkg/compress/colgroup"
	"github.com/ajitpratap0/tessera/pkg/compression"
	"github.com/ajitpratap0/tessera/pkg/errors"
	"github.com/ajitpratap0/tessera/pkg/logger"
	"github.com/ajitpratap0/tessera/pkg/matrix"
	"github.com/ajitpratap0/tessera/pkg/metrics"
)

// containerHeaderSize covers rows, cols, nnz and the overlapping flag.
const containerHeaderSize = 4 + 4 + 8 + 1

// fileMagic frames matrix files written by WriteFile.
var fileMagic = [4]byte{'T', 'S', 'R', 'A'}

// DiskSize returns the exact byte length Write produces for the current
// group list.
func (m *CompressedMatrix) DiskSize() int64 {
	return containerHeaderSize + colgroup.GroupsDiskSize(m.groups)
}

// Write serializes the matrix: rows:u32, cols:u32, nnz:i64, overlap:u8,
// then the group list. When the compressed layout is larger than the
// dense estimate, the matrix first decompresses and replaces its group
// list with a single uncompressed group, so the smaller layout is
// persisted. Read accepts either layout.
func (m *CompressedMatrix) Write(w io.Writer) error {
	if m.nnz == NNZUnknown {
		m.RecomputeNonZeros()
	}
	denseFallbackSize := containerHeaderSize + 4 +
		1 + 4 + int64(m.cols)*4 + matrix.EstimateDiskSize(m.rows, m.cols, m.nnz)
	if m.DiskSize() > denseFallbackSize {
		m.fallbackToUncompressed()
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(m.rows)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write matrix header")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.cols)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write matrix header")
	}
	if err := binary.Write(w, binary.LittleEndian, m.nnz); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write matrix header")
	}
	overlap := uint8(0)
	if m.overlapping {
		overlap = 1
	}
	if err := binary.Write(w, binary.LittleEndian, overlap); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "write matrix header")
	}
	return colgroup.WriteGroups(w, m.groups)
}

// fallbackToUncompressed replaces the group list with a single
// uncompressed group wrapping the dense form; the weak cache is cleared
// since the embedded group represents the dense form exactly.
func (m *CompressedMatrix) fallbackToUncompressed() {
	logger.Debug("serialization falls back to uncompressed layout")
	metrics.SerializeFallbacks.Inc()
	dense := m.GetUncompressed("smaller serialization").Copy()
	dense.ExamSparsity()
	cg := colgroup.NewUncompressed(seq(m.cols), dense)
	m.AllocateColGroup(cg)
	m.nnz = cg.NumberNonZeros(m.rows)
	m.overlapping = false
	m.ClearSoftReferenceToDecompressed()
}

// Read deserializes a matrix written by Write.
func Read(r io.Reader) (*CompressedMatrix, error) {
	var rows, cols uint32
	var nnz int64
	var overlap uint8
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read matrix header")
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read matrix header")
	}
	if err := binary.Read(r, binary.LittleEndian, &nnz); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read matrix header")
	}
	if err := binary.Read(r, binary.LittleEndian, &overlap); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read matrix header")
	}
	groups, err := colgroup.ReadGroups(r, int(rows))
	if err != nil {
		return nil, err
	}
	m := New(int(rows), int(cols))
	m.nnz = nnz
	m.overlapping = overlap == 1
	m.AllocateColGroupList(groups)
	return m, nil
}

// WriteFile persists the matrix to a file, framing the serialized layout
// with a codec header and compressing the payload byte stream.
func (m *CompressedMatrix) WriteFile(path string, algorithm compression.Algorithm) error {
	var payload bytes.Buffer
	if err := m.Write(&payload); err != nil {
		return err
	}
	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: algorithm, Level: compression.Default,
	})
	if err != nil {
		return err
	}
	compressed, err := comp.Compress(payload.Bytes())
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "compress matrix payload")
	}

	var out bytes.Buffer
	out.Write(fileMagic[:])
	name := string(comp.Algorithm())
	out.WriteByte(uint8(len(name)))
	out.WriteString(name)
	out.Write(compressed)

	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeIO, "write matrix file")
	}
	return nil
}

// ReadFile loads a matrix persisted by WriteFile.
func ReadFile(path string) (*CompressedMatrix, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-controlled path
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "read matrix file")
	}
	if len(data) < 5 || !bytes.Equal(data[:4], fileMagic[:]) {
		return nil, errors.New(errors.ErrorTypeIO, "not a tessera matrix file")
	}
	nameLen := int(data[4])
	if len(data) < 5+nameLen {
		return nil, errors.New(errors.ErrorTypeIO, "truncated matrix file header")
	}
	algorithm, err := compression.ParseAlgorithm(string(data[5 : 5+nameLen]))
	if err != nil {
		return nil, err
	}
	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: algorithm, Level: compression.Default,
	})
	if err != nil {
		return nil, err
	}
	payload, err := comp.Decompress(data[5+nameLen:])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "decompress matrix payload")
	}
	return Read(bytes.NewReader(payload))
}
