// Package tessera is a compressed in-memory matrix toolkit for numerical
// dataflow engines.
//
// A matrix is stored as an ordered list of column groups, each covering a
// subset of the columns with one dictionary-backed encoding (constant,
// dense/sparse dictionary codes, offset lists, run lengths, or an embedded
// uncompressed block). The linear-algebra kernels — matrix multiplication,
// transpose-self-multiply, scalar and cell-wise operators, and unary
// aggregates — execute directly on the compressed form; operations without
// a compressed path decompress once through a weak cache and delegate to
// the dense implementation.
//
// Packages:
//
//   - pkg/compress: the compressed matrix container and cross-group kernels
//   - pkg/compress/colgroup: column-group encodings and dictionaries
//   - pkg/matrix: the dense/sparse uncompressed matrix block
//   - pkg/compression: byte-level codecs for matrix files
//   - pkg/config, pkg/logger, pkg/metrics, pkg/pool, pkg/errors: runtime
//     support
//
// The cmd/tessera CLI compresses, inspects and benchmarks matrix files.
package tessera
