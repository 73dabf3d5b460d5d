package compression

import (
	"bytes"
	"testing"
)

func TestCompressorsRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("matrix payload payload payload "), 200)

	for _, algorithm := range []Algorithm{None, Snappy, LZ4, Zstd, S2} {
		t.Run(string(algorithm), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: algorithm, Level: Default})
			if err != nil {
				t.Fatalf("Failed to create %s compressor: %v", algorithm, err)
			}

			compressed, err := compressor.Compress(original)
			if err != nil {
				t.Fatalf("Failed to compress: %v", err)
			}

			decompressed, err := compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Failed to decompress: %v", err)
			}

			if !bytes.Equal(original, decompressed) {
				t.Errorf("Decompressed data doesn't match original")
			}

			if algorithm != None && len(compressed) >= len(original) {
				t.Logf("Warning: %s compressed size (%d) is not smaller than original (%d)",
					algorithm, len(compressed), len(original))
			}
		})
	}
}

func TestCompressionLevels(t *testing.T) {
	testData := bytes.Repeat([]byte("test data for compression "), 100)

	for _, level := range []Level{Fastest, Default, Best} {
		for _, algorithm := range []Algorithm{LZ4, Zstd} {
			compressor, err := NewCompressor(&Config{Algorithm: algorithm, Level: level})
			if err != nil {
				t.Fatalf("Failed to create compressor: %v", err)
			}
			compressed, err := compressor.Compress(testData)
			if err != nil {
				t.Fatalf("Failed to compress: %v", err)
			}
			decompressed, err := compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Failed to decompress: %v", err)
			}
			if !bytes.Equal(testData, decompressed) {
				t.Errorf("%s level %d: round trip mismatch", algorithm, level)
			}
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	if _, err := ParseAlgorithm("zstd"); err != nil {
		t.Fatalf("zstd should parse: %v", err)
	}
	if alg, err := ParseAlgorithm(""); err != nil || alg != None {
		t.Fatalf("empty codec should default to none, got %v %v", alg, err)
	}
	if _, err := ParseAlgorithm("brotli"); err == nil {
		t.Fatal("unknown codec must be rejected")
	}
}
