package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tessera/pkg/compress"
	"github.com/ajitpratap0/tessera/pkg/compression"
	"github.com/ajitpratap0/tessera/pkg/config"
	"github.com/ajitpratap0/tessera/pkg/logger"
	"github.com/ajitpratap0/tessera/pkg/matrix"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	settings := config.DefaultSettings()
	var configFile string

	root := &cobra.Command{
		Use:   "tessera",
		Short: "Tessera - Compressed matrix toolkit",
		Long: `Tessera stores numerical matrices in a column-group compressed form and
runs linear-algebra kernels directly on the compressed representation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := config.Load(configFile, settings); err != nil {
					return err
				}
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			return logger.Init(logger.Config{
				Level:    settings.LogLevel,
				Encoding: "console",
			})
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML settings file")
	root.PersistentFlags().IntVarP(&settings.Parallelism, "parallelism", "k", settings.Parallelism,
		"degree of parallelism for heavy kernels")
	root.PersistentFlags().StringVar(&settings.Codec, "codec", settings.Codec,
		"file codec: none, zstd, lz4, snappy, s2")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Tessera v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "info FILE",
		Short: "Describe a compressed matrix file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := compress.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("dimensions:   %d x %d\n", m.Rows(), m.Cols())
			fmt.Printf("non-zeros:    %d\n", m.NNZ())
			fmt.Printf("overlapping:  %v\n", m.IsOverlapping())
			fmt.Printf("groups:       %d\n", len(m.ColGroups()))
			for _, g := range m.ColGroups() {
				fmt.Printf("  %s\n", g)
			}
			fmt.Printf("memory bound: %d bytes\n", m.InMemorySize())
			fmt.Printf("disk size:    %d bytes (before codec)\n", m.DiskSize())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "compress IN.csv OUT.tsr",
		Short: "Compress a dense CSV matrix into a matrix file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := readCSV(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			m := compress.FromDense(block, settings.Parallelism)
			logger.Info("compressed matrix",
				zap.Int("rows", m.Rows()), zap.Int("cols", m.Cols()),
				zap.Int("groups", len(m.ColGroups())),
				zap.Duration("took", time.Since(start)))
			return m.WriteFile(args[1], compression.Algorithm(settings.Codec))
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "decompress IN.tsr OUT.csv",
		Short: "Materialize a matrix file back to dense CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := compress.ReadFile(args[0])
			if err != nil {
				return err
			}
			return writeCSV(args[1], m.Decompress(settings.Parallelism))
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "bench FILE",
		Short: "Time the heavy kernels of a matrix file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := compress.ReadFile(args[0])
			if err != nil {
				return err
			}
			k := settings.Parallelism
			m.ClearSoftReferenceToDecompressed()

			start := time.Now()
			m.Decompress(k)
			fmt.Printf("decompress: %v\n", time.Since(start))

			start = time.Now()
			m.TransposeSelfMult(k)
			fmt.Printf("tsmm:       %v\n", time.Since(start))

			start = time.Now()
			sum := m.Sum(k)
			fmt.Printf("sum:        %v (value %.6g)\n", time.Since(start), sum)

			right := matrix.NewBlock(m.Cols(), 4, false)
			for r := 0; r < m.Cols(); r++ {
				for c := 0; c < 4; c++ {
					right.Set(r, c, float64((r+c)%5))
				}
			}
			start = time.Now()
			if _, err := m.RightMultByMatrix(right, k, settings.AllowOverlap); err != nil {
				return err
			}
			fmt.Printf("right mult: %v\n", time.Since(start))
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func readCSV(path string) (*matrix.Block, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller-controlled path
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	data := make([][]float64, len(records))
	for i, rec := range records {
		data[i] = make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			data[i][j] = v
		}
	}
	return matrix.FromDense2D(data), nil
}

func writeCSV(path string, b *matrix.Block) error {
	f, err := os.Create(path) //nolint:gosec // G304: caller-controlled path
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	record := make([]string, b.Cols())
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			record[c] = strconv.FormatFloat(b.Get(r, c), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
