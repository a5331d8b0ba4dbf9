package main

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	decoder "github.com/pixie16/decoder_go/pkg"
	"golang.org/x/exp/slices"
)

var logger Logger

func init() {
	logger = NewLogger(os.Stdout, slog.LevelInfo)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	numWorkers := flag.Int("workers", 1, "Number of widths measured in parallel")
	flag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		logger.Error(fmt.Errorf("Error reading configuration file: %w", err).Error())
		os.Exit(1)
	}
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
		decoder.SetLogger(logger)
	}

	start := time.Now()
	spills, err := readSpills(configuration.FileIn, configuration.Skip, configuration.MaxSpills)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Spills read: %d in %d ms", len(spills), time.Since(start).Milliseconds()), "main")

	jobs := make(chan uint64, len(configuration.Widths))
	results := make(chan WindowResult, len(configuration.Widths))
	for w := 1; w <= max(*numWorkers, 1); w++ {
		go worker(w, configuration, spills, jobs, results)
	}
	for _, width := range configuration.Widths {
		jobs <- width
	}
	close(jobs)

	measured := make([]WindowResult, 0, len(configuration.Widths))
	for range configuration.Widths {
		measured = append(measured, <-results)
	}
	slices.SortFunc(measured, func(a, b WindowResult) int {
		return cmp.Compare(a.Width, b.Width)
	})

	for _, result := range measured {
		fmt.Printf("(width %d) raw events: %d, mean multiplicity: %.3f, max size: %d, failed spills: %d, time: %d ms\n",
			result.Width, result.RawEvents, result.MeanMultiplicity(), result.MaxSize, result.FailedSpills, result.Duration.Milliseconds())
	}
	fmt.Printf("Total time: %d ms\n", time.Since(start).Milliseconds())
}

// readSpills loads the selected spills into memory so every width is
// measured on the same data.
func readSpills(filename string, skip int, maxSpills int) ([][]uint32, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("Error opening file: %w", err)
	}
	defer file.Close()

	reader := decoder.NewSpillReader(file)
	spills := make([][]uint32, 0)
	for count := 0; count < maxSpills; count++ {
		spill, err := reader.ReadSpill()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Warn("Last spill is truncated", "main")
			break
		}
		if err != nil {
			return spills, fmt.Errorf("error reading spill %d: %w", count, err)
		}
		if count < skip {
			continue
		}
		spills = append(spills, spill)
	}
	return spills, nil
}
