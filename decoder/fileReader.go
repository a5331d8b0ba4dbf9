package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	decoder "github.com/pixie16/decoder_go/pkg"
)

// FileReader hands out the spills of a list-mode file, honouring the skip
// and max_spills settings.
type FileReader struct {
	File       *os.File
	reader     *decoder.SpillReader
	SpillCount int
	Skip       int
	MaxSpills  int
	Verbosity  int
}

func NewFileReader(file *os.File, skip int, maxSpills int, verbosity int) *FileReader {
	return &FileReader{
		File:       file,
		reader:     decoder.NewSpillReader(file),
		SpillCount: -1,
		Skip:       skip,
		MaxSpills:  maxSpills,
		Verbosity:  verbosity,
	}
}

func (f *FileReader) getNextSpill() ([]uint32, error) {
	for {
		spill, err := f.reader.ReadSpill()
		if err != nil {
			return nil, err
		}
		f.SpillCount++
		if f.SpillCount >= f.MaxSpills {
			if f.Verbosity > 0 {
				logger.Info("Max spills reached", "fileReader")
			}
			return nil, io.EOF
		}
		if f.SpillCount < f.Skip {
			if f.Verbosity > 1 {
				message := fmt.Sprintf("Skipping spill %d", f.SpillCount)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if f.Verbosity > 1 {
			message := fmt.Sprintf("Reading spill %d (%d words)", f.SpillCount, len(spill))
			logger.Info(message, "fileReader")
		}
		return spill, nil
	}
}

// countSpills walks the whole file and rewinds it. A truncated last spill
// is not counted.
func countSpills(file *os.File) (int, error) {
	reader := decoder.NewSpillReader(file)
	count := 0
	for {
		_, err := reader.ReadSpill()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Warn("Last spill is truncated", "spillCounter")
			break
		}
		if err != nil {
			return count, fmt.Errorf("error counting spills: %w", err)
		}
		count++
	}
	// Go back to the beginning of the file
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return count, err
	}
	return count, nil
}

func numberOfSpillsToProcess(fileSpillCount int, skipSpills int, maxSpillCount int) int {
	spillsToRead := min(fileSpillCount, maxSpillCount) - skipSpills
	return max(spillsToRead, 0)
}
