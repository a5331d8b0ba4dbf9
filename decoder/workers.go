package main

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	decoder "github.com/pixie16/decoder_go/pkg"
)

type SpillData struct {
	Index int
	Words []uint32
}

// sendSpillsToScanner reads spills ahead of the scanner until the file ends,
// a read error occurs or running is cleared.
func sendSpillsToScanner(fileReader *FileReader, jobs chan<- SpillData, running *atomic.Bool) error {
	defer close(jobs)
	for running.Load() {
		spill, err := fileReader.getNextSpill()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Warn(fmt.Sprintf("Spill %d is truncated, scanning the words read", fileReader.SpillCount+1), "fileReader")
			if len(spill) > 0 {
				jobs <- SpillData{Index: fileReader.SpillCount + 1, Words: spill}
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading spill: %w", err)
		}
		jobs <- SpillData{Index: fileReader.SpillCount, Words: spill}
	}
	logger.Info("Reading interrupted", "fileReader")
	return nil
}

// scanSpill runs the scanner on one spill. A panic drops the spill and is
// reported as an error so the run can continue.
func scanSpill(scanner *decoder.Scanner, state *decoder.ScanState, spill SpillData) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scanner recovered from panic on spill %d: %v", spill.Index, r)
			logger.Error(err.Error())
			logger.Error(fmt.Sprintf("discarding spill %d", spill.Index))
		}
	}()
	return scanner.ReadSpill(state, spill.Words)
}
