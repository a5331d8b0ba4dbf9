package main

import (
	"fmt"
	"time"

	decoder "github.com/pixie16/decoder_go/pkg"
)

// WindowResult summarises one pass over the spills with a given width.
type WindowResult struct {
	Width         uint64
	RawEvents     uint64
	Records       uint64
	MaxSize       int
	FailedSpills  int
	Duration      time.Duration
	DroppedByCase map[string]uint64
}

func (r WindowResult) MeanMultiplicity() float64 {
	if r.RawEvents == 0 {
		return 0
	}
	return float64(r.Records) / float64(r.RawEvents)
}

func worker(id int, config decoder.Configuration, spills [][]uint32, jobs <-chan uint64, results chan<- WindowResult) {
	for width := range jobs {
		if config.Verbosity > 0 {
			logger.Info(fmt.Sprintf("Worker %d measuring width %d", id, width), "worker")
		}
		results <- measureWidth(config, spills, width)
	}
}

// measureWidth builds every spill with the given width and collects the
// event statistics. Each call uses its own scanner and state.
func measureWidth(config decoder.Configuration, spills [][]uint32, width uint64) (result WindowResult) {
	result.Width = width
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Width %d recovered from panic: %v", width, r))
		}
		result.Duration = time.Since(start)
	}()

	window := config.EventWindow()
	window.Width = width
	consumer := decoder.ConsumerFunc(func(event decoder.RawEvent) {
		result.Records += uint64(event.Len())
		result.MaxSize = max(result.MaxSize, event.Len())
	})
	scanner := decoder.NewScanner(decoder.ScannerConfig{
		Consumer:  consumer,
		Whitelist: config.BuildWhitelist(),
		Limits:    config.Limits(),
	})
	state := decoder.NewScanState(window)
	for _, spill := range spills {
		if err := scanner.ReadSpill(state, spill); err != nil {
			result.FailedSpills++
		}
	}
	result.RawEvents = state.RawEventCount
	result.DroppedByCase = scanner.Stats.Dropped
	return result
}
