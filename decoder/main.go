package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	decoder "github.com/pixie16/decoder_go/pkg"
)

var dbConn *sqlx.DB
var configuration decoder.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	logger = NewLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if err := run(*configFilename); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configFilename string) error {
	var err error
	configuration, err = LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	decoder.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	whitelist := configuration.BuildWhitelist()
	channelMap := decoder.ChannelMap{ByAddress: make(map[decoder.ChannelAddress]decoder.ChannelMapEntry)}
	if !configuration.NoDB {
		dbConn, err = decoder.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			return fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()

		channelMap, err = decoder.LoadDatabase(dbConn, configuration.RunNumber, whitelist, VerbosityLevel)
		if err != nil {
			return err
		}
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Whitelisted channels: %v", whitelist.Entries())
		logger.Info(message, "main")
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return fmt.Errorf("Error opening file: %w", err)
	}
	defer file.Close()

	spillCount, err := countSpills(file)
	if err != nil {
		return err
	}
	if VerbosityLevel > 0 {
		spillsToRead := numberOfSpillsToProcess(spillCount, configuration.Skip, configuration.MaxSpills)
		message := fmt.Sprintf("Number of spills: %d, spills to process: %d", spillCount, spillsToRead)
		logger.Info(message, "main")
	}

	if configuration.MetricsAddr != "" {
		server := serveMetrics(configuration.MetricsAddr)
		defer stopMetrics(server, 5*time.Second)
	}

	var consumer decoder.Consumer
	var writer *decoder.Writer
	if configuration.WriteData {
		writer, err = decoder.NewWriter(configuration.FileOut, decoder.WriterOptions{
			RunNumber:        configuration.RunNumber,
			Window:           configuration.EventWindow(),
			WriteTraces:      configuration.WriteTraces,
			TraceSamples:     configuration.TraceSamples,
			CompressionLevel: configuration.CompressionLevel,
		})
		if err != nil {
			return fmt.Errorf("Error creating output file: %w", err)
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error(err.Error())
			}
		}()
		if err := writer.WriteChannelMap(channelMap); err != nil {
			return fmt.Errorf("Error writing channel map: %w", err)
		}
		consumer = writer
	}

	scanner := decoder.NewScanner(decoder.ScannerConfig{
		Consumer:  consumer,
		Whitelist: whitelist,
		Limits:    configuration.Limits(),
		Verbosity: VerbosityLevel,
	})
	state := decoder.NewScanState(configuration.EventWindow())

	var running atomic.Bool
	running.Store(true)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		sig, ok := <-sigs
		if !ok {
			return
		}
		logger.Warn(fmt.Sprintf("Received %s, stopping after the current spill", sig), "main")
		running.Store(false)
	}()

	start := time.Now()
	fileReader := NewFileReader(file, configuration.Skip, configuration.MaxSpills, VerbosityLevel)
	jobs := make(chan SpillData, 4)
	readErr := make(chan error, 1)
	go func() {
		readErr <- sendSpillsToScanner(fileReader, jobs, &running)
	}()

	spillsScanned := 0
	spillsFailed := 0
	for spill := range jobs {
		spillsScanned++
		if err := scanSpill(scanner, state, spill); err != nil {
			spillsFailed++
			if VerbosityLevel > 0 {
				message := fmt.Sprintf("Spill %d dropped: %s", spill.Index, err.Error())
				logger.Info(message, "main")
			}
		}
		if writer != nil && writer.Err() != nil {
			running.Store(false)
			// Drain the reader so it can exit
			for range jobs {
			}
			break
		}
	}
	if err := <-readErr; err != nil {
		logger.Error(err.Error())
	}

	for _, line := range scanner.Stats.Summary() {
		logger.Info(line, "summary")
	}
	message := fmt.Sprintf("Spills scanned: %d (%d dropped), raw events: %d", spillsScanned, spillsFailed, state.RawEventCount)
	logger.Info(message, "summary")
	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "summary")

	if writer != nil && writer.Err() != nil {
		return fmt.Errorf("Error writing output file: %w", writer.Err())
	}
	return nil
}
