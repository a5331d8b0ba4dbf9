package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	decoder "github.com/pixie16/decoder_go/pkg"
)

// LoadConfiguration reads a JSON or, for .toml files, a TOML configuration
// on top of the default values.
func LoadConfiguration(filename string) (decoder.Configuration, error) {
	config := decoder.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if filepath.Ext(filename) == ".toml" {
		err = toml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, err
	}
	return config, validateConfiguration(config)
}

func validateConfiguration(config decoder.Configuration) error {
	var errs []error
	if config.FileIn == "" {
		errs = append(errs, errors.New("file_in is required"))
	}
	if config.WriteData && config.FileOut == "" {
		errs = append(errs, errors.New("file_out is required when write_data is set"))
	}
	if !config.RawEventMode.Valid() {
		errs = append(errs, fmt.Errorf("invalid raw_event_mode %d", config.RawEventMode))
	}
	if config.RawEventMode.Triggered() && (config.StartModule < 0 || config.StartChannel < 0) {
		errs = append(errs, fmt.Errorf("raw_event_mode %s needs start_module and start_channel", config.RawEventMode))
	}
	if config.Skip < 0 || config.MaxSpills < 0 {
		errs = append(errs, errors.New("skip and max_spills must not be negative"))
	}
	if config.WriteTraces && config.TraceSamples <= 0 {
		errs = append(errs, errors.New("trace_samples must be positive when write_traces is set"))
	}
	return errors.Join(errs...)
}

func printConfiguration(config decoder.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Raw event mode: %s", config.RawEventMode), "config")
	logger.Info(fmt.Sprintf("Event width: %d", config.EventWidth), "config")
	logger.Info(fmt.Sprintf("Event delay: %d", config.EventDelay), "config")
	logger.Info(fmt.Sprintf("Start channel: module %d, channel %d", config.StartModule, config.StartChannel), "config")
	logger.Info(fmt.Sprintf("Untriggered passthrough: %t", config.UntriggeredPassthrough), "config")
	logger.Info(fmt.Sprintf("Whitelist entries: %d", len(config.Whitelist)), "config")
	logger.Info(fmt.Sprintf("Max module: %d, max channel: %d", config.MaxModule, config.MaxChannel), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max spills: %d", config.MaxSpills), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Write traces: %t (%d samples)", config.WriteTraces, config.TraceSamples), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Metrics address: %s", config.MetricsAddr), "config")
}
