package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	decoder "github.com/pixie16/decoder_go/pkg"
)

var defaultWidths = []uint64{10, 25, 50, 62, 100, 200, 500, 1000}

func LoadConfiguration(filename string) (decoder.Configuration, error) {
	config := decoder.DefaultConfiguration()
	config.WriteData = false
	config.NoDB = true

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
	if len(config.Widths) == 0 {
		config.Widths = defaultWidths
	}
	if config.FileIn == "" {
		return config, fmt.Errorf("file_in is required")
	}
	if !config.RawEventMode.Valid() {
		return config, fmt.Errorf("invalid raw_event_mode %d", config.RawEventMode)
	}
	return config, nil
}

func printConfiguration(config decoder.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Raw event mode: %s", config.RawEventMode), "config")
	logger.Info(fmt.Sprintf("Widths: %v", config.Widths), "config")
	logger.Info(fmt.Sprintf("Event delay: %d", config.EventDelay), "config")
	logger.Info(fmt.Sprintf("Start channel: module %d, channel %d", config.StartModule, config.StartChannel), "config")
	logger.Info(fmt.Sprintf("Whitelist entries: %d", len(config.Whitelist)), "config")
	logger.Info(fmt.Sprintf("Max spills: %d", config.MaxSpills), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
