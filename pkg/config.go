package decoder

type ChannelAddress struct {
	Module  int `json:"module" toml:"module" db:"Module"`
	Channel int `json:"channel" toml:"channel" db:"Channel"`
}

type Configuration struct {
	FileIn                 string           `json:"file_in" toml:"file_in"`
	FileOut                string           `json:"file_out" toml:"file_out"`
	Verbosity              int              `json:"verbosity" toml:"verbosity"`
	MaxSpills              int              `json:"max_spills" toml:"max_spills"`
	Skip                   int              `json:"skip" toml:"skip"`
	RunNumber              int              `json:"run_number" toml:"run_number"`
	EventWidth             uint64           `json:"event_width" toml:"event_width"`
	EventDelay             uint64           `json:"event_delay" toml:"event_delay"`
	RawEventMode           RawEventMode     `json:"raw_event_mode" toml:"raw_event_mode"`
	StartModule            int              `json:"start_module" toml:"start_module"`
	StartChannel           int              `json:"start_channel" toml:"start_channel"`
	UntriggeredPassthrough bool             `json:"untriggered_passthrough" toml:"untriggered_passthrough"`
	Whitelist              []ChannelAddress `json:"whitelist" toml:"whitelist"`
	MaxModule              int              `json:"max_module" toml:"max_module"`
	MaxChannel             int              `json:"max_channel" toml:"max_channel"`
	NoDB                   bool             `json:"no_db" toml:"no_db"`
	Host                   string           `json:"host" toml:"host"`
	User                   string           `json:"user" toml:"user"`
	Passwd                 string           `json:"pass" toml:"pass"`
	DBName                 string           `json:"dbname" toml:"dbname"`
	WriteData              bool             `json:"write_data" toml:"write_data"`
	WriteTraces            bool             `json:"write_traces" toml:"write_traces"`
	TraceSamples           int              `json:"trace_samples" toml:"trace_samples"`
	CompressionLevel       int              `json:"compression_level" toml:"compression_level"`
	MetricsAddr            string           `json:"metrics_addr" toml:"metrics_addr"`
	Widths                 []uint64         `json:"widths" toml:"widths"`
}

// DefaultConfiguration returns the values used for any field missing from
// the configuration file.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxSpills:        1000000000,
		Verbosity:        0,
		EventWidth:       62,
		EventDelay:       0,
		RawEventMode:     PositiveWindow,
		StartModule:      -1,
		StartChannel:     -1,
		MaxModule:        MaxVsn,
		MaxChannel:       15,
		NoDB:             false,
		Host:             "localhost",
		User:             "pixiereader",
		Passwd:           "readonly",
		DBName:           "PIXIE16",
		WriteData:        true,
		WriteTraces:      false,
		TraceSamples:     250,
		CompressionLevel: 4,
	}
}

// EventWindow extracts the windowing parameters carried in the scan state.
func (c Configuration) EventWindow() EventWindow {
	return EventWindow{
		Width:                  c.EventWidth,
		Delay:                  c.EventDelay,
		Mode:                   c.RawEventMode,
		StartModule:            c.StartModule,
		StartChannel:           c.StartChannel,
		UntriggeredPassthrough: c.UntriggeredPassthrough,
	}
}

// Limits returns the largest physical module and channel numbers accepted by
// the event builder.
func (c Configuration) Limits() AddressLimits {
	return AddressLimits{MaxModule: c.MaxModule, MaxChannel: c.MaxChannel}
}

// BuildWhitelist fills a whitelist from the configuration entries.
func (c Configuration) BuildWhitelist() *ChannelWhitelist {
	whitelist := NewChannelWhitelist()
	for _, entry := range c.Whitelist {
		whitelist.Add(entry.Module, entry.Channel)
	}
	return whitelist
}
