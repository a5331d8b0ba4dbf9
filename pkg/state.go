package decoder

import "time"

// EventWindow holds the raw event windowing parameters, in clock ticks.
type EventWindow struct {
	Width                  uint64
	Delay                  uint64
	Mode                   RawEventMode
	StartModule            int
	StartChannel           int
	UntriggeredPassthrough bool
}

// IsStart reports whether the record comes from the configured start channel.
func (w EventWindow) IsStart(record *ChannelRecord) bool {
	return w.Mode.Triggered() && record.Module == w.StartModule && record.Channel == w.StartChannel
}

// AddressLimits bounds the physical module and channel numbers.
type AddressLimits struct {
	MaxModule  int
	MaxChannel int
}

// DefaultAddressLimits allows MaxVsn modules of 16 channels per crate.
func DefaultAddressLimits() AddressLimits {
	return AddressLimits{MaxModule: MaxVsn, MaxChannel: 15}
}

func (l AddressLimits) Physical(record *ChannelRecord) bool {
	return record.PhysicalModule() <= l.MaxModule && record.Channel <= l.MaxChannel
}

// ScanState is carried by the caller from one spill to the next. Only Clear
// resets it.
type ScanState struct {
	Window        EventWindow
	LastVsn       uint32
	HaveLastVsn   bool
	RawEventCount uint64
	SpillCount    uint64
	FirstTime     uint64
	HaveFirstTime bool
	// Wall clock of the last vsn 1000 block, zero if none was seen
	WallClock time.Time
}

func NewScanState(window EventWindow) *ScanState {
	return &ScanState{Window: window}
}

// Clear forgets everything learned from previous spills but keeps the
// windowing configuration.
func (s *ScanState) Clear() {
	*s = ScanState{Window: s.Window}
}

func (s *ScanState) setLastVsn(vsn uint32) {
	s.LastVsn = vsn
	s.HaveLastVsn = true
}

func (s *ScanState) resetLastVsn() {
	s.LastVsn = 0
	s.HaveLastVsn = false
}

func (s *ScanState) observeTime(t uint64) {
	if !s.HaveFirstTime {
		s.FirstTime = t
		s.HaveFirstTime = true
	}
}
