package decoder

// hit describes a channel record to encode in test buffers.
type hit struct {
	crate        int
	slot         int
	channel      int
	headerLength uint32
	time         uint64
	cfd          uint32
	energy       uint32
	trace        []uint16
	qdc          [NumQdcSums]uint32
	virtual      bool
	saturated    bool
	pileup       bool
	outOfRange   bool
}

// words encodes the hit with the Pixie16 list mode layout.
func (h hit) words() []uint32 {
	headerLength := h.headerLength
	if headerLength == 0 {
		headerLength = 4
	}
	eventLength := headerLength + uint32(len(h.trace))/2

	word0 := uint32(h.channel) | uint32(h.slot)<<4 | uint32(h.crate)<<8 |
		headerLength<<12 | eventLength<<17
	if h.virtual {
		word0 |= virtualChannelMask
	}
	if h.saturated {
		word0 |= saturatedMask
	}
	if h.pileup {
		word0 |= pileupMask
	}
	word3 := h.energy&0xFFFF | uint32(len(h.trace))<<16
	if h.outOfRange {
		word3 |= 0x80000000
	}

	words := []uint32{
		word0,
		uint32(h.time & 0xFFFFFFFF),
		uint32(h.time>>32)&0xFFFF | h.cfd<<16,
		word3,
	}
	if headerLength == 8 || headerLength == 16 {
		words = append(words, 0, 0, 0, 0)
	}
	if headerLength >= 12 {
		words = append(words, h.qdc[:]...)
	}
	for i := 0; i+1 < len(h.trace); i += 2 {
		words = append(words, uint32(h.trace[i])|uint32(h.trace[i+1])<<16)
	}
	return words
}

// moduleTuple builds a (lenRec, vsn, records...) sub-buffer.
func moduleTuple(vsn uint32, records ...[]uint32) []uint32 {
	payload := make([]uint32, 0)
	for _, record := range records {
		payload = append(payload, record...)
	}
	tuple := []uint32{uint32(len(payload) + 2), vsn}
	return append(tuple, payload...)
}

// hitsTuple packs hits into one sub-buffer. A single 4 word record makes a
// 6 word tuple, which the scanner reads as an empty buffer.
func hitsTuple(vsn uint32, hits ...hit) []uint32 {
	records := make([][]uint32, len(hits))
	for i, h := range hits {
		records[i] = h.words()
	}
	return moduleTuple(vsn, records...)
}

func endOfSpill() []uint32 {
	return []uint32{2, EndOfSpillVsn}
}

func wallClockTuple(seconds uint64) []uint32 {
	return []uint32{4, TimestampVsn, uint32(seconds & 0xFFFFFFFF), uint32(seconds >> 32)}
}

func spill(tuples ...[]uint32) []uint32 {
	words := make([]uint32, 0)
	for _, tuple := range tuples {
		words = append(words, tuple...)
	}
	return words
}

// collector records every raw event it receives.
type collector struct {
	events []RawEvent
}

func (c *collector) OnRawEvent(event RawEvent) {
	c.events = append(c.events, event)
}

func (c *collector) records() []*ChannelRecord {
	records := make([]*ChannelRecord, 0)
	for _, event := range c.events {
		records = append(records, event.Records...)
	}
	return records
}

func eventTimes(event RawEvent) []uint64 {
	times := make([]uint64, len(event.Records))
	for i, record := range event.Records {
		times[i] = record.Time
	}
	return times
}

// testLogger keeps the messages logged by the package.
type testLogger struct {
	infos    []string
	warnings []string
	errors   []string
}

func (l *testLogger) Info(message string, module string) { l.infos = append(l.infos, message) }
func (l *testLogger) Warn(message string, module string) { l.warnings = append(l.warnings, message) }
func (l *testLogger) Error(message string)               { l.errors = append(l.errors, message) }

func captureLogs(t interface{ Cleanup(func()) }) *testLogger {
	l := &testLogger{}
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
	return l
}
