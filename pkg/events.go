package decoder

// RawEvent is a group of channel records that fall in one time window.
type RawEvent struct {
	EventNumber uint64
	SpillNumber uint64
	WindowStart int64
	WindowEnd   int64
	// Start record of a triggered window, nil otherwise. It is also
	// the first entry of Records.
	Start   *ChannelRecord
	Records []*ChannelRecord
}

func (e *RawEvent) Len() int {
	return len(e.Records)
}

// Consumer receives every raw event built from a spill, in window order.
type Consumer interface {
	OnRawEvent(event RawEvent)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(event RawEvent)

func (f ConsumerFunc) OnRawEvent(event RawEvent) {
	f(event)
}

// RecordObserver is notified of every decoded record before event building.
type RecordObserver interface {
	OnChannelRecord(record *ChannelRecord)
}

type ChannelMap struct {
	ByAddress map[ChannelAddress]ChannelMapEntry
}

type ChannelMapEntry struct {
	Module   int    `db:"Module"`
	Channel  int    `db:"Channel"`
	Type     string `db:"Type"`
	Subtype  string `db:"Subtype"`
	Location int    `db:"Location"`
}
