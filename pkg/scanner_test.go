package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(consumer Consumer, whitelist *ChannelWhitelist) *Scanner {
	return NewScanner(ScannerConfig{
		Consumer:  consumer,
		Whitelist: whitelist,
		Limits:    AddressLimits{MaxModule: MaxVsn, MaxChannel: 15},
	})
}

func positiveState(width uint64) *ScanState {
	return NewScanState(EventWindow{Width: width, Mode: PositiveWindow})
}

func TestReadSpillBuildsEvents(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(
		hitsTuple(0, hit{channel: 0, time: 10}, hit{channel: 1, time: 70}),
		hitsTuple(1, hit{channel: 3, time: 0, headerLength: 8}),
		hitsTuple(2, hit{channel: 0, time: 5, headerLength: 8}),
		endOfSpill(),
	)
	require.NoError(t, scanner.ReadSpill(state, data))

	require.Len(t, out.events, 2)
	assert.ElementsMatch(t, []uint64{0, 5, 10}, eventTimes(out.events[0]))
	assert.Equal(t, []uint64{70}, eventTimes(out.events[1]))
	assert.Equal(t, uint64(0), out.events[0].EventNumber)
	assert.Equal(t, uint64(1), out.events[1].EventNumber)
	assert.Equal(t, uint64(1), out.events[1].SpillNumber)
	assert.Equal(t, uint64(2), state.RawEventCount)
	assert.Equal(t, uint64(4), scanner.Stats.TotalHits())
	assert.Equal(t, uint64(1), scanner.Stats.GoodSpills)
	// End of spill resets the sequence check
	assert.False(t, state.HaveLastVsn)
}

func TestReadSpillKeepsEveryRecord(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(25)

	hits := make([]hit, 0)
	for i := 0; i < 40; i++ {
		hits = append(hits, hit{channel: i % 16, time: uint64(i*i*7) % 500})
	}
	data := spill(hitsTuple(0, hits[:20]...), hitsTuple(1, hits[20:]...), endOfSpill())
	require.NoError(t, scanner.ReadSpill(state, data))

	records := out.records()
	require.Len(t, records, len(hits))
	seen := make(map[ChannelAddress]int)
	for _, record := range records {
		seen[record.Address()]++
	}
	for i, h := range hits {
		module := 0
		if i >= 20 {
			module = 1
		}
		assert.Positive(t, seen[ChannelAddress{Module: module, Channel: h.channel}])
	}

	// Events come out in window order and each one fits its window
	for i, event := range out.events {
		for _, record := range event.Records {
			assert.GreaterOrEqual(t, int64(record.Time), event.WindowStart)
			assert.Less(t, int64(record.Time), event.WindowEnd)
		}
		if i > 0 {
			assert.Greater(t, event.WindowStart, out.events[i-1].WindowStart)
		}
	}
}

func TestReadSpillImmediateEndOfSpill(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	require.NoError(t, scanner.ReadSpill(state, endOfSpill()))
	assert.Empty(t, out.events)
	assert.Equal(t, uint64(1), scanner.Stats.GoodSpills)
}

func TestReadSpillMissingBufferResyncs(t *testing.T) {
	logs := captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(
		hitsTuple(0, hit{channel: 0, time: 10, headerLength: 8}),
		hitsTuple(1, hit{channel: 1, time: 11, headerLength: 8}),
		hitsTuple(3, hit{channel: 2, time: 12, headerLength: 8}),
		endOfSpill(),
	)
	require.NoError(t, scanner.ReadSpill(state, data))

	// Records read before the gap are gone
	require.Len(t, out.events, 1)
	require.Equal(t, 1, out.events[0].Len())
	assert.Equal(t, 3, out.events[0].Records[0].Module)
	assert.Equal(t, uint64(2), scanner.Stats.Dropped[DropResync])
	require.NotEmpty(t, logs.warnings)
	assert.Contains(t, logs.warnings[0], "Missing buffer 2")
}

func TestReadSpillSkipsBadRecord(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	bad := []uint32{3<<12 | 4<<17, 0, 0, 0}
	data := spill(
		moduleTuple(0, hit{channel: 1, time: 1}.words(), bad, hit{channel: 2, time: 2}.words()),
		endOfSpill(),
	)
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Len(t, out.records(), 2)
	assert.Equal(t, uint64(1), scanner.Stats.DecodeErrors)
}

func TestReadSpillEmptyBufferMarker(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(
		hitsTuple(0, hit{channel: 1, time: 1, headerLength: 8}),
		[]uint32{EmptyBufferLength, 1, 2, 1, 0, 0},
		hitsTuple(2, hit{channel: 2, time: 2, headerLength: 8}),
		endOfSpill(),
	)
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Len(t, out.records(), 2)
	assert.Empty(t, scanner.Stats.Dropped)
}

func TestReadSpillSplit(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(hitsTuple(0, hit{channel: 1, time: 1, headerLength: 8}), hitsTuple(1, hit{channel: 1, time: 2, headerLength: 8}))
	err := scanner.ReadSpill(state, data)
	assert.ErrorIs(t, err, ErrSplitSpill)
	assert.Empty(t, out.events)
	assert.Equal(t, uint64(2), scanner.Stats.Dropped[DropAbort])
	assert.Equal(t, uint64(1), scanner.Stats.BadSpills)
	// The sequence is kept for the continuation
	assert.True(t, state.HaveLastVsn)
	assert.Equal(t, uint32(1), state.LastVsn)

	// Nothing leaks into the next spill
	require.NoError(t, scanner.ReadSpill(state, spill(hitsTuple(2, hit{channel: 0, time: 9, headerLength: 8}), endOfSpill())))
	assert.Len(t, out.records(), 1)
}

func TestReadSpillFramingErrors(t *testing.T) {
	cases := map[string][]uint32{
		"vsn out of range":    spill(hitsTuple(0, hit{time: 1, headerLength: 8}), []uint32{4, 20, 0, 0}, endOfSpill()),
		"record too long":     spill([]uint32{MaxWords + 1, 0}, endOfSpill()),
		"sub-buffer past end": spill([]uint32{40, 0, 0}),
		"zero length":         spill([]uint32{0, 0}, endOfSpill()),
		"short time block":    spill([]uint32{1, TimestampVsn}, endOfSpill()),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			logs := captureLogs(t)
			out := &collector{}
			scanner := newTestScanner(out, nil)
			state := positiveState(62)

			err := scanner.ReadSpill(state, data)
			assert.Error(t, err)
			assert.Empty(t, out.events)
			assert.Equal(t, uint64(1), scanner.Stats.BadSpills)
			assert.NotEmpty(t, logs.errors)
		})
	}
}

func TestReadSpillFramingErrorType(t *testing.T) {
	captureLogs(t)
	scanner := newTestScanner(nil, nil)
	state := positiveState(62)

	err := scanner.ReadSpill(state, []uint32{8, 15, 0, 0, 0, 0, 0, 0})
	var framing *FramingError
	require.ErrorAs(t, err, &framing)
	assert.Equal(t, uint32(15), framing.Vsn)
	assert.Equal(t, 0, framing.Position)
	assert.ErrorIs(t, err, ErrFraming)
}

func TestReadSpillWallClock(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(hitsTuple(0, hit{channel: 1, time: 1, headerLength: 8}), wallClockTuple(1700000000))
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Equal(t, time.Unix(1700000000, 0), state.WallClock)
	assert.Len(t, out.events, 1)
}

func TestReadSpillWallClockInsideSpill(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(hitsTuple(0, hit{channel: 1, time: 1, headerLength: 8}), wallClockTuple(42), hitsTuple(1, hit{channel: 1, time: 3, headerLength: 8}), endOfSpill())
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Equal(t, time.Unix(42, 0), state.WallClock)
	assert.Len(t, out.records(), 2)
}

func TestReadSpillTimeBlockEndsSpillMidway(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(
		hitsTuple(0, hit{channel: 1, time: 1}, hit{channel: 2, time: 2}),
		wallClockTuple(42),
		hitsTuple(1, hit{channel: 1, time: 3}, hit{channel: 2, time: 4}),
	)
	require.NoError(t, scanner.ReadSpill(state, data))
	require.Len(t, out.events, 1)
	assert.ElementsMatch(t, []uint64{1, 2, 3, 4}, eventTimes(out.events[0]))
	assert.Len(t, out.records(), 4)
	assert.Equal(t, uint64(1), scanner.Stats.GoodSpills)
	assert.Empty(t, scanner.Stats.Dropped)
}

func TestReadSpillTrailingTimeBlockResetsSequence(t *testing.T) {
	logs := captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	first := spill(
		hitsTuple(0, hit{channel: 1, time: 1}, hit{channel: 2, time: 2}),
		hitsTuple(1, hit{channel: 1, time: 3}, hit{channel: 2, time: 4}),
		wallClockTuple(42),
	)
	require.NoError(t, scanner.ReadSpill(state, first))
	assert.False(t, state.HaveLastVsn)

	second := spill(hitsTuple(0, hit{channel: 1, time: 100}, hit{channel: 2, time: 101}), endOfSpill())
	require.NoError(t, scanner.ReadSpill(state, second))
	for _, warning := range logs.warnings {
		assert.NotContains(t, warning, "Missing buffer")
	}
	assert.Len(t, out.records(), 6)
	assert.Zero(t, scanner.Stats.Dropped[DropResync])
}

func TestReadSpillSingleShortRecordIsEmptyMarker(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	// One 4 word record gives a 6 word tuple, the same length as an empty buffer
	tuple := hitsTuple(3, hit{channel: 1, time: 1})
	require.Len(t, tuple, EmptyBufferLength)

	require.NoError(t, scanner.ReadSpill(state, spill(tuple, endOfSpill())))
	assert.Empty(t, out.records())
	assert.Zero(t, scanner.Stats.TotalHits())
	assert.Equal(t, uint64(1), scanner.Stats.GoodSpills)
}

func TestNewScannerDefaultLimits(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := NewScanner(ScannerConfig{Consumer: out})
	state := positiveState(62)

	data := spill(hitsTuple(0, hit{channel: 3, time: 1}, hit{channel: 4, time: 2}), endOfSpill())
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Len(t, out.records(), 2)
	assert.Zero(t, scanner.Stats.Dropped[DropNonPhysical])
}

func TestReadSpillWordCountMismatchIsAdvisory(t *testing.T) {
	logs := captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := positiveState(62)

	data := spill(hitsTuple(0, hit{channel: 1, time: 1, headerLength: 8}), endOfSpill(), []uint32{0xFFFF})
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Len(t, out.events, 1)
	require.NotEmpty(t, logs.warnings)
	assert.Contains(t, logs.warnings[len(logs.warnings)-1], "received spill of")
}

func TestReadSpillDropsNonPhysicalRecords(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := NewScanner(ScannerConfig{
		Consumer: out,
		Limits:   AddressLimits{MaxModule: 1, MaxChannel: 15},
	})
	state := positiveState(62)

	data := spill(
		hitsTuple(0, hit{channel: 1, time: 1, headerLength: 8}),
		hitsTuple(1, hit{channel: 1, time: 2, headerLength: 8}),
		hitsTuple(2, hit{channel: 1, time: 3, headerLength: 8}),
		endOfSpill(),
	)
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Len(t, out.records(), 2)
	assert.Equal(t, uint64(1), scanner.Stats.Dropped[DropNonPhysical])
}

func TestReadSpillTriggered(t *testing.T) {
	captureLogs(t)
	out := &collector{}
	scanner := newTestScanner(out, nil)
	state := NewScanState(EventWindow{Width: 62, Mode: TriggeredPositiveWindow, StartModule: 1, StartChannel: 0})

	data := spill(
		hitsTuple(0, hit{channel: 4, time: 90}, hit{channel: 4, time: 120}, hit{channel: 4, time: 500}),
		hitsTuple(1, hit{channel: 0, time: 100, headerLength: 8}),
		endOfSpill(),
	)
	require.NoError(t, scanner.ReadSpill(state, data))

	require.Len(t, out.events, 1)
	assert.Equal(t, []uint64{100, 120}, eventTimes(out.events[0]))
	assert.Equal(t, uint64(1), scanner.Stats.Dropped[DropOutOfWindow])
	assert.Equal(t, uint64(1), scanner.Stats.Dropped[DropNoStartEvent])
}

func TestReadSpillObserver(t *testing.T) {
	captureLogs(t)
	seen := 0
	scanner := NewScanner(ScannerConfig{
		Observer: observerFunc(func(*ChannelRecord) { seen++ }),
		Limits:   AddressLimits{MaxModule: MaxVsn, MaxChannel: 15},
	})
	state := positiveState(62)

	data := spill(hitsTuple(0, hit{channel: 1, time: 5}, hit{channel: 2, time: 3}), endOfSpill())
	require.NoError(t, scanner.ReadSpill(state, data))
	assert.Equal(t, 2, seen)
	assert.Equal(t, uint64(5), state.FirstTime)
}

func TestScanStateClear(t *testing.T) {
	window := EventWindow{Width: 10, Mode: NegativeWindow}
	state := NewScanState(window)
	state.setLastVsn(4)
	state.RawEventCount = 7
	state.observeTime(99)

	state.Clear()
	assert.Equal(t, window, state.Window)
	assert.False(t, state.HaveLastVsn)
	assert.Zero(t, state.RawEventCount)
	assert.False(t, state.HaveFirstTime)
}

type observerFunc func(*ChannelRecord)

func (f observerFunc) OnChannelRecord(record *ChannelRecord) { f(record) }
