package decoder

import (
	"errors"
	"fmt"
	"time"
)

const (
	// No more than 14 pixie modules per crate
	MaxVsn   = 14
	MaxWords = 131072
	// Record length of a legacy empty channel buffer
	EmptyBufferLength = 6
	TimestampVsn      = 1000
	EndOfSpillVsn     = 9999
	TotalRead         = 1000000
)

type ScannerConfig struct {
	Consumer  Consumer
	Observer  RecordObserver
	Whitelist *ChannelWhitelist
	Limits    AddressLimits
	Verbosity int
}

// Scanner walks spills, queues their channel records per module and turns
// them into raw events. It is not safe for concurrent use.
type Scanner struct {
	consumer  Consumer
	observer  RecordObserver
	whitelist *ChannelWhitelist
	limits    AddressLimits
	verbosity int
	queues    *spillQueues
	Stats     *HitCounter
}

func NewScanner(config ScannerConfig) *Scanner {
	whitelist := config.Whitelist
	if whitelist == nil {
		whitelist = NewChannelWhitelist()
	}
	limits := config.Limits
	if limits == (AddressLimits{}) {
		limits = DefaultAddressLimits()
	}
	consumer := config.Consumer
	if consumer == nil {
		consumer = ConsumerFunc(func(RawEvent) {})
	}
	return &Scanner{
		consumer:  consumer,
		observer:  config.Observer,
		whitelist: whitelist,
		limits:    limits,
		verbosity: config.Verbosity,
		queues:    newSpillQueues(),
		Stats:     NewHitCounter(),
	}
}

// ReadSpill scans one spill. When the spill ends cleanly its records are
// built into raw events and handed to the consumer before returning. Any
// error means every record of the spill was dropped.
func (s *Scanner) ReadSpill(state *ScanState, data []uint32) error {
	state.SpillCount++
	nWords := len(data)
	position := 0
	fullSpill := false
	var lenRec, vsn uint32

scan:
	for position < nWords {
		if position+1 >= nWords {
			break
		}
		lenRec = data[position]
		vsn = data[position+1]

		if lenRec > MaxWords || (vsn > MaxVsn && vsn != TimestampVsn && vsn != EndOfSpillVsn) {
			return s.abort(&FramingError{Position: position, LenRec: lenRec, Vsn: vsn, Reason: "sanity check failed"})
		}

		if lenRec == EmptyBufferLength {
			position += int(lenRec)
			state.setLastVsn(vsn)
			continue
		}

		switch {
		case vsn < MaxVsn:
			if state.HaveLastVsn && vsn != state.LastVsn+1 {
				message := fmt.Sprintf("Missing buffer %d, lastVsn = %d, vsn = %d, lenRec = %d", state.LastVsn+1, state.LastVsn, vsn, lenRec)
				logger.Warn(message, "scanner")
				s.Stats.countDropped(DropResync, s.queues.clear())
			}
			if position+int(lenRec) > nWords {
				return s.abort(&FramingError{Position: position, LenRec: lenRec, Vsn: vsn, Reason: "sub-buffer runs past the end of the spill"})
			}
			nRecords, nErrors, err := ReadModuleBuffer(data[position:position+int(lenRec)], func(record *ChannelRecord) {
				s.acceptRecord(state, record)
			})
			for i := 0; i < nErrors; i++ {
				s.Stats.countDecodeError()
			}
			if err != nil {
				return s.abort(fmt.Errorf("readout problem in spill %d: %w", state.SpillCount, err))
			}
			if s.verbosity > 1 {
				message := fmt.Sprintf("vsn %d: %d records, %d decode errors", vsn, nRecords, nErrors)
				logger.Info(message, "scanner")
			}
			state.setLastVsn(vsn)
			position += int(lenRec)

		case vsn == TimestampVsn:
			if lenRec < 2 {
				return s.abort(&FramingError{Position: position, LenRec: lenRec, Vsn: vsn, Reason: "record length too short"})
			}
			s.readWallClock(state, data[position:position+min(int(lenRec), nWords-position)])
			position += int(lenRec)
			// A time block closes the spill even without an end of spill tuple
			fullSpill = true

		case vsn == EndOfSpillVsn:
			fullSpill = true
			position += int(lenRec)
			break scan

		default:
			return s.abort(&FramingError{Position: position, LenRec: lenRec, Vsn: vsn, Reason: "unexpected vsn"})
		}
	}

	if nWords > TotalRead || position > TotalRead {
		message := fmt.Sprintf("Values of nn - %d nk - %d TOTALREAD - %d", nWords, position, TotalRead)
		logger.Warn(message, "scanner")
	}

	if !fullSpill {
		return s.abort(&SplitSpillError{WordsRead: position, Words: nWords, LastVsn: vsn})
	}

	// The next spill starts a new vsn sequence
	state.resetLastVsn()

	if position != nWords {
		mismatch := &WordCountMismatchError{WordsRead: position, Words: nWords}
		logger.Warn(mismatch.Error(), "scanner")
	}

	if !s.queues.empty() {
		s.buildEvents(state)
	}
	s.Stats.countSpill(true)
	return nil
}

func (s *Scanner) acceptRecord(state *ScanState, record *ChannelRecord) {
	state.observeTime(record.Time)
	s.Stats.countHit(record)
	if s.observer != nil {
		s.observer.OnChannelRecord(record)
	}
	if state.Window.IsStart(record) {
		s.queues.pushStart(record)
		return
	}
	s.queues.pushPending(record)
}

func (s *Scanner) buildEvents(state *ScanState) {
	s.queues.sortByTime()
	s.Stats.countDropped(DropNonPhysical, s.queues.dropNonPhysical(s.limits))

	nEvents := 0
	for {
		event, ok := s.queues.buildRawEvent(state.Window, s.whitelist)
		if !ok {
			break
		}
		event.EventNumber = state.RawEventCount
		event.SpillNumber = state.SpillCount
		state.RawEventCount++
		nEvents++
		metricRawEvents.Inc()
		metricEventSize.Observe(float64(event.Len()))
		s.consumer.OnRawEvent(event)
	}

	s.Stats.countDropped(DropOutOfWindow, s.queues.discarded)
	s.queues.discarded = 0
	s.Stats.countDropped(DropNoStartEvent, s.queues.clear())

	if s.verbosity > 0 {
		message := fmt.Sprintf("Spill %d: %d raw events, %d raw events total", state.SpillCount, nEvents, state.RawEventCount)
		logger.Info(message, "scanner")
	}
}

// The 8 bytes after the (lenRec, vsn) pair hold the unix time.
func (s *Scanner) readWallClock(state *ScanState, block []uint32) {
	if len(block) < 4 {
		return
	}
	seconds := int64(uint64(block[2]) | uint64(block[3])<<32)
	state.WallClock = time.Unix(seconds, 0)
	if s.verbosity > 0 {
		message := fmt.Sprintf("Spill %d wall clock: %s", state.SpillCount, state.WallClock.Format(time.DateTime))
		logger.Info(message, "scanner")
	}
}

// abort drops everything accumulated during the current spill.
func (s *Scanner) abort(err error) error {
	s.Stats.countDropped(DropAbort, s.queues.clear())
	s.queues.discarded = 0
	s.Stats.countSpill(false)
	var split *SplitSpillError
	if errors.As(err, &split) {
		logger.Warn(err.Error(), "scanner")
	} else {
		logger.Error(err.Error())
	}
	return err
}
