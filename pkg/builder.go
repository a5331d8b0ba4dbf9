package decoder

import "math"

// buildRawEvent builds at most one raw event from the queued records. It
// returns false when no further event can be built from the queues.
func (q *spillQueues) buildRawEvent(window EventWindow, whitelist *ChannelWhitelist) (RawEvent, bool) {
	switch window.Mode {
	case PositiveWindow:
		return q.buildUntriggered(window.Width, false)
	case NegativeWindow:
		return q.buildUntriggered(window.Width, true)
	case TriggeredPositiveWindow, TriggeredNegativeWindow:
		return q.buildTriggered(window, whitelist)
	}
	return RawEvent{}, false
}

// buildUntriggered anchors the window on the earliest queued record. The
// anchor record always belongs to the event, so every call makes progress.
func (q *spillQueues) buildUntriggered(width uint64, negative bool) (RawEvent, bool) {
	minTime, ok := q.minPendingTime()
	if !ok {
		return RawEvent{}, false
	}

	anchor := int64(minTime)
	event := RawEvent{
		WindowStart: anchor,
		WindowEnd:   saturatingAdd(anchor, width),
		Records:     make([]*ChannelRecord, 0),
	}
	if negative {
		event.WindowStart = anchor - int64(width)
		event.WindowEnd = anchor
	}

	inWindow := func(t int64) bool {
		if t == anchor {
			return true
		}
		if negative {
			return t <= event.WindowEnd
		}
		return t < event.WindowEnd
	}

	for _, module := range q.modules {
		for record := q.front(module); record != nil; record = q.front(module) {
			if !inWindow(int64(record.Time)) {
				break
			}
			event.Records = append(event.Records, q.popFront(module))
		}
	}
	return event, true
}

func (q *spillQueues) buildTriggered(window EventWindow, whitelist *ChannelWhitelist) (RawEvent, bool) {
	if len(q.start) == 0 {
		switch {
		case window.UntriggeredPassthrough:
			return q.buildUntriggered(window.Width, false)
		case whitelist.Len() > 0:
			return q.passWhitelisted(whitelist)
		}
		return RawEvent{}, false
	}

	start := q.popStart()
	var windowStart int64
	if window.Mode == TriggeredPositiveWindow {
		windowStart = int64(start.Time) + int64(window.Delay)
	} else {
		windowStart = int64(start.Time) - int64(window.Width+window.Delay)
	}
	width := int64(window.Width)

	event := RawEvent{
		WindowStart: windowStart,
		WindowEnd:   windowStart + width,
		Start:       start,
		Records:     []*ChannelRecord{start},
	}

	for _, module := range q.modules {
		for record := q.front(module); record != nil; record = q.front(module) {
			offset := int64(record.Time) - windowStart
			// Queues are time ordered: a record too early for this start
			// is too early for every later start as well.
			if offset <= 0 && !whitelist.Contains(record.Module, record.Channel) {
				q.popFront(module)
				q.discarded++
				continue
			}
			if offset > width {
				break
			}
			event.Records = append(event.Records, q.popFront(module))
		}
	}
	return event, true
}

// passWhitelisted drops every record that is not whitelisted and hands out
// all the remaining ones as a single event.
func (q *spillQueues) passWhitelisted(whitelist *ChannelWhitelist) (RawEvent, bool) {
	event := RawEvent{}
	for _, module := range q.modules {
		for _, record := range q.pending[module] {
			if !whitelist.Contains(record.Module, record.Channel) {
				q.discarded++
				continue
			}
			if len(event.Records) == 0 || int64(record.Time) < event.WindowStart {
				event.WindowStart = int64(record.Time)
			}
			if int64(record.Time) > event.WindowEnd {
				event.WindowEnd = int64(record.Time)
			}
			event.Records = append(event.Records, record)
		}
		clear(q.pending[module])
		q.pending[module] = q.pending[module][:0]
	}
	return event, len(event.Records) > 0
}

func saturatingAdd(a int64, b uint64) int64 {
	if b > uint64(math.MaxInt64-a) {
		return math.MaxInt64
	}
	return a + int64(b)
}
