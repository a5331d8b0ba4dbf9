package decoder

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// spillQueues owns every record decoded from the spill being scanned until
// it is moved into a raw event or dropped.
type spillQueues struct {
	// Module ids with a pending queue, ascending
	modules []int
	pending map[int][]*ChannelRecord
	start   []*ChannelRecord
	// Records dropped by the builder since the last clear
	discarded int
}

func newSpillQueues() *spillQueues {
	return &spillQueues{
		modules: make([]int, 0),
		pending: make(map[int][]*ChannelRecord),
		start:   make([]*ChannelRecord, 0),
	}
}

func (q *spillQueues) pushPending(record *ChannelRecord) {
	module := record.ModuleID()
	if _, ok := q.pending[module]; !ok {
		i, _ := slices.BinarySearch(q.modules, module)
		q.modules = slices.Insert(q.modules, i, module)
	}
	q.pending[module] = append(q.pending[module], record)
}

func (q *spillQueues) pushStart(record *ChannelRecord) {
	q.start = append(q.start, record)
}

func (q *spillQueues) size() int {
	n := len(q.start)
	for _, queue := range q.pending {
		n += len(queue)
	}
	return n
}

func (q *spillQueues) empty() bool {
	return q.size() == 0
}

// clear frees every queued record and returns how many were dropped.
func (q *spillQueues) clear() int {
	n := q.size()
	q.modules = q.modules[:0]
	clear(q.pending)
	clear(q.start)
	q.start = q.start[:0]
	return n
}

// sortByTime orders every queue by timestamp. The sort is stable so records
// with equal times keep their decode order.
func (q *spillQueues) sortByTime() {
	byTime := func(a, b *ChannelRecord) int {
		return cmp.Compare(a.Time, b.Time)
	}
	for _, module := range q.modules {
		slices.SortStableFunc(q.pending[module], byTime)
	}
	slices.SortStableFunc(q.start, byTime)
}

// dropNonPhysical removes records whose address is outside the limits.
func (q *spillQueues) dropNonPhysical(limits AddressLimits) int {
	dropped := 0
	keep := func(record *ChannelRecord) bool {
		if limits.Physical(record) {
			return true
		}
		err := fmt.Errorf("Encountered non-physical Pixie ID (mod = %d, chan = %d): %w", record.Module, record.Channel, ErrNonPhysicalAddress)
		logger.Warn(err.Error(), "eventBuilder")
		dropped++
		return false
	}
	for _, module := range q.modules {
		q.pending[module] = filterRecords(q.pending[module], keep)
	}
	q.start = filterRecords(q.start, keep)
	return dropped
}

func filterRecords(records []*ChannelRecord, keep func(*ChannelRecord) bool) []*ChannelRecord {
	kept := records[:0]
	for _, record := range records {
		if keep(record) {
			kept = append(kept, record)
		}
	}
	clear(records[len(kept):])
	return kept
}

func (q *spillQueues) front(module int) *ChannelRecord {
	queue := q.pending[module]
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

// popFront moves the first record of a module queue out of the queue.
func (q *spillQueues) popFront(module int) *ChannelRecord {
	queue := q.pending[module]
	record := queue[0]
	queue[0] = nil
	q.pending[module] = queue[1:]
	return record
}

func (q *spillQueues) popStart() *ChannelRecord {
	record := q.start[0]
	q.start[0] = nil
	q.start = q.start[1:]
	return record
}

func (q *spillQueues) minPendingTime() (uint64, bool) {
	found := false
	var minTime uint64
	for _, module := range q.modules {
		record := q.front(module)
		if record == nil {
			continue
		}
		if !found || record.Time < minTime {
			minTime = record.Time
			found = true
		}
	}
	return minTime, found
}
