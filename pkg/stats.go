package decoder

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// Reasons a decoded record can be dropped before reaching a raw event
const (
	DropResync       = "resync"
	DropAbort        = "abort"
	DropNonPhysical  = "non_physical"
	DropOutOfWindow  = "out_of_window"
	DropNoStartEvent = "no_start"
)

// HitCounter accumulates per-channel hit counts and error counters over the
// whole run.
type HitCounter struct {
	Hits         map[ChannelAddress]uint64
	DecodeErrors uint64
	Dropped      map[string]uint64
	GoodSpills   uint64
	BadSpills    uint64
}

func NewHitCounter() *HitCounter {
	return &HitCounter{
		Hits:    make(map[ChannelAddress]uint64),
		Dropped: make(map[string]uint64),
	}
}

func (h *HitCounter) countHit(record *ChannelRecord) {
	h.Hits[record.Address()]++
	metricRecords.Inc()
}

func (h *HitCounter) countDecodeError() {
	h.DecodeErrors++
	metricDecodeErrors.Inc()
}

func (h *HitCounter) countDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	h.Dropped[reason] += uint64(n)
	metricDropped.WithLabelValues(reason).Add(float64(n))
}

func (h *HitCounter) countSpill(good bool) {
	if good {
		h.GoodSpills++
		metricSpills.WithLabelValues("ok").Inc()
		return
	}
	h.BadSpills++
	metricSpills.WithLabelValues("failed").Inc()
}

// TotalHits is the number of records decoded over the run.
func (h *HitCounter) TotalHits() uint64 {
	var total uint64
	for _, n := range h.Hits {
		total += n
	}
	return total
}

// Summary returns one line per channel that fired, followed by the counters.
func (h *HitCounter) Summary() []string {
	addresses := make([]ChannelAddress, 0, len(h.Hits))
	for address := range h.Hits {
		addresses = append(addresses, address)
	}
	slices.SortFunc(addresses, func(a, b ChannelAddress) int {
		if c := cmp.Compare(a.Module, b.Module); c != 0 {
			return c
		}
		return cmp.Compare(a.Channel, b.Channel)
	})

	lines := make([]string, 0, len(addresses)+3)
	for _, address := range addresses {
		lines = append(lines, fmt.Sprintf("Module %d, channel %d: %d hits", address.Module, address.Channel, h.Hits[address]))
	}
	lines = append(lines, fmt.Sprintf("Spills: %d good, %d failed", h.GoodSpills, h.BadSpills))
	lines = append(lines, fmt.Sprintf("Decode errors: %d", h.DecodeErrors))

	reasons := make([]string, 0, len(h.Dropped))
	for reason := range h.Dropped {
		reasons = append(reasons, reason)
	}
	slices.Sort(reasons)
	for _, reason := range reasons {
		lines = append(lines, fmt.Sprintf("Dropped (%s): %d", reason, h.Dropped[reason]))
	}
	return lines
}
