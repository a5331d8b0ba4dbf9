package decoder

import (
	"cmp"

	"golang.org/x/exp/slices"
)

// ChannelWhitelist is a static set of (module, channel) pairs that are
// let through when a triggered build has no start record.
type ChannelWhitelist struct {
	channels map[int]map[int]struct{}
}

func NewChannelWhitelist() *ChannelWhitelist {
	return &ChannelWhitelist{channels: make(map[int]map[int]struct{})}
}

func (w *ChannelWhitelist) Add(module int, channel int) {
	if w.channels[module] == nil {
		w.channels[module] = make(map[int]struct{})
	}
	w.channels[module][channel] = struct{}{}
}

// Contains reports whether the pair is whitelisted. A negative channel
// matches any channel of the module.
func (w *ChannelWhitelist) Contains(module int, channel int) bool {
	if w == nil {
		return false
	}
	if channel < 0 {
		return w.HasAny(module)
	}
	_, ok := w.channels[module][channel]
	return ok
}

func (w *ChannelWhitelist) HasAny(module int) bool {
	if w == nil {
		return false
	}
	return len(w.channels[module]) > 0
}

func (w *ChannelWhitelist) Len() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, channels := range w.channels {
		n += len(channels)
	}
	return n
}

// Entries lists the whitelisted pairs ordered by module then channel.
func (w *ChannelWhitelist) Entries() []ChannelAddress {
	if w == nil {
		return nil
	}
	entries := make([]ChannelAddress, 0, w.Len())
	for module, channels := range w.channels {
		for channel := range channels {
			entries = append(entries, ChannelAddress{Module: module, Channel: channel})
		}
	}
	slices.SortFunc(entries, func(a, b ChannelAddress) int {
		if c := cmp.Compare(a.Module, b.Module); c != 0 {
			return c
		}
		return cmp.Compare(a.Channel, b.Channel)
	})
	return entries
}
