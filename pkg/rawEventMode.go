package decoder

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawEventMode selects the windowing algorithm used to build raw events.
type RawEventMode int

const (
	PositiveWindow RawEventMode = iota
	NegativeWindow
	TriggeredPositiveWindow
	TriggeredNegativeWindow
)

var rawEventModeStrings = []string{
	"positive",
	"negative",
	"triggered-positive",
	"triggered-negative",
}

func (m RawEventMode) String() string {
	if m < PositiveWindow || m > TriggeredNegativeWindow {
		return "UNKNOWN"
	}
	return rawEventModeStrings[m]
}

func (m RawEventMode) Valid() bool {
	return m >= PositiveWindow && m <= TriggeredNegativeWindow
}

// Triggered reports whether the mode anchors windows on a start channel.
func (m RawEventMode) Triggered() bool {
	return m == TriggeredPositiveWindow || m == TriggeredNegativeWindow
}

func (m RawEventMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either the numeric mode (0-3) or its name.
func (m *RawEventMode) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return m.set(n)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid RawEventMode: %s", string(data))
	}
	return m.UnmarshalText([]byte(s))
}

func (m RawEventMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *RawEventMode) UnmarshalText(text []byte) error {
	s := string(text)
	if n, err := strconv.Atoi(s); err == nil {
		return m.set(n)
	}
	for i, v := range rawEventModeStrings {
		if v == s {
			*m = RawEventMode(i)
			return nil
		}
	}
	return fmt.Errorf("invalid RawEventMode: %s", s)
}

func (m *RawEventMode) set(n int) error {
	mode := RawEventMode(n)
	if !mode.Valid() {
		return fmt.Errorf("invalid RawEventMode: %d", n)
	}
	*m = mode
	return nil
}
