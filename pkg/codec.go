package decoder

// Bit layout of the first word of a channel record
const (
	channelMask        = 0x0000000F
	slotMask           = 0x000000F0
	crateMask          = 0x00000F00
	headerLengthMask   = 0x0001F000
	eventLengthMask    = 0x1FFE0000
	virtualChannelMask = 0x20000000
	saturatedMask      = 0x40000000
	pileupMask         = 0x80000000
)

const (
	// A header length of 1 marks a statistics block inserted by the poll program.
	statisticsHeaderLength = 1
	partialSumWords        = 4
)

// DecodeRecord decodes the channel record starting at data[position]. It
// returns the record, the position of the next record and an error. A nil
// record with a nil error is an embedded statistics block. On error the next
// position is taken from the declared event length, which is the only hint
// left to resynchronize on.
func DecodeRecord(data []uint32, position int, moduleOverride int) (*ChannelRecord, int, error) {
	start := position
	if position >= len(data) {
		return nil, position + 1, &RecordDecodeError{Position: start, Reason: "record starts past the end of the buffer"}
	}

	record := &ChannelRecord{}
	position = readChannelIdentifier(data, position, record)

	// Always move forward, even when the declared length is zero
	next := start + max(int(record.EventLength), 1)

	if record.HeaderLength == statisticsHeaderLength {
		return nil, next, nil
	}
	if !validHeaderLength(record.HeaderLength) {
		return nil, next, &RecordDecodeError{
			Position:     start,
			HeaderLength: record.HeaderLength,
			EventLength:  record.EventLength,
			Reason:       "unexpected header length",
		}
	}
	if start+int(record.HeaderLength) > len(data) {
		return nil, next, &RecordDecodeError{
			Position:     start,
			HeaderLength: record.HeaderLength,
			EventLength:  record.EventLength,
			Reason:       "header runs past the end of the buffer",
		}
	}

	position = readTimestamp(data, position, record)
	var traceLength uint32
	position = readEnergyAndTraceLength(data, position, record, &traceLength)

	// Onboard partial energy sums are not kept
	if record.HeaderLength == 8 || record.HeaderLength == 16 {
		position += partialSumWords
	}
	if record.HeaderLength >= 12 {
		position = readQdcSums(data, position, record)
	}

	if traceLength/2+record.HeaderLength != record.EventLength {
		return nil, next, &RecordDecodeError{
			Position:     start,
			HeaderLength: record.HeaderLength,
			EventLength:  record.EventLength,
			Reason:       "header length plus trace length does not match event length",
		}
	}

	if record.Saturated {
		record.Energy = SaturatedEnergy
	}

	physicalModule := record.Slot
	if moduleOverride >= 0 {
		physicalModule = moduleOverride
	}
	record.Module = WidenModule(record.Crate, physicalModule)

	if traceLength > 0 {
		if position+int(traceLength+1)/2 > len(data) {
			return nil, next, &RecordDecodeError{
				Position:     start,
				HeaderLength: record.HeaderLength,
				EventLength:  record.EventLength,
				Reason:       "trace runs past the end of the buffer",
			}
		}
		position = readTrace(data, position, record, traceLength)
	}

	return record, position, nil
}

func validHeaderLength(headerLength uint32) bool {
	switch headerLength {
	case 4, 8, 12, 16:
		return true
	}
	return false
}

func readChannelIdentifier(data []uint32, position int, record *ChannelRecord) int {
	word := data[position]
	record.Channel = int(word & channelMask)
	record.Slot = int((word & slotMask) >> 4)
	record.Crate = int((word & crateMask) >> 8)
	record.HeaderLength = (word & headerLengthMask) >> 12
	record.EventLength = (word & eventLengthMask) >> 17
	record.VirtualChannel = word&virtualChannelMask != 0
	record.Saturated = word&saturatedMask != 0
	record.Pileup = word&pileupMask != 0
	position++
	return position
}

func readTimestamp(data []uint32, position int, record *ChannelRecord) int {
	timeLow := uint64(data[position])
	position++

	timeHigh := uint64(data[position] & 0x0000FFFF)
	record.CfdTime = (data[position] & 0xFFFF0000) >> 16
	position++

	record.Time = timeLow + timeHigh<<32
	return position
}

func readEnergyAndTraceLength(data []uint32, position int, record *ChannelRecord, traceLength *uint32) int {
	record.Energy = data[position] & 0x0000FFFF
	*traceLength = (data[position] & 0x7FFF0000) >> 16
	record.OutOfRange = data[position]&0x80000000 != 0
	position++
	return position
}

func readQdcSums(data []uint32, position int, record *ChannelRecord) int {
	for i := 0; i < NumQdcSums; i++ {
		record.QdcSums[i] = data[position]
		position++
	}
	record.HasQdc = true
	return position
}

// Two 16-bit samples per word, lower half first
func readTrace(data []uint32, position int, record *ChannelRecord, traceLength uint32) int {
	record.Trace = make([]uint16, traceLength)
	for i := uint32(0); i < traceLength; i++ {
		word := data[position+int(i/2)]
		if i%2 == 0 {
			record.Trace[i] = uint16(word & 0x0000FFFF)
		} else {
			record.Trace[i] = uint16((word & 0xFFFF0000) >> 16)
		}
	}
	position += int(traceLength / 2)
	return position
}
