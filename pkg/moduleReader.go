package decoder

import "fmt"

const (
	moduleBufferHeaderWords = 2
	emptyModuleBufferLength = 2
)

// ReadModuleBuffer decodes every channel record of one module sub-buffer,
// whose first two words are its length and module number, and hands each
// record to handle. It returns the number of records decoded and the number
// of records skipped because of decode errors. A zero length is fatal for the
// sub-buffer.
func ReadModuleBuffer(buf []uint32, handle func(*ChannelRecord)) (int, int, error) {
	if len(buf) < moduleBufferHeaderWords {
		return 0, 0, fmt.Errorf("module sub-buffer of %d words: %w", len(buf), ErrZeroLengthBuffer)
	}
	bufLen := int(buf[0])
	moduleNumber := int(buf[1])
	if bufLen == 0 {
		return 0, 0, fmt.Errorf("module %d: %w", moduleNumber, ErrZeroLengthBuffer)
	}
	if bufLen == emptyModuleBufferLength {
		return 0, 0, nil
	}
	end := min(bufLen, len(buf))

	nRecords := 0
	nErrors := 0
	position := moduleBufferHeaderWords
	for position < end {
		record, next, err := DecodeRecord(buf[:end], position, moduleNumber)
		if err != nil {
			message := fmt.Sprintf("module %d: %v", moduleNumber, err)
			logger.Warn(message, "moduleReader")
			nErrors++
		} else if record != nil {
			handle(record)
			nRecords++
		}
		position = next
	}
	return nRecords, nErrors, nil
}
