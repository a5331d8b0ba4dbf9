package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// SpillReader splits a raw stream of little endian (lenRec, vsn, payload)
// tuples into spills. Each spill ends with its end-of-spill tuple.
type SpillReader struct {
	reader io.Reader
	buf    []byte
}

func NewSpillReader(r io.Reader) *SpillReader {
	return &SpillReader{reader: r, buf: make([]byte, 0, 4*MaxWords)}
}

// ReadSpill returns the words of the next spill. At the end of the stream it
// returns io.EOF, or io.ErrUnexpectedEOF together with the words of a
// spill that was cut short.
func (r *SpillReader) ReadSpill() ([]uint32, error) {
	words := make([]uint32, 0, 1024)
	for {
		pair, err := r.readWords(2)
		if err != nil {
			if errors.Is(err, io.EOF) && len(words) == 0 {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return words, io.ErrUnexpectedEOF
			}
			return words, err
		}
		lenRec, vsn := pair[0], pair[1]
		words = append(words, lenRec, vsn)

		if lenRec > MaxWords {
			return words, &FramingError{Position: len(words) - 2, LenRec: lenRec, Vsn: vsn, Reason: "record length too large"}
		}
		if lenRec > 2 {
			payload, err := r.readWords(int(lenRec) - 2)
			words = append(words, payload...)
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return words, err
			}
		}
		if vsn == EndOfSpillVsn {
			return words, nil
		}
		if len(words) > TotalRead {
			return words, fmt.Errorf("no end of spill after %d words: %w", len(words), ErrSplitSpill)
		}
	}
}

func (r *SpillReader) readWords(n int) ([]uint32, error) {
	size := 4 * n
	if cap(r.buf) < size {
		r.buf = make([]byte, size)
	}
	buf := r.buf[:size]
	nRead, err := io.ReadFull(r.reader, buf)
	return BytesToWords(buf[:nRead-nRead%4]), err
}

// BytesToWords converts little endian bytes to 32-bit words. Trailing bytes
// that do not fill a word are ignored.
func BytesToWords(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words
}

// WordsToBytes is the inverse of BytesToWords.
func WordsToBytes(words []uint32) []byte {
	data := make([]byte, 4*len(words))
	for i, word := range words {
		binary.LittleEndian.PutUint32(data[4*i:], word)
	}
	return data
}
