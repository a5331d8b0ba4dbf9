package decoder

import (
	"errors"
	"fmt"
)

var (
	ErrFraming            = errors.New("spill framing error")
	ErrRecordDecode       = errors.New("channel record decode error")
	ErrNonPhysicalAddress = errors.New("non-physical module/channel address")
	ErrSplitSpill         = errors.New("spill split between buffers")
	ErrWordCountMismatch  = errors.New("spill word count mismatch")
	ErrZeroLengthBuffer   = errors.New("module sub-buffer has zero length")
)

// FramingError is returned when a (lenRec, vsn) pair cannot be trusted.
// The whole spill is dropped.
type FramingError struct {
	Position int
	LenRec   uint32
	Vsn      uint32
	Reason   string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error at word %d (lenRec=%d, vsn=%d): %s", e.Position, e.LenRec, e.Vsn, e.Reason)
}

func (e *FramingError) Is(target error) bool {
	return target == ErrFraming
}

// RecordDecodeError is local to one channel record. The caller skips the
// declared event length and keeps reading the sub-buffer.
type RecordDecodeError struct {
	Position     int
	HeaderLength uint32
	EventLength  uint32
	Reason       string
}

func (e *RecordDecodeError) Error() string {
	return fmt.Sprintf("record decode error at word %d (header length %d, event length %d): %s",
		e.Position, e.HeaderLength, e.EventLength, e.Reason)
}

func (e *RecordDecodeError) Is(target error) bool {
	return target == ErrRecordDecode
}

// SplitSpillError means the supplied words did not end with a clean
// end-of-spill marker.
type SplitSpillError struct {
	WordsRead int
	Words     int
	LastVsn   uint32
}

func (e *SplitSpillError) Error() string {
	return fmt.Sprintf("spill split between buffers: read %d of %d words, last vsn %d", e.WordsRead, e.Words, e.LastVsn)
}

func (e *SplitSpillError) Is(target error) bool {
	return target == ErrSplitSpill
}

// WordCountMismatchError is advisory only.
type WordCountMismatchError struct {
	WordsRead int
	Words     int
}

func (e *WordCountMismatchError) Error() string {
	return fmt.Sprintf("received spill of %d words, but read %d words", e.Words, e.WordsRead)
}

func (e *WordCountMismatchError) Is(target error) bool {
	return target == ErrWordCountMismatch
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}
