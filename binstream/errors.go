package binstream

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedStream is matched by every *TruncatedStreamError.
	ErrTruncatedStream = errors.New("truncated stream")

	// ErrVarIntOverflow is matched by every *VarIntOverflowError.
	ErrVarIntOverflow = errors.New("varint overflow")
)

// TruncatedStreamError indicates that a value extends past the end of the buffer.
type TruncatedStreamError struct {
	Offset    int // cursor position where the value started
	Need      int // bytes required (for varints: at least one more than Remaining)
	Remaining int // bytes left at Offset
}

func (e *TruncatedStreamError) Error() string {
	return fmt.Sprintf("truncated stream at offset %d: need %d bytes, %d remaining", e.Offset, e.Need, e.Remaining)
}

func (e *TruncatedStreamError) Is(target error) bool { return target == ErrTruncatedStream }

// VarIntOverflowError indicates that a varint does not fit the requested width.
type VarIntOverflowError struct {
	Offset int
	Bits   int
}

func (e *VarIntOverflowError) Error() string {
	return fmt.Sprintf("varint at offset %d exceeds %d bits", e.Offset, e.Bits)
}

func (e *VarIntOverflowError) Is(target error) bool { return target == ErrVarIntOverflow }
