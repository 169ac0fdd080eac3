package face

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrEmptySession    = errors.New("empty session: no frames passed the validity check")
	ErrFeedUnavailable = errors.New("feed unavailable")
)

// MalformedFrameError describes a feed row that cannot be turned into a Frame.
// Row is 1-based and counts data rows only; it is 0 when the header itself is at fault.
type MalformedFrameError struct {
	Row    int
	Column string
	Value  string
}

func (e *MalformedFrameError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("malformed frame: feed has no %q column", e.Column)
	}
	if e.Value == "" {
		return fmt.Sprintf("malformed frame: row %d: missing %q", e.Row, e.Column)
	}
	return fmt.Sprintf("malformed frame: row %d: %q has invalid value %q", e.Row, e.Column, e.Value)
}

func (e *MalformedFrameError) Is(target error) bool { return target == ErrMalformedFrame }
