package decoder

import (
	"errors"
	"fmt"
)

// Sentinel errors for decode failures that carry no extra data. All decode
// errors reset the decoder to its initial state before being returned; the
// caller may keep feeding the stream and the decoder resynchronizes at the
// next start marker.
var (
	// ErrMalformedHeader means a complete header line was present but too
	// short to contain the start marker, manufacturer code and separator.
	ErrMalformedHeader = errors.New("header line too short")

	// ErrTrailerMisplaced means a trailer marker ('!') appeared somewhere
	// other than as the first character of a line.
	ErrTrailerMisplaced = errors.New("trailer marker not at start of line")

	// ErrTrailerDigits means the trailer line did not carry four parsable
	// hexadecimal checksum digits after the marker.
	ErrTrailerDigits = errors.New("trailer checksum digits malformed")
)

// EncodingError reports a header or data line that is not valid UTF-8.
type EncodingError struct {
	// Header is true when the header identifier failed to decode.
	Header bool

	// Index is the zero-based data line index that failed. Only meaningful
	// when Header is false.
	Index int
}

func (e *EncodingError) Error() string {
	if e.Header {
		return "header identifier is not valid UTF-8"
	}
	return fmt.Sprintf("data line %d is not valid UTF-8", e.Index)
}

// ChecksumError reports a trailer checksum that does not match the checksum
// computed over the frame body as received.
type ChecksumError struct {
	Computed uint16 // checksum computed over the received frame body
	Received uint16 // checksum parsed from the trailer digits
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: computed 0x%04X, received 0x%04X",
		e.Computed, e.Received)
}

// IsDecodeError reports whether err is one of the decoder's protocol errors,
// as opposed to a transport error surfaced by Reader. Protocol errors are
// recoverable: the decoder has already reset and the caller may continue
// feeding the same stream.
func IsDecodeError(err error) bool {
	var encErr *EncodingError
	var crcErr *ChecksumError
	return errors.Is(err, ErrMalformedHeader) ||
		errors.Is(err, ErrTrailerMisplaced) ||
		errors.Is(err, ErrTrailerDigits) ||
		errors.As(err, &encErr) ||
		errors.As(err, &crcErr)
}
