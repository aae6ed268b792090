package decoder

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/metergrid/moded/internal/telegram"
)

// Wire format constants.
const (
	startMarker   = '/'  // first byte of the header line
	trailerMarker = '!'  // first byte of the trailer line
	lineFeed      = '\n' // line terminator

	// minHeaderLen is the shortest valid header line: start marker,
	// 3-byte manufacturer code, separator byte and the terminator of an
	// empty identifier.
	minHeaderLen = 6

	// identOffset is where the device identifier starts in the header
	// line, right after the separator byte.
	identOffset = 5

	// checksumDigits is the number of hex digits following the trailer
	// marker.
	checksumDigits = 4
)

type state int

const (
	stateEmpty state = iota // scanning for the start marker
	statePartialData        // telegram under construction
)

// Decoder is an incremental Mode D frame decoder. It consumes a
// caller-owned accumulation buffer and emits at most one verified telegram
// per Decode call, leaving unclassified bytes in the buffer for the next
// call. A Decoder is owned by exactly one byte stream and is not safe for
// concurrent use.
type Decoder struct {
	state   state
	partial *telegram.Telegram
	crc     Checksum
}

// New returns a decoder in its initial state with a fresh checksum.
func New() *Decoder {
	d := &Decoder{}
	d.crc.Reset()
	return d
}

// Reset discards any in-progress telegram and returns the decoder to its
// initial state with a fresh checksum. Every emit and every decode error
// resets implicitly; callers only need Reset after an unrecoverable
// transport-level event.
func (d *Decoder) Reset() {
	d.state = stateEmpty
	d.partial = nil
	d.crc.Reset()
}

// Pending reports whether a frame is partially accumulated. Useful for
// diagnosing streams that end mid-telegram.
func (d *Decoder) Pending() bool {
	return d.state == statePartialData
}

// Decode attempts to produce one telegram from buf, which must hold all
// bytes received so far but not yet consumed. It consumes exactly the prefix
// it has classified and returns:
//
//   - (t, nil) when a frame passed checksum verification; t is emitted and
//     the decoder is reset for the next frame
//   - (nil, nil) when more input is needed; partially received lines stay in
//     buf untouched
//   - (nil, err) on a protocol error; the decoder has reset and will
//     resynchronize at the next start marker in subsequent input
func (d *Decoder) Decode(buf *bytes.Buffer) (*telegram.Telegram, error) {
	if d.state == stateEmpty {
		if !d.sync(buf) {
			return nil, nil
		}
		ok, err := d.parseHeader(buf)
		if err != nil || !ok {
			return nil, err
		}
	}
	return d.accumulate(buf)
}

// sync discards noise bytes preceding the start marker and reports whether a
// marker is present. Discarding noise resets the checksum so that bytes
// between frames never contribute to the next frame's checksum; a marker
// already at offset zero leaves the (fresh) checksum alone.
func (d *Decoder) sync(buf *bytes.Buffer) bool {
	i := bytes.IndexByte(buf.Bytes(), startMarker)
	if i < 0 {
		return false
	}
	if i > 0 {
		buf.Next(i)
		d.crc.Reset()
	}
	return true
}

// parseHeader consumes the header line once it is complete, feeds it to the
// checksum and opens a new in-progress telegram. Returns ok=false with a nil
// error when the line terminator has not arrived yet.
func (d *Decoder) parseHeader(buf *bytes.Buffer) (bool, error) {
	nl := bytes.IndexByte(buf.Bytes(), lineFeed)
	if nl < 0 {
		return false, nil
	}
	line := buf.Next(nl + 1)
	d.crc.Update(line)
	if len(line) < minHeaderLen {
		d.Reset()
		return false, ErrMalformedHeader
	}
	ident := line[identOffset:]
	if !utf8.Valid(ident) {
		d.Reset()
		return false, &EncodingError{Header: true}
	}
	t := &telegram.Telegram{Ident: strings.TrimSpace(string(ident))}
	copy(t.Manufacturer[:], line[1:4])
	d.partial = t
	d.state = statePartialData
	return true, nil
}

// accumulate consumes complete lines until the trailer line ends the frame,
// a protocol error occurs, or the buffer runs out of complete lines. All
// buffered complete data lines are processed in one call.
func (d *Decoder) accumulate(buf *bytes.Buffer) (*telegram.Telegram, error) {
	for {
		nl := bytes.IndexByte(buf.Bytes(), lineFeed)
		if nl < 0 {
			return nil, nil
		}
		raw := buf.Next(nl + 1)
		if !utf8.Valid(raw) {
			err := &EncodingError{Index: len(d.partial.Data)}
			d.Reset()
			return nil, err
		}
		if i := bytes.IndexByte(raw, trailerMarker); i >= 0 {
			if i != 0 {
				d.Reset()
				return nil, ErrTrailerMisplaced
			}
			return d.verify(raw)
		}
		// A data line: the entire raw line, terminator included, is
		// part of the checksummed frame body.
		d.crc.Update(raw)
		d.partial.Data = append(d.partial.Data, strings.TrimSpace(string(raw)))
	}
}

// verify finalizes the checksum over the frame body and compares it against
// the digits carried by the trailer line. Only the trailer marker byte is
// fed to the checksum; the digits themselves are excluded.
func (d *Decoder) verify(line []byte) (*telegram.Telegram, error) {
	d.crc.Update(line[:1])
	computed := d.crc.Sum16()
	if len(line) < 1+checksumDigits {
		d.Reset()
		return nil, ErrTrailerDigits
	}
	received, err := strconv.ParseUint(string(line[1:1+checksumDigits]), 16, 16)
	if err != nil {
		d.Reset()
		return nil, ErrTrailerDigits
	}
	if computed != uint16(received) {
		crcErr := &ChecksumError{Computed: computed, Received: uint16(received)}
		d.Reset()
		return nil, crcErr
	}
	t := d.partial
	d.Reset()
	return t, nil
}
