package decoder

import (
	"bytes"
	"io"

	"github.com/metergrid/moded/internal/telegram"
)

// readChunkSize is how much the Reader asks the transport for at a time.
const readChunkSize = 4096

// Reader pulls verified telegrams straight from an io.Reader. It owns the
// accumulation buffer and the decoder, looping read/decode until a telegram
// is complete. Like Decoder, a Reader belongs to exactly one stream.
type Reader struct {
	src   io.Reader
	dec   *Decoder
	buf   bytes.Buffer
	chunk []byte
}

// NewReader returns a Reader decoding telegrams from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:   src,
		dec:   New(),
		chunk: make([]byte, readChunkSize),
	}
}

// ReadTelegram blocks on src until the next complete, verified telegram is
// available and returns it.
//
// Protocol errors (see IsDecodeError) are returned as they occur but leave
// the Reader usable: the decoder has already resynchronized, so the caller
// may simply call ReadTelegram again. Transport errors are returned as-is.
// A stream that ends cleanly between frames yields io.EOF; one that ends
// mid-frame yields io.ErrUnexpectedEOF.
func (r *Reader) ReadTelegram() (*telegram.Telegram, error) {
	for {
		t, err := r.dec.Decode(&r.buf)
		if t != nil || err != nil {
			return t, err
		}
		n, err := r.src.Read(r.chunk)
		if n > 0 {
			r.buf.Write(r.chunk[:n])
			continue
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			if r.dec.Pending() || bytes.IndexByte(r.buf.Bytes(), startMarker) >= 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		}
		return nil, err
	}
}

// Buffered returns the number of bytes received but not yet classified.
func (r *Reader) Buffered() int {
	return r.buf.Len()
}
