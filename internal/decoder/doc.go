// Package decoder implements the incremental Mode D telegram decoder.
//
// Mode D is a line-oriented, checksum-protected framing format used by
// utility meters to push readings over a continuous byte stream (serial
// line or socket). A frame looks like:
//
//	/MMMidentifier\n
//	data-object-1\n
//	data-object-2\n
//	...
//	!CCCC\n
//
// where MMM is the 3-byte manufacturer code, byte 4 of the header is a
// separator that is not interpreted, and CCCC are four hexadecimal digits
// carrying the CRC-16/ARC over every byte from the start of the header line
// through the '!' trailer marker inclusive. Lines end with a line feed,
// optionally preceded by a carriage return which is trimmed.
//
// # Incremental decoding
//
// The transport hands the decoder a growing buffer of everything received so
// far; input may arrive a byte at a time or many frames at once. Decode makes
// maximal forward progress per call and consumes exactly the bytes it has
// classified:
//
//	dec := decoder.New()
//	var buf bytes.Buffer
//	for {
//	    buf.Write(nextChunk())
//	    t, err := dec.Decode(&buf)
//	    if err != nil {
//	        // Protocol error. The decoder has already reset and will
//	        // resynchronize on the next start marker.
//	        continue
//	    }
//	    if t == nil {
//	        continue // need more input
//	    }
//	    handle(t)
//	}
//
// For pull-style consumption straight from an io.Reader, use Reader, which
// owns the accumulation buffer and loops read/decode internally.
//
// # Error handling
//
// All decode failures are typed (ErrMalformedHeader, EncodingError,
// ErrTrailerMisplaced, ErrTrailerDigits, ChecksumError) and none are fatal to
// the decoder instance: every error path fully resets state, so the caller
// may keep feeding the same stream and the decoder resynchronizes at the
// next start marker. IsDecodeError distinguishes these protocol errors from
// transport errors surfaced by Reader.
//
// # Concurrency
//
// A Decoder (and a Reader) is exclusively owned by one consumer of one byte
// stream. Decode independent streams with independent instances.
package decoder
