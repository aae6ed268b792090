package decoder

import "github.com/sigurn/crc16"

// crcTable is the CRC-16/ARC parameter table shared by all accumulators.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Checksum is a streaming CRC-16/ARC accumulator. The decoder keeps exactly
// one per in-progress frame, fed with the full header line, every full data
// line (terminators included) and the single trailer marker byte; the trailer
// checksum digits themselves are never fed.
//
// The zero value is not ready for use; call NewChecksum or Reset first.
type Checksum struct {
	crc uint16
}

// NewChecksum returns a fresh accumulator.
func NewChecksum() *Checksum {
	c := &Checksum{}
	c.Reset()
	return c
}

// Update feeds raw frame bytes into the accumulator.
func (c *Checksum) Update(p []byte) {
	c.crc = crc16.Update(c.crc, p, crcTable)
}

// Sum16 finalizes the accumulator and returns the 16-bit checksum. The
// accumulator state is not disturbed; Update may continue afterwards.
func (c *Checksum) Sum16() uint16 {
	return crc16.Complete(c.crc, crcTable)
}

// Reset returns the accumulator to its initial state. Called exactly when a
// new frame begins so that noise between frames never leaks into the next
// frame's checksum.
func (c *Checksum) Reset() {
	c.crc = crc16.Init(crcTable)
}
