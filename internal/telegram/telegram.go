// Package telegram defines the decoded unit of the Mode D push protocol.
//
// A telegram is the payload of one checksum-protected frame as pushed by a
// metering device: the manufacturer code and identifier from the header line
// plus the ordered data object lines. Data objects are carried as opaque
// trimmed strings; interpreting them (OBIS codes, units, values) is the
// consumer's job, not this package's.
package telegram

import (
	"fmt"
	"strings"
)

// Telegram is one complete, checksum-verified Mode D frame.
type Telegram struct {
	// Manufacturer is the 3-byte maker code from the header line. The
	// protocol does not restrict it to printable ASCII, so it is kept as
	// raw bytes.
	Manufacturer [3]byte

	// Ident is the whitespace-trimmed device identifier from the header.
	Ident string

	// Data holds the data object lines in wire order. Order is
	// protocol-significant and must be preserved for downstream
	// interpretation.
	Data []string
}

// ManufacturerString returns the manufacturer code as a string.
func (t *Telegram) ManufacturerString() string {
	return string(t.Manufacturer[:])
}

// String returns a debug representation of the telegram.
func (t *Telegram) String() string {
	return fmt.Sprintf("Telegram{manufacturer=%q, ident=%q, data=%d objects}",
		t.ManufacturerString(), t.Ident, len(t.Data))
}

// DataString joins the data objects for display, one per line.
func (t *Telegram) DataString() string {
	return strings.Join(t.Data, "\n")
}
