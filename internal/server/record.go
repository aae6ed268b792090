package server

import (
	"time"

	"github.com/metergrid/moded/internal/telegram"
)

// Record is the JSON form of a decoded telegram, shared by the capture
// writer and the websocket feed.
type Record struct {
	ReceivedAt   time.Time `json:"received_at"`
	RemoteAddr   string    `json:"remote_addr"`
	Manufacturer string    `json:"manufacturer"`
	Ident        string    `json:"ident"`
	Data         []string  `json:"data"`
}

// NewRecord builds a Record from a decoded telegram, stamped with the
// current time.
func NewRecord(remoteAddr string, t *telegram.Telegram) Record {
	return Record{
		ReceivedAt:   time.Now().UTC(),
		RemoteAddr:   remoteAddr,
		Manufacturer: t.ManufacturerString(),
		Ident:        t.Ident,
		Data:         t.Data,
	}
}
