package server

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/metergrid/moded/internal/telegram"
)

func testRecord(received time.Time) Record {
	return Record{
		ReceivedAt:   received,
		RemoteAddr:   "192.168.1.50:49152",
		Manufacturer: "ABC",
		Ident:        "MOD123456789",
		Data:         []string{"1.8.0(012345.678*kWh)", "2.8.0(000000.000*kWh)"},
	}
}

func TestCaptureWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w := NewCaptureWriter(dir)
	if w == nil {
		t.Fatal("NewCaptureWriter returned nil for non-empty dir")
	}

	received := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	w.Append(testRecord(received))
	w.Append(testRecord(received.Add(time.Minute)))

	filename := w.todayFilename(received)
	f, err := os.Open(filename)
	if err != nil {
		t.Fatalf("capture file not written: %v", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid JSONL line: %v", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Ident != "MOD123456789" {
		t.Errorf("ident = %q", records[0].Ident)
	}
	if len(records[0].Data) != 2 {
		t.Errorf("data objects = %d, want 2", len(records[0].Data))
	}
	if !records[1].ReceivedAt.Equal(received.Add(time.Minute)) {
		t.Errorf("second record timestamp = %v", records[1].ReceivedAt)
	}
}

func TestCaptureWriter_NilIsSafe(t *testing.T) {
	var w *CaptureWriter
	// Must not panic
	w.Append(testRecord(time.Now()))
}

func TestCaptureWriter_DisabledWhenDirEmpty(t *testing.T) {
	if w := NewCaptureWriter(""); w != nil {
		t.Errorf("NewCaptureWriter(\"\") = %+v, want nil", w)
	}
}

func TestNewRecord(t *testing.T) {
	tel := &telegram.Telegram{
		Manufacturer: [3]byte{'X', 'Y', 'Z'},
		Ident:        "MTR001",
		Data:         []string{"F.F(00)"},
	}

	rec := NewRecord("10.0.0.9:55000", tel)

	if rec.Manufacturer != "XYZ" {
		t.Errorf("manufacturer = %q", rec.Manufacturer)
	}
	if rec.Ident != "MTR001" {
		t.Errorf("ident = %q", rec.Ident)
	}
	if rec.RemoteAddr != "10.0.0.9:55000" {
		t.Errorf("remote addr = %q", rec.RemoteAddr)
	}
	if time.Since(rec.ReceivedAt) > time.Minute {
		t.Errorf("received_at not stamped: %v", rec.ReceivedAt)
	}
	if rec.ReceivedAt.Location() != time.UTC {
		t.Error("received_at not in UTC")
	}
}

func TestHub_NilIsSafe(t *testing.T) {
	var h *Hub
	// Must not panic
	h.Broadcast(testRecord(time.Now()))
	h.Close()
	if h.SubscriberCount() != 0 {
		t.Error("nil hub reports subscribers")
	}
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	h := NewHub()
	h.Broadcast(testRecord(time.Now()))
	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", h.SubscriberCount())
	}
	h.Close()
}
