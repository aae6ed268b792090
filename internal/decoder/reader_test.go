package decoder

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestReaderSingleTelegram(t *testing.T) {
	r := NewReader(bytes.NewReader(frameBytes(t, "/ABC5 123", "VAL1", "VAL2")))

	tg, err := r.ReadTelegram()
	if err != nil {
		t.Fatalf("ReadTelegram: %v", err)
	}
	if tg.Ident != "123" || len(tg.Data) != 2 {
		t.Fatalf("telegram = %v", tg)
	}

	if _, err := r.ReadTelegram(); err != io.EOF {
		t.Fatalf("err after stream end = %v, want io.EOF", err)
	}
}

func TestReaderOneBytePerRead(t *testing.T) {
	// The transport hands over a single byte per Read call; the emitted
	// telegram must match a whole-frame read.
	frame := frameBytes(t, "/MGC5 K1234-77", "1.8.0(001234.5*kWh)")
	r := NewReader(iotest.OneByteReader(bytes.NewReader(frame)))

	tg, err := r.ReadTelegram()
	if err != nil {
		t.Fatalf("ReadTelegram: %v", err)
	}
	if tg.Ident != "K1234-77" {
		t.Errorf("ident = %q, want %q", tg.Ident, "K1234-77")
	}
	if len(tg.Data) != 1 || tg.Data[0] != "1.8.0(001234.5*kWh)" {
		t.Errorf("data = %v", tg.Data)
	}
}

func TestReaderMultipleTelegramsWithNoise(t *testing.T) {
	var stream bytes.Buffer
	stream.WriteString("line noise\r\n")
	stream.Write(frameBytes(t, "/ABC5 123", "VAL1"))
	stream.WriteString("\x00\x00")
	stream.Write(frameBytes(t, "/DEF5 456", "VAL2"))
	stream.WriteString("trailing noise, no marker")

	r := NewReader(&stream)
	var idents []string
	for {
		tg, err := r.ReadTelegram()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadTelegram: %v", err)
		}
		idents = append(idents, tg.Ident)
	}
	if len(idents) != 2 || idents[0] != "123" || idents[1] != "456" {
		t.Fatalf("idents = %v, want [123 456]", idents)
	}
}

func TestReaderDecodeErrorLeavesReaderUsable(t *testing.T) {
	var stream bytes.Buffer
	bad := frameBytes(t, "/ABC5 123", "VAL1")
	bad[11] ^= 0x01 // corrupt one body byte
	stream.Write(bad)
	stream.Write(frameBytes(t, "/DEF5 456", "VAL2"))

	r := NewReader(&stream)

	_, err := r.ReadTelegram()
	if !IsDecodeError(err) {
		t.Fatalf("err = %v, want a decode error", err)
	}

	tg, err := r.ReadTelegram()
	if err != nil {
		t.Fatalf("ReadTelegram after decode error: %v", err)
	}
	if tg.Ident != "456" {
		t.Errorf("ident = %q, want %q", tg.Ident, "456")
	}
}

func TestReaderTruncatedFrame(t *testing.T) {
	frame := frameBytes(t, "/ABC5 123", "VAL1", "VAL2")
	r := NewReader(bytes.NewReader(frame[:len(frame)-4]))

	_, err := r.ReadTelegram()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReaderTruncatedHeader(t *testing.T) {
	// A start marker arrived but the stream ended before the header line
	// completed.
	r := NewReader(bytes.NewReader([]byte("/ABC5 12")))
	_, err := r.ReadTelegram()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}
