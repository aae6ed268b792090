package server

import (
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sigurn/crc16"

	"github.com/metergrid/moded/internal/config"
)

// buildFrame assembles a checksummed wire frame from a header and data lines.
func buildFrame(header string, data ...string) []byte {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, d := range data {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	b.WriteByte('!')

	table := crc16.MakeTable(crc16.CRC16_ARC)
	sum := crc16.Checksum([]byte(b.String()), table)
	b.WriteString(fmt.Sprintf("%04X\n", sum))
	return []byte(b.String())
}

func TestHandleConnection_CapturesTelegrams(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Listen.IdleTimeout = 5
	s := &Server{
		cfg:         cfg,
		capture:     NewCaptureWriter(dir),
		activeConns: make(map[string]net.Conn),
	}

	client, srv := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConnection(srv)
	}()

	frame := buildFrame("/ABC5 MTR001", "1.8.0(000123.456*kWh)")
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	_ = client.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection handler did not finish")
	}

	if n := s.GetActiveConnections(); n != 0 {
		t.Errorf("GetActiveConnections() = %d after close, want 0", n)
	}

	filename := s.capture.todayFilename(time.Now().UTC())
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("capture file not written: %v", err)
	}
	if !strings.Contains(string(data), `"ident":"MTR001"`) {
		t.Errorf("capture file missing telegram: %s", data)
	}
}

func TestHandleConnection_RecoversFromDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	s := &Server{
		cfg:         cfg,
		capture:     NewCaptureWriter(dir),
		activeConns: make(map[string]net.Conn),
	}

	client, srv := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConnection(srv)
	}()

	// A frame with a corrupted checksum, then a valid one
	bad := buildFrame("/ABC5 MTR001", "1.8.0(000123.456*kWh)")
	bad[len(bad)-2] ^= 0x01
	good := buildFrame("/XYZ9 MTR002", "2.8.0(000001.000*kWh)")

	if _, err := client.Write(append(bad, good...)); err != nil {
		t.Fatalf("write frames: %v", err)
	}
	_ = client.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection handler did not finish")
	}

	filename := s.capture.todayFilename(time.Now().UTC())
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("capture file not written: %v", err)
	}
	if strings.Contains(string(data), "MTR001") {
		t.Error("telegram with bad checksum was captured")
	}
	if !strings.Contains(string(data), `"ident":"MTR002"`) {
		t.Errorf("valid telegram after decode error not captured: %s", data)
	}
}
