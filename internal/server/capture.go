package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/metergrid/moded/internal/logging"
	"go.uber.org/zap"
)

// CaptureWriter appends decoded telegrams to daily JSONL files (one JSON
// object per line) in a capture directory. A nil CaptureWriter is valid and
// drops everything, so callers never have to branch on whether capture is
// enabled.
type CaptureWriter struct {
	dir string
	mu  sync.Mutex
}

// NewCaptureWriter returns a writer appending to dir, or nil when dir is
// empty (capture disabled).
func NewCaptureWriter(dir string) *CaptureWriter {
	if dir == "" {
		return nil
	}
	return &CaptureWriter{dir: dir}
}

// Append writes one record. Failures are logged rather than returned;
// capture is a best-effort sink and must never stall ingest.
func (w *CaptureWriter) Append(rec Record) {
	if w == nil {
		return
	}

	filename := filepath.Join(w.dir, fmt.Sprintf("telegrams-%s.jsonl",
		rec.ReceivedAt.Format("20060102")))

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal telegram record", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open capture file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write capture file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}

	logging.Debug("Captured telegram",
		zap.String("filename", filename),
		zap.String("ident", rec.Ident),
	)
}

// todayFilename is exposed for tests.
func (w *CaptureWriter) todayFilename(at time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("telegrams-%s.jsonl", at.Format("20060102")))
}
