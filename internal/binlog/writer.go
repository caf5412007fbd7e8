package binlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer owns one open log file: writes the file header on Open, then
// frames each record via WriteRecord. Grounded on binary_log.hpp/.cpp's
// BinaryLogWriter.
type Writer struct {
	f *os.File
}

// Open creates (truncating) the file at path, creating parent
// directories as needed, and writes the file header.
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	if _, err := WriteFileHeader(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("write file header %s: %w", path, err)
	}
	return &Writer{f: f}, nil
}

// WriteRecord appends one record. Returns the total bytes written
// (header + payload), for the caller's rotation byte-counter.
func (w *Writer) WriteRecord(h RecordHeader, payload []byte) (int, error) {
	return WriteRecord(w.f, h, payload)
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
