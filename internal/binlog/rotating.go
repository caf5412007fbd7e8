package binlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Rotating is a size-based rotating binary log: once the active file
// would exceed maxBytes, it closes and opens a new one, then (if
// keepFiles > 0) deletes the oldest files beyond that count among the
// files this session created. Grounded on
// src/utils/rotating_binary_log.cpp's RotatingBinaryLog.
type Rotating struct {
	dir      string
	stem     string
	ext      string
	maxBytes uint64
	keep     uint32

	index        uint32
	bytesWritten uint64
	sessionTag   string

	w *Writer
}

// OpenRotating starts a new logging session rooted at basePath (e.g.
// "./logs/gateway.bin"). maxBytes == 0 disables rotation entirely;
// keepFiles == 0 disables retention pruning.
func OpenRotating(basePath string, maxBytes uint64, keepFiles uint32) (*Rotating, error) {
	dir := filepath.Dir(basePath)
	if dir == "" {
		dir = "."
	}
	base := filepath.Base(basePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".bin"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	r := &Rotating{
		dir:        dir,
		stem:       stem,
		ext:        ext,
		maxBytes:   maxBytes,
		keep:       keepFiles,
		sessionTag: time.Now().Format("20060102_150405"),
	}
	if err := r.openNewFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteRecord appends one record, rotating first if the write would
// exceed maxBytes.
func (r *Rotating) WriteRecord(h RecordHeader, payload []byte) error {
	bytesToAdd := uint64(RecordHeaderSize + len(payload))
	if err := r.rotateIfNeeded(bytesToAdd); err != nil {
		return err
	}
	n, err := r.w.WriteRecord(h, payload)
	if err != nil {
		return err
	}
	r.bytesWritten += uint64(n)
	return nil
}

// Close closes the active file.
func (r *Rotating) Close() error {
	if r.w == nil {
		return nil
	}
	return r.w.Close()
}

func (r *Rotating) rotateIfNeeded(bytesToAdd uint64) error {
	if r.maxBytes == 0 {
		return nil
	}
	if r.bytesWritten+bytesToAdd <= r.maxBytes {
		return nil
	}
	if err := r.w.Close(); err != nil {
		// The old file may already be closed by a failed earlier
		// rotation; a new file is still opened so logging can resume.
		slog.Warn("failed to close binary log file", "error", err)
	}
	return r.openNewFile()
}

func (r *Rotating) fileName(index uint32) string {
	return fmt.Sprintf("%s_%s_%d%s", r.stem, r.sessionTag, index, r.ext)
}

func (r *Rotating) openNewFile() error {
	name := r.fileName(r.index)
	r.index++
	path := filepath.Join(r.dir, name)

	w, err := Open(path)
	if err != nil {
		slog.Warn("failed to open binary log file", "path", path, "error", err)
		return err
	}
	r.w = w
	r.bytesWritten = FileHeaderSize

	r.pruneOldFiles()

	slog.Info("binary logging to", "path", path)
	return nil
}

// pruneOldFiles best-effort deletes the oldest files from this session
// beyond r.keep. Errors are logged, not returned — retention is
// advisory, never worth failing a write over.
func (r *Rotating) pruneOldFiles() {
	if r.keep == 0 {
		return
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return
	}

	prefix := fmt.Sprintf("%s_%s_", r.stem, r.sessionTag)
	type match struct {
		path    string
		modTime time.Time
	}
	var matches []match
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || filepath.Ext(name) != r.ext {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		matches = append(matches, match{path: filepath.Join(r.dir, name), modTime: info.ModTime()})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.Before(matches[j].modTime) })
	for len(matches) > int(r.keep) {
		if err := os.Remove(matches[0].path); err != nil {
			slog.Warn("failed to prune old binary log file", "path", matches[0].path, "error", err)
		}
		matches = matches[1:]
	}
}
