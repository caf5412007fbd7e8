// Package binlog implements the gateway's rotating binary record log: a
// fixed 8-byte file header, 20-byte-headered records, size-based
// rotation, and best-effort retention pruning. Grounded on the original
// C++ gateway's include/utils/binary_log.hpp and
// src/utils/rotating_binary_log.cpp.
package binlog

import (
	"encoding/binary"
	"io"
	"math"
)

// RecordType distinguishes the three kinds of sample the gateway
// persists. Values match spec §6.5 exactly.
type RecordType uint8

const (
	RecordState RecordType = 1
	RecordCmd   RecordType = 2
	RecordEvent RecordType = 3
)

// FileHeaderSize and RecordHeaderSize are the fixed on-disk sizes from
// spec §6.5.
const (
	FileHeaderSize   = 8
	RecordHeaderSize = 20

	fileMagic = 0x47574C42 // 'BLWG'
	fileVer   = 1
)

// WriteFileHeader writes the 8-byte file header: magic, ver, reserved.
func WriteFileHeader(w io.Writer) (int, error) {
	var b [FileHeaderSize]byte
	binary.LittleEndian.PutUint32(b[0:], fileMagic)
	binary.LittleEndian.PutUint16(b[4:], fileVer)
	binary.LittleEndian.PutUint16(b[6:], 0)
	return w.Write(b[:])
}

// RecordHeader is the fixed per-record header: type, reserved,
// payload_len, epoch_s, mono_s.
type RecordHeader struct {
	Type       RecordType
	PayloadLen uint16
	EpochS     float64
	MonoS      float64
}

// WriteRecord writes one record header followed by its payload bytes.
// The caller is responsible for encoding payload into the field order
// spec §6.5 requires for STATE/CMD/EVENT samples — this function only
// owns the record framing, not any sample's internal layout.
func WriteRecord(w io.Writer, h RecordHeader, payload []byte) (int, error) {
	var b [RecordHeaderSize]byte
	b[0] = byte(h.Type)
	b[1] = 0
	binary.LittleEndian.PutUint16(b[2:], uint16(len(payload)))
	binary.LittleEndian.PutUint64(b[4:], math.Float64bits(h.EpochS))
	binary.LittleEndian.PutUint64(b[12:], math.Float64bits(h.MonoS))

	n, err := w.Write(b[:])
	if err != nil {
		return n, err
	}
	if len(payload) == 0 {
		return n, nil
	}
	n2, err := w.Write(payload)
	return n + n2, err
}
