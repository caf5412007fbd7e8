package binlog

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReadFileHeader validates and consumes the fixed 8-byte file header,
// returning the stored format version. Grounded on binary_log.hpp's
// mirror-image reader used by its own offline tooling.
func ReadFileHeader(r io.Reader) (version uint16, err error) {
	var b [FileHeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("read file header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(b[0:])
	if magic != fileMagic {
		return 0, fmt.Errorf("bad file magic %#x", magic)
	}
	return binary.LittleEndian.Uint16(b[4:]), nil
}

// ReadRecord reads one record header and its payload. It returns
// io.EOF (unwrapped) once the stream is exhausted exactly at a record
// boundary, matching the stdlib convention callers already expect from
// bufio.Scanner-style loops.
func ReadRecord(r io.Reader) (RecordHeader, []byte, error) {
	var hb [RecordHeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("truncated record header: %w", err)
		}
		return RecordHeader{}, nil, err
	}

	h := RecordHeader{
		Type:       RecordType(hb[0]),
		PayloadLen: binary.LittleEndian.Uint16(hb[2:]),
		EpochS:     math.Float64frombits(binary.LittleEndian.Uint64(hb[4:])),
		MonoS:      math.Float64frombits(binary.LittleEndian.Uint64(hb[12:])),
	}

	if h.PayloadLen == 0 {
		return h, nil, nil
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, fmt.Errorf("truncated record payload: %w", err)
	}
	return h, payload, nil
}
