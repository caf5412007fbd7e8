package wire

// FrameRx is a streaming, self-resyncing decoder for the gateway's framed
// wire protocol: [type u8][ver u8][len u8][payload len bytes]. It owns no
// socket or file handle — callers push raw bytes in via PushBytes as they
// arrive from a net.Conn or serial port, and drain decoded frames out via
// Pop. Grounded directly on the original C++ gateway's
// include/connection/framed.hpp FrameRx class; the resync and compaction
// policy is a line-for-line translation.
type FrameRx struct {
	buf   []byte
	start int // index of first unconsumed byte
}

const (
	// kMaxPayload is the largest payload length the header's single
	// length byte can ever legally carry.
	kMaxPayload = 255

	// kMaxBufferBytes bounds how much unresynced garbage FrameRx will
	// hold before it starts dropping the oldest bytes to make room —
	// this is a resource cap, not a protocol limit.
	kMaxBufferBytes = 64 * 1024

	// kCompactThreshold: once start exceeds this many bytes, slide the
	// live suffix down to buf[0:] and reset start to 0, so the backing
	// array doesn't grow without bound under a long-running connection.
	kCompactThreshold = 4096
)

// NewFrameRx returns an empty decoder.
func NewFrameRx() *FrameRx {
	return &FrameRx{buf: make([]byte, 0, 4096)}
}

// PushBytes appends freshly-read bytes to the decoder's internal buffer.
// If appending would push the live region past kMaxBufferBytes, the
// oldest bytes are dropped first (this only happens when the peer is
// sending garbage faster than Pop can resync past it).
func (f *FrameRx) PushBytes(p []byte) {
	f.buf = append(f.buf, p...)
	if len(f.buf)-f.start > kMaxBufferBytes {
		drop := (len(f.buf) - f.start) - kMaxBufferBytes
		f.start += drop
	}
	f.maybeCompact()
}

func (f *FrameRx) maybeCompact() {
	if f.start < kCompactThreshold {
		return
	}
	n := copy(f.buf, f.buf[f.start:])
	f.buf = f.buf[:n]
	f.start = 0
}

// live returns the unconsumed region of the buffer.
func (f *FrameRx) live() []byte {
	return f.buf[f.start:]
}

// Pop attempts to decode one frame. It returns ok=false when there is
// not yet enough buffered data for a full frame. When the buffered bytes
// at the front don't form a valid header (bad version, unknown type, an
// oversized length, or a length of zero for a type that mandates a
// payload), Pop discards exactly one byte and returns ok=false — the
// caller is expected to call Pop again, which is how the decoder
// resynchronizes after garbage or a torn connection.
func (f *FrameRx) Pop() (msgType uint8, payload []byte, ok bool) {
	live := f.live()
	if len(live) < HdrSize {
		return 0, nil, false
	}

	t, ver, ln := live[0], live[1], live[2]

	if ver != MsgVer || !IsKnownType(t) || int(ln) > kMaxPayload || (ln == 0 && mandatesNonzeroPayload(t)) {
		f.start++
		return 0, nil, false
	}

	if want, wantOK := ExpectedPayloadLen(t); wantOK && int(ln) != want {
		f.start++
		return 0, nil, false
	}

	total := HdrSize + int(ln)
	if len(live) < total {
		return 0, nil, false
	}

	out := make([]byte, ln)
	copy(out, live[HdrSize:total])
	f.start += total
	f.maybeCompact()
	return t, out, true
}

// Encode serializes a single frame: header plus payload, ready to write
// to a socket. payload's length must already match ExpectedPayloadLen(t)
// for known types; callers use the Encode* codec helpers to build it.
func Encode(msgType uint8, payload []byte) []byte {
	out := make([]byte, HdrSize+len(payload))
	out[0] = msgType
	out[1] = MsgVer
	out[2] = byte(len(payload))
	copy(out[HdrSize:], payload)
	return out
}
