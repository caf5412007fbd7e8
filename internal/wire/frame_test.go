package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestFrameRxBasicFrame mirrors the original gateway's
// tests/test_framed.cpp basic-frame case: one well-formed frame fed in a
// single push yields exactly one decoded frame.
func TestFrameRxBasicFrame(t *testing.T) {
	rx := NewFrameRx()
	payload := EncodeCmd(CmdPayload{Seq: 42, M1: 10, M2: -10, BeepMs: 5, Flags: 1})
	rx.PushBytes(Encode(MsgCmd, payload))

	gotType, gotPayload, ok := rx.Pop()
	require.True(t, ok)
	require.Equal(t, MsgCmd, gotType)
	require.Equal(t, payload, gotPayload)

	_, _, ok = rx.Pop()
	require.False(t, ok, "no second frame should be available")
}

// TestFrameRxByteAtATime feeds the same frame one byte per PushBytes
// call, verifying Pop only succeeds once the full frame has arrived.
func TestFrameRxByteAtATime(t *testing.T) {
	rx := NewFrameRx()
	payload := EncodeSetpoint(SetpointPayload{Seq: 7, SP: [4]float32{1, 2, 3, 4}, Flags: 0})
	full := Encode(MsgSetpoint, payload)

	for i := 0; i < len(full)-1; i++ {
		rx.PushBytes(full[i : i+1])
		_, _, ok := rx.Pop()
		require.False(t, ok, "frame should not be complete at byte %d", i)
	}
	rx.PushBytes(full[len(full)-1:])
	gotType, gotPayload, ok := rx.Pop()
	require.True(t, ok)
	require.Equal(t, MsgSetpoint, gotType)
	require.Equal(t, payload, gotPayload)
}

// TestFrameRxResyncOnGarbage mirrors test_resync_on_garbage: garbage
// bytes preceding a valid frame are discarded one at a time, and the
// valid frame that follows is still decoded correctly.
func TestFrameRxResyncOnGarbage(t *testing.T) {
	rx := NewFrameRx()
	payload := EncodeConfig(ConfigPayload{Seq: 1, Key: 3, U32: 9000})
	frame := Encode(MsgConfig, payload)

	garbage := []byte{0xFF, 0x00, 0x7E, 0x13, 0x99}
	rx.PushBytes(garbage)
	rx.PushBytes(frame)

	for i := 0; i < len(garbage); i++ {
		_, _, ok := rx.Pop()
		require.False(t, ok, "garbage byte %d should not decode", i)
	}

	gotType, gotPayload, ok := rx.Pop()
	require.True(t, ok, "valid frame after garbage should decode")
	require.Equal(t, MsgConfig, gotType)
	require.Equal(t, payload, gotPayload)
}

// TestFrameRxRejectsBadVersion checks that a frame with the wrong
// version byte is treated as garbage (one byte dropped, no frame
// emitted) even though type and length are otherwise valid.
func TestFrameRxRejectsBadVersion(t *testing.T) {
	rx := NewFrameRx()
	payload := EncodeCmd(CmdPayload{Seq: 1})
	frame := Encode(MsgCmd, payload)
	frame[1] = MsgVer + 1 // corrupt version
	rx.PushBytes(frame)

	_, _, ok := rx.Pop()
	require.False(t, ok)
}

// TestFrameRxRejectsWrongFixedLength checks that a STATE frame claiming
// a length that doesn't match the fixed payload size for its type is
// rejected rather than silently accepted with a short/long payload.
func TestFrameRxRejectsWrongFixedLength(t *testing.T) {
	rx := NewFrameRx()
	bad := []byte{MsgState, MsgVer, byte(StatePayloadSize - 1)}
	bad = append(bad, make([]byte, StatePayloadSize-1)...)
	rx.PushBytes(bad)

	_, _, ok := rx.Pop()
	require.False(t, ok)
}

// TestFrameRxRejectsMandatoryEmptyPayload checks that a CMD frame (which
// mandates a nonzero payload) with len==0 is rejected as malformed.
func TestFrameRxRejectsMandatoryEmptyPayload(t *testing.T) {
	rx := NewFrameRx()
	rx.PushBytes([]byte{MsgCmd, MsgVer, 0})

	_, _, ok := rx.Pop()
	require.False(t, ok)
}

// TestFrameRxStatsReqZeroPayloadOK checks that STATS_REQ, whose payload
// is legitimately zero-length, decodes successfully.
func TestFrameRxStatsReqZeroPayloadOK(t *testing.T) {
	rx := NewFrameRx()
	rx.PushBytes(Encode(MsgStatsReq, nil))

	gotType, gotPayload, ok := rx.Pop()
	require.True(t, ok)
	require.Equal(t, MsgStatsReq, gotType)
	require.Empty(t, gotPayload)
}

// TestFrameRxMultipleFramesOneBuffer checks that several valid frames
// pushed together are all decoded in order.
func TestFrameRxMultipleFramesOneBuffer(t *testing.T) {
	rx := NewFrameRx()
	p1 := EncodeCmd(CmdPayload{Seq: 1})
	p2 := EncodeCmd(CmdPayload{Seq: 2})
	p3 := EncodeCmd(CmdPayload{Seq: 3})
	rx.PushBytes(Encode(MsgCmd, p1))
	rx.PushBytes(Encode(MsgCmd, p2))
	rx.PushBytes(Encode(MsgCmd, p3))

	for _, want := range []CmdPayload{{Seq: 1}, {Seq: 2}, {Seq: 3}} {
		_, payload, ok := rx.Pop()
		require.True(t, ok)
		require.Equal(t, want, DecodeCmd(payload))
	}
	_, _, ok := rx.Pop()
	require.False(t, ok)
}

// TestFrameRxCompaction checks that the internal buffer doesn't grow
// without bound as frames are consumed past the compaction threshold.
func TestFrameRxCompaction(t *testing.T) {
	rx := NewFrameRx()
	payload := EncodeCmd(CmdPayload{})
	frame := Encode(MsgCmd, payload)

	for i := 0; i < kCompactThreshold/len(frame)+10; i++ {
		rx.PushBytes(frame)
		_, _, ok := rx.Pop()
		require.True(t, ok)
	}
	require.Less(t, len(rx.buf), kCompactThreshold+len(frame)+HdrSize+255,
		"buffer should have been compacted, not grown unbounded")
}

// TestFrameRxResyncThenDecodesEverythingValid is a property test: given
// an interleaving of garbage bytes and well-formed frames of arbitrary
// known types, FrameRx recovers every well-formed frame, in order,
// regardless of how the garbage is chunked across PushBytes calls.
func TestFrameRxResyncThenDecodesEverythingValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rx := NewFrameRx()
		var wantTypes []uint8
		var wantPayloads [][]byte

		n := rapid.IntRange(0, 20).Draw(t, "n")
		for i := 0; i < n; i++ {
			if rapid.Bool().Draw(t, "isGarbage") {
				g := rapid.SliceOfN(rapid.Byte(), 1, 5).Draw(t, "garbage")
				rx.PushBytes(g)
				continue
			}
			seq := rapid.Uint32().Draw(t, "seq")
			payload := EncodeCmd(CmdPayload{Seq: seq})
			rx.PushBytes(Encode(MsgCmd, payload))
			wantTypes = append(wantTypes, MsgCmd)
			wantPayloads = append(wantPayloads, payload)
		}

		var gotTypes []uint8
		var gotPayloads [][]byte
		for {
			before := len(rx.live())
			typ, payload, ok := rx.Pop()
			if ok {
				gotTypes = append(gotTypes, typ)
				gotPayloads = append(gotPayloads, payload)
				continue
			}
			if len(rx.live()) == before {
				break // no progress possible: buffered bytes can't form a frame yet
			}
		}

		require.Equal(t, len(wantTypes), len(gotTypes))
		for i := range wantTypes {
			require.Equal(t, wantTypes[i], gotTypes[i])
			require.Equal(t, wantPayloads[i], gotPayloads[i])
		}
	})
}
