// Package wire implements the gateway's little-endian, fixed-layout frame
// protocol (§4.2/§6.2-6.4 of the spec) and the streaming, self-resyncing
// frame decoder that sits in front of it. Grounded on the original C++
// gateway's connection/framed.hpp and connection/wire_codec.cpp (see
// original_source/cpp_gateway) — the byte layouts here are a direct
// translation of those, using encoding/binary instead of hand-rolled
// pointer arithmetic.
package wire

// Message types, per spec.md §4.2.
const (
	MsgVer uint8 = 1

	MsgState     uint8 = 1 // gateway -> subscriber
	MsgCmd       uint8 = 2 // client -> gateway (legacy continuous command)
	MsgSetpoint  uint8 = 3 // client -> gateway
	MsgConfig    uint8 = 4 // client -> gateway
	MsgStatsReq  uint8 = 5 // client -> gateway
	MsgStatsResp uint8 = 6 // gateway -> client
)

// HdrSize is the fixed 3-byte frame header: type, ver, len.
const HdrSize = 3

// Fixed payload sizes per message type, per spec.md §4.2/§6.2/§6.3.
const (
	StatePayloadSize     = 76
	CmdPayloadSize       = 14
	SetpointPayloadSize  = 21
	ConfigPayloadSize    = 12
	StatsReqPayloadSize  = 0
	StatsRespPayloadSize = 48
)

// IsKnownType reports whether t is one of the six message types above.
func IsKnownType(t uint8) bool {
	switch t {
	case MsgState, MsgCmd, MsgSetpoint, MsgConfig, MsgStatsReq, MsgStatsResp:
		return true
	default:
		return false
	}
}

// ExpectedPayloadLen returns the fixed payload length for a known type.
// ok is false for unknown types.
func ExpectedPayloadLen(t uint8) (n int, ok bool) {
	switch t {
	case MsgState:
		return StatePayloadSize, true
	case MsgCmd:
		return CmdPayloadSize, true
	case MsgSetpoint:
		return SetpointPayloadSize, true
	case MsgConfig:
		return ConfigPayloadSize, true
	case MsgStatsReq:
		return StatsReqPayloadSize, true
	case MsgStatsResp:
		return StatsRespPayloadSize, true
	default:
		return 0, false
	}
}

// mandatesNonzeroPayload reports whether a message of this type with
// len==0 should be treated as malformed (resync), per spec.md §4.2: "a
// type that mandates a payload has len == 0" is a decode error.
func mandatesNonzeroPayload(t uint8) bool {
	switch t {
	case MsgCmd, MsgSetpoint, MsgConfig, MsgStatsResp:
		return true
	default:
		return false
	}
}

// StatePayload is the 76-byte STATE wire payload (§6.2).
type StatePayload struct {
	Seq            uint32
	TMonoS         float32
	Ax, Ay, Az     float32
	Gx, Gy, Gz     float32
	Mx, My, Mz     float32
	Roll, Pitch, Yaw float32
	E1, E2, E3, E4 int32
	BatteryVoltage float32
}

// CmdPayload is the 14-byte CMD wire payload (§4.2).
type CmdPayload struct {
	Seq              uint32
	M1, M2, M3, M4   int16
	BeepMs           uint8
	Flags            uint8
}

// SetpointPayload is the 21-byte SETPOINT wire payload (§4.2).
type SetpointPayload struct {
	Seq   uint32
	SP    [4]float32
	Flags uint8
}

// ConfigPayload is the 12-byte CONFIG wire payload (§4.2/§6.4).
type ConfigPayload struct {
	Seq uint32
	Key uint8
	U8  uint8
	U16 uint16
	U32 uint32
}

// StatsPayload is the 48-byte STATS_RESP wire payload (§6.3).
type StatsPayload struct {
	Seq            uint32
	UptimeMs       uint32
	UsbHz          float32
	TcpHz          float32
	CtrlHz         float32
	DropsState     uint32
	DropsAction    uint32
	DropsEvent     uint32
	DropsSysEvent  uint32
	TcpFramesBad   uint32
	SerialErrors   uint32
	Reserved       uint32
}
