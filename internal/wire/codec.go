package wire

import (
	"encoding/binary"
	"math"
)

// Codec functions translate the fixed-layout payload structs to and from
// their little-endian byte encodings. Field order and widths mirror the
// original C++ gateway's src/connection/wire_codec.cpp exactly; only the
// mechanism (encoding/binary instead of reinterpret_cast over a packed
// struct) differs.

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func getF32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

// EncodeStates writes p into a fresh StatePayloadSize-byte buffer.
func EncodeStates(p StatePayload) []byte {
	b := make([]byte, StatePayloadSize)
	binary.LittleEndian.PutUint32(b[0:], p.Seq)
	putF32(b, 4, p.TMonoS)
	putF32(b, 8, p.Ax)
	putF32(b, 12, p.Ay)
	putF32(b, 16, p.Az)
	putF32(b, 20, p.Gx)
	putF32(b, 24, p.Gy)
	putF32(b, 28, p.Gz)
	putF32(b, 32, p.Mx)
	putF32(b, 36, p.My)
	putF32(b, 40, p.Mz)
	putF32(b, 44, p.Roll)
	putF32(b, 48, p.Pitch)
	putF32(b, 52, p.Yaw)
	binary.LittleEndian.PutUint32(b[56:], uint32(p.E1))
	binary.LittleEndian.PutUint32(b[60:], uint32(p.E2))
	binary.LittleEndian.PutUint32(b[64:], uint32(p.E3))
	binary.LittleEndian.PutUint32(b[68:], uint32(p.E4))
	putF32(b, 72, p.BatteryVoltage)
	return b
}

// DecodeStates parses a StatePayloadSize-byte buffer. The caller (FrameRx)
// already guarantees len(b) == StatePayloadSize.
func DecodeStates(b []byte) StatePayload {
	return StatePayload{
		Seq:            binary.LittleEndian.Uint32(b[0:]),
		TMonoS:         getF32(b, 4),
		Ax:             getF32(b, 8),
		Ay:             getF32(b, 12),
		Az:             getF32(b, 16),
		Gx:             getF32(b, 20),
		Gy:             getF32(b, 24),
		Gz:             getF32(b, 28),
		Mx:             getF32(b, 32),
		My:             getF32(b, 36),
		Mz:             getF32(b, 40),
		Roll:           getF32(b, 44),
		Pitch:          getF32(b, 48),
		Yaw:            getF32(b, 52),
		E1:             int32(binary.LittleEndian.Uint32(b[56:])),
		E2:             int32(binary.LittleEndian.Uint32(b[60:])),
		E3:             int32(binary.LittleEndian.Uint32(b[64:])),
		E4:             int32(binary.LittleEndian.Uint32(b[68:])),
		BatteryVoltage: getF32(b, 72),
	}
}

// EncodeCmd writes p into a fresh CmdPayloadSize-byte buffer.
func EncodeCmd(p CmdPayload) []byte {
	b := make([]byte, CmdPayloadSize)
	binary.LittleEndian.PutUint32(b[0:], p.Seq)
	binary.LittleEndian.PutUint16(b[4:], uint16(p.M1))
	binary.LittleEndian.PutUint16(b[6:], uint16(p.M2))
	binary.LittleEndian.PutUint16(b[8:], uint16(p.M3))
	binary.LittleEndian.PutUint16(b[10:], uint16(p.M4))
	b[12] = p.BeepMs
	b[13] = p.Flags
	return b
}

// DecodeCmd parses a CmdPayloadSize-byte buffer.
func DecodeCmd(b []byte) CmdPayload {
	return CmdPayload{
		Seq:    binary.LittleEndian.Uint32(b[0:]),
		M1:     int16(binary.LittleEndian.Uint16(b[4:])),
		M2:     int16(binary.LittleEndian.Uint16(b[6:])),
		M3:     int16(binary.LittleEndian.Uint16(b[8:])),
		M4:     int16(binary.LittleEndian.Uint16(b[10:])),
		BeepMs: b[12],
		Flags:  b[13],
	}
}

// EncodeSetpoint writes p into a fresh SetpointPayloadSize-byte buffer.
func EncodeSetpoint(p SetpointPayload) []byte {
	b := make([]byte, SetpointPayloadSize)
	binary.LittleEndian.PutUint32(b[0:], p.Seq)
	for i, v := range p.SP {
		putF32(b, 4+4*i, v)
	}
	b[20] = p.Flags
	return b
}

// DecodeSetpoint parses a SetpointPayloadSize-byte buffer.
func DecodeSetpoint(b []byte) SetpointPayload {
	var p SetpointPayload
	p.Seq = binary.LittleEndian.Uint32(b[0:])
	for i := range p.SP {
		p.SP[i] = getF32(b, 4+4*i)
	}
	p.Flags = b[20]
	return p
}

// EncodeConfig writes p into a fresh ConfigPayloadSize-byte buffer.
func EncodeConfig(p ConfigPayload) []byte {
	b := make([]byte, ConfigPayloadSize)
	binary.LittleEndian.PutUint32(b[0:], p.Seq)
	b[4] = p.Key
	b[5] = p.U8
	binary.LittleEndian.PutUint16(b[6:], p.U16)
	binary.LittleEndian.PutUint32(b[8:], p.U32)
	return b
}

// DecodeConfig parses a ConfigPayloadSize-byte buffer.
func DecodeConfig(b []byte) ConfigPayload {
	return ConfigPayload{
		Seq: binary.LittleEndian.Uint32(b[0:]),
		Key: b[4],
		U8:  b[5],
		U16: binary.LittleEndian.Uint16(b[6:]),
		U32: binary.LittleEndian.Uint32(b[8:]),
	}
}

// EncodeStats writes p into a fresh StatsRespPayloadSize-byte buffer.
func EncodeStats(p StatsPayload) []byte {
	b := make([]byte, StatsRespPayloadSize)
	binary.LittleEndian.PutUint32(b[0:], p.Seq)
	binary.LittleEndian.PutUint32(b[4:], p.UptimeMs)
	putF32(b, 8, p.UsbHz)
	putF32(b, 12, p.TcpHz)
	putF32(b, 16, p.CtrlHz)
	binary.LittleEndian.PutUint32(b[20:], p.DropsState)
	binary.LittleEndian.PutUint32(b[24:], p.DropsAction)
	binary.LittleEndian.PutUint32(b[28:], p.DropsEvent)
	binary.LittleEndian.PutUint32(b[32:], p.DropsSysEvent)
	binary.LittleEndian.PutUint32(b[36:], p.TcpFramesBad)
	binary.LittleEndian.PutUint32(b[40:], p.SerialErrors)
	binary.LittleEndian.PutUint32(b[44:], p.Reserved)
	return b
}

// DecodeStats parses a StatsRespPayloadSize-byte buffer.
func DecodeStats(b []byte) StatsPayload {
	return StatsPayload{
		Seq:           binary.LittleEndian.Uint32(b[0:]),
		UptimeMs:      binary.LittleEndian.Uint32(b[4:]),
		UsbHz:         getF32(b, 8),
		TcpHz:         getF32(b, 12),
		CtrlHz:        getF32(b, 16),
		DropsState:    binary.LittleEndian.Uint32(b[20:]),
		DropsAction:   binary.LittleEndian.Uint32(b[24:]),
		DropsEvent:    binary.LittleEndian.Uint32(b[28:]),
		DropsSysEvent: binary.LittleEndian.Uint32(b[32:]),
		TcpFramesBad:  binary.LittleEndian.Uint32(b[36:]),
		SerialErrors:  binary.LittleEndian.Uint32(b[40:]),
		Reserved:      binary.LittleEndian.Uint32(b[44:]),
	}
}
