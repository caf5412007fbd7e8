package binlog

import (
	"encoding/binary"
	"math"

	"robogateway/internal/gwmodel"
)

// Sample payload encoders. spec §6.5 fixes each record type's field
// order and types but leaves in-memory packing unspecified — these
// functions are that explicit packing, one field at a time, matching
// the order the sample structs are declared in upstream
// (app/workers/shared_state.hpp's StateSample/ActionSample/EventSample).

func putF64(b []byte, off int, v float64) {
	binary.LittleEndian.PutUint64(b[off:], math.Float64bits(v))
}

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func putVec3(b []byte, off int, v gwmodel.Vec3) {
	putF32(b, off, v.X)
	putF32(b, off+4, v.Y)
	putF32(b, off+8, v.Z)
}

// EncodeStateSample packs {ts, seq, States} into 88 bytes.
func EncodeStateSample(ts gwmodel.Timestamps, seq uint32, st gwmodel.States) []byte {
	b := make([]byte, 88)
	putF64(b, 0, ts.EpochS)
	putF64(b, 8, ts.MonoS)
	binary.LittleEndian.PutUint32(b[16:], seq)
	putVec3(b, 20, st.IMU.Acc)
	putVec3(b, 32, st.IMU.Gyro)
	putVec3(b, 44, st.IMU.Mag)
	putF32(b, 56, st.Angles.Roll)
	putF32(b, 60, st.Angles.Pitch)
	putF32(b, 64, st.Angles.Yaw)
	binary.LittleEndian.PutUint32(b[68:], uint32(st.Encoders.E1))
	binary.LittleEndian.PutUint32(b[72:], uint32(st.Encoders.E2))
	binary.LittleEndian.PutUint32(b[76:], uint32(st.Encoders.E3))
	binary.LittleEndian.PutUint32(b[80:], uint32(st.Encoders.E4))
	putF32(b, 84, st.BatteryVoltage)
	return b
}

// EncodeActionSample packs {ts, seq, Actions} into 30 bytes.
func EncodeActionSample(ts gwmodel.Timestamps, seq uint32, act gwmodel.Actions) []byte {
	b := make([]byte, 30)
	putF64(b, 0, ts.EpochS)
	putF64(b, 8, ts.MonoS)
	binary.LittleEndian.PutUint32(b[16:], seq)
	binary.LittleEndian.PutUint16(b[20:], uint16(act.Motors.M1))
	binary.LittleEndian.PutUint16(b[22:], uint16(act.Motors.M2))
	binary.LittleEndian.PutUint16(b[24:], uint16(act.Motors.M3))
	binary.LittleEndian.PutUint16(b[26:], uint16(act.Motors.M4))
	b[28] = act.BeepMs
	b[29] = act.Flags
	return b
}

// EncodeEventSample packs {ts, EventCmd} into 29 bytes.
func EncodeEventSample(ts gwmodel.Timestamps, ev gwmodel.EventCmd) []byte {
	b := make([]byte, 29)
	putF64(b, 0, ts.EpochS)
	putF64(b, 8, ts.MonoS)
	b[16] = byte(ev.Type)
	binary.LittleEndian.PutUint32(b[17:], ev.Seq)
	copy(b[21:25], ev.Data[:])
	binary.LittleEndian.PutUint32(b[25:], ev.AuxU32)
	return b
}

func getF64(b []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
}

func getF32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func getVec3(b []byte, off int) gwmodel.Vec3 {
	return gwmodel.Vec3{X: getF32(b, off), Y: getF32(b, off+4), Z: getF32(b, off+8)}
}

// DecodeStateSample is EncodeStateSample's inverse. payload must be
// exactly 88 bytes.
func DecodeStateSample(payload []byte) (ts gwmodel.Timestamps, seq uint32, st gwmodel.States) {
	ts.EpochS = getF64(payload, 0)
	ts.MonoS = getF64(payload, 8)
	seq = binary.LittleEndian.Uint32(payload[16:])
	st.IMU.Acc = getVec3(payload, 20)
	st.IMU.Gyro = getVec3(payload, 32)
	st.IMU.Mag = getVec3(payload, 44)
	st.Angles.Roll = getF32(payload, 56)
	st.Angles.Pitch = getF32(payload, 60)
	st.Angles.Yaw = getF32(payload, 64)
	st.Encoders.E1 = int32(binary.LittleEndian.Uint32(payload[68:]))
	st.Encoders.E2 = int32(binary.LittleEndian.Uint32(payload[72:]))
	st.Encoders.E3 = int32(binary.LittleEndian.Uint32(payload[76:]))
	st.Encoders.E4 = int32(binary.LittleEndian.Uint32(payload[80:]))
	st.BatteryVoltage = getF32(payload, 84)
	return ts, seq, st
}

// DecodeActionSample is EncodeActionSample's inverse. payload must be
// exactly 30 bytes.
func DecodeActionSample(payload []byte) (ts gwmodel.Timestamps, seq uint32, act gwmodel.Actions) {
	ts.EpochS = getF64(payload, 0)
	ts.MonoS = getF64(payload, 8)
	seq = binary.LittleEndian.Uint32(payload[16:])
	act.Motors.M1 = int16(binary.LittleEndian.Uint16(payload[20:]))
	act.Motors.M2 = int16(binary.LittleEndian.Uint16(payload[22:]))
	act.Motors.M3 = int16(binary.LittleEndian.Uint16(payload[24:]))
	act.Motors.M4 = int16(binary.LittleEndian.Uint16(payload[26:]))
	act.BeepMs = payload[28]
	act.Flags = payload[29]
	return ts, seq, act
}

// DecodeEventSample is EncodeEventSample's inverse. payload must be
// exactly 29 bytes.
func DecodeEventSample(payload []byte) (ts gwmodel.Timestamps, ev gwmodel.EventCmd) {
	ts.EpochS = getF64(payload, 0)
	ts.MonoS = getF64(payload, 8)
	ev.Type = gwmodel.EventType(payload[16])
	ev.Seq = binary.LittleEndian.Uint32(payload[17:])
	copy(ev.Data[:], payload[21:25])
	ev.AuxU32 = binary.LittleEndian.Uint32(payload[25:])
	return ts, ev
}
