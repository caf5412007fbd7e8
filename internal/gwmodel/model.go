// Package gwmodel holds the gateway's core data model: the sensor/actuator
// structures that flow between the serial board, the workers, and the TCP
// clients. These are plain value types — copied by value across channel
// boundaries, never shared by pointer across goroutines — which is what
// lets ringbuf.LatestValue and ringbuf.SpscOverwrite treat them as atomic
// units. Grounded on the original C++ gateway's core/basic.hpp data model
// (see original_source/cpp_gateway).
package gwmodel

// Vec3 is three IEEE-754 binary32 components.
type Vec3 struct {
	X, Y, Z float32
}

// IMU bundles the three Vec3 sensor axes the board reports.
type IMU struct {
	Acc  Vec3
	Gyro Vec3
	Mag  Vec3
}

// Angles are roll/pitch/yaw, in the units the board provides them in.
type Angles struct {
	Roll, Pitch, Yaw float32
}

// Encoders are four independent signed 32-bit wheel/shaft counters.
type Encoders struct {
	E1, E2, E3, E4 int32
}

// States is the full sensor snapshot. It is created and mutated
// exclusively inside the serial-link driver (internal/boardlink); every
// other consumer sees a copy taken under the driver's short lock.
type States struct {
	IMU             IMU
	Angles          Angles
	Encoders        Encoders
	BatteryVoltage  float32
}

// MotorCommands are four signed 16-bit setpoints, semantic range
// -100..+100. The sentinel value 127 means "keep the motor's previous
// output unchanged" and is handled by internal/boardlink, never written
// to the wire protocol's Actions directly by any worker other than USB.
type MotorCommands struct {
	M1, M2, M3, M4 int16
}

// Actions is what the controller stage hands to the USB worker. BeepMs
// and any flag "rising edge" are one-shot — they fire at most once per
// distinct seq — while Motors and the continuous flag bits are steady
// state that persists until explicitly replaced.
type Actions struct {
	Motors  MotorCommands
	BeepMs  uint8
	Flags   uint8
}

// Setpoint carries a sequenced vector of four float32 targets plus a
// flags byte, used by the AUTONOMOUS_WITH_REMOTE_SETPOINT control mode.
type Setpoint struct {
	Seq   uint32
	SP    [4]float32
	Flags uint8
}

// ConfigMessage is a single hot-reload key/value request from the TCP
// command client; see internal/config for the key table and clamping.
type ConfigMessage struct {
	Seq uint32
	Key uint8
	U8  uint8
	U16 uint16
	U32 uint32
}

// EventType distinguishes the three kinds of one-shot events the gateway
// threads through its queues and into the binary log.
type EventType uint8

const (
	EventBeep          EventType = 0
	EventFlagRise      EventType = 1
	EventConfigApplied EventType = 2
)

// EventCmd is a one-shot notification: a beep request, a flag rising
// edge, or a config-applied acknowledgement. Data carries up to four
// bytes of type-specific payload (e.g. beep_ms, or the flag bit index
// plus a snapshot of the flags byte).
type EventCmd struct {
	Type   EventType
	Seq    uint32
	Data   [4]uint8
	AuxU32 uint32
}

// Timestamps pairs a wall-clock reading with a monotonic one, exactly as
// the spec requires: consumers key on these, never on goroutine
// scheduling order.
type Timestamps struct {
	EpochS float64
	MonoS  float64
}
