// Package pretty holds cosmetic, human-readable formatters for the
// gateway's data model and on-disk record types — one-line renderings
// meant for terminals and log tailing, never for the wire protocol or
// the binary log itself. Grounded on the original C++ gateway's
// tcp_client.cpp STATE print line and decode_gateway_log.cpp's
// record_type_name/event_type_name helpers.
package pretty

import (
	"fmt"

	"robogateway/internal/binlog"
	"robogateway/internal/gwmodel"
)

// RecordTypeName names a binary log record type, or "UNKNOWN" for any
// value outside the closed set binlog.RecordType defines.
func RecordTypeName(t binlog.RecordType) string {
	switch t {
	case binlog.RecordState:
		return "STATE"
	case binlog.RecordCmd:
		return "ACTION"
	case binlog.RecordEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// EventTypeName names a one-shot event kind.
func EventTypeName(t gwmodel.EventType) string {
	switch t {
	case gwmodel.EventBeep:
		return "BEEP"
	case gwmodel.EventFlagRise:
		return "FLAG_RISE"
	case gwmodel.EventConfigApplied:
		return "CONFIG_APPLIED"
	default:
		return "UNKNOWN"
	}
}

// State renders one STATE sample as a single line, in the field order
// tcp_client.cpp prints its own STATE lines in.
func State(ts gwmodel.Timestamps, seq uint32, st gwmodel.States) string {
	return fmt.Sprintf(
		"STATE seq=%d t_mono=%.3f roll=%.2f pitch=%.2f yaw=%.2f enc1=%d enc2=%d enc3=%d enc4=%d batt=%.2f",
		seq, ts.MonoS, st.Angles.Roll, st.Angles.Pitch, st.Angles.Yaw,
		st.Encoders.E1, st.Encoders.E2, st.Encoders.E3, st.Encoders.E4, st.BatteryVoltage,
	)
}

// Action renders one ACTION (commanded motor output) sample as a single
// line.
func Action(ts gwmodel.Timestamps, seq uint32, act gwmodel.Actions) string {
	return fmt.Sprintf(
		"ACTION seq=%d t_mono=%.3f m1=%d m2=%d m3=%d m4=%d beep_ms=%d flags=%#02x",
		seq, ts.MonoS, act.Motors.M1, act.Motors.M2, act.Motors.M3, act.Motors.M4, act.BeepMs, act.Flags,
	)
}

// Event renders one one-shot event as a single line.
func Event(ts gwmodel.Timestamps, ev gwmodel.EventCmd) string {
	return fmt.Sprintf(
		"EVENT type=%s seq=%d data=%v aux=%d t_mono=%.3f",
		EventTypeName(ev.Type), ev.Seq, ev.Data, ev.AuxU32, ts.MonoS,
	)
}
