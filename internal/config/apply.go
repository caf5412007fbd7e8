package config

import "robogateway/internal/gwmodel"

// clamp returns v bounded to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyConfigMessage applies one incoming MSG_CONFIG key/value update to
// cfg per the key table in spec §6.4, with every numeric field clamped
// into its allowed range. Unknown keys return cfg unchanged; the caller
// still emits CONFIG_APPLIED for them (spec §6.4: "unknown keys are
// ignored but still trigger a CONFIG_APPLIED event containing the key").
func ApplyConfigMessage(cfg RuntimeConfig, msg gwmodel.ConfigMessage) RuntimeConfig {
	switch msg.Key {
	case 1: // usb_hz
		cfg.UsbHz = clamp(float64(msg.U16), 1, 2000)
	case 2: // tcp_hz
		cfg.TcpHz = clamp(float64(msg.U16), 1, 2000)
	case 3: // ctrl_hz
		cfg.CtrlHz = clamp(float64(msg.U16), 1, 2000)
	case 4: // cmd_timeout_ms -> s
		cfg.CmdTimeoutS = clamp(float64(msg.U16)/1000.0, 0.01, 5.0)
	case 5: // usb_timeout_mode
		if msg.U8 == uint8(Disable) {
			cfg.UsbTimeoutMode = Disable
		} else {
			cfg.UsbTimeoutMode = Enforce
		}
	case 6: // log_rotate_mb
		cfg.LogRotateMB = clampU32(uint32(msg.U16), 1, 8192)
	case 7: // log_rotate_keep
		cfg.LogRotateKeep = clampU32(uint32(msg.U16), 1, 200)
	case 10: // flag_event_mask
		cfg.FlagEventMask = msg.U8
	case 20: // control_mode
		if msg.U8 <= uint8(AutonomousWithRemoteSetpoint) {
			cfg.ControlMode = ControlMode(msg.U8)
		}
	case 30: // ctrl_thread_priority, u16 reinterpreted as i16
		cfg.CtrlThreadPriority = int16(msg.U16)
	default:
		// Unknown key: no field to apply, but the caller still emits
		// CONFIG_APPLIED with this key per spec §6.4.
	}
	return cfg
}

// KnownConfigKey reports whether key appears in the §6.4 key table. It
// does not gate whether CONFIG_APPLIED fires (that always fires); it's
// offered for callers that want to distinguish "applied a real setting"
// from "acknowledged an unrecognized key" in logs.
func KnownConfigKey(key uint8) bool {
	switch key {
	case 1, 2, 3, 4, 5, 6, 7, 10, 20, 30:
		return true
	default:
		return false
	}
}
