package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDefaultsFile reads an optional YAML defaults file and applies its
// fields on top of base. A missing file is not an error — it simply
// means this layer contributes nothing — but a present, malformed file
// is. Only fields actually present in the YAML document overwrite base;
// everything else passes through untouched, since RuntimeConfig's
// yaml-tagged fields are matched by name and the decoder leaves absent
// keys at their zero value, which we merge manually field-by-field via
// an overlay struct with pointer fields.
func LoadDefaultsFile(path string, base RuntimeConfig) (RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, err
	}

	var overlay configOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return base, err
	}

	return overlay.applyTo(base), nil
}

// configOverlay mirrors RuntimeConfig with every field a pointer, so the
// YAML decoder can tell "field present and equal to zero value" apart
// from "field absent".
type configOverlay struct {
	UsbHz  *float64 `yaml:"usb_hz"`
	TcpHz  *float64 `yaml:"tcp_hz"`
	CtrlHz *float64 `yaml:"ctrl_hz"`

	BindIP    *string `yaml:"bind_ip"`
	StatePort *uint16 `yaml:"state_port"`
	CmdPort   *uint16 `yaml:"cmd_port"`

	SerialDev  *string `yaml:"serial_dev"`
	SerialBaud *int    `yaml:"serial_baud"`

	CmdTimeoutS    *float64        `yaml:"cmd_timeout_s"`
	UsbTimeoutMode *UsbTimeoutMode `yaml:"usb_timeout_mode"`

	ControlMode        *ControlMode `yaml:"control_mode"`
	CtrlThreadPriority *int16       `yaml:"ctrl_thread_priority"`

	BinaryLog     *bool   `yaml:"binary_log"`
	LogPath       *string `yaml:"log_path"`
	LogRotateMB   *uint32 `yaml:"log_rotate_mb"`
	LogRotateKeep *uint32 `yaml:"log_rotate_keep"`

	FlagEventMask *uint8 `yaml:"flag_event_mask"`
	FlagStartBit  *int   `yaml:"flag_start_bit"`
	FlagStopBit   *int   `yaml:"flag_stop_bit"`
	FlagResetBit  *int   `yaml:"flag_reset_bit"`
}

func (o configOverlay) applyTo(cfg RuntimeConfig) RuntimeConfig {
	if o.UsbHz != nil {
		cfg.UsbHz = *o.UsbHz
	}
	if o.TcpHz != nil {
		cfg.TcpHz = *o.TcpHz
	}
	if o.CtrlHz != nil {
		cfg.CtrlHz = *o.CtrlHz
	}
	if o.BindIP != nil {
		cfg.BindIP = *o.BindIP
	}
	if o.StatePort != nil {
		cfg.StatePort = *o.StatePort
	}
	if o.CmdPort != nil {
		cfg.CmdPort = *o.CmdPort
	}
	if o.SerialDev != nil {
		cfg.SerialDev = *o.SerialDev
	}
	if o.SerialBaud != nil {
		cfg.SerialBaud = *o.SerialBaud
	}
	if o.CmdTimeoutS != nil {
		cfg.CmdTimeoutS = *o.CmdTimeoutS
	}
	if o.UsbTimeoutMode != nil {
		cfg.UsbTimeoutMode = *o.UsbTimeoutMode
	}
	if o.ControlMode != nil {
		cfg.ControlMode = *o.ControlMode
	}
	if o.CtrlThreadPriority != nil {
		cfg.CtrlThreadPriority = *o.CtrlThreadPriority
	}
	if o.BinaryLog != nil {
		cfg.BinaryLog = *o.BinaryLog
	}
	if o.LogPath != nil {
		cfg.LogPath = *o.LogPath
	}
	if o.LogRotateMB != nil {
		cfg.LogRotateMB = *o.LogRotateMB
	}
	if o.LogRotateKeep != nil {
		cfg.LogRotateKeep = *o.LogRotateKeep
	}
	if o.FlagEventMask != nil {
		cfg.FlagEventMask = *o.FlagEventMask
	}
	if o.FlagStartBit != nil {
		cfg.FlagStartBit = *o.FlagStartBit
	}
	if o.FlagStopBit != nil {
		cfg.FlagStopBit = *o.FlagStopBit
	}
	if o.FlagResetBit != nil {
		cfg.FlagResetBit = *o.FlagResetBit
	}
	return cfg
}
