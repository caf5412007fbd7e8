// Package config holds the gateway's hot-reloadable RuntimeConfig: the
// rates, network/serial endpoints, safety knobs, control mode, and
// logging settings every worker reads. A RuntimeConfig is never mutated
// in place — every change is copy-modify-swap through a Store, so a
// worker that grabbed a pointer a moment ago always sees either the old
// value or the new one, never a half-applied mix. Grounded on the
// original C++ gateway's include/gateway/runtime_config.hpp; the
// three-layer precedence (defaults < YAML file < CLI flags) follows the
// layered-config style seen elsewhere in the retrieved Go corpus (e.g.
// lsw23101-Encrypted_Cartpole's use of gopkg.in/yaml.v3 for a settings
// file read at startup).
package config

// RuntimeConfig is an immutable snapshot of every knob a worker consults
// on each tick. Fields are grouped the way runtime_config.hpp groups
// them.
type RuntimeConfig struct {
	// Rates, Hz.
	UsbHz  float64 `yaml:"usb_hz"`
	TcpHz  float64 `yaml:"tcp_hz"`
	CtrlHz float64 `yaml:"ctrl_hz"`

	// Networking.
	BindIP    string `yaml:"bind_ip"`
	StatePort uint16 `yaml:"state_port"`
	CmdPort   uint16 `yaml:"cmd_port"`

	// Serial.
	SerialDev  string `yaml:"serial_dev"`
	SerialBaud int    `yaml:"serial_baud"`

	// Safety.
	CmdTimeoutS    float64        `yaml:"cmd_timeout_s"`
	UsbTimeoutMode UsbTimeoutMode `yaml:"usb_timeout_mode"`

	// Control.
	ControlMode        ControlMode `yaml:"control_mode"`
	CtrlThreadPriority int16       `yaml:"ctrl_thread_priority"`

	// Logging.
	BinaryLog     bool   `yaml:"binary_log"`
	LogPath       string `yaml:"log_path"`
	LogRotateMB   uint32 `yaml:"log_rotate_mb"`
	LogRotateKeep uint32 `yaml:"log_rotate_keep"`

	// Flag routing.
	FlagEventMask uint8 `yaml:"flag_event_mask"`
	FlagStartBit  int   `yaml:"flag_start_bit"`
	FlagStopBit   int   `yaml:"flag_stop_bit"`
	FlagResetBit  int   `yaml:"flag_reset_bit"`
}

// Default returns the compiled-in baseline, matching
// runtime_config.hpp's field initializers exactly.
func Default() RuntimeConfig {
	return RuntimeConfig{
		UsbHz:  200.0,
		TcpHz:  200.0,
		CtrlHz: 200.0,

		BindIP:    "0.0.0.0",
		StatePort: 30001,
		CmdPort:   30002,

		SerialDev:  "/dev/ttyUSB0",
		SerialBaud: 115200,

		CmdTimeoutS:    0.2,
		UsbTimeoutMode: Enforce,

		ControlMode:        PassThroughCmd,
		CtrlThreadPriority: 0,

		BinaryLog:     true,
		LogPath:       "./logs/gateway.bin",
		LogRotateMB:   256,
		LogRotateKeep: 10,

		FlagEventMask: 0x07,
		FlagStartBit:  -1,
		FlagStopBit:   -1,
		FlagResetBit:  -1,
	}
}
