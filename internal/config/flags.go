package config

import (
	"flag"
	"fmt"
)

// ParseFlags parses the CLI surface in spec §6.1 against base (normally
// the result of loading compiled defaults and then an optional YAML
// defaults file) and returns the resulting config. Flags always win over
// whatever base already held — that's the third and final layer. Only
// flags the caller actually passed are applied; every flag is optional.
//
// fs lets callers supply their own *flag.FlagSet (e.g. one built with
// flag.ContinueOnError for tests); pass flag.CommandLine for normal
// process startup.
func ParseFlags(fs *flag.FlagSet, args []string, base RuntimeConfig) (RuntimeConfig, error) {
	cfg := base

	serial := fs.String("serial", "", "serial device path")
	baud := fs.Int("baud", 0, "serial baud rate")
	bindIP := fs.String("bind_ip", "", "TCP bind address")
	statePort := fs.Uint("state_port", 0, "state broadcast TCP port")
	cmdPort := fs.Uint("cmd_port", 0, "command ingress TCP port")
	usbHz := fs.Float64("usb_hz", 0, "USB worker rate, Hz")
	tcpHz := fs.Float64("tcp_hz", 0, "TCP worker rate, Hz")
	ctrlHz := fs.Float64("ctrl_hz", 0, "controller worker rate, Hz")
	hz := fs.Float64("hz", 0, "sets usb_hz, tcp_hz and ctrl_hz together")
	cmdTimeout := fs.Float64("cmd_timeout", 0, "command watchdog timeout, seconds")
	usbTimeoutMode := fs.String("usb_timeout_mode", "", "enforce|disable")
	controlMode := fs.String("control_mode", "", "pass|auto|setpoint")
	binaryLog := fs.Int("binary_log", -1, "0|1, enable the rotating binary log")
	logPath := fs.String("log_path", "", "binary log file path")
	flagEventMask := fs.String("flag_event_mask", "", "u8 hex (0x..) or decimal flag event mask")
	flagStartBit := fs.Int("flag_start_bit", -2, "flag bit index that starts the controller")
	flagStopBit := fs.Int("flag_stop_bit", -2, "flag bit index that stops the controller")
	flagResetBit := fs.Int("flag_reset_bit", -2, "flag bit index that resets the controller")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *serial != "" {
		cfg.SerialDev = *serial
	}
	if *baud != 0 {
		cfg.SerialBaud = *baud
	}
	if *bindIP != "" {
		cfg.BindIP = *bindIP
	}
	if *statePort != 0 {
		cfg.StatePort = uint16(*statePort)
	}
	if *cmdPort != 0 {
		cfg.CmdPort = uint16(*cmdPort)
	}
	if *hz != 0 {
		cfg.UsbHz, cfg.TcpHz, cfg.CtrlHz = *hz, *hz, *hz
	}
	if *usbHz != 0 {
		cfg.UsbHz = *usbHz
	}
	if *tcpHz != 0 {
		cfg.TcpHz = *tcpHz
	}
	if *ctrlHz != 0 {
		cfg.CtrlHz = *ctrlHz
	}
	if *cmdTimeout != 0 {
		cfg.CmdTimeoutS = *cmdTimeout
	}
	if *usbTimeoutMode != "" {
		mode, ok := ParseUsbTimeoutMode(*usbTimeoutMode)
		if !ok {
			return cfg, fmt.Errorf("invalid --usb_timeout_mode %q: want enforce|disable", *usbTimeoutMode)
		}
		cfg.UsbTimeoutMode = mode
	}
	if *controlMode != "" {
		mode, ok := ParseControlMode(*controlMode)
		if !ok {
			return cfg, fmt.Errorf("invalid --control_mode %q: want pass|auto|setpoint", *controlMode)
		}
		cfg.ControlMode = mode
	}
	if *binaryLog != -1 {
		cfg.BinaryLog = *binaryLog != 0
	}
	if *logPath != "" {
		cfg.LogPath = *logPath
	}
	if *flagEventMask != "" {
		v, err := parseU8(*flagEventMask)
		if err != nil {
			return cfg, fmt.Errorf("invalid --flag_event_mask %q: %w", *flagEventMask, err)
		}
		cfg.FlagEventMask = v
	}
	if *flagStartBit != -2 {
		cfg.FlagStartBit = *flagStartBit
	}
	if *flagStopBit != -2 {
		cfg.FlagStopBit = *flagStopBit
	}
	if *flagResetBit != -2 {
		cfg.FlagResetBit = *flagResetBit
	}

	return cfg, nil
}

// parseU8 accepts either a "0x.."-prefixed hex literal or a plain
// decimal string, per spec §6.1's "<u8 hex or dec>".
func parseU8(s string) (uint8, error) {
	var v uint64
	var err error
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		_, err = fmt.Sscanf(s[2:], "%x", &v)
	} else {
		_, err = fmt.Sscanf(s, "%d", &v)
	}
	if err != nil {
		return 0, err
	}
	if v > 255 {
		return 0, fmt.Errorf("value %d out of range for u8", v)
	}
	return uint8(v), nil
}
