package config

// ControlMode selects which stage of the controller worker produces the
// final action request. Values match the wire CONFIG key 20 encoding.
type ControlMode uint8

const (
	PassThroughCmd               ControlMode = 0
	Autonomous                   ControlMode = 1
	AutonomousWithRemoteSetpoint ControlMode = 2
)

func (m ControlMode) String() string {
	switch m {
	case PassThroughCmd:
		return "pass"
	case Autonomous:
		return "auto"
	case AutonomousWithRemoteSetpoint:
		return "setpoint"
	default:
		return "unknown"
	}
}

// ParseControlMode parses the --control_mode flag value.
func ParseControlMode(s string) (ControlMode, bool) {
	switch s {
	case "pass":
		return PassThroughCmd, true
	case "auto":
		return Autonomous, true
	case "setpoint":
		return AutonomousWithRemoteSetpoint, true
	default:
		return 0, false
	}
}

// UsbTimeoutMode selects whether the USB worker's command watchdog is
// enforced. Values match the wire CONFIG key 5 encoding.
type UsbTimeoutMode uint8

const (
	Enforce UsbTimeoutMode = 0
	Disable UsbTimeoutMode = 1
)

func (m UsbTimeoutMode) String() string {
	switch m {
	case Enforce:
		return "enforce"
	case Disable:
		return "disable"
	default:
		return "unknown"
	}
}

// ParseUsbTimeoutMode parses the --usb_timeout_mode flag value.
func ParseUsbTimeoutMode(s string) (UsbTimeoutMode, bool) {
	switch s {
	case "enforce":
		return Enforce, true
	case "disable":
		return Disable, true
	default:
		return 0, false
	}
}
