package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"robogateway/internal/gwmodel"
)

func TestDefaultMatchesSpecBaseline(t *testing.T) {
	cfg := Default()
	require.Equal(t, 200.0, cfg.UsbHz)
	require.Equal(t, 200.0, cfg.TcpHz)
	require.Equal(t, 200.0, cfg.CtrlHz)
	require.Equal(t, uint16(30001), cfg.StatePort)
	require.Equal(t, uint16(30002), cfg.CmdPort)
	require.Equal(t, 115200, cfg.SerialBaud)
	require.Equal(t, 0.2, cfg.CmdTimeoutS)
	require.Equal(t, Enforce, cfg.UsbTimeoutMode)
	require.Equal(t, PassThroughCmd, cfg.ControlMode)
	require.True(t, cfg.BinaryLog)
	require.Equal(t, uint8(0x07), cfg.FlagEventMask)
	require.Equal(t, -1, cfg.FlagStartBit)
}

func TestApplyConfigMessageClampsRates(t *testing.T) {
	cfg := Default()
	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 2, U16: 5000})
	require.Equal(t, 2000.0, cfg.TcpHz, "tcp_hz should clamp to its upper bound of 2000")

	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 2, U16: 500})
	require.Equal(t, 500.0, cfg.TcpHz)
}

func TestApplyConfigMessageCmdTimeoutClamp(t *testing.T) {
	cfg := Default()
	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 4, U16: 1}) // 1ms -> 0.001s, clamps to 0.01
	require.Equal(t, 0.01, cfg.CmdTimeoutS)

	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 4, U16: 60000}) // 60s, clamps to 5.0
	require.Equal(t, 5.0, cfg.CmdTimeoutS)
}

func TestApplyConfigMessageUsbTimeoutMode(t *testing.T) {
	cfg := Default()
	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 5, U8: 1})
	require.Equal(t, Disable, cfg.UsbTimeoutMode)
	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 5, U8: 0})
	require.Equal(t, Enforce, cfg.UsbTimeoutMode)
}

func TestApplyConfigMessageControlModeRejectsOutOfRange(t *testing.T) {
	cfg := Default()
	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 20, U8: 99})
	require.Equal(t, PassThroughCmd, cfg.ControlMode, "out-of-range control_mode value must not change the field")

	cfg = ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 20, U8: 2})
	require.Equal(t, AutonomousWithRemoteSetpoint, cfg.ControlMode)
}

func TestApplyConfigMessageUnknownKeyIsNoop(t *testing.T) {
	cfg := Default()
	got := ApplyConfigMessage(cfg, gwmodel.ConfigMessage{Key: 250, U32: 12345})
	require.Equal(t, cfg, got, "unknown keys must leave the config unchanged")
	require.False(t, KnownConfigKey(250))
}

func TestStoreSwapIsAtomicAndVisible(t *testing.T) {
	s := NewStore(Default())
	s.Swap(func(c RuntimeConfig) RuntimeConfig {
		c.TcpHz = 42
		return c
	})
	require.Equal(t, 42.0, s.Load().TcpHz)
}

func TestParseFlagsOverridesDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseFlags(fs, []string{
		"--serial", "/dev/ttyACM0",
		"--hz", "100",
		"--usb_hz", "150",
		"--control_mode", "auto",
		"--flag_event_mask", "0x0F",
	}, Default())
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM0", cfg.SerialDev)
	require.Equal(t, 100.0, cfg.TcpHz, "--hz should set tcp_hz")
	require.Equal(t, 100.0, cfg.CtrlHz, "--hz should set ctrl_hz")
	require.Equal(t, 150.0, cfg.UsbHz, "--usb_hz should override --hz for usb_hz specifically")
	require.Equal(t, Autonomous, cfg.ControlMode)
	require.Equal(t, uint8(0x0F), cfg.FlagEventMask)
}

func TestParseFlagsRejectsBadEnum(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := ParseFlags(fs, []string{"--control_mode", "bogus"}, Default())
	require.Error(t, err)
}

func TestLoadDefaultsFileMissingIsNotError(t *testing.T) {
	cfg, err := LoadDefaultsFile(filepath.Join(t.TempDir(), "nope.yaml"), Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadDefaultsFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte("usb_hz: 50\nbind_ip: \"127.0.0.1\"\n"), 0o644))

	cfg, err := LoadDefaultsFile(path, Default())
	require.NoError(t, err)
	require.Equal(t, 50.0, cfg.UsbHz)
	require.Equal(t, "127.0.0.1", cfg.BindIP)
	require.Equal(t, 200.0, cfg.TcpHz, "fields absent from the YAML file must keep their default")
}

func TestLayeringPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte("usb_hz: 50\ntcp_hz: 60\n"), 0o644))

	cfg, err := LoadDefaultsFile(path, Default())
	require.NoError(t, err)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err = ParseFlags(fs, []string{"--usb_hz", "77"}, cfg)
	require.NoError(t, err)

	require.Equal(t, 77.0, cfg.UsbHz, "CLI flag must win over YAML file")
	require.Equal(t, 60.0, cfg.TcpHz, "YAML file must win over compiled default when no flag overrides it")
}
