package gwerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFatalInitUnwrapsToUnderlyingError(t *testing.T) {
	inner := errors.New("open failed")
	err := &FatalInit{Resource: "/dev/ttyUSB0", Err: inner}

	require.Contains(t, err.Error(), "/dev/ttyUSB0")
	require.ErrorIs(t, err, inner)
}

func TestSerialRuntimeErrorUnwrapsToUnderlyingError(t *testing.T) {
	inner := errors.New("short write")
	err := &SerialRuntimeError{Op: "set_motor", Err: inner}

	require.Contains(t, err.Error(), "set_motor")
	require.ErrorIs(t, err, inner)
}

func TestNetworkPeerErrorMessageNamesRemote(t *testing.T) {
	err := &NetworkPeerError{Remote: "1.2.3.4:9000", Err: errors.New("reset")}
	require.Contains(t, err.Error(), "1.2.3.4:9000")
}

func TestDiskLogErrorUnwrapsToUnderlyingError(t *testing.T) {
	inner := errors.New("no space left on device")
	err := &DiskLogError{Path: "./logs/gateway.bin", Err: inner}

	require.Contains(t, err.Error(), "./logs/gateway.bin")
	require.ErrorIs(t, err, inner)
}

func TestChannelOverflowNamesRing(t *testing.T) {
	err := &ChannelOverflow{Ring: "state_ring"}
	require.Contains(t, err.Error(), "state_ring")
}

func TestConfigOutOfRangeNamesFieldAndBounds(t *testing.T) {
	err := &ConfigOutOfRange{Field: "usb_hz", Got: 5000, Lo: 1, Hi: 2000}
	require.Contains(t, err.Error(), "usb_hz")
	require.Contains(t, err.Error(), "5000")
}

func TestWatchdogTimeoutNamesAgeAndLimit(t *testing.T) {
	err := &WatchdogTimeout{AgeSeconds: 1.5, TimeoutSeconds: 0.2}
	require.Contains(t, err.Error(), "1.500")
	require.Contains(t, err.Error(), "0.200")
}

func TestProtocolDecodeErrorNamesReason(t *testing.T) {
	err := &ProtocolDecodeError{Reason: "unknown message type 99"}
	require.Contains(t, err.Error(), "unknown message type 99")
}
