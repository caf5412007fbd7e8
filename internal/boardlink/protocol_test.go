package boardlink

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"robogateway/internal/gwmodel"
)

func TestLimitMotorValue(t *testing.T) {
	require.Equal(t, int8(127), limitMotorValue(127), "127 means keep, passes through unchanged")
	require.Equal(t, int8(100), limitMotorValue(150))
	require.Equal(t, int8(-100), limitMotorValue(-150))
	require.Equal(t, int8(50), limitMotorValue(50))
	require.Equal(t, int8(-50), limitMotorValue(-50))
	require.Equal(t, int8(100), limitMotorValue(100))
	require.Equal(t, int8(-100), limitMotorValue(-100))
}

func TestLimitMotorValueNeverExceedsRangeExceptKeepSentinel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int16().Draw(t, "v")
		got := limitMotorValue(v)
		if v == 127 {
			require.Equal(t, int8(127), got)
			return
		}
		require.GreaterOrEqual(t, int(got), -100)
		require.LessOrEqual(t, int(got), 100)
	})
}

func TestChecksumRXMatchesHandWorkedExample(t *testing.T) {
	// ext_len=9, ext_type=0x0A (FUNC_REPORT_SPEED): 7 payload bytes, of
	// which the 6 below are summed and the 7th (the trailing checksum
	// slot) is left out, as rxLoop does.
	extLen, extType := byte(9), funcReportSpeed
	body := []byte{1, 2, 3, 4, 5, 0x55}
	sum := int(extLen) + int(extType)
	for _, b := range body {
		sum += int(b)
	}
	want := byte(sum & 0xFF)
	require.Equal(t, want, checksumRX(extLen, extType, body))
}

func TestChecksumTXRoundTripsThroughSendFixed5Shape(t *testing.T) {
	frame := [7]byte{Head, DeviceID, 0x05, funcBeep, 0x01, 0x02, 0}
	cs := checksumTX(frame[:6])

	sum := int(Complement)
	for _, b := range frame[:6] {
		sum += int(b)
	}
	require.Equal(t, byte(sum&0xFF), cs)
}

func TestLeInt16AndLeInt32(t *testing.T) {
	require.Equal(t, int16(0x0102), leInt16([]byte{0x02, 0x01}))
	require.Equal(t, int16(-1), leInt16([]byte{0xFF, 0xFF}))
	require.Equal(t, int32(0x01020304), leInt32([]byte{0x04, 0x03, 0x02, 0x01}))
	require.Equal(t, int32(-1), leInt32([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
}

func TestRearrangeGyroNegatesYAndZOnly(t *testing.T) {
	v := rearrangeGyro(gwmodel.Vec3{X: 1, Y: 2, Z: 3})
	require.Equal(t, float32(1), v.X)
	require.Equal(t, float32(-2), v.Y)
	require.Equal(t, float32(-3), v.Z)
}

func TestScaleVec3(t *testing.T) {
	v := scaleVec3(gwmodel.Vec3{X: 2, Y: 4, Z: -6}, 0.5)
	require.Equal(t, float32(1), v.X)
	require.Equal(t, float32(2), v.Y)
	require.Equal(t, float32(-3), v.Z)
}
