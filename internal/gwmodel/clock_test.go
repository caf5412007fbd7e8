package gwmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowMonoSIsNonNegativeAndMonotonic(t *testing.T) {
	a := Now()
	require.GreaterOrEqual(t, a.MonoS, 0.0)

	time.Sleep(time.Millisecond)
	b := Now()
	require.Greater(t, b.MonoS, a.MonoS)
}

func TestNowEpochSTracksWallClock(t *testing.T) {
	ts := Now()
	nowUnix := float64(time.Now().UnixNano()) / 1e9
	require.InDelta(t, nowUnix, ts.EpochS, 1.0)
}
