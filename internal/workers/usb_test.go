package workers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"robogateway/internal/config"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
)

func newTestUsbEndpoint(t *testing.T) gwstate.UsbEndpoint {
	t.Helper()
	cfg := config.NewStore(config.Default())
	sh := gwstate.New(cfg, 0)
	return sh.UsbEndpoint()
}

func TestUsbCommandIsStale(t *testing.T) {
	ep := newTestUsbEndpoint(t)
	u := &USB{ep: ep}

	cfg := config.Default()
	cfg.CmdTimeoutS = 0.2

	require.False(t, u.commandIsStale(cfg), "with no command ever received, the watchdog must not trip")

	ep.LastCmdRxMonoS.Store(gwmodel.Now().MonoS)
	require.False(t, u.commandIsStale(cfg), "a command just received must not be stale")

	ep.LastCmdRxMonoS.Store(gwmodel.Now().MonoS - 10.0)
	require.True(t, u.commandIsStale(cfg), "a command ten seconds old must be stale under a 200ms timeout")
}

func TestUsbLogTimeoutEdge(t *testing.T) {
	ep := newTestUsbEndpoint(t)
	u := &USB{ep: ep}
	cfg := config.Default()

	require.False(t, u.warnedTimeout)
	u.logTimeoutEdge(true, cfg)
	require.True(t, u.warnedTimeout)
	u.logTimeoutEdge(true, cfg)
	require.True(t, u.warnedTimeout, "repeated active calls must not re-log, only track state")
	u.logTimeoutEdge(false, cfg)
	require.False(t, u.warnedTimeout)
}

func TestUsbConnectFailedDefaultsFalse(t *testing.T) {
	u := &USB{}
	require.False(t, u.ConnectFailed())
	u.connectFailed = true
	require.True(t, u.ConnectFailed())
}
