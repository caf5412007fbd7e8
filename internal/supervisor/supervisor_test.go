package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"robogateway/internal/config"
	"robogateway/internal/gwstate"
)

// TestRunJoinsAllWorkersAfterStop exercises the supervisor against a
// SharedState whose serial device path is deliberately bogus, so the
// USB worker fails to connect almost immediately, requests stop itself,
// and Run returns usbConnectFailed=true once every worker has joined.
func TestRunJoinsAllWorkersAfterStop(t *testing.T) {
	cfg := config.Default()
	cfg.SerialDev = "/dev/does-not-exist-robogateway-test"
	cfg.BindIP = "127.0.0.1"
	cfg.StatePort = 0 // let the OS pick a free port
	cfg.CmdPort = 0
	cfg.BinaryLog = false

	store := config.NewStore(cfg)
	sh := gwstate.New(store, 0)

	sup := New()

	done := make(chan bool, 1)
	go func() { done <- sup.Run(sh) }()

	select {
	case failed := <-done:
		require.True(t, failed, "a nonexistent serial device must be reported as a mandatory connect failure")
	case <-time.After(8 * time.Second):
		t.Fatal("supervisor.Run did not return after USB's mandatory resource failed")
	}

	require.True(t, sup.StopFlag().StopRequested(), "a USB connect failure must leave the stop flag set")
}
