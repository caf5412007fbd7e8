package workers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"robogateway/internal/config"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
	"robogateway/internal/stopflag"
)

func TestBitMatches(t *testing.T) {
	require.True(t, bitMatches(3, 3))
	require.False(t, bitMatches(3, 4))
	require.False(t, bitMatches(-1, 0), "disabled bit (-1) must never match")
	require.False(t, bitMatches(8, 8), "bit index must be within 0..7")
}

func newTestControllerEndpoint(t *testing.T) gwstate.ControllerEndpoint {
	t.Helper()
	cfg := config.NewStore(config.Default())
	sh := gwstate.New(cfg, 0)
	return sh.ControllerEndpoint()
}

func TestControllerStepForceZeroWhenNotRunning(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	ep.LatestRemoteCmd.Store(gwmodel.Actions{Motors: gwmodel.MotorCommands{M1: 50}, Flags: 0x01})
	ep.SysState.Store(gwstate.SystemState{Running: false})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	act, ok := ep.LatestActionRequest.Load()
	require.True(t, ok)
	require.Equal(t, gwmodel.MotorCommands{}, act.Motors, "motors must be forced to zero while not running")
	require.Equal(t, uint8(0x01), act.Flags, "continuous flags still report even when motors are zeroed")
}

func TestControllerStepPassThroughWhenRunning(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	ep.LatestRemoteCmd.Store(gwmodel.Actions{Motors: gwmodel.MotorCommands{M1: 42, M2: -42}, BeepMs: 9, Flags: 0x04})
	ep.SysState.Store(gwstate.SystemState{Running: true})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	act, ok := ep.LatestActionRequest.Load()
	require.True(t, ok)
	require.Equal(t, int16(42), act.Motors.M1)
	require.Equal(t, int16(-42), act.Motors.M2)
	require.Equal(t, uint8(0), act.BeepMs, "beep is never forwarded from the pass-through path")
	require.Equal(t, uint8(0x04), act.Flags)
}

func TestControllerStepForceZeroOnCommandTimeout(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	cfg := ep.Cfg.Load()
	cfg.CmdTimeoutS = 0.2
	cfg.UsbTimeoutMode = config.Enforce
	ep.Cfg.Replace(cfg)

	ep.LatestRemoteCmd.Store(gwmodel.Actions{Motors: gwmodel.MotorCommands{M1: 50}})
	ep.SysState.Store(gwstate.SystemState{Running: true})
	ep.LastCmdRxMonoS.Store(gwmodel.Now().MonoS - 10.0)

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	act, ok := ep.LatestActionRequest.Load()
	require.True(t, ok)
	require.Equal(t, gwmodel.MotorCommands{}, act.Motors, "stale command must force motors to zero under Enforce mode")
}

func TestControllerStepAutonomousModeZeroedBySub(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	cfg := ep.Cfg.Load()
	cfg.ControlMode = config.Autonomous
	ep.Cfg.Replace(cfg)
	ep.SysState.Store(gwstate.SystemState{Running: true})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	act, ok := ep.LatestActionRequest.Load()
	require.True(t, ok)
	require.Equal(t, gwmodel.MotorCommands{}, act.Motors, "the stub autopilot always reports zero motors")
}

func TestControllerStepFlagRiseStartBitSetsRunning(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	cfg := ep.Cfg.Load()
	cfg.FlagStartBit = 0
	cfg.FlagStopBit = 1
	cfg.FlagResetBit = 2
	ep.Cfg.Replace(cfg)

	ep.SysState.Store(gwstate.SystemState{Running: false})
	ep.SysEventQ.Push(gwmodel.EventCmd{Type: gwmodel.EventFlagRise, Data: [4]uint8{0, 0, 0, 0}})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	sys, ok := ep.SysState.Load()
	require.True(t, ok)
	require.True(t, sys.Running, "a rising edge on flag_start_bit must start the run state")
}

func TestControllerStepFlagRiseStopBitClearsRunning(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	cfg := ep.Cfg.Load()
	cfg.FlagStartBit = 0
	cfg.FlagStopBit = 1
	cfg.FlagResetBit = 2
	ep.Cfg.Replace(cfg)

	ep.SysState.Store(gwstate.SystemState{Running: true})
	ep.SysEventQ.Push(gwmodel.EventCmd{Type: gwmodel.EventFlagRise, Data: [4]uint8{1, 0, 0, 0}})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	sys, ok := ep.SysState.Load()
	require.True(t, ok)
	require.False(t, sys.Running)
}

func TestControllerStepFlagRiseResetBitClearsCommandAndSetpoint(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	cfg := ep.Cfg.Load()
	cfg.FlagStartBit = 0
	cfg.FlagStopBit = 1
	cfg.FlagResetBit = 2
	ep.Cfg.Replace(cfg)

	ep.LatestRemoteCmd.Store(gwmodel.Actions{Motors: gwmodel.MotorCommands{M1: 77}})
	ep.LatestSetpoint.Store(gwmodel.Setpoint{Seq: 5, SP: [4]float32{1, 2, 3, 4}})
	ep.SysState.Store(gwstate.SystemState{Running: true})
	ep.SysEventQ.Push(gwmodel.EventCmd{Type: gwmodel.EventFlagRise, Data: [4]uint8{2, 0, 0, 0}})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	sys, ok := ep.SysState.Load()
	require.True(t, ok)
	require.False(t, sys.Running, "reset must also stop the run state")

	cmd, ok := ep.LatestRemoteCmd.Load()
	require.True(t, ok)
	require.Equal(t, gwmodel.Actions{}, cmd)

	sp, ok := ep.LatestSetpoint.Load()
	require.True(t, ok)
	require.Equal(t, gwmodel.Setpoint{}, sp)
}

func TestControllerStepIgnoresNonFlagRiseEvents(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	cfg := ep.Cfg.Load()
	cfg.FlagStartBit = 0
	ep.Cfg.Replace(cfg)

	ep.SysState.Store(gwstate.SystemState{Running: false})
	ep.SysEventQ.Push(gwmodel.EventCmd{Type: gwmodel.EventBeep, Data: [4]uint8{0, 0, 0, 0}})

	c := NewController(ep, stopflag.New())
	c.step(ep.Cfg.Load())

	sys, ok := ep.SysState.Load()
	require.True(t, ok)
	require.False(t, sys.Running, "a beep event on the sys queue must never be mistaken for a flag rise")
}

func TestControllerRunPublishesFinalZeroedActionOnStop(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	ep.LatestActionRequest.Store(gwmodel.Actions{Motors: gwmodel.MotorCommands{M1: 99}})

	stop := stopflag.New()
	stop.RequestStop()
	NewController(ep, stop).Run()

	act, ok := ep.LatestActionRequest.Load()
	require.True(t, ok)
	require.Equal(t, gwmodel.Actions{}, act, "Run must zero the published action before returning")
}

func TestControllerCommandIsStale(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	c := &Controller{ep: ep}

	require.False(t, c.commandIsStale(config.Default(), 10.0), "never having received a command is not staleness")

	ep.LastCmdRxMonoS.Store(10.0)
	cfg := config.Default()
	cfg.CmdTimeoutS = 0.2

	require.False(t, c.commandIsStale(cfg, 10.1))
	require.True(t, c.commandIsStale(cfg, 10.5))
}

func TestControllerLogTimeoutEdgeOnlyWarnsOnRisingEdge(t *testing.T) {
	ep := newTestControllerEndpoint(t)
	c := &Controller{ep: ep}
	cfg := config.Default()

	require.False(t, c.warnedTimeout)
	c.logTimeoutEdge(true, cfg)
	require.True(t, c.warnedTimeout)
	c.logTimeoutEdge(true, cfg)
	require.True(t, c.warnedTimeout)
	c.logTimeoutEdge(false, cfg)
	require.False(t, c.warnedTimeout)
}
