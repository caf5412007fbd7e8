package workers

import (
	"log/slog"

	"robogateway/internal/autopilot"
	"robogateway/internal/config"
	"robogateway/internal/gwerrors"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
	"robogateway/internal/stopflag"
)

// maxSysEventsPerCycle bounds how many FLAG_RISE events the controller
// drains per tick, per spec.md §4.6.
const maxSysEventsPerCycle = 32

// bitMatches reports whether bit (a configured flag_*_bit, which may be
// -1 to mean "disabled") equals idx.
func bitMatches(bit int, idx uint8) bool {
	return bit >= 0 && bit < 8 && uint8(bit) == idx
}

// Controller runs the fixed-rate control stage: it reads the latest
// sensor snapshot plus remote command/setpoint, drains sys-events to
// toggle the run state, selects an output by control mode, and stores
// the result for the USB worker to apply. Grounded on
// controller_worker.cpp.
type Controller struct {
	ep   gwstate.ControllerEndpoint
	stop *stopflag.StopFlag
	auto autopilot.Stub

	warnedTimeout bool
}

// NewController builds a Controller over ep, stopping cooperatively on stop.
func NewController(ep gwstate.ControllerEndpoint, stop *stopflag.StopFlag) *Controller {
	return &Controller{ep: ep, stop: stop}
}

// Run blocks until stop is requested, then publishes one final
// zero Actions before returning.
func (c *Controller) Run() {
	tick := newTicker()
	slog.Info("[CTRL] started")

	for !c.stop.StopRequested() {
		cfg := c.ep.Cfg.Load()
		c.step(cfg)
		tick.Sleep(cfg.CtrlHz)
	}

	c.ep.LatestActionRequest.Store(gwmodel.Actions{})
	slog.Info("[CTRL] stopped (final action zeroed)")
}

// step runs exactly one control tick's worth of logic: drain sys-events,
// evaluate the watchdog, select an output by control mode, and publish
// it. Split out of Run so it can be exercised directly by tests without
// needing a running tick loop.
func (c *Controller) step(cfg config.RuntimeConfig) {
	state := c.ep.LatestState.LoadOrDefault()
	remoteCmd := c.ep.LatestRemoteCmd.LoadOrDefault()
	setpoint := c.ep.LatestSetpoint.LoadOrDefault()
	sys := c.ep.SysState.LoadOrDefault()
	sys.ControlMode = cfg.ControlMode
	// The TCP worker already strips event bits out of a command's
	// flags before publishing latest_remote_cmd, so whatever is left
	// there is exactly the steady continuous-flag state; mirror it
	// into SystemState so every mode's output (including the
	// force-zero branch below) reports the same continuous bits.
	sys.ContinuousFlags = remoteCmd.Flags

	c.ep.SysEventQ.Drain(maxSysEventsPerCycle, func(ev gwmodel.EventCmd) {
		if ev.Type != gwmodel.EventFlagRise {
			return
		}
		bitIdx := ev.Data[0]
		switch {
		case bitMatches(cfg.FlagStartBit, bitIdx):
			sys.Running = true
		case bitMatches(cfg.FlagStopBit, bitIdx):
			sys.Running = false
		case bitMatches(cfg.FlagResetBit, bitIdx):
			sys.Running = false
			remoteCmd = gwmodel.Actions{}
			setpoint = gwmodel.Setpoint{}
			c.ep.LatestRemoteCmd.Store(remoteCmd)
			c.ep.LatestSetpoint.Store(setpoint)
		}
	})

	cmdTimeoutActive := cfg.UsbTimeoutMode == config.Enforce &&
		c.commandIsStale(cfg, gwmodel.Now().MonoS)
	c.logTimeoutEdge(cmdTimeoutActive, cfg)

	out := gwmodel.Actions{Flags: sys.ContinuousFlags}
	switch {
	case !sys.Running || cmdTimeoutActive:
		// force-zero: out already zeroed above.
	case cfg.ControlMode == config.Autonomous:
		out = c.auto.Compute(state)
		out.BeepMs = 0
		out.Flags = sys.ContinuousFlags
	case cfg.ControlMode == config.AutonomousWithRemoteSetpoint:
		out = c.auto.ComputeWithSetpoint(state, setpoint)
		out.BeepMs = 0
		out.Flags = sys.ContinuousFlags
	default: // PassThroughCmd
		out = remoteCmd
		out.BeepMs = 0
		out.Flags = sys.ContinuousFlags
	}

	c.ep.SysState.Store(sys)
	c.ep.LatestActionRequest.Store(out)
}

func (c *Controller) commandIsStale(cfg config.RuntimeConfig, nowMono float64) bool {
	last := c.ep.LastCmdRxMonoS.Load()
	if last == 0 {
		return false
	}
	return (nowMono - last) > cfg.CmdTimeoutS
}

// logTimeoutEdge logs the watchdog transition at most once per state
// change, matching spec.md §4.4's "log transitions at <= 1 Hz" via an
// edge-triggered flag rather than a rate limiter (the controller only
// ticks at ctrl_hz, so repeated identical-state logging is the thing
// being suppressed, not a time-based rate).
func (c *Controller) logTimeoutEdge(active bool, cfg config.RuntimeConfig) {
	if active && !c.warnedTimeout {
		age := gwmodel.Now().MonoS - c.ep.LastCmdRxMonoS.Load()
		wd := &gwerrors.WatchdogTimeout{AgeSeconds: age, TimeoutSeconds: cfg.CmdTimeoutS}
		slog.Warn("[CTRL] action forced to zero", "error", wd)
	}
	c.warnedTimeout = active
}
