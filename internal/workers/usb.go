package workers

import (
	"context"
	"log/slog"
	"time"

	"robogateway/internal/boardlink"
	"robogateway/internal/config"
	"robogateway/internal/gwerrors"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
	"robogateway/internal/stopflag"
)

// maxHwEventsPerCycle bounds how many one-shot hardware events (beep) the
// USB worker applies per tick, per spec.md §4.4 step 5.
const maxHwEventsPerCycle = 8

// connectBackoffCap and connectBudget bound the startup reconnect state
// machine, per spec.md §4.4 step 1: {200ms, 400ms, 800ms, 1s, ... cap 1s}
// for up to ~5s total before giving up.
const (
	connectInitialBackoff = 200 * time.Millisecond
	connectBackoffCap     = 1 * time.Second
	connectBudget         = 5 * time.Second
)

// shutdownMotorZeroBursts and their spacing defend against the board
// having missed the very last zeroing write, per spec.md §4.4 Shutdown.
const (
	shutdownMotorZeroBursts  = 3
	shutdownMotorZeroSpacing = 10 * time.Millisecond
)

// USB is the only writer to the serial device and the only publisher of
// fresh States snapshots. Grounded on usb_worker.cpp.
type USB struct {
	ep   gwstate.UsbEndpoint
	stop *stopflag.StopFlag

	drv *boardlink.Driver

	warnedTimeout bool
	connectFailed bool
}

// ConnectFailed reports whether Run gave up connecting to the mandatory
// serial resource within its retry budget. Valid after Run returns;
// the supervisor uses it to pick the process's exit code.
func (u *USB) ConnectFailed() bool {
	return u.connectFailed
}

// NewUSB builds a USB worker over ep, stopping cooperatively on stop.
func NewUSB(ep gwstate.UsbEndpoint, stop *stopflag.StopFlag) *USB {
	return &USB{ep: ep, stop: stop}
}

// Run connects to the board (mandatory — requests process stop on
// failure), enables auto-report, then loops at usb_hz until stop is
// requested, finally defending against the last motor write being lost
// before disconnecting.
func (u *USB) Run() {
	cfg := u.ep.Cfg.Load()

	drv, err := u.connectWithBackoff(cfg)
	if err != nil {
		fatal := &gwerrors.FatalInit{Resource: cfg.SerialDev, Err: err}
		slog.Error("[USB] failed to connect, requesting stop", "error", fatal)
		u.connectFailed = true
		u.stop.RequestStop()
		return
	}
	u.drv = drv
	u.drv.Start()
	if err := u.drv.SetAutoReportState(true, false); err != nil {
		slog.Warn("[USB] failed to enable auto-report", "error", err)
	}

	slog.Info("[USB] started", "device", cfg.SerialDev, "baud", cfg.SerialBaud)

	tick := newTicker()
	var stateSeq, actionSeq uint32

	for !u.stop.StopRequested() {
		cfg = u.ep.Cfg.Load()

		act := u.ep.LatestActionRequest.LoadOrDefault()
		sys := u.ep.SysState.LoadOrDefault()

		cmdTimeoutActive := cfg.UsbTimeoutMode == config.Enforce && u.commandIsStale(cfg)
		u.logTimeoutEdge(cmdTimeoutActive, cfg)

		if !sys.Running || cmdTimeoutActive {
			act.Motors = gwmodel.MotorCommands{}
			act.BeepMs = 0
		}

		if err := u.drv.SetMotor(act.Motors.M1, act.Motors.M2, act.Motors.M3, act.Motors.M4); err != nil {
			u.ep.SerialErrors.Add(1)
			runtimeErr := &gwerrors.SerialRuntimeError{Op: "set_motor", Err: err}
			slog.Error("[USB] fatal serial write error, requesting stop", "error", runtimeErr)
			u.stop.RequestStop()
			break
		}

		u.ep.HwEventQ.Drain(maxHwEventsPerCycle, func(ev gwmodel.EventCmd) {
			if ev.Type == gwmodel.EventBeep {
				if err := u.drv.SetBeep(int(ev.Data[0])); err != nil {
					slog.Warn("[USB] beep write failed", "error", err)
				}
			}
			u.ep.EventRing.Push(gwstate.EventSample{TS: gwmodel.Now(), Ev: ev})
		})

		st := u.drv.State()
		u.ep.LatestState.Store(st)

		stateSeq++
		u.ep.StateRing.Push(gwstate.StateSample{TS: gwmodel.Now(), Seq: stateSeq, St: st})

		actionSeq++
		loggedAct := act
		loggedAct.BeepMs = 0
		u.ep.ActionRing.Push(gwstate.ActionSample{TS: gwmodel.Now(), Seq: actionSeq, Act: loggedAct})

		tick.Sleep(cfg.UsbHz)
	}

	u.shutdown()
}

func (u *USB) commandIsStale(cfg config.RuntimeConfig) bool {
	last := u.ep.LastCmdRxMonoS.Load()
	if last == 0 {
		return false
	}
	return (gwmodel.Now().MonoS - last) > cfg.CmdTimeoutS
}

func (u *USB) logTimeoutEdge(active bool, cfg config.RuntimeConfig) {
	if active && !u.warnedTimeout {
		age := gwmodel.Now().MonoS - u.ep.LastCmdRxMonoS.Load()
		wd := &gwerrors.WatchdogTimeout{AgeSeconds: age, TimeoutSeconds: cfg.CmdTimeoutS}
		slog.Warn("[USB] motors forced to zero", "error", wd)
	}
	u.warnedTimeout = active
}

// connectWithBackoff implements spec.md §4.4 step 1: exponential backoff
// {200ms, 400ms, 800ms, 1s, ... cap 1s}, bounded by connectBudget total,
// checking stop at every wait.
func (u *USB) connectWithBackoff(cfg config.RuntimeConfig) (*boardlink.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectBudget)
	defer cancel()

	backoff := connectInitialBackoff
	var lastErr error
	for {
		drv, err := boardlink.Open(cfg.SerialDev, cfg.SerialBaud)
		if err == nil {
			return drv, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, lastErr
		default:
		}
		if u.stop.StopRequested() {
			return nil, err
		}

		wait := backoff
		if remaining := time.Until(deadlineOf(ctx)); remaining < wait {
			wait = remaining
		}
		if wait <= 0 {
			return nil, lastErr
		}
		time.Sleep(wait)

		backoff *= 2
		if backoff > connectBackoffCap {
			backoff = connectBackoffCap
		}
	}
}

func deadlineOf(ctx context.Context) time.Time {
	d, ok := ctx.Deadline()
	if !ok {
		return time.Now().Add(connectBudget)
	}
	return d
}

// shutdown defends against the last motor-zero write being lost: it
// bursts a few zeroed writes with spacing, then stops the RX loop and
// disconnects. Per spec.md §4.4 Shutdown: "if the controller crashes,
// the wheels must not keep spinning."
func (u *USB) shutdown() {
	for i := 0; i < shutdownMotorZeroBursts; i++ {
		_ = u.drv.SetMotor(0, 0, 0, 0)
		time.Sleep(shutdownMotorZeroSpacing)
	}
	u.drv.Stop()
	if err := u.drv.Close(); err != nil {
		slog.Warn("[USB] close error", "error", err)
	}
	slog.Info("[USB] stopped (motors zeroed)")
}
