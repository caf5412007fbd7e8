// Package gwstate holds SharedState: the single struct that owns every
// cross-worker channel, counter, and the atomically-swappable config
// pointer. Every worker gets a narrow, non-owning "endpoint" view onto
// SharedState instead of holding a back-reference to the whole thing —
// this keeps each worker's dependency surface limited to exactly the
// channels it reads or writes. Grounded on the original C++ gateway's
// app/workers/shared_state.hpp.
package gwstate

import (
	"math"
	"sync/atomic"

	"robogateway/internal/config"
	"robogateway/internal/gwmodel"
	"robogateway/internal/ringbuf"
)

// Ring capacities, matching shared_state.hpp's template parameters.
const (
	eventQCapacity      = 256
	stateRingCapacity   = 4096
	actionRingCapacity  = 2048
	eventRingCapacity   = 2048
	sysEventRingCapacity = 2048
)

// SystemState is the controller's coarse run/stop status plus the
// continuous flag bits currently in effect (event bits already
// stripped).
type SystemState struct {
	Running         bool
	ControlMode     config.ControlMode
	ContinuousFlags uint8
}

// StateSample, ActionSample and EventSample are the timestamped,
// sequenced records pushed into the Log worker's rings. Field order
// matches shared_state.hpp's StateSample/ActionSample/EventSample.
type StateSample struct {
	TS  gwmodel.Timestamps
	Seq uint32
	St  gwmodel.States
}

type ActionSample struct {
	TS  gwmodel.Timestamps
	Seq uint32
	Act gwmodel.Actions
}

type EventSample struct {
	TS gwmodel.Timestamps
	Ev gwmodel.EventCmd
}

// AtomicF64 is a float64 that can be loaded/stored atomically, backed by
// an atomic.Uint64 of its IEEE-754 bits — Go's sync/atomic has no native
// float64 type. Used for last_cmd_rx_mono_s, the watchdog's freshness
// clock, which the TCP worker writes and the USB worker reads every
// tick without taking a lock.
type AtomicF64 struct {
	bits atomic.Uint64
}

func (a *AtomicF64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }
func (a *AtomicF64) Load() float64   { return math.Float64frombits(a.bits.Load()) }

// SharedState is co-owned by every worker for the duration of a run. It
// is constructed once by the supervisor and never copied; workers only
// ever see it through an Endpoint.
type SharedState struct {
	Cfg *config.Store

	LatestState         ringbuf.LatestValue[gwmodel.States]
	LatestRemoteCmd      ringbuf.LatestValue[gwmodel.Actions]
	LatestSetpoint       ringbuf.LatestValue[gwmodel.Setpoint]
	LatestActionRequest  ringbuf.LatestValue[gwmodel.Actions]
	SysState             ringbuf.LatestValue[SystemState]

	LastCmdRxMonoS AtomicF64

	TcpFramesBad atomic.Uint32
	SerialErrors atomic.Uint32
	StartMonoS   float64

	HwEventQ *ringbuf.SpscOverwrite[gwmodel.EventCmd]
	SysEventQ *ringbuf.SpscOverwrite[gwmodel.EventCmd]

	StateRing    *ringbuf.SpscOverwrite[StateSample]
	ActionRing   *ringbuf.SpscOverwrite[ActionSample]
	EventRing    *ringbuf.SpscOverwrite[EventSample]
	SysEventRing *ringbuf.SpscOverwrite[EventSample]
}

// New builds a SharedState seeded with cfg and the given process-start
// monotonic time (in seconds, same clock as gwmodel.Now().MonoS).
func New(cfg *config.Store, startMonoS float64) *SharedState {
	sh := &SharedState{
		Cfg:        cfg,
		StartMonoS: startMonoS,
		HwEventQ:     ringbuf.NewSpscOverwrite[gwmodel.EventCmd](eventQCapacity),
		SysEventQ:    ringbuf.NewSpscOverwrite[gwmodel.EventCmd](eventQCapacity),
		StateRing:    ringbuf.NewSpscOverwrite[StateSample](stateRingCapacity),
		ActionRing:   ringbuf.NewSpscOverwrite[ActionSample](actionRingCapacity),
		EventRing:    ringbuf.NewSpscOverwrite[EventSample](eventRingCapacity),
		SysEventRing: ringbuf.NewSpscOverwrite[EventSample](sysEventRingCapacity),
	}
	sh.SysState.Store(SystemState{Running: false, ControlMode: cfg.Load().ControlMode})
	return sh
}
