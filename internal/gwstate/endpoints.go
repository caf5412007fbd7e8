package gwstate

import (
	"sync/atomic"

	"robogateway/internal/config"
	"robogateway/internal/gwmodel"
	"robogateway/internal/ringbuf"
)

// UsbEndpoint is everything the USB worker touches: it owns the serial
// link, so it reads the action request and system state, and writes
// fresh sensor state plus its own sample rings.
type UsbEndpoint struct {
	Cfg *config.Store

	LatestActionRequest *ringbuf.LatestValue[gwmodel.Actions]
	SysState            *ringbuf.LatestValue[SystemState]
	LatestState         *ringbuf.LatestValue[gwmodel.States]

	HwEventQ   *ringbuf.SpscOverwrite[gwmodel.EventCmd]
	StateRing  *ringbuf.SpscOverwrite[StateSample]
	ActionRing *ringbuf.SpscOverwrite[ActionSample]
	EventRing  *ringbuf.SpscOverwrite[EventSample]

	LastCmdRxMonoS *AtomicF64
	SerialErrors   *atomic.Uint32
}

// UsbEndpoint builds the USB worker's view onto sh.
func (sh *SharedState) UsbEndpoint() UsbEndpoint {
	return UsbEndpoint{
		Cfg:                 sh.Cfg,
		LatestActionRequest: &sh.LatestActionRequest,
		SysState:            &sh.SysState,
		LatestState:         &sh.LatestState,
		HwEventQ:            sh.HwEventQ,
		StateRing:           sh.StateRing,
		ActionRing:          sh.ActionRing,
		EventRing:           sh.EventRing,
		LastCmdRxMonoS:      &sh.LastCmdRxMonoS,
		SerialErrors:        &sh.SerialErrors,
	}
}

// TcpEndpoint is everything the TCP worker touches: it broadcasts
// States to subscribers and decodes incoming CMD/SETPOINT/CONFIG/
// STATS_REQ frames from the command client.
type TcpEndpoint struct {
	Cfg *config.Store

	LatestState     *ringbuf.LatestValue[gwmodel.States]
	LatestRemoteCmd *ringbuf.LatestValue[gwmodel.Actions]
	LatestSetpoint  *ringbuf.LatestValue[gwmodel.Setpoint]
	SysState        *ringbuf.LatestValue[SystemState]

	HwEventQ  *ringbuf.SpscOverwrite[gwmodel.EventCmd]
	SysEventQ *ringbuf.SpscOverwrite[gwmodel.EventCmd]

	LastCmdRxMonoS *AtomicF64
	TcpFramesBad   *atomic.Uint32
	SerialErrors   *atomic.Uint32
	StartMonoS     float64

	StateRing    *ringbuf.SpscOverwrite[StateSample]
	ActionRing   *ringbuf.SpscOverwrite[ActionSample]
	EventRing    *ringbuf.SpscOverwrite[EventSample]
	SysEventRing *ringbuf.SpscOverwrite[EventSample]
}

// TcpEndpoint builds the TCP worker's view onto sh.
func (sh *SharedState) TcpEndpoint() TcpEndpoint {
	return TcpEndpoint{
		Cfg:             sh.Cfg,
		LatestState:     &sh.LatestState,
		LatestRemoteCmd: &sh.LatestRemoteCmd,
		LatestSetpoint:  &sh.LatestSetpoint,
		SysState:        &sh.SysState,
		HwEventQ:        sh.HwEventQ,
		SysEventQ:       sh.SysEventQ,
		LastCmdRxMonoS:  &sh.LastCmdRxMonoS,
		TcpFramesBad:    &sh.TcpFramesBad,
		SerialErrors:    &sh.SerialErrors,
		StartMonoS:      sh.StartMonoS,
		StateRing:       sh.StateRing,
		ActionRing:      sh.ActionRing,
		EventRing:       sh.EventRing,
		SysEventRing:    sh.SysEventRing,
	}
}

// ControllerEndpoint is everything the controller worker touches: reads
// sensor state plus remote command/setpoint, drains sys-events to
// toggle run state, and writes the final action request for USB.
type ControllerEndpoint struct {
	Cfg *config.Store

	LatestState     *ringbuf.LatestValue[gwmodel.States]
	LatestRemoteCmd *ringbuf.LatestValue[gwmodel.Actions]
	LatestSetpoint  *ringbuf.LatestValue[gwmodel.Setpoint]
	SysState        *ringbuf.LatestValue[SystemState]

	SysEventQ *ringbuf.SpscOverwrite[gwmodel.EventCmd]

	LatestActionRequest *ringbuf.LatestValue[gwmodel.Actions]
	LastCmdRxMonoS      *AtomicF64
}

// ControllerEndpoint builds the controller worker's view onto sh.
func (sh *SharedState) ControllerEndpoint() ControllerEndpoint {
	return ControllerEndpoint{
		Cfg:                 sh.Cfg,
		LatestState:         &sh.LatestState,
		LatestRemoteCmd:     &sh.LatestRemoteCmd,
		LatestSetpoint:      &sh.LatestSetpoint,
		SysState:            &sh.SysState,
		SysEventQ:           sh.SysEventQ,
		LatestActionRequest: &sh.LatestActionRequest,
		LastCmdRxMonoS:      &sh.LastCmdRxMonoS,
	}
}

// LogEndpoint is everything the Log worker touches: it only ever drains
// rings and reads drop counters, never writes shared latest-value state.
type LogEndpoint struct {
	Cfg *config.Store

	StateRing    *ringbuf.SpscOverwrite[StateSample]
	ActionRing   *ringbuf.SpscOverwrite[ActionSample]
	EventRing    *ringbuf.SpscOverwrite[EventSample]
	SysEventRing *ringbuf.SpscOverwrite[EventSample]

	HwEventQ  *ringbuf.SpscOverwrite[gwmodel.EventCmd]
	SysEventQ *ringbuf.SpscOverwrite[gwmodel.EventCmd]
}

// LogEndpoint builds the Log worker's view onto sh.
func (sh *SharedState) LogEndpoint() LogEndpoint {
	return LogEndpoint{
		Cfg:          sh.Cfg,
		StateRing:    sh.StateRing,
		ActionRing:   sh.ActionRing,
		EventRing:    sh.EventRing,
		SysEventRing: sh.SysEventRing,
		HwEventQ:     sh.HwEventQ,
		SysEventQ:    sh.SysEventQ,
	}
}
