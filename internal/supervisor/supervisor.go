// Package supervisor owns the cooperative stop flag and the lifecycle of
// the gateway's four long-lived worker threads: it starts them, blocks
// the caller until a stop is requested (by a signal handler or by the
// USB worker's own mandatory-failure path), then joins them in a fixed
// order. Grounded on the original C++ gateway's app/gateway_main.cpp.
package supervisor

import (
	"log/slog"
	"time"

	"robogateway/internal/gwstate"
	"robogateway/internal/stopflag"
	"robogateway/internal/workers"
)

// pollInterval is how often the supervisor's wait loop checks the stop
// flag, matching gateway_main.cpp's 50ms main-thread poll.
const pollInterval = 50 * time.Millisecond

// Supervisor starts and stops the gateway's worker set over one
// SharedState. It is not reusable across Run calls.
type Supervisor struct {
	stop *stopflag.StopFlag
}

// New returns a Supervisor with a fresh, unset stop flag.
func New() *Supervisor {
	return &Supervisor{stop: stopflag.New()}
}

// StopFlag exposes the supervisor's stop flag so a signal handler (or
// any other external trigger) can request shutdown.
func (s *Supervisor) StopFlag() *stopflag.StopFlag {
	return s.stop
}

// Run starts the TCP, Controller, USB and Log workers over sh, blocks
// until stop is requested, then joins them in TCP, Controller, USB, Log
// order — the order the original gateway joins in, preserved here even
// though every worker is independently stop-aware and the join order no
// longer affects correctness. It reports whether the USB worker failed
// to acquire its mandatory serial resource, which the caller should
// treat as exit code 1.
func (s *Supervisor) Run(sh *gwstate.SharedState) (usbConnectFailed bool) {
	tcp := workers.NewTCP(sh.TcpEndpoint(), s.stop)
	ctrl := workers.NewController(sh.ControllerEndpoint(), s.stop)
	usb := workers.NewUSB(sh.UsbEndpoint(), s.stop)
	logWorker := workers.NewLog(sh.LogEndpoint(), s.stop)

	tcpDone := make(chan struct{})
	ctrlDone := make(chan struct{})
	usbDone := make(chan struct{})
	logDone := make(chan struct{})

	go func() { defer close(tcpDone); tcp.Run() }()
	go func() { defer close(ctrlDone); ctrl.Run() }()
	go func() { defer close(usbDone); usb.Run() }()
	go func() { defer close(logDone); logWorker.Run() }()

	slog.Info("[SUP] workers started")

	for !s.stop.StopRequested() {
		time.Sleep(pollInterval)
	}
	s.stop.RequestStop()

	<-tcpDone
	<-ctrlDone
	<-usbDone
	<-logDone

	slog.Info("[SUP] shutdown complete")
	return usb.ConnectFailed()
}
