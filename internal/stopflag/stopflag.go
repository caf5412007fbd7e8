// Package stopflag provides the gateway's single process-wide mutable: a
// cooperative stop signal every worker polls once per tick. Grounded on
// the original C++ gateway's gateway/stop_flag.hpp.
package stopflag

import "sync/atomic"

// StopFlag is safe for concurrent use. The zero value is "not stopped".
type StopFlag struct {
	stopped atomic.Bool
}

// New returns a fresh, unset StopFlag.
func New() *StopFlag {
	return &StopFlag{}
}

// RequestStop sets the flag. Idempotent. Callers are the supervisor, the
// USB worker (on a fatal serial error), and the SIGINT/SIGTERM handler
// that cmd/gateway installs through Supervisor.StopFlag; signal handling
// itself does not live in the supervisor package.
func (f *StopFlag) RequestStop() {
	f.stopped.Store(true)
}

// StopRequested reports whether RequestStop has been called.
func (f *StopFlag) StopRequested() bool {
	return f.stopped.Load()
}
