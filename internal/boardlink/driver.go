package boardlink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"robogateway/internal/gwmodel"
)

// readTimeout bounds every blocking read on the port. It's kept short
// (well under the spec's <100ms requirement) so Stop can unwind the RX
// goroutine promptly even when the board has gone quiet.
const readTimeout = 50 * time.Millisecond

// cmdDelay is the post-write yield applied after every TX frame, per
// spec §4.3 ("a small post-write delay (cmd_delay, default 2 ms) yields
// the bus").
const cmdDelay = 2 * time.Millisecond

// Driver owns one open serial connection to the board: the RX goroutine
// that continuously parses incoming frames into a shared States
// snapshot, and the TX methods callers use to command the board. A
// Driver is safe for concurrent use by one TX caller and the internal RX
// goroutine; State() takes a short lock and returns a copy.
type Driver struct {
	port serial.Port

	mu    sync.Mutex
	state gwmodel.States
	ver   boardVersion

	evMu    sync.Mutex
	evCond  *sync.Cond
	evCount [256]uint32

	stopCh chan struct{}
	wg     sync.WaitGroup

	writeMu sync.Mutex
}

type boardVersion struct {
	high, low byte
	value     float32
}

// Open configures device as 8N1 with a short read timeout and returns a
// Driver ready to Start. It does not start the RX goroutine or enable
// auto-report — callers (normally the USB worker's connect state
// machine) do that explicitly so they control ordering.
func Open(device string, baud int) (*Driver, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
	}

	d := &Driver{
		port:   port,
		stopCh: make(chan struct{}),
	}
	d.evCond = sync.NewCond(&d.evMu)
	return d, nil
}

// Start launches the RX goroutine. Safe to call once per Driver.
func (d *Driver) Start() {
	d.wg.Add(1)
	go d.rxLoop()
}

// Stop signals the RX goroutine to exit and waits for it to return.
func (d *Driver) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// Close releases the underlying port. Call after Stop.
func (d *Driver) Close() error {
	return d.port.Close()
}

// State returns a snapshot of the most recently parsed sensor state.
func (d *Driver) State() gwmodel.States {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// AwaitType blocks until at least one frame of extType has been
// received after AwaitType was called, or timeout elapses. It reports
// whether a frame arrived. Grounded on rosmaster.cpp's wait_for, which
// backs the version-query request/response flow with a per-ext_type
// event counter and condition variable.
func (d *Driver) AwaitType(extType byte, timeout time.Duration) bool {
	d.evMu.Lock()
	defer d.evMu.Unlock()
	start := d.evCount[extType]

	deadline := time.Now().Add(timeout)
	for d.evCount[extType] == start {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timer := time.AfterFunc(remaining, func() {
			d.evMu.Lock()
			d.evCond.Broadcast()
			d.evMu.Unlock()
		})
		d.evCond.Wait()
		timer.Stop()
	}
	return true
}

// readExact fills buf completely, retrying short reads (including the
// read-timeout "got nothing yet" case, which go.bug.st/serial reports as
// n==0, err==nil) until it either succeeds, hits a real I/O error, or
// observes stopCh closed. This is what lets the RX loop poll for stop
// between header bytes even though each individual read blocks for up
// to readTimeout.
func (d *Driver) readExact(buf []byte) error {
	got := 0
	for got < len(buf) {
		select {
		case <-d.stopCh:
			return io.ErrClosedPipe
		default:
		}
		n, err := d.port.Read(buf[got:])
		got += n
		if err != nil {
			return err
		}
	}
	return nil
}
