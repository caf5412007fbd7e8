package workers

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"robogateway/internal/config"
	"robogateway/internal/gwerrors"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
	"robogateway/internal/stopflag"
	"robogateway/internal/wire"
)

// nonblockingReadDeadline is how long a per-tick connection read may
// block waiting for data before TCP gives up on it for this tick — the
// Go equivalent of the original's nonblocking sockets plus poll loop.
const nonblockingReadDeadline = 1 * time.Millisecond

// cmdRecvBufSize bounds a single per-tick read off the command socket.
const cmdRecvBufSize = 2048

// TCP runs the two listening sockets — STATE broadcast and CMD ingress —
// decodes incoming frames, routes them into the shared channels, and
// answers STATS_REQ. Grounded on tcp_worker.cpp.
type TCP struct {
	ep   gwstate.TcpEndpoint
	stop *stopflag.StopFlag

	stateListener net.Listener
	cmdListener   net.Listener

	stateAccept chan net.Conn
	cmdAccept   chan net.Conn

	stateClients []net.Conn
	cmdClient    net.Conn

	cmdFrx *wire.FrameRx

	lastCmdSeq   uint32
	lastCmdFlags uint8
	lastCmdSeen  bool

	lastSpSeq   uint32
	lastSpFlags uint8
	lastSpSeen  bool

	stateSeq uint32
	statsSeq uint32
}

// NewTCP builds a TCP worker over ep, stopping cooperatively on stop.
func NewTCP(ep gwstate.TcpEndpoint, stop *stopflag.StopFlag) *TCP {
	return &TCP{ep: ep, stop: stop, cmdFrx: wire.NewFrameRx()}
}

// Run listens, then loops at tcp_hz accepting clients, broadcasting
// STATE frames, and routing CMD-socket frames until stop is requested.
func (t *TCP) Run() {
	cfg := t.ep.Cfg.Load()

	t.stateListener, t.stateAccept = t.listenAndAccept(cfg.BindIP, cfg.StatePort, "state")
	t.cmdListener, t.cmdAccept = t.listenAndAccept(cfg.BindIP, cfg.CmdPort, "cmd")

	tick := newTicker()
	for !t.stop.StopRequested() {
		cfg = t.ep.Cfg.Load()
		t.tick(cfg)
		tick.Sleep(cfg.TcpHz)
	}

	t.closeAll()
	slog.Info("[TCP] worker exit")
}

// tick runs exactly one pass of accept/route/broadcast, split out of Run
// so tests can drive it directly without a running tick loop.
func (t *TCP) tick(cfg config.RuntimeConfig) {
	t.acceptNewClients()
	t.routeCmdSocket(cfg)
	t.broadcastState()
}

// listenAndAccept binds addr:port and, if successful, starts a
// background accept loop that feeds newly accepted connections into the
// returned channel. A bind failure is logged and reported as a nil
// listener — spec.md §4.4/§4.5 treats the TCP listeners as non-mandatory
// resources (unlike the serial link), so a failed bind does not stop the
// process.
func (t *TCP) listenAndAccept(bindIP string, port uint16, name string) (net.Listener, chan net.Conn) {
	addr := fmt.Sprintf("%s:%d", bindIP, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Warn("[TCP] failed to bind", "which", name, "addr", addr, "error", err)
		return nil, nil
	}
	slog.Info("[TCP] listening", "which", name, "addr", addr)

	ch := make(chan net.Conn, 8)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return // listener closed
			}
			ch <- conn
		}
	}()
	return ln, ch
}

func (t *TCP) acceptNewClients() {
	if t.stateAccept != nil {
		draining := true
		for draining {
			select {
			case c := <-t.stateAccept:
				t.stateClients = append(t.stateClients, c)
				slog.Info("[TCP] state client connected", "count", len(t.stateClients))
			default:
				draining = false
			}
		}
	}

	if t.cmdAccept == nil {
		return
	}
	select {
	case c := <-t.cmdAccept:
		if t.cmdClient != nil {
			_ = t.cmdClient.Close()
		}
		t.cmdClient = c
		t.cmdFrx = wire.NewFrameRx()
		slog.Info("[TCP] cmd client connected (replacing previous)")
	default:
	}
}

func (t *TCP) broadcastState() {
	st, ok := t.ep.LatestState.Load()
	if !ok || len(t.stateClients) == 0 {
		return
	}

	t.stateSeq++
	payload := wire.EncodeStates(wire.StatePayload{
		Seq:            t.stateSeq,
		TMonoS:         float32(gwmodel.Now().MonoS),
		Ax:             st.IMU.Acc.X, Ay: st.IMU.Acc.Y, Az: st.IMU.Acc.Z,
		Gx: st.IMU.Gyro.X, Gy: st.IMU.Gyro.Y, Gz: st.IMU.Gyro.Z,
		Mx: st.IMU.Mag.X, My: st.IMU.Mag.Y, Mz: st.IMU.Mag.Z,
		Roll: st.Angles.Roll, Pitch: st.Angles.Pitch, Yaw: st.Angles.Yaw,
		E1: st.Encoders.E1, E2: st.Encoders.E2, E3: st.Encoders.E3, E4: st.Encoders.E4,
		BatteryVoltage: st.BatteryVoltage,
	})
	frame := wire.Encode(wire.MsgState, payload)

	alive := t.stateClients[:0]
	for _, c := range t.stateClients {
		if err := writeAll(c, frame); err != nil {
			_ = c.Close()
			continue
		}
		alive = append(alive, c)
	}
	t.stateClients = alive
}

func (t *TCP) routeCmdSocket(cfg config.RuntimeConfig) {
	if t.cmdClient == nil {
		return
	}

	buf := make([]byte, cmdRecvBufSize)
	_ = t.cmdClient.SetReadDeadline(time.Now().Add(nonblockingReadDeadline))
	n, err := t.cmdClient.Read(buf)
	if n > 0 {
		t.cmdFrx.PushBytes(buf[:n])
	}
	if err != nil && !isTimeout(err) {
		peerErr := &gwerrors.NetworkPeerError{Remote: t.cmdClient.RemoteAddr().String(), Err: err}
		slog.Info("[TCP] cmd client disconnected", "error", peerErr)
		_ = t.cmdClient.Close()
		t.cmdClient = nil
	}

	for {
		msgType, payload, ok := t.cmdFrx.Pop()
		if !ok {
			break
		}
		t.dispatch(msgType, payload, cfg)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// badFrame counts a malformed or unrecognized frame and logs why.
func (t *TCP) badFrame(reason string) {
	t.ep.TcpFramesBad.Add(1)
	slog.Warn("[TCP] bad frame", "error", &gwerrors.ProtocolDecodeError{Reason: reason})
}

func (t *TCP) dispatch(msgType uint8, payload []byte, cfg config.RuntimeConfig) {
	nowMono := gwmodel.Now().MonoS

	switch msgType {
	case wire.MsgCmd:
		if len(payload) != wire.CmdPayloadSize {
			t.badFrame("cmd: wrong payload length")
			return
		}
		cp := wire.DecodeCmd(payload)
		t.ep.LastCmdRxMonoS.Store(nowMono)

		if !t.lastCmdSeen || cp.Seq != t.lastCmdSeq {
			if cp.BeepMs != 0 {
				t.pushHwBeepEvent(cp.Seq, cp.BeepMs)
				cp.BeepMs = 0
			}
			t.emitRisingEdges(cfg, cp.Seq, t.lastCmdFlags, cp.Flags)
			t.lastCmdSeq = cp.Seq
			t.lastCmdFlags = cp.Flags
			t.lastCmdSeen = true
		}

		continuous := cp.Flags &^ cfg.FlagEventMask
		t.ep.LatestRemoteCmd.Store(gwmodel.Actions{
			Motors: gwmodel.MotorCommands{M1: cp.M1, M2: cp.M2, M3: cp.M3, M4: cp.M4},
			BeepMs: 0,
			Flags:  continuous,
		})

	case wire.MsgSetpoint:
		if len(payload) != wire.SetpointPayloadSize {
			t.badFrame("setpoint: wrong payload length")
			return
		}
		sp := wire.DecodeSetpoint(payload)
		t.ep.LastCmdRxMonoS.Store(nowMono)

		if !t.lastSpSeen || sp.Seq != t.lastSpSeq {
			t.emitRisingEdges(cfg, sp.Seq, t.lastSpFlags, sp.Flags)
			t.lastSpSeq = sp.Seq
			t.lastSpFlags = sp.Flags
			t.lastSpSeen = true
		}
		t.ep.LatestSetpoint.Store(gwmodel.Setpoint{Seq: sp.Seq, SP: sp.SP, Flags: sp.Flags})

	case wire.MsgConfig:
		if len(payload) != wire.ConfigPayloadSize {
			t.badFrame("config: wrong payload length")
			return
		}
		cfp := wire.DecodeConfig(payload)
		t.applyConfig(cfp)

	case wire.MsgStatsReq:
		t.replyStats()

	default:
		t.badFrame(fmt.Sprintf("unknown message type %d", msgType))
	}
}

// emitRisingEdges computes rising = (~prev) & new & flag_event_mask and
// pushes one FLAG_RISE EventCmd per set bit, per spec.md §4.5.
func (t *TCP) emitRisingEdges(cfg config.RuntimeConfig, seq uint32, prevFlags, newFlags uint8) {
	rises := (^prevFlags) & newFlags & cfg.FlagEventMask
	if rises == 0 {
		return
	}
	for b := uint8(0); b < 8; b++ {
		if rises&(1<<b) == 0 {
			continue
		}
		ev := gwmodel.EventCmd{Type: gwmodel.EventFlagRise, Seq: seq, Data: [4]uint8{b, newFlags, 0, 0}}
		t.ep.SysEventQ.Push(ev)
		t.ep.SysEventRing.Push(gwstate.EventSample{TS: gwmodel.Now(), Ev: ev})
	}
}

func (t *TCP) pushHwBeepEvent(seq uint32, beepMs uint8) {
	t.ep.HwEventQ.Push(gwmodel.EventCmd{Type: gwmodel.EventBeep, Seq: seq, Data: [4]uint8{beepMs, 0, 0, 0}})
}

func (t *TCP) applyConfig(cfp wire.ConfigPayload) {
	applied := t.ep.Cfg.Swap(func(cur config.RuntimeConfig) config.RuntimeConfig {
		return config.ApplyConfigMessage(cur, gwmodel.ConfigMessage{
			Seq: cfp.Seq, Key: cfp.Key, U8: cfp.U8, U16: cfp.U16, U32: cfp.U32,
		})
	})
	t.warnIfClamped(cfp, applied)

	ev := gwmodel.EventCmd{Type: gwmodel.EventConfigApplied, Seq: cfp.Seq, Data: [4]uint8{cfp.Key, 0, 0, 0}}
	t.ep.SysEventQ.Push(ev)
	t.ep.SysEventRing.Push(gwstate.EventSample{TS: gwmodel.Now(), Ev: ev})
}

// configClampRanges mirrors the numeric bounds config.ApplyConfigMessage
// enforces per spec §6.4's key table, so a caller whose request was
// silently clamped can still be warned about it. CONFIG_APPLIED still
// fires either way — clamping is never a rejection.
var configClampRanges = map[uint8]struct {
	field  string
	lo, hi float64
}{
	1: {"usb_hz", 1, 2000},
	2: {"tcp_hz", 1, 2000},
	3: {"ctrl_hz", 1, 2000},
	4: {"cmd_timeout_s", 0.01, 5.0},
	6: {"log_rotate_mb", 1, 8192},
	7: {"log_rotate_keep", 1, 200},
}

func (t *TCP) warnIfClamped(cfp wire.ConfigPayload, applied config.RuntimeConfig) {
	r, ok := configClampRanges[cfp.Key]
	if !ok {
		return
	}

	var requested, got float64
	switch cfp.Key {
	case 1:
		requested, got = float64(cfp.U16), applied.UsbHz
	case 2:
		requested, got = float64(cfp.U16), applied.TcpHz
	case 3:
		requested, got = float64(cfp.U16), applied.CtrlHz
	case 4:
		requested, got = float64(cfp.U16)/1000.0, applied.CmdTimeoutS
	case 6:
		requested, got = float64(cfp.U16), float64(applied.LogRotateMB)
	case 7:
		requested, got = float64(cfp.U16), float64(applied.LogRotateKeep)
	}

	if requested != got {
		slog.Warn("[TCP] config value clamped",
			"error", &gwerrors.ConfigOutOfRange{Field: r.field, Got: requested, Lo: r.lo, Hi: r.hi})
	}
}

func (t *TCP) replyStats() {
	if t.cmdClient == nil {
		return
	}
	t.statsSeq++
	cfg := t.ep.Cfg.Load()
	uptimeMs := uint32((gwmodel.Now().MonoS - t.ep.StartMonoS) * 1000.0)

	payload := wire.EncodeStats(wire.StatsPayload{
		Seq:           t.statsSeq,
		UptimeMs:      uptimeMs,
		UsbHz:         float32(cfg.UsbHz),
		TcpHz:         float32(cfg.TcpHz),
		CtrlHz:        float32(cfg.CtrlHz),
		DropsState:    uint32(t.ep.StateRing.Drops()),
		DropsAction:   uint32(t.ep.ActionRing.Drops()),
		DropsEvent:    uint32(t.ep.EventRing.Drops()),
		DropsSysEvent: uint32(t.ep.SysEventRing.Drops()),
		TcpFramesBad:  t.ep.TcpFramesBad.Load(),
		SerialErrors:  t.ep.SerialErrors.Load(),
	})
	frame := wire.Encode(wire.MsgStatsResp, payload)
	if err := writeAll(t.cmdClient, frame); err != nil {
		_ = t.cmdClient.Close()
		t.cmdClient = nil
	}
}

func (t *TCP) closeAll() {
	for _, c := range t.stateClients {
		_ = c.Close()
	}
	if t.cmdClient != nil {
		_ = t.cmdClient.Close()
	}
	if t.stateListener != nil {
		_ = t.stateListener.Close()
	}
	if t.cmdListener != nil {
		_ = t.cmdListener.Close()
	}
}

// writeAll is a best-effort blocking write with a generous deadline — a
// wedged subscriber should not stall the whole tick loop, but a normal
// write must not be torn by the 1ms nonblocking-read deadline used
// elsewhere in this worker.
func writeAll(c net.Conn, b []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	_, err := c.Write(b)
	return err
}
