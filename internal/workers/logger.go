package workers

import (
	"log/slog"
	"time"

	"robogateway/internal/binlog"
	"robogateway/internal/gwerrors"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
	"robogateway/internal/stopflag"
)

// logPollInterval and logBatchSize match spec.md §4.7's "short polling
// cadence (5 ms) with bounded batch size per pass (1024 each)".
const (
	logPollInterval = 5 * time.Millisecond
	logBatchSize    = 1024
)

// dropWarnInterval bounds how often drop-counter health lines are
// repeated, per log_worker.cpp's last_warn/1Hz gate.
const dropWarnInterval = 1 * time.Second

// Log drains every sample ring into the rotating binary log and reports
// drop counters at a low rate. Grounded on log_worker.cpp.
type Log struct {
	ep   gwstate.LogEndpoint
	stop *stopflag.StopFlag

	lastStateDrops, lastActionDrops, lastEventDrops, lastSysEventDrops uint64
	lastHwQDrops, lastSysQDrops                                       uint64
	lastWarn                                                          time.Time

	logPath string
}

// NewLog builds a Log worker over ep, stopping cooperatively on stop.
func NewLog(ep gwstate.LogEndpoint, stop *stopflag.StopFlag) *Log {
	return &Log{ep: ep, stop: stop}
}

// Run opens the rotating binary log (if enabled), then polls every
// logPollInterval until stop is requested. A failure to open the log is
// a DiskLogError, not fatal: logging is best-effort per spec.md §7.
func (l *Log) Run() {
	cfg := l.ep.Cfg.Load()
	l.logPath = cfg.LogPath

	var w *binlog.Rotating
	if cfg.BinaryLog {
		var err error
		w, err = binlog.OpenRotating(cfg.LogPath, uint64(cfg.LogRotateMB)*1024*1024, cfg.LogRotateKeep)
		if err != nil {
			slog.Warn("[LOG] failed to open binary log", "error", &gwerrors.DiskLogError{Path: cfg.LogPath, Err: err})
			w = nil
		} else {
			slog.Info("[LOG] binary logging", "path", cfg.LogPath)
		}
	}

	l.lastWarn = time.Now()

	for !l.stop.StopRequested() {
		l.drainAll(w)
		l.reportDrops()
		time.Sleep(logPollInterval)
	}

	// Final drain so nothing queued right before shutdown is lost.
	l.drainAll(w)
	if w != nil {
		if err := w.Close(); err != nil {
			slog.Warn("[LOG] close error", "error", err)
		}
	}
	slog.Info("[LOG] stopped")
}

func (l *Log) drainAll(w *binlog.Rotating) {
	if w == nil {
		// Still drain the rings even with logging disabled, so they
		// don't silently fill and start dropping samples nobody reads.
		l.ep.StateRing.Drain(logBatchSize, func(gwstate.StateSample) {})
		l.ep.ActionRing.Drain(logBatchSize, func(gwstate.ActionSample) {})
		l.ep.EventRing.Drain(logBatchSize, func(gwstate.EventSample) {})
		l.ep.SysEventRing.Drain(logBatchSize, func(gwstate.EventSample) {})
		return
	}

	l.ep.StateRing.Drain(logBatchSize, func(s gwstate.StateSample) {
		l.writeSample(w, binlog.RecordState, s.TS, binlog.EncodeStateSample(s.TS, s.Seq, s.St))
	})
	l.ep.ActionRing.Drain(logBatchSize, func(a gwstate.ActionSample) {
		l.writeSample(w, binlog.RecordCmd, a.TS, binlog.EncodeActionSample(a.TS, a.Seq, a.Act))
	})
	l.ep.EventRing.Drain(logBatchSize, func(e gwstate.EventSample) {
		l.writeSample(w, binlog.RecordEvent, e.TS, binlog.EncodeEventSample(e.TS, e.Ev))
	})
	// sys_event_ring is logged under the same EVENT record type, per
	// spec.md §4.7/§6.5's closed {STATE, CMD, EVENT} record type set.
	l.ep.SysEventRing.Drain(logBatchSize, func(e gwstate.EventSample) {
		l.writeSample(w, binlog.RecordEvent, e.TS, binlog.EncodeEventSample(e.TS, e.Ev))
	})
}

func (l *Log) writeSample(w *binlog.Rotating, t binlog.RecordType, ts gwmodel.Timestamps, payload []byte) {
	if err := w.WriteRecord(binlog.RecordHeader{Type: t, EpochS: ts.EpochS, MonoS: ts.MonoS}, payload); err != nil {
		diskErr := &gwerrors.DiskLogError{Path: l.logPath, Err: err}
		slog.Warn("[LOG] dropping record", "record_type", t, "error", diskErr)
	}
}

func (l *Log) reportDrops() {
	if time.Since(l.lastWarn) < dropWarnInterval {
		return
	}
	l.lastWarn = time.Now()

	sd := l.ep.StateRing.Drops()
	ad := l.ep.ActionRing.Drops()
	ed := l.ep.EventRing.Drops()
	xd := l.ep.SysEventRing.Drops()
	hq := l.ep.HwEventQ.Drops()
	sq := l.ep.SysEventQ.Drops()

	if sd != l.lastStateDrops {
		slog.Warn("[LOG] drop", "error", &gwerrors.ChannelOverflow{Ring: "state_ring"}, "drops", sd)
	}
	if ad != l.lastActionDrops {
		slog.Warn("[LOG] drop", "error", &gwerrors.ChannelOverflow{Ring: "action_ring"}, "drops", ad)
	}
	if ed != l.lastEventDrops {
		slog.Warn("[LOG] drop", "error", &gwerrors.ChannelOverflow{Ring: "event_ring"}, "drops", ed)
	}
	if xd != l.lastSysEventDrops {
		slog.Warn("[LOG] drop", "error", &gwerrors.ChannelOverflow{Ring: "sys_event_ring"}, "drops", xd)
	}
	if hq != l.lastHwQDrops {
		slog.Warn("[LOG] drop", "error", &gwerrors.ChannelOverflow{Ring: "hw_event_q"}, "drops", hq)
	}
	if sq != l.lastSysQDrops {
		slog.Warn("[LOG] drop", "error", &gwerrors.ChannelOverflow{Ring: "sys_event_q"}, "drops", sq)
	}

	l.lastStateDrops, l.lastActionDrops, l.lastEventDrops, l.lastSysEventDrops = sd, ad, ed, xd
	l.lastHwQDrops, l.lastSysQDrops = hq, sq
}
