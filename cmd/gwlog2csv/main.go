// Command gwlog2csv converts one rotating binary log file written by
// the gateway's log worker into three CSV files — one per record type
// — for offline plotting and inspection. Grounded on the original C++
// gateway's tools/ offline log readers, which walk the same fixed
// file/record header layout this repurposes internal/binlog to decode.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"robogateway/internal/binlog"
	"robogateway/internal/gwmodel"
	"robogateway/internal/pretty"
)

func main() {
	in := flag.String("in", "", "path to a .bin log file written by the gateway")
	outPrefix := flag.String("out", "", "output path prefix (default: input path without extension)")
	verbose := flag.Bool("verbose", false, "also print each record as a human-readable line")
	flag.Parse()

	if *in == "" {
		slog.Error("[gwlog2csv] -in is required")
		os.Exit(2)
	}
	prefix := *outPrefix
	if prefix == "" {
		prefix = strings.TrimSuffix(*in, ".bin")
	}

	if err := convert(*in, prefix, *verbose); err != nil {
		slog.Error("[gwlog2csv] conversion failed", "error", err)
		os.Exit(1)
	}
}

func convert(inPath, outPrefix string, verbose bool) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inPath, err)
	}
	defer f.Close()

	if _, err := binlog.ReadFileHeader(f); err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}

	state, err := newCSVWriter(outPrefix+"_state.csv", stateHeader)
	if err != nil {
		return err
	}
	defer state.Close()

	action, err := newCSVWriter(outPrefix+"_action.csv", actionHeader)
	if err != nil {
		return err
	}
	defer action.Close()

	event, err := newCSVWriter(outPrefix+"_event.csv", eventHeader)
	if err != nil {
		return err
	}
	defer event.Close()

	counts := map[binlog.RecordType]int{}
	for {
		h, payload, err := binlog.ReadRecord(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", inPath, err)
		}

		switch h.Type {
		case binlog.RecordState:
			ts, seq, st := binlog.DecodeStateSample(payload)
			if err := state.Write(stateRow(ts, seq, st)); err != nil {
				return err
			}
			if verbose {
				fmt.Println(pretty.State(ts, seq, st))
			}
		case binlog.RecordCmd:
			ts, seq, act := binlog.DecodeActionSample(payload)
			if err := action.Write(actionRow(ts, seq, act)); err != nil {
				return err
			}
			if verbose {
				fmt.Println(pretty.Action(ts, seq, act))
			}
		case binlog.RecordEvent:
			ts, ev := binlog.DecodeEventSample(payload)
			if err := event.Write(eventRow(ts, ev)); err != nil {
				return err
			}
			if verbose {
				fmt.Println(pretty.Event(ts, ev))
			}
		default:
			slog.Warn("[gwlog2csv] skipping unknown record type", "type", h.Type)
			continue
		}
		counts[h.Type]++
	}

	slog.Info("[gwlog2csv] done", "state", counts[binlog.RecordState],
		"action", counts[binlog.RecordCmd], "event", counts[binlog.RecordEvent])
	return nil
}

var (
	stateHeader = []string{
		"epoch_s", "mono_s", "seq",
		"acc_x", "acc_y", "acc_z",
		"gyro_x", "gyro_y", "gyro_z",
		"mag_x", "mag_y", "mag_z",
		"roll", "pitch", "yaw",
		"enc1", "enc2", "enc3", "enc4",
		"battery_v",
	}
	actionHeader = []string{"epoch_s", "mono_s", "seq", "m1", "m2", "m3", "m4", "beep_ms", "flags"}
	eventHeader  = []string{"epoch_s", "mono_s", "type", "seq", "data0", "data1", "data2", "data3", "aux_u32"}
)

func stateRow(ts gwmodel.Timestamps, seq uint32, st gwmodel.States) []string {
	return []string{
		f64(ts.EpochS), f64(ts.MonoS), u32(seq),
		f32(st.IMU.Acc.X), f32(st.IMU.Acc.Y), f32(st.IMU.Acc.Z),
		f32(st.IMU.Gyro.X), f32(st.IMU.Gyro.Y), f32(st.IMU.Gyro.Z),
		f32(st.IMU.Mag.X), f32(st.IMU.Mag.Y), f32(st.IMU.Mag.Z),
		f32(st.Angles.Roll), f32(st.Angles.Pitch), f32(st.Angles.Yaw),
		i32(st.Encoders.E1), i32(st.Encoders.E2), i32(st.Encoders.E3), i32(st.Encoders.E4),
		f32(st.BatteryVoltage),
	}
}

func actionRow(ts gwmodel.Timestamps, seq uint32, act gwmodel.Actions) []string {
	return []string{
		f64(ts.EpochS), f64(ts.MonoS), u32(seq),
		i16(act.Motors.M1), i16(act.Motors.M2), i16(act.Motors.M3), i16(act.Motors.M4),
		u8(act.BeepMs), u8(act.Flags),
	}
}

func eventRow(ts gwmodel.Timestamps, ev gwmodel.EventCmd) []string {
	return []string{
		f64(ts.EpochS), f64(ts.MonoS), u8(uint8(ev.Type)), u32(ev.Seq),
		u8(ev.Data[0]), u8(ev.Data[1]), u8(ev.Data[2]), u8(ev.Data[3]),
		u32(ev.AuxU32),
	}
}

func f64(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func f32(v float32) string { return strconv.FormatFloat(float64(v), 'f', -1, 32) }
func i32(v int32) string   { return strconv.FormatInt(int64(v), 10) }
func i16(v int16) string   { return strconv.FormatInt(int64(v), 10) }
func u32(v uint32) string  { return strconv.FormatUint(uint64(v), 10) }
func u8(v uint8) string    { return strconv.FormatUint(uint64(v), 10) }

// csvWriter wraps a *csv.Writer together with the file it owns, so
// callers get a single Close that flushes and checks for a trailing
// write error, per encoding/csv's own documented idiom.
type csvWriter struct {
	f *os.File
	w *csv.Writer
}

func newCSVWriter(path string, header []string) (*csvWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &csvWriter{f: f, w: w}, nil
}

func (c *csvWriter) Write(row []string) error {
	return c.w.Write(row)
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}
