package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"robogateway/internal/config"
	"robogateway/internal/gwmodel"
	"robogateway/internal/gwstate"
	"robogateway/internal/supervisor"
)

// exit codes, per spec.md §6.1.
const (
	exitNormal          = 0
	exitMandatoryFail   = 1
	exitInvalidArgument = 2
)

// configFileFlag discovers --config_file ahead of the real flag pass:
// it names the optional YAML defaults layer, which must be loaded and
// applied *before* the rest of the CLI flags are parsed on top of it,
// so it cannot live in config.ParseFlags's own FlagSet.
func configFileFlag(args []string) (string, error) {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config_file", "", "optional YAML defaults file, applied under CLI flags")
	// Every other flag config.ParseFlags understands must still parse
	// cleanly in this first pass, or fs.Parse rejects the whole line.
	fs.String("serial", "", "")
	fs.Int("baud", 0, "")
	fs.String("bind_ip", "", "")
	fs.Uint("state_port", 0, "")
	fs.Uint("cmd_port", 0, "")
	fs.Float64("usb_hz", 0, "")
	fs.Float64("tcp_hz", 0, "")
	fs.Float64("ctrl_hz", 0, "")
	fs.Float64("hz", 0, "")
	fs.Float64("cmd_timeout", 0, "")
	fs.String("usb_timeout_mode", "", "")
	fs.String("control_mode", "", "")
	fs.Int("binary_log", -1, "")
	fs.String("log_path", "", "")
	fs.String("flag_event_mask", "", "")
	fs.Int("flag_start_bit", -2, "")
	fs.Int("flag_stop_bit", -2, "")
	fs.Int("flag_reset_bit", -2, "")
	fs.Bool("verbose", false, "")

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *path, nil
}

func run(args []string) int {
	cfgPath, err := configFileFlag(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitNormal
		}
		return exitInvalidArgument
	}

	cfg := config.Default()
	if cfgPath != "" {
		cfg, err = config.LoadDefaultsFile(cfgPath, cfg)
		if err != nil {
			slog.Error("[MAIN] failed to load config_file", "path", cfgPath, "error", err)
			return exitInvalidArgument
		}
	}

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.String("config_file", "", "optional YAML defaults file, applied under CLI flags")
	verbose := fs.Bool("verbose", false, "enable debug-level logging")

	cfg, err = config.ParseFlags(fs, args, cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitNormal
		}
		slog.Error("[MAIN] bad command line", "error", err)
		return exitInvalidArgument
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// The gateway writes to TCP sockets that peers can close at any
	// time; a write to one must surface as an error, not a process-wide
	// SIGPIPE.
	signal.Ignore(syscall.SIGPIPE)

	store := config.NewStore(cfg)
	sh := gwstate.New(store, gwmodel.Now().MonoS)

	sup := supervisor.New()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		slog.Info("[MAIN] signal received, stopping", "signal", s)
		sup.StopFlag().RequestStop()
	}()

	slog.Info("[MAIN] starting", "serial_dev", cfg.SerialDev, "bind_ip", cfg.BindIP)
	usbConnectFailed := sup.Run(sh)
	if usbConnectFailed {
		return exitMandatoryFail
	}
	return exitNormal
}

func main() {
	os.Exit(run(os.Args[1:]))
}
