package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-m6502/m6502"
	"github.com/valerio/go-m6502/m6502/backend"
	"github.com/valerio/go-m6502/m6502/backend/terminal"
	"github.com/valerio/go-m6502/m6502/cpu"
	"github.com/valerio/go-m6502/m6502/disasm"
	"github.com/valerio/go-m6502/m6502/serial"
	"github.com/valerio/go-m6502/m6502/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "m6502"
	app.Description = "A 6502 machine emulator"
	app.Usage = "m6502 [options] <binary file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the program binary",
		},
		cli.StringFlag{
			Name:  "load-address",
			Usage: "Load address for the binary (e.g. 0x0200)",
			Value: "0x0200",
		},
		cli.StringFlag{
			Name:  "rom-dir",
			Usage: "Directory of ROM image descriptors to overlay",
		},
		cli.BoolFlag{
			Name:  "vectors",
			Usage: "Strip a 6-byte vector trailer from the binary and install it at 0xFFFA",
		},
		cli.BoolFlag{
			Name:  "jump",
			Usage: "Jump straight to the load address instead of performing a reset",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a display",
		},
		cli.Uint64Flag{
			Name:  "cycles",
			Usage: "Number of cycles to run in headless mode (0 = until stopped)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "serial-console",
			Usage: "Bridge the ACIA to this terminal in raw mode",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	setupLogging(c.String("log-level"))

	romPath := c.String("rom")
	if romPath == "" && c.NArg() > 0 {
		romPath = c.Args().Get(0)
	}
	if romPath == "" && c.String("rom-dir") == "" {
		cli.ShowAppHelp(c)
		return errors.New("no binary or rom directory provided")
	}

	loadAddress, err := parseAddress(c.String("load-address"))
	if err != nil {
		return err
	}

	m := m6502.New()

	if dir := c.String("rom-dir"); dir != "" {
		if err := m.LoadROMDirectory(dir); err != nil {
			return err
		}
	}
	if romPath != "" {
		if err := m.LoadBinaryFile(romPath, loadAddress, c.Bool("vectors")); err != nil {
			return err
		}
	}

	if c.Bool("jump") {
		m.CPU.JumpTo(loadAddress)
	} else if romPath != "" {
		m.SetResetVector(loadAddress)
	}

	// Ctrl-C lands between instructions; the run loop winds down after
	// the slice in flight.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		m.Stop()
	}()

	switch {
	case c.Bool("headless"):
		err = runHeadless(m, c.Uint64("cycles"))
	case c.Bool("serial-console"):
		err = runSerialConsole(m)
	default:
		err = runTerminal(m)
	}
	return reportFatal(m, err)
}

// reportFatal adds a disassembled trail of the recent fetches to an
// illegal opcode crash before handing the error back.
func reportFatal(m *m6502.Machine, err error) error {
	var illegal *cpu.IllegalOpcodeError
	if !errors.As(err, &illegal) {
		return err
	}
	for _, pc := range illegal.History {
		slog.Error("trail", "instruction", disasm.DisassembleAt(pc, m.Bus).String())
	}
	return err
}

func runHeadless(m *m6502.Machine, cycles uint64) error {
	slog.Info("running headless", "cycles", cycles)

	// serial output still goes somewhere useful: one log line per line
	// of program output
	sink := serial.NewLogSink()
	m.AttachSerial(nil, sink)
	defer sink.Flush()

	if cycles > 0 {
		return m.RunFor(cycles)
	}
	return m.Run(timing.NewNoOpLimiter())
}

// runSerialConsole bridges the ACIA to the launcher's own terminal: raw
// mode in, direct write out.
func runSerialConsole(m *m6502.Machine) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("entering raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	}

	m.AttachSerial(os.Stdin, os.Stdout)
	defer m.ACIA.Detach()

	return m.Run(timing.NewAdaptiveLimiter())
}

// runTerminal drives the tcell display, feeding typed keys into the
// ACIA receive path.
func runTerminal(m *m6502.Machine) error {
	be := terminal.New()
	err := be.Init(backend.Config{
		Title:   "m6502",
		KeySink: m.ACIA.Receive,
	})
	if err != nil {
		return err
	}
	defer be.Cleanup()

	limiter := timing.NewAdaptiveLimiter()

	for {
		if err := m.RunFor(timing.CyclesPerSlice); err != nil {
			return err
		}
		event, err := be.Update(m.Frame, m.Frame.IsDirty(true))
		if err != nil {
			return err
		}
		if event == backend.EventQuit {
			return nil
		}
		limiter.WaitForNextSlice()
	}
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
}

func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint16(v), nil
}
