package m6502

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/valerio/go-m6502/m6502/addr"
	"github.com/valerio/go-m6502/m6502/bit"
	"github.com/valerio/go-m6502/m6502/cpu"
	"github.com/valerio/go-m6502/m6502/memory"
	"github.com/valerio/go-m6502/m6502/serial"
	"github.com/valerio/go-m6502/m6502/timing"
	"github.com/valerio/go-m6502/m6502/via"
	"github.com/valerio/go-m6502/m6502/video"
)

// vectorTrailerSize is the length of the optional trailer at the end of a
// graphics binary: NMI, reset and IRQ vectors in that order.
const vectorTrailerSize = 6

// Machine composes the CPU, bus, memory and peripherals into a complete
// system. It owns every component; the bus and CPU only hold references.
type Machine struct {
	CPU   *cpu.CPU
	Bus   *Bus
	RAM   *memory.RAM
	ROM   *memory.ROM
	Frame *video.FrameBuffer
	ACIA  *serial.ACIA
	VIA   *via.VIA

	running atomic.Bool
}

type machineConfig struct {
	aciaBase uint16
	viaBase  uint16
	fbStart  uint16
	fbEnd    uint16
	withVIA  bool
}

// Option configures machine composition.
type Option func(*machineConfig)

// WithACIABase moves the ACIA register window (e.g. the keyboard variant
// at 0xC000).
func WithACIABase(base uint16) Option {
	return func(c *machineConfig) { c.aciaBase = base }
}

// WithVIABase moves the VIA register window.
func WithVIABase(base uint16) Option {
	return func(c *machineConfig) { c.viaBase = base }
}

// WithFramebufferRange overrides the framebuffer window.
func WithFramebufferRange(start, end uint16) Option {
	return func(c *machineConfig) { c.fbStart, c.fbEnd = start, end }
}

// WithoutVIA composes the machine without the timer peripheral.
func WithoutVIA() Option {
	return func(c *machineConfig) { c.withVIA = false }
}

// New builds a machine with the default memory map. Arbitration order is
// ACIA, VIA, framebuffer, then the ROM/RAM split.
func New(opts ...Option) *Machine {
	cfg := machineConfig{
		aciaBase: addr.ACIABase,
		viaBase:  addr.VIABase,
		fbStart:  addr.FramebufferStart,
		fbEnd:    addr.FramebufferEnd,
		withVIA:  true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Machine{
		RAM:   memory.NewRAM(),
		ROM:   memory.NewROM(),
		Frame: video.NewWithRange(cfg.fbStart, cfg.fbEnd),
		ACIA:  serial.New(cfg.aciaBase),
	}
	m.Bus = NewBus(m.RAM, m.ROM)
	m.Bus.AddPeripheral(m.ACIA)
	if cfg.withVIA {
		m.VIA = via.New(cfg.viaBase)
		m.Bus.AddPeripheral(m.VIA)
	}
	m.Bus.AddPeripheral(m.Frame)

	m.CPU = cpu.New(m.Bus)
	m.Bus.SetCPU(m.CPU)
	return m
}

// NewWithFile builds a machine and loads a raw program binary at the
// given address, setting the reset vector to the load address.
func NewWithFile(path string, loadAddress uint16, opts ...Option) (*Machine, error) {
	m := New(opts...)
	if err := m.LoadBinaryFile(path, loadAddress, false); err != nil {
		return nil, err
	}
	m.SetResetVector(loadAddress)
	return m, nil
}

// LoadProgram writes a raw program into memory through the bus starting
// at the load address. Bytes past the top of memory are truncated.
func (m *Machine) LoadProgram(data []byte, loadAddress uint16) {
	end := uint32(loadAddress) + uint32(len(data))
	if end > 0x10000 {
		slog.Warn("program truncated to end of memory",
			"load_address", fmt.Sprintf("0x%04X", loadAddress), "bytes", len(data))
		data = data[:0x10000-uint32(loadAddress)]
	}
	for i, v := range data {
		m.Bus.Write(loadAddress+uint16(i), v)
	}
}

// LoadProgramWithVectors strips the 6 byte vector trailer from a graphics
// binary, loads the remaining code and installs the vectors at
// 0xFFFA..0xFFFF.
func (m *Machine) LoadProgramWithVectors(data []byte, loadAddress uint16) error {
	if len(data) < vectorTrailerSize {
		return fmt.Errorf("binary too short for vector trailer: %d bytes", len(data))
	}
	code, trailer := data[:len(data)-vectorTrailerSize], data[len(data)-vectorTrailerSize:]
	m.LoadProgram(code, loadAddress)
	for i, v := range trailer {
		m.RAM.Write(addr.NMIVector+uint16(i), v)
	}
	return nil
}

// LoadBinaryFile loads a raw binary from disk. With withVectors set the
// trailing six bytes are installed as the hardware vectors.
func (m *Machine) LoadBinaryFile(path string, loadAddress uint16, withVectors bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if withVectors {
		return m.LoadProgramWithVectors(data, loadAddress)
	}
	m.LoadProgram(data, loadAddress)
	return nil
}

// LoadROMDirectory applies a directory of ROM image descriptors.
func (m *Machine) LoadROMDirectory(dir string) error {
	return m.ROM.LoadDirectory(dir)
}

// SetResetVector points the reset vector at the given address. The write
// goes to RAM, so a ROM image covering the vectors still wins.
func (m *Machine) SetResetVector(target uint16) {
	m.RAM.Write(addr.ResetVector, bit.LowByte(target))
	m.RAM.Write(addr.ResetVector+1, bit.HighByte(target))
}

// AttachSerial connects the ACIA to host streams.
func (m *Machine) AttachSerial(r io.Reader, w io.Writer) {
	m.ACIA.Attach(r, w)
}

// Reset requests a CPU reset, honoured at the next instruction boundary.
func (m *Machine) Reset() {
	m.CPU.Reset()
}

// Step advances the machine by one clock cycle.
func (m *Machine) Step() error {
	return m.CPU.Step()
}

// RunFor executes at least n cycles, stopping at the following
// instruction boundary.
func (m *Machine) RunFor(n uint64) error {
	target := m.CPU.Cycles() + n
	for m.CPU.Cycles() < target {
		if err := m.CPU.ExecuteInstruction(); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the clock in slices paced by the limiter until Stop is
// called or a fatal error (illegal opcode) surfaces.
func (m *Machine) Run(limiter timing.Limiter) error {
	m.running.Store(true)
	defer m.running.Store(false)
	for m.running.Load() {
		if err := m.RunFor(timing.CyclesPerSlice); err != nil {
			return err
		}
		limiter.WaitForNextSlice()
	}
	return nil
}

// Stop makes Run return after the slice in flight. Safe from other
// goroutines (signal handlers, UI).
func (m *Machine) Stop() {
	m.running.Store(false)
}
