package cpu

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/valerio/go-m6502/m6502/addr"
	"github.com/valerio/go-m6502/m6502/bit"
)

// Bus provides the CPU's view of the system bus.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	ReadWord(address uint16) uint16
	Tick()
}

// historyDepth is the number of opcode fetch addresses kept for diagnostics.
const historyDepth = 10

// interruptCycles is the cost of taking reset, NMI or IRQ.
const interruptCycles = 7

// CPU is the main struct holding 6502 state.
type CPU struct {
	// registers
	a  uint8
	x  uint8
	y  uint8
	sp uint8
	pc uint16
	p  Status

	// cycleRemainder counts the cycles still owed for the instruction in
	// flight. A new fetch only happens when it reaches zero.
	cycleRemainder int
	cycles         uint64
	halted         bool
	running        atomic.Bool

	// interrupt latches
	resetPending bool
	nmiPending   bool
	irqPending   bool
	nmiLastState bool

	// ring of the last opcode fetch addresses, oldest first on unwind
	history    [historyDepth]uint16
	historyPos int
	historyLen int

	bus Bus
}

// New returns an initialized CPU instance attached to the given bus.
// The CPU comes up with a reset pending, so the first step after power-on
// performs the reset sequence.
func New(bus Bus) *CPU {
	cpu := &CPU{
		bus:          bus,
		sp:           0xFD,
		nmiLastState: true,
		resetPending: true,
	}
	cpu.p.unpack(uint8(FlagI))
	return cpu
}

// IllegalOpcodeError reports a fetched byte with no opcode record.
// It carries the fetch address and a short trail of recent fetches.
type IllegalOpcodeError struct {
	PC      uint16
	Opcode  uint8
	History []uint16
}

func (e *IllegalOpcodeError) Error() string {
	var trail strings.Builder
	for i, a := range e.History {
		if i > 0 {
			trail.WriteString(" ")
		}
		fmt.Fprintf(&trail, "%04X", a)
	}
	return fmt.Sprintf("illegal opcode 0x%02X at 0x%04X (recent fetches: %s)",
		e.Opcode, e.PC, trail.String())
}

// Step advances the clock by one cycle.
//
// If the instruction in flight still owes cycles, one is paid off. A
// halted CPU consumes the cycle and ticks the bus. Otherwise pending interrupts
// are sampled (reset, then NMI, then IRQ) and, if none fire, the next
// opcode is fetched and executed. The bus is ticked exactly once per step,
// strictly after CPU state has been mutated.
func (c *CPU) Step() error {
	// cycles owed by the instruction in flight were already charged by
	// charge, so remainder steps only pay them off
	if c.cycleRemainder > 0 {
		c.cycleRemainder--
		c.bus.Tick()
		return nil
	}

	if c.halted {
		if c.resetPending {
			c.handleReset()
		} else {
			c.cycles++
		}
		c.bus.Tick()
		return nil
	}

	var err error
	switch {
	case c.resetPending:
		c.handleReset()
	case c.nmiPending:
		c.handleNmi()
	case c.irqPending && !c.p.get(FlagI):
		c.handleIrq()
	default:
		err = c.execute()
	}

	c.bus.Tick()
	return err
}

// execute fetches, decodes and runs a single instruction, charging its
// cycle cost. Called only at an instruction boundary.
func (c *CPU) execute() error {
	fetchPC := c.pc
	c.recordFetch(fetchPC)

	opcodeByte := c.bus.Read(c.pc)
	c.pc++

	op := opcodes[opcodeByte]
	if op == nil {
		return &IllegalOpcodeError{
			PC:      fetchPC,
			Opcode:  opcodeByte,
			History: c.fetchHistory(),
		}
	}

	c.charge(op.exec(c, op))
	return nil
}

// ExecuteInstruction steps until the current instruction (or interrupt
// sequence) has fully completed, including all of its owed cycles.
func (c *CPU) ExecuteInstruction() error {
	if err := c.Step(); err != nil {
		return err
	}
	for c.cycleRemainder > 0 {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Run steps the CPU until Stop is called or a fatal error surfaces.
func (c *CPU) Run() error {
	c.running.Store(true)
	for c.running.Load() {
		if err := c.ExecuteInstruction(); err != nil {
			c.running.Store(false)
			return err
		}
	}
	return nil
}

// Stop makes Run return once the instruction in flight completes.
// Safe to call from another goroutine (e.g. a signal handler).
func (c *CPU) Stop() {
	c.running.Store(false)
}

// Running reports whether a Run loop is active.
func (c *CPU) Running() bool {
	return c.running.Load()
}

// Reset latches a reset request, serviced at the next instruction
// boundary (or immediately if the CPU is halted).
func (c *CPU) Reset() {
	c.resetPending = true
}

// RequestNmi asserts the NMI input. The request is edge triggered: it only
// latches when the line was previously released.
func (c *CPU) RequestNmi() {
	if c.nmiLastState {
		c.nmiPending = true
		c.nmiLastState = false
	}
}

// ReleaseNmi releases the NMI input, arming the next edge.
func (c *CPU) ReleaseNmi() {
	c.nmiLastState = true
}

// RequestIrq asserts the IRQ input. Level triggered; stays pending until
// serviced or released.
func (c *CPU) RequestIrq() {
	c.irqPending = true
}

// ReleaseIrq deasserts the IRQ input.
func (c *CPU) ReleaseIrq() {
	c.irqPending = false
}

// Halt suspends instruction fetch. Cycles still elapse.
func (c *CPU) Halt() {
	c.halted = true
}

// Resume clears the halted state.
func (c *CPU) Resume() {
	c.halted = false
}

// Halted reports whether the CPU is halted (by Halt or a JAM opcode).
func (c *CPU) Halted() bool {
	return c.halted
}

// PushByte pushes a byte onto the stack, decrementing SP.
func (c *CPU) PushByte(value uint8) {
	c.bus.Write(addr.StackPage+uint16(c.sp), value)
	c.sp--
}

// PullByte pulls a byte off the stack, incrementing SP.
func (c *CPU) PullByte() uint8 {
	c.sp++
	return c.bus.Read(addr.StackPage + uint16(c.sp))
}

// PushWord pushes a 16 bit value, high byte first.
func (c *CPU) PushWord(value uint16) {
	c.PushByte(bit.HighByte(value))
	c.PushByte(bit.LowByte(value))
}

// PullWord pulls a 16 bit value pushed by PushWord.
func (c *CPU) PullWord() uint16 {
	low := c.PullByte()
	high := c.PullByte()
	return bit.Word(high, low)
}

func (c *CPU) recordFetch(address uint16) {
	c.history[c.historyPos] = address
	c.historyPos = (c.historyPos + 1) % historyDepth
	if c.historyLen < historyDepth {
		c.historyLen++
	}
}

// fetchHistory returns the recent opcode fetch addresses, oldest first.
func (c *CPU) fetchHistory() []uint16 {
	out := make([]uint16, 0, c.historyLen)
	start := (c.historyPos - c.historyLen + historyDepth) % historyDepth
	for i := 0; i < c.historyLen; i++ {
		out = append(out, c.history[(start+i)%historyDepth])
	}
	return out
}

// Register and state accessors, mostly for the launcher and tests.

func (c *CPU) A() uint8        { return c.a }
func (c *CPU) X() uint8        { return c.x }
func (c *CPU) Y() uint8        { return c.y }
func (c *CPU) SP() uint8       { return c.sp }
func (c *CPU) PC() uint16      { return c.pc }
func (c *CPU) Cycles() uint64  { return c.cycles }
func (c *CPU) Status() Status  { return c.p }
func (c *CPU) SetPC(pc uint16) { c.pc = pc }

// JumpTo points execution at an address directly, discarding any pending
// reset. Launchers use it to start a loaded program without going through
// the reset sequence.
func (c *CPU) JumpTo(pc uint16) {
	c.pc = pc
	c.resetPending = false
}

// FlagString returns a human-readable representation of the status register.
func (c *CPU) FlagString() string {
	return c.p.String()
}
