package m6502

import (
	"github.com/valerio/go-m6502/m6502/bit"
	"github.com/valerio/go-m6502/m6502/memory"
)

// Peripheral is the operation set every memory-mapped device exposes.
type Peripheral interface {
	HandlesAddress(address uint16) bool
	Read(address uint16) byte
	Write(address uint16, value byte)
	Tick()
	HasInterruptRequest() bool
}

// InterruptLine is the narrow CPU handle the bus keeps for IRQ delivery.
type InterruptLine interface {
	RequestIrq()
}

// Bus routes memory accesses and drives the peripheral clock. Reads and
// writes go to the first peripheral claiming the address (insertion order
// is priority), then to ROM where an image byte is present, then to RAM.
type Bus struct {
	ram *memory.RAM
	rom *memory.ROM

	peripherals []Peripheral
	// irqLines holds the last sampled IRQ line per peripheral so that
	// only rising edges reach the CPU.
	irqLines []bool

	cpu InterruptLine
}

// NewBus creates a bus over the given RAM and ROM.
func NewBus(ram *memory.RAM, rom *memory.ROM) *Bus {
	return &Bus{ram: ram, rom: rom}
}

// AddPeripheral appends a peripheral. Earlier peripherals win address
// arbitration.
func (b *Bus) AddPeripheral(p Peripheral) {
	b.peripherals = append(b.peripherals, p)
	b.irqLines = append(b.irqLines, false)
}

// SetCPU attaches the interrupt delivery handle.
func (b *Bus) SetCPU(cpu InterruptLine) {
	b.cpu = cpu
}

// Read returns the byte at the address, following arbitration order.
func (b *Bus) Read(address uint16) byte {
	for _, p := range b.peripherals {
		if p.HandlesAddress(address) {
			return p.Read(address)
		}
	}
	if b.rom.HandlesAddress(address) {
		return b.rom.Read(address)
	}
	return b.ram.Read(address)
}

// Write stores the byte at the address. Writes landing on a loaded ROM
// byte are silently dropped.
func (b *Bus) Write(address uint16, value byte) {
	for _, p := range b.peripherals {
		if p.HandlesAddress(address) {
			p.Write(address, value)
			return
		}
	}
	if b.rom.HandlesAddress(address) {
		return
	}
	b.ram.Write(address, value)
}

// ReadWord reads a little-endian word with two bus reads.
func (b *Bus) ReadWord(address uint16) uint16 {
	low := b.Read(address)
	high := b.Read(address + 1)
	return bit.Word(high, low)
}

// Tick advances every peripheral by one cycle, then samples each IRQ
// line. Only a low-to-high transition raises an IRQ on the CPU, so a
// device holding its line high interrupts once per edge rather than
// flooding.
func (b *Bus) Tick() {
	for i, p := range b.peripherals {
		p.Tick()
		line := p.HasInterruptRequest()
		if line && !b.irqLines[i] && b.cpu != nil {
			b.cpu.RequestIrq()
		}
		b.irqLines[i] = line
	}
}
