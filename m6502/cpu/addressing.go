package cpu

import "github.com/valerio/go-m6502/m6502/bit"

// Mode is the addressing mode of an opcode.
type Mode uint8

const (
	Implied Mode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
	Relative
)

var modeNames = map[Mode]string{
	Implied:     "imp",
	Accumulator: "acc",
	Immediate:   "imm",
	ZeroPage:    "zp",
	ZeroPageX:   "zp,x",
	ZeroPageY:   "zp,y",
	Absolute:    "abs",
	AbsoluteX:   "abs,x",
	AbsoluteY:   "abs,y",
	Indirect:    "ind",
	IndirectX:   "(ind,x)",
	IndirectY:   "(ind),y",
	Relative:    "rel",
}

func (m Mode) String() string {
	return modeNames[m]
}

// fetch8 reads the byte at PC and advances past it.
func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

// fetch16 reads a little-endian word at PC and advances past it.
func (c *CPU) fetch16() uint16 {
	low := c.fetch8()
	high := c.fetch8()
	return bit.Word(high, low)
}

// readZeroPageWord reads a little-endian word from the zero page. The
// pointer wraps within the page, so a read at 0xFF takes its high byte
// from 0x00.
func (c *CPU) readZeroPageWord(zp uint8) uint16 {
	low := c.bus.Read(uint16(zp))
	high := c.bus.Read(uint16(zp + 1))
	return bit.Word(high, low)
}

// readWordPageWrap reads a little-endian word without carrying into the
// high address byte. This is the indirect JMP page-wrap bug: a pointer at
// 0xXXFF fetches its high byte from 0xXX00.
func (c *CPU) readWordPageWrap(address uint16) uint16 {
	low := c.bus.Read(address)
	next := address&0xFF00 | uint16(uint8(address)+1)
	high := c.bus.Read(next)
	return bit.Word(high, low)
}

// resolve computes the effective address for an addressing mode and
// advances PC past the operand bytes. The second return reports whether
// an indexed mode crossed a page, which costs read-type instructions an
// extra cycle.
//
// Relative returns the raw offset byte; sign extension is deferred to the
// branch instructions.
func (c *CPU) resolve(mode Mode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false
	case Immediate:
		address := c.pc
		c.pc++
		return address, false
	case ZeroPage:
		return uint16(c.fetch8()), false
	case ZeroPageX:
		return uint16(c.fetch8() + c.x), false
	case ZeroPageY:
		return uint16(c.fetch8() + c.y), false
	case Absolute:
		return c.fetch16(), false
	case AbsoluteX:
		base := c.fetch16()
		address := base + uint16(c.x)
		return address, !bit.SamePage(base, address)
	case AbsoluteY:
		base := c.fetch16()
		address := base + uint16(c.y)
		return address, !bit.SamePage(base, address)
	case Indirect:
		return c.readWordPageWrap(c.fetch16()), false
	case IndirectX:
		return c.readZeroPageWord(c.fetch8() + c.x), false
	case IndirectY:
		base := c.readZeroPageWord(c.fetch8())
		address := base + uint16(c.y)
		return address, !bit.SamePage(base, address)
	case Relative:
		return uint16(c.fetch8()), false
	}
	return 0, false
}
