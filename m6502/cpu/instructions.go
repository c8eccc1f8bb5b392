package cpu

import (
	"github.com/valerio/go-m6502/m6502/addr"
	"github.com/valerio/go-m6502/m6502/bit"
)

// Documented instruction handlers. Each receives its opcode record, applies
// the behaviour and returns the cycle count, including any page-crossing or
// branch-taken penalty on top of the base cycles.

// penalty converts a page-crossing indicator into its cycle cost.
func penalty(crossed bool) int {
	if crossed {
		return 1
	}
	return 0
}

// Load / store

func lda(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.a = c.bus.Read(address)
	c.p.updateZN(c.a)
	return op.cycles + penalty(crossed)
}

func ldx(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.x = c.bus.Read(address)
	c.p.updateZN(c.x)
	return op.cycles + penalty(crossed)
}

func ldy(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.y = c.bus.Read(address)
	c.p.updateZN(c.y)
	return op.cycles + penalty(crossed)
}

func sta(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.bus.Write(address, c.a)
	return op.cycles
}

func stx(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.bus.Write(address, c.x)
	return op.cycles
}

func sty(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.bus.Write(address, c.y)
	return op.cycles
}

// Transfers

func tax(c *CPU, op *opcode) int {
	c.x = c.a
	c.p.updateZN(c.x)
	return op.cycles
}

func tay(c *CPU, op *opcode) int {
	c.y = c.a
	c.p.updateZN(c.y)
	return op.cycles
}

func txa(c *CPU, op *opcode) int {
	c.a = c.x
	c.p.updateZN(c.a)
	return op.cycles
}

func tya(c *CPU, op *opcode) int {
	c.a = c.y
	c.p.updateZN(c.a)
	return op.cycles
}

func tsx(c *CPU, op *opcode) int {
	c.x = c.sp
	c.p.updateZN(c.x)
	return op.cycles
}

// TXS is the one transfer that leaves the flags alone.
func txs(c *CPU, op *opcode) int {
	c.sp = c.x
	return op.cycles
}

// Arithmetic

// adcValue adds memory and carry into the accumulator, dispatching on the
// decimal flag. Decimal mode follows NMOS flag semantics: Z comes from the
// binary sum, N and V from the intermediate result before the high nibble
// adjust.
func (c *CPU) adcValue(m uint8) {
	if c.p.get(FlagD) {
		c.adcDecimal(m)
		return
	}

	sum := uint16(c.a) + uint16(m) + uint16(c.p.carry())
	result := uint8(sum)
	c.p.set(FlagC, sum > 0xFF)
	c.p.set(FlagV, (c.a^result)&(m^result)&0x80 != 0)
	c.a = result
	c.p.updateZN(c.a)
}

func (c *CPU) adcDecimal(m uint8) {
	carry := uint16(c.p.carry())
	a := c.a

	binary := uint16(a) + uint16(m) + carry
	c.p.set(FlagZ, uint8(binary) == 0)

	lo := uint16(a&0x0F) + uint16(m&0x0F) + carry
	if lo > 9 {
		lo += 6
	}
	hi := uint16(a>>4) + uint16(m>>4)
	if lo > 0x0F {
		hi++
	}

	intermediate := uint8(hi<<4) | uint8(lo&0x0F)
	c.p.set(FlagN, intermediate&0x80 != 0)
	c.p.set(FlagV, (a^intermediate)&(m^intermediate)&0x80 != 0)

	if hi > 9 {
		hi += 6
	}
	c.p.set(FlagC, hi > 0x0F)
	c.a = uint8(hi<<4) | uint8(lo&0x0F)
}

// sbcValue subtracts memory and borrow from the accumulator. In binary
// mode it is an ADC of the one's complement; decimal mode adjusts both
// nibbles and derives every flag from the binary difference.
func (c *CPU) sbcValue(m uint8) {
	if c.p.get(FlagD) {
		c.sbcDecimal(m)
		return
	}
	c.adcValue(^m)
}

func (c *CPU) sbcDecimal(m uint8) {
	borrow := int(1 - c.p.carry())
	a := c.a

	diff := int(a) - int(m) - borrow
	lo := int(a&0x0F) - int(m&0x0F) - borrow
	hi := int(a>>4) - int(m>>4)
	if lo < 0 {
		lo -= 6
		hi--
	}
	if hi < 0 {
		hi -= 6
	}

	result := uint8(diff)
	c.p.set(FlagC, diff >= 0)
	c.p.set(FlagZ, result == 0)
	c.p.set(FlagN, result&0x80 != 0)
	c.p.set(FlagV, (a^m)&(a^result)&0x80 != 0)
	c.a = uint8(hi<<4) | uint8(lo&0x0F)
}

func adc(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.adcValue(c.bus.Read(address))
	return op.cycles + penalty(crossed)
}

func sbc(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.sbcValue(c.bus.Read(address))
	return op.cycles + penalty(crossed)
}

// compare sets C when the register is >= memory, Z on equality and N from
// bit 7 of the difference.
func (c *CPU) compare(register, m uint8) {
	c.p.set(FlagC, register >= m)
	c.p.updateZN(register - m)
}

func cmp(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.compare(c.a, c.bus.Read(address))
	return op.cycles + penalty(crossed)
}

func cpx(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.compare(c.x, c.bus.Read(address))
	return op.cycles
}

func cpy(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.compare(c.y, c.bus.Read(address))
	return op.cycles
}

// Logic

func and(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.a &= c.bus.Read(address)
	c.p.updateZN(c.a)
	return op.cycles + penalty(crossed)
}

func ora(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.a |= c.bus.Read(address)
	c.p.updateZN(c.a)
	return op.cycles + penalty(crossed)
}

func eor(c *CPU, op *opcode) int {
	address, crossed := c.resolve(op.mode)
	c.a ^= c.bus.Read(address)
	c.p.updateZN(c.a)
	return op.cycles + penalty(crossed)
}

// bitTest copies memory bits 7 and 6 into N and V and sets Z from the
// masked accumulator. The accumulator itself is untouched.
func bitTest(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	m := c.bus.Read(address)
	c.p.set(FlagN, m&0x80 != 0)
	c.p.set(FlagV, m&0x40 != 0)
	c.p.set(FlagZ, c.a&m == 0)
	return op.cycles
}

// Shifts and rotates. Each has an accumulator form and a memory
// read-modify-write form; the value helpers hold the flag logic.

func (c *CPU) aslValue(v uint8) uint8 {
	c.p.set(FlagC, v&0x80 != 0)
	result := v << 1
	c.p.updateZN(result)
	return result
}

func (c *CPU) lsrValue(v uint8) uint8 {
	c.p.set(FlagC, v&0x01 != 0)
	result := v >> 1
	c.p.updateZN(result)
	return result
}

func (c *CPU) rolValue(v uint8) uint8 {
	carryIn := c.p.carry()
	c.p.set(FlagC, v&0x80 != 0)
	result := v<<1 | carryIn
	c.p.updateZN(result)
	return result
}

func (c *CPU) rorValue(v uint8) uint8 {
	carryIn := c.p.carry()
	c.p.set(FlagC, v&0x01 != 0)
	result := v>>1 | carryIn<<7
	c.p.updateZN(result)
	return result
}

// rmw applies a read-modify-write operation to the opcode's target, which
// is either the accumulator or a memory location.
func rmw(c *CPU, op *opcode, apply func(*CPU, uint8) uint8) int {
	if op.mode == Accumulator {
		c.a = apply(c, c.a)
		return op.cycles
	}
	address, _ := c.resolve(op.mode)
	c.bus.Write(address, apply(c, c.bus.Read(address)))
	return op.cycles
}

func asl(c *CPU, op *opcode) int { return rmw(c, op, (*CPU).aslValue) }
func lsr(c *CPU, op *opcode) int { return rmw(c, op, (*CPU).lsrValue) }
func rol(c *CPU, op *opcode) int { return rmw(c, op, (*CPU).rolValue) }
func ror(c *CPU, op *opcode) int { return rmw(c, op, (*CPU).rorValue) }

// Increments and decrements

func inc(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	result := c.bus.Read(address) + 1
	c.bus.Write(address, result)
	c.p.updateZN(result)
	return op.cycles
}

func dec(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	result := c.bus.Read(address) - 1
	c.bus.Write(address, result)
	c.p.updateZN(result)
	return op.cycles
}

func inx(c *CPU, op *opcode) int {
	c.x++
	c.p.updateZN(c.x)
	return op.cycles
}

func dex(c *CPU, op *opcode) int {
	c.x--
	c.p.updateZN(c.x)
	return op.cycles
}

func iny(c *CPU, op *opcode) int {
	c.y++
	c.p.updateZN(c.y)
	return op.cycles
}

func dey(c *CPU, op *opcode) int {
	c.y--
	c.p.updateZN(c.y)
	return op.cycles
}

// Branches. The relative operand is fetched raw and sign extended here.
// Taking the branch costs one extra cycle, landing on a new page a second.

func branch(c *CPU, op *opcode, taken bool) int {
	offset, _ := c.resolve(op.mode)
	if !taken {
		return op.cycles
	}
	origin := c.pc
	c.pc = origin + uint16(int8(uint8(offset)))
	cycles := op.cycles + 1
	if !bit.SamePage(origin, c.pc) {
		cycles++
	}
	return cycles
}

func beq(c *CPU, op *opcode) int { return branch(c, op, c.p.get(FlagZ)) }
func bne(c *CPU, op *opcode) int { return branch(c, op, !c.p.get(FlagZ)) }
func bcs(c *CPU, op *opcode) int { return branch(c, op, c.p.get(FlagC)) }
func bcc(c *CPU, op *opcode) int { return branch(c, op, !c.p.get(FlagC)) }
func bmi(c *CPU, op *opcode) int { return branch(c, op, c.p.get(FlagN)) }
func bpl(c *CPU, op *opcode) int { return branch(c, op, !c.p.get(FlagN)) }
func bvs(c *CPU, op *opcode) int { return branch(c, op, c.p.get(FlagV)) }
func bvc(c *CPU, op *opcode) int { return branch(c, op, !c.p.get(FlagV)) }

// Control flow

func jmp(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.pc = address
	return op.cycles
}

// jsr pushes the address of its own last operand byte (PC-1); RTS adds
// one back.
func jsr(c *CPU, op *opcode) int {
	address, _ := c.resolve(op.mode)
	c.PushWord(c.pc - 1)
	c.pc = address
	return op.cycles
}

func rts(c *CPU, op *opcode) int {
	c.pc = c.PullWord() + 1
	return op.cycles
}

// Stack

func pha(c *CPU, op *opcode) int {
	c.PushByte(c.a)
	return op.cycles
}

// php pushes the status byte with B and the unused bit forced to 1.
func php(c *CPU, op *opcode) int {
	c.PushByte(c.p.pack() | uint8(FlagB))
	return op.cycles
}

func pla(c *CPU, op *opcode) int {
	c.a = c.PullByte()
	c.p.updateZN(c.a)
	return op.cycles
}

// plp restores the status register, ignoring the pushed B bit.
func plp(c *CPU, op *opcode) int {
	c.restoreStatus(c.PullByte())
	return op.cycles
}

// restoreStatus loads a pulled status byte, preserving the live B bit and
// forcing the unused bit to 1.
func (c *CPU) restoreStatus(value uint8) {
	b := uint8(c.p) & uint8(FlagB)
	c.p.unpack(value&^uint8(FlagB) | b)
}

// Flag operations

func clc(c *CPU, op *opcode) int { c.p.set(FlagC, false); return op.cycles }
func sec(c *CPU, op *opcode) int { c.p.set(FlagC, true); return op.cycles }
func cli(c *CPU, op *opcode) int { c.p.set(FlagI, false); return op.cycles }
func sei(c *CPU, op *opcode) int { c.p.set(FlagI, true); return op.cycles }
func cld(c *CPU, op *opcode) int { c.p.set(FlagD, false); return op.cycles }
func sed(c *CPU, op *opcode) int { c.p.set(FlagD, true); return op.cycles }
func clv(c *CPU, op *opcode) int { c.p.set(FlagV, false); return op.cycles }

// Interrupt instructions

// brk skips a dummy operand byte, pushes PC and the status with B set,
// then vectors through the IRQ vector with interrupts disabled.
func brk(c *CPU, op *opcode) int {
	c.pc++
	c.PushWord(c.pc)
	c.PushByte(c.p.pack() | uint8(FlagB))
	c.p.set(FlagI, true)
	c.pc = c.bus.ReadWord(addr.IRQVector)
	return op.cycles
}

// rti restores status (ignoring B) then PC. Unlike RTS nothing is added
// to the pulled address.
func rti(c *CPU, op *opcode) int {
	c.restoreStatus(c.PullByte())
	c.pc = c.PullWord()
	return op.cycles
}

// nop consumes its operand bytes, if any. The multi-byte variants are
// illegal opcodes; the read-type absolute,X forms still pay the
// page-crossing penalty.
func nop(c *CPU, op *opcode) int {
	_, crossed := c.resolve(op.mode)
	return op.cycles + penalty(crossed)
}
