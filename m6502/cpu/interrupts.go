package cpu

import "github.com/valerio/go-m6502/m6502/addr"

// Interrupt sequences. Priority (reset > NMI > IRQ) is encoded in the
// sampling order in Step; each handler charges the 7 cycle interrupt cost.

// handleReset performs the reset sequence. Nothing is pushed: the stack
// pointer drops by 3 as on real silicon, registers clear, and execution
// resumes from the reset vector. All pending latches are discarded.
func (c *CPU) handleReset() {
	c.sp -= 3
	c.a = 0
	c.x = 0
	c.y = 0
	c.p.unpack(uint8(FlagI))
	c.pc = c.bus.ReadWord(addr.ResetVector)
	c.halted = false
	c.resetPending = false
	c.nmiPending = false
	c.irqPending = false
	c.charge(interruptCycles)
}

// handleNmi pushes PC and status (B clear) and vectors through 0xFFFA.
func (c *CPU) handleNmi() {
	c.PushWord(c.pc)
	c.PushByte(c.p.pack() &^ uint8(FlagB))
	c.p.set(FlagI, true)
	c.pc = c.bus.ReadWord(addr.NMIVector)
	c.nmiPending = false
	c.charge(interruptCycles)
}

// handleIrq pushes PC and status (B clear) and vectors through 0xFFFE.
func (c *CPU) handleIrq() {
	c.PushWord(c.pc)
	c.PushByte(c.p.pack() &^ uint8(FlagB))
	c.p.set(FlagI, true)
	c.pc = c.bus.ReadWord(addr.IRQVector)
	c.irqPending = false
	c.charge(interruptCycles)
}

// charge accounts an n cycle operation at an instruction boundary: the
// current step consumes one cycle, the rest become the remainder.
func (c *CPU) charge(n int) {
	c.cycles += uint64(n)
	c.cycleRemainder = n - 1
}
