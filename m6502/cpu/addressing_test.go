package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSimpleModes(t *testing.T) {
	c, bus := newTestCPU(t)

	t.Run("implied returns zero", func(t *testing.T) {
		address, crossed := c.resolve(Implied)
		assert.Equal(t, uint16(0), address)
		assert.False(t, crossed)
	})

	t.Run("immediate points at the operand", func(t *testing.T) {
		c.pc = 0x8000
		address, _ := c.resolve(Immediate)
		assert.Equal(t, uint16(0x8000), address)
		assert.Equal(t, uint16(0x8001), c.pc)
	})

	t.Run("zero page", func(t *testing.T) {
		c.pc = 0x8000
		bus.mem[0x8000] = 0x42
		address, _ := c.resolve(ZeroPage)
		assert.Equal(t, uint16(0x0042), address)
	})

	t.Run("absolute is little endian", func(t *testing.T) {
		c.pc = 0x8000
		bus.load(0x8000, 0xCD, 0xAB)
		address, _ := c.resolve(Absolute)
		assert.Equal(t, uint16(0xABCD), address)
		assert.Equal(t, uint16(0x8002), c.pc)
	})

	t.Run("relative returns the raw offset byte", func(t *testing.T) {
		c.pc = 0x8000
		bus.mem[0x8000] = 0xFE
		offset, _ := c.resolve(Relative)
		assert.Equal(t, uint16(0x00FE), offset)
	})
}

func TestResolveIndexedModes(t *testing.T) {
	c, bus := newTestCPU(t)

	t.Run("zero page X wraps within the page", func(t *testing.T) {
		c.pc = 0x8000
		c.x = 0x10
		bus.mem[0x8000] = 0xFF
		address, _ := c.resolve(ZeroPageX)
		assert.Equal(t, uint16(0x000F), address)
	})

	t.Run("zero page Y wraps within the page", func(t *testing.T) {
		c.pc = 0x8000
		c.y = 0x02
		bus.mem[0x8000] = 0xFF
		address, _ := c.resolve(ZeroPageY)
		assert.Equal(t, uint16(0x0001), address)
	})

	t.Run("absolute X reports a page crossing", func(t *testing.T) {
		c.pc = 0x8000
		c.x = 0x01
		bus.load(0x8000, 0xFF, 0x20)
		address, crossed := c.resolve(AbsoluteX)
		assert.Equal(t, uint16(0x2100), address)
		assert.True(t, crossed)
	})

	t.Run("absolute Y without crossing", func(t *testing.T) {
		c.pc = 0x8000
		c.y = 0x01
		bus.load(0x8000, 0x00, 0x20)
		address, crossed := c.resolve(AbsoluteY)
		assert.Equal(t, uint16(0x2001), address)
		assert.False(t, crossed)
	})

	t.Run("absolute X wraps the address space", func(t *testing.T) {
		c.pc = 0x8000
		c.x = 0x02
		bus.load(0x8000, 0xFF, 0xFF)
		address, crossed := c.resolve(AbsoluteX)
		assert.Equal(t, uint16(0x0001), address)
		assert.True(t, crossed)
	})
}

func TestResolveIndirectModes(t *testing.T) {
	c, bus := newTestCPU(t)

	t.Run("indexed indirect reads the pointer from the zero page", func(t *testing.T) {
		c.pc = 0x8000
		c.x = 0x04
		bus.mem[0x8000] = 0x20
		bus.load(0x0024, 0x74, 0x20)
		address, _ := c.resolve(IndirectX)
		assert.Equal(t, uint16(0x2074), address)
	})

	t.Run("indexed indirect pointer wraps within the zero page", func(t *testing.T) {
		c.pc = 0x8000
		c.x = 0x01
		bus.mem[0x8000] = 0xFE
		bus.mem[0x00FF] = 0x34
		bus.mem[0x0000] = 0x12
		address, _ := c.resolve(IndirectX)
		assert.Equal(t, uint16(0x1234), address)
	})

	t.Run("indirect indexed adds Y after the pointer read", func(t *testing.T) {
		c.pc = 0x8000
		c.y = 0x10
		bus.mem[0x8000] = 0x86
		bus.load(0x0086, 0x28, 0x40)
		address, crossed := c.resolve(IndirectY)
		assert.Equal(t, uint16(0x4038), address)
		assert.False(t, crossed)
	})

	t.Run("indirect indexed reports a page crossing", func(t *testing.T) {
		c.pc = 0x8000
		c.y = 0x01
		bus.mem[0x8000] = 0x86
		bus.load(0x0086, 0xFF, 0x40)
		address, crossed := c.resolve(IndirectY)
		assert.Equal(t, uint16(0x4100), address)
		assert.True(t, crossed)
	})
}

func TestIndirectJmpPageWrapBug(t *testing.T) {
	c, bus := newTestCPU(t)

	// pointer at 0x30FF: low byte from 0x30FF, high byte from 0x3000
	bus.load(0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	bus.mem[0x30FF] = 0x40
	bus.mem[0x3100] = 0x99 // would be used without the bug
	bus.mem[0x3000] = 0x80

	require.NoError(t, c.ExecuteInstruction())
	assert.Equal(t, uint16(0x8040), c.pc)
}
