package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Decimal mode follows the NMOS variant: ADC derives Z from the binary
// sum and N/V from the intermediate result; SBC derives every flag from
// the binary difference.

func TestAdcDecimal(t *testing.T) {
	tests := []struct {
		name    string
		a, m    uint8
		carryIn bool
		want    uint8
		wantC   bool
	}{
		{"09 plus 01", 0x09, 0x01, false, 0x10, false},
		{"99 plus 01 carries", 0x99, 0x01, false, 0x00, true},
		{"simple bcd", 0x12, 0x34, false, 0x46, false},
		{"carry in", 0x58, 0x46, true, 0x05, true},
		{"79 plus 14", 0x79, 0x14, false, 0x93, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := newTestCPU(t)
			bus.load(0x8000, 0x69, tt.m)
			c.p.set(FlagD, true)
			c.p.set(FlagC, tt.carryIn)
			c.a = tt.a
			execCycles(t, c)
			assert.Equal(t, tt.want, c.a)
			assert.Equal(t, tt.wantC, c.p.get(FlagC), "carry")
		})
	}
}

func TestAdcDecimalZeroFlagFromBinarySum(t *testing.T) {
	// 0x99 + 0x01 = binary 0x9A, so Z stays clear even though the BCD
	// result is 0x00
	c, bus := newTestCPU(t)
	bus.load(0x8000, 0x69, 0x01)
	c.p.set(FlagD, true)
	c.a = 0x99
	execCycles(t, c)
	assert.Equal(t, uint8(0x00), c.a)
	assert.False(t, c.p.get(FlagZ))
}

func TestSbcDecimal(t *testing.T) {
	tests := []struct {
		name    string
		a, m    uint8
		carryIn bool
		want    uint8
		wantC   bool
	}{
		{"simple bcd", 0x46, 0x12, true, 0x34, true},
		{"borrow across digit", 0x40, 0x01, true, 0x39, true},
		{"borrow in", 0x32, 0x02, false, 0x29, true},
		{"underflow wraps", 0x00, 0x01, true, 0x99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := newTestCPU(t)
			bus.load(0x8000, 0xE9, tt.m)
			c.p.set(FlagD, true)
			c.p.set(FlagC, tt.carryIn)
			c.a = tt.a
			execCycles(t, c)
			assert.Equal(t, tt.want, c.a)
			assert.Equal(t, tt.wantC, c.p.get(FlagC), "carry")
		})
	}
}
