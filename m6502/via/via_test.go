package via

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-m6502/m6502/addr"
)

const base = addr.VIABase

func tick(v *VIA, n int) {
	for i := 0; i < n; i++ {
		v.Tick()
	}
}

func TestHandlesAddressWindow(t *testing.T) {
	v := NewDefault()
	assert.True(t, v.HandlesAddress(base))
	assert.True(t, v.HandlesAddress(base+15))
	assert.False(t, v.HandlesAddress(base+16))
}

func TestPortLatches(t *testing.T) {
	v := NewDefault()
	v.Write(base+regORA, 0x5A)
	v.Write(base+regORB, 0xA5)
	v.Write(base+regDDRA, 0xFF)
	assert.Equal(t, byte(0x5A), v.Read(base+regORA))
	assert.Equal(t, byte(0xA5), v.Read(base+regORB))
	assert.Equal(t, byte(0xFF), v.Read(base+regDDRA))
}

func TestTimer1OneShot(t *testing.T) {
	v := NewDefault()
	v.Write(base+regT1CL, 10)
	v.Write(base+regT1CH, 0) // start: counts down from 10

	tick(v, 10)
	assert.Zero(t, v.Read(base+regIFR)&FlagT1, "not expired yet")

	v.Tick()
	assert.NotZero(t, v.Read(base+regIFR)&FlagT1, "flag set on underflow")

	// one-shot: the flag does not come back after another full period
	v.Write(base+regIFR, FlagT1)
	tick(v, 20)
	assert.Zero(t, v.Read(base+regIFR)&FlagT1)
}

func TestTimer1Continuous(t *testing.T) {
	v := NewDefault()
	v.Write(base+regACR, acrT1Continuous)
	v.Write(base+regT1CL, 4)
	v.Write(base+regT1CH, 0)

	tick(v, 5)
	assert.NotZero(t, v.Read(base+regIFR)&FlagT1)

	v.Write(base+regIFR, FlagT1) // acknowledge
	tick(v, 5)
	assert.NotZero(t, v.Read(base+regIFR)&FlagT1, "reloads from the latch and fires again")
}

func TestTimer2OneShot(t *testing.T) {
	v := NewDefault()
	v.Write(base+regT2CL, 3)
	v.Write(base+regT2CH, 0)

	tick(v, 4)
	assert.NotZero(t, v.Read(base+regIFR)&FlagT2)

	v.Write(base+regIFR, FlagT2)
	tick(v, 10)
	assert.Zero(t, v.Read(base+regIFR)&FlagT2, "T2 does not reload")
}

func TestReadingCountersClearsFlags(t *testing.T) {
	v := NewDefault()
	v.Write(base+regT1CL, 1)
	v.Write(base+regT1CH, 0)
	tick(v, 2)
	assert.NotZero(t, v.Read(base+regIFR)&FlagT1)

	v.Read(base + regT1CL)
	assert.Zero(t, v.Read(base+regIFR)&FlagT1)
}

func TestIERProtocol(t *testing.T) {
	v := NewDefault()

	v.Write(base+regIER, 0x80|FlagT1)
	assert.Equal(t, byte(0x80|FlagT1), v.Read(base+regIER), "IER reads with MSB set")

	v.Write(base+regIER, 0x80|FlagT2)
	assert.Equal(t, byte(0x80|FlagT1|FlagT2), v.Read(base+regIER), "set ORs bits in")

	v.Write(base+regIER, FlagT1) // MSB clear: clears the named bits
	assert.Equal(t, byte(0x80|FlagT2), v.Read(base+regIER))
}

func TestInterruptLine(t *testing.T) {
	v := NewDefault()
	v.Write(base+regT1CL, 2)
	v.Write(base+regT1CH, 0)
	tick(v, 3)

	assert.False(t, v.HasInterruptRequest(), "flag set but not enabled")

	v.Write(base+regIER, 0x80|FlagT1)
	assert.True(t, v.HasInterruptRequest())

	ifr := v.Read(base + regIFR)
	assert.NotZero(t, ifr&0x80, "IFR bit 7 mirrors the line")

	v.Write(base+regIFR, FlagT1)
	assert.False(t, v.HasInterruptRequest(), "acknowledged")
}

func TestTimerLatchReads(t *testing.T) {
	v := NewDefault()
	v.Write(base+regT1CL, 0x34)
	v.Write(base+regT1CH, 0x12)
	assert.Equal(t, byte(0x34), v.Read(base+regT1LL))
	assert.Equal(t, byte(0x12), v.Read(base+regT1LH))
	assert.Equal(t, byte(0x12), v.Read(base+regT1CH))
}
