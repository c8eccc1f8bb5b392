package serial

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-m6502/m6502/addr"
)

const base = addr.ACIABase

func newTestACIA() (*ACIA, *bytes.Buffer) {
	a := New(base)
	out := &bytes.Buffer{}
	a.Attach(nil, out)
	return a, out
}

func TestHandlesAddressWindow(t *testing.T) {
	a := New(base)
	assert.True(t, a.HandlesAddress(base))
	assert.True(t, a.HandlesAddress(base+3))
	assert.False(t, a.HandlesAddress(base+4))
	assert.False(t, a.HandlesAddress(base-1))
}

func TestTransmit(t *testing.T) {
	a, out := newTestACIA()

	a.Write(base, 'H')
	assert.Equal(t, []byte{'H'}, out.Bytes(), "byte flushed synchronously")

	status := a.Read(base + 1)
	assert.NotZero(t, status&StatusTDRE, "TDRE set after flush")
}

func TestTransmitDisabledByCTSB(t *testing.T) {
	a, out := newTestACIA()
	a.SetCTSB(true)

	a.Write(base, 'X')
	assert.Empty(t, out.Bytes(), "transmitter disabled while CTSB is high")
	assert.NotZero(t, a.Read(base+1)&StatusTDRE)

	a.SetCTSB(false)
	a.Write(base, 'Y')
	assert.Equal(t, []byte{'Y'}, out.Bytes())
}

func TestReceiveFIFO(t *testing.T) {
	a, _ := newTestACIA()

	payload := []byte{'a', 'b', 'c'}
	for _, b := range payload {
		a.Receive(b)
	}
	a.Tick()

	assert.NotZero(t, a.Read(base+1)&StatusRDRF, "RDRF set after tick")
	for _, want := range payload {
		assert.Equal(t, want, a.Read(base))
	}
	assert.Zero(t, a.Read(base+1)&StatusRDRF, "RDRF clear once drained")
	assert.Equal(t, byte(0), a.Read(base), "empty queue reads zero")
}

func TestReceiveFromHostReader(t *testing.T) {
	a := New(base)
	out := &bytes.Buffer{}
	a.Attach(bytes.NewBufferString("x"), out)

	// the pump runs on its own goroutine; poll until the byte lands
	for i := 0; i < 1000; i++ {
		a.Tick()
		if a.statusByte()&StatusRDRF != 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, byte('x'), a.Read(base))
}

func TestStatusReadClearsIRQ(t *testing.T) {
	a, _ := newTestACIA()
	a.Write(base+2, 0x02) // command: receiver IRQ enabled
	a.Receive('q')
	a.Tick()

	require.True(t, a.HasInterruptRequest())
	status := a.Read(base + 1)
	assert.Zero(t, status&StatusIRQ, "IRQ bit cleared in the returned byte")
	assert.False(t, a.HasInterruptRequest(), "latch cleared by the read")
}

func TestIRQGatedOnCommandBit(t *testing.T) {
	a, _ := newTestACIA()

	a.Receive('q')
	a.Tick()
	assert.False(t, a.HasInterruptRequest(), "no IRQ while disabled")

	a.Write(base+2, 0x02)
	a.Tick()
	assert.True(t, a.HasInterruptRequest(), "pending once enabled with RDRF set")
}

func TestStatusCarrierBits(t *testing.T) {
	a := New(base)
	assert.Zero(t, a.Read(base+1)&(StatusDCD|StatusDSR), "no terminal attached")

	a.Attach(nil, &bytes.Buffer{})
	status := a.Read(base + 1)
	assert.NotZero(t, status&StatusDCD)
	assert.NotZero(t, status&StatusDSR)

	a.Detach()
	assert.Zero(t, a.Read(base+1)&(StatusDCD|StatusDSR))
}

func TestCommandControlAreWriteOnly(t *testing.T) {
	a, _ := newTestACIA()
	a.Write(base+2, 0xFF)
	a.Write(base+3, 0xFF)
	assert.Equal(t, byte(0), a.Read(base+2))
	assert.Equal(t, byte(0), a.Read(base+3))
}

func TestControlDecode(t *testing.T) {
	tests := []struct {
		name     string
		control  byte
		baud     int
		wordLen  int
		stopBits float64
	}{
		{"default 8N1", 0x00, 0, 8, 1},
		{"9600 8N1", 0x0E, 9600, 8, 1},
		{"19200 7 bits", 0x2F, 19200, 7, 1},
		{"two stop bits", 0x80, 0, 8, 2},
		{"five bits gets 1.5 stop", 0xE0, 0, 5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestACIA()
			a.Write(base+3, tt.control)
			assert.Equal(t, tt.baud, a.BaudRate())
			assert.Equal(t, tt.wordLen, a.WordLength())
			assert.Equal(t, tt.stopBits, a.StopBits())
		})
	}
}

func TestReset(t *testing.T) {
	a, _ := newTestACIA()
	a.Write(base+2, 0x02)
	a.Write(base+3, 0xFF)
	a.SetCTSB(true)
	a.Receive('z')
	a.Tick()

	a.Reset()
	assert.Equal(t, byte(0), a.Read(base), "receive queue cleared")
	assert.Equal(t, 8, a.WordLength(), "back to 8N1")
	assert.Equal(t, float64(1), a.StopBits())
	assert.False(t, a.HasInterruptRequest())

	// CTSB back low: transmit works again
	out := &bytes.Buffer{}
	a.Attach(nil, out)
	a.Write(base, 'k')
	assert.Equal(t, []byte{'k'}, out.Bytes())
}
