package serial

import (
	"io"
	"log/slog"

	"github.com/valerio/go-m6502/m6502/addr"
	"github.com/valerio/go-m6502/m6502/bit"
)

// Register offsets within the four byte window.
const (
	regData    = 0
	regStatus  = 1
	regCommand = 2
	regControl = 3
)

// Status register bits.
const (
	StatusParity  uint8 = 1 << 0
	StatusFraming uint8 = 1 << 1
	StatusOverrun uint8 = 1 << 2
	StatusRDRF    uint8 = 1 << 3
	StatusTDRE    uint8 = 1 << 4
	StatusDCD     uint8 = 1 << 5
	StatusDSR     uint8 = 1 << 6
	StatusIRQ     uint8 = 1 << 7
)

// baudRates maps the SBR selector to its nominal rate. Zero selects the
// external 16x clock.
var baudRates = [16]int{
	0, 50, 75, 110, 135, 150, 300, 600,
	1200, 1800, 2400, 3600, 4800, 7200, 9600, 19200,
}

// wordLengths maps the WL control bits to data bits per frame.
var wordLengths = [4]int{8, 7, 6, 5}

// ACIA is the memory-mapped serial interface: a data register backed by
// transmit/receive queues, a read-only status register and write-only
// command/control registers. Host bytes arrive through a non-blocking
// pump so a Tick never stalls the CPU clock.
type ACIA struct {
	base uint16

	command byte
	control byte

	tx []byte
	rx []byte

	ctsb         bool
	irqPending   bool
	rxIRQEnabled bool

	attached bool
	in       chan byte
	out      io.Writer
	stop     chan struct{}

	logger *slog.Logger
}

// Option configures an ACIA.
type Option func(*ACIA)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *ACIA) { a.logger = logger }
}

// New creates an ACIA mapped at base..base+3.
func New(base uint16, opts ...Option) *ACIA {
	a := &ACIA{
		base:   base,
		in:     make(chan byte, 256),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Reset()
	return a
}

// NewDefault creates an ACIA at the default register window.
func NewDefault(opts ...Option) *ACIA {
	return New(addr.ACIABase, opts...)
}

// HandlesAddress reports whether the address falls in the register window.
func (a *ACIA) HandlesAddress(address uint16) bool {
	return address >= a.base && address < a.base+4
}

// Read services a bus read of one of the four registers.
func (a *ACIA) Read(address uint16) byte {
	switch address - a.base {
	case regData:
		return a.readData()
	case regStatus:
		return a.readStatus()
	default:
		// command and control are write-only
		return 0
	}
}

// Write services a bus write of one of the four registers.
func (a *ACIA) Write(address uint16, value byte) {
	switch address - a.base {
	case regData:
		a.writeData(value)
	case regCommand:
		a.command = value
		a.rxIRQEnabled = bit.Flag(value, 1)
	case regControl:
		a.control = value
	}
}

// readData pops the head of the receive queue, or returns zero when
// nothing has arrived. RDRF clears implicitly once the queue drains.
func (a *ACIA) readData() byte {
	if len(a.rx) == 0 {
		return 0
	}
	head := a.rx[0]
	a.rx = a.rx[1:]
	return head
}

// readStatus refreshes the derived flags and returns them. Reading status
// acknowledges the interrupt: the IRQ bit is cleared in the returned byte
// and the internal latch drops in the same observation.
func (a *ACIA) readStatus() byte {
	status := a.statusByte()
	a.irqPending = false
	return status &^ StatusIRQ
}

func (a *ACIA) statusByte() byte {
	var status uint8
	if len(a.tx) == 0 {
		status |= StatusTDRE
	}
	if len(a.rx) > 0 {
		status |= StatusRDRF
	}
	if a.attached {
		status |= StatusDCD | StatusDSR
	}
	if a.irqPending {
		status |= StatusIRQ
	}
	return status
}

// writeData transmits a byte. With CTSB high the transmitter is disabled:
// the byte is dropped and TDRE stays set. Otherwise the byte passes
// through the transmit queue and flushes synchronously to the host.
func (a *ACIA) writeData(value byte) {
	if a.ctsb {
		return
	}
	a.tx = append(a.tx, value)
	a.flush()
}

// flush drains the transmit queue to the host output. Host write failures
// are logged and the buffer is left unchanged for the next attempt.
func (a *ACIA) flush() {
	if a.out == nil {
		// no host attached, bytes go nowhere
		a.tx = a.tx[:0]
		return
	}
	if _, err := a.out.Write(a.tx); err != nil {
		a.logger.Warn("acia: host write failed", "error", err)
		return
	}
	a.tx = a.tx[:0]
}

// Tick polls host input without blocking, appends any arrived bytes to
// the receive queue and recomputes the interrupt line.
func (a *ACIA) Tick() {
	for {
		select {
		case b := <-a.in:
			a.rx = append(a.rx, b)
		default:
			a.irqPending = a.rxIRQEnabled && len(a.rx) > 0
			return
		}
	}
}

// HasInterruptRequest reports the state of the device IRQ line.
func (a *ACIA) HasInterruptRequest() bool {
	return a.irqPending
}

// Reset restores power-on state: queues cleared, command and control
// zeroed, CTSB low, 8N1 framing.
func (a *ACIA) Reset() {
	a.tx = a.tx[:0]
	a.rx = a.rx[:0]
	a.command = 0
	a.control = 0
	a.ctsb = false
	a.irqPending = false
	a.rxIRQEnabled = false
}

// SetCTSB drives the clear-to-send-bar pin. High disables the transmitter.
func (a *ACIA) SetCTSB(high bool) {
	a.ctsb = high
}

// Receive pushes a byte toward the receive queue as if it had arrived
// from the host. It becomes visible after the next Tick. Overflow of the
// intake buffer drops the byte.
func (a *ACIA) Receive(value byte) {
	select {
	case a.in <- value:
	default:
		a.logger.Warn("acia: receive intake full, byte dropped")
	}
}

// Attach connects host streams. Reads are pumped on a goroutine into the
// intake channel so the emulation thread never blocks; read failures are
// logged and end the pump.
func (a *ACIA) Attach(r io.Reader, w io.Writer) {
	a.Detach()
	a.out = w
	a.attached = true
	a.stop = make(chan struct{})

	if r == nil {
		return
	}
	stop := a.stop
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case a.in <- buf[0]:
				case <-stop:
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					a.logger.Warn("acia: host read failed", "error", err)
				}
				return
			}
			select {
			case <-stop:
				return
			default:
			}
		}
	}()
}

// Detach disconnects the host streams and stops the read pump.
func (a *ACIA) Detach() {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.out = nil
	a.attached = false
}

// Decoded control register views.

// BaudRate returns the nominal rate selected by SBR, zero meaning the
// external clock.
func (a *ACIA) BaudRate() int {
	return baudRates[a.control&0x0F]
}

// ReceiverClockSource reports the RCS bit.
func (a *ACIA) ReceiverClockSource() bool {
	return bit.Flag(a.control, 4)
}

// WordLength returns the data bits per frame (8, 7, 6 or 5).
func (a *ACIA) WordLength() int {
	return wordLengths[bit.Field(a.control, 6, 5)]
}

// StopBits returns 1, 1.5 or 2 depending on SBN and the word length.
func (a *ACIA) StopBits() float64 {
	if !bit.Flag(a.control, 7) {
		return 1
	}
	if a.WordLength() == 5 {
		return 1.5
	}
	return 2
}
