package addr

// Hardware vectors. Each is a 16 bit little-endian pointer.
const (
	// NMI vector (0xFFFA/0xFFFB).
	NMIVector uint16 = 0xFFFA
	// Reset vector (0xFFFC/0xFFFD).
	ResetVector uint16 = 0xFFFC
	// IRQ/BRK vector (0xFFFE/0xFFFF).
	IRQVector uint16 = 0xFFFE
)

// Stack page. The stack pointer addresses StackPage + SP.
const StackPage uint16 = 0x0100

// ROM window. Loaded images overlay RAM where present.
const (
	ROMStart uint16 = 0x8000
	ROMEnd   uint16 = 0xFFFF
)

// Framebuffer window (256x240 pixels, one palette byte each).
const (
	FramebufferStart uint16 = 0x0400
	FramebufferEnd   uint16 = 0xF3FF
)

// ACIA register window (Data, Status, Command, Control).
const (
	ACIABase uint16 = 0xFE00
	// ACIAKeyboardBase is the alternative base used by the keyboard variant.
	ACIAKeyboardBase uint16 = 0xC000
)

// VIA register window (16 registers).
const VIABase uint16 = 0xFE10
