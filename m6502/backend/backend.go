package backend

import "github.com/valerio/go-m6502/m6502/video"

// Event is a control signal a backend surfaces to the run loop.
type Event uint8

const (
	EventNone Event = iota
	// EventQuit requests shutdown (Ctrl-C, window close).
	EventQuit
)

// Config holds backend configuration.
type Config struct {
	Title string

	// KeySink receives typed bytes; the launcher wires it to the ACIA
	// receive path so the emulated program sees keystrokes as serial
	// input. May be nil.
	KeySink func(byte)
}

// Backend is a display/input surface for the machine. Backends render
// the palette framebuffer and translate host input into serial bytes.
type Backend interface {
	// Init configures the backend. Required before calling Update.
	Init(config Config) error

	// Update polls host events and renders the frame. The dirty flag
	// tells the backend whether the frame changed since the last call;
	// backends may skip drawing when it is false.
	Update(frame *video.FrameBuffer, dirty bool) (Event, error)

	// Cleanup releases resources when shutting down.
	Cleanup() error
}
