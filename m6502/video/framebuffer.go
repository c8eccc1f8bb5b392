package video

import "github.com/valerio/go-m6502/m6502/addr"

// Display geometry. One byte per pixel, holding an 8 bit palette index.
const (
	Width  = 256
	Height = 240
)

// FrameBuffer is the memory-mapped raster surface. Any write inside its
// window marks the frame dirty; a renderer consumes the flag through
// IsDirty to avoid redundant draws. The device never interrupts.
type FrameBuffer struct {
	start  uint16
	end    uint16
	buffer []byte
	dirty  bool
	frames uint64
}

// New creates a frame buffer mapped at the default window.
func New() *FrameBuffer {
	return NewWithRange(addr.FramebufferStart, addr.FramebufferEnd)
}

// NewWithRange creates a frame buffer handling [start, end]. The pixel
// surface is always Width*Height bytes; a larger window leaves the excess
// offsets unassigned.
func NewWithRange(start, end uint16) *FrameBuffer {
	return &FrameBuffer{
		start:  start,
		end:    end,
		buffer: make([]byte, Width*Height),
	}
}

// HandlesAddress reports whether the address lies in the mapped window.
func (fb *FrameBuffer) HandlesAddress(address uint16) bool {
	return address >= fb.start && address <= fb.end
}

// Read returns the pixel byte at the address. Unassigned offsets inside
// the window read as zero, addresses outside it as 0xFF.
func (fb *FrameBuffer) Read(address uint16) byte {
	if !fb.HandlesAddress(address) {
		return 0xFF
	}
	offset := int(address - fb.start)
	if offset >= len(fb.buffer) {
		return 0
	}
	return fb.buffer[offset]
}

// Write stores a pixel byte and marks the frame dirty.
func (fb *FrameBuffer) Write(address uint16, value byte) {
	if !fb.HandlesAddress(address) {
		return
	}
	offset := int(address - fb.start)
	if offset >= len(fb.buffer) {
		return
	}
	fb.buffer[offset] = value
	fb.dirty = true
}

// Tick is a no-op; the frame buffer has no clocked behaviour.
func (fb *FrameBuffer) Tick() {}

// HasInterruptRequest always reports false.
func (fb *FrameBuffer) HasInterruptRequest() bool {
	return false
}

// GetPixel returns the palette index at (x, y).
func (fb *FrameBuffer) GetPixel(x, y int) byte {
	return fb.buffer[y*Width+x]
}

// SetPixel stores a palette index at (x, y) and marks the frame dirty.
func (fb *FrameBuffer) SetPixel(x, y int, color byte) {
	fb.buffer[y*Width+x] = color
	fb.dirty = true
}

// Clear fills the whole surface with one palette index.
func (fb *FrameBuffer) Clear(color byte) {
	for i := range fb.buffer {
		fb.buffer[i] = color
	}
	fb.dirty = true
}

// Buffer returns the pixel surface as a Width*Height slice. The slice is
// a live view, not a copy.
func (fb *FrameBuffer) Buffer() []byte {
	return fb.buffer[:Width*Height]
}

// IsDirty reports whether any write happened since the last reset. With
// reset true a set flag is cleared and the frame counter advances; a
// clean frame leaves the counter unchanged.
func (fb *FrameBuffer) IsDirty(reset bool) bool {
	dirty := fb.dirty
	if reset && dirty {
		fb.dirty = false
		fb.frames++
	}
	return dirty
}

// FrameCount returns how many times the dirty flag has been consumed.
func (fb *FrameBuffer) FrameCount() uint64 {
	return fb.frames
}
