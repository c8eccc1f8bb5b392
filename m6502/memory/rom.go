package memory

import (
	"github.com/valerio/go-m6502/m6502/addr"
)

// ROM is the read-only overlay over the ROM window. Storage is sparse:
// only addresses covered by a loaded image are present, everything else
// falls through to RAM on the bus.
type ROM struct {
	start uint16
	end   uint16
	data  map[uint16]byte
}

// NewROM returns an empty ROM with the default window.
func NewROM() *ROM {
	return NewROMWindow(addr.ROMStart, addr.ROMEnd)
}

// NewROMWindow returns an empty ROM covering [start, end].
func NewROMWindow(start, end uint16) *ROM {
	return &ROM{
		start: start,
		end:   end,
		data:  make(map[uint16]byte),
	}
}

// HandlesAddress reports whether a loaded image byte is present at the
// address. Unloaded window addresses are not claimed, so RAM underneath
// stays visible.
func (r *ROM) HandlesAddress(address uint16) bool {
	_, ok := r.data[address]
	return ok
}

// InWindow reports whether the address lies inside the ROM window,
// loaded or not.
func (r *ROM) InWindow(address uint16) bool {
	return address >= r.start && address <= r.end
}

// Read returns the loaded byte at the address, zero when outside the
// window or not covered by any image.
func (r *ROM) Read(address uint16) byte {
	return r.data[address]
}

// Write is refused; ROM contents only change through the loaders.
func (r *ROM) Write(address uint16, value byte) {}

// LoadMap applies a direct address-to-byte mapping. Entries outside the
// window are ignored.
func (r *ROM) LoadMap(image map[uint16]byte) {
	for a, v := range image {
		if r.InWindow(a) {
			r.data[a] = v
		}
	}
}

// LoadBytes applies a contiguous image starting at the given address.
// Bytes that would spill past the window end are truncated.
func (r *ROM) LoadBytes(start uint16, image []byte) {
	for i, v := range image {
		a := uint32(start) + uint32(i)
		if a > uint32(r.end) {
			break
		}
		r.data[uint16(a)] = v
	}
}
