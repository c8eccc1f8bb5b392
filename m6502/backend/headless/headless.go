package headless

import (
	"log/slog"

	"github.com/valerio/go-m6502/m6502/backend"
	"github.com/valerio/go-m6502/m6502/video"
)

// Backend is the no-display surface used for automated runs and tests.
// It counts frames and never produces input.
type Backend struct {
	config     backend.Config
	frameCount int
}

func New() *Backend {
	return &Backend{}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	slog.Info("headless backend initialized", "title", config.Title)
	return nil
}

func (h *Backend) Update(frame *video.FrameBuffer, dirty bool) (backend.Event, error) {
	if dirty {
		h.frameCount++
	}
	return backend.EventNone, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// FrameCount returns how many dirty frames have been observed.
func (h *Backend) FrameCount() int {
	return h.frameCount
}
