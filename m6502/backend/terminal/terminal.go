package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-m6502/m6502/backend"
	"github.com/valerio/go-m6502/m6502/video"
)

// Backend renders the palette framebuffer in a terminal using tcell.
// Each character cell shows two vertically stacked pixels via the upper
// half block, so the 256x240 surface needs a 256x120 cell area. Typed
// keys are forwarded to the configured key sink as serial bytes.
type Backend struct {
	screen tcell.Screen
	config backend.Config
}

func New() *Backend {
	return &Backend{}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}

	t.screen = screen
	t.screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite))
	t.screen.Clear()
	return nil
}

func (t *Backend) Update(frame *video.FrameBuffer, dirty bool) (backend.Event, error) {
	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if done := t.handleKey(ev); done {
				return backend.EventQuit, nil
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	if dirty {
		t.draw(frame)
		t.screen.Show()
	}
	return backend.EventNone, nil
}

// handleKey translates a key event into a serial byte, reporting true
// for the quit chord.
func (t *Backend) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyEnter:
		t.sendKey('\r')
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		t.sendKey(0x08)
	case tcell.KeyTab:
		t.sendKey('\t')
	case tcell.KeyRune:
		r := ev.Rune()
		if r < 0x80 {
			t.sendKey(byte(r))
		}
	}
	return false
}

func (t *Backend) sendKey(b byte) {
	if t.config.KeySink != nil {
		t.config.KeySink(b)
	}
}

// draw paints two pixel rows per terminal row with the upper half block.
func (t *Backend) draw(frame *video.FrameBuffer) {
	for y := 0; y < video.Height; y += 2 {
		for x := 0; x < video.Width; x++ {
			style := tcell.StyleDefault.
				Foreground(paletteColor(frame.GetPixel(x, y))).
				Background(paletteColor(frame.GetPixel(x, y+1)))
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
}

// paletteColor expands an 8 bit RRRGGGBB palette index to a tcell color.
func paletteColor(index byte) tcell.Color {
	r := int32(index>>5&0x07) * 255 / 7
	g := int32(index>>2&0x07) * 255 / 7
	b := int32(index&0x03) * 255 / 3
	return tcell.NewRGBColor(r, g, b)
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}
