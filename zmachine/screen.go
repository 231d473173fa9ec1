package zmachine

import "fmt"

// TextStyle is a bitset of the style.set_text_style flags; more than
// one may be active at once (bold+reverse-video is common in status
// lines), so callers OR these together rather than treating them as
// an enum.
type TextStyle int

const (
	Roman        TextStyle = 0b0000_0001
	Bold         TextStyle = 0b0000_0010
	Italic       TextStyle = 0b0000_0100
	ReverseVideo TextStyle = 0b0000_1000
	FixedPitch   TextStyle = 0b0001_0000
)

// Color is an 8-bit-per-channel RGB triple. The Z-machine's own color
// opcodes work in a 15-bit palette or a named 2-15 index; both are
// resolved to one of these before reaching the host.
type Color struct {
	r int
	g int
	b int
}

func (c Color) ToHex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// zmachineNamedColors is the fixed palette behind set_colour's 2-12
// named indices (1.1 spec section 8.3.1). Index 0 (current) and 1
// (default) are resolved against the screen model instead, since they
// depend on which window is active.
var zmachineNamedColors = map[uint16]Color{
	2:  {0, 0, 0},       // black
	3:  {255, 0, 0},     // red
	4:  {0, 255, 0},     // green
	5:  {255, 255, 0},   // yellow
	6:  {0, 0, 255},     // blue
	7:  {255, 0, 255},   // magenta
	8:  {0, 255, 255},   // cyan
	9:  {255, 255, 255}, // white
	10: {192, 192, 192}, // light grey
	11: {128, 128, 128}, // medium grey
	12: {64, 64, 64},    // dark grey
}

// Font represents the available Z-machine fonts.
type Font uint16

const (
	FontNormal     Font = 1
	FontPicture    Font = 2
	FontCharGraphs Font = 3
	FontFixedPitch Font = 4
)

// ScreenModel tracks the two-window (lower scrolling, upper status)
// layout this core supports. Deliberately not a v6 screen model: no
// arbitrary window count, no mouse, no pixel geometry beyond the
// upper window's line count and cursor position.
type ScreenModel struct {
	LowerWindowActive bool
	CurrentFont       Font

	UpperWindowHeight            int
	UpperWindowForeground        Color
	UpperWindowBackground        Color
	DefaultUpperWindowForeground Color
	DefaultUpperWindowBackground Color
	UpperWindowCursorX           int
	UpperWindowCursorY           int
	UpperWindowTextStyle         TextStyle

	DefaultLowerWindowForeground Color
	DefaultLowerWindowBackground Color
	LowerWindowForeground        Color
	LowerWindowBackground        Color
	LowerWindowTextStyle         TextStyle
}

// resolveColor implements set_colour's index semantics for whichever
// window is currently active: 0 means "leave it as the window's
// current color," 1 means "reset to the window's default," 2-12 name
// a fixed palette entry, and any other index resolves to black.
func (m *ScreenModel) resolveColor(index uint16, isForeground bool) Color {
	switch index {
	case 0:
		if isForeground {
			return m.activeForeground()
		}
		return m.activeBackground()
	case 1:
		if isForeground {
			return m.activeDefaultForeground()
		}
		return m.activeDefaultBackground()
	default:
		if c, ok := zmachineNamedColors[index]; ok {
			return c
		}
		return Color{0, 0, 0}
	}
}

func (m *ScreenModel) activeForeground() Color {
	if m.LowerWindowActive {
		return m.LowerWindowForeground
	}
	return m.UpperWindowForeground
}

func (m *ScreenModel) activeBackground() Color {
	if m.LowerWindowActive {
		return m.LowerWindowBackground
	}
	return m.UpperWindowBackground
}

func (m *ScreenModel) activeDefaultForeground() Color {
	if m.LowerWindowActive {
		return m.DefaultLowerWindowForeground
	}
	return m.DefaultUpperWindowForeground
}

func (m *ScreenModel) activeDefaultBackground() Color {
	if m.LowerWindowActive {
		return m.DefaultLowerWindowBackground
	}
	return m.DefaultUpperWindowBackground
}

func newScreenModel(foregroundColor Color, backgroundColor Color) ScreenModel {
	return ScreenModel{
		LowerWindowActive:            true,
		CurrentFont:                  FontNormal,
		UpperWindowHeight:            0,
		DefaultUpperWindowForeground: foregroundColor,
		DefaultUpperWindowBackground: backgroundColor,
		UpperWindowForeground:        foregroundColor,
		UpperWindowBackground:        backgroundColor,
		UpperWindowCursorX:           1,
		UpperWindowCursorY:           1,
		UpperWindowTextStyle:         Roman,
		DefaultLowerWindowForeground: backgroundColor,
		DefaultLowerWindowBackground: foregroundColor,
		LowerWindowForeground:        backgroundColor,
		LowerWindowBackground:        foregroundColor,
		LowerWindowTextStyle:         Roman,
	}
}
