package zmachine

import "strings"

// memoryStream tracks one nested output_stream 3 redirection: text is
// written starting two bytes past baseAddress (the first word holds
// the eventual byte count, patched in when the stream closes).
type memoryStream struct {
	baseAddress uint32
	ptr         uint32
}

// streamState tracks which of the four output streams are active.
// Transcript and command-script streams are accepted as Non-goals:
// stories can turn them on and off freely, but no bytes ever actually
// go anywhere for them since this interpreter has no file access.
type streamState struct {
	screen        bool
	transcript    bool
	memory        bool
	memoryStack   []memoryStream
	commandScript bool
}

// appendText is the single chokepoint every printing opcode funnels
// through. It honors output_stream redirection to memory (which
// suppresses every other stream while active) and otherwise sends the
// text to the host tagged with the active window and style.
func (z *ZMachine) appendText(s string) {
	if z.streams.memory {
		stream := &z.streams.memoryStack[len(z.streams.memoryStack)-1]
		for i := 0; i < len(s); i++ {
			z.StoreByte(stream.ptr, s[i])
			stream.ptr++
		}
		return
	}

	if z.streams.screen {
		style := z.screen.LowerWindowTextStyle
		window := 0
		if !z.screen.LowerWindowActive {
			style = z.screen.UpperWindowTextStyle
			window = 1
		}
		z.send(Print{Text: s, Window: window, Style: style})

		if !z.screen.LowerWindowActive {
			lines := strings.Split(s, "\n")
			z.screen.UpperWindowCursorY += len(lines) - 1
			z.screen.UpperWindowCursorX += len(lines[len(lines)-1])
		}
	}
}

// openMemoryStream and closeMemoryStream implement output_stream 3/-3.
func (z *ZMachine) openMemoryStream(addr uint32) {
	z.streams.memory = true
	z.streams.memoryStack = append(z.streams.memoryStack, memoryStream{
		baseAddress: addr,
		ptr:         addr + 2,
	})
}

func (z *ZMachine) closeMemoryStream() {
	if !z.streams.memory {
		return
	}
	top := z.streams.memoryStack[len(z.streams.memoryStack)-1]
	z.StoreWord(top.baseAddress, uint16(top.ptr-top.baseAddress-2))
	z.streams.memoryStack = z.streams.memoryStack[:len(z.streams.memoryStack)-1]
	if len(z.streams.memoryStack) == 0 {
		z.streams.memory = false
	}
}

func (z *ZMachine) setOutputStream(n int16, tableAddr uint16) {
	switch n {
	case 1, -1:
		z.streams.screen = n > 0
	case 2, -2:
		z.streams.transcript = n > 0
	case 3:
		z.openMemoryStream(uint32(tableAddr))
	case -3:
		z.closeMemoryStream()
	case 4, -4:
		z.streams.commandScript = n > 0
	}
}
