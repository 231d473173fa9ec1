package zmachine

// Host I/O protocol. The interpreter never touches a terminal or a
// file directly: everything it wants to show, ask, or persist crosses
// the `to`/`from` channel pair passed into LoadRom as one of these
// typed messages. RuntimeError and Warning (errors.go) and
// Save/Restore/SaveResponse/RestoreResponse (savestates.go) are part
// of the same protocol.

// Print carries text destined for the lower window or the upper
// (status/split) window, tagged with the style bits active when it
// was produced.
type Print struct {
	Text   string
	Window int // 0 = lower, 1 = upper
	Style  TextStyle
}

// StatusBarUpdate is sent whenever a v1-3 story updates its
// automatically-maintained status line (object name plus either a
// score/turns pair or a time-of-day clock).
type StatusBarUpdate struct {
	ObjectName string
	IsTimeGame bool
	Score      int16
	Turns      uint16
	Hours      uint8
	Minutes    uint8
}

// SplitWindow and SetWindow mirror the screen-model-affecting opcodes
// so a host renderer can keep its own layout in sync without polling.
type SplitWindow struct {
	Lines int
}

type SetWindow struct {
	Window int
}

type SetCursor struct {
	Line, Column int
}

type EraseWindow struct {
	Window int // -1 = unsplit and clear both, -2 = clear both without unsplitting
}

// InputRequestKind distinguishes a full line read (sread/aread) from
// a single keystroke read (read_char).
type InputRequestKind int

const (
	InputLine InputRequestKind = iota
	InputChar
)

// InputRequest is sent when the interpreter blocks waiting on the
// player. TimeoutTenths is nonzero only for timed input, which this
// interpreter accepts syntactically (so a story's read/read_char
// opcode parses correctly) but never actually times out, since real
// timed input needs a wall clock and sound/mouse support this host
// doesn't provide.
type InputRequest struct {
	Kind          InputRequestKind
	MaxLength     int
	TimeoutTenths uint16
}

// InputResponse answers an InputRequest. For InputChar, Text holds a
// single rune; TimedOut is always false here since InputRequest never
// actually times out.
type InputResponse struct {
	Text     string
	TimedOut bool
}

// Quit and Restart are terminal notifications to the host; after
// sending either one, the interpreter's Run loop returns. On Restart
// the host is the one that reloads the story bytes into a fresh
// ZMachine and runs it.
type Quit struct{}

type Restart struct{}

// Sound is a Non-goal: the sound_effect instruction is decoded and
// its operands read, but nothing is sent to the host and no sound
// ever plays.
