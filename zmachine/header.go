package zmachine

import "encoding/binary"

// Header byte offsets used by the core. Names follow the Z-Machine
// standard document's own terminology.
const (
	hdrVersion              = 0x00
	hdrFlags1               = 0x01
	hdrReleaseNumber        = 0x02
	hdrHighMemBase          = 0x04
	hdrInitialPC            = 0x06
	hdrDictionaryBase       = 0x08
	hdrObjectTableBase      = 0x0A
	hdrGlobalsBase          = 0x0C
	hdrStaticMemBase        = 0x0E
	hdrFlags2               = 0x10
	hdrAbbreviationsBase    = 0x18
	hdrFileLength           = 0x1A
	hdrFileChecksum         = 0x1C
	hdrInterpreterNumber    = 0x1E
	hdrInterpreterVersion   = 0x1F
	hdrScreenHeightLines    = 0x20
	hdrScreenWidthChars     = 0x21
	hdrScreenWidthUnits     = 0x22
	hdrScreenHeightUnits    = 0x24
	hdrFontHeight           = 0x26
	hdrFontWidth            = 0x27
	hdrRoutinesOffset       = 0x28
	hdrStringsOffset        = 0x2A
	hdrDefaultBackground    = 0x2C
	hdrDefaultForeground    = 0x2D
	hdrTerminatingCharTable = 0x2E
	hdrOutputStream3Width   = 0x30
	hdrStandardRevision     = 0x32
	hdrAlphabetTableBase    = 0x34
	hdrExtensionTableBase   = 0x36
	hdrHeaderSize           = 0x40
)

// Flags 1 bits, named by bit position (0 = least significant) so they
// can be passed straight to testBit/setBit. Version >= 4 meanings
// shown first; v1-3 reuses bit 1 for "story is a time game", bit 4 for
// "status line is not available," and bit 5 for "screen-splitting
// available" instead.
const (
	flag1ColoursAvailable     = 0
	flag1PicturesAvailable    = 1
	flag1BoldAvailable        = 2
	flag1ItalicAvailable      = 3
	flag1FixedPitchDefault    = 4
	flag1SplitAvailable       = 5
	flag1VariablePitchDefault = 6
	flag1TimedInputAvailable  = 7

	flag1V3TimeGame              = 1
	flag1V3StatusLineUnavailable = 4
	flag1V3ScreenSplitAvailable  = 5
	flag1V3VariablePitchDefault  = 6
)

func (z *ZMachine) Version() uint8 { return z.Memory[hdrVersion] }

func (z *ZMachine) flags1() uint8 { return z.Memory[hdrFlags1] }

// testFlags1Bit reports whether bit n of Flags 1 is set.
func (z *ZMachine) testFlags1Bit(n uint) bool {
	return testBit(uint16(z.flags1()), n)
}

// setFlags1Bit sets one or more Flags 1 bits, named by position.
func (z *ZMachine) setFlags1Bit(bits ...uint) {
	v := uint16(z.flags1())
	for _, n := range bits {
		v = setBit(v, n)
	}
	z.Memory[hdrFlags1] = uint8(v)
}

func (z *ZMachine) HighMemoryBase() uint16 { return z.readHeaderWord(hdrHighMemBase) }

func (z *ZMachine) InitialPC() uint16 { return z.readHeaderWord(hdrInitialPC) }

func (z *ZMachine) DictionaryBase() uint16 { return z.readHeaderWord(hdrDictionaryBase) }

func (z *ZMachine) ObjectTableBase() uint16 { return z.readHeaderWord(hdrObjectTableBase) }

func (z *ZMachine) GlobalsBase() uint16 { return z.readHeaderWord(hdrGlobalsBase) }

func (z *ZMachine) StaticMemoryBase() uint16 { return z.readHeaderWord(hdrStaticMemBase) }

func (z *ZMachine) AbbreviationsBase() uint16 { return z.readHeaderWord(hdrAbbreviationsBase) }

func (z *ZMachine) RoutinesOffset() uint16 { return z.readHeaderWord(hdrRoutinesOffset) }

func (z *ZMachine) StringsOffset() uint16 { return z.readHeaderWord(hdrStringsOffset) }

func (z *ZMachine) AlphabetTableBase() uint16 { return z.readHeaderWord(hdrAlphabetTableBase) }

func (z *ZMachine) ExtensionTableBase() uint16 { return z.readHeaderWord(hdrExtensionTableBase) }

// UnicodeExtensionTableBase returns the custom translation table
// address from word 3 of the header extension table, or 0 if the
// story carries none.
func (z *ZMachine) UnicodeExtensionTableBase() uint16 {
	ext := z.ExtensionTableBase()
	if ext == 0 {
		return 0
	}
	if int(ext)+8 > len(z.Memory) {
		return 0
	}
	words := z.readHeaderWord(ext)
	if words < 3 {
		return 0
	}
	return binary.BigEndian.Uint16(z.Memory[ext+6 : ext+8])
}

func (z *ZMachine) readHeaderWord(offset uint16) uint16 {
	return binary.BigEndian.Uint16(z.Memory[offset : offset+2])
}

// fileLength reconstructs the declared story length from the header's
// scaled file-length word.
func (z *ZMachine) fileLength() uint32 {
	raw := z.readHeaderWord(hdrFileLength)
	var multiplier uint32
	switch {
	case z.Version() <= 3:
		multiplier = 2
	case z.Version() <= 5:
		multiplier = 4
	default:
		multiplier = 8
	}
	return uint32(raw) * multiplier
}

// initHeader stamps the interpreter's own capabilities into the
// header after a story is loaded, mirroring what a real terminal
// front end reports: no graphics, no sound, no timed input, but
// colour/bold/italic/split-screen on v4+ and split-screen alone on
// v1-3.
func (z *ZMachine) initHeader() {
	z.Memory[hdrInterpreterNumber] = 6 // "IBM PC"
	z.Memory[hdrInterpreterVersion] = 1

	z.Memory[hdrScreenHeightLines] = 25
	z.Memory[hdrScreenWidthChars] = 80
	binary.BigEndian.PutUint16(z.Memory[hdrScreenWidthUnits:], 80)
	binary.BigEndian.PutUint16(z.Memory[hdrScreenHeightUnits:], 25)
	z.Memory[hdrFontHeight] = 1
	z.Memory[hdrFontWidth] = 1
	binary.BigEndian.PutUint16(z.Memory[hdrStandardRevision:], 0x0102)

	if z.Version() <= 3 {
		z.setFlags1Bit(flag1V3ScreenSplitAvailable)
	} else {
		z.setFlags1Bit(flag1ColoursAvailable, flag1BoldAvailable, flag1ItalicAvailable, flag1SplitAvailable)
	}
}
