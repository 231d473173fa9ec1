// Package zstring implements the Z-Machine's ZSCII text codec: the
// 5-bit Z-character alphabets, the shift/shift-lock/abbreviation state
// machine that turns a stream of Z-characters into text, the 10-bit
// ZSCII escape, and the reverse (encode) direction used by the
// dictionary and tokeniser.
package zstring

import "encoding/binary"

var a0Default = [26]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}

// a2 tables have only 25 entries: Z-character 6 in alphabet 2 is
// reserved for the 10-bit ZSCII escape, never a literal character.
var a2DefaultV1 = [25]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}
var a2Default = [25]byte{'\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

type alphabet int

const (
	alphaA0 alphabet = 0
	alphaA1 alphabet = 1
	alphaA2 alphabet = 2
)

// Alphabets holds the three 26/25-entry Z-character tables in effect
// for a story. Versions 1-4 always use the built-in defaults (with a
// slightly different A2 in v1); v5+ stories may supply their own via
// the header's alphabet-table pointer.
type Alphabets struct {
	A0 [26]byte
	A1 [26]byte
	A2 [25]byte
}

// LoadAlphabets builds the alphabet set in effect for a story: the
// version's built-in default, overridden by a custom table if the
// header declares one (v5+ only).
func LoadAlphabets(memory []uint8, version uint8, alphabetTableBase uint16) *Alphabets {
	a := &Alphabets{A0: a0Default, A1: a1Default}
	if version == 1 {
		a.A2 = a2DefaultV1
	} else {
		a.A2 = a2Default
	}

	if version >= 5 && alphabetTableBase != 0 {
		copy(a.A0[:], memory[alphabetTableBase:alphabetTableBase+26])
		copy(a.A1[:], memory[alphabetTableBase+26:alphabetTableBase+52])
		copy(a.A2[:], memory[alphabetTableBase+52:alphabetTableBase+52+25])
	}

	return a
}

func (a *Alphabets) lookup(which alphabet, zchr uint8) byte {
	switch which {
	case alphaA0:
		return a.A0[zchr-6]
	case alphaA1:
		return a.A1[zchr-6]
	default:
		return a.A2[zchr-7]
	}
}

// Decode reads Z-characters starting at addr until a word with its
// terminator bit set, and returns the decoded text together with the
// number of 2-byte words consumed. Abbreviation expansion recurses at
// most one level deep, per the standard's "abbreviations never
// reference abbreviations" guarantee.
func Decode(memory []uint8, addr uint32, version uint8, alphabets *Alphabets, abbreviationsBase uint16) (string, int) {
	return decode(memory, addr, version, alphabets, abbreviationsBase, true)
}

func decode(memory []uint8, addr uint32, version uint8, alphabets *Alphabets, abbreviationsBase uint16, allowAbbreviations bool) (string, int) {
	var zchrs []uint8
	words := 0
	ptr := addr

	for {
		word := binary.BigEndian.Uint16(memory[ptr : ptr+2])
		ptr += 2
		words++

		zchrs = append(zchrs, uint8((word>>10)&0b11111), uint8((word>>5)&0b11111), uint8(word&0b11111))

		if word&0x8000 != 0 {
			break
		}
	}

	var out []byte
	baseAlphabet := alphaA0
	currentAlphabet := alphaA0
	nextAlphabet := alphaA0

	for i := 0; i < len(zchrs); i++ {
		zchr := zchrs[i]
		currentAlphabet = nextAlphabet
		nextAlphabet = baseAlphabet

		switch {
		case zchr == 0:
			out = append(out, ' ')

		case zchr == 1 && version == 1:
			out = append(out, '\n')

		case (zchr == 1 && version >= 2) || (zchr == 2 || zchr == 3) && version >= 3:
			if i+1 >= len(zchrs) {
				break
			}
			x := zchrs[i+1]
			i++
			if allowAbbreviations {
				out = append(out, decodeAbbreviation(memory, version, alphabets, abbreviationsBase, zchr, x)...)
			}

		case zchr == 2 && version < 3:
			nextAlphabet = (nextAlphabet + 1) % 3

		case zchr == 3 && version < 3:
			nextAlphabet = (nextAlphabet + 2) % 3

		case zchr == 4:
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 1) % 3
			} else {
				baseAlphabet = (baseAlphabet + 1) % 3
				nextAlphabet = baseAlphabet
			}

		case zchr == 5:
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 2) % 3
			} else {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			}

		case currentAlphabet == alphaA2 && zchr == 6:
			if i+2 >= len(zchrs) {
				break
			}
			high, low := zchrs[i+1], zchrs[i+2]
			i += 2
			zscii := (high << 5) | low
			if r, ok := ZsciiToRune(zscii, memory, 0); ok {
				out = append(out, string(r)...)
			}

		default:
			out = append(out, alphabets.lookup(currentAlphabet, zchr))
		}
	}

	return string(out), words
}

func decodeAbbreviation(memory []uint8, version uint8, alphabets *Alphabets, abbreviationsBase uint16, tableChar uint8, entry uint8) string {
	if abbreviationsBase == 0 {
		return ""
	}
	abbrIx := uint32(32*(tableChar-1) + entry)
	entryAddr := uint32(abbreviationsBase) + 2*abbrIx
	wordAddr := binary.BigEndian.Uint16(memory[entryAddr : entryAddr+2])
	text, _ := decode(memory, uint32(wordAddr)*2, version, alphabets, abbreviationsBase, false)
	return text
}

// Encode converts text into exactly zcharCount Z-characters (truncated
// or padded with the pad character, Z-char 5), then packs them 3 per
// word with the terminator bit set on the final word. Used for both
// dictionary word lookup (zcharCount 6 or 9) and the `encode_text`
// opcode family.
func Encode(text string, version uint8, alphabets *Alphabets, zcharCount int) []uint8 {
	zchrs := toZchars(text, version, alphabets)

	if len(zchrs) > zcharCount {
		zchrs = zchrs[:zcharCount]
	}
	for len(zchrs) < zcharCount {
		zchrs = append(zchrs, 5)
	}

	return packZchars(zchrs)
}

func packZchars(zchrs []uint8) []uint8 {
	out := make([]uint8, 0, (len(zchrs)/3+1)*2)
	for i := 0; i < len(zchrs); i += 3 {
		var a, b, c uint8
		a = zchrs[i]
		if i+1 < len(zchrs) {
			b = zchrs[i+1]
		}
		if i+2 < len(zchrs) {
			c = zchrs[i+2]
		}
		word := uint16(a&0b11111)<<10 | uint16(b&0b11111)<<5 | uint16(c&0b11111)
		if i+3 >= len(zchrs) {
			word |= 0x8000
		}
		out = append(out, byte(word>>8), byte(word))
	}
	return out
}

// toZchars converts runes one at a time into their Z-character
// encoding, preferring a direct alphabet hit, then a one-shot shift,
// then the 10-bit ZSCII escape for anything else representable in
// ZSCII.
func toZchars(text string, version uint8, alphabets *Alphabets) []uint8 {
	var zchrs []uint8
	for _, r := range text {
		b := byte(r)

		if idx := indexOf(alphabets.A0[:], b); idx >= 0 {
			zchrs = append(zchrs, uint8(idx)+6)
			continue
		}
		if idx := indexOf(alphabets.A1[:], b); idx >= 0 {
			zchrs = append(zchrs, shiftCode(version, alphaA1), uint8(idx)+6)
			continue
		}
		if idx := indexOf(alphabets.A2[:], b); idx >= 0 {
			zchrs = append(zchrs, shiftCode(version, alphaA2), uint8(idx)+7)
			continue
		}
		if b == ' ' {
			zchrs = append(zchrs, 0)
			continue
		}

		zscii, ok := RuneToZscii(r, nil, 0)
		if !ok {
			continue
		}
		zchrs = append(zchrs, shiftCode(version, alphaA2), 6, zscii>>5, zscii&0b11111)
	}
	return zchrs
}

// shiftCode returns the Z-character that, in the current version,
// switches to the given alphabet for exactly one character.
func shiftCode(version uint8, a alphabet) uint8 {
	if version <= 2 {
		if a == alphaA1 {
			return 2
		}
		return 3
	}
	if a == alphaA1 {
		return 4
	}
	return 5
}

func indexOf(table []byte, b byte) int {
	for i, c := range table {
		if c == b {
			return i
		}
	}
	return -1
}
