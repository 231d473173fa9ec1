package zstring

// DefaultUnicodeTranslationTable is the 69-entry fixed mapping from
// ZSCII 155..223 to Unicode, reproduced exactly from the standard.
var DefaultUnicodeTranslationTable = map[uint8]rune{
	155: 'ä', 156: 'ö', 157: 'ü', 158: 'Ä', 159: 'Ö', 160: 'Ü', 161: 'ß',
	162: '»', 163: '«', 164: 'ë', 165: 'ï', 166: 'ÿ', 167: 'Ë', 168: 'Ï',
	169: 'á', 170: 'é', 171: 'í', 172: 'ó', 173: 'ú', 174: 'ý', 175: 'Á',
	176: 'É', 177: 'Í', 178: 'Ó', 179: 'Ú', 180: 'Ý', 181: 'à', 182: 'è',
	183: 'ì', 184: 'ò', 185: 'ù', 186: 'À', 187: 'È', 188: 'Ì', 189: 'Ò',
	190: 'Ù', 191: 'â', 192: 'ê', 193: 'î', 194: 'ô', 195: 'û', 196: 'Â',
	197: 'Ê', 198: 'Î', 199: 'Ô', 200: 'Û', 201: 'å', 202: 'Å', 203: 'ø',
	204: 'Ø', 205: 'ã', 206: 'ñ', 207: 'õ', 208: 'Ã', 209: 'Ñ', 210: 'Õ',
	211: 'æ', 212: 'Æ', 213: 'ç', 214: 'Ç', 215: 'þ', 216: 'ð', 217: 'Þ',
	218: 'Ð', 219: '£', 220: 'œ', 221: 'Œ', 222: '¡', 223: '¿',
}

// ZsciiToRune converts a single ZSCII byte to a Unicode code point.
// Codes 9, 11, 13 and 32..126 map directly onto themselves (already
// ASCII-compatible); 155..223 go through the translation table, which
// is replaced wholesale by a story's own extension table when present.
func ZsciiToRune(zscii uint8, memory []uint8, unicodeExtensionTableBase uint16) (rune, bool) {
	switch {
	case zscii == 9 || zscii == 11 || zscii == 13:
		return rune(zscii), true
	case zscii >= 32 && zscii <= 126:
		return rune(zscii), true
	}

	table := translationTable(memory, unicodeExtensionTableBase)
	if r, ok := table[zscii]; ok {
		return r, true
	}
	return 0, false
}

// RuneToZscii is the inverse of ZsciiToRune.
func RuneToZscii(r rune, memory []uint8, unicodeExtensionTableBase uint16) (uint8, bool) {
	if r == 9 || r == 11 || r == 13 || (r >= 32 && r <= 126) {
		return uint8(r), true
	}

	for zscii, candidate := range translationTable(memory, unicodeExtensionTableBase) {
		if candidate == r {
			return zscii, true
		}
	}
	return 0, false
}

func translationTable(memory []uint8, unicodeExtensionTableBase uint16) map[uint8]rune {
	if memory == nil || unicodeExtensionTableBase == 0 {
		return DefaultUnicodeTranslationTable
	}

	count := memory[unicodeExtensionTableBase]
	table := make(map[uint8]rune, count)
	for i := 0; i < int(count); i++ {
		off := int(unicodeExtensionTableBase) + 1 + i*2
		word := uint16(memory[off])<<8 | uint16(memory[off+1])
		table[uint8(155+i)] = rune(word)
	}
	return table
}
