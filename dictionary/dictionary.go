// Package dictionary parses a story's in-image word dictionary and
// tokenises player input against it, producing the parse table the
// `read`/`sread`/`tokenise` opcodes hand back to the game.
package dictionary

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/mtwombley/gozm/zstring"
)

type entry struct {
	address uint32
	encoded []uint8
}

// Dictionary is a parsed view of a story's dictionary table: its word
// separators and its sorted/unsorted list of encoded entries.
type Dictionary struct {
	Separators  []uint8
	EntryLength uint8
	entries     []entry
	version     uint8
	alphabets   *zstring.Alphabets
}

// maxZChars is the number of Z-characters a dictionary word is
// truncated to before encoding: 6 in v1-3 (2 words), 9 in v4+ (3
// words).
func maxZChars(version uint8) int {
	if version <= 3 {
		return 6
	}
	return 9
}

// Parse reads the dictionary table at base out of memory.
func Parse(memory []uint8, base uint32, version uint8, alphabets *zstring.Alphabets) *Dictionary {
	numSeparators := memory[base]
	separators := append([]uint8(nil), memory[base+1:base+1+uint32(numSeparators)]...)

	entryLengthOffset := base + 1 + uint32(numSeparators)
	entryLength := memory[entryLengthOffset]
	entryCount := int16(binary.BigEndian.Uint16(memory[entryLengthOffset+1 : entryLengthOffset+3]))
	if entryCount < 0 {
		// A negative count marks an unsorted table of -count entries.
		entryCount = -entryCount
	}

	encodedWordLength := uint32(4)
	if version > 3 {
		encodedWordLength = 6
	}

	entriesBase := entryLengthOffset + 3
	entries := make([]entry, 0, entryCount)
	for i := int16(0); i < entryCount; i++ {
		addr := entriesBase + uint32(i)*uint32(entryLength)
		entries = append(entries, entry{
			address: addr,
			encoded: append([]uint8(nil), memory[addr:addr+encodedWordLength]...),
		})
	}

	return &Dictionary{
		Separators:  separators,
		EntryLength: entryLength,
		entries:     entries,
		version:     version,
		alphabets:   alphabets,
	}
}

func (d *Dictionary) isSeparator(b byte) bool {
	for _, s := range d.Separators {
		if s == b {
			return true
		}
	}
	return false
}

// Find returns the address of the dictionary entry whose encoded word
// matches encoded exactly, or 0 if no entry matches.
func (d *Dictionary) Find(encoded []uint8) uint16 {
	for _, e := range d.entries {
		if bytes.Equal(e.encoded, encoded) {
			return uint16(e.address)
		}
	}
	return 0
}

// Token is one tokenised word (or separator, which is its own token)
// from a player's input line.
type Token struct {
	Text         string
	WordAddress  uint16
	Length       uint8
	BufferOffset uint8
}

// Tokenize splits line on spaces and separator bytes (each separator
// is its own one-character token), encodes and looks up each word.
// bufferHeaderLen is the number of header bytes that precede the text
// in the text buffer the positions are reported relative to: 1 for
// v1-4, 2 for v5+.
func (d *Dictionary) Tokenize(line string, bufferHeaderLen int) []Token {
	var tokens []Token

	wordStart := -1
	flushWord := func(end int) {
		if wordStart < 0 {
			return
		}
		text := line[wordStart:end]
		tokens = append(tokens, d.makeToken(text, wordStart+bufferHeaderLen))
		wordStart = -1
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ':
			flushWord(i)
		case d.isSeparator(c):
			flushWord(i)
			tokens = append(tokens, d.makeToken(string(c), i+bufferHeaderLen))
		default:
			if wordStart < 0 {
				wordStart = i
			}
		}
	}
	flushWord(len(line))

	return tokens
}

func (d *Dictionary) makeToken(text string, bufferOffset int) Token {
	encoded := zstring.Encode(strings.ToLower(text), d.version, d.alphabets, maxZChars(d.version))
	return Token{
		Text:         text,
		WordAddress:  d.Find(encoded),
		Length:       uint8(len(text)),
		BufferOffset: uint8(bufferOffset),
	}
}

// WriteParseTable writes the standard parse-table format at addr:
// byte 0 is the table's declared capacity (left untouched), byte 1
// gets the actual word count, then 4 bytes per token (word-address
// hi/lo, length, buffer offset). maxTokens is supplied by the caller
// (the opcodes pass the value of byte 0); tokens beyond it are
// dropped.
func WriteParseTable(memory []uint8, addr uint32, tokens []Token, maxTokens uint8) {
	if len(tokens) > int(maxTokens) {
		tokens = tokens[:maxTokens]
	}
	memory[addr+1] = uint8(len(tokens))
	for i, t := range tokens {
		off := addr + 2 + uint32(i)*4
		binary.BigEndian.PutUint16(memory[off:off+2], t.WordAddress)
		memory[off+2] = t.Length
		memory[off+3] = t.BufferOffset
	}
}
