package zstring

import (
	"encoding/binary"
	"testing"
)

func alphabetsForVersion(version uint8) *Alphabets {
	return LoadAlphabets(nil, version, 0)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		text    string
		version uint8
	}{
		{"test", 3},
		{"mailbox", 3},
		{"go", 5},
		{"a", 1},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			alphabets := alphabetsForVersion(tt.version)
			encoded := Encode(tt.text, tt.version, alphabets, 9)

			decoded, words := decode(encoded, 0, tt.version, alphabets, 0, false)
			if decoded != tt.text {
				t.Fatalf("round trip mismatch: encoded %q, decoded %q", tt.text, decoded)
			}
			if words != len(encoded)/2 {
				t.Fatalf("expected %d words consumed, got %d", len(encoded)/2, words)
			}
		})
	}
}

func TestEncodeTruncatesToZcharCount(t *testing.T) {
	alphabets := alphabetsForVersion(3)
	encoded := Encode("mailboxes", 3, alphabets, 6)
	if len(encoded) != 4 {
		t.Fatalf("expected 6 z-chars packed into 2 words (4 bytes), got %d bytes", len(encoded))
	}

	decoded, _ := decode(encoded, 0, 3, alphabets, 0, false)
	if decoded != "mailbo" {
		t.Fatalf("expected truncation to the first 6 letters, got %q", decoded)
	}
}

func TestDecodeTerminatorBit(t *testing.T) {
	alphabets := alphabetsForVersion(3)
	// Two words: first without the terminator bit, second with it.
	word1 := uint16(6<<10 | 7<<5 | 8) // a, b, c in A0 (index 0,1,2 = zchr-6)
	word2 := uint16(9<<10|10<<5|11) | 0x8000
	memory := make([]byte, 4)
	binary.BigEndian.PutUint16(memory[0:2], word1)
	binary.BigEndian.PutUint16(memory[2:4], word2)

	text, words := decode(memory, 0, 3, alphabets, 0, false)
	if words != 2 {
		t.Fatalf("expected 2 words consumed, got %d", words)
	}
	if text != "abcdef" {
		t.Fatalf("expected \"abcdef\", got %q", text)
	}
}

func TestShiftToAlphabetA1(t *testing.T) {
	alphabets := alphabetsForVersion(3)
	// Z-char 4 shifts to A1 (uppercase) for one character in v3+; the
	// third z-char is the pad code, which shifts again but emits nothing.
	word := uint16(4<<10|6<<5|5) | 0x8000
	memory := make([]byte, 2)
	binary.BigEndian.PutUint16(memory, word)

	text, _ := decode(memory, 0, 3, alphabets, 0, false)
	if text != "A" {
		t.Fatalf("expected shift to A1 to decode uppercase 'A', got %q", text)
	}
}

func TestAbbreviationExpansion(t *testing.T) {
	alphabets := alphabetsForVersion(3)

	// Abbreviation text "hi" lives at word-address 10 (byte address 20).
	abbrText := Encode("hi", 3, alphabets, 3)
	abbreviationsBase := uint16(4)

	memory := make([]byte, 64)
	// Abbreviation table entry 0 (z-char 1, entry 0) points at word-address 10.
	binary.BigEndian.PutUint16(memory[abbreviationsBase:abbreviationsBase+2], 10)
	copy(memory[20:], abbrText)

	// Main string: z-char 1 (abbreviation set 0), entry index 0, then pad.
	mainWord := uint16(1<<10|0<<5|5) | 0x8000
	binary.BigEndian.PutUint16(memory[0:2], mainWord)

	text, _ := Decode(memory, 0, 3, alphabets, abbreviationsBase)
	if text != "hi" {
		t.Fatalf("expected abbreviation to expand to \"hi\", got %q", text)
	}
}
