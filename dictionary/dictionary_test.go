package dictionary_test

import (
	"encoding/binary"
	"testing"

	"github.com/mtwombley/gozm/dictionary"
	"github.com/mtwombley/gozm/zstring"
)

// buildDictionary lays out a two-separator, two-word v3 dictionary table
// at byte 0 of a fresh memory image: "open" and "west", each with 3
// bytes of unused data following its 4-byte encoded form.
func buildDictionary(t *testing.T) ([]uint8, *zstring.Alphabets) {
	t.Helper()

	alphabets := zstring.LoadAlphabets(nil, 3, 0)
	memory := make([]uint8, 64)

	memory[0] = 2 // two separators
	memory[1] = '.'
	memory[2] = ','

	const entryLength = 7 // 4 encoded bytes + 3 bytes of unused data
	memory[3] = entryLength
	binary.BigEndian.PutUint16(memory[4:6], 2) // two entries

	openEncoded := zstring.Encode("open", 3, alphabets, 6)
	westEncoded := zstring.Encode("west", 3, alphabets, 6)

	copy(memory[6:10], openEncoded)
	copy(memory[13:17], westEncoded)

	return memory, alphabets
}

func TestParseDictionaryLayout(t *testing.T) {
	memory, alphabets := buildDictionary(t)
	d := dictionary.Parse(memory, 0, 3, alphabets)

	if string(d.Separators) != ".," {
		t.Errorf("expected separators \".,\", got %q", d.Separators)
	}
	if d.EntryLength != 7 {
		t.Errorf("expected entry length 7, got %d", d.EntryLength)
	}
}

func TestFind(t *testing.T) {
	memory, alphabets := buildDictionary(t)
	d := dictionary.Parse(memory, 0, 3, alphabets)

	openEncoded := zstring.Encode("open", 3, alphabets, 6)
	if addr := d.Find(openEncoded); addr != 6 {
		t.Errorf("expected \"open\" at address 6, got %d", addr)
	}

	westEncoded := zstring.Encode("west", 3, alphabets, 6)
	if addr := d.Find(westEncoded); addr != 13 {
		t.Errorf("expected \"west\" at address 13, got %d", addr)
	}

	unknownEncoded := zstring.Encode("xyzzy", 3, alphabets, 6)
	if addr := d.Find(unknownEncoded); addr != 0 {
		t.Errorf("expected unknown word to miss, got address %d", addr)
	}
}

func TestTokenize(t *testing.T) {
	memory, alphabets := buildDictionary(t)
	d := dictionary.Parse(memory, 0, 3, alphabets)

	tokens := d.Tokenize("open,west", 1)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens (word, separator, word), got %d", len(tokens))
	}

	if tokens[0].Text != "open" || tokens[0].WordAddress != 6 || tokens[0].BufferOffset != 1 {
		t.Errorf("unexpected first token: %+v", tokens[0])
	}
	if tokens[1].Text != "," || tokens[1].BufferOffset != 5 {
		t.Errorf("unexpected separator token: %+v", tokens[1])
	}
	if tokens[2].Text != "west" || tokens[2].WordAddress != 13 || tokens[2].BufferOffset != 6 {
		t.Errorf("unexpected third token: %+v", tokens[2])
	}
}

func TestTokenizeUnknownWord(t *testing.T) {
	memory, alphabets := buildDictionary(t)
	d := dictionary.Parse(memory, 0, 3, alphabets)

	tokens := d.Tokenize("xyzzy", 1)
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].WordAddress != 0 {
		t.Errorf("expected unrecognised word to have address 0, got %d", tokens[0].WordAddress)
	}
}

func TestWriteParseTable(t *testing.T) {
	memory, alphabets := buildDictionary(t)
	d := dictionary.Parse(memory, 0, 3, alphabets)
	tokens := d.Tokenize("open,west", 1)

	const tableAddr = 30
	memory[tableAddr] = 0x7F // declared capacity byte, must survive untouched

	dictionary.WriteParseTable(memory, tableAddr, tokens, 10)

	if memory[tableAddr] != 0x7F {
		t.Errorf("expected capacity byte to be left alone, got %#x", memory[tableAddr])
	}
	if memory[tableAddr+1] != 3 {
		t.Errorf("expected word count 3, got %d", memory[tableAddr+1])
	}

	first := memory[tableAddr+2 : tableAddr+6]
	if binary.BigEndian.Uint16(first[0:2]) != 6 || first[2] != 4 || first[3] != 1 {
		t.Errorf("unexpected first parse entry: %v", first)
	}

	second := memory[tableAddr+6 : tableAddr+10]
	if binary.BigEndian.Uint16(second[0:2]) != 0 || second[2] != 1 || second[3] != 5 {
		t.Errorf("unexpected second parse entry: %v", second)
	}
}

func TestWriteParseTableTruncatesToMax(t *testing.T) {
	memory, alphabets := buildDictionary(t)
	d := dictionary.Parse(memory, 0, 3, alphabets)
	tokens := d.Tokenize("open,west", 1)

	dictionary.WriteParseTable(memory, 30, tokens, 1)

	if memory[31] != 1 {
		t.Errorf("expected word count clamped to maxTokens (1), got %d", memory[31])
	}
}
