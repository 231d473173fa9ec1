package zmachine

import (
	"strings"

	"github.com/mtwombley/gozm/dictionary"
)

// defaultTerminators is the terminating-character set used when a
// story hasn't declared a custom table: newline always terminates a
// line read.
var defaultTerminators = []uint8{13}

// terminatingCharacters reads the v5+ custom terminator table if the
// header declares one, expanding the all-function-keys sentinel byte
// 255 into its 29 actual codes (129-154 and 252-254).
func (z *ZMachine) terminatingCharacters() []uint8 {
	terms := append([]uint8(nil), defaultTerminators...)
	if z.Version() < 5 {
		return terms
	}
	tableAddr := z.readHeaderWord(hdrTerminatingCharTable)
	if tableAddr == 0 {
		return terms
	}
	for {
		b := z.LoadByte(uint32(tableAddr))
		if b == 0 {
			break
		}
		switch {
		case b == 255:
			for c := uint8(129); c <= 154; c++ {
				terms = append(terms, c)
			}
			terms = append(terms, 252, 253, 254)
			return terms
		case (b >= 129 && b <= 154) || (b >= 252 && b <= 254):
			terms = append(terms, b)
		}
		tableAddr++
	}
	return terms
}

// updateStatusBar reimplements the automatically maintained v1-3
// status line, sourcing its two numeric fields from globals 17/18
// (score/turns or hours/minutes, depending on flag 1 bit 1) and the
// current location's short name from the object referenced by
// global 16.
func (z *ZMachine) updateStatusBar() {
	locationID := z.Global(0)
	name := ""
	if locationID != 0 {
		name = z.objects.Get(locationID).Name
	}

	isTimeGame := z.testFlags1Bit(flag1V3TimeGame)
	update := StatusBarUpdate{ObjectName: name, IsTimeGame: isTimeGame}
	if isTimeGame {
		update.Hours = uint8(z.Global(1))
		update.Minutes = uint8(z.Global(2))
	} else {
		update.Score = int16(z.Global(1))
		update.Turns = z.Global(2)
	}
	z.send(update)
}

// sread implements the sread/aread opcode: blocks on the host for a
// line of input, lowercases and copies it into the text buffer, and
// (unless the caller passed a null parse-buffer address) tokenises it
// against the active dictionary.
func (z *ZMachine) sread(textBuffer, parseBuffer uint32, timeoutTenths uint16) uint8 {
	if z.Version() <= 3 {
		z.updateStatusBar()
	}

	z.send(InputRequest{Kind: InputLine, TimeoutTenths: timeoutTenths})
	resp, ok := (<-z.from).(InputResponse)
	if !ok {
		z.fail(MalformedImage, "expected InputResponse from host")
	}

	text := strings.ToLower(resp.Text)

	maxLen := uint32(z.LoadByte(textBuffer))
	bufferStart := textBuffer + 1
	headerLen := 1
	if z.Version() >= 5 {
		bufferStart += 1 // existing-length byte follows max-length byte
		headerLen = 2
	}

	maxCopy := uint32(0)
	if maxLen > 0 {
		maxCopy = maxLen - 1
	}
	n := uint32(len(text))
	if n > maxCopy {
		n = maxCopy
	}
	for i := uint32(0); i < n; i++ {
		z.StoreByte(bufferStart+i, text[i])
	}

	terminator := uint8(13)
	if z.Version() < 5 {
		z.StoreByte(bufferStart+n, 0)
	} else {
		z.StoreByte(textBuffer+1, uint8(n))
	}

	if parseBuffer != 0 {
		tokens := z.dict.Tokenize(text[:n], headerLen)
		maxTokens := z.LoadByte(parseBuffer)
		dictionary.WriteParseTable(z.Memory, parseBuffer, tokens, maxTokens)
	}

	return terminator
}
