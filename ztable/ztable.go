// Package ztable implements the fixed-width table primitives backing
// the scan_table, copy_table and print_table opcodes. None of this
// needs a third-party dependency: it is bit-for-bit work over an
// in-memory byte array the interpreter already owns, the kind of
// thing encoding/binary and plain slicing exist for.
package ztable

import (
	"encoding/binary"
	"strings"
)

// Print renders a table of height rows of width bytes, each row
// separated by skip bytes of stride, as newline-joined text.
func Print(memory []uint8, addr uint32, width uint16, height uint16, skip uint16) string {
	var b strings.Builder
	for row := uint16(0); row < height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		rowStart := addr + uint32(row)*uint32(width+skip)
		for col := uint16(0); col < width; col++ {
			b.WriteByte(memory[rowStart+uint32(col)])
		}
	}
	return b.String()
}

// Scan searches length consecutive fields of addr, each fieldSize
// bytes wide (encoded in the low 7 bits of form; bit 7 selects a
// 2-byte field compared as a word instead of a byte), for test.
// Returns the address of the first match, or 0.
func Scan(memory []uint8, test uint16, addr uint32, length uint16, form uint8) uint32 {
	fieldSize := uint32(form & 0b0111_1111)
	asWord := form&0b1000_0000 != 0
	if fieldSize == 0 {
		return 0
	}

	ptr := addr
	for i := uint16(0); i < length; i++ {
		var value uint16
		if asWord {
			value = binary.BigEndian.Uint16(memory[ptr : ptr+2])
		} else {
			value = uint16(memory[ptr])
		}
		if value == test {
			return ptr
		}
		ptr += fieldSize
	}
	return 0
}

// Copy copies |size| bytes from first to second. When second is 0,
// the |size| bytes at first are zeroed instead (the copy_table
// "clear" special case); a positive size copies via a scratch buffer
// so overlapping ranges don't corrupt mid-copy, a negative size
// copies forward byte by byte and allows that corruption (the
// standard explicitly permits it as a cheap forward memmove).
func Copy(memory []uint8, first uint32, second uint32, size int16) {
	count := uint32(size)
	if size < 0 {
		count = uint32(-int32(size))
	}

	switch {
	case second == 0:
		for i := uint32(0); i < count; i++ {
			memory[first+i] = 0
		}
	case size >= 0:
		tmp := make([]uint8, count)
		copy(tmp, memory[first:first+count])
		copy(memory[second:second+count], tmp)
	default:
		for i := uint32(0); i < count; i++ {
			memory[second+i] = memory[first+i]
		}
	}
}
