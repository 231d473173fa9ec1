package ztable_test

import (
	"encoding/binary"
	"testing"

	"github.com/mtwombley/gozm/ztable"
)

func TestPrint(t *testing.T) {
	memory := []uint8{
		'a', 'b', 'c', 0, 0, // row 0, width 3, skip 2
		'd', 'e', 'f', 0, 0, // row 1
		'g', 'h', 'i', // row 2
	}

	got := ztable.Print(memory, 0, 3, 3, 2)
	want := "abc\ndef\nghi"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestScanByteField(t *testing.T) {
	memory := []uint8{10, 20, 30, 40, 50}

	if addr := ztable.Scan(memory, 30, 0, 5, 1); addr != 2 {
		t.Errorf("expected match at address 2, got %d", addr)
	}
	if addr := ztable.Scan(memory, 99, 0, 5, 1); addr != 0 {
		t.Errorf("expected no match to return 0, got %d", addr)
	}
}

func TestScanWordField(t *testing.T) {
	memory := make([]uint8, 8)
	binary.BigEndian.PutUint16(memory[0:2], 0x1111)
	binary.BigEndian.PutUint16(memory[2:4], 0x2222)
	binary.BigEndian.PutUint16(memory[4:6], 0x3333)
	binary.BigEndian.PutUint16(memory[6:8], 0x4444)

	addr := ztable.Scan(memory, 0x3333, 0, 4, 0b1000_0010) // word field, size 2
	if addr != 4 {
		t.Errorf("expected match at address 4, got %d", addr)
	}
}

func TestScanZeroFieldSizeNeverMatches(t *testing.T) {
	memory := []uint8{1, 2, 3}
	if addr := ztable.Scan(memory, 1, 0, 3, 0); addr != 0 {
		t.Errorf("expected zero field size to never match, got %d", addr)
	}
}

func TestCopyNonOverlapping(t *testing.T) {
	memory := make([]uint8, 16)
	copy(memory[0:4], []uint8{1, 2, 3, 4})

	ztable.Copy(memory, 0, 8, 4)

	if got := memory[8:12]; got[0] != 1 || got[1] != 2 || got[2] != 3 || got[3] != 4 {
		t.Errorf("expected copied bytes at destination, got %v", got)
	}
}

func TestCopyZeroesFirstWhenSecondIsZero(t *testing.T) {
	memory := []uint8{5, 6, 7, 8}
	ztable.Copy(memory, 0, 0, 4)

	for i, b := range memory {
		if b != 0 {
			t.Errorf("expected byte %d to be zeroed, got %d", i, b)
		}
	}
}

func TestCopyOverlappingForward(t *testing.T) {
	// source [0:4] and dest [2:6] overlap; negative size permits the
	// standard's cheap forward memmove semantics rather than a safe copy.
	memory := []uint8{1, 2, 3, 4, 0, 0}
	ztable.Copy(memory, 0, 2, -4)

	if memory[2] != 1 || memory[3] != 2 {
		t.Errorf("expected forward-propagated overlap copy, got %v", memory)
	}
}
