package zmachine

import (
	"encoding/binary"
	"testing"
)

func expectPanic(t *testing.T, kind ErrorKind, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic of kind %s, got none", kind)
		}
		rerr, ok := r.(RuntimeError)
		if !ok {
			t.Fatalf("expected a RuntimeError panic, got %T: %v", r, r)
		}
		if rerr.Kind != kind {
			t.Fatalf("expected kind %s, got %s", kind, rerr.Kind)
		}
	}()
	fn()
}

func TestEvalStackPushPopPeek(t *testing.T) {
	z := &ZMachine{}

	z.eval.push(z, 10)
	z.eval.push(z, 20)

	if v := z.eval.peek(z); v != 20 {
		t.Fatalf("expected peek to return 20, got %d", v)
	}
	z.eval.replaceTop(z, 99)
	if v := z.eval.pop(z); v != 99 {
		t.Fatalf("expected replaced top to pop as 99, got %d", v)
	}
	if v := z.eval.pop(z); v != 10 {
		t.Fatalf("expected remaining value to be 10, got %d", v)
	}
	if d := z.eval.depth(); d != 0 {
		t.Fatalf("expected empty stack, depth %d", d)
	}
}

func TestEvalStackFrameBoundary(t *testing.T) {
	z := &ZMachine{}
	z.eval.push(z, 1)
	z.eval.pushFrameMarker()
	z.eval.push(z, 2)
	z.eval.push(z, 3)

	if v := z.eval.pop(z); v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
	if v := z.eval.pop(z); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}

	expectPanic(t, StackUnderflow, func() { z.eval.pop(z) })
}

func TestEvalStackUnwindToFrameMarker(t *testing.T) {
	z := &ZMachine{}
	z.eval.push(z, 1)
	z.eval.pushFrameMarker()
	z.eval.push(z, 2)
	z.eval.push(z, 3)

	z.eval.unwindToFrameMarker(z)

	if v := z.eval.pop(z); v != 1 {
		t.Fatalf("expected the caller's value 1 to survive, got %d", v)
	}
}

func TestCallStackPushPopDepth(t *testing.T) {
	z := &ZMachine{}
	z.calls.push(z, callFrame{returnPC: 100})
	z.calls.push(z, callFrame{returnPC: 200})

	if d := z.calls.depth(); d != 2 {
		t.Fatalf("expected depth 2, got %d", d)
	}

	f := z.calls.pop(z)
	if f.returnPC != 200 {
		t.Fatalf("expected to pop the most recent frame, got returnPC %d", f.returnPC)
	}

	expectPanic(t, StackUnderflow, func() {
		z.calls.pop(z)
		z.calls.pop(z)
	})
}

func newTestMachine(memSize int) *ZMachine {
	z := &ZMachine{Memory: make([]uint8, memSize)}
	z.Memory[hdrVersion] = 3
	binary.BigEndian.PutUint16(z.Memory[hdrStaticMemBase:], uint16(memSize))
	binary.BigEndian.PutUint16(z.Memory[hdrGlobalsBase:], 16)
	return z
}

func TestReadWriteLocalVariables(t *testing.T) {
	z := newTestMachine(64)
	z.calls.push(z, callFrame{locals: make([]uint16, 3)})

	z.writeVariable(1, 111, false)
	z.writeVariable(3, 333, false)

	if v := z.readVariable(1, false); v != 111 {
		t.Errorf("expected local 1 to be 111, got %d", v)
	}
	if v := z.readVariable(3, false); v != 333 {
		t.Errorf("expected local 3 to be 333, got %d", v)
	}
	if v := z.readVariable(2, false); v != 0 {
		t.Errorf("expected untouched local 2 to be 0, got %d", v)
	}
}

func TestReadWriteLocalOutOfRangePanics(t *testing.T) {
	z := newTestMachine(64)
	z.calls.push(z, callFrame{locals: make([]uint16, 1)})

	expectPanic(t, OutOfBounds, func() { z.readVariable(5, false) })
}

func TestReadWriteGlobals(t *testing.T) {
	z := newTestMachine(64)

	z.writeVariable(16, 0xBEEF, false) // variable 16 == global 0
	if v := z.readVariable(16, false); v != 0xBEEF {
		t.Errorf("expected global 0 to read back 0xBEEF, got %#x", v)
	}

	z.SetGlobal(2, 42)
	if v := z.Global(2); v != 42 {
		t.Errorf("expected global 2 to be 42, got %d", v)
	}
}

func TestVariableZeroPushesAndPops(t *testing.T) {
	z := newTestMachine(64)

	z.writeVariable(0, 5, false)
	z.writeVariable(0, 6, false)

	if v := z.readVariable(0, false); v != 6 {
		t.Errorf("expected top of stack 6, got %d", v)
	}
	if v := z.readVariable(0, false); v != 5 {
		t.Errorf("expected remaining value 5, got %d", v)
	}
}

func TestVariableZeroPeekDoesNotPop(t *testing.T) {
	z := newTestMachine(64)
	z.writeVariable(0, 7, false)

	if v := z.readVariable(0, true); v != 7 {
		t.Errorf("expected peek to see 7, got %d", v)
	}
	if v := z.readVariable(0, false); v != 7 {
		t.Errorf("expected peek not to have consumed the value, got %d", v)
	}
}

func TestPackedAddress(t *testing.T) {
	tests := []struct {
		version   uint8
		pa        uint16
		isRoutine bool
		want      uint32
	}{
		{3, 100, true, 200},
		{5, 100, true, 400},
		{8, 100, true, 800},
	}

	for _, tt := range tests {
		z := &ZMachine{Memory: make([]uint8, 64)}
		z.Memory[hdrVersion] = tt.version
		if got := z.packedAddress(tt.pa, tt.isRoutine); got != tt.want {
			t.Errorf("version %d: expected packed address %d, got %d", tt.version, tt.want, got)
		}
	}
}

func TestPackedAddressV7UsesRoutinesOffset(t *testing.T) {
	z := &ZMachine{Memory: make([]uint8, 64)}
	z.Memory[hdrVersion] = 7
	binary.BigEndian.PutUint16(z.Memory[hdrRoutinesOffset:], 10)
	binary.BigEndian.PutUint16(z.Memory[hdrStringsOffset:], 20)

	if got := z.packedAddress(100, true); got != 100*4+10*8 {
		t.Errorf("expected routine address %d, got %d", 100*4+10*8, got)
	}
	if got := z.packedAddress(100, false); got != 100*4+20*8 {
		t.Errorf("expected string address %d, got %d", 100*4+20*8, got)
	}
}

func TestReadBranchShortFormPositiveOffset(t *testing.T) {
	z := &ZMachine{Memory: make([]uint8, 16)}
	z.Memory[0] = 0xC5 // onTrue=true, short form, offset 5

	onTrue, dest, isReturn, _ := z.readBranch()
	if !onTrue || isReturn {
		t.Fatalf("expected a plain forward jump, got onTrue=%v isReturn=%v", onTrue, isReturn)
	}
	if dest != 4 { // pc after 1 byte (1) + offset(5) - 2
		t.Errorf("expected dest 4, got %d", dest)
	}
}

func TestReadBranchSpecialReturnOffsets(t *testing.T) {
	z := &ZMachine{Memory: []uint8{0xC0, 0xC1}}

	_, _, isReturn, returnValue := z.readBranch()
	if !isReturn || returnValue != 0 {
		t.Errorf("expected offset 0 to mean return false, got isReturn=%v value=%d", isReturn, returnValue)
	}

	_, _, isReturn, returnValue = z.readBranch()
	if !isReturn || returnValue != 1 {
		t.Errorf("expected offset 1 to mean return true, got isReturn=%v value=%d", isReturn, returnValue)
	}
}

func TestReadBranchLongFormNegativeOffset(t *testing.T) {
	z := &ZMachine{Memory: make([]uint8, 64)}
	z.pc = 50
	z.Memory[50] = 0xBF // onTrue, long form, high 6 bits of offset all set
	z.Memory[51] = 0xD8 // low byte, together encoding -40

	onTrue, dest, isReturn, _ := z.readBranch()
	if !onTrue || isReturn {
		t.Fatalf("unexpected isReturn=%v", isReturn)
	}
	if dest != 10 {
		t.Errorf("expected dest 10, got %d", dest)
	}
}

func TestBranchTakenCallsDoReturn(t *testing.T) {
	z := newTestMachine(64)
	z.calls.push(z, callFrame{returnPC: 42, storeTarget: discardResult})
	z.eval.pushFrameMarker()

	z.Memory[0] = 0xC0 // branch on true, offset 0 == return false
	z.pc = 0

	z.branch(true)

	if z.pc != 42 {
		t.Errorf("expected pc restored to caller's returnPC 42, got %d", z.pc)
	}
	if z.calls.depth() != 0 {
		t.Errorf("expected the frame to be popped, depth %d", z.calls.depth())
	}
}

func TestLoadStoreByteBoundsChecks(t *testing.T) {
	z := newTestMachine(16)

	expectPanic(t, OutOfBounds, func() { z.LoadByte(100) })

	z.Memory[hdrStaticMemBase] = 0
	z.Memory[hdrStaticMemBase+1] = 4 // static memory starts at byte 4
	expectPanic(t, OutOfBounds, func() { z.StoreByte(4, 1) })

	z.StoreByte(3, 0xAB)
	if z.LoadByte(3) != 0xAB {
		t.Errorf("expected dynamic-memory write to stick")
	}
}
