// Package zmachine implements the interpreter core: memory and header
// access, the instruction decoder and dispatch table, the call and
// evaluation stacks, and the opcode implementations that give them
// meaning. It knows nothing about terminals or files; everything it
// needs from the outside world arrives and leaves over a channel pair
// defined in io.go.
package zmachine

import (
	"fmt"

	"github.com/mtwombley/gozm/dictionary"
	"github.com/mtwombley/gozm/zobject"
	"github.com/mtwombley/gozm/zstring"
)

// RunState tracks whether the interpreter loop keeps stepping. The
// loop only ever sets StateRunning and StateQuit; the awaiting states
// are declared but never entered, since an opcode that needs the host
// blocks on the channel inside the step itself.
type RunState int

const (
	StateRunning RunState = iota
	StateAwaitingInput
	StateAwaitingSave
	StateAwaitingRestore
	StateQuit
)

// ZMachine is one running story: its memory image, its two stacks,
// and the text state (alphabets, screen model) layered on top.
type ZMachine struct {
	Memory []uint8

	pc             uint32
	lastOpcodeByte uint8

	eval  evalStack
	calls callStack

	rng *randomSource

	screen ScreenModel
	streams streamState

	alphabets *zstring.Alphabets
	objects   *zobject.Tree
	dict      *dictionary.Dictionary

	undo InMemorySaveStateCache

	state RunState

	// to/from is the host I/O channel pair; see io.go.
	to   chan<- any
	from <-chan any

	originalImage []uint8 // pristine copy that reset restores from
}

// LoadRom constructs a ZMachine from a story file image. The image is
// copied so the caller's slice can be reused or discarded.
func LoadRom(image []uint8, to chan<- any, from <-chan any) (*ZMachine, error) {
	if len(image) < int(hdrHeaderSize) {
		return nil, fmt.Errorf("zmachine: image of %d bytes is smaller than the header", len(image))
	}

	z := &ZMachine{
		Memory: append([]uint8(nil), image...),
		to:     to,
		from:   from,
		rng:    newRandomSource(),
	}

	switch z.Version() {
	case 1, 2, 3, 4, 5, 6, 7, 8:
	default:
		return nil, fmt.Errorf("zmachine: unsupported story version %d", z.Version())
	}

	z.originalImage = append([]uint8(nil), z.Memory...)
	z.reset()
	return z, nil
}

// reset restores the loaded image to its pristine dynamic-memory state
// and sets the PC to the story's initial entry point. Called by
// LoadRom; the `restart` opcode does not call it, it asks the host to
// build a fresh ZMachine instead.
func (z *ZMachine) reset() {
	copy(z.Memory, z.originalImage)
	z.initHeader()

	z.eval = evalStack{}
	z.calls = callStack{}
	z.undo = InMemorySaveStateCache{}
	z.streams = streamState{screen: true}

	fg := Color{255, 255, 255}
	bg := Color{0, 0, 0}
	z.screen = newScreenModel(fg, bg)

	z.alphabets = zstring.LoadAlphabets(z.Memory, z.Version(), z.AlphabetTableBase())
	z.objects = zobject.New(z.Memory, z.Version(), z.ObjectTableBase(), z.AbbreviationsBase(), z.alphabets)
	z.dict = dictionary.Parse(z.Memory, uint32(z.DictionaryBase()), z.Version(), z.alphabets)

	if z.Version() != 6 {
		z.pc = uint32(z.InitialPC())
	} else {
		// v6 initial PC is itself a packed routine address.
		z.pc = z.packedAddress(z.InitialPC(), true)
	}
	z.state = StateRunning
}

func (z *ZMachine) send(v any) {
	if z.to == nil {
		return
	}
	z.to <- v
}

// Run drives the fetch-decode-execute loop until the story quits or
// restarts; while the story waits on the host, Run stays blocked
// inside the waiting opcode. A RuntimeError recovered
// here is forwarded to the host rather than crashing the process. A
// restart sends Restart{} and stops; the host is responsible for
// reloading the original story bytes into a fresh ZMachine and
// resuming, exactly as it would after a quit.
func (z *ZMachine) Run() {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(RuntimeError); ok {
				z.send(rerr)
				z.state = StateQuit
				return
			}
			panic(r)
		}
	}()

	for z.state == StateRunning {
		z.step()
	}
}

// step executes exactly one instruction.
func (z *ZMachine) step() {
	z.lastOpcodeByte = z.Memory[z.pc]
	ins := z.decodeInstruction()
	z.execute(&ins)
}

// readVariable reads variable number n: 0 is the top of the
// evaluation stack (popped, unless peek is requested for
// stack-pointer-indirect opcodes), 1-15 are the current routine's
// locals, 16-255 are globals.
func (z *ZMachine) readVariable(n uint8, peek bool) uint16 {
	switch {
	case n == 0:
		if peek {
			return z.eval.peek(z)
		}
		return z.eval.pop(z)
	case n < 16:
		frame := z.calls.top(z)
		idx := int(n) - 1
		if idx >= len(frame.locals) {
			z.fail(OutOfBounds, "read of local L%02x but routine only has %d locals", n, len(frame.locals))
		}
		return frame.locals[idx]
	default:
		return z.Global(n - 16)
	}
}

// writeVariable is the inverse of readVariable. Variable 0 pushes a
// new value rather than replacing the top unless replace is set,
// matching the standard's distinction between ordinary stores and the
// stack-pointer-indirect opcodes.
func (z *ZMachine) writeVariable(n uint8, v uint16, replace bool) {
	switch {
	case n == 0:
		if replace {
			z.eval.replaceTop(z, v)
		} else {
			z.eval.push(z, v)
		}
	case n < 16:
		frame := z.calls.top(z)
		idx := int(n) - 1
		if idx >= len(frame.locals) {
			z.fail(OutOfBounds, "write of local L%02x but routine only has %d locals", n, len(frame.locals))
		}
		frame.locals[idx] = v
	default:
		z.SetGlobal(n-16, v)
	}
}

// readStoreTarget reads the destination-variable byte that follows
// opcodes documented as "store".
func (z *ZMachine) readStoreTarget() uint8 {
	return z.fetchByte()
}

// store writes a result to the variable named by a store-target byte
// already consumed by the caller.
func (z *ZMachine) store(target uint8, v uint16) {
	z.writeVariable(target, v, false)
}

// readBranch reads the branch field that follows opcodes documented
// as "branch" and returns its polarity (branch when the test is true
// or when it is false), the destination PC, and, for offsets 0 and 1,
// isReturn with the value to return instead of jumping.
func (z *ZMachine) readBranch() (onTrue bool, dest uint32, isReturn bool, returnValue uint16) {
	b1 := z.fetchByte()
	onTrue = b1&0x80 != 0

	var offset int32
	if b1&0x40 != 0 {
		offset = int32(b1 & 0x3f)
	} else {
		b2 := z.fetchByte()
		raw := (uint16(b1&0x3f) << 8) | uint16(b2)
		if raw&0x2000 != 0 {
			raw |= 0xc000 // sign-extend the 14-bit sint
		}
		offset = int32(int16(raw))
	}

	switch offset {
	case 0:
		return onTrue, 0, true, 0
	case 1:
		return onTrue, 0, true, 1
	default:
		return onTrue, uint32(int32(z.pc) + offset - 2), false, 0
	}
}

// branch consumes the branch field and, if test matches the branch's
// polarity, jumps (or returns rfalse/rtrue for offsets 0/1).
func (z *ZMachine) branch(test bool) {
	onTrue, dest, isReturn, returnValue := z.readBranch()
	if test != onTrue {
		return
	}
	if isReturn {
		z.doReturn(returnValue)
		return
	}
	z.pc = dest
}

// call invokes the routine at the packed address pa with the given
// argument list, storing its eventual result at target (or discarding
// it if target is discardResult, used for call_1n/call_2n/call_vn/
// call_vn2).
func (z *ZMachine) call(pa uint16, args []uint16, target int) {
	if pa == 0 {
		// Calling address 0 is defined to return false immediately.
		if target != discardResult {
			z.store(uint8(target), 0)
		}
		return
	}

	addr := z.packedAddress(pa, true)
	numLocals := z.LoadByte(addr)
	addr++

	locals := make([]uint16, numLocals)
	if z.Version() <= 4 {
		for i := uint8(0); i < numLocals; i++ {
			locals[i] = z.LoadWord(addr)
			addr += 2
		}
	}
	for i := range locals {
		if i < len(args) {
			locals[i] = args[i]
		}
	}

	z.eval.pushFrameMarker()
	z.calls.push(z, callFrame{
		returnPC:    z.pc,
		storeTarget: target,
		locals:      locals,
		argCount:    len(args),
		kind:        routineFunction,
	})
	z.pc = addr
}

// doReturn pops the active routine's frame, discards whatever it left
// on the evaluation stack, and resumes the caller, storing v unless
// the call was invoked as a procedure.
func (z *ZMachine) doReturn(v uint16) {
	frame := z.calls.pop(z)
	z.eval.unwindToFrameMarker(z)
	z.pc = frame.returnPC
	if frame.storeTarget != discardResult {
		z.store(uint8(frame.storeTarget), v)
	}
}

// currentArgCount backs the `check_arg_count` opcode.
func (z *ZMachine) currentArgCount() int {
	return z.calls.top(z).argCount
}
