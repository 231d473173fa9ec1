package zmachine

import "encoding/binary"

// LoadByte reads a single byte at a as an unsigned 16-bit address.
func (z *ZMachine) LoadByte(a uint32) uint8 {
	if a >= uint32(len(z.Memory)) {
		z.fail(OutOfBounds, "read byte at 0x%05x beyond image of length 0x%05x", a, len(z.Memory))
	}
	return z.Memory[a]
}

// LoadWord reads the big-endian word at a, a and a+1.
func (z *ZMachine) LoadWord(a uint32) uint16 {
	if a+1 >= uint32(len(z.Memory)) {
		z.fail(OutOfBounds, "read word at 0x%05x beyond image of length 0x%05x", a, len(z.Memory))
	}
	return binary.BigEndian.Uint16(z.Memory[a : a+2])
}

// StoreByte writes v at a. Writes above static memory are rejected as
// OutOfBounds rather than silently accepted.
func (z *ZMachine) StoreByte(a uint32, v uint8) {
	if a >= uint32(z.StaticMemoryBase()) {
		z.fail(OutOfBounds, "write byte at 0x%05x is not in dynamic memory (static base 0x%04x)", a, z.StaticMemoryBase())
	}
	z.Memory[a] = v
}

// StoreWord writes v, truncated to 16 bits, at a and a+1.
func (z *ZMachine) StoreWord(a uint32, v uint16) {
	if a+1 >= uint32(z.StaticMemoryBase()) {
		z.fail(OutOfBounds, "write word at 0x%05x is not in dynamic memory (static base 0x%04x)", a, z.StaticMemoryBase())
	}
	binary.BigEndian.PutUint16(z.Memory[a:a+2], v)
}

// Global reads global variable n (0x10..0xff in the variable-number
// space; the caller passes the 0-based index into the globals table).
func (z *ZMachine) Global(n uint8) uint16 {
	addr := uint32(z.GlobalsBase()) + 2*uint32(n)
	return z.LoadWord(addr)
}

func (z *ZMachine) SetGlobal(n uint8, v uint16) {
	addr := uint32(z.GlobalsBase()) + 2*uint32(n)
	z.StoreWord(addr, v)
}

// packedAddress unpacks a routine or string packed address per the
// story's version. isRoutine only matters for v6/7, which offset
// routine and string addresses differently.
func (z *ZMachine) packedAddress(pa uint16, isRoutine bool) uint32 {
	switch {
	case z.Version() <= 3:
		return uint32(pa) * 2
	case z.Version() <= 5:
		return uint32(pa) * 4
	case z.Version() <= 7:
		if isRoutine {
			return uint32(pa)*4 + uint32(z.RoutinesOffset())*8
		}
		return uint32(pa)*4 + uint32(z.StringsOffset())*8
	default: // 8
		return uint32(pa) * 8
	}
}
