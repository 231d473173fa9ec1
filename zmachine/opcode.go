package zmachine

// operandType is the 2-bit tag on each operand in an instruction.
type operandType uint8

const (
	opLargeConstant operandType = 0b00
	opSmallConstant operandType = 0b01
	opVariable      operandType = 0b10
	opOmitted       operandType = 0b11
)

type opcodeForm uint8

const (
	formLong  opcodeForm = 0b00
	formExt   opcodeForm = 0b01
	formShort opcodeForm = 0b10
	formVar   opcodeForm = 0b11
)

// operandCount classifies an instruction by how many operands its
// form implies before the operand-type bytes are read; VAR and EXT
// forms carry their real count in the type bytes themselves.
type operandCount uint8

const (
	count0OP operandCount = iota
	count1OP
	count2OP
	countVAR
	countEXT
)

// operand retains the raw operand as decoded (type + either an
// immediate value or a variable number) and dereferences lazily, at
// most once, the first time Value is called.
type operand struct {
	kind  operandType
	raw   uint16 // immediate value, or a variable number if kind == opVariable
	cache *uint16
}

// Value reads the operand, consulting the evaluation stack or a
// variable slot only the first time it's called.
func (o *operand) Value(z *ZMachine) uint16 {
	if o.cache != nil {
		return *o.cache
	}
	var v uint16
	switch o.kind {
	case opVariable:
		v = z.readVariable(uint8(o.raw), false)
	default:
		v = o.raw
	}
	o.cache = &v
	return v
}

// instruction is one fully decoded opcode: its classification and its
// (lazily-valued) operand list.
type instruction struct {
	opcodeByte uint8 // the byte used for VAR/EXT-form dispatch; the raw opcode byte otherwise
	form       opcodeForm
	count      operandCount
	number     uint8
	operands   []operand
}

// isExtendedCallForm reports whether opcodeNumber (within VAR form)
// takes a double operand-type byte, giving up to 8 operands instead
// of 4: call_vs2 (12) and call_vn2 (26).
func isExtendedCallForm(opcodeNumber uint8) bool {
	return opcodeNumber == 12 || opcodeNumber == 26
}

func (z *ZMachine) decodeVariableOperands(ins *instruction) {
	typeByte := z.fetchByte()
	var typeByte2 uint8
	maxOperands := 4
	if ins.form == formVar && ins.count == countVAR && isExtendedCallForm(ins.number) {
		typeByte2 = z.fetchByte()
		maxOperands = 8
	}

	for i := 0; i < maxOperands; i++ {
		var t operandType
		if i < 4 {
			t = operandType((typeByte >> uint(2*(3-i))) & 0b11)
		} else {
			t = operandType((typeByte2 >> uint(2*(7-i))) & 0b11)
		}
		if t == opOmitted {
			break
		}

		switch t {
		case opSmallConstant, opVariable:
			ins.operands = append(ins.operands, operand{kind: t, raw: uint16(z.fetchByte())})
		case opLargeConstant:
			ins.operands = append(ins.operands, operand{kind: t, raw: z.fetchWord()})
		}
	}
}

// decodeInstruction fetches and classifies the instruction at the
// current PC, consuming its operand bytes (but not any trailing
// branch/store/text bytes, which opcode implementations read
// themselves once they know the opcode).
func (z *ZMachine) decodeInstruction() instruction {
	first := z.fetchByte()
	var ins instruction
	ins.form = opcodeForm(first >> 6)
	ins.opcodeByte = first

	switch {
	case first == 0xBE && z.Version() >= 5:
		ins.opcodeByte = z.fetchByte()
		ins.number = ins.opcodeByte
		ins.form = formExt
		ins.count = countVAR
		z.decodeVariableOperands(&ins)

	case ins.form == formVar:
		ins.number = first & 0b1_1111
		if (first>>5)&1 == 0 {
			ins.count = count2OP
		} else {
			ins.count = countVAR
		}
		z.decodeVariableOperands(&ins)

	case ins.form == formShort:
		ins.number = first & 0b1111
		t := operandType((first >> 4) & 0b11)
		switch t {
		case opLargeConstant:
			ins.operands = append(ins.operands, operand{kind: t, raw: z.fetchWord()})
			ins.count = count1OP
		case opSmallConstant, opVariable:
			ins.operands = append(ins.operands, operand{kind: t, raw: uint16(z.fetchByte())})
			ins.count = count1OP
		default:
			ins.count = count0OP
		}

	default: // long form, always 2OP
		ins.number = first & 0b1_1111
		t1, t2 := opSmallConstant, opSmallConstant
		if (first>>6)&1 == 1 {
			t1 = opVariable
		}
		if (first>>5)&1 == 1 {
			t2 = opVariable
		}
		ins.count = count2OP
		ins.operands = append(ins.operands,
			operand{kind: t1, raw: uint16(z.fetchByte())},
			operand{kind: t2, raw: uint16(z.fetchByte())})
	}

	return ins
}

func (z *ZMachine) fetchByte() uint8 {
	b := z.LoadByte(uint32(z.pc))
	z.pc++
	return b
}

func (z *ZMachine) fetchWord() uint16 {
	w := z.LoadWord(uint32(z.pc))
	z.pc += 2
	return w
}

// operandValues is a convenience for opcodes that just want every
// operand's resolved value, in order.
func (z *ZMachine) operandValues(ins *instruction) []uint16 {
	values := make([]uint16, len(ins.operands))
	for i := range ins.operands {
		values[i] = ins.operands[i].Value(z)
	}
	return values
}
