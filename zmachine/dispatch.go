package zmachine

import (
	"strconv"

	"github.com/mtwombley/gozm/dictionary"
	"github.com/mtwombley/gozm/zstring"
	"github.com/mtwombley/gozm/ztable"
)

// execute carries out one decoded instruction, which has already
// consumed its opcode and operand bytes from the PC; implementations
// below consume whatever store-target, branch, or trailing text bytes
// their opcode documents.
func (z *ZMachine) execute(ins *instruction) {
	switch ins.count {
	case count0OP:
		z.exec0OP(ins)
	case count1OP:
		z.exec1OP(ins)
	case count2OP:
		z.exec2OP(ins)
	case countVAR:
		if ins.form == formExt {
			z.execEXT(ins)
		} else {
			z.execVAR(ins)
		}
	}
}

func (z *ZMachine) exec0OP(ins *instruction) {
	switch ins.number {
	case 0: // rtrue
		z.doReturn(1)
	case 1: // rfalse
		z.doReturn(0)
	case 2: // print
		text, words := zstring.Decode(z.Memory, z.pc, z.Version(), z.alphabets, z.AbbreviationsBase())
		z.pc += uint32(words) * 2
		z.appendText(text)
	case 3: // print_ret
		text, words := zstring.Decode(z.Memory, z.pc, z.Version(), z.alphabets, z.AbbreviationsBase())
		z.pc += uint32(words) * 2
		z.appendText(text)
		z.appendText("\n")
		z.doReturn(1)
	case 4: // nop
	case 5: // save (v1-3 branch form)
		z.doLegacySave()
	case 6: // restore (v1-3 branch form)
		z.doLegacyRestore()
	case 7: // restart
		z.state = StateQuit
		z.send(Restart{})
	case 8: // ret_popped
		z.doReturn(z.eval.pop(z))
	case 9: // pop / catch
		if z.Version() >= 5 {
			target := z.readStoreTarget()
			z.store(target, uint16(z.calls.depth()))
		} else {
			z.eval.pop(z)
		}
	case 10: // quit
		z.send(Quit{})
		z.state = StateQuit
	case 11: // new_line
		z.appendText("\n")
	case 12: // show_status (v3 only)
		z.updateStatusBar()
	case 13: // verify
		z.branch(z.verifyChecksum())
	case 15: // piracy
		z.branch(true)
	default:
		z.fail(UnknownOpcode, "unimplemented 0OP opcode number %d", ins.number)
	}
}

func (z *ZMachine) verifyChecksum() bool {
	declared := z.readHeaderWord(hdrFileChecksum)
	length := z.fileLength()
	if length == 0 || length > uint32(len(z.Memory)) {
		return false
	}
	var sum uint16
	for i := uint32(hdrHeaderSize); i < length; i++ {
		sum += uint16(z.Memory[i])
	}
	return sum == declared
}

func (z *ZMachine) exec1OP(ins *instruction) {
	a := ins.operands[0].Value(z)

	switch ins.number {
	case 0: // jz
		z.branch(a == 0)
	case 1: // get_sibling
		target := z.readStoreTarget()
		sibling := z.objects.Sibling(a)
		z.store(target, sibling)
		z.branch(sibling != 0)
	case 2: // get_child
		target := z.readStoreTarget()
		child := z.objects.Child(a)
		z.store(target, child)
		z.branch(child != 0)
	case 3: // get_parent
		target := z.readStoreTarget()
		z.store(target, z.objects.Parent(a))
	case 4: // get_prop_len
		target := z.readStoreTarget()
		z.store(target, z.objects.PropertyLengthAt(uint32(a)))
	case 5: // inc
		v := uint8(a)
		z.writeVariable(v, z.readVariable(v, true)+1, true)
	case 6: // dec
		v := uint8(a)
		z.writeVariable(v, z.readVariable(v, true)-1, true)
	case 7: // print_addr
		text, _ := zstring.Decode(z.Memory, uint32(a), z.Version(), z.alphabets, z.AbbreviationsBase())
		z.appendText(text)
	case 8: // call_1s
		target := z.readStoreTarget()
		z.call(a, nil, int(target))
	case 9: // remove_obj
		z.objects.Remove(a)
	case 10: // print_obj
		z.appendText(z.objects.Get(a).Name)
	case 11: // ret
		z.doReturn(a)
	case 12: // jump
		offset := int16(a)
		z.pc = uint32(int32(z.pc) + int32(offset) - 2)
	case 13: // print_paddr
		addr := z.packedAddress(a, false)
		text, _ := zstring.Decode(z.Memory, addr, z.Version(), z.alphabets, z.AbbreviationsBase())
		z.appendText(text)
	case 14: // load
		target := z.readStoreTarget()
		z.store(target, z.readVariable(uint8(a), true))
	case 15: // not (v1-4) / call_1n (v5+)
		if z.Version() < 5 {
			target := z.readStoreTarget()
			z.store(target, ^a)
		} else {
			z.call(a, nil, discardResult)
		}
	default:
		z.fail(UnknownOpcode, "unimplemented 1OP opcode number %d", ins.number)
	}
}

func (z *ZMachine) exec2OP(ins *instruction) {
	values := z.operandValues(ins)
	a := values[0]

	switch ins.number {
	case 1: // je
		matched := false
		for _, v := range values[1:] {
			if v == a {
				matched = true
				break
			}
		}
		z.branch(matched)
	case 2: // jl
		z.branch(int16(a) < int16(values[1]))
	case 3: // jg
		z.branch(int16(a) > int16(values[1]))
	case 4: // dec_chk
		v := uint8(a)
		newVal := int16(z.readVariable(v, true)) - 1
		z.writeVariable(v, uint16(newVal), true)
		z.branch(newVal < int16(values[1]))
	case 5: // inc_chk
		v := uint8(a)
		newVal := int16(z.readVariable(v, true)) + 1
		z.writeVariable(v, uint16(newVal), true)
		z.branch(newVal > int16(values[1]))
	case 6: // jin
		z.branch(z.objects.Parent(a) == values[1])
	case 7: // test
		z.branch(a&values[1] == values[1])
	case 8: // or
		target := z.readStoreTarget()
		z.store(target, a|values[1])
	case 9: // and
		target := z.readStoreTarget()
		z.store(target, a&values[1])
	case 10: // test_attr
		z.branch(z.objects.TestAttribute(a, values[1]))
	case 11: // set_attr
		z.objects.SetAttribute(a, values[1])
	case 12: // clear_attr
		z.objects.ClearAttribute(a, values[1])
	case 13: // store
		z.writeVariable(uint8(a), values[1], true)
	case 14: // insert_obj
		z.objects.Insert(a, values[1])
	case 15: // loadw
		target := z.readStoreTarget()
		z.store(target, z.LoadWord(uint32(a)+2*uint32(values[1])))
	case 16: // loadb
		target := z.readStoreTarget()
		z.store(target, uint16(z.LoadByte(uint32(a)+uint32(values[1]))))
	case 17: // get_prop
		target := z.readStoreTarget()
		z.store(target, z.objects.GetProperty(a, uint8(values[1])))
	case 18: // get_prop_addr
		target := z.readStoreTarget()
		z.store(target, uint16(z.objects.PropertyAddr(a, uint8(values[1]))))
	case 19: // get_next_prop
		target := z.readStoreTarget()
		z.store(target, uint16(z.objects.NextProperty(a, uint8(values[1]))))
	case 20: // add
		target := z.readStoreTarget()
		z.store(target, toUnsigned(toSigned(a)+toSigned(values[1])))
	case 21: // sub
		target := z.readStoreTarget()
		z.store(target, toUnsigned(toSigned(a)-toSigned(values[1])))
	case 22: // mul
		target := z.readStoreTarget()
		z.store(target, toUnsigned(toSigned(a)*toSigned(values[1])))
	case 23: // div
		target := z.readStoreTarget()
		denom := toSigned(values[1])
		if denom == 0 {
			z.store(target, 0)
			z.warn("division by zero at pc=0x%05x", z.pc)
			return
		}
		z.store(target, toUnsigned(toSigned(a)/denom))
	case 24: // mod
		target := z.readStoreTarget()
		denom := toSigned(values[1])
		if denom == 0 {
			z.store(target, 0)
			z.warn("modulo by zero at pc=0x%05x", z.pc)
			return
		}
		z.store(target, toUnsigned(toSigned(a)%denom))
	case 25: // call_2s
		target := z.readStoreTarget()
		z.call(a, values[1:], int(target))
	case 26: // call_2n
		z.call(a, values[1:], discardResult)
	case 27: // set_colour
		fg := z.screen.resolveColor(a, true)
		bg := z.screen.resolveColor(values[1], false)
		if z.screen.LowerWindowActive {
			z.screen.LowerWindowForeground, z.screen.LowerWindowBackground = fg, bg
		} else {
			z.screen.UpperWindowForeground, z.screen.UpperWindowBackground = fg, bg
		}
	case 28: // throw
		z.doThrow(values[1], a)
	default:
		z.fail(UnknownOpcode, "unimplemented 2OP opcode number %d", ins.number)
	}
}

// doThrow unwinds the call stack back to the frame captured by a
// prior catch (its depth passed as frameDepth) and returns v from it.
func (z *ZMachine) doThrow(frameDepth uint16, v uint16) {
	for z.calls.depth() > int(frameDepth) {
		z.calls.pop(z)
		z.eval.unwindToFrameMarker(z)
	}
	z.doReturn(v)
}

func (z *ZMachine) execVAR(ins *instruction) {
	values := z.operandValues(ins)

	switch ins.number {
	case 0: // call / call_vs
		target := z.readStoreTarget()
		var args []uint16
		if len(values) > 1 {
			args = values[1:]
		}
		z.call(values[0], args, int(target))
	case 1: // storew
		z.StoreWord(uint32(values[0])+2*uint32(values[1]), values[2])
	case 2: // storeb
		z.StoreByte(uint32(values[0])+uint32(values[1]), uint8(values[2]))
	case 3: // put_prop
		if err := z.objects.PutProperty(values[0], uint8(values[1]), values[2]); err != nil {
			z.fail(PropertyBadSize, "%s", err)
		}
	case 4: // sread / aread
		parseBuffer := uint32(0)
		if len(values) > 1 {
			parseBuffer = uint32(values[1])
		}
		timeout := uint16(0)
		if len(values) > 2 {
			timeout = values[2]
		}
		terminator := z.sread(uint32(values[0]), parseBuffer, timeout)
		if z.Version() >= 5 {
			target := z.readStoreTarget()
			z.store(target, uint16(terminator))
		}
	case 5: // print_char
		if r, ok := zstring.ZsciiToRune(uint8(values[0]), z.Memory, z.UnicodeExtensionTableBase()); ok {
			z.appendText(string(r))
		}
	case 6: // print_num
		z.appendText(strconv.Itoa(int(int16(values[0]))))
	case 7: // random
		target := z.readStoreTarget()
		z.store(target, z.rng.next(int16(values[0])))
	case 8: // push
		z.eval.push(z, values[0])
	case 9: // pull
		if z.Version() == 6 && len(values) == 0 {
			z.eval.pop(z) // v6's stack-argument form, unused by this host
			return
		}
		z.writeVariable(uint8(values[0]), z.eval.pop(z), true)
	case 10: // split_window
		z.screen.UpperWindowHeight = int(int16(values[0]))
		z.send(SplitWindow{Lines: int(int16(values[0]))})
	case 11: // set_window
		z.screen.LowerWindowActive = values[0] == 0
		z.send(SetWindow{Window: int(values[0])})
	case 12: // call_vs2
		target := z.readStoreTarget()
		z.call(values[0], values[1:], int(target))
	case 13: // erase_window
		window := int16(values[0])
		if window == -1 || window == -2 {
			z.screen.UpperWindowHeight = 0
			z.screen.LowerWindowActive = true
		}
		z.send(EraseWindow{Window: int(window)})
	case 14: // erase_line
		// screen-splitting extra: accepted, not rendered differently.
	case 15: // set_cursor
		if !z.screen.LowerWindowActive {
			z.screen.UpperWindowCursorY = int(values[0])
			z.screen.UpperWindowCursorX = int(values[1])
		}
		z.send(SetCursor{Line: int(values[0]), Column: int(values[1])})
	case 16: // get_cursor
		z.StoreWord(uint32(values[0]), uint16(z.screen.UpperWindowCursorY))
		z.StoreWord(uint32(values[0])+2, uint16(z.screen.UpperWindowCursorX))
	case 17: // set_text_style
		style := TextStyle(values[0])
		if z.screen.LowerWindowActive {
			z.screen.LowerWindowTextStyle = style
		} else {
			z.screen.UpperWindowTextStyle = style
		}
	case 18: // buffer_mode
		// this host never buffers output line-by-line; accepted and ignored.
	case 19: // output_stream
		tableAddr := uint16(0)
		if len(values) > 1 {
			tableAddr = values[1]
		}
		z.setOutputStream(int16(values[0]), tableAddr)
	case 20: // input_stream
		// only keyboard input is supported; accepted and ignored.
	case 21: // sound_effect
		// sound is a Non-goal; operands are validated by the decoder, nothing plays.
	case 22: // read_char
		z.send(InputRequest{Kind: InputChar})
		resp, ok := (<-z.from).(InputResponse)
		if !ok {
			z.fail(MalformedImage, "expected InputResponse from host")
		}
		target := z.readStoreTarget()
		var chr uint16 = 13
		if len(resp.Text) > 0 {
			chr = uint16(resp.Text[0])
		}
		z.store(target, chr)
	case 23: // scan_table
		form := uint8(0x82)
		if len(values) > 3 {
			form = uint8(values[3])
		}
		target := z.readStoreTarget()
		result := ztable.Scan(z.Memory, values[0], uint32(values[1]), values[2], form)
		z.store(target, uint16(result))
		z.branch(result != 0)
	case 24: // not
		target := z.readStoreTarget()
		z.store(target, ^values[0])
	case 25: // call_vn
		z.call(values[0], values[1:], discardResult)
	case 26: // call_vn2
		z.call(values[0], values[1:], discardResult)
	case 27: // tokenise
		text := readNullTerminatedBuffer(z, uint32(values[0]))
		dict := z.dict
		if len(values) > 2 && values[2] != 0 {
			dict = z.parseCustomDictionary(uint32(values[2]))
		}
		headerLen := 1
		if z.Version() >= 5 {
			headerLen = 2
		}
		tokens := dict.Tokenize(text, headerLen)
		maxTokens := z.LoadByte(uint32(values[1]))
		dictionary.WriteParseTable(z.Memory, uint32(values[1]), tokens, maxTokens)
	case 28: // encode_text
		zchrs := zstring.Encode(readLengthPrefixedBuffer(z, uint32(values[0]), uint8(values[1]), uint8(values[2])), z.Version(), z.alphabets, 9)
		for i, b := range zchrs {
			z.StoreByte(uint32(values[3])+uint32(i), b)
		}
	case 29: // copy_table
		ztable.Copy(z.Memory, uint32(values[0]), uint32(values[1]), int16(values[2]))
	case 30: // print_table
		height, skip := uint16(1), uint16(0)
		if len(values) > 2 {
			height = values[2]
		}
		if len(values) > 3 {
			skip = values[3]
		}
		z.appendText(ztable.Print(z.Memory, uint32(values[0]), values[1], height, skip))
	case 31: // check_arg_count
		z.branch(int(values[0]) <= z.currentArgCount())
	default:
		z.fail(UnknownOpcode, "unimplemented VAR opcode number %d", ins.number)
	}
}

func readNullTerminatedBuffer(z *ZMachine, textBuffer uint32) string {
	start := textBuffer + 1
	var b []byte
	for {
		c := z.LoadByte(start + uint32(len(b)))
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	return string(b)
}

func readLengthPrefixedBuffer(z *ZMachine, addr uint32, length, from uint8) string {
	b := make([]byte, length)
	for i := uint8(0); i < length; i++ {
		b[i] = z.LoadByte(addr + uint32(from) + uint32(i))
	}
	return string(b)
}

func (z *ZMachine) parseCustomDictionary(addr uint32) *dictionary.Dictionary {
	return dictionary.Parse(z.Memory, addr, z.Version(), z.alphabets)
}

func (z *ZMachine) execEXT(ins *instruction) {
	values := z.operandValues(ins)

	switch ins.number {
	case 0: // save (EXT form, v5+)
		z.doTableSave(values)
	case 1: // restore (EXT form, v5+)
		z.doTableRestore(values)
	case 2: // log_shift
		n, places := values[0], int16(values[1])
		target := z.readStoreTarget()
		if places >= 0 {
			z.store(target, n<<uint16(places))
		} else {
			z.store(target, n>>uint16(-places))
		}
	case 3: // art_shift
		n, places := int16(values[0]), int16(values[1])
		target := z.readStoreTarget()
		if places >= 0 {
			z.store(target, uint16(n<<uint16(places)))
		} else {
			z.store(target, uint16(n>>uint16(-places)))
		}
	case 4: // set_font
		target := z.readStoreTarget()
		z.store(target, uint16(z.screen.CurrentFont))
		if f := Font(values[0]); f == FontNormal || f == FontFixedPitch {
			z.screen.CurrentFont = f
		}
	case 9: // save_undo
		target := z.readStoreTarget()
		z.store(target, z.saveUndo())
	case 10: // restore_undo
		target := z.readStoreTarget()
		z.store(target, z.restoreUndo())
	case 11: // print_unicode
		if r, ok := zstring.ZsciiToRune(uint8(values[0]), z.Memory, z.UnicodeExtensionTableBase()); ok {
			z.appendText(string(r))
		} else {
			z.appendText(string(rune(values[0])))
		}
	case 12: // check_unicode
		target := z.readStoreTarget()
		_, ok := zstring.ZsciiToRune(uint8(values[0]), z.Memory, z.UnicodeExtensionTableBase())
		result := uint16(0)
		if ok {
			result = 0b11
		}
		z.store(target, result)
	case 13: // set_true_colour
		// true colour is a Non-goal beyond the 2-/8-bit palette in screen.go.
	default:
		z.fail(UnknownOpcode, "unimplemented EXT opcode number %d", ins.number)
	}
}

// doLegacySave/doLegacyRestore implement the v1-3 0OP forms of
// save/restore, which branch on success instead of storing a result.
func (z *ZMachine) doLegacySave() {
	z.send(Save{Prompt: true})
	resp, ok := (<-z.from).(SaveResponse)
	if !ok {
		z.fail(MalformedImage, "expected SaveResponse from host")
	}
	z.branch(resp.Success)
}

func (z *ZMachine) doLegacyRestore() {
	z.send(Restore{Prompt: true})
	resp, ok := (<-z.from).(RestoreResponse)
	if !ok {
		z.fail(MalformedImage, "expected RestoreResponse from host")
	}
	if resp.Success && len(resp.Data) > 0 {
		z.ImportSaveState(resp.Data)
	}
	z.branch(resp.Success)
}

// doTableSave/doTableRestore implement the v4+ VAR/EXT forms, which
// store a result code instead of branching, and support the v5
// auxiliary (partial-table) variant when operands are supplied.
func (z *ZMachine) doTableSave(values []uint16) {
	save := Save{Prompt: true}
	if len(values) >= 2 {
		save.Prompt = false
		save.Address = uint32(values[0])
		save.NumBytes = uint32(values[1])
	}
	if len(values) >= 3 {
		save.Filename = z.readSaveFilename(uint32(values[2]))
	}

	var data []byte
	if save.NumBytes == 0 {
		data = z.ExportSaveState()
	} else {
		data = make([]byte, save.NumBytes)
		for i := uint32(0); i < save.NumBytes; i++ {
			data[i] = z.LoadByte(save.Address + i)
		}
	}
	save.Data = data

	z.send(save)
	resp, ok := (<-z.from).(SaveResponse)
	if !ok {
		z.fail(MalformedImage, "expected SaveResponse from host")
	}
	target := z.readStoreTarget()
	z.store(target, resp.Result)
}

func (z *ZMachine) doTableRestore(values []uint16) {
	restore := Restore{Prompt: true}
	if len(values) >= 2 {
		restore.Prompt = false
		restore.Address = uint32(values[0])
		restore.NumBytes = uint32(values[1])
	}
	if len(values) >= 3 {
		restore.Filename = z.readSaveFilename(uint32(values[2]))
	}

	z.send(restore)
	resp, ok := (<-z.from).(RestoreResponse)
	if !ok {
		z.fail(MalformedImage, "expected RestoreResponse from host")
	}

	target := z.readStoreTarget()
	if !resp.Success {
		z.store(target, 0)
		return
	}

	if restore.Address != 0 {
		for i, b := range resp.Data {
			if uint32(i) >= restore.NumBytes {
				break
			}
			z.StoreByte(restore.Address+uint32(i), b)
		}
		z.store(target, uint16(len(resp.Data)))
		return
	}

	z.ImportSaveState(resp.Data)
}
