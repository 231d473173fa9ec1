// Package zobject implements the Z-Machine's object tree: a table of
// fixed-size entries (attributes, parent/sibling/child links, and a
// pointer to a property table) whose layout differs between versions
// 1-3 and 4 and above.
package zobject

import (
	"encoding/binary"
	"fmt"

	"github.com/mtwombley/gozm/zstring"
)

const (
	preambleWordsV3 = 31
	preambleWordsV4 = 63
	entryWidthV3    = 9
	entryWidthV4    = 14
)

// Entry is a snapshot of one object's tree fields. Attributes is
// always stored with its live bits at the top of the word regardless
// of version, so attribute-bit math is version independent: bit n
// (0 = most significant) lives at 1<<(63-n).
type Entry struct {
	ID              uint16
	Name            string
	Attributes      uint64
	Parent          uint16
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
	baseAddress     uint32
}

// Tree is a view over a story's memory image that knows how to locate
// and mutate object entries. It holds no state of its own beyond the
// addresses needed to do that; the memory image is the source of
// truth and is shared with the rest of the interpreter.
type Tree struct {
	Memory            []uint8
	Version           uint8
	ObjectTableBase   uint16
	AbbreviationsBase uint16
	Alphabets         *zstring.Alphabets
}

func New(memory []uint8, version uint8, objectTableBase, abbreviationsBase uint16, alphabets *zstring.Alphabets) *Tree {
	return &Tree{
		Memory:            memory,
		Version:           version,
		ObjectTableBase:   objectTableBase,
		AbbreviationsBase: abbreviationsBase,
		Alphabets:         alphabets,
	}
}

func (t *Tree) entryAddress(id uint16) uint32 {
	if t.Version >= 4 {
		return uint32(t.ObjectTableBase) + preambleWordsV4*2 + uint32(id-1)*entryWidthV4
	}
	return uint32(t.ObjectTableBase) + preambleWordsV3*2 + uint32(id-1)*entryWidthV3
}

// Get reads and decodes object id's entry, including its short name.
// id 0 is never a valid object.
func (t *Tree) Get(id uint16) Entry {
	if id == 0 {
		panic("zobject: object 0 does not exist")
	}

	base := t.entryAddress(id)
	mem := t.Memory

	var e Entry
	e.ID = id
	e.baseAddress = base

	if t.Version >= 4 {
		e.Attributes = (binary.BigEndian.Uint64(mem[base:base+8]) >> 16) << 16
		e.Parent = binary.BigEndian.Uint16(mem[base+6 : base+8])
		e.Sibling = binary.BigEndian.Uint16(mem[base+8 : base+10])
		e.Child = binary.BigEndian.Uint16(mem[base+10 : base+12])
		e.PropertyPointer = binary.BigEndian.Uint16(mem[base+12 : base+14])
	} else {
		e.Attributes = (binary.BigEndian.Uint64(mem[base:base+8]) >> 32) << 32
		e.Parent = uint16(mem[base+4])
		e.Sibling = uint16(mem[base+5])
		e.Child = uint16(mem[base+6])
		e.PropertyPointer = binary.BigEndian.Uint16(mem[base+7 : base+9])
	}

	name, _ := zstring.Decode(mem, uint32(e.PropertyPointer)+1, t.Version, t.Alphabets, t.AbbreviationsBase)
	e.Name = name

	return e
}

// TestAttribute reports whether attribute bit n is set on object id.
func (t *Tree) TestAttribute(id uint16, n uint16) bool {
	e := t.Get(id)
	return e.Attributes&attributeMask(n) != 0
}

func attributeMask(n uint16) uint64 {
	return uint64(1) << (63 - n)
}

func (t *Tree) SetAttribute(id uint16, n uint16)   { t.writeAttribute(id, n, true) }
func (t *Tree) ClearAttribute(id uint16, n uint16) { t.writeAttribute(id, n, false) }

func (t *Tree) writeAttribute(id uint16, n uint16, set bool) {
	e := t.Get(id)
	mask := attributeMask(n)
	if set {
		e.Attributes |= mask
	} else {
		e.Attributes &^= mask
	}
	binary.BigEndian.PutUint32(t.Memory[e.baseAddress:e.baseAddress+4], uint32(e.Attributes>>32))
	if t.Version >= 4 {
		binary.BigEndian.PutUint16(t.Memory[e.baseAddress+4:e.baseAddress+6], uint16(e.Attributes>>16))
	}
}

func (t *Tree) Parent(id uint16) uint16  { return t.Get(id).Parent }
func (t *Tree) Sibling(id uint16) uint16 { return t.Get(id).Sibling }
func (t *Tree) Child(id uint16) uint16   { return t.Get(id).Child }

func (t *Tree) SetParent(id, parent uint16)   { t.writeLink(id, parent, 0) }
func (t *Tree) SetSibling(id, sibling uint16) { t.writeLink(id, sibling, 1) }
func (t *Tree) SetChild(id, child uint16)     { t.writeLink(id, child, 2) }

// writeLink writes the parent(0)/sibling(1)/child(2) field of id.
func (t *Tree) writeLink(id, value uint16, which int) {
	base := t.entryAddress(id)
	if t.Version >= 4 {
		offset := base + 6 + uint32(which)*2
		binary.BigEndian.PutUint16(t.Memory[offset:offset+2], value)
	} else {
		offset := base + 4 + uint32(which)
		t.Memory[offset] = uint8(value)
	}
}

// Remove detaches id from its parent's child list, splicing its
// siblings together so no sibling chain is broken.
func (t *Tree) Remove(id uint16) {
	e := t.Get(id)
	if e.Parent == 0 {
		return
	}

	parent := t.Get(e.Parent)
	if parent.Child == id {
		t.SetChild(e.Parent, e.Sibling)
	} else {
		sib := parent.Child
		for sib != 0 {
			cur := t.Get(sib)
			if cur.Sibling == id {
				t.SetSibling(sib, e.Sibling)
				break
			}
			sib = cur.Sibling
		}
	}

	t.SetParent(id, 0)
	t.SetSibling(id, 0)
}

// Insert detaches id from wherever it is and makes it dst's new first
// child; dst's previous first child becomes id's sibling.
func (t *Tree) Insert(id, dst uint16) {
	t.Remove(id)

	previousChild := t.Child(dst)
	t.SetSibling(id, previousChild)
	t.SetParent(id, dst)
	t.SetChild(dst, id)
}

func (t *Tree) String(id uint16) string {
	e := t.Get(id)
	return fmt.Sprintf("#%d %q", e.ID, e.Name)
}
