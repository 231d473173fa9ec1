package zobject_test

import (
	"encoding/binary"
	"testing"

	"github.com/mtwombley/gozm/zobject"
	"github.com/mtwombley/gozm/zstring"
)

const (
	preambleWordsV3 = 31
	entryWidthV3    = 9
)

func entryAddressV3(objectTableBase uint16, id uint16) uint32 {
	return uint32(objectTableBase) + preambleWordsV3*2 + uint32(id-1)*entryWidthV3
}

// buildV3Tree constructs a synthetic version-3 object table with three
// objects (1, 2, 3), all sharing a property table at propTableAddr, and
// returns a ready-to-use Tree.
func buildV3Tree(t *testing.T) (*zobject.Tree, uint16) {
	t.Helper()

	const objectTableBase = 0
	const propTableAddr = 200

	memory := make([]uint8, 512)
	alphabets := zstring.LoadAlphabets(nil, 3, 0)

	name := zstring.Encode("Cave", 3, alphabets, 6)
	memory[propTableAddr] = uint8(len(name) / 2)
	copy(memory[propTableAddr+1:], name)

	propsAddr := propTableAddr + 1 + len(name)
	// Properties in descending order: 7 (len 1), 5 (len 1), 3 (len 2).
	memory[propsAddr] = 7
	memory[propsAddr+1] = 0x11
	memory[propsAddr+2] = 5
	memory[propsAddr+3] = 0x2A
	memory[propsAddr+4] = 3 | (1 << 5) // length 2
	binary.BigEndian.PutUint16(memory[propsAddr+5:propsAddr+7], 0x0009)
	memory[propsAddr+7] = 0 // terminator

	// Default property 9's preamble word, for the fallback-to-default test.
	binary.BigEndian.PutUint16(memory[2*(9-1):2*(9-1)+2], 0x0005)

	for id := uint16(1); id <= 3; id++ {
		base := entryAddressV3(objectTableBase, id)
		binary.BigEndian.PutUint16(memory[base+7:base+9], uint16(propTableAddr))
	}

	tree := zobject.New(memory, 3, objectTableBase, 0, alphabets)
	return tree, propTableAddr
}

func TestZerothObjectPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("retrieving object 0 should panic")
		}
	}()

	tree, _ := buildV3Tree(t)
	tree.Get(0)
}

func TestGetObjectName(t *testing.T) {
	tree, _ := buildV3Tree(t)

	obj := tree.Get(1)
	if obj.Name != "Cave" {
		t.Errorf("expected name %q, got %q", "Cave", obj.Name)
	}
	if obj.Parent != 0 || obj.Sibling != 0 || obj.Child != 0 {
		t.Errorf("expected a freshly built object to have no links, got %+v", obj)
	}
}

func TestPropertyWalkAndLookup(t *testing.T) {
	tree, _ := buildV3Tree(t)

	if n := tree.FirstProperty(1); n != 7 {
		t.Fatalf("expected first property 7, got %d", n)
	}
	if n := tree.NextProperty(1, 7); n != 5 {
		t.Fatalf("expected property after 7 to be 5, got %d", n)
	}
	if n := tree.NextProperty(1, 5); n != 3 {
		t.Fatalf("expected property after 5 to be 3, got %d", n)
	}
	if n := tree.NextProperty(1, 3); n != 0 {
		t.Fatalf("expected property after 3 to be the terminator, got %d", n)
	}

	if v := tree.GetProperty(1, 7); v != 0x11 {
		t.Errorf("expected property 7 to be 0x11, got %#x", v)
	}
	if v := tree.GetProperty(1, 3); v != 0x0009 {
		t.Errorf("expected property 3 to be 0x0009, got %#x", v)
	}

	// Property 9 doesn't exist on this object; falls back to the
	// object table's default-property preamble.
	if v := tree.GetProperty(1, 9); v != 0x0005 {
		t.Errorf("expected default property 9 to be 0x0005, got %#x", v)
	}
}

func TestPutProperty(t *testing.T) {
	tree, _ := buildV3Tree(t)

	if err := tree.PutProperty(1, 5, 0x7B); err != nil {
		t.Fatalf("unexpected error writing property 5: %v", err)
	}
	if v := tree.GetProperty(1, 5); v != 0x7B {
		t.Errorf("expected property 5 to now be 0x7B, got %#x", v)
	}

	if err := tree.PutProperty(1, 9, 1); err == nil {
		t.Error("expected an error writing a property the object doesn't have")
	}
}

func TestAttributes(t *testing.T) {
	tree, _ := buildV3Tree(t)

	if tree.TestAttribute(1, 10) {
		t.Error("attribute 10 should start clear")
	}

	tree.SetAttribute(1, 10)
	if !tree.TestAttribute(1, 10) {
		t.Error("setting attribute 10 didn't take")
	}
	if tree.TestAttribute(1, 11) {
		t.Error("setting attribute 10 should not set attribute 11")
	}

	tree.ClearAttribute(1, 10)
	if tree.TestAttribute(1, 10) {
		t.Error("clearing attribute 10 didn't take")
	}
}

func TestInsertAndRemove(t *testing.T) {
	tree, _ := buildV3Tree(t)

	tree.Insert(2, 1)
	tree.Insert(3, 1)

	if tree.Child(1) != 3 {
		t.Fatalf("expected 3 to be object 1's first child, got %d", tree.Child(1))
	}
	if tree.Sibling(3) != 2 {
		t.Fatalf("expected 2 to be 3's sibling, got %d", tree.Sibling(3))
	}
	if tree.Parent(2) != 1 || tree.Parent(3) != 1 {
		t.Fatalf("expected both 2 and 3 to have parent 1")
	}

	tree.Remove(3)
	if tree.Parent(3) != 0 {
		t.Errorf("expected removed object to have no parent, got %d", tree.Parent(3))
	}
	if tree.Child(1) != 2 {
		t.Errorf("expected 2 to become object 1's child after removing 3, got %d", tree.Child(1))
	}
}
