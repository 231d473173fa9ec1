package zobject

import "encoding/binary"

// Property is a decoded property-table entry: a number, the size and
// address of its data, and the header width that preceded it (needed
// to step to the next property in the table).
type Property struct {
	Number      uint8
	Length      uint8
	DataAddress uint32
	headerLen   uint8
}

// propertyAtAddress decodes the property whose size header starts at
// addr, per the version-dependent header encoding in spec.md S3.
func (t *Tree) propertyAtAddress(addr uint32) Property {
	sizeByte := t.Memory[addr]

	if t.Version <= 3 {
		return Property{
			Number:      sizeByte & 0b1_1111,
			Length:      (sizeByte >> 5) + 1,
			DataAddress: addr + 1,
			headerLen:   1,
		}
	}

	if sizeByte&0b1000_0000 == 0 {
		length := uint8(1)
		if sizeByte&0b0100_0000 != 0 {
			length = 2
		}
		return Property{
			Number:      sizeByte & 0b11_1111,
			Length:      length,
			DataAddress: addr + 1,
			headerLen:   1,
		}
	}

	lengthByte := t.Memory[addr+1]
	length := lengthByte & 0b11_1111
	if length == 0 {
		length = 64
	}
	return Property{
		Number:      sizeByte & 0b11_1111,
		Length:      length,
		DataAddress: addr + 2,
		headerLen:   2,
	}
}

// PropertyLengthAt implements the "length from the byte before a data
// address" lookup that get_prop_len exposes directly to game code.
func (t *Tree) PropertyLengthAt(dataAddress uint32) uint16 {
	if dataAddress == 0 {
		return 0
	}
	prev := t.Memory[dataAddress-1]
	if t.Version <= 3 {
		return uint16(prev>>5) + 1
	}
	if prev&0b1000_0000 == 0 {
		if prev&0b0100_0000 != 0 {
			return 2
		}
		return 1
	}
	length := prev & 0b11_1111
	if length == 0 {
		return 64
	}
	return uint16(length)
}

func (t *Tree) propertyTableStart(id uint16) uint32 {
	e := t.Get(id)
	nameLengthWords := t.Memory[e.PropertyPointer]
	return uint32(e.PropertyPointer) + 1 + uint32(nameLengthWords)*2
}

// FirstProperty returns the number of object id's first property, or
// 0 if it has none.
func (t *Tree) FirstProperty(id uint16) uint8 {
	addr := t.propertyTableStart(id)
	if t.Memory[addr] == 0 {
		return 0
	}
	return t.propertyAtAddress(addr).Number
}

// NextProperty returns the property number after n on object id, or 0
// if n was the last one. n == 0 is equivalent to FirstProperty.
func (t *Tree) NextProperty(id uint16, n uint8) uint8 {
	if n == 0 {
		return t.FirstProperty(id)
	}

	prop, found := t.findProperty(id, n)
	if !found {
		panic("zobject: next_property on a property the object does not have")
	}
	nextAddr := prop.DataAddress + uint32(prop.Length)
	if t.Memory[nextAddr] == 0 {
		return 0
	}
	return t.propertyAtAddress(nextAddr).Number
}

// findProperty walks the descending-order property list looking for
// n, returning its decoded header/data or ok=false if absent.
func (t *Tree) findProperty(id uint16, n uint8) (Property, bool) {
	addr := t.propertyTableStart(id)
	for t.Memory[addr] != 0 {
		prop := t.propertyAtAddress(addr)
		if prop.Number == n {
			return prop, true
		}
		if prop.Number < n {
			return Property{}, false // properties are stored in descending order
		}
		addr = prop.DataAddress + uint32(prop.Length)
	}
	return Property{}, false
}

func (t *Tree) propertyAddressFor(id uint16, n uint8) uint32 {
	prop, found := t.findProperty(id, n)
	if !found {
		return 0
	}
	return prop.DataAddress
}

// PropertyAddr returns the data address of property n on object id,
// or 0 if absent.
func (t *Tree) PropertyAddr(id uint16, n uint8) uint32 {
	return t.propertyAddressFor(id, n)
}

// GetProperty returns the 1- or 2-byte value of property n on object
// id, falling back to the object-table preamble's default word if the
// object doesn't carry that property.
func (t *Tree) GetProperty(id uint16, n uint8) uint16 {
	prop, found := t.findProperty(id, n)
	if !found {
		defaultAddr := uint32(t.ObjectTableBase) + 2*uint32(n-1)
		return binary.BigEndian.Uint16(t.Memory[defaultAddr : defaultAddr+2])
	}

	if prop.Length == 1 {
		return uint16(t.Memory[prop.DataAddress])
	}
	return binary.BigEndian.Uint16(t.Memory[prop.DataAddress : prop.DataAddress+2])
}

// PutProperty stores v into property n on object id. n must already
// exist on the object (per the standard, put_prop on an absent
// property is a game-file error) and must be 1 or 2 bytes wide.
func (t *Tree) PutProperty(id uint16, n uint8, v uint16) error {
	prop, found := t.findProperty(id, n)
	if !found {
		return propertyNotFoundError{object: id, property: n}
	}

	switch prop.Length {
	case 1:
		t.Memory[prop.DataAddress] = uint8(v)
	case 2:
		binary.BigEndian.PutUint16(t.Memory[prop.DataAddress:prop.DataAddress+2], v)
	default:
		return propertyBadSizeError{object: id, property: n}
	}
	return nil
}

type propertyNotFoundError struct {
	object   uint16
	property uint8
}

func (e propertyNotFoundError) Error() string {
	return "zobject: object has no such property"
}

type propertyBadSizeError struct {
	object   uint16
	property uint8
}

func (e propertyBadSizeError) Error() string {
	return "zobject: put_prop on a property wider than 2 bytes"
}
