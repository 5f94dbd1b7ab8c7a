package bindings

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/czx-lab/mojo/system"
)

const (
	// UnspecifiedArrayLength disables the element count check of array reads.
	UnspecifiedArrayLength = -1

	pointerSize      = 8
	handleSize       = 4
	invalidHandleIdx = 0xffffffff
	mapStructSize    = 24
)

// Decoder reads typed fields of one struct, array or string body at offsets
// relative to its base. Decoders created by pointer dereference share the
// Validator of their parent.
type Decoder struct {
	message   *Message
	validator *Validator
	base      int64
	// limit is the absolute end of the region this decoder may read.
	limit int64
}

// NewDecoder creates the root decoder of msg and claims its header.
func NewDecoder(msg *Message) (*Decoder, error) {
	v := NewValidator(int64(len(msg.Data)), len(msg.Handles))
	return newDecoder(msg, v, 0)
}

func newDecoder(msg *Message, v *Validator, base int64) (*Decoder, error) {
	if err := v.ClaimMemory(base, base+DataHeaderSize); err != nil {
		return nil, err
	}
	return &Decoder{
		message:   msg,
		validator: v,
		base:      base,
		limit:     base + DataHeaderSize,
	}, nil
}

// Validator returns the validator shared by this decoding session.
func (d *Decoder) Validator() *Validator {
	return d.validator
}

// ReadDataHeader reads the header at the base of the decoder and claims the
// body it declares.
func (d *Decoder) ReadDataHeader() (DataHeader, error) {
	var h DataHeader
	b, err := d.bytesAt(0, DataHeaderSize)
	if err != nil {
		return h, err
	}
	h.Size = binary.LittleEndian.Uint32(b)
	h.ElementsOrVersion = binary.LittleEndian.Uint32(b[4:])

	end := d.base + int64(h.Size)
	if h.Size >= DataHeaderSize {
		end = d.base + int64(Align(int(h.Size)))
	}
	if err := d.validator.ClaimMemory(d.base+DataHeaderSize, end); err != nil {
		return h, err
	}
	d.limit = d.base + int64(h.Size)
	return h, nil
}

// ReadAndValidateDataHeader reads the struct header and checks it against the
// known versions, which must be sorted by ascending version.
func (d *Decoder) ReadAndValidateDataHeader(versions []DataHeader) (DataHeader, error) {
	h, err := d.ReadDataHeader()
	if err != nil {
		return h, err
	}
	if len(versions) == 0 {
		return h, nil
	}

	latest := versions[len(versions)-1]
	if h.ElementsOrVersion > latest.ElementsOrVersion {
		if h.Size < latest.Size {
			return h, deserializationErr("read struct header", d.base, ErrUnexpectedStructHeader)
		}
		return h, nil
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if h.ElementsOrVersion >= versions[i].ElementsOrVersion {
			if versions[i].Size != h.Size {
				break
			}
			return h, nil
		}
	}
	return h, deserializationErr("read struct header", d.base, ErrUnexpectedStructHeader)
}

func (d *Decoder) bytesAt(offset, n int) ([]byte, error) {
	start := d.base + int64(offset)
	if offset < 0 || start+int64(n) > d.limit || start+int64(n) > int64(len(d.message.Data)) {
		return nil, deserializationErr("read", start, ErrOutOfBounds)
	}
	return d.message.Data[start : start+int64(n)], nil
}

func (d *Decoder) ReadInt8(offset int) (int8, error) {
	v, err := d.ReadUint8(offset)
	return int8(v), err
}

func (d *Decoder) ReadUint8(offset int) (uint8, error) {
	b, err := d.bytesAt(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool tests bit of the byte at offset.
func (d *Decoder) ReadBool(offset int, bit uint) (bool, error) {
	v, err := d.ReadUint8(offset)
	if err != nil {
		return false, err
	}
	return v&(1<<bit) != 0, nil
}

func (d *Decoder) ReadInt16(offset int) (int16, error) {
	v, err := d.ReadUint16(offset)
	return int16(v), err
}

func (d *Decoder) ReadUint16(offset int) (uint16, error) {
	b, err := d.bytesAt(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadInt32(offset int) (int32, error) {
	v, err := d.ReadUint32(offset)
	return int32(v), err
}

func (d *Decoder) ReadUint32(offset int) (uint32, error) {
	b, err := d.bytesAt(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadInt64(offset int) (int64, error) {
	v, err := d.ReadUint64(offset)
	return int64(v), err
}

func (d *Decoder) ReadUint64(offset int) (uint64, error) {
	b, err := d.bytesAt(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadFloat32(offset int) (float32, error) {
	v, err := d.ReadUint32(offset)
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadFloat64(offset int) (float64, error) {
	v, err := d.ReadUint64(offset)
	return math.Float64frombits(v), err
}

// ReadPointer follows the relative pointer at offset. A null pointer yields
// a nil decoder, or ErrUnexpectedNullPointer when nullable is false.
func (d *Decoder) ReadPointer(offset int, nullable bool) (*Decoder, error) {
	rel, err := d.ReadUint64(offset)
	if err != nil {
		return nil, err
	}
	pos := d.base + int64(offset)
	if rel == 0 {
		if !nullable {
			return nil, deserializationErr("read pointer", pos, ErrUnexpectedNullPointer)
		}
		return nil, nil
	}
	if rel > uint64(d.validator.MaxMemory()) {
		return nil, deserializationErr("read pointer", pos, ErrOutOfBounds)
	}
	return newDecoder(d.message, d.validator, pos+int64(rel))
}

// ReadStruct decodes the struct pointed to at offset into s. It reports
// false when the pointer is null.
func (d *Decoder) ReadStruct(offset int, nullable bool, s Struct) (bool, error) {
	child, err := d.ReadPointer(offset, nullable)
	if err != nil || child == nil {
		return false, err
	}
	if err := s.Decode(child); err != nil {
		return false, err
	}
	return true, nil
}

// arrayBody dereferences the array at offset and returns its element bytes.
// A nil decoder with no error means a null array.
func (d *Decoder) arrayBody(offset int, nullable bool, elemSize int, expectedLength int) (*Decoder, int, error) {
	child, err := d.ReadPointer(offset, nullable)
	if err != nil || child == nil {
		return nil, 0, err
	}
	h, err := child.ReadDataHeader()
	if err != nil {
		return nil, 0, err
	}
	count := int64(h.ElementsOrVersion)
	if uint64(DataHeaderSize)+uint64(count)*uint64(elemSize) > uint64(h.Size) {
		return nil, 0, deserializationErr("read array", child.base, ErrInvalidArrayHeader)
	}
	if expectedLength != UnspecifiedArrayLength && count != int64(expectedLength) {
		return nil, 0, deserializationErr("read array", child.base, ErrUnexpectedArrayLength)
	}
	return child, int(count), nil
}

func readElements[T any](d *Decoder, offset int, nullable bool, expectedLength int, size int, read func([]byte) T) ([]T, error) {
	child, count, err := d.arrayBody(offset, nullable, size, expectedLength)
	if err != nil || child == nil {
		return nil, err
	}
	b, err := child.bytesAt(DataHeaderSize, count*size)
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	for i := range out {
		out[i] = read(b[i*size:])
	}
	return out, nil
}

func (d *Decoder) ReadBytes(offset int, nullable bool, expectedLength int) ([]byte, error) {
	return readElements(d, offset, nullable, expectedLength, 1, func(b []byte) byte { return b[0] })
}

// ReadBools reads a packed boolean array, eight elements per byte.
func (d *Decoder) ReadBools(offset int, nullable bool, expectedLength int) ([]bool, error) {
	child, err := d.ReadPointer(offset, nullable)
	if err != nil || child == nil {
		return nil, err
	}
	h, err := child.ReadDataHeader()
	if err != nil {
		return nil, err
	}
	count := int(h.ElementsOrVersion)
	nbytes := (int64(h.ElementsOrVersion) + 7) / 8
	if DataHeaderSize+nbytes > int64(h.Size) {
		return nil, deserializationErr("read array", child.base, ErrInvalidArrayHeader)
	}
	if expectedLength != UnspecifiedArrayLength && count != expectedLength {
		return nil, deserializationErr("read array", child.base, ErrUnexpectedArrayLength)
	}
	b, err := child.bytesAt(DataHeaderSize, int(nbytes))
	if err != nil {
		return nil, err
	}
	out := make([]bool, count)
	for i := range out {
		out[i] = b[i/8]&(1<<(uint(i)%8)) != 0
	}
	return out, nil
}

func (d *Decoder) ReadInt16s(offset int, nullable bool, expectedLength int) ([]int16, error) {
	return readElements(d, offset, nullable, expectedLength, 2, func(b []byte) int16 {
		return int16(binary.LittleEndian.Uint16(b))
	})
}

func (d *Decoder) ReadUint16s(offset int, nullable bool, expectedLength int) ([]uint16, error) {
	return readElements(d, offset, nullable, expectedLength, 2, binary.LittleEndian.Uint16)
}

func (d *Decoder) ReadInt32s(offset int, nullable bool, expectedLength int) ([]int32, error) {
	return readElements(d, offset, nullable, expectedLength, 4, func(b []byte) int32 {
		return int32(binary.LittleEndian.Uint32(b))
	})
}

func (d *Decoder) ReadUint32s(offset int, nullable bool, expectedLength int) ([]uint32, error) {
	return readElements(d, offset, nullable, expectedLength, 4, binary.LittleEndian.Uint32)
}

func (d *Decoder) ReadInt64s(offset int, nullable bool, expectedLength int) ([]int64, error) {
	return readElements(d, offset, nullable, expectedLength, 8, func(b []byte) int64 {
		return int64(binary.LittleEndian.Uint64(b))
	})
}

func (d *Decoder) ReadUint64s(offset int, nullable bool, expectedLength int) ([]uint64, error) {
	return readElements(d, offset, nullable, expectedLength, 8, binary.LittleEndian.Uint64)
}

func (d *Decoder) ReadFloat32s(offset int, nullable bool, expectedLength int) ([]float32, error) {
	return readElements(d, offset, nullable, expectedLength, 4, func(b []byte) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	})
}

func (d *Decoder) ReadFloat64s(offset int, nullable bool, expectedLength int) ([]float64, error) {
	return readElements(d, offset, nullable, expectedLength, 8, func(b []byte) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	})
}

// ReadString reads a UTF-8 string. A null pointer yields nil.
func (d *Decoder) ReadString(offset int, nullable bool) (*string, error) {
	b, err := d.ReadBytes(offset, nullable, UnspecifiedArrayLength)
	if err != nil || b == nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		return nil, deserializationErr("read string", d.base+int64(offset), ErrInvalidUTF8)
	}
	s := string(b)
	return &s, nil
}

func (d *Decoder) handleAt(idx uint32, pos int64, nullable bool) (system.Handle, error) {
	if idx == invalidHandleIdx {
		if !nullable {
			return nil, deserializationErr("read handle", pos, ErrUnexpectedInvalidHandle)
		}
		return system.InvalidHandle, nil
	}
	if err := d.validator.ClaimHandle(int(idx)); err != nil {
		return nil, err
	}
	return d.message.Handles[idx], nil
}

// ReadHandle reads the handle whose index is stored at offset. The invalid
// index yields system.InvalidHandle.
func (d *Decoder) ReadHandle(offset int, nullable bool) (system.Handle, error) {
	idx, err := d.ReadUint32(offset)
	if err != nil {
		return nil, err
	}
	return d.handleAt(idx, d.base+int64(offset), nullable)
}

// ReadHandles reads an array of handles, claiming each index in turn.
func (d *Decoder) ReadHandles(offset int, nullable, elementNullable bool, expectedLength int) ([]system.Handle, error) {
	child, count, err := d.arrayBody(offset, nullable, handleSize, expectedLength)
	if err != nil || child == nil {
		return nil, err
	}
	out := make([]system.Handle, count)
	for i := range out {
		off := DataHeaderSize + i*handleSize
		idx, err := child.ReadUint32(off)
		if err != nil {
			return nil, err
		}
		if out[i], err = child.handleAt(idx, child.base+int64(off), elementNullable); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadMap dereferences a map at offset and returns the decoder of its data
// struct. Keys are read through the returned decoder at offset 8 and values
// at offset 16; CheckMapLengths validates the pair.
func (d *Decoder) ReadMap(offset int, nullable bool) (*Decoder, error) {
	child, err := d.ReadPointer(offset, nullable)
	if err != nil || child == nil {
		return nil, err
	}
	h, err := child.ReadDataHeader()
	if err != nil {
		return nil, err
	}
	if h.Size != mapStructSize || h.ElementsOrVersion != 0 {
		return nil, deserializationErr("read map", child.base, ErrInvalidMapData)
	}
	return child, nil
}

// CheckMapLengths reports ErrInvalidMapData unless keys and values have the
// same length.
func CheckMapLengths(keys, values int) error {
	if keys != values {
		return deserializationErr("read map", int64(keys), ErrInvalidMapData)
	}
	return nil
}
