package bindings

// DataHeaderSize is the size of the header prefixed to every struct, array
// and string body.
const DataHeaderSize = 8

// DataHeader is the size/count prefix of a complex wire value. For structs
// ElementsOrVersion is the struct version, for arrays the element count.
type DataHeader struct {
	Size              uint32
	ElementsOrVersion uint32
}

// Struct is implemented by generated types that know their own field offsets.
type Struct interface {
	Decode(d *Decoder) error
}

// DeserializeStruct decodes s from a struct rooted at offset 0 of msg.
func DeserializeStruct(msg *Message, s Struct) error {
	d, err := NewDecoder(msg)
	if err != nil {
		return err
	}
	return s.Decode(d)
}
