package bindings

import (
	"encoding/binary"
	"fmt"
)

const (
	MessageHeaderV0Size = 24
	MessageHeaderV1Size = 32

	FlagExpectsResponse uint32 = 1 << 0
	FlagIsResponse      uint32 = 1 << 1

	interfaceIDOffset = 8
	ordinalOffset     = 12
	flagsOffset       = 16
	requestIDOffset   = 24
)

// MessageKind classifies a message by its two flag bits.
type MessageKind uint8

const (
	KindPlain MessageKind = iota
	KindRequest
	KindResponse
)

func (k MessageKind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	}
	return fmt.Sprintf("MessageKind(%d)", uint8(k))
}

// MessageHeader is the fixed prefix of every routed message.
type MessageHeader struct {
	Size        uint32
	Version     uint32
	InterfaceID uint32
	Ordinal     uint32
	Flags       uint32
	RequestID   uint64
}

func (h MessageHeader) HasFlag(flag uint32) bool {
	return h.Flags&flag == flag
}

// HasRequestID reports whether the header layout carries a request id.
func (h MessageHeader) HasRequestID() bool {
	return h.Version >= 1 && h.Size >= MessageHeaderV1Size
}

func (h MessageHeader) Kind() MessageKind {
	switch {
	case h.HasFlag(FlagIsResponse):
		return KindResponse
	case h.HasFlag(FlagExpectsResponse):
		return KindRequest
	}
	return KindPlain
}

func (h MessageHeader) validate() error {
	switch h.Version {
	case 0:
		if h.Size != MessageHeaderV0Size {
			return ErrInvalidMessageHeader
		}
	case 1:
		if h.Size != MessageHeaderV1Size {
			return ErrInvalidMessageHeader
		}
	default:
		if h.Size < MessageHeaderV1Size {
			return ErrInvalidMessageHeader
		}
	}

	both := FlagExpectsResponse | FlagIsResponse
	if h.HasFlag(both) {
		return ErrInvalidMessageHeader
	}
	if h.Flags&both != 0 && !h.HasRequestID() {
		return ErrInvalidMessageHeader
	}
	return nil
}

func decodeMessageHeader(msg *Message) (MessageHeader, error) {
	var h MessageHeader

	d, err := NewDecoder(msg)
	if err != nil {
		return h, err
	}
	dh, err := d.ReadDataHeader()
	if err != nil {
		return h, err
	}
	h.Size, h.Version = dh.Size, dh.ElementsOrVersion
	if h.Size < MessageHeaderV0Size {
		return h, deserializationErr("read message header", 0, ErrInvalidMessageHeader)
	}
	if h.InterfaceID, err = d.ReadUint32(interfaceIDOffset); err != nil {
		return h, err
	}
	if h.Ordinal, err = d.ReadUint32(ordinalOffset); err != nil {
		return h, err
	}
	if h.Flags, err = d.ReadUint32(flagsOffset); err != nil {
		return h, err
	}
	if h.HasRequestID() {
		if h.RequestID, err = d.ReadUint64(requestIDOffset); err != nil {
			return h, err
		}
	}
	if err := h.validate(); err != nil {
		return h, deserializationErr("read message header", 0, err)
	}
	return h, nil
}

// encode returns the wire form of h. Headers with flags are written as v1.
func (h MessageHeader) encode() []byte {
	size, version := uint32(MessageHeaderV0Size), uint32(0)
	if h.Flags != 0 || h.RequestID != 0 {
		size, version = MessageHeaderV1Size, 1
	}

	b := make([]byte, size)
	binary.LittleEndian.PutUint32(b, size)
	binary.LittleEndian.PutUint32(b[4:], version)
	binary.LittleEndian.PutUint32(b[interfaceIDOffset:], h.InterfaceID)
	binary.LittleEndian.PutUint32(b[ordinalOffset:], h.Ordinal)
	binary.LittleEndian.PutUint32(b[flagsOffset:], h.Flags)
	if version == 1 {
		binary.LittleEndian.PutUint64(b[requestIDOffset:], h.RequestID)
	}
	return b
}
