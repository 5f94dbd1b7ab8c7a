package bindings

import "encoding/binary"

// builder assembles little-endian wire fixtures.
type builder struct {
	buf []byte
}

func (b *builder) u8(v ...uint8) *builder {
	b.buf = append(b.buf, v...)
	return b
}

func (b *builder) u32(v ...uint32) *builder {
	for _, x := range v {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, x)
	}
	return b
}

func (b *builder) u64(v ...uint64) *builder {
	for _, x := range v {
		b.buf = binary.LittleEndian.AppendUint64(b.buf, x)
	}
	return b
}

func (b *builder) align() *builder {
	for len(b.buf)%Alignment != 0 {
		b.buf = append(b.buf, 0)
	}
	return b
}

func (b *builder) message() *Message {
	return NewMessage(b.buf, nil)
}
