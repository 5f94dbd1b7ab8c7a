package bindings

import (
	"encoding/binary"
	"errors"

	"github.com/czx-lab/mojo/system"
)

// Message is a byte payload plus its out-of-band handles.
type Message struct {
	Data    []byte
	Handles []system.Handle

	withHeader *MessageWithHeader
}

func NewMessage(data []byte, handles []system.Handle) *Message {
	return &Message{Data: data, Handles: handles}
}

// AsMessageWithHeader parses the message header. The result is cached.
func (m *Message) AsMessageWithHeader() (*MessageWithHeader, error) {
	if m.withHeader != nil {
		return m.withHeader, nil
	}
	h, err := decodeMessageHeader(m)
	if err != nil {
		return nil, err
	}
	m.withHeader = &MessageWithHeader{message: m, header: h}
	return m.withHeader, nil
}

// MessageWithHeader is a message whose header has been parsed.
type MessageWithHeader struct {
	message *Message
	header  MessageHeader
}

// NewMessageWithHeader frames payload behind the wire form of h. A header
// with flags or a request id is written as version 1.
func NewMessageWithHeader(h MessageHeader, payload []byte, handles []system.Handle) *MessageWithHeader {
	hb := h.encode()
	data := make([]byte, len(hb)+len(payload))
	copy(data, hb)
	copy(data[len(hb):], payload)

	h.Size = binary.LittleEndian.Uint32(hb)
	h.Version = binary.LittleEndian.Uint32(hb[4:])

	msg := &Message{Data: data, Handles: handles}
	msg.withHeader = &MessageWithHeader{message: msg, header: h}
	return msg.withHeader
}

func (m *MessageWithHeader) Message() *Message {
	return m.message
}

func (m *MessageWithHeader) Header() MessageHeader {
	return m.header
}

// Payload returns the bytes following the header with the same handles.
func (m *MessageWithHeader) Payload() *Message {
	return &Message{
		Data:    m.message.Data[m.header.Size:],
		Handles: m.message.Handles,
	}
}

// SetRequestID stamps id into the header in place. It panics if the header
// has no request id field.
func (m *MessageWithHeader) SetRequestID(id uint64) {
	if !m.header.HasRequestID() {
		panic("bindings: message header has no request id field")
	}
	binary.LittleEndian.PutUint64(m.message.Data[requestIDOffset:], id)
	m.header.RequestID = id
}

// ReadMessage reads the next message from pipe, first probing for its size.
func ReadMessage(pipe system.MessagePipe) (*Message, error) {
	res, err := pipe.ReadMessage(nil, nil)
	if err == nil {
		return &Message{Data: []byte{}}, nil
	}
	if !errors.Is(err, system.ErrResourceExhausted) {
		return nil, err
	}

	msg := &Message{
		Data:    make([]byte, res.NumBytes),
		Handles: make([]system.Handle, res.NumHandles),
	}
	if _, err := pipe.ReadMessage(msg.Data, msg.Handles); err != nil {
		return nil, err
	}
	return msg, nil
}

// ReadAndDispatchMessage reads one message and hands it to receiver. It
// reports whether the receiver handled it.
func ReadAndDispatchMessage(pipe system.MessagePipe, receiver MessageReceiver) (bool, error) {
	msg, err := ReadMessage(pipe)
	if err != nil {
		return false, err
	}
	if receiver == nil {
		return false, nil
	}
	return receiver.Accept(msg), nil
}
