package tcp

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var (
	defaultMsgMinSize uint32 = 4
	defaultMsgMaxSize uint32 = 1 << 20

	ErrMessageTooLong  = errors.New("tcp: message too long")
	ErrMessageTooShort = errors.New("tcp: message too short")
)

const (
	LenType8  LenType = 1
	LenType16 LenType = 2
	LenType32 LenType = 4
)

type (
	// Size in bytes of the frame length prefix
	LenType           uint
	MessageParserConf struct {
		// Length prefix size (default LenType32)
		MsgLengthType LenType
		// Minimum frame size
		MsgMinSize uint32
		// Maximum frame size
		MsgMaxSize   uint32
		LittleEndian bool
	}
	// MessageParser reads and writes length prefixed frames.
	MessageParser struct {
		conf *MessageParserConf
	}
)

func NewParser(conf *MessageParserConf) *MessageParser {
	defaultParseConf(conf)

	return &MessageParser{
		conf: conf,
	}
}

func (m *MessageParser) order() binary.ByteOrder {
	if m.conf.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Read reads one frame from r.
func (m *MessageParser) Read(r io.Reader) ([]byte, error) {
	var b [4]byte
	prefix := b[:m.conf.MsgLengthType]
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}

	var n uint32
	switch m.conf.MsgLengthType {
	case LenType8:
		n = uint32(prefix[0])
	case LenType16:
		n = uint32(m.order().Uint16(prefix))
	case LenType32:
		n = m.order().Uint32(prefix)
	}

	if n > m.conf.MsgMaxSize {
		return nil, ErrMessageTooLong
	}
	if n < m.conf.MsgMinSize {
		return nil, ErrMessageTooShort
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Encode prefixes frame with its length.
func (m *MessageParser) Encode(frame []byte) ([]byte, error) {
	n := uint32(len(frame))
	if uint64(len(frame)) > uint64(m.conf.MsgMaxSize) {
		return nil, ErrMessageTooLong
	}
	if n < m.conf.MsgMinSize {
		return nil, ErrMessageTooShort
	}

	l := int(m.conf.MsgLengthType)
	msg := make([]byte, l+len(frame))
	switch m.conf.MsgLengthType {
	case LenType8:
		msg[0] = byte(n)
	case LenType16:
		m.order().PutUint16(msg, uint16(n))
	case LenType32:
		m.order().PutUint32(msg, n)
	}
	copy(msg[l:], frame)
	return msg, nil
}

// Write writes frame to w in a single call.
func (m *MessageParser) Write(w io.Writer, frame []byte) error {
	msg, err := m.Encode(frame)
	if err != nil {
		return err
	}
	_, err = w.Write(msg)
	return err
}

func defaultParseConf(conf *MessageParserConf) {
	switch conf.MsgLengthType {
	case LenType8, LenType16, LenType32:
	default:
		conf.MsgLengthType = LenType32
	}
	if conf.MsgMaxSize == 0 {
		conf.MsgMaxSize = defaultMsgMaxSize
	}
	if conf.MsgMinSize == 0 {
		conf.MsgMinSize = defaultMsgMinSize
	}

	var max uint32
	switch conf.MsgLengthType {
	case LenType8:
		max = math.MaxUint8
	case LenType16:
		max = math.MaxUint16
	case LenType32:
		max = math.MaxUint32
	}
	if conf.MsgMinSize > max {
		conf.MsgMinSize = max
	}
	if conf.MsgMaxSize > max {
		conf.MsgMaxSize = max
	}
}
