package system

import (
	"encoding/binary"
	"errors"
)

const invalidToken = 0xffffffff

// ErrMalformedFrame is returned for a frame body that cannot be decoded.
var ErrMalformedFrame = errors.New("system: malformed frame")

// frame body
// --------------------------------------------------
// |      4       |   4 * n    |        data        |
// --------------------------------------------------
// |  n handles   |   tokens   |   message bytes    |
// --------------------------------------------------

// MarshalFrame encodes a message for a connection backed pipe. Only Token
// and InvalidHandle can cross a connection.
func MarshalFrame(data []byte, handles []Handle) ([]byte, error) {
	b := make([]byte, 4+4*len(handles)+len(data))
	binary.LittleEndian.PutUint32(b, uint32(len(handles)))

	off := 4
	for _, h := range handles {
		switch v := h.(type) {
		case Token:
			if uint32(v) == invalidToken {
				return nil, ErrInvalidArgument
			}
			binary.LittleEndian.PutUint32(b[off:], uint32(v))
		case invalidHandle:
			binary.LittleEndian.PutUint32(b[off:], invalidToken)
		default:
			return nil, ErrInvalidArgument
		}
		off += 4
	}
	copy(b[off:], data)
	return b, nil
}

// UnmarshalFrame decodes a frame body produced by MarshalFrame.
func UnmarshalFrame(b []byte) ([]byte, []Handle, error) {
	if len(b) < 4 {
		return nil, nil, ErrMalformedFrame
	}
	n := binary.LittleEndian.Uint32(b)
	if uint64(n)*4 > uint64(len(b)-4) {
		return nil, nil, ErrMalformedFrame
	}

	var handles []Handle
	off := 4
	if n > 0 {
		handles = make([]Handle, n)
		for i := range handles {
			if t := binary.LittleEndian.Uint32(b[off:]); t == invalidToken {
				handles[i] = InvalidHandle
			} else {
				handles[i] = Token(t)
			}
			off += 4
		}
	}
	return b[off:], handles, nil
}
