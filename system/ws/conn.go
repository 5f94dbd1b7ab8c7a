package ws

import (
	"errors"

	"github.com/czx-lab/mojo/system"
	"github.com/gorilla/websocket"
)

// ErrUnexpectedMessageType is returned for text frames.
var ErrUnexpectedMessageType = errors.New("ws: unexpected message type")

type (
	PipeConf struct {
		system.ConnPipeConf
		// Maximum frame size (default 1MB)
		MaxMsgSize int64
	}

	// frameConn sends every frame as one binary websocket message.
	frameConn struct {
		conn *websocket.Conn
	}
)

var _ system.FrameConn = (*frameConn)(nil)

// ReadFrame implements system.FrameConn.
func (c *frameConn) ReadFrame() ([]byte, error) {
	mt, b, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		return nil, ErrUnexpectedMessageType
	}
	return b, nil
}

// WriteFrame implements system.FrameConn.
func (c *frameConn) WriteFrame(b []byte) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

// Close implements system.FrameConn.
func (c *frameConn) Close() error {
	return c.conn.Close()
}

// NewPipe turns a websocket connection into a message pipe endpoint.
func NewPipe(conn *websocket.Conn, conf *PipeConf) *system.ConnPipe {
	return newPipe(conn, conf, &system.NoopConnMetrics{})
}

func newPipe(conn *websocket.Conn, conf *PipeConf, m system.ConnMetrics) *system.ConnPipe {
	if conf == nil {
		conf = &PipeConf{}
	}
	defaultPipeConf(conf)

	conn.SetReadLimit(conf.MaxMsgSize)
	return system.NewConnPipeWithMetrics(&frameConn{conn: conn}, &conf.ConnPipeConf, m)
}

func defaultPipeConf(conf *PipeConf) {
	if conf.MaxMsgSize <= 0 {
		conf.MaxMsgSize = 1024 * 1024
	}
}
