package tcp

import (
	"bufio"
	"net"

	"github.com/czx-lab/mojo/system"
)

type (
	PipeConf struct {
		system.ConnPipeConf
		MessageParserConf
	}

	// frameConn frames a byte stream with a MessageParser.
	frameConn struct {
		conn   net.Conn
		reader *bufio.Reader
		parser *MessageParser
	}
)

var _ system.FrameConn = (*frameConn)(nil)

// NewFrameConn wraps a stream connection so that it moves whole frames.
func NewFrameConn(conn net.Conn, parser *MessageParser) system.FrameConn {
	return &frameConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		parser: parser,
	}
}

// ReadFrame implements system.FrameConn.
func (c *frameConn) ReadFrame() ([]byte, error) {
	return c.parser.Read(c.reader)
}

// WriteFrame implements system.FrameConn.
func (c *frameConn) WriteFrame(b []byte) error {
	return c.parser.Write(c.conn, b)
}

// Close implements system.FrameConn.
func (c *frameConn) Close() error {
	return c.conn.Close()
}

// NewPipe turns a stream connection into a message pipe endpoint.
func NewPipe(conn net.Conn, conf *PipeConf) *system.ConnPipe {
	return newPipe(conn, conf, &system.NoopConnMetrics{})
}

func newPipe(conn net.Conn, conf *PipeConf, m system.ConnMetrics) *system.ConnPipe {
	if conf == nil {
		conf = &PipeConf{}
	}
	return system.NewConnPipeWithMetrics(NewFrameConn(conn, NewParser(&conf.MessageParserConf)), &conf.ConnPipeConf, m)
}
