package system

import (
	"context"
	"sync"

	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

var defaultPendingWrite = 100

type (
	// FrameConn is a connection that moves whole frames.
	FrameConn interface {
		ReadFrame() ([]byte, error)
		WriteFrame(b []byte) error
		Close() error
	}

	ConnPipeConf struct {
		// Number of frames waiting to be written
		PendingWrite int
		// Maximum number of unread messages (0: default)
		MaxQueued int
	}

	// ConnPipe is a MessagePipe endpoint whose peer lives on the other side
	// of a FrameConn. Frames are read into an inbox by one goroutine and
	// written from a queue by another.
	ConnPipe struct {
		mu         sync.Mutex
		conn       FrameConn
		in         *Inbox
		writeQueue chan []byte
		closed     bool
		done       chan struct{}
		metrics    ConnMetrics
		logger     *zap.Logger
	}
)

var _ MessagePipe = (*ConnPipe)(nil)

func NewConnPipe(conn FrameConn, conf *ConnPipeConf) *ConnPipe {
	return NewConnPipeWithMetrics(conn, conf, &NoopConnMetrics{})
}

func NewConnPipeWithMetrics(conn FrameConn, conf *ConnPipeConf, m ConnMetrics) *ConnPipe {
	if conf == nil {
		conf = &ConnPipeConf{}
	}
	defaultConnPipeConf(conf)

	p := &ConnPipe{
		conn:       conn,
		in:         NewInbox(conf.MaxQueued),
		writeQueue: make(chan []byte, conf.PendingWrite),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     xlog.Write(),
	}
	go p.readLoop()
	go p.writeLoop()
	return p
}

func (p *ConnPipe) readLoop() {
	defer close(p.done)
	defer p.in.Shutdown()

	for {
		b, err := p.conn.ReadFrame()
		if err != nil {
			if !p.isClosed() {
				p.logger.Debug("pipe: read stopped", zap.Error(err))
			}
			return
		}
		p.metrics.AddReceivedBytes(len(b))

		data, handles, err := UnmarshalFrame(b)
		if err != nil {
			p.metrics.IncReadErrors()
			p.logger.Warn("pipe: dropping connection", zap.Error(err))
			p.conn.Close()
			return
		}
		if err := p.in.Push(data, handles); err != nil {
			if !p.isClosed() {
				// the reader fell too far behind
				p.metrics.IncReadErrors()
				p.logger.Warn("pipe: inbox rejected message", zap.Error(err))
				p.conn.Close()
			}
			return
		}
	}
}

func (p *ConnPipe) writeLoop() {
	for b := range p.writeQueue {
		if b == nil {
			break
		}
		if err := p.conn.WriteFrame(b); err != nil {
			p.metrics.IncWriteErrors()
			p.logger.Debug("pipe: write failed", zap.Error(err))
			break
		}
		p.metrics.AddSentBytes(len(b))
	}

	p.conn.Close()
}

func (p *ConnPipe) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// Close implements MessagePipe. Queued writes are flushed before the
// connection closes.
func (p *ConnPipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	select {
	case p.writeQueue <- nil:
	default:
		// queue is full, drop what is pending
		p.conn.Close()
		close(p.writeQueue)
	}
	p.mu.Unlock()

	p.in.Close()
	return nil
}

// IsValid implements MessagePipe.
func (p *ConnPipe) IsValid() bool {
	return !p.in.Closed()
}

// ReadMessage implements MessagePipe.
func (p *ConnPipe) ReadMessage(data []byte, handles []Handle) (ReadResult, error) {
	return p.in.Read(data, handles)
}

// Wait implements MessagePipe.
func (p *ConnPipe) Wait(ctx context.Context) error {
	return p.in.Wait(ctx)
}

// WriteMessage implements MessagePipe.
func (p *ConnPipe) WriteMessage(data []byte, handles []Handle) error {
	frame, err := MarshalFrame(data, handles)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if len(p.writeQueue) == cap(p.writeQueue) {
		return ErrResourceExhausted
	}
	p.writeQueue <- frame
	return nil
}

// Done is closed once the connection stopped delivering messages.
func (p *ConnPipe) Done() <-chan struct{} {
	return p.done
}

func defaultConnPipeConf(conf *ConnPipeConf) {
	if conf.PendingWrite <= 0 {
		conf.PendingWrite = defaultPendingWrite
	}
	if conf.MaxQueued <= 0 {
		conf.MaxQueued = defaultMaxQueued
	}
}
