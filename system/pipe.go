package system

import (
	"context"
	"sync"
)

var defaultMaxQueued = 1024

type (
	// ReadResult reports the sizes of the message a read produced, or the
	// sizes it needs when the read failed with ErrResourceExhausted.
	ReadResult struct {
		NumBytes   int
		NumHandles int
	}

	// MessagePipe is one endpoint of a bidirectional message channel.
	MessagePipe interface {
		Handle
		// WriteMessage queues data and handles for the peer. Ownership of the
		// handles passes to the pipe.
		WriteMessage(data []byte, handles []Handle) error
		// ReadMessage copies the next queued message into data and handles.
		// It never blocks: ErrShouldWait means nothing is queued, and
		// ErrResourceExhausted means the buffers are too small, in which case
		// the message stays queued and the result carries the needed sizes.
		ReadMessage(data []byte, handles []Handle) (ReadResult, error)
		// Wait blocks until a message is readable, the peer is gone
		// (ErrFailedPrecondition), the endpoint is closed (ErrClosed) or ctx
		// is done.
		Wait(ctx context.Context) error
	}

	PipeConf struct {
		// Maximum number of unread messages per endpoint (0: default)
		MaxQueued int
	}

	localPipe struct {
		once sync.Once
		in   *Inbox
		peer *Inbox
	}
)

var _ MessagePipe = (*localPipe)(nil)

// CreateMessagePipe returns the two connected endpoints of an in-process
// message pipe.
func CreateMessagePipe(conf *PipeConf) (MessagePipe, MessagePipe) {
	if conf == nil {
		conf = &PipeConf{}
	}
	if conf.MaxQueued <= 0 {
		conf.MaxQueued = defaultMaxQueued
	}

	a, b := NewInbox(conf.MaxQueued), NewInbox(conf.MaxQueued)
	return &localPipe{in: a, peer: b}, &localPipe{in: b, peer: a}
}

// Close implements MessagePipe.
func (p *localPipe) Close() error {
	p.once.Do(func() {
		p.in.Close()
		p.peer.Shutdown()
	})
	return nil
}

// IsValid implements MessagePipe.
func (p *localPipe) IsValid() bool {
	return !p.in.Closed()
}

// ReadMessage implements MessagePipe.
func (p *localPipe) ReadMessage(data []byte, handles []Handle) (ReadResult, error) {
	return p.in.Read(data, handles)
}

// Wait implements MessagePipe.
func (p *localPipe) Wait(ctx context.Context) error {
	return p.in.Wait(ctx)
}

// WriteMessage implements MessagePipe.
func (p *localPipe) WriteMessage(data []byte, handles []Handle) error {
	if p.in.Closed() {
		return ErrClosed
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	var hs []Handle
	if len(handles) > 0 {
		hs = make([]Handle, len(handles))
		copy(hs, handles)
	}
	return p.peer.Push(buf, hs)
}
