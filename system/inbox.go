package system

import (
	"context"
	"sync"
)

type (
	queued struct {
		data    []byte
		handles []Handle
	}

	// Inbox is the bounded, mutex guarded receive queue behind a pipe
	// endpoint. Writers Push, the owner Reads and Waits.
	Inbox struct {
		mu          sync.Mutex
		queue       []queued
		maxCapacity int
		// no more messages will arrive
		shutdown bool
		// the owning endpoint is closed
		closed bool
		signal chan struct{}
	}
)

// NewInbox creates an inbox holding at most maxcap messages (0: unbounded).
func NewInbox(maxcap int) *Inbox {
	return &Inbox{
		maxCapacity: maxcap,
		signal:      make(chan struct{}, 1),
	}
}

// Push appends a message. The inbox takes ownership of data and handles.
func (b *Inbox) Push(data []byte, handles []Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.shutdown {
		return ErrFailedPrecondition
	}
	if b.maxCapacity > 0 && len(b.queue) >= b.maxCapacity {
		return ErrResourceExhausted
	}

	b.queue = append(b.queue, queued{data: data, handles: handles})
	b.notify()
	return nil
}

// Read implements the non-blocking read of MessagePipe.ReadMessage.
func (b *Inbox) Read(data []byte, handles []Handle) (ReadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ReadResult{}, ErrClosed
	}
	if len(b.queue) == 0 {
		if b.shutdown {
			return ReadResult{}, ErrFailedPrecondition
		}
		return ReadResult{}, ErrShouldWait
	}

	head := b.queue[0]
	result := ReadResult{NumBytes: len(head.data), NumHandles: len(head.handles)}
	if len(data) < result.NumBytes || len(handles) < result.NumHandles {
		return result, ErrResourceExhausted
	}

	copy(data, head.data)
	copy(handles, head.handles)
	b.queue[0] = queued{}
	b.queue = b.queue[1:]
	if len(b.queue) == 0 {
		// release the backing array once drained
		b.queue = nil
	}
	return result, nil
}

// Wait blocks until Read would not return ErrShouldWait.
func (b *Inbox) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		switch {
		case b.closed:
			b.mu.Unlock()
			return ErrClosed
		case len(b.queue) > 0:
			b.mu.Unlock()
			return nil
		case b.shutdown:
			b.mu.Unlock()
			return ErrFailedPrecondition
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.signal:
		}
	}
}

// Shutdown marks that the writer side is gone. Queued messages stay
// readable; afterwards reads fail with ErrFailedPrecondition.
func (b *Inbox) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.shutdown = true
	b.notify()
}

// Close discards every queued message, closing its handles.
func (b *Inbox) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, m := range b.queue {
		for _, h := range m.handles {
			if h != nil {
				h.Close()
			}
		}
	}
	b.queue = nil
	b.notify()
}

// Closed reports whether Close was called.
func (b *Inbox) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// Len returns the number of queued messages.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.queue)
}

func (b *Inbox) notify() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}
