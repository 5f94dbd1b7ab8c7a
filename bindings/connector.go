package bindings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

// Connector pumps messages between a pipe and a receiver. Incoming messages
// are dispatched on a single goroutine in arrival order.
type Connector struct {
	mu           sync.Mutex
	pipe         system.MessagePipe
	incoming     MessageReceiver
	errorHandler func(error)
	logger       *zap.Logger

	once   sync.Once
	closed atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConnector(pipe system.MessagePipe) *Connector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connector{
		pipe:   pipe,
		logger: xlog.Write(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// WithLogger replaces the connector logger.
func (c *Connector) WithLogger(logger *zap.Logger) *Connector {
	c.logger = logger
	return c
}

func (c *Connector) SetIncomingMessageReceiver(r MessageReceiver) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.incoming = r
}

// SetErrorHandler sets the function called when the pipe fails. It is not
// called after a local Close.
func (c *Connector) SetErrorHandler(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errorHandler = fn
}

// Start launches the read loop.
func (c *Connector) Start() {
	go c.run()
}

func (c *Connector) run() {
	defer close(c.done)

	for {
		if err := c.pipe.Wait(c.ctx); err != nil {
			c.fail(err)
			return
		}
		for {
			_, err := ReadAndDispatchMessage(c.pipe, c.receiver())
			if errors.Is(err, system.ErrShouldWait) {
				break
			}
			if err != nil {
				c.fail(err)
				return
			}
		}
	}
}

func (c *Connector) receiver() MessageReceiver {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.incoming
}

func (c *Connector) fail(err error) {
	if !c.shutdown() {
		return
	}

	c.logger.Debug("connector: pipe error", zap.Error(err))

	c.mu.Lock()
	handler := c.errorHandler
	c.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

// shutdown closes the pipe and reports whether this call did it.
func (c *Connector) shutdown() bool {
	first := false
	c.once.Do(func() {
		first = true
		c.closed.Store(true)
		c.cancel()
		c.pipe.Close()
	})
	return first
}

// Write sends msg on the pipe.
func (c *Connector) Write(msg *Message) error {
	if c.closed.Load() {
		return system.ErrClosed
	}
	return c.pipe.WriteMessage(msg.Data, msg.Handles)
}

// Accept implements MessageReceiver.
func (c *Connector) Accept(msg *Message) bool {
	if err := c.Write(msg); err != nil {
		c.logger.Debug("connector: write failed", zap.Error(err))
		return false
	}
	return true
}

// Close implements MessageReceiver. It does not wait for the read loop, so
// it is safe to call from a receiver.
func (c *Connector) Close() {
	c.shutdown()
}

// Closed reports whether the pipe has been closed.
func (c *Connector) Closed() bool {
	return c.closed.Load()
}

// Done is closed once the read loop has exited.
func (c *Connector) Done() <-chan struct{} {
	return c.done
}

var _ MessageReceiver = (*Connector)(nil)
