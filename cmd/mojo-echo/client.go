package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/czx-lab/mojo/app"
	"github.com/czx-lab/mojo/bindings"
	"github.com/czx-lab/mojo/config"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

var (
	errNotSent   = errors.New("echo: request not sent")
	errClosed    = errors.New("echo: router closed before the reply")
	errTimeout   = errors.New("echo: timed out waiting for the reply")
	errCancelled = errors.New("echo: cancelled")
)

type (
	client struct {
		conf    *config.Config
		routers bindings.RouterMetrics
		router  *bindings.Router
	}

	// replyWaiter receives the response to one request.
	replyWaiter struct {
		once    sync.Once
		replies chan *bindings.Message
		closed  chan struct{}
	}
)

var _ app.Module = (*client)(nil)

func newClient(conf *config.Config, routers bindings.RouterMetrics) *client {
	return &client{conf: conf, routers: routers}
}

// Init implements app.Module.
func (c *client) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.conf.Timeout)
	defer cancel()

	pipe, err := dial(ctx, c.conf.Transport)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.conf.Transport.Addr, err)
	}
	c.router = bindings.NewRouter(pipe,
		bindings.WithMetrics(c.routers),
		bindings.WithErrorHandler(func(err error) {
			xlog.Write().Warn("echo: connection lost", zap.Error(err))
		}),
	)
	c.router.Start()
	return nil
}

// Run implements app.Module. It returns after Count pings.
func (c *client) Run(done <-chan struct{}) {
	for i := 0; i < c.conf.Count; i++ {
		nonce := time.Now().UnixNano() + int64(i)
		reply, rtt, err := ping(c.router, nonce, c.conf.Timeout, done)
		if err != nil {
			xlog.Write().Error("echo: ping failed", zap.Int64("nonce", nonce), zap.Error(err))
			if errors.Is(err, errCancelled) || errors.Is(err, errClosed) {
				return
			}
			continue
		}
		xlog.Write().Info("echo: pong",
			zap.Int64("nonce", reply.Nonce),
			zap.Time("server_time", time.Unix(0, reply.ServerTime)),
			zap.Duration("rtt", rtt))
	}
}

// Destroy implements app.Module.
func (c *client) Destroy() {
	c.router.Close()
}

func newReplyWaiter() *replyWaiter {
	return &replyWaiter{
		replies: make(chan *bindings.Message, 1),
		closed:  make(chan struct{}),
	}
}

// Accept implements bindings.MessageReceiver.
func (w *replyWaiter) Accept(msg *bindings.Message) bool {
	select {
	case w.replies <- msg:
		return true
	default:
		return false
	}
}

// Close implements bindings.MessageReceiver.
func (w *replyWaiter) Close() {
	w.once.Do(func() { close(w.closed) })
}

// ping sends one ping and waits for the matching pong.
func ping(r *bindings.Router, nonce int64, timeout time.Duration, done <-chan struct{}) (pingReply, time.Duration, error) {
	var reply pingReply

	w := newReplyWaiter()
	start := time.Now()
	if !r.AcceptWithResponder(newPingMessage(nonce), w) {
		return reply, 0, errNotSent
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-w.replies:
		rtt := time.Since(start)
		mh, err := msg.AsMessageWithHeader()
		if err != nil {
			return reply, rtt, err
		}
		if err := bindings.DeserializeStruct(mh.Payload(), &reply); err != nil {
			return reply, rtt, err
		}
		if reply.Nonce != nonce {
			return reply, rtt, fmt.Errorf("echo: nonce mismatch: sent %d got %d", nonce, reply.Nonce)
		}
		return reply, rtt, nil
	case <-w.closed:
		return reply, 0, errClosed
	case <-timer.C:
		return reply, 0, errTimeout
	case <-done:
		return reply, 0, errCancelled
	}
}
