package tcp

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

var defaultMaxConn = 1000

// ErrServerStopped is returned by Start after Stop.
var ErrServerStopped = errors.New("tcp: server stopped")

type (
	ServerConf struct {
		PipeConf
		// Listen address
		Addr string
		// Maximum number of connections
		MaxConn int
	}

	// Server accepts connections and hands each one to handler as a message
	// pipe. A connection is released once its pipe stops delivering.
	Server struct {
		mu       sync.Mutex
		connWait sync.WaitGroup
		lnWait   sync.WaitGroup
		conf     *ServerConf
		ln       net.Listener
		pipes    map[*system.ConnPipe]struct{}
		stopped  bool

		handler func(system.MessagePipe)
		metrics system.ConnMetrics
	}
)

func NewServer(conf *ServerConf, handler func(system.MessagePipe)) *Server {
	defaultServerConf(conf)

	return &Server{
		conf:    conf,
		pipes:   make(map[*system.ConnPipe]struct{}),
		handler: handler,
		metrics: &system.NoopConnMetrics{},
	}
}

// WithMetrics sets the connection metrics recorder.
func (srv *Server) WithMetrics(m system.ConnMetrics) *Server {
	srv.metrics = m
	return srv
}

// Start listens on the configured address and serves in the background.
func (srv *Server) Start() error {
	ln, err := net.Listen("tcp", srv.conf.Addr)
	if err != nil {
		return err
	}
	return srv.Serve(ln)
}

// Serve accepts connections from ln in the background. Any stream listener
// works, which is how the kcp transport reuses this server.
func (srv *Server) Serve(ln net.Listener) error {
	srv.mu.Lock()
	if srv.stopped {
		srv.mu.Unlock()
		ln.Close()
		return ErrServerStopped
	}
	srv.ln = ln
	srv.mu.Unlock()

	srv.lnWait.Add(1)
	go srv.run(ln)
	return nil
}

// Addr returns the listening address.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.ln == nil {
		return nil
	}
	return srv.ln.Addr()
}

func (srv *Server) run(ln net.Listener) {
	defer srv.lnWait.Done()

	// Delay for retrying connection acceptance
	var delay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else {
					delay *= 2
				}
				if max := 1 * time.Second; delay > max {
					delay = max
				}

				time.Sleep(delay)
				continue
			}
			return
		}

		delay = 0

		srv.mu.Lock()
		if srv.stopped || len(srv.pipes) >= srv.conf.MaxConn {
			srv.mu.Unlock()
			xlog.Write().Warn("tcp: too many connections", zap.Int("max", srv.conf.MaxConn))
			srv.metrics.IncFailedConns()
			conn.Close()
			continue
		}
		pipe := newPipe(conn, &srv.conf.PipeConf, srv.metrics)
		srv.pipes[pipe] = struct{}{}
		srv.connWait.Add(1)
		srv.mu.Unlock()

		srv.metrics.IncConns()
		srv.metrics.IncTotalConns()
		go srv.serve(pipe)
	}
}

func (srv *Server) serve(pipe *system.ConnPipe) {
	start := time.Now()
	defer func() {
		pipe.Close()

		srv.mu.Lock()
		delete(srv.pipes, pipe)
		srv.mu.Unlock()

		srv.metrics.DecConns()
		srv.metrics.ObserveConnDuration(time.Since(start))
		srv.connWait.Done()
	}()

	srv.handler(pipe)
	<-pipe.Done()
}

// Stop closes the listener and every connection, then waits for the
// connection handlers to return.
func (srv *Server) Stop() {
	srv.mu.Lock()
	srv.stopped = true
	ln := srv.ln
	srv.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	srv.lnWait.Wait()

	srv.mu.Lock()
	for pipe := range srv.pipes {
		pipe.Close()
	}
	srv.mu.Unlock()

	srv.connWait.Wait()
}

func defaultServerConf(conf *ServerConf) {
	if conf.MaxConn <= 0 {
		conf.MaxConn = defaultMaxConn
	}
}
