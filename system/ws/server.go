package ws

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type (
	ServerConf struct {
		PipeConf
		Addr     string
		// Endpoint path (empty: every path)
		Path     string
		CertFile string
		KeyFile  string
		MaxConn  int
		// Handshake timeout in seconds, established pipes have no deadline
		Timeout  int
	}

	// Handler upgrades requests to websockets and hands each connection to
	// a callback as a message pipe.
	Handler struct {
		conf     *ServerConf
		mu       sync.Mutex
		wg       sync.WaitGroup
		upgrader websocket.Upgrader
		pipes    map[*system.ConnPipe]struct{}
		handler  func(system.MessagePipe)
		metrics  system.ConnMetrics
	}

	Server struct {
		conf    *ServerConf
		ln      net.Listener
		srv     *http.Server
		handler *Handler
	}
)

var _ http.Handler = (*Handler)(nil)

func NewHandler(conf *ServerConf, handler func(system.MessagePipe)) *Handler {
	defaultServerConf(conf)

	return &Handler{
		conf: conf,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: time.Duration(conf.Timeout) * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		pipes:   make(map[*system.ConnPipe]struct{}),
		handler: handler,
		metrics: &system.NoopConnMetrics{},
	}
}

// WithMetrics sets the connection metrics recorder.
func (h *Handler) WithMetrics(m system.ConnMetrics) *Handler {
	h.metrics = m
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.IncFailedConns()
		xlog.Write().Debug("ws: upgrade failed", zap.Error(err))
		return
	}
	// drop deadlines the http server put on the hijacked connection
	conn.NetConn().SetDeadline(time.Time{})

	h.mu.Lock()
	if h.pipes == nil || len(h.pipes) >= h.conf.MaxConn {
		h.mu.Unlock()
		xlog.Write().Warn("ws: too many connections", zap.Int("max", h.conf.MaxConn))
		h.metrics.IncFailedConns()
		conn.Close()
		return
	}
	pipe := newPipe(conn, &h.conf.PipeConf, h.metrics)
	h.pipes[pipe] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	start := time.Now()
	h.metrics.IncConns()
	h.metrics.IncTotalConns()
	defer func() {
		pipe.Close()

		h.mu.Lock()
		delete(h.pipes, pipe)
		h.mu.Unlock()

		h.metrics.DecConns()
		h.metrics.ObserveConnDuration(time.Since(start))
		h.wg.Done()
	}()

	h.handler(pipe)
	<-pipe.Done()
}

// Close closes every connection and waits for their handlers. Later
// upgrades are refused.
func (h *Handler) Close() {
	h.mu.Lock()
	for pipe := range h.pipes {
		pipe.Close()
	}
	h.pipes = nil
	h.mu.Unlock()

	h.wg.Wait()
}

func NewServer(conf *ServerConf, handler func(system.MessagePipe)) *Server {
	return &Server{
		conf:    conf,
		handler: NewHandler(conf, handler),
	}
}

// WithMetrics sets the connection metrics recorder.
func (s *Server) WithMetrics(m system.ConnMetrics) *Server {
	s.handler.WithMetrics(m)
	return s
}

// Start listens on the configured address, with TLS when a certificate is
// configured.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.conf.Addr)
	if err != nil {
		return err
	}

	if len(s.conf.CertFile) > 0 || len(s.conf.KeyFile) > 0 {
		cert, err := tls.LoadX509KeyPair(s.conf.CertFile, s.conf.KeyFile)
		if err != nil {
			ln.Close()
			return fmt.Errorf("ws: load key pair: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			NextProtos:   []string{"http/1.1"},
			Certificates: []tls.Certificate{cert},
		})
	}

	var h http.Handler = s.handler
	if s.conf.Path != "" {
		mux := http.NewServeMux()
		mux.Handle(s.conf.Path, s.handler)
		h = mux
	}

	s.ln = ln
	s.srv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: time.Duration(s.conf.Timeout) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	go s.srv.Serve(ln)
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listener and every connection.
func (s *Server) Stop() {
	if s.srv != nil {
		s.srv.Close()
	}
	s.handler.Close()
}

func defaultServerConf(conf *ServerConf) {
	if conf.MaxConn <= 0 {
		conf.MaxConn = 1000
	}
	defaultPipeConf(&conf.PipeConf)
}
