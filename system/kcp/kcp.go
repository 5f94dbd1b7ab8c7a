package kcp

import (
	"context"
	"crypto/sha1"
	"net"

	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/system/tcp"
	"github.com/xtaci/kcp-go/v5"
	"golang.org/x/crypto/pbkdf2"
)

const (
	defaultKey          = "mojo"
	defaultSalt         = "mojo-kcp"
	defaultDataShards   = 10
	defaultParityShards = 3
)

type (
	Conf struct {
		tcp.PipeConf
		Addr string
		// Passphrase the AES key is derived from
		Key  string
		Salt string
		// Forward error correction shards
		DataShards   int
		ParityShards int
		// Maximum number of connections
		MaxConn int
		// Turbo mode: no delay, 10ms interval, fast resend
		NoDelay bool
	}

	// Server serves kcp sessions with the tcp server loop. Every session is
	// framed exactly like a tcp connection.
	Server struct {
		conf *Conf
		*tcp.Server
	}

	listener struct {
		*kcp.Listener
		conf *Conf
	}
)

func NewServer(conf *Conf, handler func(system.MessagePipe)) *Server {
	defaultConf(conf)

	return &Server{
		conf: conf,
		Server: tcp.NewServer(&tcp.ServerConf{
			PipeConf: conf.PipeConf,
			Addr:     conf.Addr,
			MaxConn:  conf.MaxConn,
		}, handler),
	}
}

// Start listens for kcp sessions and serves them in the background.
func (srv *Server) Start() error {
	block, err := blockCrypt(srv.conf)
	if err != nil {
		return err
	}
	ln, err := kcp.ListenWithOptions(srv.conf.Addr, block, srv.conf.DataShards, srv.conf.ParityShards)
	if err != nil {
		return err
	}
	return srv.Serve(&listener{Listener: ln, conf: srv.conf})
}

// Accept tunes every session before the server frames it.
func (l *listener) Accept() (net.Conn, error) {
	sess, err := l.AcceptKCP()
	if err != nil {
		return nil, err
	}
	tune(sess, l.conf)
	return sess, nil
}

// Dial opens a kcp session to addr and returns the local end of the message
// pipe.
func Dial(ctx context.Context, conf *Conf) (*system.ConnPipe, error) {
	defaultConf(conf)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	block, err := blockCrypt(conf)
	if err != nil {
		return nil, err
	}
	sess, err := kcp.DialWithOptions(conf.Addr, block, conf.DataShards, conf.ParityShards)
	if err != nil {
		return nil, err
	}
	tune(sess, conf)
	return tcp.NewPipe(sess, &conf.PipeConf), nil
}

func blockCrypt(conf *Conf) (kcp.BlockCrypt, error) {
	key := pbkdf2.Key([]byte(conf.Key), []byte(conf.Salt), 1024, 32, sha1.New)
	return kcp.NewAESBlockCrypt(key)
}

func tune(sess *kcp.UDPSession, conf *Conf) {
	sess.SetStreamMode(true)
	if conf.NoDelay {
		sess.SetNoDelay(1, 10, 2, 1)
	}
}

func defaultConf(conf *Conf) {
	if conf.Key == "" {
		conf.Key = defaultKey
	}
	if conf.Salt == "" {
		conf.Salt = defaultSalt
	}
	if conf.DataShards <= 0 {
		conf.DataShards = defaultDataShards
	}
	if conf.ParityShards <= 0 {
		conf.ParityShards = defaultParityShards
	}
}
