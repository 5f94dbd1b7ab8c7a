package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/czx-lab/mojo/config"
	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/system/kcp"
	"github.com/czx-lab/mojo/system/tcp"
	"github.com/czx-lab/mojo/system/ws"
)

type listener interface {
	Start() error
	Stop()
}

func tcpPipeConf(c config.TransportConf) tcp.PipeConf {
	return tcp.PipeConf{
		ConnPipeConf: system.ConnPipeConf{
			PendingWrite: c.PendingWrite,
			MaxQueued:    c.MaxQueued,
		},
		MessageParserConf: tcp.MessageParserConf{
			MsgLengthType: tcp.LenType32,
			MsgMaxSize:    c.MaxMsgSize,
			LittleEndian:  true,
		},
	}
}

func wsPipeConf(c config.TransportConf) ws.PipeConf {
	return ws.PipeConf{
		ConnPipeConf: system.ConnPipeConf{
			PendingWrite: c.PendingWrite,
			MaxQueued:    c.MaxQueued,
		},
		MaxMsgSize: int64(c.MaxMsgSize),
	}
}

func kcpConf(c config.TransportConf) *kcp.Conf {
	return &kcp.Conf{
		PipeConf: tcpPipeConf(c),
		Addr:     c.Addr,
		Key:      c.Key,
		MaxConn:  c.MaxConn,
		NoDelay:  c.NoDelay,
	}
}

func newListener(c config.TransportConf, m system.ConnMetrics, handler func(system.MessagePipe)) (listener, error) {
	switch c.Network {
	case config.NetworkTCP:
		return tcp.NewServer(&tcp.ServerConf{
			PipeConf: tcpPipeConf(c),
			Addr:     c.Addr,
			MaxConn:  c.MaxConn,
		}, handler).WithMetrics(m), nil
	case config.NetworkWS:
		return ws.NewServer(&ws.ServerConf{
			PipeConf: wsPipeConf(c),
			Addr:     c.Addr,
			Path:     c.Path,
			MaxConn:  c.MaxConn,
		}, handler).WithMetrics(m), nil
	case config.NetworkKCP:
		srv := kcp.NewServer(kcpConf(c), handler)
		srv.WithMetrics(m)
		return srv, nil
	}
	return nil, fmt.Errorf("unknown network %q", c.Network)
}

func dial(ctx context.Context, c config.TransportConf) (system.MessagePipe, error) {
	var (
		pipe *system.ConnPipe
		err  error
	)
	switch c.Network {
	case config.NetworkTCP:
		conf := tcpPipeConf(c)
		pipe, err = tcp.Dial(ctx, c.Addr, &conf)
	case config.NetworkWS:
		conf := wsPipeConf(c)
		pipe, err = ws.Dial(ctx, "ws://"+c.Addr+"/"+strings.TrimPrefix(c.Path, "/"), &conf)
	case config.NetworkKCP:
		pipe, err = kcp.Dial(ctx, kcpConf(c))
	default:
		return nil, fmt.Errorf("unknown network %q", c.Network)
	}
	if err != nil {
		return nil, err
	}
	return pipe, nil
}
