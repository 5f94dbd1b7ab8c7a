package main

import (
	"github.com/czx-lab/mojo/app"
	"github.com/czx-lab/mojo/bindings"
	"github.com/czx-lab/mojo/config"
	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

type server struct {
	conf    *config.Config
	conns   system.ConnMetrics
	routers bindings.RouterMetrics
	ln      listener
}

var _ app.Module = (*server)(nil)

func newServer(conf *config.Config, conns system.ConnMetrics, routers bindings.RouterMetrics) *server {
	return &server{conf: conf, conns: conns, routers: routers}
}

// Init implements app.Module.
func (s *server) Init() error {
	ln, err := newListener(s.conf.Transport, s.conns, s.serve)
	if err != nil {
		return err
	}
	if err := ln.Start(); err != nil {
		return err
	}
	s.ln = ln

	xlog.Write().Info("echo: serving",
		zap.String("network", s.conf.Transport.Network), zap.String("addr", s.conf.Transport.Addr))
	return nil
}

func (s *server) serve(pipe system.MessagePipe) {
	r := bindings.NewRouter(pipe,
		bindings.WithReceiver(newPingService()),
		bindings.WithMetrics(s.routers),
	)
	r.Start()
}

// Run implements app.Module.
func (s *server) Run(done <-chan struct{}) {
	<-done
}

// Destroy implements app.Module.
func (s *server) Destroy() {
	s.ln.Stop()
}
