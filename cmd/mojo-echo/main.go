package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/czx-lab/mojo/app"
	"github.com/czx-lab/mojo/bindings"
	bmetrics "github.com/czx-lab/mojo/bindings/metrics"
	"github.com/czx-lab/mojo/config"
	"github.com/czx-lab/mojo/metrics"
	"github.com/czx-lab/mojo/system"
	"github.com/czx-lab/mojo/xlog"
	"go.uber.org/zap"
)

var configFile = flag.String("f", "etc/echo.yaml", "the config file")

func main() {
	flag.Parse()

	c := config.MustLoad(*configFile)
	xlog.Load(&c.Log)
	defer xlog.Sync()
	app.MustConf(c.Module)

	var (
		conns   system.ConnMetrics     = &system.NoopConnMetrics{}
		routers bindings.RouterMetrics = &bindings.NoopRouterMetrics{}
	)
	if c.Metrics.Enabled {
		metrics.Start(c.Metrics.Server)
		conns = metrics.NewConnMetrics(c.Metrics.Conn)
		routers = bmetrics.NewRouterMetrics(c.Metrics.Router)
	}

	var mod app.Module
	switch c.Mode {
	case config.ModeClient:
		mod = newClient(c, routers)
	default:
		mod = newServer(c, conns, routers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	xlog.Write().Info("mojo-echo starting", zap.String("mode", c.Mode))
	if err := app.Run(ctx, mod); err != nil {
		xlog.Write().Error("mojo-echo failed", zap.Error(err))
		xlog.Sync()
		os.Exit(1)
	}
	xlog.Write().Info("mojo-echo stopped")
}
