package config

import (
	"time"

	"github.com/czx-lab/mojo/app"
	bmetrics "github.com/czx-lab/mojo/bindings/metrics"
	"github.com/czx-lab/mojo/metrics"
	"github.com/czx-lab/mojo/xlog"
	"github.com/zeromicro/go-zero/core/conf"
)

const (
	ModeServer = "server"
	ModeClient = "client"

	NetworkTCP = "tcp"
	NetworkWS  = "ws"
	NetworkKCP = "kcp"
)

type (
	Config struct {
		Log       xlog.Conf      `json:",optional"`
		Module    app.ModuleConf `json:",optional"`
		Metrics   MetricsConf    `json:",optional"`
		Transport TransportConf  `json:",optional"`
		Mode      string         `json:",default=server,options=server|client"`
		// Number of pings a client sends
		Count int `json:",default=3"`
		// How long a client waits for each reply
		Timeout time.Duration `json:",default=5s"`
	}

	MetricsConf struct {
		Enabled bool                       `json:",optional"`
		Server  metrics.ServerConf         `json:",optional"`
		Conn    metrics.ConnMetricsConf    `json:",optional"`
		Router  bmetrics.RouterMetricsConf `json:",optional"`
	}

	TransportConf struct {
		Network string `json:",default=tcp,options=tcp|ws|kcp"`
		Addr    string `json:",default=127.0.0.1:7000"`
		// Websocket endpoint path
		Path    string `json:",default=/mojo"`
		MaxConn int    `json:",default=1000"`
		// Frames waiting to be written per connection
		PendingWrite int `json:",default=100"`
		// Unread messages per connection
		MaxQueued  int    `json:",default=1024"`
		MaxMsgSize uint32 `json:",default=1048576"`
		// kcp only
		Key     string `json:",optional"`
		NoDelay bool   `json:",optional"`
	}
)

// Load reads a yaml, json or toml configuration file.
func Load(path string) (*Config, error) {
	var c Config
	if err := conf.Load(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MustLoad is Load that exits the process on error.
func MustLoad(path string) *Config {
	var c Config
	conf.MustLoad(path, &c)
	return &c
}
