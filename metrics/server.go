package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/czx-lab/mojo/xlog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	once    sync.Once
	enabled atomic.Bool
)

// ServerConf configures the metrics endpoint.
type ServerConf struct {
	Host string `json:",optional"`
	Port int    `json:",default=9101"`
	Path string `json:",default=/metrics"`
}

func Enabled() bool {
	return enabled.Load()
}

func Enable() {
	enabled.Store(true)
}

// Start enables metrics and serves them over HTTP. Only the first call has
// an effect.
func Start(conf ServerConf) {
	defaultServerConf(&conf)
	once.Do(func() {
		Enable()

		mux := http.NewServeMux()
		mux.Handle(conf.Path, promhttp.Handler())
		addr := fmt.Sprintf("%s:%d", conf.Host, conf.Port)
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				xlog.Write().Error("metrics: server stopped", zap.String("addr", addr), zap.Error(err))
			}
		}()
	})
}

func defaultServerConf(conf *ServerConf) {
	if conf.Path == "" {
		conf.Path = "/metrics"
	}
	if conf.Port == 0 {
		conf.Port = 9101
	}
}
